// Package config loads the dev-session configuration options spec §6's
// table names (watch-paths, source-paths, enable-watching, auto-reload,
// initial-namespace, port, verbose). Grounded on
// _examples/ehrlich-b-wingthing's internal/config/wing.go (a yaml.v3
// struct-tagged settings file loaded from a dotfile in the user's home or
// project directory).
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the default dev-session config file name, read from the
// project root the REPL is started in.
const FileName = ".cljr-repl.yaml"

// Session is the dev-session configuration object of spec §6.
type Session struct {
	WatchPaths       []string `yaml:"watch-paths,omitempty"`
	SourcePaths      []string `yaml:"source-paths,omitempty"`
	EnableWatching   bool     `yaml:"enable-watching,omitempty"`
	AutoReload       bool     `yaml:"auto-reload,omitempty"`
	InitialNamespace string   `yaml:"initial-namespace,omitempty"`
	Port             int      `yaml:"port,omitempty"`
	Verbose          bool     `yaml:"verbose,omitempty"`
}

// Default returns the configuration used when no config file is present:
// an ephemeral port, watching off, and the user bootstrap namespace.
func Default() *Session {
	return &Session{
		SourcePaths:      []string{"src"},
		InitialNamespace: "user",
		Port:             0,
	}
}

// Load reads and parses path, falling back to Default() when the file
// does not exist. A present-but-malformed file is a hard error — spec §6
// treats these as session bootstrap options, not optional hints.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
