// Command cljr-repl runs the nREPL-style wire server (spec PACKAGE LAYOUT
// "cmd/cljr-repl"). Grounded on _examples/ehrlich-b-wingthing/cmd/wingthing/main.go's
// package-level cobra.Command + flag-over-config-file idiom.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dangercoder/cljr/internal/config"
	"github.com/dangercoder/cljr/internal/hostcompile"
	"github.com/dangercoder/cljr/internal/wire"
)

var (
	configPath string
	port       int
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "cljr-repl",
	Short: "Run the cljr wire-protocol REPL server",
	RunE:  run,
}

func main() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to "+config.FileName+" (defaults to cwd)")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "TCP port to listen on (0 = ephemeral)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cljr-repl:", err)
		os.Exit(1)
	}
}

func run(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Port = port
	}
	if verbose {
		cfg.Verbose = true
	}

	log := newLogger(cfg.Verbose)
	defer log.Sync()

	// The real host compiler lives outside this module's scope (spec §1
	// "the external host compiler is a black box"); until a deployment
	// wires a real adapter in, every session gets its own in-memory Fake
	// so the REPL driver and wire protocol have something to compile
	// against end to end.
	newCompiler := func() hostcompile.Compiler { return hostcompile.NewFake() }

	server, err := wire.NewServer(cfg, newCompiler, log)
	if err != nil {
		return fmt.Errorf("starting wire server: %w", err)
	}
	log.Infow("cljr-repl listening", "addr", server.Addr().String())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ctx) }()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		return server.Close()
	case err := <-errCh:
		return err
	}
}

func loadConfig() (*config.Session, error) {
	path := configPath
	if path == "" {
		path = config.FileName
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return config.Default(), nil
		}
		return nil, err
	}
	return config.Load(path)
}

func newLogger(verbose bool) *zap.SugaredLogger {
	if verbose {
		l, _ := zap.NewDevelopment()
		return l.Sugar()
	}
	l, _ := zap.NewProduction()
	return l.Sugar()
}
