package repl

import (
	"os"
	"path/filepath"
	"strings"
)

// SourceExt is the source-language file extension (spec §6 "Source-file
// convention").
const SourceExt = ".cljr"

// nsToRelPath implements spec §6's file-naming convention: the file at
// path root/ns/seg1/seg2<ext> defines namespace "ns.seg1.seg2", with
// each path segment mangled by replacing "-" with "_".
func nsToRelPath(ns string) string {
	segs := strings.Split(ns, ".")
	for i, s := range segs {
		segs[i] = strings.ReplaceAll(s, "-", "_")
	}
	return filepath.Join(segs...) + SourceExt
}

// findSourceFile searches roots in order for the file implementing ns,
// returning the first match.
func findSourceFile(roots []string, ns string) (string, bool) {
	rel := nsToRelPath(ns)
	for _, root := range roots {
		candidate := filepath.Join(root, rel)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}
