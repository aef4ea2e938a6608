// Package version carries build metadata injected by the linker.
package version

// Populated via -ldflags at build time; defaults apply to a plain
// go build.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
