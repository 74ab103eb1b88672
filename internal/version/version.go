// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rickgao/tickersense/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/tickersense/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/rickgao/tickersense/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

// Build-time variables (set via ldflags)
var (
	// Version is the semantic version (e.g., "1.0.0")
	Version = "dev"

	// Commit is the git commit hash (short form)
	Commit = "unknown"

	// BuildTime is the UTC build timestamp (ISO 8601)
	BuildTime = "unknown"
)

// Info is the build information reported by /health and build_info.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Get returns the current build information.
func Get() Info {
	return Info{Version: Version, Commit: Commit, BuildTime: BuildTime}
}

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}

// LogAttrs returns the build fields as slog key/value pairs.
func LogAttrs() []any {
	return []any{"version", Version, "commit", Commit, "build_time", BuildTime}
}
