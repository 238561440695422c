// Package buildinfo holds version information stamped in at build time.
//
// Variables are set via ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/pixelshare/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/pixelshare/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/pixelshare/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/pixelshare
package buildinfo

import "fmt"

var (
	// Version is the semantic version, "dev" for local builds.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String returns the build information, one field per line.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// UserAgent identifies pixelshare clients in HTTP requests.
func UserAgent() string {
	return "pixelshare/" + Version
}
