package weave

import "strings"

// Release builds set both values through the linker, for example
//
//	-ldflags "-X github.com/iov-one/weave-escrow.GitCommit=$(git rev-parse --short HEAD)"
var (
	release   = "v0.1.0-dev"
	GitCommit = ""
)

// Version returns the release name followed by the commit it was built
// from, when known.
func Version() string {
	return strings.TrimSpace(release + " " + GitCommit)
}
