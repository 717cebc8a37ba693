// Package buildinfo carries values stamped into the binaries at link time:
//
//	-X 'github.com/m3rciful/topicbot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/topicbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/topicbot/core/buildinfo.Date=2026-01-01T12:00:00Z'
package buildinfo

import "fmt"

var (
	// Version is the release tag of the build.
	Version = "dev"
	// Commit is the VCS revision of the build.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)

// String renders a one-line build description for --version output.
func String() string {
	if Date == "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return fmt.Sprintf("%s (%s, built %s)", Version, Commit, Date)
}
