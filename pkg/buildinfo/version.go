// Package buildinfo reports which build of clausetree is running.
//
// Release builds stamp the values with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/clausetree/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/clausetree/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/clausetree/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Binaries built with go install carry no ldflags; for those, unset values
// are filled from the module and VCS data embedded by the Go toolchain.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Stamped by ldflags. The defaults mark an unstamped build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// readBuildInfo is swapped out in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info is the build information as served by the API.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version,omitempty"`
}

// Get returns the current build information.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "none":
			info.Commit = s.Value
		case s.Key == "vcs.time" && info.Date == "unknown":
			info.Date = s.Value
		}
	}
	return info
}

// String formats the build information one field per line.
func String() string {
	i := Get()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", i.Version, i.Commit, i.Date)
}

// Template is the cobra version template.
func Template() string {
	i := Get()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", i.Version, i.Commit, i.Date)
}
