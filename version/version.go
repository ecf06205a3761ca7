// Package version reports which build of the overtone commands is running,
// so that logs and bug reports can be matched to a commit.
package version

import (
	"log/slog"
	"runtime"
	"runtime/debug"
)

// Version is empty unless set by the release build, e.g.
//
//	go build -ldflags "-X github.com/vsariola/overtone/version.Version=v0.1.0" ./cmd/overtone-play
var Version string

// Hash is the short VCS revision stamped by the Go toolchain, suffixed with
// -dirty for builds from a modified tree. It is empty for builds outside a
// repository, such as go run on a module copy.
var Hash = func() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		modified := false
		for _, setting := range info.Settings {
			if setting.Key == "vcs.modified" && setting.Value == "true" {
				modified = true
				break
			}
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				shortHash := setting.Value[:min(7, len(setting.Value))]
				if modified {
					return shortHash + "-dirty"
				}
				return shortHash
			}
		}
	}
	return ""
}()

// VersionOrHash is what the commands print for -v and log at startup.
var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return Hash
}()

// Attr groups the version and the Go runtime version for structured logs.
func Attr() slog.Attr {
	return slog.Group("build",
		slog.String("version", VersionOrHash),
		slog.String("go", runtime.Version()))
}
