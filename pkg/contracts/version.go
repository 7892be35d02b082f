package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	// Version is the release of costsheet.
	Version = "0.3.0"

	// APIVersion is the version of the HTTP and WebSocket contracts.
	APIVersion = "v1"
)

// Overridden with -ldflags "-X costsheet/pkg/contracts.GitCommit=..." on
// release builds. Left empty, they fall back to the VCS stamp that
// go build embeds.
var (
	BuildTime string
	GitCommit string
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	Modified     bool   `json:"modified,omitempty"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
}

// GetVersionInfo collects version details from ldflags and build info.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:      Version,
		APIVersion:   APIVersion,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}

	if info.GitCommit == "" {
		info.GitCommit = "unknown"
	}
	if info.BuildTime == "" {
		info.BuildTime = "unknown"
	}
	return info
}

// GetFullVersionString is the one-line banner printed by the version command.
func GetFullVersionString() string {
	info := GetVersionInfo()
	commit := info.GitCommit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if info.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("costsheet v%s (api %s, commit %s, built %s, %s %s/%s)",
		info.Version, info.APIVersion, commit, info.BuildTime, info.GoVersion, info.OS, info.Architecture)
}
