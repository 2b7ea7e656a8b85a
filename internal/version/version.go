package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is overridable at build time with
// -ldflags "-X github.com/flowdeck/flowdeck/internal/version.Version=v1.2.3".
var Version = "dev"

// Info carries the release version plus the VCS stamp the Go linker embeds.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func Get() Info {
	info := Info{
		Version:   GetVersion(),
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	if build, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range build.Settings {
			switch setting.Key {
			case "vcs.revision":
				info.GitCommit = setting.Value
			case "vcs.time":
				info.BuildDate = setting.Value
			}
		}
	}

	return info
}

// GetVersion returns the release version, falling back to the module version
// recorded in build info when ldflags did not set one.
func GetVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	if build, ok := debug.ReadBuildInfo(); ok {
		if build.Main.Version != "(devel)" && build.Main.Version != "" {
			return build.Main.Version
		}
	}

	return "dev"
}
