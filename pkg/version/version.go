package version

import "fmt"

// These are set at build time via -ldflags.
var (
	version = "unreleased"
	commit  = ""
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
}

func Get() Info {
	return Info{Version: version, Commit: commit}
}

func (i Info) String() string {
	if i.Commit == "" {
		return i.Version
	}
	return fmt.Sprintf("%s (%s)", i.Version, i.Commit)
}
