// Package version reports the build of an agentstream binary, from values
// set with -ldflags or from the module build information.
package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Metadata describes a build.
type Metadata struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Compiler  string `json:"compiler"`
	Tag       string `json:"tag,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Source    string `json:"source,omitempty"`
	Hash      string `json:"hash,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	GitTag    string
	GitBranch string
)

const shortHash = 12

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Version returns the tag, the branch, or the short revision of the build,
// falling back to "dev".
func Version() string {
	return Get("").Version
}

// Get returns the metadata for the named executable.
func Get(execName string) Metadata {
	metadata := Metadata{
		Name:     execName,
		Compiler: runtime.Version(),
		Tag:      GitTag,
		Branch:   GitBranch,
	}
	var goos, goarch string
	if info, ok := debug.ReadBuildInfo(); ok {
		metadata.Source = info.Main.Path
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				metadata.Hash = s.Value
			case "vcs.time":
				metadata.BuildTime = s.Value
			case "vcs.modified":
				metadata.Modified = s.Value == "true"
			case "GOOS":
				goos = s.Value
			case "GOARCH":
				goarch = s.Value
			}
		}
	}
	if goos != "" && goarch != "" {
		metadata.Platform = goos + "/" + goarch
	}
	metadata.Version = version(metadata.Hash)
	return metadata
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (m Metadata) String() string {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func version(hash string) string {
	switch {
	case GitTag != "":
		return GitTag
	case GitBranch != "":
		return GitBranch
	case len(hash) > shortHash:
		return hash[:shortHash]
	case hash != "":
		return hash
	default:
		return "dev"
	}
}
