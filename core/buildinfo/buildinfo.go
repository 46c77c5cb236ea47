// Package buildinfo reports the version the binary was built from.
package buildinfo

import "runtime/debug"

// Set via -ldflags, for example:
//
//	-X 'github.com/ranggaxyy/deplot-bot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/ranggaxyy/deplot-bot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/ranggaxyy/deplot-bot/core/buildinfo.Date=2026-10-01T12:00:00Z'
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// vcs reads the revision and time the go tool stamps into module builds.
func vcs() (revision, built string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			built = s.Value
		}
	}
	return revision, built
}

// Summary renders "version (commit, date)" for /status and startup logs.
// Missing ldflags fall back to the VCS stamp, then to "local".
func Summary() string {
	commit, date := Commit, Date
	if commit == "" {
		rev, built := vcs()
		commit = rev
		if date == "" {
			date = built
		}
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if commit == "" {
		commit = "local"
	}
	if date == "" {
		return Version + " (" + commit + ")"
	}
	return Version + " (" + commit + ", " + date + ")"
}
