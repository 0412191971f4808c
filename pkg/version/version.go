package version

import "runtime/debug"

// Version is the current application version. It is a var so release
// builds can set it:
//
//	go build -ldflags "-X github.com/vanderheijden86/graphsketch/pkg/version.Version=v0.2.0"
var Version = "v0.1.0-dev"

// String returns Version, followed by the VCS revision when the binary
// was built from a checkout.
func String() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version
	}
	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return Version
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "-dirty"
	}
	return Version + " (" + rev + ")"
}
