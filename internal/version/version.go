// Package version carries build-time identity for the subsyncit binary.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// AppName is the display name of the application.
	AppName = "Subsyncit"

	// Version of the application, overridable via -ldflags.
	Version = "0.1.0-dev"

	// Revision is the VCS commit the binary was built from.
	Revision = "HEAD"
)

func init() {
	resolveFromBuildInfo()
}

func resolveFromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return
	}

	if Version == "0.1.0-dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = strings.TrimPrefix(info.Main.Version, "v")
	}

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && Revision == "HEAD" {
			Revision = s.Value
		}
	}
}

// Detailed returns a one-line human readable version string, suitable for
// a CLI's --version output.
func Detailed() string {
	return fmt.Sprintf("%s %s (%s)", AppName, Version, Revision)
}
