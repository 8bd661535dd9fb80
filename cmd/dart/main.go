// dart - command-line client for the DART document platform.
package main

import (
	"os"

	"github.com/dart-platform/dart-cli/internal/cli"
	"github.com/dart-platform/dart-cli/internal/version"
)

// Version information, overridden by ldflags in release builds.
var (
	Version   = "v0.1.0-dev"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if code := cli.ExitCode(cli.Execute()); code != cli.ExitOK {
		os.Exit(code)
	}
}
