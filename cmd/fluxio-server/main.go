package main

import (
	"github.com/fluxio-platform/fluxio/cmd/fluxio-server/cli"
	"github.com/fluxio-platform/fluxio/internal/version"
)

var (
	// Version info (set by ldflags during build)
	buildVersion = "dev"
	buildTime    = "unknown"
	gitCommit    = "unknown"
)

func main() {
	cli.SetVersion(buildVersion, buildTime, gitCommit)

	version.Version = buildVersion
	version.BuildDate = buildTime
	version.GitCommit = gitCommit

	cli.Execute()
}
