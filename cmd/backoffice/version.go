package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-agency-backoffice/internal/sysutil"
)

// Actual version can be specified in build command.
var version = "unknown"

// appVersion prefers the build-time version, then APP_VERSION.
func appVersion() string {
	if version != "unknown" {
		return version
	}
	return sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, appVersion())
	},
}
