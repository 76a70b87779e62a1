// Package cli implements expectd's command-line entrypoint: a bare
// invocation starts the server with the serve command's defaults, same as
// the teacher's no-args-runs-serve convention.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is injected at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "expectd",
	Short: "expectd is a programmable HTTP mock server",
	Long: `expectd answers HTTP requests either with a pre-declared canned
response or by forwarding them to an upstream origin, driven by
expectations declared through its control-plane REST API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServeWithFlags(&serveFlagVals)
	},
}

// Execute adds all child commands to the root command and runs it. Called
// once from main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	initServeCmd()
}
