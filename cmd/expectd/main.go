// expectd is the command-line entrypoint for the mock server: a
// programmable HTTP mock that answers canned responses or forwards to an
// upstream, driven by expectations declared through its control-plane API.
package main

import "github.com/getmockd/mockd/pkg/cli"

// Version is injected at build time via ldflags.
var Version = "dev"

func main() {
	cli.Version = Version
	cli.Execute()
}
