// Command slackpack runs the Slack-Pack rectangle-packing engine from
// the command line: generate a detail stream, pack it onto a sheet,
// and write the resulting placement list as JSON.
//
// Build:
//
//	go build -o slackpack ./cmd/slackpack
package main

import (
	"fmt"
	"os"

	"github.com/piwi3910/slackpack/cmd/slackpack/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "slackpack:", err)
		os.Exit(1)
	}
}
