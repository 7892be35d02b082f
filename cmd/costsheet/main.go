// Command costsheet totals the cost column of a Google Sheet, either live
// through a signed-in browser profile or from an exported file.
package main

import (
	"errors"
	"os"

	"costsheet/internal/console"
)

func main() {
	cli := newCLI(os.Stdout, os.Stderr)
	if err := cli.Execute(); err != nil {
		if !errors.Is(err, errSummaryFailed) {
			console.New(os.Stderr).Error("%v", err)
		}
		os.Exit(1)
	}
}
