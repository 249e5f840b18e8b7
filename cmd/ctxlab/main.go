// Command ctxlab is the workspace lab runner entry point.
package main

import (
	"os"

	"github.com/fyrsmithlabs/ctxlab/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
