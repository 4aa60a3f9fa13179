// Command leetrag indexes LeetCode problems for semantic retrieval. It
// provides a CLI (via Cobra) for loading and querying problems and an HTTP
// server exposing the same operations.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/leetrag/cmd/leetrag/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
