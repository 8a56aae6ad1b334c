// Command hubctl inspects tier tables and usage records and replays model
// responses through the extractor.
package main

import (
	"fmt"
	"os"
)

const (
	exitError = 1
	exitUsage = 2
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if isUsageError(err) {
			os.Exit(exitUsage)
		}
		os.Exit(exitError)
	}
}
