// Command westvm drives Zephyr west workflows inside a Multipass VM.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/westvm/westvm/cmd/westvm/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
