package main

import (
	"fmt"
	"os"

	"github.com/richxcame/fleet/internal/cli"
)

const version = "1.0.0"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
