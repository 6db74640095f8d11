// cmd/routined/main.go
package main

import (
	"fmt"
	"os"

	"github.com/tamzrod/routine-runner/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "routined:", err)
		os.Exit(1)
	}
}
