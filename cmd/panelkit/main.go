// Command panelkit validates and exercises panelkit projects.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/panelkit/cmd/panelkit/cmd"
)

func main() {
	if err := cmd.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
