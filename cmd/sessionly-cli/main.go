package main

import (
	"fmt"
	"os"

	"github.com/Anvoria/sessionly/internal/cli"
	"github.com/Anvoria/sessionly/internal/cli/admin"
	"github.com/Anvoria/sessionly/internal/cli/keys"
)

func main() {
	registry := cli.NewRegistry()

	registry.Register(&keys.Command{})
	registry.Register(&admin.Command{})

	if err := registry.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
