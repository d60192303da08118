package main

import (
	"context"
	"fmt"
	"os"

	"github.com/navarrastar/portfolio/pkg/commands"
)

func main() {
	if err := commands.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
