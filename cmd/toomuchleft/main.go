package main

import (
	"errors"
	"fmt"
	"os"

	"toomuchleft/internal/cmd"
	"toomuchleft/internal/domain"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", domain.Describe(err))
		os.Exit(1)
	}
}
