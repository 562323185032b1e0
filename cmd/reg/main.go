// Package main is the entry point for the reg CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/thoreinstein/reg/cmd/reg/commands"
	regerrors "github.com/thoreinstein/reg/internal/errors"
)

func main() {
	err := commands.Execute()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)

	var exitErr *regerrors.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Suggestion != "" {
			fmt.Fprintln(os.Stderr, exitErr.Suggestion)
		}
		os.Exit(exitErr.Code)
	}
	os.Exit(regerrors.ExitUser)
}
