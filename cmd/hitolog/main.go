package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mzfrvt/hitolog/internal/apperr"
	"github.com/mzfrvt/hitolog/internal/cli"
)

func main() {
	// Optional .env for HITOLOG_DB and friends.
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func renderError(err error) string {
	var validation *apperr.ValidationError
	if errors.As(err, &validation) {
		return fmt.Sprintf("invalid input: %s: %s", validation.Field, validation.Message)
	}
	var conflict *apperr.ConflictError
	if errors.As(err, &conflict) {
		return conflict.Message
	}
	if apperr.IsNotFound(err) {
		return err.Error()
	}
	return fmt.Sprintf("error: %v", err)
}
