// Package main provides the vigil data-quality CLI.
package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"

	"github.com/vigilsql/vigil/internal/cli"
)

func main() {
	// Load .env if present; credentials referenced as ${VAR} in vigil.yaml
	// resolve against it.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		var failed *cli.FailedChecksError
		if errors.As(err, &failed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
