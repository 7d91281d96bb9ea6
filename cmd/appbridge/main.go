// Where: cli/cmd/appbridge/main.go
// What: CLI entrypoint.
// Why: Execute appbridge commands with configured dependencies.
package main

import (
	"os"

	"github.com/appbridge/cli/internal/app"
)

func main() {
	deps := app.Dependencies{Out: os.Stdout}
	os.Exit(app.Run(os.Args[1:], deps))
}
