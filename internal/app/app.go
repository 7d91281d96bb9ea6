// Where: cli/internal/app/app.go
// What: CLI entrypoint logic.
// Why: Provide a testable command dispatcher.
package app

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/appbridge/cli/internal/meta"
	"github.com/appbridge/cli/internal/version"
)

// CLI defines the command-line interface structure parsed by Kong.
// It contains global flags and all subcommand definitions.
type CLI struct {
	Verbose bool   `short:"v" help:"Enable debug logging"`
	Quiet   bool   `short:"q" help:"Only log errors"`
	EnvFile string `name:"env-file" help:"Path to .env file"`

	Convert ConvertCmd `cmd:"" help:"Convert source apps into package descriptors"`
	Updates UpdatesCmd `cmd:"" help:"Detect upstream changes against converted output"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

type ConvertCmd struct {
	Source         string `arg:"" help:"App directory, or catalog root with --batch"`
	Output         string `short:"o" default:"converted" help:"Output directory"`
	Batch          bool   `help:"Convert every app directory under the source"`
	Sync           bool   `help:"Clone or pull the upstream catalog into the source directory first (requires --batch and --upstream-url)"`
	DownloadAssets bool   `name:"download-assets" help:"Download icons and screenshots"`
	Workers        int    `help:"Batch worker count (default: number of CPUs)"`
	MappingsDir    string `name:"mappings-dir" help:"Directory with custom mapping tables"`
	UpstreamURL    string `name:"upstream-url" help:"Upstream repository URL recorded for update detection"`
}

type UpdatesCmd struct {
	Upstream    string `arg:"" help:"Upstream catalog directory"`
	Converted   string `arg:"" help:"Converted output directory"`
	JSON        bool   `help:"Emit a machine-readable JSON report"`
	Fetch       bool   `help:"Clone or pull the upstream repository first (requires --upstream-url)"`
	UpstreamURL string `name:"upstream-url" help:"Upstream repository URL for --fetch"`
}

type VersionCmd struct{}

// Run is the main entry point for CLI command execution.
// It parses the command-line arguments, identifies the requested command,
// and dispatches to the appropriate handler. Returns 0 on success, 1 on error.
func Run(args []string, deps Dependencies) int {
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}

	cli := CLI{}
	parser, err := kong.New(&cli,
		kong.Name(meta.AppName),
		kong.Description("Convert CasaOS app definitions into container package descriptors"),
		kong.DefaultEnvars(meta.EnvPrefix),
	)
	if err != nil {
		return exitWithError(out, err)
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return exitWithError(out, err)
	}

	configureLogging(cli)
	loadEnvFile(cli, out)

	if exitCode, handled := dispatchCommand(ctx.Command(), cli, deps, out); handled {
		return exitCode
	}

	fmt.Fprintln(out, "unknown command")
	return 1
}

type commandHandler func(CLI, Dependencies, io.Writer) int

func dispatchCommand(command string, cli CLI, deps Dependencies, out io.Writer) (int, bool) {
	handlers := map[string]commandHandler{
		"convert <source>":               runConvert,
		"updates <upstream> <converted>": runUpdates,
		"version":                        func(_ CLI, _ Dependencies, out io.Writer) int { return runVersion(out) },
	}

	if handler, ok := handlers[command]; ok {
		return handler(cli, deps, out), true
	}
	return 1, false
}

// runVersion prints the version information of the CLI.
func runVersion(out io.Writer) int {
	fmt.Fprintln(out, version.GetVersion())
	return 0
}

func configureLogging(cli CLI) {
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	switch {
	case cli.Quiet:
		logrus.SetLevel(logrus.ErrorLevel)
	case cli.Verbose:
		logrus.SetLevel(logrus.DebugLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// loadEnvFile loads the flagged env file, or .env in the working directory
// when one exists. Load failures warn and never block the command.
func loadEnvFile(cli CLI, out io.Writer) {
	if cli.EnvFile != "" {
		if err := godotenv.Load(cli.EnvFile); err != nil {
			fmt.Fprintf(out, "Warning: failed to load env file %s: %v\n", cli.EnvFile, err)
		}
		return
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(out, "Warning: failed to load .env: %v\n", err)
		}
	}
}

func exitWithError(out io.Writer, err error) int {
	fmt.Fprintln(out, "Error:", err)
	return 1
}
