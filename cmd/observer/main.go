package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/observer/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Error output formats.
const (
	errorFormatText    = "text"
	errorFormatCompact = "compact"
	errorFormatJSON    = "json"
)

func main() {
	cmd := rootCmd()
	if err := cmd.Execute(); err != nil {
		format, _ := cmd.PersistentFlags().GetString("error-format")
		printError(os.Stderr, err, format)
		os.Exit(1)
	}
}

// printError reports err on w. Errors without a code are reported as E104.
func printError(w io.Writer, err error, format string) {
	e := errors.FromError(err, "E104")
	switch format {
	case errorFormatJSON:
		fmt.Fprintln(w, e.FormatJSON())
	case errorFormatCompact:
		fmt.Fprintln(w, e.FormatCompact())
	default:
		errors.PrintError(w, e)
	}
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "observer",
		Short: "Run and inspect reactive documents",
		Long: `observer drives a fine-grained reactive dependency tracker.

Load a JSON or YAML document, observe it, and apply mutation
scripts while watching which readers re-run:

  • Scripts of assign, set, delete and array operations
  • Watchers that report every re-run
  • Prometheus metrics and OpenTelemetry spans
  • A websocket inspector streaming core events`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.noColor || os.Getenv("NO_COLOR") != "" {
				errors.DisableColors()
				colorOutput = false
			}
			switch flags.errorFormat {
			case errorFormatText, errorFormatCompact, errorFormatJSON:
				return nil
			}
			return errors.New("E104").WithDetailf("unknown error format %q", flags.errorFormat)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configDir, "config", "c", ".", "Directory containing observer.json or observer.yaml")
	cmd.PersistentFlags().BoolVar(&flags.dev, "dev", false, "Enable developer warnings")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().StringVar(&flags.errorFormat, "error-format", errorFormatText, "Error output: text, compact or json")

	cmd.AddCommand(
		runCmd(&flags),
		serveCmd(&flags),
		versionCmd(),
	)
	return cmd
}

// colorOutput is cleared by --no-color.
var colorOutput = true

// success prints a success message.
func success(format string, args ...any) {
	mark := "✓"
	if colorOutput {
		mark = "\033[32m✓\033[0m"
	}
	fmt.Printf("%s %s\n", mark, fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
