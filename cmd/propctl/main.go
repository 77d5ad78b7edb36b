package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vango-dev/prop/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// colors controls ANSI colors in command output.
var colors = true

func rootCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "propctl",
		Short: "Serve, watch and benchmark observable properties",
		Long: `propctl hosts a collection of observable properties.

It serves them over HTTP, streams their changes to websocket
watchers, exports reactor metrics, and benchmarks deferred
change delivery.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setColors(!noColor && term.IsTerminal(int(os.Stderr.Fd())))
		},
	}

	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		serveCmd(),
		benchCmd(),
		configCmd(),
		explainCmd(),
		versionCmd(),
	)
	return cmd
}

func setColors(enabled bool) {
	colors = enabled
	if enabled {
		errors.EnableColors()
	} else {
		errors.DisableColors()
	}
}

func paint(code, text string) string {
	if !colors {
		return text
	}
	return code + text + "\033[0m"
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("%s %s\n", paint("\033[32m", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("%s %s\n", paint("\033[33m", "⚠"), fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", paint("\033[31m", "✗"), fmt.Sprintf(format, args...))
}
