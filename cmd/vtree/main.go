package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(execute(newRootCmd(), os.Stderr))
}

// execute runs cmd and reports a failure on stderr in the style selected by
// --error-format. It returns the process exit code.
func execute(cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	format, _ := cmd.PersistentFlags().GetString("error-format")
	style, perr := errors.ParseStyle(format)
	if perr != nil {
		style = errors.StylePretty
	}
	errors.Fprint(stderr, err, style)
	return 1
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vtree",
		Short: "Diff, render and serve virtual node trees",
		Long: `vtree works with node trees described in YAML, JSON or HTML documents.

It prints the patches between two trees, renders trees to HTML and
serves a live session that streams patches to websocket subscribers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("error-format")
			_, err := errors.ParseStyle(format)
			return err
		},
	}
	rootCmd.PersistentFlags().String("error-format", "pretty", "Error output: pretty, compact or json")

	rootCmd.AddCommand(
		diffCmd(),
		renderCmd(),
		serveCmd(),
		explainCmd(),
		versionCmd(),
	)
	return rootCmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
