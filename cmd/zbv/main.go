package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "(development build)"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// Main holds state shared by every subcommand.
type Main struct {
	Stdout io.Writer
	Stderr io.Writer

	Verbose bool
}

// Logger returns a text logger on stderr. Debug output requires --verbose.
func (m *Main) Logger() *slog.Logger {
	level := slog.LevelWarn
	if m.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(m.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewRootCommand returns the zbv command tree.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	m := &Main{Stdout: stdout, Stderr: stderr}

	cmd := &cobra.Command{
		Use:           "zbv",
		Short:         "zbv solves bit-vector constraint problems",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().BoolVarP(&m.Verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(NewCheckCommand(m).Cobra())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(m.Stdout, "zbv %s\n", Version)
		},
	})
	return cmd
}
