// Package main is the entry point for quill.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dshills/quill/internal/app"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// askEncoding is the --encoding value used when the flag is given without
// one. It asks for the encoding once before loading the files.
const askEncoding = "ask"

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCommand(runApp)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// Check if it's a normal quit using errors.Is for wrapped errors
		if errors.Is(err, app.ErrQuit) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand(runFn func(context.Context, app.Options) error) *cobra.Command {
	var (
		opts      app.Options
		enc       string
		noPosArgs bool
	)

	cmd := &cobra.Command{
		Use:   "quill [flags] [file[:line[:column]]...]",
		Short: "Load and save text files in any character set",
		Long: `quill opens the given files, creating empty buffers for files that do not
exist yet, and reads commands from standard input. Type 'help' at the prompt
for the list of commands.

A file argument may end in :line or :line:column to place the cursor.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Files = args
			opts.DisablePositionParsing = noPosArgs
			if cmd.Flags().Changed("encoding") {
				if enc == askEncoding {
					enc = ""
				}
				opts.Encoding = &enc
			}
			return runFn(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", defaultConfigPath(), "path to configuration file (TOML or YAML)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVarP(&enc, "encoding", "e", "", "character set of the files; --encoding without a value asks once")
	flags.Lookup("encoding").NoOptDefVal = askEncoding
	flags.BoolVar(&noPosArgs, "no-position-parsing", false, "do not interpret :line:column suffixes of file arguments")

	return cmd
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "quill", "config.toml")
}

func runApp(ctx context.Context, opts app.Options) error {
	application, err := app.New(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	// Ensure cleanup on all exit paths
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}
