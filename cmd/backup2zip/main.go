// Command backup2zip writes full and incremental backups of a directory tree
// into AES-256 encrypted zip archives.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/raoulx24/backup2zip/internal/backup"
	"github.com/raoulx24/backup2zip/internal/history"
	"github.com/raoulx24/backup2zip/internal/logging"
)

var version = "dev"

// errUsage marks command line mistakes; they exit with status 1.
var errUsage = errors.New("usage error")

const (
	exitOK    = 0
	exitUsage = 1
	exitError = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	if errors.Is(err, errUsage) {
		fmt.Fprint(stderr, cmd.UsageString())
		return exitUsage
	}
	return exitError
}

func usageErr(format string, a ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, a...))
}

// exactArgs is cobra.ExactArgs with errors marked as usage errors.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		return nil
	}
}

func newRootCmd() *cobra.Command {
	var (
		full        bool
		incremental bool
		exclude     []string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "backup2zip [--full|--incremental] [--exclude PATH]... SOURCE TARGET",
		Short: "Back up a directory tree into encrypted zip archives",
		Long: `Back up SOURCE into TARGET/backups as an AES-256 encrypted zip archive.

A full backup stores every file. An incremental backup stores the files created
or modified after the newest archive already in TARGET/backups. The password of
each archive is written to TARGET/passwords.`,
		Version:       version,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if full == incremental {
				return usageErr("Must specify one of --full or --incremental")
			}
			kind := history.Incremental
			if full {
				kind = history.Full
			}

			level := zapcore.InfoLevel
			if verbose {
				level = zapcore.DebugLevel
			}
			z := logging.NewConsole(cmd.ErrOrStderr(), level)
			defer z.Sync() //nolint:errcheck
			log := logging.New(z)

			res, err := backup.NewRunner(log, nil).Run(cmd.Context(), backup.Options{
				Source:  args[0],
				Target:  args[1],
				Kind:    kind,
				Exclude: exclude,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Archive == "" {
				fmt.Fprintf(out, "no files changed since %d, nothing archived\n", res.Threshold)
				return nil
			}
			fmt.Fprintf(out, "%s backup: %d files (%d bytes) -> %s\n", kind, res.Files, res.Bytes, res.Archive)
			fmt.Fprintf(out, "password: %s\n", res.PasswordFile)
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	cmd.Flags().BoolVar(&full, "full", false, "back up every file")
	cmd.Flags().BoolVar(&incremental, "incremental", false, "back up files changed since the latest archive")
	cmd.Flags().StringArrayVar(&exclude, "exclude", nil, "skip a directory (absolute or relative to SOURCE); repeatable")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.AddCommand(historyCmd())
	cmd.AddCommand(daemonCmd())

	return cmd
}
