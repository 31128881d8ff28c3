package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/raoulx24/backup2zip/internal/history"
	"github.com/raoulx24/backup2zip/internal/logging"
)

type historyReport struct {
	Target    string            `json:"target"`
	Threshold int64             `json:"threshold"`
	Archives  []history.Archive `json:"archives"`
}

// historyCmd lists the archives of a target and the next incremental threshold.
func historyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history TARGET",
		Short: "List archives in TARGET/backups, oldest first",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			z := logging.NewConsole(cmd.ErrOrStderr(), zapcore.WarnLevel)
			defer z.Sync() //nolint:errcheck

			r := history.NewResolver(args[0], logging.New(z))
			archives, err := r.Scan()
			if err != nil {
				return err
			}

			rep := historyReport{Target: args[0], Archives: archives}
			if n := len(archives); n > 0 {
				rep.Threshold = archives[n-1].Timestamp
			}
			if rep.Archives == nil {
				rep.Archives = []history.Archive{}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tTIME")
			for _, a := range archives {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Name, a.Kind, a.Time().UTC().Format(time.RFC3339Nano))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "threshold: %d\n", rep.Threshold)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
