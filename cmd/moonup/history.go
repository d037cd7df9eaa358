package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conn-castle/moonbit-up/internal/history"
	"github.com/conn-castle/moonbit-up/internal/messages"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	output := outputTable
	cmd := &cobra.Command{
		Use:   messages.HistoryUse,
		Short: messages.HistoryShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := checkOutputFormat(output)
			if err != nil {
				return err
			}
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			records, err := a.history().Load()
			if err != nil {
				return err
			}
			if format != outputTable {
				if records == nil {
					records = []history.Record{}
				}
				return writeStructured(cmd.OutOrStdout(), format, map[string][]history.Record{"versions": records})
			}
			return printHistoryTable(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, messages.HistoryFlagOutput)
	return cmd
}

func printHistoryTable(out io.Writer, records []history.Record) error {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, messages.HistoryEmpty)
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, messages.HistoryHeader)
	for _, record := range records {
		backup := record.Backup()
		if backup == "" {
			backup = messages.HistoryNoBackup
		}
		_, _ = fmt.Fprintf(w, messages.HistoryRowFmt, record.Version, record.InstalledAt, backup)
	}
	return w.Flush()
}
