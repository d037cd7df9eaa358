package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/moonbit-up/internal/messages"
	"github.com/conn-castle/moonbit-up/internal/release"
)

func newCurrentCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.CurrentUse,
		Short: messages.CurrentShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			current, ok := a.prober().Current(cmd.Context())
			if !ok {
				_, _ = fmt.Fprintln(out, messages.CurrentNotInstalled)
				return &SilentExitError{Code: 1}
			}
			_, _ = fmt.Fprintf(out, messages.CurrentVersionFmt, current)
			records, err := a.history().Load()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(out, messages.CurrentHistoryHeading)
			if err := printHistoryTable(out, records); err != nil {
				return err
			}

			idx, err := a.fetcher().Fetch(cmd.Context())
			if err != nil {
				a.logger.Debugf(messages.CurrentUpdateCheckFmt, err)
				return nil
			}
			releases := idx.Releases(release.DefaultPlatformKey)
			if len(releases) == 0 {
				return nil
			}
			if latest := releases[0].Version; !release.SameRelease(current, latest) {
				_, _ = fmt.Fprint(out, color.YellowString(messages.CurrentUpdateFmt, latest))
			}
			return nil
		},
	}
}
