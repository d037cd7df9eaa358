package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/moonbit-up/internal/messages"
	"github.com/conn-castle/moonbit-up/internal/release"
)

const defaultListLimit = 20

func newListCmd(opts *globalOptions) *cobra.Command {
	var (
		limit int
		all   bool
	)
	cmd := &cobra.Command{
		Use:   messages.ListUse,
		Short: messages.ListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			idx, err := a.fetcher().Fetch(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			releases := idx.Releases(release.DefaultPlatformKey)
			if len(releases) == 0 {
				_, _ = fmt.Fprintln(out, messages.ListEmpty)
				return nil
			}
			shown := releases
			if !all && limit > 0 && limit < len(releases) {
				shown = releases[:limit]
			}
			installed, _ := a.prober().Current(cmd.Context())

			_, _ = fmt.Fprintf(out, messages.ListHeaderFmt, len(shown), len(releases))
			for _, entry := range shown {
				date := ""
				if d, ok := release.ReleaseDate(entry.Version); ok {
					date = fmt.Sprintf(messages.ListDateFmt, d)
				}
				tag := ""
				if installed != "" && release.SameRelease(installed, entry.Version) {
					tag = color.GreenString(messages.ListInstalledTag)
				}
				_, _ = fmt.Fprintf(out, messages.ListRowFmt, entry.Version, date, tag)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultListLimit, messages.ListFlagLimit)
	cmd.Flags().BoolVar(&all, "all", false, messages.ListFlagAll)
	return cmd
}
