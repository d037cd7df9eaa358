package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/moonbit-up/internal/config"
	"github.com/conn-castle/moonbit-up/internal/messages"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   messages.ConfigUse,
		Short: messages.ConfigShort,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   messages.ConfigShowUse,
			Short: messages.ConfigShowShort,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.load(cmd)
				if err != nil {
					return err
				}
				data, err := config.Render(a.cfg)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, messages.ConfigPathFmt, a.paths.ConfigPath)
				_, err = out.Write(data)
				return err
			},
		},
		&cobra.Command{
			Use:       messages.ConfigGetUse,
			Short:     messages.ConfigGetShort,
			Args:      cobra.ExactArgs(1),
			ValidArgs: config.Keys(),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.load(cmd)
				if err != nil {
					return err
				}
				value, err := config.Get(a.cfg, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			},
		},
		&cobra.Command{
			Use:   messages.ConfigSetUse,
			Short: messages.ConfigSetShort,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.load(cmd)
				if err != nil {
					return err
				}
				updated, err := config.Set(a.cfg, args[0], args[1])
				if err != nil {
					return err
				}
				if err := config.Save(a.paths.ConfigPath, updated); err != nil {
					return err
				}
				return printConfigDiff(cmd.OutOrStdout(), a.paths.ConfigPath, a.cfg, updated)
			},
		},
		&cobra.Command{
			Use:   messages.ConfigResetUse,
			Short: messages.ConfigResetShort,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.load(cmd)
				if err != nil {
					return err
				}
				reset, err := config.Reset(a.paths.ConfigPath)
				if err != nil {
					return err
				}
				return printConfigDiff(cmd.OutOrStdout(), a.paths.ConfigPath, a.cfg, reset)
			},
		},
	)
	return cmd
}

// printConfigDiff prints a unified diff between the rendered configurations.
func printConfigDiff(out io.Writer, path string, before config.Config, after config.Config) error {
	from, err := config.Render(before)
	if err != nil {
		return err
	}
	to, err := config.Render(after)
	if err != nil {
		return err
	}
	diff := strings.TrimSpace(udiff.Unified(path, path, string(from), string(to)))
	if diff == "" {
		_, _ = fmt.Fprintln(out, messages.ConfigUnchanged)
	} else {
		_, _ = fmt.Fprintln(out, diff)
	}
	_, _ = fmt.Fprint(out, color.GreenString(messages.ConfigSavedFmt, path))
	return nil
}
