package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

func newRollbackCmd(opts *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   messages.RollbackUse,
		Short: messages.RollbackShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			manager, err := a.rollbackManager()
			if err != nil {
				return err
			}
			prev, err := manager.Previous()
			if err != nil {
				return err
			}
			if !yes {
				if !isInteractive() {
					return errors.New(messages.RollbackNeedsYes)
				}
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf(messages.RollbackConfirmFmt, a.paths.InstallRoot, prev.Version, prev.Backup()), false)
				if err != nil {
					return err
				}
				if !ok {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), messages.RollbackCancelled)
					return nil
				}
			}
			result, err := manager.Rollback(cmd.Context())
			if err != nil {
				return err
			}
			restored := result.Version
			if restored == "" {
				restored = result.Previous.Version
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), color.GreenString(messages.RollbackSucceededFmt, restored))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, messages.RollbackFlagYes)
	return cmd
}
