package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/moonbit-up/internal/install"
	"github.com/conn-castle/moonbit-up/internal/messages"
	"github.com/conn-castle/moonbit-up/internal/resolve"
)

func newInstallCmd(opts *globalOptions) *cobra.Command {
	var noBackup bool
	cmd := &cobra.Command{
		Use:     messages.InstallUse,
		Aliases: []string{"update"},
		Short:   messages.InstallShort,
		Long:    messages.InstallLong,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requested := resolve.Latest
			if len(args) == 1 {
				requested = args[0]
			}
			return runInstall(cmd, opts, requested, noBackup)
		},
	}
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, messages.InstallFlagNoBackup)
	return cmd
}

func runInstall(cmd *cobra.Command, opts *globalOptions, requested string, noBackup bool) error {
	a, err := opts.load(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	host, err := a.host(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if host.NeedsEmulation() {
		_, _ = fmt.Fprintf(out, messages.InstallEmulationNote, host)
	}
	installer, err := a.installer(host)
	if err != nil {
		return err
	}

	result, err := installer.Install(ctx, requested, noBackup)
	printWarnings(cmd, result.Warnings)
	if err != nil {
		a.logger.Debugf("install of %s failed at step %q", requested, stepOf(err))
		return fmt.Errorf("%s: %w", color.RedString(messages.InstallFailedPrefix), err)
	}
	if result.AlreadyInstalled {
		_, _ = fmt.Fprint(out, color.GreenString(messages.InstallUpToDateFmt, result.Version))
		return nil
	}
	if result.BackupPath != "" {
		_, _ = fmt.Fprintf(out, messages.InstallBackupAtFmt, result.BackupPath)
	}
	if len(result.Wrapped) > 0 {
		_, _ = fmt.Fprintf(out, messages.InstallWrappedFmt, len(result.Wrapped))
	}
	_, _ = fmt.Fprint(out, color.GreenString(messages.InstallSucceededFmt, result.Version, a.paths.InstallRoot))
	_, _ = fmt.Fprintln(out, messages.InstallNextStep)
	return nil
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, warning := range warnings {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), color.YellowString(messages.InstallWarningFmt, warning))
	}
}

// stepOf names the failed pipeline step for diagnostics, or "" when err did
// not come from a step.
func stepOf(err error) string {
	if step, ok := install.FailedStep(err); ok {
		return string(step)
	}
	return ""
}
