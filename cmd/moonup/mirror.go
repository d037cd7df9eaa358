package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conn-castle/moonbit-up/internal/messages"
	"github.com/conn-castle/moonbit-up/internal/mirror"
)

type mirrorFlags struct {
	s3Endpoint string
	strict     bool
}

func newMirrorCmd(opts *globalOptions) *cobra.Command {
	flags := &mirrorFlags{}
	cmd := &cobra.Command{
		Use:   messages.MirrorUse,
		Short: messages.MirrorShort,
	}
	cmd.PersistentFlags().StringVar(&flags.s3Endpoint, "s3-endpoint", "", messages.MirrorFlagS3Endpoint)
	cmd.PersistentFlags().BoolVar(&flags.strict, "strict", false, messages.MirrorFlagStrict)
	cmd.AddCommand(
		newMirrorCreateCmd(opts, flags),
		newMirrorSyncCmd(opts, flags),
		newMirrorInfoCmd(opts, flags),
		newMirrorServeCmd(opts, flags),
	)
	return cmd
}

// mirrorLocation makes filesystem locations absolute; S3 locations pass through.
func mirrorLocation(location string) (string, error) {
	if mirror.IsS3Location(location) {
		return location, nil
	}
	return filepath.Abs(location)
}

func (f *mirrorFlags) manager(cmd *cobra.Command, opts *globalOptions, location string) (*app, *mirror.Manager, error) {
	a, err := opts.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	location, err = mirrorLocation(location)
	if err != nil {
		return nil, nil, err
	}
	manager, err := a.mirrorManager(cmd.Context(), location, f.s3Endpoint)
	if err != nil {
		return nil, nil, err
	}
	return a, manager, nil
}

func newMirrorCreateCmd(opts *globalOptions, flags *mirrorFlags) *cobra.Command {
	var create mirror.CreateOptions
	cmd := &cobra.Command{
		Use:   messages.MirrorCreateUse,
		Short: messages.MirrorCreateShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, manager, err := flags.manager(cmd, opts, args[0])
			if err != nil {
				return err
			}
			report, err := manager.Create(cmd.Context(), create)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprint(out, color.GreenString(messages.MirrorCreatedFmt,
				manager.Store.Location(), len(report.Downloaded), len(report.Skipped), len(report.Added)))
			if err := reportOutcome(cmd, report, flags.strict); err != nil {
				return err
			}
			printUsageHint(cmd, manager.Store.Location())
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&create.Versions, "version", nil, messages.MirrorFlagVersion)
	cmd.Flags().BoolVar(&create.All, "all", false, messages.MirrorFlagAll)
	return cmd
}

func newMirrorSyncCmd(opts *globalOptions, flags *mirrorFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.MirrorSyncUse,
		Short: messages.MirrorSyncShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, manager, err := flags.manager(cmd, opts, args[0])
			if err != nil {
				return err
			}
			report, err := manager.Sync(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), color.GreenString(messages.MirrorSyncedFmt,
				manager.Store.Location(), len(report.Added)))
			return reportOutcome(cmd, report, flags.strict)
		},
	}
}

// reportOutcome prints retained entries and per-release failures. Failed
// releases stay out of the index for the next sync to retry, so they only
// fail the command under --strict.
func reportOutcome(cmd *cobra.Command, report mirror.Report, strict bool) error {
	if len(report.Retained) > 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.MirrorRetainedFmt, len(report.Retained))
	}
	failed := report.Failed()
	if len(failed) == 0 {
		return nil
	}
	for _, err := range failed {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), color.RedString(err.Error()))
	}
	if strict {
		return fmt.Errorf(messages.MirrorFailuresFmt, len(failed))
	}
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString(messages.MirrorFailuresFmt, len(failed)))
	return nil
}

func printUsageHint(cmd *cobra.Command, location string) {
	if mirror.IsS3Location(location) {
		return
	}
	base := "file://" + filepath.ToSlash(location)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.MirrorUsageHintFmt, base, base)
}

func newMirrorInfoCmd(opts *globalOptions, flags *mirrorFlags) *cobra.Command {
	output := outputTable
	cmd := &cobra.Command{
		Use:   messages.MirrorInfoUse,
		Short: messages.MirrorInfoShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := checkOutputFormat(output)
			if err != nil {
				return err
			}
			_, manager, err := flags.manager(cmd, opts, args[0])
			if err != nil {
				return err
			}
			info, err := manager.Info(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format != outputTable {
				return writeStructured(out, format, info)
			}
			_, _ = fmt.Fprintf(out, messages.MirrorInfoFmt, info.Location, info.Releases,
				info.LastModified, orDash(info.Latest), orDash(info.Oldest), humanBytes(info.SizeBytes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, messages.MirrorFlagOutput)
	return cmd
}

var notifyContext = signal.NotifyContext

func newMirrorServeCmd(opts *globalOptions, flags *mirrorFlags) *cobra.Command {
	serve := mirror.ServeOptions{Addr: "127.0.0.1:8080"}
	cmd := &cobra.Command{
		Use:   messages.MirrorServeUse,
		Short: messages.MirrorServeShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, manager, err := flags.manager(cmd, opts, args[0])
			if err != nil {
				return err
			}
			manager.Progress = nil
			ctx, stop := notifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mirror.Serve(ctx, manager, serve)
		},
	}
	cmd.Flags().StringVar(&serve.Addr, "addr", serve.Addr, messages.MirrorFlagAddr)
	cmd.Flags().StringVar(&serve.SyncSchedule, "sync-schedule", "", messages.MirrorFlagSchedule)
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
