package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conn-castle/moonbit-up/internal/config"
	"github.com/conn-castle/moonbit-up/internal/messages"
	"github.com/conn-castle/moonbit-up/internal/platform"
	"github.com/conn-castle/moonbit-up/internal/terminal"
)

// envMoonHome overrides the installation root.
const envMoonHome = "MOON_HOME"

var (
	userHomeDir    = homedir.Dir
	lookupEnv      = os.LookupEnv
	detectPlatform = platform.Detect
	isInteractive  = terminal.IsInteractive
)

// globalOptions holds the persistent root flags.
type globalOptions struct {
	moonHome  string
	configDir string
	logLevel  string
}

// app is everything a command needs, resolved once from flags, environment,
// and config.toml.
type app struct {
	paths  config.Paths
	cfg    config.Config
	logger *zap.SugaredLogger
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	var noBackup bool
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, opts, "", noBackup)
		},
	}
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, messages.InstallFlagNoBackup)
	cmd.PersistentFlags().StringVar(&opts.moonHome, "moon-home", "", messages.RootFlagMoonHome)
	cmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", messages.RootFlagConfigDir)
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", messages.RootFlagLogLevel)

	cmd.AddCommand(
		newInstallCmd(opts),
		newRollbackCmd(opts),
		newCurrentCmd(opts),
		newHistoryCmd(opts),
		newListCmd(opts),
		newConfigCmd(opts),
		newMirrorCmd(opts),
	)
	return cmd
}

// resolvePaths applies, in increasing precedence, the home-directory
// defaults, MOON_HOME, and the --moon-home and --config-dir flags.
func (o *globalOptions) resolvePaths() (config.Paths, error) {
	home, err := userHomeDir()
	if err != nil {
		return config.Paths{}, fmt.Errorf(messages.RootHomeDirFmt, err)
	}
	paths := config.DefaultPaths(home)

	root := o.moonHome
	if root == "" {
		if env, ok := lookupEnv(envMoonHome); ok {
			root = strings.TrimSpace(env)
		}
	}
	if root != "" {
		expanded, err := config.ExpandHome(root)
		if err != nil {
			return config.Paths{}, err
		}
		paths = paths.WithInstallRoot(expanded)
	}
	if o.configDir != "" {
		expanded, err := config.ExpandHome(o.configDir)
		if err != nil {
			return config.Paths{}, err
		}
		paths = paths.WithConfigDir(expanded)
	}
	return paths, nil
}

// load resolves paths, reads config.toml, and builds the logger.
func (o *globalOptions) load(cmd *cobra.Command) (*app, error) {
	paths, err := o.resolvePaths()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(o.logLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	logger.Debugf("install root %s, config %s", paths.InstallRoot, paths.ConfigPath)
	return &app{paths: paths, cfg: cfg, logger: logger, out: cmd.OutOrStdout()}, nil
}

func (a *app) host(ctx context.Context) (platform.Info, error) {
	info, err := detectPlatform(ctx)
	if err != nil {
		return platform.Info{}, fmt.Errorf(messages.RootPlatformFmt, err)
	}
	a.logger.Debugf("host platform %s (%s %s)", info, info.Distro, info.DistroVersion)
	return info, nil
}
