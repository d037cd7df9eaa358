package main

import (
	"context"

	"github.com/conn-castle/moonbit-up/internal/history"
	"github.com/conn-castle/moonbit-up/internal/install"
	"github.com/conn-castle/moonbit-up/internal/mirror"
	"github.com/conn-castle/moonbit-up/internal/nightly"
	"github.com/conn-castle/moonbit-up/internal/platform"
	"github.com/conn-castle/moonbit-up/internal/release"
	"github.com/conn-castle/moonbit-up/internal/resolve"
)

func (a *app) history() *history.Store {
	return history.NewStore(a.paths.HistoryPath)
}

func (a *app) fetcher() release.Fetcher {
	return release.NewFetcher(a.cfg.Mirror.IndexURL, a.logger)
}

func (a *app) resolver(host platform.Info) *resolve.Resolver {
	return &resolve.Resolver{
		Fetcher:         a.fetcher(),
		DownloadBaseURL: a.cfg.Mirror.DownloadBaseURL,
		Nightly: &nightly.Client{
			DistServer:      a.cfg.Nightly.DistServer,
			DownloadBaseURL: a.cfg.Nightly.DownloadBaseURL,
			Logger:          a.logger,
		},
		Host:   host,
		Logger: a.logger,
	}
}

func (a *app) prober() install.BinaryProber {
	return install.BinaryProber{Root: a.paths.InstallRoot}
}

// installer wires the pipeline. Hosts that run the toolchain under emulation
// get the compatibility libraries and wrapper scripts.
func (a *app) installer(host platform.Info) (*install.Installer, error) {
	opts := install.Options{
		Root:            a.paths.InstallRoot,
		BackupParent:    a.paths.BackupParent,
		Resolver:        a.resolver(host),
		Downloader:      release.NewDownloader(a.logger),
		History:         a.history(),
		Prober:          a.prober(),
		BackupEnabled:   a.cfg.Installation.BackupEnabled,
		VerifyChecksums: a.cfg.Installation.VerifyChecksums,
		Progress:        a.out,
		Logger:          a.logger,
	}
	if host.NeedsEmulation() {
		opts.Prerequisites = install.NewCompatLibs(a.paths.CompatLibsDir, a.logger)
		opts.Wrapper = install.QEMUWrapper{LibsDir: a.paths.CompatLibsDir}
	}
	return install.New(opts)
}

func (a *app) rollbackManager() (*install.RollbackManager, error) {
	return install.NewRollbackManager(install.RollbackOptions{
		Root:     a.paths.InstallRoot,
		History:  a.history(),
		Prober:   a.prober(),
		Progress: a.out,
		Logger:   a.logger,
	})
}

func (a *app) mirrorManager(ctx context.Context, location string, s3Endpoint string) (*mirror.Manager, error) {
	store, err := mirror.OpenStore(ctx, location, s3Endpoint)
	if err != nil {
		return nil, err
	}
	return &mirror.Manager{
		Store:           store,
		Upstream:        a.fetcher(),
		DownloadBaseURL: a.cfg.Mirror.DownloadBaseURL,
		Downloader:      release.NewDownloader(a.logger),
		Progress:        a.out,
		Logger:          a.logger,
	}, nil
}
