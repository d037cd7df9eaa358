package mirror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

// Router returns a gin engine serving the mirror the way upstream lays it out:
// /index.json, /releases/v<version>/<name>, plus /healthz.
func Router(store Store, logger *zap.SugaredLogger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/"+IndexFile, func(c *gin.Context) {
		serveObject(c, store, IndexFile, "application/json", logger)
	})
	router.GET("/"+ReleasesDir+"/*filepath", func(c *gin.Context) {
		rel := strings.TrimPrefix(path.Clean("/"+c.Param("filepath")), "/")
		if rel == "" {
			c.String(http.StatusNotFound, messages.MirrorInvalidPath)
			return
		}
		serveObject(c, store, path.Join(ReleasesDir, rel), "application/gzip", logger)
	})
	return router
}

func serveObject(c *gin.Context, store Store, key string, contentType string, logger *zap.SugaredLogger) {
	body, size, err := store.Open(c.Request.Context(), key)
	if err != nil {
		logger.Debugf("serve %s: %v", key, err)
		c.Status(http.StatusNotFound)
		return
	}
	defer func() { _ = body.Close() }()
	c.DataFromReader(http.StatusOK, size, contentType, body, nil)
}

// ServeOptions configures Serve.
type ServeOptions struct {
	Addr string
	// SyncSchedule is a cron expression; empty disables periodic sync.
	SyncSchedule string
}

// Serve runs the mirror HTTP server until ctx is cancelled. With a schedule,
// the manager syncs the mirror in the background; runs never overlap.
func Serve(ctx context.Context, manager *Manager, opts ServeOptions) error {
	logger := manager.logger()
	var scheduler *cron.Cron
	if opts.SyncSchedule != "" {
		scheduler = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		_, err := scheduler.AddFunc(opts.SyncSchedule, func() {
			report, err := manager.Sync(ctx)
			if err != nil {
				logger.Errorf("scheduled sync of %s failed: %v", manager.Store.Location(), err)
				return
			}
			logger.Infof("scheduled sync of %s added %d version(s)", manager.Store.Location(), len(report.Added))
		})
		if err != nil {
			return fmt.Errorf(messages.MirrorInvalidScheduleFmt, opts.SyncSchedule, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              opts.Addr,
		Handler:           Router(manager.Store, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("serving mirror %s on %s", manager.Store.Location(), opts.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
