package install

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

// Prerequisites prepares anything the host needs before the toolchain can run.
// Ensure must be idempotent.
type Prerequisites interface {
	Ensure(ctx context.Context) error
}

// NoPrerequisites is used on hosts that run the toolchain natively.
type NoPrerequisites struct{}

// Ensure does nothing.
func (NoPrerequisites) Ensure(context.Context) error {
	return nil
}

const (
	compatImage  = "ubuntu:24.04"
	compatLoader = "ld-linux-x86-64.so.2"
)

// CompatLibs provisions the amd64 loader and shared libraries that user-mode
// emulation needs, copying them out of an amd64 container image.
type CompatLibs struct {
	Dir    string
	Logger *zap.SugaredLogger
	// LookPath and Run are seams for tests.
	LookPath func(file string) (string, error)
	Run      func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCompatLibs returns CompatLibs rooted at dir.
func NewCompatLibs(dir string, logger *zap.SugaredLogger) *CompatLibs {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CompatLibs{Dir: dir, Logger: logger, LookPath: exec.LookPath, Run: runCombined}
}

// Ready reports whether the loader is already in place.
func (c *CompatLibs) Ready() bool {
	if _, err := os.Stat(filepath.Join(c.Dir, "lib")); err != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(c.Dir, "lib64", compatLoader))
	return err == nil
}

// Ensure extracts the libraries with docker unless they are already present.
func (c *CompatLibs) Ensure(ctx context.Context) error {
	if c.Ready() {
		return nil
	}
	c.Logger.Infof("amd64 libraries missing under %s, extracting from %s", c.Dir, compatImage)
	if _, err := c.LookPath("docker"); err != nil {
		return fmt.Errorf(messages.InstallCompatDockerMissingFmt, c.Dir)
	}
	for _, sub := range []string{"lib", "lib64"} {
		if err := os.MkdirAll(filepath.Join(c.Dir, sub), 0o755); err != nil {
			return fmt.Errorf(messages.InstallCreateDirFmt, filepath.Join(c.Dir, sub), err)
		}
	}
	out, err := c.Run(ctx, "docker", "run", "--rm", "--platform", "linux/amd64",
		"-v", c.Dir+":/output",
		compatImage, "bash", "-c",
		"cp -r /lib/x86_64-linux-gnu/* /output/lib/ && cp /lib64/"+compatLoader+" /output/lib64/")
	if err != nil {
		return fmt.Errorf(messages.InstallCompatExtractFmt, err, strings.TrimSpace(string(out)))
	}
	if !c.Ready() {
		return fmt.Errorf(messages.InstallCompatLoaderMissingFmt, filepath.Join(c.Dir, "lib64", compatLoader))
	}
	return nil
}

func runCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}
