package install

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

// Prober asks the installed toolchain for its version.
type Prober interface {
	// Current returns the installed version, or false when none answers.
	Current(ctx context.Context) (string, bool)
	// Verify runs the installed binary and fails unless it exits cleanly.
	// The returned version may be empty when the output is unparseable.
	Verify(ctx context.Context) (string, error)
}

// BinaryProber runs <Root>/bin/moon version.
type BinaryProber struct {
	Root    string
	Timeout time.Duration
}

const defaultProbeTimeout = 10 * time.Second

// Binary returns the path of the moon executable.
func (p BinaryProber) Binary() string {
	return filepath.Join(p.Root, "bin", "moon")
}

// Current returns the version reported by the installed moon binary.
func (p BinaryProber) Current(ctx context.Context) (string, bool) {
	if _, err := os.Stat(p.Binary()); err != nil {
		return "", false
	}
	out, err := p.run(ctx)
	if err != nil {
		return "", false
	}
	return ParseVersionOutput(out)
}

// Verify runs moon version and requires a zero exit status.
func (p BinaryProber) Verify(ctx context.Context) (string, error) {
	if _, err := os.Stat(p.Binary()); err != nil {
		return "", fmt.Errorf(messages.InstallBinaryMissingFmt, p.Binary())
	}
	out, err := p.run(ctx)
	if err != nil {
		return "", err
	}
	version, _ := ParseVersionOutput(out)
	return version, nil
}

func (p BinaryProber) run(ctx context.Context) (string, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Binary(), "version")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf(messages.InstallProbeTimeoutFmt, p.Binary(), timeout)
		}
		return "", fmt.Errorf(messages.InstallProbeFailedFmt, p.Binary(), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// ParseVersionOutput extracts the version from output such as
// "moon 0.1.20251030 (cf54fca 2025-10-30)".
func ParseVersionOutput(out string) (string, bool) {
	line := strings.TrimSpace(out)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "moon" {
		return "", false
	}
	return fields[1], true
}
