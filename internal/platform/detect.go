// Package platform describes the host the toolchain is installed on.
package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

// Info is the detected host platform.
type Info struct {
	// OS is the Go operating system name (linux, darwin).
	OS string
	// Arch is the normalized machine architecture (amd64, arm64).
	Arch string
	// Distro and DistroVersion are best-effort and may be empty.
	Distro        string
	DistroVersion string
}

var hostInfo = host.InfoWithContext

// Detect inspects the running host. The kernel architecture wins over the
// process architecture so an amd64 binary under emulation still reports arm64.
func Detect(ctx context.Context) (Info, error) {
	info := Info{OS: runtime.GOOS, Arch: runtime.GOARCH}
	stat, err := hostInfo(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Info{}, ctx.Err()
		}
		return normalize(info)
	}
	if stat.KernelArch != "" {
		info.Arch = stat.KernelArch
	}
	info.Distro = strings.TrimSpace(stat.Platform)
	info.DistroVersion = strings.TrimSpace(stat.PlatformVersion)
	return normalize(info)
}

func normalize(info Info) (Info, error) {
	switch info.OS {
	case "linux", "darwin":
	default:
		return Info{}, fmt.Errorf(messages.PlatformUnsupportedOSFmt, info.OS)
	}
	switch strings.ToLower(info.Arch) {
	case "amd64", "x86_64", "x64":
		info.Arch = "amd64"
	case "arm64", "aarch64", "armv8", "armv8l":
		info.Arch = "arm64"
	default:
		return Info{}, fmt.Errorf(messages.PlatformUnsupportedArchFmt, info.Arch)
	}
	return info, nil
}

// NeedsEmulation reports whether the published linux-x64 toolchain must run
// through user-mode emulation on this host.
func (i Info) NeedsEmulation() bool {
	return i.OS == "linux" && i.Arch == "arm64"
}

// String renders os/arch.
func (i Info) String() string {
	return i.OS + "/" + i.Arch
}
