package lanes

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

var (
	preferredWidth int
	preferredDesc  string
)

func init() {
	preferredWidth, preferredDesc = probe()
}

// probe picks the default lane count for 16-bit score lanes from the widest
// vector unit the host offers.
func probe() (int, string) {
	switch runtime.GOARCH {
	case "amd64":
		if cpu.X86.HasAVX512BW {
			return 32, "AVX-512"
		}
		if cpu.X86.HasAVX2 {
			return 16, "AVX2"
		}
		if cpu.X86.HasSSE41 {
			return 8, "SSE4"
		}
		return 4, "Go"
	case "arm64":
		if cpu.ARM64.HasASIMD {
			return 8, "NEON"
		}
		return 4, "Go"
	default:
		return 4, "Go"
	}
}

// PreferredWidth returns the lane count selected for this host.
func PreferredWidth() int {
	return preferredWidth
}

// PreferredDesc returns a description of the probe result (for logging).
func PreferredDesc() string {
	return preferredDesc
}
