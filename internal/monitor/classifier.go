package monitor

import (
	"strings"
)

// DefaultBootBanner is what Firecracker prints on stderr when the VMM starts.
const DefaultBootBanner = "Firecracker v"

// Outcome is the classified result of one observation window.
type Outcome struct {
	Booted bool
	Stdout string
	Stderr string
}

// BannerClassifier decides whether the VM booted by looking for the VMM
// version banner in the captured stderr. It does not parse the VMM protocol.
type BannerClassifier struct {
	banner string
}

func NewBannerClassifier(banner string) *BannerClassifier {
	if banner == "" {
		banner = DefaultBootBanner
	}
	return &BannerClassifier{banner: banner}
}

func (c *BannerClassifier) Classify(stdout, stderr string) Outcome {
	return Outcome{
		Booted: strings.Contains(stderr, c.banner),
		Stdout: stdout,
		Stderr: stderr,
	}
}
