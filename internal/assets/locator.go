package assets

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const (
	KernelFile = "vmlinux"
	RootfsFile = "rootfs.ext4"
)

// Asset names one of the two files a VM needs to boot.
type Asset string

const (
	AssetKernel Asset = "kernel"
	AssetRootfs Asset = "rootfs"
)

// ErrMissing is matched by every *MissingError.
var ErrMissing = errors.New("vm asset missing")

// MissingError reports which asset is absent and where it was expected.
type MissingError struct {
	Which Asset
	Path  string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s not found at %s", e.Which, e.Path)
}

func (e *MissingError) Unwrap() error {
	return ErrMissing
}

// Paths are the resolved boot assets.
type Paths struct {
	Kernel string
	Rootfs string
}

// Locator resolves VM assets under <home>/<assetDir> and checks the search
// path for executables. It only reads; provisioning happens out of band.
type Locator struct {
	home         string
	assetDir     string
	searchHelper string
}

// NewLocator reads the home directory from homeEnv, falling back to defaultHome.
func NewLocator(homeEnv, defaultHome, assetDir, searchHelper string) *Locator {
	home := os.Getenv(homeEnv)
	if home == "" {
		home = defaultHome
	}
	return &Locator{home: home, assetDir: assetDir, searchHelper: searchHelper}
}

// Dir returns the directory holding the assets.
func (l *Locator) Dir() string {
	return filepath.Join(l.home, l.assetDir)
}

// Locate returns the kernel and rootfs paths, or a *MissingError naming the
// first one that does not exist.
func (l *Locator) Locate() (Paths, error) {
	p := Paths{
		Kernel: filepath.Join(l.Dir(), KernelFile),
		Rootfs: filepath.Join(l.Dir(), RootfsFile),
	}

	if !exists(p.Kernel) {
		return Paths{}, &MissingError{Which: AssetKernel, Path: p.Kernel}
	}
	if !exists(p.Rootfs) {
		return Paths{}, &MissingError{Which: AssetRootfs, Path: p.Rootfs}
	}
	return p, nil
}

// ExecutableAvailable runs the search helper for name. A non-zero exit or a
// helper that cannot be started both mean "not available".
func (l *Locator) ExecutableAvailable(name string) bool {
	cmd := exec.Command(l.searchHelper, name) // #nosec G204 -- helper and name come from config
	if err := cmd.Run(); err != nil {
		log.Debug().Err(err).Str("executable", name).Str("helper", l.searchHelper).Msg("executable not found")
		return false
	}
	return true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
