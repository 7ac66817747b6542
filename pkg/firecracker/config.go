package firecracker

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	// BootArgs keeps the guest from rebooting on panic and skips PCI probing.
	BootArgs = "console=ttyS0 reboot=k panic=1 pci=off"

	RootDriveID = "rootfs"
	VCPUCount   = 1
	MemSizeMiB  = 128
)

// Document is the declarative configuration passed to the VMM with --config-file.
type Document struct {
	BootSource        BootSource         `json:"boot-source"`
	Drives            []Drive            `json:"drives"`
	MachineConfig     MachineConfig      `json:"machine-config"`
	NetworkInterfaces []NetworkInterface `json:"network-interfaces"`
}

type BootSource struct {
	KernelImagePath string `json:"kernel_image_path"`
	BootArgs        string `json:"boot_args"`
}

type Drive struct {
	DriveID      string `json:"drive_id"`
	PathOnHost   string `json:"path_on_host"`
	IsRootDevice bool   `json:"is_root_device"`
	IsReadOnly   bool   `json:"is_read_only"`
}

type MachineConfig struct {
	VCPUCount  int `json:"vcpu_count"`
	MemSizeMiB int `json:"mem_size_mib"`
}

// Envelope describes the resource limits in the form used by analysis summaries.
func (m MachineConfig) Envelope() string {
	return fmt.Sprintf("%d vCPU, %dMB RAM", m.VCPUCount, m.MemSizeMiB)
}

type NetworkInterface struct {
	IfaceID     string `json:"iface_id"`
	HostDevName string `json:"host_dev_name"`
	GuestMAC    string `json:"guest_mac,omitempty"`
}

// Builder produces the VM identifier and configuration document for one run.
type Builder struct {
	ids IDGenerator
}

func NewBuilder(ids IDGenerator) *Builder {
	if ids == nil {
		ids = NewPIDGenerator(DefaultIDPrefix)
	}
	return &Builder{ids: ids}
}

// Build returns a fresh VM id and a document booting kernelPath with rootfsPath
// as the single writable root drive. The guest gets no network interfaces.
func (b *Builder) Build(kernelPath, rootfsPath string) (string, Document) {
	doc := Document{
		BootSource: BootSource{
			KernelImagePath: kernelPath,
			BootArgs:        BootArgs,
		},
		Drives: []Drive{
			{
				DriveID:      RootDriveID,
				PathOnHost:   rootfsPath,
				IsRootDevice: true,
				IsReadOnly:   false,
			},
		},
		MachineConfig: MachineConfig{
			VCPUCount:  VCPUCount,
			MemSizeMiB: MemSizeMiB,
		},
		NetworkInterfaces: []NetworkInterface{},
	}
	return b.ids.NewID(), doc
}

// JSON returns the indented document.
func (d Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// WriteFile persists the document at path with owner-only permissions.
func (d Document) WriteFile(path string) error {
	data, err := d.JSON()
	if err != nil {
		return fmt.Errorf("marshaling vm config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
