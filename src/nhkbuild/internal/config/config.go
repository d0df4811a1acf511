// Package config materializes the nhkbuild pipeline configuration from
// viper. Every value has a default fixed for the Pixel 4 ("flame")
// NetHunter target, so a bare `nhkbuild` invocation needs no flags and
// no config file.
package config

import (
	"path/filepath"

	"github.com/nhkbuild/nhkbuild/src/common/paths"
	"github.com/spf13/viper"
)

// Repo identifies a version-controlled source dependency.
type Repo struct {
	Name    string // directory name under the workspace
	Remote  string // git remote URL
	Dir     string // absolute local path
	Shallow bool   // clone with --depth 1
}

// Toolchain describes the fixed-version cross compiler bundle.
type Toolchain struct {
	Version string // upstream release identifier, informational
	URL     string // archive download URL
	Dir     string // absolute extraction directory
}

// Rootfs describes the auxiliary rootfs asset consumed by the installer
// builder.
type Rootfs struct {
	URL  string
	Path string // absolute local path of the downloaded tarball
}

// Config holds the resolved pipeline configuration.
type Config struct {
	// Workspace is the root working directory for a pipeline run.
	Workspace string

	// Device is the fixed hardware target identifier.
	Device string

	// SiblingDevice shares a kernel configuration base with Device and
	// seeds the defconfig fallback (tier 2).
	SiblingDevice string

	// SkipDeps disables build-dependency installation via apt-get.
	SkipDeps bool

	// Packages are the development packages installed during prepare.
	Packages []string

	Kernel    Repo
	AnyKernel Repo
	Installer Repo

	Toolchain Toolchain
	Rootfs    Rootfs

	// Features is the ordered list of kernel options enabled on top of
	// the resolved base configuration.
	Features []string

	// ArtifactRelPath is the expected build output, relative to the
	// kernel source directory. Its existence gates pipeline success.
	ArtifactRelPath string

	// BootDirRelPath is the directory enumerated for diagnostics when
	// the artifact is missing.
	BootDirRelPath string

	// KernelZipPrefix names the dated kernel archive
	// (<prefix>-<YYYYMMDD>.zip).
	KernelZipPrefix string

	// InstallerZipPrefix names the dated installer archive.
	InstallerZipPrefix string
}

// SetDefaults registers the flame pipeline defaults with viper.
func SetDefaults() {
	viper.SetDefault("workspace", "~/nethunter")
	viper.SetDefault("device", "flame")
	viper.SetDefault("sibling_device", "coral")
	viper.SetDefault("skip_deps", false)
	viper.SetDefault("packages", []string{
		"git", "make", "bc", "bison", "flex", "libssl-dev",
		"libncurses5-dev", "device-tree-compiler", "lz4", "zip",
		"curl", "python3",
	})

	viper.SetDefault("repos.kernel.remote", "https://github.com/kimocoder/kernel_flame.git")
	viper.SetDefault("repos.anykernel.remote", "https://github.com/osm0sis/AnyKernel3.git")
	viper.SetDefault("repos.installer.remote", "https://gitlab.com/kalilinux/nethunter/build-scripts/kali-nethunter-installer.git")

	viper.SetDefault("toolchain.version", "clang-r416183b")
	viper.SetDefault("toolchain.url",
		"https://android.googlesource.com/platform/prebuilts/clang/host/linux-x86/+archive/refs/tags/android-12.0.0_r1/clang-r416183b.tar.gz")

	viper.SetDefault("rootfs.url",
		"https://kali.download/nethunter-images/current/rootfs/kali-nethunter-rootfs-full-arm64.tar.xz")

	viper.SetDefault("features", []string{
		"CONFIG_USB_CONFIGFS_F_HID",
		"CONFIG_USB_GADGET",
		"CONFIG_CFG80211",
		"CONFIG_NETFILTER",
		"CONFIG_BRIDGE",
		"CONFIG_VLAN_8021Q",
		"CONFIG_NF_CONNTRACK",
		"CONFIG_NF_NAT",
		"CONFIG_IP_NF_FILTER",
		"CONFIG_TUN",
	})
}

// Load resolves the configuration from viper into absolute paths.
// SetDefaults (or a config file) must have populated viper first.
func Load() *Config {
	ws := paths.Expand(viper.GetString("workspace"))
	device := viper.GetString("device")

	cfg := &Config{
		Workspace:     ws,
		Device:        device,
		SiblingDevice: viper.GetString("sibling_device"),
		SkipDeps:      viper.GetBool("skip_deps"),
		Packages:      viper.GetStringSlice("packages"),
		Kernel: Repo{
			Name:    "kernel_" + device,
			Remote:  viper.GetString("repos.kernel.remote"),
			Dir:     filepath.Join(ws, "kernel_"+device),
			Shallow: true,
		},
		AnyKernel: Repo{
			Name:   "AnyKernel3",
			Remote: viper.GetString("repos.anykernel.remote"),
			Dir:    filepath.Join(ws, "AnyKernel3"),
			// Full history: the packager resets this tree to a clean
			// checkout before every run.
			Shallow: false,
		},
		Installer: Repo{
			Name:    "kali-nethunter-installer",
			Remote:  viper.GetString("repos.installer.remote"),
			Dir:     filepath.Join(ws, "kali-nethunter-installer"),
			Shallow: true,
		},
		Toolchain: Toolchain{
			Version: viper.GetString("toolchain.version"),
			URL:     viper.GetString("toolchain.url"),
			Dir:     filepath.Join(ws, "clang_toolchain"),
		},
		Rootfs: Rootfs{
			URL: viper.GetString("rootfs.url"),
		},
		Features:           viper.GetStringSlice("features"),
		ArtifactRelPath:    filepath.Join("arch", "arm64", "boot", "Image.lz4-dtb"),
		BootDirRelPath:     filepath.Join("arch", "arm64", "boot"),
		KernelZipPrefix:    "NetHunter-" + device + "-kernel",
		InstallerZipPrefix: "NetHunter-installer-" + device,
	}

	cfg.Rootfs.Path = filepath.Join(ws, filepath.Base(cfg.Rootfs.URL))

	return cfg
}

// ArtifactPath returns the absolute expected build output path.
func (c *Config) ArtifactPath() string {
	return filepath.Join(c.Kernel.Dir, c.ArtifactRelPath)
}

// BootDir returns the absolute kernel boot output directory.
func (c *Config) BootDir() string {
	return filepath.Join(c.Kernel.Dir, c.BootDirRelPath)
}
