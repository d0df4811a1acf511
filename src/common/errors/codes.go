package errors

// Common error codes used across domains
const (
	CodeNotFound      Code = "not_found"
	CodeCommandFailed Code = "command_failed"
	CodeInternal      Code = "internal_error"
)

// Exit status values for fatal pipeline errors. Each stage family gets
// its own status so a wrapping script can tell where a run died.
const (
	ExitWorkspace = 10
	ExitFetch     = 11
	ExitToolchain = 12
	ExitKconfig   = 13
	ExitBuild     = 14
	ExitPackage   = 15
	ExitInstaller = 16
)

var (
	// ErrWorkspaceCreate is returned when the workspace directory cannot be created
	ErrWorkspaceCreate = New(DomainWorkspace, "create_failed", ExitWorkspace,
		"Failed to create workspace directory")

	// ErrDepsInstall is returned when the system package manager fails
	ErrDepsInstall = New(DomainWorkspace, "deps_install_failed", ExitWorkspace,
		"Build dependency installation failed")

	// ErrCloneFailed is returned when the initial clone of a source repository fails
	ErrCloneFailed = New(DomainFetch, "clone_failed", ExitFetch,
		"Repository clone failed")

	// ErrToolchainDownload is returned when the toolchain archive cannot be fetched
	ErrToolchainDownload = New(DomainToolchain, "download_failed", ExitToolchain,
		"Toolchain archive download failed")

	// ErrToolchainExtract is returned when the toolchain archive cannot be unpacked
	ErrToolchainExtract = New(DomainToolchain, "extract_failed", ExitToolchain,
		"Toolchain archive extraction failed")

	// ErrNoBaseConfig is returned when no defconfig tier produced a usable base
	ErrNoBaseConfig = New(DomainKconfig, "no_base_config", ExitKconfig,
		"No base configuration could be resolved")

	// ErrConfigEdit is returned when the configuration could not be mutated,
	// including when the interactive fallback is unavailable
	ErrConfigEdit = New(DomainKconfig, "edit_failed", ExitKconfig,
		"Kernel configuration edit failed")

	// ErrBuildFailed is returned when the kernel build command exits non-zero
	ErrBuildFailed = New(DomainBuild, CodeCommandFailed, ExitBuild,
		"Kernel build failed")

	// ErrArtifactMissing is returned when the expected kernel image is absent
	// after a build that reported success
	ErrArtifactMissing = New(DomainBuild, "artifact_missing", ExitBuild,
		"Expected kernel image not found after build")

	// ErrPackageFailed is returned when kernel archive assembly fails
	ErrPackageFailed = New(DomainPackage, "assembly_failed", ExitPackage,
		"Kernel archive assembly failed")

	// ErrRootfsDownload is returned when the rootfs asset cannot be fetched
	ErrRootfsDownload = New(DomainInstaller, "rootfs_download_failed", ExitInstaller,
		"Rootfs image download failed")

	// ErrInstallerFailed is returned when the external installer builder fails
	ErrInstallerFailed = New(DomainInstaller, CodeCommandFailed, ExitInstaller,
		"Installer build failed")
)
