// Package toolchain provisions the fixed-version clang cross toolchain
// and exposes the build environment the kernel build runs under.
package toolchain

import (
	"os"

	"github.com/nhkbuild/nhkbuild/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the toolchain package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// BuildEnvironment carries the cross-compilation identity consumed by
// the kernel build. It is threaded explicitly through the pipeline
// rather than exported into the process environment, so no stage
// depends on ambient state.
type BuildEnvironment struct {
	// BinDir is the toolchain executable directory prepended to PATH
	BinDir string

	// Arch is the kernel target architecture (ARCH)
	Arch string

	// SubArch is the kernel target sub-architecture (SUBARCH)
	SubArch string

	// ClangTriple is the compiler target triple prefix (CLANG_TRIPLE)
	ClangTriple string

	// CrossCompile is the primary ABI cross-compile prefix (CROSS_COMPILE)
	CrossCompile string

	// CrossCompileArm32 is the compat ABI prefix (CROSS_COMPILE_ARM32)
	CrossCompileArm32 string
}

// FlameEnvironment returns the build environment for the Pixel 4 target.
func FlameEnvironment(binDir string) *BuildEnvironment {
	return &BuildEnvironment{
		BinDir:            binDir,
		Arch:              "arm64",
		SubArch:           "arm64",
		ClangTriple:       "aarch64-linux-gnu-",
		CrossCompile:      "aarch64-linux-android-",
		CrossCompileArm32: "arm-linux-androideabi-",
	}
}

// Environ renders the environment as KEY=value pairs suitable for
// appending to a command's environment. PATH is rebuilt with the
// toolchain bin directory in front of the current search path.
func (e *BuildEnvironment) Environ() []string {
	path := e.BinDir
	if cur := os.Getenv("PATH"); cur != "" {
		path += string(os.PathListSeparator) + cur
	}
	return []string{
		"PATH=" + path,
		"ARCH=" + e.Arch,
		"SUBARCH=" + e.SubArch,
		"CLANG_TRIPLE=" + e.ClangTriple,
		"CROSS_COMPILE=" + e.CrossCompile,
		"CROSS_COMPILE_ARM32=" + e.CrossCompileArm32,
	}
}
