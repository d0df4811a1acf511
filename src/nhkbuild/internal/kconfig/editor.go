package kconfig

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nhkbuild/nhkbuild/src/common/errors"
	"github.com/nhkbuild/nhkbuild/src/common/paths"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/runner"
	"golang.org/x/term"
)

// Editor mutates the active .config of a kernel tree. Mutation goes
// through the kernel's scripts/config helper when present; otherwise it
// degrades to a blocking, human-driven menuconfig session.
type Editor struct {
	KernelDir string
	Runner    runner.Runner
	Env       []string

	// In and TerminalCheck exist for tests; zero values use stdin.
	In            io.Reader
	TerminalCheck func() bool
}

// helperPath returns the path of the kernel's config mutation helper
func (e *Editor) helperPath() string {
	return filepath.Join(e.KernelDir, "scripts", "config")
}

// HelperAvailable reports whether scripts/config exists in the tree
func (e *Editor) HelperAvailable() bool {
	return paths.IsFile(e.helperPath())
}

// Enable applies the ordered feature list to the active configuration.
// Each enable operation is independent and idempotent. When the helper
// tool is missing, the interactive fallback runs instead and the user
// is expected to enable the features by hand.
func (e *Editor) Enable(ctx context.Context, features []string) error {
	if !e.HelperAvailable() {
		log.Warn("scripts/config helper not found, falling back to manual configuration")
		return e.interactiveEdit(ctx, features)
	}

	for _, feature := range features {
		if err := e.Runner.Run(ctx, runner.Opts{
			Name: e.helperPath(),
			Args: []string{"--file", ".config", "-e", feature},
			Dir:  e.KernelDir,
		}); err != nil {
			return errors.ErrConfigEdit.
				WithMessagef("Failed to enable %s", feature).
				WithCause(err)
		}
		log.Debug("Enabled kernel feature", "feature", feature)
	}
	return nil
}

// interactiveEdit blocks for user confirmation, then launches the
// kernel's interactive configuration editor attached to the user's
// terminal. This is the pipeline's only blocking, human-driven step.
func (e *Editor) interactiveEdit(ctx context.Context, features []string) error {
	isTerminal := e.TerminalCheck
	if isTerminal == nil {
		isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}
	if !isTerminal() {
		return errors.ErrConfigEdit.WithMessage(
			"scripts/config is missing and stdin is not a terminal; cannot run menuconfig")
	}

	fmt.Println("The kernel configuration helper is unavailable.")
	fmt.Println("menuconfig will open; please enable the following options:")
	for _, feature := range features {
		fmt.Printf("  %s\n", feature)
	}
	fmt.Print("Press Enter to continue... ")

	in := e.In
	if in == nil {
		in = os.Stdin
	}
	if _, err := bufio.NewReader(in).ReadString('\n'); err != nil && err != io.EOF {
		return errors.ErrConfigEdit.WithCause(err)
	}

	if err := e.Runner.Run(ctx, runner.Opts{
		Name:        "make",
		Args:        []string{"menuconfig"},
		Dir:         e.KernelDir,
		Env:         e.Env,
		Interactive: true,
	}); err != nil {
		return errors.ErrConfigEdit.WithCause(err)
	}
	return nil
}

// Normalize resolves options left implied-but-unset by the enable list,
// producing a configuration consistent per the kernel's own rules.
func (e *Editor) Normalize(ctx context.Context) error {
	if err := e.Runner.Run(ctx, runner.Opts{
		Name: "make",
		Args: []string{"olddefconfig"},
		Dir:  e.KernelDir,
		Env:  e.Env,
	}); err != nil {
		return errors.ErrConfigEdit.
			WithMessage("Configuration normalization failed").
			WithCause(err)
	}
	return nil
}
