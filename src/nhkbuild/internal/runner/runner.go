// Package runner executes the external commands the pipeline delegates
// to (git, make, apt-get, the installer builder). Commands are opaque
// collaborators: only their exit status and output are observed.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/nhkbuild/nhkbuild/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the runner package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Opts describes a single external command invocation
type Opts struct {
	// Name is the command binary
	Name string

	// Args are the command arguments
	Args []string

	// Dir is the working directory (empty = inherit)
	Dir string

	// Env is appended to the process environment
	Env []string

	// Interactive attaches the user's terminal to the command
	// (used only by the manual configuration detour)
	Interactive bool
}

func (o Opts) String() string {
	return strings.TrimSpace(o.Name + " " + strings.Join(o.Args, " "))
}

// Runner runs external commands. The pipeline depends on this interface
// so tests can substitute recorded fakes for the real toolchain.
type Runner interface {
	// Run executes a command, streaming its output, and returns an
	// error when it exits non-zero.
	Run(ctx context.Context, opts Opts) error

	// Output executes a command and returns its trimmed stdout.
	Output(ctx context.Context, opts Opts) (string, error)
}

// Exec runs commands on the host via os/exec
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExec creates a host command runner wired to the process streams
func NewExec() *Exec {
	return &Exec{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes the command, streaming output to the runner's writers.
// Interactive commands additionally get the process stdin.
func (e *Exec) Run(ctx context.Context, opts Opts) error {
	cmd := exec.CommandContext(ctx, opts.Name, opts.Args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if opts.Interactive {
		cmd.Stdin = os.Stdin
	}

	log.Debug("Running command", "cmd", opts.String(), "dir", opts.Dir)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", opts.String(), err)
	}
	return nil
}

// Output executes the command and captures its stdout
func (e *Exec) Output(ctx context.Context, opts Opts) (string, error) {
	cmd := exec.CommandContext(ctx, opts.Name, opts.Args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	cmd.Stderr = e.Stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s failed: %w", opts.String(), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Available reports whether a binary can be found in PATH
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
