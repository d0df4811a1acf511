// Package cmd implements the nhkbuild command line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/nhkbuild/nhkbuild/src/common/cli"
	"github.com/nhkbuild/nhkbuild/src/common/errors"
	"github.com/nhkbuild/nhkbuild/src/common/logs"
	"github.com/nhkbuild/nhkbuild/src/common/version"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/config"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/fetch"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/kconfig"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/pipeline"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/runner"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/toolchain"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// VersionInfo holds version information - set at build time via ldflags
	VersionInfo = version.New()

	// Configuration file path
	cfgFile string

	log *logs.Logger
)

// Linker variables - set via ldflags at build time
var (
	Version        = "dev"
	ReleaseVersion = "0.0.0"
	BuildDate      = "unknown"
	GitCommit      = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "nhkbuild",
	Short: "NetHunter kernel build pipeline for the Pixel 4 (flame)",
	Long: `nhkbuild builds a Kali NetHunter kernel for the Google Pixel 4
("flame") end to end: it prepares the workspace, fetches the kernel
sources and packaging tools, provisions the clang cross toolchain,
resolves and patches the kernel configuration, builds the kernel, and
assembles the flashable kernel and installer zips.

The pipeline is idempotent: re-running it reuses everything already
present in the workspace and only redoes the work that is missing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: runBuild,
}

// Execute runs the root command
func Execute() {
	VersionInfo.Version = Version
	VersionInfo.ReleaseVersion = ReleaseVersion
	VersionInfo.BuildDate = BuildDate
	VersionInfo.GitCommit = GitCommit

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.GetExitCode(err))
	}
}

func init() {
	cli.RegisterConfigFlag(rootCmd, &cfgFile, "~/.nhkbuild/nhkbuild.yaml")
	cli.RegisterLogFlags(rootCmd)

	rootCmd.Flags().String("workspace", "", "Workspace directory (default: ~/nethunter)")
	rootCmd.Flags().Bool("skip-deps", false, "Skip build-dependency installation")
	rootCmd.Flags().IntP("jobs", "j", 0, "Parallel build jobs (default: number of CPUs)")

	_ = viper.BindPFlag("workspace", rootCmd.Flags().Lookup("workspace"))
	_ = viper.BindPFlag("skip_deps", rootCmd.Flags().Lookup("skip-deps"))
	_ = viper.BindPFlag("jobs", rootCmd.Flags().Lookup("jobs"))

	config.SetDefaults()

	rootCmd.AddCommand(versionCmd)
}

func initConfig() error {
	if err := cli.InitConfig(cli.ConfigOptions{
		ConfigFile:  cfgFile,
		ConfigName:  "nhkbuild",
		ConfigType:  "yaml",
		EnvPrefix:   "NHKBUILD",
		SearchPaths: []string{"~/.nhkbuild", "."},
	}); err != nil {
		return err
	}

	log = cli.InitLogger("nhkbuild")
	runner.SetLogger(log)
	fetch.SetLogger(log)
	toolchain.SetLogger(log)
	kconfig.SetLogger(log)
	pipeline.SetLogger(log)

	return nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	// Dependency installation assumes a Debian-family host. Elsewhere
	// the operator provides the build packages themselves.
	if !cfg.SkipDeps && !runner.Available("apt-get") {
		log.Warn("apt-get not found, skipping dependency installation")
		cfg.SkipDeps = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exec := runner.NewExec()
	getter := fetch.NewHTTPGetter(nil)

	stages := pipeline.DefaultStages(cfg, exec, getter)
	if jobs := viper.GetInt("jobs"); jobs > 0 {
		for i, s := range stages {
			if s.Name() == pipeline.StageBuild {
				stages[i] = pipeline.NewBuildStage(cfg, exec, jobs)
			}
		}
	}

	sc := &pipeline.StageContext{
		RunID: uuid.NewString(),
		Cfg:   cfg,
	}

	log.Info("Starting build",
		"version", VersionInfo.Short(),
		"device", cfg.Device,
		"workspace", cfg.Workspace,
		"run_id", sc.RunID)

	p := pipeline.New(stages)
	if err := p.Run(ctx, sc); err != nil {
		log.Error("Build aborted", "state", p.State(), "run_id", sc.RunID)
		return err
	}

	log.Info("Build finished", "state", p.State(), "run_id", sc.RunID)
	return nil
}
