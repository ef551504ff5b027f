// Package cmd provides the CLI commands for relgate.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/relgate/internal/adapters/output"
	"github.com/MyCarrier-DevOps/relgate/internal/domain"
	"github.com/MyCarrier-DevOps/relgate/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/relgate/internal/usecases"
)

// Logger defines the logging interface used by the commands.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Dependencies holds all injectable dependencies for the commands.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance.
	LoggerFactory func() Logger

	// ConfigLoader loads the release configuration for the project root.
	ConfigLoader func(root string) (*config.Config, error)

	// RunnerFactory creates a process runner scoped to the project root.
	RunnerFactory func(root string) domain.Runner

	// VCSFactory creates the version-control adapter for the project root.
	VCSFactory func(root string, run domain.Runner, log Logger) (domain.VersionControl, error)

	// PackagerFactory creates the packager for the project root.
	PackagerFactory func(root string, cfg *config.Config) domain.Packager

	// PublisherFactory creates the registry publisher. Called only by
	// the release command, after credentials have been resolved.
	PublisherFactory func(ctx context.Context, cfg *config.Config, log Logger) (domain.Publisher, error)

	// RecorderFactory creates the release history recorder.
	RecorderFactory func(cfg *config.Config, log Logger) (domain.Recorder, error)

	// CredentialResolver fills in the registry credentials on cfg.
	CredentialResolver func(ctx context.Context, cfg *config.Config) error

	// Stdout is the writer for operator-facing success output.
	Stdout io.Writer

	// Stderr is the writer for remediation messages and failures.
	Stderr io.Writer
}

// Command-line flags.
var verbose bool

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for relgate.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "relgate",
		Short: "Gate and publish releases of a wrapped library",
		Long: `relgate verifies that a repository is ready to release and runs the
publication pipeline.

The release version is the configured base version plus the repository's
commit count (e.g. base 1.4.0 at commit 42 releases 1.4.0.42, tagged
v1.4.0.42). Before anything is built or published, four preconditions
must hold, in order:

  1. the changelog mentions the release tag          (exit 10)
  2. the package manifest declares the version       (exit 11)
  3. the working tree is clean                       (exit 12)
  4. the release tag exists and points at HEAD       (exit 13/14)

The first failing check aborts with its exit code and a remediation
hint. The release command then cleans the build directory, packages the
archive with a provenance manifest, uploads both to the registry, and
pushes the tag followed by the branch (a push failure exits 15; the
artifact is already published at that point).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")

	rootCmd.AddCommand(newCheckReleaseCmd(deps))
	rootCmd.AddCommand(newReleaseCmd(deps))
	rootCmd.AddCommand(newVersionCmd(deps))

	return rootCmd
}

func newCheckReleaseCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "check-release [path]",
		Short: "Run the release preconditions without building anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckRelease(cmd, args, deps)
		},
	}
}

func newReleaseCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "release [path]",
		Short: "Run the full release pipeline: gate, package, publish, sync tags",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd, args, deps)
		},
	}
}

func newVersionCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "version [path]",
		Short: "Print the resolved release version and the next version",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, args, deps)
		},
	}
}

// session bundles what every command needs after setup.
type session struct {
	log    Logger
	cfg    *config.Config
	vcs    domain.VersionControl
	writer *output.Writer
	root   string
}

// setup resolves the project root, logging, configuration and the
// version-control adapter shared by all commands.
func setup(cmd *cobra.Command, args []string, deps *Dependencies) (*session, error) {
	if deps == nil {
		return nil, errors.New("dependencies not configured")
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	stdout := deps.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	// Set log level based on verbose flag (best-effort)
	if verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			fmt.Fprintf(stderr, "warning: could not set log level: %v\n", err)
		}
	}

	log := deps.LoggerFactory()

	cfg, err := deps.ConfigLoader(root)
	if err != nil {
		log.Error(cmd.Context(), "failed to load release configuration", err, nil)
		return nil, err
	}

	run := deps.RunnerFactory(root)
	vcs, err := deps.VCSFactory(root, run, log)
	if err != nil {
		log.Error(cmd.Context(), "failed to open repository", err, map[string]interface{}{
			"path": root,
		})
		return nil, err
	}

	return &session{
		log:    log,
		cfg:    cfg,
		vcs:    vcs,
		writer: output.NewWriterWithStreams(stdout, stderr),
		root:   root,
	}, nil
}

// buildContext resolves the version and assembles the release context.
// The context is computed once and treated as read-only by every
// subsequent step. requireBranch controls whether a detached HEAD is
// fatal: the gate tolerates it, the release pipeline does not because
// the branch is pushed after the tag.
func buildContext(ctx context.Context, s *session, requireBranch bool) (domain.ReleaseContext, error) {
	resolver := usecases.NewVersionResolver(s.vcs, s.cfg.BaseVersion, s.log)
	v, err := resolver.Resolve(ctx)
	if err != nil {
		return domain.ReleaseContext{}, err
	}

	commit, err := s.vcs.HeadCommit(ctx)
	if err != nil {
		return domain.ReleaseContext{}, err
	}

	branch, err := s.vcs.CurrentBranch(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrDetachedHead) || requireBranch {
			return domain.ReleaseContext{}, err
		}
		s.log.Warn(ctx, "HEAD is detached; branch checks skipped", map[string]interface{}{
			"commit": commit,
		})
		branch = ""
	}

	return domain.ReleaseContext{
		Library:  s.cfg.Library,
		Version:  v,
		Tag:      v.Tag(),
		Commit:   commit,
		Branch:   branch,
		Remote:   s.cfg.Remote,
		BuildDir: s.cfg.BuildDir,
	}, nil
}

// newGate builds the precondition gate with document paths anchored at
// the project root.
func newGate(s *session) *usecases.Gate {
	return usecases.NewGate(
		s.vcs,
		filepath.Join(s.root, s.cfg.Changelog),
		filepath.Join(s.root, s.cfg.Manifest),
		s.log,
	)
}

// runCheckRelease evaluates the preconditions and reports the outcome.
func runCheckRelease(cmd *cobra.Command, args []string, deps *Dependencies) error {
	s, err := setup(cmd, args, deps)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	rc, err := buildContext(ctx, s, false)
	if err != nil {
		s.writer.Failed(err)
		return err
	}

	if err := newGate(s).Run(ctx, rc); err != nil {
		reportFailure(s.writer, err)
		return err
	}

	s.writer.Ready(rc)
	return nil
}

// runRelease runs the full pipeline.
func runRelease(cmd *cobra.Command, args []string, deps *Dependencies) error {
	s, err := setup(cmd, args, deps)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	rc, err := buildContext(ctx, s, true)
	if err != nil {
		s.writer.Failed(err)
		return err
	}

	if err := deps.CredentialResolver(ctx, s.cfg); err != nil {
		s.writer.Failed(err)
		return err
	}

	publisher, err := deps.PublisherFactory(ctx, s.cfg, s.log)
	if err != nil {
		s.writer.Failed(fmt.Errorf("cannot initialize registry publisher: %w", err))
		return err
	}
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			s.log.Warn(ctx, "failed to close publisher", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	recorder, err := deps.RecorderFactory(s.cfg, s.log)
	if err != nil {
		// Release history is best-effort; a broken recorder must
		// not block the release.
		s.log.Warn(ctx, "release history disabled", map[string]interface{}{
			"error": err.Error(),
		})
		recorder = nil
	}
	if recorder != nil {
		defer func() {
			if closeErr := recorder.Close(); closeErr != nil {
				s.log.Warn(ctx, "failed to close recorder", map[string]interface{}{
					"error": closeErr.Error(),
				})
			}
		}()
	}

	releaser := usecases.NewReleaser(
		newGate(s),
		s.vcs,
		deps.PackagerFactory(s.root, s.cfg),
		publisher,
		recorder,
		s.log,
	)

	rc, err = releaser.Release(ctx, rc)
	if err != nil {
		reportFailure(s.writer, err)
		return err
	}

	s.writer.Released(rc)
	return nil
}

// runVersion prints the resolved version, its tag, and the version the
// next commit would carry.
func runVersion(cmd *cobra.Command, args []string, deps *Dependencies) error {
	s, err := setup(cmd, args, deps)
	if err != nil {
		return err
	}

	resolver := usecases.NewVersionResolver(s.vcs, s.cfg.BaseVersion, s.log)
	v, err := resolver.Resolve(cmd.Context())
	if err != nil {
		s.writer.Failed(err)
		return err
	}

	s.writer.Version(v)
	return nil
}

// reportFailure routes an error to the right operator message.
func reportFailure(w *output.Writer, err error) {
	var blocked *domain.BlockedError
	if errors.As(err, &blocked) {
		w.Blocked(blocked)
		return
	}
	w.Failed(err)
}

// Execute runs the root command and terminates the process with the
// exit code the failure mandates: 10-14 for a blocked precondition,
// 15 for a failed tag sync, 2 for environment errors.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(domain.ExitCodeFor(err))
	}
}
