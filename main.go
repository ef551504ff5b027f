// Package main is the entry point for the relgate CLI application.
// relgate gates releases of a wrapped library behind a fixed set of
// repository preconditions, then packages, publishes and tag-syncs the
// release.
package main

import (
	"context"
	"os"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"

	"github.com/MyCarrier-DevOps/relgate/cmd"
	gitadapter "github.com/MyCarrier-DevOps/relgate/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/relgate/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/relgate/internal/adapters/pack"
	"github.com/MyCarrier-DevOps/relgate/internal/adapters/publish"
	"github.com/MyCarrier-DevOps/relgate/internal/adapters/runner"
	"github.com/MyCarrier-DevOps/relgate/internal/adapters/store"
	"github.com/MyCarrier-DevOps/relgate/internal/domain"
	"github.com/MyCarrier-DevOps/relgate/internal/infrastructure/config"
)

func main() {
	// Create a single shared logger instance for the application
	zapLog := logger.NewZapLoggerFromConfig()
	adapter := logadapter.NewZapAdapter(zapLog)

	// Wire up production dependencies
	deps := &cmd.Dependencies{
		LoggerFactory: func() cmd.Logger {
			return adapter
		},

		ConfigLoader: config.Load,

		RunnerFactory: func(root string) domain.Runner {
			return runner.NewExecRunnerAt(root)
		},

		VCSFactory: func(root string, run domain.Runner, _ cmd.Logger) (domain.VersionControl, error) {
			return gitadapter.NewRepository(root, run, adapter)
		},

		PackagerFactory: func(root string, cfg *config.Config) domain.Packager {
			return pack.NewPackager(root, cfg.Include)
		},

		PublisherFactory: func(_ context.Context, cfg *config.Config, _ cmd.Logger) (domain.Publisher, error) {
			return publish.NewRegistryPublisher(registryOptions(cfg), adapter)
		},

		RecorderFactory: func(cfg *config.Config, _ cmd.Logger) (domain.Recorder, error) {
			return newRecorder(cfg)
		},

		CredentialResolver: func(ctx context.Context, cfg *config.Config) error {
			return config.ResolveRegistryCredentials(ctx, cfg, nil)
		},

		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	cmd.SetDefaultDependencies(deps)
	cmd.Execute()
}

// registryOptions maps the loaded configuration onto the publisher's
// connection options.
func registryOptions(cfg *config.Config) publish.Options {
	return publish.Options{
		Endpoint:  cfg.Registry.Endpoint,
		AccessKey: cfg.Registry.AccessKey,
		SecretKey: cfg.Registry.SecretKey,
		Region:    cfg.Registry.Region,
		UseSSL:    cfg.Registry.UseSSL,
		Bucket:    cfg.Registry.Bucket,
	}
}

// newRecorder builds the release history recorder, or a no-op one when
// history is not configured.
func newRecorder(cfg *config.Config) (domain.Recorder, error) {
	if cfg.History == nil {
		return store.NopRecorder{}, nil
	}
	return store.NewClickHouseRecorder(store.Options{
		Addr:     cfg.History.Addr,
		Database: cfg.History.Database,
		Username: cfg.History.Username,
		Password: cfg.History.Password,
		Table:    cfg.History.Table,
	})
}
