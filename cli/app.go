package cli

import (
	"context"
	"fmt"

	"github.com/intrence/catalog/engine/infra/lifecycle"
	"github.com/intrence/catalog/engine/infra/postgres"
	"github.com/intrence/catalog/engine/infra/repo"
	"github.com/intrence/catalog/pkg/config"
	"github.com/intrence/catalog/pkg/logger"
	"github.com/spf13/cobra"
)

// loadUnifiedConfig loads configuration with CLI flag overrides.
func loadUnifiedConfig(ctx context.Context, cmd *cobra.Command) (*config.Config, config.Service, error) {
	service := config.NewService()
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	var sources []config.Source
	if configFile != "" {
		sources = append(sources, config.NewYAMLProvider(configFile))
	}
	cliFlags := make(map[string]any)
	extractCLIFlags(cmd, cliFlags)
	if len(cliFlags) > 0 {
		sources = append(sources, config.NewCLIProvider(cliFlags))
	}
	cfg, err := service.Load(ctx, sources...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, service, nil
}

// app holds what a command needs to reach the database. close runs the
// shutdown hooks, which close every pool the manager built.
type app struct {
	ctx      context.Context
	cfg      *config.Config
	desc     *postgres.Descriptor
	manager  *postgres.Manager
	provider *repo.Provider
	hooks    *lifecycle.Hooks
}

func bootstrap(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, _, err := loadUnifiedConfig(ctx, cmd)
	if err != nil {
		return nil, err
	}
	logger.SetupLogger(cfg.Log.Level, cfg.Log.JSON, cfg.Log.Source)
	ctx = logger.ContextWithLogger(ctx, logger.GetDefault())
	ctx = config.ContextWithConfig(ctx, cfg)

	desc, err := postgres.DescriptorFromConfig(&cfg.Postgres)
	if err != nil {
		return nil, err
	}
	manager := postgres.NewManager()
	hooks := lifecycle.New()
	manager.RegisterShutdown(hooks)
	provider, err := repo.NewProvider(manager, desc)
	if err != nil {
		return nil, err
	}
	return &app{ctx: ctx, cfg: cfg, desc: desc, manager: manager, provider: provider, hooks: hooks}, nil
}

func (a *app) close() {
	a.hooks.Shutdown(context.WithoutCancel(a.ctx))
}
