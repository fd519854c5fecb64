package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourorg/tastebook/internal/infrastructure/logger"
	"github.com/yourorg/tastebook/internal/repository"
	"github.com/yourorg/tastebook/internal/security/audit"
	"github.com/yourorg/tastebook/internal/service"
	"github.com/yourorg/tastebook/pkg/config"
	"github.com/yourorg/tastebook/pkg/database"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tastebook-admin",
		Short:         "Operator tools for the tastebook database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newRecomputeCmd())
	cmd.AddCommand(newHouseholdCmd())
	cmd.AddCommand(newTokenCmd())
	return cmd
}

// env is what every subcommand needs: configuration, a logger and a migrated pool
type env struct {
	cfg  *config.Config
	log  *slog.Logger
	pool *database.ConnectionPool
}

func connect(ctx context.Context, migrate bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// stdout carries command output; logs go to stderr
	log := logger.New(os.Stderr, cfg.LogLevel)

	pool, err := database.NewConnectionPool(ctx, cfg.Database.Database(), log)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := pool.Migrate(ctx); err != nil {
			_ = pool.Close()
			return nil, err
		}
	}
	return &env{cfg: cfg, log: log, pool: pool}, nil
}

func (e *env) deps() service.Deps {
	return service.Deps{Pool: e.pool, Audit: audit.NewLogger(e.log), Logger: e.log}
}

func (e *env) households() *service.HouseholdService {
	return service.NewHouseholdService(repository.NewHouseholdRepository(e.pool.DB(), e.log), audit.NewLogger(e.log), e.log)
}

func (e *env) Close() error {
	return e.pool.Close()
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
