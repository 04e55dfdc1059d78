package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/propertyhub/rental-api/internal/core/domain"
	"github.com/propertyhub/rental-api/internal/core/service"
	mongodb "github.com/propertyhub/rental-api/internal/infrastructure/db/mongo"
	"github.com/propertyhub/rental-api/internal/pkg/config"
	"github.com/propertyhub/rental-api/pkg/logger"
)

const defaultSeedTimeout = 30 * time.Second

// NewSeedRolesCmd creates the seed-roles subcommand.
func NewSeedRolesCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "seed-roles",
		Short: "Create the Admin, Landlord and Tenant roles",
		Long: `Creates the default roles accounts are activated with.
This command is idempotent: existing roles are left untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			created, err := runSeedRoles(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("roles seeded: %d created\n", created)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeedRoles(ctx context.Context) (int, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return 0, err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "rental-api"})

	client, db, err := connectMongo(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	repo := mongodb.NewRoleRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return 0, fmt.Errorf("role indexes: %w", err)
	}
	return service.NewRoleService(repo, log).Seed(ctx, domain.DefaultRoles())
}
