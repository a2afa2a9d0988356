package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"caseflow/internal/catalog/seed"
	catalogstore "caseflow/internal/catalog/store"
	"caseflow/internal/platform/postgres"
	"caseflow/pkg/platform/tx"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := postgres.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			log.InfoContext(ctx, "migrations applied")
			return nil
		},
	}
}

func seedCatalogCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-catalog",
		Short: "Replace the provider catalog with the contents of a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Catalog.SeedFile
			}
			if file == "" {
				return fmt.Errorf("a seed file is required (--file or CASEFLOW_CATALOG_SEED_FILE)")
			}
			data, err := seed.LoadFile(file)
			if err != nil {
				return err
			}
			db, err := postgres.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			runner := tx.NewPostgresRunner(db, cfg.Cases.TransitionTimeout)
			if err := seed.Apply(ctx, runner, catalogstore.NewPostgres(db), data); err != nil {
				return fmt.Errorf("apply catalog seed: %w", err)
			}
			log.InfoContext(ctx, "catalog seeded",
				"file", file,
				"providers", len(data.Providers),
				"offers", len(data.Offers),
				"countries", len(data.Countries),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file")
	return cmd
}
