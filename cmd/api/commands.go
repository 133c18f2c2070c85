package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notatki/notehub/internal/bootstrap"
	"github.com/notatki/notehub/internal/db"
	"github.com/notatki/notehub/internal/server"
)

func setupServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(*configPath)
			if err != nil {
				return err
			}

			srv, err := server.NewServer(cmd.Context(), cfg, lgr)
			if err != nil {
				return fmt.Errorf("failed to initialize server: %w", err)
			}

			if err := srv.Run(cmd.Context()); err != nil {
				return err
			}
			lgr.Info().Msg("Application finished gracefully.")
			return nil
		},
	}
}

func setupMigrateCommand(configPath *string) *cobra.Command {
	var withSeed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(*configPath)
			if err != nil {
				return err
			}

			database, err := db.NewPostgresDB(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close()

			applied, err := bootstrap.RunMigrations(ctx, cfg, database.Pool, lgr)
			if err != nil {
				return err
			}
			lgr.Info().Int("applied", applied).Msg("Migrations finished")

			if withSeed {
				deps, err := bootstrap.BuildDependencies(ctx, cfg, database.Pool, lgr)
				if err != nil {
					return err
				}
				bootstrap.SeedDefaultData(ctx, deps)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withSeed, "seed", false, "Also create the default subjects and professors")
	return cmd
}
