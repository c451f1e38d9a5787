package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stationguessr/go-server/internal/config"
	"github.com/stationguessr/go-server/internal/daily"
	"github.com/stationguessr/go-server/internal/database"
	"github.com/stationguessr/go-server/internal/httpserver"
	"github.com/stationguessr/go-server/internal/stations"
	"github.com/stationguessr/go-server/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "stationguessr",
	Short: "Station Guessr game server",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error { return serveCmd.RunE(cmd, args) },
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openAndMigrate(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		catalog, err := stations.Load(cfg.StationsFile)
		if err != nil {
			return fmt.Errorf("load stations: %w", err)
		}
		log.Info().Int("stations", catalog.Len()).Msg("catalog loaded")

		srv := httpserver.New(cfg, db, catalog, store.NewMemoryRounds(cfg.MaxLiveRounds))
		log.Info().Str("port", cfg.Port).Str("driver", cfg.DBDriver).Msg("starting go-server")
		return srv.Start(":" + cfg.Port)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openAndMigrate(cmd.Context())
		if err != nil {
			return err
		}
		return db.Close()
	},
}

var generateDays int

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Schedule daily stations ahead of time",
	Long:  "Stores assignments for the next --days dates after the last scheduled date, or starting today.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openAndMigrate(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		catalog, err := stations.Load(cfg.StationsFile)
		if err != nil {
			return fmt.Errorf("load stations: %w", err)
		}
		p := daily.NewProvider(daily.NewStore(db), catalog, cfg.DailySalt)
		n, err := p.Schedule(cmd.Context(), generateDays)
		if err != nil {
			return err
		}
		log.Info().Int("created", n).Int("days", generateDays).Msg("assignments scheduled")
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVar(&generateDays, "days", 30, "number of days to schedule")
	rootCmd.AddCommand(serveCmd, migrateCmd, generateCmd)
}

func openAndMigrate(ctx context.Context) (*sqlx.DB, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("exited")
		os.Exit(1)
	}
}
