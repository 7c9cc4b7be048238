package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/creator-onboarding-backend/internal/app"
	"github.com/yungbote/creator-onboarding-backend/internal/data/db"
	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/envutil"
	"github.com/yungbote/creator-onboarding-backend/internal/platform/logger"
	"github.com/yungbote/creator-onboarding-backend/internal/services"
)

func main() {
	root := &cobra.Command{
		Use:           "onboarding",
		Short:         "Creator-to-agent onboarding service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), healthCmd(), alertsTailCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()
			a.Start()
			return a.Run(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema and indexes, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(envutil.String("LOG_MODE", "development"))
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()
			pg, err := db.NewPostgresService(log)
			if err != nil {
				return fmt.Errorf("init postgres: %w", err)
			}
			defer pg.Close()
			if err := db.Migrate(pg.DB().WithContext(cmd.Context())); err != nil {
				return err
			}
			log.Info("migration complete", "driver", pg.Driver())
			return nil
		},
	}
}

func healthCmd() *cobra.Command {
	var timeRange string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Print pipeline health metrics as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := services.ParseTimeRange(timeRange)
			if err != nil {
				return err
			}
			a, err := app.New(app.Options{SkipMigrate: true})
			if err != nil {
				return err
			}
			defer a.Close()
			health, err := a.Services.Telemetry.GetPipelineHealthMetrics(cmd.Context(), tr)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(health)
		},
	}
	cmd.Flags().StringVar(&timeRange, "range", "24h", "time range: 1h, 24h, 7d or 30d")
	return cmd
}

func alertsTailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alerts-tail",
		Short: "Stream pipeline alerts broadcast over Redis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(app.Options{SkipMigrate: true})
			if err != nil {
				return err
			}
			defer a.Close()
			if a.Clients.AlertBus == nil {
				return fmt.Errorf("alerts-tail requires REDIS_ADDR")
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if err := a.Clients.AlertBus.StartForwarder(cmd.Context(), func(alert types.PipelineAlert) {
				_ = enc.Encode(alert)
			}); err != nil {
				return err
			}
			<-cmd.Context().Done()
			return nil
		},
	}
}
