package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/emilythestrangee/qa-forum/backend/internal/app"
	"github.com/emilythestrangee/qa-forum/backend/internal/community"
	"github.com/emilythestrangee/qa-forum/backend/internal/config"
	"github.com/emilythestrangee/qa-forum/backend/internal/database"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

var (
	rootCmd = &cobra.Command{
		Use:           "qaforum",
		Short:         "Q&A community backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				log.WithError(err).Error("Failed to load configuration")
				return err
			}
			setupLogging(cfg)
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the background jobs",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the PostgreSQL schema",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}
	reconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute every denormalized counter and report the drift repaired",
		Args:  cobra.NoArgs,
		RunE:  runReconcile,
	}
	tagCmd = &cobra.Command{
		Use:   "tag",
		Short: "Manage question tags",
	}
	tagAddCmd = &cobra.Command{
		Use:   "add [name...]",
		Short: "Create question tags",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTagAdd,
	}
)

type configKey struct{}

func init() {
	tagCmd.AddCommand(tagAddCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, reconcileCmd, tagCmd)
}

func configFrom(cmd *cobra.Command) *config.Config {
	return cmd.Context().Value(configKey{}).(*config.Config)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := configFrom(cmd)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer application.Close()

	log.WithFields(log.Fields{"env": cfg.AppEnv, "driver": cfg.DBDriver}).Info("=== Server starting ===")
	if err := application.Run(ctx); err != nil {
		return err
	}
	log.Info("=== Server stopped ===")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := configFrom(cmd)
	if cfg.DBDriver != config.DriverPostgres {
		return fmt.Errorf("migrate needs DB_DRIVER=%s", config.DriverPostgres)
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return database.Migrate(db.GetDB().WithContext(cmd.Context()))
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	cfg := configFrom(cmd)
	db, st, err := app.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := community.NewReconciler(st.Counters(), cfg.ReconcileGrace).Run(cmd.Context())
	if err != nil {
		return err
	}
	for _, c := range store.Counters {
		fmt.Fprintf(cmd.OutOrStdout(), "%-18s %d repaired\n", c, report[c])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "total              %d repaired\n", report.Total())
	return nil
}

func runTagAdd(cmd *cobra.Command, args []string) error {
	db, st, err := app.OpenStore(cmd.Context(), configFrom(cmd))
	if err != nil {
		return err
	}
	defer db.Close()

	tags := service.NewTagService(st.Tags())
	for _, name := range args {
		t, err := tags.Create(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("tag %q: %w", name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", t.ID, t.Name)
	}
	return nil
}
