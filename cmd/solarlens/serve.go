package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/banshee-data/solarlens/internal/api"
	"github.com/banshee-data/solarlens/internal/db"
	"github.com/banshee-data/solarlens/internal/monitoring"
)

func handleServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := fs.String("listen", ":8080", "Listen address")
	dbPath := fs.String("db", defaultDBPath, "Path to the sqlite database")
	backupDir := fs.String("backup-dir", "", "Directory for temporary backup files (defaults to the OS temp dir)")
	initLogging := logFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	initLogging()

	if *listen == "" {
		return fmt.Errorf("listen address is required")
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	mux := api.NewServer(database).ServeMux()
	if err := database.AttachAdminRoutes(mux, *backupDir); err != nil {
		return fmt.Errorf("failed to attach admin routes: %w", err)
	}

	monitoring.Named("serve").Info().Str("db", *dbPath).Msg("serving detection runs")
	return api.ListenAndServe(ctx, *listen, api.LoggingMiddleware(mux))
}
