// migrate brings the PokéMarket database schema up to date, or recreates it.
//
// Usage: go run ./cmd/migrate [-db=<dsn>] [-reset -execute]
//
// The tool:
// 1. Removes duplicate same-day price snapshots
// 2. Creates or alters the cards and price_history tables
// 3. Backfills placeholder values for missing card attributes
// 4. With -reset -execute: drops both tables first, deleting all data
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/codyseavey/pokemarket/internal/config"
	"github.com/codyseavey/pokemarket/internal/database"
	"github.com/codyseavey/pokemarket/internal/logging"
)

func main() {
	dsn := flag.String("db", "", "sqlite path or postgres:// URL (default: DATABASE_URL)")
	reset := flag.Bool("reset", false, "Drop all tables and recreate an empty schema")
	execute := flag.Bool("execute", false, "Required with -reset to actually delete data")
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.NewLogger(cfg.Log)

	if *dsn == "" {
		*dsn = cfg.Server.DatabaseURL
	}

	if *reset && !*execute {
		fmt.Println("Error: -reset deletes every card and snapshot; add -execute to confirm")
		os.Exit(1)
	}

	db, err := database.Open(*dsn)
	if err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	if *reset {
		slog.Warn("dropping all tables", "db", *dsn)
		if err := database.Reset(db); err != nil {
			slog.Error("failed to reset database", "error", err)
			os.Exit(1)
		}
	}

	stats, err := database.CountRows(db)
	if err != nil {
		slog.Error("failed to count rows", "error", err)
		os.Exit(1)
	}

	fmt.Println("✓ Database schema is up to date")
	fmt.Printf("  cards:         %d\n", stats.Cards)
	fmt.Printf("  price_history: %d\n", stats.Snapshots)
}
