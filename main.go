// main.go
//
// Entry point of the game-data service.
// Responsibilities:
//   - Load .env and configure the global zerolog level (LOG_LEVEL).
//   - Open the SQLite database (DB_PATH), apply embedded migrations, seed demo games.
//   - Serve the HTTP API on PORT until SIGINT/SIGTERM, then shut down gracefully.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/connections/assets"
	"github.com/robalobadob/connections/internal/catalog"
	"github.com/robalobadob/connections/internal/codes"
	"github.com/robalobadob/connections/internal/database"
	"github.com/robalobadob/connections/internal/httpserver"
	"github.com/robalobadob/connections/internal/stats"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := database.OpenMigrated(getEnv("DB_PATH", "./data/app.db"), assets.Migrations())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	cat := catalog.New(db, codes.New(getEnv("CODE_SALT", "local_dev_salt")))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if getEnv("SEED_GAMES", "true") == "true" {
		docs, err := assets.SeedDocuments()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read seed games")
		}
		n, err := cat.Seed(ctx, docs)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed games")
		}
		if n > 0 {
			log.Info().Int("games", n).Msg("seeded demo games")
		}
	}

	srv := httpserver.New(db, cat, stats.NewStore(db), log.Logger)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting connections service")
	if err := srv.Start(ctx, ":"+port); err != nil {
		log.Error().Err(err).Msg("server exited")
		stop()
		_ = db.Close()
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
