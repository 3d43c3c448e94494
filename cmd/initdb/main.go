// cmd/initdb/main.go
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/phishsim/internal/config"
	"github.com/unclebandit/phishsim/internal/db"
	"github.com/unclebandit/phishsim/internal/logger"
)

// initdb creates the tables if missing, then runs any SQL files given as
// arguments, e.g. `initdb seed/demo.sql`.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ invalid configuration")
	}
	ctx := logger.Init(context.Background(), cfg.Log.Level, cfg.Log.Pretty)

	pool, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to create schema")
	}
	log.Info().Msg("✅ Schema ready")

	for _, file := range os.Args[1:] {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to read seed file")
		}
		if _, err := pool.ExecContext(ctx, string(content)); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to execute seed file")
		}
		log.Info().Str("file", file).Msg("Seeded")
	}
}
