package main

import (
	"net/http"
	"os"
	"time"

	"github.com/royceleh/polly/internal/blob"
	"github.com/royceleh/polly/internal/config"
	"github.com/royceleh/polly/internal/db"
	"github.com/royceleh/polly/internal/logging"
	"github.com/royceleh/polly/internal/market"
	"github.com/royceleh/polly/internal/server"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		logging.Log.WithError(err).Warn("failed to load .env")
	}
	logging.Bootstrap()
	cfg := config.Load()

	conn, err := db.Open()
	if err != nil {
		logging.Log.WithError(err).Fatal("database connection failed")
	}
	if err := db.Migrate(conn); err != nil {
		logging.Log.WithError(err).Fatal("database migration failed")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		logging.Log.WithError(err).Fatal("database handle unavailable")
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second)

	media := blob.NewFSStore(cfg.MediaDir, cfg.MediaBaseURL)
	svc := market.New(conn, media, market.WithPointsPerVote(cfg.PointsPerVote))
	srv := server.New(conn, svc, cfg)

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}
	logging.Log.WithField("addr", addr).Info("polly server listening")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logging.Log.WithError(err).Fatal("server stopped")
	}
}
