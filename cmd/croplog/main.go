package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/croplog/croplog/auth"
	"github.com/croplog/croplog/config"
	"github.com/croplog/croplog/repository"
	"github.com/croplog/croplog/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := auth.DefaultLogger()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabasePath+"?_pragma=foreign_keys(1)")
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repository.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	repos := repository.NewManager(db)
	repos.MustValidate()

	srv, err := server.New(cfg, repos, logger)
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Listen(); err != nil {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalf("server: %v", err)
	case sig := <-stop:
		logger.Info("received %s, shutting down", sig)
	}

	if err := srv.Shutdown(); err != nil {
		logger.Error("shutdown: %v", err)
	}
}
