// Command marketapi serves a local copy of the marketplace REST API for
// development and demos.
package main

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/middleware/logger"

	"thriftbazaar/internal/config"
	applog "thriftbazaar/internal/log"
	"thriftbazaar/internal/marketapi"
)

func main() {
	cfg := config.Load()

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
			applog.SetOutput(mw)
			defer f.Close()
		}
	}
	defer applog.Sync()

	dsn := os.Getenv("MARKET_DB_DSN")
	if dsn == "" {
		dsn = strings.TrimSuffix(cfg.DBDSN, ".db") + "-market.db"
	}
	db, err := marketapi.OpenDB(dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	srv := &marketapi.Server{
		Users:    marketapi.NewUserRepo(db),
		Products: marketapi.NewProductRepo(db),
		Tokens:   marketapi.NewTokens(cfg.JWTSecret, 24*time.Hour),
		MediaDir: cfg.MediaDir,
	}
	app := srv.App(logger.New())

	log.Printf("[marketapi] db=%s media=%s listening on :%s", dsn, cfg.MediaDir, cfg.MarketPort)
	if err := app.Listen(":" + cfg.MarketPort); err != nil {
		log.Print(err)
	}
}
