package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"thriftbazaar/internal/config"
	"thriftbazaar/internal/events"
	"thriftbazaar/internal/http/handlers"
	applog "thriftbazaar/internal/log"
	"thriftbazaar/internal/market"
	"thriftbazaar/internal/storage"
	"thriftbazaar/web"
)

// openStore picks the namespace store named by STORE_BACKEND.
func openStore(cfg config.Config) (storage.Store, func(), error) {
	switch cfg.StoreBackend {
	case "redis":
		rs := storage.NewRedisStore(cfg.RedisAddr)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	default:
		db, err := storage.OpenDB(cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewSQLStore(db), func() { _ = db.Close() }, nil
	}
}

func main() {
	cfg := config.Load()

	// Optional file logging
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

	st, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	pub, err := events.New(cfg)
	if err != nil {
		log.Printf("[warn] events backend %s unavailable, logging events instead: %v", cfg.EventsBackend, err)
		pub = events.LogPublisher{}
	}
	defer pub.Close()

	api := market.New(cfg.MarketAPIURL, cfg.MarketAPITimeout)
	deps := handlers.NewDeps(st, api, pub, cfg)

	// Templates from disk when present so edits show up without a rebuild
	tmplDir := ""
	if fi, err := os.Stat("./web/templates"); err == nil && fi.IsDir() {
		tmplDir = "./web/templates"
	}

	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	log.Printf("[static] /static -> ./web/static")
	log.Printf("[static] /media  -> %s", mediaDir)

	app := handlers.NewApp(deps, handlers.AppOptions{
		Views:     web.Engine(tmplDir, tmplDir != ""),
		AccessLog: true,
		Mount: func(app *fiber.App) {
			app.Static("/static", "./web/static")
			// Guarded media to avoid traversal
			app.Get("/media/*", func(c *fiber.Ctx) error {
				path := c.Params("*")
				rawLower := strings.ToLower(path)
				if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
					applog.Security(c, "media.traversal.block", map[string]any{"path": path})
					return c.SendStatus(fiber.StatusNotFound)
				}
				clean := filepath.Clean(path)
				if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
					applog.Security(c, "media.traversal.block", map[string]any{"path": path})
					return c.SendStatus(fiber.StatusNotFound)
				}
				return c.SendFile(filepath.Join(mediaDir, clean), true)
			})
		},
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Print(err)
	}
}
