package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/adsbdb/adsbdb-go/internal/api"
	"github.com/adsbdb/adsbdb-go/internal/cache"
	"github.com/adsbdb/adsbdb-go/internal/config"
	"github.com/adsbdb/adsbdb-go/internal/monitoring"
	"github.com/adsbdb/adsbdb-go/internal/ratelimit"
	"github.com/adsbdb/adsbdb-go/internal/scraper"
	"github.com/adsbdb/adsbdb-go/internal/store"
)

// Run is the main CLI action: it resolves config, opens the store and cache
// connections, and starts the HTTP server. It wires up tracing, metrics and
// structured logging exactly as the engine's own bootstrap does, generalized
// to the adsbdb route set.
func Run(ctx context.Context, c *cli.Command) error {
	cfg := configFromCommand(c)

	if cfg.LogDebug || cfg.LogTrace {
		// the engine's logger only distinguishes info/debug; LOG_TRACE maps
		// onto the same debug level rather than a third verbosity tier.
		monitoring.SetLogLevel("debug")
	}
	if cfg.LocationLogs != "" {
		f, err := os.OpenFile(cfg.LocationLogs, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("failed to open log file %s: %v", cfg.LocationLogs, err)
		} else {
			log.SetOutput(f)
		}
	}

	shutdownTracer := monitoring.InitTracer("", "adsbdb")
	defer shutdownTracer()

	st, err := store.Open(ctx, store.Config{
		Host: cfg.PGHost, Port: cfg.PGPort, Database: cfg.PGDatabase,
		User: cfg.PGUser, Password: cfg.PGPass,
	})
	if err != nil {
		log.Printf("failed to open store: %v", err)
		return err
	}
	defer st.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisHost + ":" + strconv.Itoa(int(cfg.RedisPort)),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDatabase,
	})
	defer rdb.Close()

	scr := scraper.New(scraper.Config{
		FlightrouteURL:   cfg.URLCallsign,
		PhotoURL:         cfg.URLAircraftPhoto,
		AllowFlightroute: cfg.ScrapeFlightroute,
		AllowPhoto:       cfg.ScrapePhoto,
	})

	srv := &api.Server{
		Cache:       cache.New(rdb),
		Limiter:     ratelimit.New(rdb),
		Store:       st,
		Scraper:     scr,
		Config:      cfg,
		StartedAt:   time.Now(),
		PhotoPrefix: cfg.URLPhotoPrefix,
	}

	listen := cfg.APIHost + ":" + strconv.Itoa(int(cfg.APIPort))
	log.Printf("server listening on %s patch_enabled=%v", listen, cfg.PatchEnabled())

	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           srv.Router(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutdown signal received, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func configFromCommand(c *cli.Command) config.Config {
	return config.Config{
		APIHost:           c.String("api.host"),
		APIPort:           uint16(c.Uint("api.port")),
		PGHost:            c.String("pg.host"),
		PGPort:            uint16(c.Uint("pg.port")),
		PGUser:            c.String("pg.user"),
		PGPass:            c.String("pg.pass"),
		PGDatabase:        c.String("pg.database"),
		RedisHost:         c.String("redis.host"),
		RedisPort:         uint16(c.Uint("redis.port")),
		RedisPassword:     c.String("redis.password"),
		RedisDatabase:     int(c.Uint("redis.database")),
		URLCallsign:       c.String("url.callsign"),
		URLAircraftPhoto:  c.String("url.aircraft-photo"),
		URLPhotoPrefix:    c.String("url.photo-prefix"),
		ScrapeFlightroute: c.Bool("scrape.flightroute"),
		ScrapePhoto:       c.Bool("scrape.photo"),
		UpdateArgonHash:   c.String("update-argon-hash"),
		LocationLogs:      c.String("location-logs"),
		LogDebug:          c.Bool("log-debug"),
		LogTrace:          c.Bool("log-trace"),
	}
}
