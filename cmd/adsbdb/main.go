package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/adsbdb/adsbdb-go/app"
)

// loadEnvFile sets an OS environment variable for every KEY=VALUE line in
// path, without overriding a variable already set in the process
// environment. Mirrors the original's two-path config discovery (§6.5,
// supplemented feature #8): /app_env/.api.env is tried first, then .env.
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if _, present := os.LookupEnv(key); present {
			continue
		}
		_ = os.Setenv(key, strings.Trim(strings.TrimSpace(value), `"'`))
	}
}

func main() {
	for _, path := range []string{"/app_env/.api.env", ".env"} {
		if _, err := os.Stat(path); err == nil {
			loadEnvFile(path)
			break
		}
	}

	cmd := &cli.Command{
		Name:  "adsbdb",
		Usage: "Aviation lookup HTTP API: mode-S, registration, airline, callsign, N-Number",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Category: "api",
				Name:     "api.host",
				Value:    "0.0.0.0",
				Sources:  cli.EnvVars("API_HOST"),
				Usage:    "`ADDRESS` to listen on",
			},
			&cli.UintFlag{
				Category: "api",
				Name:     "api.port",
				Value:    9000,
				Sources:  cli.EnvVars("API_PORT"),
				Usage:    "`PORT` to listen on",
			},
			&cli.StringFlag{
				Category: "postgres",
				Name:     "pg.host",
				Sources:  cli.EnvVars("PG_HOST"),
			},
			&cli.UintFlag{
				Category: "postgres",
				Name:     "pg.port",
				Value:    5432,
				Sources:  cli.EnvVars("PG_PORT"),
			},
			&cli.StringFlag{
				Category: "postgres",
				Name:     "pg.user",
				Sources:  cli.EnvVars("PG_USER"),
			},
			&cli.StringFlag{
				Category: "postgres",
				Name:     "pg.pass",
				Sources:  cli.EnvVars("PG_PASS"),
			},
			&cli.StringFlag{
				Category: "postgres",
				Name:     "pg.database",
				Sources:  cli.EnvVars("PG_DATABASE"),
			},
			&cli.StringFlag{
				Category: "redis",
				Name:     "redis.host",
				Sources:  cli.EnvVars("REDIS_HOST"),
			},
			&cli.UintFlag{
				Category: "redis",
				Name:     "redis.port",
				Value:    6379,
				Sources:  cli.EnvVars("REDIS_PORT"),
			},
			&cli.StringFlag{
				Category: "redis",
				Name:     "redis.password",
				Sources:  cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.UintFlag{
				Category: "redis",
				Name:     "redis.database",
				Sources:  cli.EnvVars("REDIS_DATABASE"),
			},
			&cli.StringFlag{
				Category: "scrape",
				Name:     "url.callsign",
				Sources:  cli.EnvVars("URL_CALLSIGN"),
				Usage:    "base URL of the flightroute scrape target",
			},
			&cli.StringFlag{
				Category: "scrape",
				Name:     "url.aircraft-photo",
				Sources:  cli.EnvVars("URL_AIRCRAFT_PHOTO"),
				Usage:    "base URL of the photo scrape target",
			},
			&cli.StringFlag{
				Category: "scrape",
				Name:     "url.photo-prefix",
				Sources:  cli.EnvVars("URL_PHOTO_PREFIX"),
				Usage:    "prefix composed onto stored photo paths",
			},
			&cli.BoolFlag{
				Category: "scrape",
				Name:     "scrape.flightroute",
				Value:    true,
				Sources:  cli.EnvVars("SCRAPE_FLIGHTROUTE"),
			},
			&cli.BoolFlag{
				Category: "scrape",
				Name:     "scrape.photo",
				Value:    true,
				Sources:  cli.EnvVars("SCRAPE_PHOTO"),
			},
			&cli.StringFlag{
				Category: "security",
				Name:     "update-argon-hash",
				Sources:  cli.EnvVars("UPDATE_ARGON_HASH"),
				Usage:    "Argon2id hash of the PATCH password; empty disables PATCH routes",
			},
			&cli.StringFlag{
				Category: "logging",
				Name:     "location-logs",
				Sources:  cli.EnvVars("LOCATION_LOGS"),
				Usage:    "file path to append logs to; empty logs to stderr",
			},
			&cli.BoolFlag{
				Category: "logging",
				Name:     "log-debug",
				Sources:  cli.EnvVars("LOG_DEBUG"),
			},
			&cli.BoolFlag{
				Category: "logging",
				Name:     "log-trace",
				Sources:  cli.EnvVars("LOG_TRACE"),
			},
		},
		Action: app.Run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
