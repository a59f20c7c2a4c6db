// Package api implements the request pipeline (C7): routing, the aircraft
// and flightroute lookup algorithms, the combined-endpoint join, and the
// authenticated PATCH mutation routes.
package api

import (
	"time"

	"github.com/adsbdb/adsbdb-go/internal/cache"
	"github.com/adsbdb/adsbdb-go/internal/config"
	"github.com/adsbdb/adsbdb-go/internal/ratelimit"
	"github.com/adsbdb/adsbdb-go/internal/scraper"
	"github.com/adsbdb/adsbdb-go/internal/store"
)

// APIVersion is reported by GET /online and used to derive the route prefix.
const APIVersion = "v0"

// Server holds every dependency the C7 handlers need.
type Server struct {
	Cache       *cache.Cache
	Limiter     *ratelimit.Limiter
	Store       *store.Store
	Scraper     *scraper.Scraper
	Config      config.Config
	StartedAt   time.Time
	PhotoPrefix string
}

func (s *Server) uptimeSeconds() int64 {
	return int64(time.Since(s.StartedAt).Seconds())
}

// aircraftAndRoute is the response shape for every endpoint that can return
// an aircraft, a flightroute, or both: each side is nested under its own
// key and omitted entirely when absent, mirroring the original's
// AircraftAndRoute{aircraft: Option<Aircraft>, flightroute: Option<Flightroute>}.
type aircraftAndRoute struct {
	Aircraft    *store.Aircraft    `json:"aircraft,omitempty"`
	Flightroute *store.Flightroute `json:"flightroute,omitempty"`
}
