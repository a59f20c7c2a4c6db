package api

import (
	"context"
	"encoding/json"

	"github.com/adsbdb/adsbdb-go/internal/apperr"
	"github.com/adsbdb/adsbdb-go/internal/cache"
	"github.com/adsbdb/adsbdb-go/internal/input"
	"github.com/adsbdb/adsbdb-go/internal/monitoring"
	"github.com/adsbdb/adsbdb-go/internal/store"
)

// lookupAircraft implements the §4.7 aircraft algorithm: cache, then store,
// then (if the photo is missing) a coalesced photo scrape and re-read,
// caching the final result including negative hits.
func (s *Server) lookupAircraft(ctx context.Context, search input.AircraftSearch) (*store.Aircraft, error) {
	ns := cache.KeyModeS
	if search.Kind == input.SearchRegistration {
		ns = cache.KeyRegistration
	}
	key := cache.Key(ns, search.String())

	if res, err := s.Cache.Get(ctx, key); err == nil && res.Hit {
		if res.Negative {
			monitoring.CacheHits.WithLabelValues(ns, "negative").Inc()
			return nil, apperr.New(apperr.KindUnknownAircraft, search.String())
		}
		var a store.Aircraft
		if jerr := json.Unmarshal(res.Value, &a); jerr == nil {
			monitoring.CacheHits.WithLabelValues(ns, "positive").Inc()
			return &a, nil
		}
	}

	a, err := s.Store.GetAircraft(ctx, search, s.PhotoPrefix)
	if err != nil {
		return nil, err
	}
	if a == nil {
		_ = s.Cache.Insert(ctx, key, nil)
		return nil, apperr.New(apperr.KindUnknownAircraft, search.String())
	}

	if a.URLPhoto == nil && s.Scraper != nil {
		s.Scraper.ScrapePhoto(ctx, s.Store, a.AircraftID, a.ModeS)
		if reread, rerr := s.Store.GetAircraft(ctx, search, s.PhotoPrefix); rerr == nil && reread != nil {
			a = reread
		}
	}

	_ = s.Cache.Insert(ctx, key, a)
	return a, nil
}

// lookupFlightroute implements the §4.7 flightroute algorithm: cache, then
// store, then a coalesced scrape on miss, caching the final result.
func (s *Server) lookupFlightroute(ctx context.Context, callsign input.Callsign) (*store.Flightroute, error) {
	key := cache.Key(cache.KeyCallsign, callsign.String())

	if res, err := s.Cache.Get(ctx, key); err == nil && res.Hit {
		if res.Negative {
			monitoring.CacheHits.WithLabelValues(cache.KeyCallsign, "negative").Inc()
			return nil, apperr.New(apperr.KindUnknownCallsign, callsign.String())
		}
		var fr store.Flightroute
		if jerr := json.Unmarshal(res.Value, &fr); jerr == nil {
			monitoring.CacheHits.WithLabelValues(cache.KeyCallsign, "positive").Inc()
			return &fr, nil
		}
	}

	fr, err := s.Store.GetFlightroute(ctx, callsign)
	if err != nil {
		return nil, err
	}
	if fr == nil && s.Scraper != nil {
		fr = s.Scraper.ScrapeFlightroute(ctx, s.Store, callsign)
	}
	if fr == nil {
		_ = s.Cache.Insert(ctx, key, nil)
		return nil, apperr.New(apperr.KindUnknownCallsign, callsign.String())
	}

	_ = s.Cache.Insert(ctx, key, fr)
	return fr, nil
}
