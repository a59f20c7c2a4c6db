package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adsbdb/adsbdb-go/internal/apperr"
	"github.com/adsbdb/adsbdb-go/internal/input"
	"github.com/adsbdb/adsbdb-go/internal/nnumber"
	"github.com/adsbdb/adsbdb-go/internal/store"
)

// handleAircraft serves GET /aircraft/{id}[?callsign=X]. A present callsign
// query param fans out the aircraft and flightroute lookups concurrently and
// merges them into one payload; the aircraft lookup is fatal to the response,
// the flightroute lookup is best-effort.
func (s *Server) handleAircraft(w http.ResponseWriter, r *http.Request) {
	search, err := input.ParseAircraftSearch(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}

	cs := r.URL.Query().Get("callsign")
	if cs == "" {
		a, err := s.lookupAircraft(r.Context(), search)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOK(w, aircraftAndRoute{Aircraft: a})
		return
	}

	callsign, err := input.ValidateCallsign(cs)
	if err != nil {
		writeErr(w, err)
		return
	}

	type aircraftResult struct {
		aircraft *store.Aircraft
		err      error
	}
	type flightrouteResult struct {
		flightroute *store.Flightroute
	}
	aircraftCh := make(chan aircraftResult, 1)
	flightrouteCh := make(chan flightrouteResult, 1)

	go func() {
		a, err := s.lookupAircraft(r.Context(), search)
		aircraftCh <- aircraftResult{aircraft: a, err: err}
	}()
	go func() {
		fr, err := s.lookupFlightroute(r.Context(), callsign)
		if err != nil {
			flightrouteCh <- flightrouteResult{}
			return
		}
		flightrouteCh <- flightrouteResult{flightroute: fr}
	}()

	ares := <-aircraftCh
	fres := <-flightrouteCh
	if ares.err != nil {
		writeErr(w, ares.err)
		return
	}

	writeOK(w, aircraftAndRoute{Aircraft: ares.aircraft, Flightroute: fres.flightroute})
}

func (s *Server) handleAirline(w http.ResponseWriter, r *http.Request) {
	code, err := input.ValidateAirlineCode(chi.URLParam(r, "code"))
	if err != nil {
		writeErr(w, err)
		return
	}
	airlines, err := s.Store.GetAirlineByCode(r.Context(), code)
	if err != nil {
		writeErr(w, err)
		return
	}
	if len(airlines) == 0 {
		writeErr(w, apperr.New(apperr.KindUnknownAirline, code.String()))
		return
	}
	writeOK(w, airlines)
}

func (s *Server) handleCallsign(w http.ResponseWriter, r *http.Request) {
	callsign, err := input.ValidateCallsign(chi.URLParam(r, "cs"))
	if err != nil {
		writeErr(w, err)
		return
	}
	fr, err := s.lookupFlightroute(r.Context(), callsign)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeOK(w, aircraftAndRoute{Flightroute: fr})
}

func (s *Server) handleNNumber(w http.ResponseWriter, r *http.Request) {
	n, err := input.ValidateNNumber(chi.URLParam(r, "n"))
	if err != nil {
		writeErr(w, err)
		return
	}
	icao, err := nnumber.NToIcao(n.String())
	if err != nil {
		writeOK(w, "")
		return
	}
	writeOK(w, icao)
}

func (s *Server) handleModeS(w http.ResponseWriter, r *http.Request) {
	m, err := input.ValidateModeS(chi.URLParam(r, "s"))
	if err != nil {
		writeErr(w, err)
		return
	}
	n, err := nnumber.IcaoToN(m.String())
	if err != nil {
		writeOK(w, "")
		return
	}
	writeOK(w, n)
}

func (s *Server) handleOnline(w http.ResponseWriter, r *http.Request) {
	writeOK(w, struct {
		UptimeSeconds int64  `json:"uptime_seconds"`
		APIVersion    string `json:"api_version"`
	}{
		UptimeSeconds: s.uptimeSeconds(),
		APIVersion:    APIVersion,
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeErr(w, apperr.New(apperr.KindNotFound, r.URL.Path))
}
