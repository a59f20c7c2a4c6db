package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/adsbdb/adsbdb-go/internal/cache"
	"github.com/adsbdb/adsbdb-go/internal/store"
)

func newTestServer() *Server {
	return &Server{StartedAt: time.Now()}
}

// newCachedTestServer wires a real miniredis-backed cache so lookupAircraft
// and lookupFlightroute can be satisfied by a cache hit alone, without a
// live store.
func newCachedTestServer(t *testing.T) *Server {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &Server{Cache: cache.New(client), StartedAt: time.Now()}
}

func doRequest(t *testing.T, method, target string, handler http.HandlerFunc, urlParams map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	for k, v := range urlParams {
		rctx.URLParams.Add(k, v)
	}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) any {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rr.Body.String())
	}
	return env.Response
}

func TestNNumberToIcao(t *testing.T) {
	s := newTestServer()
	rr := doRequest(t, http.MethodGet, "/v0/n-number/N1235F", s.handleNNumber, map[string]string{"n": "N1235F"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := decodeResponse(t, rr); got != "A061E4" {
		t.Fatalf("expected A061E4, got %v", got)
	}
}

func TestModeSToNNumber(t *testing.T) {
	s := newTestServer()
	rr := doRequest(t, http.MethodGet, "/v0/mode-s/ACD2D3", s.handleModeS, map[string]string{"s": "ACD2D3"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := decodeResponse(t, rr); got != "N925XJ" {
		t.Fatalf("expected N925XJ, got %v", got)
	}
}

func TestModeSUnknownButWellFormedIsEmptyString(t *testing.T) {
	s := newTestServer()
	rr := doRequest(t, http.MethodGet, "/v0/mode-s/CCD2D3", s.handleModeS, map[string]string{"s": "CCD2D3"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := decodeResponse(t, rr); got != "" {
		t.Fatalf("expected empty string, got %v", got)
	}
}

func TestModeSMalformedIsBadRequest(t *testing.T) {
	s := newTestServer()
	rr := doRequest(t, http.MethodGet, "/v0/mode-s/JCD2D3", s.handleModeS, map[string]string{"s": "JCD2D3"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if got := decodeResponse(t, rr); got != "invalid modeS: JCD2D3" {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestOnlineReportsUptimeAndVersion(t *testing.T) {
	s := &Server{StartedAt: time.Now().Add(-5 * time.Second)}
	rr := doRequest(t, http.MethodGet, "/v0/online", s.handleOnline, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	got, ok := decodeResponse(t, rr).(map[string]any)
	if !ok {
		t.Fatalf("expected object response, got %#v", decodeResponse(t, rr))
	}
	if got["api_version"] != APIVersion {
		t.Fatalf("unexpected api_version: %v", got["api_version"])
	}
	if uptime, _ := got["uptime_seconds"].(float64); uptime < 5 {
		t.Fatalf("expected uptime >= 5s, got %v", got["uptime_seconds"])
	}
}

func TestHandleAircraftNestsUnderAircraftKey(t *testing.T) {
	s := newCachedTestServer(t)
	ctx := context.Background()
	key := cache.Key(cache.KeyModeS, "ACD2D3")
	if err := s.Cache.Insert(ctx, key, &store.Aircraft{ModeS: "ACD2D3", Registration: "N925XJ"}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	rr := doRequest(t, http.MethodGet, "/v0/aircraft/ACD2D3", s.handleAircraft, map[string]string{"id": "ACD2D3"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	got, ok := decodeResponse(t, rr).(map[string]any)
	if !ok {
		t.Fatalf("expected object response, got %#v", decodeResponse(t, rr))
	}
	aircraft, ok := got["aircraft"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested \"aircraft\" key, got %#v", got)
	}
	if aircraft["mode_s"] != "ACD2D3" {
		t.Fatalf("unexpected aircraft payload: %#v", aircraft)
	}
	if _, present := got["flightroute"]; present {
		t.Fatalf("expected no \"flightroute\" key without ?callsign=, got %#v", got)
	}
}

func TestHandleAircraftWithCallsignNestsBothKeys(t *testing.T) {
	s := newCachedTestServer(t)
	ctx := context.Background()

	aircraftKey := cache.Key(cache.KeyModeS, "ACD2D3")
	if err := s.Cache.Insert(ctx, aircraftKey, &store.Aircraft{ModeS: "ACD2D3", Registration: "N925XJ"}); err != nil {
		t.Fatalf("seed aircraft cache: %v", err)
	}
	flightrouteKey := cache.Key(cache.KeyCallsign, "BAW123")
	fr := &store.Flightroute{Callsign: "BAW123"}
	if err := s.Cache.Insert(ctx, flightrouteKey, fr); err != nil {
		t.Fatalf("seed flightroute cache: %v", err)
	}

	rr := doRequest(t, http.MethodGet, "/v0/aircraft/ACD2D3?callsign=BAW123", s.handleAircraft, map[string]string{"id": "ACD2D3"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	got, ok := decodeResponse(t, rr).(map[string]any)
	if !ok {
		t.Fatalf("expected object response, got %#v", decodeResponse(t, rr))
	}
	aircraft, ok := got["aircraft"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested \"aircraft\" key, got %#v", got)
	}
	if aircraft["mode_s"] != "ACD2D3" {
		t.Fatalf("unexpected aircraft payload: %#v", aircraft)
	}
	flightroute, ok := got["flightroute"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested \"flightroute\" key, got %#v", got)
	}
	if flightroute["callsign"] != "BAW123" {
		t.Fatalf("unexpected flightroute payload: %#v", flightroute)
	}
}

func TestHandleCallsignNestsUnderFlightrouteKey(t *testing.T) {
	s := newCachedTestServer(t)
	ctx := context.Background()
	key := cache.Key(cache.KeyCallsign, "BAW123")
	if err := s.Cache.Insert(ctx, key, &store.Flightroute{Callsign: "BAW123"}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	rr := doRequest(t, http.MethodGet, "/v0/callsign/BAW123", s.handleCallsign, map[string]string{"cs": "BAW123"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	got, ok := decodeResponse(t, rr).(map[string]any)
	if !ok {
		t.Fatalf("expected object response, got %#v", decodeResponse(t, rr))
	}
	if _, present := got["aircraft"]; present {
		t.Fatalf("expected no \"aircraft\" key on a callsign lookup, got %#v", got)
	}
	flightroute, ok := got["flightroute"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested \"flightroute\" key, got %#v", got)
	}
	if flightroute["callsign"] != "BAW123" {
		t.Fatalf("unexpected flightroute payload: %#v", flightroute)
	}
}

func TestNotFoundReportsUnknownEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v0/bogus", nil)
	rr := httptest.NewRecorder()
	notFound(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if got := decodeResponse(t, rr); got != "unknown endpoint: /v0/bogus" {
		t.Fatalf("unexpected body: %v", got)
	}
}
