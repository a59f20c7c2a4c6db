package api

import (
	"net/http/httptest"
	"testing"

	"github.com/adsbdb/adsbdb-go/internal/apperr"
	"github.com/adsbdb/adsbdb-go/internal/config"
	"github.com/adsbdb/adsbdb-go/internal/security"
)

func TestAircraftBodyWithinLimits(t *testing.T) {
	ok := patchAircraftBody{
		AircraftType: "172", IcaoType: "C172", Registration: "N1235F",
		Manufacturer: "Cessna", Owner: "Example Air", OwnerFlagCode: "EXA",
	}
	if !aircraftBodyWithinLimits(ok) {
		t.Fatal("expected body within limits to pass")
	}

	tooLong := ok
	tooLong.Manufacturer = string(make([]byte, 81))
	if aircraftBodyWithinLimits(tooLong) {
		t.Fatal("expected over-length manufacturer to fail")
	}
}

func TestAuthorizeRejectsWhenPatchDisabled(t *testing.T) {
	s := &Server{Config: config.Config{}}
	req := httptest.NewRequest("PATCH", "/v0/aircraft/A061E4", nil)
	err := s.authorize(req)
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindPatchDisabled {
		t.Fatalf("expected KindPatchDisabled, got %v", err)
	}
}

func TestAuthorizeRejectsBadPassword(t *testing.T) {
	hash := security.HashPassword("correct horse", []byte("0123456789abcdef"), security.DebugParams)
	s := &Server{Config: config.Config{UpdateArgonHash: hash}}

	req := httptest.NewRequest("PATCH", "/v0/aircraft/A061E4", nil)
	req.Header.Set("Authorization", "wrong password")
	if err := s.authorize(req); err == nil {
		t.Fatal("expected authorization failure for wrong password")
	}

	req2 := httptest.NewRequest("PATCH", "/v0/aircraft/A061E4", nil)
	req2.Header.Set("Authorization", "correct horse")
	if err := s.authorize(req2); err != nil {
		t.Fatalf("expected authorization success, got %v", err)
	}
}
