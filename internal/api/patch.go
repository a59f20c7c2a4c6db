package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adsbdb/adsbdb-go/internal/apperr"
	"github.com/adsbdb/adsbdb-go/internal/cache"
	"github.com/adsbdb/adsbdb-go/internal/input"
	"github.com/adsbdb/adsbdb-go/internal/security"
	"github.com/adsbdb/adsbdb-go/internal/store"
)

// patchAircraftBody mirrors the aircraft response shape; url_photo and
// url_photo_thumbnail are accepted (so a client round-tripping the read
// response doesn't have to strip them) but are immutable, per §6.2.
type patchAircraftBody struct {
	ModeS             string  `json:"mode_s"`
	Registration      string  `json:"registration"`
	AircraftType      string  `json:"type"`
	IcaoType          string  `json:"icao_type"`
	Manufacturer      string  `json:"manufacturer"`
	Owner             string  `json:"owner"`
	OwnerFlagCode     string  `json:"owner_flag_code"`
	OwnerCountry      string  `json:"owner_country"`
	OwnerCountryISO   string  `json:"owner_country_iso"`
	URLPhoto          *string `json:"url_photo"`
	URLPhotoThumbnail *string `json:"url_photo_thumbnail"`
}

// aircraftBodyWithinLimits enforces the §6.2 per-field character caps.
func aircraftBodyWithinLimits(b patchAircraftBody) bool {
	return len(b.AircraftType) <= 65 &&
		len(b.IcaoType) <= 6 &&
		len(b.Registration) <= 14 &&
		len(b.Manufacturer) <= 80 &&
		len(b.Owner) <= 121 &&
		len(b.OwnerFlagCode) <= 5
}

// authorize returns nil if PATCH is enabled and r carries an Authorization
// header matching the configured hash; otherwise a KindPatchDisabled or
// KindUnauthorized error.
func (s *Server) authorize(r *http.Request) error {
	if !s.Config.PatchEnabled() {
		return apperr.New(apperr.KindPatchDisabled, "")
	}
	password := r.Header.Get("Authorization")
	if password == "" || !security.VerifyPassword(password, s.Config.UpdateArgonHash) {
		return apperr.New(apperr.KindUnauthorized, "")
	}
	return nil
}

func decodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.FromJSONDecodeError(err)
	}
	return nil
}

// handlePatchAircraft implements PATCH /aircraft/{mode_s}: field-length
// validation, the immutable-field-changed check, and cache invalidation of
// the old mode_s key and both the old and new registration keys.
func (s *Server) handlePatchAircraft(w http.ResponseWriter, r *http.Request) {
	if err := s.authorize(r); err != nil {
		writeErr(w, err)
		return
	}
	modeS, err := input.ValidateModeS(chi.URLParam(r, "mode_s"))
	if err != nil {
		writeErr(w, err)
		return
	}

	security.LimitBody(w, r)
	var body patchAircraftBody
	if err := decodeStrict(r, &body); err != nil {
		writeErr(w, err)
		return
	}

	search, _ := input.ParseAircraftSearch(modeS.String())
	existing, err := s.Store.GetAircraft(r.Context(), search, s.PhotoPrefix)
	if err != nil {
		writeErr(w, err)
		return
	}
	if existing == nil {
		writeErr(w, apperr.New(apperr.KindUnknownAircraft, modeS.String()))
		return
	}

	if body.ModeS != "" && body.ModeS != existing.ModeS {
		writeErr(w, apperr.Body("mode_s is immutable"))
		return
	}
	if body.URLPhoto != nil && !equalPtr(body.URLPhoto, existing.URLPhoto) {
		writeErr(w, apperr.Body("url_photo is immutable"))
		return
	}
	if body.URLPhotoThumbnail != nil && !equalPtr(body.URLPhotoThumbnail, existing.URLPhotoThumbnail) {
		writeErr(w, apperr.Body("url_photo_thumbnail is immutable"))
		return
	}
	if !aircraftBodyWithinLimits(body) {
		writeErr(w, apperr.Body("field exceeds maximum length"))
		return
	}
	if body.AircraftType == existing.AircraftType &&
		body.IcaoType == existing.IcaoType &&
		body.Manufacturer == existing.Manufacturer &&
		body.Registration == existing.Registration &&
		body.Owner == existing.RegisteredOwner &&
		body.OwnerFlagCode == existing.RegisteredOwnerFlagCode {
		writeErr(w, apperr.Body("no field differs"))
		return
	}

	if err := s.Store.UpdateAircraft(r.Context(), existing.AircraftID, store.Aircraft{
		AircraftType:            body.AircraftType,
		IcaoType:                body.IcaoType,
		Manufacturer:            body.Manufacturer,
		Registration:            body.Registration,
		RegisteredOwner:         body.Owner,
		RegisteredOwnerFlagCode: body.OwnerFlagCode,
	}); err != nil {
		writeErr(w, err)
		return
	}

	_ = s.Cache.Delete(r.Context(),
		cache.Key(cache.KeyModeS, existing.ModeS),
		cache.Key(cache.KeyRegistration, existing.Registration),
		cache.Key(cache.KeyRegistration, body.Registration),
	)

	writeNoBody(w)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type patchCallsignBody struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// handlePatchCallsign implements PATCH /callsign/{cs}: both origin and
// destination must resolve to known airports, at least one must actually
// change, and both IATA and ICAO cache variants are invalidated per
// spec.md §4.3 (not just whichever was used to key the request).
func (s *Server) handlePatchCallsign(w http.ResponseWriter, r *http.Request) {
	if err := s.authorize(r); err != nil {
		writeErr(w, err)
		return
	}
	callsign, err := input.ValidateCallsign(chi.URLParam(r, "cs"))
	if err != nil {
		writeErr(w, err)
		return
	}

	security.LimitBody(w, r)
	var body patchCallsignBody
	if err := decodeStrict(r, &body); err != nil {
		writeErr(w, err)
		return
	}

	existing, err := s.Store.GetFlightroute(r.Context(), callsign)
	if err != nil {
		writeErr(w, err)
		return
	}
	if existing == nil {
		writeErr(w, apperr.New(apperr.KindUnknownCallsign, callsign.String()))
		return
	}

	origin, err := s.Store.GetAirport(r.Context(), body.Origin)
	if err != nil {
		writeErr(w, err)
		return
	}
	if origin == nil {
		writeErr(w, apperr.New(apperr.KindUnknownAirport, body.Origin))
		return
	}
	destination, err := s.Store.GetAirport(r.Context(), body.Destination)
	if err != nil {
		writeErr(w, err)
		return
	}
	if destination == nil {
		writeErr(w, apperr.New(apperr.KindUnknownAirport, body.Destination))
		return
	}

	if existing.Origin.ICAO == origin.ICAO && existing.Destination.ICAO == destination.ICAO {
		writeErr(w, apperr.Body("no field differs"))
		return
	}

	if err := s.Store.UpdateFlightroute(r.Context(), existing.FlightrouteID, *origin, *destination); err != nil {
		writeErr(w, err)
		return
	}

	keys := []string{cache.Key(cache.KeyCallsign, callsign.String())}
	if existing.CallsignIata != nil {
		keys = append(keys, cache.Key(cache.KeyCallsign, *existing.CallsignIata))
	}
	if existing.CallsignIcao != nil {
		keys = append(keys, cache.Key(cache.KeyCallsign, *existing.CallsignIcao))
	}
	_ = s.Cache.Delete(r.Context(), keys...)

	writeNoBody(w)
}
