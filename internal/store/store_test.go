package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/adsbdb/adsbdb-go/internal/input"
)

func TestGetAircraftComposesPhotoURLs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	rows := mock.NewRows([]string{
		"aircraft_id", "mode_s", "registration",
		"registered_owner", "operator_flag_code",
		"country_name", "country_iso_name",
		"manufacturer", "type", "icao_type",
		"url_photo",
	}).AddRow(
		int64(1), "A061E4", "N1235F",
		"Example Air", "EXA",
		"United States", "US",
		"Cessna", "172", "C172",
		"a-photo.jpg",
	)
	mock.ExpectQuery("SELECT").WithArgs("A061E4").WillReturnRows(rows)

	s := newStoreWithPool(mock)
	search, err := input.ParseAircraftSearch("A061E4")
	if err != nil {
		t.Fatalf("parse search: %v", err)
	}

	a, err := s.GetAircraft(context.Background(), search, "https://example.com/")
	if err != nil {
		t.Fatalf("get aircraft: %v", err)
	}
	if a == nil {
		t.Fatal("expected aircraft, got nil")
	}
	if got := *a.URLPhoto; got != "https://example.com/a-photo.jpg" {
		t.Fatalf("unexpected photo url: %s", got)
	}
	if got := *a.URLPhotoThumbnail; got != "https://example.com/thumbnails/a-photo.jpg" {
		t.Fatalf("unexpected thumbnail url: %s", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetAircraftNoRowsReturnsNilNotError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT").WithArgs("N999ZZ").WillReturnRows(mock.NewRows([]string{
		"aircraft_id", "mode_s", "registration",
		"registered_owner", "operator_flag_code",
		"country_name", "country_iso_name",
		"manufacturer", "type", "icao_type",
		"url_photo",
	}))

	s := newStoreWithPool(mock)
	search, err := input.ParseAircraftSearch("N999ZZ")
	if err != nil {
		t.Fatalf("parse search: %v", err)
	}
	a, err := s.GetAircraft(context.Background(), search, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != nil {
		t.Fatalf("expected nil for no rows, got %+v", a)
	}
}

// TestGetAirlineByCodeSharedIATAPrefix reproduces the fixture data from the
// original implementation's test suite: Ada Air and Eznis Airways both use
// the IATA prefix "ZY", so an IATA lookup may return more than one row
// (unlike ICAO prefixes, which are unique). See spec.md §9.
func TestGetAirlineByCodeSharedIATAPrefix(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	adaIata, eznisIata := "ZY", "ZY"
	rows := mock.NewRows([]string{
		"airline_id", "airline_name", "country_name", "country_iso_name",
		"iata_prefix", "icao_prefix", "airline_callsign",
	}).AddRow(int64(1), "Ada Air", "Albania", "AL", &adaIata, "ADE", (*string)(nil)).
		AddRow(int64(2), "Eznis Airways", "Mongolia", "MN", &eznisIata, "EZA", (*string)(nil))
	mock.ExpectQuery("SELECT").WithArgs("ZY").WillReturnRows(rows)

	s := newStoreWithPool(mock)
	code, err := input.ValidateAirlineCode("ZY")
	if err != nil {
		t.Fatalf("validate code: %v", err)
	}
	airlines, err := s.GetAirlineByCode(context.Background(), code)
	if err != nil {
		t.Fatalf("get airline: %v", err)
	}
	if len(airlines) != 2 {
		t.Fatalf("expected both airlines sharing the IATA prefix, got %d", len(airlines))
	}
}

func TestGetFlightrouteOtherFallback(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("WHERE ai.icao_prefix").WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("WHERE fci.callsign = \\$1").WillReturnRows(flightrouteRow())
	mock.ExpectCommit()

	s := newStoreWithPool(mock)
	callsign, err := input.ValidateCallsign("JBU1496")
	if err != nil {
		t.Fatalf("validate callsign: %v", err)
	}

	fr, err := s.GetFlightroute(context.Background(), callsign)
	if err != nil {
		t.Fatalf("get flightroute: %v", err)
	}
	if fr == nil {
		t.Fatal("expected a flightroute from the fallback query")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func flightrouteRow() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"flightroute_id", "callsign", "callsign_iata", "callsign_icao",
		"airline_name", "country_name", "country_iso_name", "airline_callsign",
		"icao_prefix", "iata_prefix",
		"icao_code", "iata_code", "name", "municipality", "country_name", "country_iso_name", "elevation", "latitude", "longitude",
		"icao_code", "iata_code", "name", "municipality", "country_name", "country_iso_name", "elevation", "latitude", "longitude",
		"icao_code", "iata_code", "name", "municipality", "country_name", "country_iso_name", "elevation", "latitude", "longitude",
	}).AddRow(
		int64(1), "JBU1496", (*string)(nil), (*string)(nil),
		(*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil),
		(*string)(nil), (*string)(nil),
		"KJFK", "JFK", "John F Kennedy Intl", "New York", "United States", "US", int32(13), 40.6398, -73.7789,
		(*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), (*int32)(nil), (*float64)(nil), (*float64)(nil),
		"KLAX", "LAX", "Los Angeles Intl", "Los Angeles", "United States", "US", int32(125), 33.9425, -118.408,
	)
}
