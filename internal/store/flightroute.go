package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adsbdb/adsbdb-go/internal/apperr"
	"github.com/adsbdb/adsbdb-go/internal/input"
)

const flightrouteColumns = `
    fl.flightroute_id, %s AS callsign, %s AS callsign_iata, %s AS callsign_icao,
    ai.airline_name, co_ai.country_name, co_ai.country_iso_name, ai.airline_callsign,
    ai.icao_prefix, ai.iata_prefix,
    orig.icao_code, orig.iata_code, orig.name, orig.municipality, co_o.country_name, co_o.country_iso_name, orig.elevation, orig.latitude, orig.longitude,
    mid.icao_code, mid.iata_code, mid.name, mid.municipality, co_m.country_name, co_m.country_iso_name, mid.elevation, mid.latitude, mid.longitude,
    dest.icao_code, dest.iata_code, dest.name, dest.municipality, co_d.country_name, co_d.country_iso_name, dest.elevation, dest.latitude, dest.longitude
FROM flightroute fl
LEFT JOIN flightroute_callsign flc USING (flightroute_callsign_id)
LEFT JOIN flightroute_callsign_inner fci ON fci.flightroute_callsign_inner_id = flc.callsign_id
LEFT JOIN airline ai ON ai.airline_id = flc.airline_id
LEFT JOIN country co_ai ON co_ai.country_id = ai.country_id
JOIN airport orig ON orig.airport_id = fl.airport_origin_id
JOIN country co_o ON co_o.country_id = orig.country_id
LEFT JOIN airport mid ON mid.airport_id = fl.airport_midpoint_id
LEFT JOIN country co_m ON co_m.country_id = mid.country_id
JOIN airport dest ON dest.airport_id = fl.airport_destination_id
JOIN country co_d ON co_d.country_id = dest.country_id`

// queryFlightrouteOther matches a callsign against the inner-callsign table
// directly, with no associated airline (used for Callsign.Other and as the
// fallback when the ICAO/IATA shapes miss).
var queryFlightrouteOther = fmt.Sprintf(
	"SELECT "+flightrouteColumns+"\nWHERE fci.callsign = $1",
	"$1", "NULL", "NULL",
)

// queryFlightrouteICAO matches airline by icao_prefix and the inner-callsign
// suffix exactly.
var queryFlightrouteICAO = fmt.Sprintf(
	"SELECT "+flightrouteColumns+"\nWHERE ai.icao_prefix = $1 AND fci.callsign = $2",
	"concat($1, $2)", "concat(ai.iata_prefix, fci.callsign)", "concat(ai.icao_prefix, fci.callsign)",
)

// queryFlightrouteIATA matches airline by iata_prefix, which may be shared
// by multiple airlines; per spec.md §9 the ambiguity is preserved with a
// DISTINCT ... LIMIT 1 on airline_id rather than a deterministic tie-break.
var queryFlightrouteIATA = fmt.Sprintf(
	"SELECT "+flightrouteColumns+`
WHERE flc.airline_id = (
    SELECT DISTINCT ai2.airline_id FROM airline ai2 WHERE ai2.iata_prefix = $1 LIMIT 1
) AND fci.callsign = $2`,
	"concat($1, $2)", "concat(ai.iata_prefix, fci.callsign)", "concat(ai.icao_prefix, fci.callsign)",
)

func scanFlightroute(row pgx.Row) (*Flightroute, error) {
	var fr Flightroute
	var origin, mid, dest Airport
	var midICAO, midIATA, midName, midMunicipality, midCountry, midCountryISO *string
	var midElevation *int32
	var midLat, midLon *float64

	if err := row.Scan(
		&fr.FlightrouteID, &fr.Callsign, &fr.CallsignIata, &fr.CallsignIcao,
		&fr.AirlineName, &fr.AirlineCountryName, &fr.AirlineCountryISOName, &fr.AirlineCallsign,
		&fr.AirlineIcao, &fr.AirlineIata,
		&origin.ICAO, &origin.IATA, &origin.Name, &origin.Municipality, &origin.Country, &origin.CountryISO, &origin.ElevationFt, &origin.Latitude, &origin.Longitude,
		&midICAO, &midIATA, &midName, &midMunicipality, &midCountry, &midCountryISO, &midElevation, &midLat, &midLon,
		&dest.ICAO, &dest.IATA, &dest.Name, &dest.Municipality, &dest.Country, &dest.CountryISO, &dest.ElevationFt, &dest.Latitude, &dest.Longitude,
	); err != nil {
		return nil, err
	}

	fr.Origin = origin
	fr.Destination = dest
	if midICAO != nil {
		mid.ICAO, mid.IATA, mid.Name, mid.Municipality = *midICAO, *midIATA, *midName, *midMunicipality
		mid.Country, mid.CountryISO = *midCountry, *midCountryISO
		mid.ElevationFt = *midElevation
		mid.Latitude, mid.Longitude = *midLat, *midLon
		fr.Midpoint = &mid
	}
	return &fr, nil
}

// GetFlightroute resolves a Flightroute for callsign, dispatching on its
// classified variant and falling back to the Other shape (full string
// against the inner-callsign table) when the ICAO/IATA shape misses, all
// inside one transaction, per spec.md §4.5 and §6.3.
func (s *Store) GetFlightroute(ctx context.Context, callsign input.Callsign) (*Flightroute, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer tx.Rollback(ctx)

	var row pgx.Row
	switch callsign.Kind {
	case input.CallsignIcao:
		row = tx.QueryRow(ctx, queryFlightrouteICAO, callsign.Prefix, callsign.Suffix)
	case input.CallsignIata:
		row = tx.QueryRow(ctx, queryFlightrouteIATA, callsign.Prefix, callsign.Suffix)
	default:
		row = tx.QueryRow(ctx, queryFlightrouteOther, callsign.Whole)
	}

	fr, err := scanFlightroute(row)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Store(err)
	}
	if fr == nil && callsign.Kind != input.CallsignOther {
		whole := callsign.Prefix + callsign.Suffix
		fr, err = scanFlightroute(tx.QueryRow(ctx, queryFlightrouteOther, whole))
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Store(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Store(err)
	}
	return fr, nil
}

// InsertScrapedFlightroute persists a scraped flightroute transactionally:
// resolve the airline by ICAO prefix, insert-or-reuse the inner-callsign
// rows for both IATA and ICAO suffixes, link them via a flightroute_callsign
// row, then insert the flightroute itself. Aborts if the airline can't be
// resolved from the ICAO prefix of the scraped callsign.
func (s *Store) InsertScrapedFlightroute(ctx context.Context, icaoPrefix string, scraped ScrapedFlightroute) (*Flightroute, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer tx.Rollback(ctx)

	var airlineID int64
	var iataPrefix *string
	if err := tx.QueryRow(ctx, `SELECT airline_id, iata_prefix FROM airline WHERE icao_prefix = $1`, icaoPrefix).
		Scan(&airlineID, &iataPrefix); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindUnknownAirline, icaoPrefix)
		}
		return nil, apperr.Store(err)
	}

	icaoSuffix := scraped.CallsignIcao[len(icaoPrefix):]
	iataSuffix := scraped.CallsignIata
	if iataPrefix != nil && len(scraped.CallsignIata) >= len(*iataPrefix) {
		iataSuffix = scraped.CallsignIata[len(*iataPrefix):]
	}

	iataInnerID, err := upsertInnerCallsign(ctx, tx, iataSuffix)
	if err != nil {
		return nil, err
	}
	icaoInnerID, err := upsertInnerCallsign(ctx, tx, icaoSuffix)
	if err != nil {
		return nil, err
	}

	var flightrouteCallsignID int64
	if err := tx.QueryRow(ctx, `
INSERT INTO flightroute_callsign(airline_id, iata_prefix_id, icao_prefix_id)
VALUES ($1, $2, $3)
RETURNING flightroute_callsign_id`,
		airlineID, iataInnerID, icaoInnerID,
	).Scan(&flightrouteCallsignID); err != nil {
		return nil, apperr.Store(err)
	}

	var originID, destID int64
	if err := tx.QueryRow(ctx, `SELECT airport_id FROM airport WHERE icao_code = $1`, scraped.Origin).Scan(&originID); err != nil {
		return nil, apperr.New(apperr.KindUnknownAirport, scraped.Origin)
	}
	if err := tx.QueryRow(ctx, `SELECT airport_id FROM airport WHERE icao_code = $1`, scraped.Destination).Scan(&destID); err != nil {
		return nil, apperr.New(apperr.KindUnknownAirport, scraped.Destination)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO flightroute(flightroute_callsign_id, airport_origin_id, airport_destination_id)
VALUES ($1, $2, $3)`,
		flightrouteCallsignID, originID, destID,
	); err != nil {
		return nil, apperr.Store(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Store(err)
	}

	return s.GetFlightroute(ctx, input.Callsign{Kind: input.CallsignIcao, Prefix: icaoPrefix, Suffix: icaoSuffix})
}

func upsertInnerCallsign(ctx context.Context, tx pgx.Tx, callsign string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `SELECT flightroute_callsign_inner_id FROM flightroute_callsign_inner WHERE callsign = $1`, callsign).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.Store(err)
	}
	if err := tx.QueryRow(ctx, `INSERT INTO flightroute_callsign_inner(callsign) VALUES ($1) RETURNING flightroute_callsign_inner_id`, callsign).Scan(&id); err != nil {
		return 0, apperr.Store(err)
	}
	return id, nil
}

// UpdateFlightroute applies a PATCH's new origin/destination airports.
func (s *Store) UpdateFlightroute(ctx context.Context, flightrouteID int64, origin, destination Airport) error {
	_, err := s.pool.Exec(ctx, `
UPDATE flightroute SET airport_origin_id = $1, airport_destination_id = $2
WHERE flightroute_id = $3`,
		origin.AirportID, destination.AirportID, flightrouteID,
	)
	if err != nil {
		return apperr.Store(err)
	}
	return nil
}
