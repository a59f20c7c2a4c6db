package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adsbdb/adsbdb-go/internal/apperr"
	"github.com/adsbdb/adsbdb-go/internal/input"
)

// Config holds PostgreSQL connection settings, named after the §6.5 PG_*
// environment variables.
type Config struct {
	Host     string
	Port     uint16
	Database string
	User     string
	Password string
}

// dbpool is the slice of *pgxpool.Pool this package depends on, narrowed so
// tests can substitute pgxmock's pool double.
type dbpool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Store wraps a pgx connection pool and exposes the C5 read/write
// operations.
type Store struct {
	pool dbpool
}

// Open opens a bounded connection pool to PostgreSQL and verifies
// connectivity, mirroring the pool tuning of the wider example pack
// (max conns, min conns, bounded lifetimes).
func Open(ctx context.Context, cfg Config) (*Store, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, url.QueryEscape(cfg.Password), cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("store: parse config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("store: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

// newStoreWithPool wraps an existing pool, used by tests to substitute a
// pgxmock double for a real *pgxpool.Pool.
func newStoreWithPool(pool dbpool) *Store { return &Store{pool: pool} }

const queryAircraftByModeS = `
SELECT
    aa.aircraft_id, ams.mode_s, ar.registration,
    aro.registered_owner, aof.operator_flag_code,
    co.country_name, co.country_iso_name,
    am.manufacturer, at.type, ait.icao_type,
    ap.url_photo
FROM aircraft aa
JOIN aircraft_mode_s ams ON aa.aircraft_mode_s_id = ams.aircraft_mode_s_id
JOIN aircraft_registration ar ON aa.aircraft_registration_id = ar.aircraft_registration_id
JOIN country co ON aa.country_id = co.country_id
JOIN aircraft_type at ON aa.aircraft_type_id = at.aircraft_type_id
JOIN aircraft_registered_owner aro ON aa.aircraft_registered_owner_id = aro.aircraft_registered_owner_id
JOIN aircraft_icao_type ait ON aa.aircraft_icao_type_id = ait.aircraft_icao_type_id
JOIN aircraft_manufacturer am ON aa.aircraft_manufacturer_id = am.aircraft_manufacturer_id
JOIN aircraft_operator_flag_code aof ON aa.aircraft_operator_flag_code_id = aof.aircraft_operator_flag_code_id
LEFT JOIN aircraft_photo ap USING (aircraft_photo_id)
WHERE ams.mode_s = $1`

const queryAircraftByRegistration = `
SELECT
    aa.aircraft_id, ams.mode_s, ar.registration,
    aro.registered_owner, aof.operator_flag_code,
    co.country_name, co.country_iso_name,
    am.manufacturer, at.type, ait.icao_type,
    ap.url_photo
FROM aircraft aa
JOIN aircraft_mode_s ams ON aa.aircraft_mode_s_id = ams.aircraft_mode_s_id
JOIN aircraft_registration ar ON aa.aircraft_registration_id = ar.aircraft_registration_id
JOIN country co ON aa.country_id = co.country_id
JOIN aircraft_type at ON aa.aircraft_type_id = at.aircraft_type_id
JOIN aircraft_registered_owner aro ON aa.aircraft_registered_owner_id = aro.aircraft_registered_owner_id
JOIN aircraft_icao_type ait ON aa.aircraft_icao_type_id = ait.aircraft_icao_type_id
JOIN aircraft_manufacturer am ON aa.aircraft_manufacturer_id = am.aircraft_manufacturer_id
JOIN aircraft_operator_flag_code aof ON aa.aircraft_operator_flag_code_id = aof.aircraft_operator_flag_code_id
LEFT JOIN aircraft_photo ap USING (aircraft_photo_id)
WHERE ar.registration = $1`

// GetAircraft resolves an Aircraft by mode-S or registration, composing the
// photo URLs with photoPrefix per spec.md §4.5.
func (s *Store) GetAircraft(ctx context.Context, search input.AircraftSearch, photoPrefix string) (*Aircraft, error) {
	var query string
	if search.Kind == input.SearchModeS {
		query = queryAircraftByModeS
	} else {
		query = queryAircraftByRegistration
	}

	row := s.pool.QueryRow(ctx, query, search.String())
	a, err := scanAircraft(row, photoPrefix)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store(err)
	}
	return a, nil
}

func scanAircraft(row pgx.Row, photoPrefix string) (*Aircraft, error) {
	var a Aircraft
	var photo *string
	if err := row.Scan(
		&a.AircraftID, &a.ModeS, &a.Registration,
		&a.RegisteredOwner, &a.RegisteredOwnerFlagCode,
		&a.RegisteredOwnerCountry, &a.RegisteredOwnerCountryISO,
		&a.Manufacturer, &a.AircraftType, &a.IcaoType,
		&photo,
	); err != nil {
		return nil, err
	}
	if photo != nil {
		full := photoPrefix + *photo
		thumb := photoPrefix + "thumbnails/" + *photo
		a.URLPhoto = &full
		a.URLPhotoThumbnail = &thumb
	}
	return &a, nil
}

// InsertPhoto records a scraped photo path for an aircraft: a two-statement
// transaction inserting the photo row, then pointing the aircraft row at it.
func (s *Store) InsertPhoto(ctx context.Context, aircraftID int64, photo PhotoData) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperr.Store(err)
	}
	defer tx.Rollback(ctx)

	var photoID int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO aircraft_photo(url_photo) VALUES ($1) RETURNING aircraft_photo_id`,
		photo.Image,
	).Scan(&photoID); err != nil {
		return apperr.Store(err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE aircraft SET aircraft_photo_id = $1 WHERE aircraft_id = $2`,
		photoID, aircraftID,
	); err != nil {
		return apperr.Store(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Store(err)
	}
	return nil
}

// UpdateAircraft applies a PATCH's mutable fields (type, icao_type,
// manufacturer, registration, owner, owner flag code); mode_s and the photo
// URLs are immutable and are never part of fields.
func (s *Store) UpdateAircraft(ctx context.Context, aircraftID int64, fields Aircraft) error {
	_, err := s.pool.Exec(ctx, `
UPDATE aircraft aa SET
    aircraft_type_id = (SELECT aircraft_type_id FROM aircraft_type WHERE type = $1),
    aircraft_icao_type_id = (SELECT aircraft_icao_type_id FROM aircraft_icao_type WHERE icao_type = $2),
    aircraft_manufacturer_id = (SELECT aircraft_manufacturer_id FROM aircraft_manufacturer WHERE manufacturer = $3),
    aircraft_registration_id = (SELECT aircraft_registration_id FROM aircraft_registration WHERE registration = $4),
    aircraft_registered_owner_id = (SELECT aircraft_registered_owner_id FROM aircraft_registered_owner WHERE registered_owner = $5),
    aircraft_operator_flag_code_id = (SELECT aircraft_operator_flag_code_id FROM aircraft_operator_flag_code WHERE operator_flag_code = $6)
WHERE aa.aircraft_id = $7`,
		fields.AircraftType, fields.IcaoType, fields.Manufacturer, fields.Registration,
		fields.RegisteredOwner, fields.RegisteredOwnerFlagCode, aircraftID,
	)
	if err != nil {
		return apperr.Store(err)
	}
	return nil
}

const queryAirlineByICAOCallsign = `
SELECT ai.airline_id, ai.airline_name, co.country_name, co.country_iso_name,
       ai.iata_prefix, ai.icao_prefix, ai.airline_callsign
FROM airline ai
LEFT JOIN country co USING (country_id)
WHERE ai.icao_prefix = $1`

// GetAirlineByICAOPrefix resolves the single airline matching an ICAO
// callsign prefix (icao_prefix is unique, see §3).
func (s *Store) GetAirlineByICAOPrefix(ctx context.Context, prefix string) (*Airline, error) {
	row := s.pool.QueryRow(ctx, queryAirlineByICAOCallsign, prefix)
	a, err := scanAirline(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store(err)
	}
	return a, nil
}

func scanAirline(row pgx.Row) (*Airline, error) {
	var a Airline
	if err := row.Scan(&a.AirlineID, &a.Name, &a.CountryName, &a.CountryISOName,
		&a.IataPrefix, &a.IcaoPrefix, &a.Callsign); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAirlineByCode resolves every airline sharing an IATA or ICAO short
// code. icao_prefix is unique so the ICAO variant returns at most one row;
// iata_prefix may be shared (see spec.md §3 and §9's ambiguity note), so the
// IATA variant is ordered by name and may return several.
func (s *Store) GetAirlineByCode(ctx context.Context, code input.AirlineCode) ([]Airline, error) {
	column := "icao_prefix"
	if code.Kind == input.AirlineIata {
		column = "iata_prefix"
	}
	query := fmt.Sprintf(`
SELECT ai.airline_id, ai.airline_name, co.country_name, co.country_iso_name,
       ai.iata_prefix, ai.icao_prefix, ai.airline_callsign
FROM airline ai
LEFT JOIN country co USING (country_id)
WHERE ai.%s = $1
ORDER BY ai.airline_name`, column)

	rows, err := s.pool.Query(ctx, query, code.Code)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	var out []Airline
	for rows.Next() {
		a, err := scanAirline(rows)
		if err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

const airportColumns = `ap.airport_id, ap.icao_code, ap.iata_code, ap.name, ap.municipality,
       co.country_name, co.country_iso_name, ap.elevation, ap.latitude, ap.longitude`

// GetAirport resolves an Airport by ICAO code, used for PATCH validation and
// to materialize flightroute legs.
func (s *Store) GetAirport(ctx context.Context, icao string) (*Airport, error) {
	row := s.pool.QueryRow(ctx, `
SELECT `+airportColumns+`
FROM airport ap
JOIN country co USING (country_id)
WHERE ap.icao_code = $1`, icao)

	var a Airport
	if err := row.Scan(&a.AirportID, &a.ICAO, &a.IATA, &a.Name, &a.Municipality,
		&a.Country, &a.CountryISO, &a.ElevationFt, &a.Latitude, &a.Longitude); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Store(err)
	}
	return &a, nil
}
