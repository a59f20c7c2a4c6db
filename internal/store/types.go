// Package store implements the relational store adapter (C5): typed read
// queries for aircraft, airline, airport and flightroute entities, plus the
// scrape-insert and PATCH-update write transactions.
package store

import "encoding/json"

// Aircraft is the §3 Aircraft entity, joined from the aircraft/type/owner/
// country/manufacturer/operator-flag/photo tables.
type Aircraft struct {
	AircraftID                int64   `json:"-"`
	ModeS                     string  `json:"mode_s"`
	Registration              string  `json:"registration"`
	AircraftType              string  `json:"type"`
	IcaoType                  string  `json:"icao_type"`
	Manufacturer              string  `json:"manufacturer"`
	RegisteredOwner           string  `json:"owner"`
	RegisteredOwnerFlagCode   string  `json:"owner_flag_code"`
	RegisteredOwnerCountry    string  `json:"owner_country"`
	RegisteredOwnerCountryISO string  `json:"owner_country_iso"`
	URLPhoto                  *string `json:"url_photo"`
	URLPhotoThumbnail         *string `json:"url_photo_thumbnail"`
}

// Airline is the §3 Airline entity.
type Airline struct {
	AirlineID      int64   `json:"-"`
	Name           string  `json:"name"`
	CountryName    string  `json:"country"`
	CountryISOName string  `json:"country_iso"`
	IataPrefix     *string `json:"iata_prefix"`
	IcaoPrefix     string  `json:"icao_prefix"`
	Callsign       *string `json:"callsign"`
}

// Airport is the §3 Airport entity.
type Airport struct {
	AirportID    int64   `json:"-"`
	ICAO         string  `json:"icao"`
	IATA         string  `json:"iata"`
	Name         string  `json:"name"`
	Municipality string  `json:"municipality"`
	Country      string  `json:"country"`
	CountryISO   string  `json:"country_iso"`
	ElevationFt  int32   `json:"elevation_ft"`
	Latitude     float64 `json:"lat"`
	Longitude    float64 `json:"lon"`
}

// AirportLeg is an airport snapshot embedded in a Flightroute (origin,
// midpoint or destination).
type AirportLeg = Airport

// Flightroute is the §3 Flightroute entity. Airline fields come back flat
// from scanFlightroute's single joined row; MarshalJSON nests them under an
// "airline" object to match the entity shape of §3.
type Flightroute struct {
	FlightrouteID int64
	Callsign      string
	CallsignIata  *string
	CallsignIcao  *string

	AirlineName           *string
	AirlineCountryName    *string
	AirlineCountryISOName *string
	AirlineCallsign       *string
	AirlineIcao           *string
	AirlineIata           *string

	Origin      AirportLeg
	Midpoint    *AirportLeg
	Destination AirportLeg
}

// flightrouteAirline is the nested "airline" object of a Flightroute's JSON
// representation.
type flightrouteAirline struct {
	Name       *string `json:"name"`
	Country    *string `json:"country"`
	CountryISO *string `json:"country_iso"`
	Callsign   *string `json:"callsign"`
	IcaoPrefix *string `json:"icao_prefix"`
	IataPrefix *string `json:"iata_prefix"`
}

// flightrouteWire is the wire shape of a Flightroute: airline fields nested,
// the rest flat. Shared between MarshalJSON and UnmarshalJSON so cache
// round-trips preserve every field except FlightrouteID and the airports'
// AirportID, which are not serialized.
type flightrouteWire struct {
	Callsign     string              `json:"callsign"`
	CallsignIata *string             `json:"callsign_iata"`
	CallsignIcao *string             `json:"callsign_icao"`
	Airline      *flightrouteAirline `json:"airline"`
	Origin       AirportLeg          `json:"origin"`
	Midpoint     *AirportLeg         `json:"midpoint"`
	Destination  AirportLeg          `json:"destination"`
}

func (fr Flightroute) MarshalJSON() ([]byte, error) {
	w := flightrouteWire{
		Callsign:     fr.Callsign,
		CallsignIata: fr.CallsignIata,
		CallsignIcao: fr.CallsignIcao,
		Origin:       fr.Origin,
		Midpoint:     fr.Midpoint,
		Destination:  fr.Destination,
	}
	if fr.AirlineName != nil {
		w.Airline = &flightrouteAirline{
			Name:       fr.AirlineName,
			Country:    fr.AirlineCountryName,
			CountryISO: fr.AirlineCountryISOName,
			Callsign:   fr.AirlineCallsign,
			IcaoPrefix: fr.AirlineIcao,
			IataPrefix: fr.AirlineIata,
		}
	}
	return json.Marshal(w)
}

func (fr *Flightroute) UnmarshalJSON(data []byte) error {
	var w flightrouteWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	fr.Callsign = w.Callsign
	fr.CallsignIata = w.CallsignIata
	fr.CallsignIcao = w.CallsignIcao
	fr.Origin = w.Origin
	fr.Midpoint = w.Midpoint
	fr.Destination = w.Destination
	if w.Airline != nil {
		fr.AirlineName = w.Airline.Name
		fr.AirlineCountryName = w.Airline.Country
		fr.AirlineCountryISOName = w.Airline.CountryISO
		fr.AirlineCallsign = w.Airline.Callsign
		fr.AirlineIcao = w.Airline.IcaoPrefix
		fr.AirlineIata = w.Airline.IataPrefix
	}
	return nil
}

// ScrapedFlightroute is the output of the C6 flightroute scrape, ready to be
// persisted by InsertScrapedFlightroute.
type ScrapedFlightroute struct {
	CallsignIata string
	CallsignIcao string
	Origin       string // ICAO code
	Destination  string // ICAO code
}

// PhotoData is the output of the C6 photo scrape.
type PhotoData struct {
	Image string
}
