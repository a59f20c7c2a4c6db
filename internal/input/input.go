// Package input implements the validation/parsing grammar (C1) for the
// identifier kinds the request-servicing engine accepts: ModeS, Registration,
// NNumber, AirlineCode and Callsign.
package input

import (
	"strings"

	"github.com/adsbdb/adsbdb-go/internal/apperr"
	"github.com/adsbdb/adsbdb-go/internal/nnumber"
)

// validChar reports whether c is a digit or a letter (of either case) in
// the inclusive range 'a'..end.
func validChar(c byte, end byte) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	lower := c
	if lower >= 'A' && lower <= 'Z' {
		lower = lower - 'A' + 'a'
	}
	return lower >= 'a' && lower <= end
}

func allValid(s string, end byte) bool {
	for i := 0; i < len(s); i++ {
		if !validChar(s[i], end) {
			return false
		}
	}
	return true
}

// ModeS is a validated 6-hex-digit mode-S transponder address, always
// uppercase.
type ModeS string

func (m ModeS) String() string { return string(m) }

// ValidateModeS validates input as [0-9A-F]{6}, case-insensitive.
func ValidateModeS(input string) (ModeS, error) {
	up := strings.ToUpper(input)
	if len(up) == 6 && allValid(up, 'f') {
		return ModeS(up), nil
	}
	return "", apperr.New(apperr.KindInvalidModeS, up)
}

// Registration is a validated aircraft tail/registration string.
type Registration string

func (r Registration) String() string { return string(r) }

// ValidateRegistration validates input as 1..16 chars of [0-9A-Z-].
func ValidateRegistration(input string) (Registration, error) {
	up := strings.ToUpper(input)
	if up != "" && len(up) <= 16 && allValidWithDash(up) {
		return Registration(up), nil
	}
	return "", apperr.New(apperr.KindInvalidRegistration, up)
}

func allValidWithDash(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '-' {
			continue
		}
		if !validChar(s[i], 'z') {
			return false
		}
	}
	return true
}

// NNumber is a validated U.S. tail number: "N" followed by 1..5 chars drawn
// from nnumber.Allchars.
type NNumber string

func (n NNumber) String() string { return string(n) }

// ValidateNNumber validates input as N + 1..5 chars of [0-9A-HJ-NP-Z].
func ValidateNNumber(input string) (NNumber, error) {
	up := strings.ToUpper(input)
	if strings.HasPrefix(up, "N") && len(up) >= 2 && len(up) <= 6 && allAllchars(up) {
		return NNumber(up), nil
	}
	return "", apperr.New(apperr.KindInvalidNNumber, up)
}

func allAllchars(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune(nnumber.Allchars, c) {
			return false
		}
	}
	return true
}

// AirlineCodeKind distinguishes the 2-letter IATA form from the 3-letter
// ICAO form of an airline short code.
type AirlineCodeKind int

const (
	AirlineIata AirlineCodeKind = iota
	AirlineIcao
)

type AirlineCode struct {
	Kind AirlineCodeKind
	Code string
}

func (a AirlineCode) String() string { return a.Code }

// ValidateAirlineCode validates input as [0-9A-Z]{2,3}.
func ValidateAirlineCode(input string) (AirlineCode, error) {
	up := strings.ToUpper(input)
	n := len(up)
	if up != "" && n >= 2 && n <= 3 && allValid(up, 'z') {
		if n == 2 {
			return AirlineCode{Kind: AirlineIata, Code: up}, nil
		}
		return AirlineCode{Kind: AirlineIcao, Code: up}, nil
	}
	return AirlineCode{}, apperr.New(apperr.KindInvalidAirlineCode, up)
}

// CallsignKind identifies which of the three mutually exclusive callsign
// shapes a value was classified as.
type CallsignKind int

const (
	CallsignIcao CallsignKind = iota
	CallsignIata
	CallsignOther
)

// Callsign is a classified flight callsign. For Icao/Iata, Prefix and Suffix
// split the airline code from the flight-number tail. For Other, only Whole
// is populated.
type Callsign struct {
	Kind   CallsignKind
	Prefix string
	Suffix string
	Whole  string
}

func (c Callsign) String() string {
	if c.Kind == CallsignOther {
		return c.Whole
	}
	return c.Prefix + c.Suffix
}

// ValidateCallsign classifies input per spec.md §3: 4..8 uppercase
// alphanumerics; alphabetic 3-char prefix -> Icao; else if the whole string
// is also a valid NNumber that maps to a mode-S -> Other; else a 2-char
// prefix -> Iata; else Other. The order is significant and exclusive.
func ValidateCallsign(input string) (Callsign, error) {
	up := strings.ToUpper(input)
	n := len(up)
	if n < 4 || n > 8 || !allValid(up, 'z') {
		return Callsign{}, apperr.New(apperr.KindInvalidCallsign, up)
	}

	icaoPrefix, icaoSuffix := up[:3], up[3:]
	if isAllAlpha(icaoPrefix) {
		return Callsign{Kind: CallsignIcao, Prefix: icaoPrefix, Suffix: icaoSuffix}, nil
	}

	iataPrefix, iataSuffix := up[:2], up[2:]
	if allValid(iataPrefix, 'z') {
		if n, err := ValidateNNumber(up); err == nil {
			if _, icaoErr := nnumber.NToIcao(string(n)); icaoErr == nil {
				return Callsign{Kind: CallsignOther, Whole: up}, nil
			}
		}
		return Callsign{Kind: CallsignIata, Prefix: iataPrefix, Suffix: iataSuffix}, nil
	}

	return Callsign{Kind: CallsignOther, Whole: up}, nil
}

func isAllAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		lower := c
		if c >= 'A' && c <= 'Z' {
			lower = c - 'A' + 'a'
		}
		if lower < 'a' || lower > 'z' {
			return false
		}
	}
	return true
}

// AircraftSearchKind distinguishes which identifier kind an AircraftSearch
// was resolved from.
type AircraftSearchKind int

const (
	SearchModeS AircraftSearchKind = iota
	SearchRegistration
)

// AircraftSearch is either a ModeS or a Registration value, as resolved by
// ParseAircraftSearch's mode-S-then-registration priority.
type AircraftSearch struct {
	Kind         AircraftSearchKind
	ModeS        ModeS
	Registration Registration
}

func (a AircraftSearch) String() string {
	if a.Kind == SearchModeS {
		return string(a.ModeS)
	}
	return string(a.Registration)
}

// ParseAircraftSearch attempts ModeS first, then Registration, preserving
// the documented priority for ambiguous strings that validate as both.
func ParseAircraftSearch(input string) (AircraftSearch, error) {
	if m, err := ValidateModeS(input); err == nil {
		return AircraftSearch{Kind: SearchModeS, ModeS: m}, nil
	}
	if r, err := ValidateRegistration(input); err == nil {
		return AircraftSearch{Kind: SearchRegistration, Registration: r}, nil
	}
	return AircraftSearch{}, apperr.New(apperr.KindInvalidAircraftSearch, strings.ToUpper(input))
}
