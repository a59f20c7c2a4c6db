// Package apperr defines the error kinds returned across the lookup pipeline
// and their mapping onto HTTP status codes and response bodies.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind identifies one of the error kinds of the request-servicing engine.
// It is deliberately not a Go error type hierarchy: callers compare Kind
// values, not concrete error types.
type Kind int

const (
	KindInvalidCallsign Kind = iota
	KindInvalidModeS
	KindInvalidNNumber
	KindInvalidRegistration
	KindInvalidAirlineCode
	KindInvalidAircraftSearch
	KindInvalidBody
	KindUnauthorized
	KindUnknownAircraft
	KindUnknownCallsign
	KindUnknownAirline
	KindUnknownAirport
	KindRateLimited
	KindStoreFailure
	KindCacheFailure
	KindInternal
	KindPatchDisabled
	KindNotFound
)

// Error is the concrete error value carried through the pipeline.
type Error struct {
	Kind   Kind
	Value  string // the offending input, or extra context (airport code, body reason)
	Window int    // seconds remaining, only meaningful for KindRateLimited
	cause  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidCallsign:
		return fmt.Sprintf("invalid callsign: %s", e.Value)
	case KindInvalidModeS:
		return fmt.Sprintf("invalid modeS: %s", e.Value)
	case KindInvalidNNumber:
		return fmt.Sprintf("invalid n_number: %s", e.Value)
	case KindInvalidRegistration:
		return fmt.Sprintf("invalid registration: %s", e.Value)
	case KindInvalidAirlineCode:
		return fmt.Sprintf("invalid airline code: %s", e.Value)
	case KindInvalidAircraftSearch:
		return fmt.Sprintf("invalid aircraft search: %s", e.Value)
	case KindInvalidBody:
		return e.Value
	case KindUnauthorized:
		return "unauthorized"
	case KindUnknownAircraft:
		return "unknown aircraft"
	case KindUnknownCallsign:
		return "unknown callsign"
	case KindUnknownAirline:
		return "unknown airline"
	case KindUnknownAirport:
		return fmt.Sprintf("unknown airport: %s", e.Value)
	case KindRateLimited:
		return fmt.Sprintf("rate limited for %d seconds", e.Window)
	case KindStoreFailure:
		return "store failure"
	case KindCacheFailure:
		return "cache failure"
	case KindPatchDisabled:
		return "updates disabled"
	case KindNotFound:
		return fmt.Sprintf("unknown endpoint: %s", e.Value)
	default:
		if e.cause != nil {
			return e.cause.Error()
		}
		return "internal error"
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Status maps the error kind onto the HTTP status spec.md §6.1/§7 assigns it.
func (e *Error) Status() int {
	switch e.Kind {
	case KindInvalidCallsign, KindInvalidModeS, KindInvalidNNumber,
		KindInvalidRegistration, KindInvalidAirlineCode, KindInvalidAircraftSearch,
		KindInvalidBody:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUnknownAircraft, KindUnknownCallsign, KindUnknownAirline,
		KindUnknownAirport, KindStoreFailure, KindCacheFailure, KindNotFound:
		// store/cache read failures are conservatively reported as 404, same as
		// a genuine miss, per spec.md §7.
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindPatchDisabled:
		return http.StatusMethodNotAllowed
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, value string) *Error { return &Error{Kind: kind, Value: value} }

func RateLimited(window int) *Error { return &Error{Kind: KindRateLimited, Window: window} }

func Internal(cause error) *Error { return &Error{Kind: KindInternal, cause: cause} }

func Store(cause error) *Error { return &Error{Kind: KindStoreFailure, cause: cause} }

func Cache(cause error) *Error { return &Error{Kind: KindCacheFailure, cause: cause} }

func Body(reason string) *Error { return &Error{Kind: KindInvalidBody, Value: reason} }

// As reports whether err is an *Error and, if so, returns it.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// FromJSONDecodeError classifies a generic encoding/json decode error into a
// 400 reason: "invalid input" for an unknown field, the (struct-qualified)
// name of a field whose value has the wrong type, or "unexpected end of JSON
// input" for a truncated body. Missing fields are not detected, and other
// syntax errors get the generic "invalid JSON body" reason without a location.
func FromJSONDecodeError(err error) *Error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unknown field"):
		return Body("invalid input")
	case strings.Contains(msg, "cannot unmarshal"):
		if i := strings.Index(msg, "field "); i >= 0 {
			rest := msg[i+len("field "):]
			if j := strings.IndexByte(rest, ' '); j >= 0 {
				return Body(strings.Trim(rest[:j], "\""))
			}
		}
		return Body("invalid value")
	case strings.Contains(msg, "unexpected end of JSON input"):
		return Body("unexpected end of JSON input")
	default:
		return Body("invalid JSON body")
	}
}
