package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newRequestWithHeaders(headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/aircraft/A061E4", nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

// TestVerifyPasswordKnownVector reproduces the known-good hash from the
// original implementation's Argon2id test suite.
func TestVerifyPasswordKnownVector(t *testing.T) {
	const hash = "$argon2id$v=19$m=4096,t=5,p=1$rahU5enqn3WcOo9A58Ifjw$I+7yA6+29LuB5jzPUwnxtLoH66Lng7ExWqHdivwj8Es"
	if !VerifyPassword("This is a known password", hash) {
		t.Fatal("expected the known test vector to verify")
	}
	if VerifyPassword("wrong password", hash) {
		t.Fatal("expected a wrong password to fail verification")
	}
}

func TestHashAndVerifyRoundTrip(t *testing.T) {
	salt := []byte("0123456789abcdef")
	hash := HashPassword("correct horse battery staple", salt, DebugParams)
	if !VerifyPassword("correct horse battery staple", hash) {
		t.Fatal("expected round-trip verification to succeed")
	}
	if VerifyPassword("incorrect horse", hash) {
		t.Fatal("expected mismatched password to fail")
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	r := newRequestWithHeaders(map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"})
	if got := ClientIP(r); got != "203.0.113.9" {
		t.Fatalf("expected first X-Forwarded-For hop, got %s", got)
	}
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	r := newRequestWithHeaders(nil)
	r.RemoteAddr = "198.51.100.7:4512"
	if got := ClientIP(r); got != "198.51.100.7" {
		t.Fatalf("expected remote addr host, got %s", got)
	}
}
