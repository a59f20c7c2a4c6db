// Package security implements the PATCH-route Argon2id authentication, the
// public CORS policy, the request body-size cap, and client IP resolution
// used to key the rate limiter.
package security

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ArgonParams are the Argon2id tuning knobs used by HashPassword.
// VerifyPassword does not use them: it reads the parameters from the encoded
// hash it is given.
type ArgonParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// DebugParams is deliberately weak, for local development only.
var DebugParams = ArgonParams{Memory: 4096, Iterations: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

// ReleaseParams matches the production profile of the original service.
var ReleaseParams = ArgonParams{Memory: 24576, Iterations: 64, Parallelism: 1, SaltLen: 16, KeyLen: 32}

// HashPassword derives a PHC-formatted Argon2id hash string, e.g.
// "$argon2id$v=19$m=4096,t=1,p=1$<salt>$<hash>".
func HashPassword(password string, salt []byte, p ArgonParams) string {
	sum := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum))
}

// VerifyPassword checks password against a PHC-formatted Argon2id hash,
// using constant-time comparison on the derived key.
func VerifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// MaxBodyBytes caps PATCH request bodies per spec.md §6.1.
const MaxBodyBytes = 1024

// LimitBody wraps r.Body with an http.MaxBytesReader so oversized or
// malformed-length bodies fail fast with a decodable error rather than
// exhausting memory.
func LimitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
}

// CORS applies the wide-open CORS policy spec.md §6.1 calls for: a public
// read API with no cookie-based session to protect. methods is advertised
// verbatim in Access-Control-Allow-Methods, so callers can drop PATCH when
// the PATCH routes are disabled.
func CORS(methods string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP resolves the request's originating address for rate-limit keying:
// X-Forwarded-For, then X-Real-Ip, then RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xr := r.Header.Get("X-Real-Ip"); xr != "" {
		return xr
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
