// Package config resolves the §6.5 environment into a typed Config, read
// from a urfave/cli/v3 command's flags by app.Run.
package config

// Config holds every resolved option from spec.md §6.5, matching the Rust
// original's AppEnv field-for-field (original_source/src/parse_env.rs).
type Config struct {
	APIHost string
	APIPort uint16

	PGHost     string
	PGPort     uint16
	PGUser     string
	PGPass     string
	PGDatabase string

	RedisHost     string
	RedisPort     uint16
	RedisPassword string
	RedisDatabase int

	URLCallsign      string
	URLAircraftPhoto string
	URLPhotoPrefix   string

	ScrapeFlightroute bool
	ScrapePhoto       bool

	// UpdateArgonHash is the Argon2id-hashed PATCH password; empty disables
	// the PATCH routes entirely (405), per spec.md §6.2/§6.5.
	UpdateArgonHash string

	LocationLogs string
	LogDebug     bool
	LogTrace     bool
}

func (c Config) PatchEnabled() bool { return c.UpdateArgonHash != "" }
