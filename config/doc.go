// Package config stores Telnyx authentication profiles and resolves runtime settings.
//
// Profiles live in a single JSON document (by default ~/.config/telnyx/config.json)
// written with owner-only permissions:
//
//	{
//	  "profiles": {
//	    "default":    {"apiKey": "KEY0123456789ABCDEF"},
//	    "production": {"apiKey": "KEYFEDCBA9876543210"}
//	  },
//	  "defaultProfile": "default"
//	}
//
// # Profile Store
//
// A Store reads and writes that document. API key resolution always prefers the
// TELNYX_API_KEY environment variable over anything on disk:
//
//	store := config.NewStore("")
//	key, err := store.APIKey("production")
//
// Every error produced while reading, validating or updating the document is a
// *ConfigError carrying the file path, so the user can fix or remove the file.
//
// # Runtime Settings
//
// LoadSettings resolves per-invocation options (profile, output format, verbosity,
// base URLs) from flags, TELNYX_* environment variables and defaults, in that order
// of precedence, and validates them with go-playground/validator.
package config
