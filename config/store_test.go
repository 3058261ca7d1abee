package config_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telnyx/telnyx-cli/config"
)

const (
	testKey      = "KEY0123456789ABCDEF"
	otherTestKey = "KEYFEDCBA9876543210"
)

// noEnv disables the TELNYX_API_KEY override regardless of the test environment.
func noEnv(string) (string, bool) { return "", false }

func newTestStore(t *testing.T) *config.Store {
	t.Helper()
	return config.NewStore(filepath.Join(t.TempDir(), "telnyx", "config.json"), config.WithLookupEnv(noEnv))
}

func writeConfig(t *testing.T, store *config.Store, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0o600))
}

func TestIsValidAPIKey(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		valid bool
	}{
		{"prefixed", "KEY0123456789", true},
		{"prefixed with separators", "KEY_abc-DEF_123456", true},
		{"bare long", "abcdefghijklmnopqrstuvwxyz", true},
		{"prefixed too short", "KEY123", false},
		{"bare too short", "abcdefghij", false},
		{"spaces", "KEY 0123456789 abc", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, config.IsValidAPIKey(tt.key))
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "(not set)", config.MaskAPIKey(""))
	assert.Equal(t, "********", config.MaskAPIKey("KEY123"))
	assert.Equal(t, "KEY0...CDEF", config.MaskAPIKey(testKey))
}

func TestStore_Load(t *testing.T) {
	t.Run("missing file returns empty default", func(t *testing.T) {
		store := newTestStore(t)

		cfg, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, cfg.Profiles)
		assert.NotNil(t, cfg.Profiles)
		assert.Equal(t, "default", cfg.DefaultProfile)
	})

	t.Run("valid file", func(t *testing.T) {
		store := newTestStore(t)
		writeConfig(t, store, `{"profiles":{"prod":{"apiKey":"`+testKey+`"}},"defaultProfile":"prod"}`)

		cfg, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, testKey, cfg.Profiles["prod"].APIKey)
		assert.Equal(t, "prod", cfg.DefaultProfile)
	})

	t.Run("empty api key is allowed", func(t *testing.T) {
		store := newTestStore(t)
		writeConfig(t, store, `{"profiles":{"prod":{"apiKey":""}},"defaultProfile":"prod"}`)

		_, err := store.Load()
		require.NoError(t, err)
	})

	invalid := []struct {
		name    string
		content string
		message string
	}{
		{"invalid json", `{"profiles": `, "invalid JSON"},
		{"missing profiles", `{"defaultProfile":"x"}`, "invalid structure"},
		{"profile not an object", `{"profiles":{"prod":"KEY0123456789"}}`, `profile "prod"`},
		{"api key not a string", `{"profiles":{"prod":{"apiKey":42}}}`, `profile "prod"`},
		{"api key missing", `{"profiles":{"prod":{}}}`, `profile "prod"`},
		{"api key bad shape", `{"profiles":{"prod":{"apiKey":"nope"}}}`, `Invalid API key format in profile "prod"`},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			writeConfig(t, store, tt.content)

			_, err := store.Load()
			require.Error(t, err)

			var cfgErr *config.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, store.Path(), cfgErr.Path)
			assert.Contains(t, err.Error(), tt.message)
			assert.Contains(t, err.Error(), store.Path())
		})
	}
}

func TestStore_Save(t *testing.T) {
	store := newTestStore(t)

	cfg := &config.Config{
		Profiles:       map[string]config.Profile{"default": {APIKey: testKey}},
		DefaultProfile: "default",
	}
	require.NoError(t, store.Save(cfg))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"profiles\": {")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "default", doc["defaultProfile"])
}

func TestStore_Save_TightensPermissions(t *testing.T) {
	store := newTestStore(t)
	writeConfig(t, store, `{"profiles":{}}`)
	require.NoError(t, os.Chmod(store.Path(), 0o644))

	require.NoError(t, store.Save(&config.Config{}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetAPIKey(testKey, "default"))
	require.NoError(t, store.SetAPIKey(otherTestKey, "prod"))

	first, err := store.Load()
	require.NoError(t, err)
	require.NoError(t, store.Save(first))

	second, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStore_APIKey(t *testing.T) {
	t.Run("env override wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		store := config.NewStore(path, config.WithLookupEnv(func(name string) (string, bool) {
			if name == config.EnvAPIKey {
				return "KEYFROMENVIRONMENT", true
			}
			return "", false
		}))
		writeConfig(t, store, `{"profiles":{"prod":{"apiKey":"`+testKey+`"}},"defaultProfile":"prod"}`)

		for _, profile := range []string{"", "prod", "missing"} {
			key, err := store.APIKey(profile)
			require.NoError(t, err)
			assert.Equal(t, "KEYFROMENVIRONMENT", key)
		}
	})

	t.Run("env override via process environment", func(t *testing.T) {
		t.Setenv(config.EnvAPIKey, "KEYPROCESSENVIRON")
		store := config.NewStore(filepath.Join(t.TempDir(), "config.json"))

		key, err := store.APIKey("anything")
		require.NoError(t, err)
		assert.Equal(t, "KEYPROCESSENVIRON", key)
	})

	t.Run("default profile", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SetAPIKey(testKey, "prod"))

		key, err := store.APIKey("")
		require.NoError(t, err)
		assert.Equal(t, testKey, key)
	})

	t.Run("nothing configured", func(t *testing.T) {
		store := newTestStore(t)

		key, err := store.APIKey("")
		require.NoError(t, err)
		assert.Empty(t, key)
	})

	t.Run("explicit profile with no profiles stored", func(t *testing.T) {
		store := newTestStore(t)

		key, err := store.APIKey("prod")
		require.NoError(t, err)
		assert.Empty(t, key)
	})

	t.Run("unknown explicit profile", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SetAPIKey(testKey, "default"))
		require.NoError(t, store.SetAPIKey(otherTestKey, "staging"))

		_, err := store.APIKey("prod")
		require.Error(t, err)
		assert.True(t, errors.Is(err, config.ErrProfileNotFound))
		assert.Contains(t, err.Error(), "Available profiles: default, staging")
		assert.Contains(t, err.Error(), store.Path())
	})
}

func TestStore_SetAPIKey(t *testing.T) {
	t.Run("rejects bad shape", func(t *testing.T) {
		store := newTestStore(t)

		err := store.SetAPIKey("bad", "default")
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrInvalidAPIKey)

		_, statErr := os.Stat(store.Path())
		assert.True(t, os.IsNotExist(statErr), "nothing should be written")
	})

	t.Run("empty profile means default", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SetAPIKey(testKey, ""))

		profiles, err := store.ListProfiles()
		require.NoError(t, err)
		assert.Equal(t, []string{"default"}, profiles)
	})

	t.Run("first profile becomes default", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SetAPIKey(testKey, "prod"))

		def, err := store.DefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "prod", def)
	})

	t.Run("existing default is kept", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SetAPIKey(testKey, "prod"))
		require.NoError(t, store.SetAPIKey(otherTestKey, "staging"))

		def, err := store.DefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "prod", def)
	})

	t.Run("overwrites key", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SetAPIKey(testKey, "prod"))
		require.NoError(t, store.SetAPIKey(otherTestKey, "prod"))

		key, err := store.APIKey("prod")
		require.NoError(t, err)
		assert.Equal(t, otherTestKey, key)
	})
}

func TestStore_SetDefaultProfile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SetAPIKey(testKey, "prod"))
	require.NoError(t, store.SetAPIKey(otherTestKey, "staging"))

	require.NoError(t, store.SetDefaultProfile("staging"))
	def, err := store.DefaultProfile()
	require.NoError(t, err)
	assert.Equal(t, "staging", def)

	err = store.SetDefaultProfile("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrProfileNotFound)
}

func TestStore_DeleteProfile(t *testing.T) {
	t.Run("unknown profile", func(t *testing.T) {
		store := newTestStore(t)

		err := store.DeleteProfile("missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrProfileNotFound)
	})

	t.Run("deleting default picks a remaining profile", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SetAPIKey(testKey, "prod"))
		require.NoError(t, store.SetAPIKey(otherTestKey, "staging"))
		require.NoError(t, store.SetAPIKey(otherTestKey, "alpha"))

		require.NoError(t, store.DeleteProfile("prod"))

		def, err := store.DefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "alpha", def)
	})

	t.Run("deleting last profile reverts to literal default", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SetAPIKey(testKey, "prod"))

		require.NoError(t, store.DeleteProfile("prod"))

		def, err := store.DefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "default", def)

		profiles, err := store.ListProfiles()
		require.NoError(t, err)
		assert.Empty(t, profiles)
	})

	t.Run("deleting non-default keeps default", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.SetAPIKey(testKey, "prod"))
		require.NoError(t, store.SetAPIKey(otherTestKey, "staging"))

		require.NoError(t, store.DeleteProfile("staging"))

		def, err := store.DefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "prod", def)
	})
}

func TestNewStore_PathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	t.Setenv(config.EnvConfigPath, path)

	store := config.NewStore("")
	assert.Equal(t, path, store.Path())
}
