package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/telnyx/telnyx-cli/config"
)

func propertyParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	return parameters
}

// apiKeyGen produces keys of the prefixed shape.
func apiKeyGen() gopter.Gen {
	return gen.AlphaString().Map(func(s string) string {
		return "KEY0123456789" + s
	})
}

// profileNameGen produces short lowercase profile names.
func profileNameGen() gopter.Gen {
	return gen.AlphaString().Map(func(s string) string {
		if s == "" {
			return "p"
		}
		if len(s) > 12 {
			s = s[:12]
		}
		return "p" + s
	})
}

func freshStore(t *testing.T, opts ...config.StoreOption) *config.Store {
	dir, err := os.MkdirTemp(t.TempDir(), "store")
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) == 0 {
		opts = []config.StoreOption{config.WithLookupEnv(noEnv)}
	}
	return config.NewStore(filepath.Join(dir, "config.json"), opts...)
}

func TestProperty_SetThenGetReturnsKey(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("stored key is returned for its profile", prop.ForAll(
		func(key, profile string) bool {
			store := freshStore(t)
			if err := store.SetAPIKey(key, profile); err != nil {
				return false
			}
			got, err := store.APIKey(profile)
			return err == nil && got == key
		},
		apiKeyGen(),
		profileNameGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_EnvOverrideAlwaysWins(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("env key returned for any profile name", prop.ForAll(
		func(envKey, stored, profile string) bool {
			store := freshStore(t, config.WithLookupEnv(func(name string) (string, bool) {
				if name == config.EnvAPIKey {
					return envKey, true
				}
				return "", false
			}))
			if err := store.SetAPIKey(stored, "default"); err != nil {
				return false
			}
			got, err := store.APIKey(profile)
			return err == nil && got == envKey
		},
		apiKeyGen(),
		apiKeyGen(),
		profileNameGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_DeleteDefaultPicksRemaining(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("default never points at a deleted profile", prop.ForAll(
		func(names []string) bool {
			store := freshStore(t)
			unique := map[string]bool{}
			for _, name := range names {
				if err := store.SetAPIKey("KEY0123456789ABC", name); err != nil {
					return false
				}
				unique[name] = true
			}

			def, err := store.DefaultProfile()
			if err != nil {
				return false
			}
			if err := store.DeleteProfile(def); err != nil {
				return false
			}
			delete(unique, def)

			next, err := store.DefaultProfile()
			if err != nil {
				return false
			}
			if len(unique) == 0 {
				return next == config.DefaultProfileName
			}
			return next != def && unique[next]
		},
		gen.SliceOfN(4, profileNameGen()),
	))

	properties.TestingRun(t)
}

func TestProperty_SaveLoadIdempotent(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("save(load()) leaves the document unchanged", prop.ForAll(
		func(names []string, keys []string) bool {
			store := freshStore(t)
			for i, name := range names {
				if err := store.SetAPIKey(keys[i%len(keys)], name); err != nil {
					return false
				}
			}

			first, err := store.Load()
			if err != nil {
				return false
			}
			if err := store.Save(first); err != nil {
				return false
			}
			second, err := store.Load()
			if err != nil {
				return false
			}
			return reflect.DeepEqual(first, second)
		},
		gen.SliceOfN(3, profileNameGen()),
		gen.SliceOfN(2, apiKeyGen()),
	))

	properties.TestingRun(t)
}
