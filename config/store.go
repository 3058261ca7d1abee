package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Environment variables consulted by the store.
const (
	EnvAPIKey     = "TELNYX_API_KEY"
	EnvProfile    = "TELNYX_PROFILE"
	EnvConfigPath = "TELNYX_CONFIG"
)

// DefaultProfileName is used when no profile is named and none is marked default.
const DefaultProfileName = "default"

// Profile holds the credentials of a single named profile.
type Profile struct {
	APIKey string `json:"apiKey"`
}

// Config is the on-disk document.
type Config struct {
	Profiles       map[string]Profile `json:"profiles"`
	DefaultProfile string             `json:"defaultProfile"`
}

// ProfileNames returns the profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// hasProfile reports whether name is a stored profile.
func (c *Config) hasProfile(name string) bool {
	_, ok := c.Profiles[name]
	return ok
}

var (
	prefixedKeyPattern = regexp.MustCompile(`^KEY[a-zA-Z0-9_-]{10,}$`)
	bareKeyPattern     = regexp.MustCompile(`^[a-zA-Z0-9_-]{20,}$`)
)

// IsValidAPIKey reports whether key has the shape of a Telnyx API key:
// "KEY" followed by at least 10 key characters, or at least 20 key characters.
func IsValidAPIKey(key string) bool {
	return prefixedKeyPattern.MatchString(key) || bareKeyPattern.MatchString(key)
}

// MaskAPIKey masks a key for display, keeping the first and last four characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// DefaultPath returns the default config file path (~/.config/telnyx/config.json).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "telnyx", "config.json")
	}
	return filepath.Join(home, ".config", "telnyx", "config.json")
}

// Store reads and writes the profile document at a fixed path.
type Store struct {
	path      string
	lookupEnv func(string) (string, bool)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLookupEnv replaces os.LookupEnv for the API key override.
func WithLookupEnv(fn func(string) (string, bool)) StoreOption {
	return func(s *Store) {
		s.lookupEnv = fn
	}
}

// NewStore creates a store for the document at path.
// An empty path falls back to TELNYX_CONFIG and then DefaultPath.
func NewStore(path string, opts ...StoreOption) *Store {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultPath()
	}

	s := &Store{
		path:      filepath.Clean(path),
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the config file path.
func (s *Store) Path() string {
	return s.path
}

// EnvAPIKey returns the API key override from the environment, if set.
func (s *Store) EnvAPIKey() (string, bool) {
	key, ok := s.lookupEnv(EnvAPIKey)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// Load reads the document. A missing file yields an empty config whose
// default profile is DefaultProfileName.
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.path) //#nosec G304 -- path is the user's config file
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{
				Profiles:       map[string]Profile{},
				DefaultProfile: DefaultProfileName,
			}, nil
		}
		return nil, newConfigError(s.path, err, fmt.Sprintf("Could not read config file: %v", err), resetHint)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, newConfigError(s.path, ErrInvalidConfig,
			fmt.Sprintf("Config file contains invalid JSON: %v", err), resetHint)
	}

	if err := validateDocument(raw); err != nil {
		return nil, newConfigError(s.path, ErrInvalidConfig, err.Error(), resetHint)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, newConfigError(s.path, ErrInvalidConfig,
			fmt.Sprintf("Config file has an invalid structure: %v", err), resetHint)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}

	for _, name := range cfg.ProfileNames() {
		key := cfg.Profiles[name].APIKey
		if key != "" && !IsValidAPIKey(key) {
			return nil, newConfigError(s.path, ErrInvalidAPIKey,
				fmt.Sprintf("Invalid API key format in profile %q.", name),
				`API keys should start with "KEY" followed by alphanumeric characters.`)
		}
	}

	return &cfg, nil
}

// Save writes the document as indented JSON, replacing the file entirely,
// and restricts it to owner read/write.
func (s *Store) Save(cfg *Config) error {
	doc := Config{
		Profiles:       cfg.Profiles,
		DefaultProfile: cfg.DefaultProfile,
	}
	if doc.Profiles == nil {
		doc.Profiles = map[string]Profile{}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return newConfigError(s.path, err, fmt.Sprintf("Could not create config directory: %v", err), "")
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return newConfigError(s.path, err, fmt.Sprintf("Could not encode config: %v", err), "")
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return newConfigError(s.path, err, fmt.Sprintf("Could not write config file: %v", err), "")
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(s.path, 0o600); err != nil {
		return newConfigError(s.path, err, fmt.Sprintf("Could not set config file permissions: %v", err), "")
	}

	return nil
}

// APIKey resolves the API key to use. The TELNYX_API_KEY environment variable
// always wins. Otherwise profile (or the default profile) is looked up on disk.
// An empty key with a nil error means nothing is configured.
func (s *Store) APIKey(profile string) (string, error) {
	if key, ok := s.EnvAPIKey(); ok {
		return key, nil
	}

	cfg, err := s.Load()
	if err != nil {
		return "", err
	}

	name := profile
	if name == "" {
		name = cfg.DefaultProfile
	}
	if name == "" {
		name = DefaultProfileName
	}

	p, ok := cfg.Profiles[name]
	if !ok && profile != "" && len(cfg.Profiles) > 0 {
		return "", s.profileNotFound(cfg, profile)
	}

	return p.APIKey, nil
}

// SetAPIKey validates and stores apiKey under profile (DefaultProfileName if empty).
// The profile becomes the default when no existing profile is the default yet.
func (s *Store) SetAPIKey(apiKey, profile string) error {
	if !IsValidAPIKey(apiKey) {
		return newConfigError(s.path, ErrInvalidAPIKey, "Invalid API key format.",
			"Telnyx API keys typically start with \"KEY\" followed by alphanumeric characters.\n"+
				"Get your API key from: https://portal.telnyx.com/#/app/api-keys")
	}
	if profile == "" {
		profile = DefaultProfileName
	}

	cfg, err := s.Load()
	if err != nil {
		return err
	}

	hadDefault := cfg.DefaultProfile != "" && cfg.hasProfile(cfg.DefaultProfile)
	cfg.Profiles[profile] = Profile{APIKey: apiKey}
	if !hadDefault {
		cfg.DefaultProfile = profile
	}

	return s.Save(cfg)
}

// ListProfiles returns the stored profile names in sorted order.
func (s *Store) ListProfiles() ([]string, error) {
	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}
	return cfg.ProfileNames(), nil
}

// DefaultProfile returns the default profile name, or DefaultProfileName if unset.
func (s *Store) DefaultProfile() (string, error) {
	cfg, err := s.Load()
	if err != nil {
		return "", err
	}
	if cfg.DefaultProfile == "" {
		return DefaultProfileName, nil
	}
	return cfg.DefaultProfile, nil
}

// SetDefaultProfile marks name as the default profile.
func (s *Store) SetDefaultProfile(name string) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	if !cfg.hasProfile(name) {
		return s.profileNotFound(cfg, name)
	}

	cfg.DefaultProfile = name
	return s.Save(cfg)
}

// DeleteProfile removes name. When it was the default, the first remaining
// profile (sorted) becomes the default, or DefaultProfileName if none remain.
func (s *Store) DeleteProfile(name string) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	if !cfg.hasProfile(name) {
		return s.profileNotFound(cfg, name)
	}

	delete(cfg.Profiles, name)

	if cfg.DefaultProfile == name {
		cfg.DefaultProfile = DefaultProfileName
		if remaining := cfg.ProfileNames(); len(remaining) > 0 {
			cfg.DefaultProfile = remaining[0]
		}
	}

	return s.Save(cfg)
}

func (s *Store) profileNotFound(cfg *Config, name string) *ConfigError {
	available := "No profiles configured. Run \"telnyx auth setup\" first."
	if names := cfg.ProfileNames(); len(names) > 0 {
		available = "Available profiles: " + strings.Join(names, ", ")
	}
	return newConfigError(s.path, ErrProfileNotFound,
		fmt.Sprintf("Profile %q not found.", name),
		available+"\nTo create a new profile: telnyx auth setup --profile "+name)
}
