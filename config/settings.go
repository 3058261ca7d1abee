package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Default endpoints.
const (
	DefaultAPIURL        = "https://api.telnyx.com/v2"
	DefaultTenDLCURL     = "https://api.telnyx.com/10dlc"
	DefaultStorageURL    = "https://us-central-1.telnyxcloudstorage.com"
	DefaultStorageRegion = "us-central-1"
)

// settingsKey is the context key for storing the resolved settings.
type settingsKey struct{}

// WithContext returns a new context with the settings stored.
func WithContext(ctx context.Context, s *Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

// FromContext retrieves the settings from context.
// Returns an error if settings are not found.
func FromContext(ctx context.Context) (*Settings, error) {
	s, ok := ctx.Value(settingsKey{}).(*Settings)
	if !ok || s == nil {
		return nil, errors.New("settings not found in context")
	}
	return s, nil
}

// Settings holds the per-invocation options shared by every command.
type Settings struct {
	Endpoints `mapstructure:",squash"`

	Profile    string      `mapstructure:"profile"`
	Output     string      `mapstructure:"output" validate:"omitempty,oneof=table json csv tsv ids yaml"`
	JSON       bool        `mapstructure:"json"`
	Verbose    bool        `mapstructure:"verbose"`
	ConfigPath string      `mapstructure:"config"`
	Log        LogSettings `mapstructure:"log"`
}

// Endpoints holds the base URLs of the three API surfaces.
type Endpoints struct {
	APIURL        string `mapstructure:"api_url" validate:"required,url"`
	TenDLCURL     string `mapstructure:"tendlc_url" validate:"required,url"`
	StorageURL    string `mapstructure:"storage_url" validate:"required,url"`
	StorageRegion string `mapstructure:"storage_region" validate:"required"`
}

// LogSettings holds logging configuration.
type LogSettings struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"api-url":        "api_url",
	"tendlc-url":     "tendlc_url",
	"storage-url":    "storage_url",
	"storage-region": "storage_region",
	"log-level":      "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("profile", "")
	v.SetDefault("output", "")
	v.SetDefault("json", false)
	v.SetDefault("verbose", false)
	v.SetDefault("config", "")

	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("tendlc_url", DefaultTenDLCURL)
	v.SetDefault("storage_url", DefaultStorageURL)
	v.SetDefault("storage_region", DefaultStorageRegion)

	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "text")
}

// LoadSettings resolves settings with precedence flags > env (TELNYX_*) > defaults.
// flags may be nil.
func LoadSettings(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TELNYX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	// Enumerated values are matched case-insensitively.
	s.Output = strings.ToLower(strings.TrimSpace(s.Output))
	s.Log.Level = strings.ToLower(strings.TrimSpace(s.Log.Level))
	s.Log.Format = strings.ToLower(strings.TrimSpace(s.Log.Format))

	s.Endpoints.APIURL = strings.TrimSuffix(s.Endpoints.APIURL, "/")
	s.Endpoints.TenDLCURL = strings.TrimSuffix(s.Endpoints.TenDLCURL, "/")
	s.Endpoints.StorageURL = strings.TrimSuffix(s.Endpoints.StorageURL, "/")

	validate := validator.New()
	if err := validate.Struct(&s); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	return &s, nil
}

// LogLevel returns the effective log level: the configured one, else debug
// when verbose and warn otherwise.
func (s *Settings) LogLevel() string {
	if s.Log.Level != "" {
		return s.Log.Level
	}
	if s.Verbose {
		return "debug"
	}
	return "warn"
}
