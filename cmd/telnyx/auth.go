package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/api"
	"github.com/telnyx/telnyx-cli/config"
	"github.com/telnyx/telnyx-cli/output"
)

type balance struct {
	Balance         string `json:"balance"`
	CreditLimit     string `json:"credit_limit"`
	AvailableCredit string `json:"available_credit"`
	Currency        string `json:"currency"`
}

// fetchBalance reads GET /balance through client.
func fetchBalance(ctx context.Context, client *api.Client, opts api.Options) (balance, any, error) {
	var body json.RawMessage
	if err := client.V2().Get(ctx, "/balance", opts, &body); err != nil {
		return balance{}, nil, err
	}
	var b balance
	raw, err := decodeData(body, &b)
	return b, raw, err
}

// staticKey resolves every profile to one key. auth setup uses it to test a
// key before saving it.
type staticKey string

func (k staticKey) APIKey(string) (string, error) {
	return string(k), nil
}

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
	}
	cmd.AddCommand(newAuthSetupCmd(), newAuthStatusCmd(), newAuthWhoamiCmd())
	return cmd
}

func newAuthSetupCmd() *cobra.Command {
	var apiKey string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Configure the API key for a profile",
		Long: `Configure the API key for a profile.

The key is validated against the API before it is saved. Without --api-key
the key is read from an interactive prompt.

Examples:
  telnyx auth setup
  telnyx auth setup --profile production
  telnyx auth setup --api-key KEY0123456789ABCDEF`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			profile := a.settings.Profile
			if profile == "" {
				profile = config.DefaultProfileName
			}

			key := strings.TrimSpace(apiKey)
			if key == "" {
				if key, err = a.promptAPIKey(); err != nil {
					return err
				}
			}
			if key == "" {
				return errors.New("API key cannot be empty")
			}

			a.ui.Info("Validating API key...")
			checker := api.New(staticKey(key),
				api.WithEndpoints(a.settings.Endpoints),
				api.WithTrace(a.logger),
			)
			if _, _, err := fetchBalance(cmd.Context(), checker, a.opts()); err != nil {
				return fmt.Errorf("invalid API key: %w", err)
			}

			if err := a.store.SetAPIKey(key, profile); err != nil {
				return err
			}

			a.ui.Success("API key saved to %s (profile: %s)", a.store.Path(), profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key to save (prompted when omitted)")
	return cmd
}

var authStatusColumns = output.Columns(
	"configured", "Configured",
	"profile", "Profile",
	"default_profile", "Default profile",
	"profiles", "Profiles",
	"using_env_var", "Using TELNYX_API_KEY",
	"config_path", "Config",
	"balance", "Balance",
	"currency", "Currency",
)

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current authentication status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			key, err := a.store.APIKey(a.settings.Profile)
			if err != nil {
				return err
			}
			profiles, err := a.store.ListProfiles()
			if err != nil {
				return err
			}
			defaultProfile, err := a.store.DefaultProfile()
			if err != nil {
				return err
			}
			profile, err := a.profileName()
			if err != nil {
				return err
			}
			_, usingEnv := a.store.EnvAPIKey()

			var (
				bal    balance
				balErr error
			)
			if key != "" {
				bal, _, balErr = fetchBalance(cmd.Context(), a.client, a.opts())
			}

			if !a.tableOnly() {
				if balErr != nil || key == "" {
					bal.Balance = "unknown"
				}
				rec := output.NewRecord(
					"configured", fmt.Sprint(key != ""),
					"profile", profile,
					"default_profile", defaultProfile,
					"profiles", strings.Join(profiles, ","),
					"using_env_var", fmt.Sprint(usingEnv),
					"config_path", a.store.Path(),
					"balance", bal.Balance,
					"currency", bal.Currency,
				)
				return a.renderDetail(rec, authStatusColumns, map[string]any{
					"configured":     key != "",
					"configPath":     a.store.Path(),
					"profiles":       profiles,
					"defaultProfile": defaultProfile,
					"usingEnvVar":    usingEnv,
					"balance":        bal.Balance,
					"currency":       bal.Currency,
				})
			}

			if key == "" {
				a.ui.Warn("No API key configured")
				a.linef(`Run "telnyx auth setup" to configure`)
				return nil
			}

			a.ui.Success("API key configured")
			if usingEnv {
				a.ui.Info("Using %s environment variable", config.EnvAPIKey)
			} else {
				a.ui.Info("Config: %s", a.store.Path())
				a.ui.Info("Profile: %s", profile)
			}
			if len(profiles) > 1 {
				a.ui.Info("Available profiles: %s", strings.Join(profiles, ", "))
			}

			if balErr != nil {
				a.ui.Warn("Could not fetch balance: %v", balErr)
				return nil
			}
			a.ui.Info("Account balance: $%s %s", bal.Balance, bal.Currency)
			return nil
		},
	}
}

var whoamiColumns = output.Columns(
	"profile", "Profile",
	"config_path", "Config",
	"profiles", "Profiles",
	"balance", "Balance",
)

func newAuthWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the active profile and account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			profile, err := a.profileName()
			if err != nil {
				return err
			}
			profiles, err := a.store.ListProfiles()
			if err != nil {
				return err
			}

			a.ui.Info("Fetching account details...")
			bal, raw, err := fetchBalance(cmd.Context(), a.client, a.opts())
			if err != nil {
				if errors.Is(err, api.ErrNoAPIKey) {
					return err
				}
				a.ui.Warn("Could not fetch balance: %v", err)
			}

			balanceText := "-"
			if bal.Balance != "" {
				balanceText = bal.Balance + " " + bal.Currency
			}
			rec := output.NewRecord(
				"profile", profile,
				"config_path", a.store.Path(),
				"profiles", output.OrDash(strings.Join(profiles, ", ")),
				"balance", balanceText,
			)
			return a.renderDetail(rec, whoamiColumns, map[string]any{
				"profile":           profile,
				"configPath":        a.store.Path(),
				"availableProfiles": profiles,
				"account":           raw,
			})
		},
	}
}
