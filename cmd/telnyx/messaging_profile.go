package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/api"
	"github.com/telnyx/telnyx-cli/output"
)

type numberPoolSettings struct {
	Geomatch       bool `json:"geomatch"`
	LongCodeWeight int  `json:"long_code_weight"`
	TollFreeWeight int  `json:"toll_free_weight"`
}

type messagingProfile struct {
	ID                      string              `json:"id"`
	Name                    string              `json:"name"`
	Enabled                 bool                `json:"enabled"`
	WebhookURL              string              `json:"webhook_url"`
	WebhookFailoverURL      string              `json:"webhook_failover_url"`
	WebhookAPIVersion       string              `json:"webhook_api_version"`
	WhitelistedDestinations []string            `json:"whitelisted_destinations"`
	NumberPoolSettings      *numberPoolSettings `json:"number_pool_settings"`
	CreatedAt               string              `json:"created_at"`
	UpdatedAt               string              `json:"updated_at"`
}

func newMessagingProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "messaging-profile",
		Aliases: []string{"mp"},
		Short:   "Manage messaging profiles",
	}
	cmd.AddCommand(
		newMessagingProfileListCmd(),
		newMessagingProfileGetCmd(),
		newMessagingProfileCreateCmd(),
		newMessagingProfileDeleteCmd(),
	)
	return cmd
}

var messagingProfileColumns = output.Columns(
	"id", "ID",
	"name", "NAME",
	"enabled", "ON",
	"webhook", "WEBHOOK",
	"pool", "POOL",
	"created", "CREATED",
)

func messagingProfileRecord(p messagingProfile) output.Record {
	pool := check(false)
	if p.NumberPoolSettings != nil {
		pool = check(true)
	}
	created := "-"
	if len(p.CreatedAt) >= 10 {
		created = p.CreatedAt[:10]
	}
	return output.NewRecord(
		"id", shortID(p.ID, 12),
		"name", p.Name,
		"enabled", check(p.Enabled),
		"webhook", output.OrDash(output.Truncate(p.WebhookURL, 30)),
		"pool", pool,
		"created", created,
	)
}

func newMessagingProfileListCmd() *cobra.Command {
	var limit, page int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List messaging profiles",
		Long: `List messaging profiles.

Examples:
  telnyx messaging-profile list
  telnyx mp list --limit 50
  telnyx mp list -o ids`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Fetching messaging profiles...")
			path := withQuery("/messaging_profiles", pageQuery(limit, page))
			res, err := fetchList[messagingProfile](cmd.Context(), a.client.V2(), path, "data", a.opts())
			if err != nil {
				return err
			}
			return renderList(a, res, messagingProfileColumns, func(p messagingProfile) output.Record {
				rec := messagingProfileRecord(p)
				if !a.tableOnly() {
					rec.Set("id", p.ID)
				}
				return rec
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 25, "number of results to return")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

var messagingProfileDetailColumns = output.Columns(
	"id", "ID",
	"name", "Name",
	"enabled", "Enabled",
	"webhook", "Webhook",
	"failover", "Failover webhook",
	"api_version", "Webhook API",
	"destinations", "Destinations",
	"pool", "Number pool",
	"created", "Created",
	"updated", "Updated",
)

func messagingProfileDetailRecord(p messagingProfile) output.Record {
	pool := "disabled"
	if s := p.NumberPoolSettings; s != nil {
		pool = fmt.Sprintf("long code %d, toll-free %d, geomatch %s", s.LongCodeWeight, s.TollFreeWeight, check(s.Geomatch))
	}
	return output.NewRecord(
		"id", p.ID,
		"name", p.Name,
		"enabled", check(p.Enabled),
		"webhook", output.OrDash(p.WebhookURL),
		"failover", output.OrDash(p.WebhookFailoverURL),
		"api_version", output.OrDash(p.WebhookAPIVersion),
		"destinations", output.OrDash(strings.Join(p.WhitelistedDestinations, ", ")),
		"pool", pool,
		"created", formatTime(p.CreatedAt),
		"updated", formatTime(p.UpdatedAt),
	)
}

func newMessagingProfileGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <profile-id>",
		Short: "Get messaging profile details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			if err := api.ValidateID(id, "Profile ID"); err != nil {
				return err
			}

			a.ui.Info("Fetching messaging profile %s...", id)
			var body json.RawMessage
			if err := a.client.V2().Get(cmd.Context(), "/messaging_profiles/"+url.PathEscape(id), a.opts(), &body); err != nil {
				return err
			}

			var p messagingProfile
			raw, err := decodeData(body, &p)
			if err != nil {
				return err
			}
			return a.renderDetail(messagingProfileDetailRecord(p), messagingProfileDetailColumns, raw)
		},
	}
}

type messagingProfileCreateInput struct {
	Name               string              `json:"name" validate:"required" label:"name"`
	Enabled            bool                `json:"enabled"`
	WebhookURL         string              `json:"webhook_url,omitempty" validate:"omitempty,url" label:"webhook URL"`
	WebhookFailoverURL string              `json:"webhook_failover_url,omitempty" validate:"omitempty,url" label:"failover webhook URL"`
	NumberPoolSettings *numberPoolSettings `json:"number_pool_settings,omitempty"`
}

func newMessagingProfileCreateCmd() *cobra.Command {
	var (
		in   messagingProfileCreateInput
		pool numberPoolSettings
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a messaging profile",
		Long: `Create a messaging profile. Number pool settings are sent only when a
pool flag is given.

Examples:
  telnyx messaging-profile create --name alerts --webhook-url https://example.com/sms
  telnyx mp create -n bulk --geomatch --long-code-weight 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if f.Changed("geomatch") || f.Changed("long-code-weight") || f.Changed("toll-free-weight") {
				ps := pool
				in.NumberPoolSettings = &ps
			}
			if err := api.ValidateStruct(in); err != nil {
				return err
			}

			a.ui.Info("Creating messaging profile %q...", in.Name)
			var body json.RawMessage
			if err := a.client.V2().Post(cmd.Context(), "/messaging_profiles", in, a.opts(), &body); err != nil {
				return err
			}

			var p messagingProfile
			raw, err := decodeData(body, &p)
			if err != nil {
				return err
			}
			if a.tableOnly() {
				a.ui.Success("Messaging profile created!")
			}
			return a.renderDetail(messagingProfileDetailRecord(p), messagingProfileDetailColumns, raw)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in.Name, "name", "n", "", "profile name")
	f.BoolVar(&in.Enabled, "enabled", true, "enable the profile")
	f.StringVar(&in.WebhookURL, "webhook-url", "", "webhook URL for message events")
	f.StringVar(&in.WebhookFailoverURL, "webhook-failover-url", "", "failover webhook URL")
	f.BoolVar(&pool.Geomatch, "geomatch", false, "prefer senders in the destination's area code")
	f.IntVar(&pool.LongCodeWeight, "long-code-weight", 1, "number pool weight for long codes")
	f.IntVar(&pool.TollFreeWeight, "toll-free-weight", 1, "number pool weight for toll-free numbers")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newMessagingProfileDeleteCmd() *cobra.Command {
	var d *destructiveFlags

	cmd := &cobra.Command{
		Use:   "delete <profile-id>",
		Short: "Delete a messaging profile",
		Long: `Delete a messaging profile.

Examples:
  telnyx messaging-profile delete <id> --force
  telnyx mp delete <id> --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			if err := api.ValidateID(id, "Profile ID"); err != nil {
				return err
			}

			if d.dryRun {
				a.ui.DryRun("Would delete messaging profile %s", id)
				return nil
			}

			if err := d.confirm(a, fmt.Sprintf("Delete messaging profile %s? This cannot be undone", id)); err != nil {
				return err
			}

			a.ui.Info("Deleting messaging profile %s...", id)
			if err := a.client.V2().Delete(cmd.Context(), "/messaging_profiles/"+url.PathEscape(id), a.opts(), nil); err != nil {
				return err
			}
			a.ui.Success("Messaging profile deleted")
			return nil
		},
	}

	d = addDestructiveFlags(cmd)
	return cmd
}
