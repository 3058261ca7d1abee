package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/api"
	"github.com/telnyx/telnyx-cli/output"
)

type brand struct {
	BrandID        string `json:"brandId"`
	DisplayName    string `json:"displayName"`
	EntityType     string `json:"entityType"`
	IdentityStatus string `json:"identityStatus"`
}

type campaign struct {
	CampaignID     string `json:"campaignId"`
	BrandID        string `json:"brandId"`
	Usecase        string `json:"usecase"`
	CampaignStatus string `json:"campaignStatus"`
	Status         string `json:"status"`
}

func newTenDLCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "10dlc",
		Short: "Inspect 10DLC brands and campaigns",
		Long: `Inspect 10DLC (ten-digit long code) brand and campaign registrations
used for application-to-person messaging in the US.`,
	}

	brandCmd := &cobra.Command{Use: "brand", Short: "10DLC brands"}
	brandCmd.AddCommand(newBrandListCmd())

	campaignCmd := &cobra.Command{Use: "campaign", Short: "10DLC campaigns"}
	campaignCmd.AddCommand(newCampaignListCmd())

	cmd.AddCommand(
		brandCmd,
		campaignCmd,
		newTenDLCEnumCmd("usecases", "List available campaign use cases", "/enum/usecase", "use cases", usecaseColumns),
		newTenDLCEnumCmd("verticals", "List available brand verticals", "/enum/vertical", "verticals", verticalColumns),
	)
	return cmd
}

var brandColumns = output.Columns(
	"brand_id", "BRAND_ID",
	"name", "NAME",
	"entity_type", "ENTITY_TYPE",
	"status", "STATUS",
)

func newBrandListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered brands",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Fetching brands...")
			res, err := fetchList[brand](cmd.Context(), a.client.TenDLC(), "/brand", "records", a.opts())
			if err != nil {
				return err
			}
			return renderList(a, res, brandColumns, func(b brand) output.Record {
				return output.NewRecord(
					"brand_id", b.BrandID,
					"name", output.OrDash(b.DisplayName),
					"entity_type", output.OrDash(b.EntityType),
					"status", output.OrDash(b.IdentityStatus),
				)
			})
		},
	}
}

var campaignColumns = output.Columns(
	"campaign_id", "CAMPAIGN_ID",
	"brand_id", "BRAND_ID",
	"usecase", "USECASE",
	"status", "STATUS",
)

func newCampaignListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list <brand-id>",
		Aliases: []string{"ls"},
		Short:   "List campaigns for a brand",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			brandID := args[0]
			if err := api.ValidateID(brandID, "brand ID"); err != nil {
				return err
			}

			a.ui.Info("Fetching campaigns for brand %s...", brandID)
			path := withQuery("/campaign", url.Values{"brandId": {brandID}})
			res, err := fetchList[campaign](cmd.Context(), a.client.TenDLC(), path, "records", a.opts())
			if err != nil {
				return err
			}
			return renderList(a, res, campaignColumns, func(c campaign) output.Record {
				status := c.CampaignStatus
				if status == "" {
					status = c.Status
				}
				return output.NewRecord(
					"campaign_id", c.CampaignID,
					"brand_id", c.BrandID,
					"usecase", output.OrDash(c.Usecase),
					"status", output.OrDash(status),
				)
			})
		},
	}
}

// tenDLCEnum is one entry of the 10DLC enumeration endpoints, which return an
// object keyed by enum value.
type tenDLCEnum struct {
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	Classification string `json:"classification"`
}

var (
	usecaseColumns = output.Columns(
		"key", "USECASE",
		"name", "NAME",
		"classification", "CLASS",
		"description", "DESCRIPTION",
	)
	verticalColumns = output.Columns(
		"key", "VERTICAL",
		"name", "NAME",
	)
)

func newTenDLCEnumCmd(use, short, path, noun string, columns []output.Column) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Fetching available %s...", noun)
			var body json.RawMessage
			if err := a.client.TenDLC().Get(cmd.Context(), path, a.opts(), &body); err != nil {
				return err
			}

			var entries map[string]tenDLCEnum
			if err := json.Unmarshal(body, &entries); err != nil {
				return fmt.Errorf("parse %s: %w", noun, err)
			}
			var raw any
			if err := json.Unmarshal(body, &raw); err != nil {
				return fmt.Errorf("parse %s: %w", noun, err)
			}

			keys := make([]string, 0, len(entries))
			for key := range entries {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			short := a.tableOnly()
			records := make([]output.Record, 0, len(keys))
			for _, key := range keys {
				e := entries[key]
				desc := e.Description
				if short {
					desc = output.Truncate(desc, 60)
				}
				records = append(records, output.NewRecord(
					"key", key,
					"name", output.OrDash(e.DisplayName),
					"classification", output.OrDash(e.Classification),
					"description", output.OrDash(desc),
				))
			}
			return a.render(records, columns, raw)
		},
	}
}
