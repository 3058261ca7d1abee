package main

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/telnyx/telnyx-cli/api"
	"github.com/telnyx/telnyx-cli/output"
)

// simStatus accepts both the bare string and the {"value": ...} object forms.
type simStatus string

func (s *simStatus) UnmarshalJSON(b []byte) error {
	r := gjson.ParseBytes(b)
	if r.IsObject() {
		r = r.Get("value")
	}
	*s = simStatus(r.String())
	return nil
}

type dataAmount struct {
	Amount json.Number `json:"amount"`
	Unit   string      `json:"unit"`
}

func (d *dataAmount) String() string {
	if d == nil {
		return "-"
	}
	return strings.TrimSpace(d.Amount.String() + " " + d.Unit)
}

type simCard struct {
	ID               string      `json:"id"`
	ICCID            string      `json:"iccid"`
	IMSI             string      `json:"imsi"`
	MSISDN           string      `json:"msisdn"`
	Status           simStatus   `json:"status"`
	SIMCardGroupID   string      `json:"sim_card_group_id"`
	SIMCardGroupName string      `json:"sim_card_group_name"`
	Tags             []string    `json:"tags"`
	IPv4             string      `json:"ipv4"`
	IPv6             string      `json:"ipv6"`
	DataUsed         *dataAmount `json:"current_billing_period_consumed_data"`
	DataLimit        *dataAmount `json:"data_limit"`
	CreatedAt        string      `json:"created_at"`
	UpdatedAt        string      `json:"updated_at"`
}

func newSIMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Manage IoT SIM cards",
	}
	cmd.AddCommand(
		newSIMListCmd(),
		newSIMGetCmd(),
		newSIMActionCmd("enable", "Enable a SIM card", "Enabling", "SIM enabled"),
		newSIMActionCmd("disable", "Disable a SIM card", "Disabling", "SIM disabled"),
	)
	return cmd
}

var simColumns = output.Columns(
	"id", "ID",
	"iccid", "ICCID",
	"msisdn", "MSISDN",
	"status", "STATUS",
	"tags", "TAGS",
)

type simListFilter struct {
	Status string `validate:"omitempty,oneof=enabled disabled standby data_limit_exceeded setting_up" label:"SIM status"`
}

func newSIMListCmd() *cobra.Command {
	var (
		limit  int
		page   int
		filter simListFilter
		iccid  string
		tag    string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List SIM cards",
		Long: `List SIM cards.

Examples:
  telnyx sim list
  telnyx sim list --status enabled
  telnyx sim list --tag fleet -o ids`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if err := api.ValidateStruct(filter); err != nil {
				return err
			}

			q := pageQuery(limit, page)
			filters := map[string]string{
				"filter[status]": filter.Status,
				"filter[iccid]":  iccid,
				"filter[tags]":   tag,
			}
			for key, value := range filters {
				if value != "" {
					q.Set(key, value)
				}
			}

			a.ui.Info("Fetching SIM cards...")
			res, err := fetchList[simCard](cmd.Context(), a.client.V2(), withQuery("/sim_cards", q), "data", a.opts())
			if err != nil {
				return err
			}

			short := a.tableOnly()
			return renderList(a, res, simColumns, func(s simCard) output.Record {
				id := s.ID
				if short {
					id = shortID(id, 12)
				}
				return output.NewRecord(
					"id", id,
					"iccid", s.ICCID,
					"msisdn", output.OrDash(s.MSISDN),
					"status", string(s.Status),
					"tags", output.OrDash(strings.Join(s.Tags, ", ")),
				)
			})
		},
	}

	f := cmd.Flags()
	f.IntVarP(&limit, "limit", "l", 25, "number of results to return")
	f.IntVar(&page, "page", 1, "page number")
	f.StringVar(&filter.Status, "status", "", "filter by status: enabled, disabled, standby, data_limit_exceeded, setting_up")
	f.StringVar(&iccid, "iccid", "", "filter by ICCID")
	f.StringVar(&tag, "tag", "", "filter by tag")
	return cmd
}

var simDetailColumns = output.Columns(
	"id", "ID",
	"iccid", "ICCID",
	"status", "Status",
	"imsi", "IMSI",
	"msisdn", "MSISDN",
	"ipv4", "IPv4",
	"ipv6", "IPv6",
	"group", "Group",
	"data_used", "Data used",
	"data_limit", "Data limit",
	"tags", "Tags",
	"created", "Created",
	"updated", "Updated",
)

func simDetailRecord(s simCard) output.Record {
	group := s.SIMCardGroupName
	if group == "" {
		group = s.SIMCardGroupID
	}
	return output.NewRecord(
		"id", s.ID,
		"iccid", s.ICCID,
		"status", string(s.Status),
		"imsi", output.OrDash(s.IMSI),
		"msisdn", output.OrDash(s.MSISDN),
		"ipv4", output.OrDash(s.IPv4),
		"ipv6", output.OrDash(s.IPv6),
		"group", output.OrDash(group),
		"data_used", s.DataUsed.String(),
		"data_limit", s.DataLimit.String(),
		"tags", output.OrDash(strings.Join(s.Tags, ", ")),
		"created", formatTime(s.CreatedAt),
		"updated", formatTime(s.UpdatedAt),
	)
}

func newSIMGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <sim-id>",
		Short: "Get SIM card details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			if err := api.ValidateID(id, "SIM ID"); err != nil {
				return err
			}

			a.ui.Info("Fetching SIM %s...", id)
			var body json.RawMessage
			if err := a.client.V2().Get(cmd.Context(), "/sim_cards/"+url.PathEscape(id), a.opts(), &body); err != nil {
				return err
			}

			var s simCard
			raw, err := decodeData(body, &s)
			if err != nil {
				return err
			}
			return a.renderDetail(simDetailRecord(s), simDetailColumns, raw)
		},
	}
}

var simActionColumns = output.Columns(
	"id", "ID",
	"status", "Status",
)

// newSIMActionCmd builds "sim enable" and "sim disable", which differ only in
// the action path and wording.
func newSIMActionCmd(action, short, progress, done string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <sim-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			if err := api.ValidateID(id, "SIM ID"); err != nil {
				return err
			}

			a.ui.Info("%s SIM %s...", progress, id)
			var body json.RawMessage
			path := "/sim_cards/" + url.PathEscape(id) + "/actions/" + action
			if err := a.client.V2().Post(cmd.Context(), path, map[string]any{}, a.opts(), &body); err != nil {
				return err
			}

			var s simCard
			raw, err := decodeData(body, &s)
			if err != nil {
				return err
			}
			if !a.tableOnly() {
				rec := output.NewRecord("id", s.ID, "status", string(s.Status))
				return a.renderDetail(rec, simActionColumns, raw)
			}
			a.ui.Success("%s (status: %s)", done, s.Status)
			return nil
		},
	}
}
