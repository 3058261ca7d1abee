package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/telnyx/telnyx-cli/api"
	"github.com/telnyx/telnyx-cli/output"
)

type phoneNumber struct {
	ID                    string   `json:"id"`
	PhoneNumber           string   `json:"phone_number"`
	Status                string   `json:"status"`
	ConnectionID          string   `json:"connection_id"`
	ConnectionName        string   `json:"connection_name"`
	MessagingProfileID    string   `json:"messaging_profile_id"`
	MessagingProfileName  string   `json:"messaging_profile_name"`
	BillingGroupID        string   `json:"billing_group_id"`
	EmergencyEnabled      bool     `json:"emergency_enabled"`
	CallForwardingEnabled bool     `json:"call_forwarding_enabled"`
	CNAMListingEnabled    bool     `json:"cnam_listing_enabled"`
	CallRecordingEnabled  bool     `json:"call_recording_enabled"`
	T38FaxGatewayEnabled  bool     `json:"t38_fax_gateway_enabled"`
	Tags                  []string `json:"tags"`
	CreatedAt             string   `json:"created_at"`
	PurchasedAt           string   `json:"purchased_at"`
}

func newNumberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "number",
		Short: "Manage phone numbers",
	}
	cmd.AddCommand(
		newNumberListCmd(),
		newNumberGetCmd(),
		newNumberSearchCmd(),
		newNumberOrderCmd(),
		newNumberUpdateCmd(),
		newNumberDeleteCmd(),
	)
	return cmd
}

var numberColumns = output.Columns(
	"number", "NUMBER",
	"status", "STATUS",
	"connection", "VOICE",
	"messaging", "MESSAGING",
	"tags", "TAGS",
)

func numberRecord(n phoneNumber) output.Record {
	return output.NewRecord(
		"number", n.PhoneNumber,
		"status", n.Status,
		"connection", output.OrDash(n.ConnectionName),
		"messaging", output.OrDash(n.MessagingProfileName),
		"tags", output.OrDash(strings.Join(n.Tags, ", ")),
		"id", n.ID,
	)
}

func newNumberListCmd() *cobra.Command {
	var (
		limit    int
		page     int
		status   string
		tag      string
		contains string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your phone numbers",
		Long: `List your phone numbers.

Examples:
  telnyx number list
  telnyx number list --limit 50
  telnyx number list --status active
  telnyx number list --tag production -o ids`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			q := pageQuery(limit, page)
			if status != "" {
				q.Set("filter[status]", status)
			}
			if tag != "" {
				q.Set("filter[tag]", tag)
			}
			if contains != "" {
				q.Set("filter[phone_number][contains]", contains)
			}

			a.ui.Info("Fetching phone numbers...")
			res, err := fetchList[phoneNumber](cmd.Context(), a.client.V2(), withQuery("/phone_numbers", q), "data", a.opts())
			if err != nil {
				return err
			}
			return renderList(a, res, numberColumns, numberRecord)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 25, "number of results to return")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (active, pending, deleted)")
	cmd.Flags().StringVar(&tag, "tag", "", "filter by tag")
	cmd.Flags().StringVar(&contains, "contains", "", "filter by number pattern")
	return cmd
}

var numberDetailColumns = output.Columns(
	"number", "Number",
	"id", "ID",
	"status", "Status",
	"voice", "Voice",
	"messaging", "Messaging",
	"emergency", "Emergency",
	"call_forwarding", "Call Forwarding",
	"cnam_listing", "CNAM Listing",
	"call_recording", "Call Recording",
	"t38_fax", "T.38 Fax",
	"tags", "Tags",
	"created", "Created",
	"purchased", "Purchased",
)

func withID(name, id string) string {
	switch {
	case name == "":
		return "-"
	case id == "":
		return name
	default:
		return name + " (" + id + ")"
	}
}

func numberDetailRecord(n phoneNumber) output.Record {
	return output.NewRecord(
		"number", n.PhoneNumber,
		"id", n.ID,
		"status", n.Status,
		"voice", withID(n.ConnectionName, n.ConnectionID),
		"messaging", withID(n.MessagingProfileName, n.MessagingProfileID),
		"emergency", check(n.EmergencyEnabled),
		"call_forwarding", check(n.CallForwardingEnabled),
		"cnam_listing", check(n.CNAMListingEnabled),
		"call_recording", check(n.CallRecordingEnabled),
		"t38_fax", check(n.T38FaxGatewayEnabled),
		"tags", output.OrDash(strings.Join(n.Tags, ", ")),
		"created", formatTime(n.CreatedAt),
		"purchased", formatTime(n.PurchasedAt),
	)
}

func newNumberGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <number-or-id>",
		Short: "Get details of a phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Fetching number %s...", args[0])
			var body json.RawMessage
			if err := a.client.V2().Get(cmd.Context(), "/phone_numbers/"+pathSegment(args[0]), a.opts(), &body); err != nil {
				return err
			}

			var n phoneNumber
			raw, err := decodeData(body, &n)
			if err != nil {
				return err
			}
			return a.renderDetail(numberDetailRecord(n), numberDetailColumns, raw)
		},
	}
}

type availableNumber struct {
	PhoneNumber       string `json:"phone_number"`
	RegionInformation []struct {
		RegionType string `json:"region_type"`
		RegionName string `json:"region_name"`
	} `json:"region_information"`
	CostInformation struct {
		UpfrontCost string `json:"upfront_cost"`
		MonthlyCost string `json:"monthly_cost"`
		Currency    string `json:"currency"`
	} `json:"cost_information"`
	Features []struct {
		Name string `json:"name"`
	} `json:"features"`
}

var availableNumberColumns = output.Columns(
	"number", "NUMBER",
	"region", "REGION",
	"monthly", "MONTHLY",
	"upfront", "UPFRONT",
	"features", "FEATURES",
)

func availableNumberRecord(n availableNumber) output.Record {
	region := ""
	if len(n.RegionInformation) > 0 {
		region = n.RegionInformation[0].RegionName
	}
	features := make([]string, 0, len(n.Features))
	for _, f := range n.Features {
		features = append(features, f.Name)
	}
	cost := n.CostInformation
	return output.NewRecord(
		"number", n.PhoneNumber,
		"region", output.OrDash(region),
		"monthly", cost.MonthlyCost+" "+cost.Currency,
		"upfront", cost.UpfrontCost+" "+cost.Currency,
		"features", output.OrDash(strings.Join(features, ", ")),
	)
}

func newNumberSearchCmd() *cobra.Command {
	var (
		country    string
		numberType string
		locality   string
		areaCode   string
		contains   string
		startsWith string
		endsWith   string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search for available phone numbers",
		Long: `Search for available phone numbers.

Examples:
  telnyx number search --country US
  telnyx number search --country US --contains 555
  telnyx number search --country US --locality "New York" --limit 10
  telnyx number search --country CA --type toll_free`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			country = strings.ToUpper(country)
			q := url.Values{}
			q.Set("filter[country_code]", country)
			q.Set("filter[limit]", strconv.Itoa(limit))
			optional := map[string]string{
				"filter[phone_number_type]":         numberType,
				"filter[locality]":                  locality,
				"filter[national_destination_code]": areaCode,
				"filter[phone_number][contains]":    contains,
				"filter[phone_number][starts_with]": startsWith,
				"filter[phone_number][ends_with]":   endsWith,
			}
			for key, value := range optional {
				if value != "" {
					q.Set(key, value)
				}
			}

			a.ui.Info("Searching for numbers in %s...", country)
			res, err := fetchList[availableNumber](cmd.Context(), a.client.V2(), withQuery("/available_phone_numbers", q), "data", a.opts())
			if err != nil {
				return err
			}
			res.Meta = nil

			if err := renderList(a, res, availableNumberColumns, availableNumberRecord); err != nil {
				return err
			}
			if a.tableOnly() && len(res.Items) > 0 {
				a.linef("")
				a.linef("%d number(s) found", len(res.Items))
				a.linef(`Use "telnyx number order <number>" to purchase`)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&country, "country", "c", "", "ISO country code (e.g. US, CA, GB)")
	cmd.Flags().StringVarP(&numberType, "type", "t", "", "number type: local, toll_free, national, mobile")
	cmd.Flags().StringVar(&locality, "locality", "", "city or locality name")
	cmd.Flags().StringVar(&areaCode, "area-code", "", "area code / NPA")
	cmd.Flags().StringVar(&contains, "contains", "", "pattern to match in number")
	cmd.Flags().StringVar(&startsWith, "starts-with", "", "digits the number should start with")
	cmd.Flags().StringVar(&endsWith, "ends-with", "", "digits the number should end with")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "number of results to return")
	_ = cmd.MarkFlagRequired("country")
	return cmd
}

type numberOrder struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	PhoneNumbersCount int    `json:"phone_numbers_count"`
	PhoneNumbers      []struct {
		PhoneNumber            string `json:"phone_number"`
		Status                 string `json:"status"`
		RegulatoryRequirements []struct {
			RequirementType string `json:"requirement_type"`
		} `json:"regulatory_requirements"`
	} `json:"phone_numbers"`
}

type orderedNumber struct {
	PhoneNumber        string `json:"phone_number"`
	MessagingProfileID string `json:"messaging_profile_id,omitempty"`
	ConnectionID       string `json:"connection_id,omitempty"`
	BillingGroupID     string `json:"billing_group_id,omitempty"`
}

var orderColumns = output.Columns(
	"number", "NUMBER",
	"status", "STATUS",
	"requirements", "REQUIRES",
)

func newNumberOrderCmd() *cobra.Command {
	var messagingProfileID, connectionID, billingGroupID string

	cmd := &cobra.Command{
		Use:   "order <number> [number...]",
		Short: "Order (purchase) phone numbers",
		Long: `Order (purchase) phone numbers.

Examples:
  telnyx number order +15551234567
  telnyx number order +15551234567 +15551234568
  telnyx number order +15551234567 --messaging-profile-id abc123`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			numbers := make([]orderedNumber, 0, len(args))
			for _, num := range args {
				if err := api.ValidatePhone(num); err != nil {
					return err
				}
				numbers = append(numbers, orderedNumber{
					PhoneNumber:        num,
					MessagingProfileID: messagingProfileID,
					ConnectionID:       connectionID,
					BillingGroupID:     billingGroupID,
				})
			}

			a.ui.Info("Ordering %d number(s)...", len(numbers))
			var body json.RawMessage
			payload := map[string]any{"phone_numbers": numbers}
			if err := a.client.V2().Post(cmd.Context(), "/number_orders", payload, a.opts(), &body); err != nil {
				return err
			}

			var order numberOrder
			raw, err := decodeData(body, &order)
			if err != nil {
				return err
			}
			if !a.tableOnly() {
				return a.render(nil, orderColumns, raw)
			}

			a.ui.Success("Number order created!")
			a.linef("Order ID: %s", order.ID)
			a.linef("Status:   %s", order.Status)
			a.linef("Numbers:  %d", order.PhoneNumbersCount)
			a.linef("")

			records := make([]output.Record, 0, len(order.PhoneNumbers))
			for _, pn := range order.PhoneNumbers {
				reqs := make([]string, 0, len(pn.RegulatoryRequirements))
				for _, r := range pn.RegulatoryRequirements {
					reqs = append(reqs, r.RequirementType)
				}
				records = append(records, output.NewRecord(
					"number", pn.PhoneNumber,
					"status", pn.Status,
					"requirements", output.OrDash(strings.Join(reqs, ", ")),
				))
			}
			return a.render(records, orderColumns, nil)
		},
	}

	cmd.Flags().StringVar(&messagingProfileID, "messaging-profile-id", "", "messaging profile to assign")
	cmd.Flags().StringVar(&connectionID, "connection-id", "", "voice connection to assign")
	cmd.Flags().StringVar(&billingGroupID, "billing-group-id", "", "billing group to assign")
	return cmd
}

// numberUpdate builds the sparse PATCH document from the flags that were set.
type numberUpdate struct {
	connectionID       string
	messagingProfileID string
	billingGroupID     string
	tags               string
	emergencyAddressID string
	emergency          bool
	callForwarding     bool
	cnamListing        bool
	callerIDName       bool
}

func (u *numberUpdate) payload(cmd *cobra.Command) ([]byte, error) {
	doc := []byte("{}")
	set := func(flag, path string, value any) error {
		if !cmd.Flags().Changed(flag) {
			return nil
		}
		var err error
		doc, err = sjson.SetBytes(doc, path, value)
		return err
	}

	var tags []string
	for _, t := range strings.Split(u.tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if tags == nil {
		tags = []string{}
	}

	steps := []struct {
		flag  string
		path  string
		value any
	}{
		{"connection-id", "connection_id", u.connectionID},
		{"messaging-profile-id", "messaging_profile_id", u.messagingProfileID},
		{"billing-group-id", "billing_group_id", u.billingGroupID},
		{"tags", "tags", tags},
		{"emergency-enabled", "emergency_enabled", u.emergency},
		{"emergency-address-id", "emergency_address_id", u.emergencyAddressID},
		{"call-forwarding", "call_forwarding_enabled", u.callForwarding},
		{"cnam-listing", "cnam_listing_enabled", u.cnamListing},
		{"caller-id-name", "caller_id_name_enabled", u.callerIDName},
	}
	for _, s := range steps {
		if err := set(s.flag, s.path, s.value); err != nil {
			return nil, fmt.Errorf("build update: %w", err)
		}
	}
	return doc, nil
}

var numberUpdateColumns = output.Columns(
	"number", "Number",
	"connection", "Connection",
	"messaging", "Messaging profile",
	"billing_group", "Billing group",
	"tags", "Tags",
	"emergency", "E911 enabled",
	"call_forwarding", "Call forwarding",
)

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func newNumberUpdateCmd() *cobra.Command {
	var (
		u numberUpdate
		d *destructiveFlags
	)

	cmd := &cobra.Command{
		Use:   "update <number>",
		Short: "Update settings for a phone number",
		Long: `Update settings for a phone number. Only the flags given are sent.

Examples:
  telnyx number update +15551234567 --connection-id <id>
  telnyx number update +15551234567 --tags production,us-west
  telnyx number update +15551234567 --call-forwarding=false --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			number := args[0]
			if err := api.ValidatePhone(number); err != nil {
				return err
			}

			payload, err := u.payload(cmd)
			if err != nil {
				return err
			}
			if string(payload) == "{}" {
				a.ui.Warn("No updates specified. Use --help to see available options.")
				return nil
			}

			a.ui.Info("Updating %s...", number)
			if d.dryRun || a.settings.Verbose {
				a.ui.Plain("Updates:")
				var fields map[string]json.RawMessage
				if err := json.Unmarshal(payload, &fields); err != nil {
					return err
				}
				keys := make([]string, 0, len(fields))
				for key := range fields {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					a.ui.Plain("  %s: %s", key, fields[key])
				}
			}
			if d.dryRun {
				a.ui.DryRun("Would update phone number with the above settings")
				return nil
			}

			var body json.RawMessage
			if err := a.client.V2().Patch(cmd.Context(), "/phone_numbers/"+pathSegment(number), json.RawMessage(payload), a.opts(), &body); err != nil {
				return err
			}

			var n phoneNumber
			raw, err := decodeData(body, &n)
			if err != nil {
				return err
			}
			if a.tableOnly() {
				a.ui.Success("Updated %s", n.PhoneNumber)
			}
			rec := output.NewRecord(
				"number", n.PhoneNumber,
				"connection", output.OrDash(n.ConnectionID),
				"messaging", output.OrDash(n.MessagingProfileID),
				"billing_group", output.OrDash(n.BillingGroupID),
				"tags", output.OrDash(strings.Join(n.Tags, ", ")),
				"emergency", yesNo(n.EmergencyEnabled),
				"call_forwarding", yesNo(n.CallForwardingEnabled),
			)
			return a.renderDetail(rec, numberUpdateColumns, raw)
		},
	}

	f := cmd.Flags()
	f.StringVar(&u.connectionID, "connection-id", "", "voice connection ID to assign")
	f.StringVar(&u.messagingProfileID, "messaging-profile-id", "", "messaging profile ID to assign")
	f.StringVar(&u.billingGroupID, "billing-group-id", "", "billing group ID to assign")
	f.StringVarP(&u.tags, "tags", "t", "", "comma-separated tags")
	f.BoolVar(&u.emergency, "emergency-enabled", false, "enable E911 emergency services")
	f.StringVar(&u.emergencyAddressID, "emergency-address-id", "", "E911 address ID")
	f.BoolVar(&u.callForwarding, "call-forwarding", false, "enable call forwarding")
	f.BoolVar(&u.cnamListing, "cnam-listing", false, "enable CNAM listing")
	f.BoolVar(&u.callerIDName, "caller-id-name", false, "enable caller ID name")
	d = addDestructiveFlags(cmd)
	return cmd
}

func newNumberDeleteCmd() *cobra.Command {
	var d *destructiveFlags

	cmd := &cobra.Command{
		Use:   "delete <number-or-id>",
		Short: "Delete (release) a phone number",
		Long: `Delete (release) a phone number.

Examples:
  telnyx number delete +15551234567 --force
  telnyx number delete +15551234567 --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			number := args[0]

			if d.dryRun {
				a.ui.DryRun("Would release phone number %s", number)
				a.ui.DryRun("The number would become available for others to purchase.")
				return nil
			}

			if err := d.confirm(a, fmt.Sprintf("This will permanently release %s. The number will become available for others to purchase. Continue", number)); err != nil {
				return err
			}

			a.ui.Info("Deleting number %s...", number)
			if err := a.client.V2().Delete(cmd.Context(), "/phone_numbers/"+pathSegment(number), a.opts(), nil); err != nil {
				return err
			}
			a.ui.Success("Number %s released", number)
			return nil
		},
	}

	d = addDestructiveFlags(cmd)
	return cmd
}
