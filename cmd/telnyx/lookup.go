package main

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/api"
	"github.com/telnyx/telnyx-cli/output"
)

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Look up phone number information",
	}
	cmd.AddCommand(newLookupNumberCmd())
	return cmd
}

type lookupCarrier struct {
	Name              string `json:"name"`
	Type              string `json:"type"`
	MobileCountryCode string `json:"mobile_country_code"`
	MobileNetworkCode string `json:"mobile_network_code"`
}

type lookupCallerName struct {
	CallerName string `json:"caller_name"`
}

type lookupPortability struct {
	PortedStatus string `json:"ported_status"`
	PortedDate   string `json:"ported_date"`
	SPID         string `json:"spid"`
	SPIDCarrier  string `json:"spid_carrier_name"`
	LineType     string `json:"line_type"`
	City         string `json:"city"`
	State        string `json:"state"`
}

type lookupResult struct {
	PhoneNumber    string             `json:"phone_number"`
	CountryCode    string             `json:"country_code"`
	NationalFormat string             `json:"national_format"`
	Carrier        *lookupCarrier     `json:"carrier"`
	CallerName     *lookupCallerName  `json:"caller_name"`
	Portability    *lookupPortability `json:"portability"`
}

type lookupType struct {
	Value string `validate:"oneof=carrier caller-name portability" label:"lookup type"`
}

func newLookupNumberCmd() *cobra.Command {
	var types []string

	cmd := &cobra.Command{
		Use:   "number <phone-number>",
		Short: "Look up carrier, caller name and portability data",
		Long: `Look up carrier, caller name and portability data for a phone number.

Examples:
  telnyx lookup number +15551234567
  telnyx lookup number +15551234567 --type carrier,caller-name
  telnyx lookup number +15551234567 -t portability --json`,
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

			q := url.Values{}
			for _, t := range types {
				t = strings.ToLower(strings.TrimSpace(t))
				if err := api.ValidateStruct(lookupType{Value: t}); err != nil {
					return err
				}
				q.Add("type[]", t)
			}

			a.ui.Info("Looking up %s...", number)
			var body json.RawMessage
			path := withQuery("/number_lookup/"+pathSegment(number), q)
			if err := a.client.V2().Get(cmd.Context(), path, a.opts(), &body); err != nil {
				return err
			}

			var res lookupResult
			raw, err := decodeData(body, &res)
			if err != nil {
				return err
			}
			rec, cols := lookupRecord(res)
			return a.renderDetail(rec, cols, raw)
		},
	}

	cmd.Flags().StringSliceVarP(&types, "type", "t", []string{"carrier"}, "lookup types: carrier, caller-name, portability")
	return cmd
}

// lookupRecord shows only the sections the response carries.
func lookupRecord(res lookupResult) (output.Record, []output.Column) {
	kv := []string{
		"phone_number", "Phone number", res.PhoneNumber,
		"national_format", "National format", output.OrDash(res.NationalFormat),
		"country_code", "Country", output.OrDash(res.CountryCode),
	}
	if c := res.Carrier; c != nil {
		kv = append(kv,
			"carrier", "Carrier", output.OrDash(c.Name),
			"carrier_type", "Line type", output.OrDash(c.Type),
			"mcc", "MCC", output.OrDash(c.MobileCountryCode),
			"mnc", "MNC", output.OrDash(c.MobileNetworkCode),
		)
	}
	if c := res.CallerName; c != nil {
		kv = append(kv, "caller_name", "Caller name", output.OrDash(c.CallerName))
	}
	if p := res.Portability; p != nil {
		location := strings.Trim(p.City+", "+p.State, ", ")
		kv = append(kv,
			"ported_status", "Ported", output.OrDash(p.PortedStatus),
			"ported_date", "Ported date", output.OrDash(p.PortedDate),
			"spid", "SPID", output.OrDash(p.SPID),
			"spid_carrier", "SPID carrier", output.OrDash(p.SPIDCarrier),
			"portability_line_type", "Portability line type", output.OrDash(p.LineType),
			"location", "Location", output.OrDash(location),
		)
	}

	var recKV, colKV []string
	for i := 0; i < len(kv); i += 3 {
		colKV = append(colKV, kv[i], kv[i+1])
		recKV = append(recKV, kv[i], kv[i+2])
	}
	return output.NewRecord(recKV...), output.Columns(colKV...)
}
