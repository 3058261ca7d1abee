package main

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/api"
	"github.com/telnyx/telnyx-cli/output"
)

type call struct {
	CallControlID string `json:"call_control_id"`
	CallLegID     string `json:"call_leg_id"`
	CallSessionID string `json:"call_session_id"`
	IsAlive       bool   `json:"is_alive"`
	Direction     string `json:"direction"`
	From          string `json:"from"`
	To            string `json:"to"`
	State         string `json:"state"`
	StartTime     string `json:"start_time"`
}

func (c call) state() string {
	if c.State != "" {
		return c.State
	}
	if c.IsAlive {
		return "active"
	}
	return "ended"
}

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Place and control voice calls",
	}
	cmd.AddCommand(
		newCallDialCmd(),
		newCallListCmd(),
		newCallHangupCmd(),
		newCallSpeakCmd(),
		newCallTransferCmd(),
	)
	return cmd
}

type customHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type dialRequest struct {
	ConnectionID              string         `json:"connection_id" validate:"required,telnyx_id" label:"Connection ID"`
	From                      string         `json:"from" validate:"telnyx_phone"`
	To                        string         `json:"to"`
	WebhookURL                string         `json:"webhook_url,omitempty"`
	TimeoutSecs               int            `json:"timeout_secs"`
	AnsweringMachineDetection string         `json:"answering_machine_detection,omitempty"`
	CustomHeaders             []customHeader `json:"custom_headers,omitempty"`
}

var dialColumns = output.Columns(
	"call_control_id", "Call Control ID",
	"call_leg_id", "Call Leg ID",
	"call_session_id", "Session ID",
	"state", "Status",
)

func newCallDialCmd() *cobra.Command {
	var (
		req          dialRequest
		callerIDName string
	)

	cmd := &cobra.Command{
		Use:   "dial",
		Short: "Place an outbound call",
		Long: `Place an outbound call through a Call Control connection.

Examples:
  telnyx call dial --from +15551234567 --to +15559876543 --connection-id <id>
  telnyx call dial -f +15551234567 -t sip:alice@example.com --connection-id <id> --webhook-url https://example.com/hook`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			if err := api.ValidateStruct(req); err != nil {
				return err
			}
			// SIP URIs are accepted as destinations.
			if strings.HasPrefix(req.To, "+") {
				if err := api.ValidatePhone(req.To); err != nil {
					return err
				}
			}
			if callerIDName != "" {
				req.CustomHeaders = []customHeader{{Name: "P-Asserted-Identity", Value: callerIDName}}
			}

			a.ui.Info("Dialing %s from %s...", req.To, req.From)
			var body json.RawMessage
			if err := a.client.V2().Post(cmd.Context(), "/calls", req, a.opts(), &body); err != nil {
				return err
			}

			var c call
			raw, err := decodeData(body, &c)
			if err != nil {
				return err
			}
			if a.tableOnly() {
				a.ui.Success("Call initiated!")
			}
			rec := output.NewRecord(
				"call_control_id", c.CallControlID,
				"call_leg_id", output.OrDash(c.CallLegID),
				"call_session_id", output.OrDash(c.CallSessionID),
				"state", c.state(),
			)
			if err := a.renderDetail(rec, dialColumns, raw); err != nil {
				return err
			}
			if a.tableOnly() {
				a.linef("")
				a.linef(`Use "telnyx call hangup %s" to end the call`, c.CallControlID)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&req.From, "from", "f", "", "caller ID phone number (E.164)")
	f.StringVarP(&req.To, "to", "t", "", "destination phone number or SIP URI")
	f.StringVar(&req.ConnectionID, "connection-id", "", "Call Control connection ID")
	f.StringVar(&req.WebhookURL, "webhook-url", "", "webhook URL for call events")
	f.IntVar(&req.TimeoutSecs, "timeout-secs", 30, "seconds to wait for an answer")
	f.StringVar(&req.AnsweringMachineDetection, "answering-machine-detection", "", "detection mode: premium, detect, detect_beep, detect_words, greeting_end")
	f.StringVar(&callerIDName, "caller-id-name", "", "caller ID name")
	for _, name := range []string{"from", "to", "connection-id"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

var callColumns = output.Columns(
	"call_control_id", "CALL_CONTROL_ID",
	"direction", "DIR",
	"from", "FROM",
	"to", "TO",
	"state", "STATE",
	"started", "STARTED",
)

func newCallListCmd() *cobra.Command {
	var (
		limit        int
		page         int
		connectionID string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List active calls",
		Long: `List active calls.

Examples:
  telnyx call list
  telnyx call list --connection-id <id> -o ids`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			q := pageQuery(limit, page)
			if connectionID != "" {
				q.Set("filter[connection_id]", connectionID)
			}

			a.ui.Info("Fetching active calls...")
			res, err := fetchList[call](cmd.Context(), a.client.V2(), withQuery("/calls", q), "data", a.opts())
			if err != nil {
				return err
			}

			short := a.tableOnly()
			err = renderList(a, res, callColumns, func(c call) output.Record {
				id := c.CallControlID
				if short {
					id = shortID(id, 20)
				}
				return output.NewRecord(
					"call_control_id", id,
					"direction", output.OrDash(c.Direction),
					"from", c.From,
					"to", c.To,
					"state", c.state(),
					"started", formatTime(c.StartTime),
				)
			})
			if err != nil {
				return err
			}
			if short && len(res.Items) > 0 {
				a.linef("%d active call(s)", len(res.Items))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 25, "number of results to return")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&connectionID, "connection-id", "", "filter by connection ID")
	return cmd
}

func newCallHangupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hangup <call-control-id>",
		Short: "Hang up an active call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]

			a.ui.Info("Hanging up call %s...", shortID(id, 20))
			payload := map[string]string{"command_id": uuid.NewString()}
			path := "/calls/" + url.PathEscape(id) + "/actions/hangup"
			if err := a.client.V2().Post(cmd.Context(), path, payload, a.opts(), nil); err != nil {
				return err
			}
			a.ui.Success("Call ended")
			return nil
		},
	}
}

type speakRequest struct {
	Payload   string `json:"payload" validate:"required" label:"text"`
	Voice     string `json:"voice" validate:"oneof=male female" label:"voice"`
	Language  string `json:"language"`
	CommandID string `json:"command_id"`
}

func newCallSpeakCmd() *cobra.Command {
	var req speakRequest

	cmd := &cobra.Command{
		Use:   "speak <call-control-id> <text>",
		Short: "Speak text on an active call",
		Long: `Speak text on an active call using text-to-speech.

Examples:
  telnyx call speak <id> "Your order has shipped"
  telnyx call speak <id> "Bonjour" --voice male --language fr-FR`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			req.Payload = args[1]
			req.Voice = strings.ToLower(req.Voice)
			if err := api.ValidateStruct(req); err != nil {
				return err
			}
			req.CommandID = uuid.NewString()

			a.ui.Info("Speaking on call %s...", shortID(id, 20))
			path := "/calls/" + url.PathEscape(id) + "/actions/speak"
			if err := a.client.V2().Post(cmd.Context(), path, req, a.opts(), nil); err != nil {
				return err
			}
			a.ui.Success("Speak command sent")
			return nil
		},
	}

	// No -v shorthand: it belongs to --verbose.
	cmd.Flags().StringVar(&req.Voice, "voice", "female", "voice: male, female")
	cmd.Flags().StringVarP(&req.Language, "language", "l", "en-US", "language code")
	return cmd
}

type transferRequest struct {
	To          string `json:"to"`
	TimeoutSecs int    `json:"timeout_secs"`
	CommandID   string `json:"command_id"`
}

func newCallTransferCmd() *cobra.Command {
	var timeout int

	cmd := &cobra.Command{
		Use:   "transfer <call-control-id> <destination>",
		Short: "Transfer an active call",
		Long: `Transfer an active call to a phone number or SIP URI.

Examples:
  telnyx call transfer <id> +15559876543
  telnyx call transfer <id> sip:desk@example.com --timeout 45`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			id, to := args[0], args[1]
			if strings.HasPrefix(to, "+") {
				if err := api.ValidatePhone(to); err != nil {
					return err
				}
			}

			a.ui.Info("Transferring call %s to %s...", shortID(id, 20), to)
			req := transferRequest{To: to, TimeoutSecs: timeout, CommandID: uuid.NewString()}
			path := "/calls/" + url.PathEscape(id) + "/actions/transfer"
			if err := a.client.V2().Post(cmd.Context(), path, req, a.opts(), nil); err != nil {
				return err
			}
			a.ui.Success("Call transferred to %s", to)
			return nil
		},
	}

	cmd.Flags().IntVar(&timeout, "timeout", 30, "seconds to wait for the destination to answer")
	return cmd
}
