package main

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/api"
	"github.com/telnyx/telnyx-cli/output"
)

type messageEndpoint struct {
	PhoneNumber string `json:"phone_number"`
	Status      string `json:"status"`
}

type message struct {
	ID        string            `json:"id"`
	Direction string            `json:"direction"`
	Type      string            `json:"type"`
	From      messageEndpoint   `json:"from"`
	To        []messageEndpoint `json:"to"`
	Text      string            `json:"text"`
	Subject   string            `json:"subject"`
	Parts     int               `json:"parts"`
	Cost      *struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"cost"`
	CreatedAt   string `json:"created_at"`
	SentAt      string `json:"sent_at"`
	CompletedAt string `json:"completed_at"`
}

func (m message) recipient() string {
	if len(m.To) == 0 {
		return ""
	}
	return m.To[0].PhoneNumber
}

func (m message) status() string {
	if len(m.To) == 0 {
		return ""
	}
	return m.To[0].Status
}

func (m message) cost() string {
	if m.Cost == nil || m.Cost.Amount == "" {
		return "-"
	}
	return m.Cost.Amount + " " + m.Cost.Currency
}

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "message",
		Aliases: []string{"msg"},
		Short:   "Send and inspect SMS/MMS messages",
	}
	cmd.AddCommand(newMessageSendCmd(), newMessageListCmd(), newMessageGetCmd())
	return cmd
}

type sendMessageRequest struct {
	From               string   `json:"from"`
	To                 string   `json:"to"`
	Text               string   `json:"text"`
	Subject            string   `json:"subject,omitempty"`
	MediaURLs          []string `json:"media_urls,omitempty"`
	MessagingProfileID string   `json:"messaging_profile_id,omitempty"`
	WebhookURL         string   `json:"webhook_url,omitempty"`
	UseProfileWebhooks *bool    `json:"use_profile_webhooks,omitempty"`
}

var sentMessageColumns = output.Columns(
	"id", "ID",
	"from", "From",
	"to", "To",
	"status", "Status",
	"type", "Type",
	"cost", "Cost",
)

func newMessageSendCmd() *cobra.Command {
	var req sendMessageRequest

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an SMS or MMS message",
		Long: `Send an SMS or MMS message.

Examples:
  telnyx message send --from +15551234567 --to +15559876543 --text "Hello!"
  telnyx message send -f +15551234567 -t +15559876543 --text "Photo" --media https://example.com/a.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			if err := api.ValidatePhone(req.From); err != nil {
				return err
			}
			if err := api.ValidatePhone(req.To); err != nil {
				return err
			}
			if req.WebhookURL != "" {
				off := false
				req.UseProfileWebhooks = &off
			}

			a.ui.Info("Sending message...")
			var body json.RawMessage
			if err := a.client.V2().Post(cmd.Context(), "/messages", req, a.opts(), &body); err != nil {
				return err
			}

			var m message
			raw, err := decodeData(body, &m)
			if err != nil {
				return err
			}
			if a.tableOnly() {
				a.ui.Success("Message sent!")
			}
			rec := output.NewRecord(
				"id", m.ID,
				"from", m.From.PhoneNumber,
				"to", output.OrDash(m.recipient()),
				"status", output.OrDash(m.status()),
				"type", m.Type,
				"cost", m.cost(),
			)
			return a.renderDetail(rec, sentMessageColumns, raw)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&req.From, "from", "f", "", "sender phone number (E.164)")
	f.StringVarP(&req.To, "to", "t", "", "recipient phone number (E.164)")
	f.StringVar(&req.Text, "text", "", "message body")
	f.StringArrayVarP(&req.MediaURLs, "media", "m", nil, "media URL for MMS (repeatable)")
	f.StringVar(&req.MessagingProfileID, "messaging-profile-id", "", "messaging profile ID")
	f.StringVar(&req.WebhookURL, "webhook-url", "", "webhook URL for delivery receipts")
	f.StringVar(&req.Subject, "subject", "", "subject (MMS only)")
	for _, name := range []string{"from", "to", "text"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

var messageColumns = output.Columns(
	"id", "ID",
	"direction", "DIR",
	"type", "TYPE",
	"from", "FROM",
	"to", "TO",
	"status", "STATUS",
	"text", "TEXT",
	"created", "CREATED",
)

func messageRecord(m message) output.Record {
	return output.NewRecord(
		"id", shortID(m.ID, 12),
		"direction", m.Direction,
		"type", m.Type,
		"from", m.From.PhoneNumber,
		"to", output.OrDash(m.recipient()),
		"status", output.OrDash(m.status()),
		"text", output.OrDash(output.Truncate(m.Text, 30)),
		"created", formatTime(m.CreatedAt),
	)
}

func newMessageListCmd() *cobra.Command {
	var (
		limit       int
		page        int
		direction   string
		messageType string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List messages",
		Long: `List messages.

Examples:
  telnyx message list
  telnyx message list --direction inbound --limit 10
  telnyx message list --type MMS --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			q := pageQuery(limit, page)
			if direction != "" {
				q.Set("filter[direction]", direction)
			}
			if messageType != "" {
				q.Set("filter[type]", messageType)
			}

			a.ui.Info("Fetching messages...")
			res, err := fetchList[message](cmd.Context(), a.client.V2(), withQuery("/messages", q), "data", a.opts())
			if err != nil {
				return err
			}
			return renderList(a, res, messageColumns, messageRecord)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 25, "number of results to return")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVarP(&direction, "direction", "d", "", "filter by direction (inbound, outbound)")
	cmd.Flags().StringVar(&messageType, "type", "", "filter by type (SMS, MMS)")
	return cmd
}

var messageDetailColumns = output.Columns(
	"id", "ID",
	"direction", "Direction",
	"type", "Type",
	"from", "From",
	"to", "To",
	"status", "Status",
	"text", "Text",
	"subject", "Subject",
	"parts", "Parts",
	"cost", "Cost",
	"created", "Created",
	"sent", "Sent",
	"completed", "Completed",
)

func newMessageGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <message-id>",
		Short: "Get details of a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			if err := api.ValidateID(id, "Message ID"); err != nil {
				return err
			}

			a.ui.Info("Fetching message %s...", id)
			var body json.RawMessage
			if err := a.client.V2().Get(cmd.Context(), "/messages/"+url.PathEscape(id), a.opts(), &body); err != nil {
				return err
			}

			var m message
			raw, err := decodeData(body, &m)
			if err != nil {
				return err
			}

			parts := "-"
			if m.Parts > 0 {
				parts = strconv.Itoa(m.Parts)
			}
			rec := output.NewRecord(
				"id", m.ID,
				"direction", m.Direction,
				"type", m.Type,
				"from", m.From.PhoneNumber,
				"to", output.OrDash(m.recipient()),
				"status", output.OrDash(m.status()),
				"text", output.OrDash(m.Text),
				"subject", output.OrDash(m.Subject),
				"parts", parts,
				"cost", m.cost(),
				"created", formatTime(m.CreatedAt),
				"sent", formatTime(m.SentAt),
				"completed", formatTime(m.CompletedAt),
			)
			return a.renderDetail(rec, messageDetailColumns, raw)
		},
	}
}
