package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/api"
	"github.com/telnyx/telnyx-cli/output"
)

// errVerificationRejected is returned by "verify check" when the code is not
// accepted, so scripts can branch on the exit status.
var errVerificationRejected = errors.New("verification code was not accepted")

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Send and check phone verifications",
	}
	cmd.AddCommand(
		newVerifySendCmd(),
		newVerifyCheckCmd(),
		newVerifyProfileCmd(),
		newVerifyTemplateCmd(),
	)
	return cmd
}

type verification struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	PhoneNumber     string `json:"phone_number"`
	VerifyProfileID string `json:"verify_profile_id"`
	Status          string `json:"status"`
	TimeoutSecs     int    `json:"timeout_secs"`
	CreatedAt       string `json:"created_at"`
}

type verifySendInput struct {
	PhoneNumber     string `json:"phone_number" validate:"required,telnyx_phone" label:"phone"`
	VerifyProfileID string `json:"verify_profile_id" validate:"required,telnyx_id" label:"verify profile ID"`
	TimeoutSecs     int    `json:"timeout_secs,omitempty"`
	Type            string `json:"-" validate:"oneof=sms call flashcall" label:"verification method"`
}

var verificationColumns = output.Columns(
	"id", "ID",
	"phone_number", "Phone",
	"type", "Method",
	"status", "Status",
	"timeout", "Timeout",
)

func newVerifySendCmd() *cobra.Command {
	var in verifySendInput

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a verification code",
		Long: `Send a verification code by SMS, voice call or flash call.

Examples:
  telnyx verify send --phone +15551234567 --profile-id <id>
  telnyx verify send -n +15551234567 --profile-id <id> --type call`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			in.Type = strings.ToLower(in.Type)
			if err := api.ValidateStruct(in); err != nil {
				return err
			}

			a.ui.Info("Sending %s verification to %s...", in.Type, in.PhoneNumber)
			var body json.RawMessage
			if err := a.client.V2().Post(cmd.Context(), "/verifications/"+in.Type, in, a.opts(), &body); err != nil {
				return err
			}

			var v verification
			raw, err := decodeData(body, &v)
			if err != nil {
				return err
			}
			if a.tableOnly() {
				a.ui.Success("Verification sent!")
			}
			timeout := "-"
			if v.TimeoutSecs > 0 {
				timeout = fmt.Sprintf("%ds", v.TimeoutSecs)
			}
			rec := output.NewRecord(
				"id", v.ID,
				"phone_number", v.PhoneNumber,
				"type", output.OrDash(v.Type),
				"status", output.OrDash(v.Status),
				"timeout", timeout,
			)
			if err := a.renderDetail(rec, verificationColumns, raw); err != nil {
				return err
			}
			if a.tableOnly() {
				a.linef("")
				a.linef(`Use "telnyx verify check --phone %s --code <CODE> --profile-id %s" to verify`, in.PhoneNumber, in.VerifyProfileID)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in.PhoneNumber, "phone", "n", "", "phone number to verify (E.164)")
	f.StringVar(&in.VerifyProfileID, "profile-id", "", "verify profile ID")
	f.StringVarP(&in.Type, "type", "t", "sms", "verification method: sms, call, flashcall")
	f.IntVar(&in.TimeoutSecs, "timeout-secs", 0, "seconds before the code expires (profile default when unset)")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("profile-id")
	return cmd
}

type verifyCheckInput struct {
	Phone           string `json:"-" validate:"required,telnyx_phone" label:"phone"`
	Code            string `json:"code" validate:"required" label:"code"`
	VerifyProfileID string `json:"verify_profile_id" validate:"required,telnyx_id" label:"verify profile ID"`
}

type verifyCheckResult struct {
	PhoneNumber  string `json:"phone_number"`
	ResponseCode string `json:"response_code"`
}

var verifyCheckColumns = output.Columns(
	"phone_number", "Phone",
	"response_code", "Result",
)

func newVerifyCheckCmd() *cobra.Command {
	var in verifyCheckInput

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a verification code",
		Long: `Check a verification code. The command exits non-zero when the code is rejected.

Examples:
  telnyx verify check --phone +15551234567 --code 123456 --profile-id <id>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if err := api.ValidateStruct(in); err != nil {
				return err
			}

			a.ui.Info("Checking code for %s...", in.Phone)
			var body json.RawMessage
			path := "/verifications/by_phone_number/" + pathSegment(in.Phone) + "/actions/verify"
			if err := a.client.V2().Post(cmd.Context(), path, in, a.opts(), &body); err != nil {
				return err
			}

			var res verifyCheckResult
			raw, err := decodeData(body, &res)
			if err != nil {
				return err
			}
			accepted := res.ResponseCode == "accepted"
			if accepted && a.tableOnly() {
				a.ui.Success("Verification successful!")
				return nil
			}
			rec := output.NewRecord(
				"phone_number", output.OrDash(res.PhoneNumber),
				"response_code", output.OrDash(res.ResponseCode),
			)
			if err := a.renderDetail(rec, verifyCheckColumns, raw); err != nil {
				return err
			}
			if !accepted {
				return errVerificationRejected
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in.Phone, "phone", "n", "", "phone number being verified (E.164)")
	f.StringVarP(&in.Code, "code", "c", "", "code received by the user")
	f.StringVar(&in.VerifyProfileID, "profile-id", "", "verify profile ID")
	for _, name := range []string{"phone", "code", "profile-id"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

type verifyChannel struct {
	MessagingTemplateID string   `json:"messaging_template_id,omitempty"`
	CodeLength          int      `json:"code_length,omitempty"`
	TimeoutSecs         int      `json:"default_verification_timeout_secs,omitempty"`
	Destinations        []string `json:"whitelisted_destinations,omitempty"`
}

type verifyProfile struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Language  string         `json:"language"`
	SMS       *verifyChannel `json:"sms"`
	Call      *verifyChannel `json:"call"`
	Flashcall *verifyChannel `json:"flashcall"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

func newVerifyProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage verify profiles",
	}
	cmd.AddCommand(
		newVerifyProfileListCmd(),
		newVerifyProfileGetCmd(),
		newVerifyProfileCreateCmd(),
		newVerifyProfileDeleteCmd(),
	)
	return cmd
}

var verifyProfileColumns = output.Columns(
	"id", "ID",
	"name", "NAME",
	"language", "LANG",
	"sms", "SMS",
	"call", "CALL",
	"flashcall", "FLASH",
	"created", "CREATED",
)

func newVerifyProfileListCmd() *cobra.Command {
	var limit, page int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List verify profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Fetching verify profiles...")
			path := withQuery("/verify_profiles", pageQuery(limit, page))
			res, err := fetchList[verifyProfile](cmd.Context(), a.client.V2(), path, "data", a.opts())
			if err != nil {
				return err
			}

			short := a.tableOnly()
			return renderList(a, res, verifyProfileColumns, func(p verifyProfile) output.Record {
				id, created := p.ID, p.CreatedAt
				if short {
					id = shortID(id, 12)
					if len(created) >= 10 {
						created = created[:10]
					}
				}
				return output.NewRecord(
					"id", id,
					"name", p.Name,
					"language", output.OrDash(p.Language),
					"sms", check(p.SMS != nil),
					"call", check(p.Call != nil),
					"flashcall", check(p.Flashcall != nil),
					"created", output.OrDash(created),
				)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 25, "number of results to return")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

var verifyProfileDetailColumns = output.Columns(
	"id", "ID",
	"name", "Name",
	"language", "Language",
	"sms", "SMS",
	"call", "Call",
	"flashcall", "Flash call",
	"created", "Created",
	"updated", "Updated",
)

func channelSummary(c *verifyChannel) string {
	if c == nil {
		return check(false)
	}
	parts := []string{check(true)}
	if c.MessagingTemplateID != "" {
		parts = append(parts, "template "+c.MessagingTemplateID)
	}
	if c.CodeLength > 0 {
		parts = append(parts, fmt.Sprintf("%d digits", c.CodeLength))
	}
	if c.TimeoutSecs > 0 {
		parts = append(parts, fmt.Sprintf("%ds timeout", c.TimeoutSecs))
	}
	return strings.Join(parts, " ")
}

func verifyProfileDetailRecord(p verifyProfile) output.Record {
	return output.NewRecord(
		"id", p.ID,
		"name", p.Name,
		"language", output.OrDash(p.Language),
		"sms", channelSummary(p.SMS),
		"call", channelSummary(p.Call),
		"flashcall", channelSummary(p.Flashcall),
		"created", formatTime(p.CreatedAt),
		"updated", formatTime(p.UpdatedAt),
	)
}

func newVerifyProfileGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <profile-id>",
		Short: "Get verify profile details",
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

			a.ui.Info("Fetching verify profile %s...", id)
			var body json.RawMessage
			if err := a.client.V2().Get(cmd.Context(), "/verify_profiles/"+url.PathEscape(id), a.opts(), &body); err != nil {
				return err
			}

			var p verifyProfile
			raw, err := decodeData(body, &p)
			if err != nil {
				return err
			}
			return a.renderDetail(verifyProfileDetailRecord(p), verifyProfileDetailColumns, raw)
		},
	}
}

type verifyProfileCreateInput struct {
	Name      string         `json:"name" validate:"required" label:"name"`
	Language  string         `json:"language,omitempty"`
	SMS       *verifyChannel `json:"sms,omitempty"`
	Call      *verifyChannel `json:"call,omitempty"`
	Flashcall *verifyChannel `json:"flashcall,omitempty"`
}

func newVerifyProfileCreateCmd() *cobra.Command {
	var (
		in              verifyProfileCreateInput
		sms             verifyChannel
		enableCall      bool
		callTimeout     int
		enableFlashcall bool
		flashTimeout    int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a verify profile",
		Long: `Create a verify profile. SMS is enabled when a template is given.

Examples:
  telnyx verify profile create --name "Login" --sms-template-id <id>
  telnyx verify profile create -n "Voice" --enable-call --call-timeout 300`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			if sms.MessagingTemplateID != "" {
				ch := sms
				in.SMS = &ch
			}
			if enableCall {
				in.Call = &verifyChannel{TimeoutSecs: callTimeout}
			}
			if enableFlashcall {
				in.Flashcall = &verifyChannel{TimeoutSecs: flashTimeout}
			}
			if err := api.ValidateStruct(in); err != nil {
				return err
			}

			a.ui.Info("Creating verify profile %q...", in.Name)
			var body json.RawMessage
			if err := a.client.V2().Post(cmd.Context(), "/verify_profiles", in, a.opts(), &body); err != nil {
				return err
			}

			var p verifyProfile
			raw, err := decodeData(body, &p)
			if err != nil {
				return err
			}
			if a.tableOnly() {
				a.ui.Success("Verify profile created!")
			}
			return a.renderDetail(verifyProfileDetailRecord(p), verifyProfileDetailColumns, raw)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in.Name, "name", "n", "", "profile name")
	f.StringVarP(&in.Language, "language", "l", "en-US", "language for spoken and written messages")
	f.StringVar(&sms.MessagingTemplateID, "sms-template-id", "", "messaging template ID (enables SMS)")
	f.IntVar(&sms.CodeLength, "sms-code-length", 6, "SMS code length")
	f.IntVar(&sms.TimeoutSecs, "sms-timeout", 300, "SMS code timeout in seconds")
	f.StringSliceVar(&sms.Destinations, "sms-destinations", nil, "allowed destination country codes, e.g. US,CA")
	f.BoolVar(&enableCall, "enable-call", false, "enable voice call verification")
	f.IntVar(&callTimeout, "call-timeout", 600, "call code timeout in seconds")
	f.BoolVar(&enableFlashcall, "enable-flashcall", false, "enable flash call verification")
	f.IntVar(&flashTimeout, "flashcall-timeout", 300, "flash call timeout in seconds")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newVerifyProfileDeleteCmd() *cobra.Command {
	var d *destructiveFlags

	cmd := &cobra.Command{
		Use:   "delete <profile-id>",
		Short: "Delete a verify profile",
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

			if d.dryRun {
				a.ui.DryRun("Would delete verify profile %s", id)
				return nil
			}
			if err := d.confirm(a, fmt.Sprintf("Delete verify profile %s? This cannot be undone", id)); err != nil {
				return err
			}

			a.ui.Info("Deleting verify profile %s...", id)
			if err := a.client.V2().Delete(cmd.Context(), "/verify_profiles/"+url.PathEscape(id), a.opts(), nil); err != nil {
				return err
			}
			a.ui.Success("Verify profile deleted")
			return nil
		},
	}

	d = addDestructiveFlags(cmd)
	return cmd
}

type verifyTemplate struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

var verifyTemplateColumns = output.Columns(
	"id", "ID",
	"text", "TEXT",
)

func newVerifyTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage verification message templates",
	}
	cmd.AddCommand(newVerifyTemplateListCmd(), newVerifyTemplateCreateCmd())
	return cmd
}

func newVerifyTemplateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List message templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			a.ui.Info("Fetching templates...")
			res, err := fetchList[verifyTemplate](cmd.Context(), a.client.V2(), "/verify_profiles/templates", "data", a.opts())
			if err != nil {
				return err
			}

			short := a.tableOnly()
			err = renderList(a, res, verifyTemplateColumns, func(t verifyTemplate) output.Record {
				text := t.Text
				if short {
					text = output.Truncate(text, 60)
				}
				return output.NewRecord("id", t.ID, "text", text)
			})
			if err != nil {
				return err
			}
			if short && len(res.Items) > 0 {
				a.linef("")
				a.linef("%d template(s) available", len(res.Items))
			}
			return nil
		},
	}
}

func newVerifyTemplateCreateCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a message template",
		Long: `Create a message template. The text should contain the {{code}} placeholder.

Examples:
  telnyx verify template create --text "Your code is {{code}}"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if !strings.Contains(text, "{{code}}") {
				a.ui.Warn("Template text has no {{code}} placeholder")
			}

			a.ui.Info("Creating template...")
			var body json.RawMessage
			payload := map[string]string{"text": text}
			if err := a.client.V2().Post(cmd.Context(), "/verify_profiles/templates", payload, a.opts(), &body); err != nil {
				return err
			}

			var t verifyTemplate
			raw, err := decodeData(body, &t)
			if err != nil {
				return err
			}
			if a.tableOnly() {
				a.ui.Success("Template created!")
			}
			return a.renderDetail(output.NewRecord("id", t.ID, "text", t.Text), verifyTemplateColumns, raw)
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "template text containing {{code}}")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
