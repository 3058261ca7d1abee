package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telnyx/telnyx-cli/telnyxtest"
)

const verifyProfileID = "4900017a-e7c8-e79e-0a7c-0d98f49b09cc"

func TestVerifySend(t *testing.T) {
	h := newHarness(t).withKey("")
	h.srv.Reply(http.MethodPost, "/v2/verifications/{method}", http.StatusOK, envelope(map[string]any{
		"id":                "12ade33a-21c0-473b-b055-b3c836e1c292",
		"type":              "sms",
		"phone_number":      "+13035551234",
		"verify_profile_id": verifyProfileID,
		"status":            "pending",
		"timeout_secs":      300,
	}))

	t.Run("sms", func(t *testing.T) {
		res := h.mustRun("verify", "send", "--phone", "+13035551234", "--profile-id", verifyProfileID)

		req := h.lastRequest()
		assert.Equal(t, "/v2/verifications/sms", req.Path)
		assert.JSONEq(t, `{"phone_number":"+13035551234","verify_profile_id":"`+verifyProfileID+`"}`, string(req.Body))
		assert.Contains(t, res.stderr, "Verification sent!")
		assert.Contains(t, res.stdout, "12ade33a-21c0-473b-b055-b3c836e1c292")
		assert.Contains(t, res.stdout, "300s")
		assert.Contains(t, res.stdout, `telnyx verify check --phone +13035551234 --code <CODE> --profile-id `+verifyProfileID)
	})

	t.Run("call with timeout", func(t *testing.T) {
		h.mustRun("verify", "send", "-n", "+13035551234", "--profile-id", verifyProfileID, "--type", "CALL", "--timeout-secs", "120")

		req := h.lastRequest()
		assert.Equal(t, "/v2/verifications/call", req.Path)
		var body map[string]any
		require.NoError(t, json.Unmarshal(req.Body, &body))
		assert.EqualValues(t, 120, body["timeout_secs"])
	})

	t.Run("json has no hint", func(t *testing.T) {
		res := h.mustRun("verify", "send", "-n", "+13035551234", "--profile-id", verifyProfileID, "--json")

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
		assert.Equal(t, "pending", got["status"])
		assert.NotContains(t, res.stdout, "telnyx verify check")
	})

	t.Run("unknown method", func(t *testing.T) {
		before := len(h.srv.Requests())
		res := h.run("verify", "send", "-n", "+13035551234", "--profile-id", verifyProfileID, "--type", "fax")

		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "Must be one of: sms, call, flashcall.")
		assert.Len(t, h.srv.Requests(), before)
	})

	t.Run("bad phone", func(t *testing.T) {
		res := h.run("verify", "send", "-n", "555", "--profile-id", verifyProfileID)
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "Invalid phone number format")
	})
}

func TestVerifyCheck(t *testing.T) {
	h := newHarness(t).withKey("")
	h.srv.Handle(http.MethodPost, "/v2/verifications/by_phone_number/{phone}/actions/verify", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		code := "rejected"
		if req.Code == "123456" {
			code = "accepted"
		}
		_ = telnyxtest.WriteJSON(w, http.StatusOK, envelope(map[string]any{
			"phone_number":  "+13035551234",
			"response_code": code,
		}))
	})

	t.Run("accepted", func(t *testing.T) {
		res := h.mustRun("verify", "check", "--phone", "+13035551234", "--code", "123456", "--profile-id", verifyProfileID)

		req := h.lastRequest()
		assert.Equal(t, "/v2/verifications/by_phone_number/+13035551234/actions/verify", req.Path)
		assert.JSONEq(t, `{"code":"123456","verify_profile_id":"`+verifyProfileID+`"}`, string(req.Body))
		assert.Contains(t, res.stderr, "Verification successful!")
		assert.Empty(t, res.stdout)
	})

	t.Run("rejected exits non-zero", func(t *testing.T) {
		res := h.run("verify", "check", "-n", "+13035551234", "-c", "000000", "--profile-id", verifyProfileID)

		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stdout, "rejected")
		assert.Contains(t, res.stderr, "verification code was not accepted")
	})

	t.Run("accepted json", func(t *testing.T) {
		res := h.mustRun("verify", "check", "-n", "+13035551234", "-c", "123456", "--profile-id", verifyProfileID, "--json")

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
		assert.Equal(t, "accepted", got["response_code"])
	})
}

func TestVerifyProfiles(t *testing.T) {
	h := newHarness(t).withKey("")
	profile := map[string]any{
		"id":         verifyProfileID,
		"name":       "Login",
		"language":   "en-US",
		"sms":        map[string]any{"messaging_template_id": "0abb5b4f-459f-445a-bfcd-488998b7572d", "code_length": 6},
		"call":       map[string]any{"default_verification_timeout_secs": 600},
		"created_at": "2024-03-01T12:00:00Z",
	}
	h.srv.Reply(http.MethodGet, "/v2/verify_profiles", http.StatusOK, page([]any{profile}, 1))
	h.srv.Reply(http.MethodGet, "/v2/verify_profiles/{id}", http.StatusOK, envelope(profile))
	h.srv.Reply(http.MethodPost, "/v2/verify_profiles", http.StatusOK, envelope(profile))
	h.srv.Reply(http.MethodDelete, "/v2/verify_profiles/{id}", http.StatusOK, envelope(profile))

	t.Run("list", func(t *testing.T) {
		res := h.mustRun("verify", "profile", "list")

		lines := strings.Split(res.stdout, "\n")
		require.GreaterOrEqual(t, len(lines), 2)
		assert.True(t, strings.HasPrefix(lines[0], "ID"))
		assert.Contains(t, lines[1], "Login")
		assert.Contains(t, lines[1], "✓")
		assert.Contains(t, lines[1], "✗")
		assert.Contains(t, lines[1], "2024-03-01")
	})

	t.Run("get", func(t *testing.T) {
		res := h.mustRun("verify", "profile", "get", verifyProfileID)

		assert.Equal(t, "/v2/verify_profiles/"+verifyProfileID, h.lastRequest().Path)
		assert.Contains(t, res.stdout, "template 0abb5b4f-459f-445a-bfcd-488998b7572d 6 digits")
		assert.Contains(t, res.stdout, "600s timeout")
	})

	t.Run("create sends only chosen channels", func(t *testing.T) {
		h.mustRun("verify", "profile", "create", "--name", "Voice", "--enable-call", "--call-timeout", "300")

		var body map[string]any
		require.NoError(t, json.Unmarshal(h.lastRequest().Body, &body))
		assert.Equal(t, "Voice", body["name"])
		assert.Equal(t, "en-US", body["language"])
		assert.NotContains(t, body, "sms")
		assert.NotContains(t, body, "flashcall")
		assert.Equal(t, map[string]any{"default_verification_timeout_secs": float64(300)}, body["call"])
	})

	t.Run("create with sms template", func(t *testing.T) {
		h.mustRun("verify", "profile", "create", "-n", "Login", "--sms-template-id", "0abb5b4f-459f-445a-bfcd-488998b7572d", "--sms-destinations", "US,CA")

		var body struct {
			SMS verifyChannel `json:"sms"`
		}
		require.NoError(t, json.Unmarshal(h.lastRequest().Body, &body))
		assert.Equal(t, verifyChannel{
			MessagingTemplateID: "0abb5b4f-459f-445a-bfcd-488998b7572d",
			CodeLength:          6,
			TimeoutSecs:         300,
			Destinations:        []string{"US", "CA"},
		}, body.SMS)
	})

	t.Run("delete dry run", func(t *testing.T) {
		before := len(h.srv.Requests())
		res := h.mustRun("verify", "profile", "delete", verifyProfileID, "--dry-run")

		assert.Contains(t, res.stderr, "Would delete verify profile "+verifyProfileID)
		assert.Len(t, h.srv.Requests(), before)
	})

	t.Run("delete forced", func(t *testing.T) {
		res := h.mustRun("verify", "profile", "delete", verifyProfileID, "--force")

		req := h.lastRequest()
		assert.Equal(t, http.MethodDelete, req.Method)
		assert.Equal(t, "/v2/verify_profiles/"+verifyProfileID, req.Path)
		assert.Contains(t, res.stderr, "Verify profile deleted")
	})
}

func TestVerifyTemplates(t *testing.T) {
	h := newHarness(t).withKey("")
	h.srv.Reply(http.MethodGet, "/v2/verify_profiles/templates", http.StatusOK, map[string]any{
		"data": []any{
			map[string]any{"id": "0abb5b4f-459f-445a-bfcd-488998b7572d", "text": "Your {{app_name}} verification code is: {{code}}."},
		},
	})
	h.srv.Reply(http.MethodPost, "/v2/verify_profiles/templates", http.StatusOK, envelope(map[string]any{
		"id": "5d8a7e6f-1b2c-4d3e-9f8a-7b6c5d4e3f2a", "text": "Code {{code}}",
	}))

	t.Run("list", func(t *testing.T) {
		res := h.mustRun("verify", "template", "list")

		assert.Contains(t, res.stdout, "0abb5b4f-459f-445a-bfcd-488998b7572d")
		assert.Contains(t, res.stdout, "1 template(s) available")
	})

	t.Run("create warns without placeholder", func(t *testing.T) {
		res := h.mustRun("verify", "template", "create", "--text", "Hello there")

		assert.JSONEq(t, `{"text":"Hello there"}`, string(h.lastRequest().Body))
		assert.Contains(t, res.stderr, "no {{code}} placeholder")
		assert.Contains(t, res.stderr, "Template created!")
	})

	t.Run("create", func(t *testing.T) {
		res := h.mustRun("verify", "template", "create", "-t", "Code {{code}}")

		assert.NotContains(t, res.stderr, "placeholder")
		assert.Contains(t, res.stdout, "5d8a7e6f-1b2c-4d3e-9f8a-7b6c5d4e3f2a")
	})
}
