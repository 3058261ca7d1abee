package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sentMessage = map[string]any{
	"id":        "40385f64-5717-4562-b3fc-2c963f66afa6",
	"direction": "outbound",
	"type":      "SMS",
	"from":      map[string]any{"phone_number": "+15551234567"},
	"to":        []any{map[string]any{"phone_number": "+15559876543", "status": "queued"}},
	"text":      "Hello from the command line, this one is long",
	"cost":      map[string]any{"amount": "0.0040", "currency": "USD"},
}

func TestMessageSend(t *testing.T) {
	h := newHarness(t).withKey("")
	h.srv.Reply(http.MethodPost, "/v2/messages", http.StatusOK, envelope(sentMessage))

	t.Run("validates numbers locally", func(t *testing.T) {
		res := h.run("message", "send", "--from", "+15551234567", "--to", "555", "--text", "hi")
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, `Invalid phone number format: "555"`)
		assert.Empty(t, h.srv.Requests())
	})

	t.Run("requires text", func(t *testing.T) {
		res := h.run("message", "send", "--from", "+15551234567", "--to", "+15559876543")
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "text")
	})

	t.Run("sends", func(t *testing.T) {
		res := h.mustRun("message", "send",
			"-f", "+15551234567",
			"-t", "+15559876543",
			"--text", "hi",
			"--media", "https://example.com/a.jpg",
			"--media", "https://example.com/b.jpg",
			"--webhook-url", "https://example.com/hook",
		)

		assert.JSONEq(t, `{
			"from": "+15551234567",
			"to": "+15559876543",
			"text": "hi",
			"media_urls": ["https://example.com/a.jpg", "https://example.com/b.jpg"],
			"webhook_url": "https://example.com/hook",
			"use_profile_webhooks": false
		}`, string(h.lastRequest().Body))
		assert.Equal(t, "application/json", h.lastRequest().Header.Get("Content-Type"))
		assert.Contains(t, res.stderr, "Message sent!")
		assert.Contains(t, res.stdout, "40385f64-5717-4562-b3fc-2c963f66afa6")
		assert.Contains(t, res.stdout, "0.0040 USD")
	})
}

func TestMessageList(t *testing.T) {
	h := newHarness(t).withKey("")
	h.srv.Reply(http.MethodGet, "/v2/messages", http.StatusOK, page([]any{sentMessage}, 1))

	res := h.mustRun("message", "list", "--direction", "outbound", "--type", "SMS")

	q := h.lastRequest().Query
	assert.Equal(t, "outbound", q.Get("filter[direction]"))
	assert.Equal(t, "SMS", q.Get("filter[type]"))
	assert.Contains(t, res.stdout, "40385f64-571...")
	assert.Contains(t, res.stdout, "Hello from the command line...")
	assert.NotContains(t, res.stdout, "this one is long")
}

func TestMessageGet(t *testing.T) {
	h := newHarness(t).withKey("")
	h.srv.Reply(http.MethodGet, "/v2/messages/{id}", http.StatusOK, envelope(sentMessage))

	t.Run("rejects bad id", func(t *testing.T) {
		res := h.run("message", "get", "abc/def")
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "Message ID should contain only letters, numbers, and hyphens.")
		assert.Empty(t, h.srv.Requests())
	})

	t.Run("json", func(t *testing.T) {
		res := h.mustRun("message", "get", "40385f64-5717-4562-b3fc-2c963f66afa6", "--json")

		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
		assert.Equal(t, "outbound", got["direction"])
		assert.Equal(t, "/v2/messages/40385f64-5717-4562-b3fc-2c963f66afa6", h.lastRequest().Path)
	})
}

func TestMessagingProfiles(t *testing.T) {
	h := newHarness(t).withKey("")
	h.srv.Reply(http.MethodGet, "/v2/messaging_profiles", http.StatusOK, page([]any{
		map[string]any{
			"id":                   "4001767e-ce0f-4cae-9d5f-0d5e636e7809",
			"name":                 "alerts",
			"enabled":              true,
			"webhook_url":          "https://example.com/hook",
			"number_pool_settings": nil,
			"created_at":           "2024-03-01T08:00:00Z",
		},
	}, 1))
	h.srv.Reply(http.MethodDelete, "/v2/messaging_profiles/{id}", http.StatusOK, envelope(map[string]any{}))

	t.Run("list", func(t *testing.T) {
		res := h.mustRun("messaging-profile", "list")
		assert.Contains(t, res.stdout, "4001767e-ce0...")
		assert.Contains(t, res.stdout, "alerts")
		assert.Contains(t, res.stdout, "2024-03-01")
	})

	t.Run("ids are not shortened", func(t *testing.T) {
		res := h.mustRun("mp", "list", "-o", "ids")
		assert.Equal(t, "4001767e-ce0f-4cae-9d5f-0d5e636e7809\n", res.stdout)
	})

	t.Run("delete", func(t *testing.T) {
		res := h.mustRun("mp", "delete", "4001767e-ce0f-4cae-9d5f-0d5e636e7809", "--force")
		assert.Equal(t, http.MethodDelete, h.lastRequest().Method)
		assert.Contains(t, res.stderr, "Messaging profile deleted")
	})
}

func TestCalls(t *testing.T) {
	h := newHarness(t).withKey("")
	h.srv.Reply(http.MethodPost, "/v2/calls", http.StatusOK, envelope(map[string]any{
		"call_control_id": "v3:abcdefghijklmnopqrstuvwxyz",
		"call_leg_id":     "leg-1",
		"call_session_id": "session-1",
		"is_alive":        true,
	}))
	h.srv.Reply(http.MethodGet, "/v2/calls", http.StatusOK, page([]any{
		map[string]any{
			"call_control_id": "v3:abcdefghijklmnopqrstuvwxyz",
			"from":            "+15551234567",
			"to":              "+15559876543",
			"is_alive":        true,
		},
	}, 1))
	h.srv.Reply(http.MethodPost, "/v2/calls/{id}/actions/hangup", http.StatusOK, envelope(map[string]any{"result": "ok"}))

	t.Run("dial validates connection id", func(t *testing.T) {
		res := h.run("call", "dial", "--from", "+15551234567", "--to", "+15559876543", "--connection-id", "not valid")
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "Connection ID should contain only letters, numbers, and hyphens.")
		assert.Empty(t, h.srv.Requests())
	})

	t.Run("dial accepts sip destinations", func(t *testing.T) {
		res := h.mustRun("call", "dial",
			"--from", "+15551234567",
			"--to", "sip:alice@example.com",
			"--connection-id", "1494404757140276705",
			"--caller-id-name", "Support",
		)

		assert.JSONEq(t, `{
			"connection_id": "1494404757140276705",
			"from": "+15551234567",
			"to": "sip:alice@example.com",
			"timeout_secs": 30,
			"custom_headers": [{"name": "P-Asserted-Identity", "value": "Support"}]
		}`, string(h.lastRequest().Body))
		assert.Contains(t, res.stderr, "Call initiated!")
		assert.Contains(t, res.stdout, `telnyx call hangup v3:abcdefghijklmnopqrstuvwxyz`)
	})

	t.Run("list", func(t *testing.T) {
		res := h.mustRun("call", "list")
		assert.Contains(t, res.stdout, "v3:abcdefghijklmnopq...")
		assert.Contains(t, res.stdout, "active")
		assert.Contains(t, res.stdout, "1 active call(s)")
	})

	t.Run("hangup sends a command id", func(t *testing.T) {
		res := h.mustRun("call", "hangup", "v3:abcdefghijklmnopqrstuvwxyz")

		req := h.lastRequest()
		assert.Equal(t, "/v2/calls/v3:abcdefghijklmnopqrstuvwxyz/actions/hangup", req.Path)
		var body struct {
			CommandID string `json:"command_id"`
		}
		require.NoError(t, json.Unmarshal(req.Body, &body))
		_, err := uuid.Parse(body.CommandID)
		assert.NoError(t, err)
		assert.Contains(t, res.stderr, "Call ended")
	})
}

func TestTenDLC(t *testing.T) {
	h := newHarness(t).withKey("")
	h.srv.Reply(http.MethodGet, "/10dlc/brand", http.StatusOK, map[string]any{
		"records": []any{map[string]any{
			"brandId":        "BXYZ123",
			"displayName":    "Acme",
			"entityType":     "PRIVATE_PROFIT",
			"identityStatus": "VERIFIED",
		}},
		"totalRecords": 1,
	})
	h.srv.Reply(http.MethodGet, "/10dlc/campaign", http.StatusOK, map[string]any{
		"records": []any{map[string]any{
			"campaignId":     "CABC456",
			"brandId":        "BXYZ123",
			"usecase":        "2FA",
			"campaignStatus": "ACTIVE",
		}},
	})

	t.Run("brands", func(t *testing.T) {
		res := h.mustRun("10dlc", "brand", "list")
		assert.Contains(t, res.stdout, "BRAND_ID")
		assert.Contains(t, res.stdout, "Acme")
		assert.Contains(t, res.stdout, "VERIFIED")
	})

	t.Run("campaigns", func(t *testing.T) {
		res := h.mustRun("10dlc", "campaign", "list", "BXYZ123")
		assert.Equal(t, "BXYZ123", h.lastRequest().Query.Get("brandId"))
		assert.Contains(t, res.stdout, "CABC456")
		assert.Contains(t, res.stdout, "2FA")
	})

	t.Run("campaigns validate brand id", func(t *testing.T) {
		res := h.run("10dlc", "campaign", "list", "B X")
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "brand ID")
	})
}

func TestMessagingProfileCreateAndGet(t *testing.T) {
	h := newHarness(t).withKey("")
	created := map[string]any{
		"id":                   "4001767e-ce0f-4cae-9d5f-0d5e636e7809",
		"name":                 "bulk",
		"enabled":              true,
		"webhook_url":          "https://example.com/sms",
		"webhook_api_version":  "2",
		"number_pool_settings": map[string]any{"geomatch": true, "long_code_weight": 2, "toll_free_weight": 1},
		"created_at":           "2024-03-01T08:00:00Z",
	}
	h.srv.Reply(http.MethodPost, "/v2/messaging_profiles", http.StatusOK, envelope(created))
	h.srv.Reply(http.MethodGet, "/v2/messaging_profiles/{id}", http.StatusOK, envelope(created))

	t.Run("create without pool flags", func(t *testing.T) {
		res := h.mustRun("mp", "create", "--name", "alerts", "--webhook-url", "https://example.com/sms")

		assert.JSONEq(t, `{"name":"alerts","enabled":true,"webhook_url":"https://example.com/sms"}`, string(h.lastRequest().Body))
		assert.Contains(t, res.stderr, "Messaging profile created!")
	})

	t.Run("create with pool flags", func(t *testing.T) {
		h.mustRun("mp", "create", "-n", "bulk", "--geomatch", "--long-code-weight", "2", "--enabled=false")

		assert.JSONEq(t, `{
			"name": "bulk",
			"enabled": false,
			"number_pool_settings": {"geomatch": true, "long_code_weight": 2, "toll_free_weight": 1}
		}`, string(h.lastRequest().Body))
	})

	t.Run("create rejects bad webhook", func(t *testing.T) {
		before := len(h.srv.Requests())
		res := h.run("mp", "create", "-n", "x", "--webhook-url", "hook")

		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "Invalid webhook URL")
		assert.Len(t, h.srv.Requests(), before)
	})

	t.Run("get", func(t *testing.T) {
		res := h.mustRun("messaging-profile", "get", "4001767e-ce0f-4cae-9d5f-0d5e636e7809")

		assert.Equal(t, "/v2/messaging_profiles/4001767e-ce0f-4cae-9d5f-0d5e636e7809", h.lastRequest().Path)
		assert.Contains(t, res.stdout, "long code 2, toll-free 1, geomatch ✓")
		assert.Contains(t, res.stdout, "https://example.com/sms")
	})
}

func TestCallSpeakAndTransfer(t *testing.T) {
	h := newHarness(t).withKey("")
	h.srv.Reply(http.MethodPost, "/v2/calls/{id}/actions/speak", http.StatusOK, envelope(map[string]any{"result": "ok"}))
	h.srv.Reply(http.MethodPost, "/v2/calls/{id}/actions/transfer", http.StatusOK, envelope(map[string]any{"result": "ok"}))

	t.Run("speak", func(t *testing.T) {
		res := h.mustRun("call", "speak", "v3:abcdefghijklmnopqrstuvwxyz", "Your order has shipped", "--voice", "Male", "-l", "en-GB")

		req := h.lastRequest()
		assert.Equal(t, "/v2/calls/v3:abcdefghijklmnopqrstuvwxyz/actions/speak", req.Path)
		var body speakRequest
		require.NoError(t, json.Unmarshal(req.Body, &body))
		assert.Equal(t, "Your order has shipped", body.Payload)
		assert.Equal(t, "male", body.Voice)
		assert.Equal(t, "en-GB", body.Language)
		_, err := uuid.Parse(body.CommandID)
		assert.NoError(t, err)
		assert.Contains(t, res.stderr, "Speak command sent")
	})

	t.Run("speak keeps -v for verbose", func(t *testing.T) {
		res := h.mustRun("call", "speak", "v3:abcdefghijklmnopqrstuvwxyz", "hi", "-v")
		assert.Contains(t, res.stderr, "/actions/speak")
	})

	t.Run("speak rejects unknown voice", func(t *testing.T) {
		res := h.run("call", "speak", "v3:abcdefghijklmnopqrstuvwxyz", "hi", "--voice", "robot")
		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "Must be one of: male, female.")
	})

	t.Run("transfer", func(t *testing.T) {
		res := h.mustRun("call", "transfer", "v3:abcdefghijklmnopqrstuvwxyz", "+15559876543", "--timeout", "45")

		req := h.lastRequest()
		assert.Equal(t, "/v2/calls/v3:abcdefghijklmnopqrstuvwxyz/actions/transfer", req.Path)
		var body transferRequest
		require.NoError(t, json.Unmarshal(req.Body, &body))
		assert.Equal(t, "+15559876543", body.To)
		assert.Equal(t, 45, body.TimeoutSecs)
		assert.NotEmpty(t, body.CommandID)
		assert.Contains(t, res.stderr, "Call transferred to +15559876543")
	})

	t.Run("transfer validates phone destinations", func(t *testing.T) {
		before := len(h.srv.Requests())
		res := h.run("call", "transfer", "v3:abcdefghijklmnopqrstuvwxyz", "+12")

		assert.Equal(t, 1, res.code)
		assert.Contains(t, res.stderr, "Invalid phone number format")
		assert.Len(t, h.srv.Requests(), before)
	})

	t.Run("transfer accepts sip", func(t *testing.T) {
		h.mustRun("call", "transfer", "v3:abcdefghijklmnopqrstuvwxyz", "sip:desk@example.com")

		var body transferRequest
		require.NoError(t, json.Unmarshal(h.lastRequest().Body, &body))
		assert.Equal(t, "sip:desk@example.com", body.To)
		assert.Equal(t, 30, body.TimeoutSecs)
	})
}

func TestTenDLCEnums(t *testing.T) {
	h := newHarness(t).withKey("")
	h.srv.Reply(http.MethodGet, "/10dlc/enum/usecase", http.StatusOK, map[string]any{
		"MARKETING": map[string]any{"displayName": "Marketing", "description": "Promotional content", "classification": "STANDARD"},
		"2FA":       map[string]any{"displayName": "2FA", "description": "Authentication codes", "classification": "STANDARD"},
	})
	h.srv.Reply(http.MethodGet, "/10dlc/enum/vertical", http.StatusOK, map[string]any{
		"TECHNOLOGY": map[string]any{"displayName": "Information Technology Services"},
	})

	t.Run("usecases sorted by key", func(t *testing.T) {
		res := h.mustRun("10dlc", "usecases")

		lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "USECASE"))
		assert.True(t, strings.HasPrefix(lines[1], "2FA"))
		assert.True(t, strings.HasPrefix(lines[2], "MARKETING"))
		assert.Contains(t, lines[2], "Promotional content")
	})

	t.Run("usecases ids", func(t *testing.T) {
		res := h.mustRun("10dlc", "usecases", "-o", "ids")
		assert.Equal(t, "2FA\nMARKETING\n", res.stdout)
	})

	t.Run("verticals json is the upstream map", func(t *testing.T) {
		res := h.mustRun("10dlc", "verticals", "--json")

		var got map[string]map[string]any
		require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
		assert.Equal(t, "Information Technology Services", got["TECHNOLOGY"]["displayName"])
		assert.Equal(t, "/10dlc/enum/vertical", h.lastRequest().Path)
	})
}
