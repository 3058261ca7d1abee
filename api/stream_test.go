package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telnyx/telnyx-cli/api"
)

func chunk(content string) string {
	data, _ := json.Marshal(map[string]any{
		"object": "chat.completion.chunk",
		"choices": []map[string]any{
			{"index": 0, "delta": map[string]any{"content": content}},
		},
	})
	return "data: " + string(data) + "\n\n"
}

func TestReadEvents(t *testing.T) {
	t.Run("stops at done marker", func(t *testing.T) {
		stream := chunk("a") + ": keep-alive\n\n" + "event: message\n" + chunk("b") + "data: [DONE]\n\n" + chunk("after")

		var got []string
		require.NoError(t, api.ReadEvents(strings.NewReader(stream), func(data string) error {
			got = append(got, api.DeltaContent(data))
			return nil
		}))
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("ends at eof without marker", func(t *testing.T) {
		stream := chunk("x") + "data: {\"choices\":[{\"delta\":{\"content\":\"y\"}}]}"

		var got []string
		require.NoError(t, api.ReadEvents(strings.NewReader(stream), func(data string) error {
			got = append(got, api.DeltaContent(data))
			return nil
		}))
		assert.Equal(t, []string{"x", "y"}, got)
	})

	t.Run("handles crlf", func(t *testing.T) {
		stream := strings.ReplaceAll(chunk("crlf"), "\n", "\r\n") + "data: [DONE]\r\n"

		var got []string
		require.NoError(t, api.ReadEvents(strings.NewReader(stream), func(data string) error {
			got = append(got, api.DeltaContent(data))
			return nil
		}))
		assert.Equal(t, []string{"crlf"}, got)
	})

	t.Run("callback error aborts", func(t *testing.T) {
		want := fmt.Errorf("boom")
		err := api.ReadEvents(strings.NewReader(chunk("a")+chunk("b")), func(string) error { return want })
		assert.ErrorIs(t, err, want)
	})
}

func TestDeltaContent(t *testing.T) {
	assert.Equal(t, "hi", api.DeltaContent(`{"choices":[{"delta":{"content":"hi"}}]}`))
	assert.Empty(t, api.DeltaContent(`{"choices":[{"delta":{"role":"assistant"}}]}`))
	assert.Empty(t, api.DeltaContent(`{"choices":[]}`))
	assert.Empty(t, api.DeltaContent(`not json`))
}

func TestClient_Stream(t *testing.T) {
	t.Run("writes content as it arrives", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v2/ai/chat/completions", r.URL.Path)
			assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, true, body["stream"])

			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, chunk("Hello")+chunk(", ")+chunk("world")+"data: [DONE]\n\n")
		})

		var out strings.Builder
		err := client.Stream(context.Background(), "/ai/chat/completions",
			map[string]any{"model": "m", "stream": true}, api.Options{}, &out)
		require.NoError(t, err)
		assert.Equal(t, "Hello, world", out.String())
	})

	t.Run("error status is classified", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"errors": []any{map[string]any{"code": "10001", "title": "Authentication failed"}},
			})
		})

		var out strings.Builder
		err := client.Stream(context.Background(), "/ai/chat/completions", map[string]any{}, api.Options{}, &out)

		var apiErr *api.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "10001", apiErr.Code)
		assert.Contains(t, err.Error(), api.HintFor("10001"))
		assert.Empty(t, out.String())
	})
}

func TestProperty_StreamConcatenatesChunks(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("output is the concatenation of chunk contents", prop.ForAll(
		func(parts []string) bool {
			var stream strings.Builder
			for _, p := range parts {
				stream.WriteString(chunk(p))
			}
			stream.WriteString("data: [DONE]\n\n")

			var got strings.Builder
			err := api.ReadEvents(strings.NewReader(stream.String()), func(data string) error {
				got.WriteString(api.DeltaContent(data))
				return nil
			})
			return err == nil && got.String() == strings.Join(parts, "")
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
