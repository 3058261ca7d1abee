package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telnyx/telnyx-cli/config"
	"github.com/telnyx/telnyx-cli/telnyxtest"
)

// harness runs the CLI in-process against a fake upstream and a
// throwaway config file.
type harness struct {
	t          *testing.T
	srv        *telnyxtest.Server
	configPath string
	stdin      string
}

type result struct {
	code   int
	stdout string
	stderr string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, name := range []string{config.EnvAPIKey, config.EnvProfile, config.EnvConfigPath, "TELNYX_OUTPUT", "TELNYX_LOG_LEVEL"} {
		t.Setenv(name, "")
	}
	return &harness{
		t:          t,
		srv:        telnyxtest.New(t),
		configPath: filepath.Join(t.TempDir(), "config.json"),
	}
}

// withKey stores the server's API key in profile, the default profile when
// it is the first one.
func (h *harness) withKey(profile string) *harness {
	h.t.Helper()
	require.NoError(h.t, config.NewStore(h.configPath).SetAPIKey(h.srv.APIKey(), profile))
	return h
}

func (h *harness) run(args ...string) result {
	h.t.Helper()
	e := h.srv.Endpoints()
	args = append(args,
		"--config", h.configPath,
		"--api-url", e.APIURL,
		"--tendlc-url", e.TenDLCURL,
		"--storage-url", e.StorageURL,
		"--storage-region", e.StorageRegion,
	)

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(h.stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// mustRun runs args and fails the test on a non-zero exit.
func (h *harness) mustRun(args ...string) result {
	h.t.Helper()
	res := h.run(args...)
	require.Equal(h.t, 0, res.code, "stdout: %s\nstderr: %s", res.stdout, res.stderr)
	return res
}

func (h *harness) lastRequest() telnyxtest.Request {
	h.t.Helper()
	req, ok := h.srv.LastRequest()
	require.True(h.t, ok, "no request reached the server")
	return req
}

func envelope(data any) map[string]any {
	return map[string]any{"data": data}
}

func page(data any, total int) map[string]any {
	return map[string]any{
		"data": data,
		"meta": map[string]any{
			"page_number":   1,
			"page_size":     25,
			"total_pages":   1,
			"total_results": total,
		},
	}
}
