package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		trackTestMode = false
		showMetrics = false
	})
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func mockEnv(t *testing.T) {
	t.Setenv("KARGO_USE_MOCK", "true")
	t.Setenv("TOKEN_BACKEND", "file")
	t.Setenv("TOKEN_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("OTEL_ENABLED", "false")
}

func TestCarriersCommand(t *testing.T) {
	mockEnv(t)

	out, _, err := execute(t, "carriers")

	require.NoError(t, err)
	assert.Equal(t, "aras\ndhl\nhepsijet\nptt\nups\n", out)
}

func TestTrackCommand(t *testing.T) {
	mockEnv(t)
	t.Setenv("ARAS_USERNAME", "user")
	t.Setenv("ARAS_PASSWORD", "secret")
	t.Setenv("ARAS_CUSTOMER_CODE", "C42")

	out, stderr, err := execute(t, "track", "aras", "INT100", "--metrics")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "TESLIM EDILDI", res["Durum"])
	assert.Contains(t, stderr, `kargo_carrier_requests_total{carrier="aras",operation="track",status="ok"} 1`)
}

func TestTrackCommand_MissingAccount(t *testing.T) {
	mockEnv(t)

	_, _, err := execute(t, "track", "ups", "1Z")

	require.Error(t, err)
	assert.Equal(t, "account.customer_number zorunludur", err.Error())
}

func TestTokensCommand(t *testing.T) {
	mockEnv(t)
	t.Setenv("DHL_USERNAME", "user")
	t.Setenv("DHL_PASSWORD", "secret")
	t.Setenv("DHL_CLIENT_ID", "cid")
	t.Setenv("DHL_CLIENT_SECRET", "csecret")

	_, _, err := execute(t, "track", "dhl", "MNG1")
	require.NoError(t, err)

	out, _, err := execute(t, "tokens", "dhl")
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, true, entries[0]["usable"])
	assert.NotContains(t, out, "mock-")

	_, _, err = execute(t, "tokens", "aras")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not use bearer tokens")
}
