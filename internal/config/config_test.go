package config_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/kargo/internal/config"
	"github.com/tournevent/kargo/pkg/shipper"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, config.TokenBackendFile, cfg.TokenBackend)
	assert.Equal(t, "/tmp/kargo", cfg.TokenDir)
	assert.Equal(t, "kargo", cfg.ServiceName)
	assert.False(t, cfg.OTELEnabled)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("TOKEN_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("ARAS_USERNAME", "aras-user")
	t.Setenv("ARAS_PASSWORD", "aras-pass")
	t.Setenv("ARAS_CUSTOMER_CODE", "C42")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)

	acc, err := cfg.Account("aras")
	require.NoError(t, err)
	assert.Equal(t, shipper.Account{"username": "aras-user", "password": "aras-pass", "customer_code": "C42"}, acc)
}

func TestLoad_InvalidTokenBackend(t *testing.T) {
	t.Setenv("TOKEN_BACKEND", "memcached")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown TOKEN_BACKEND "memcached"`)
}

func TestLoad_InvalidInteger(t *testing.T) {
	t.Setenv("REDIS_DB", "two")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestConfig_Account(t *testing.T) {
	cfg := &config.Config{
		HepsiJetUsername:    "hj",
		HepsiJetCompanyCode: "ACM",
		DHLClientID:         "cid",
		UPSCustomerNumber:   "C100",
		PTTPostaCeki:        "PC-77",
	}

	tests := []struct {
		carrier string
		key     string
		want    string
	}{
		{"hepsijet", "company_code", "ACM"},
		{"dhl", "client_id", "cid"},
		{"ups", "customer_number", "C100"},
		{"ptt", "posta_ceki", "PC-77"},
	}
	for _, tt := range tests {
		t.Run(tt.carrier, func(t *testing.T) {
			acc, err := cfg.Account(tt.carrier)
			require.NoError(t, err)
			assert.Equal(t, tt.want, acc[tt.key])
		})
	}

	_, err := cfg.Account("yurtici")
	assert.True(t, errors.Is(err, shipper.ErrCarrierNotFound))
}

func TestConfig_Attributes(t *testing.T) {
	cfg := &config.Config{ServiceName: "kargo", Version: "1.2.3", TokenBackend: "redis"}

	attrs := cfg.Attributes()

	require.Len(t, attrs, 4)
	assert.Equal(t, "kargo", attrs[0].Value.AsString())
	assert.Equal(t, "redis", attrs[2].Value.AsString())
}
