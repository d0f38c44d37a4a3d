package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/tournevent/kargo/pkg/shipper"
	"go.opentelemetry.io/otel/attribute"
)

// Token backends.
const (
	TokenBackendFile   = "file"
	TokenBackendRedis  = "redis"
	TokenBackendMemory = "memory"
)

// Config holds all configuration for the kargo CLI.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	UseMock  bool   `envconfig:"KARGO_USE_MOCK" default:"false"`

	// Token cache
	TokenBackend  string `envconfig:"TOKEN_BACKEND" default:"file"`
	TokenDir      string `envconfig:"TOKEN_DIR" default:"/tmp/kargo"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// HepsiJet
	HepsiJetUsername    string `envconfig:"HEPSIJET_USERNAME"`
	HepsiJetPassword    string `envconfig:"HEPSIJET_PASSWORD"`
	HepsiJetCompanyName string `envconfig:"HEPSIJET_COMPANY_NAME"`
	HepsiJetCompanyCode string `envconfig:"HEPSIJET_COMPANY_CODE"`

	// DHL / MNG
	DHLUsername     string `envconfig:"DHL_USERNAME"`
	DHLPassword     string `envconfig:"DHL_PASSWORD"`
	DHLClientID     string `envconfig:"DHL_CLIENT_ID"`
	DHLClientSecret string `envconfig:"DHL_CLIENT_SECRET"`

	// UPS
	UPSCustomerNumber string `envconfig:"UPS_CUSTOMER_NUMBER"`
	UPSUsername       string `envconfig:"UPS_USERNAME"`
	UPSPassword       string `envconfig:"UPS_PASSWORD"`

	// Aras
	ArasUsername     string `envconfig:"ARAS_USERNAME"`
	ArasPassword     string `envconfig:"ARAS_PASSWORD"`
	ArasCustomerCode string `envconfig:"ARAS_CUSTOMER_CODE"`

	// PTT
	PTTUsername  string `envconfig:"PTT_USERNAME"`
	PTTPassword  string `envconfig:"PTT_PASSWORD"`
	PTTPostaCeki string `envconfig:"PTT_POSTA_CEKI"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"kargo"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings envconfig cannot express.
func (c *Config) Validate() error {
	switch c.TokenBackend {
	case TokenBackendFile:
		if c.TokenDir == "" {
			return fmt.Errorf("loading config: TOKEN_DIR is required for the file token backend")
		}
	case TokenBackendRedis, TokenBackendMemory:
	default:
		return fmt.Errorf("loading config: unknown TOKEN_BACKEND %q", c.TokenBackend)
	}
	return nil
}

// Account returns the configured credentials of carrier, keyed the way its
// adapter expects. Unset fields are left blank for the adapter to reject.
func (c *Config) Account(carrier string) (shipper.Account, error) {
	switch carrier {
	case "hepsijet":
		return shipper.Account{
			"username":     c.HepsiJetUsername,
			"password":     c.HepsiJetPassword,
			"company_name": c.HepsiJetCompanyName,
			"company_code": c.HepsiJetCompanyCode,
		}, nil
	case "dhl":
		return shipper.Account{
			"username":      c.DHLUsername,
			"password":      c.DHLPassword,
			"client_id":     c.DHLClientID,
			"client_secret": c.DHLClientSecret,
		}, nil
	case "ups":
		return shipper.Account{
			"customer_number": c.UPSCustomerNumber,
			"username":        c.UPSUsername,
			"password":        c.UPSPassword,
		}, nil
	case "aras":
		return shipper.Account{
			"username":      c.ArasUsername,
			"password":      c.ArasPassword,
			"customer_code": c.ArasCustomerCode,
		}, nil
	case "ptt":
		return shipper.Account{
			"username":   c.PTTUsername,
			"password":   c.PTTPassword,
			"posta_ceki": c.PTTPostaCeki,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", shipper.ErrCarrierNotFound, carrier)
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("kargo.token_backend", c.TokenBackend),
		attribute.Bool("kargo.use_mock", c.UseMock),
	}
}
