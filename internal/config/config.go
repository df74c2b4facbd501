package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/joao-fontenele/storefront/internal/telemetry"
)

// Telemetry is shared by every binary.
type Telemetry struct {
	LogLevel       string  `envconfig:"LOG_LEVEL" default:"info"`
	OTLPEndpoint   string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceVersion string  `envconfig:"SERVICE_VERSION" default:"dev"`
	TraceSampling  float64 `envconfig:"TRACE_SAMPLE_RATIO" default:"1"`
}

type Storefront struct {
	Telemetry

	Port            string        `envconfig:"PORT" default:"8080"`
	PostgresURL     string        `envconfig:"POSTGRES_URL" required:"true"`
	KafkaBrokers    []string      `envconfig:"KAFKA_BROKERS"`
	EmailServiceURL string        `envconfig:"EMAIL_SERVICE_URL" default:"http://localhost:8084"`
	NotifyTimeout   time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"5s"`
	MediaBaseURL    string        `envconfig:"MEDIA_BASE_URL" default:"http://localhost:8080/media/"`
	FrontendURL     string        `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"5m"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"24h"`
	ResetTokenTTL   time.Duration `envconfig:"RESET_TOKEN_TTL" default:"72h"`
}

type Worker struct {
	Telemetry

	KafkaBrokers    []string      `envconfig:"KAFKA_BROKERS" required:"true"`
	ConsumerGroup   string        `envconfig:"CONSUMER_GROUP" default:"notification-worker"`
	EmailServiceURL string        `envconfig:"EMAIL_SERVICE_URL" required:"true"`
	SendTimeout     time.Duration `envconfig:"SEND_TIMEOUT" default:"10s"`
	MetricsPort     string        `envconfig:"METRICS_PORT" default:"9091"`
}

type Email struct {
	Telemetry

	Port         string `envconfig:"PORT" default:"8084"`
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     string `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"no-reply@storefront.local"`
}

type Gateway struct {
	Telemetry

	Port           string  `envconfig:"PORT" default:"8000"`
	StorefrontURL  string  `envconfig:"STOREFRONT_URL" required:"true"`
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"40"`

	// RateLimitIdle is how long a client's bucket survives without requests.
	RateLimitIdle time.Duration `envconfig:"RATE_LIMIT_IDLE" default:"10m"`
}

func (t Telemetry) Trace(serviceName string) telemetry.TraceConfig {
	return telemetry.TraceConfig{
		Endpoint:       t.OTLPEndpoint,
		ServiceName:    serviceName,
		ServiceVersion: t.ServiceVersion,
		SampleRatio:    t.TraceSampling,
	}
}

// LoadDotEnv copies variables from an optional .env file into the process
// environment. Variables already set win over the file.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads an optional .env file and decodes the environment into cfg.
func Load(cfg any) error {
	if err := LoadDotEnv(); err != nil {
		return err
	}
	return envconfig.Process("", cfg)
}
