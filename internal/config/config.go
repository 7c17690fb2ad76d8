package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration shared by every entrypoint.
// Absent credentials are not errors: the matching collaborator is disabled.
type Config struct {
	LogMode string `env:"LOG_MODE" envDefault:"dev"`

	StoreBackend       string `env:"STORE_BACKEND" envDefault:"dynamodb"`
	ContactsTable      string `env:"CONTACTS_TABLE"`
	DatabaseURL        string `env:"DATABASE_URL"`
	DBAutoMigrate      bool   `env:"DB_AUTO_MIGRATE" envDefault:"false"`
	StoreFailurePolicy string `env:"STORE_FAILURE_POLICY" envDefault:"tolerant"`

	BedrockModelID string  `env:"BEDROCK_MODEL_ID"`
	AIMaxTokens    int     `env:"AI_MAX_TOKENS" envDefault:"400"`
	AITemperature  float64 `env:"AI_TEMPERATURE" envDefault:"0.7"`

	ResendAPIKey      string `env:"RESEND_API_KEY"`
	ResendAPIKeyParam string `env:"RESEND_API_KEY_PARAM"`
	NotifyFrom        string `env:"NOTIFY_FROM" envDefault:"Portfolio Contact <onboarding@resend.dev>"`
	NotifyTo          string `env:"NOTIFY_TO"`
	NotifySNSTopicArn string `env:"NOTIFY_SNS_TOPIC_ARN"`

	CollaboratorTimeout time.Duration `env:"COLLABORATOR_TIMEOUT" envDefault:"5s"`
	DebugDiagnostics    bool          `env:"DEBUG_DIAGNOSTICS" envDefault:"false"`
	HTTPAddr            string        `env:"HTTP_ADDR" envDefault:":8080"`

	Export ExportConfig
	Digest DigestConfig
}

type ExportConfig struct {
	Bucket       string `env:"EXPORT_BUCKET"`
	Prefix       string `env:"EXPORT_PREFIX" envDefault:"contacts/"`
	DaysBack     int    `env:"EXPORT_DAYS_BACK" envDefault:"1"`
	GlueDatabase string `env:"GLUE_DATABASE"`
	GlueTable    string `env:"GLUE_TABLE"`
}

type DigestConfig struct {
	AthenaDatabase  string `env:"ATHENA_DATABASE"`
	AthenaTable     string `env:"ATHENA_TABLE" envDefault:"contacts"`
	AthenaWorkgroup string `env:"ATHENA_WORKGROUP" envDefault:"primary"`
	AthenaOutputS3  string `env:"ATHENA_OUTPUT_S3"`
	Days            int    `env:"DIGEST_DAYS" envDefault:"7"`
}

const (
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
	StoreNone     = "none"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and checks enum-like values.
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.StoreFailurePolicy = strings.ToLower(strings.TrimSpace(cfg.StoreFailurePolicy))

	switch cfg.StoreBackend {
	case StoreDynamoDB, StorePostgres, StoreNone:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q", cfg.StoreBackend)
	}
	switch cfg.StoreFailurePolicy {
	case "tolerant", "strict":
	default:
		return nil, fmt.Errorf("invalid STORE_FAILURE_POLICY %q", cfg.StoreFailurePolicy)
	}
	if cfg.CollaboratorTimeout <= 0 {
		return nil, fmt.Errorf("COLLABORATOR_TIMEOUT must be positive")
	}
	return &cfg, nil
}

// LoadDotEnv loads .env files for local runs. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ResolveSecrets fills credentials that were given as SSM parameter names.
// A directly set value always wins over its *_PARAM counterpart.
func (c *Config) ResolveSecrets(ctx context.Context, client ParameterGetter) error {
	if strings.TrimSpace(c.ResendAPIKey) != "" || strings.TrimSpace(c.ResendAPIKeyParam) == "" {
		return nil
	}
	if client == nil {
		return fmt.Errorf("RESEND_API_KEY_PARAM set but no ssm client")
	}
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(strings.TrimSpace(c.ResendAPIKeyParam)),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("ssm GetParameter %s: %w", c.ResendAPIKeyParam, err)
	}
	if out.Parameter == nil {
		return fmt.Errorf("ssm parameter %s has no value", c.ResendAPIKeyParam)
	}
	c.ResendAPIKey = strings.TrimSpace(aws.ToString(out.Parameter.Value))
	return nil
}

// NeedsSSM reports whether ResolveSecrets has any parameter to fetch.
func (c *Config) NeedsSSM() bool {
	return strings.TrimSpace(c.ResendAPIKey) == "" && strings.TrimSpace(c.ResendAPIKeyParam) != ""
}
