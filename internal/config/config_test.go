package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != StoreDynamoDB {
		t.Errorf("expected dynamodb backend, got %q", cfg.StoreBackend)
	}
	if cfg.StoreFailurePolicy != "tolerant" {
		t.Errorf("expected tolerant policy, got %q", cfg.StoreFailurePolicy)
	}
	if cfg.CollaboratorTimeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.CollaboratorTimeout)
	}
	if cfg.DebugDiagnostics {
		t.Error("diagnostics must be off by default")
	}
	if cfg.AIMaxTokens != 400 || cfg.AITemperature != 0.7 {
		t.Errorf("unexpected AI defaults: %d %v", cfg.AIMaxTokens, cfg.AITemperature)
	}
	if cfg.Export.Prefix != "contacts/" || cfg.Export.DaysBack != 1 {
		t.Errorf("unexpected export defaults: %+v", cfg.Export)
	}
	if cfg.Digest.Days != 7 || cfg.Digest.AthenaWorkgroup != "primary" {
		t.Errorf("unexpected digest defaults: %+v", cfg.Digest)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", " Postgres ")
	t.Setenv("STORE_FAILURE_POLICY", "STRICT")
	t.Setenv("COLLABORATOR_TIMEOUT", "1500ms")
	t.Setenv("DEBUG_DIAGNOSTICS", "true")
	t.Setenv("EXPORT_BUCKET", "contacts-archive")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != StorePostgres {
		t.Errorf("backend: got %q", cfg.StoreBackend)
	}
	if cfg.StoreFailurePolicy != "strict" {
		t.Errorf("policy: got %q", cfg.StoreFailurePolicy)
	}
	if cfg.CollaboratorTimeout != 1500*time.Millisecond {
		t.Errorf("timeout: got %v", cfg.CollaboratorTimeout)
	}
	if !cfg.DebugDiagnostics {
		t.Error("diagnostics should be on")
	}
	if cfg.Export.Bucket != "contacts-archive" {
		t.Errorf("nested export config not parsed: %+v", cfg.Export)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"STORE_BACKEND", "mongo", "STORE_BACKEND"},
		{"STORE_FAILURE_POLICY", "lenient", "STORE_FAILURE_POLICY"},
		{"COLLABORATOR_TIMEOUT", "0s", "COLLABORATOR_TIMEOUT"},
		{"AI_MAX_TOKENS", "lots", "parse env:"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

type fakeSSM struct {
	getFunc func(ctx context.Context, in *ssm.GetParameterInput) (*ssm.GetParameterOutput, error)
	calls   int
}

func (f *fakeSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	return f.getFunc(ctx, in)
}

func TestResolveSecretsFromSSM(t *testing.T) {
	client := &fakeSSM{getFunc: func(_ context.Context, in *ssm.GetParameterInput) (*ssm.GetParameterOutput, error) {
		if aws.ToString(in.Name) != "/portfolio/resend-key" {
			t.Errorf("unexpected parameter name %q", aws.ToString(in.Name))
		}
		if !aws.ToBool(in.WithDecryption) {
			t.Error("expected WithDecryption")
		}
		return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(" re_123 \n")}}, nil
	}}

	cfg := &Config{ResendAPIKeyParam: "/portfolio/resend-key"}
	if !cfg.NeedsSSM() {
		t.Fatal("expected NeedsSSM")
	}
	if err := cfg.ResolveSecrets(context.Background(), client); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.ResendAPIKey != "re_123" {
		t.Fatalf("expected trimmed key, got %q", cfg.ResendAPIKey)
	}
}

func TestResolveSecretsDirectValueWins(t *testing.T) {
	client := &fakeSSM{}
	cfg := &Config{ResendAPIKey: "re_direct", ResendAPIKeyParam: "/ignored"}
	if cfg.NeedsSSM() {
		t.Fatal("direct key should not need ssm")
	}
	if err := cfg.ResolveSecrets(context.Background(), client); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("ssm should not be called, got %d calls", client.calls)
	}
}

func TestResolveSecretsError(t *testing.T) {
	client := &fakeSSM{getFunc: func(context.Context, *ssm.GetParameterInput) (*ssm.GetParameterOutput, error) {
		return nil, errors.New("access denied")
	}}
	cfg := &Config{ResendAPIKeyParam: "/portfolio/resend-key"}
	err := cfg.ResolveSecrets(context.Background(), client)
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected wrapped ssm error, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PORTFOLIO_DOTENV_TEST=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("PORTFOLIO_DOTENV_TEST") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("PORTFOLIO_DOTENV_TEST"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
}
