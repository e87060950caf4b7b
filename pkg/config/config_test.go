package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	Address string        `envconfig:"ADDRESS" default:":8080"`
	APIKey  string        `envconfig:"API_KEY" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"5s"`
}

func TestNewReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CFGTEST_API_KEY=secret\nCFGTEST_TIMEOUT=9s\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	SetEnvFile(path)
	t.Cleanup(func() {
		SetEnvFile("")
		_ = os.Unsetenv("CFGTEST_API_KEY")
		_ = os.Unsetenv("CFGTEST_TIMEOUT")
	})

	conf, err := New[sampleConfig]("CFGTEST")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.APIKey != "secret" {
		t.Fatalf("APIKey = %q, want secret", conf.APIKey)
	}
	if conf.Timeout != 9*time.Second {
		t.Fatalf("Timeout = %v, want 9s", conf.Timeout)
	}
	if conf.Address != ":8080" {
		t.Fatalf("Address = %q, want default", conf.Address)
	}
}

func TestNewDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CFGTEST2_API_KEY=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("CFGTEST2_API_KEY", "from-env")
	SetEnvFile(path)
	t.Cleanup(func() { SetEnvFile("") })

	conf, err := New[sampleConfig]("CFGTEST2")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.APIKey != "from-env" {
		t.Fatalf("APIKey = %q, want from-env", conf.APIKey)
	}
}

func TestExplicitEnvFileReplacesDefault(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CFGFILE_API_KEY=from-default-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write default env file: %v", err)
	}
	prod := filepath.Join(dir, "prod.env")
	if err := os.WriteFile(prod, []byte("CFGFILE_API_KEY=from-explicit-env-flag\n"), 0o600); err != nil {
		t.Fatalf("write explicit env file: %v", err)
	}

	t.Chdir(dir)
	SetEnvFile("")
	t.Cleanup(func() {
		SetEnvFile("")
		_ = os.Unsetenv("CFGFILE_API_KEY")
	})

	conf, err := New[sampleConfig]("CFGFILE")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.APIKey != "from-default-dotenv" {
		t.Fatalf("APIKey = %q, want from-default-dotenv", conf.APIKey)
	}

	SetEnvFile(prod)
	conf, err = New[sampleConfig]("CFGFILE")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.APIKey != "from-explicit-env-flag" {
		t.Fatalf("APIKey = %q, want from-explicit-env-flag", conf.APIKey)
	}
}

func TestExplicitEnvFileKeepsProcessEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CFGFILE2_API_KEY=from-default-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write default env file: %v", err)
	}
	prod := filepath.Join(dir, "prod.env")
	if err := os.WriteFile(prod, []byte("CFGFILE2_API_KEY=from-explicit-env-flag\n"), 0o600); err != nil {
		t.Fatalf("write explicit env file: %v", err)
	}

	t.Chdir(dir)
	t.Setenv("CFGFILE2_API_KEY", "from-process")
	SetEnvFile("")
	t.Cleanup(func() { SetEnvFile("") })

	if _, err := New[sampleConfig]("CFGFILE2"); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	SetEnvFile(prod)
	conf, err := New[sampleConfig]("CFGFILE2")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.APIKey != "from-process" {
		t.Fatalf("APIKey = %q, want from-process", conf.APIKey)
	}
}

func TestNewMissingRequired(t *testing.T) {
	SetEnvFile("")
	if _, err := New[sampleConfig]("CFGTEST_MISSING"); err == nil {
		t.Fatal("expected error for missing required field")
	}
}
