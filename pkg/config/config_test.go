package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Driver  string        `envconfig:"DRIVER" split_words:"true" default:"memory"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
	Token   string        `envconfig:"TOKEN" split_words:"true"`
}

func TestNewReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CFGTEST_DRIVER=badger\nCFGTEST_TOKEN=abc\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		SetEnvFile("")
		os.Unsetenv("CFGTEST_DRIVER")
		os.Unsetenv("CFGTEST_TOKEN")
	})

	SetEnvFile(path)
	conf, err := New[testConfig]("CFGTEST")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Driver != "badger" || conf.Token != "abc" {
		t.Fatalf("New() = %+v", conf)
	}
	if conf.Timeout != 5*time.Second {
		t.Fatalf("Timeout = %v, want default 5s", conf.Timeout)
	}
}

func TestNewMissingEnvFile(t *testing.T) {
	t.Cleanup(func() { SetEnvFile("") })

	SetEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	if _, err := New[testConfig]("CFGTEST"); err == nil {
		t.Fatal("New() error = nil, want missing file error")
	}
}

func TestNewDefaultsWithoutEnvFile(t *testing.T) {
	t.Setenv("CFGMISS_TOKEN", "from-env")

	conf, err := New[testConfig]("CFGMISS")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Driver != "memory" || conf.Token != "from-env" {
		t.Fatalf("New() = %+v", conf)
	}
}
