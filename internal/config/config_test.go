package config

import (
	"os"
	"path/filepath"
	"testing"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	os.Unsetenv("ESEFSCAN_TERMINAL_APP_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Terminal.BaseURL != "http://localhost:9000/api/v1/data" {
		t.Errorf("Terminal.BaseURL: got %q", cfg.Terminal.BaseURL)
	}
	if cfg.Terminal.MinIntervalMS != 200 {
		t.Errorf("Terminal.MinIntervalMS: got %d, want 200", cfg.Terminal.MinIntervalMS)
	}
	if cfg.Terminal.MaxAttempts != 5 {
		t.Errorf("Terminal.MaxAttempts: got %d, want 5", cfg.Terminal.MaxAttempts)
	}
	if cfg.Sample.DataRoot != "./data" {
		t.Errorf("Sample.DataRoot: got %q, want %q", cfg.Sample.DataRoot, "./data")
	}
	if len(cfg.Discover.Feeds) != 2 {
		t.Errorf("Discover.Feeds: got %v", cfg.Discover.Feeds)
	}
	if cfg.Discover.Limit != 25 {
		t.Errorf("Discover.Limit: got %d, want 25", cfg.Discover.Limit)
	}
	if cfg.Logging.Verbose {
		t.Error("Logging.Verbose should be false by default")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	os.Unsetenv("ESEFSCAN_TERMINAL_APP_KEY")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `terminal:
  base_url: http://localhost:9060/api/v1/data
  app_key: file-key-12345
  max_attempts: 3
sample:
  data_root: /srv/esef
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Terminal.BaseURL != "http://localhost:9060/api/v1/data" {
		t.Errorf("Terminal.BaseURL: got %q", cfg.Terminal.BaseURL)
	}
	if cfg.Terminal.AppKey != "file-key-12345" {
		t.Errorf("Terminal.AppKey: got %q", cfg.Terminal.AppKey)
	}
	if cfg.Terminal.MaxAttempts != 3 {
		t.Errorf("Terminal.MaxAttempts: got %d, want 3", cfg.Terminal.MaxAttempts)
	}
	if cfg.Sample.DataRoot != "/srv/esef" {
		t.Errorf("Sample.DataRoot: got %q", cfg.Sample.DataRoot)
	}
	// Unset values keep their defaults.
	if cfg.Terminal.MinIntervalMS != 200 {
		t.Errorf("Terminal.MinIntervalMS: got %d, want default 200", cfg.Terminal.MinIntervalMS)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// ── Env overrides ──

func TestEnvOverridesAppKey(t *testing.T) {
	t.Setenv("ESEFSCAN_TERMINAL_APP_KEY", "env-key-98765")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Terminal.AppKey != "env-key-98765" {
		t.Errorf("Terminal.AppKey: got %q, want env override", cfg.Terminal.AppKey)
	}

	statuses := CheckAPIKeys(cfg)
	if len(statuses) != 1 {
		t.Fatalf("CheckAPIKeys: got %d statuses", len(statuses))
	}
	ks := statuses[0]
	if !ks.IsSet || ks.Source != KeySourceEnv {
		t.Errorf("key status = %+v", ks)
	}
	if ks.Masked != "env...765" {
		t.Errorf("Masked: got %q", ks.Masked)
	}
}

func TestCheckAPIKeysUnset(t *testing.T) {
	os.Unsetenv("ESEFSCAN_TERMINAL_APP_KEY")

	status := CheckAPIKeys(&Config{})[0]
	if status.IsSet || status.Source != KeySourceNone || status.Masked != "" {
		t.Errorf("unset key status = %+v", status)
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey("short"); got != "***" {
		t.Errorf("maskKey(short): got %q", got)
	}
	if got := maskKey("abcdefghijkl"); got != "abc...jkl" {
		t.Errorf("maskKey: got %q", got)
	}
}

// ── Sample layout ──

func TestSampleSetup(t *testing.T) {
	cfg := &Config{Sample: SampleConfig{DataRoot: t.TempDir()}}
	s := NewSample(cfg, "dax2021")

	if err := s.Setup(); err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	for _, dir := range []string{s.ArchivesDir(), s.ImportDir(), s.PackagesDir(), s.ReportsDir(), s.OutputDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("directory %s not created: %v", dir, err)
		}
	}
	if got := s.DatasetPath(); got != filepath.Join(s.Root, "sample", "dataset.csv") {
		t.Errorf("DatasetPath: got %q", got)
	}
}

func TestSampleSetupUncreatable(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root can create directories anywhere")
	}
	cfg := &Config{Sample: SampleConfig{DataRoot: "/proc/esefscan-denied"}}
	if err := NewSample(cfg, "x").Setup(); err == nil {
		t.Fatal("expected error for uncreatable scaffolding")
	}
}
