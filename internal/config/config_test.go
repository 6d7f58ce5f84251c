package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAPI, "")
	t.Setenv(EnvDataDir, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL || cfg.Timeout != 10*time.Second || cfg.LogLevel != "info" {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
api_url: http://api.internal:8080
timeout: 3s
log_level: debug
server:
  listen: ":9000"
  jwt_secret: s3cret
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvAPI, "")
	t.Setenv(EnvDataDir, dir)
	t.Setenv(EnvJWTSecret, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIURL != "http://api.internal:8080" {
		t.Errorf("Expected api_url from file, got %q", cfg.APIURL)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Expected 3s timeout, got %s", cfg.Timeout)
	}
	if cfg.Server.Listen != ":9000" || cfg.Server.JWTSecret != "s3cret" {
		t.Errorf("Unexpected server config %+v", cfg.Server)
	}
	if cfg.Server.TokenTTL != 24*time.Hour {
		t.Errorf("Expected default token ttl to survive, got %s", cfg.Server.TokenTTL)
	}
	if cfg.DataDir != dir || cfg.ClientDB() != filepath.Join(dir, "client.db") {
		t.Errorf("Expected env data dir, got %q", cfg.DataDir)
	}

	t.Setenv(EnvAPI, "http://override")
	cfg, _ = Load(path)
	if cfg.APIURL != "http://override" {
		t.Errorf("Expected env override, got %q", cfg.APIURL)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "SPHERE_API=http://dotenv.example\nSPHERE_JWT_SECRET=from-dotenv\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvAPI, "")
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvJWTSecret, "")

	cfg, err := LoadWithEnvFile(filepath.Join(dir, "none.yaml"), envFile)
	if err != nil {
		t.Fatalf("LoadWithEnvFile failed: %v", err)
	}
	if cfg.APIURL != "http://dotenv.example" || cfg.Server.JWTSecret != "from-dotenv" {
		t.Errorf("Expected dotenv values, got %q %q", cfg.APIURL, cfg.Server.JWTSecret)
	}

	// The real environment wins over the file.
	t.Setenv(EnvAPI, "http://env.example")
	cfg, err = LoadWithEnvFile(filepath.Join(dir, "none.yaml"), envFile)
	if err != nil {
		t.Fatalf("LoadWithEnvFile failed: %v", err)
	}
	if cfg.APIURL != "http://env.example" {
		t.Errorf("Expected environment to win, got %q", cfg.APIURL)
	}

	if _, err := LoadWithEnvFile(filepath.Join(dir, "none.yaml"), filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("Missing dotenv file should be ignored, got %v", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("log_level: loud\n"), 0o600)
	if _, err := Load(bad); err == nil {
		t.Error("Expected error for invalid log level")
	}

	garbled := filepath.Join(dir, "garbled.yaml")
	os.WriteFile(garbled, []byte("api_url: [\n"), 0o600)
	if _, err := Load(garbled); err == nil {
		t.Error("Expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvAPI, "")
	t.Setenv(EnvDataDir, "")

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.APIURL = "http://example.test"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.APIURL != "http://example.test" {
		t.Errorf("Expected saved api_url, got %q", got.APIURL)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}
