package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "LOG_FILE", "BOT_TOKEN", "COMMAND_PREFIX", "POLL_TIMEOUT_SECONDS",
		"NOTIFY_RATE_PER_SEC", "APPROVAL_TIMEOUT", "TARGET_ROLE", "MODERATOR_ROLES", "POSTGRES_DSN",
		"DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "HTTP_ADDR", "HTTP_ADMIN_TOKEN",
		"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Approval.Timeout != 10*time.Second {
		t.Fatalf("expected default timeout 10s, got %s", cfg.Approval.Timeout)
	}
	if cfg.Bot.CommandPrefix != "/" {
		t.Fatalf("expected default prefix /, got %q", cfg.Bot.CommandPrefix)
	}
	if want := []string{"Moderator", "Admin", "Administrator", "Mod"}; !reflect.DeepEqual(cfg.Moderator.FallbackRoles, want) {
		t.Fatalf("unexpected fallback roles: %v", cfg.Moderator.FallbackRoles)
	}
	if cfg.RedisEnabled() {
		t.Fatal("expected redis disabled by default")
	}
	if cfg.HTTPEnabled() {
		t.Fatal("expected http disabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APPROVAL_TIMEOUT", "45")
	t.Setenv("COMMAND_PREFIX", "!")
	t.Setenv("TARGET_ROLE", "Gatekeeper")
	t.Setenv("MODERATOR_ROLES", " Mod , Helper,, ")
	t.Setenv("DATABASE_URL", "postgres://x@db/botgate")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Approval.Timeout != 45*time.Second {
		t.Fatalf("expected timeout 45s, got %s", cfg.Approval.Timeout)
	}
	if cfg.Bot.CommandPrefix != "!" {
		t.Fatalf("expected prefix !, got %q", cfg.Bot.CommandPrefix)
	}
	if cfg.Moderator.TargetRole != "Gatekeeper" {
		t.Fatalf("unexpected target role %q", cfg.Moderator.TargetRole)
	}
	if want := []string{"Mod", "Helper"}; !reflect.DeepEqual(cfg.Moderator.FallbackRoles, want) {
		t.Fatalf("unexpected fallback roles: %v", cfg.Moderator.FallbackRoles)
	}
	if cfg.Postgres.DSN != "postgres://x@db/botgate" {
		t.Fatalf("expected DATABASE_URL fallback, got %q", cfg.Postgres.DSN)
	}
	if !cfg.RedisEnabled() {
		t.Fatal("expected redis enabled")
	}
}

func TestLoadRejectsTimeoutOutOfRange(t *testing.T) {
	for _, raw := range []string{"4", "301", "2s"} {
		t.Run(raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APPROVAL_TIMEOUT", raw)

			_, err := Load("")
			if !errors.Is(err, ErrInvalidApprovalTimeout) {
				t.Fatalf("expected ErrInvalidApprovalTimeout, got %v", err)
			}
		})
	}
}

func TestLoadAcceptsTimeoutBounds(t *testing.T) {
	for _, raw := range []string{"5", "300", "1m"} {
		t.Run(raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APPROVAL_TIMEOUT", raw)

			if _, err := Load(""); err != nil {
				t.Fatalf("expected %s to be accepted: %v", raw, err)
			}
		})
	}
}

func TestLoadFromYAMLThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
bot:
  command_prefix: "?"
approval:
  timeout: 30s
moderator:
  target_role: Warden
http:
  addr: ":9090"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HTTP_ADDR", ":9191")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Bot.CommandPrefix != "?" || cfg.Approval.Timeout != 30*time.Second || cfg.Moderator.TargetRole != "Warden" {
		t.Fatalf("yaml values not applied: %+v", cfg)
	}
	if cfg.HTTP.Addr != ":9191" {
		t.Fatalf("expected env to override yaml http addr, got %q", cfg.HTTP.Addr)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Approval.Timeout != 10*time.Second {
		t.Fatalf("expected defaults, got %s", cfg.Approval.Timeout)
	}
}
