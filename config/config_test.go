package config

import (
	"testing"
	"time"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MAIL_TRANSPORT", "SMTP")
	t.Setenv("MAIL_SEND_TIMEOUT", "3s")
	t.Setenv("MAIL_FANOUT_TIMEOUT", "45s")
	t.Setenv("MAIL_MAX_ATTEMPTS", "7")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("ARCHIVE_BACKEND", "MinIO")
	t.Setenv("JWT_SECRET", "  secret  ")

	cfg := LoadConfig()
	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d", cfg.ServerPort)
	}
	if cfg.Mail.Transport != "smtp" {
		t.Errorf("Mail.Transport = %q", cfg.Mail.Transport)
	}
	if cfg.Mail.SendTimeout != 3*time.Second {
		t.Errorf("Mail.SendTimeout = %v", cfg.Mail.SendTimeout)
	}
	if cfg.Mail.FanoutTimeout != 45*time.Second {
		t.Errorf("Mail.FanoutTimeout = %v", cfg.Mail.FanoutTimeout)
	}
	if cfg.Mail.MaxAttempts != 7 {
		t.Errorf("Mail.MaxAttempts = %d", cfg.Mail.MaxAttempts)
	}
	if !cfg.Database.UseSSL {
		t.Error("Database.UseSSL = false")
	}
	if cfg.Archive.Backend != "minio" {
		t.Errorf("Archive.Backend = %q", cfg.Archive.Backend)
	}
	if cfg.JWTSecret != "secret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
}

func TestLoadConfigIgnoresBadDurations(t *testing.T) {
	t.Setenv("MAIL_SEND_TIMEOUT", "-5s")
	t.Setenv("MAIL_FANOUT_TIMEOUT", "soon")
	t.Setenv("DB_USE_SSL", "maybe")

	cfg := LoadConfig()
	if cfg.Mail.SendTimeout != 10*time.Second {
		t.Errorf("Mail.SendTimeout = %v", cfg.Mail.SendTimeout)
	}
	if cfg.Mail.FanoutTimeout != 2*time.Minute {
		t.Errorf("Mail.FanoutTimeout = %v", cfg.Mail.FanoutTimeout)
	}
	if cfg.Database.UseSSL {
		t.Error("Database.UseSSL should fall back to false")
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	if loc := (Config{Timezone: "Not/AZone"}).Location(); loc != time.UTC {
		t.Errorf("Location = %v", loc)
	}
}
