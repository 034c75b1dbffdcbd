package config

import (
	"reflect"
	"testing"
	"time"
)

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"https://a.example", []string{"https://a.example"}},
		{" https://a.example , ,https://b.example ", []string{"https://a.example", "https://b.example"}},
	}
	for _, tt := range tests {
		got := parseOrigins(tt.raw)
		if len(tt.want) == 0 && len(got) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseOrigins(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MAX_DB_CONNS", "4")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("EXAM_CACHE_TTL", "30s")
	t.Setenv("SUBMIT_RATE_PER_MINUTE", "not-a-number")

	cfg := Load()

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.MaxDBConns != 4 {
		t.Errorf("MaxDBConns = %d", cfg.MaxDBConns)
	}
	if cfg.JWTExpiry != 2*time.Hour {
		t.Errorf("JWTExpiry = %v", cfg.JWTExpiry)
	}
	if cfg.ExamCacheTTL != 30*time.Second {
		t.Errorf("ExamCacheTTL = %v", cfg.ExamCacheTTL)
	}
	if cfg.SubmitRatePerMinute != 20 {
		t.Errorf("SubmitRatePerMinute = %d, want fallback 20", cfg.SubmitRatePerMinute)
	}
}

func TestGetEnvDurationRejectsNonPositive(t *testing.T) {
	t.Setenv("SOME_TTL", "-5m")
	if got := getEnvDuration("SOME_TTL", time.Minute); got != time.Minute {
		t.Errorf("got %v, want fallback", got)
	}
}
