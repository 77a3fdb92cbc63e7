package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want :8000", cfg.HTTPAddr)
	}
	if cfg.DeepgramModel != "nova-2" {
		t.Errorf("DeepgramModel = %q, want nova-2", cfg.DeepgramModel)
	}
	if cfg.DefaultLanguage != "en" {
		t.Errorf("DefaultLanguage = %q, want en", cfg.DefaultLanguage)
	}
	if cfg.MaxUploadBytes != 25<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, 25<<20)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("BUFFER_TTL_SECONDS", "30.5")

	cfg := Load()

	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("MaxUploadBytes = %d, want 1024", cfg.MaxUploadBytes)
	}
	if cfg.BufferTTL != 30.5 {
		t.Errorf("BufferTTL = %v, want 30.5", cfg.BufferTTL)
	}
}

func TestEnvInvalidFallsBack(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "not-a-number")

	cfg := Load()
	if cfg.MaxUploadBytes != 25<<20 {
		t.Errorf("MaxUploadBytes = %d, want default on parse failure", cfg.MaxUploadBytes)
	}
}
