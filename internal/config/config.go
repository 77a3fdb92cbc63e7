// Package config handles platform configuration
package config

import (
	"os"
	"strconv"
)

type Config struct {
	HTTPAddr        string
	DeepgramAPIKey  string
	DeepgramModel   string
	GeminiAPIKey    string
	GeminiModel     string
	DefaultLanguage string
	MaxUploadBytes  int64
	BufferTTL       float64 // seconds without activity before a session buffer is dropped
}

func Load() *Config {
	return &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8000"),
		DeepgramAPIKey:  getEnv("DEEPGRAM_API_KEY", ""),
		DeepgramModel:   getEnv("DEEPGRAM_MODEL", "nova-2"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_BYTES", 25<<20)),
		BufferTTL:       getEnvFloat("BUFFER_TTL_SECONDS", 600),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
