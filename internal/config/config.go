package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress string

	// ElevenLabs conversational agent credentials.
	ElevenLabsAPIKey  string
	ElevenLabsAgentID string

	// ConvAIWSURL overrides the production WebSocket endpoint (tests,
	// self-hosted relays). Empty means the ElevenLabs default.
	ConvAIWSURL string

	// Audio format and gate thresholds.
	SampleRate     int
	IdleThreshold  float64
	BargeThreshold float64
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	addr := getEnv("HTTP_ADDRESS", ":8080")

	apiKey := os.Getenv("ELEVENLABS_API_KEY")
	if apiKey == "" {
		log.Println("Warning: ELEVENLABS_API_KEY not set - sessions will fail to start")
	}
	agentID := os.Getenv("ELEVENLABS_AGENT_ID")
	if agentID == "" {
		log.Println("Warning: ELEVENLABS_AGENT_ID not set - sessions will fail to start")
	}

	cfg := Config{
		HTTPAddress:       addr,
		ElevenLabsAPIKey:  apiKey,
		ElevenLabsAgentID: agentID,
		ConvAIWSURL:       os.Getenv("CONVAI_WS_URL"),
		SampleRate:        getEnvInt("SAMPLE_RATE", 16000),
		IdleThreshold:     getEnvFloat("IDLE_THRESHOLD", 500),
		BargeThreshold:    getEnvFloat("BARGE_THRESHOLD", 4000),
	}

	log.Printf("config: HTTP_ADDRESS=%s SAMPLE_RATE=%d IDLE_THRESHOLD=%.0f BARGE_THRESHOLD=%.0f",
		cfg.HTTPAddress, cfg.SampleRate, cfg.IdleThreshold, cfg.BargeThreshold)
	return cfg
}

// HasCredentials reports whether both agent credentials are present.
func (c Config) HasCredentials() bool {
	return c.ElevenLabsAPIKey != "" && c.ElevenLabsAgentID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("config: invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		log.Printf("config: invalid %s=%q, using %g", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
