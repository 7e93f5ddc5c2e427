package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the process reads from the environment.
// A .env file in the working directory is honored if present.
type Config struct {
	ListenAddr   string
	DatabaseURL  string
	AIServiceURL string
	KafkaBroker  string
	KafkaTopic   string
	KafkaGroupID string

	// DetectTimeout bounds the single outbound relay call.
	DetectTimeout time.Duration

	// DetectRate / DetectBurst throttle relay triggers so the upstream
	// detector is not flooded by a misbehaving dashboard.
	DetectRate  float64
	DetectBurst int

	// ProcessedDir holds detector-annotated output files served by
	// GET /processed-video/:video_id.
	ProcessedDir string

	// SessionBuffer is the per-session event channel depth; a session
	// further behind than this starts dropping events.
	SessionBuffer int
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		ListenAddr:    getenv("LISTEN_ADDR", ":4050"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AIServiceURL:  os.Getenv("AI_SERVICE_URL"),
		KafkaBroker:   os.Getenv("KAFKA_BROKER"),
		KafkaTopic:    getenv("KAFKA_TOPIC", "drowning_events"),
		KafkaGroupID:  getenv("KAFKA_GROUP_ID", "aquaguard-backend"),
		DetectTimeout: getenvDuration("DETECT_TIMEOUT", 30*time.Second),
		DetectRate:    getenvFloat("DETECT_RATE", 2),
		DetectBurst:   getenvInt("DETECT_BURST", 5),
		ProcessedDir:  getenv("PROCESSED_DIR", "processed"),
		SessionBuffer: getenvInt("SESSION_BUFFER", 16),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
