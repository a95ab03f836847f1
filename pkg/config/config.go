package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds settings shared by the command line tools. Flags override
// these values.
type Config struct {
	// Google Maps
	GoogleAPIKey string

	// Proximity matching
	ProximityMeters float64

	// Stop crawl
	CrawlStartLat     float64
	CrawlStartLng     float64
	CrawlIntervals    int
	CrawlStepKm       float64
	CrawlRadiusMeters int
	CrawlKeyword      string
	CrawlLocality     string

	// OD graph validity
	MaxGoogleKm float64
}

// Load reads .env files (if present) and then configuration from
// environment variables with sensible defaults.
func Load(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	return &Config{
		// Google Maps
		GoogleAPIKey: getEnv("GOOGLE_API_KEY", ""),

		// Proximity matching
		ProximityMeters: getEnvFloat("PROXIMITY_METERS", 1000),

		// Stop crawl
		CrawlStartLat:     getEnvFloat("CRAWL_START_LAT", 33.351247),
		CrawlStartLng:     getEnvFloat("CRAWL_START_LNG", 72.772021),
		CrawlIntervals:    getEnvInt("CRAWL_INTERVALS", 30),
		CrawlStepKm:       getEnvFloat("CRAWL_STEP_KM", 2),
		CrawlRadiusMeters: getEnvInt("CRAWL_RADIUS_METERS", 2000),
		CrawlKeyword:      getEnv("CRAWL_KEYWORD", "public transport"),
		CrawlLocality:     getEnv("CRAWL_LOCALITY", "Islamabad"),

		// OD graph validity
		MaxGoogleKm: getEnvFloat("MAX_GOOGLE_KM", 11.48),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
