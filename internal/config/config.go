// internal/config/config.go
//
// Environment configuration for the Station Guessr server.
// A `.env` file in the working directory is loaded first when present; real
// environment variables take precedence over it.

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/stationguessr/go-server/internal/score"
)

// Config holds application configuration.
type Config struct {
	Port           string
	DBDriver       string // sqlite3 | postgres | mysql
	DBDSN          string
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string
	DailySalt      string
	LogLevel       string
	StationsFile   string // empty: embedded catalog
	MaxLiveRounds  int    // cap on in-memory rounds; 0: unlimited
	Production     bool
	Score          score.Config
}

// Load reads configuration from the environment with development defaults.
func Load() *Config {
	_ = godotenv.Load()

	def := score.DefaultConfig()
	return &Config{
		Port:           getEnv("PORT", "5175"),
		DBDriver:       getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:          getEnv("DB_DSN", "./data/app.db"),
		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpiresDays: getEnvInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     getEnv("COOKIE_NAME", "stationguessr_token"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		DailySalt:      getEnv("DAILY_SALT", "local_dev_salt"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StationsFile:   os.Getenv("STATIONS_FILE"),
		MaxLiveRounds:  getEnvInt("MAX_LIVE_ROUNDS", 100000),
		Production:     getEnv("APP_ENV", "development") == "production",
		Score: score.Config{
			Base:         getEnvInt("SCORE_BASE", def.Base),
			AttemptCost:  getEnvInt("SCORE_ATTEMPT_COST", def.AttemptCost),
			LineCost:     getEnvInt("SCORE_LINE_COST", def.LineCost),
			CityCost:     getEnvInt("SCORE_CITY_COST", def.CityCost),
			FirstTryFree: getEnvBool("SCORE_FIRST_TRY_FREE", def.FirstTryFree),
		},
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k))); err == nil {
		return n
	}
	return def
}

func getEnvBool(k string, def bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(k))); err == nil {
		return b
	}
	return def
}
