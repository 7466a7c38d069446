package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Engine   EngineConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Port string
}

type AppConfig struct {
	LogLevel string
}

// EngineConfig carries the reconciliation tuning knobs. The defaults mirror
// the values the matching heuristics were calibrated against.
type EngineConfig struct {
	// CashMatchTolerance is the max distance (currency units) between the
	// cash-flow beginning cash and a candidate period's balance-sheet cash
	// for the candidate to be accepted as the begin period.
	CashMatchTolerance string
	// CandidateWindowMonths bounds the begin-period search.
	CandidateWindowMonths int
	// LearnedPatternLimit bounds how many active patterns a run loads.
	LearnedPatternLimit int
}

func Load() (*Config, error) {
	candidateWindow, err := strconv.Atoi(getEnv("CANDIDATE_WINDOW_MONTHS", "24"))
	if err != nil || candidateWindow < 1 {
		candidateWindow = 24
	}

	patternLimit, err := strconv.Atoi(getEnv("LEARNED_PATTERN_LIMIT", "20"))
	if err != nil || patternLimit < 1 {
		patternLimit = 20
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "property_recon"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Engine: EngineConfig{
			CashMatchTolerance:    getEnv("CASH_MATCH_TOLERANCE", "1.00"),
			CandidateWindowMonths: candidateWindow,
			LearnedPatternLimit:   patternLimit,
		},
	}, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
