package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"cashrisk-mcp/internal/risk"
	"cashrisk-mcp/internal/simulation"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath         string
	LogDir           string
	Thresholds       risk.Thresholds
	FallbackNoiseStd float64
	DefaultDays      int
	DefaultPaths     int
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve paths. DATA_PATH points at the transactions CSV and may stay
	// empty; tools then require an explicit data_path argument.
	dataPath := os.Getenv("DATA_PATH")

	logDir := os.Getenv("LOGS_FOLDER")
	if logDir == "" {
		base := exeDir
		if base == "" {
			base = "."
		}
		logDir = filepath.Join(base, "logs")
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	def := risk.DefaultThresholds()
	cfg := &AppConfig{
		DataPath: dataPath,
		LogDir:   logDir,
		Thresholds: risk.Thresholds{
			CriticalBalance:     getEnvFloat("RISK_CRITICAL_BALANCE", def.CriticalBalance),
			AlertBalance:        getEnvFloat("RISK_ALERT_BALANCE", def.AlertBalance),
			HighVolatilityCV:    getEnvFloat("RISK_HIGH_VOLATILITY_CV", def.HighVolatilityCV),
			ClientConcentration: getEnvFloat("RISK_CLIENT_CONCENTRATION", def.ClientConcentration),
			MaxZeroInflowDays:   getEnvInt("RISK_MAX_ZERO_INFLOW_DAYS", def.MaxZeroInflowDays),
			DrawdownShare:       getEnvFloat("RISK_DRAWDOWN_SHARE", def.DrawdownShare),
			SteepSlopePerDay:    getEnvFloat("RISK_STEEP_SLOPE_PER_DAY", def.SteepSlopePerDay),
		},
		FallbackNoiseStd: getEnvFloat("SIM_FALLBACK_NOISE_STD", simulation.DefaultFallbackNoiseStd),
		DefaultDays:      getEnvInt("SIM_DEFAULT_DAYS", 30),
		DefaultPaths:     getEnvInt("SIM_DEFAULT_PATHS", 1000),
	}

	return cfg, nil
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
