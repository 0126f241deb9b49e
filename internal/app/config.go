package app

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lessonworks/pianoschool-backend/internal/platform/envutil"
	"github.com/lessonworks/pianoschool-backend/internal/platform/logger"
)

type Config struct {
	ServiceName     string
	Environment     string
	Version         string
	Port            string
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// fileConfig is the optional YAML overlay; env vars still win so deploys can
// override a checked-in file.
type fileConfig struct {
	ServiceName     string `yaml:"service_name"`
	Environment     string `yaml:"environment"`
	Version         string `yaml:"version"`
	Port            string `yaml:"port"`
	AccessTokenTTL  int    `yaml:"access_token_ttl"`
	RefreshTokenTTL int    `yaml:"refresh_token_ttl"`
}

func LoadConfig(log *logger.Logger) Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded", "error", err)
	}

	cfg := Config{
		ServiceName:     "pianoschool",
		Environment:     "development",
		Version:         "dev",
		Port:            "8080",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if fc, err := loadConfigFile(path); err != nil {
			log.Warn("config file ignored", "path", path, "error", err)
		} else {
			if fc.ServiceName != "" {
				cfg.ServiceName = fc.ServiceName
			}
			if fc.Environment != "" {
				cfg.Environment = fc.Environment
			}
			if fc.Version != "" {
				cfg.Version = fc.Version
			}
			if fc.Port != "" {
				cfg.Port = fc.Port
			}
			if fc.AccessTokenTTL > 0 {
				cfg.AccessTokenTTL = time.Duration(fc.AccessTokenTTL) * time.Second
			}
			if fc.RefreshTokenTTL > 0 {
				cfg.RefreshTokenTTL = time.Duration(fc.RefreshTokenTTL) * time.Second
			}
		}
	}

	cfg.ServiceName = envutil.GetEnv("SERVICE_NAME", cfg.ServiceName, log)
	cfg.Environment = envutil.GetEnv("ENVIRONMENT", cfg.Environment, log)
	cfg.Port = envutil.GetEnv("PORT", cfg.Port, log)
	cfg.JWTSecretKey = envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTTLSeconds := envutil.GetEnvAsInt("ACCESS_TOKEN_TTL", int(cfg.AccessTokenTTL.Seconds()), log)
	refreshTTLSeconds := envutil.GetEnvAsInt("REFRESH_TOKEN_TTL", int(cfg.RefreshTokenTTL.Seconds()), log)
	cfg.AccessTokenTTL = time.Duration(accessTTLSeconds) * time.Second
	cfg.RefreshTokenTTL = time.Duration(refreshTTLSeconds) * time.Second
	return cfg
}

func loadConfigFile(path string) (fileConfig, error) {
	var fc fileConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fc, fmt.Errorf("parse config: %w", err)
	}
	return fc, nil
}
