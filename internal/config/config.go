package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Port int
	}
	Environment string
	Database    struct {
		Driver   string
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		Path     string
	}
	Auth struct {
		JWTSecret string
	}
	Cache struct {
		TTLSeconds   int
		SweepSeconds int
	}
	RateLimit struct {
		Max           int
		WindowMinutes int
	}
}

// Load reads configuration from environment variables and an optional .env
// file. It fails when any required variable is missing, so a misconfigured
// process never starts serving.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_PATH", "data/accounts.db")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CACHE_TTL_SECONDS", 300)
	v.SetDefault("CACHE_SWEEP_SECONDS", 60)
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_MINUTES", 15)

	required := []string{"PORT", "JWT_SECRET"}
	if v.GetString("DB_DRIVER") != "sqlite" {
		required = append(required, "DB_HOST", "DB_PORT", "DB_USR", "DB_PWD", "DB_NAME")
	}
	for _, name := range required {
		if !v.IsSet(name) || strings.TrimSpace(v.GetString(name)) == "" {
			return Config{}, fmt.Errorf("environment variable %s is not set", name)
		}
	}

	var cfg Config
	cfg.Server.Port = v.GetInt("PORT")
	cfg.Environment = v.GetString("APP_ENV")
	cfg.Database.Driver = v.GetString("DB_DRIVER")
	cfg.Database.Host = v.GetString("DB_HOST")
	cfg.Database.Port = v.GetInt("DB_PORT")
	cfg.Database.User = v.GetString("DB_USR")
	cfg.Database.Password = v.GetString("DB_PWD")
	cfg.Database.Name = v.GetString("DB_NAME")
	cfg.Database.Path = v.GetString("DB_PATH")
	cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	cfg.Cache.TTLSeconds = v.GetInt("CACHE_TTL_SECONDS")
	cfg.Cache.SweepSeconds = v.GetInt("CACHE_SWEEP_SECONDS")
	cfg.RateLimit.Max = v.GetInt("RATE_LIMIT_MAX")
	cfg.RateLimit.WindowMinutes = v.GetInt("RATE_LIMIT_WINDOW_MINUTES")

	if cfg.Server.Port <= 0 {
		return Config{}, fmt.Errorf("PORT must be a positive integer")
	}

	return cfg, nil
}

// DSN builds the postgres connection string from the DB_* variables.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
