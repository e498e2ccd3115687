package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	CORSOrigins       string `mapstructure:"CORS_ORIGINS"`

	// Scheduling backend.
	BackendURL     string        `mapstructure:"BACKEND_URL"`
	BackendTimeout time.Duration `mapstructure:"BACKEND_TIMEOUT"`

	// Redis configuration. An empty address keeps sessions in memory.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`

	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	HealthInterval time.Duration `mapstructure:"HEALTH_INTERVAL"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8090")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 120)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("BACKEND_URL", "http://localhost:8080")
	v.SetDefault("BACKEND_TIMEOUT", "10s")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_SESSION_DB", 1)
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("HEALTH_INTERVAL", "60s")
}

// Load reads configuration from v. A missing config file is not an error.
func Load(v *viper.Viper) (Config, error) {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	return cfg, nil
}

// LoadConfig populates AppConfig from the global viper instance.
func LoadConfig() {
	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

// Origins splits CORS_ORIGINS on commas.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
