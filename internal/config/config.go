package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port    string `yaml:"port"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"server"`
	Live struct {
		DefaultTimeLimitSeconds int    `yaml:"defaultTimeLimitSeconds"`
		GracePeriod             string `yaml:"gracePeriod"`
		Retention               string `yaml:"retention"`
	} `yaml:"live"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Auth struct {
		JWTSecret    string `yaml:"jwtSecret"`
		TrustHeaders bool   `yaml:"trustHeaders"`
	} `yaml:"auth"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Questions struct {
		TTL string `yaml:"ttl"`
	} `yaml:"questions"`
	Zoom struct {
		AccountID        string `yaml:"accountId"`
		ClientID         string `yaml:"clientId"`
		ClientSecret     string `yaml:"clientSecret"`
		BotJID           string `yaml:"botJid"`
		APIBaseURL       string `yaml:"apiBaseURL"`
		TokenURL         string `yaml:"tokenURL"`
		ConferenceDomain string `yaml:"conferenceDomain"`
	} `yaml:"zoom"`
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides file values with the matching environment variables.
func (c *Config) ApplyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.BaseURL, "FRONTEND_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Postgres.URL, "POSTGRES_URL")
	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Zoom.AccountID, "ZOOM_ACCOUNT_ID")
	setString(&c.Zoom.ClientID, "ZOOM_CLIENT_ID")
	setString(&c.Zoom.ClientSecret, "ZOOM_CLIENT_SECRET")
	setString(&c.Zoom.BotJID, "ZOOM_BOT_JID")
	if v, ok := os.LookupEnv("LIVE_DEFAULT_TIME_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Live.DefaultTimeLimitSeconds = n
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// SessionRetention is how long the Redis session store keeps a session after
// it is triggered. Zero, the default, keeps sessions until deleted.
func (c Config) SessionRetention() time.Duration {
	return TTLDuration(c.Live.Retention, 0)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
