package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env           string
	Port          int
	LogJSON       bool
	DataDir       string
	PostgresDSN   string
	StripeKey     string
	StripeMock    bool
	KafkaBrokers  string
	KafkaTopic    string
	EventsDir     string
	JWTSecret     string
	APIKey        string
	SweepInterval time.Duration
	SweepAge      time.Duration
}

func Default() Config {
	return Config{
		Env:        "dev",
		Port:       5000,
		LogJSON:    true,
		DataDir:    "./data",
		KafkaTopic: "payment-events",
		SweepAge:   15 * time.Minute,
	}
}

func EnvDefaults() Config {
	return fromEnv(Default())
}

func fromEnv(c Config) Config {
	if v := os.Getenv("PAY_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("PAY_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("PAY_LOG_JSON"); v != "" {
		switch v {
		case "1", "true", "TRUE":
			c.LogJSON = true
		case "0", "false", "FALSE":
			c.LogJSON = false
		}
	}
	if v := os.Getenv("PAY_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PAY_POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv("PAY_STRIPE_KEY"); v != "" {
		c.StripeKey = v
	}
	if v := os.Getenv("PAY_STRIPE_MOCK"); v != "" {
		switch v {
		case "1", "true", "TRUE":
			c.StripeMock = true
		case "0", "false", "FALSE":
			c.StripeMock = false
		}
	}
	if v := os.Getenv("PAY_KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = v
	}
	if v := os.Getenv("PAY_KAFKA_TOPIC"); v != "" {
		c.KafkaTopic = v
	}
	if v := os.Getenv("PAY_EVENTS_DIR"); v != "" {
		c.EventsDir = v
	}
	if v := os.Getenv("PAY_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("PAY_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("PAY_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SweepInterval = d
		}
	}
	if v := os.Getenv("PAY_SWEEP_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SweepAge = d
		}
	}
	return c
}
