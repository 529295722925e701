package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// Bounded wait for the sender-row lock; expiry surfaces as a retryable
	// failure rather than a rejection.
	LockTimeoutMs int `env:"LOCK_TIMEOUT_MS" envDefault:"3000"`

	// Amount granted to every new account from the welcome-grant system
	// account, in cents.
	WelcomeGrantAmount int64 `env:"WELCOME_GRANT_AMOUNT" envDefault:"10000"`

	// Cron expression for the mandate runner.
	MandateRunSchedule string `env:"MANDATE_RUN_SCHEDULE" envDefault:"@hourly"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
