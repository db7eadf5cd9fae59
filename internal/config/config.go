package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string        `env:"SERVER_ADDRESS" envDefault:"0.0.0.0:8080"`
	PostgresConn    string        `env:"POSTGRES_CONN"`
	JWTSecret       string        `env:"JWT_SECRET"`
	JWTTTL          time.Duration `env:"JWT_TTL" envDefault:"24h"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	BotToken        string        `env:"BOT_TOKEN"`
	BindingCodeTTL  time.Duration `env:"BINDING_CODE_TTL" envDefault:"10m"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1m"`
}

// NewConfig читает .env (если есть), переменные окружения и флаги; флаги имеют приоритет
func NewConfig(args []string) (Config, error) {
	config := Config{}

	// .env необязателен, но битый файл это ошибка
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := env.Parse(&config); err != nil {
		return Config{}, err
	}

	if err := config.parseFlags(args); err != nil {
		return Config{}, err
	}

	if err := config.validateConfig(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("taskboard", flag.ContinueOnError)
	fs.StringVar(&c.ServerAddress, "a", c.ServerAddress, "Service address")
	fs.StringVar(&c.PostgresConn, "d", c.PostgresConn, "Postgres connection string")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "Log level")

	return fs.Parse(args)
}

func (c *Config) validateConfig() error {
	if c.PostgresConn == "" {
		return errors.New("POSTGRES_CONN is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 || c.BindingCodeTTL <= 0 || c.CleanupInterval <= 0 {
		return errors.New("durations must be positive")
	}
	return nil
}

// ValidateBot проверяет настройки, обязательные только для бота
func (c *Config) ValidateBot() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}
	return nil
}
