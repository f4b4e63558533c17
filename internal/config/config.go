// Package config loads and validates the service configuration from
// command-line flags, environment variables and an optional .env file.
// Environment values override flag values.
package config

import (
	"errors"
	"flag"
	"log"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every configurable value consumed by the service.
// The token signing secret has no default on purpose: a predictable
// secret is worse than refusing to start.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	ShortURLBase        string        `env:"BASE_URL" validate:"url"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR"`
	AuthCookieName      string        `env:"AUTH_COOKIE_NAME" validate:"required"`
	AuthSecretKey       string        `env:"AUTH_SECRET_KEY" validate:"required,base64url"`
	AuthTokenTTL        time.Duration `env:"AUTH_TOKEN_TTL"`
	ShortCodeLength     int           `env:"SHORT_CODE_LENGTH" validate:"gt=0,lte=64"`
	ClickQueueCapacity  int           `env:"CLICK_QUEUE_CAPACITY" validate:"gt=0"`
	ClickFlushInterval  time.Duration `env:"CLICK_FLUSH_INTERVAL"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	ShortURLBase:        "http://localhost:8080",
	LogLevel:            "info",
	DatabaseDSN:         "",
	DBConnectionTimeout: 10 * time.Second,
	MigrationsDir:       "migrations",
	AuthCookieName:      "access_token",
	AuthSecretKey:       "",
	AuthTokenTTL:        time.Hour,
	ShortCodeLength:     10,
	ClickQueueCapacity:  1024,
	ClickFlushInterval:  time.Second,
	TrustedSubnet:       "",
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

// InitOption is a functional option for New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing disables command-line flag parsing, which is
// required when the config is constructed inside tests.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

func applyEnvOverrides(values, fromEnv *Config) {
	if fromEnv.RunAddr != "" {
		values.RunAddr = fromEnv.RunAddr
	}
	if fromEnv.ShortURLBase != "" {
		values.ShortURLBase = fromEnv.ShortURLBase
	}
	if fromEnv.LogLevel != "" {
		values.LogLevel = fromEnv.LogLevel
	}
	if fromEnv.DatabaseDSN != "" {
		values.DatabaseDSN = fromEnv.DatabaseDSN
	}
	if fromEnv.DBConnectionTimeout != 0 {
		values.DBConnectionTimeout = fromEnv.DBConnectionTimeout
	}
	if fromEnv.MigrationsDir != "" {
		values.MigrationsDir = fromEnv.MigrationsDir
	}
	if fromEnv.AuthCookieName != "" {
		values.AuthCookieName = fromEnv.AuthCookieName
	}
	if fromEnv.AuthSecretKey != "" {
		values.AuthSecretKey = fromEnv.AuthSecretKey
	}
	if fromEnv.AuthTokenTTL != 0 {
		values.AuthTokenTTL = fromEnv.AuthTokenTTL
	}
	if fromEnv.ShortCodeLength != 0 {
		values.ShortCodeLength = fromEnv.ShortCodeLength
	}
	if fromEnv.ClickQueueCapacity != 0 {
		values.ClickQueueCapacity = fromEnv.ClickQueueCapacity
	}
	if fromEnv.ClickFlushInterval != 0 {
		values.ClickFlushInterval = fromEnv.ClickFlushInterval
	}
	if fromEnv.TrustedSubnet != "" {
		values.TrustedSubnet = fromEnv.TrustedSubnet
	}
}

// New builds the configuration from defaults, command-line flags and the
// environment, then validates it. It returns an error when the signing
// secret is missing or any value fails validation.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	if !options.disableFlagsParsing {
		flag.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to run server")
		flag.StringVar(&values.ShortURLBase, "b", values.ShortURLBase, "base address of the resulting shortened URL")
		flag.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
		flag.StringVar(&values.DatabaseDSN, "d", values.DatabaseDSN, "A string with the database connection details")
		flag.StringVar(&values.MigrationsDir, "m", values.MigrationsDir, "directory with goose SQL migrations")
		flag.StringVar(&values.TrustedSubnet, "t", values.TrustedSubnet, "CIDR of the subnet trusted to read internal stats")
		flag.Parse()
	}

	var valuesFromEnv Config
	err = env.Parse(&valuesFromEnv)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(values, &valuesFromEnv)

	if values.AuthSecretKey == "" {
		return nil, errors.New("AUTH_SECRET_KEY must be set; refusing to start with an empty token signing secret")
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}
