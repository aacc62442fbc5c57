// Package config loads typed configuration structs from environment variables.
//
// It wraps github.com/joho/godotenv (optional .env files) and
// github.com/caarlos0/env/v11 (struct tag parsing). Each configuration type is
// parsed once per process and cached, so packages can call Load for the same
// struct from several places without re-reading the environment.
//
// # Usage
//
//	type Config struct {
//		MaxRetries int           `env:"QUEUE_MAX_RETRIES" envDefault:"3"`
//		BaseDelay  time.Duration `env:"QUEUE_BASE_DELAY" envDefault:"1s"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// LoadEnv reads specific .env files before the first Load; without it Load
// reads ./.env when present. Reset drops the cache and is meant for tests.
//
// # Error Handling
//
// Parsing failures wrap ErrParsingConfig and can be checked with errors.Is.
package config
