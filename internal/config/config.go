// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"os"
)

var ErrMissingEnv = errors.New("config: required environment variable not set")

// GetEnvDefault returns the value of key, or def when it is unset or empty.
func GetEnvDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// Relay is the configuration of the relay Lambda.
type Relay struct {
	TableName string
	Region    string
	LogLevel  string
	LogFormat string
}

// LoadRelay reads TABLE_NAME, AWS_REGION, LOG_LEVEL and LOG_FORMAT.
// TABLE_NAME is required.
func LoadRelay() (Relay, error) {
	cfg := Relay{
		TableName: GetEnvDefault("TABLE_NAME", ""),
		Region:    GetEnvDefault("AWS_REGION", "us-west-2"),
		LogLevel:  GetEnvDefault("LOG_LEVEL", "info"),
		LogFormat: GetEnvDefault("LOG_FORMAT", "json"),
	}
	if cfg.TableName == "" {
		return cfg, errors.Join(ErrMissingEnv, errors.New("TABLE_NAME"))
	}
	return cfg, nil
}
