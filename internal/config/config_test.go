package config

import (
	"errors"
	"testing"
)

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("DUEL_TEST_SET", "value")
	t.Setenv("DUEL_TEST_EMPTY", "")
	if got := GetEnvDefault("DUEL_TEST_SET", "def"); got != "value" {
		t.Errorf("set variable: got %q", got)
	}
	if got := GetEnvDefault("DUEL_TEST_EMPTY", "def"); got != "def" {
		t.Errorf("empty variable should fall back: got %q", got)
	}
	if got := GetEnvDefault("DUEL_TEST_UNSET_XYZ", "def"); got != "def" {
		t.Errorf("unset variable should fall back: got %q", got)
	}
}

func TestLoadRelay(t *testing.T) {
	t.Setenv("TABLE_NAME", "")
	if _, err := LoadRelay(); !errors.Is(err, ErrMissingEnv) {
		t.Errorf("missing table should fail, got %v", err)
	}

	t.Setenv("TABLE_NAME", "duel")
	t.Setenv("AWS_REGION", "eu-west-1")
	cfg, err := LoadRelay()
	if err != nil {
		t.Fatalf("load: %s", err)
	}
	if cfg.TableName != "duel" || cfg.Region != "eu-west-1" || cfg.LogLevel != "info" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}
