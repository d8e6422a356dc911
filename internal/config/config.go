// Package config loads server configuration from the environment. A .env
// file, if present, is loaded by the entrypoint before this runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/DoyleJ11/imposter-backend/internal/game"
)

type Config struct {
	ListenAddr string
	// GracePeriod is how long a disconnected player keeps their seat.
	GracePeriod time.Duration
	// StartCountdown is the delay between game_starting and game_started.
	StartCountdown time.Duration
	LogLevel       string
	LogFormat      string
	Limits         game.Limits
}

func Load() (Config, error) {
	cfg := Config{
		ListenAddr: getString("LISTEN_ADDR", ":8080"),
		LogLevel:   getString("LOG_LEVEL", "info"),
		LogFormat:  getString("LOG_FORMAT", "json"),
		Limits:     game.DefaultLimits(),
	}

	var err error
	if cfg.GracePeriod, err = getDuration("GRACE_PERIOD", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.StartCountdown, err = getDuration("START_COUNTDOWN", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Limits.MaxPlayers, err = getInt("ROOM_MAX_PLAYERS", cfg.Limits.MaxPlayers); err != nil {
		return Config{}, err
	}
	if cfg.Limits.MinPlayers, err = getInt("ROOM_MIN_PLAYERS", cfg.Limits.MinPlayers); err != nil {
		return Config{}, err
	}
	if cfg.Limits.MaxImposters, err = getInt("ROOM_MAX_IMPOSTERS", cfg.Limits.MaxImposters); err != nil {
		return Config{}, err
	}
	if cfg.Limits.MaxPolice, err = getInt("ROOM_MAX_POLICE", cfg.Limits.MaxPolice); err != nil {
		return Config{}, err
	}
	if cfg.Limits.MaxTasks, err = getInt("ROOM_MAX_TASKS", cfg.Limits.MaxTasks); err != nil {
		return Config{}, err
	}

	if cfg.GracePeriod <= 0 {
		return Config{}, fmt.Errorf("GRACE_PERIOD must be positive, got %v", cfg.GracePeriod)
	}
	if cfg.Limits.MinPlayers < 2 || cfg.Limits.MinPlayers > cfg.Limits.MaxPlayers {
		return Config{}, fmt.Errorf("ROOM_MIN_PLAYERS %d out of range", cfg.Limits.MinPlayers)
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q: %w", key, v, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q: %w", key, v, err)
	}
	return d, nil
}
