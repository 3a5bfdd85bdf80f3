package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is everything fixed at process start
type Config struct {
	Addr              string `yaml:"addr"`
	ClientDir         string `yaml:"client_dir"`
	DBPath            string `yaml:"db_path"` // empty disables analytics
	PublicURL         string `yaml:"public_url"`
	AdminPasswordHash string `yaml:"admin_password_hash"`
	MaxPlayers        int    `yaml:"max_players"` // 0 = unlimited
	World             World  `yaml:"world"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Addr:       ":8080",
		ClientDir:  "public",
		DBPath:     "arena.db",
		MaxPlayers: 32,
		World:      DefaultWorld(),
	}
}

// LoadConfig layers the YAML file at path (optional) and then ARENA_*
// environment variables over the defaults
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// no file, defaults stand
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("ARENA_ADDR"); ok {
		c.Addr = v
	}
	if v, ok := os.LookupEnv("ARENA_CLIENT_DIR"); ok {
		c.ClientDir = v
	}
	if v, ok := os.LookupEnv("ARENA_DB"); ok {
		c.DBPath = v
	}
	if v, ok := os.LookupEnv("ARENA_PUBLIC_URL"); ok {
		c.PublicURL = v
	}
	if v, ok := os.LookupEnv("ARENA_ADMIN_HASH"); ok {
		c.AdminPasswordHash = v
	}
	if v, ok := os.LookupEnv("ARENA_MAX_PLAYERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ARENA_MAX_PLAYERS: %w", err)
		}
		c.MaxPlayers = n
	}
	return nil
}

// Validate checks the config, including world geometry
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.MaxPlayers < 0 {
		return fmt.Errorf("max_players must not be negative, got %d", c.MaxPlayers)
	}
	if err := c.World.Validate(); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	return nil
}
