// Package config loads the server's YAML configuration with defaults and
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every server-wide tunable.
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Game     GameConfig    `yaml:"game"`
	Logging  LoggingConfig `yaml:"logging"`
	MapPath  string        `yaml:"map_path"`
	RandSeed int64         `yaml:"rand_seed"`
}

// ServerConfig holds the transport settings.
type ServerConfig struct {
	// Port is the TCP port the websocket listener binds.
	Port int `yaml:"port"`

	// UDPPort is reserved for a future unreliable channel; nothing binds it.
	UDPPort int `yaml:"udp_port"`
}

// GameConfig holds simulation tuning.
type GameConfig struct {
	TickRate    int     `yaml:"tick_rate"`
	MonsterCap  int     `yaml:"monster_cap"`
	SpawnBatch  int     `yaml:"spawn_batch"`
	FogInterval float64 `yaml:"fog_interval_seconds"`
	FogDamage   int     `yaml:"fog_damage_per_second"`
	FogRegen    int     `yaml:"fog_regen_amount"`
}

// LoggingConfig holds log level and file-sink settings.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FileEnabled    bool   `yaml:"file_enabled"`
	FilePath       string `yaml:"file_path"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    5000,
			UDPPort: 5001,
		},
		Game: GameConfig{
			TickRate:    20,
			MonsterCap:  50,
			SpawnBatch:  5,
			FogInterval: 120,
			FogDamage:   5,
			FogRegen:    4,
		},
		Logging: LoggingConfig{
			Level:          "INFO",
			Format:         "text",
			FilePath:       "logs/server.log",
			FileMaxSizeMB:  10,
			FileMaxBackups: 5,
			FileMaxAgeDays: 30,
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to defaults
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Server.Port)
	}
	if cfg.Game.TickRate <= 0 {
		return nil, fmt.Errorf("invalid tick rate %d", cfg.Game.TickRate)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if raw := os.Getenv("PORT"); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil {
			cfg.Server.Port = port
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if path := os.Getenv("MAP_PATH"); path != "" {
		cfg.MapPath = path
	}
	if raw := os.Getenv("RAND_SEED"); raw != "" {
		if seed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.RandSeed = seed
		}
	}
}
