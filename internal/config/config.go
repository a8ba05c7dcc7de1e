// internal/config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds process-level settings loaded at startup.
type Config struct {
	Port         int    `mapstructure:"port"`
	RedisAddr    string `mapstructure:"redis_addr"`
	RedisDB      int    `mapstructure:"redis_db"`
	LobbyChannel string `mapstructure:"lobby_channel"`

	Rooms RoomConfig `mapstructure:"rooms"`
}

// RoomConfig holds the timing and capacity defaults applied to every new
// room. Each field can be overridden per room at creation time.
type RoomConfig struct {
	MinPlayers int `mapstructure:"min_players" json:"minPlayers"`
	MaxPlayers int `mapstructure:"max_players" json:"maxPlayers"`

	CountdownSeconds int           `mapstructure:"countdown_seconds" json:"countdownSeconds"`
	ResultsWindow    time.Duration `mapstructure:"results_window" json:"resultsWindow"`
	ResetDelay       time.Duration `mapstructure:"reset_delay" json:"resetDelay"`
	ReconnectGrace   time.Duration `mapstructure:"reconnect_grace" json:"reconnectGrace"`
	AFKTimeout       time.Duration `mapstructure:"afk_timeout" json:"afkTimeout"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval" json:"sweepInterval"`
	DisposeGrace     time.Duration `mapstructure:"dispose_grace" json:"disposeGrace"`

	Private bool `mapstructure:"private" json:"private"`

	// GameSettings is an opaque per-game blob merged over the game's own
	// defaults. The room core never inspects it.
	GameSettings json.RawMessage `mapstructure:"-" json:"gameSettings,omitempty"`
}

// Load reads config/config.<env>.yaml if present, otherwise falls back to
// defaults. Environment selection follows CONFIG_ENV (default "dev").
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	v.SetConfigFile(fmt.Sprintf("config/config.%s.yaml", env))
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("port", 8080)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("lobby_channel", "quickparty_lobby")

	v.SetDefault("rooms.min_players", 2)
	v.SetDefault("rooms.max_players", 10)
	v.SetDefault("rooms.countdown_seconds", 5)
	v.SetDefault("rooms.results_window", "15s")
	v.SetDefault("rooms.reset_delay", "3s")
	v.SetDefault("rooms.reconnect_grace", "30s")
	v.SetDefault("rooms.afk_timeout", "60s")
	v.SetDefault("rooms.sweep_interval", "30s")
	v.SetDefault("rooms.dispose_grace", "5s")

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Merge applies a JSON override document over a copy of the defaults and
// returns the result. Unknown fields are rejected so client typos surface
// instead of silently falling back to defaults.
func (rc RoomConfig) Merge(overrides json.RawMessage) (RoomConfig, error) {
	if len(overrides) == 0 {
		return rc, nil
	}
	merged := rc
	dec := json.NewDecoder(bytes.NewReader(overrides))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&merged); err != nil {
		return rc, fmt.Errorf("invalid room settings: %w", err)
	}
	if merged.MinPlayers < 1 || merged.MaxPlayers < merged.MinPlayers {
		return rc, fmt.Errorf("invalid player bounds: min=%d max=%d", merged.MinPlayers, merged.MaxPlayers)
	}
	return merged, nil
}
