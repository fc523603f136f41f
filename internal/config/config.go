// File: internal/config/config.go
// Description: Application configuration, loaded through viper from defaults,
// an optional yaml file, and SPACEBOT_* environment variables.

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Game       GameConfig       `mapstructure:"game" yaml:"game"`
	Runtime    RuntimeConfig    `mapstructure:"runtime" yaml:"runtime"`
	Combat     CombatConfig     `mapstructure:"combat" yaml:"combat"`
	Farm       FarmConfig       `mapstructure:"farm" yaml:"farm"`
	Safety     SafetyConfig     `mapstructure:"safety" yaml:"safety"`
	Navigation NavigationConfig `mapstructure:"navigation" yaml:"navigation"`
	Modules    ModulesConfig    `mapstructure:"modules" yaml:"modules"`
	Vision     VisionConfig     `mapstructure:"vision" yaml:"vision"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry" yaml:"telemetry"`
}

// LoggerConfig configures the zap logger and its optional rotating file sink.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// GameConfig identifies the game instance and the account. The password is
// expected to come from SPACEBOT_GAME_PASSWORD rather than the config file.
type GameConfig struct {
	URL        string  `mapstructure:"url" yaml:"url"`
	Username   string  `mapstructure:"username" yaml:"username"`
	Password   string  `mapstructure:"password" yaml:"password"`
	StartMap   string  `mapstructure:"start_map" yaml:"start_map"`
	Headless   bool    `mapstructure:"headless" yaml:"headless"`
	ActionRate float64 `mapstructure:"action_rate" yaml:"action_rate"` // actions per second cap
}

// RuntimeConfig bounds the run.
type RuntimeConfig struct {
	MaxTicks       int     `mapstructure:"max_ticks" yaml:"max_ticks"`
	MaxSeconds     float64 `mapstructure:"max_seconds" yaml:"max_seconds"` // 0 disables
	MinTickDelayMs int     `mapstructure:"min_tick_delay_ms" yaml:"min_tick_delay_ms"`
	MaxTickDelayMs int     `mapstructure:"max_tick_delay_ms" yaml:"max_tick_delay_ms"`
}

// MinTickDelay returns the lower bound of the randomized inter-tick sleep.
func (r RuntimeConfig) MinTickDelay() time.Duration {
	return time.Duration(r.MinTickDelayMs) * time.Millisecond
}

// MaxTickDelay returns the upper bound of the randomized inter-tick sleep.
func (r RuntimeConfig) MaxTickDelay() time.Duration {
	return time.Duration(r.MaxTickDelayMs) * time.Millisecond
}

// CombatConfig tunes the engagement state machine.
type CombatConfig struct {
	Enabled              bool     `mapstructure:"enabled" yaml:"enabled"`
	MaxTargetDistance    float64  `mapstructure:"max_target_distance" yaml:"max_target_distance"`
	DisengageDistance    float64  `mapstructure:"disengage_distance" yaml:"disengage_distance"`
	MaxTargetTimeSeconds float64  `mapstructure:"max_target_time_seconds" yaml:"max_target_time_seconds"`
	NpcPriority          []string `mapstructure:"npc_priority" yaml:"npc_priority"`
}

// nominalTicksPerSecond is the cadence implied by the default 150-350 ms
// inter-tick delay; it converts the time budget per target into ticks.
const nominalTicksPerSecond = 4

// MaxTargetTicks converts the per-target time budget into ticks (0 = unlimited).
func (c CombatConfig) MaxTargetTicks() int {
	if c.MaxTargetTimeSeconds <= 0 {
		return 0
	}
	return int(c.MaxTargetTimeSeconds * nominalTicksPerSecond)
}

// FarmConfig toggles the farm sub-behaviors.
type FarmConfig struct {
	CollectBoxes bool `mapstructure:"collect_boxes" yaml:"collect_boxes"`
	HuntNpcs     bool `mapstructure:"hunt_npcs" yaml:"hunt_npcs"`
}

// SafetyConfig tunes the danger heuristic.
type SafetyConfig struct {
	EscapeThreshold       int     `mapstructure:"escape_threshold" yaml:"escape_threshold"`
	WarnDistance          float64 `mapstructure:"warn_distance" yaml:"warn_distance"`
	DangerDistance        float64 `mapstructure:"danger_distance" yaml:"danger_distance"`
	StationaryWarnTicks   int     `mapstructure:"stationary_warn_ticks" yaml:"stationary_warn_ticks"`
	StationaryEscapeTicks int     `mapstructure:"stationary_escape_ticks" yaml:"stationary_escape_ticks"`
}

// NavigationConfig tunes patrol movement.
type NavigationConfig struct {
	TickInterval int `mapstructure:"tick_interval" yaml:"tick_interval"`
}

// ModulesConfig selects the implementation variant for each capability.
type ModulesConfig struct {
	Safety string `mapstructure:"safety" yaml:"safety"` // "basic" or "dummy"
	Farm   string `mapstructure:"farm" yaml:"farm"`     // "basic" or "dummy"
	Combat string `mapstructure:"combat" yaml:"combat"` // "basic" or "dummy"
	Vision string `mapstructure:"vision" yaml:"vision"` // "websocket" or "dummy"
	Driver string `mapstructure:"driver" yaml:"driver"` // "chromedp" or "log"
}

// VisionConfig configures the websocket state feed.
type VisionConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// TelemetryConfig configures the sqlite run recorder.
type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DBPath  string `mapstructure:"db_path" yaml:"db_path"`
}

// SetDefaults installs the default value for every key on the given viper
// instance.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "spacebot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Game --
	v.SetDefault("game.url", "")
	v.SetDefault("game.start_map", "1-1")
	v.SetDefault("game.headless", true)
	v.SetDefault("game.action_rate", 3.0)

	// -- Runtime --
	v.SetDefault("runtime.max_ticks", 300)
	v.SetDefault("runtime.max_seconds", 0)
	v.SetDefault("runtime.min_tick_delay_ms", 150)
	v.SetDefault("runtime.max_tick_delay_ms", 350)

	// -- Combat --
	v.SetDefault("combat.enabled", true)
	v.SetDefault("combat.max_target_distance", 0.2)
	v.SetDefault("combat.disengage_distance", 0.35)
	v.SetDefault("combat.max_target_time_seconds", 30)
	v.SetDefault("combat.npc_priority", []string{"weak_npc", "medium_npc"})

	// -- Farm --
	v.SetDefault("farm.collect_boxes", true)
	v.SetDefault("farm.hunt_npcs", true)

	// -- Safety --
	v.SetDefault("safety.escape_threshold", 70)
	v.SetDefault("safety.warn_distance", 0.75)
	v.SetDefault("safety.danger_distance", 0.9)
	v.SetDefault("safety.stationary_warn_ticks", 30)
	v.SetDefault("safety.stationary_escape_ticks", 100)

	// -- Navigation --
	v.SetDefault("navigation.tick_interval", 10)

	// -- Modules --
	v.SetDefault("modules.safety", "basic")
	v.SetDefault("modules.farm", "basic")
	v.SetDefault("modules.combat", "basic")
	v.SetDefault("modules.vision", "dummy")
	v.SetDefault("modules.driver", "log")

	// -- Vision --
	v.SetDefault("vision.endpoint", "")

	// -- Telemetry --
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.db_path", "spacebot.db")
}

// NewFromViper unmarshals and validates a configuration from a viper object.
func NewFromViper(v *viper.Viper) (*Config, error) {
	v.BindEnv("game.password", "SPACEBOT_GAME_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// NewDefault builds a configuration from defaults only.
func NewDefault() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewFromViper(v)
	if err != nil {
		// Defaults are maintained alongside Validate; a failure here is a
		// programming error.
		panic(err)
	}
	return cfg
}

// Validate checks the configuration for sane values. Configuration errors
// are fatal before the loop starts.
func (c *Config) Validate() error {
	if c.Runtime.MaxTicks <= 0 {
		return fmt.Errorf("runtime.max_ticks must be a positive integer")
	}
	if c.Runtime.MaxSeconds < 0 {
		return fmt.Errorf("runtime.max_seconds must not be negative")
	}
	if c.Runtime.MinTickDelayMs < 0 || c.Runtime.MaxTickDelayMs < c.Runtime.MinTickDelayMs {
		return fmt.Errorf("runtime tick delay range is invalid: [%d, %d]",
			c.Runtime.MinTickDelayMs, c.Runtime.MaxTickDelayMs)
	}
	if c.Safety.EscapeThreshold < 1 || c.Safety.EscapeThreshold > 100 {
		return fmt.Errorf("safety.escape_threshold must be in [1, 100]")
	}
	if c.Safety.DangerDistance < c.Safety.WarnDistance {
		return fmt.Errorf("safety.danger_distance must not be below safety.warn_distance")
	}
	if c.Combat.Enabled {
		if c.Combat.MaxTargetDistance <= 0 {
			return fmt.Errorf("combat.max_target_distance must be positive")
		}
		if c.Combat.DisengageDistance <= c.Combat.MaxTargetDistance {
			return fmt.Errorf("combat.disengage_distance must exceed combat.max_target_distance")
		}
	}
	if c.Navigation.TickInterval <= 0 {
		return fmt.Errorf("navigation.tick_interval must be a positive integer")
	}
	if c.Game.ActionRate <= 0 {
		return fmt.Errorf("game.action_rate must be positive")
	}
	if c.Modules.Vision == "websocket" && c.Vision.Endpoint == "" {
		return fmt.Errorf("vision.endpoint is required when modules.vision is %q", "websocket")
	}
	if c.Telemetry.Enabled && c.Telemetry.DBPath == "" {
		return fmt.Errorf("telemetry.db_path is required when telemetry is enabled")
	}
	return nil
}
