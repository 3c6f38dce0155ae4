// Package config provides Viper-based configuration loading for Emberfall.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings for the roster store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ContentConfig holds the directories for read-only content definitions.
type ContentConfig struct {
	// MonstersDir is the directory of monster template YAML files.
	MonstersDir string `mapstructure:"monsters_dir"`
	// SpellsDir is the directory of spell template YAML files.
	SpellsDir string `mapstructure:"spells_dir"`
	// ItemsDir is the directory of item template YAML files.
	ItemsDir string `mapstructure:"items_dir"`
	// ConditionsDir is the directory of condition template YAML files.
	// Condition hook scripts are inline Lua in the templates themselves.
	ConditionsDir string `mapstructure:"conditions_dir"`
}

// EncounterConfig holds combat engine tunables.
//
// The ambush adjustments are deliberately configuration rather than constants;
// design has not finalized the exact thresholds.
type EncounterConfig struct {
	// InitiativeDie is the size of the initiative roll die (roll is 1..=InitiativeDie).
	InitiativeDie int `mapstructure:"initiative_die"`
	// DefendACBonus is the armor class improvement granted by the defend action
	// for one round.
	DefendACBonus int `mapstructure:"defend_ac_bonus"`
	// AmbushSpeedBonus is added to the ambushing side's effective speed when
	// computing flee chances and initiative under a handicap.
	AmbushSpeedBonus int `mapstructure:"ambush_speed_bonus"`
	// FleeSpeedMargin is added to the opposing side's best speed before the
	// flee comparison; higher values make fleeing harder.
	FleeSpeedMargin int `mapstructure:"flee_speed_margin"`
	// MaxSideSize is the maximum number of active combatants per side.
	MaxSideSize int `mapstructure:"max_side_size"`
	// ScriptInstructionLimit caps Lua opcodes per condition hook; 0 uses the
	// scripting package default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Content   ContentConfig   `mapstructure:"content"`
	Encounter EncounterConfig `mapstructure:"encounter"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEncounter(c.Encounter); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 || d.MinConns > d.MaxConns {
		errs = append(errs, fmt.Sprintf("database.min_conns must be in [0, max_conns], got %d", d.MinConns))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.MonstersDir == "" {
		errs = append(errs, "content.monsters_dir must not be empty")
	}
	if c.SpellsDir == "" {
		errs = append(errs, "content.spells_dir must not be empty")
	}
	if c.ItemsDir == "" {
		errs = append(errs, "content.items_dir must not be empty")
	}
	if c.ConditionsDir == "" {
		errs = append(errs, "content.conditions_dir must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateEncounter(e EncounterConfig) error {
	var errs []string
	if e.InitiativeDie < 2 {
		errs = append(errs, fmt.Sprintf("encounter.initiative_die must be >= 2, got %d", e.InitiativeDie))
	}
	if e.DefendACBonus < 0 {
		errs = append(errs, fmt.Sprintf("encounter.defend_ac_bonus must be >= 0, got %d", e.DefendACBonus))
	}
	if e.FleeSpeedMargin < 0 {
		errs = append(errs, fmt.Sprintf("encounter.flee_speed_margin must be >= 0, got %d", e.FleeSpeedMargin))
	}
	if e.MaxSideSize < 1 {
		errs = append(errs, fmt.Sprintf("encounter.max_side_size must be >= 1, got %d", e.MaxSideSize))
	}
	if e.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("encounter.script_instruction_limit must be >= 0, got %d", e.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with EMBERFALL_ prefix
	v.SetEnvPrefix("EMBERFALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "emberfall")
	v.SetDefault("database.password", "emberfall")
	v.SetDefault("database.name", "emberfall")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("content.monsters_dir", "content/monsters")
	v.SetDefault("content.spells_dir", "content/spells")
	v.SetDefault("content.items_dir", "content/items")
	v.SetDefault("content.conditions_dir", "content/conditions")

	v.SetDefault("encounter.initiative_die", 10)
	v.SetDefault("encounter.defend_ac_bonus", 2)
	v.SetDefault("encounter.ambush_speed_bonus", 3)
	v.SetDefault("encounter.flee_speed_margin", 0)
	v.SetDefault("encounter.max_side_size", 6)
	v.SetDefault("encounter.script_instruction_limit", 0)
}
