// Package config provides configuration management for the generator,
// loaded from an optional YAML file plus environment variable
// overrides, following the teacher's viper-based pattern.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application. CLI flags
// (internal/params) take precedence over these values when both are
// supplied; this layer only supplies defaults for values the user
// didn't pass on the command line.
type Config struct {
	Generator GeneratorConfig `mapstructure:"generator"`
	Output    OutputConfig    `mapstructure:"output"`
	Log       LogConfig       `mapstructure:"log"`
}

// GeneratorConfig holds default generator parameters.
type GeneratorConfig struct {
	Algorithm     string  `mapstructure:"algorithm"`
	InitialDegree int64   `mapstructure:"initial_degree"`
	Exponent      float64 `mapstructure:"exponent"`
	Offset        float64 `mapstructure:"offset"`
	NumThreads    int     `mapstructure:"num_threads"`
}

// OutputConfig holds defaults for the diagnostic report/dump side-channel.
type OutputConfig struct {
	Compression string `mapstructure:"compression"` // gzip, zstd, none
	Dir         string `mapstructure:"dir"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the specified file path, falling back
// to defaults (and standard search locations) if configPath is empty.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/nlpa")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// no config file, defaults stand
		} else if os.IsNotExist(err) {
			// explicit path didn't exist, defaults stand
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("NLPA")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw bytes, useful for tests.
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("generator.algorithm", "dyn")
	v.SetDefault("generator.initial_degree", 1)
	v.SetDefault("generator.exponent", 1.0)
	v.SetDefault("generator.offset", 0.0)
	v.SetDefault("generator.num_threads", 0) // 0 means runtime.NumCPU()

	v.SetDefault("output.compression", "zstd")
	v.SetDefault("output.dir", "./output")

	v.SetDefault("log.level", "info")
}
