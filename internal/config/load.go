package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEnvFile is the dotenv file read from the working directory, if present.
const DefaultEnvFile = ".env"

// binding ties a config key to the environment variable that sets it and the
// value used when the variable is unset.
type binding struct {
	key      string
	env      string
	fallback any
}

var bindings = []binding{
	{key: "database.host", env: "DB_HOST", fallback: "localhost"},
	{key: "database.port", env: "DB_PORT", fallback: 5432},
	{key: "database.name", env: "DB_NAME", fallback: "postgres"},
	{key: "database.user", env: "DB_USER", fallback: "postgres"},
	{key: "database.password", env: "DB_PASSWORD", fallback: "postgres"},
	{key: "database.ssl", env: "DB_SSL", fallback: false},
	{key: "log.level", env: "LOG_LEVEL", fallback: "info"},
	{key: "log.format", env: "LOG_FORMAT", fallback: "json"},
}

// Load reads configuration from the environment, after merging DefaultEnvFile
// into it. Variables already present in the environment win over the file.
// Returns a populated Config or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFile(DefaultEnvFile)
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an error.
func LoadFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for _, b := range bindings {
		v.SetDefault(b.key, b.fallback)
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", b.env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
