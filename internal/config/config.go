// Package config handles reading and writing .rehearse/config.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for .rehearse/config.yaml.
type Config struct {
	Version    int              `yaml:"version"`
	Completion CompletionConfig `yaml:"completion"`
	Storage    StorageConfig    `yaml:"storage"`
	Capture    CaptureConfig    `yaml:"capture"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// CompletionConfig controls the chat-completion endpoint.
type CompletionConfig struct {
	Endpoint          string  `yaml:"endpoint"`
	Model             string  `yaml:"model"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	ValidateMaxTokens int     `yaml:"validate_max_tokens"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	MaxRetries        int     `yaml:"max_retries"`      // retries for rate-limit and network failures only
	RetryInitialMs    int     `yaml:"retry_initial_ms"` // first backoff interval
	DefaultAPIKey     string  `yaml:"-"`                // populated from the environment, never written
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" | "redis" | "memory"
	Path     string `yaml:"path"`   // sqlite database file, relative to the project root
	RedisURL string `yaml:"redis_url"`
}

// CaptureConfig configures the external transcription and speech commands.
type CaptureConfig struct {
	TranscriberCommand []string `yaml:"transcriber_command"`
	SpeakerCommand     []string `yaml:"speaker_command"`
	SettleMs           int      `yaml:"settle_ms"`
}

// ServerConfig holds the HTTP API listen address.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Debug bool `yaml:"debug"`
}

const configDir = ".rehearse"
const configFile = "config.yaml"

// Environment variables consulted for the default credential, in order.
const (
	EnvAPIKey         = "REHEARSE_API_KEY"
	EnvFallbackAPIKey = "GROQ_API_KEY"
)

// Dir returns the .rehearse directory inside the project root.
func Dir(root string) string {
	return filepath.Join(root, configDir)
}

// ReadConfig reads .rehearse/config.yaml from the given project directory.
// dir is the project root (not .rehearse/ itself).
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configDir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Load reads the project config, falling back to defaults when no config
// file exists, and applies the environment (including a .env file in dir).
func Load(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = DefaultConfig()
	}
	LoadEnv(dir, cfg)
	return cfg, nil
}

// LoadEnv loads dir/.env if present (existing variables win) and fills the
// default credential from REHEARSE_API_KEY or GROQ_API_KEY.
func LoadEnv(dir string, cfg *Config) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.Completion.DefaultAPIKey = key
		return
	}
	cfg.Completion.DefaultAPIKey = os.Getenv(EnvFallbackAPIKey)
}

// WriteConfig writes cfg to .rehearse/config.yaml in the given project directory.
// Creates the .rehearse/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, configDir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dirPath, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Completion: CompletionConfig{
			Endpoint:          "https://api.groq.com/openai/v1/chat/completions",
			Model:             "llama3-8b-8192",
			Temperature:       0.7,
			MaxTokens:         1000,
			ValidateMaxTokens: 10,
			TimeoutSeconds:    60,
			MaxRetries:        0,
			RetryInitialMs:    500,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   filepath.Join(configDir, "rehearse.db"),
		},
		Capture: CaptureConfig{
			SettleMs: 300,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Timeout returns the per-request completion timeout.
func (c CompletionConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SettleDelay returns how long dictation waits after stopping before flushing.
func (c CaptureConfig) SettleDelay() time.Duration {
	if c.SettleMs <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.SettleMs) * time.Millisecond
}
