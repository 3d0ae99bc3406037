// Package practice holds the immutable configuration of a practice session
// and its persistence in the key-value store.
package practice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rehearse-dev/rehearse/internal/kv"
)

// Difficulty is the experience level the interview is pitched at.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// Difficulties lists the valid levels in ascending order.
var Difficulties = []Difficulty{Beginner, Intermediate, Advanced}

// ParseDifficulty accepts a level name in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Difficulties {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q (want beginner, intermediate or advanced)", s)
}

// Focus describes what questions at this level should concentrate on.
func (d Difficulty) Focus() string {
	switch d {
	case Beginner:
		return "fundamentals and basic concepts"
	case Intermediate:
		return "practical scenarios and problem-solving"
	case Advanced:
		return "complex technical challenges and open-ended system design"
	default:
		return "the core skills of the role"
	}
}

// Config is the practice configuration collected before a session starts.
// It is treated as immutable once a session has started.
type Config struct {
	JobRole         string     `json:"jobRole"`
	DifficultyLevel Difficulty `json:"difficultyLevel"`
	TargetCompany   string     `json:"targetCompany,omitempty"`
}

// ErrNotConfigured is returned by Load when no configuration has been saved.
var ErrNotConfigured = errors.New("practice session is not configured")

// Validate checks that the role is present and the difficulty is known.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JobRole) == "" {
		return errors.New("job role is required")
	}
	if _, err := ParseDifficulty(string(c.DifficultyLevel)); err != nil {
		return err
	}
	return nil
}

// Describe renders the config the way prompts refer to the position, e.g.
// "beginner Software Engineer at Acme".
func (c Config) Describe() string {
	s := fmt.Sprintf("%s %s", c.DifficultyLevel, c.JobRole)
	if c.TargetCompany != "" {
		s += " at " + c.TargetCompany
	}
	return s
}

// Load reads the saved configuration. Returns ErrNotConfigured when none exists.
func Load(ctx context.Context, store kv.Store) (*Config, error) {
	raw, ok, err := store.Get(ctx, kv.KeyPracticeConfig)
	if err != nil {
		return nil, fmt.Errorf("reading practice config: %w", err)
	}
	if !ok {
		return nil, ErrNotConfigured
	}

	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("parsing practice config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("saved practice config is invalid: %w", err)
	}
	cfg.DifficultyLevel, _ = ParseDifficulty(string(cfg.DifficultyLevel))
	return &cfg, nil
}

// Save validates and stores cfg as a whole value.
func Save(ctx context.Context, store kv.Store, cfg Config) error {
	cfg.JobRole = strings.TrimSpace(cfg.JobRole)
	cfg.TargetCompany = strings.TrimSpace(cfg.TargetCompany)
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.DifficultyLevel, _ = ParseDifficulty(string(cfg.DifficultyLevel))

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling practice config: %w", err)
	}
	if err := store.Set(ctx, kv.KeyPracticeConfig, string(data)); err != nil {
		return fmt.Errorf("saving practice config: %w", err)
	}
	return nil
}
