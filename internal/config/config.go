// Package config loads settings from defaults, an optional YAML file and
// the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Normal Difficulty = "normal"
	Hard   Difficulty = "hard"
)

// Level is the gameplay tuning for one difficulty.
type Level struct {
	Duration   time.Duration
	Lives      int
	Multiplier int
}

var levels = map[Difficulty]Level{
	Easy:   {Duration: 20 * time.Second, Lives: 3, Multiplier: 1},
	Normal: {Duration: 15 * time.Second, Lives: 3, Multiplier: 1},
	Hard:   {Duration: 10 * time.Second, Lives: 3, Multiplier: 1},
}

var ErrUnknownDifficulty = errors.New("unknown difficulty")

// ParseDifficulty accepts a difficulty name; empty means Normal.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if d == "" {
		return Normal, nil
	}
	if _, ok := levels[d]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
	return d, nil
}

func (d Difficulty) Level() Level {
	if l, ok := levels[d]; ok {
		return l
	}
	return levels[Normal]
}

type Config struct {
	Port       string     `yaml:"port"`
	Catalog    string     `yaml:"catalog"`
	Extras     bool       `yaml:"extras"`
	Difficulty Difficulty `yaml:"difficulty"`
	// Volume is the sound effect gain in [0,1].
	Volume  float64       `yaml:"volume"`
	Brush   string        `yaml:"brush"`
	DevMode bool          `yaml:"dev_mode"`
	RunTTL  time.Duration `yaml:"run_ttl"`
}

func Default() Config {
	return Config{
		Port:       "8080",
		Difficulty: Normal,
		Volume:     0.5,
		Brush:      "smooth",
		RunTTL:     30 * time.Minute,
	}
}

// Load builds the configuration. SKRAWL_CONFIG names an optional YAML file.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(getenv("SKRAWL_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	var errs []string
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(getenv("SKRAWL_CATALOG")); v != "" {
		cfg.Catalog = v
	}
	if v := strings.TrimSpace(getenv("SKRAWL_BRUSH")); v != "" {
		cfg.Brush = v
	}
	if v := strings.TrimSpace(getenv("SKRAWL_DIFFICULTY")); v != "" {
		cfg.Difficulty = Difficulty(v)
	}
	for name, dst := range map[string]*bool{"SKRAWL_EXTRAS": &cfg.Extras, "SKRAWL_DEV_MODE": &cfg.DevMode} {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, name+" must be a boolean")
				continue
			}
			*dst = b
		}
	}
	if v := strings.TrimSpace(getenv("SKRAWL_SFX_VOLUME")); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, "SKRAWL_SFX_VOLUME must be a number between 0 and 100")
		} else {
			cfg.Volume = n / 100
		}
	}
	cfg.Volume = clamp(cfg.Volume)

	d, err := ParseDifficulty(string(cfg.Difficulty))
	if err != nil {
		errs = append(errs, err.Error())
	} else {
		cfg.Difficulty = d
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = Default().RunTTL
	}
	if len(errs) > 0 {
		return cfg, errors.New("invalid config: " + strings.Join(errs, "; "))
	}
	return cfg, nil
}

func clamp(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Addr returns the listen address for Port.
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
