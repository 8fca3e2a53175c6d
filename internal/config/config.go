package config

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/nbodylab/internal/dynamo"
	"github.com/san-kum/nbodylab/internal/physics"
)

const (
	DefaultBodies     = 300
	DefaultSeed       = 1
	DefaultSpeed      = 1
	DefaultSteps      = 10000
	DefaultFrameEvery = 10
	DefaultFPS        = 60
)

const (
	ScenarioRandom  = "random"
	ScenarioBinary  = "binary"
	ScenarioFigure8 = "figure8"
)

type Config struct {
	Scenario   string        `yaml:"scenario"`
	Bodies     int           `yaml:"bodies"`
	Seed       int64         `yaml:"seed"`
	Params     dynamo.Params `yaml:"params"`
	Playing    bool          `yaml:"playing"`
	Speed      int           `yaml:"speed"`
	Steps      int           `yaml:"steps"`
	FrameEvery int           `yaml:"frame_every"`
	FPS        int           `yaml:"fps"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario:   ScenarioRandom,
		Bodies:     DefaultBodies,
		Seed:       DefaultSeed,
		Params:     dynamo.DefaultParams(),
		Playing:    true,
		Speed:      DefaultSpeed,
		Steps:      DefaultSteps,
		FrameEvery: DefaultFrameEvery,
		FPS:        DefaultFPS,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	switch c.Scenario {
	case ScenarioRandom:
		if c.Bodies < 1 {
			return fmt.Errorf("bodies must be at least 1, got %d", c.Bodies)
		}
	case ScenarioBinary, ScenarioFigure8:
	default:
		return fmt.Errorf("unknown scenario: %q", c.Scenario)
	}
	if c.Speed < 1 {
		return fmt.Errorf("speed must be at least 1, got %d", c.Speed)
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", c.Steps)
	}
	if c.FrameEvery < 1 {
		return fmt.Errorf("frame_every must be at least 1, got %d", c.FrameEvery)
	}
	if c.FPS < 1 {
		return fmt.Errorf("fps must be at least 1, got %d", c.FPS)
	}
	return nil
}

// InitialBodies seeds the configured scenario. Random scenarios are
// deterministic for a given seed.
func (c *Config) InitialBodies() []dynamo.Body {
	switch c.Scenario {
	case ScenarioBinary:
		return physics.CircularBinary(c.Params.G)
	case ScenarioFigure8:
		return physics.FigureEight()
	default:
		return physics.RandomBodies(c.RNG(), c.Bodies)
	}
}

func (c *Config) RNG() *rand.Rand {
	return rand.New(rand.NewSource(c.Seed))
}
