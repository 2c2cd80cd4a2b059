// Package config loads the book, engine and benchmark settings from YAML
// with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"lightning-book/orderbook"
)

const (
	EnvConfig    = "LOB_CONFIG"
	EnvLogLevel  = "LOB_LOG_LEVEL"
	EnvPriceTree = "LOB_PRICE_TREE"
)

type Engine struct {
	PriceTree     string `yaml:"price_tree"`
	RequestBuffer int    `yaml:"request_buffer"`
	FillBuffer    int    `yaml:"fill_buffer"` // 0 disables fill publication
}

type Logging struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type Benchmark struct {
	Duration    time.Duration `yaml:"duration"`
	Workers     int           `yaml:"workers"`
	Seed        int64         `yaml:"seed"`
	BasePrice   int64         `yaml:"base_price"`
	PriceRange  int64         `yaml:"price_range"`
	MaxQuantity int64         `yaml:"max_quantity"`
	CancelRatio float64       `yaml:"cancel_ratio"`
	AmendRatio  float64       `yaml:"amend_ratio"`
}

type Config struct {
	Engine    Engine    `yaml:"engine"`
	Logging   Logging   `yaml:"logging"`
	Benchmark Benchmark `yaml:"benchmark"`
}

func Default() Config {
	var c Config
	c.Engine.PriceTree = orderbook.RedBlackTreeType.String()
	c.Engine.RequestBuffer = 1024
	c.Engine.FillBuffer = 65536
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Benchmark.Duration = 5 * time.Second
	c.Benchmark.Workers = 4
	c.Benchmark.Seed = 1
	c.Benchmark.BasePrice = 50000
	c.Benchmark.PriceRange = 200
	c.Benchmark.MaxQuantity = 100
	c.Benchmark.CancelRatio = 0.3
	c.Benchmark.AmendRatio = 0.1
	return c
}

// Load overlays the YAML file at path (or $LOB_CONFIG when path is empty) on
// the defaults, then applies environment overrides.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPriceTree); v != "" {
		c.Engine.PriceTree = v
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if _, err := c.Engine.TreeType(); err != nil {
		errs = append(errs, err)
	}
	if c.Engine.RequestBuffer <= 0 {
		errs = append(errs, fmt.Errorf("config: engine.request_buffer must be positive, got %d", c.Engine.RequestBuffer))
	}
	if c.Engine.FillBuffer < 0 {
		errs = append(errs, fmt.Errorf("config: engine.fill_buffer must not be negative, got %d", c.Engine.FillBuffer))
	}
	b := c.Benchmark
	if b.Workers <= 0 {
		errs = append(errs, fmt.Errorf("config: benchmark.workers must be positive, got %d", b.Workers))
	}
	if b.PriceRange <= 0 || b.MaxQuantity <= 0 {
		errs = append(errs, errors.New("config: benchmark.price_range and benchmark.max_quantity must be positive"))
	}
	if b.CancelRatio < 0 || b.AmendRatio < 0 || b.CancelRatio+b.AmendRatio > 1 {
		errs = append(errs, fmt.Errorf("config: benchmark ratios must be in [0,1], got cancel=%v amend=%v", b.CancelRatio, b.AmendRatio))
	}
	return errors.Join(errs...)
}

// TreeType resolves the configured side book implementation
func (e Engine) TreeType() (orderbook.PriceTreeType, error) {
	t, err := orderbook.ParsePriceTreeType(e.PriceTree)
	if err != nil {
		return t, fmt.Errorf("config: engine.price_tree: %w", err)
	}
	return t, nil
}
