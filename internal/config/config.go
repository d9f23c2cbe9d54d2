// Package config loads the relay host configuration from files and the
// environment and turns it into a strategy profile.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/petrijr/relay/internal/logging"
	"github.com/petrijr/relay/pkg/api"
	"github.com/petrijr/relay/pkg/strategy"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// Strategy selects a built-in profile: default, shared or isolated.
	Strategy string `json:"strategy" yaml:"strategy"`

	// Concurrency overrides the number of concurrency units pools are sized
	// from. Zero means runtime.GOMAXPROCS(0).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// KeepAlive is how long surplus workers idle before exiting, as a Go
	// duration string. Empty means the 60s default.
	KeepAlive string `json:"keepAlive" yaml:"keepAlive"`

	// Pools overrides the sizing of individual categories. A category the
	// profile does not build gets a new pool.
	Pools map[string]PoolOverride `json:"pools" yaml:"pools"`

	// Reserved routes extra workload identifiers to a category.
	Reserved map[string]string `json:"reserved" yaml:"reserved"`

	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// PoolOverride replaces selected fields of a category's pool. Nil fields
// keep the profile's value.
type PoolOverride struct {
	Core          *int `json:"core,omitempty" yaml:"core,omitempty"`
	Max           *int `json:"max,omitempty" yaml:"max,omitempty"`
	QueueCapacity *int `json:"queueCapacity,omitempty" yaml:"queueCapacity,omitempty"`
}

// SnapshotConfig controls periodic unit sampling. Sampling is off when
// Interval is empty or zero.
type SnapshotConfig struct {
	Interval string `json:"interval" yaml:"interval"`
	DB       string `json:"db" yaml:"db"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Strategy:  string(strategy.KindDefault),
		KeepAlive: api.DefaultKeepAlive.String(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension) on top of
// the defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Units returns the concurrency units pools are sized from.
func (c Config) Units() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return strategy.Concurrency()
}

// KeepAliveDuration parses KeepAlive.
func (c Config) KeepAliveDuration() (time.Duration, error) {
	if c.KeepAlive == "" {
		return api.DefaultKeepAlive, nil
	}
	d, err := time.ParseDuration(c.KeepAlive)
	if err != nil {
		return 0, &api.ConfigError{Field: "keepAlive", Reason: err.Error()}
	}
	return d, nil
}

// SnapshotInterval parses Snapshot.Interval. Zero disables sampling.
func (c Config) SnapshotInterval() (time.Duration, error) {
	if c.Snapshot.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Snapshot.Interval)
	if err != nil {
		return 0, &api.ConfigError{Field: "snapshot.interval", Reason: err.Error()}
	}
	if d < 0 {
		return 0, &api.ConfigError{Field: "snapshot.interval", Reason: "must not be negative"}
	}
	return d, nil
}

// Profile converts the configuration into a validated strategy profile.
func (c Config) Profile() (strategy.Profile, error) {
	n := c.Units()
	p, err := strategy.ProfileFor(strategy.Kind(c.Strategy), n)
	if err != nil {
		return strategy.Profile{}, err
	}

	keepAlive, err := c.KeepAliveDuration()
	if err != nil {
		return strategy.Profile{}, err
	}
	for cat, pc := range p.Pools {
		pc.KeepAlive = keepAlive
		p.Pools[cat] = pc
	}

	for name, o := range c.Pools {
		cat, err := api.ParseCategory(name)
		if err != nil {
			return strategy.Profile{}, fmt.Errorf("pools: %w", err)
		}
		pc, ok := p.Pools[cat]
		if !ok {
			pc = api.FixedPool(n)
			pc.KeepAlive = keepAlive
		}
		p = p.WithPool(cat, o.apply(pc))
	}

	if len(c.Reserved) > 0 {
		extra := make(map[string]api.Category, len(c.Reserved))
		for workload, name := range c.Reserved {
			cat, err := api.ParseCategory(name)
			if err != nil {
				return strategy.Profile{}, fmt.Errorf("reserved %q: %w", workload, err)
			}
			extra[workload] = cat
		}
		if p, err = p.WithReserved(extra); err != nil {
			return strategy.Profile{}, err
		}
	}

	if err := p.Validate(); err != nil {
		return strategy.Profile{}, err
	}
	return p, nil
}

func (o PoolOverride) apply(pc api.PoolConfig) api.PoolConfig {
	if o.Core != nil {
		pc.CorePoolSize = *o.Core
		if o.Max == nil && pc.MaximumPoolSize < pc.CorePoolSize {
			pc.MaximumPoolSize = pc.CorePoolSize
		}
	}
	if o.Max != nil {
		pc.MaximumPoolSize = *o.Max
	}
	if o.QueueCapacity != nil {
		if *o.QueueCapacity > 0 {
			pc = pc.Bounded(*o.QueueCapacity)
		} else {
			pc.Queue = api.QueueUnbounded
			pc.QueueCapacity = 0
		}
	}
	return pc
}

// Validate checks every field without building anything.
func (c Config) Validate() error {
	if _, err := c.Profile(); err != nil {
		return err
	}
	if _, err := c.SnapshotInterval(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return &api.ConfigError{Field: "log.level", Reason: err.Error()}
	}
	if !logging.ValidFormat(c.Log.Format) {
		return &api.ConfigError{Field: "log.format", Reason: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}
	return nil
}
