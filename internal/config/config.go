// Package config loads the player's cable configuration from a YAML
// file. Every field has a default so a missing file or empty document is
// a valid configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Cable selector values.
const (
	CableSimulator = "simulator"
	CableCMSISDAP  = "cmsis-dap"
)

// USB selects a specific probe when more than one is attached.
type USB struct {
	VendorID  uint16 `yaml:"vendor_id"`
	ProductID uint16 `yaml:"product_id"`
}

// Config is the player configuration.
type Config struct {
	Cable      string `yaml:"cable"`
	SpeedHz    int    `yaml:"speed_hz"`
	ClockBatch int    `yaml:"clock_batch"`
	USB        USB    `yaml:"usb"`
}

// Default returns the configuration used when no file is supplied:
// simulator cable, 1 MHz, 100-cycle run-test batches, Raspberry Pi
// CMSIS-DAP identifiers.
func Default() Config {
	return Config{
		Cable:      CableSimulator,
		SpeedHz:    1_000_000,
		ClockBatch: 100,
		USB:        USB{VendorID: 0x2E8A, ProductID: 0x000C},
	}
}

// Load reads path and overlays it onto the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values after loading or flag overrides.
func (c Config) Validate() error {
	switch c.Cable {
	case CableSimulator, CableCMSISDAP:
	default:
		return fmt.Errorf("unknown cable %q", c.Cable)
	}
	if c.SpeedHz <= 0 {
		return fmt.Errorf("speed_hz must be positive, got %d", c.SpeedHz)
	}
	if c.ClockBatch <= 0 {
		return fmt.Errorf("clock_batch must be positive, got %d", c.ClockBatch)
	}
	return nil
}
