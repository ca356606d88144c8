package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// CarrierConfig represents the complete carrier/allocator configuration
type CarrierConfig struct {
	Vendor    VendorIntegration `toml:"vendor"`
	Allocator AllocatorConfig   `toml:"allocator"`
	Jobs      JobsConfig        `toml:"jobs"`
}

// VendorIntegration contains API settings for the carrier vendor
type VendorIntegration struct {
	APIKey         string `toml:"api_key"`
	APISecret      string `toml:"api_secret"`
	APIEndpoint    string `toml:"api_endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// AllocatorConfig contains lifecycle policy settings
type AllocatorConfig struct {
	CooldownDays      int `toml:"cooldown_days"`
	LowStockThreshold int `toml:"low_stock_threshold"`
}

// JobsConfig contains background job scheduling settings
type JobsConfig struct {
	VendorSyncMinutes int `toml:"vendor_sync_minutes"`
	PoolAlertMinutes  int `toml:"pool_alert_minutes"`
}

// LoadCarrierConfig loads configuration from a TOML file
func LoadCarrierConfig(path string) (*CarrierConfig, error) {
	cfg := &CarrierConfig{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load carrier config from %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// DefaultCarrierConfig returns the configuration used when no file is
// provided (local development).
func DefaultCarrierConfig() *CarrierConfig {
	cfg := &CarrierConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *CarrierConfig) applyDefaults() {
	if c.Vendor.TimeoutSeconds <= 0 {
		c.Vendor.TimeoutSeconds = 30
	}
	if c.Allocator.CooldownDays <= 0 {
		c.Allocator.CooldownDays = 30
	}
	if c.Allocator.LowStockThreshold <= 0 {
		c.Allocator.LowStockThreshold = 5
	}
	if c.Jobs.VendorSyncMinutes <= 0 {
		c.Jobs.VendorSyncMinutes = 60
	}
	if c.Jobs.PoolAlertMinutes <= 0 {
		c.Jobs.PoolAlertMinutes = 15
	}
}

// Cooldown returns the quarantine window as a duration.
func (c *CarrierConfig) Cooldown() time.Duration {
	return time.Duration(c.Allocator.CooldownDays) * 24 * time.Hour
}

// VendorTimeout returns the vendor HTTP timeout as a duration.
func (c *CarrierConfig) VendorTimeout() time.Duration {
	return time.Duration(c.Vendor.TimeoutSeconds) * time.Second
}
