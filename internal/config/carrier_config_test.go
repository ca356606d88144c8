package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "carrier.toml")
	assert.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadCarrierConfig(t *testing.T) {
	path := writeConfigFile(t, `
[vendor]
api_key = "key-1"
api_secret = "secret-1"
api_endpoint = "https://vendor.example.com"
timeout_seconds = 10

[allocator]
cooldown_days = 45
low_stock_threshold = 8

[jobs]
vendor_sync_minutes = 30
pool_alert_minutes = 5
`)

	cfg, err := LoadCarrierConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "key-1", cfg.Vendor.APIKey)
	assert.Equal(t, "https://vendor.example.com", cfg.Vendor.APIEndpoint)
	assert.Equal(t, 45*24*time.Hour, cfg.Cooldown())
	assert.Equal(t, 10*time.Second, cfg.VendorTimeout())
	assert.Equal(t, 8, cfg.Allocator.LowStockThreshold)
	assert.Equal(t, 30, cfg.Jobs.VendorSyncMinutes)
	assert.Equal(t, 5, cfg.Jobs.PoolAlertMinutes)
}

func TestLoadCarrierConfig_PartialFileGetsDefaults(t *testing.T) {
	path := writeConfigFile(t, `
[vendor]
api_key = "key-1"
api_secret = "secret-1"
`)

	cfg, err := LoadCarrierConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, cfg.Cooldown())
	assert.Equal(t, 5, cfg.Allocator.LowStockThreshold)
	assert.Equal(t, 60, cfg.Jobs.VendorSyncMinutes)
	assert.Equal(t, 15, cfg.Jobs.PoolAlertMinutes)
	assert.Equal(t, 30*time.Second, cfg.VendorTimeout())
}

func TestLoadCarrierConfig_MissingFile(t *testing.T) {
	_, err := LoadCarrierConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorContains(t, err, "failed to load carrier config")
}

func TestDefaultCarrierConfig(t *testing.T) {
	cfg := DefaultCarrierConfig()
	assert.Equal(t, 30*24*time.Hour, cfg.Cooldown())
	assert.Empty(t, cfg.Vendor.APIKey)
}
