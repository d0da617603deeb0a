package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaultsForUnsetFields(t *testing.T) {
	path := writeConfig(t, `
world:
  start: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 86400.0, cfg.World.Duration)
	assert.Equal(t, 60.0, cfg.World.Quanta)
	assert.Equal(t, 1.0, cfg.World.Scale)
	assert.Equal(t, "holosim", cfg.Exchange.Name)
	assert.Equal(t, "USD", cfg.Exchange.Currency)
	assert.Equal(t, "1.00", cfg.Issuing.SupplyBookValue)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadHonorsFileValuesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
world:
  duration: 1000
  quanta: 5
exchange:
  currency: EUR
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, cfg.World.Duration)
	assert.Equal(t, 5.0, cfg.World.Quanta)
	assert.Equal(t, "EUR", cfg.Exchange.Currency)
}

func TestLoadEnvOverrideTakesPrecedenceOverFile(t *testing.T) {
	path := writeConfig(t, `
exchange:
  currency: EUR
`)
	t.Setenv("HOLOSIM_EXCHANGE_CURRENCY", "JPY")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "JPY", cfg.Exchange.Currency)
}

func TestLoadParsesReserveTranches(t *testing.T) {
	path := writeConfig(t, `
reserve:
  security: HOT
  identity: "HOT Reserve"
  tranches:
    "4.00": 1000
    "4.10": 500
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "HOT", cfg.Reserve.Security)
	assert.Equal(t, int64(1000), cfg.Reserve.Tranches["4.00"])
	assert.Equal(t, int64(500), cfg.Reserve.Tranches["4.10"])
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsNonPositiveDuration(t *testing.T) {
	c := &Config{Exchange: ExchangeConfig{Currency: "USD"}, World: WorldConfig{Duration: 0, Quanta: 1}}
	assert.Error(t, c.Validate())
}

func TestValidateRequiresQuantaUnlessRealtime(t *testing.T) {
	c := &Config{Exchange: ExchangeConfig{Currency: "USD"}, World: WorldConfig{Duration: 10, Quanta: 0}}
	assert.Error(t, c.Validate())

	c.World.Realtime = true
	assert.NoError(t, c.Validate())
}

func TestValidateRequiresCurrency(t *testing.T) {
	c := &Config{World: WorldConfig{Duration: 10, Quanta: 1}}
	assert.Error(t, c.Validate())
}

func TestValidateRejectsNegativeSupplyAvailable(t *testing.T) {
	c := &Config{
		Exchange: ExchangeConfig{Currency: "USD"},
		World:    WorldConfig{Duration: 10, Quanta: 1},
		Issuing:  IssuingConfig{SupplyAvailable: -1},
	}
	assert.Error(t, c.Validate())
}
