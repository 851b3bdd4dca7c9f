package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabeeghrb/netsuite-rb/internal/sales/orders"
)

func setTestMode(t *testing.T, on bool) {
	t.Helper()
	t.Cleanup(RefreshTestMode)
	if on {
		t.Setenv(testModeEnv, "1")
	} else {
		t.Setenv(testModeEnv, "0")
	}
	RefreshTestMode()
}

func TestLoadConfigDefaults(t *testing.T) {
	setTestMode(t, true)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, orders.POScopeCustomer, cfg.PODuplicateScope)
	assert.Equal(t, []int64{325}, cfg.ProformaTemplateIDs)
	assert.Len(t, cfg.ReplyAllStripEmails, 3)
	assert.Equal(t, 4, cfg.SplitLookupConcurrency)
	assert.Empty(t, cfg.SplitLocationID)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresTokenHash(t *testing.T) {
	setTestMode(t, false)
	t.Setenv("HOOK_TOKEN_HASH", "")

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("HOOK_TOKEN_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	_, err = LoadConfig()
	require.NoError(t, err)
}

func TestLoadConfigScope(t *testing.T) {
	setTestMode(t, true)

	t.Setenv("PO_DUPLICATE_SCOPE", " GLOBAL ")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, orders.POScopeGlobal, cfg.PODuplicateScope)

	t.Setenv("PO_DUPLICATE_SCOPE", "region")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigSplitParams(t *testing.T) {
	setTestMode(t, true)
	t.Setenv("SPLIT_LOCATION_ID", "12")
	t.Setenv("SPLIT_CUSTOMER_ID", "345")
	t.Setenv("SPLIT_SHIP_METHOD_ID", "6789")
	t.Setenv("SPLIT_LOOKUP_CONCURRENCY", "0")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "12", cfg.SplitLocationID)
	assert.Equal(t, "345", cfg.SplitCustomerID)
	assert.Equal(t, "6789", cfg.SplitShipMethodID)
	assert.Equal(t, 1, cfg.SplitLookupConcurrency)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", logLevel(&Config{LogLevel: "debug"}).String())
	assert.Equal(t, "INFO", logLevel(&Config{LogLevel: "loud"}).String())
	assert.Equal(t, "INFO", logLevel(nil).String())
}
