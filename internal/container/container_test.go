package container

import (
	"context"
	"testing"

	"ledger-audit/internal/analysis"
	"ledger-audit/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Ledger.Year = "2025"
	cfg.Pipeline.Workers = 2
	cfg.Pipeline.MaxRetries = 3
	cfg.Pipeline.TimeoutSeconds = 60
	cfg.AI.Model = "gemini-2.0-flash"
	cfg.AI.TimeoutSeconds = 30
	return cfg
}

func TestNewContainer(t *testing.T) {
	tests := []struct {
		name        string
		config      *config.Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "nil config",
			config:      nil,
			expectError: true,
			errorMsg:    "configuration cannot be nil",
		},
		{
			name:        "valid config without AI",
			config:      testConfig(),
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewContainer(context.Background(), tt.config)

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, c)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, c)

			// Verify all dependencies are created
			assert.NotNil(t, c.GetLogger())
			assert.NotNil(t, c.GetClassifier())
			assert.NotNil(t, c.GetExtractor())
			assert.NotNil(t, c.GetMarker())
			assert.NotNil(t, c.GetGateway())
			assert.NotNil(t, c.GetScheduler())
			assert.NotNil(t, c.GetOrchestrator())

			assert.NoError(t, c.Close())
		})
	}
}

func TestNewContainer_OfflineGateway(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Enabled = false

	c, err := NewContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	// With AI disabled the gateway must be the deterministic stub
	_, ok := c.GetGateway().(*analysis.FakeGateway)
	assert.True(t, ok, "expected offline stub gateway when AI is disabled")
}

func TestNewContainer_NoAPIKeyFallsBackToStub(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Enabled = true
	cfg.AI.APIKey = ""

	c, err := NewContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	_, ok := c.GetGateway().(*analysis.FakeGateway)
	assert.True(t, ok, "expected offline stub gateway without an API key")
}

func TestContainer_ConvenienceMethods(t *testing.T) {
	cfg := testConfig()

	c, err := NewContainer(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotNil(t, c.GetLogger())
	assert.Equal(t, cfg, c.GetConfig())
	assert.NotNil(t, c.GetClassifier())
	assert.NotNil(t, c.GetOrchestrator())

	// Test Close method
	err = c.Close()
	assert.NoError(t, err)
}

func TestLayoutFromConfig_Overrides(t *testing.T) {
	cfg := testConfig()
	cfg.Ledger.HeaderRow = 2
	cfg.Ledger.BalanceColumn = "H"
	cfg.Ledger.MonthTotalMarker = "MONTH SUM"

	layout := layoutFromConfig(cfg)
	assert.Equal(t, 2, layout.HeaderRow)
	assert.Equal(t, "H", layout.BalanceColumn)
	assert.Equal(t, "MONTH SUM", layout.MonthTotalMarker)

	// Unset fields keep the built-in defaults
	assert.Equal(t, "A", layout.DateColumn)
	assert.Equal(t, "MONTHLY TOTAL", layoutFromConfig(testConfig()).MonthTotalMarker)
}
