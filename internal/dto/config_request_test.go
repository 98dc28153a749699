package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// Test ConfigUpdateRequest validation
func TestConfigUpdateRequest_Validate(t *testing.T) {
	t.Run("empty request is valid", func(t *testing.T) {
		req := &ConfigUpdateRequest{}
		assert.NoError(t, req.Validate())
	})

	t.Run("valid partial update", func(t *testing.T) {
		req := &ConfigUpdateRequest{
			CacheTTLSeconds:  intPtr(120),
			MaxHistoryLength: intPtr(50),
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("rejects out of range values", func(t *testing.T) {
		assert.Error(t, (&ConfigUpdateRequest{CacheTTLSeconds: intPtr(0)}).Validate())
		assert.Error(t, (&ConfigUpdateRequest{CacheTTLSeconds: intPtr(7200)}).Validate())
		assert.Error(t, (&ConfigUpdateRequest{MaxHistoryLength: intPtr(1)}).Validate())
		assert.Error(t, (&ConfigUpdateRequest{FetchFanoutWidth: intPtr(500)}).Validate())
		assert.Error(t, (&ConfigUpdateRequest{MinVolumeThreshold: floatPtr(-1)}).Validate())
		assert.Error(t, (&ConfigUpdateRequest{MaxCoinsPerCategory: intPtr(0)}).Validate())
	})
}

// Test Options conversion
func TestConfigUpdateRequest_Options(t *testing.T) {
	req := &ConfigUpdateRequest{
		CacheTTLSeconds:     intPtr(90),
		MaxCoinsPerCategory: intPtr(12),
	}

	opts := req.Options()

	require.NotNil(t, opts.TTLSeconds)
	assert.Equal(t, 90, *opts.TTLSeconds)
	require.NotNil(t, opts.MaxCoinsPerCategory)
	assert.Equal(t, 12, *opts.MaxCoinsPerCategory)
	assert.Nil(t, opts.MaxHistoryLength)
	assert.Nil(t, opts.UpdateIntervalSeconds)
}
