package dto

import (
	"github.com/go-playground/validator/v10"

	"market-movers-api/internal/config"
)

var validate = validator.New()

// ConfigUpdateRequest carries a partial runtime reconfiguration. Omitted
// fields keep their current values.
type ConfigUpdateRequest struct {
	CacheTTLSeconds       *int     `json:"cache_ttl_seconds" validate:"omitempty,min=1,max=3600"`
	MaxHistoryLength      *int     `json:"max_history_length" validate:"omitempty,min=2,max=10000"`
	FetchFanoutWidth      *int     `json:"fetch_fanout_width" validate:"omitempty,min=1,max=100"`
	UpdateIntervalSeconds *int     `json:"update_interval_seconds" validate:"omitempty,min=1,max=3600"`
	MinVolumeThreshold    *float64 `json:"min_volume_threshold" validate:"omitempty,min=0"`
	MinChangeThreshold    *float64 `json:"min_change_threshold" validate:"omitempty,min=0"`
	MaxCoinsPerCategory   *int     `json:"max_coins_per_category" validate:"omitempty,min=1,max=100"`
}

// Validate checks the request's field constraints.
func (r *ConfigUpdateRequest) Validate() error {
	return validate.Struct(r)
}

// Options converts the request to configuration options.
func (r *ConfigUpdateRequest) Options() config.Options {
	return config.Options{
		TTLSeconds:            r.CacheTTLSeconds,
		MaxHistoryLength:      r.MaxHistoryLength,
		FetchFanoutWidth:      r.FetchFanoutWidth,
		UpdateIntervalSeconds: r.UpdateIntervalSeconds,
		MinVolumeThreshold:    r.MinVolumeThreshold,
		MinChangeThreshold:    r.MinChangeThreshold,
		MaxCoinsPerCategory:   r.MaxCoinsPerCategory,
	}
}
