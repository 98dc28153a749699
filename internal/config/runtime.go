package config

import (
	"sync"
	"sync/atomic"
	"time"
)

// Settings is the runtime-tunable subset of the pipeline configuration. A
// Settings value is immutable once published; readers always work from one
// consistent snapshot and never observe a partial update.
type Settings struct {
	CacheTTL           time.Duration
	MaxHistoryLength   int
	FetchFanoutWidth   int
	StatsFanoutWidth   int
	UpdateInterval     time.Duration
	IntervalMinutes    int
	MaxSymbols         int
	MaxStatsSymbols    int
	MaxCoinsPerGroup   int
	MinVolumeThreshold float64
	MinChangeThreshold float64
}

// Options carries a partial settings update. Nil fields keep their current
// value.
type Options struct {
	TTLSeconds            *int
	MaxHistoryLength      *int
	FetchFanoutWidth      *int
	UpdateIntervalSeconds *int
	MinVolumeThreshold    *float64
	MinChangeThreshold    *float64
	MaxCoinsPerCategory   *int
}

// Runtime holds the current Settings snapshot and swaps it atomically on
// reconfiguration. Readers are lock-free; writers are serialized so two
// overlapping partial updates cannot drop each other's fields.
type Runtime struct {
	mu      sync.Mutex   // serializes Apply
	current atomic.Value // *Settings
}

// NewRuntime seeds a Runtime from the startup pipeline configuration.
func NewRuntime(pc PipelineConfig) *Runtime {
	r := &Runtime{}
	r.current.Store(&Settings{
		CacheTTL:           pc.CacheTTL,
		MaxHistoryLength:   pc.MaxHistoryLength,
		FetchFanoutWidth:   pc.FetchFanoutWidth,
		StatsFanoutWidth:   pc.StatsFanoutWidth,
		UpdateInterval:     pc.UpdateInterval,
		IntervalMinutes:    pc.IntervalMinutes,
		MaxSymbols:         pc.MaxSymbols,
		MaxStatsSymbols:    pc.MaxStatsSymbols,
		MaxCoinsPerGroup:   pc.MaxCoinsPerGroup,
		MinVolumeThreshold: pc.MinVolumeThreshold,
		MinChangeThreshold: pc.MinChangeThreshold,
	})
	return r
}

// Snapshot returns the current immutable settings.
func (r *Runtime) Snapshot() *Settings {
	return r.current.Load().(*Settings)
}

// Apply publishes a new snapshot built from the current one plus the given
// options, and returns it. Concurrent applies are serialized; each sees the
// previous one's result.
func (r *Runtime) Apply(opts Options) *Settings {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := *r.Snapshot()

	if opts.TTLSeconds != nil {
		next.CacheTTL = time.Duration(*opts.TTLSeconds) * time.Second
	}
	if opts.MaxHistoryLength != nil {
		next.MaxHistoryLength = *opts.MaxHistoryLength
	}
	if opts.FetchFanoutWidth != nil {
		next.FetchFanoutWidth = *opts.FetchFanoutWidth
	}
	if opts.UpdateIntervalSeconds != nil {
		next.UpdateInterval = time.Duration(*opts.UpdateIntervalSeconds) * time.Second
	}
	if opts.MinVolumeThreshold != nil {
		next.MinVolumeThreshold = *opts.MinVolumeThreshold
	}
	if opts.MinChangeThreshold != nil {
		next.MinChangeThreshold = *opts.MinChangeThreshold
	}
	if opts.MaxCoinsPerCategory != nil {
		next.MaxCoinsPerGroup = *opts.MaxCoinsPerCategory
	}

	r.current.Store(&next)
	return &next
}
