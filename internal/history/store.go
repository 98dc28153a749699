package history

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"market-movers-api/internal/models"
)

// Store keeps a bounded FIFO of price samples per symbol for one interval
// family. Buffers are created lazily on the first observation of a symbol
// and live for the process lifetime unless Clear is called.
type Store struct {
	mu      sync.RWMutex
	buffers map[string][]models.PriceSample
	maxLen  int
}

// NewStore creates a store whose buffers hold at most maxLen samples.
func NewStore(maxLen int) *Store {
	if maxLen < 2 {
		maxLen = 2
	}
	return &Store{
		buffers: make(map[string][]models.PriceSample),
		maxLen:  maxLen,
	}
}

// Record appends a sample for symbol taken at now. Non-positive prices are
// ignored. When the buffer is full the oldest sample is evicted.
func (s *Store) Record(symbol string, price decimal.Decimal, now time.Time) {
	if !price.IsPositive() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.buffers[symbol]
	buf = append(buf, models.PriceSample{Timestamp: now, Price: price})
	if len(buf) > s.maxLen {
		buf = buf[len(buf)-s.maxLen:]
	}
	s.buffers[symbol] = buf
}

// Snapshot returns a copy of the symbol's samples ordered oldest to newest.
// The copy is safe to scan while concurrent appends continue.
func (s *Store) Snapshot(symbol string) []models.PriceSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.buffers[symbol]
	if len(buf) == 0 {
		return nil
	}

	out := make([]models.PriceSample, len(buf))
	copy(out, buf)
	return out
}

// Len returns the number of samples held for symbol.
func (s *Store) Len(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buffers[symbol])
}

// Symbols returns the number of symbols with at least one sample.
func (s *Store) Symbols() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buffers)
}

// MaxLen returns the current buffer capacity.
func (s *Store) MaxLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxLen
}

// Resize changes the buffer capacity. Existing buffers are truncated in the
// same critical section, keeping only their most recent samples, so no
// stale-length buffer can be observed afterwards.
func (s *Store) Resize(maxLen int) {
	if maxLen < 2 {
		maxLen = 2
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if maxLen == s.maxLen {
		return
	}

	s.maxLen = maxLen
	for symbol, buf := range s.buffers {
		if len(buf) > maxLen {
			trimmed := make([]models.PriceSample, maxLen)
			copy(trimmed, buf[len(buf)-maxLen:])
			s.buffers[symbol] = trimmed
		}
	}
}

// Clear wipes every buffer atomically.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers = make(map[string][]models.PriceSample)
}
