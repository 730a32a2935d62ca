// Package usage tracks token consumption and estimated cost across a
// generation run. The tracker rides the context so generation callers can
// record usage without plumbing it through every signature.
package usage

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"

	"planforge/internal/logging"
)

type contextKey struct{}

// TokenCounts holds input/output token sums and accumulated cost.
type TokenCounts struct {
	Input  int64   `json:"input"`
	Output int64   `json:"output"`
	Total  int64   `json:"total"`
	Cost   float64 `json:"cost_est_usd"`
}

// Add accumulates one call's tokens and cost.
func (tc *TokenCounts) Add(input, output int, cost float64) {
	tc.Input += int64(input)
	tc.Output += int64(output)
	tc.Total += int64(input + output)
	tc.Cost += cost
}

// Snapshot is a copy of the aggregated stats at a point in time.
type Snapshot struct {
	Total      TokenCounts            `json:"total"`
	ByModel    map[string]TokenCounts `json:"by_model"`
	ByProvider map[string]TokenCounts `json:"by_provider"`
	BySection  map[string]TokenCounts `json:"by_section"`
	Calls      int                    `json:"calls"`
}

// Models returns the distinct model names seen, sorted.
func (s Snapshot) Models() []string {
	models := make([]string, 0, len(s.ByModel))
	for m := range s.ByModel {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

// Tracker aggregates token usage for one run. Safe for concurrent use.
type Tracker struct {
	mu         sync.Mutex
	total      TokenCounts
	byModel    map[string]TokenCounts
	byProvider map[string]TokenCounts
	bySection  map[string]TokenCounts
	calls      int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byModel:    make(map[string]TokenCounts),
		byProvider: make(map[string]TokenCounts),
		bySection:  make(map[string]TokenCounts),
	}
}

// Track records one LLM transaction.
func (t *Tracker) Track(model, provider, section string, input, output int, cost float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total.Add(input, output, cost)
	addToMap(t.byModel, model, input, output, cost)
	addToMap(t.byProvider, provider, input, output, cost)
	addToMap(t.bySection, section, input, output, cost)
	t.calls++

	logging.Usage("tracked %s/%s section=%s in=%d out=%d cost=$%.4f",
		provider, model, section, input, output, cost)
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Total:      t.total,
		ByModel:    copyMap(t.byModel),
		ByProvider: copyMap(t.byProvider),
		BySection:  copyMap(t.bySection),
		Calls:      t.calls,
	}
}

// TotalCost returns the accumulated estimated cost in USD.
func (t *Tracker) TotalCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total.Cost
}

// Save writes the current snapshot as indented JSON, for diagnostics.
func (t *Tracker) Save(path string) error {
	data, err := json.MarshalIndent(t.Stats(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func addToMap(m map[string]TokenCounts, key string, input, output int, cost float64) {
	entry := m[key]
	entry.Add(input, output, cost)
	m[key] = entry
}

func copyMap(src map[string]TokenCounts) map[string]TokenCounts {
	dst := make(map[string]TokenCounts, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// NewContext returns a new context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tracker from the context, or nil.
func FromContext(ctx context.Context) *Tracker {
	val := ctx.Value(contextKey{})
	if val == nil {
		return nil
	}
	return val.(*Tracker)
}
