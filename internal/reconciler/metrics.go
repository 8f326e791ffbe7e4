package reconciler

import (
	"sort"
	"sync"
	"time"

	"github.com/ynput/ayon-jira/pkg/logging"
)

// ReconcilerMetrics tracks reconciliation outcomes per entity kind.
//
// One instance lives for the whole process so that serve mode can report
// totals across runs. Single CLI runs use it for the final summary only.
type ReconcilerMetrics struct {
	mu sync.RWMutex

	kindMetrics map[EntityKind]*kindMetrics

	totalRuns        int64
	totalRunFailures int64
	totalCreated     int64
	totalUpdated     int64
	totalFailures    int64
}

type kindMetrics struct {
	Kind          EntityKind
	Created       int64
	Updated       int64
	Reused        int64
	Skipped       int64
	Failures      int64
	LastChangeAt  time.Time
	LastFailureAt time.Time
}

// NewReconcilerMetrics creates a new ReconcilerMetrics instance.
func NewReconcilerMetrics() *ReconcilerMetrics {
	return &ReconcilerMetrics{
		kindMetrics: make(map[EntityKind]*kindMetrics),
	}
}

func (m *ReconcilerMetrics) getOrCreate(kind EntityKind) *kindMetrics {
	if metrics, exists := m.kindMetrics[kind]; exists {
		return metrics
	}
	metrics := &kindMetrics{Kind: kind}
	m.kindMetrics[kind] = metrics
	return metrics
}

// Observe implements Observer, counting every change event.
func (m *ReconcilerMetrics) Observe(event ChangeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreate(event.Kind)
	switch event.Operation {
	case OperationCreate:
		metrics.Created++
		m.totalCreated++
	case OperationUpdate:
		metrics.Updated++
		m.totalUpdated++
	case OperationReuse:
		metrics.Reused++
	case OperationSkip:
		metrics.Skipped++
	}
	metrics.LastChangeAt = time.Now()
}

// RecordFailure records a failed call against an entity.
func (m *ReconcilerMetrics) RecordFailure(kind EntityKind, name string, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreate(kind)
	metrics.Failures++
	metrics.LastFailureAt = time.Now()
	m.totalFailures++

	logging.Warn("ReconcilerMetrics", "Failure on %s %s: %s (failures: %d)",
		kind, name, reason, metrics.Failures)
}

// RecordRun records the outcome of a whole run.
func (m *ReconcilerMetrics) RecordRun(failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalRuns++
	if failed {
		m.totalRunFailures++
	}
}

// ReconcilerMetricsSummary provides a summary of reconciliation metrics.
type ReconcilerMetricsSummary struct {
	TotalRuns        int64            `json:"total_runs"`
	TotalRunFailures int64            `json:"total_run_failures"`
	TotalCreated     int64            `json:"total_created"`
	TotalUpdated     int64            `json:"total_updated"`
	TotalFailures    int64            `json:"total_failures"`
	RunFailureRate   float64          `json:"run_failure_rate"`
	PerKindMetrics   []KindMetricView `json:"per_kind_metrics"`
}

// KindMetricView is a read-only view of the metrics of one entity kind.
type KindMetricView struct {
	Kind          EntityKind `json:"kind"`
	Created       int64      `json:"created"`
	Updated       int64      `json:"updated"`
	Reused        int64      `json:"reused"`
	Skipped       int64      `json:"skipped"`
	Failures      int64      `json:"failures"`
	LastChangeAt  time.Time  `json:"last_change_at,omitempty"`
	LastFailureAt time.Time  `json:"last_failure_at,omitempty"`
}

func (k *kindMetrics) view() KindMetricView {
	return KindMetricView{
		Kind:          k.Kind,
		Created:       k.Created,
		Updated:       k.Updated,
		Reused:        k.Reused,
		Skipped:       k.Skipped,
		Failures:      k.Failures,
		LastChangeAt:  k.LastChangeAt,
		LastFailureAt: k.LastFailureAt,
	}
}

// GetSummary returns a snapshot of all metrics.
func (m *ReconcilerMetrics) GetSummary() ReconcilerMetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := ReconcilerMetricsSummary{
		TotalRuns:        m.totalRuns,
		TotalRunFailures: m.totalRunFailures,
		TotalCreated:     m.totalCreated,
		TotalUpdated:     m.totalUpdated,
		TotalFailures:    m.totalFailures,
	}
	if m.totalRuns > 0 {
		summary.RunFailureRate = float64(m.totalRunFailures) / float64(m.totalRuns)
	}
	for _, k := range m.kindMetrics {
		summary.PerKindMetrics = append(summary.PerKindMetrics, k.view())
	}
	sort.Slice(summary.PerKindMetrics, func(i, j int) bool {
		return summary.PerKindMetrics[i].Kind < summary.PerKindMetrics[j].Kind
	})
	return summary
}

// GetKindMetrics returns the metrics of one entity kind.
func (m *ReconcilerMetrics) GetKindMetrics(kind EntityKind) (KindMetricView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.kindMetrics[kind]
	if !ok {
		return KindMetricView{}, false
	}
	return k.view(), true
}

// Global metrics instance shared by all runs of the process.
var (
	globalReconcilerMetrics   *ReconcilerMetrics
	globalReconcilerMetricsMu sync.RWMutex
)

// GetReconcilerMetrics returns the global reconciler metrics instance.
// It creates the instance on first access (lazy initialization).
func GetReconcilerMetrics() *ReconcilerMetrics {
	globalReconcilerMetricsMu.RLock()
	if globalReconcilerMetrics != nil {
		defer globalReconcilerMetricsMu.RUnlock()
		return globalReconcilerMetrics
	}
	globalReconcilerMetricsMu.RUnlock()

	globalReconcilerMetricsMu.Lock()
	defer globalReconcilerMetricsMu.Unlock()

	// Double-check after acquiring write lock
	if globalReconcilerMetrics == nil {
		globalReconcilerMetrics = NewReconcilerMetrics()
	}
	return globalReconcilerMetrics
}

// ResetReconcilerMetrics drops the global instance. Intended for tests.
func ResetReconcilerMetrics() {
	globalReconcilerMetricsMu.Lock()
	defer globalReconcilerMetricsMu.Unlock()
	globalReconcilerMetrics = nil
}
