package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryCheckerConfig configures the memory health checker.
type MemoryCheckerConfig struct {
	// WarningThreshold is the heap ratio that triggers degraded status.
	// Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the heap ratio that triggers unhealthy status.
	// Default: 0.95
	CriticalThreshold float64

	// MaxAlloc is the heap budget in bytes.
	// Default: 0 (use runtime Sys)
	MaxAlloc uint64

	// read is replaced in tests.
	read func(*runtime.MemStats)
}

// MemoryChecker checks heap usage; the read cache lives on the heap.
type MemoryChecker struct {
	config MemoryCheckerConfig
}

// NewMemoryChecker creates a new memory health checker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = min(config.WarningThreshold+0.1, 0.99)
	}
	if config.read == nil {
		config.read = runtime.ReadMemStats
	}
	return &MemoryChecker{config: config}
}

// Name returns "memory".
func (m *MemoryChecker) Name() string { return "memory" }

// Check compares heap allocation with the budget.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var stats runtime.MemStats
	m.config.read(&stats)

	budget := m.config.MaxAlloc
	if budget == 0 {
		budget = stats.Sys
	}
	if budget == 0 {
		return Healthy("memory stats unavailable")
	}

	ratio := float64(stats.Alloc) / float64(budget)
	details := map[string]any{
		"alloc_bytes":   stats.Alloc,
		"budget_bytes":  budget,
		"usage_percent": ratio * 100,
		"num_gc":        stats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	switch {
	case ratio >= m.config.CriticalThreshold:
		return Unhealthy(fmt.Sprintf("memory usage critical: %.1f%%", ratio*100), ErrCheckFailed).WithDetails(details)
	case ratio >= m.config.WarningThreshold:
		return Degraded(fmt.Sprintf("memory usage high: %.1f%%", ratio*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("memory usage normal: %.1f%%", ratio*100)).WithDetails(details)
	}
}
