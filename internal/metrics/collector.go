package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector provides simple built-in metrics collection with no external dependencies
type Collector struct {
	syncMetrics       *SyncMetrics
	operationCounters map[string]*int64
	mu                sync.RWMutex
	startTime         time.Time
}

// SyncMetrics tracks panel and document synchronization activity
type SyncMetrics struct {
	// Panel lifecycle
	PanelsCreated       int64 `json:"panels_created"`
	PanelsRevealed      int64 `json:"panels_revealed"`
	PanelsDisposed      int64 `json:"panels_disposed"`
	ActivePanels        int64 `json:"active_panels"`
	MaxConcurrentPanels int64 `json:"max_concurrent_panels"`

	// Editor -> tree editor
	Pulls           int64 `json:"pulls"`
	PullsSkipped    int64 `json:"pulls_skipped"`
	ParseErrors     int64 `json:"parse_errors"`
	MessagesPosted  int64 `json:"messages_posted"`
	ScriptsCaptured int64 `json:"scripts_captured"`

	// Tree editor -> editor
	EditsReceived int64 `json:"edits_received"`
	EditsApplied  int64 `json:"edits_applied"`
	DecodeErrors  int64 `json:"decode_errors"`

	// Formatting
	FormatRuns   int64 `json:"format_runs"`
	FormatErrors int64 `json:"format_errors"`

	// Host I/O
	IOFailures int64 `json:"io_failures"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		syncMetrics: &SyncMetrics{
			StartTime: time.Now(),
		},
		operationCounters: make(map[string]*int64),
		startTime:         time.Now(),
	}
}

// IncrementPanelCreated records a new panel
func (c *Collector) IncrementPanelCreated() {
	atomic.AddInt64(&c.syncMetrics.PanelsCreated, 1)
	currentActive := atomic.AddInt64(&c.syncMetrics.ActivePanels, 1)

	// Update max concurrent if needed
	for {
		max := atomic.LoadInt64(&c.syncMetrics.MaxConcurrentPanels)
		if currentActive <= max {
			break
		}
		if atomic.CompareAndSwapInt64(&c.syncMetrics.MaxConcurrentPanels, max, currentActive) {
			break
		}
	}
}

// IncrementPanelRevealed records a reveal of the existing panel
func (c *Collector) IncrementPanelRevealed() {
	atomic.AddInt64(&c.syncMetrics.PanelsRevealed, 1)
}

// IncrementPanelDisposed records a panel disposal
func (c *Collector) IncrementPanelDisposed() {
	atomic.AddInt64(&c.syncMetrics.PanelsDisposed, 1)
	atomic.AddInt64(&c.syncMetrics.ActivePanels, -1)
}

// IncrementPull records a completed pull and the number of scripts it captured
func (c *Collector) IncrementPull(scripts int) {
	atomic.AddInt64(&c.syncMetrics.Pulls, 1)
	atomic.AddInt64(&c.syncMetrics.ScriptsCaptured, int64(scripts))
}

// IncrementPullSkipped records a pull with no focused document
func (c *Collector) IncrementPullSkipped() {
	atomic.AddInt64(&c.syncMetrics.PullsSkipped, 1)
}

// IncrementParseError records markup that failed to parse
func (c *Collector) IncrementParseError() {
	atomic.AddInt64(&c.syncMetrics.ParseErrors, 1)
}

// IncrementMessagePosted records a message sent to the tree editor
func (c *Collector) IncrementMessagePosted() {
	atomic.AddInt64(&c.syncMetrics.MessagesPosted, 1)
}

// IncrementEditReceived records an edit message from the tree editor
func (c *Collector) IncrementEditReceived() {
	atomic.AddInt64(&c.syncMetrics.EditsReceived, 1)
}

// IncrementEditApplied records an edit written back to the document
func (c *Collector) IncrementEditApplied() {
	atomic.AddInt64(&c.syncMetrics.EditsApplied, 1)
}

// IncrementDecodeError records an edit message that did not match the node schema
func (c *Collector) IncrementDecodeError() {
	atomic.AddInt64(&c.syncMetrics.DecodeErrors, 1)
}

// IncrementFormatRun records a format attempt
func (c *Collector) IncrementFormatRun() {
	atomic.AddInt64(&c.syncMetrics.FormatRuns, 1)
}

// IncrementFormatError records a printer failure
func (c *Collector) IncrementFormatError() {
	atomic.AddInt64(&c.syncMetrics.FormatErrors, 1)
}

// IncrementIOFailure records a failed write, post or journal call
func (c *Collector) IncrementIOFailure() {
	atomic.AddInt64(&c.syncMetrics.IOFailures, 1)
}

// IncrementCustomCounter increments a custom named counter
func (c *Collector) IncrementCustomCounter(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, exists := c.operationCounters[name]; exists {
		atomic.AddInt64(counter, 1)
	} else {
		var newCounter int64 = 1
		c.operationCounters[name] = &newCounter
	}
}

// GetMetrics returns a snapshot of the current metrics
func (c *Collector) GetMetrics() SyncMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return SyncMetrics{
		PanelsCreated:       atomic.LoadInt64(&c.syncMetrics.PanelsCreated),
		PanelsRevealed:      atomic.LoadInt64(&c.syncMetrics.PanelsRevealed),
		PanelsDisposed:      atomic.LoadInt64(&c.syncMetrics.PanelsDisposed),
		ActivePanels:        atomic.LoadInt64(&c.syncMetrics.ActivePanels),
		MaxConcurrentPanels: atomic.LoadInt64(&c.syncMetrics.MaxConcurrentPanels),
		Pulls:               atomic.LoadInt64(&c.syncMetrics.Pulls),
		PullsSkipped:        atomic.LoadInt64(&c.syncMetrics.PullsSkipped),
		ParseErrors:         atomic.LoadInt64(&c.syncMetrics.ParseErrors),
		MessagesPosted:      atomic.LoadInt64(&c.syncMetrics.MessagesPosted),
		ScriptsCaptured:     atomic.LoadInt64(&c.syncMetrics.ScriptsCaptured),
		EditsReceived:       atomic.LoadInt64(&c.syncMetrics.EditsReceived),
		EditsApplied:        atomic.LoadInt64(&c.syncMetrics.EditsApplied),
		DecodeErrors:        atomic.LoadInt64(&c.syncMetrics.DecodeErrors),
		FormatRuns:          atomic.LoadInt64(&c.syncMetrics.FormatRuns),
		FormatErrors:        atomic.LoadInt64(&c.syncMetrics.FormatErrors),
		IOFailures:          atomic.LoadInt64(&c.syncMetrics.IOFailures),
		StartTime:           c.syncMetrics.StartTime,
		Uptime:              time.Since(c.startTime),
	}
}

// GetCustomCounters returns all custom counters
func (c *Collector) GetCustomCounters() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]int64)
	for name, counter := range c.operationCounters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

// Reset resets all metrics to zero
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Reset sync metrics
	for _, counter := range []*int64{
		&c.syncMetrics.PanelsCreated,
		&c.syncMetrics.PanelsRevealed,
		&c.syncMetrics.PanelsDisposed,
		&c.syncMetrics.ActivePanels,
		&c.syncMetrics.MaxConcurrentPanels,
		&c.syncMetrics.Pulls,
		&c.syncMetrics.PullsSkipped,
		&c.syncMetrics.ParseErrors,
		&c.syncMetrics.MessagesPosted,
		&c.syncMetrics.ScriptsCaptured,
		&c.syncMetrics.EditsReceived,
		&c.syncMetrics.EditsApplied,
		&c.syncMetrics.DecodeErrors,
		&c.syncMetrics.FormatRuns,
		&c.syncMetrics.FormatErrors,
		&c.syncMetrics.IOFailures,
	} {
		atomic.StoreInt64(counter, 0)
	}

	// Reset custom counters
	c.operationCounters = make(map[string]*int64)

	// Reset start time
	c.startTime = time.Now()
	c.syncMetrics.StartTime = c.startTime
}

// GetPullErrorRate returns the percentage of pulls that failed to parse
func (c *Collector) GetPullErrorRate() float64 {
	pulls := atomic.LoadInt64(&c.syncMetrics.Pulls)
	errors := atomic.LoadInt64(&c.syncMetrics.ParseErrors)

	if pulls+errors == 0 {
		return 0.0
	}

	return float64(errors) / float64(pulls+errors) * 100.0
}

// GetEditSuccessRate returns the percentage of received edits that were applied
func (c *Collector) GetEditSuccessRate() float64 {
	received := atomic.LoadInt64(&c.syncMetrics.EditsReceived)
	applied := atomic.LoadInt64(&c.syncMetrics.EditsApplied)

	if received == 0 {
		return 100.0 // No edits means 100% success rate
	}

	return float64(applied) / float64(received) * 100.0
}

// Snapshot is everything the collector knows at one point in time
type Snapshot struct {
	SyncMetrics
	Counters        map[string]int64 `json:"counters"`
	PullErrorRate   float64          `json:"pull_error_rate"`
	EditSuccessRate float64          `json:"edit_success_rate"`
}

// Snapshot returns the metrics, custom counters and derived rates together
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		SyncMetrics:     c.GetMetrics(),
		Counters:        c.GetCustomCounters(),
		PullErrorRate:   c.GetPullErrorRate(),
		EditSuccessRate: c.GetEditSuccessRate(),
	}
}
