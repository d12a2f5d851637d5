// Package stats maintains the simulator's concurrent request statistics:
// atomic counters for totals, a slice of request start times (pruned to the
// last 60s on each Snapshot) for the rolling requests-per-second window, and
// a running-mean latency computation.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// ErrorKind classifies a recorded request failure.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorRateLimit
	ErrorServer
	ErrorTimeout
	ErrorClientAbort
)

const rpsWindow = 60 * time.Second

// Handle is an opaque per-request reference returned by OnRequestStart and
// passed back into the other recording methods for that request.
type Handle struct {
	model     string
	streaming bool
	start     time.Time
}

// Aggregator is the single in-memory stats instance a server creates at boot
// and tears down at shutdown. All counters are safe for concurrent use from
// many request goroutines.
type Aggregator struct {
	startedAt time.Time

	totalRequests       int64
	activeRequests      int64
	streamingRequests   int64
	nonStreamingRequests int64

	promptTokens     int64
	completionTokens int64
	reasoningTokens  int64
	totalTokens      int64

	totalErrors      int64
	rateLimitErrors  int64
	serverErrors     int64
	timeoutErrors    int64

	latencyMu   sync.Mutex
	completedN  int64
	avgLatency  float64
	minLatency  float64
	maxLatency  float64

	ringMu sync.Mutex
	ring   []time.Time

	modelMu sync.Mutex
	models  map[string]int64
}

// New returns a ready-to-use Aggregator, timestamped as created now.
func New() *Aggregator {
	return &Aggregator{
		startedAt: time.Now(),
		models:    make(map[string]int64),
	}
}

// OnRequestStart records the start of a new request and returns a Handle
// used to route subsequent updates back to this request.
func (a *Aggregator) OnRequestStart(model string, streaming bool) Handle {
	atomic.AddInt64(&a.totalRequests, 1)
	atomic.AddInt64(&a.activeRequests, 1)
	if streaming {
		atomic.AddInt64(&a.streamingRequests, 1)
	} else {
		atomic.AddInt64(&a.nonStreamingRequests, 1)
	}

	a.modelMu.Lock()
	a.models[model]++
	a.modelMu.Unlock()

	now := time.Now()
	a.ringMu.Lock()
	a.ring = append(a.ring, now)
	a.ringMu.Unlock()

	return Handle{model: model, streaming: streaming, start: now}
}

// OnTokens adds to the token counters. prompt, completion, and reasoning are
// each non-negative.
func (a *Aggregator) OnTokens(_ Handle, prompt, completion, reasoning int) {
	if prompt > 0 {
		atomic.AddInt64(&a.promptTokens, int64(prompt))
	}
	if completion > 0 {
		atomic.AddInt64(&a.completionTokens, int64(completion))
	}
	if reasoning > 0 {
		atomic.AddInt64(&a.reasoningTokens, int64(reasoning))
	}
	total := prompt + completion + reasoning
	if total > 0 {
		atomic.AddInt64(&a.totalTokens, int64(total))
	}
}

// OnError increments the total and category error counters for kind.
func (a *Aggregator) OnError(_ Handle, kind ErrorKind) {
	atomic.AddInt64(&a.totalErrors, 1)
	switch kind {
	case ErrorRateLimit:
		atomic.AddInt64(&a.rateLimitErrors, 1)
	case ErrorServer:
		atomic.AddInt64(&a.serverErrors, 1)
	case ErrorTimeout:
		atomic.AddInt64(&a.timeoutErrors, 1)
	}
}

// OnRequestEnd decrements active_requests and folds the request's elapsed
// time into the running min/avg/max latency.
func (a *Aggregator) OnRequestEnd(h Handle) {
	atomic.AddInt64(&a.activeRequests, -1)

	elapsedMs := float64(time.Since(h.start)) / float64(time.Millisecond)

	a.latencyMu.Lock()
	a.completedN++
	n := a.completedN
	a.avgLatency += (elapsedMs - a.avgLatency) / float64(n)
	if n == 1 || elapsedMs < a.minLatency {
		a.minLatency = elapsedMs
	}
	if elapsedMs > a.maxLatency {
		a.maxLatency = elapsedMs
	}
	a.latencyMu.Unlock()
}

// Snapshot is the point-in-time JSON view returned by GET /llmsim/stats.
type Snapshot struct {
	UptimeSecs           float64          `json:"uptime_secs"`
	TotalRequests        int64            `json:"total_requests"`
	ActiveRequests       int64            `json:"active_requests"`
	StreamingRequests    int64            `json:"streaming_requests"`
	NonStreamingRequests int64            `json:"non_streaming_requests"`
	PromptTokens         int64            `json:"prompt_tokens"`
	CompletionTokens     int64            `json:"completion_tokens"`
	TotalTokens          int64            `json:"total_tokens"`
	TotalErrors          int64            `json:"total_errors"`
	RateLimitErrors      int64            `json:"rate_limit_errors"`
	ServerErrors         int64            `json:"server_errors"`
	TimeoutErrors        int64            `json:"timeout_errors"`
	RequestsPerSecond    float64          `json:"requests_per_second"`
	AvgLatencyMs         float64          `json:"avg_latency_ms"`
	MinLatencyMs         float64          `json:"min_latency_ms"`
	MaxLatencyMs         float64          `json:"max_latency_ms"`
	ModelRequests        map[string]int64 `json:"model_requests"`
}

// Snapshot prunes ring entries older than the 60s window and returns a
// consistent-enough view of every counter. Reads are approximate under
// concurrent writers by design, per the aggregator's no-total-order
// contract.
func (a *Aggregator) Snapshot() Snapshot {
	now := time.Now()
	cutoff := now.Add(-rpsWindow)

	a.ringMu.Lock()
	kept := a.ring[:0:0]
	for _, ts := range a.ring {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	a.ring = kept
	rps := float64(len(kept)) / rpsWindow.Seconds()
	a.ringMu.Unlock()

	a.latencyMu.Lock()
	avg, min, max := a.avgLatency, a.minLatency, a.maxLatency
	a.latencyMu.Unlock()

	a.modelMu.Lock()
	models := make(map[string]int64, len(a.models))
	for k, v := range a.models {
		models[k] = v
	}
	a.modelMu.Unlock()

	return Snapshot{
		UptimeSecs:           now.Sub(a.startedAt).Seconds(),
		TotalRequests:        atomic.LoadInt64(&a.totalRequests),
		ActiveRequests:       atomic.LoadInt64(&a.activeRequests),
		StreamingRequests:    atomic.LoadInt64(&a.streamingRequests),
		NonStreamingRequests: atomic.LoadInt64(&a.nonStreamingRequests),
		PromptTokens:         atomic.LoadInt64(&a.promptTokens),
		CompletionTokens:     atomic.LoadInt64(&a.completionTokens),
		TotalTokens:          atomic.LoadInt64(&a.totalTokens),
		TotalErrors:          atomic.LoadInt64(&a.totalErrors),
		RateLimitErrors:      atomic.LoadInt64(&a.rateLimitErrors),
		ServerErrors:         atomic.LoadInt64(&a.serverErrors),
		TimeoutErrors:        atomic.LoadInt64(&a.timeoutErrors),
		RequestsPerSecond:    rps,
		AvgLatencyMs:         avg,
		MinLatencyMs:         min,
		MaxLatencyMs:         max,
		ModelRequests:        models,
	}
}
