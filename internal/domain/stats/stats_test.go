package stats

import (
	"sync"
	"testing"
	"time"
)

func TestOnRequestStartEndBalancesActive(t *testing.T) {
	a := New()
	h := a.OnRequestStart("gpt-4", false)
	if snap := a.Snapshot(); snap.ActiveRequests != 1 {
		t.Fatalf("active_requests = %d, want 1", snap.ActiveRequests)
	}
	a.OnRequestEnd(h)
	if snap := a.Snapshot(); snap.ActiveRequests != 0 {
		t.Fatalf("active_requests = %d, want 0", snap.ActiveRequests)
	}
}

func TestConcurrentRequestsNetToZeroActive(t *testing.T) {
	a := New()
	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			h := a.OnRequestStart("gpt-4o", i%2 == 0)
			a.OnTokens(h, 10, 20, 0)
			a.OnRequestEnd(h)
		}()
	}
	wg.Wait()

	snap := a.Snapshot()
	if snap.ActiveRequests != 0 {
		t.Errorf("active_requests = %d, want 0", snap.ActiveRequests)
	}
	if snap.TotalRequests != n {
		t.Errorf("total_requests = %d, want %d", snap.TotalRequests, n)
	}
	if snap.TotalTokens != n*30 {
		t.Errorf("total_tokens = %d, want %d", snap.TotalTokens, n*30)
	}
}

func TestOnErrorIncrementsCategoryAndTotal(t *testing.T) {
	a := New()
	h := a.OnRequestStart("gpt-4", false)
	a.OnError(h, ErrorRateLimit)
	snap := a.Snapshot()
	if snap.TotalErrors != 1 || snap.RateLimitErrors != 1 {
		t.Errorf("got total=%d rate_limit=%d, want 1/1", snap.TotalErrors, snap.RateLimitErrors)
	}
}

func TestRunningMeanLatency(t *testing.T) {
	a := New()
	h1 := Handle{start: time.Now().Add(-100 * time.Millisecond)}
	h2 := Handle{start: time.Now().Add(-200 * time.Millisecond)}
	a.OnRequestEnd(h1)
	a.OnRequestEnd(h2)
	snap := a.Snapshot()
	if snap.AvgLatencyMs <= 0 {
		t.Errorf("expected positive avg latency, got %f", snap.AvgLatencyMs)
	}
	if snap.MinLatencyMs > snap.MaxLatencyMs {
		t.Errorf("min %f > max %f", snap.MinLatencyMs, snap.MaxLatencyMs)
	}
}

func TestSnapshotPrunesOldRingEntries(t *testing.T) {
	a := New()
	a.ring = append(a.ring, time.Now().Add(-2*time.Minute))
	snap := a.Snapshot()
	if snap.RequestsPerSecond != 0 {
		t.Errorf("expected stale ring entry to be pruned, rps = %f", snap.RequestsPerSecond)
	}
}

func TestModelRequestsTally(t *testing.T) {
	a := New()
	a.OnRequestStart("gpt-4", false)
	a.OnRequestStart("gpt-4", false)
	a.OnRequestStart("gpt-5", true)
	snap := a.Snapshot()
	if snap.ModelRequests["gpt-4"] != 2 || snap.ModelRequests["gpt-5"] != 1 {
		t.Errorf("unexpected model tally: %+v", snap.ModelRequests)
	}
}
