package injector

import (
	"math/rand"
	"testing"
)

func TestRollDistributionWithinTolerance(t *testing.T) {
	cfg := Config{RateLimitRate: 0.1, ServerErrorRate: 0.2, TimeoutRate: 0.05, TimeoutAfterMs: 1000}
	src := rand.New(rand.NewSource(7))

	const n = 100000
	var rateLimit, server, timeout, none int
	for i := 0; i < n; i++ {
		switch Roll(cfg, src).Kind {
		case KindRateLimit:
			rateLimit++
		case KindServerError:
			server++
		case KindTimeout:
			timeout++
		case KindNone:
			none++
		}
	}

	check := func(name string, got int, wantRate float64) {
		gotRate := float64(got) / float64(n)
		if diff := gotRate - wantRate; diff > 0.01 || diff < -0.01 {
			t.Errorf("%s rate = %f, want within 1%% of %f", name, gotRate, wantRate)
		}
	}
	check("rate_limit", rateLimit, cfg.RateLimitRate)
	check("server_error", server, cfg.ServerErrorRate)
	check("timeout", timeout, cfg.TimeoutRate)
}

func TestRollAlwaysNoneWhenRatesZero(t *testing.T) {
	cfg := Config{}
	src := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		if d := Roll(cfg, src); d.Kind != KindNone {
			t.Fatalf("expected KindNone with all rates zero, got %v", d.Kind)
		}
	}
}

func TestRollRateLimitAlwaysFiresAtRateOne(t *testing.T) {
	cfg := Config{RateLimitRate: 1.0}
	src := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		if d := Roll(cfg, src); d.Kind != KindRateLimit {
			t.Fatalf("expected KindRateLimit with rate 1.0, got %v", d.Kind)
		}
	}
}

func TestServerErrorStatusIsEither500Or503(t *testing.T) {
	cfg := Config{ServerErrorRate: 1.0}
	src := rand.New(rand.NewSource(9))
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		d := Roll(cfg, src)
		if d.Kind != KindServerError {
			t.Fatalf("expected KindServerError, got %v", d.Kind)
		}
		seen[d.ServerStatus] = true
	}
	if !seen[500] || !seen[503] {
		t.Errorf("expected both 500 and 503 to appear, got %v", seen)
	}
}
