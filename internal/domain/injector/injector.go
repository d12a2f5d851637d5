// Package injector decides, once per request, whether a request should fail
// and how — purely as a function of configured rates and an RNG draw. It
// never enforces real rate limits; it only simulates their failure shape.
package injector

import "math/rand"

// Kind classifies the outcome of a single injection roll.
type Kind int

const (
	KindNone Kind = iota
	KindRateLimit
	KindServerError
	KindTimeout
)

// Decision is the result of one injector roll.
type Decision struct {
	Kind Kind

	// ServerStatus is 500 or 503, set only when Kind == KindServerError.
	ServerStatus int

	// TimeoutAfterMs is the configured delay before the timeout fires, set
	// only when Kind == KindTimeout.
	TimeoutAfterMs int
}

// Config holds the configured injection rates, all in [0, 1], plus the delay
// used for timeout decisions.
type Config struct {
	RateLimitRate   float64
	ServerErrorRate float64
	TimeoutRate     float64
	TimeoutAfterMs  int
}

// Roll draws one uniform sample from src and maps it to a Decision per the
// cumulative-threshold ordering: rate limit, then server error, then
// timeout, then none. Exactly one outcome is ever produced per call.
func Roll(cfg Config, src *rand.Rand) Decision {
	u := src.Float64()

	rateLimitBound := cfg.RateLimitRate
	serverErrorBound := rateLimitBound + cfg.ServerErrorRate
	timeoutBound := serverErrorBound + cfg.TimeoutRate

	switch {
	case u < rateLimitBound:
		return Decision{Kind: KindRateLimit}
	case u < serverErrorBound:
		status := 500
		if src.Intn(2) == 1 {
			status = 503
		}
		return Decision{Kind: KindServerError, ServerStatus: status}
	case u < timeoutBound:
		return Decision{Kind: KindTimeout, TimeoutAfterMs: cfg.TimeoutAfterMs}
	default:
		return Decision{Kind: KindNone}
	}
}
