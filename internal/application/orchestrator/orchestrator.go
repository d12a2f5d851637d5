// Package orchestrator is the glue between a parsed, protocol-independent
// request and the domain components that actually answer it: decide error,
// pick latency, generate, and record stats. Protocol adapters validate and
// build the GenerationRequest and render the GenerationResult; everything
// in between is protocol-agnostic.
//
// Grounded on the teacher's ProcessMessageUseCase (application/usecase/
// process_message.go): the same numbered-step orchestration style, applied
// to a simulated pipeline instead of a real LLM call.
package orchestrator

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/chaliy/llmsim/internal/domain/generator"
	"github.com/chaliy/llmsim/internal/domain/genreq"
	"github.com/chaliy/llmsim/internal/domain/injector"
	"github.com/chaliy/llmsim/internal/domain/latencyprofile"
	"github.com/chaliy/llmsim/internal/domain/model"
	"github.com/chaliy/llmsim/internal/domain/stats"
	"github.com/chaliy/llmsim/internal/domain/tokenizer"
	apperrors "github.com/chaliy/llmsim/pkg/errors"
)

// Orchestrator holds every dependency the pipeline needs. One instance is
// shared across all requests. Models, Latencies, Tokenizer, and Stats are
// immutable after boot; Generator and ErrorCfg can be swapped live by the
// config watcher (spec §6 + SPEC_FULL.md's hot-reload supplement), so they
// sit behind a mutex instead of being plain fields.
type Orchestrator struct {
	Models    *model.Registry
	Latencies *latencyprofile.Registry
	Tokenizer *tokenizer.Tokenizer
	Stats     *stats.Aggregator

	// DefaultTargetTokens is the completion length every adapter passes to
	// ToGenerationRequest when the wire schema carries no length hint of its
	// own (Chat Completions has none; Responses' max_output_tokens is a
	// ceiling, not a target).
	DefaultTargetTokens int

	mu        sync.RWMutex
	generator generator.Generator
	errorCfg  injector.Config
}

// New builds an Orchestrator with its initial generator and error-injection
// config.
func New(models *model.Registry, latencies *latencyprofile.Registry, tk *tokenizer.Tokenizer, gen generator.Generator, errCfg injector.Config, st *stats.Aggregator, defaultTargetTokens int) *Orchestrator {
	return &Orchestrator{
		Models: models, Latencies: latencies, Tokenizer: tk, Stats: st,
		DefaultTargetTokens: defaultTargetTokens,
		generator:           gen, errorCfg: errCfg,
	}
}

// Generator returns the currently active completion generator.
func (o *Orchestrator) Generator() generator.Generator {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.generator
}

// SetGenerator swaps the active generator, e.g. on a config reload.
func (o *Orchestrator) SetGenerator(g generator.Generator) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generator = g
}

// ErrorConfig returns the currently active error-injection rates.
func (o *Orchestrator) ErrorConfig() injector.Config {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.errorCfg
}

// SetErrorConfig swaps the active error-injection rates, e.g. on a config
// reload.
func (o *Orchestrator) SetErrorConfig(cfg injector.Config) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errorCfg = cfg
}

// Prepared is the outcome of a successful Prepare call: everything a
// protocol adapter needs to either render a non-streaming body or drive a
// stream, plus the stats Handle to close out afterward.
type Prepared struct {
	Handle       stats.Handle
	ModelProfile model.Profile
	Latency      latencyprofile.Profile
	Result       genreq.GenerationResult
	// TimeoutAfter is > 0 when the error injector armed a mid-stream
	// timeout for this request; the stream engine must honor it.
	TimeoutAfter time.Duration
}

// IDFunc mints a protocol-prefixed ID; supplied by the caller so the
// orchestrator stays prefix-agnostic (chatcmpl- vs resp_ vs msg_).
type IDFunc func() string

// Prepare runs the pipeline through error injection and generation. On an
// injected rate-limit or server error, or a pre-emission timeout (a
// non-streaming request whose injector roll is Timeout), it fully closes
// out the stats handle itself and returns a SimulatedError for the adapter
// to render as the response body. On success, the caller is responsible
// for calling Finish once the response (or stream) is fully emitted.
func (o *Orchestrator) Prepare(req genreq.GenerationRequest, src *rand.Rand, newID IDFunc, now time.Time) (*Prepared, *apperrors.SimulatedError) {
	// 1. Resolve model -> profile -> latency profile.
	modelProfile := o.Models.MustLookup(req.Model)
	latency := o.Latencies.Lookup(modelProfile.LatencyProfile)

	// 2. Count input tokens.
	promptTokens, _ := o.Tokenizer.Count(promptText(req), req.Model)

	// 3. Open the stats handle before the error roll, so every outcome
	// (including injected failures) is accounted for.
	handle := o.Stats.OnRequestStart(req.Model, req.Stream)

	// 4. Roll for an injected failure, exactly once.
	decision := injector.Roll(o.ErrorConfig(), src)
	switch decision.Kind {
	case injector.KindRateLimit:
		o.Stats.OnError(handle, stats.ErrorRateLimit)
		o.Stats.OnRequestEnd(handle)
		return nil, apperrors.NewRateLimitError()
	case injector.KindServerError:
		o.Stats.OnError(handle, stats.ErrorServer)
		o.Stats.OnRequestEnd(handle)
		return nil, apperrors.NewServerError(decision.ServerStatus)
	case injector.KindTimeout:
		if !req.Stream {
			// Pre-emission timeout: hold the configured delay, then fail.
			time.Sleep(time.Duration(decision.TimeoutAfterMs) * time.Millisecond)
			o.Stats.OnError(handle, stats.ErrorTimeout)
			o.Stats.OnRequestEnd(handle)
			return nil, apperrors.NewTimeoutError()
		}
		// Mid-stream: generation proceeds; the stream engine enforces the
		// deadline and the caller records the timeout via FailMidStream.
	}

	// 5. Generate the completion and split it into streaming units.
	completionText, _ := o.Generator().Generate(o.Tokenizer, req.Model, req.TargetTokens, req.LastUserMessage())
	tokens, _ := o.Tokenizer.EncodeToTokens(completionText, req.Model)

	// 6. max_tokens is a hard ceiling: truncate and mark length-limited.
	finishReason := genreq.FinishStop
	if req.MaxTokens != nil && *req.MaxTokens >= 0 && *req.MaxTokens < len(tokens) {
		tokens = tokens[:*req.MaxTokens]
		finishReason = genreq.FinishLength
	}
	completionText = strings.Join(tokens, "")

	result := genreq.GenerationResult{
		ID:                   newID(),
		CreatedAt:            now.Unix(),
		Model:                req.Model,
		CompletionText:       completionText,
		CompletionTokens:     tokens,
		PromptTokens:         promptTokens,
		CompletionTokenCount: len(tokens),
		FinishReason:         finishReason,
	}

	prepared := &Prepared{
		Handle:       handle,
		ModelProfile: modelProfile,
		Latency:      latency,
		Result:       result,
	}
	if decision.Kind == injector.KindTimeout {
		prepared.TimeoutAfter = time.Duration(decision.TimeoutAfterMs) * time.Millisecond
	}
	return prepared, nil
}

// Finish records the final token counts (including any reasoning tokens
// the adapter computed on top of Prepare's result) and closes the request.
// reasoningTokens may be 0.
func (o *Orchestrator) Finish(p *Prepared, reasoningTokens int) {
	o.Stats.OnTokens(p.Handle, p.Result.PromptTokens, p.Result.CompletionTokenCount, reasoningTokens)
	o.Stats.OnRequestEnd(p.Handle)
}

// FailMidStream records a stream that ended abnormally: a client
// disconnect or an injected timeout that fired after emission began.
func (o *Orchestrator) FailMidStream(p *Prepared, timedOut bool) {
	if timedOut {
		o.Stats.OnError(p.Handle, stats.ErrorTimeout)
	} else {
		o.Stats.OnError(p.Handle, stats.ErrorClientAbort)
	}
	o.Stats.OnRequestEnd(p.Handle)
}

// promptText concatenates every message's content, in order, as the text
// the tokenizer counts input tokens against.
func promptText(req genreq.GenerationRequest) string {
	var b strings.Builder
	for i, m := range req.Messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Content)
	}
	return b.String()
}
