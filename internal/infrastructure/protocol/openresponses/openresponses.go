// Package openresponses implements the OpenResponses specification: the
// same request/response shape and streaming event sequence as the Responses
// adapter, minus OpenAI-specific metadata. It reuses responses' event
// producer directly rather than duplicating it, per spec §4.8.
package openresponses

import (
	"context"
	"io"
	"math/rand"

	"github.com/chaliy/llmsim/internal/domain/genreq"
	"github.com/chaliy/llmsim/internal/domain/latencyprofile"
	"github.com/chaliy/llmsim/internal/infrastructure/protocol/responses"
)

// Request is the OpenResponses request body, identical in shape to the
// Responses request.
type Request = responses.Request

// Plan is the OpenResponses streaming/non-streaming plan, identical to the
// Responses Plan.
type Plan = responses.Plan

// Response is the OpenResponses response body. OpenAI-specific metadata
// (none is currently modeled beyond what Responses already carries) would
// be stripped here if the wire schema grew any.
type Response = responses.Response

// ToGenerationRequest delegates to the Responses adapter's parser — the
// accepted input item shapes are identical.
func ToGenerationRequest(r Request, targetTokens int) (genreq.GenerationRequest, error) {
	return r.ToGenerationRequest(targetTokens)
}

// FromResult delegates to the Responses adapter's non-streaming body
// builder.
func FromResult(p Plan) Response {
	return responses.FromResult(p)
}

// StreamPlan delegates to the shared event producer.
func StreamPlan(ctx context.Context, w io.Writer, flush func(), p Plan, profile latencyprofile.Profile, src *rand.Rand) (emitted int, aborted bool) {
	return responses.StreamPlan(ctx, w, flush, p, responses.TTFTSleeper(profile, src), responses.TBTSleeper(profile, src))
}
