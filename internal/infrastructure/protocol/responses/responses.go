// Package responses implements the OpenAI Responses v1 wire schema,
// including reasoning output items and their streaming event sequence.
// openresponses reuses this package's event producer verbatim, per the
// spec's requirement that both adapters share one internal producer.
package responses

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/chaliy/llmsim/internal/domain/genreq"
	"github.com/chaliy/llmsim/internal/domain/latencyprofile"
)

// Request mirrors the Responses v1 request body. Input is held as raw JSON
// because it may be either a bare string or an array of items.
type Request struct {
	Model           string              `json:"model"`
	Input           json.RawMessage     `json:"input"`
	Reasoning       *ReasoningRequest   `json:"reasoning,omitempty"`
	MaxOutputTokens *int                `json:"max_output_tokens,omitempty"`
	Stream          bool                `json:"stream,omitempty"`
	Tools           []json.RawMessage   `json:"tools,omitempty"`
	ToolChoice      json.RawMessage     `json:"tool_choice,omitempty"`
}

// ReasoningRequest is the request's reasoning configuration block.
type ReasoningRequest struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type inputItem struct {
	Type    string          `json:"type"`
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToGenerationRequest parses Input (string or item array) into ordered
// messages and builds the protocol-independent request.
func (r Request) ToGenerationRequest(targetTokens int) (genreq.GenerationRequest, error) {
	messages, err := parseInput(r.Input)
	if err != nil {
		return genreq.GenerationRequest{}, err
	}

	out := genreq.GenerationRequest{
		Model:        r.Model,
		Messages:     messages,
		TargetTokens: targetTokens,
		Stream:       r.Stream,
		MaxTokens:    r.MaxOutputTokens,
	}
	if r.Reasoning != nil {
		effort := genreq.ReasoningEffort(r.Reasoning.Effort)
		if effort == "" {
			effort = genreq.ReasoningMedium
		}
		out.Reasoning = &genreq.Reasoning{
			Effort:  effort,
			Summary: genreq.ReasoningSummaryMode(r.Reasoning.Summary),
		}
	}
	return out, nil
}

func parseInput(raw json.RawMessage) ([]genreq.Message, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return []genreq.Message{{Role: genreq.RoleUser, Content: asString}}, nil
	}

	var items []inputItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("input must be a string or an array of items: %w", err)
	}

	messages := make([]genreq.Message, 0, len(items))
	for _, it := range items {
		role := genreq.Role(it.Role)
		if role == "" {
			role = genreq.RoleUser
		}
		messages = append(messages, genreq.Message{Role: role, Content: extractText(it.Content)})
	}
	return messages, nil
}

func extractText(raw json.RawMessage) string {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "input_text" || p.Type == "output_text" {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// reasoningMultipliers maps effort to the multiple of output tokens spent
// on hidden reasoning, per spec §4.7.
var reasoningMultipliers = map[genreq.ReasoningEffort]float64{
	genreq.ReasoningNone:    0,
	genreq.ReasoningMinimal: 0.5,
	genreq.ReasoningLow:     1.5,
	genreq.ReasoningMedium:  3,
	genreq.ReasoningHigh:    6,
	genreq.ReasoningXHigh:   10,
}

// ComputeReasoningTokens applies the effort multiplier, honoring the
// family restrictions: minimal only applies to the gpt-5 family, xhigh
// only to gpt-5.2. An effort requested outside its family falls back to no
// reasoning tokens rather than silently escalating to another tier.
func ComputeReasoningTokens(effort genreq.ReasoningEffort, model string, outputTokens int) int {
	low := strings.ToLower(model)
	switch effort {
	case genreq.ReasoningMinimal:
		if !strings.HasPrefix(low, "gpt-5") {
			return 0
		}
	case genreq.ReasoningXHigh:
		if !strings.HasPrefix(low, "gpt-5.2") {
			return 0
		}
	}
	mult, ok := reasoningMultipliers[effort]
	if !ok {
		return 0
	}
	return int(math.Round(float64(outputTokens) * mult))
}

// summaryWordFractions maps summary verbosity to the fraction of reasoning
// tokens the summary should run, in words.
var summaryWordFractions = map[genreq.ReasoningSummaryMode]float64{
	genreq.SummaryConcise:  0.05,
	genreq.SummaryAuto:     0.10,
	genreq.SummaryDetailed: 0.15,
}

// SummaryWordCount returns how many words a reasoning summary should target
// for the given mode and reasoning token count, or 0 if no summary applies.
func SummaryWordCount(mode genreq.ReasoningSummaryMode, reasoningTokens int) int {
	frac, ok := summaryWordFractions[mode]
	if !ok {
		return 0
	}
	return int(math.Round(float64(reasoningTokens) * frac))
}

// ReasoningItem is the reasoning output item, output_index 0 when present.
type ReasoningItem struct {
	Type    string         `json:"type"`
	ID      string         `json:"id"`
	Status  string         `json:"status"`
	Summary []SummaryPart  `json:"summary"`
}

// SummaryPart is one summary_text block within a reasoning item.
type SummaryPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MessageItem is the assistant message output item.
type MessageItem struct {
	Type    string        `json:"type"`
	ID      string        `json:"id"`
	Role    string        `json:"role"`
	Status  string        `json:"status"`
	Content []contentPart `json:"content"`
}

// Usage is the Responses usage block, including the reasoning breakdown.
type Usage struct {
	InputTokens         int                 `json:"input_tokens"`
	OutputTokens        int                 `json:"output_tokens"`
	TotalTokens         int                 `json:"total_tokens"`
	OutputTokensDetails OutputTokensDetails `json:"output_tokens_details"`
}

// OutputTokensDetails breaks the output token count down further.
type OutputTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

// Response is the non-streaming Responses body, and the "shell" payload
// reused (with different Status/Output/Usage) across every streaming event.
type Response struct {
	ID        string        `json:"id"`
	Object    string        `json:"object"`
	CreatedAt int64         `json:"created_at"`
	Model     string        `json:"model"`
	Status    string        `json:"status"`
	Output    []interface{} `json:"output"`
	OutputText string       `json:"output_text,omitempty"`
	Usage     *Usage        `json:"usage,omitempty"`
}

// Plan holds everything the streaming/non-streaming emitters need,
// precomputed by the orchestrator: ids, token sequences, and usage.
type Plan struct {
	ID               string
	CreatedAt        int64
	Model            string
	PromptTokens     int
	CompletionTokens []string
	CompletionText   string
	ReasoningTokens  int
	ReasoningID      string
	SummaryMode      genreq.ReasoningSummaryMode
	SummaryTokens    []string
	SummaryText      string
	MessageID        string
}

func (p Plan) hasReasoning() bool { return p.ReasoningTokens > 0 }
func (p Plan) hasSummary() bool   { return p.hasReasoning() && len(p.SummaryTokens) > 0 }

func (p Plan) usage() *Usage {
	return &Usage{
		InputTokens:  p.PromptTokens,
		OutputTokens: len(p.CompletionTokens),
		TotalTokens:  p.PromptTokens + len(p.CompletionTokens) + p.ReasoningTokens,
		OutputTokensDetails: OutputTokensDetails{
			ReasoningTokens: p.ReasoningTokens,
		},
	}
}

func (p Plan) outputItems() []interface{} {
	var items []interface{}
	if p.hasReasoning() {
		var summary []SummaryPart
		if p.hasSummary() {
			summary = []SummaryPart{{Type: "summary_text", Text: p.SummaryText}}
		}
		items = append(items, ReasoningItem{
			Type: "reasoning", ID: p.ReasoningID, Status: "completed", Summary: summary,
		})
	}
	items = append(items, MessageItem{
		Type: "message", ID: p.MessageID, Role: "assistant", Status: "completed",
		Content: []contentPart{{Type: "output_text", Text: p.CompletionText}},
	})
	return items
}

// FromResult builds the non-streaming response body for p.
func FromResult(p Plan) Response {
	return Response{
		ID: p.ID, Object: "response", CreatedAt: p.CreatedAt, Model: p.Model,
		Status: "completed", Output: p.outputItems(), OutputText: p.CompletionText,
		Usage: p.usage(),
	}
}

func (p Plan) shell(status string) Response {
	return Response{ID: p.ID, Object: "response", CreatedAt: p.CreatedAt, Model: p.Model, Status: status, Output: []interface{}{}}
}

// eventWriter serializes `event: name\ndata: json\n\n` frames.
type eventWriter struct {
	w     io.Writer
	flush func()
}

func (e *eventWriter) emit(name string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	if e.flush != nil {
		e.flush()
	}
	return nil
}

// sleepFn sleeps for a single pacing interval; swapped out in tests. It
// must respect ctx cancellation.
type sleepFn func(ctx context.Context) error

// TTFTSleeper and TBTSleeper build sleepFns that sample the given profile's
// delay and sleep cooperatively, returning ctx.Err() if ctx is cancelled
// mid-sleep.
func TTFTSleeper(profile latencyprofile.Profile, src *rand.Rand) sleepFn {
	return makeSleeper(func() time.Duration { return profile.SampleTTFT(src) })
}

func TBTSleeper(profile latencyprofile.Profile, src *rand.Rand) sleepFn {
	return makeSleeper(func() time.Duration { return profile.SampleTBT(src) })
}

func makeSleeper(sample func() time.Duration) sleepFn {
	return func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sample()):
			return nil
		}
	}
}

// StreamPlan drives the full Responses streaming event sequence for p onto
// w, pacing each text-bearing event with sleepTTFT before the first one and
// sleepTBT before every subsequent one. It returns the number of content
// (summary + message) tokens actually emitted and whether the stream ended
// early (ctx cancelled or a write failed).
func StreamPlan(ctx context.Context, w io.Writer, flush func(), p Plan, sleepTTFT, sleepTBT sleepFn) (emitted int, aborted bool) {
	ew := &eventWriter{w: w, flush: flush}
	seq := 0
	next := func() int { v := seq; seq++; return v }

	if err := ew.emit("response.created", withSeq(p.shell("in_progress"), next())); err != nil {
		return 0, true
	}
	if err := sleepTTFT(ctx); err != nil {
		return 0, true
	}
	if err := ew.emit("response.in_progress", withSeq(p.shell("in_progress"), next())); err != nil {
		return 0, true
	}

	if p.hasReasoning() {
		if err := ew.emit("response.output_item.added", outputItemEvent(0, ReasoningItem{
			Type: "reasoning", ID: p.ReasoningID, Status: "in_progress",
		}, next())); err != nil {
			return emitted, true
		}
		if p.hasSummary() {
			if err := ew.emit("response.reasoning_summary_part.added", summaryPartEvent(p.ReasoningID, next())); err != nil {
				return emitted, true
			}
			var text strings.Builder
			for _, tok := range p.SummaryTokens {
				if emitted > 0 {
					if err := sleepTBT(ctx); err != nil {
						return emitted, true
					}
				}
				text.WriteString(tok)
				if err := ew.emit("response.reasoning_summary_text.delta", textDeltaEvent(p.ReasoningID, tok, next())); err != nil {
					return emitted, true
				}
				emitted++
			}
			if err := ew.emit("response.reasoning_summary_text.done", textDoneEvent(p.ReasoningID, text.String(), next())); err != nil {
				return emitted, true
			}
			if err := ew.emit("response.reasoning_summary_part.done", summaryPartEvent(p.ReasoningID, next())); err != nil {
				return emitted, true
			}
		}
		if err := ew.emit("response.output_item.done", outputItemEvent(0, ReasoningItem{
			Type: "reasoning", ID: p.ReasoningID, Status: "completed",
			Summary: func() []SummaryPart {
				if !p.hasSummary() {
					return nil
				}
				return []SummaryPart{{Type: "summary_text", Text: p.SummaryText}}
			}(),
		}, next())); err != nil {
			return emitted, true
		}
	}

	messageIndex := 0
	if p.hasReasoning() {
		messageIndex = 1
	}
	if err := ew.emit("response.output_item.added", outputItemEvent(messageIndex, MessageItem{
		Type: "message", ID: p.MessageID, Role: "assistant", Status: "in_progress",
	}, next())); err != nil {
		return emitted, true
	}
	if err := ew.emit("response.content_part.added", contentPartEvent(p.MessageID, next())); err != nil {
		return emitted, true
	}

	var text strings.Builder
	for _, tok := range p.CompletionTokens {
		if emitted > 0 {
			if err := sleepTBT(ctx); err != nil {
				return emitted, true
			}
		}
		text.WriteString(tok)
		if err := ew.emit("response.output_text.delta", textDeltaEvent(p.MessageID, tok, next())); err != nil {
			return emitted, true
		}
		emitted++
	}
	if err := ew.emit("response.output_text.done", textDoneEvent(p.MessageID, text.String(), next())); err != nil {
		return emitted, true
	}
	if err := ew.emit("response.content_part.done", contentPartEvent(p.MessageID, next())); err != nil {
		return emitted, true
	}
	if err := ew.emit("response.output_item.done", outputItemEvent(messageIndex, MessageItem{
		Type: "message", ID: p.MessageID, Role: "assistant", Status: "completed",
		Content: []contentPart{{Type: "output_text", Text: text.String()}},
	}, next())); err != nil {
		return emitted, true
	}

	final := p.shell("completed")
	final.Output = p.outputItems()
	final.OutputText = p.CompletionText
	final.Usage = p.usage()
	if err := ew.emit("response.completed", withSeq(final, next())); err != nil {
		return emitted, true
	}
	return emitted, false
}

func withSeq(r Response, seq int) map[string]interface{} {
	return map[string]interface{}{"response": r, "sequence_number": seq}
}

func outputItemEvent(index int, item interface{}, seq int) map[string]interface{} {
	return map[string]interface{}{"output_index": index, "item": item, "sequence_number": seq}
}

func summaryPartEvent(itemID string, seq int) map[string]interface{} {
	return map[string]interface{}{"item_id": itemID, "sequence_number": seq}
}

func textDeltaEvent(itemID, delta string, seq int) map[string]interface{} {
	return map[string]interface{}{"item_id": itemID, "delta": delta, "sequence_number": seq}
}

func textDoneEvent(itemID, text string, seq int) map[string]interface{} {
	return map[string]interface{}{"item_id": itemID, "text": text, "sequence_number": seq}
}

func contentPartEvent(itemID string, seq int) map[string]interface{} {
	return map[string]interface{}{"item_id": itemID, "sequence_number": seq}
}
