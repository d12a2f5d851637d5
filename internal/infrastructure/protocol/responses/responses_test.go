package responses

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/chaliy/llmsim/internal/domain/genreq"
)

func TestToGenerationRequestStringInput(t *testing.T) {
	req := Request{Model: "o3", Input: json.RawMessage(`"What is 2+2?"`)}
	gr, err := req.ToGenerationRequest(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gr.Messages) != 1 || gr.Messages[0].Role != genreq.RoleUser || gr.Messages[0].Content != "What is 2+2?" {
		t.Errorf("unexpected messages: %+v", gr.Messages)
	}
}

func TestToGenerationRequestItemArrayInput(t *testing.T) {
	req := Request{Model: "o3", Input: json.RawMessage(`[{"type":"message","role":"user","content":"hi there"}]`)}
	gr, err := req.ToGenerationRequest(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gr.Messages) != 1 || gr.Messages[0].Content != "hi there" {
		t.Errorf("unexpected messages: %+v", gr.Messages)
	}
}

func TestReasoningDefaultsToMediumWhenEffortOmitted(t *testing.T) {
	req := Request{Model: "o3", Input: json.RawMessage(`"hi"`), Reasoning: &ReasoningRequest{}}
	gr, err := req.ToGenerationRequest(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gr.Reasoning.Effort != genreq.ReasoningMedium {
		t.Errorf("effort = %q, want medium", gr.Reasoning.Effort)
	}
}

func TestComputeReasoningTokensMediumMultiplier(t *testing.T) {
	got := ComputeReasoningTokens(genreq.ReasoningMedium, "o3", 100)
	if got != 300 {
		t.Errorf("got %d, want 300", got)
	}
}

func TestComputeReasoningTokensMinimalOnlyForGPT5(t *testing.T) {
	if got := ComputeReasoningTokens(genreq.ReasoningMinimal, "o3", 100); got != 0 {
		t.Errorf("minimal on o3 should yield 0, got %d", got)
	}
	if got := ComputeReasoningTokens(genreq.ReasoningMinimal, "gpt-5", 100); got != 50 {
		t.Errorf("minimal on gpt-5 should yield 50, got %d", got)
	}
}

func TestComputeReasoningTokensXHighOnlyForGPT52(t *testing.T) {
	if got := ComputeReasoningTokens(genreq.ReasoningXHigh, "gpt-5", 100); got != 0 {
		t.Errorf("xhigh on gpt-5 should yield 0, got %d", got)
	}
	if got := ComputeReasoningTokens(genreq.ReasoningXHigh, "gpt-5.2", 100); got != 1000 {
		t.Errorf("xhigh on gpt-5.2 should yield 1000, got %d", got)
	}
}

func TestSummaryWordCountModes(t *testing.T) {
	if got := SummaryWordCount(genreq.SummaryConcise, 100); got != 5 {
		t.Errorf("concise: got %d, want 5", got)
	}
	if got := SummaryWordCount(genreq.SummaryDetailed, 100); got != 15 {
		t.Errorf("detailed: got %d, want 15", got)
	}
	if got := SummaryWordCount(genreq.SummaryNone, 100); got != 0 {
		t.Errorf("none: got %d, want 0", got)
	}
}

func TestFromResultUsageInvariant(t *testing.T) {
	p := Plan{
		ID: "resp_1", Model: "o3", PromptTokens: 5,
		CompletionTokens: []string{"a", "b"}, CompletionText: "ab",
		ReasoningTokens: 6, ReasoningID: "rs_1", MessageID: "msg_1",
	}
	resp := FromResult(p)
	if resp.Usage.TotalTokens != 5+2+6 {
		t.Errorf("total_tokens = %d, want 13", resp.Usage.TotalTokens)
	}
	if len(resp.Output) != 2 {
		t.Fatalf("expected reasoning + message items, got %d", len(resp.Output))
	}
}

func noopSleeper(context.Context) error { return nil }

func TestStreamPlanEmitsExactlyOneTerminalEvent(t *testing.T) {
	var buf strings.Builder
	p := Plan{
		ID: "resp_1", Model: "o3", PromptTokens: 3,
		CompletionTokens: []string{"a", "b", "c"}, CompletionText: "abc",
		ReasoningTokens: 9, ReasoningID: "rs_1", MessageID: "msg_1",
		SummaryMode: genreq.SummaryAuto, SummaryTokens: []string{"x", "y"}, SummaryText: "xy",
	}
	emitted, aborted := StreamPlan(context.Background(), &buf, nil, p, noopSleeper, noopSleeper)
	if aborted {
		t.Fatal("expected successful stream")
	}
	if emitted != 5 {
		t.Errorf("emitted = %d, want 5 (2 summary + 3 completion)", emitted)
	}
	out := buf.String()
	if strings.Count(out, "event: response.completed\n") != 1 {
		t.Errorf("expected exactly one response.completed event, got:\n%s", out)
	}
	if !strings.HasSuffix(strings.TrimRight(out, "\n"), "}") {
		t.Error("expected stream to end with the completed event's data line")
	}
	lastEventIdx := strings.LastIndex(out, "event: ")
	if !strings.HasPrefix(out[lastEventIdx:], "event: response.completed") {
		t.Error("expected response.completed to be the last frame")
	}
}

func TestStreamPlanAbortsOnCancelledContext(t *testing.T) {
	var buf strings.Builder
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := Plan{ID: "resp_1", Model: "o3", CompletionTokens: []string{"a"}, MessageID: "msg_1"}
	_, aborted := StreamPlan(ctx, &buf, nil, p, func(context.Context) error { return ctx.Err() }, noopSleeper)
	if !aborted {
		t.Error("expected aborted stream on cancelled context")
	}
}
