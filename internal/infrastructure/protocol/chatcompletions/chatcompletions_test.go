package chatcompletions

import (
	"context"
	"strings"
	"testing"

	"github.com/chaliy/llmsim/internal/domain/genreq"
	"github.com/chaliy/llmsim/internal/infrastructure/stream"
)

func TestValidateEmptyMessages(t *testing.T) {
	r := Request{}
	if msg := r.Validate(); msg == "" {
		t.Error("expected validation error for empty messages")
	}
}

func TestValidateUnknownRole(t *testing.T) {
	r := Request{Messages: []Message{{Role: "narrator", Content: "x"}}}
	if msg := r.Validate(); msg == "" {
		t.Error("expected validation error for unknown role")
	}
}

func TestValidateTemperatureRange(t *testing.T) {
	bad := 3.0
	r := Request{Messages: []Message{{Role: "user", Content: "hi"}}, Temperature: &bad}
	if msg := r.Validate(); msg == "" {
		t.Error("expected validation error for out-of-range temperature")
	}
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	r := Request{Messages: []Message{{Role: "user", Content: "hi"}}}
	if msg := r.Validate(); msg != "" {
		t.Errorf("unexpected validation error: %q", msg)
	}
}

func TestFromResultSetsFinishReasonAndUsage(t *testing.T) {
	res := genreq.GenerationResult{
		ID: "chatcmpl-abc", Model: "gpt-4", CompletionText: "hello there",
		PromptTokens: 3, CompletionTokenCount: 2, FinishReason: genreq.FinishStop,
	}
	resp := FromResult(res)
	if resp.Choices[0].FinishReason != "stop" {
		t.Errorf("finish_reason = %q, want stop", resp.Choices[0].FinishReason)
	}
	if resp.Usage.TotalTokens != 5 {
		t.Errorf("total_tokens = %d, want 5", resp.Usage.TotalTokens)
	}
}

func TestSSEWriterEmitsRoleOnFirstFrameAndDoneAtEnd(t *testing.T) {
	var buf strings.Builder
	w := &SSEWriter{W: &buf, ID: "chatcmpl-1", Model: "gpt-4", FinishReason: "stop"}

	if err := w.Write(context.Background(), stream.Frame{Token: "Hi", Index: 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Write(context.Background(), stream.Frame{Terminal: true, Index: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"role":"assistant"`) {
		t.Error("expected role delta on first frame")
	}
	if !strings.HasSuffix(out, "data: [DONE]\n\n") {
		t.Errorf("expected output to end with [DONE] sentinel, got %q", out)
	}
}
