package openresponses

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/chaliy/llmsim/internal/domain/latencyprofile"
)

func TestToGenerationRequestDelegatesToResponses(t *testing.T) {
	req := Request{Model: "gpt-4", Input: json.RawMessage(`"hello"`)}
	gr, err := ToGenerationRequest(req, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gr.Messages) != 1 || gr.Messages[0].Content != "hello" {
		t.Errorf("unexpected messages: %+v", gr.Messages)
	}
}

func TestStreamPlanProducesCompletedEvent(t *testing.T) {
	var buf strings.Builder
	profile, _ := latencyprofile.Lookup("instant")
	p := Plan{ID: "resp_1", Model: "gpt-4", CompletionTokens: []string{"a", "b"}, MessageID: "msg_1"}
	_, aborted := StreamPlan(context.Background(), &buf, nil, p, profile, rand.New(rand.NewSource(1)))
	if aborted {
		t.Fatal("expected successful stream")
	}
	if !strings.Contains(buf.String(), "response.completed") {
		t.Error("expected a response.completed event in output")
	}
}
