package genreq

import "testing"

func TestLastUserMessageReturnsMostRecent(t *testing.T) {
	req := GenerationRequest{Messages: []Message{
		{Role: RoleSystem, Content: "be nice"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "second"},
	}}
	if got := req.LastUserMessage(); got != "second" {
		t.Errorf("got %q, want %q", got, "second")
	}
}

func TestLastUserMessageEmptyWhenNone(t *testing.T) {
	req := GenerationRequest{Messages: []Message{{Role: RoleSystem, Content: "x"}}}
	if got := req.LastUserMessage(); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestTotalTokensSumsAllThree(t *testing.T) {
	r := GenerationResult{PromptTokens: 10, CompletionTokenCount: 20, ReasoningTokens: 5}
	if r.TotalTokens() != 35 {
		t.Errorf("got %d, want 35", r.TotalTokens())
	}
}
