package model

import "testing"

func TestDefaultRegistryHasGPT5(t *testing.T) {
	reg := Default(1700000000)
	p, ok := reg.Lookup("gpt-5")
	if !ok {
		t.Fatal("expected gpt-5 to be registered")
	}
	if p.ContextWindow != 400000 {
		t.Errorf("context window = %d, want 400000", p.ContextWindow)
	}
	if p.MaxOutputTokens != 128000 {
		t.Errorf("max output tokens = %d, want 128000", p.MaxOutputTokens)
	}
	if !p.IsReasoningCapable() {
		t.Error("gpt-5 should be reasoning capable")
	}
}

func TestLookupUnknownModel(t *testing.T) {
	reg := Default(0)
	if _, ok := reg.Lookup("does-not-exist"); ok {
		t.Error("expected lookup of unknown model to fail")
	}
}

func TestMustLookupFallsBack(t *testing.T) {
	reg := Default(0)
	p := reg.MustLookup("some-custom-finetune")
	if p.LatencyProfile != "gpt-4" {
		t.Errorf("fallback latency profile = %q, want gpt-4", p.LatencyProfile)
	}
}

func TestResolveLatencyProfilePrefixMatch(t *testing.T) {
	cases := map[string]string{
		"gpt-5-mini-2025":   "gpt-5-mini",
		"gpt-5.2":           "gpt-5",
		"gpt-4o-mini":       "gpt-4o",
		"gpt-4-turbo":       "gpt-4",
		"o3-mini":           "o-series",
		"o1-preview":        "o-series",
		"claude-opus-4.5":   "claude-opus",
		"claude-sonnet-4.5": "claude-sonnet",
		"claude-haiku-4.5":  "claude-haiku",
		"some-unknown-llm":  "gpt-4",
	}
	for id, want := range cases {
		if got := ResolveLatencyProfile(id); got != want {
			t.Errorf("ResolveLatencyProfile(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	reg := NewRegistry([]Profile{{ID: "a"}, {ID: "b"}, {ID: "a"}})
	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 entries after dedup, got %d", len(list))
	}
	if list[0].ID != "a" || list[1].ID != "b" {
		t.Errorf("unexpected order: %+v", list)
	}
}
