package generator

import (
	"math/rand"
	"testing"

	"github.com/chaliy/llmsim/internal/domain/tokenizer"
)

func TestSequenceExactCount(t *testing.T) {
	g := Sequence{}
	text, err := g.Generate(nil, "gpt-4", 5, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "token_0 token_1 token_2 token_3 token_4"
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestFixedIgnoresTarget(t *testing.T) {
	g := Fixed{Text: "verbatim response"}
	text, err := g.Generate(nil, "gpt-4", 999, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "verbatim response" {
		t.Errorf("got %q", text)
	}
}

func TestEchoTruncatesToTarget(t *testing.T) {
	tk := tokenizer.New()
	g := Echo{}
	text, err := g.Generate(tk, "gpt-4o", 2, "one two three four five")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := tk.Count(text, "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n > 2 {
		t.Errorf("echo produced %d tokens, want <= 2", n)
	}
}

func TestEchoEmptyMessage(t *testing.T) {
	g := Echo{}
	text, err := g.Generate(tokenizer.New(), "gpt-4o", 10, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty echo output, got %q", text)
	}
}

func TestLoremReachesTargetWithinOne(t *testing.T) {
	tk := tokenizer.New()
	g := Lorem{}
	text, err := g.Generate(tk, "gpt-4o", 20, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := tk.Count(text, "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n < 20 || n > 21 {
		t.Errorf("lorem token count = %d, want within [20,21]", n)
	}
}

func TestRandomDeterministicWithSeed(t *testing.T) {
	tk := tokenizer.New()
	g1 := Random{Src: rand.New(rand.NewSource(42))}
	g2 := Random{Src: rand.New(rand.NewSource(42))}
	text1, _ := g1.Generate(tk, "gpt-4o", 10, "")
	text2, _ := g2.Generate(tk, "gpt-4o", 10, "")
	if text1 != text2 {
		t.Errorf("same seed produced different output: %q vs %q", text1, text2)
	}
}

func TestNewDefaultsToLorem(t *testing.T) {
	if _, ok := New("unknown-kind", "", nil).(Lorem); !ok {
		t.Error("expected unknown kind to default to Lorem")
	}
}
