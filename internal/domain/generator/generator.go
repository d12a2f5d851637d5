// Package generator produces synthetic completion text targeting a token
// count, without running any real model. Each variant is a pure function of
// its inputs plus an RNG for the variants that need randomness.
package generator

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/chaliy/llmsim/internal/domain/tokenizer"
)

// Kind identifies a generator variant.
type Kind string

const (
	KindLorem    Kind = "lorem"
	KindEcho     Kind = "echo"
	KindFixed    Kind = "fixed"
	KindRandom   Kind = "random"
	KindSequence Kind = "sequence"
)

var loremVocab = strings.Fields(
	`lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod
	tempor incididunt ut labore et dolore magna aliqua enim ad minim veniam
	quis nostrud exercitation ullamco laboris nisi aliquip ex ea commodo
	consequat duis aute irure in reprehenderit voluptate velit esse cillum
	fugiat nulla pariatur excepteur sint occaecat cupidatat non proident
	sunt culpa qui officia deserunt mollit anim id est laborum`)

var randomVocab = strings.Fields(
	`alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo
	lima mike november oscar papa quebec romeo sierra tango uniform
	victor whiskey xray yankee zulu`)

// Generator produces completion text approximating targetTokens tokens under
// the given model's tokenizer encoding.
type Generator interface {
	Generate(tk *tokenizer.Tokenizer, model string, targetTokens int, lastUserMessage string) (string, error)
}

// Lorem emits words from a fixed vocabulary until the token count reaches
// targetTokens.
type Lorem struct{}

func (Lorem) Generate(tk *tokenizer.Tokenizer, model string, targetTokens int, _ string) (string, error) {
	return fillVocab(tk, model, targetTokens, loremVocab, nil)
}

// Echo returns the last user message, truncated to targetTokens tokens. A
// shorter message is returned as is; it is not padded.
type Echo struct{}

func (Echo) Generate(tk *tokenizer.Tokenizer, model string, targetTokens int, lastUserMessage string) (string, error) {
	if lastUserMessage == "" {
		return "", nil
	}
	tokens, err := tk.EncodeToTokens(lastUserMessage, model)
	if err != nil {
		return "", err
	}
	if len(tokens) > targetTokens {
		tokens = tokens[:targetTokens]
	}
	return strings.Join(tokens, ""), nil
}

// Fixed returns its configured text verbatim, ignoring targetTokens.
type Fixed struct {
	Text string
}

func (f Fixed) Generate(_ *tokenizer.Tokenizer, _ string, _ int, _ string) (string, error) {
	return f.Text, nil
}

// Random picks words uniformly from a small vocabulary until target tokens
// are reached.
type Random struct {
	Src *rand.Rand
}

func (r Random) Generate(tk *tokenizer.Tokenizer, model string, targetTokens int, _ string) (string, error) {
	src := r.Src
	if src == nil {
		src = rand.New(rand.NewSource(1))
	}
	return fillVocab(tk, model, targetTokens, randomVocab, src)
}

// Sequence emits monotonically numbered tokens (token_0 token_1 ...),
// exactly targetTokens of them — used for deterministic tests.
type Sequence struct{}

func (Sequence) Generate(_ *tokenizer.Tokenizer, _ string, targetTokens int, _ string) (string, error) {
	if targetTokens <= 0 {
		return "", nil
	}
	words := make([]string, targetTokens)
	for i := range words {
		words[i] = "token_" + strconv.Itoa(i)
	}
	return strings.Join(words, " "), nil
}

// fillVocab appends words from vocab (uniformly random if src is non-nil,
// else in order, wrapping) until the accumulated text's token count under
// tk/model reaches targetTokens. Growth is checked a word at a time; if the
// last word overshoots by more than one token, the text is cut back to its
// first targetTokens tokens, so the result lands within +-1 token of target,
// per the lorem/random contract.
func fillVocab(tk *tokenizer.Tokenizer, model string, targetTokens int, vocab []string, src *rand.Rand) (string, error) {
	if targetTokens <= 0 {
		return "", nil
	}
	var b strings.Builder
	count := 0
	idx := 0
	for count < targetTokens {
		var word string
		if src != nil {
			word = vocab[src.Intn(len(vocab))]
		} else {
			word = vocab[idx%len(vocab)]
			idx++
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
		n, err := tk.Count(b.String(), model)
		if err != nil {
			return "", err
		}
		count = n
	}
	if count > targetTokens+1 {
		tokens, err := tk.EncodeToTokens(b.String(), model)
		if err != nil {
			return "", err
		}
		if len(tokens) > targetTokens {
			return strings.Join(tokens[:targetTokens], ""), nil
		}
	}
	return b.String(), nil
}

// New constructs the Generator for kind, with fixedText used only by
// KindFixed and src used only by KindRandom.
func New(kind Kind, fixedText string, src *rand.Rand) Generator {
	switch kind {
	case KindEcho:
		return Echo{}
	case KindFixed:
		return Fixed{Text: fixedText}
	case KindRandom:
		return Random{Src: src}
	case KindSequence:
		return Sequence{}
	default:
		return Lorem{}
	}
}
