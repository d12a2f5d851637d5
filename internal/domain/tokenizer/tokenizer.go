// Package tokenizer counts and splits text into tokens using the same BPE
// encodings real model providers use, so LLMSim's token accounting matches
// what a client would see from the real API.
package tokenizer

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	apperrors "github.com/chaliy/llmsim/pkg/errors"
)

// Tokenizer counts and splits text into model-appropriate tokens, caching one
// codec per encoding so repeated requests for the same model family don't
// re-parse the BPE merge tables.
type Tokenizer struct {
	mu     sync.Mutex
	codecs map[tokenizer.Encoding]tokenizer.Codec
}

// New returns a ready-to-use Tokenizer with an empty codec cache.
func New() *Tokenizer {
	return &Tokenizer{codecs: make(map[tokenizer.Encoding]tokenizer.Codec)}
}

// encodingFor maps a model id prefix to the BPE encoding real providers use
// for that family. Unknown models fall back to cl100k_base, the GPT-4
// encoding, per spec §4.1.
func encodingFor(model string) tokenizer.Encoding {
	low := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(low, "gpt-5"), strings.HasPrefix(low, "gpt-4o"), strings.HasPrefix(low, "gpt-4.1"),
		strings.HasPrefix(low, "o1"), strings.HasPrefix(low, "o3"), strings.HasPrefix(low, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(low, "gpt-4"), strings.HasPrefix(low, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		// Claude, Gemini, DeepSeek etc. don't publish a compatible BPE table;
		// cl100k_base (GPT-4) is the spec-mandated fallback approximation.
		return tokenizer.Cl100kBase
	}
}

func (t *Tokenizer) codecFor(enc tokenizer.Encoding) (tokenizer.Codec, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.codecs[enc]; ok {
		return c, nil
	}
	c, err := tokenizer.Get(enc)
	if err != nil {
		return nil, apperrors.NewInternalErrorWithCause("failed to load tokenizer encoding", err)
	}
	t.codecs[enc] = c
	return c, nil
}

// Count returns the number of tokens text encodes to under model's family
// encoding.
func (t *Tokenizer) Count(text, model string) (int, error) {
	if text == "" {
		return 0, nil
	}
	codec, err := t.codecFor(encodingFor(model))
	if err != nil {
		return 0, err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// EncodeToTokens splits text into its literal token strings under model's
// family encoding, in order. Used to split a completion into streaming
// units, one BPE token per unit, instead of one word per unit.
func (t *Tokenizer) EncodeToTokens(text, model string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	codec, err := t.codecFor(encodingFor(model))
	if err != nil {
		return nil, err
	}
	_, tokens, err := codec.Encode(text)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}
