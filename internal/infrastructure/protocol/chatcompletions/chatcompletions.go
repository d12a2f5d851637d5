// Package chatcompletions implements the OpenAI Chat Completions v1 wire
// schema: request binding, the non-streaming response body, and the SSE
// chunk framing, on top of the protocol-independent core.
//
// Grounded on the teacher's openai_handler.go (ChatCompletionRequest/
// Response/Chunk shapes, writeSSEChunk), generalized from a fixed
// splitIntoChunks loop into a stream-engine-driven emitter.
package chatcompletions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/chaliy/llmsim/internal/domain/genreq"
	"github.com/chaliy/llmsim/internal/infrastructure/stream"
)

// Request mirrors OpenAI's chat completion request body.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToGenerationRequest translates the wire request into the protocol-
// independent form, with targetTokens supplied by the caller (the
// configured default, since Chat Completions has no length hint field).
func (r Request) ToGenerationRequest(targetTokens int) genreq.GenerationRequest {
	msgs := make([]genreq.Message, len(r.Messages))
	for i, m := range r.Messages {
		msgs[i] = genreq.Message{Role: genreq.Role(m.Role), Content: m.Content}
	}
	return genreq.GenerationRequest{
		Model:        r.Model,
		Messages:     msgs,
		TargetTokens: targetTokens,
		Stream:       r.Stream,
		Temperature:  r.Temperature,
		TopP:         r.TopP,
		MaxTokens:    r.MaxTokens,
	}
}

// Validate checks the request against spec §4.6's validation rules,
// returning a human-readable message on failure, or "" if valid.
func (r Request) Validate() string {
	if len(r.Messages) == 0 {
		return "messages array must not be empty"
	}
	for _, m := range r.Messages {
		switch genreq.Role(m.Role) {
		case genreq.RoleSystem, genreq.RoleUser, genreq.RoleAssistant, genreq.RoleTool:
		default:
			return fmt.Sprintf("unknown role %q", m.Role)
		}
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return "temperature must be between 0 and 2"
	}
	return ""
}

// Usage is the token accounting block.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice is a single completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Response is the non-streaming response body.
type Response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// FromResult builds the non-streaming response body from a generation
// result.
func FromResult(res genreq.GenerationResult) Response {
	return Response{
		ID:      res.ID,
		Object:  "chat.completion",
		Created: res.CreatedAt,
		Model:   res.Model,
		Choices: []Choice{{
			Index:        0,
			Message:      Message{Role: "assistant", Content: res.CompletionText},
			FinishReason: string(res.FinishReason),
		}},
		Usage: Usage{
			PromptTokens:     res.PromptTokens,
			CompletionTokens: res.CompletionTokenCount,
			TotalTokens:      res.PromptTokens + res.CompletionTokenCount,
		},
	}
}

// Delta is the incremental content of a streaming chunk.
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// StreamChoice is a streaming choice delta.
type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Chunk is a single SSE frame's JSON payload.
type Chunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
}

// SSEWriter implements stream.Writer for Chat Completions: data:-only
// frames, role delta on the first frame, a final empty-delta/finish_reason
// frame, then the literal [DONE] sentinel.
type SSEWriter struct {
	W            io.Writer
	ID           string
	Created      int64
	Model        string
	FinishReason string
	Flush        func()
}

// writeChunk serializes and writes one Chunk as a data: frame.
func (s *SSEWriter) writeChunk(choice StreamChoice) error {
	chunk := Chunk{
		ID:      s.ID,
		Object:  "chat.completion.chunk",
		Created: s.Created,
		Model:   s.Model,
		Choices: []StreamChoice{choice},
	}
	data, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.W, "data: %s\n\n", data); err != nil {
		return err
	}
	if s.Flush != nil {
		s.Flush()
	}
	return nil
}

// Write adapts a stream.Frame into the Chat Completions SSE shape. The
// first frame also carries the assistant role delta. Satisfies
// stream.Writer.
func (s *SSEWriter) Write(_ context.Context, f stream.Frame) error {
	if f.Terminal {
		finish := s.FinishReason
		if err := s.writeChunk(StreamChoice{Index: 0, Delta: Delta{}, FinishReason: &finish}); err != nil {
			return err
		}
		_, err := io.WriteString(s.W, "data: [DONE]\n\n")
		if s.Flush != nil {
			s.Flush()
		}
		return err
	}
	delta := Delta{Content: f.Token}
	if f.Index == 0 {
		delta.Role = "assistant"
	}
	return s.writeChunk(StreamChoice{Index: 0, Delta: delta, FinishReason: nil})
}
