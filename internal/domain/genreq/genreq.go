// Package genreq holds the protocol-independent request/result types that
// every wire adapter translates into and out of, so the orchestrator and
// stream engine never need to know which API shape a request arrived as.
package genreq

// Role is the speaker of a single message in a GenerationRequest.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one ordered (role, content) pair.
type Message struct {
	Role    Role
	Content string
}

// ReasoningEffort is the requested depth of simulated hidden reasoning.
type ReasoningEffort string

const (
	ReasoningNone    ReasoningEffort = "none"
	ReasoningMinimal ReasoningEffort = "minimal"
	ReasoningLow     ReasoningEffort = "low"
	ReasoningMedium  ReasoningEffort = "medium"
	ReasoningHigh    ReasoningEffort = "high"
	ReasoningXHigh   ReasoningEffort = "xhigh"
)

// ReasoningSummaryMode is the requested verbosity of the reasoning summary,
// or "" if no summary was requested.
type ReasoningSummaryMode string

const (
	SummaryNone     ReasoningSummaryMode = ""
	SummaryAuto     ReasoningSummaryMode = "auto"
	SummaryConcise  ReasoningSummaryMode = "concise"
	SummaryDetailed ReasoningSummaryMode = "detailed"
)

// Reasoning carries the reasoning-related request fields, shared by the
// Responses and OpenResponses adapters.
type Reasoning struct {
	Effort  ReasoningEffort
	Summary ReasoningSummaryMode
}

// GenerationRequest is the protocol-independent view of an inbound request,
// constructed by each adapter from its own wire format.
type GenerationRequest struct {
	Model        string
	Messages     []Message
	TargetTokens int
	Stream       bool
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
	Reasoning    *Reasoning
	Metadata     map[string]string
}

// LastUserMessage returns the content of the most recent user-role message,
// or "" if there is none — used by the echo generator.
func (r GenerationRequest) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// FinishReason is why generation stopped.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
)

// GenerationResult is the protocol-independent outcome of a successful
// generation, translated by each adapter into its own wire schema.
type GenerationResult struct {
	ID               string
	CreatedAt        int64
	Model            string
	CompletionText   string
	CompletionTokens []string // token-unit split of CompletionText, for streaming
	PromptTokens     int
	CompletionTokenCount int
	ReasoningTokens  int
	ReasoningSummary string
	FinishReason     FinishReason
}

// TotalTokens is prompt + completion + reasoning, the invariant every
// adapter's usage block must satisfy.
func (r GenerationResult) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokenCount + r.ReasoningTokens
}
