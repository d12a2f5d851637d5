// Package model holds the static model registry: the immutable mapping from
// a model identifier to the capabilities and latency behavior LLMSim
// simulates for it.
package model

import "strings"

// Capability is a single feature flag a model may support.
type Capability string

const (
	CapabilityVision    Capability = "vision"
	CapabilityReasoning Capability = "reasoning"
	CapabilityTools     Capability = "tools"
	CapabilityJSONMode  Capability = "json_mode"
)

// Profile describes everything the simulator needs to know about a model
// identifier: who owns it, its token limits, what it can do, and which
// latency profile paces its responses.
type Profile struct {
	ID              string
	Owner           string
	ContextWindow   int
	MaxOutputTokens int
	Capabilities    map[Capability]bool
	CreatedAt       int64 // unix seconds
	LatencyProfile  string
}

// HasCapability reports whether the profile advertises cap.
func (p Profile) HasCapability(cap Capability) bool {
	return p.Capabilities[cap]
}

// IsReasoningCapable reports whether the model accepts a reasoning effort.
func (p Profile) IsReasoningCapable() bool {
	return p.HasCapability(CapabilityReasoning)
}

func caps(cs ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(cs))
	for _, c := range cs {
		m[c] = true
	}
	return m
}

// Registry is an immutable model_id -> Profile mapping, built once at boot.
type Registry struct {
	byID []string
	data map[string]Profile
}

// NewRegistry builds a Registry from the given profiles. Later entries with
// a duplicate ID overwrite earlier ones, mirroring the order models are
// declared in (built-ins first, then any config-supplied overrides).
func NewRegistry(profiles []Profile) *Registry {
	r := &Registry{data: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if _, exists := r.data[p.ID]; !exists {
			r.byID = append(r.byID, p.ID)
		}
		r.data[p.ID] = p
	}
	return r
}

// Lookup returns the profile for id and true, or the zero Profile and false
// if id is unknown to the registry.
func (r *Registry) Lookup(id string) (Profile, bool) {
	p, ok := r.data[id]
	return p, ok
}

// MustLookup returns the profile for id, falling back to a generic
// unregistered-model profile that defaults to the gpt-4 latency class —
// callers that need strict 404 behavior should use Lookup directly.
func (r *Registry) MustLookup(id string) Profile {
	if p, ok := r.data[id]; ok {
		return p
	}
	return Profile{
		ID:              id,
		Owner:           "unknown",
		ContextWindow:   128000,
		MaxOutputTokens: 4096,
		Capabilities:    caps(),
		LatencyProfile:  "gpt-4",
	}
}

// List returns every registered profile in registration order.
func (r *Registry) List() []Profile {
	out := make([]Profile, 0, len(r.byID))
	for _, id := range r.byID {
		out = append(out, r.data[id])
	}
	return out
}

// Default returns the built-in model registry LLMSim ships with. A config
// file may append additional entries (see infrastructure/config).
func Default(createdAt int64) *Registry {
	return NewRegistry([]Profile{
		{
			ID: "gpt-5", Owner: "openai", ContextWindow: 400000, MaxOutputTokens: 128000,
			Capabilities: caps(CapabilityReasoning, CapabilityTools, CapabilityJSONMode, CapabilityVision),
			CreatedAt:    createdAt, LatencyProfile: "gpt-5",
		},
		{
			ID: "gpt-5-mini", Owner: "openai", ContextWindow: 400000, MaxOutputTokens: 128000,
			Capabilities: caps(CapabilityReasoning, CapabilityTools, CapabilityJSONMode),
			CreatedAt:    createdAt, LatencyProfile: "gpt-5-mini",
		},
		{
			ID: "gpt-4.1", Owner: "openai", ContextWindow: 128000, MaxOutputTokens: 16384,
			Capabilities: caps(CapabilityReasoning, CapabilityTools, CapabilityJSONMode, CapabilityVision),
			CreatedAt:    createdAt, LatencyProfile: "gpt-4o",
		},
		{
			ID: "gpt-4o", Owner: "openai", ContextWindow: 128000, MaxOutputTokens: 16384,
			Capabilities: caps(CapabilityTools, CapabilityJSONMode, CapabilityVision),
			CreatedAt:    createdAt, LatencyProfile: "gpt-4o",
		},
		{
			ID: "gpt-4", Owner: "openai", ContextWindow: 8192, MaxOutputTokens: 4096,
			Capabilities: caps(CapabilityTools, CapabilityJSONMode),
			CreatedAt:    createdAt, LatencyProfile: "gpt-4",
		},
		{
			ID: "o3", Owner: "openai", ContextWindow: 200000, MaxOutputTokens: 100000,
			Capabilities: caps(CapabilityReasoning, CapabilityTools),
			CreatedAt:    createdAt, LatencyProfile: "o-series",
		},
		{
			ID: "o1", Owner: "openai", ContextWindow: 200000, MaxOutputTokens: 100000,
			Capabilities: caps(CapabilityReasoning),
			CreatedAt:    createdAt, LatencyProfile: "o-series",
		},
		{
			ID: "claude-opus-4.5", Owner: "anthropic", ContextWindow: 200000, MaxOutputTokens: 32000,
			Capabilities: caps(CapabilityReasoning, CapabilityTools, CapabilityVision),
			CreatedAt:    createdAt, LatencyProfile: "claude-opus",
		},
		{
			ID: "claude-sonnet-4.5", Owner: "anthropic", ContextWindow: 200000, MaxOutputTokens: 16000,
			Capabilities: caps(CapabilityReasoning, CapabilityTools, CapabilityVision),
			CreatedAt:    createdAt, LatencyProfile: "claude-sonnet",
		},
		{
			ID: "claude-haiku-4.5", Owner: "anthropic", ContextWindow: 200000, MaxOutputTokens: 8192,
			Capabilities: caps(CapabilityTools, CapabilityVision),
			CreatedAt:    createdAt, LatencyProfile: "claude-haiku",
		},
		{
			ID: "gemini-2.5-pro", Owner: "google", ContextWindow: 1000000, MaxOutputTokens: 65536,
			Capabilities: caps(CapabilityReasoning, CapabilityTools, CapabilityVision, CapabilityJSONMode),
			CreatedAt:    createdAt, LatencyProfile: "claude-sonnet",
		},
		{
			ID: "deepseek-r1", Owner: "deepseek", ContextWindow: 128000, MaxOutputTokens: 32000,
			Capabilities: caps(CapabilityReasoning),
			CreatedAt:    createdAt, LatencyProfile: "o-series",
		},
	})
}

// ResolveLatencyProfile prefix-matches a model id against the known model
// families, independent of whether the id is registered. Unknown models
// default to the gpt-4 profile, per spec §4.2.
func ResolveLatencyProfile(id string) string {
	low := strings.ToLower(id)
	switch {
	case strings.HasPrefix(low, "gpt-5-mini"):
		return "gpt-5-mini"
	case strings.HasPrefix(low, "gpt-5"):
		return "gpt-5"
	case strings.HasPrefix(low, "gpt-4o"):
		return "gpt-4o"
	case strings.HasPrefix(low, "gpt-4"):
		return "gpt-4"
	case strings.HasPrefix(low, "o1"), strings.HasPrefix(low, "o3"), strings.HasPrefix(low, "o4"):
		return "o-series"
	case strings.HasPrefix(low, "claude-opus"):
		return "claude-opus"
	case strings.HasPrefix(low, "claude-sonnet"):
		return "claude-sonnet"
	case strings.HasPrefix(low, "claude-haiku"):
		return "claude-haiku"
	default:
		return "gpt-4"
	}
}
