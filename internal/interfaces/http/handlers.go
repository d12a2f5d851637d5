package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chaliy/llmsim/internal/application/orchestrator"
	"github.com/chaliy/llmsim/internal/domain/genreq"
	"github.com/chaliy/llmsim/internal/domain/model"
	"github.com/chaliy/llmsim/internal/infrastructure/idgen"
	"github.com/chaliy/llmsim/internal/infrastructure/protocol/chatcompletions"
	"github.com/chaliy/llmsim/internal/infrastructure/protocol/openresponses"
	"github.com/chaliy/llmsim/internal/infrastructure/protocol/responses"
	"github.com/chaliy/llmsim/internal/infrastructure/stream"
	apperrors "github.com/chaliy/llmsim/pkg/errors"
)

// errorBody is the wire shape every simulated or validation failure renders
// as, per spec §6.
type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func renderSimError(c *gin.Context, e *apperrors.SimulatedError) {
	var body errorBody
	body.Error.Type = string(e.Kind)
	body.Error.Message = e.Message
	body.Error.Code = string(e.Code)
	c.JSON(e.HTTPStatus, body)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.Stats.Snapshot())
}

func (s *Server) handleStatsWS(c *gin.Context) {
	s.Hub.ServeWS(c.Writer, c.Request)
}

// ModelObject is the wire shape for a single model, per spec §6.
type ModelObject struct {
	ID              string `json:"id"`
	Object          string `json:"object"`
	Created         int64  `json:"created"`
	OwnedBy         string `json:"owned_by"`
	ContextWindow   int    `json:"context_window"`
	MaxOutputTokens int    `json:"max_output_tokens"`
}

func (s *Server) handleListModels(c *gin.Context) {
	profiles := s.Orchestrator.Models.List()
	data := make([]ModelObject, len(profiles))
	for i, p := range profiles {
		data[i] = toModelObject(p)
	}
	c.JSON(http.StatusOK, gin.H{"object": "list", "data": data})
}

func (s *Server) handleGetModel(c *gin.Context) {
	id := c.Param("id")
	p, ok := s.Orchestrator.Models.Lookup(id)
	if !ok {
		c.JSON(http.StatusNotFound, errorNotFound(id))
		return
	}
	c.JSON(http.StatusOK, toModelObject(p))
}

func toModelObject(p model.Profile) ModelObject {
	return ModelObject{
		ID: p.ID, Object: "model", Created: p.CreatedAt, OwnedBy: p.Owner,
		ContextWindow: p.ContextWindow, MaxOutputTokens: p.MaxOutputTokens,
	}
}

func errorNotFound(id string) gin.H {
	return gin.H{"error": gin.H{"type": "invalid_request_error", "message": "unknown model: " + id, "code": "model_not_found"}}
}

func (s *Server) handleChatCompletions(c *gin.Context) {
	var req chatcompletions.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		renderSimError(c, apperrors.NewValidationError(err.Error()))
		return
	}
	if msg := req.Validate(); msg != "" {
		renderSimError(c, apperrors.NewValidationError(msg))
		return
	}

	genReq := req.ToGenerationRequest(s.Orchestrator.DefaultTargetTokens)
	rng := s.RNGPool.Next()
	p, simErr := s.Orchestrator.Prepare(genReq, rng, func() string { return idgen.New(idgen.PrefixChatCompletion) }, time.Now())
	if simErr != nil {
		renderSimError(c, simErr)
		return
	}

	if !req.Stream {
		s.Orchestrator.Finish(p, 0)
		c.JSON(http.StatusOK, chatcompletions.FromResult(p.Result))
		return
	}

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	w := &chatcompletions.SSEWriter{
		W: c.Writer, ID: p.Result.ID, Created: p.Result.CreatedAt, Model: p.Result.Model,
		FinishReason: string(p.Result.FinishReason), Flush: c.Writer.Flush,
	}
	outcome := stream.Run(c.Request.Context(), w, p.Result.CompletionTokens, p.Latency, rng, p.TimeoutAfter)
	if outcome.Aborted || outcome.TimedOut {
		s.Orchestrator.FailMidStream(p, outcome.TimedOut)
		return
	}
	s.Orchestrator.Finish(p, 0)
}

func (s *Server) handleResponses(c *gin.Context) {
	var req responses.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		renderSimError(c, apperrors.NewValidationError(err.Error()))
		return
	}

	genReq, err := req.ToGenerationRequest(s.Orchestrator.DefaultTargetTokens)
	if err != nil {
		renderSimError(c, apperrors.NewValidationError(err.Error()))
		return
	}

	rng := s.RNGPool.Next()
	p, simErr := s.Orchestrator.Prepare(genReq, rng, func() string { return idgen.New(idgen.PrefixResponse) }, time.Now())
	if simErr != nil {
		renderSimError(c, simErr)
		return
	}

	plan := s.buildResponsesPlan(p, genReq)

	if !genReq.Stream {
		s.Orchestrator.Finish(p, plan.ReasoningTokens)
		c.JSON(http.StatusOK, responses.FromResult(plan))
		return
	}

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sleepTTFT := responses.TTFTSleeper(p.Latency, rng)
	sleepTBT := responses.TBTSleeper(p.Latency, rng)
	_, aborted := responses.StreamPlan(c.Request.Context(), c.Writer, c.Writer.Flush, plan, sleepTTFT, sleepTBT)
	if aborted {
		s.Orchestrator.FailMidStream(p, false)
		return
	}
	s.Orchestrator.Finish(p, plan.ReasoningTokens)
}

func (s *Server) handleOpenResponses(c *gin.Context) {
	var req openresponses.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		renderSimError(c, apperrors.NewValidationError(err.Error()))
		return
	}

	genReq, err := openresponses.ToGenerationRequest(req, s.Orchestrator.DefaultTargetTokens)
	if err != nil {
		renderSimError(c, apperrors.NewValidationError(err.Error()))
		return
	}

	rng := s.RNGPool.Next()
	p, simErr := s.Orchestrator.Prepare(genReq, rng, func() string { return idgen.New(idgen.PrefixResponse) }, time.Now())
	if simErr != nil {
		renderSimError(c, simErr)
		return
	}

	plan := s.buildResponsesPlan(p, genReq)

	if !genReq.Stream {
		s.Orchestrator.Finish(p, plan.ReasoningTokens)
		c.JSON(http.StatusOK, openresponses.FromResult(plan))
		return
	}

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	_, aborted := openresponses.StreamPlan(c.Request.Context(), c.Writer, c.Writer.Flush, plan, p.Latency, rng)
	if aborted {
		s.Orchestrator.FailMidStream(p, false)
		return
	}
	s.Orchestrator.Finish(p, plan.ReasoningTokens)
}

// buildResponsesPlan computes the reasoning-token count and summary text (if
// requested) for a prepared generation, and assembles the Responses/
// OpenResponses Plan both the streaming and non-streaming paths render from.
// This is where reasoning-token accounting lives rather than in the
// orchestrator, per the protocol-agnostic boundary documented in
// internal/application/orchestrator.
func (s *Server) buildResponsesPlan(p *orchestrator.Prepared, req genreq.GenerationRequest) responses.Plan {
	plan := responses.Plan{
		ID: p.Result.ID, CreatedAt: p.Result.CreatedAt, Model: p.Result.Model,
		PromptTokens: p.Result.PromptTokens, CompletionTokens: p.Result.CompletionTokens,
		CompletionText: p.Result.CompletionText, MessageID: idgen.New(idgen.PrefixMessage),
	}

	if req.Reasoning == nil || req.Reasoning.Effort == genreq.ReasoningNone {
		return plan
	}
	if !p.ModelProfile.IsReasoningCapable() {
		return plan
	}

	reasoningTokens := responses.ComputeReasoningTokens(req.Reasoning.Effort, req.Model, p.Result.CompletionTokenCount)
	if reasoningTokens <= 0 {
		return plan
	}
	plan.ReasoningTokens = reasoningTokens
	plan.ReasoningID = idgen.New(idgen.PrefixReasoning)

	if req.Reasoning.Summary == genreq.SummaryNone {
		return plan
	}
	wordCount := responses.SummaryWordCount(req.Reasoning.Summary, reasoningTokens)
	if wordCount <= 0 {
		return plan
	}
	summaryText, err := s.Orchestrator.Generator().Generate(s.Orchestrator.Tokenizer, req.Model, wordCount, req.LastUserMessage())
	if err != nil {
		return plan
	}
	summaryTokens, err := s.Orchestrator.Tokenizer.EncodeToTokens(summaryText, req.Model)
	if err != nil {
		return plan
	}
	plan.SummaryMode = req.Reasoning.Summary
	plan.SummaryTokens = summaryTokens
	plan.SummaryText = summaryText
	return plan
}
