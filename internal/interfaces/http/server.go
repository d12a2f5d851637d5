// Package http wires gin to every route spec §6 names, on top of a single
// shared Server holding the orchestrator, protocol adapters, and stats
// aggregator. Grounded on the teacher's interfaces/http/server.go (gin
// engine construction, logging middleware) and handlers/openai_handler.go
// (route registration shape).
package http

import (
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chaliy/llmsim/internal/application/orchestrator"
	"github.com/chaliy/llmsim/internal/domain/generator"
	"github.com/chaliy/llmsim/internal/domain/model"
	"github.com/chaliy/llmsim/internal/domain/stats"
	"github.com/chaliy/llmsim/internal/interfaces/wsstats"
)

// Server holds every dependency the HTTP handlers need and owns the gin
// engine. One instance is built at boot and run for the process's lifetime.
type Server struct {
	Engine       *gin.Engine
	Orchestrator *orchestrator.Orchestrator
	Stats        *stats.Aggregator
	Hub          *wsstats.Hub
	Logger       *zap.Logger

	// RNGPool hands each request its own *rand.Rand so sleep sampling and
	// error injection never share one unsynchronized source, per spec §5.
	RNGPool *RNGPool
}

// NewServer builds the gin engine, registers every spec §6 route, and
// returns a ready-to-run Server. gin.New() is used instead of gin.Default()
// so the teacher's own logging middleware replaces gin's default one.
func NewServer(orc *orchestrator.Orchestrator, hub *wsstats.Hub, logger *zap.Logger, seed int64) *Server {
	engine := gin.New()
	engine.Use(ginLogger(logger), gin.Recovery())

	s := &Server{
		Engine:       engine,
		Orchestrator: orc,
		Stats:        orc.Stats,
		Hub:          hub,
		Logger:       logger,
		RNGPool:      NewRNGPool(seed),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Engine.GET("/health", s.handleHealth)
	s.Engine.GET("/llmsim/stats", s.handleStats)
	s.Engine.GET("/llmsim/stats/ws", s.handleStatsWS)

	openai := s.Engine.Group("/openai/v1")
	openai.POST("/chat/completions", s.handleChatCompletions)
	openai.POST("/responses", s.handleResponses)
	openai.GET("/models", s.handleListModels)
	openai.GET("/models/:id", s.handleGetModel)

	s.Engine.POST("/openresponses/v1/responses", s.handleOpenResponses)
}

// ginLogger logs method/path/status/latency for every request, ported from
// the teacher's access-log middleware.
func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		logger.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// modelRegistryFromConfig appends any config-declared model IDs to the
// built-in registry, resolving each one's latency profile by family prefix
// per spec §4.2.
func modelRegistryFromConfig(createdAt int64, extra []string) *model.Registry {
	base := model.Default(createdAt)
	if len(extra) == 0 {
		return base
	}
	profiles := base.List()
	for _, id := range extra {
		if _, ok := base.Lookup(id); ok {
			continue
		}
		profiles = append(profiles, model.Profile{
			ID: id, Owner: "custom", ContextWindow: 128000, MaxOutputTokens: 4096,
			Capabilities: map[model.Capability]bool{}, CreatedAt: createdAt,
			LatencyProfile: model.ResolveLatencyProfile(id),
		})
	}
	return model.NewRegistry(profiles)
}

// generatorFromName builds the configured Generator variant. "fixed:TEXT"
// carries its literal text after the colon, per spec §6's CLI flag syntax.
func generatorFromName(name string, src *rand.Rand) generator.Generator {
	if _, text, ok := cutFixed(name); ok {
		return generator.New(generator.KindFixed, text, src)
	}
	switch name {
	case "echo":
		return generator.New(generator.KindEcho, "", src)
	case "random":
		return generator.New(generator.KindRandom, "", src)
	case "sequence":
		return generator.New(generator.KindSequence, "", src)
	default:
		return generator.New(generator.KindLorem, "", src)
	}
}

func cutFixed(name string) (string, string, bool) {
	const prefix = "fixed:"
	if len(name) > len(prefix) && name[:len(prefix)] == prefix {
		return prefix, name[len(prefix):], true
	}
	return "", "", false
}
