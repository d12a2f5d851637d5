package http

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/chaliy/llmsim/internal/application/orchestrator"
	"github.com/chaliy/llmsim/internal/domain/generator"
	"github.com/chaliy/llmsim/internal/domain/injector"
	"github.com/chaliy/llmsim/internal/domain/latencyprofile"
	"github.com/chaliy/llmsim/internal/domain/stats"
	"github.com/chaliy/llmsim/internal/domain/tokenizer"
	"github.com/chaliy/llmsim/internal/infrastructure/config"
	"github.com/chaliy/llmsim/internal/interfaces/wsstats"
)

// GeneratorFromName builds the configured Generator variant, exported so a
// config reload (main.go's viper watcher) can swap the orchestrator's active
// generator without reaching into this package's unexported helpers.
func GeneratorFromName(name string, src *rand.Rand) generator.Generator {
	return generatorFromName(name, src)
}

// buildLatencyRegistry starts from the built-in named presets and, if cfg
// names a profile with any explicit ttft_*/tbt_* override set, replaces that
// preset's numbers with the override, per spec §6's latency config section.
func buildLatencyRegistry(cfg config.LatencyConfig) *latencyprofile.Registry {
	name := cfg.Profile
	if name == "" {
		name = "gpt-4"
	}
	if cfg.TTFTMeanMs == 0 && cfg.TTFTStdDevMs == 0 && cfg.TBTMeanMs == 0 && cfg.TBTStdDevMs == 0 {
		return latencyprofile.NewRegistry(nil)
	}
	base, _ := latencyprofile.Lookup(name)
	overridden := latencyprofile.Profile{
		Name:         name,
		TTFTMeanMs:   firstNonZero(cfg.TTFTMeanMs, base.TTFTMeanMs),
		TTFTStdDevMs: firstNonZero(cfg.TTFTStdDevMs, base.TTFTStdDevMs),
		TBTMeanMs:    firstNonZero(cfg.TBTMeanMs, base.TBTMeanMs),
		TBTStdDevMs:  firstNonZero(cfg.TBTStdDevMs, base.TBTStdDevMs),
	}
	return latencyprofile.NewRegistry(map[string]latencyprofile.Profile{name: overridden})
}

func firstNonZero(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}

// seedFromEntropy draws a random int64 from crypto/rand for the server's RNG
// pool root, per spec §9: "the production path is runtime-seeded."
func seedFromEntropy() int64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// Boot wires every domain/infrastructure component from cfg into a ready-
// to-run Server plus its stats-broadcast Hub, mirroring the teacher's
// application.NewApp construction sequence. seed overrides the RNG pool
// root (0 means draw fresh entropy); a fixed seed makes sampling and
// injection reproducible for tests, per spec §9.
func Boot(cfg config.Config, logger *zap.Logger, seed int64) *Server {
	now := time.Now().Unix()
	models := modelRegistryFromConfig(now, cfg.Models.Available)
	latencies := buildLatencyRegistry(cfg.Latency)
	tk := tokenizer.New()
	st := stats.New()

	if seed == 0 {
		seed = seedFromEntropy()
	}
	genSrc := rand.New(rand.NewSource(seed))
	gen := generatorFromName(cfg.Response.Generator, genSrc)

	errCfg := injector.Config{
		RateLimitRate:   cfg.Errors.RateLimitRate,
		ServerErrorRate: cfg.Errors.ServerErrorRate,
		TimeoutRate:     cfg.Errors.TimeoutRate,
		TimeoutAfterMs:  cfg.Errors.TimeoutAfterMs,
	}

	orc := orchestrator.New(models, latencies, tk, gen, errCfg, st, cfg.Response.TargetTokens)
	hub := wsstats.NewHub(st, logger)

	return NewServer(orc, hub, logger, seed)
}
