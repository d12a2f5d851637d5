package stream

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/chaliy/llmsim/internal/domain/latencyprofile"
)

type recordingWriter struct {
	frames []Frame
}

func (r *recordingWriter) Write(_ context.Context, f Frame) error {
	r.frames = append(r.frames, f)
	return nil
}

func instantProfile() latencyprofile.Profile {
	p, _ := latencyprofile.Lookup("instant")
	return p
}

func TestRunEmitsOneFramePerTokenPlusTerminal(t *testing.T) {
	w := &recordingWriter{}
	src := rand.New(rand.NewSource(1))
	outcome := Run(context.Background(), w, []string{"a", "b", "c"}, instantProfile(), src, 0)

	if outcome.TokensEmitted != 3 || outcome.Aborted || outcome.TimedOut {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(w.frames) != 4 {
		t.Fatalf("expected 3 content frames + 1 terminal, got %d", len(w.frames))
	}
	if !w.frames[3].Terminal {
		t.Error("expected last frame to be terminal")
	}
	for i, f := range w.frames[:3] {
		if f.Index != i {
			t.Errorf("frame %d has index %d", i, f.Index)
		}
	}
}

func TestRunAbortsOnContextCancel(t *testing.T) {
	w := &recordingWriter{}
	src := rand.New(rand.NewSource(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := latencyprofile.Profile{Name: "slow", TTFTMeanMs: 10000, TTFTStdDevMs: 0}
	outcome := Run(ctx, w, []string{"a", "b"}, slow, src, 0)
	if !outcome.Aborted {
		t.Errorf("expected aborted outcome, got %+v", outcome)
	}
}

func TestRunAbortsOnWriteError(t *testing.T) {
	failing := writerFunc(func(context.Context, Frame) error { return errors.New("write failed") })
	src := rand.New(rand.NewSource(1))
	outcome := Run(context.Background(), failing, []string{"a"}, instantProfile(), src, 0)
	if !outcome.Aborted {
		t.Errorf("expected aborted outcome on write failure, got %+v", outcome)
	}
}

func TestRunTimesOutBeforeCompletion(t *testing.T) {
	w := &recordingWriter{}
	src := rand.New(rand.NewSource(1))
	slow := latencyprofile.Profile{Name: "slow", TBTMeanMs: 500, TBTStdDevMs: 0}
	outcome := Run(context.Background(), w, []string{"a", "b", "c", "d", "e"}, slow, src, 5*time.Millisecond)
	if !outcome.TimedOut {
		t.Errorf("expected timeout outcome, got %+v", outcome)
	}
	if outcome.TokensEmitted >= 5 {
		t.Errorf("expected timeout before full emission, got %d tokens", outcome.TokensEmitted)
	}
}

type writerFunc func(context.Context, Frame) error

func (f writerFunc) Write(ctx context.Context, fr Frame) error { return f(ctx, fr) }
