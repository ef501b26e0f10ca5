package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/simsync/internal/core/system"
	"github.com/l1jgo/simsync/internal/demo"
	"github.com/l1jgo/simsync/internal/persist"
)

// ProfileSystem collects the world's per-step phase timings while profiling
// is on and flushes them to a sink in batches. Phase 3 (Persist).
type ProfileSystem struct {
	demo       *demo.Demo
	sink       persist.ProfileSink
	log        *zap.Logger
	buf        []persist.Sample
	frame      uint64
	sinceFlush int
	flushEvery int // flush every N frames
	batchSize  int // or as soon as this many samples are queued
	nowFunc    func() time.Time
}

func NewProfileSystem(d *demo.Demo, sink persist.ProfileSink, flushEvery, batchSize int, log *zap.Logger) *ProfileSystem {
	if flushEvery < 1 {
		flushEvery = 1
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &ProfileSystem{
		demo:       d,
		sink:       sink,
		log:        log,
		flushEvery: flushEvery,
		batchSize:  batchSize,
		nowFunc:    time.Now,
	}
}

func (s *ProfileSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *ProfileSystem) Update(_ time.Duration) {
	s.frame++
	if s.demo.Live() && s.demo.Settings().Profiling {
		now := s.nowFunc()
		scene := s.demo.Current()
		s.demo.World().Profile().Each(func(label string, ms float64) {
			s.buf = append(s.buf, persist.Sample{
				RecordedAt: now,
				Frame:      s.frame,
				Scene:      scene,
				Phase:      label,
				Millis:     ms,
			})
		})
	}
	s.sinceFlush++
	if s.sinceFlush < s.flushEvery && len(s.buf) < s.batchSize {
		return
	}
	s.sinceFlush = 0
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		s.log.Error("profile flush failed", zap.Error(err))
	}
}

// Flush writes every queued sample. Samples are dropped on error so a dead
// sink cannot grow the queue without bound.
func (s *ProfileSystem) Flush(ctx context.Context) error {
	if len(s.buf) == 0 {
		return nil
	}
	n := len(s.buf)
	err := s.sink.WriteSamples(ctx, s.buf)
	s.buf = s.buf[:0]
	if err != nil {
		return err
	}
	s.log.Debug("profile samples flushed", zap.Int("count", n))
	return nil
}

// Pending returns how many samples are queued.
func (s *ProfileSystem) Pending() int { return len(s.buf) }
