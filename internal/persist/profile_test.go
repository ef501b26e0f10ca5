package persist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func openTestSink(t *testing.T) ProfileSink {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.db")
	sink, err := OpenSink(context.Background(), "sqlite", path, 0, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenSink: %v", err)
	}
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestSQLiteSinkSummary(t *testing.T) {
	sink := openTestSink(t)
	ctx := context.Background()
	now := time.Now()

	samples := []Sample{
		{RecordedAt: now, Frame: 1, Scene: 0, Phase: "solve", Millis: 2},
		{RecordedAt: now, Frame: 2, Scene: 0, Phase: "solve", Millis: 4},
		{RecordedAt: now, Frame: 1, Scene: 0, Phase: "broadphase", Millis: 1},
	}
	if err := sink.WriteSamples(ctx, samples); err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}

	stats, err := sink.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(stats))
	}
	if stats[0].Phase != "broadphase" || stats[0].Count != 1 {
		t.Errorf("unexpected first stat %+v", stats[0])
	}
	if s := stats[1]; s.Phase != "solve" || s.Count != 2 || s.AvgMs != 3 || s.MaxMs != 4 {
		t.Errorf("unexpected solve stat %+v", s)
	}
}

func TestSQLiteSinkEmptyWrite(t *testing.T) {
	sink := openTestSink(t)
	if err := sink.WriteSamples(context.Background(), nil); err != nil {
		t.Fatalf("empty write: %v", err)
	}
	stats, err := sink.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("expected no stats, got %v", stats)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()
	for i := 0; i < 2; i++ {
		if err := RunMigrations(context.Background(), db, DialectSQLite); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
}

func TestOpenSinkUnknownDriver(t *testing.T) {
	_, err := OpenSink(context.Background(), "mongo", "", 0, zap.NewNop())
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}
