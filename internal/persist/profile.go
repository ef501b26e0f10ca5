package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Sample is one phase timing of one stepped frame.
type Sample struct {
	RecordedAt time.Time
	Frame      uint64
	Scene      int
	Phase      string
	Millis     float64
}

// PhaseStat aggregates the samples of one phase.
type PhaseStat struct {
	Phase string
	Count int
	AvgMs float64
	MaxMs float64
}

// ProfileSink stores profiling samples.
type ProfileSink interface {
	WriteSamples(ctx context.Context, samples []Sample) error
	Summary(ctx context.Context) ([]PhaseStat, error)
	Close() error
}

var ErrUnknownDriver = errors.New("unknown profile driver")

const summaryQuery = `SELECT phase, COUNT(*), AVG(millis), MAX(millis)
	 FROM profile_samples GROUP BY phase ORDER BY phase`

// OpenSink connects to the backend named by driver ("sqlite" or "postgres")
// and applies migrations.
func OpenSink(ctx context.Context, driver, dsn string, maxConns int, log *zap.Logger) (ProfileSink, error) {
	switch driver {
	case "sqlite":
		db, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := RunMigrations(ctx, db, DialectSQLite); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("profile sink ready", zap.String("driver", driver), zap.String("path", dsn))
		return &SQLiteSink{db: db}, nil
	case "postgres":
		pg, err := NewDB(ctx, dsn, maxConns, log)
		if err != nil {
			return nil, err
		}
		sqlDB := pg.SQL()
		err = RunMigrations(ctx, sqlDB, DialectPostgres)
		sqlDB.Close()
		if err != nil {
			pg.Close()
			return nil, err
		}
		log.Info("profile sink ready", zap.String("driver", driver))
		return &PostgresSink{db: pg}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}

// SQLiteSink writes samples through database/sql and modernc.org/sqlite.
type SQLiteSink struct {
	db *sql.DB
}

func NewSQLiteSink(db *sql.DB) *SQLiteSink { return &SQLiteSink{db: db} }

func (s *SQLiteSink) WriteSamples(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin profile tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO profile_samples (recorded_at, frame, scene, phase, millis)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare profile insert: %w", err)
	}
	defer stmt.Close()

	for _, smp := range samples {
		if _, err := stmt.ExecContext(ctx, smp.RecordedAt.UTC(), int64(smp.Frame), smp.Scene, smp.Phase, smp.Millis); err != nil {
			return fmt.Errorf("insert profile sample: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteSink) Summary(ctx context.Context) ([]PhaseStat, error) {
	rows, err := s.db.QueryContext(ctx, summaryQuery)
	if err != nil {
		return nil, fmt.Errorf("query profile summary: %w", err)
	}
	defer rows.Close()

	var out []PhaseStat
	for rows.Next() {
		var st PhaseStat
		if err := rows.Scan(&st.Phase, &st.Count, &st.AvgMs, &st.MaxMs); err != nil {
			return nil, fmt.Errorf("scan profile summary: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLiteSink) Close() error { return s.db.Close() }

// PostgresSink writes samples through a pgx pool.
type PostgresSink struct {
	db *DB
}

func NewPostgresSink(db *DB) *PostgresSink { return &PostgresSink{db: db} }

func (s *PostgresSink) WriteSamples(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin profile tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, smp := range samples {
		batch.Queue(
			`INSERT INTO profile_samples (recorded_at, frame, scene, phase, millis)
			 VALUES ($1, $2, $3, $4, $5)`,
			smp.RecordedAt, int64(smp.Frame), smp.Scene, smp.Phase, smp.Millis,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert profile samples: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresSink) Summary(ctx context.Context) ([]PhaseStat, error) {
	rows, err := s.db.Pool.Query(ctx, summaryQuery)
	if err != nil {
		return nil, fmt.Errorf("query profile summary: %w", err)
	}
	defer rows.Close()

	var out []PhaseStat
	for rows.Next() {
		var st PhaseStat
		if err := rows.Scan(&st.Phase, &st.Count, &st.AvgMs, &st.MaxMs); err != nil {
			return nil, fmt.Errorf("scan profile summary: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *PostgresSink) Close() error {
	s.db.Close()
	return nil
}
