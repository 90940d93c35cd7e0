// Package history keeps a per-candidate log of evaluation runs in SQLite or
// PostgreSQL so repeat submissions can be compared.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "github.com/lib/pq"
	"github.com/spboyer/hirebench/internal/models"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"

	// DefaultLimit is the number of runs List returns when no limit is given.
	DefaultLimit = 20

	// fixed width so created_at sorts as text
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

var schemas = map[string][]string{
	driverSQLite: {
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			candidate TEXT NOT NULL,
			submission TEXT NOT NULL,
			total_score INTEGER NOT NULL,
			max_score INTEGER NOT NULL,
			recommendation TEXT NOT NULL,
			quick INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			report BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS runs_candidate_created ON runs (candidate, created_at)`,
	},
	driverPostgres: {
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			candidate TEXT NOT NULL,
			submission TEXT NOT NULL,
			total_score INTEGER NOT NULL,
			max_score INTEGER NOT NULL,
			recommendation TEXT NOT NULL,
			quick INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			report BYTEA NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS runs_candidate_created ON runs (candidate, created_at)`,
	},
}

const insertRun = `
	INSERT INTO runs (
		id, candidate, submission, total_score, max_score,
		recommendation, quick, duration_ms, created_at, report
	) VALUES (
		:id, :candidate, :submission, :total_score, :max_score,
		:recommendation, :quick, :duration_ms, :created_at, :report
	)`

const runColumns = `id, candidate, submission, total_score, max_score, recommendation, quick, duration_ms, created_at`

// Run is one recorded evaluation.
type Run struct {
	ID         string      `json:"id"`
	Candidate  string      `json:"candidate"`
	Submission string      `json:"submission"`
	TotalScore int         `json:"total_score"`
	MaxScore   int         `json:"max_score"`
	Band       models.Band `json:"band"`
	Quick      bool        `json:"quick"`
	DurationMs int64       `json:"duration_ms"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Info is the run metadata in the form the reports take it.
func (r Run) Info() models.RunInfo {
	return models.RunInfo{
		Submission: r.Submission,
		Quick:      r.Quick,
		Timestamp:  r.CreatedAt,
		DurationMs: r.DurationMs,
	}
}

// Report is a stored run with its full result.
type Report struct {
	Run
	Result *models.EvaluationResult
}

type runRow struct {
	ID             string `db:"id"`
	Candidate      string `db:"candidate"`
	Submission     string `db:"submission"`
	TotalScore     int    `db:"total_score"`
	MaxScore       int    `db:"max_score"`
	Recommendation string `db:"recommendation"`
	Quick          int    `db:"quick"`
	DurationMs     int64  `db:"duration_ms"`
	CreatedAt      string `db:"created_at"`
	Report         []byte `db:"report"`
}

func (r runRow) toRun() (Run, error) {
	created, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: bad created_at %q: %w", r.ID, r.CreatedAt, err)
	}
	return Run{
		ID:         r.ID,
		Candidate:  r.Candidate,
		Submission: r.Submission,
		TotalScore: r.TotalScore,
		MaxScore:   r.MaxScore,
		Band:       models.Band(r.Recommendation),
		Quick:      r.Quick != 0,
		DurationMs: r.DurationMs,
		CreatedAt:  created,
	}, nil
}

// Store is a run history database.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// driverFor maps a DSN to a database driver and the DSN that driver expects.
// postgres:// and postgresql:// URLs go to lib/pq, everything else is a
// SQLite path or file: URI.
func driverFor(dsn string) (driver, source string) {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return driverPostgres, dsn
	case strings.HasPrefix(lower, "sqlite://"):
		return driverSQLite, dsn[len("sqlite://"):]
	default:
		return driverSQLite, dsn
	}
}

// Open connects to the history database and creates the schema if needed.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("history DSN is empty")
	}
	driver, source := driverFor(dsn)

	db, err := sqlx.ConnectContext(ctx, driver, source)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s history: %w", driver, err)
	}
	if driver == driverSQLite {
		// single writer
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}

	for _, stmt := range schemas[driver] {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating history schema: %w", err)
		}
	}

	if s.enc, err = zstd.NewWriter(nil); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	if s.dec, err = zstd.NewReader(nil); err != nil {
		s.enc.Close()
		db.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	s.logger.Debug("history store opened", zap.String("driver", driver))
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	s.dec.Close()
	if err := s.enc.Close(); err != nil {
		s.logger.Warn("closing zstd encoder", zap.Error(err))
	}
	return s.db.Close()
}

// Record stores an evaluation for candidate and returns how it compares with
// the candidate's previous run. A zero info.Timestamp records the current
// time.
func (s *Store) Record(ctx context.Context, candidate string, info models.RunInfo, res *models.EvaluationResult) (Trend, error) {
	if candidate == "" {
		return Trend{}, errors.New("candidate is required to record history")
	}

	report, err := json.Marshal(res)
	if err != nil {
		return Trend{}, fmt.Errorf("marshaling report: %w", err)
	}

	created := info.Timestamp
	if created.IsZero() {
		created = time.Now()
	}

	row := runRow{
		ID:             uuid.NewString(),
		Candidate:      candidate,
		Submission:     info.Submission,
		TotalScore:     res.TotalScore,
		MaxScore:       res.MaxScore,
		Recommendation: string(res.Band),
		DurationMs:     info.DurationMs,
		CreatedAt:      created.UTC().Format(timeLayout),
		Report:         s.enc.EncodeAll(report, nil),
	}
	if info.Quick {
		row.Quick = 1
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Trend{}, fmt.Errorf("starting history transaction: %w", err)
	}
	defer tx.Rollback()

	var previous *int
	var last int
	q := tx.Rebind(`SELECT total_score FROM runs WHERE candidate = ? ORDER BY created_at DESC LIMIT 1`)
	switch err := tx.GetContext(ctx, &last, q, candidate); {
	case err == nil:
		previous = &last
	case errors.Is(err, sql.ErrNoRows):
	default:
		return Trend{}, fmt.Errorf("reading previous run: %w", err)
	}

	if _, err := tx.NamedExecContext(ctx, insertRun, row); err != nil {
		return Trend{}, fmt.Errorf("inserting run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Trend{}, fmt.Errorf("committing run: %w", err)
	}

	trend := NewTrend(previous, res.TotalScore)
	s.logger.Debug("run recorded",
		zap.String("id", row.ID),
		zap.String("candidate", candidate),
		zap.Int("score", res.TotalScore),
		zap.String("trend", string(trend.Label)))
	return trend, nil
}

// List returns the most recent runs, newest first. An empty candidate lists
// runs for everyone.
func (s *Store) List(ctx context.Context, candidate string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	args := []any{}
	if candidate != "" {
		query += ` WHERE candidate = ?`
		args = append(args, candidate)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		run, err := r.toRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Get loads a run and its full stored report.
func (s *Store) Get(ctx context.Context, id string) (*Report, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+runColumns+`, report FROM runs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading run %s: %w", id, err)
	}

	run, err := row.toRun()
	if err != nil {
		return nil, err
	}

	data, err := s.dec.DecodeAll(row.Report, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing run %s: %w", id, err)
	}

	var res models.EvaluationResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding run %s: %w", id, err)
	}
	return &Report{Run: run, Result: &res}, nil
}
