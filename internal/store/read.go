package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

const parseColumns = `run_id, seq, id, dialect, charset, text, outcome, error_code, error, fingerprint, ast`

// ReadRun returns the run with the given ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, frontend_version, ir_version, config
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, errors.Wrapf(ErrNotFound, "run %s", id)
	}
	return run, errors.Wrap(err, "read run")
}

// ReadRuns returns every run in seq order.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, frontend_version, ir_version, config
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "read runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "read runs")
		}
		runs = append(runs, run)
	}
	return runs, errors.Wrap(rows.Err(), "read runs")
}

// ReadParses returns the parses of a run in seq order.
func (s *Store) ReadParses(ctx context.Context, runID string) ([]Parse, error) {
	return s.queryParses(ctx, `
		SELECT `+parseColumns+` FROM parses
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
}

// ReadParsesByFingerprint returns every successful parse whose AST has the
// given fingerprint, across runs, in seq order.
func (s *Store) ReadParsesByFingerprint(ctx context.Context, fingerprint string) ([]Parse, error) {
	return s.queryParses(ctx, `
		SELECT `+parseColumns+` FROM parses
		WHERE fingerprint = ? AND outcome = 'ok'
		ORDER BY seq ASC, run_id COLLATE BINARY ASC
	`, fingerprint)
}

// LastSeq returns the highest seq in the log, or 0 when it is empty.
// A clock resumed at LastSeq never reuses a number.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT MAX(seq) FROM runs), 0),
			COALESCE((SELECT MAX(seq) FROM parses), 0)
		)
	`).Scan(&seq)
	return seq, errors.Wrap(err, "last seq")
}

func (s *Store) queryParses(ctx context.Context, query string, args ...any) ([]Parse, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "read parses")
	}
	defer rows.Close()

	var parses []Parse
	for rows.Next() {
		var p Parse
		if err := rows.Scan(
			&p.RunID, &p.Seq, &p.ID, &p.Dialect, &p.Charset, &p.Text,
			&p.Outcome, &p.ErrorCode, &p.Error, &p.Fingerprint, &p.AST,
		); err != nil {
			return nil, errors.Wrap(err, "scan parse")
		}
		parses = append(parses, p)
	}
	return parses, errors.Wrap(rows.Err(), "read parses")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run Run
		cfg string
	)
	if err := row.Scan(&run.ID, &run.Seq, &run.FrontendVersion, &run.IRVersion, &cfg); err != nil {
		return Run{}, err
	}
	c, err := unmarshalConfig(cfg)
	if err != nil {
		return Run{}, err
	}
	run.Config = c
	return run, nil
}
