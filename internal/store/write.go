package store

import (
	"context"

	"github.com/pkg/errors"
)

// WriteRun inserts a run. Writing the same ID again is a no-op.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	cfg, err := marshalConfig(run.Config)
	if err != nil {
		return errors.Wrap(err, "write run")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seq, frontend_version, ir_version, config)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Seq, run.FrontendVersion, run.IRVersion, cfg)
	return errors.Wrap(err, "write run")
}

// WriteParse inserts a parse record. The run must exist. Writing the same
// (RunID, Seq) again is a no-op.
func (s *Store) WriteParse(ctx context.Context, p Parse) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parses
		(run_id, seq, id, dialect, charset, text, outcome, error_code, error, fingerprint, ast)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		p.RunID,
		p.Seq,
		p.ID,
		p.Dialect,
		p.Charset,
		p.Text,
		p.Outcome,
		p.ErrorCode,
		p.Error,
		p.Fingerprint,
		p.AST,
	)
	return errors.Wrap(err, "write parse")
}
