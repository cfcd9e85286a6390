package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streamql/internal/config"
	"github.com/roach88/streamql/internal/ir"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(id string, seq int64) Run {
	return Run{
		ID:              id,
		Seq:             seq,
		FrontendVersion: ir.FrontendVersion,
		IRVersion:       ir.IRVersion,
		Config:          config.Default(),
	}
}

func testParse(runID string, seq int64, text string) Parse {
	return Parse{
		RunID:       runID,
		Seq:         seq,
		ID:          "parse-" + text,
		Dialect:     "sql",
		Charset:     "unified",
		Text:        text,
		Outcome:     "ok",
		Fingerprint: "fp-" + text,
		AST:         `{"q":"` + text + `"}`,
	}
}

func TestOpenPragmas(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteRun(ctx, testRun("r1", 1)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.ReadRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	assert.Error(t, err)
}

func TestCloseNil(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}
