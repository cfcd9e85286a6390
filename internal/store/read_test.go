package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRunsOrderedBySeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, testRun("b", 5)))
	require.NoError(t, s.WriteRun(ctx, testRun("a", 5)))
	require.NoError(t, s.WriteRun(ctx, testRun("c", 1)))

	runs, err := s.ReadRuns(ctx)
	require.NoError(t, err)
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestReadParsesOrderedBySeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, testRun("r1", 1)))
	require.NoError(t, s.WriteRun(ctx, testRun("r2", 10)))

	for _, p := range []Parse{
		testParse("r1", 4, "c"),
		testParse("r1", 2, "a"),
		testParse("r2", 11, "x"),
		testParse("r1", 3, "b"),
	} {
		require.NoError(t, s.WriteParse(ctx, p))
	}

	got, err := s.ReadParses(ctx, "r1")
	require.NoError(t, err)
	texts := make([]string, len(got))
	for i, p := range got {
		texts[i] = p.Text
	}
	assert.Equal(t, []string{"a", "b", "c"}, texts)

	empty, err := s.ReadParses(ctx, "none")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReadParsesByFingerprint(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, testRun("r1", 1)))
	require.NoError(t, s.WriteRun(ctx, testRun("r2", 3)))

	p1 := testParse("r1", 2, "a")
	p2 := testParse("r2", 4, "a")
	p2.Dialect = "stream"
	other := testParse("r2", 5, "b")
	failed := testParse("r2", 6, "a")
	failed.Outcome = "limit_error"
	for _, p := range []Parse{p2, other, failed, p1} {
		require.NoError(t, s.WriteParse(ctx, p))
	}

	got, err := s.ReadParsesByFingerprint(ctx, "fp-a")
	require.NoError(t, err)
	assert.Equal(t, []Parse{p1, p2}, got, "failed parses are not matched")

	none, err := s.ReadParsesByFingerprint(ctx, "fp-missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLastSeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.WriteRun(ctx, testRun("r1", 1)))
	require.NoError(t, s.WriteParse(ctx, testParse("r1", 6, "a")))
	require.NoError(t, s.WriteRun(ctx, testRun("r2", 3)))

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), seq)
}
