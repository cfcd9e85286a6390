package compiler

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streamql/internal/config"
	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/lexer"
	"github.com/roach88/streamql/internal/peg"
)

func TestParseDialect(t *testing.T) {
	for _, name := range []string{"sql", "SQL", "DataFrame", "stream"} {
		d, err := ParseDialect(name)
		require.NoError(t, err, name)
		assert.True(t, strings.EqualFold(name, string(d)))
	}
	_, err := ParseDialect("pest")
	assert.Error(t, err)
}

func TestDialectsAgree(t *testing.T) {
	texts := map[Dialect]string{
		SQL: "select region, sum(amount) as total from sales where amount > 10 " +
			"group by region having count(*) > 2 order by region desc limit 5",
		Stream: "from sales where amount > 10 group region { count(*) > 2 } " +
			"select region, sum(amount) as total order region desc limit 5",
		DataFrame: `sales.filter("amount > 10").groupby(region).agg(sum(amount) as total)` +
			`.having("count(*) > 2").sort(region desc).limit(5)`,
	}

	want, err := Compile(SQL, texts[SQL])
	require.NoError(t, err)
	for _, d := range Dialects {
		got, err := Compile(d, texts[d])
		require.NoError(t, err, d)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s differs from sql (-sql +%s):\n%s", d, d, diff)
		}
	}

	fp, err := ir.Fingerprint(want)
	require.NoError(t, err)
	for _, d := range Dialects {
		q, _ := Compile(d, texts[d])
		got, err := ir.Fingerprint(q)
		require.NoError(t, err)
		assert.Equal(t, fp, got, d)
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	const text = "select a + b * c from t where x = 0 or y = 1 and z is null"
	first, err := Compile(SQL, text)
	require.NoError(t, err)
	want, err := ir.CanonicalJSON(first)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q, err := Compile(SQL, text)
			if err != nil {
				return
			}
			results[i], _ = ir.CanonicalJSON(q)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, string(want), string(r))
	}
}

func TestCompileOptions(t *testing.T) {
	_, err := Compile(SQL, "select * from t", WithLimits(config.Limits{MaxInputBytes: 4}))
	assert.Equal(t, OutcomeLimit, Outcome(err))

	_, err = Compile(SQL, "select a from T", WithCharset(lexer.Lowercase))
	assert.Equal(t, OutcomeSyntax, Outcome(err))

	c := config.Default()
	c.Charset = "lowercase"
	opts, err := FromConfig(c)
	require.NoError(t, err)
	_, err = Compile(Stream, "from T select *", opts...)
	assert.Equal(t, OutcomeSyntax, Outcome(err))

	c.Charset = "ebcdic"
	_, err = FromConfig(c)
	assert.Error(t, err)
}

func TestCompileDepthCeiling(t *testing.T) {
	n := peg.CeilingMaxDepth + 1
	text := "select a from t where " + strings.Repeat("(", n) + "a = 1" + strings.Repeat(")", n)

	_, err := Compile(SQL, text, WithLimits(config.Limits{MaxDepth: 100000000, MaxInputBytes: 100000000}))
	var le *peg.LimitError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, peg.LimitDepth, le.Limit)
	assert.Equal(t, peg.CeilingMaxDepth, le.Max)
}

func TestCompileRejectsNumberGluedToWord(t *testing.T) {
	_, err := Compile(SQL, "select 1abc from t")
	var se *peg.SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 7, se.Pos.Offset)

	q, err := Compile(SQL, "select 1 abc from t")
	require.NoError(t, err, "an alias needs a space")
	assert.Equal(t, "abc", q.Projection.Items[0].Alias)
}

func TestCompileLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Compile(Stream, "from t", WithLogger(logger))
	require.Error(t, err)
	out := buf.String()
	assert.Contains(t, out, "dialect=stream")
	assert.Contains(t, out, "outcome=structural_error")
}

func TestCompileUnknownDialect(t *testing.T) {
	_, err := Compile("cobol", "select * from t")
	require.Error(t, err)
	assert.Equal(t, OutcomeOther, Outcome(err))
	_, err = ParseTree("cobol", "x")
	assert.Error(t, err)
}

func TestOutcomeAndCode(t *testing.T) {
	tests := []struct {
		d       Dialect
		text    string
		outcome string
		code    string
	}{
		{SQL, "select * from t", OutcomeOK, ""},
		{SQL, "select from where", OutcomeSyntax, ""},
		{SQL, "select * from t group by max(a)", OutcomeStructural, peg.ErrGroupKeyNotColumn},
		{DataFrame, "t.offset(1)", OutcomeStructural, peg.ErrOffsetWithoutLimit},
		{Stream, "from t select * where (", OutcomeSyntax, ""},
	}

	for _, tt := range tests {
		_, err := Compile(tt.d, tt.text)
		assert.Equal(t, tt.outcome, Outcome(err), tt.text)
		assert.Equal(t, tt.code, ErrorCode(err), tt.text)
	}
}

func TestParseTree(t *testing.T) {
	n, err := ParseTree(DataFrame, `t.filter("not valid (").select(a)`)
	require.NoError(t, err)
	assert.Equal(t, peg.Rule("query"), n.Rule)
	assert.Len(t, n.Kids, 3)
}
