package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuery() *Query {
	return &Query{
		Scan: Scan{Source: ScanSource{Stream: "orders", Alias: "o"}},
		Filter: Comparison{
			Left:  Column{Ref: ColumnRef{Qualifier: "o", Name: "amount"}},
			Op:    OpGt,
			Right: Literal{Value: MustDecimal("10.50")},
		},
		Projection: Projection{Star: true},
	}
}

func TestFingerprintDeterminism(t *testing.T) {
	f1, err := Fingerprint(sampleQuery())
	require.NoError(t, err)
	f2, err := Fingerprint(sampleQuery())
	require.NoError(t, err)

	assert.Equal(t, f1, f2)
	assert.Len(t, f1, 64, "SHA-256 hex is 64 characters")
}

func TestFingerprintChangesWithContent(t *testing.T) {
	base, err := Fingerprint(sampleQuery())
	require.NoError(t, err)

	q := sampleQuery()
	q.Projection.Distinct = true
	changed, err := Fingerprint(q)
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)

	q = sampleQuery()
	q.Scan.Source.Alias = ""
	changed, err = Fingerprint(q)
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)
}

func TestFingerprintIgnoresDecimalTrailingZeros(t *testing.T) {
	a := sampleQuery()
	b := sampleQuery()
	b.Filter = Comparison{
		Left:  Column{Ref: ColumnRef{Qualifier: "o", Name: "amount"}},
		Op:    OpGt,
		Right: Literal{Value: MustDecimal("10.5")},
	}

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
}

func TestFingerprintRejectsIncompleteQuery(t *testing.T) {
	_, err := Fingerprint(&Query{Projection: Projection{Star: true}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither stream nor subquery")
}

func TestHashWithDomainNullSeparator(t *testing.T) {
	h := sha256.New()
	h.Write([]byte("d"))
	h.Write([]byte{0x00})
	h.Write([]byte("x"))
	assert.Equal(t, hex.EncodeToString(h.Sum(nil)), hashWithDomain("d", []byte("x")))

	// Moving bytes across the boundary changes the hash.
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestParseIDSeparatesInputs(t *testing.T) {
	a, err := ParseID("sql", "unified", "select * from t")
	require.NoError(t, err)
	b, err := ParseID("stream", "unified", "select * from t")
	require.NoError(t, err)
	c, err := ParseID("sql", "lowercase", "select * from t")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, hashWithDomain(DomainQuery, []byte("select * from t")))
}
