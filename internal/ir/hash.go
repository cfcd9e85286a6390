package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the encoding to change later.
const (
	DomainQuery = "streamql/query/v1"
	DomainParse = "streamql/parse/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The separator keeps
// the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalJSON returns the canonical JSON encoding of q.
func CanonicalJSON(q *Query) ([]byte, error) {
	doc, err := Encode(q)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(doc)
}

// Fingerprint identifies q by content. Two queries have the same
// fingerprint exactly when their ASTs are equal, whatever dialect or
// formatting produced them.
func Fingerprint(q *Query) (string, error) {
	canonical, err := CanonicalJSON(q)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: %w", err)
	}
	return hashWithDomain(DomainQuery, canonical), nil
}

// ParseID identifies one parse request: the dialect, the identifier charset
// and the exact query text.
func ParseID(dialect, charset, text string) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"dialect": dialect,
		"charset": charset,
		"text":    text,
	})
	if err != nil {
		return "", fmt.Errorf("ParseID: %w", err)
	}
	return hashWithDomain(DomainParse, canonical), nil
}
