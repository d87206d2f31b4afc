package bundle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Canonicalize renders v as compact JSON with every object's keys sorted.
// Array order and number text are preserved.
func Canonicalize(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("bundle: canonicalize: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree interface{}
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("bundle: canonicalize: %w", err)
	}

	// encoding/json writes map keys in sorted order.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("bundle: canonicalize: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Hash returns the lowercase hex SHA-256 of the bundle's canonical form.
// The creation timestamp is part of the hashed content.
func Hash(b Bundle) (string, error) {
	canonical, err := Canonicalize(b)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Verification is the outcome of comparing a bundle against an expected hash.
type Verification struct {
	Computed string `json:"bundle_hash"`
	Expected string `json:"expected_hash"`
	Matches  bool   `json:"matches"`
}

// Verify recomputes the hash and compares it, ignoring case and surrounding whitespace.
func Verify(b Bundle, expected string) (Verification, error) {
	computed, err := Hash(b)
	if err != nil {
		return Verification{}, err
	}
	want := strings.ToLower(strings.TrimSpace(expected))
	return Verification{
		Computed: computed,
		Expected: want,
		Matches:  want != "" && computed == want,
	}, nil
}
