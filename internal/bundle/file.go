package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	bundleSuffix = ".bundle.json"
	hashSuffix   = ".sha256"
)

// Written records where a bundle and its hash sidecar were stored.
type Written struct {
	BundlePath string
	HashPath   string
	Hash       string
}

// FileStem derives a filesystem-safe name from an address (first 20 characters).
func FileStem(address string) string {
	runes := []rune(strings.TrimSpace(address))
	if len(runes) > 20 {
		runes = runes[:20]
	}
	stem := strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_").Replace(string(runes))
	if stem == "" {
		return "bundle"
	}
	return stem
}

// SidecarPath returns the hash file that accompanies a bundle file.
func SidecarPath(bundlePath string) string {
	if strings.HasSuffix(bundlePath, bundleSuffix) {
		return strings.TrimSuffix(bundlePath, bundleSuffix) + hashSuffix
	}
	return strings.TrimSuffix(bundlePath, filepath.Ext(bundlePath)) + hashSuffix
}

// WriteFiles stores the bundle as indented JSON and its hash as "<hex>\n", each written atomically.
func WriteFiles(dir, stem string, b Bundle) (Written, error) {
	hash, err := Hash(b)
	if err != nil {
		return Written{}, err
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return Written{}, fmt.Errorf("marshal bundle: %w", err)
	}

	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Written{}, fmt.Errorf("create reports dir: %w", err)
		}
	}

	out := Written{
		BundlePath: filepath.Join(dir, stem+bundleSuffix),
		Hash:       hash,
	}
	out.HashPath = SidecarPath(out.BundlePath)

	if err := writeAtomic(out.BundlePath, append(data, '\n')); err != nil {
		return Written{}, err
	}
	if err := writeAtomic(out.HashPath, []byte(hash+"\n")); err != nil {
		return Written{}, err
	}
	return out, nil
}

func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a bundle written by WriteFiles.
func ReadFile(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("read bundle: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return Bundle{}, fmt.Errorf("parse bundle: %w", err)
	}
	return b, nil
}

type Outcome int

const (
	OutcomeMatch Outcome = iota
	OutcomeMismatch
	OutcomeNoExpected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatch:
		return "OK"
	case OutcomeMismatch:
		return "MISMATCH"
	default:
		return "NO_EXPECTED_HASH"
	}
}

// FileVerification is the result of checking a bundle file against its sidecar.
type FileVerification struct {
	Verification
	Outcome  Outcome
	HashPath string
}

// VerifyFile recomputes the hash of the bundle at path and compares it with the sidecar.
// A missing or empty sidecar yields OutcomeNoExpected rather than an error.
func VerifyFile(path string) (FileVerification, error) {
	b, err := ReadFile(path)
	if err != nil {
		return FileVerification{}, err
	}

	hashPath := SidecarPath(path)
	expected, err := os.ReadFile(hashPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return FileVerification{}, fmt.Errorf("read hash file: %w", err)
	}

	v, err := Verify(b, string(expected))
	if err != nil {
		return FileVerification{}, err
	}

	out := FileVerification{Verification: v, HashPath: hashPath}
	switch {
	case v.Expected == "":
		out.Outcome = OutcomeNoExpected
	case v.Matches:
		out.Outcome = OutcomeMatch
	default:
		out.Outcome = OutcomeMismatch
	}
	return out, nil
}
