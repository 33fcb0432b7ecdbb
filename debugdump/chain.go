package debugdump

// Helper to write exchange chain captures for diagnosing federated sign-in failures

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// CaptureVersion is the document version written by this package
const CaptureVersion = 1

// StageRecord describes one stage of an exchange chain run
type StageRecord struct {
	Stage      string `yaml:"stage"`
	StartedAt  string `yaml:"startedAt"`
	DurationMs int64  `yaml:"durationMs"`
	Outcome    string `yaml:"outcome"`
	Token      string `yaml:"token,omitempty"`
	Error      string `yaml:"error,omitempty"`
}

// ChainCapture is the root document for one exchange chain run
type ChainCapture struct {
	Version    int           `yaml:"version"`
	CapturedAt string        `yaml:"capturedAt"`
	Mode       string        `yaml:"mode"`
	Stages     []StageRecord `yaml:"stages"`
	Slot       string        `yaml:"slot,omitempty"`
}

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

var rotateSeq atomic.Uint64

// RedactToken replaces a secret with a marker that only reveals its length.
func RedactToken(tok string) string {
	if tok == "" {
		return ""
	}
	return fmt.Sprintf("<redacted %d bytes>", len(tok))
}

// ResolvePath ensures a sane default location and extension for the capture file.
// If path is empty, use logs/exchange-chain.yaml. A bare file name goes under logs/.
func ResolvePath(in string) string {
	p := strings.TrimSpace(in)
	if p == "" {
		p = filepath.Join("logs", "exchange-chain.yaml")
	}
	if !filepath.IsAbs(p) && filepath.Dir(p) == "." {
		p = filepath.Join("logs", p)
	}
	// If no extension, default to .yaml. If extension is present (even if non-yaml), keep as provided.
	if filepath.Ext(p) == "" {
		p += ".yaml"
	}
	return filepath.Clean(filepath.FromSlash(p))
}

// WriteCapture writes the capture atomically to path
func WriteCapture(path string, c ChainCapture) error {
	return writeYAMLAtomic(path, c)
}

// WriteCaptureRotating writes the capture next to base as <stem>-<timestamp>-<seq><ext>
// and prunes all but the newest keepN such files. keepN <= 0 keeps everything.
func WriteCaptureRotating(base string, keepN int, c ChainCapture) error {
	dir := filepath.Dir(base)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(filepath.Base(base), ext)

	name := fmt.Sprintf("%s-%s-%06d%s", stem,
		time.Now().UTC().Format("20060102T150405.000000000"),
		rotateSeq.Add(1)%1_000_000, ext)
	if err := writeYAMLAtomic(filepath.Join(dir, name), c); err != nil {
		return err
	}
	if keepN <= 0 {
		return nil
	}
	return prune(dir, stem+"-", ext, keepN)
}

func prune(dir, prefix, ext string, keepN int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list captures: %w", err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasPrefix(n, prefix) && filepath.Ext(n) == ext {
			names = append(names, n)
		}
	}
	if len(names) <= keepN {
		return nil
	}
	sort.Strings(names)
	var firstErr error
	for _, n := range names[:len(names)-keepN] {
		if err := os.Remove(filepath.Join(dir, n)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func writeYAMLAtomic(path string, doc any) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("empty path for exchange chain capture")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create capture dir: %w", err)
	}
	// Create temp file in same dir
	tmp, err := os.CreateTemp(dir, "chain-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	enc := yaml.NewEncoder(tmp)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil { // flush encoder
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close yaml encoder: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to move temp into place: %w", err)
	}
	return nil
}

// Now returns UTC RFC3339Nano time string for timestamps
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
