// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// Package report writes machine-readable summaries of batch conversions.
// A report never contains key material, only names, fingerprints and
// error classifications.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/toeirei/ppkconv/internal/convert"
	"github.com/toeirei/ppkconv/internal/keyerr"
)

// Entry is one converted (or failed) input.
type Entry struct {
	Name        string `json:"name"`
	Direction   string `json:"direction,omitempty"`
	KeyType     string `json:"key_type,omitempty"`
	Comment     string `json:"comment,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Output      string `json:"output,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
	Error       string `json:"error,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

// Report is the top-level document.
type Report struct {
	Tool      string    `json:"tool"`
	Version   string    `json:"version"`
	Generated time.Time `json:"generated"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Entries   []Entry   `json:"entries"`
}

// FromBatch builds a report. outputs maps item names to the path the
// converted file was written to, if any.
func FromBatch(res *convert.BatchResult, version string, outputs map[string]string) *Report {
	rep := &Report{
		Tool:      "ppkconv",
		Version:   version,
		Generated: time.Now().UTC(),
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Entries:   make([]Entry, 0, len(res.Items)),
	}
	for _, it := range res.Items {
		e := Entry{
			Name:        it.Name,
			Direction:   string(it.Direction),
			KeyType:     it.KeyType,
			Comment:     it.Comment,
			Fingerprint: it.Fingerprint,
			Output:      outputs[it.Name],
			DurationMS:  it.Duration.Milliseconds(),
		}
		if it.Err != nil {
			e.ErrorKind = keyerr.KindOf(it.Err)
			e.Error = it.Err.Error()
		}
		rep.Entries = append(rep.Entries, e)
	}
	return rep
}

// Write encodes rep as indented JSON, zstd-compressed if compress is set.
func Write(w io.Writer, rep *Report, compress bool) error {
	if !compress {
		return encode(w, rep)
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}
	if err := encode(zw, rep); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

func encode(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("could not encode report: %w", err)
	}
	return nil
}

// WriteFile writes rep to path. A ".zst" suffix selects compression.
func WriteFile(path string, rep *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create report file: %w", err)
	}
	if err := Write(f, rep, isCompressed(path)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a report written by WriteFile.
func ReadFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open report file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if isCompressed(path) {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("could not create zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("could not decode report: %w", err)
	}
	return &rep, nil
}

func isCompressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}
