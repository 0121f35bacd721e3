// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/toeirei/ppkconv/internal/keyerr"
	"github.com/toeirei/ppkconv/internal/logging"
	"github.com/toeirei/ppkconv/internal/openssh"
	"github.com/toeirei/ppkconv/internal/ppk"
)

// Direction is the conversion applied to a batch item.
type Direction string

const (
	ToOpenSSH Direction = "ppk-to-openssh"
	ToPPK     Direction = "openssh-to-ppk"
)

// DetectDirection picks the conversion for data by looking at its header.
func DetectDirection(data []byte) (Direction, error) {
	switch {
	case ppk.IsPPK(data):
		return ToOpenSSH, nil
	case openssh.IsOpenSSH(data), isLegacyPEM(data):
		return ToPPK, nil
	}
	return "", keyerr.Formatf("header", "neither a PPK file nor a PEM private key")
}

// Item is one input of a batch.
type Item struct {
	Name string
	Data []byte
}

// ItemResult is the outcome of one item. Output holds the converted file
// when Err is nil.
type ItemResult struct {
	Name          string
	Direction     Direction
	KeyType       string
	Comment       string
	Fingerprint   string
	PublicKeyLine string
	Output        []byte
	Err           error
	Duration      time.Duration
}

// BatchOptions configure RunBatch.
type BatchOptions struct {
	// Workers bounds the number of concurrent conversions. Zero or less
	// uses the number of CPUs.
	Workers int
	// SourcePassphrase decrypts encrypted inputs of either format.
	SourcePassphrase []byte
	// OutputPassphrase encrypts PPK outputs when non-empty.
	OutputPassphrase []byte
	// PPKVersion is the version of PPK outputs; zero means DefaultPPKVersion.
	PPKVersion int
	Options    []Option
}

// BatchResult collects per-item results in input order.
type BatchResult struct {
	Items     []ItemResult
	Succeeded int
	Failed    int
}

// RunBatch converts every item independently. A failing item is recorded on
// its own result and never stops the others. The context is checked before
// each item starts; items not started when it is done fail with its error.
func RunBatch(ctx context.Context, items []Item, opts BatchOptions) *BatchResult {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	res := &BatchResult{Items: make([]ItemResult, len(items))}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, item := range items {
		out := &res.Items[i]
		out.Name = item.Name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out.Err = err
				logging.Debugf("batch: %s skipped: %v", item.Name, err)
				return nil
			}
			start := time.Now()
			convertItem(item, opts, out)
			out.Duration = time.Since(start)
			if out.Err != nil {
				logging.Debugf("batch: %s failed (%s): %v", item.Name, keyerr.KindOf(out.Err), out.Err)
			} else {
				logging.Debugf("batch: %s converted %s in %s", item.Name, out.Direction, out.Duration)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range res.Items {
		if r.Err != nil {
			res.Failed++
		} else {
			res.Succeeded++
		}
	}
	return res
}

func convertItem(item Item, opts BatchOptions, out *ItemResult) {
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("internal error converting %s: %v", item.Name, r)
		}
	}()

	dir, err := DetectDirection(item.Data)
	if err != nil {
		out.Err = err
		return
	}
	out.Direction = dir

	switch dir {
	case ToOpenSSH:
		r, err := PPKToOpenSSH(item.Data, opts.SourcePassphrase, opts.Options...)
		if err != nil {
			out.Err = err
			return
		}
		out.KeyType, out.Comment, out.Fingerprint = r.KeyType, r.Comment, r.Fingerprint
		out.PublicKeyLine = r.PublicKeyLine
		out.Output = []byte(r.PrivateKeyPEM)
	case ToPPK:
		r, err := OpenSSHToPPK(item.Data, opts.SourcePassphrase, opts.OutputPassphrase, opts.PPKVersion, opts.Options...)
		if err != nil {
			out.Err = err
			return
		}
		out.KeyType, out.Comment, out.Fingerprint = r.KeyType, r.Comment, r.Fingerprint
		out.PublicKeyLine = r.PublicKeyLine
		out.Output = []byte(r.PPKText)
	}
}

func isLegacyPEM(data []byte) bool {
	i := bytes.Index(data, []byte("-----BEGIN "))
	return i >= 0 && bytes.Contains(data[i:], []byte("PRIVATE KEY-----"))
}
