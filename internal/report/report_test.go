// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/toeirei/ppkconv/internal/convert"
	"github.com/toeirei/ppkconv/internal/keyerr"
)

func sampleBatch() *convert.BatchResult {
	return &convert.BatchResult{
		Items: []convert.ItemResult{
			{Name: "a.ppk", Direction: convert.ToOpenSSH, KeyType: "ssh-ed25519", Fingerprint: "SHA256:abc", Output: []byte("secret"), Duration: 1500 * time.Millisecond},
			{Name: "b.ppk", Err: keyerr.Integrity("MAC mismatch")},
			{Name: "c.ppk", Err: context.Canceled},
			{Name: "d.ppk", Err: errors.New("boom")},
		},
		Succeeded: 1,
		Failed:    3,
	}
}

func TestFromBatch(t *testing.T) {
	rep := FromBatch(sampleBatch(), "1.2.3", map[string]string{"a.ppk": "out/a"})
	if rep.Tool != "ppkconv" || rep.Version != "1.2.3" || rep.Succeeded != 1 || rep.Failed != 3 {
		t.Fatalf("unexpected header %+v", rep)
	}
	want := []string{"", keyerr.KindIntegrity, keyerr.KindCanceled, keyerr.KindInternal}
	for i, e := range rep.Entries {
		if e.ErrorKind != want[i] {
			t.Errorf("entry %d kind = %q, want %q", i, e.ErrorKind, want[i])
		}
	}
	if rep.Entries[0].Output != "out/a" || rep.Entries[0].DurationMS != 1500 {
		t.Fatalf("unexpected first entry %+v", rep.Entries[0])
	}
}

func TestWriteOmitsKeyMaterial(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FromBatch(sampleBatch(), "dev", nil), false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "secret") {
		t.Fatal("report contains converted output")
	}
	if !strings.Contains(out, `"error_kind": "integrity"`) {
		t.Fatalf("missing error kind:\n%s", out)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"report.json", "report.json.zst"} {
		path := filepath.Join(dir, name)
		rep := FromBatch(sampleBatch(), "dev", nil)
		if err := WriteFile(path, rep); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if compressed := !bytes.HasPrefix(raw, []byte("{")); compressed != strings.HasSuffix(name, ".zst") {
			t.Fatalf("%s: compressed=%t", name, compressed)
		}
		back, err := ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", name, err)
		}
		if len(back.Entries) != 4 || back.Entries[1].Error != rep.Entries[1].Error {
			t.Fatalf("%s: report changed on disk: %+v", name, back)
		}
	}
}
