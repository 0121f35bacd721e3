// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/toeirei/ppkconv/internal/keyerr"
)

func TestWriteOutputsModes(t *testing.T) {
	dir := t.TempDir()
	priv, pub := filepath.Join(dir, "k"), filepath.Join(dir, "k.pub")
	err := writeOutputs([]outputFile{
		{path: priv, data: []byte("private"), mode: privateFileMode},
		{path: pub, data: []byte("public"), mode: publicFileMode},
	}, false)
	if err != nil {
		t.Fatalf("writeOutputs: %v", err)
	}
	for path, want := range map[string]os.FileMode{priv: privateFileMode, pub: publicFileMode} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != want {
			t.Fatalf("%s mode = %v, want %v", path, info.Mode().Perm(), want)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestWriteOutputsRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "k")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	err := writeOutputs([]outputFile{{path: path, data: []byte("new"), mode: privateFileMode}}, false)
	if !errors.Is(err, keyerr.ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if got, _ := os.ReadFile(path); string(got) != "old" {
		t.Fatalf("existing file changed to %q", got)
	}
}

func TestWriteOutputsRollsBack(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "k")
	fresh := filepath.Join(dir, "k2")
	if err := os.WriteFile(existing, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	err := writeOutputs([]outputFile{
		{path: existing, data: []byte("new"), mode: privateFileMode},
		{path: fresh, data: []byte("new"), mode: privateFileMode},
		{path: filepath.Join(dir, "missing", "k.pub"), data: []byte("pub"), mode: publicFileMode},
	}, true)
	if err == nil {
		t.Fatal("expected an error writing into a missing directory")
	}
	if got, _ := os.ReadFile(existing); string(got) != "old" {
		t.Fatalf("existing file not restored: %q", got)
	}
	if _, err := os.Stat(fresh); !os.IsNotExist(err) {
		t.Fatal("new file not removed on rollback")
	}
}
