// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/toeirei/ppkconv/internal/logging"
)

const (
	privateFileMode = 0o600
	publicFileMode  = 0o644
)

// outputFile is one file to be written by writeOutputs.
type outputFile struct {
	path string
	data []byte
	mode os.FileMode
}

// writeOutputs writes every file through a temporary file and a rename.
// Existing files are refused unless overwrite is set. If any write fails,
// files already replaced are restored and new ones removed.
func writeOutputs(files []outputFile, overwrite bool) error {
	if !overwrite {
		for _, f := range files {
			if _, err := os.Lstat(f.path); err == nil {
				return usageErr("output.exists", f.path)
			}
		}
	}

	type undo struct {
		path   string
		backup []byte
		mode   os.FileMode
		had    bool
	}
	var done []undo
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			u := done[i]
			if !u.had {
				_ = os.Remove(u.path)
				continue
			}
			if err := writeAtomic(u.path, u.backup, u.mode); err != nil {
				logging.Errorf("could not restore %s: %v", u.path, err)
			}
		}
	}

	for _, f := range files {
		u := undo{path: f.path}
		if info, err := os.Stat(f.path); err == nil {
			if u.backup, err = os.ReadFile(f.path); err != nil {
				rollback()
				return fmt.Errorf("could not read existing %s: %w", f.path, err)
			}
			u.mode, u.had = info.Mode().Perm(), true
		}
		if err := writeAtomic(f.path, f.data, f.mode); err != nil {
			rollback()
			return err
		}
		done = append(done, u)
		logging.Debugf("wrote %s (%d bytes)", f.path, len(f.data))
	}
	return nil
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partial file.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("could not create temporary file in %s: %w", dir, err)
	}
	name := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			_ = tmp.Close()
			_ = os.Remove(name)
		}
	}()

	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("could not set mode on %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("could not sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		return fmt.Errorf("could not move %s into place: %w", path, err)
	}
	ok = true
	return nil
}
