// Copyright (c) 2026 Keymaster Team
// ppkconv - PuTTY and OpenSSH private key conversion
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks that every message ID the CLI translates exists in the
// primary locale, that the other locales define the same IDs, and reports
// IDs nothing refers to. Run it from the repository root:
//
//	go run ./tools/i18n-linter
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
)

var (
	// Calls whose first argument is always a message ID.
	callRe = regexp.MustCompile(`\b(?:i18n\.T|usageErr)\("([a-z0-9_]+\.[a-z0-9_.]+)"`)
	// Any literal shaped like a message ID, e.g. passed through a helper.
	literalRe = regexp.MustCompile(`"([a-z0-9_]+\.[a-z0-9_]+)"`)
)

// result is the outcome of one lint run.
type result struct {
	Undefined map[string][]string // used in calls, absent from the primary locale
	Missing   map[string][]string // locale file -> IDs it lacks
	Orphaned  []string
}

func (r *result) failed() bool {
	return len(r.Undefined) > 0 || len(r.Missing) > 0
}

func main() {
	res, err := lint(".", localesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "i18n-linter: %v\n", err)
		os.Exit(1)
	}
	report(res)
	if res.failed() {
		os.Exit(1)
	}
}

func report(r *result) {
	for _, id := range sortedKeys(r.Undefined) {
		fmt.Printf("undefined: %s (used in %s)\n", id, strings.Join(r.Undefined[id], ", "))
	}
	for _, file := range sortedKeys(r.Missing) {
		for _, id := range r.Missing[file] {
			fmt.Printf("missing:   %s in %s\n", id, file)
		}
	}
	for _, id := range r.Orphaned {
		fmt.Printf("orphaned:  %s\n", id)
	}
	if !r.failed() && len(r.Orphaned) == 0 {
		fmt.Println("all translation files are consistent")
	}
}

func lint(root, locales string) (*result, error) {
	called, literals, err := scanSources(root)
	if err != nil {
		return nil, err
	}
	primary, err := loadKeysFromLocale(filepath.Join(root, locales, primaryLocale))
	if err != nil {
		return nil, fmt.Errorf("loading primary locale: %w", err)
	}

	res := &result{Undefined: map[string][]string{}, Missing: map[string][]string{}}
	for id, where := range called {
		if _, ok := primary[id]; !ok {
			res.Undefined[id] = where
		}
	}
	for id := range primary {
		_, inCall := called[id]
		_, inLiteral := literals[id]
		if !inCall && !inLiteral {
			res.Orphaned = append(res.Orphaned, id)
		}
	}
	sort.Strings(res.Orphaned)

	files, err := filepath.Glob(filepath.Join(root, locales, "*.yaml"))
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if filepath.Base(file) == primaryLocale {
			continue
		}
		keys, err := loadKeysFromLocale(file)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", file, err)
		}
		var missing []string
		for id := range primary {
			if _, ok := keys[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			res.Missing[filepath.Base(file)] = missing
		}
	}
	return res, nil
}

// scanSources returns the IDs passed to translation calls, with the files
// using them, and every ID-shaped string literal in non-test Go files.
func scanSources(root string) (map[string][]string, map[string]struct{}, error) {
	called := map[string][]string{}
	literals := map[string]struct{}{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case "tools", "_examples", ".git":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, m := range callRe.FindAllStringSubmatch(string(content), -1) {
			called[m[1]] = appendOnce(called[m[1]], path)
		}
		for _, m := range literalRe.FindAllStringSubmatch(string(content), -1) {
			literals[m[1]] = struct{}{}
		}
		return nil
	})
	return called, literals, err
}

func appendOnce(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// loadKeysFromLocale reads a YAML file and returns a flat map of its keys.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

// flattenYAML converts a nested map into dot-separated keys.
func flattenYAML(prefix string, node any, keys map[string]struct{}) {
	switch v := node.(type) {
	case map[string]any:
		for k, val := range v {
			next := k
			if prefix != "" {
				next = prefix + "." + k
			}
			flattenYAML(next, val, keys)
		}
	default:
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
