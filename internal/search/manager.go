// Package search implements the Search Manager (spec.md §4.3), grounded
// on haricheung-agentic-shell's internal/tools/glob.go (filepath.WalkDir
// + filepath.Match) extended with a regex content grep, both bounded by a
// configurable row cap with a truncation marker.
package search

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// GrepRow is one matching line.
type GrepRow struct {
	File string
	Line int
	Text string
}

// Manager bounds grep/glob results at Limit rows.
type Manager struct {
	Limit int
}

// New builds a Manager with the given row cap.
func New(limit int) *Manager {
	return &Manager{Limit: limit}
}

// Grep searches file contents under root for pattern (regex), optionally
// filtered by an include filename glob.
func (m *Manager) Grep(pattern, root, include string) ([]GrepRow, bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false, fmt.Errorf("invalid regex: %w", err)
	}
	if root == "" {
		root = "."
	}

	var rows []GrepRow
	truncated := false

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if d.IsDir() {
			return nil
		}
		if include != "" {
			if matched, _ := filepath.Match(include, d.Name()); !matched {
				return nil
			}
		}
		if truncated {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if re.MatchString(line) {
				if len(rows) >= m.Limit {
					truncated = true
					return nil
				}
				rows = append(rows, GrepRow{File: path, Line: lineNo, Text: line})
			}
		}
		return nil
	})
	if walkErr != nil {
		return nil, false, walkErr
	}
	return rows, truncated, nil
}

// Glob returns absolute paths matching a shell-style glob under root.
func (m *Manager) Glob(pattern, root string) ([]string, bool, error) {
	if root == "" {
		root = "."
	}
	if strings.HasPrefix(root, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			root = home + strings.TrimPrefix(root, "~")
		}
	}

	var matches []string
	truncated := false
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if truncated {
			return nil
		}
		if matched, _ := filepath.Match(pattern, d.Name()); matched {
			if len(matches) >= m.Limit {
				truncated = true
				return nil
			}
			abs, absErr := filepath.Abs(path)
			if absErr != nil {
				abs = path
			}
			matches = append(matches, abs)
		}
		return nil
	})
	return matches, truncated, err
}

// FormatGrep renders grep rows for the environment output tag.
func FormatGrep(rows []GrepRow, truncated bool) string {
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s:%d:%s\n", r.File, r.Line, r.Text)
	}
	if truncated {
		b.WriteString("...[truncated]...\n")
	}
	return b.String()
}

// FormatGlob renders glob matches for the environment output tag.
func FormatGlob(paths []string, truncated bool) string {
	out := strings.Join(paths, "\n")
	if truncated {
		out += "\n...[truncated]..."
	}
	return out
}
