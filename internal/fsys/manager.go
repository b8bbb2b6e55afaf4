// Package fsys implements the File Manager (spec.md §4.2), grounded on
// haricheung-agentic-shell's internal/tools/fileio.go (plain
// os.ReadFile/os.WriteFile) generalized to the full
// read/write/edit/multi_edit/metadata contract.
package fsys

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FileMeta is the metadata returned for one path by Metadata.
type FileMeta struct {
	Path     string
	Size     int64
	Mode     string
	ModTime  time.Time
	FileType string // "file" or "dir"; empty when Error is set
	Error    string
}

// The Kind* constants mirror the domain.ErrorKind values this package can
// produce, kept local so fsys does not import domain; callers map these
// strings onto domain.ErrorKind.
const (
	KindNotFound         = "NotFound"
	KindNotAFile         = "NotAFile"
	KindPermissionDenied = "PermissionDenied"
	KindMissingParent    = "MissingParent"
	KindInvalidPath      = "InvalidPath"
	KindAmbiguousEdit    = "AmbiguousEdit"
)

// OpError carries one of the Kind* values alongside a human message.
type OpError struct {
	Kind    string
	Message string
}

func (e *OpError) Error() string { return e.Message }

func checkAbsolute(path string) error {
	if !filepath.IsAbs(path) {
		return &OpError{Kind: KindInvalidPath, Message: fmt.Sprintf("path must be absolute: %q", path)}
	}
	return nil
}

// Read returns the file content prefixed with line numbers (cat -n
// style), optionally windowed by offset/limit (1-indexed line offset).
func Read(path string, offset, limit int) (string, error) {
	if err := checkAbsolute(path); err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &OpError{Kind: KindNotFound, Message: fmt.Sprintf("not found: %s", path)}
		}
		if os.IsPermission(err) {
			return "", &OpError{Kind: KindPermissionDenied, Message: fmt.Sprintf("permission denied: %s", path)}
		}
		return "", err
	}
	if info.IsDir() {
		return "", &OpError{Kind: KindNotAFile, Message: fmt.Sprintf("not a file: %s", path)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return "", &OpError{Kind: KindPermissionDenied, Message: fmt.Sprintf("permission denied: %s", path)}
		}
		return "", err
	}

	lines := strings.Split(string(data), "\n")
	start := 0
	if offset > 0 {
		start = offset - 1
	}
	if start > len(lines) {
		start = len(lines)
	}
	end := len(lines)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "%6d\t%s\n", i+1, lines[i])
	}
	return b.String(), nil
}

// Write overwrites or creates path. The parent directory must already
// exist; no implicit mkdir.
func Write(path, content string) error {
	if err := checkAbsolute(path); err != nil {
		return err
	}
	parent := filepath.Dir(path)
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return &OpError{Kind: KindMissingParent, Message: fmt.Sprintf("parent directory does not exist: %s", parent)}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		if os.IsPermission(err) {
			return &OpError{Kind: KindPermissionDenied, Message: fmt.Sprintf("permission denied: %s", path)}
		}
		return err
	}
	return nil
}

// Edit performs a literal (non-regex) string replacement. With
// replaceAll=false, oldString must occur exactly once.
func Edit(path, oldString, newString string, replaceAll bool) error {
	if err := checkAbsolute(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &OpError{Kind: KindNotFound, Message: fmt.Sprintf("not found: %s", path)}
		}
		return err
	}
	content := string(data)

	updated, err := applyEdit(content, oldString, newString, replaceAll)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(updated), 0o644)
}

func applyEdit(content, oldString, newString string, replaceAll bool) (string, error) {
	count := strings.Count(content, oldString)
	if count == 0 {
		return "", &OpError{Kind: KindNotFound, Message: "old_string not found in file"}
	}
	if !replaceAll && count > 1 {
		return "", &OpError{Kind: KindAmbiguousEdit, Message: fmt.Sprintf("old_string occurs %d times, expected exactly 1", count)}
	}
	if replaceAll {
		return strings.ReplaceAll(content, oldString, newString), nil
	}
	return strings.Replace(content, oldString, newString, 1), nil
}

// EditSpec is one step of a MultiEdit.
type EditSpec struct {
	OldString string
	NewString string
}

// MultiEdit applies edits sequentially, each seeing the prior's result.
// On first failure the file on disk is left completely untouched
// (atomic all-or-nothing), per spec.md §4.2.
func MultiEdit(path string, edits []EditSpec) error {
	if err := checkAbsolute(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &OpError{Kind: KindNotFound, Message: fmt.Sprintf("not found: %s", path)}
		}
		return err
	}
	content := string(data)

	for i, e := range edits {
		updated, err := applyEdit(content, e.OldString, e.NewString, false)
		if err != nil {
			return fmt.Errorf("edit %d of %d aborted, file untouched: %w", i+1, len(edits), err)
		}
		content = updated
	}

	return os.WriteFile(path, []byte(content), 0o644)
}

// Metadata returns size/mode/mtime/file_type for up to 10 paths; a
// missing path is reported inline via Error, not as a fatal failure.
func Metadata(paths []string) ([]FileMeta, error) {
	if len(paths) > 10 {
		return nil, &OpError{Kind: KindInvalidPath, Message: "at most 10 paths may be queried at once"}
	}
	out := make([]FileMeta, 0, len(paths))
	for _, p := range paths {
		if err := checkAbsolute(p); err != nil {
			out = append(out, FileMeta{Path: p, Error: err.Error()})
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			out = append(out, FileMeta{Path: p, Error: "missing: " + p})
			continue
		}
		ft := "file"
		if info.IsDir() {
			ft = "dir"
		}
		out = append(out, FileMeta{
			Path:     p,
			Size:     info.Size(),
			Mode:     info.Mode().String(),
			ModTime:  info.ModTime(),
			FileType: ft,
		})
	}
	return out, nil
}

// FormatMetadata renders Metadata rows as a human-readable table, mirroring
// the plain-text tool outputs the teacher mirrors back into prompts.
func FormatMetadata(rows []FileMeta) string {
	var b strings.Builder
	for _, r := range rows {
		if r.Error != "" {
			fmt.Fprintf(&b, "%s\t%s\n", r.Path, r.Error)
			continue
		}
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%s\n", r.Path, strconv.FormatInt(r.Size, 10), r.Mode, r.ModTime.Format(time.RFC3339), r.FileType)
	}
	return b.String()
}
