// Package files implements the per-user file store (C7): upload, list,
// delete, and CSV browse, all path-isolated per owner.
package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
)

const maxUploadBytes = 10 << 20

// Store is the per-user file store rooted at Root/<owner>/.
type Store struct {
	root string
}

// NewStore builds a Store rooted at root, creating it if missing.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Internal("failed to create files root", err)
	}
	return &Store{root: root}, nil
}

// ownerDir re-derives and verifies owner's directory, guarding against
// path traversal via a safe filename (§4.7).
func (s *Store) ownerDir(owner string) (string, error) {
	dir := filepath.Join(s.root, owner)
	clean := filepath.Clean(dir)
	rootClean := filepath.Clean(s.root)
	if clean != rootClean && !strings.HasPrefix(clean, rootClean+string(os.PathSeparator)) {
		return "", errors.PathViolation("invalid owner path")
	}
	if err := os.MkdirAll(clean, 0o755); err != nil {
		return "", errors.Internal("failed to create owner directory", err)
	}
	return clean, nil
}

// resolve validates filename is safe (non-empty, no separators, no "..",
// ≤255 bytes) and resolves it under owner's directory, re-verifying the
// result stays within that directory.
func (s *Store) resolve(owner, filename string) (string, error) {
	dir, err := s.ownerDir(owner)
	if err != nil {
		return "", err
	}
	if filename == "" || len(filename) > 255 || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return "", errors.PathViolation("invalid filename")
	}

	full := filepath.Join(dir, filename)
	clean := filepath.Clean(full)
	if !strings.HasPrefix(clean, dir+string(os.PathSeparator)) {
		return "", errors.PathViolation("invalid filename")
	}
	return clean, nil
}

// Upload writes data under owner/filename, rejecting >10MiB payloads and
// path-violating names. The write is temp-file + rename so a disconnect
// mid-upload never leaves a partial file visible in List.
func (s *Store) Upload(owner, filename string, data io.Reader, size int64) (string, error) {
	if size > maxUploadBytes {
		return "", errors.TooLarge("uploaded file exceeds 10 MiB limit")
	}

	path, err := s.resolve(owner, filename)
	if err != nil {
		return "", err
	}

	tmp := fmt.Sprintf("%s.tmp-%d", path, time.Now().UnixNano())
	f, err := os.Create(tmp)
	if err != nil {
		return "", errors.Internal("failed to create upload temp file", err)
	}

	written, err := io.Copy(f, io.LimitReader(data, maxUploadBytes+1))
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(tmp)
		return "", errors.Internal("failed to write upload", err)
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return "", errors.Internal("failed to finalize upload", closeErr)
	}
	if written > maxUploadBytes {
		_ = os.Remove(tmp)
		return "", errors.TooLarge("uploaded file exceeds 10 MiB limit")
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Internal("failed to finalize upload", err)
	}
	return filename, nil
}

// List returns owner's uploaded filenames in sorted order.
func (s *Store) List(owner string) ([]string, error) {
	dir, err := s.ownerDir(owner)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Internal("failed to list files", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.Contains(e.Name(), ".tmp-") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Delete removes owner's filename.
func (s *Store) Delete(owner, filename string) error {
	path, err := s.resolve(owner, filename)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			return errors.NotFound("no such file")
		}
		return errors.Internal("failed to stat file", statErr)
	}
	if err := os.Remove(path); err != nil {
		return errors.Internal("failed to delete file", err)
	}
	return nil
}

// Open returns a reader for owner's filename, for browse/parsing.
func (s *Store) Open(owner, filename string) (*os.File, error) {
	path, err := s.resolve(owner, filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("no such file")
		}
		return nil, errors.Internal("failed to open file", err)
	}
	return f, nil
}
