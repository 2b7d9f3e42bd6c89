// Package workspace provides the requester-scoped file store backing the
// save_text built-in: each requester identifier owns a directory under the
// workspace root where delegated automata persist files.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when a workspace file for the given requester /
// name pair does not exist in the underlying store.
var ErrNotFound = errors.New("workspace file not found")

// Store persists text files under <root>/<requester>/<file>. It is safe
// for concurrent use; the filesystem provides per-file atomicity and
// distinct requesters never share paths.
type Store struct {
	root string
}

// NewStore constructs a workspace store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the workspace root directory.
func (s *Store) Root() string { return s.root }

// Save writes content to the requester's workspace, creating directories
// as needed, and returns the path relative to the workspace root.
func (s *Store) Save(requester, fileName, content string) (string, error) {
	path, err := s.resolve(requester, fileName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating workspace dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing workspace file: %w", err)
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", err
	}
	return rel, nil
}

// Read returns the content of a previously saved file.
func (s *Store) Read(requester, fileName string) (string, error) {
	path, err := s.resolve(requester, fileName)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s/%s", ErrNotFound, requester, fileName)
		}
		return "", err
	}
	return string(raw), nil
}

// List returns the relative paths of the requester's files, sorted.
func (s *Store) List(requester string) ([]string, error) {
	dir, err := s.resolve(requester, ".")
	if err != nil {
		return nil, err
	}
	var files []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// resolve joins and confines the path to the workspace root so a crafted
// file name cannot escape it.
func (s *Store) resolve(requester, fileName string) (string, error) {
	if requester == "" {
		return "", fmt.Errorf("workspace requester must not be empty")
	}
	path := filepath.Join(s.root, requester, fileName)
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", err
	}
	pathAbs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if pathAbs != rootAbs && !strings.HasPrefix(pathAbs, rootAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("file name escapes the workspace: %s", fileName)
	}
	return path, nil
}
