// Package security confines file access to the configured spreadsheet
// directory and the supported workbook extensions.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotAllowed indicates the requested path escapes the excel directory.
var ErrNotAllowed = errors.New("security: path not allowed")

// ErrUnsupportedExtension indicates the file extension is not supported.
var ErrUnsupportedExtension = errors.New("security: unsupported file extension")

// ErrNotFound indicates the requested file does not exist.
var ErrNotFound = errors.New("security: file not found")

// Manager validates that requested workbook names resolve to existing files
// inside the configured directory with supported extensions.
type Manager struct {
	dir         string
	allowedExts map[string]struct{}
}

// NewManager canonicalizes dir and builds the extension allow-list.
// The directory does not have to exist yet; it is created lazily by the
// operator dropping files into it.
func NewManager(dir string, allowedExtensions []string) (*Manager, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("security: empty excel directory")
	}
	if len(allowedExtensions) == 0 {
		allowedExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}
	}
	exts := make(map[string]struct{}, len(allowedExtensions))
	for _, e := range allowedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || !strings.HasPrefix(e, ".") {
			return nil, fmt.Errorf("security: invalid extension: %q", e)
		}
		exts[e] = struct{}{}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("security: resolve abs for %q: %w", dir, err)
	}
	return &Manager{dir: filepath.Clean(abs), allowedExts: exts}, nil
}

// Dir returns the canonical excel directory.
func (m *Manager) Dir() string { return m.dir }

// ValidateOpenPath resolves a workbook name (or path) to a canonical
// absolute path inside the excel directory, ensuring the file exists and
// carries a supported extension. Relative names are resolved against the
// excel directory; traversal outside it is denied.
func (m *Manager) ValidateOpenPath(input string) (string, error) {
	name := strings.TrimSpace(input)
	if name == "" {
		return "", ErrNotAllowed
	}

	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := m.allowedExts[ext]; !ok {
		return "", fmt.Errorf("%q: %w", ext, ErrUnsupportedExtension)
	}

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.dir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("security: abs path: %w", err)
	}
	abs = filepath.Clean(abs)

	// Containment: the resolved path must stay within the excel directory.
	rel, err := filepath.Rel(m.dir, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%q: %w", input, ErrNotAllowed)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%q: %w", input, ErrNotFound)
		}
		return "", fmt.Errorf("security: stat: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%q: %w", input, ErrNotAllowed)
	}
	return abs, nil
}
