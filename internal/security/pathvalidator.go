package security

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrPathEscapes  = errors.New("path escapes working directory")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
	ErrInvalidName  = errors.New("invalid entry name")
)

const maxNameLength = 255

// PathValidator confines envelope exports and imports to one directory
// using the os.Root API.
type PathValidator struct {
	root    *os.Root
	rootDir string
}

// New creates a PathValidator for the directory at dir.
func New(dir string) (*PathValidator, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory: %w", err)
	}

	return &PathValidator{
		root:    root,
		rootDir: absPath,
	}, nil
}

// Close releases the root handle
func (pv *PathValidator) Close() error {
	if pv.root != nil {
		return pv.root.Close()
	}
	return nil
}

// ValidateAndNormalize returns userPath as a clean slash-separated path
// relative to the root. Empty, absolute and escaping paths are rejected.
func (pv *PathValidator) ValidateAndNormalize(userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}

	if !filepath.IsLocal(userPath) {
		if filepath.IsAbs(userPath) {
			return "", fmt.Errorf("%w: %s", ErrAbsolutePath, userPath)
		}
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}

	cleanPath := filepath.Clean(userPath)
	relPath, err := filepath.Rel(pv.rootDir, filepath.Join(pv.rootDir, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if strings.HasPrefix(relPath, "..") || filepath.IsAbs(relPath) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}

	return filepath.ToSlash(relPath), nil
}

// WriteFile writes data below the root, creating parent directories.
func (pv *PathValidator) WriteFile(userPath string, data []byte, perm os.FileMode) error {
	rel, err := pv.ValidateAndNormalize(userPath)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	platformPath := filepath.FromSlash(rel)
	if dir := filepath.Dir(platformPath); dir != "." {
		if err := pv.root.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return pv.root.WriteFile(platformPath, data, perm)
}

// ReadFile reads a file below the root
func (pv *PathValidator) ReadFile(userPath string) ([]byte, error) {
	rel, err := pv.ValidateAndNormalize(userPath)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	return pv.root.ReadFile(filepath.FromSlash(rel))
}

// ValidateName checks a store entry name. Names use slash-separated
// segments like relative paths so they can double as export file names.
func ValidateName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, maxNameLength)
	}
	if strings.ContainsAny(name, "\\\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrAbsolutePath, name)
	}

	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, name)
	}
	return clean, nil
}
