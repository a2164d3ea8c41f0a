// Package storage resolves every on-disk location used for applicant files.
//
// Layout under the upload root:
//
//	documents/  generated PDFs (signable documents and registration summaries)
//	identity/   applicant uploads (ID card, photo, ...)
//
// All paths stored in the database are produced here; rows whose stored path
// no longer exists are found again through Locate.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"acadef/backend/config"
)

var (
	ErrFileNotFound        = errors.New("file not found")
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	ErrFileTooLarge        = errors.New("file too large")
)

const (
	documentsDir = "documents"
	identityDir  = "identity"
)

// Resolver canonical file locations
type Resolver struct {
	root    string
	maxSize int64
	allowed map[string]bool
}

// NewResolver creates the directory layout under cfg.UploadDir.
func NewResolver(cfg *config.StorageConfig) (*Resolver, error) {
	root, err := filepath.Abs(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve upload dir: %w", err)
	}

	for _, dir := range []string{documentsDir, identityDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("storage: create %s: %w", dir, err)
		}
	}

	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	return &Resolver{root: root, maxSize: cfg.MaxUploadSize, allowed: allowed}, nil
}

// Root absolute upload root
func (r *Resolver) Root() string { return r.root }

// DocumentsDir directory of generated PDFs
func (r *Resolver) DocumentsDir() string { return filepath.Join(r.root, documentsDir) }

// DocumentPath canonical path for a generated PDF
func (r *Resolver) DocumentPath(filename string) string {
	return filepath.Join(r.DocumentsDir(), filepath.Base(filename))
}

// IdentityPath canonical path for an applicant upload
func (r *Resolver) IdentityPath(filename string) string {
	return filepath.Join(r.root, identityDir, filepath.Base(filename))
}

// Exists reports whether path is an existing regular file.
func (r *Resolver) Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Locate returns the path where a generated document can actually be read.
// drifted is true when the stored path is stale and the file was found at its
// canonical location instead.
func (r *Resolver) Locate(storedPath, filename string) (path string, drifted bool, err error) {
	if r.Exists(storedPath) {
		return storedPath, false, nil
	}
	if filename == "" {
		return "", false, ErrFileNotFound
	}
	canonical := r.DocumentPath(filename)
	if r.Exists(canonical) {
		return canonical, canonical != storedPath, nil
	}
	return "", false, ErrFileNotFound
}

// ValidateExtension checks the extension of an uploaded file name and returns
// it lowercased without the dot.
func (r *Resolver) ValidateExtension(name string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" || !r.allowed[ext] {
		return "", fmt.Errorf("%w: %q", ErrExtensionNotAllowed, name)
	}
	return ext, nil
}

// SaveIdentityFile stores an upload as {prefix}_{ownerID}_{hex}.{ext} and
// returns the generated file name.
func (r *Resolver) SaveIdentityFile(prefix, ownerID, originalName string, src io.Reader) (string, error) {
	ext, err := r.ValidateExtension(originalName)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s_%s_%s.%s", prefix, ownerID, NewHex(), ext)
	path := r.IdentityPath(filename)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", filename, err)
	}

	reader := src
	if r.maxSize > 0 {
		reader = io.LimitReader(src, r.maxSize+1)
	}
	n, copyErr := io.Copy(dst, reader)
	closeErr := dst.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: write %s: %w", filename, copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: close %s: %w", filename, closeErr)
	case r.maxSize > 0 && n > r.maxSize:
		_ = os.Remove(path)
		return "", ErrFileTooLarge
	}

	return filename, nil
}

// Remove deletes a file; a missing file is not an error.
func (r *Resolver) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveIdentityFile deletes an applicant upload by file name.
func (r *Resolver) RemoveIdentityFile(filename string) error {
	if filename == "" {
		return nil
	}
	return r.Remove(r.IdentityPath(filename))
}

// ListDocumentFiles names of the PDFs in the documents directory, sorted.
func (r *Resolver) ListDocumentFiles() ([]string, error) {
	entries, err := os.ReadDir(r.DocumentsDir())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// NewHex random 32-character hex identifier used in generated file names.
func NewHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
