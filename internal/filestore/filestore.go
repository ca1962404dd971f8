// Package filestore keeps uploaded proof and receipt images on local disk.
package filestore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"fundledger/internal/uuid"
)

// Upload validation errors.
var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
	ErrInvalidFileType = errors.New("file type is not allowed")
	ErrInvalidPath     = errors.New("invalid stored file path")
)

// Subfolders used by the ledger.
const (
	ProofFolder   = "allocations"
	ReceiptFolder = "receipts"
)

// allowedTypes maps an accepted extension to the MIME types its content may sniff as.
var allowedTypes = map[string][]string{
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".webp": {"image/webp"},
	".pdf":  {"application/pdf"},
}

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// FromFileHeader opens a multipart file. The caller must call the returned
// close function once the upload has been stored.
func FromFileHeader(fh *multipart.FileHeader) (*Upload, func() error, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &Upload{Filename: fh.Filename, Size: fh.Size, Reader: f}, f.Close, nil
}

// Store persists uploads and removes them again.
type Store interface {
	Upload(file *Upload, subfolder string) (string, error)
	Delete(path string) error
}

// LocalStore writes uploads beneath a root directory.
type LocalStore struct {
	root     string
	maxBytes int64
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: root, maxBytes: maxBytes}, nil
}

// Root returns the directory uploads are written to.
func (s *LocalStore) Root() string {
	return s.root
}

// Upload validates the extension, size and sniffed content type, then writes
// the file under subfolder with a generated name. The returned path is
// relative to the store root and uses forward slashes.
func (s *LocalStore) Upload(file *Upload, subfolder string) (string, error) {
	if file == nil || file.Reader == nil {
		return "", ErrEmptyFile
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed, ok := allowedTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileType, ext)
	}
	if s.maxBytes > 0 && file.Size > s.maxBytes {
		return "", ErrFileTooLarge
	}

	limit := s.maxBytes
	if limit <= 0 {
		limit = 1 << 30
	}
	data, err := io.ReadAll(io.LimitReader(file.Reader, limit+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if int64(len(data)) > limit {
		return "", ErrFileTooLarge
	}

	detected := mimetype.Detect(data)
	if !matchesAny(detected, allowed) {
		return "", fmt.Errorf("%w: content is %s", ErrInvalidFileType, detected.String())
	}

	dir := filepath.Join(s.root, filepath.Clean(subfolder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload subfolder: %w", err)
	}

	name := uuid.New() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return filepath.ToSlash(filepath.Join(filepath.Clean(subfolder), name)), nil
}

// Delete removes a stored file. A file that no longer exists is not an error.
func (s *LocalStore) Delete(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) resolve(path string) (string, error) {
	if path == "" {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return filepath.Join(s.root, clean), nil
}

func matchesAny(m *mimetype.MIME, types []string) bool {
	for _, t := range types {
		if m.Is(t) {
			return true
		}
	}
	return false
}

// NewUpload wraps raw bytes, mainly for tests and imports.
func NewUpload(filename string, data []byte) *Upload {
	return &Upload{Filename: filename, Size: int64(len(data)), Reader: bytes.NewReader(data)}
}
