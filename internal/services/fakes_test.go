package services

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"fundledger/internal/filestore"
	"fundledger/internal/pagination"
)

// fakeStore is an in-memory filestore.Store.
type fakeStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	deleted   []string
	uploadErr error
	deleteErr error
	n         int
}

var _ filestore.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{files: make(map[string][]byte)}
}

func (f *fakeStore) Upload(file *filestore.Upload, subfolder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if file == nil || file.Reader == nil {
		return "", filestore.ErrEmptyFile
	}
	data, err := io.ReadAll(file.Reader)
	if err != nil {
		return "", err
	}
	f.n++
	path := fmt.Sprintf("%s/file-%d-%s", subfolder, f.n, file.Filename)
	f.files[path] = data
	return path, nil
}

func (f *fakeStore) Delete(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, path)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.files, path)
	return nil
}

func (f *fakeStore) has(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

var errDiskFull = errors.New("disk full")

func testUpload(name string) *filestore.Upload {
	return filestore.NewUpload(name, []byte("receipt-bytes"))
}

func paginationFirst() pagination.PageRequest {
	return pagination.PageRequest{Page: 1, PerPage: 20}
}
