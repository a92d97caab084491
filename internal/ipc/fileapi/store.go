package fileapi

import (
	"sync"

	"github.com/wago-dev/wdx/internal/status"
)

type fileEntry struct {
	capacity uint64
	data     []byte
}

// FileStore is wdxd's in-memory backing for the file API's four
// operations. A production deployment would back this with an actual
// filesystem or device-local storage collaborator; the core only needs
// the protocol surface (chunking, capacity limits, partial-write
// tracking), which a plain byte buffer exercises just as well.
type FileStore struct {
	mu    sync.Mutex
	files map[string]*fileEntry
}

// NewFileStore returns an empty FileStore.
func NewFileStore() *FileStore {
	return &FileStore{files: make(map[string]*fileEntry)}
}

// Create reserves fileID with the given capacity, replacing any existing
// file under that id.
func (s *FileStore) Create(fileID string, capacity uint64) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[fileID] = &fileEntry{capacity: capacity, data: make([]byte, 0, capacity)}
	return status.Success
}

// Read returns up to length bytes of fileID starting at offset. A read
// past the end of the written data returns the available tail rather
// than an error — callers detect end-of-stream by a short chunk, per
// Proxy.Read.
func (s *FileStore) Read(fileID string, offset uint64, length uint32) ([]byte, status.Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileID]
	if !ok {
		return nil, status.UnknownFileID
	}
	if offset > uint64(len(f.data)) {
		return nil, status.FileNotAccessible
	}
	end := offset + uint64(length)
	if end > uint64(len(f.data)) {
		end = uint64(len(f.data))
	}
	out := make([]byte, end-offset)
	copy(out, f.data[offset:end])
	return out, status.Success
}

// Write stores data at offset in fileID, growing the file as needed. It
// fails with FileSizeExceeded if the write would exceed the file's
// reserved capacity.
func (s *FileStore) Write(fileID string, offset uint64, data []byte) status.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileID]
	if !ok {
		return status.UnknownFileID
	}
	end := offset + uint64(len(data))
	if end > f.capacity {
		return status.FileSizeExceeded
	}
	if end > uint64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[offset:end], data)
	return status.Success
}

// Info returns the highest offset of fileID that exists: the length of
// the contiguous data written so far, usable to resume a partial,
// sequential upload.
func (s *FileStore) Info(fileID string) (uint64, status.Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileID]
	if !ok {
		return 0, status.UnknownFileID
	}
	return uint64(len(f.data)), status.Success
}
