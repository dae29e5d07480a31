// Package pagefile is the paged-file abstraction the buffer manager reads
// and writes through: allocation, persistence, open/create of a single
// fixed-page-size file. Grounded on DaemonDB's disk_manager, narrowed to a
// single file per index (the index engine never shares a page space
// across files, unlike the teacher's multi-file disk manager).
package pagefile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"btreeidx/internal/page"
)

// File is a single on-disk paged file: a flat sequence of page.Size byte
// pages addressed by a 1-based page.Num.
type File struct {
	mu       sync.RWMutex
	f        *os.File
	path     string
	numPages page.Num
}

// Exists reports whether path already names a file, so callers can decide
// between Open (validate existing meta) and Create (bulk load).
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Create makes a brand new, empty paged file at path. It fails if the
// file already exists.
func Create(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("pagefile: create %s: %w", path, err)
	}
	return &File{f: f, path: path}, nil
}

// Open opens an existing paged file at path.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("pagefile: open %s: %w", path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pagefile: stat %s: %w", path, err)
	}
	return &File{
		f:        f,
		path:     path,
		numPages: page.Num(stat.Size() / page.Size),
	}, nil
}

// AllocatePage reserves the next page number in the file. The page is not
// written to disk until the caller writes it; the file grows lazily on
// first WritePage of the new page number.
func (pf *File) AllocatePage() (page.Num, error) {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	pf.numPages++
	return pf.numPages, nil
}

// ReadPage reads the raw bytes of page pid. Pages beyond the current file
// size read back as zero-filled (a page allocated but never flushed).
func (pf *File) ReadPage(pid page.Num) ([]byte, error) {
	pf.mu.RLock()
	defer pf.mu.RUnlock()

	buf := make([]byte, page.Size)
	off := int64(pid-1) * page.Size
	_, err := pf.f.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("pagefile: read page %d: %w", pid, err)
	}
	return buf, nil
}

// WritePage writes data (must be exactly page.Size bytes) to page pid.
func (pf *File) WritePage(pid page.Num, data []byte) error {
	if len(data) != page.Size {
		return fmt.Errorf("pagefile: write page %d: data is %d bytes, want %d", pid, len(data), page.Size)
	}
	pf.mu.Lock()
	defer pf.mu.Unlock()
	off := int64(pid-1) * page.Size
	if _, err := pf.f.WriteAt(data, off); err != nil {
		return fmt.Errorf("pagefile: write page %d: %w", pid, err)
	}
	if pid > pf.numPages {
		pf.numPages = pid
	}
	return nil
}

// Sync flushes the OS file buffers to stable storage.
func (pf *File) Sync() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if err := pf.f.Sync(); err != nil {
		return fmt.Errorf("pagefile: sync %s: %w", pf.path, err)
	}
	return nil
}

// Close syncs and closes the underlying OS file.
func (pf *File) Close() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	syncErr := pf.f.Sync()
	closeErr := pf.f.Close()
	if closeErr != nil {
		return fmt.Errorf("pagefile: close %s: %w", pf.path, closeErr)
	}
	if syncErr != nil {
		return fmt.Errorf("pagefile: sync before close %s: %w", pf.path, syncErr)
	}
	return nil
}

// NumPages returns the number of pages currently spanned by the file.
func (pf *File) NumPages() page.Num {
	pf.mu.RLock()
	defer pf.mu.RUnlock()
	return pf.numPages
}

// Path returns the file's path on disk.
func (pf *File) Path() string { return pf.path }
