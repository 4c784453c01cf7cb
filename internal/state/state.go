// Package state persists the set of local paths already fetched, so an
// interrupted run can resume without repeating completed downloads.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrCorruptState reports an unparsable progress record. Callers must treat
// it as fatal rather than proceeding with an assumed-empty record: silently
// discarding a near-complete record forces redundant downloads at best and
// masks real corruption at worst. The file on disk is left untouched.
var ErrCorruptState = errors.New("corrupt progress record")

// record is the durable wire form. The field name is stable so records
// written by earlier deployments keep loading; semantically it is a set.
type record struct {
	DownloadedFiles []string `json:"downloaded_files"`
}

// FileStore reads and writes the progress record at a fixed path.
type FileStore struct {
	path string
}

// NewFileStore returns a store rooted at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the record location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the durable record. An absent file yields an empty Ledger; an
// unparsable file yields an error wrapping ErrCorruptState.
func (s *FileStore) Load() (*Ledger, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return newLedger(s, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress record %s: %w", s.path, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCorruptState, s.path, err)
	}
	return newLedger(s, rec.DownloadedFiles), nil
}

// Delete removes the durable record. It is called only after a fully
// successful run; a record left on disk is the marker of a partial run.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete progress record %s: %w", s.path, err)
	}
	return nil
}

// write persists the full record atomically: a temporary file in the same
// directory is renamed over the target, so a crashed writer can never leave
// a partially written record behind.
func (s *FileStore) write(paths []string) error {
	payload, err := json.MarshalIndent(record{DownloadedFiles: paths}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress record: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp record %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp record %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp record %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s over %s: %w", tmpName, s.path, err)
	}
	return nil
}

// Ledger is the in-memory view of the progress record, shared by all fetch
// workers. A single mutex guards both the in-memory insert and the durable
// write: without that, two workers completing at the same moment could race
// on the record and silently drop one path, defeating resumability.
type Ledger struct {
	mu    sync.Mutex
	paths map[string]struct{}
	store *FileStore
}

func newLedger(store *FileStore, paths []string) *Ledger {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return &Ledger{paths: set, store: store}
}

// Contains reports whether path is already recorded as fetched.
func (l *Ledger) Contains(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.paths[path]
	return ok
}

// Len returns the number of recorded paths.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.paths)
}

// Commit records path as fully fetched and persists the updated record
// durably before returning. The committing worker must not proceed to its
// next item until Commit returns, which bounds crash loss to the one
// in-flight item.
func (l *Ledger) Commit(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.paths[path]; ok {
		return nil
	}
	l.paths[path] = struct{}{}

	if err := l.store.write(l.snapshotLocked()); err != nil {
		// Roll back so a later attempt re-persists the path.
		delete(l.paths, path)
		return fmt.Errorf("persist progress record: %w", err)
	}
	return nil
}

// snapshotLocked returns the recorded paths in lexical order. Callers must
// hold l.mu.
func (l *Ledger) snapshotLocked() []string {
	out := make([]string, 0, len(l.paths))
	for p := range l.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
