// Package jsonl implements a snapshot store that keeps one JSON lines file
// per store in a data directory.
//
// A store named "people" lives in <dataDir>/people.snapshot.jsonl. Line 1
// holds the snapshot header (model versions and transaction id); each
// further line holds one entity with its definitions and instances. Files
// are replaced atomically on save.
package jsonl

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/snapmig/internal/codec"
	"github.com/mesh-intelligence/snapmig/pkg/types"
)

// FileSuffix is appended to the store name to form its file name.
const FileSuffix = ".snapshot.jsonl"

// maxLineSize bounds one encoded entity.
const maxLineSize = 64 << 20

// Store is a types.SnapshotStore backed by JSON lines files.
type Store struct {
	mu      sync.RWMutex
	dataDir string
	closed  bool
}

// Open returns a store rooted at dataDir, creating the directory if needed.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, errors.New("data directory must not be empty")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}
	return &Store{dataDir: dataDir}, nil
}

// Path returns the file holding storeName.
func (s *Store) Path(storeName string) string {
	return filepath.Join(s.dataDir, storeName+FileSuffix)
}

// Load reads the snapshot saved under storeName.
func (s *Store) Load(storeName string) (*types.Snapshot, error) {
	if err := types.ValidateStoreName(storeName); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}

	lines, err := readJSONL(s.Path(storeName))
	if os.IsNotExist(err) {
		return nil, errors.Wrap(types.ErrStoreNotFound, storeName)
	}
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.Wrapf(codec.ErrInvalidDocument, "%s: missing header", storeName)
	}

	h, err := codec.DecodeHeader(lines[0])
	if err != nil {
		return nil, errors.Wrapf(err, "%s line 1", storeName)
	}
	snap := h.Snapshot()
	snap.Entities = make([]*types.Entity, 0, len(lines)-1)
	for i, line := range lines[1:] {
		e, err := codec.DecodeEntity(line)
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", storeName, i+2)
		}
		snap.Entities = append(snap.Entities, e)
	}
	return snap, nil
}

// Save replaces the file of storeName with snap.
func (s *Store) Save(storeName string, snap *types.Snapshot) error {
	if err := types.ValidateStoreName(storeName); err != nil {
		return err
	}
	if snap == nil {
		return errors.Errorf("saving %s: nil snapshot", storeName)
	}

	header, err := codec.EncodeHeader(codec.HeaderOf(snap))
	if err != nil {
		return err
	}
	lines := make([]json.RawMessage, 0, len(snap.Entities)+1)
	lines = append(lines, header)
	for _, e := range snap.Entities {
		b, err := codec.EncodeEntity(e)
		if err != nil {
			return err
		}
		lines = append(lines, b)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStoreClosed
	}
	return writeJSONL(s.Path(storeName), lines)
}

// List returns the names of the stores with a file in the data directory.
func (s *Store) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, types.ErrStoreClosed
	}
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, errors.Wrap(err, "reading data directory")
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), FileSuffix) {
			continue
		}
		name := strings.TrimSuffix(ent.Name(), FileSuffix)
		if types.ValidateStoreName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close marks the store closed. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// readJSONL returns the non-empty lines of a JSONL file. Unlike a log, a
// snapshot must not lose records, so a line that is not valid JSON is an
// error.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, errors.Wrapf(codec.ErrInvalidDocument, "%s line %d: malformed JSON", filepath.Base(path), n)
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "scanning %s", path)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	fail := func(what string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, what)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "renaming temp file")
	}
	return nil
}
