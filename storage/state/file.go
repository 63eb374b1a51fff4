package state

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

type fileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
}

var _ Store = (*fileStore)(nil)

// OpenFile opens a JSON-file-backed store at path, creating parent
// directories as needed. A missing or corrupt file starts the store
// empty instead of failing.
func OpenFile(path string) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating state dir")
	}
	fs := &fileStore{path: path, entries: make(map[string]string)}
	if data, err := ioutil.ReadFile(path); err == nil {
		// a corrupt state file reads as empty state
		_ = json.Unmarshal(data, &fs.entries)
		if fs.entries == nil {
			fs.entries = make(map[string]string)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "reading state file")
	}
	return fs, nil
}

func (fs *fileStore) Get(key string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	val, ok := fs.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (fs *fileStore) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.entries[key] = value
	return fs.save()
}

func (fs *fileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	delete(fs.entries, key)
	return fs.save()
}

// save rewrites the file atomically so a crash mid-write cannot corrupt
// previously persisted entries.
func (fs *fileStore) save() error {
	data, err := json.MarshalIndent(fs.entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding state")
	}
	tmp := fs.path + ".tmp"
	if err := ioutil.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "writing state file")
	}
	return errors.Wrap(os.Rename(tmp, fs.path), "replacing state file")
}
