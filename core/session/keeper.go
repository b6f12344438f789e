package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/buywell/storefront/random"
)

// FileKeeper stores the identity record as one JSON file at a
// well-known path. Writes go through a temp file and a rename so a
// crash mid-write never leaves a torn record behind.
type FileKeeper struct {
	path string
}

func NewFileKeeper(path string) *FileKeeper {
	return &FileKeeper{path: path}
}

func (k *FileKeeper) Save(id Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshaling identity: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return fmt.Errorf("creating identity dir: %w", err)
	}

	tmp := k.path + ".tmp" + random.String(8)
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing identity file: %w", err)
	}
	if err := os.Rename(tmp, k.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing identity file: %w", err)
	}
	return nil
}

func (k *FileKeeper) Load() (Identity, bool, error) {
	data, err := os.ReadFile(k.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Identity{}, false, nil
	}
	if err != nil {
		return Identity{}, false, fmt.Errorf("reading identity file: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, false, fmt.Errorf("decoding identity file: %w", err)
	}
	return id, true, nil
}

func (k *FileKeeper) Clear() error {
	err := os.Remove(k.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
