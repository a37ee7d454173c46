package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrSlotEmpty is returned by Slot.Get when nothing has been stored yet.
var ErrSlotEmpty = errors.New("session: state slot is empty")

// Slot holds one serialized session between runs.
type Slot interface {
	Get() ([]byte, error)
	Set([]byte) error
	Clear() error
}

// FileSlot keeps the serialized session in a single file.
type FileSlot struct {
	path string
}

// NewFileSlot returns a slot backed by path.
func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

// Path returns the file backing the slot.
func (f *FileSlot) Path() string {
	return f.path
}

// Get reads the stored bytes.
func (f *FileSlot) Get() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSlotEmpty
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrSlotEmpty
	}
	return data, nil
}

// Set replaces the stored bytes through a temp file and rename.
func (f *FileSlot) Set(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Clear removes the stored bytes. Clearing an empty slot is not an error.
func (f *FileSlot) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads the session held in slot. It always returns a usable session:
// when the slot is empty or unreadable the default session comes back, and
// in the unreadable case the error says why.
func Load(slot Slot, defaultDuration int) (Session, error) {
	data, err := slot.Get()
	if err != nil {
		if errors.Is(err, ErrSlotEmpty) {
			return Default(defaultDuration), nil
		}
		return Default(defaultDuration), fmt.Errorf("session: read state slot: %w", err)
	}
	s, err := Decode(data)
	if err != nil {
		return Default(defaultDuration), err
	}
	return s, nil
}

// Save encodes s into slot.
func Save(slot Slot, s Session) error {
	data, err := Encode(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := slot.Set(data); err != nil {
		return fmt.Errorf("session: write state slot: %w", err)
	}
	return nil
}
