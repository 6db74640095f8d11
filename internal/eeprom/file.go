// internal/eeprom/file.go
package eeprom

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// File is a device persisted in a fixed-size image file.
// The image is read once on open; every write goes through to disk.
type File struct {
	f     *os.File
	cells []byte
	log   *slog.Logger
}

// OpenFile opens or creates an image of exactly size bytes.
// A new image is filled with Erased. An existing image of another size is rejected.
func OpenFile(path string, size int, log *slog.Logger) (*File, error) {
	if size <= 0 {
		return nil, errors.New("eeprom: size must be > 0")
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eeprom: open %s: %w", path, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("eeprom: stat %s: %w", path, err)
	}

	d := &File{f: f, cells: make([]byte, size), log: log}

	switch st.Size() {
	case 0:
		for i := range d.cells {
			d.cells[i] = Erased
		}
		if _, err := f.WriteAt(d.cells, 0); err != nil {
			f.Close()
			return nil, fmt.Errorf("eeprom: init %s: %w", path, err)
		}
	case int64(size):
		if _, err := io.ReadFull(f, d.cells); err != nil {
			f.Close()
			return nil, fmt.Errorf("eeprom: read %s: %w", path, err)
		}
	default:
		f.Close()
		return nil, fmt.Errorf("eeprom: image %s is %d bytes, want %d", path, st.Size(), size)
	}

	return d, nil
}

func (d *File) Len() int { return len(d.cells) }

func (d *File) Read(addr int) byte {
	if addr < 0 || addr >= len(d.cells) {
		return Erased
	}
	return d.cells[addr]
}

// Write updates the cell and persists it. A failed disk write is logged;
// the in-memory copy stays authoritative until the next successful write.
func (d *File) Write(addr int, v byte) {
	if addr < 0 || addr >= len(d.cells) {
		return
	}
	d.cells[addr] = v
	if _, err := d.f.WriteAt([]byte{v}, int64(addr)); err != nil {
		d.log.Error("eeprom write failed", "addr", addr, "err", err)
	}
}

// Close syncs and closes the image file.
func (d *File) Close() error {
	if d == nil || d.f == nil {
		return nil
	}
	if err := d.f.Sync(); err != nil {
		d.f.Close()
		return err
	}
	return d.f.Close()
}
