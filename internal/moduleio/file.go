package moduleio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"lowir/internal/srcir"
)

// Ext is the conventional extension of serialized module files.
const Ext = ".lim"

// WriteFile serializes a module to path atomically: the payload lands in a
// temp file first and is renamed into place.
func WriteFile(path string, m *srcir.Module, types *srcir.Interner) error {
	p, err := Encode(m, types)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		f.Close()
		os.Remove(f.Name())
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("moduleio: encode %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadFile deserializes a module file written by WriteFile.
func ReadFile(path string) (*srcir.Module, *srcir.Interner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var p Payload
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(&p); err != nil {
		return nil, nil, fmt.Errorf("moduleio: decode %s: %w", path, err)
	}
	return Decode(&p)
}
