package datalayout

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default layout invalid: %v", err)
	}
}

func TestValidateRejectsOddWidths(t *testing.T) {
	if err := (Layout{PointerBits: 48}).Validate(); err == nil {
		t.Fatalf("48-bit pointers should be rejected")
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target.toml")
	if err := os.WriteFile(path, []byte("[target]\npointer_bits = 32\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	l, err := LoadTOML(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if l.PointerBits != 32 {
		t.Fatalf("pointer_bits = %d, want 32", l.PointerBits)
	}
}

func TestLoadTOMLDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	l, err := LoadTOML(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if l.PointerBits != 64 {
		t.Fatalf("pointer_bits = %d, want default 64", l.PointerBits)
	}
}
