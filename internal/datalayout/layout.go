// Package datalayout carries the target configuration the lowering needs:
// at minimum the pointer width used to realize the index type.
package datalayout

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Layout describes the target data layout.
type Layout struct {
	PointerBits uint32
}

// Default returns the 64-bit layout.
func Default() Layout {
	return Layout{PointerBits: 64}
}

// Validate rejects pointer widths the target cannot address with.
func (l Layout) Validate() error {
	switch l.PointerBits {
	case 16, 32, 64:
		return nil
	default:
		return fmt.Errorf("datalayout: unsupported pointer width %d", l.PointerBits)
	}
}

type fileConfig struct {
	Target struct {
		PointerBits uint32 `toml:"pointer_bits"`
	} `toml:"target"`
}

// LoadTOML reads a layout from a TOML file:
//
//	[target]
//	pointer_bits = 64
//
// Missing fields fall back to the default layout.
func LoadTOML(path string) (Layout, error) {
	var cfg fileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Layout{}, fmt.Errorf("datalayout: %w", err)
	}
	l := Default()
	if cfg.Target.PointerBits != 0 {
		l.PointerBits = cfg.Target.PointerBits
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}
