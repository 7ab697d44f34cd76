// Package loader reads a flat little-endian program image into memory and
// derives the initial register state from it.
package loader

import (
	"fmt"

	"github.com/amayagarcia/thumbsim/emu"
)

// Program describes the register state a loaded image wants to start
// execution with.
type Program struct {
	InitialSP uint32
	InitialPC uint32
	SizeBytes uint32
}

// Load reads path into mem and returns the initial register state. It
// returns an error (a configuration error, per the CLI's error policy) if
// the image cannot be read, is too large for mem, or its reset-vector PC
// is not marked Thumb.
func Load(path string, mem *emu.Memory) (*Program, error) {
	sp, pc, size, err := mem.LoadProgram(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	return &Program{InitialSP: sp, InitialPC: pc, SizeBytes: size}, nil
}
