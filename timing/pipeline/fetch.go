package pipeline

import (
	"github.com/amayagarcia/thumbsim/emu"
)

// Fetch owns the wide instruction buffer and refills it with wide loads
// that take two cycles to come back. The refill is only triggered once
// decode reaches the last halfword of the current buffer, so it overlaps
// with decode working through the halfwords already in hand; decode gets
// no halfword while the buffer is invalid (at start-up and after a flush)
// or while a refill for the next block is still in flight.
type Fetch struct {
	buffer   []uint16
	bufValid bool
	baseAddr uint32

	pendingAccess bool
	pendingToken  uint64

	flushPending bool

	memCycle bool
}

// NewFetch creates a Fetch sized for the given wide access width.
func NewFetch(memAccessWidthWords uint32) *Fetch {
	return &Fetch{
		buffer: make([]uint16, 2*memAccessWidthWords),
	}
}

// Flush schedules the buffer and any in-flight load to be discarded on the
// next tick.
func (f *Fetch) Flush() {
	f.flushPending = true
}

// Tick runs one cycle of the fetch state machine against mem, reading the
// live PC from regs to decide whether a new wide load is due. MemCycle
// reports afterwards whether this tick counted as a fetch-memory cycle.
func (f *Fetch) Tick(mem *emu.Memory, regs *emu.RegFile, status *Status) {
	f.memCycle = false

	if f.flushPending {
		f.bufValid = false
		f.pendingAccess = false
		f.flushPending = false
		return
	}

	if f.pendingAccess {
		if words, ok := mem.RetrieveWideLoad(f.pendingToken); ok {
			f.buffer = wordsToHalfwords(words)
			f.baseAddr = mem.WidthBaseAddr(regs.Read(emu.PC))
			f.pendingAccess = false
			f.bufValid = true
		}
	}

	pc := regs.Read(emu.PC)
	probePC := pc
	if f.bufValid {
		probePC = pc + 2
	}

	needsLoad := !f.bufValid
	if f.bufValid && !status.ExecuteStalled && mem.WidthBaseAddr(probePC) != f.baseAddr {
		needsLoad = true
	}

	if needsLoad && !f.pendingAccess {
		if token, ok := mem.RequestLoad(emu.IssuerFetch, probePC); ok {
			f.memCycle = true
			f.pendingToken = token
			f.pendingAccess = true
		}
	}
}

// MemCycle reports whether the just-completed tick issued a fetch load.
func (f *Fetch) MemCycle() bool { return f.memCycle }

// GetNextInst returns the halfword at the current PC and advances PC by
// two. It reports !ok if the buffer is not yet valid, a flush is pending,
// or PC has just moved past the end of the buffer and the next block has
// not arrived yet.
func (f *Fetch) GetNextInst(regs *emu.RegFile) (uint16, bool) {
	if !f.bufValid || f.flushPending {
		return 0, false
	}

	pc := regs.Read(emu.PC)
	blockBytes := bytesPerWord(f.buffer)
	if pc == f.baseAddr+blockBytes {
		return 0, false
	}
	if pc < f.baseAddr || pc > f.baseAddr+blockBytes {
		fatalInvalidBuffer(pc, f.baseAddr)
	}

	offset := (pc - f.baseAddr) / 2
	inst := f.buffer[offset]
	regs.Write(emu.PC, pc+2)
	return inst, true
}

func bytesPerWord(buf []uint16) uint32 {
	return uint32(len(buf)) * 2
}

func wordsToHalfwords(words []uint32) []uint16 {
	out := make([]uint16, 0, len(words)*2)
	for _, w := range words {
		out = append(out, uint16(w&0xFFFF), uint16((w>>16)&0xFFFF))
	}
	return out
}
