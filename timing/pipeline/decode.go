package pipeline

import (
	"github.com/amayagarcia/thumbsim/emu"
	"github.com/amayagarcia/thumbsim/insts"
)

// Decode turns the halfwords fetch hands it into decoded records, one per
// tick, holding the completed record until execute pulls it. A record
// held across a stall has its live-register operands refreshed every tick
// it waits.
type Decode struct {
	decoder *insts.Decoder

	inFlight     *insts.Inst
	halfPending  bool
	flushPending bool
}

// NewDecode creates a Decode stage.
func NewDecode() *Decode {
	return &Decode{decoder: insts.NewDecoder()}
}

// Flush schedules the in-flight record and any staged BL first-halfword
// to be discarded on the next tick.
func (d *Decode) Flush() {
	d.flushPending = true
}

// Tick runs one cycle of decode against fetch and regs.
func (d *Decode) Tick(fetch *Fetch, regs *emu.RegFile) {
	if d.flushPending {
		d.inFlight = nil
		d.halfPending = false
		d.flushPending = false
		return
	}

	if d.inFlight != nil && !d.halfPending {
		d.inFlight.RefreshOperands(regs)
		return
	}

	half, ok := fetch.GetNextInst(regs)
	if !ok {
		return
	}

	activeSP := regs.ActiveSP()
	pc := regs.Read(emu.PC)

	if d.halfPending {
		if insts.DecodeSecondHalfword(d.inFlight, half) {
			d.halfPending = false
			return
		}
		d.inFlight = insts.NewPlaceholder()
		d.halfPending = false
		return
	}

	rec, halfPending := d.decoder.Decode(half, pc, activeSP, regs)
	d.inFlight = rec
	d.halfPending = halfPending
}

// PullInst removes and returns the completed in-flight record, or nil if
// none is ready (nothing decoded yet, or a BL still waiting for its second
// halfword).
func (d *Decode) PullInst() *insts.Inst {
	if d.inFlight == nil || d.halfPending {
		return nil
	}
	rec := d.inFlight
	d.inFlight = nil
	return rec
}
