// Package pipeline implements the three-stage fetch/decode/execute
// pipeline and its tick-by-tick interaction with the latent memory model.
package pipeline

import (
	"io"

	"github.com/amayagarcia/thumbsim/emu"
)

// Processor owns every pipeline component and drives the per-cycle tick
// order the design requires: execute, then decode, then fetch, then
// memory. Reverse order matters — memory served at the end of a cycle
// only becomes visible to fetch and execute at the start of the next.
type Processor struct {
	regs *emu.RegFile
	mem  *emu.Memory

	fetch   *Fetch
	decode  *Decode
	execute *Execute
	status  *Status
	stats   *Statistics
}

// NewProcessor constructs a Processor around the given register file and
// memory, wired to report program output to stdout.
func NewProcessor(regs *emu.RegFile, mem *emu.Memory, stdout io.Writer) *Processor {
	status := &Status{}
	stats := NewStatistics()
	fetch := NewFetch(mem.MemAccessWidthWords())
	decode := NewDecode()
	execute := NewExecute(regs, mem, decode, fetch, status, stats, stdout)

	return &Processor{
		regs:    regs,
		mem:     mem,
		fetch:   fetch,
		decode:  decode,
		execute: execute,
		status:  status,
		stats:   stats,
	}
}

// Stats returns the live statistics counters.
func (p *Processor) Stats() *Statistics { return p.stats }

// Regs returns the processor's register file.
func (p *Processor) Regs() *emu.RegFile { return p.regs }

// Tick runs exactly one cycle: execute, decode, fetch, memory.
func (p *Processor) Tick() {
	execMemCycle := p.execute.Tick()
	p.decode.Tick(p.fetch, p.regs)
	p.fetch.Tick(p.mem, p.regs, p.status)
	p.mem.Tick()

	p.stats.Cycles++
	if execMemCycle {
		p.stats.ExecuteMemCycles++
	}
	if p.fetch.MemCycle() {
		p.stats.FetchMemCycles++
	}
}

// Halted reports whether the program has terminated via BKPT or SVC.
func (p *Processor) Halted() bool { return p.execute.Halted() }

// ExitCode returns the code the program terminated with.
func (p *Processor) ExitCode() int { return p.execute.ExitCode() }

// Run ticks the processor until it halts.
func (p *Processor) Run() int {
	for !p.execute.Halted() {
		p.Tick()
	}
	return p.execute.ExitCode()
}
