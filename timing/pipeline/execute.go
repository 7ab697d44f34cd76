package pipeline

import (
	"fmt"
	"io"
	"os"

	"github.com/amayagarcia/thumbsim/emu"
	"github.com/amayagarcia/thumbsim/insts"
)

// ExecState names a state of execute's instruction-retirement / memory
// sub-machine.
type ExecState int

const (
	StateNextInst ExecState = iota
	StateLoadMemReq
	StateLoadMemResp
	StateStoreMemReq
	StateStoreMemResp
	StateMLoadFirstReq
	StateMLoadReq
	StateMStoreFirstReq
	StateMStoreReq
	StateFlushPipeline
)

type loadTemp struct {
	ptr     uint32
	kind    emu.MemType
	destReg emu.Reg
	token   uint64
	mnem    string
}

type storeTemp struct {
	ptr     uint32
	kind    emu.MemType
	data    uint32
	token   uint64
	mnem    string
}

type multiLoadTemp struct {
	ptr     uint32
	list    []emu.Reg
	idx     int
	baseReg emu.Reg
	token   uint64
	mnem    string
}

type multiStoreTemp struct {
	ptr    uint32
	list   []emu.Reg
	values []uint32
	idx    int
	token  uint64
	mnem   string
}

// Execute retires decoded instructions: arithmetic/logic/compare/shift
// instructions complete inline in a single tick, while loads and stores
// drive a multi-cycle sub-machine that talks to Memory through tokenized
// requests.
type Execute struct {
	regs   *emu.RegFile
	mem    *emu.Memory
	alu    *emu.ALU
	stats  *Statistics
	decode *Decode
	fetch  *Fetch
	status *Status
	stdout io.Writer

	state ExecState
	cur   *insts.Inst

	load   loadTemp
	store  storeTemp
	mload  multiLoadTemp
	mstore multiStoreTemp

	halted   bool
	exitCode int
}

// NewExecute wires an Execute stage to its upstream decode/fetch stages
// and the shared register file, memory and statistics.
func NewExecute(regs *emu.RegFile, mem *emu.Memory, decode *Decode, fetch *Fetch, status *Status, stats *Statistics, stdout io.Writer) *Execute {
	return &Execute{
		regs:   regs,
		mem:    mem,
		alu:    emu.NewALU(regs),
		stats:  stats,
		decode: decode,
		fetch:  fetch,
		status: status,
		stdout: stdout,
	}
}

// Halted reports whether the program has terminated via BKPT or SVC.
func (e *Execute) Halted() bool { return e.halted }

// ExitCode returns the code the program terminated with.
func (e *Execute) ExitCode() int { return e.exitCode }

func isMemState(s ExecState) bool {
	return s != StateNextInst && s != StateFlushPipeline
}

// Tick runs one cycle of execute. It returns whether this cycle counted
// as an execute-memory cycle.
func (e *Execute) Tick() bool {
	stateOnEntry := e.state
	pulled := false

	if e.state == StateNextInst {
		rec := e.decode.PullInst()
		if rec == nil {
			e.stats.StalledForDecodeCycles++
			e.status.ExecuteStalled = false
			return false
		}
		pulled = true
		e.cur = rec
		e.dispatch(rec)
	} else {
		e.stepMemoryState()
	}

	e.status.ExecuteStalled = (e.state != StateNextInst) || pulled

	return isMemState(stateOnEntry) || (stateOnEntry == StateNextInst && isMemState(e.state))
}

func (e *Execute) flushPipeline() {
	e.decode.Flush()
	e.fetch.Flush()
}

func (e *Execute) fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// dispatch routes a freshly pulled decoded record either into the
// memory sub-machine or executes it inline.
func (e *Execute) dispatch(rec *insts.Inst) {
	switch rec.Op {
	case insts.OpLDR1, insts.OpLDR2, insts.OpLDR3, insts.OpLDR4,
		insts.OpLDRB1, insts.OpLDRB2, insts.OpLDRH1, insts.OpLDRH2,
		insts.OpLDRSB, insts.OpLDRSH:
		e.beginLoad(rec)
	case insts.OpSTR1, insts.OpSTR2, insts.OpSTR3,
		insts.OpSTRB1, insts.OpSTRB2, insts.OpSTRH1, insts.OpSTRH2:
		e.beginStore(rec)
	case insts.OpLDMIA, insts.OpPOP:
		e.beginMultiLoad(rec)
	case insts.OpSTMIA, insts.OpPUSH:
		e.beginMultiStore(rec)
	default:
		e.execInline(rec)
	}
}

// --- single load/store -----------------------------------------------

func (e *Execute) beginLoad(rec *insts.Inst) {
	rn := rec.RegisterValue(insts.SlotRN)
	rm := rec.RegisterValue(insts.SlotRM)
	imm := rec.Immediate

	var ptr uint32
	var kind emu.MemType
	switch rec.Op {
	case insts.OpLDR1:
		ptr, kind = rn+imm*4, emu.MemWord
	case insts.OpLDR2:
		ptr, kind = rn+rm, emu.MemWord
	case insts.OpLDR3:
		ptr, kind = (rn&^uint32(3))+imm*4, emu.MemWord
	case insts.OpLDR4:
		ptr, kind = rn+imm*4, emu.MemWord
	case insts.OpLDRB1:
		ptr, kind = rn+imm, emu.MemUnsignedByte
	case insts.OpLDRB2:
		ptr, kind = rn+rm, emu.MemUnsignedByte
	case insts.OpLDRH1:
		ptr, kind = rn+imm*2, emu.MemUnsignedHalfword
	case insts.OpLDRH2:
		ptr, kind = rn+rm, emu.MemUnsignedHalfword
	case insts.OpLDRSB:
		ptr, kind = rn+rm, emu.MemSignedByte
	case insts.OpLDRSH:
		ptr, kind = rn+rm, emu.MemSignedHalfword
	}

	e.load = loadTemp{ptr: ptr, kind: kind, destReg: rec.RegisterNumber(insts.SlotRT), mnem: rec.Op.String()}
	e.state = StateLoadMemReq
}

func (e *Execute) beginStore(rec *insts.Inst) {
	rn := rec.RegisterValue(insts.SlotRN)
	rm := rec.RegisterValue(insts.SlotRM)
	rt := rec.RegisterValue(insts.SlotRT)
	imm := rec.Immediate

	var ptr uint32
	var kind emu.MemType
	switch rec.Op {
	case insts.OpSTR1:
		ptr, kind = rn+imm*4, emu.MemWord
	case insts.OpSTR2:
		ptr, kind = rn+rm, emu.MemWord
	case insts.OpSTR3:
		ptr, kind = rn+imm*4, emu.MemWord
	case insts.OpSTRB1:
		ptr, kind = rn+imm, emu.MemUnsignedByte
	case insts.OpSTRB2:
		ptr, kind = rn+rm, emu.MemUnsignedByte
	case insts.OpSTRH1:
		ptr, kind = rn+imm*2, emu.MemUnsignedHalfword
	case insts.OpSTRH2:
		ptr, kind = rn+rm, emu.MemUnsignedHalfword
	}

	e.store = storeTemp{ptr: ptr, kind: kind, data: rt, mnem: rec.Op.String()}
	e.state = StateStoreMemReq
}

// --- multi load/store ---------------------------------------------

func regListBits(mask uint32) []emu.Reg {
	var regs []emu.Reg
	for i := 0; i < 16; i++ {
		if mask&(1<<uint32(i)) != 0 {
			regs = append(regs, emu.Reg(i))
		}
	}
	return regs
}

func (e *Execute) beginMultiLoad(rec *insts.Inst) {
	list := regListBits(rec.RegList)
	listBytes := uint32(len(list)) * 4
	base := rec.RegisterNumber(insts.SlotRN)
	ptr := rec.RegisterValue(insts.SlotRN)

	e.regs.Write(base, ptr+listBytes)

	e.mload = multiLoadTemp{ptr: ptr, list: list, baseReg: base, mnem: rec.Op.String()}
	e.state = StateMLoadFirstReq
}

func (e *Execute) beginMultiStore(rec *insts.Inst) {
	list := regListBits(rec.RegList)
	listBytes := uint32(len(list)) * 4
	base := rec.RegisterNumber(insts.SlotRN)
	rn := rec.RegisterValue(insts.SlotRN)

	var ptr, newBase uint32
	if rec.Op == insts.OpPUSH {
		ptr = rn - listBytes
		newBase = ptr
	} else {
		ptr = rn
		newBase = rn + listBytes
	}
	e.regs.Write(base, newBase)

	values := make([]uint32, len(list))
	for i, r := range list {
		values[i] = e.regs.Read(r)
	}

	e.mstore = multiStoreTemp{ptr: ptr, list: list, values: values, mnem: rec.Op.String()}
	e.state = StateMStoreFirstReq
}

// --- memory sub-machine ----------------------------------------------

func (e *Execute) stepMemoryState() {
	switch e.state {
	case StateLoadMemReq:
		token, ok := e.mem.RequestLoad(emu.IssuerExecute, e.load.ptr)
		if !ok {
			e.fatalf("execute issued a load while the memory pipeline was busy")
		}
		e.load.token = token
		e.state = StateLoadMemResp

	case StateLoadMemResp:
		data, ok := e.mem.RetrieveLoad(e.load.token)
		if !ok {
			return
		}
		value := emu.FormatLoad(e.load.kind, data, e.load.ptr)
		e.regs.Write(e.load.destReg, value)
		e.stats.CountInst(e.load.mnem)
		e.state = StateNextInst

	case StateStoreMemReq:
		word := e.mem.LoadWord(e.store.ptr &^ 3)
		merged := emu.MergeStore(e.store.kind, word, e.store.ptr, e.store.data)
		token, ok := e.mem.RequestStore(emu.IssuerExecute, e.store.ptr&^3, merged)
		if !ok {
			e.fatalf("execute issued a store while the memory pipeline was busy")
		}
		e.store.token = token
		e.state = StateStoreMemResp

	case StateStoreMemResp:
		if !e.mem.RetrieveStore(e.store.token) {
			return
		}
		e.stats.CountInst(e.store.mnem)
		e.state = StateNextInst

	case StateMLoadFirstReq:
		token, ok := e.mem.RequestLoad(emu.IssuerExecute, e.mload.ptr)
		if !ok {
			e.fatalf("execute issued a load while the memory pipeline was busy")
		}
		e.mload.token = token
		e.mload.ptr += 4
		e.state = StateMLoadReq

	case StateMLoadReq:
		data, ok := e.mem.RetrieveLoad(e.mload.token)
		if !ok {
			return
		}
		reg := e.mload.list[e.mload.idx]
		e.mload.idx++

		if reg == emu.PC {
			if e.mload.idx != len(e.mload.list) {
				e.fatalf("PC must be the last register in a multi-load register list")
			}
			e.regs.Write(emu.PC, data&^1)
			e.stats.BranchTaken++
			e.stats.CountInst(e.mload.mnem)
			e.flushPipeline()
			e.state = StateFlushPipeline
			return
		}
		e.regs.Write(reg, data)

		if e.mload.idx >= len(e.mload.list) {
			e.stats.CountInst(e.mload.mnem)
			e.state = StateNextInst
			return
		}

		token, ok := e.mem.RequestLoad(emu.IssuerExecute, e.mload.ptr)
		if !ok {
			e.fatalf("execute issued a load while the memory pipeline was busy")
		}
		e.mload.token = token
		e.mload.ptr += 4

	case StateMStoreFirstReq:
		token, ok := e.mem.RequestStore(emu.IssuerExecute, e.mstore.ptr, e.mstore.values[0])
		if !ok {
			e.fatalf("execute issued a store while the memory pipeline was busy")
		}
		e.mstore.token = token
		e.mstore.ptr += 4
		e.mstore.idx = 1
		e.state = StateMStoreReq

	case StateMStoreReq:
		if !e.mem.RetrieveStore(e.mstore.token) {
			return
		}
		if e.mstore.idx >= len(e.mstore.list) {
			e.stats.CountInst(e.mstore.mnem)
			e.state = StateNextInst
			return
		}
		token, ok := e.mem.RequestStore(emu.IssuerExecute, e.mstore.ptr, e.mstore.values[e.mstore.idx])
		if !ok {
			e.fatalf("execute issued a store while the memory pipeline was busy")
		}
		e.mstore.token = token
		e.mstore.ptr += 4
		e.mstore.idx++

	case StateFlushPipeline:
		e.state = StateNextInst
	}
}
