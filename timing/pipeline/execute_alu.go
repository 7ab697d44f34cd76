package pipeline

import (
	"github.com/amayagarcia/thumbsim/emu"
	"github.com/amayagarcia/thumbsim/insts"
)

// execInline retires every instruction that needs no memory access: ALU,
// shift, compare, move, branch and miscellaneous operations all complete
// within the tick that pulled them.
func (e *Execute) execInline(rec *insts.Inst) {
	switch rec.Op {
	case insts.OpADC:
		rdn := rec.RegisterValue(insts.SlotRDN)
		rm := rec.RegisterValue(insts.SlotRM)
		c := emu.XpsrC(rec.RegisterValue(insts.SlotXPSR))
		result := e.alu.SetAddFlags(rdn, rm, c)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), result)

	case insts.OpADD1:
		rn := rec.RegisterValue(insts.SlotRN)
		result := e.alu.SetAddFlags(rn, rec.Immediate, 0)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), result)

	case insts.OpADD2:
		rdn := rec.RegisterValue(insts.SlotRDN)
		result := e.alu.SetAddFlags(rdn, rec.Immediate, 0)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), result)

	case insts.OpADD3:
		rn := rec.RegisterValue(insts.SlotRN)
		rm := rec.RegisterValue(insts.SlotRM)
		result := e.alu.SetAddFlags(rn, rm, 0)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), result)

	case insts.OpADD4:
		e.execAdd4(rec)

	case insts.OpADD5:
		pc := rec.RegisterValue(insts.SlotRM)
		result := (pc &^ 3) + rec.Immediate*4
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), result)

	case insts.OpADD6:
		sp := rec.RegisterValue(insts.SlotRM)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), sp+rec.Immediate*4)

	case insts.OpADD7:
		sp := rec.RegisterValue(insts.SlotRM)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), sp+rec.Immediate*4)

	case insts.OpAND:
		result := rec.RegisterValue(insts.SlotRDN) & rec.RegisterValue(insts.SlotRM)
		e.alu.SetLogicFlags(result)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), result)

	case insts.OpASR1:
		c := emu.XpsrC(e.regs.Read(emu.XPSR))
		sh := emu.ASR(rec.RegisterValue(insts.SlotRM), rec.Immediate, c)
		e.alu.SetShiftFlags(sh.Value, sh.Carry)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), sh.Value)

	case insts.OpASR2:
		c := emu.XpsrC(e.regs.Read(emu.XPSR))
		sh := emu.ASR(rec.RegisterValue(insts.SlotRDN), rec.RegisterValue(insts.SlotRM)&0xFF, c)
		e.alu.SetShiftFlags(sh.Value, sh.Carry)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), sh.Value)

	case insts.OpB1:
		e.execB1(rec)

	case insts.OpB2:
		pc := rec.RegisterValue(insts.SlotRM)
		offset := signExtend(rec.Immediate, 11) << 1
		e.regs.Write(emu.PC, pc+offset)
		e.stats.BranchTaken++
		e.flushPipeline()

	case insts.OpBIC:
		result := rec.RegisterValue(insts.SlotRDN) &^ rec.RegisterValue(insts.SlotRM)
		e.alu.SetLogicFlags(result)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), result)

	case insts.OpBKPT:
		e.halted = true
		e.exitCode = int(rec.Immediate)

	case insts.OpBL:
		pc := rec.RegisterValue(insts.SlotRDN)
		offset := signExtend(rec.Immediate, 25)
		e.regs.Write(emu.LR, pc|1)
		e.regs.Write(emu.PC, pc+offset)
		e.stats.BranchTaken++
		e.flushPipeline()

	case insts.OpBLX:
		rm := rec.RegisterValue(insts.SlotRM)
		if rm&1 == 0 {
			e.fatalf("BLX to a non-Thumb address 0x%08x", rm)
		}
		pc := rec.RegisterValue(insts.SlotRDN)
		e.regs.Write(emu.LR, (pc-2)|1)
		e.regs.Write(emu.PC, rm&^1)
		e.stats.BranchTaken++
		e.flushPipeline()

	case insts.OpBX:
		rm := rec.RegisterValue(insts.SlotRM)
		if rm&1 == 0 {
			e.fatalf("BX to a non-Thumb address 0x%08x", rm)
		}
		e.regs.Write(emu.PC, rm&^1)
		e.stats.BranchTaken++
		e.flushPipeline()

	case insts.OpCMN:
		e.alu.SetAddFlags(rec.RegisterValue(insts.SlotRN), rec.RegisterValue(insts.SlotRM), 0)

	case insts.OpCMP1:
		e.alu.SetSubFlags(rec.RegisterValue(insts.SlotRN), rec.Immediate)

	case insts.OpCMP2, insts.OpCMP3:
		e.alu.SetSubFlags(rec.RegisterValue(insts.SlotRN), rec.RegisterValue(insts.SlotRM))

	case insts.OpCPS:
		e.stdout.Write([]byte{byte(rec.RegisterValue(insts.SlotRM) & 0xFF)})

	case insts.OpCPY:
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), rec.RegisterValue(insts.SlotRM))

	case insts.OpEOR:
		result := rec.RegisterValue(insts.SlotRDN) ^ rec.RegisterValue(insts.SlotRM)
		e.alu.SetLogicFlags(result)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), result)

	case insts.OpLSL1:
		c := emu.XpsrC(e.regs.Read(emu.XPSR))
		sh := emu.LSL(rec.RegisterValue(insts.SlotRM), rec.Immediate, c)
		e.alu.SetShiftFlags(sh.Value, sh.Carry)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), sh.Value)

	case insts.OpLSL2:
		c := emu.XpsrC(e.regs.Read(emu.XPSR))
		sh := emu.LSL(rec.RegisterValue(insts.SlotRDN), rec.RegisterValue(insts.SlotRM)&0xFF, c)
		e.alu.SetShiftFlags(sh.Value, sh.Carry)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), sh.Value)

	case insts.OpLSR1:
		c := emu.XpsrC(e.regs.Read(emu.XPSR))
		sh := emu.LSR(rec.RegisterValue(insts.SlotRM), rec.Immediate, c)
		e.alu.SetShiftFlags(sh.Value, sh.Carry)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), sh.Value)

	case insts.OpLSR2:
		c := emu.XpsrC(e.regs.Read(emu.XPSR))
		sh := emu.LSR(rec.RegisterValue(insts.SlotRDN), rec.RegisterValue(insts.SlotRM)&0xFF, c)
		e.alu.SetShiftFlags(sh.Value, sh.Carry)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), sh.Value)

	case insts.OpMOV1:
		e.alu.SetLogicFlags(rec.Immediate)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), rec.Immediate)

	case insts.OpMOV2:
		rm := rec.RegisterValue(insts.SlotRM)
		e.alu.SetLogicFlags(rm)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), rm)

	case insts.OpMUL:
		result := rec.RegisterValue(insts.SlotRDN) * rec.RegisterValue(insts.SlotRN)
		e.alu.SetLogicFlags(result)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), result)

	case insts.OpMVN:
		result := ^rec.RegisterValue(insts.SlotRM)
		e.alu.SetLogicFlags(result)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), result)

	case insts.OpNEG:
		result := 0 - rec.RegisterValue(insts.SlotRN)
		e.alu.SetLogicFlags(result)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), result)

	case insts.OpNOP:
		// no architectural effect

	case insts.OpORR:
		result := rec.RegisterValue(insts.SlotRDN) | rec.RegisterValue(insts.SlotRM)
		e.alu.SetLogicFlags(result)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), result)

	case insts.OpREV:
		result := emu.Rev(rec.RegisterValue(insts.SlotRM))
		e.alu.SetLogicFlags(result)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), result)

	case insts.OpREV16:
		result := emu.Rev16(rec.RegisterValue(insts.SlotRM))
		e.alu.SetLogicFlags(result)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), result)

	case insts.OpREVSH:
		result := emu.Revsh(rec.RegisterValue(insts.SlotRM))
		e.alu.SetLogicFlags(result)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), result)

	case insts.OpROR:
		c := emu.XpsrC(e.regs.Read(emu.XPSR))
		sh := emu.ROR(rec.RegisterValue(insts.SlotRDN), rec.RegisterValue(insts.SlotRM)&0xFF, c)
		e.alu.SetShiftFlags(sh.Value, sh.Carry)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), sh.Value)

	case insts.OpSBC:
		rdn := rec.RegisterValue(insts.SlotRDN)
		rm := rec.RegisterValue(insts.SlotRM)
		c := emu.XpsrC(rec.RegisterValue(insts.SlotXPSR))
		result := e.alu.SetAddFlags(rdn, ^rm, c)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), result)

	case insts.OpSUB1:
		rn := rec.RegisterValue(insts.SlotRN)
		result := e.alu.SetSubFlags(rn, rec.Immediate)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), result)

	case insts.OpSUB2:
		rdn := rec.RegisterValue(insts.SlotRDN)
		result := e.alu.SetSubFlags(rdn, rec.Immediate)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), result)

	case insts.OpSUB3:
		rn := rec.RegisterValue(insts.SlotRN)
		rm := rec.RegisterValue(insts.SlotRM)
		result := e.alu.SetSubFlags(rn, rm)
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), result)

	case insts.OpSUB4:
		sp := rec.RegisterValue(insts.SlotRDN)
		e.regs.Write(rec.RegisterNumber(insts.SlotRDN), sp-rec.Immediate*4)

	case insts.OpSVC:
		e.halted = true
		e.exitCode = int(rec.Immediate)

	case insts.OpSXTB:
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), emu.SignExtendByte(rec.RegisterValue(insts.SlotRM)))

	case insts.OpSXTH:
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), emu.SignExtendHalfword(rec.RegisterValue(insts.SlotRM)))

	case insts.OpTST:
		e.alu.SetLogicFlags(rec.RegisterValue(insts.SlotRN) & rec.RegisterValue(insts.SlotRM))

	case insts.OpUXTB:
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), rec.RegisterValue(insts.SlotRM)&0xFF)

	case insts.OpUXTH:
		e.regs.Write(rec.RegisterNumber(insts.SlotRD), rec.RegisterValue(insts.SlotRM)&0xFFFF)
	}

	e.stats.CountInst(rec.Op.String())
}

func (e *Execute) execAdd4(rec *insts.Inst) {
	rdnReg := rec.RegisterNumber(insts.SlotRDN)
	result := rec.RegisterValue(insts.SlotRDN) + rec.RegisterValue(insts.SlotRM)

	if rdnReg != emu.PC {
		e.regs.Write(rdnReg, result)
		return
	}

	if result&1 != 0 {
		e.fatalf("ADD4 branch target 0x%08x is not Thumb-aligned", result)
	}
	e.regs.Write(emu.PC, result&^1)
	e.stats.BranchTaken++
	e.flushPipeline()
}

func (e *Execute) execB1(rec *insts.Inst) {
	cond := insts.Cond(rec.Cond)
	xpsr := rec.RegisterValue(insts.SlotXPSR)

	if !checkCondition(cond, xpsr) {
		e.stats.BranchNotTaken++
		return
	}

	pc := rec.RegisterValue(insts.SlotRM)
	offset := signExtend(rec.Immediate, 8) << 1
	e.regs.Write(emu.PC, pc+offset)
	e.stats.BranchTaken++
	e.flushPipeline()
}

// signExtend sign-extends the low bits-wide field of v to 32 bits.
func signExtend(v uint32, bits uint32) uint32 {
	shift := 32 - bits
	return uint32(int32(v<<shift) >> shift)
}

// checkCondition evaluates one of the sixteen Thumb condition codes
// against the N, Z, C, V flags packed in xpsr.
func checkCondition(cond insts.Cond, xpsr uint32) bool {
	n, z, c, v := emu.XpsrN(xpsr), emu.XpsrZ(xpsr), emu.XpsrC(xpsr), emu.XpsrV(xpsr)

	switch cond {
	case insts.CondEQ:
		return z == 1
	case insts.CondNE:
		return z == 0
	case insts.CondCS:
		return c == 1
	case insts.CondCC:
		return c == 0
	case insts.CondMI:
		return n == 1
	case insts.CondPL:
		return n == 0
	case insts.CondVS:
		return v == 1
	case insts.CondVC:
		return v == 0
	case insts.CondHI:
		return c == 1 && z == 0
	case insts.CondLS:
		return c == 0 || z == 1
	case insts.CondGE:
		return n == v
	case insts.CondLT:
		return n != v
	case insts.CondGT:
		return z == 0 && n == v
	case insts.CondLE:
		return z == 1 || n != v
	default:
		return false
	}
}
