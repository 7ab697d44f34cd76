// Package insts provides the decoded-instruction representation and the
// bit-pattern decoder that turns a 16-bit Thumb halfword into one.
package insts

import "github.com/amayagarcia/thumbsim/emu"

// Op names one of the instruction classes the decoder can produce.
type Op uint8

const (
	OpNOP Op = iota
	OpADC
	OpADD1
	OpADD2
	OpADD3
	OpADD4
	OpADD5
	OpADD6
	OpADD7
	OpAND
	OpASR1
	OpASR2
	OpB1
	OpB2
	OpBIC
	OpBKPT
	OpBL
	OpBLX
	OpBX
	OpCMN
	OpCMP1
	OpCMP2
	OpCMP3
	OpCPS
	OpCPY
	OpEOR
	OpLDMIA
	OpLDR1
	OpLDR2
	OpLDR3
	OpLDR4
	OpLDRB1
	OpLDRB2
	OpLDRH1
	OpLDRH2
	OpLDRSB
	OpLDRSH
	OpLSL1
	OpLSL2
	OpLSR1
	OpLSR2
	OpMOV1
	OpMOV2
	OpMUL
	OpMVN
	OpNEG
	OpORR
	OpPOP
	OpPUSH
	OpREV
	OpREV16
	OpREVSH
	OpROR
	OpSBC
	OpSTMIA
	OpSTR1
	OpSTR2
	OpSTR3
	OpSTRB1
	OpSTRB2
	OpSTRH1
	OpSTRH2
	OpSUB1
	OpSUB2
	OpSUB3
	OpSUB4
	OpSVC
	OpSXTB
	OpSXTH
	OpTST
	OpUXTB
	OpUXTH
)

var opNames = map[Op]string{
	OpNOP: "nop", OpADC: "adc", OpADD1: "add1", OpADD2: "add2", OpADD3: "add3",
	OpADD4: "add4", OpADD5: "add5", OpADD6: "add6", OpADD7: "add7", OpAND: "and",
	OpASR1: "asr1", OpASR2: "asr2", OpB1: "b1", OpB2: "b2", OpBIC: "bic",
	OpBKPT: "bkpt", OpBL: "bl", OpBLX: "blx", OpBX: "bx", OpCMN: "cmn",
	OpCMP1: "cmp1", OpCMP2: "cmp2", OpCMP3: "cmp3", OpCPS: "cps", OpCPY: "cpy",
	OpEOR: "eor", OpLDMIA: "ldmia", OpLDR1: "ldr1", OpLDR2: "ldr2", OpLDR3: "ldr3",
	OpLDR4: "ldr4", OpLDRB1: "ldrb1", OpLDRB2: "ldrb2", OpLDRH1: "ldrh1", OpLDRH2: "ldrh2",
	OpLDRSB: "ldrsb", OpLDRSH: "ldrsh", OpLSL1: "lsl1", OpLSL2: "lsl2", OpLSR1: "lsr1",
	OpLSR2: "lsr2", OpMOV1: "mov1", OpMOV2: "mov2", OpMUL: "mul", OpMVN: "mvn",
	OpNEG: "neg", OpORR: "orr", OpPOP: "pop", OpPUSH: "push", OpREV: "rev",
	OpREV16: "rev16", OpREVSH: "revsh", OpROR: "ror", OpSBC: "sbc", OpSTMIA: "stmia",
	OpSTR1: "str1", OpSTR2: "str2", OpSTR3: "str3", OpSTRB1: "strb1", OpSTRB2: "strb2",
	OpSTRH1: "strh1", OpSTRH2: "strh2", OpSUB1: "sub1", OpSUB2: "sub2", OpSUB3: "sub3",
	OpSUB4: "sub4", OpSVC: "svc", OpSXTB: "sxtb", OpSXTH: "sxth", OpTST: "tst",
	OpUXTB: "uxtb", OpUXTH: "uxth",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "unknown"
}

// Cond is a 4-bit Thumb condition code.
type Cond uint8

const (
	CondEQ Cond = 0x0
	CondNE Cond = 0x1
	CondCS Cond = 0x2
	CondCC Cond = 0x3
	CondMI Cond = 0x4
	CondPL Cond = 0x5
	CondVS Cond = 0x6
	CondVC Cond = 0x7
	CondHI Cond = 0x8
	CondLS Cond = 0x9
	CondGE Cond = 0xA
	CondLT Cond = 0xB
	CondGT Cond = 0xC
	CondLE Cond = 0xD
	CondU0 Cond = 0xE
	CondU1 Cond = 0xF
)

// RegSlot names one of the six operand slots a decoded instruction may
// carry. Not every instruction populates every slot.
type RegSlot int

const (
	SlotRD RegSlot = iota
	SlotRT
	SlotRDN
	SlotRM
	SlotRN
	SlotXPSR
	slotCount
)

// operand holds a captured (register number, value-at-decode-time) pair.
type operand struct {
	reg   emu.Reg
	value uint32
	used  bool
}

// Inst is a decoded instruction record. At most one is in flight between
// decode and execute at a time.
type Inst struct {
	Op        Op
	operands  [slotCount]operand
	Immediate uint32
	RegList   uint32
	Cond      Cond
}

// NewPlaceholder returns the synthetic "SVC 66" record the decoder emits
// on unpredictable or unrecognized encodings.
func NewPlaceholder() *Inst {
	inst := &Inst{Op: OpSVC}
	inst.Immediate = 66
	return inst
}

// SetOperand captures a register number and its value at decode time.
func (i *Inst) SetOperand(slot RegSlot, reg emu.Reg, value uint32) {
	i.operands[slot] = operand{reg: reg, value: value, used: true}
}

// RegisterNumber returns the register captured in slot, or RNONE.
func (i *Inst) RegisterNumber(slot RegSlot) emu.Reg {
	if !i.operands[slot].used {
		return emu.RNONE
	}
	return i.operands[slot].reg
}

// RegisterValue returns the value captured for slot at decode time.
func (i *Inst) RegisterValue(slot RegSlot) uint32 {
	return i.operands[slot].value
}

// RefreshOperand re-reads the live value of the register in slot from regs,
// unless the slot is empty, unused, or holds PC (whose captured value is
// frozen at the corrected fetch address). The active SP is substituted
// transparently since it was already resolved at capture time.
func (i *Inst) RefreshOperand(slot RegSlot, regs *emu.RegFile) {
	op := &i.operands[slot]
	if !op.used || op.reg == emu.RNONE || op.reg == emu.PC {
		return
	}
	op.value = regs.Read(op.reg)
}

// RefreshOperands re-reads every populated operand slot, used while decode
// is stalled holding a completed record.
func (i *Inst) RefreshOperands(regs *emu.RegFile) {
	for slot := RegSlot(0); slot < slotCount; slot++ {
		i.RefreshOperand(slot, regs)
	}
}

// Decoder turns Thumb halfwords into decoded instruction records. It owns
// no pipeline state of its own; the caller supplies live register reads
// needed to resolve the active stack pointer and the corrected PC.
type Decoder struct{}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// regFromEncoding returns activeSP in place of raw register number 13
// (MSP in the raw encoding space), otherwise reg unchanged.
func regFromEncoding(n uint32, activeSP emu.Reg) emu.Reg {
	if n == 13 {
		return activeSP
	}
	return emu.Reg(n)
}

// Decode matches inst against the dispatch cascade and returns a complete
// record, or, if inst is the first halfword of a 32-bit BL, the staged BL
// record with halfPending=true; DecodeSecondHalfword completes it. pc is the corrected fetch address
// (PC+2) captured by the caller; activeSP is the currently selected stack
// pointer register.
func (d *Decoder) Decode(inst uint16, pc uint32, activeSP emu.Reg, regs *emu.RegFile) (*Inst, bool) {
	w := uint32(inst)
	rec := &Inst{}

	read := func(n uint32) uint32 { return regs.Read(emu.Reg(n)) }
	readSub := func(n uint32) (emu.Reg, uint32) {
		r := regFromEncoding(n, activeSP)
		return r, regs.Read(r)
	}

	switch {
	case w&0xFFC0 == 0x4140: // ADC
		rdn, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpADC
		rec.SetOperand(SlotRDN, emu.Reg(rdn), read(rdn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		rec.SetOperand(SlotXPSR, emu.XPSR, read(uint32(emu.XPSR)))
		return rec, false

	case w&0xFE00 == 0x1C00: // ADD1
		rd, rn, im3 := w&0x7, (w>>3)&0x7, (w>>6)&0x7
		rec.Op = OpADD1
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.Immediate = im3
		return rec, false

	case w&0xF800 == 0x3000: // ADD2
		rdn, im8 := (w>>8)&0x7, w&0xFF
		rec.Op = OpADD2
		rec.SetOperand(SlotRDN, emu.Reg(rdn), read(rdn))
		rec.Immediate = im8
		return rec, false

	case w&0xFE00 == 0x1800: // ADD3
		rd, rn, rm := w&0x7, (w>>3)&0x7, (w>>6)&0x7
		rec.Op = OpADD3
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFF00 == 0x4400: // ADD4
		rdn := (w & 0x7) | ((w >> 4) & 0x8)
		rm := (w >> 3) & 0xF
		if rdn == uint32(emu.PC) && rdn == rm {
			return NewPlaceholder(), false
		}
		rdnReg, ra := emu.Reg(rdn), pc
		if rdn != uint32(emu.PC) {
			rdnReg, ra = readSub(rdn)
		}
		rmReg, rb := emu.Reg(rm), pc
		if rm != uint32(emu.PC) {
			rmReg, rb = readSub(rm)
		}
		rec.Op = OpADD4
		rec.SetOperand(SlotRDN, rdnReg, ra)
		rec.SetOperand(SlotRM, rmReg, rb)
		return rec, false

	case w&0xF800 == 0xA000: // ADD5 (ADR)
		rd, im8 := (w>>8)&0x7, w&0xFF
		rec.Op = OpADD5
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, emu.PC, pc)
		rec.Immediate = im8
		return rec, false

	case w&0xF800 == 0xA800: // ADD6 (SP + imm)
		rd, im8 := (w>>8)&0x7, w&0xFF
		rec.Op = OpADD6
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, activeSP, regs.Read(activeSP))
		rec.Immediate = im8
		return rec, false

	case w&0xFF80 == 0xB000: // ADD7 (SP += imm)
		im7 := w & 0x7F
		rec.Op = OpADD7
		rec.SetOperand(SlotRD, activeSP, 0)
		rec.SetOperand(SlotRM, activeSP, regs.Read(activeSP))
		rec.Immediate = im7
		return rec, false

	case w&0xFFC0 == 0x4000: // AND
		rdn, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpAND
		rec.SetOperand(SlotRDN, emu.Reg(rdn), read(rdn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xF800 == 0x1000: // ASR1
		rd, rm, im5 := w&0x7, (w>>3)&0x7, (w>>6)&0x1F
		rec.Op = OpASR1
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		rec.Immediate = im5
		return rec, false

	case w&0xFFC0 == 0x4100: // ASR2
		rdn, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpASR2
		rec.SetOperand(SlotRDN, emu.Reg(rdn), read(rdn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xF000 == 0xD000 && (w>>8)&0xF != uint32(CondU1): // B1
		cond := (w >> 8) & 0xF
		if cond == uint32(CondU0) {
			return NewPlaceholder(), false
		}
		im8 := w & 0xFF
		rec.Op = OpB1
		rec.SetOperand(SlotRM, emu.PC, pc)
		rec.SetOperand(SlotXPSR, emu.XPSR, read(uint32(emu.XPSR)))
		rec.Immediate = im8
		rec.Cond = Cond(cond)
		return rec, false

	case w&0xF800 == 0xE000: // B2
		im11 := w & 0x7FF
		rec.Op = OpB2
		rec.SetOperand(SlotRM, emu.PC, pc)
		rec.Immediate = im11
		return rec, false

	case w&0xFFC0 == 0x4380: // BIC
		rdn, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpBIC
		rec.SetOperand(SlotRDN, emu.Reg(rdn), read(rdn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFF00 == 0xBE00: // BKPT
		rec.Op = OpBKPT
		rec.Immediate = w & 0xFF
		return rec, false

	case w&0xF800 == 0xF000: // BL first halfword
		im10, s := w&0x3FF, (w>>10)&0x1
		rec.Op = OpBL
		rec.SetOperand(SlotRDN, emu.PC, pc)
		rec.Immediate = (im10 << 12) | (s << 24)
		return rec, true

	case w&0xFF87 == 0x4780: // BLX
		rm := (w >> 3) & 0xF
		if rm == uint32(emu.PC) {
			return NewPlaceholder(), false
		}
		rmReg, rb := readSub(rm)
		rec.Op = OpBLX
		rec.SetOperand(SlotRDN, emu.PC, pc)
		rec.SetOperand(SlotRM, rmReg, rb)
		return rec, false

	case w&0xFF87 == 0x4700: // BX
		rm := (w >> 3) & 0xF
		rmReg, rb := emu.Reg(rm), pc
		if rm != uint32(emu.PC) {
			rmReg, rb = readSub(rm)
		}
		rec.Op = OpBX
		rec.SetOperand(SlotRDN, emu.PC, pc)
		rec.SetOperand(SlotRM, rmReg, rb)
		return rec, false

	case w&0xFFC0 == 0x42C0: // CMN
		rn, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpCMN
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xF800 == 0x2800: // CMP1
		rn, im8 := (w>>8)&0x7, w&0xFF
		rec.Op = OpCMP1
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.Immediate = im8
		return rec, false

	case w&0xFFC0 == 0x4280: // CMP2
		rn, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpCMP2
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFF00 == 0x4500: // CMP3
		rn := (w & 0x7) | ((w >> 4) & 0x8)
		rm := (w >> 3) & 0xF
		if (w>>6)&0x3 == 0x0 {
			return NewPlaceholder(), false
		}
		if rn == uint32(emu.PC) || rm == uint32(emu.PC) {
			return NewPlaceholder(), false
		}
		rnReg, rnVal := readSub(rn)
		rmReg, rmVal := readSub(rm)
		rec.Op = OpCMP3
		rec.SetOperand(SlotRN, rnReg, rnVal)
		rec.SetOperand(SlotRM, rmReg, rmVal)
		return rec, false

	case w&0xFFEC == 0xB660: // CPS (repurposed character print)
		rec.Op = OpCPS
		rec.SetOperand(SlotRM, emu.R0, read(0))
		return rec, false

	case w&0xFF00 == 0x4600: // CPY / MOV(2) register
		rd := (w & 0x7) | ((w >> 4) & 0x8)
		rm := (w >> 3) & 0xF
		rdReg, _ := readSub(rd)
		rmReg, rb := emu.Reg(rm), pc
		if rm != uint32(emu.PC) {
			rmReg, rb = readSub(rm)
		}
		rec.Op = OpCPY
		rec.SetOperand(SlotRD, rdReg, 0)
		rec.SetOperand(SlotRM, rmReg, rb)
		return rec, false

	case w&0xFFC0 == 0x4040: // EOR
		rdn, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpEOR
		rec.SetOperand(SlotRDN, emu.Reg(rdn), read(rdn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xF800 == 0xC800: // LDMIA
		rn, rl := (w>>8)&0x7, w&0xFF
		if rl == 0 {
			return NewPlaceholder(), false
		}
		rec.Op = OpLDMIA
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.RegList = rl
		return rec, false

	case w&0xF800 == 0x6800: // LDR1
		rt, rn, im5 := w&0x7, (w>>3)&0x7, (w>>6)&0x1F
		rec.Op = OpLDR1
		rec.SetOperand(SlotRT, emu.Reg(rt), 0)
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.Immediate = im5
		return rec, false

	case w&0xFE00 == 0x5800: // LDR2
		rt, rn, rm := w&0x7, (w>>3)&0x7, (w>>6)&0x7
		rec.Op = OpLDR2
		rec.SetOperand(SlotRT, emu.Reg(rt), 0)
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xF800 == 0x4800: // LDR3 (literal)
		rt, im8 := (w>>8)&0x7, w&0xFF
		rec.Op = OpLDR3
		rec.SetOperand(SlotRT, emu.Reg(rt), 0)
		rec.SetOperand(SlotRN, emu.PC, pc)
		rec.Immediate = im8
		return rec, false

	case w&0xF800 == 0x9800: // LDR4 (SP-relative)
		rt, im8 := (w>>8)&0x7, w&0xFF
		rec.Op = OpLDR4
		rec.SetOperand(SlotRT, emu.Reg(rt), 0)
		rec.SetOperand(SlotRN, activeSP, regs.Read(activeSP))
		rec.Immediate = im8
		return rec, false

	case w&0xF800 == 0x7800: // LDRB1
		rt, rn, im5 := w&0x7, (w>>3)&0x7, (w>>6)&0x1F
		rec.Op = OpLDRB1
		rec.SetOperand(SlotRT, emu.Reg(rt), 0)
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.Immediate = im5
		return rec, false

	case w&0xFE00 == 0x5C00: // LDRB2
		rt, rn, rm := w&0x7, (w>>3)&0x7, (w>>6)&0x7
		rec.Op = OpLDRB2
		rec.SetOperand(SlotRT, emu.Reg(rt), 0)
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xF800 == 0x8800: // LDRH1
		rt, rn, im5 := w&0x7, (w>>3)&0x7, (w>>6)&0x1F
		rec.Op = OpLDRH1
		rec.SetOperand(SlotRT, emu.Reg(rt), 0)
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.Immediate = im5
		return rec, false

	case w&0xFE00 == 0x5A00: // LDRH2
		rt, rn, rm := w&0x7, (w>>3)&0x7, (w>>6)&0x7
		rec.Op = OpLDRH2
		rec.SetOperand(SlotRT, emu.Reg(rt), 0)
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFE00 == 0x5600: // LDRSB
		rt, rn, rm := w&0x7, (w>>3)&0x7, (w>>6)&0x7
		rec.Op = OpLDRSB
		rec.SetOperand(SlotRT, emu.Reg(rt), 0)
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFE00 == 0x5E00: // LDRSH
		rt, rn, rm := w&0x7, (w>>3)&0x7, (w>>6)&0x7
		rec.Op = OpLDRSH
		rec.SetOperand(SlotRT, emu.Reg(rt), 0)
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xF800 == 0x0000: // LSL1
		rd, rm, im5 := w&0x7, (w>>3)&0x7, (w>>6)&0x1F
		rec.Op = OpLSL1
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		rec.Immediate = im5
		return rec, false

	case w&0xFFC0 == 0x4080: // LSL2
		rdn, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpLSL2
		rec.SetOperand(SlotRDN, emu.Reg(rdn), read(rdn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xF800 == 0x0800: // LSR1
		rd, rm, im5 := w&0x7, (w>>3)&0x7, (w>>6)&0x1F
		rec.Op = OpLSR1
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		rec.Immediate = im5
		return rec, false

	case w&0xFFC0 == 0x40C0: // LSR2
		rdn, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpLSR2
		rec.SetOperand(SlotRDN, emu.Reg(rdn), read(rdn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xF800 == 0x2000: // MOV1
		rd, im8 := (w>>8)&0x7, w&0xFF
		rec.Op = OpMOV1
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.Immediate = im8
		return rec, false

	case w&0xFFC0 == 0x0000: // MOV2 (LSL #0 synonym)
		rd, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpMOV2
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFFC0 == 0x4340: // MUL
		rdn, rn := w&0x7, (w>>3)&0x7
		rec.Op = OpMUL
		rec.SetOperand(SlotRDN, emu.Reg(rdn), read(rdn))
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		return rec, false

	case w&0xFFC0 == 0x43C0: // MVN
		rd, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpMVN
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFFC0 == 0x4240: // NEG
		rd, rn := w&0x7, (w>>3)&0x7
		rec.Op = OpNEG
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.Immediate = 0
		return rec, false

	case w&0xFFFF == 0xBF00: // NOP
		rec.Op = OpNOP
		return rec, false

	case w&0xFFC0 == 0x4300: // ORR
		rdn, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpORR
		rec.SetOperand(SlotRDN, emu.Reg(rdn), read(rdn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFE00 == 0xBC00: // POP
		rl := w & 0xFF
		if (w>>8)&0x1 != 0 {
			rl |= 1 << uint32(emu.PC)
		}
		if rl == 0 {
			return NewPlaceholder(), false
		}
		rec.Op = OpPOP
		rec.SetOperand(SlotRN, activeSP, regs.Read(activeSP))
		rec.RegList = rl
		return rec, false

	case w&0xFE00 == 0xB400: // PUSH
		rl := w & 0xFF
		if (w>>8)&0x1 != 0 {
			rl |= 1 << uint32(emu.LR)
		}
		if rl == 0 {
			return NewPlaceholder(), false
		}
		rec.Op = OpPUSH
		rec.SetOperand(SlotRN, activeSP, regs.Read(activeSP))
		rec.RegList = rl
		return rec, false

	case w&0xFFC0 == 0xBA00: // REV
		rd, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpREV
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFFC0 == 0xBA40: // REV16
		rd, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpREV16
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFFC0 == 0xBAC0: // REVSH
		rd, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpREVSH
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFFC0 == 0x41C0: // ROR
		rdn, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpROR
		rec.SetOperand(SlotRDN, emu.Reg(rdn), read(rdn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFFC0 == 0x4180: // SBC
		rdn, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpSBC
		rec.SetOperand(SlotRDN, emu.Reg(rdn), read(rdn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		rec.SetOperand(SlotXPSR, emu.XPSR, read(uint32(emu.XPSR)))
		return rec, false

	case w&0xF800 == 0xC000: // STMIA
		rn, rl := (w>>8)&0x7, w&0xFF
		if rl == 0 {
			return NewPlaceholder(), false
		}
		rec.Op = OpSTMIA
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.RegList = rl
		return rec, false

	case w&0xF800 == 0x6000: // STR1
		rt, rn, im5 := w&0x7, (w>>3)&0x7, (w>>6)&0x1F
		rec.Op = OpSTR1
		rec.SetOperand(SlotRT, emu.Reg(rt), read(rt))
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.Immediate = im5
		return rec, false

	case w&0xFE00 == 0x5000: // STR2
		rt, rn, rm := w&0x7, (w>>3)&0x7, (w>>6)&0x7
		rec.Op = OpSTR2
		rec.SetOperand(SlotRT, emu.Reg(rt), read(rt))
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xF800 == 0x9000: // STR3 (SP-relative)
		rt, im8 := (w>>8)&0x7, w&0xFF
		rec.Op = OpSTR3
		rec.SetOperand(SlotRT, emu.Reg(rt), read(rt))
		rec.SetOperand(SlotRN, activeSP, regs.Read(activeSP))
		rec.Immediate = im8
		return rec, false

	case w&0xF800 == 0x7000: // STRB1
		rt, rn, im5 := w&0x7, (w>>3)&0x7, (w>>6)&0x1F
		rec.Op = OpSTRB1
		rec.SetOperand(SlotRT, emu.Reg(rt), read(rt))
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.Immediate = im5
		return rec, false

	case w&0xFE00 == 0x5400: // STRB2
		rt, rn, rm := w&0x7, (w>>3)&0x7, (w>>6)&0x7
		rec.Op = OpSTRB2
		rec.SetOperand(SlotRT, emu.Reg(rt), read(rt))
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xF800 == 0x8000: // STRH1
		rt, rn, im5 := w&0x7, (w>>3)&0x7, (w>>6)&0x1F
		rec.Op = OpSTRH1
		rec.SetOperand(SlotRT, emu.Reg(rt), read(rt))
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.Immediate = im5
		return rec, false

	case w&0xFE00 == 0x5200: // STRH2
		rt, rn, rm := w&0x7, (w>>3)&0x7, (w>>6)&0x7
		rec.Op = OpSTRH2
		rec.SetOperand(SlotRT, emu.Reg(rt), read(rt))
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFE00 == 0x1E00: // SUB1
		rd, rn, im3 := w&0x7, (w>>3)&0x7, (w>>6)&0x7
		rec.Op = OpSUB1
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.Immediate = im3
		return rec, false

	case w&0xF800 == 0x3800: // SUB2
		rdn, im8 := (w>>8)&0x7, w&0xFF
		rec.Op = OpSUB2
		rec.SetOperand(SlotRDN, emu.Reg(rdn), read(rdn))
		rec.Immediate = im8
		return rec, false

	case w&0xFE00 == 0x1A00: // SUB3
		rd, rn, rm := w&0x7, (w>>3)&0x7, (w>>6)&0x7
		rec.Op = OpSUB3
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFF80 == 0xB080: // SUB4 (SP -= imm)
		im7 := w & 0x7F
		rec.Op = OpSUB4
		rec.SetOperand(SlotRDN, activeSP, regs.Read(activeSP))
		rec.Immediate = im7
		return rec, false

	case w&0xFF00 == 0xDF00: // SVC
		rec.Op = OpSVC
		rec.Immediate = w & 0xFF
		return rec, false

	case w&0xFFC0 == 0xB240: // SXTB
		rd, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpSXTB
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFFC0 == 0xB200: // SXTH
		rd, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpSXTH
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFFC0 == 0x4200: // TST
		rn, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpTST
		rec.SetOperand(SlotRN, emu.Reg(rn), read(rn))
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFFC0 == 0xB2C0: // UXTB
		rd, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpUXTB
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFFC0 == 0xB280: // UXTH
		rd, rm := w&0x7, (w>>3)&0x7
		rec.Op = OpUXTH
		rec.SetOperand(SlotRD, emu.Reg(rd), 0)
		rec.SetOperand(SlotRM, emu.Reg(rm), read(rm))
		return rec, false

	case w&0xFFFF == 0xBF40: // SEV: never implemented by the core
		fatalf("unsupported instruction SEV")
		return nil, false

	default:
		return NewPlaceholder(), false
	}
}

// DecodeSecondHalfword combines the second halfword of a BL instruction
// with the immediate staged by Decode's first call. It returns false if
// inst does not match the expected second-halfword pattern, in which case
// the caller should substitute a placeholder.
func DecodeSecondHalfword(rec *Inst, inst uint16) bool {
	w := uint32(inst)
	if w&0xD000 != 0xD000 {
		return false
	}

	im11 := w & 0x7FF
	j1 := (w >> 13) & 0x1
	j2 := (w >> 11) & 0x1

	staged := rec.Immediate
	s := (staged >> 24) & 0x1
	i1 := (^(j1 ^ s)) & 0x1
	i2 := (^(j2 ^ s)) & 0x1

	rec.Immediate = staged | (i1 << 23) | (i2 << 22) | (im11 << 1)
	return true
}
