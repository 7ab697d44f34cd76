package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/amayagarcia/thumbsim/emu"
	"github.com/amayagarcia/thumbsim/insts"
)

var _ = Describe("Decoder", func() {
	var (
		decoder *insts.Decoder
		regs    *emu.RegFile
	)

	BeforeEach(func() {
		decoder = insts.NewDecoder()
		regs = &emu.RegFile{}
	})

	decode := func(halfword uint16) *insts.Inst {
		rec, halfPending := decoder.Decode(halfword, 0x1000, regs.ActiveSP(), regs)
		Expect(halfPending).To(BeFalse())
		return rec
	}

	Describe("MOV1", func() {
		It("decodes MOVS R0, #5", func() {
			rec := decode(0x2005) // 0010 0 000 00000101
			Expect(rec.Op).To(Equal(insts.OpMOV1))
			Expect(rec.RegisterNumber(insts.SlotRD)).To(Equal(emu.R0))
			Expect(rec.Immediate).To(Equal(uint32(5)))
		})
	})

	Describe("ADD3", func() {
		It("decodes ADDS R2, R0, R1", func() {
			regs.Write(emu.R0, 10)
			regs.Write(emu.R1, 20)
			rec := decode(0x1842) // 0001 10 001 000 010
			Expect(rec.Op).To(Equal(insts.OpADD3))
			Expect(rec.RegisterValue(insts.SlotRN)).To(Equal(uint32(10)))
			Expect(rec.RegisterValue(insts.SlotRM)).To(Equal(uint32(20)))
		})
	})

	Describe("ADD4 unpredictable case", func() {
		It("placeholders when Rdn and Rm are both PC", func() {
			// ADD PC, PC: DM=1 Rdn low bits=111(PC low3), Rm=1111
			inst := uint16(0x4400 | 0x7 | (1 << 7) | (0xF << 3))
			rec := decode(inst)
			Expect(rec.Op).To(Equal(insts.OpSVC))
			Expect(rec.Immediate).To(Equal(uint32(66)))
		})
	})

	Describe("B1 reserved condition", func() {
		It("placeholders on cond 0xE", func() {
			inst := uint16(0xD000 | (0xE << 8))
			rec := decode(inst)
			Expect(rec.Op).To(Equal(insts.OpSVC))
			Expect(rec.Immediate).To(Equal(uint32(66)))
		})

		It("falls through to SVC on cond 0xF", func() {
			inst := uint16(0xDF00 | 0x42)
			rec := decode(inst)
			Expect(rec.Op).To(Equal(insts.OpSVC))
			Expect(rec.Immediate).To(Equal(uint32(0x42)))
		})
	})

	Describe("empty register lists", func() {
		It("placeholders an empty POP", func() {
			rec := decode(0xBC00)
			Expect(rec.Op).To(Equal(insts.OpSVC))
		})

		It("placeholders an empty PUSH", func() {
			rec := decode(0xB400)
			Expect(rec.Op).To(Equal(insts.OpSVC))
		})
	})

	Describe("PUSH register list bits", func() {
		It("sets bit14 for LR when encoding bit8 is set", func() {
			rec := decode(0xB500 | 0x3) // PUSH {R0,R1,LR}
			Expect(rec.Op).To(Equal(insts.OpPUSH))
			Expect(rec.RegList & (1 << uint32(emu.LR))).NotTo(BeZero())
		})
	})

	Describe("BL two-halfword assembly", func() {
		It("stages the first halfword and combines with the second", func() {
			rec, halfPending := decoder.Decode(0xF000, 0x1000, regs.ActiveSP(), regs)
			Expect(halfPending).To(BeTrue())
			Expect(rec.Op).To(Equal(insts.OpBL))

			ok := insts.DecodeSecondHalfword(rec, 0xF801)
			Expect(ok).To(BeTrue())
		})

		It("placeholders when the second halfword doesn't match", func() {
			ok := insts.DecodeSecondHalfword(&insts.Inst{}, 0x0000)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("register capture and refresh", func() {
		It("captures the live value at decode time and refreshes on demand", func() {
			regs.Write(emu.R1, 100)
			rec := decode(0x1842) // ADD3 R2, R0, R1
			Expect(rec.RegisterValue(insts.SlotRM)).To(Equal(uint32(100)))

			regs.Write(emu.R1, 200)
			rec.RefreshOperands(regs)
			Expect(rec.RegisterValue(insts.SlotRM)).To(Equal(uint32(200)))
		})

		It("never refreshes a PC-captured operand", func() {
			rec := decode(0x2005)
			rec.SetOperand(insts.SlotRM, emu.PC, 0x1002)
			regs.Write(emu.PC, 0x2000)
			rec.RefreshOperands(regs)
			Expect(rec.RegisterValue(insts.SlotRM)).To(Equal(uint32(0x1002)))
		})
	})
})
