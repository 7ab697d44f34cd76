package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/amayagarcia/thumbsim/emu"
)

var _ = Describe("ALU", func() {
	var (
		regs *emu.RegFile
		alu  *emu.ALU
	)

	BeforeEach(func() {
		regs = &emu.RegFile{}
		alu = emu.NewALU(regs)
	})

	Describe("SetAddFlags", func() {
		It("sets Z and C on 0xFFFFFFFF + 1", func() {
			result := alu.SetAddFlags(0xFFFFFFFF, 1, 0)
			xpsr := regs.Read(emu.XPSR)

			Expect(result).To(Equal(uint32(0)))
			Expect(emu.XpsrZ(xpsr)).To(Equal(uint32(1)))
			Expect(emu.XpsrN(xpsr)).To(Equal(uint32(0)))
			Expect(emu.XpsrC(xpsr)).To(Equal(uint32(1)))
			Expect(emu.XpsrV(xpsr)).To(Equal(uint32(0)))
		})

		It("detects signed overflow on 0x7FFFFFFF + 1", func() {
			result := alu.SetAddFlags(0x7FFFFFFF, 1, 0)
			xpsr := regs.Read(emu.XPSR)

			Expect(result).To(Equal(uint32(0x80000000)))
			Expect(emu.XpsrN(xpsr)).To(Equal(uint32(1)))
			Expect(emu.XpsrZ(xpsr)).To(Equal(uint32(0)))
			Expect(emu.XpsrC(xpsr)).To(Equal(uint32(0)))
			Expect(emu.XpsrV(xpsr)).To(Equal(uint32(1)))
		})

		It("clears Q on every flag-writing call", func() {
			xpsr := emu.SetXpsrQ(regs.Read(emu.XPSR), 1)
			regs.Write(emu.XPSR, xpsr)

			alu.SetAddFlags(1, 1, 0)
			Expect(emu.XpsrQ(regs.Read(emu.XPSR))).To(Equal(uint32(0)))
		})
	})

	Describe("SetSubFlags", func() {
		It("agrees with AddWithCarry(a, ~b, 1) on flags", func() {
			alu.SetSubFlags(10, 3)
			subXpsr := regs.Read(emu.XPSR)

			regs2 := &emu.RegFile{}
			alu2 := emu.NewALU(regs2)
			alu2.SetAddFlags(10, ^uint32(3), 1)
			addXpsr := regs2.Read(emu.XPSR)

			Expect(subXpsr).To(Equal(addXpsr))
		})
	})

	Describe("SetLogicFlags", func() {
		It("sets only N and Z, leaving C and V untouched", func() {
			xpsr := emu.SetXpsrC(regs.Read(emu.XPSR), 1)
			xpsr = emu.SetXpsrV(xpsr, 1)
			regs.Write(emu.XPSR, xpsr)

			alu.SetLogicFlags(0)
			result := regs.Read(emu.XPSR)
			Expect(emu.XpsrZ(result)).To(Equal(uint32(1)))
			Expect(emu.XpsrC(result)).To(Equal(uint32(1)))
			Expect(emu.XpsrV(result)).To(Equal(uint32(1)))
		})
	})

	Describe("shifts", func() {
		It("leaves value and carry unchanged for a shift by zero", func() {
			for _, shift := range []func(uint32, uint32, uint32) emu.ShiftResult{emu.LSL, emu.LSR, emu.ASR, emu.ROR} {
				res := shift(0x12345678, 0, 1)
				Expect(res.Value).To(Equal(uint32(0x12345678)))
				Expect(res.Carry).To(Equal(uint32(1)))
			}
		})

		It("computes LSL carry from the bit shifted out", func() {
			res := emu.LSL(0x80000001, 1, 0)
			Expect(res.Value).To(Equal(uint32(2)))
			Expect(res.Carry).To(Equal(uint32(1)))
		})

		It("zeros the result and takes carry from the LSB on LSL by 32", func() {
			res := emu.LSL(0x1, 32, 0)
			Expect(res.Value).To(Equal(uint32(0)))
			Expect(res.Carry).To(Equal(uint32(1)))
		})

		It("sign-replicates on ASR", func() {
			res := emu.ASR(0x80000000, 4, 0)
			Expect(res.Value).To(Equal(uint32(0xF8000000)))
		})

		It("rotates bits around on ROR", func() {
			res := emu.ROR(0x1, 1, 0)
			Expect(res.Value).To(Equal(uint32(0x80000000)))
			Expect(res.Carry).To(Equal(uint32(1)))
		})
	})

	Describe("sign extension", func() {
		It("extends a negative byte", func() {
			Expect(emu.SignExtendByte(0x80)).To(Equal(uint32(0xFFFFFF80)))
		})

		It("extends a negative halfword", func() {
			Expect(emu.SignExtendHalfword(0x8000)).To(Equal(uint32(0xFFFF8000)))
		})

		It("leaves a positive value's upper bits clear", func() {
			Expect(emu.SignExtendByte(0x7F)).To(Equal(uint32(0x7F)))
		})
	})

	Describe("byte-order helpers", func() {
		It("is its own inverse under REV", func() {
			v := uint32(0x01020304)
			Expect(emu.Rev(emu.Rev(v))).To(Equal(v))
		})

		It("swaps within halfwords under REV16", func() {
			Expect(emu.Rev16(0x01020304)).To(Equal(uint32(0x02010403)))
		})

		It("swaps the low halfword and sign-extends under REVSH", func() {
			Expect(emu.Revsh(0x00008001)).To(Equal(uint32(0x00000180)))
			Expect(emu.Revsh(0x0000FF80)).To(Equal(uint32(0xFFFF80FF)))
		})
	})
})
