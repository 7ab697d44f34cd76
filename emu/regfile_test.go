package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/amayagarcia/thumbsim/emu"
)

var _ = Describe("RegFile", func() {
	var regs *emu.RegFile

	BeforeEach(func() {
		regs = &emu.RegFile{}
	})

	It("reads back what it writes", func() {
		regs.Write(emu.R3, 0xDEADBEEF)
		Expect(regs.Read(emu.R3)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("reads RNONE as zero and ignores writes to it", func() {
		regs.Write(emu.RNONE, 0x1)
		Expect(regs.Read(emu.RNONE)).To(Equal(uint32(0)))
	})

	Describe("active stack pointer selection", func() {
		It("selects MSP when CONTROL.S is clear", func() {
			Expect(regs.ActiveSP()).To(Equal(emu.MSP))
		})

		It("selects PSP when CONTROL.S is set", func() {
			regs.SetControlS(1)
			Expect(regs.ActiveSP()).To(Equal(emu.PSP))
		})
	})

	Describe("CONTROL bits", func() {
		It("sets P and S independently", func() {
			regs.SetControlP(1)
			regs.SetControlS(1)
			Expect(regs.ControlP()).To(Equal(uint32(1)))
			Expect(regs.ControlS()).To(Equal(uint32(1)))

			regs.SetControlP(0)
			Expect(regs.ControlP()).To(Equal(uint32(0)))
			Expect(regs.ControlS()).To(Equal(uint32(1)))
		})
	})

	Describe("xPSR flag accessors", func() {
		It("round-trips each flag bit independently", func() {
			var xpsr uint32
			xpsr = emu.SetXpsrN(xpsr, 1)
			xpsr = emu.SetXpsrZ(xpsr, 1)
			xpsr = emu.SetXpsrC(xpsr, 1)
			xpsr = emu.SetXpsrV(xpsr, 1)

			Expect(emu.XpsrN(xpsr)).To(Equal(uint32(1)))
			Expect(emu.XpsrZ(xpsr)).To(Equal(uint32(1)))
			Expect(emu.XpsrC(xpsr)).To(Equal(uint32(1)))
			Expect(emu.XpsrV(xpsr)).To(Equal(uint32(1)))

			xpsr = emu.SetXpsrN(xpsr, 0)
			Expect(emu.XpsrN(xpsr)).To(Equal(uint32(0)))
			Expect(emu.XpsrZ(xpsr)).To(Equal(uint32(1)), "clearing N must not disturb Z")
		})

		It("stores the 9-bit exception field at bit0 without touching N/Z/C/V", func() {
			xpsr := emu.SetXpsrN(0, 1)
			xpsr = emu.SetXpsrException(xpsr, 0x1FF)
			Expect(emu.XpsrException(xpsr)).To(Equal(uint32(0x1FF)))
			Expect(emu.XpsrN(xpsr)).To(Equal(uint32(1)))
		})
	})

	Describe("String", func() {
		It("names registers by their architectural mnemonic", func() {
			Expect(emu.R0.String()).To(Equal("r0"))
			Expect(emu.PC.String()).To(Equal("pc"))
			Expect(emu.CONTROL.String()).To(Equal("control"))
		})
	})
})
