package emu_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/amayagarcia/thumbsim/emu"
)

var _ = Describe("Memory", func() {
	var mem *emu.Memory

	BeforeEach(func() {
		mem = emu.NewMemory(64, 2, 2)
	})

	Describe("request/response pipeline", func() {
		It("is not retrievable before pipelineSize ticks have passed", func() {
			token, ok := mem.RequestLoad(emu.IssuerExecute, 0)
			Expect(ok).To(BeTrue())

			mem.Tick()
			_, ready := mem.RetrieveLoad(token)
			Expect(ready).To(BeFalse())
		})

		It("becomes retrievable at cycle t+pipelineSize", func() {
			token, ok := mem.RequestLoad(emu.IssuerExecute, 0)
			Expect(ok).To(BeTrue())

			mem.Tick()
			mem.Tick()

			_, ready := mem.RetrieveLoad(token)
			Expect(ready).To(BeTrue())
		})
	})

	Describe("token monotonicity", func() {
		It("returns strictly increasing tokens across successful requests", func() {
			t1, ok1 := mem.RequestLoad(emu.IssuerFetch, 0)
			Expect(ok1).To(BeTrue())
			mem.Tick()

			t2, ok2 := mem.RequestLoad(emu.IssuerFetch, 0)
			Expect(ok2).To(BeTrue())

			Expect(t2).To(BeNumerically(">", t1))
		})
	})

	Describe("single-issue discipline", func() {
		It("refuses a second request issued in the same tick", func() {
			_, ok1 := mem.RequestLoad(emu.IssuerFetch, 0)
			Expect(ok1).To(BeTrue())

			_, ok2 := mem.RequestLoad(emu.IssuerExecute, 4)
			Expect(ok2).To(BeFalse())
		})
	})

	Describe("LoadProgram", func() {
		It("loads a flat image and reports its initial SP and PC", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "image.bin")

			image := make([]byte, 16)
			binary.LittleEndian.PutUint32(image[0:4], 0x2000)
			binary.LittleEndian.PutUint32(image[4:8], 0x9) // Thumb-marked PC

			Expect(os.WriteFile(path, image, 0644)).To(Succeed())

			sp, pc, size, err := mem.LoadProgram(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(sp).To(Equal(uint32(0x2000)))
			Expect(pc).To(Equal(uint32(0x8)))
			Expect(size).To(Equal(uint32(16)))
		})

		It("fails when the reset-vector PC is not Thumb-aligned", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "image.bin")

			image := make([]byte, 16)
			binary.LittleEndian.PutUint32(image[4:8], 0x8) // bit0 clear

			Expect(os.WriteFile(path, image, 0644)).To(Succeed())

			_, _, _, err := mem.LoadProgram(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
