package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/amayagarcia/thumbsim/emu"
	"github.com/amayagarcia/thumbsim/loader"
)

var _ = Describe("Load", func() {
	It("returns the initial register state from a flat image", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "image.bin")

		image := make([]byte, 32)
		binary.LittleEndian.PutUint32(image[0:4], 0x3000)
		binary.LittleEndian.PutUint32(image[4:8], 0x21) // entry at 0x20, Thumb-marked

		Expect(os.WriteFile(path, image, 0644)).To(Succeed())

		mem := emu.NewMemory(64, 2, 2)
		prog, err := loader.Load(path, mem)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.InitialSP).To(Equal(uint32(0x3000)))
		Expect(prog.InitialPC).To(Equal(uint32(0x20)))
		Expect(prog.SizeBytes).To(Equal(uint32(32)))
	})

	It("wraps the underlying error when the image is too large", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "image.bin")

		image := make([]byte, 1024)
		binary.LittleEndian.PutUint32(image[4:8], 0x1)
		Expect(os.WriteFile(path, image, 0644)).To(Succeed())

		mem := emu.NewMemory(64, 2, 2) // 64 words = 256 bytes, too small
		_, err := loader.Load(path, mem)
		Expect(err).To(HaveOccurred())
	})

	It("wraps the underlying error on a missing file", func() {
		mem := emu.NewMemory(64, 2, 2)
		_, err := loader.Load(filepath.Join(GinkgoT().TempDir(), "missing.bin"), mem)
		Expect(err).To(HaveOccurred())
	})
})
