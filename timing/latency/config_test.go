package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/amayagarcia/thumbsim/timing/latency"
)

var _ = Describe("Config", func() {
	Describe("DefaultConfig", func() {
		It("matches the documented defaults", func() {
			c := latency.DefaultConfig()
			Expect(c.MemSizeWords).To(Equal(uint32(latency.DefaultMemSizeWords)))
			Expect(c.MemAccessWidthWords).To(Equal(uint32(latency.DefaultMemAccessWidthWords)))
			Expect(c.PipelineSize).To(Equal(uint32(latency.DefaultPipelineSize)))
			Expect(c.Validate()).To(Succeed())
		})
	})

	Describe("SaveConfig and LoadConfig", func() {
		It("round-trips a config through disk", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "mem.json")

			original := &latency.Config{
				MemSizeWords:        4096,
				MemAccessWidthWords: 4,
				PipelineSize:        3,
			}
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("fills in defaults for fields a partial file omits", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"mem_size_words": 8192}`), 0644)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.MemSizeWords).To(Equal(uint32(8192)))
			Expect(loaded.MemAccessWidthWords).To(Equal(uint32(latency.DefaultMemAccessWidthWords)))
			Expect(loaded.PipelineSize).To(Equal(uint32(latency.DefaultPipelineSize)))
		})

		It("errors on a missing file", func() {
			_, err := latency.LoadConfig(filepath.Join(GinkgoT().TempDir(), "missing.json"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Validate", func() {
		It("rejects a zero geometry field", func() {
			c := latency.DefaultConfig()
			c.PipelineSize = 0
			Expect(c.Validate()).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("returns an independent copy", func() {
			c := latency.DefaultConfig()
			clone := c.Clone()
			clone.MemSizeWords = 1

			Expect(c.MemSizeWords).To(Equal(uint32(latency.DefaultMemSizeWords)))
			Expect(clone.MemSizeWords).To(Equal(uint32(1)))
		})
	})
})
