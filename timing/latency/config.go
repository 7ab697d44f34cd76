// Package latency holds the memory and pipeline geometry that governs how
// many cycles a request takes to resolve.
package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultMemSizeWords is the memory size used when -m is not given.
const DefaultMemSizeWords = 1 << 16

// DefaultMemAccessWidthWords is the wide-access width used when -w is not
// given.
const DefaultMemAccessWidthWords = 2

// DefaultPipelineSize is the memory request/response pipeline depth.
const DefaultPipelineSize = 2

// Config holds the geometry parameters that shape the memory pipeline:
// how large the backing store is, how many words a single wide access
// transfers, and how many cycles a request spends in flight before its
// response is retrievable.
type Config struct {
	// MemSizeWords is the size of the backing store, in 32-bit words. It
	// is rounded up to a multiple of MemAccessWidthWords at construction.
	MemSizeWords uint32 `json:"mem_size_words"`

	// MemAccessWidthWords is the number of words a wide fetch/load access
	// transfers at once.
	MemAccessWidthWords uint32 `json:"mem_access_width_words"`

	// PipelineSize is the request/response pipeline depth: a request
	// issued at cycle t is retrievable at cycle t+PipelineSize.
	PipelineSize uint32 `json:"pipeline_size"`
}

// DefaultConfig returns the default memory geometry.
func DefaultConfig() *Config {
	return &Config{
		MemSizeWords:        DefaultMemSizeWords,
		MemAccessWidthWords: DefaultMemAccessWidthWords,
		PipelineSize:        DefaultPipelineSize,
	}
}

// LoadConfig loads a Config from a JSON file, filling in defaults for any
// field the file omits.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse memory config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize memory config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write memory config file: %w", err)
	}

	return nil
}

// Validate checks that the geometry is usable.
func (c *Config) Validate() error {
	if c.MemSizeWords == 0 {
		return fmt.Errorf("mem_size_words must be > 0")
	}
	if c.MemAccessWidthWords == 0 {
		return fmt.Errorf("mem_access_width_words must be > 0")
	}
	if c.PipelineSize == 0 {
		return fmt.Errorf("pipeline_size must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	return &Config{
		MemSizeWords:        c.MemSizeWords,
		MemAccessWidthWords: c.MemAccessWidthWords,
		PipelineSize:        c.PipelineSize,
	}
}
