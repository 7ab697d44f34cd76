// Package main provides the entry point for the simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/amayagarcia/thumbsim/emu"
	"github.com/amayagarcia/thumbsim/loader"
	"github.com/amayagarcia/thumbsim/timing/latency"
	"github.com/amayagarcia/thumbsim/timing/pipeline"
)

func main() {
	binPath := flag.String("b", "", "program binary file (required)")
	memWords := flag.Uint("m", uint(latency.DefaultMemSizeWords), "memory size in words")
	accessWidth := flag.Uint("w", uint(latency.DefaultMemAccessWidthWords), "memory access width in words")
	flag.Parse()

	if *binPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: m2sim -b <path> [-m words] [-w words]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	mem := emu.NewMemory(uint32(*memWords), uint32(*accessWidth), latency.DefaultPipelineSize)

	prog, err := loader.Load(*binPath, mem)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	regs := &emu.RegFile{}
	regs.Write(regs.ActiveSP(), prog.InitialSP)
	regs.Write(emu.PC, prog.InitialPC)

	proc := pipeline.NewProcessor(regs, mem, os.Stdout)
	stats := proc.Stats()
	stats.ProgramSizeBytes = prog.SizeBytes
	stats.MemSizeWords = mem.MemSizeWords()
	stats.MemAccessWidthWords = mem.MemAccessWidthWords()

	exitCode := proc.Run()

	fmt.Fprintln(os.Stderr, stats.Report())
	os.Exit(exitCode)
}
