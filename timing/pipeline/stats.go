package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// instClass groups the finer-grained decode variants (ADD1..ADD7, CMP1..
// CMP3, and so on) into the coarser per-mnemonic buckets a stats report
// counts by.
var instClass = map[string]string{
	"adc": "ADC",
	"add1": "ADD", "add2": "ADD", "add3": "ADD", "add4": "ADD",
	"add5": "ADD", "add6": "ADD", "add7": "ADD",
	"and": "AND",
	"asr1": "ASR", "asr2": "ASR",
	"b1": "B", "b2": "B",
	"bic":  "BIC",
	"bl":   "BL",
	"blx":  "BLX",
	"bx":   "BX",
	"bkpt": "BKPT",
	"cmn":  "CMN",
	"cmp1": "CMP", "cmp2": "CMP", "cmp3": "CMP",
	"cps": "CPS",
	"cpy": "MOV",
	"eor": "EOR",
	"ldmia": "LDMIA",
	"ldr1": "LDR", "ldr2": "LDR", "ldr3": "LDR", "ldr4": "LDR",
	"ldrb1": "LDRB", "ldrb2": "LDRB",
	"ldrh1": "LDRH", "ldrh2": "LDRH",
	"ldrsb": "LDRSB",
	"ldrsh": "LDRSH",
	"lsl1": "LSL", "lsl2": "LSL",
	"lsr1": "LSR", "lsr2": "LSR",
	"mov1": "MOV", "mov2": "MOV",
	"mul": "MUL",
	"mvn": "MVN",
	"neg": "NEG",
	"nop": "NOP",
	"orr": "ORR",
	"pop":   "POP",
	"push":  "PUSH",
	"rev":   "REV",
	"rev16": "REV16",
	"revsh": "REVSH",
	"ror":   "ROR",
	"sbc":   "SBC",
	"stmia": "STMIA",
	"str1": "STR", "str2": "STR", "str3": "STR",
	"strb1": "STRB", "strb2": "STRB",
	"strh1": "STRH", "strh2": "STRH",
	"sub1": "SUB", "sub2": "SUB", "sub3": "SUB", "sub4": "SUB",
	"svc":  "SVC",
	"sxtb": "SXTB",
	"sxth": "SXTH",
	"tst":  "TST",
	"uxtb": "UXTB",
	"uxth": "UXTH",
}

// Statistics accumulates the cycle and instruction counters a run reports
// on termination.
type Statistics struct {
	Cycles                uint64
	FetchMemCycles        uint64
	ExecuteMemCycles      uint64
	StalledForDecodeCycles uint64

	ProgramSizeBytes    uint32
	MemSizeWords        uint32
	MemAccessWidthWords uint32

	BranchTaken    uint64
	BranchNotTaken uint64

	InstCount map[string]uint64
}

// NewStatistics creates an empty Statistics.
func NewStatistics() *Statistics {
	return &Statistics{InstCount: make(map[string]uint64)}
}

// CountInst records one retired instruction of the given decode-variant
// mnemonic, rolled up into its coarser class bucket.
func (s *Statistics) CountInst(mnemonic string) {
	class, ok := instClass[mnemonic]
	if !ok {
		class = strings.ToUpper(mnemonic)
	}
	s.InstCount[class]++
}

// Report renders a human-readable statistics report.
func (s *Statistics) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cycles:                 %d\n", s.Cycles)
	fmt.Fprintf(&b, "fetch memory cycles:    %d\n", s.FetchMemCycles)
	fmt.Fprintf(&b, "execute memory cycles:  %d\n", s.ExecuteMemCycles)
	fmt.Fprintf(&b, "stalled for decode:     %d\n", s.StalledForDecodeCycles)
	fmt.Fprintf(&b, "program size (bytes):   %d\n", s.ProgramSizeBytes)
	fmt.Fprintf(&b, "memory size (words):    %d\n", s.MemSizeWords)
	fmt.Fprintf(&b, "memory access width:   %d\n", s.MemAccessWidthWords)
	fmt.Fprintf(&b, "branches taken:         %d\n", s.BranchTaken)
	fmt.Fprintf(&b, "branches not taken:     %d\n", s.BranchNotTaken)

	fmt.Fprintf(&b, "instruction counts:\n")
	classes := make([]string, 0, len(s.InstCount))
	for class := range s.InstCount {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		fmt.Fprintf(&b, "  %-8s %d\n", class, s.InstCount[class])
	}

	return b.String()
}
