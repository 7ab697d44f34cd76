package pipeline

import (
	"fmt"
	"os"
)

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func fatalInvalidBuffer(pc, baseAddr uint32) {
	fatalf("instruction buffer does not cover pc 0x%08x (base 0x%08x)", pc, baseAddr)
}
