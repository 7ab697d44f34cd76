package emu

import (
	"fmt"
	"os"
)

// Issuer identifies which pipeline stage placed a memory request.
type Issuer int

const (
	IssuerNone Issuer = iota
	IssuerFetch
	IssuerDecode
	IssuerExecute
	IssuerReset
)

func (i Issuer) String() string {
	switch i {
	case IssuerFetch:
		return "fetch"
	case IssuerDecode:
		return "decode"
	case IssuerExecute:
		return "execute"
	case IssuerReset:
		return "reset"
	default:
		return "none"
	}
}

// AccessType distinguishes a load request from a store request.
type AccessType int

const (
	AccessNone AccessType = iota
	AccessLoad
	AccessStore
)

func (t AccessType) String() string {
	switch t {
	case AccessLoad:
		return "load"
	case AccessStore:
		return "store"
	default:
		return "none"
	}
}

const bytesPerWord = 4

// resetVectorPCOffset is the byte offset of the initial PC word in a
// loaded program image; byte 0 holds the initial stack pointer.
const resetVectorPCOffset = 4

// request is one slot of the memory pipeline ring.
type request struct {
	issuer   Issuer
	kind     AccessType
	token    uint64
	byteAddr uint32
	reqData  uint32
	respData []uint32
}

// Memory is the word-indexed backing store together with its fixed-depth
// request/response pipeline. At most one request may be issued per tick;
// a request placed at tick t is retrievable starting at tick t+pipelineSize.
type Memory struct {
	words []uint32

	memSizeWords        uint32
	memAccessWidthWords uint32

	pipeline     []request
	pipelineSize int
	nextReqIndex int
	servedIndex  int
	nextToken    uint64
}

// NewMemory constructs a Memory with the given geometry. memSizeWords is
// rounded up to a multiple of memAccessWidthWords. pipelineSize is the
// configured request/response depth; internally one extra slot is kept so
// a just-served response is not clobbered by the request that replaces it
// in the same tick.
func NewMemory(memSizeWords, memAccessWidthWords, pipelineSize uint32) *Memory {
	if memAccessWidthWords == 0 {
		memAccessWidthWords = 1
	}
	if memSizeWords%memAccessWidthWords != 0 {
		memSizeWords += memAccessWidthWords - memSizeWords%memAccessWidthWords
	}

	m := &Memory{
		words:               make([]uint32, memSizeWords),
		memSizeWords:        memSizeWords,
		memAccessWidthWords: memAccessWidthWords,
		pipeline:            make([]request, pipelineSize+1),
		pipelineSize:        int(pipelineSize) + 1,
	}
	for i := range m.pipeline {
		m.pipeline[i].respData = make([]uint32, memAccessWidthWords)
	}
	return m
}

// MemSizeWords returns the (rounded) memory size in words.
func (m *Memory) MemSizeWords() uint32 { return m.memSizeWords }

// MemAccessWidthWords returns the pipeline's transfer width in words.
func (m *Memory) MemAccessWidthWords() uint32 { return m.memAccessWidthWords }

// WidthWordIndex returns the word index of byteAddr within its access-width
// aligned block.
func (m *Memory) WidthWordIndex(byteAddr uint32) uint32 {
	blockBytes := bytesPerWord * m.memAccessWidthWords
	return (byteAddr & (blockBytes - 1)) >> 2
}

// WidthBaseAddr returns the access-width aligned base byte address
// containing byteAddr.
func (m *Memory) WidthBaseAddr(byteAddr uint32) uint32 {
	blockBytes := bytesPerWord * m.memAccessWidthWords
	return byteAddr &^ (blockBytes - 1)
}

// WidthInstOffset returns the halfword offset of byteAddr within its
// access-width aligned block, for fetch's instruction buffer indexing.
func (m *Memory) WidthInstOffset(byteAddr uint32) uint32 {
	blockBytes := bytesPerWord * m.memAccessWidthWords
	return (byteAddr & (blockBytes - 1)) / 2
}

func wordIndex(byteAddr uint32) uint32 {
	return (byteAddr &^ (bytesPerWord - 1)) >> 2
}

// LoadProgram reads a flat little-endian program image from path into word
// 0 onward. It returns the initial SP (read from byte offset 0), the
// initial PC (read from byte offset 4, with bit0 cleared) and the image
// size in bytes. The reset-vector PC word must have bit0 set, marking
// Thumb state; LoadProgram fails if it does not.
func (m *Memory) LoadProgram(path string) (sp uint32, pc uint32, sizeBytes uint32, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("opening program binary: %w", err)
	}

	capacityBytes := uint64(m.memSizeWords) * bytesPerWord
	if uint64(len(data)) >= capacityBytes {
		return 0, 0, 0, fmt.Errorf("program binary is too large for memory: %d bytes, capacity %d bytes", len(data), capacityBytes)
	}

	for i := 0; i+4 <= len(data); i += 4 {
		word := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		m.words[i/4] = word
	}
	if rem := len(data) % 4; rem != 0 {
		base := len(data) - rem
		var word uint32
		for j := 0; j < rem; j++ {
			word |= uint32(data[base+j]) << (8 * j)
		}
		m.words[base/4] = word
	}

	spWord := m.words[0]
	pcWord := m.words[resetVectorPCOffset/4]
	if pcWord&1 == 0 {
		return 0, 0, 0, fmt.Errorf("reset-vector PC 0x%08x is not Thumb-aligned (bit0 clear)", pcWord)
	}

	return spWord, pcWord &^ 1, uint32(len(data)), nil
}

// LoadWord performs a side-band, latency-free read of the word containing
// byteAddr. It is used for the store read-modify-write merge path and is
// fatal on an out-of-bounds address.
func (m *Memory) LoadWord(byteAddr uint32) uint32 {
	idx := wordIndex(byteAddr)
	if idx >= m.memSizeWords {
		fatalf("out-of-bounds memory access at byte address 0x%08x", byteAddr)
	}
	return m.words[idx]
}

// IsAvailable reports whether a new request may be issued this tick.
func (m *Memory) IsAvailable() bool {
	return m.pipeline[m.nextReqIndex].issuer == IssuerNone
}

// RequestLoad places a load request for the access-width block containing
// byteAddr. It returns the token to retrieve the response with, and false
// if the pipeline already has a request queued for this tick.
func (m *Memory) RequestLoad(issuer Issuer, byteAddr uint32) (token uint64, ok bool) {
	return m.request(issuer, AccessLoad, byteAddr, 0)
}

// RequestStore places a store of data at byteAddr. It returns the token to
// confirm the store with, and false if the pipeline is busy this tick.
func (m *Memory) RequestStore(issuer Issuer, byteAddr uint32, data uint32) (token uint64, ok bool) {
	return m.request(issuer, AccessStore, byteAddr, data)
}

func (m *Memory) request(issuer Issuer, kind AccessType, byteAddr uint32, data uint32) (uint64, bool) {
	slot := &m.pipeline[m.nextReqIndex]
	if slot.issuer != IssuerNone {
		return 0, false
	}

	token := m.nextToken
	m.nextToken++

	slot.issuer = issuer
	slot.kind = kind
	slot.token = token
	slot.byteAddr = byteAddr
	slot.reqData = data

	return token, true
}

// responseSlot returns the pipeline slot most recently served by Tick.
func (m *Memory) responseSlot() *request {
	return &m.pipeline[m.servedIndex]
}

// RetrieveLoad returns the single word retrieved for token, or !ok if the
// response is not ready yet (wrong token at the response slot).
func (m *Memory) RetrieveLoad(token uint64) (data uint32, ok bool) {
	slot := m.responseSlot()
	if slot.token != token || slot.issuer == IssuerNone {
		return 0, false
	}
	idx := m.WidthWordIndex(slot.byteAddr)
	return slot.respData[idx], true
}

// RetrieveWideLoad returns the full access-width response for token.
func (m *Memory) RetrieveWideLoad(token uint64) (data []uint32, ok bool) {
	slot := m.responseSlot()
	if slot.token != token || slot.issuer == IssuerNone {
		return nil, false
	}
	out := make([]uint32, len(slot.respData))
	copy(out, slot.respData)
	return out, true
}

// RetrieveStore confirms that the store identified by token has completed.
func (m *Memory) RetrieveStore(token uint64) bool {
	slot := m.responseSlot()
	return slot.token == token && slot.issuer != IssuerNone
}

// Tick rotates the request ring by one slot and serves whichever request
// now occupies the response slot, copying data into or out of the backing
// array. It is fatal for the served request's address to be out of bounds.
//
// The ring holds pipelineSize+1 slots so a request written at nextReqIndex
// is exactly pipelineSize rotations behind the slot that becomes the new
// request slot; that oldest slot is served here, not the one just written.
func (m *Memory) Tick() {
	m.nextReqIndex = (m.nextReqIndex + 1) % m.pipelineSize
	served := (m.nextReqIndex + 1) % m.pipelineSize
	m.servedIndex = served

	// The slot about to become the new request slot must be cleared; the
	// served slot itself is left alone so retrieval still matches its token.
	m.pipeline[m.nextReqIndex] = request{respData: m.pipeline[m.nextReqIndex].respData}

	slot := &m.pipeline[served]
	if slot.issuer == IssuerNone {
		return
	}

	idx := wordIndex(slot.byteAddr)
	if idx >= m.memSizeWords {
		fatalf("out-of-bounds memory access by %s at byte address 0x%08x", slot.issuer, slot.byteAddr)
	}

	switch slot.kind {
	case AccessLoad:
		base := wordIndex(m.WidthBaseAddr(slot.byteAddr))
		copy(slot.respData, m.words[base:base+m.memAccessWidthWords])
	case AccessStore:
		m.words[idx] = slot.reqData
	default:
		fatalf("invalid memory access request type for issuer %s", slot.issuer)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
