// Package bytepusher implements the degenerate BytePusher VM: 16 MiB flat
// memory, 65536 "copy byte from A to B; jump to C" cycles per frame,
// 256x256 indexed-colour video, and 256-sample 8-bit PCM audio. Ported
// from BYTEPUSHER_STANDARD.cpp.
package bytepusher

import (
	"github.com/coornio/cubechip-go/internal/registry"
)

const (
	totalMemory    = 0x1000000
	safezoneOOB    = 0x8
	cyclesPerFrame = 0x10000
	screenSize     = 256
	audioLength    = 256
	refreshRate    = 60.0
)

// Core is the BytePusher VM: its entire state is the memory bank (plus a
// small read-safe out-of-bounds tail).
type Core struct {
	Memory []byte // totalMemory + safezoneOOB bytes
	cycles uint64
}

// New allocates a fresh Core with program copied to the start of memory.
func New(program []byte) *Core {
	c := &Core{Memory: make([]byte, totalMemory+safezoneOOB)}
	copy(c.Memory, program)
	return c
}

// Framerate is the fixed BytePusher refresh rate.
func (c *Core) Framerate() float32 { return refreshRate }

func (c *Core) read1(pos uint32) uint32 { return uint32(c.Memory[pos]) }

func (c *Core) read2(pos uint32) uint32 {
	return uint32(c.Memory[pos])<<8 | uint32(c.Memory[pos+1])
}

func (c *Core) read3(pos uint32) uint32 {
	return uint32(c.Memory[pos])<<16 | uint32(c.Memory[pos+1])<<8 | uint32(c.Memory[pos+2])
}

// InstructionLoop runs exactly 65536 copy-cycles, writing the 16-bit
// keyboard state into the first two memory bytes first.
func (c *Core) InstructionLoop(keyState uint16) {
	c.Memory[0] = byte(keyState >> 8)
	c.Memory[1] = byte(keyState & 0xFF)

	progPointer := c.read3(2)
	for i := 0; i < cyclesPerFrame; i++ {
		dst := c.read3(progPointer + 3)
		src := c.read3(progPointer + 0)
		c.Memory[dst] = c.Memory[src]
		progPointer = c.read3(progPointer + 6)
	}
	c.cycles += cyclesPerFrame
}

// TotalCycles returns the running copy-cycle counter.
func (c *Core) TotalCycles() uint64 { return c.cycles }

// RenderAudio returns one 256-sample 8-bit PCM frame, volume-scaled.
func (c *Core) RenderAudio(volume float32) [audioLength]byte {
	var out [audioLength]byte
	offset := c.read2(6) << 8
	for i := 0; i < audioLength; i++ {
		sample := int8(c.Memory[offset+uint32(i)])
		out[i] = byte(int8(float32(sample) * volume))
	}
	return out
}

// RenderVideo returns a 256x256 index buffer for the frame; the caller
// maps indices to colours itself (Palette666 decodes 0..215 as a
// 6x6x6 colour-cube index).
func (c *Core) RenderVideo() [screenSize * screenSize]byte {
	var out [screenSize * screenSize]byte
	offset := c.read1(5) << 16
	copy(out[:], c.Memory[offset:offset+screenSize*screenSize])
	return out
}

// Palette666 expands a BytePusher colour-cube index (0..215, encoding
// 6*6*6 levels of R/G/B) into 0xAARRGGBB.
func Palette666(index byte) uint32 {
	r := index / 36
	g := (index / 6) % 6
	b := index % 6
	scale := func(level byte) byte { return level * 51 } // 0..5 -> 0..255
	return 0xFF000000 | uint32(scale(r))<<16 | uint32(scale(g))<<8 | uint32(scale(b))
}

func init() {
	DefaultRegistry.RegisterCore(registry.CoreDescriptor{
		Name:      registry.BytePusher,
		Validate:  func(size uint64) bool { return size > 0 && size <= totalMemory },
		Construct: func(data []byte) (any, error) { return New(data), nil },
	})
}

// DefaultRegistry is this package's process-wide core registry, the Go
// analogue of BytePusher's REGISTER_CORE static-init pattern.
var DefaultRegistry = registry.New()
