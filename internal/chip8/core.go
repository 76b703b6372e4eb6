// Package chip8 implements the shared CHIP-8 interpreter state and the
// common instruction-decode shell every variant core builds on, ported
// from the teacher's CHIP_8 struct and generalized per the host's
// Chip8_CoreInterface (quirks/traits bitmasks, interrupt state machine,
// key input machine) and the per-variant InstructionSets.
package chip8

import (
	"fmt"

	"github.com/coornio/cubechip-go/internal/audio"
	"github.com/coornio/cubechip-go/internal/bitgrid"
	"github.com/coornio/cubechip-go/internal/prng"
)

// Quirks selects opcode variants a concrete core enables.
type Quirks uint16

const (
	QuirkClearVF Quirks = 1 << iota
	QuirkJmpRegX
	QuirkShiftVX
	QuirkIdxRegNoInc
	QuirkIdxRegMinus
	QuirkWaitVblank
	QuirkWaitScroll
	QuirkWrapSprite
)

// Traits records runtime mode flags independent of the fixed quirk set.
type Traits uint16

const (
	TraitLargerDisplay Traits = 1 << iota
	TraitManualRefresh
	TraitUsingPixelTrails
	TraitResolutionChanged
)

// Interrupt is the CHIP-8 interrupt state machine's current state.
type Interrupt int

const (
	Clear Interrupt = iota
	Frame
	Sound
	Delay
	Input
	Wait1
	Final
	ErrorState
)

// KeyInput is the 32-slot binding/press state machine shared by every
// core: current/previous/lock/repeat bitmasks plus a repeat schedule.
type KeyInput struct {
	Curr, Prev, Lock, Loop uint32
	TickStamp              uint64
	RepeatSpan             uint64

	// waitReg is set by Fx0A while an input wait is pending; the key
	// input machine writes the pressed key index there and clears it.
	waitReg *byte
}

// KeyBinding maps one logical key index to primary/alternate host scancodes.
type KeyBinding struct {
	Index      int
	PrimaryKey int
	AltKey     int
}

// Bindings is the 32-slot binding table: indices 0..15 are the
// conventional 4x4 hex-pad layout, 16..31 are the CHIP-8X second-player
// cluster read back via KeyHeldP2. Host scancodes are left as
// placeholders (int) so the root package's SDL KeySource can supply real
// sdl.Scancode values without this package importing SDL.
var Bindings [32]KeyBinding

func init() {
	for i := range Bindings {
		Bindings[i] = KeyBinding{Index: i, PrimaryKey: -1, AltKey: -1}
	}
}

// Voice mirrors internal/audio.Voice sized to the fixed 4-voice array
// every CHIP-8 variant carries (one per spec.md §3).
type Voice = audio.Voice

// Core holds every piece of state shared by every CHIP-8 variant: the
// register file, stack, timers, permanent registers, resolution,
// quirks/traits, interrupt state, key input machine, up to four planar
// display buffers, the fixed 4-voice audio array, and the variant-sized
// memory bank with an out-of-bounds safezone.
type Core struct {
	V  [16]byte // V[0xF] is the flag register, aliased as VF()
	I  uint16
	PC uint16

	Stack [16]uint16
	SP    uint8 // 4-bit wrap on push/pop

	DelayTimer uint8
	SoundTimer uint8

	PermaRegs [8]byte

	Width, Height int

	Quirks     Quirks
	Traits     Traits
	TargetCPF  int32 // signed: negative means suspended, magnitude preserved
	Interrupt  Interrupt
	Key        KeyInput

	Planes [4]*bitgrid.Grid[byte] // up to 4 planar 1bpp buffers (XO-CHIP)
	Voices [4]Voice
	Pattern [16]byte // XO-CHIP F002 audio waveform

	BitColors [16]uint32 // XO-CHIP 5xy4 palette, one RGBA entry per plane-bit combination

	BlendFn func(src, dst uint32) uint32 // MEGACHIP per-core blend, nil elsewhere

	selectedPlane byte // XO-CHIP FN01 plane-select mask, bit per plane
	megaAudio     audio.ByteStreamState // MEGACHIP digital sound cursor

	bgColorIndex byte        // CHIP-8X 02A0 background colour cycle (mod 4)
	colorCells   []colorCell // CHIP-8X BxyN colour-rect cells, drained each frame by RenderVideo

	frame        *bitgrid.Grid[byte]   // composited index buffer RenderVideo fills for the display sink
	FramePalette func(uint8) uint32    // index -> RGBA, set by RenderVideo alongside frame

	Memory   []byte // variant-sized; index past len(Memory) hits Safezone
	Safezone byte   // 0xFF, returned for any read address >= len(Memory)

	RNG *prng.Well512

	Variant Variant
}

// VF returns the flag register, the alias for V[0xF].
func (c *Core) VF() byte { return c.V[0xF] }

// SetVF sets the flag register.
func (c *Core) SetVF(v byte) { c.V[0xF] = v }

// NewCore allocates a Core with memSize bytes of addressable memory
// (zeroed), a fresh clock-seeded PRNG, and width x height in the
// requested number of 1bpp planes.
func NewCore(memSize, width, height, planes int) *Core {
	c := &Core{
		Memory:   make([]byte, memSize),
		Safezone: 0xFF,
		Width:    width,
		Height:   height,
		RNG:      prng.NewFromClock(),
	}
	for i := 0; i < planes && i < 4; i++ {
		c.Planes[i] = bitgrid.New[byte](width, height)
	}
	for i := range c.Voices {
		c.Voices[i].Timer = new(uint8)
	}
	return c
}

// ReadByte returns Memory[addr], or Safezone if addr is out of bounds.
func (c *Core) ReadByte(addr uint32) byte {
	if int(addr) >= len(c.Memory) {
		return c.Safezone
	}
	return c.Memory[addr]
}

// WriteByte writes Memory[addr] if in bounds; out-of-bounds writes are
// silently dropped (the safezone is read-only by construction).
func (c *Core) WriteByte(addr uint32, v byte) {
	if int(addr) < len(c.Memory) {
		c.Memory[addr] = v
	}
}

// PushStack pushes pc onto the 16-slot stack with 4-bit-wrap indexing.
func (c *Core) PushStack(pc uint16) {
	c.Stack[c.SP&0xF] = pc
	c.SP = (c.SP + 1) & 0xF
}

// PopStack pops and returns the top of the 16-slot stack.
func (c *Core) PopStack() uint16 {
	c.SP = (c.SP - 1) & 0xF
	return c.Stack[c.SP&0xF]
}

// Variant is the set of hooks a concrete CHIP-8 variant implements; Core
// dispatches every opcode not handled by the common shell to these.
type Variant interface {
	Name() string
	Quirks() Quirks
	PrepareResolution(core *Core)

	// ExecZero handles the 0x0--- system/scroll/display-mode opcode group
	// for opcodes the common shell doesn't already cover. Returns false if
	// the opcode is unrecognized (the caller raises ERROR).
	ExecZero(core *Core, opcode uint16) bool

	// ExecExtended handles opcodes the common shell delegates per-variant
	// (5xy2/5xy3/5xy4 memory runs, Bxnn/BXNN ambiguity, Fx3A pitch, F000/
	// FN01 XO-CHIP extensions, CHIP-8X's ExF2/ExF5/FxF8/FxFB/02A0/BxyN).
	// Returns false if the opcode is unrecognized.
	ExecExtended(core *Core, opcode uint16) bool

	// DrawSprite implements Dxyn per the variant's drawing mode (classic
	// mono, 16x16, multi-plane, double-resolution shift, texture/font).
	DrawSprite(core *Core, x, y, n byte)

	RenderAudio(core *Core, dst []float32, stream *audio.Stream)
	RenderVideo(core *Core) // composites Planes into core.frame/FramePalette for System to push
}

// OpcodeError is raised when the decoder cannot resolve an instruction.
type OpcodeError struct {
	PC     uint16
	Opcode uint16
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("invalid opcode %04X at PC=%04X", e.Opcode, e.PC)
}
