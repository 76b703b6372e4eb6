package chip8

import (
	"github.com/coornio/cubechip-go/internal/audio"
	"github.com/coornio/cubechip-go/internal/registry"
)

// CHIP8Modern is the baseline CHIP-8 interpreter: 4 KiB memory, one
// 64x32 plane, classic mono sprite drawing gated by vertical blank.
type CHIP8Modern struct{}

func init() {
	DefaultRegistry.RegisterCore(registry.CoreDescriptor{
		Name:      registry.CHIP8Modern,
		Validate:  func(size uint64) bool { return size > 0 && size <= 0x1000-0x200 },
		Construct: constructCHIP8Modern,
	})
}

func constructCHIP8Modern(data []byte) (any, error) {
	core := NewCore(0x1000, 64, 32, 1)
	core.Quirks = QuirkClearVF | QuirkWaitVblank
	core.Variant = CHIP8Modern{}
	loadProgramAt(core, 0x200, data)
	return core, nil
}

func (CHIP8Modern) Name() string  { return string(registry.CHIP8Modern) }
func (CHIP8Modern) Quirks() Quirks { return QuirkClearVF | QuirkWaitVblank }

func (CHIP8Modern) PrepareResolution(core *Core) {
	// CHIP8_MODERN has no hi-res mode; 00FE/00FF are no-ops here.
	core.Width, core.Height = 64, 32
}

func (CHIP8Modern) ExecZero(core *Core, opcode uint16) bool {
	return false // unknown 0NNN opcodes are ERROR for this variant
}

func (CHIP8Modern) ExecExtended(core *Core, opcode uint16) bool {
	return false
}

func (CHIP8Modern) DrawSprite(core *Core, vx, vy, n byte) {
	if core.Quirks&QuirkWaitVblank != 0 {
		core.Interrupt = Frame
		core.suspend()
	}

	plane := core.Planes[0]
	x, y := int(vx)%plane.Width(), int(vy)%plane.Height()
	wrap := core.Quirks&QuirkWrapSprite != 0

	collided := DrawSpriteRows(plane, x, y, int(n), wrap, func(row int) byte {
		return core.ReadByte(uint32(core.I) + uint32(row))
	})

	if collided {
		core.SetVF(1)
	} else {
		core.SetVF(0)
	}
}

func (CHIP8Modern) RenderAudio(core *Core, dst []float32, stream *audio.Stream) {
	v := &core.Voices[0]
	v.Timer = &core.SoundTimer
	v.Step = 0.1
	audio.Mix(dst, audio.PulseWave, v, stream, 0.25)
}

func (CHIP8Modern) RenderVideo(core *Core) {
	core.frame = core.Planes[0]
	core.FramePalette = monoPalette
}

func loadProgramAt(core *Core, base int, data []byte) {
	copy(core.Memory[base:], data)
	core.PC = uint16(base)
	core.TargetCPF = 11 // classic CHIP-8 cycles-per-frame at 60Hz/700Hz approx
}
