package chip8

import (
	"github.com/coornio/cubechip-go/internal/audio"
	"github.com/coornio/cubechip-go/internal/registry"
)

// SCHIPModern adds a 128x64 hi-res mode, 16x16 sprites, VX-relative BXNN
// jumps, and flag-style (not counted) hi-res collision.
type SCHIPModern struct{}

func init() {
	DefaultRegistry.RegisterCore(registry.CoreDescriptor{
		Name:      registry.SCHIPModern,
		Validate:  func(size uint64) bool { return size > 0 && size <= 0x1000-0x200 },
		Construct: constructSCHIPModern,
	})
}

func constructSCHIPModern(data []byte) (any, error) {
	core := NewCore(0x1000, 64, 32, 1)
	core.Quirks = QuirkClearVF | QuirkJmpRegX | QuirkShiftVX
	core.Variant = SCHIPModern{}
	loadProgramAt(core, 0x200, data)
	return core, nil
}

func (SCHIPModern) Name() string  { return string(registry.SCHIPModern) }
func (SCHIPModern) Quirks() Quirks { return QuirkClearVF | QuirkJmpRegX | QuirkShiftVX }

func (SCHIPModern) PrepareResolution(core *Core) {
	if core.Width == 64 {
		core.Planes[0].ResizeClean(128, 64)
		core.Width, core.Height = 128, 64
		core.Traits |= TraitLargerDisplay
	} else {
		core.Planes[0].ResizeClean(64, 32)
		core.Width, core.Height = 64, 32
		core.Traits &^= TraitLargerDisplay
	}
}

func (SCHIPModern) ExecZero(core *Core, opcode uint16) bool { return false }

func (SCHIPModern) ExecExtended(core *Core, opcode uint16) bool { return false }

func (SCHIPModern) DrawSprite(core *Core, vx, vy, n byte) {
	plane := core.Planes[0]
	wrap := core.Quirks&QuirkWrapSprite != 0
	x, y := int(vx)%plane.Width(), int(vy)%plane.Height()

	var collided bool
	if n == 0 {
		collided = DrawSprite16(plane, x, y, wrap, func(row, col int) byte {
			return core.ReadByte(uint32(core.I) + uint32(row*2+col))
		})
	} else {
		collided = DrawSpriteRows(plane, x, y, int(n), wrap, func(row int) byte {
			return core.ReadByte(uint32(core.I) + uint32(row))
		})
	}

	if collided {
		core.SetVF(1)
	} else {
		core.SetVF(0)
	}
}

func (SCHIPModern) RenderAudio(core *Core, dst []float32, stream *audio.Stream) {
	v := &core.Voices[0]
	v.Timer = &core.SoundTimer
	v.Step = 0.1
	audio.Mix(dst, audio.PulseWave, v, stream, 0.25)
}

func (SCHIPModern) RenderVideo(core *Core) {
	core.frame = core.Planes[0]
	core.FramePalette = monoPalette
}
