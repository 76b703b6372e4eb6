package chip8

import (
	"github.com/coornio/cubechip-go/internal/audio"
	"github.com/coornio/cubechip-go/internal/registry"
)

// SCHIPLegacy differs from SCHIPModern in two collision/draw behaviors:
// hi-res collisions accumulate a row count into VF instead of a flag, and
// lo-res mode draws via the double-resolution bit-bloat shift so the
// 64x32 program still renders on the 128x64 buffer.
type SCHIPLegacy struct{}

func init() {
	DefaultRegistry.RegisterCore(registry.CoreDescriptor{
		Name:      registry.SCHIPLegacy,
		Validate:  func(size uint64) bool { return size > 0 && size <= 0x1000-0x200 },
		Construct: constructSCHIPLegacy,
	})
}

func constructSCHIPLegacy(data []byte) (any, error) {
	core := NewCore(0x1000, 128, 64, 1)
	core.Quirks = QuirkClearVF | QuirkJmpRegX
	core.Traits = TraitLargerDisplay
	core.Variant = SCHIPLegacy{}
	loadProgramAt(core, 0x200, data)
	return core, nil
}

func (SCHIPLegacy) Name() string   { return string(registry.SCHIPLegacy) }
func (SCHIPLegacy) Quirks() Quirks { return QuirkClearVF | QuirkJmpRegX }

func (SCHIPLegacy) PrepareResolution(core *Core) {
	// legacy SCHIP keeps a single 128x64 buffer always; 00FE/00FF only
	// toggle the draw-mode trait consulted by DrawSprite.
	if core.Traits&TraitManualRefresh == 0 {
		core.Traits |= TraitManualRefresh // reused here as the "lo-res mode" flag
	} else {
		core.Traits &^= TraitManualRefresh
	}
}

func (SCHIPLegacy) ExecZero(core *Core, opcode uint16) bool { return false }

func (SCHIPLegacy) ExecExtended(core *Core, opcode uint16) bool { return false }

func (SCHIPLegacy) DrawSprite(core *Core, vx, vy, n byte) {
	plane := core.Planes[0]
	wrap := core.Quirks&QuirkWrapSprite != 0
	loRes := core.Traits&TraitManualRefresh != 0

	if loRes {
		// double-resolution shift: each byte bit-bloated to 16 bits and
		// drawn as two rows on the 128-wide buffer.
		x, y := (int(vx)%64)*2, (int(vy) % 32)
		collided := false
		if n == 0 {
			// n==0 in lo-res mode draws the 32-byte big-sprite format (16
			// rows of 2 bytes each, per the hi-res n==0 path) through the
			// same bit-bloat/double-row shift as the n!=0 case below.
			for row := 0; row < 16; row++ {
				hiByte := core.ReadByte(uint32(core.I) + uint32(row*2))
				loByte := core.ReadByte(uint32(core.I) + uint32(row*2+1))
				bloatedHi := BitBloat(hiByte)
				bloatedLo := BitBloat(loByte)
				h1, l1 := byte(bloatedHi>>8), byte(bloatedHi)
				h2, l2 := byte(bloatedLo>>8), byte(bloatedLo)
				for _, shift := range [2]int{0, 1} {
					ry := y*2 + row*2 + shift
					if DrawRow(plane, x, ry, h1, wrap) {
						collided = true
					}
					if DrawRow(plane, x+8, ry, l1, wrap) {
						collided = true
					}
					if DrawRow(plane, x+16, ry, h2, wrap) {
						collided = true
					}
					if DrawRow(plane, x+24, ry, l2, wrap) {
						collided = true
					}
				}
			}
			if collided {
				core.SetVF(1)
			} else {
				core.SetVF(0)
			}
			return
		}
		for row := 0; row < int(n); row++ {
			b := core.ReadByte(uint32(core.I) + uint32(row))
			bloated := BitBloat(b)
			hi, lo := byte(bloated>>8), byte(bloated)
			if DrawRow(plane, x, y*2+row*2, hi, wrap) {
				collided = true
			}
			if DrawRow(plane, x+8, y*2+row*2, lo, wrap) {
				collided = true
			}
			if DrawRow(plane, x, y*2+row*2+1, hi, wrap) {
				collided = true
			}
			if DrawRow(plane, x+8, y*2+row*2+1, lo, wrap) {
				collided = true
			}
		}
		if collided {
			core.SetVF(1)
		} else {
			core.SetVF(0)
		}
		return
	}

	x, y := int(vx)%plane.Width(), int(vy)%plane.Height()
	var rows int
	if n == 0 {
		collided := DrawSprite16(plane, x, y, wrap, func(row, col int) byte {
			return core.ReadByte(uint32(core.I) + uint32(row*2+col))
		})
		if collided {
			core.SetVF(1)
		}
		return
	}

	rows = DrawSpriteRowsCounted(plane, x, y, int(n), wrap, func(row int) byte {
		return core.ReadByte(uint32(core.I) + uint32(row))
	})
	core.SetVF(byte(rows))
}

func (SCHIPLegacy) RenderAudio(core *Core, dst []float32, stream *audio.Stream) {
	v := &core.Voices[0]
	v.Timer = &core.SoundTimer
	v.Step = 0.1
	audio.Mix(dst, audio.PulseWave, v, stream, 0.25)
}

func (SCHIPLegacy) RenderVideo(core *Core) {
	core.frame = core.Planes[0]
	core.FramePalette = monoPalette
}
