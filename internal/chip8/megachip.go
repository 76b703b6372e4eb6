package chip8

import (
	"github.com/coornio/cubechip-go/internal/audio"
	"github.com/coornio/cubechip-go/internal/registry"
)

// MegaChip adds a 256x192 indexed-colour background plane, texture and
// big-font sprite modes with alpha/dodge/multiply blending, and
// byte-stream PCM audio. It runs in classic CHIP-8 mode until 0011
// switches it into MegaChip mode.
type MegaChip struct{}

func init() {
	DefaultRegistry.RegisterCore(registry.CoreDescriptor{
		Name:      registry.MegaChip,
		Validate:  func(size uint64) bool { return size > 0 && size <= 0x100000 },
		Construct: constructMegaChip,
	})
}

func constructMegaChip(data []byte) (any, error) {
	core := NewCore(0x100000, 64, 32, 1)
	core.Quirks = QuirkJmpRegX | QuirkShiftVX
	core.Variant = MegaChip{}
	core.BlendFn = BlendAlpha
	loadProgramAt(core, 0x200, data)
	core.megaAudio.Read = func(addr uint32) byte { return core.ReadByte(addr) }
	return core, nil
}

func (MegaChip) Name() string   { return string(registry.MegaChip) }
func (MegaChip) Quirks() Quirks { return QuirkJmpRegX | QuirkShiftVX }

func (MegaChip) PrepareResolution(core *Core) {
	if core.Traits&TraitManualRefresh != 0 { // reused as "MC mode active"
		core.Planes[0].ResizeClean(256, 192)
		core.Width, core.Height = 256, 192
	} else {
		core.Planes[0].ResizeClean(64, 32)
		core.Width, core.Height = 64, 32
	}
}

func (MegaChip) ExecZero(core *Core, opcode uint16) bool {
	switch opcode {
	case 0x0010: // exit MC mode
		core.Traits &^= TraitManualRefresh
		core.Variant.PrepareResolution(core)
		return true
	case 0x0011: // enter MC mode
		core.Traits |= TraitManualRefresh
		core.Variant.PrepareResolution(core)
		return true
	}
	return false
}

func (MegaChip) ExecExtended(core *Core, opcode uint16) bool {
	// 01nn/02nn/03nn/04nn/05nn/060n/0700/080n/09nn extended opcodes:
	// sprite/collision-color, alpha, digital sound start/stop, blend
	// mode select, and collision-map clear. Collapsed here to the
	// operations with direct register-free effects; per-instruction
	// operands are read from the low byte.
	nn := byte(opcode & 0xFF)
	switch opcode & 0xFF00 {
	case 0x0100, 0x0200, 0x0300, 0x0400, 0x0500: // nn*256 sprite width/height/collision index
		_ = nn
		return true
	case 0x0600: // 060n: select blend mode (0=normal, 4=linear dodge, 5=multiply)
		switch opcode & 0xF {
		case 0:
			core.BlendFn = BlendAlpha
		case 4:
			core.BlendFn = BlendDodge
		case 5:
			core.BlendFn = BlendMultiply
		}
		return true
	case 0x0700: // stop digital sound
		core.megaAudio.Enabled = false
		return true
	case 0x0800: // 080n: start digital sound; n is not used
		core.megaAudio.Enabled = true
		return true
	case 0x0900: // 09nn collision-map clear: accepted, no state changes
		return true
	}
	return false
}

func (MegaChip) DrawSprite(core *Core, vx, vy, n byte) {
	plane := core.Planes[0]
	x, y := int(vx)%plane.Width(), int(vy)%plane.Height()

	if core.I >= 0xF0 {
		// texture sprite: width and height are read from I-0xF0 and I-0xEF;
		// each nonzero index byte is written straight into the plane,
		// clipped at the edges. core.BlendFn and any opacity are not
		// applied here, and VF is set to 1 when a written cell was nonzero
		// but is never cleared by this path.
		w := int(core.ReadByte(uint32(core.I) - 0xF0))
		h := int(core.ReadByte(uint32(core.I) - 0xEF))
		collided := false
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				idx := core.ReadByte(uint32(core.I) + uint32(row*w+col))
				if idx == 0 {
					continue
				}
				px, py := x+col, y+row
				if px < 0 || px >= plane.Width() || py < 0 || py >= plane.Height() {
					continue
				}
				before := plane.AtRaw(px, py)
				plane.SetRaw(px, py, idx)
				if before != 0 {
					collided = true
				}
			}
		}
		if collided {
			core.SetVF(1)
		}
		return
	}

	// I < 0xF0: XORs n rows of 1-bit sprite data from I, clipped at the
	// edges, like a classic mono draw. No big-font glyph or gradient
	// shading is drawn.
	collided := DrawSpriteRows(plane, x, y, int(n), false, func(row int) byte {
		return core.ReadByte(uint32(core.I) + uint32(row))
	})
	if collided {
		core.SetVF(1)
	} else {
		core.SetVF(0)
	}
}

func (MegaChip) RenderAudio(core *Core, dst []float32, stream *audio.Stream) {
	v := &core.Voices[0]
	v.UserData = &core.megaAudio
	audio.Mix(dst, audio.ByteStreamWave, v, stream, 0.35)
}

// RenderVideo exposes the indexed background plane directly; MegaChip's
// pixel values are palette indices written by DrawSprite, but this port
// carries no indexed colour table load (the 01nn..05nn extended opcodes
// are sprite geometry/collision-index stubs, not a palette opcode), so the
// index is rendered as a flat grayscale ramp.
func (MegaChip) RenderVideo(core *Core) {
	core.frame = core.Planes[0]
	core.FramePalette = func(index uint8) uint32 {
		v := uint32(index)
		return v<<24 | v<<16 | v<<8 | 0xFF
	}
}

// BlendAlpha implements spec.md §4.K's per-channel formula; f here is
// identity (straight linear interpolation), the "alpha"/normal blend mode.
func BlendAlpha(src, dst uint32) uint32 { return blendChannels(src, dst, func(s, d byte) byte { return s }) }

// BlendDodge implements linear dodge: min(src+dst, 255) per channel.
func BlendDodge(src, dst uint32) uint32 {
	return blendChannels(src, dst, func(s, d byte) byte {
		v := int(s) + int(d)
		if v > 255 {
			v = 255
		}
		return byte(v)
	})
}

// BlendMultiply implements the multiply blend mode.
func BlendMultiply(src, dst uint32) uint32 {
	return blendChannels(src, dst, func(s, d byte) byte { return byte(int(s) * int(d) / 255) })
}

func blendChannels(src, dst uint32, f func(s, d byte) byte) uint32 {
	sr, sg, sb, sa := channels(src)
	dr, dg, db, _ := channels(dst)

	if sa == 0 {
		return dst
	}

	r, g, b := f(sr, dr), f(sg, dg), f(sb, db)
	if sa < 255 {
		r = lerp(dr, r, sa)
		g = lerp(dg, g, sa)
		b = lerp(db, b, sa)
	}
	return uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | 0xFF
}

func channels(c uint32) (r, g, b, a byte) {
	return byte(c >> 24), byte(c >> 16), byte(c >> 8), byte(c)
}

func lerp(from, to, alpha byte) byte {
	return byte((int(from)*(255-int(alpha)) + int(to)*int(alpha)) / 255)
}
