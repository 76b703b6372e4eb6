package chip8

import (
	"github.com/coornio/cubechip-go/internal/audio"
	"github.com/coornio/cubechip-go/internal/registry"
)

// XOChip adds 64 KiB memory, up to 4 planes, the 16-byte pattern-wave
// audio generator, 16-bit I (F000), and the 5xy2/5xy3/5xy4 memory-run
// and palette-load opcodes.
type XOChip struct{}

func init() {
	DefaultRegistry.RegisterCore(registry.CoreDescriptor{
		Name:      registry.XOChip,
		Validate:  func(size uint64) bool { return size > 0 && size <= 0x10000-0x200 },
		Construct: constructXOChip,
	})
}

// defaultBitColors is XO-CHIP's 16-entry default palette (plane-bit
// combination -> RGBA), ported from the original's cBitColors table.
var defaultBitColors = [16]uint32{
	0x0C121800, 0xE4DCD400, 0x8C888400, 0x403C3800,
	0xD8201000, 0x40D02000, 0x1040D000, 0xE0C81800,
	0x50101000, 0x10501000, 0x50B0C000, 0xF0801000,
	0xE0609000, 0xE0F09000, 0xB050F000, 0x70402000,
}

func constructXOChip(data []byte) (any, error) {
	core := NewCore(0x10000, 64, 32, 4)
	core.Quirks = QuirkShiftVX | QuirkWrapSprite
	core.Variant = XOChip{}
	core.BitColors = defaultBitColors
	loadProgramAt(core, 0x200, data)
	core.Voices[0].UserData = &core.Pattern
	return core, nil
}

func (XOChip) Name() string   { return string(registry.XOChip) }
func (XOChip) Quirks() Quirks { return QuirkShiftVX | QuirkWrapSprite }

func (XOChip) PrepareResolution(core *Core) {
	if core.Width == 64 {
		for i, p := range core.Planes {
			if p != nil {
				core.Planes[i].ResizeClean(128, 64)
			}
		}
		core.Width, core.Height = 128, 64
		core.Traits |= TraitLargerDisplay
	} else {
		for i, p := range core.Planes {
			if p != nil {
				core.Planes[i].ResizeClean(64, 32)
			}
		}
		core.Width, core.Height = 64, 32
		core.Traits &^= TraitLargerDisplay
	}
}

func (XOChip) ExecZero(core *Core, opcode uint16) bool { return false }

func (XOChip) ExecExtended(core *Core, opcode uint16) bool {
	x := byte(opcode >> 8 & 0xF)
	y := byte(opcode >> 4 & 0xF)

	switch opcode & 0xF00F {
	case 0x5002: // store V[x..y] at I, ascending or descending inclusive
		lo, hi := x, y
		if lo > hi {
			lo, hi = hi, lo
		}
		for i := lo; i <= hi; i++ {
			core.WriteByte(uint32(core.I)+uint32(i-lo), core.V[i])
		}
		return true
	case 0x5003: // load V[x..y] from I
		lo, hi := x, y
		if lo > hi {
			lo, hi = hi, lo
		}
		for i := lo; i <= hi; i++ {
			core.V[i] = core.ReadByte(uint32(core.I) + uint32(i-lo))
		}
		return true
	case 0x5004: // load palette entries via RGB-3:3:2 expansion, X..Y inclusive
		lo, hi := x, y
		flip := 1
		if x > y {
			lo, hi = y, x
			flip = -1
		}
		dist := int(hi-lo) + 1
		for z := 0; z < dist; z++ {
			bit := int(x) + z*flip
			core.setColorBit332(bit, core.ReadByte(uint32(core.I)+uint32(z)))
		}
		return true
	}

	switch opcode & 0xF0FF {
	case 0xF03A: // pitch
		pitch := core.V[x]
		core.Voices[0].Step = audio.PitchTable[pitch] / 44100.0
		return true
	case 0xF001: // plane select
		core.selectedPlane = x & 0xF
		return true
	}

	if opcode == 0xF000 {
		// 16-bit I load: next instruction word is the literal address
		hi := uint16(core.ReadByte(uint32(core.PC)))
		lo := uint16(core.ReadByte(uint32(core.PC) + 1))
		core.I = hi<<8 | lo
		core.PC += 2
		return true
	}
	if opcode&0xFF00 == 0xF000 && opcode&0xFF == 0x02 {
		// F002: load 16-byte audio pattern from I
		for i := 0; i < 16; i++ {
			core.Pattern[i] = core.ReadByte(uint32(core.I) + uint32(i))
		}
		return true
	}

	return false
}

func (XOChip) DrawSprite(core *Core, vx, vy, n byte) {
	mask := core.selectedPlane
	if mask == 0 {
		mask = 1
	}
	wrap := core.Quirks&QuirkWrapSprite != 0

	collided := false
	for planeIdx := 0; planeIdx < 4; planeIdx++ {
		if mask&(1<<uint(planeIdx)) == 0 || core.Planes[planeIdx] == nil {
			continue
		}
		plane := core.Planes[planeIdx]
		x, y := int(vx)%plane.Width(), int(vy)%plane.Height()

		bytesPerSprite := int(n)
		rowsFn := func(row int) byte {
			return core.ReadByte(uint32(core.I) + uint32(planeIdx*bytesPerSprite+row))
		}
		if n == 0 {
			if DrawSprite16(plane, x, y, wrap, func(row, col int) byte {
				return core.ReadByte(uint32(core.I) + uint32(planeIdx*32+row*2+col))
			}) {
				collided = true
			}
			continue
		}
		if DrawSpriteRows(plane, x, y, int(n), wrap, rowsFn) {
			collided = true
		}
	}

	if collided {
		core.SetVF(1)
	} else {
		core.SetVF(0)
	}
}

func (XOChip) RenderAudio(core *Core, dst []float32, stream *audio.Stream) {
	v := &core.Voices[0]
	v.Timer = &core.SoundTimer
	audio.Mix(dst, audio.PatternWave, v, stream, 0.25)
}

// map332to3bit and map332to2bit expand the 3/3/2-bit RGB-332 channels used
// by 5xy4 into full 8-bit channel values.
var map332to3bit = [8]byte{0x00, 0x20, 0x40, 0x60, 0x80, 0xA0, 0xC0, 0xFF}
var map332to2bit = [4]byte{0x00, 0x60, 0xA0, 0xFF}

// setColorBit332 expands an RGB-3:3:2-packed byte into core.BitColors[bit],
// ported from XOCHIP::setColorBit332.
func (c *Core) setColorBit332(bit int, color byte) {
	r := map332to3bit[color>>5&0x7]
	g := map332to3bit[color>>2&0x7]
	b := map332to2bit[color&0x3]
	c.BitColors[bit&0xF] = uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8
}

func (XOChip) RenderVideo(core *Core) {
	frame := core.ensureFrame(core.Width, core.Height)
	for y := 0; y < frame.Height(); y++ {
		for x := 0; x < frame.Width(); x++ {
			var bit byte
			for i, p := range core.Planes {
				if p != nil && p.AtRaw(x, y) != 0 {
					bit |= 1 << uint(i)
				}
			}
			frame.SetRaw(x, y, bit)
		}
	}
	core.frame = frame
	core.FramePalette = func(index uint8) uint32 { return core.BitColors[index&0xF] | 0xFF }
}
