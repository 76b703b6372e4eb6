package chip8

import (
	"github.com/coornio/cubechip-go/internal/applog"
	"github.com/coornio/cubechip-go/internal/audio"
	"github.com/coornio/cubechip-go/internal/registry"
)

// CHIP8X is the RCA Studio II two-player variant: BxyN repurposed for
// colour-rect drawing, 02A0 cycles the background colour, ExF2/ExF5 read
// the player-2 key nibble, and FxF8 sets a discrete audio pitch register.
// FxFB (port wait) does not block: it logs a warning and execution
// continues.
type CHIP8X struct{}

func init() {
	DefaultRegistry.RegisterCore(registry.CoreDescriptor{
		Name:      registry.CHIP8X,
		Validate:  func(size uint64) bool { return size > 0 && size <= 0x1000-0x200 },
		Construct: constructCHIP8X,
	})
}

func constructCHIP8X(data []byte) (any, error) {
	core := NewCore(0x1000, 64, 32, 1)
	core.Quirks = QuirkClearVF
	core.Variant = CHIP8X{}
	loadProgramAt(core, 0x200, data)
	return core, nil
}

func (CHIP8X) Name() string   { return string(registry.CHIP8X) }
func (CHIP8X) Quirks() Quirks { return QuirkClearVF }

func (CHIP8X) PrepareResolution(core *Core) {
	core.Width, core.Height = 64, 32
}

func (CHIP8X) ExecZero(core *Core, opcode uint16) bool {
	if opcode == 0x02A0 {
		core.bgColorIndex = (core.bgColorIndex + 1) & 0x3
		return true
	}
	return false
}

func (CHIP8X) ExecExtended(core *Core, opcode uint16) bool {
	x := byte(opcode >> 8 & 0xF)
	y := byte(opcode >> 4 & 0xF)
	n := byte(opcode & 0xF)
	b := byte(opcode & 0xFF)

	switch opcode & 0xF000 {
	case 0xB000: // BxyN colour-rect draw: fill an 8x8 cell region with colour n
		core.drawColorRect(int(core.V[x]), int(core.V[y]), n)
		return true
	}

	switch opcode & 0xF0FF {
	case 0xE0F2: // player-2 key held skip
		if core.KeyHeldP2(int(core.V[x])) {
			core.SkipInstruction()
		}
		return true
	case 0xE0F5:
		if !core.KeyHeldP2(int(core.V[x])) {
			core.SkipInstruction()
		}
		return true
	case 0xF0F8: // set audio pitch register from VX
		core.Voices[0].Step = (160.0 + float32(core.V[x]>>3<<4)) / 44100.0
		return true
	case 0xF0FB: // port wait: unsupported on this host, logged
		// CHIP-8X unsupported JoyPad-write opcodes: left as a logged
		// warning with execution continuing, per the Open Question
		// resolution recorded for this port.
		applog.Warnf("CHIP-8X: unsupported port-wait opcode %04X at PC=%04X ignored", opcode, core.PC-2)
		return true
	}

	_ = b
	return false
}

func (CHIP8X) DrawSprite(core *Core, vx, vy, n byte) {
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

func (c *Core) drawColorRect(x, y int, colorIdx byte) {
	// colour-rect fills are tracked as a per-cell colour index layered
	// beneath the mono plane; RenderVideo composites and drains them
	// each frame.
	c.colorCells = append(c.colorCells, colorCell{x: x, y: y, color: colorIdx})
}

type colorCell struct {
	x, y  int
	color byte
}

// chip8xForeColor and chip8xBackColor are the RCA Studio II colour-rect
// and background-cycle palettes.
var chip8xForeColor = [8]uint32{
	0x00000000, 0xEE111100, 0x1111EE00, 0xEE11EE00,
	0x11EE1100, 0xEEEE1100, 0x11EEEE00, 0xEEEEEE00,
}
var chip8xBackColor = [4]uint32{
	0x11113300, 0x11111100, 0x11331100, 0x33111100,
}

const (
	chip8xCellSize   = 8
	chip8xMonoIndex  = 8 // sentinel frame index: mono-plane pixel set
	chip8xBackground = 9 // sentinel frame index: current background cycle color
)

func (CHIP8X) RenderAudio(core *Core, dst []float32, stream *audio.Stream) {
	v := &core.Voices[0]
	v.Timer = &core.SoundTimer
	audio.Mix(dst, audio.PulseWave, v, stream, 0.25)
}

// RenderVideo composites the background cycle colour, the BxyN colour-rect
// cells (drained after compositing), and the mono plane's foreground
// pixels into a single indexed frame for the display sink.
func (CHIP8X) RenderVideo(core *Core) {
	frame := core.ensureFrame(core.Width, core.Height)
	frame.Fill(chip8xBackground)

	for _, cell := range core.colorCells {
		for row := 0; row < chip8xCellSize; row++ {
			for col := 0; col < chip8xCellSize; col++ {
				px, py := cell.x+col, cell.y+row
				if px < 0 || px >= frame.Width() || py < 0 || py >= frame.Height() {
					continue
				}
				frame.SetRaw(px, py, cell.color&0x7)
			}
		}
	}
	core.colorCells = core.colorCells[:0]

	plane := core.Planes[0]
	for y := 0; y < plane.Height() && y < frame.Height(); y++ {
		for x := 0; x < plane.Width() && x < frame.Width(); x++ {
			if plane.AtRaw(x, y) != 0 {
				frame.SetRaw(x, y, chip8xMonoIndex)
			}
		}
	}

	core.frame = frame
	core.FramePalette = func(index uint8) uint32 {
		switch index {
		case chip8xBackground:
			return chip8xBackColor[core.bgColorIndex&0x3]
		case chip8xMonoIndex:
			return chip8xForeColor[7]
		default:
			return chip8xForeColor[index&0x7]
		}
	}
}
