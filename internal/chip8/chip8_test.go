package chip8

import (
	"reflect"
	"testing"

	"github.com/coornio/cubechip-go/internal/registry"
)

// fakeDisplay captures the last source/transform pair RenderVideo's
// push reached, standing in for harness.DisplaySink.
type fakeDisplay struct {
	source    any
	transform func(uint8) uint32
}

func (f *fakeDisplay) Write(source any, transform func(uint8) uint32) {
	f.source, f.transform = source, transform
}
func (f *fakeDisplay) WriteBlend(source, dest any, blend func(src, dst uint32) uint32) {}
func (f *fakeDisplay) SetBorderColor(rgba uint32)                                      {}
func (f *fakeDisplay) SetViewportSizes(w, h, upscaleMultiplier, padding int)            {}
func (f *fakeDisplay) SetViewportAlpha(alpha uint8)                                     {}

func newTestCore() *Core {
	c := NewCore(0x1000, 64, 32, 1)
	c.Variant = CHIP8Modern{}
	c.TargetCPF = 100
	return c
}

func TestStackWrapsOnOverflow(t *testing.T) {
	c := newTestCore()
	for i := 0; i < 20; i++ {
		c.PushStack(uint16(0x200 + i*2))
	}
	// 20 pushes into a 16-slot wrap-indexed stack: SP wraps, no panic,
	// and the most recent 16 entries are retrievable in LIFO order.
	top := c.PopStack()
	if top != 0x200+19*2 {
		t.Fatalf("PopStack() = %#x, want %#x", top, 0x200+19*2)
	}
}

func TestALUAddSetsCarryAfterWrite(t *testing.T) {
	c := newTestCore()
	c.V[0] = 0xFF
	c.V[1] = 0x02
	c.execALU(0, 1, 0x4)

	if c.V[0] != 0x01 {
		t.Fatalf("V[0] = %#x, want 0x01", c.V[0])
	}
	if c.V[0xF] != 1 {
		t.Fatalf("V[F] = %d, want 1 (carry)", c.V[0xF])
	}
}

func TestALUAddCarryObservableWhenDestIsVF(t *testing.T) {
	c := newTestCore()
	c.V[0xF] = 0xFF
	c.V[1] = 0x02
	// x == 0xF: VF is both destination and flag register; flag write
	// must happen after the destination write per spec.md §4.I.
	c.execALU(0xF, 1, 0x4)

	if c.V[0xF] != 1 {
		t.Fatalf("V[F] = %d, want 1 (flag write must follow destination write)", c.V[0xF])
	}
}

func TestALUShiftUsesVYWhenShiftVXQuirkClear(t *testing.T) {
	c := newTestCore()
	c.Quirks = 0 // shiftVX clear: shift reads V[y]
	c.V[0] = 0xFF
	c.V[1] = 0x04 // 0b0100
	c.execALU(0, 1, 0x6)

	if c.V[0] != 0x02 {
		t.Fatalf("V[0] = %#x, want 0x02 (shifted from V[1])", c.V[0])
	}
	if c.V[0xF] != 0 {
		t.Fatalf("V[F] = %d, want 0 (lsb of V[1])", c.V[0xF])
	}
}

func TestALUShiftUsesVXWhenShiftVXQuirkSet(t *testing.T) {
	c := newTestCore()
	c.Quirks = QuirkShiftVX
	c.V[0] = 0x05 // 0b0101
	c.V[1] = 0xFF
	c.execALU(0, 1, 0x6)

	if c.V[0] != 0x02 {
		t.Fatalf("V[0] = %#x, want 0x02 (shifted from V[0])", c.V[0])
	}
	if c.V[0xF] != 1 {
		t.Fatalf("V[F] = %d, want 1 (lsb of V[0])", c.V[0xF])
	}
}

func TestSuspendAndResumeFlipSign(t *testing.T) {
	c := newTestCore()
	c.TargetCPF = 11
	c.suspend()
	if c.TargetCPF != -11 {
		t.Fatalf("TargetCPF = %d, want -11 after suspend", c.TargetCPF)
	}
	c.resume()
	if c.TargetCPF != 11 {
		t.Fatalf("TargetCPF = %d, want 11 after resume", c.TargetCPF)
	}
}

func TestInstructionLoopHaltsOnSuspend(t *testing.T) {
	c := newTestCore()
	c.TargetCPF = 3

	// 0x00FD (halt/SOUND) suspends via execZeroCommon: loop should stop
	// consuming budget once the interrupt fires.
	c.WriteByte(0x200, 0x00)
	c.WriteByte(0x201, 0xFD)
	c.PC = 0x200

	c.InstructionLoop()
	if c.TargetCPF > 0 {
		t.Fatalf("expected TargetCPF to go non-positive after 00FD, got %d", c.TargetCPF)
	}
	if c.Interrupt != Sound {
		t.Fatalf("Interrupt = %v, want Sound", c.Interrupt)
	}
}

func TestBadOpcodeRaisesError(t *testing.T) {
	c := newTestCore()
	c.WriteByte(0x200, 0x51) // 5xy1 is unrecognized by CHIP8Modern
	c.WriteByte(0x201, 0x21)
	c.PC = 0x200

	if err := c.Step(); err == nil {
		t.Fatalf("expected an OpcodeError for unrecognized 5xy1")
	}
}

func TestClassicDrawCollisionSetsVF(t *testing.T) {
	c := newTestCore()
	c.I = 0x300
	c.WriteByte(0x300, 0xFF) // one row, all 8 bits set

	// first draw: no collision (plane starts empty)
	CHIP8Modern{}.DrawSprite(c, 0, 0, 1)
	if c.VF() != 0 {
		t.Fatalf("VF = %d, want 0 on first draw", c.VF())
	}

	// second draw at the same spot: every bit XORs 1->0, full collision
	CHIP8Modern{}.DrawSprite(c, 0, 0, 1)
	if c.VF() != 1 {
		t.Fatalf("VF = %d, want 1 on overlapping draw", c.VF())
	}
}

func TestKeyInputUpdateMarksBindingHeld(t *testing.T) {
	c := newTestCore()
	hosts := map[int]bool{0: true}
	Bindings[0].Index = 0
	keys := fakeHost{pressed: hosts}

	// binding 0 maps to whatever fakeHost.Pressed reports for index 0
	c.UpdateKeys(keys)
	if !c.KeyHeldP1(0) {
		t.Fatalf("expected key 0 held after update")
	}
}

type fakeHost struct{ pressed map[int]bool }

func (f fakeHost) Pressed(b KeyBinding) bool { return f.pressed[b.Index] }

func TestRegistryRoundTripConstructsCore(t *testing.T) {
	name, ok := DefaultRegistry.ValidateProgram(registry.Program{Size: 64, Extension: ".ch8"})
	if !ok || name != "CHIP8_MODERN" {
		t.Fatalf("ValidateProgram(.ch8) = %v, %v", name, ok)
	}

	instance, err := DefaultRegistry.ConstructCore(name, make([]byte, 64))
	if err != nil {
		t.Fatalf("ConstructCore failed: %v", err)
	}
	if _, ok := instance.(*Core); !ok {
		t.Fatalf("expected *Core, got %T", instance)
	}
}

// TestJumpToSelfHoldsPCAcrossBudget is the "jump to self" end-to-end
// scenario: a 1NNN opcode targeting its own address must run forever
// without erroring, consuming exactly the per-frame cycle budget.
func TestJumpToSelfHoldsPCAcrossBudget(t *testing.T) {
	c := newTestCore()
	c.WriteByte(0x200, 0x12) // 1200: JP 0x200
	c.WriteByte(0x201, 0x00)
	c.PC = 0x200
	c.TargetCPF = 5

	c.InstructionLoop()
	if c.PC != 0x200 {
		t.Fatalf("PC = %#x, want 0x200 (self-jump must not advance)", c.PC)
	}
	if c.TargetCPF > 0 {
		t.Fatalf("TargetCPF = %d, want budget exhausted", c.TargetCPF)
	}
}

// TestFx0AWaitResolvesOnKeyPressAndSchedulesSound is the Fx0A wait
// scenario: once Fx0A suspends the core waiting on a key, the first
// pressed-edge observed by HandleEndFrameInterrupt must write the key
// index into the waiting register, clear the interrupt, resume the
// cycle budget, and schedule exactly one 2-tick audio pulse.
func TestFx0AWaitResolvesOnKeyPressAndSchedulesSound(t *testing.T) {
	c := newTestCore()
	c.WriteByte(0x200, 0xF3) // F30A: V3 = key()
	c.WriteByte(0x201, 0x0A)
	c.PC = 0x200
	c.TargetCPF = 11

	if err := c.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}
	if c.Interrupt != Input {
		t.Fatalf("Interrupt = %v, want Input", c.Interrupt)
	}
	if c.TargetCPF > 0 {
		t.Fatalf("TargetCPF = %d, want suspended (negative)", c.TargetCPF)
	}

	// no key held yet: interrupt must stay pending
	c.HandleEndFrameInterrupt(1, func() {}, func() {})
	if c.Interrupt != Input {
		t.Fatalf("Interrupt = %v, want still Input before any key edge", c.Interrupt)
	}

	// key 5 transitions from unheld to held
	c.Key.Prev = 0
	c.Key.Curr = 1 << 5
	c.HandleEndFrameInterrupt(2, func() {}, func() {})

	if c.Interrupt != Clear {
		t.Fatalf("Interrupt = %v, want Clear after key edge", c.Interrupt)
	}
	if c.V[3] != 5 {
		t.Fatalf("V[3] = %d, want 5 (resolved key index)", c.V[3])
	}
	if c.TargetCPF != 11 {
		t.Fatalf("TargetCPF = %d, want 11 (resumed)", c.TargetCPF)
	}
	if c.SoundTimer != 2 {
		t.Fatalf("SoundTimer = %d, want 2 (one pulse scheduled on key resolution)", c.SoundTimer)
	}
}

// TestSCHIPLegacyLoResBigSpriteDrawCollides is the second Dxyn collision
// scenario: SCHIP-legacy's lo-res n==0 path must draw the 32-byte
// big-sprite format instead of silently no-op'ing, so an overlapping
// second draw reports a collision.
func TestSCHIPLegacyLoResBigSpriteDrawCollides(t *testing.T) {
	c := NewCore(0x1000, 128, 64, 1)
	c.Variant = SCHIPLegacy{}
	c.Traits = TraitLargerDisplay | TraitManualRefresh // lo-res mode
	c.I = 0x300
	for i := 0; i < 32; i++ {
		c.WriteByte(uint32(0x300+i), 0xFF)
	}

	SCHIPLegacy{}.DrawSprite(c, 0, 0, 0)
	if c.VF() != 0 {
		t.Fatalf("VF = %d, want 0 on first lo-res big-sprite draw", c.VF())
	}

	SCHIPLegacy{}.DrawSprite(c, 0, 0, 0)
	if c.VF() != 1 {
		t.Fatalf("VF = %d, want 1 on overlapping lo-res big-sprite draw (n==0 must still draw)", c.VF())
	}
}

// TestXOChip5xy2SavesAndLoadsRegisterRange is the 5xy2 memory-run
// scenario: an inclusive register range stored at I and reloaded must
// round-trip exactly.
func TestXOChip5xy2SavesAndLoadsRegisterRange(t *testing.T) {
	c := NewCore(0x10000, 64, 32, 4)
	c.Variant = XOChip{}
	c.I = 0x400
	for i := byte(0); i < 4; i++ {
		c.V[i] = i + 10
	}

	if !(XOChip{}).ExecExtended(c, 0x5032) { // 5xy2 with x=0,y=3: store V[0..3]
		t.Fatalf("5xy2 not recognized")
	}
	for i := byte(0); i < 4; i++ {
		if got := c.ReadByte(uint32(0x400) + uint32(i)); got != i+10 {
			t.Fatalf("Memory[I+%d] = %d, want %d", i, got, i+10)
		}
	}

	c.V[0], c.V[1], c.V[2], c.V[3] = 0, 0, 0, 0
	if !(XOChip{}).ExecExtended(c, 0x5033) { // 5xy3 with x=0,y=3: load V[0..3]
		t.Fatalf("5xy3 not recognized")
	}
	for i := byte(0); i < 4; i++ {
		if c.V[i] != i+10 {
			t.Fatalf("V[%d] = %d, want %d after reload", i, c.V[i], i+10)
		}
	}
}

// TestXOChip5xy4LoadsPaletteEntries covers the RGB-3:3:2 palette-load
// opcode: writing one packed byte must expand into the exact channel
// values the lookup tables produce.
func TestXOChip5xy4LoadsPaletteEntries(t *testing.T) {
	c := NewCore(0x10000, 64, 32, 4)
	c.Variant = XOChip{}
	c.I = 0x500
	c.WriteByte(0x500, 0b111_011_10) // r=0x7 (max->0xFF), g=0x3(0x60), b=0x2(0xA0)

	if !(XOChip{}).ExecExtended(c, 0x5204) { // 5204: load palette entry at bit 2
		t.Fatalf("5xy4 not recognized")
	}

	want := uint32(0xFF)<<24 | uint32(0x60)<<16 | uint32(0xA0)<<8
	if c.BitColors[2] != want {
		t.Fatalf("BitColors[2] = %#08x, want %#08x", c.BitColors[2], want)
	}
}

// TestMegaChipBlendModeSelectUsesSpecOpcodes confirms the 060n blend
// selector dispatches on 0/4/5, not 0/1/2.
func TestMegaChipBlendModeSelectUsesSpecOpcodes(t *testing.T) {
	c := NewCore(0x100000, 64, 32, 1)
	c.Variant = MegaChip{}

	MegaChip{}.ExecExtended(c, 0x0604)
	if !sameBlendFn(c.BlendFn, BlendDodge) {
		t.Fatalf("060n case 4 did not select BlendDodge")
	}
	MegaChip{}.ExecExtended(c, 0x0605)
	if !sameBlendFn(c.BlendFn, BlendMultiply) {
		t.Fatalf("060n case 5 did not select BlendMultiply")
	}
	MegaChip{}.ExecExtended(c, 0x0601) // must NOT select dodge
	if sameBlendFn(c.BlendFn, BlendDodge) {
		t.Fatalf("060n case 1 incorrectly selected BlendDodge")
	}
	MegaChip{}.ExecExtended(c, 0x0600)
	if !sameBlendFn(c.BlendFn, BlendAlpha) {
		t.Fatalf("060n case 0 did not select BlendAlpha")
	}
}

func sameBlendFn(f, g func(src, dst uint32) uint32) bool {
	return reflect.ValueOf(f).Pointer() == reflect.ValueOf(g).Pointer()
}

// TestBlendDodgeIsLinearDodge checks the formula itself: min(src+dst,255)
// per channel, not a colour-dodge division.
func TestBlendDodgeIsLinearDodge(t *testing.T) {
	src := uint32(100)<<24 | uint32(200)<<16 | uint32(10)<<8 | 0xFF
	dst := uint32(50)<<24 | uint32(100)<<16 | uint32(250)<<8 | 0xFF

	got := BlendDodge(src, dst)
	wantR, wantG, wantB := byte(150), byte(255), byte(255) // min(100+50,255), min(200+100,255), min(10+250,255)
	gotR, gotG, gotB, _ := channels(got)
	if gotR != wantR || gotG != wantG || gotB != wantB {
		t.Fatalf("BlendDodge = (%d,%d,%d), want (%d,%d,%d)", gotR, gotG, gotB, wantR, wantG, wantB)
	}
}

// TestRenderVideoPushesCompositeFrameToDisplay covers the Display-wiring
// fix across all three composite shapes: mono alias, XO-CHIP multi-plane
// composite, and CHIP8X colour-cell compositing with drain.
func TestRenderVideoPushesCompositeFrameToDisplay(t *testing.T) {
	t.Run("mono", func(t *testing.T) {
		c := newTestCore()
		var fd fakeDisplay
		s := &System{Core: c, Display: &fd}
		s.renderVideo()
		if fd.source == nil {
			t.Fatalf("Display.Write was never called")
		}
		if fd.source != c.Planes[0] {
			t.Fatalf("mono RenderVideo must push Planes[0] directly")
		}
	})

	t.Run("xochip", func(t *testing.T) {
		c := NewCore(0x10000, 64, 32, 4)
		c.Variant = XOChip{}
		c.BitColors = defaultBitColors
		c.Planes[0].SetRaw(1, 1, 1)
		c.Planes[1].SetRaw(1, 1, 1)

		var fd fakeDisplay
		s := &System{Core: c, Display: &fd}
		s.renderVideo()

		grid, ok := fd.source.(interface{ AtRaw(x, y int) byte })
		if !ok {
			t.Fatalf("expected a grid-like source, got %T", fd.source)
		}
		if got := grid.AtRaw(1, 1); got != 0x3 {
			t.Fatalf("composite bit at (1,1) = %d, want 3 (planes 0 and 1 set)", got)
		}
		if fd.transform(3) != defaultBitColors[3]|0xFF {
			t.Fatalf("FramePalette(3) did not resolve through BitColors")
		}
	})

	t.Run("chip8x drains colorCells", func(t *testing.T) {
		c := NewCore(0x1000, 64, 32, 1)
		c.Variant = CHIP8X{}
		c.drawColorRect(0, 0, 2)
		c.drawColorRect(8, 8, 5)

		var fd fakeDisplay
		s := &System{Core: c, Display: &fd}
		s.renderVideo()

		if len(c.colorCells) != 0 {
			t.Fatalf("colorCells left with %d entries, want drained to 0", len(c.colorCells))
		}
		if fd.source == nil {
			t.Fatalf("Display.Write was never called")
		}
	})
}
