package bytepusher

import (
	"testing"

	"github.com/coornio/cubechip-go/internal/registry"
)

func TestInstructionLoopFollowsProgramPointer(t *testing.T) {
	c := New(make([]byte, 16))

	// program pointer field: mem[2..4] = 0x08,0x00,0x00 -> progPointer = 0x080000
	c.Memory[2], c.Memory[3], c.Memory[4] = 0x08, 0x00, 0x00

	// A (src addr, 3 bytes at progPointer+0) = 0x090000
	c.Memory[0x080000], c.Memory[0x080001], c.Memory[0x080002] = 0x09, 0x00, 0x00
	// B (dst addr, 3 bytes at progPointer+3) = 0x000000
	c.Memory[0x080003], c.Memory[0x080004], c.Memory[0x080005] = 0x00, 0x00, 0x00
	// C (next progPointer, 3 bytes at progPointer+6) = 0x080000, keeping the
	// loop stable across all 65536 cycles so the final mem[0] is deterministic
	c.Memory[0x080006], c.Memory[0x080007], c.Memory[0x080008] = 0x08, 0x00, 0x00

	c.Memory[0x090000] = 0xAA

	c.InstructionLoop(0)

	if c.Memory[0] != 0xAA {
		t.Fatalf("mem[B] = %#x, want 0xAA copied from mem[A]", c.Memory[0])
	}
	if c.TotalCycles() != cyclesPerFrame {
		t.Fatalf("TotalCycles() = %d, want %d", c.TotalCycles(), uint64(cyclesPerFrame))
	}
}

func TestInstructionLoopWritesKeyStateFirst(t *testing.T) {
	c := New(make([]byte, 16))
	// program pointer 0x000010: one instruction that copies mem[0] to
	// mem[0x20] and jumps back to itself, so the cycles leave mem[0..1]
	// as the key write left them
	c.Memory[4] = 0x10
	c.Memory[0x10], c.Memory[0x11], c.Memory[0x12] = 0x00, 0x00, 0x00 // A
	c.Memory[0x13], c.Memory[0x14], c.Memory[0x15] = 0x00, 0x00, 0x20 // B
	c.Memory[0x16], c.Memory[0x17], c.Memory[0x18] = 0x00, 0x00, 0x10 // C
	c.InstructionLoop(0xBEEF)

	if c.Memory[0] != 0xBE || c.Memory[1] != 0xEF {
		t.Fatalf("key state not written: mem[0..1] = %#x %#x", c.Memory[0], c.Memory[1])
	}
	if c.Memory[0x20] != 0xBE {
		t.Fatalf("cycles saw mem[0] = %#x, want 0xBE (key state written before the cycles)", c.Memory[0x20])
	}
}

func TestRenderVideoReadsIndexedOffset(t *testing.T) {
	program := make([]byte, totalMemory+safezoneOOB)
	program[5] = 0x01 // video offset = 0x010000
	program[0x010000] = 42
	program[0x010000+screenSize*screenSize-1] = 7

	c := New(program)
	frame := c.RenderVideo()

	if frame[0] != 42 {
		t.Fatalf("frame[0] = %d, want 42", frame[0])
	}
	if frame[len(frame)-1] != 7 {
		t.Fatalf("frame[last] = %d, want 7", frame[len(frame)-1])
	}
}

func TestRenderAudioReadsOffsetAndScalesVolume(t *testing.T) {
	program := make([]byte, totalMemory+safezoneOOB)
	program[6], program[7] = 0x00, 0x01 // offset = 0x0001 << 8 = 0x0100
	program[0x0100] = byte(int8(100))

	c := New(program)
	out := c.RenderAudio(0.5)

	if got, want := int8(out[0]), int8(50); got != want {
		t.Fatalf("out[0] = %d, want %d", got, want)
	}
}

func TestPalette666CornersMapToBlackAndWhite(t *testing.T) {
	if Palette666(0) != 0xFF000000 {
		t.Fatalf("Palette666(0) = %#x, want opaque black", Palette666(0))
	}
	top := Palette666(215) // 5,5,5
	if top != 0xFFFFFFFF {
		t.Fatalf("Palette666(215) = %#x, want 0xFFFFFFFF", top)
	}
}

func TestRegistryRoutesBytePusherExtensions(t *testing.T) {
	for _, ext := range []string{".bp", ".ch16"} {
		name, ok := DefaultRegistry.ValidateProgram(registry.Program{Size: 16, Extension: ext})
		if !ok || name != registry.BytePusher {
			t.Fatalf("ValidateProgram(%q) = %v, %v", ext, name, ok)
		}
	}
}

func TestRegistryConstructsCore(t *testing.T) {
	name, ok := DefaultRegistry.ValidateProgram(registry.Program{Size: 16, Extension: ".bp"})
	if !ok {
		t.Fatalf("expected .bp to validate")
	}
	instance, err := DefaultRegistry.ConstructCore(name, make([]byte, 16))
	if err != nil {
		t.Fatalf("ConstructCore failed: %v", err)
	}
	if _, ok := instance.(*Core); !ok {
		t.Fatalf("expected *Core, got %T", instance)
	}
}
