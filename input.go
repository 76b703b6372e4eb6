/* Copyright (c) 2017 Jeffrey Massung
 *
 * This software is provided 'as-is', without any express or implied
 * warranty.  In no event will the authors be held liable for any damages
 * arising from the use of this software.
 *
 * Permission is granted to anyone to use this software for any purpose,
 * including commercial applications, and to alter it and redistribute it
 * freely, subject to the following restrictions:
 *
 * 1. The origin of this software must not be misrepresented; you must not
 *    claim that you wrote the original software. If you use this software
 *    in a product, an acknowledgment in the product documentation would be
 *    appreciated but is not required.
 *
 * 2. Altered source versions must be plainly marked as such, and must not be
 *    misrepresented as being the original software.
 *
 * 3. This notice may not be removed or altered from any source distribution.
 */

package main

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/coornio/cubechip-go/internal/chip8"
)

// keyMap maps modern keyboard scancodes onto the conventional 4x4 hex-pad
// layout, index 0..15, same assignment as the teacher's KeyMap.
var keyMap = map[sdl.Scancode]int{
	sdl.SCANCODE_X: 0x0,
	sdl.SCANCODE_1: 0x1,
	sdl.SCANCODE_2: 0x2,
	sdl.SCANCODE_3: 0x3,
	sdl.SCANCODE_Q: 0x4,
	sdl.SCANCODE_W: 0x5,
	sdl.SCANCODE_E: 0x6,
	sdl.SCANCODE_A: 0x7,
	sdl.SCANCODE_S: 0x8,
	sdl.SCANCODE_D: 0x9,
	sdl.SCANCODE_Z: 0xA,
	sdl.SCANCODE_C: 0xB,
	sdl.SCANCODE_4: 0xC,
	sdl.SCANCODE_R: 0xD,
	sdl.SCANCODE_F: 0xE,
	sdl.SCANCODE_V: 0xF,
}

// player2KeyMap shadows keyMap's indices into bits 16..31 for CHIP-8X,
// mapped onto a second cluster of keys.
var player2KeyMap = map[sdl.Scancode]int{
	sdl.SCANCODE_KP_0: 0x0,
	sdl.SCANCODE_KP_1: 0x1,
	sdl.SCANCODE_KP_2: 0x2,
	sdl.SCANCODE_KP_3: 0x3,
	sdl.SCANCODE_KP_4: 0x4,
	sdl.SCANCODE_KP_5: 0x5,
	sdl.SCANCODE_KP_6: 0x6,
	sdl.SCANCODE_KP_7: 0x7,
	sdl.SCANCODE_KP_8: 0x8,
	sdl.SCANCODE_KP_9: 0x9,
}

func init() {
	for scancode, idx := range keyMap {
		chip8.Bindings[idx].PrimaryKey = int(scancode)
	}
	for scancode, idx := range player2KeyMap {
		chip8.Bindings[16+idx].PrimaryKey = int(scancode)
	}
}

// sdlKeySource implements harness.KeySource / chip8.HostKeys against SDL's
// live keyboard state snapshot, ported from the teacher's KeyMap lookup in
// processEvents but restructured as a poll rather than an event handler
// since the harness's key input machine (internal/chip8/keyinput.go)
// expects UpdateKeys to sample a snapshot once per frame.
type sdlKeySource struct {
	state []uint8
}

func newSDLKeySource() *sdlKeySource {
	return &sdlKeySource{}
}

func (k *sdlKeySource) UpdateStates() {
	k.state = sdl.GetKeyboardState()
}

func (k *sdlKeySource) IsPressed(scancode int) bool {
	if scancode < 0 || scancode >= len(k.state) {
		return false
	}
	return k.state[scancode] != 0
}

// Pressed implements chip8.HostKeys: a binding is considered held if
// either its primary or alternate scancode is currently down.
func (k *sdlKeySource) Pressed(b chip8.KeyBinding) bool {
	return k.IsPressed(b.PrimaryKey) || k.IsPressed(b.AltKey)
}
