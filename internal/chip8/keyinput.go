package chip8

import "math/bits"

// HostKeys reports per-binding-index whether a host scancode is currently
// held; the harness supplies this from its KeySource each frame.
type HostKeys interface {
	Pressed(binding KeyBinding) bool
}

// UpdateKeys runs the 32-slot binding snapshot per spec.md §4.G:
// prev = curr; curr = OR over bindings; lock &= ~(prev ^ curr); loop &= lock.
func (c *Core) UpdateKeys(host HostKeys) {
	k := &c.Key
	k.Prev = k.Curr

	var next uint32
	for _, b := range Bindings {
		if host.Pressed(b) {
			next |= 1 << uint(b.Index)
		}
	}
	k.Curr = next
	k.Lock &^= k.Prev ^ k.Curr
	k.Loop &= k.Lock
}

// KeyHeldP1 reports whether logical key idx (lower nibble) is currently
// held and not locked.
func (c *Core) KeyHeldP1(idx int) bool {
	k := &c.Key
	return k.Curr&^k.Lock&(1<<uint(idx&0xF)) != 0
}

// KeyHeldP2 is KeyHeldP1 for the upper nibble, the CHIP-8X two-player
// layout.
func (c *Core) KeyHeldP2(idx int) bool {
	k := &c.Key
	return k.Curr&^k.Lock&(1<<uint((idx&0xF)+16)) != 0
}

// KeyPressed drives the Fx0A wait: called once per frame while an input
// wait is active. Maintains the repeat schedule described in spec.md
// §4.G and writes the resolved key index to the pending wait register
// once a key settles, clearing the wait.
func (c *Core) KeyPressed(tick uint64) bool {
	k := &c.Key
	if k.waitReg == nil {
		return false
	}

	if k.Loop != 0 {
		span := k.RepeatSpan
		if span == 0 {
			span = 20
		}
		if tick-k.TickStamp >= span {
			k.Lock = 0
		}
	}

	pressed := k.Curr &^ k.Prev
	if pressed != 0 {
		if k.Loop == 0 {
			k.RepeatSpan = 20
		} else {
			k.RepeatSpan = 5
		}
		k.Loop = pressed
		k.Lock |= pressed
		k.TickStamp = tick

		idx := bits.TrailingZeros32(pressed)
		*k.waitReg = byte(idx)
		k.waitReg = nil
		return true
	}

	return false
}
