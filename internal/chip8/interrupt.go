package chip8

// HandlePreFrameInterrupt runs before the instruction loop each frame: it
// may clear a pending FRAME/SOUND interrupt and restore the positive
// target CPF, per spec.md §4.H.
func (c *Core) HandlePreFrameInterrupt() {
	switch c.Interrupt {
	case Frame:
		c.Interrupt = Clear
		c.resume()
	case Sound:
		if c.SoundTimer == 0 && c.DelayTimer == 0 {
			c.Interrupt = Final
		}
	}
}

// resume restores the positive magnitude of TargetCPF.
func (c *Core) resume() {
	if c.TargetCPF < 0 {
		c.TargetCPF = -c.TargetCPF
	}
}

// HandleEndFrameInterrupt runs after the instruction loop: INPUT waits
// for a key edge and writes the pressed index into the waiting register
// then resumes; ERROR and FINAL transition to HALTED/FATAL on the
// provided state bitmask callback.
func (c *Core) HandleEndFrameInterrupt(tick uint64, setHalted, setFatal func()) {
	switch c.Interrupt {
	case Input:
		if c.KeyPressed(tick) {
			c.Interrupt = Clear
			c.resume()
			c.SoundTimer = 2 // one audio pulse on key-press resolution
		}
	case Final:
		c.Interrupt = Clear
		setHalted()
	case ErrorState:
		setFatal()
	}
}

// RaiseError transitions the interrupt state machine into ERROR and
// suspends instruction execution, per the "bad opcode" edge in spec.md
// §4.H.
func (c *Core) RaiseError() {
	c.Interrupt = ErrorState
	c.suspend()
}

// RemainingCycles returns the signed cycle counter; the instruction loop
// keeps running this frame only while it is > 0.
func (c *Core) RemainingCycles() int32 { return c.TargetCPF }

// InstructionLoop runs Step repeatedly until the per-frame cycle budget
// is exhausted or an interrupt has suspended TargetCPF (sign flip).
func (c *Core) InstructionLoop() {
	for c.TargetCPF > 0 {
		if err := c.Step(); err != nil {
			c.RaiseError()
			return
		}
		c.TargetCPF--
	}
}
