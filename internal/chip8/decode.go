package chip8

// Fetch reads the two-byte instruction at PC and advances PC by 2.
func (c *Core) Fetch() uint16 {
	hi := uint16(c.ReadByte(uint32(c.PC)))
	lo := uint16(c.ReadByte(uint32(c.PC) + 1))
	c.PC += 2
	return hi<<8 | lo
}

// SkipInstruction advances PC by 4 when the instruction at PC is a
// double-wide opcode (XO-CHIP's F000, or MEGACHIP's 01nn/02nn/03nn),
// otherwise by 2. Used by every skip-if-* opcode per spec.md §4.I.
func (c *Core) SkipInstruction() {
	hi := c.ReadByte(uint32(c.PC))
	if hi == 0xF0 && c.ReadByte(uint32(c.PC)+1) == 0x00 {
		c.PC += 4
		return
	}
	if hi >= 0x01 && hi <= 0x03 {
		c.PC += 4
		return
	}
	c.PC += 2
}

// Step decodes and executes exactly one instruction, dispatching to the
// variant for anything the common shell doesn't own outright. Returns an
// *OpcodeError (without raising the ERROR interrupt itself — the caller,
// InstructionLoop, does that via RaiseError) when nothing recognizes the
// opcode.
func (c *Core) Step() error {
	pc := c.PC
	opcode := c.Fetch()

	a := opcode & 0x0FFF
	b := byte(opcode & 0x00FF)
	n := byte(opcode & 0x000F)
	x := byte(opcode >> 8 & 0xF)
	y := byte(opcode >> 4 & 0xF)

	switch opcode & 0xF000 {
	case 0x0000:
		if c.execZeroCommon(opcode) {
			return nil
		}
		if c.Variant.ExecZero(c, opcode) {
			return nil
		}
		return &OpcodeError{PC: pc, Opcode: opcode}

	case 0x1000:
		c.PC = a
		return nil

	case 0x2000:
		c.PushStack(c.PC)
		c.PC = a
		return nil

	case 0x3000:
		if c.V[x] == b {
			c.SkipInstruction()
		}
		return nil

	case 0x4000:
		if c.V[x] != b {
			c.SkipInstruction()
		}
		return nil

	case 0x5000:
		switch n {
		case 0x0:
			if c.V[x] == c.V[y] {
				c.SkipInstruction()
			}
			return nil
		default:
			if c.Variant.ExecExtended(c, opcode) {
				return nil
			}
			return &OpcodeError{PC: pc, Opcode: opcode}
		}

	case 0x6000:
		c.V[x] = b
		return nil

	case 0x7000:
		c.V[x] += b
		return nil

	case 0x8000:
		c.execALU(x, y, n)
		return nil

	case 0x9000:
		if n == 0 && c.V[x] != c.V[y] {
			c.SkipInstruction()
		}
		return nil

	case 0xA000:
		c.I = a
		return nil

	case 0xB000:
		if c.Quirks&QuirkJmpRegX != 0 {
			c.PC = a + uint16(c.V[x])
		} else if c.Variant.ExecExtended(c, opcode) {
			// CHIP-8X repurposes BxyN for colour-rect drawing
			return nil
		} else {
			c.PC = a + uint16(c.V[0])
		}
		return nil

	case 0xC000:
		c.V[x] = prngNext(c) & b
		return nil

	case 0xD000:
		c.Variant.DrawSprite(c, c.V[x], c.V[y], n)
		return nil

	case 0xE000:
		switch b {
		case 0x9E:
			if c.KeyHeldP1(int(c.V[x])) {
				c.SkipInstruction()
			}
			return nil
		case 0xA1:
			if !c.KeyHeldP1(int(c.V[x])) {
				c.SkipInstruction()
			}
			return nil
		default:
			if c.Variant.ExecExtended(c, opcode) {
				return nil
			}
			return &OpcodeError{PC: pc, Opcode: opcode}
		}

	case 0xF000:
		if c.execFCommon(x, b) {
			return nil
		}
		if c.Variant.ExecExtended(c, opcode) {
			return nil
		}
		return &OpcodeError{PC: pc, Opcode: opcode}
	}

	return &OpcodeError{PC: pc, Opcode: opcode}
}

func prngNext(c *Core) byte {
	return byte(c.RNG.NextUint32())
}

// execZeroCommon handles the 0x0--- opcodes every variant must support,
// per spec.md §4.I. Returns false to delegate to the variant (MEGACHIP's
// 0010/0011/01nn.., CHIP-8X's 02A0, and unknown 0NNN -> ERROR).
func (c *Core) execZeroCommon(opcode uint16) bool {
	switch opcode {
	case 0x00E0:
		c.clearDisplay()
		return true
	case 0x00EE:
		c.PC = c.PopStack()
		return true
	case 0x00FB:
		c.scrollRight(4)
		return true
	case 0x00FC:
		c.scrollLeft(4)
		return true
	case 0x00FD:
		c.Interrupt = Sound
		c.suspend()
		return true
	case 0x00FE:
		c.setHighRes(false)
		return true
	case 0x00FF:
		c.setHighRes(true)
		return true
	}

	switch opcode & 0xFFF0 {
	case 0x00C0: // 00Cn scroll down n
		c.scrollDown(byte(opcode & 0xF))
		if c.Quirks&QuirkWaitScroll != 0 {
			c.Interrupt = Frame
			c.suspend()
		}
		return true
	case 0x00D0, 0x00B0: // 00Dn / 00Bn scroll up n
		c.scrollUp(byte(opcode & 0xF))
		if c.Quirks&QuirkWaitScroll != 0 {
			c.Interrupt = Frame
			c.suspend()
		}
		return true
	}

	return false
}

// suspend flips TargetCPF negative, the signed-counter interrupt encoding
// spec.md §4.H specifies: the instruction loop halts once remaining <= 0.
func (c *Core) suspend() {
	if c.TargetCPF > 0 {
		c.TargetCPF = -c.TargetCPF
	}
}

func (c *Core) setHighRes(hi bool) {
	c.Traits &^= TraitResolutionChanged
	// LargerDisplay marks hi-res; SCHIP-legacy reuses ManualRefresh as its
	// lo-res flag. PrepareResolution toggles, so only call it on a change.
	current := c.Traits&TraitLargerDisplay != 0 && c.Traits&TraitManualRefresh == 0
	if hi == current {
		return
	}
	before := c.Width
	c.Variant.PrepareResolution(c)
	if c.Width != before {
		c.Traits |= TraitResolutionChanged
	}
}

func (c *Core) execALU(x, y, n byte) {
	switch n {
	case 0x0:
		c.V[x] = c.V[y]
	case 0x1:
		c.V[x] |= c.V[y]
		if c.Quirks&QuirkClearVF != 0 {
			c.V[0xF] = 0
		}
	case 0x2:
		c.V[x] &= c.V[y]
		if c.Quirks&QuirkClearVF != 0 {
			c.V[0xF] = 0
		}
	case 0x3:
		c.V[x] ^= c.V[y]
		if c.Quirks&QuirkClearVF != 0 {
			c.V[0xF] = 0
		}
	case 0x4:
		sum := uint16(c.V[x]) + uint16(c.V[y])
		c.V[x] = byte(sum)
		c.V[0xF] = byte(sum >> 8 & 1)
	case 0x5:
		borrow := byte(0)
		if c.V[x] >= c.V[y] {
			borrow = 1
		}
		c.V[x] = c.V[x] - c.V[y]
		c.V[0xF] = borrow
	case 0x7:
		borrow := byte(0)
		if c.V[y] >= c.V[x] {
			borrow = 1
		}
		c.V[x] = c.V[y] - c.V[x]
		c.V[0xF] = borrow
	case 0x6:
		src := x
		if c.Quirks&QuirkShiftVX == 0 {
			c.V[x] = c.V[y]
			src = x
		}
		lsb := c.V[src] & 1
		c.V[x] = c.V[src] >> 1
		c.V[0xF] = lsb
	case 0xE:
		src := x
		if c.Quirks&QuirkShiftVX == 0 {
			c.V[x] = c.V[y]
			src = x
		}
		msb := c.V[src] >> 7 & 1
		c.V[x] = c.V[src] << 1
		c.V[0xF] = msb
	}
}

// execFCommon handles the 0xFxNN opcodes shared by every variant:
// timers, key wait, I add, font lookup, BCD, memory load/store,
// permanent-register save/load.
func (c *Core) execFCommon(x, b byte) bool {
	switch b {
	case 0x07:
		c.V[x] = c.DelayTimer
		return true
	case 0x0A:
		c.Interrupt = Input
		c.suspend()
		c.Key.waitReg = &c.V[x]
		return true
	case 0x15:
		c.DelayTimer = c.V[x]
		return true
	case 0x18:
		c.SoundTimer = c.V[x]
		return true
	case 0x1E:
		c.I += uint16(c.V[x])
		return true
	case 0x29:
		c.I = uint16(c.V[x]&0xF) * 5
		return true
	case 0x33:
		v := c.V[x]
		c.WriteByte(uint32(c.I), v/100)
		c.WriteByte(uint32(c.I)+1, v/10%10)
		c.WriteByte(uint32(c.I)+2, v%10)
		return true
	case 0x55:
		for i := byte(0); i <= x; i++ {
			c.WriteByte(uint32(c.I)+uint32(i), c.V[i])
		}
		c.advanceIndexReg(x)
		return true
	case 0x65:
		for i := byte(0); i <= x; i++ {
			c.V[i] = c.ReadByte(uint32(c.I) + uint32(i))
		}
		c.advanceIndexReg(x)
		return true
	case 0x75:
		n := x
		if n > 7 {
			n = 7
		}
		for i := byte(0); i <= n; i++ {
			c.PermaRegs[i] = c.V[i]
		}
		return true
	case 0x85:
		n := x
		if n > 7 {
			n = 7
		}
		for i := byte(0); i <= n; i++ {
			c.V[i] = c.PermaRegs[i]
		}
		return true
	}
	return false
}

func (c *Core) advanceIndexReg(x byte) {
	switch {
	case c.Quirks&QuirkIdxRegNoInc != 0:
		// I unchanged
	case c.Quirks&QuirkIdxRegMinus != 0:
		c.I -= uint16(x) + 1
	default:
		c.I += uint16(x) + 1
	}
}
