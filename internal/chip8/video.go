package chip8

import "github.com/coornio/cubechip-go/internal/bitgrid"

// ensureFrame returns c.frame resized to w x h, reallocating only when the
// dimensions changed (mode switch, resolution toggle).
func (c *Core) ensureFrame(w, h int) *bitgrid.Grid[byte] {
	if c.frame == nil || c.frame.Width() != w || c.frame.Height() != h {
		c.frame = bitgrid.New[byte](w, h)
	}
	return c.frame
}

// monoPalette is the classic off/on palette shared by every single-plane
// variant: 0 is black, any nonzero index is white.
func monoPalette(index uint8) uint32 {
	if index != 0 {
		return 0xFFFFFFFF
	}
	return 0x000000FF
}

// clearDisplay wipes every allocated plane.
func (c *Core) clearDisplay() {
	for _, p := range c.Planes {
		if p != nil {
			p.Initialize()
		}
	}
}

// activePlanes returns the allocated, non-nil planes.
func (c *Core) activePlanes() []int {
	var out []int
	for i, p := range c.Planes {
		if p != nil {
			out = append(out, i)
		}
	}
	return out
}

// scrollUp shifts every plane up by n rows. Scrolling always clips (the
// vacated rows are zeroed) whatever the wrapSprite quirk says; only sprite
// draw wraps.
func (c *Core) scrollUp(n byte) {
	for _, i := range c.activePlanes() {
		c.Planes[i].Shift(0, -int(n))
	}
}

func (c *Core) scrollDown(n byte) {
	for _, i := range c.activePlanes() {
		c.Planes[i].Shift(0, int(n))
	}
}

func (c *Core) scrollRight(n byte) {
	for _, i := range c.activePlanes() {
		c.Planes[i].Shift(int(n), 0)
	}
}

func (c *Core) scrollLeft(n byte) {
	for _, i := range c.activePlanes() {
		c.Planes[i].Shift(-int(n), 0)
	}
}
