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
	"sync"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/coornio/cubechip-go/internal/bitgrid"
)

// sdlDisplay implements harness.DisplaySink on top of an SDL streaming
// texture, generalized from the teacher's fixed 128x64 RefreshScreen/
// CopyScreen pair (screen.go) to the variable-resolution multi-core
// model: any core's video frame (a *bitgrid.Grid[byte] plane, a raw index
// slice for BytePusher) is written into a host-side RGBA buffer, which is
// pushed to the GPU texture once per frame and stretched into the
// viewport.
type sdlDisplay struct {
	renderer *sdl.Renderer
	texture  *sdl.Texture

	mu      sync.Mutex
	pixels  []uint32
	w, h    int
	upscale int
	padding int

	borderColor   uint32
	viewportAlpha uint8
}

func newSDLDisplay(renderer *sdl.Renderer) *sdlDisplay {
	return &sdlDisplay{renderer: renderer, upscale: 1, viewportAlpha: 0xFF}
}

// SetViewportSizes (re)allocates the backing texture when the core's
// resolution or presentation scale changes.
func (d *sdlDisplay) SetViewportSizes(w, h, upscaleMultiplier, padding int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.upscale = upscaleMultiplier
	d.padding = padding

	if w == d.w && h == d.h && d.texture != nil {
		return
	}
	d.w, d.h = w, h
	d.pixels = make([]uint32, w*h)

	if d.texture != nil {
		d.texture.Destroy()
	}
	tex, err := d.renderer.CreateTexture(uint32(sdl.PIXELFORMAT_ARGB8888), sdl.TEXTUREACCESS_STREAMING, int32(w), int32(h))
	if err != nil {
		panic(err)
	}
	tex.SetBlendMode(sdl.BLENDMODE_BLEND)
	d.texture = tex
}

func (d *sdlDisplay) SetBorderColor(rgba uint32) {
	d.mu.Lock()
	d.borderColor = rgba
	d.mu.Unlock()
}

func (d *sdlDisplay) SetViewportAlpha(alpha uint8) {
	d.mu.Lock()
	d.viewportAlpha = alpha
	d.mu.Unlock()
}

// Write replaces the framebuffer contents from source, mapping each cell
// through transform. source is either a *bitgrid.Grid[byte] (a CHIP-8
// plane, already composited to a single palette-index grid by the
// variant's RenderVideo) or a []byte raw index buffer (BytePusher).
func (d *sdlDisplay) Write(source any, transform func(uint8) uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch src := source.(type) {
	case *bitgrid.Grid[byte]:
		for y := 0; y < src.Height(); y++ {
			for x := 0; x < src.Width(); x++ {
				if i := y*d.w + x; i < len(d.pixels) {
					d.pixels[i] = transform(src.At(x, y))
				}
			}
		}
	case []byte:
		for i, v := range src {
			if i < len(d.pixels) {
				d.pixels[i] = transform(v)
			}
		}
	}
}

// WriteBlend composites source (raw already-resolved ARGB8888 pixels, one
// per framebuffer cell, e.g. a MEGACHIP texture-sprite blit) onto the
// existing framebuffer via blend. dest is accepted for interface symmetry
// with a future multi-surface compositor but is unused: the only
// destination this host ever blends onto is its own live framebuffer.
func (d *sdlDisplay) WriteBlend(source, dest any, blend func(src, dst uint32) uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	src, ok := source.([]uint32)
	if !ok {
		return
	}
	for i, c := range src {
		if i < len(d.pixels) {
			d.pixels[i] = blend(c, d.pixels[i])
		}
	}
}

// present uploads the framebuffer and composites it into the window,
// bordered and padded per the last SetViewportSizes/SetBorderColor call.
// Ported in spirit from screen.go's RefreshScreen + CopyScreen split, now
// a single push since the host no longer walks bits itself.
func (d *sdlDisplay) present(windowW, windowH int32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.texture == nil || len(d.pixels) == 0 {
		return
	}

	ptr := unsafe.Pointer(&d.pixels[0])
	raw := (*[1 << 30]byte)(ptr)[: len(d.pixels)*4 : len(d.pixels)*4]
	d.texture.Update(nil, raw, d.w*4)

	r, g, b, a := byte(d.borderColor>>16), byte(d.borderColor>>8), byte(d.borderColor), byte(d.borderColor>>24)
	d.renderer.SetDrawColor(r, g, b, a)
	d.renderer.Clear()

	dstW := int32(d.w*d.upscale) + int32(d.padding)*2
	dstH := int32(d.h*d.upscale) + int32(d.padding)*2
	dst := sdl.Rect{
		X: (windowW - dstW) / 2,
		Y: (windowH - dstH) / 2,
		W: dstW,
		H: dstH,
	}
	inner := sdl.Rect{
		X: dst.X + int32(d.padding),
		Y: dst.Y + int32(d.padding),
		W: int32(d.w * d.upscale),
		H: int32(d.h * d.upscale),
	}

	d.texture.SetAlphaMod(d.viewportAlpha)
	d.renderer.Copy(d.texture, nil, &inner)
}
