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
)

// bitmapFont holds the fixed-width debug font texture, same 5x7 glyph
// grid the teacher loads from font.bmp.
var bitmapFont *sdl.Texture

// loadFont loads the bitmap surface with the debug font on it, keying out
// magenta as transparent.
func loadFont(renderer *sdl.Renderer) error {
	surface, err := sdl.LoadBMP("font.bmp")
	if err != nil {
		return err
	}
	defer surface.Free()

	mask := sdl.MapRGB(surface.Format, 255, 0, 255)
	surface.SetColorKey(1, mask)

	bitmapFont, err = renderer.CreateTextureFromSurface(surface)
	return err
}

// drawText renders s with the bitmap font at (x, y), used for the
// overlay text the harness publishes each frame (FPS/frametime) and for
// the scrollable application log.
func drawText(renderer *sdl.Renderer, s string, x, y int) {
	src := sdl.Rect{W: 5, H: 7}
	dst := sdl.Rect{X: int32(x), Y: int32(y), W: 5, H: 7}

	for _, c := range s {
		if c > 32 && c < 127 {
			src.X = int32(c-33) * 6
			renderer.Copy(bitmapFont, &src, &dst)
		}
		dst.X += 7
	}
}
