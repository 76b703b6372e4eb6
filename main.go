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
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/coornio/cubechip-go/internal/applog"
	"github.com/coornio/cubechip-go/internal/bytepusher"
	"github.com/coornio/cubechip-go/internal/chip8"
	"github.com/coornio/cubechip-go/internal/config"
	"github.com/coornio/cubechip-go/internal/harness"
	"github.com/coornio/cubechip-go/internal/homedir"
	"github.com/coornio/cubechip-go/internal/permareg"
	"github.com/coornio/cubechip-go/internal/registry"
)

// windowed defaults, same baseline dimensions the teacher's createWindow
// used for its fixed 128x64 display, now just the starting size: the
// viewport resizes per-core in loadProgram.
const (
	defaultWindowW = 1024
	defaultWindowH = 640
	logWindowLines = 16
)

// app bundles every long-lived collaborator the host wires together,
// replacing the teacher's loose package-level VM/Window/Renderer/Debug
// globals with one struct so ownership stays explicit.
type app struct {
	home    *homedir.Service
	cfg     config.Config
	cfgPath string
	regs    *permareg.Store

	window   *sdl.Window
	renderer *sdl.Renderer
	display  *sdlDisplay
	audio    *sdlAudioDevice
	keys     *sdlKeySource

	h        *harness.Harness
	variant  registry.CoreName
	current  any // *chip8.Core or *bytepusher.Core, whichever is loaded
	paused   bool
}

func init() {
	runtime.LockOSThread()
}

func main() {
	etiMode := flag.Bool("eti", false, "Log an ETI-660 mode notice; the program load address is unchanged.")
	portable := flag.Bool("portable", false, "Store settings next to the executable instead of the user config directory.")
	flag.Parse()

	home, err := homedir.Initialize("cubechip", *portable)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cubechip: home directory:", err)
		os.Exit(1)
	}
	home.SetValidator(func(p registry.Program) (registry.CoreName, bool) {
		if name, ok := chip8.DefaultRegistry.ValidateProgram(p); ok {
			return name, true
		}
		return bytepusher.DefaultRegistry.ValidateProgram(p)
	})

	regDir, err := home.AddSystemDir("permRegs")
	if err != nil {
		applog.Warnf("permanent registers: %v", err)
	}

	a := &app{
		home:    home,
		regs:    permareg.New(regDir),
		cfgPath: filepath.Join(home.Home(), "cubechip.toml"),
	}

	a.cfg, err = config.Load(a.cfgPath)
	if err != nil {
		applog.Warnf("config: %v, using defaults", err)
		a.cfg = config.Default()
	}

	applog.Infof("cubechip, a multi-platform CHIP-8 family host")

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		panic(err)
	}
	defer sdl.Quit()

	a.createWindow()
	if err := loadFont(a.renderer); err != nil {
		applog.Warnf("font: %v", err)
	}

	a.audio = newSDLAudioDevice()
	defer a.audio.Close()
	a.keys = newSDLKeySource()

	if *etiMode {
		applog.Infof("running in ETI-660 mode")
	}

	if file := flag.Arg(0); file != "" {
		if err := a.loadProgram(file); err != nil {
			applog.Errorf("%s: %v", file, err)
		}
	}

	applog.Infof("starting; press 'H' for help")

	videoTicker := time.NewTicker(time.Second / 60)
	defer videoTicker.Stop()

	for a.processEvents() {
		select {
		case <-videoTicker.C:
			a.redraw()
		default:
			time.Sleep(time.Millisecond)
		}
	}

	a.saveCurrentPermaRegs()
	if err := config.Write(a.cfgPath, a.cfg); err != nil {
		applog.Warnf("config: %v", err)
	}
}

// createWindow creates the SDL window and renderer, mirroring the
// teacher's fixed-size createWindow but at a larger starting resolution
// since the viewport now resizes per loaded core.
func (a *app) createWindow() {
	var err error
	a.window, a.renderer, err = sdl.CreateWindowAndRenderer(defaultWindowW, defaultWindowH, sdl.WINDOW_RESIZABLE)
	if err != nil {
		panic(err)
	}
	a.window.SetTitle("CubeChip")
	a.display = newSDLDisplay(a.renderer)
	a.display.SetBorderColor(a.cfg.Video.BorderColor)
	a.display.SetViewportAlpha(a.cfg.Video.ViewportAlpha)
}

// loadProgram validates, constructs, and starts a core for file, tearing
// down whatever was previously running.
func (a *app) loadProgram(file string) error {
	name, ok, err := a.home.ValidateGameFile(file)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("unsupported program: %s", bytepusher.DefaultRegistry.LastError())
	}

	a.unload()

	var core any
	switch name {
	case registry.BytePusher:
		core, err = bytepusher.DefaultRegistry.ConstructCore(name, a.home.FileData())
	default:
		core, err = chip8.DefaultRegistry.ConstructCore(name, a.home.FileData())
	}
	if err != nil {
		return err
	}

	a.variant = name
	a.current = core

	switch c := core.(type) {
	case *chip8.Core:
		a.loadPermaRegs(c)
		a.display.SetViewportSizes(c.Width, c.Height, a.cfg.Video.ViewportScale, 4)
		for i := range c.Voices {
			a.audio.AddAudioStream(fmt.Sprintf("voice%d", i), 44100, 1)
		}
		sys := chip8.NewSystem(c, 60, a.keys, a.display, a.audio)
		a.h = sys.Harness()
	case *bytepusher.Core:
		a.display.SetViewportSizes(256, 256, a.cfg.Video.ViewportScale, 4)
		a.audio.AddAudioStream("voice0", 44100, 1)
		sys := bytepusher.NewSystem(c, a.bytePusherKeyState, a.display, a.audio, a.volume)
		a.h = sys.Harness()
	}

	a.h.StartWorker()
	applog.Infof("loaded %s (%s)", filepath.Base(file), name)
	return nil
}

// loadPermaRegs fills core's SCHIP permanent registers from disk before
// the worker starts, so FN85 sees whatever a previous session saved.
func (a *app) loadPermaRegs(c *chip8.Core) {
	if err := a.regs.GetPermaRegs(a.home.FileSHA1(), len(c.PermaRegs), c.PermaRegs[:]); err != nil {
		applog.Warnf("permanent registers: %v", err)
	}
}

// saveCurrentPermaRegs persists the running chip8 core's permanent
// registers to disk, if one is loaded.
func (a *app) saveCurrentPermaRegs() {
	c, ok := a.current.(*chip8.Core)
	if !ok {
		return
	}
	if err := a.regs.SetPermaRegs(a.home.FileSHA1(), len(c.PermaRegs), c.PermaRegs[:]); err != nil {
		applog.Warnf("permanent registers: %v", err)
	}
}

func (a *app) unload() {
	if a.h != nil {
		a.saveCurrentPermaRegs()
		a.h.StopWorker()
		a.h = nil
	}
	a.current = nil
	a.home.ClearCachedFileData()
}

func (a *app) volume() float32 {
	if a.cfg.Audio.Muted {
		return 0
	}
	return a.cfg.Audio.Volume
}

// bytePusherKeyState packs the held hex-pad keys (bindings 0..15) into the
// 16-bit word BytePusher's InstructionLoop expects, per the original's
// one-bit-per-key convention.
func (a *app) bytePusherKeyState() uint16 {
	var state uint16
	for i, b := range chip8.Bindings[:16] {
		if a.keys.Pressed(b) {
			state |= 1 << uint(i)
		}
	}
	return state
}

func (a *app) processEvents() bool {
	a.keys.UpdateStates()

	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch ev := e.(type) {
		case *sdl.QuitEvent:
			return false
		case *sdl.DropEvent:
			if err := a.loadProgram(ev.File); err != nil {
				applog.Errorf("%s: %v", ev.File, err)
			}
		case *sdl.KeyboardEvent:
			if ev.Type != sdl.KEYDOWN {
				continue
			}
			switch ev.Keysym.Scancode {
			case sdl.SCANCODE_ESCAPE:
				a.unload()
			case sdl.SCANCODE_BACKSPACE:
				if path := a.home.FilePath(); path != "" {
					if err := a.loadProgram(path); err != nil {
						applog.Errorf("reload: %v", err)
					}
				}
			case sdl.SCANCODE_UP, sdl.SCANCODE_PAGEUP:
				applog.Default.ScrollUp()
			case sdl.SCANCODE_DOWN, sdl.SCANCODE_PAGEDOWN:
				applog.Default.ScrollDown(logWindowLines)
			case sdl.SCANCODE_HOME:
				applog.Default.Home()
			case sdl.SCANCODE_END:
				applog.Default.End()
			case sdl.SCANCODE_F3:
				if path, ok := openROMDialog(supportedExtensions()); ok {
					if err := a.loadProgram(path); err != nil {
						applog.Errorf("%s: %v", path, err)
					}
				}
			case sdl.SCANCODE_F4:
				if c, ok := a.current.(*chip8.Core); ok {
					if path, ok := saveMemoryDialog(a.home.FileStem() + ".bin"); ok {
						if err := os.WriteFile(path, c.Memory, 0o644); err != nil {
							applog.Errorf("save: %v", err)
						}
					}
				}
			case sdl.SCANCODE_F5, sdl.SCANCODE_SPACE:
				a.togglePause()
			case sdl.SCANCODE_LEFTBRACKET:
				a.cfg.Audio.Volume -= 0.1
			case sdl.SCANCODE_RIGHTBRACKET:
				a.cfg.Audio.Volume += 0.1
			case sdl.SCANCODE_M:
				a.cfg.Audio.Muted = !a.cfg.Audio.Muted
			}
		}
	}
	return true
}

func (a *app) togglePause() {
	if a.h == nil {
		return
	}
	a.paused = !a.paused
	if a.paused {
		a.h.AddState(harness.Paused)
	} else {
		a.h.SubState(harness.Paused)
	}
}

// redraw pushes the latest frame and overlay/log text to the window,
// generalized from screen.go's RefreshScreen/updateScreen pair.
func (a *app) redraw() {
	w, h := a.window.GetSize()
	a.display.present(w, h)

	if a.h != nil {
		drawText(a.renderer, a.h.CopyOverlayData(), 8, 8)
	}
	for i, line := range applog.Default.Window(logWindowLines) {
		drawText(a.renderer, line, 8, int(h)-(logWindowLines-i)*10-8)
	}

	a.renderer.Present()
}

// supportedExtensions lists every extension the registries route, for the
// open dialog's file filter. Registry doesn't expose its extension table
// directly, so this mirrors it by hand.
func supportedExtensions() []string {
	return []string{"ch8", "bnc", "c8e", "sc8", "xo8", "mc8", "gc8", "hwc", "c8x", "c2x", "c4x", "c2h", "c4h", "c8h", "bp", "ch16"}
}
