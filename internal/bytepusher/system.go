package bytepusher

import (
	"fmt"

	"github.com/coornio/cubechip-go/internal/harness"
	"github.com/coornio/cubechip-go/internal/pacer"
)

// System wires a Core to a Harness's worker lifecycle the same way
// chip8.System does, generalized down to BytePusher's much simpler
// per-frame contract: no timers, no interrupts, one flat 16-bit key
// word read directly from the host each frame.
type System struct {
	Core  *Core
	Pacer *pacer.Pacer

	KeyState func() uint16
	Display  harness.DisplaySink
	Audio    harness.AudioSink
	Volume   func() float32

	h *harness.Harness
}

// NewSystem wires core to a fresh Harness at BytePusher's fixed 60Hz.
func NewSystem(core *Core, keys func() uint16, display harness.DisplaySink, audioSink harness.AudioSink, volume func() float32) *System {
	s := &System{
		Core:     core,
		Pacer:    pacer.New(core.Framerate()),
		KeyState: keys,
		Display:  display,
		Audio:    audioSink,
		Volume:   volume,
	}
	s.h = harness.New(s)
	s.h.SetFramerate(core.Framerate())
	return s
}

// Harness returns the handle the host uses to start/stop the worker and
// read overlay text / global state.
func (s *System) Harness() *harness.Harness { return s.h }

// MainSystemLoop implements harness.System.
func (s *System) MainSystemLoop() {
	if !s.Pacer.CheckTime() {
		return
	}

	state := s.h.GetState()
	if state&harness.NotRunning != 0 {
		s.pushOverlay()
		return
	}

	var keys uint16
	if s.KeyState != nil {
		keys = s.KeyState()
	}
	s.Core.InstructionLoop(keys)
	s.h.AddElapsedCycles(1)

	s.renderVideo()
	s.renderAudio()
	s.pushOverlay()
}

func (s *System) renderVideo() {
	if s.Display == nil {
		return
	}
	frame := s.Core.RenderVideo()
	buf := frame[:]
	s.Display.Write(buf, func(index uint8) uint32 { return Palette666(index) })
}

func (s *System) renderAudio() {
	if s.Audio == nil {
		return
	}
	n := s.Audio.NextBufferSize("voice0", float64(s.h.Framerate()))
	if n <= 0 {
		return
	}
	volume := float32(1)
	if s.Volume != nil {
		volume = s.Volume()
	}
	frame := s.Core.RenderAudio(volume)

	out := make([]float32, n)
	for i := range out {
		src := i % audioLength
		out[i] = float32(int8(frame[src])) / 128.0
	}
	s.Audio.PushRawAudio("voice0", out)
}

func (s *System) pushOverlay() {
	if s.Pacer.ValidFrameCounter()&1 == 1 {
		s.h.PushOverlayData()
	}
}

// MakeOverlayData implements harness.System.
func (s *System) MakeOverlayData() string {
	frameMS := s.Pacer.ElapsedMillisLast()
	fps := s.h.Framerate()
	if frameMS > 0.001 {
		fps = 1000.0 / frameMS
	}
	return fmt.Sprintf(
		"Framerate:%9.3f fps |%9.3fms\nCycles:%d\n",
		fps, frameMS, s.Core.TotalCycles(),
	)
}
