package chip8

import (
	"fmt"

	"github.com/coornio/cubechip-go/internal/audio"
	"github.com/coornio/cubechip-go/internal/harness"
	"github.com/coornio/cubechip-go/internal/pacer"
)

// System wires a Core to a Harness's worker lifecycle, implementing the
// canonical main_system_loop shape from spec.md §4.F. It satisfies
// harness.System.
type System struct {
	Core  *Core
	Pacer *pacer.Pacer

	Keys    HostKeys
	Display harness.DisplaySink
	Audio   harness.AudioSink

	h *harness.Harness

	tick uint64
}

// NewSystem wires core to a fresh Harness at the variant's target
// framerate. Call Harness() to obtain the handle the host starts/stops.
func NewSystem(core *Core, fps float32, keys HostKeys, display harness.DisplaySink, audioSink harness.AudioSink) *System {
	s := &System{
		Core:    core,
		Pacer:   pacer.New(fps),
		Keys:    keys,
		Display: display,
		Audio:   audioSink,
	}
	s.h = harness.New(s)
	s.h.SetFramerate(fps)
	return s
}

// Harness returns the handle the host uses to start/stop the worker and
// read overlay text / global state.
func (s *System) Harness() *harness.Harness { return s.h }

// MainSystemLoop implements harness.System: the canonical 8-step frame
// body from spec.md §4.F.
func (s *System) MainSystemLoop() {
	// 1. pace, or yield if paused
	if !s.Pacer.CheckTime() {
		return
	}

	state := s.h.GetState()
	if state&harness.NotRunning != 0 {
		s.pushOverlay()
		return
	}

	// 3. snapshot key states
	if s.Keys != nil {
		s.Core.UpdateKeys(s.Keys)
	}

	// 4. decrement timers
	if s.Core.DelayTimer > 0 {
		s.Core.DelayTimer--
	}
	if s.Core.SoundTimer > 0 {
		s.Core.SoundTimer--
	}

	// 5. pre-frame interrupt
	s.Core.HandlePreFrameInterrupt()

	// 6. instruction loop
	s.Core.InstructionLoop()

	// 7. end-frame interrupt
	s.tick++
	s.Core.HandleEndFrameInterrupt(s.tick,
		func() { s.h.AddState(harness.Halted) },
		func() { s.h.AddState(harness.Fatal) },
	)

	// 8. render audio, render video, push overlay
	s.renderAudio()
	s.renderVideo()
	s.h.AddElapsedCycles(1)
	s.pushOverlay()
}

// renderVideo asks the variant to composite its planes into core.frame,
// then pushes the result to the display sink, mirroring bytepusher.System's
// renderVideo/Display.Write pairing.
func (s *System) renderVideo() {
	s.Core.Variant.RenderVideo(s.Core)
	if s.Display == nil || s.Core.frame == nil {
		return
	}
	s.Display.Write(s.Core.frame, s.Core.FramePalette)
}

func (s *System) renderAudio() {
	if s.Audio == nil {
		return
	}
	for i := range s.Core.Voices {
		n := 0
		stream := audio.NewStream(44100, 1)
		if s.Audio != nil {
			n = s.Audio.NextBufferSize(fmt.Sprintf("voice%d", i), float64(s.h.Framerate()))
		}
		if n <= 0 {
			continue
		}
		buf := make([]float32, n)
		s.Core.Variant.RenderAudio(s.Core, buf, stream)
		s.Audio.PushRawAudio(fmt.Sprintf("voice%d", i), buf)
	}
}

// pushOverlay publishes overlay text on every other validated frame, per
// spec.md §4.F ("Produced once every other validated frame").
func (s *System) pushOverlay() {
	if s.Pacer.ValidFrameCounter()&1 == 1 {
		s.h.PushOverlayData()
	}
}

// MakeOverlayData implements harness.System: a printable two-line string
// with measured FPS and frametime.
func (s *System) MakeOverlayData() string {
	frameMS := s.Pacer.ElapsedMillisLast()
	elapsedMS := float32(s.Pacer.ElapsedMicrosSince()) / 1000.0

	fps := s.h.Framerate()
	if frameMS > 0.001 {
		fps = 1000.0 / frameMS
	}

	span := s.Pacer.Framespan()
	pct := float32(0)
	if span > 0 {
		pct = elapsedMS / span * 100.0
	}

	return fmt.Sprintf(
		"Framerate:%9.3f fps |%9.3fms\nFrametime:%9.3f ms (%3.2f%%)\n",
		fps, frameMS, elapsedMS, pct,
	)
}
