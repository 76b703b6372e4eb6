// Package audio implements the mixable sound voices shared by every core:
// a classic pulse tone, an XO-CHIP 128-bit pattern wave, and a MegaChip
// byte-stream PCM wave, plus the process-wide gain/mute layer that sits
// above all of them.
package audio

import (
	"math"
	"sync/atomic"
)

// PitchTable maps an XO-CHIP pitch byte (0..255) to a step frequency in Hz,
// following 31.25 * 2^((pitch-64)/48).
var PitchTable = buildPitchTable()

func buildPitchTable() [256]float32 {
	var table [256]float32
	for pitch := 0; pitch < 256; pitch++ {
		table[pitch] = float32(31.25 * math.Pow(2.0, (float64(pitch)-64.0)/48.0))
	}
	return table
}

// Voice is one oscillator's running state: its wave phase in [0,1), its
// per-sample phase step, a pointer to the timer that gates playback (the
// sound timer decrements to zero and silences the voice), and an opaque
// userdata slot a Generator may use for its own bookkeeping (e.g. a
// MegaChip sample cursor).
type Voice struct {
	Phase    float32
	Step     float32
	Timer    *uint8
	UserData any
}

// Active reports whether the voice's gating timer is still running. A nil
// Timer means the voice is always active (used by the pattern and
// byte-stream waves, which gate themselves).
func (v *Voice) Active() bool {
	return v.Timer == nil || *v.Timer > 0
}

// Stream is a destination for rendered samples: its own gain and mute
// state, independent of the global mixer gain.
type Stream struct {
	SampleRate int
	Channels   int

	gain     atomic.Uint32 // float32 bits, clamped to [0, 2]
	muted    atomic.Bool
	residual float64 // fractional carry between NextBufferSize calls
}

// NewStream returns a Stream with unity gain and no mute.
func NewStream(sampleRate, channels int) *Stream {
	s := &Stream{SampleRate: sampleRate, Channels: channels}
	s.SetGain(1.0)
	return s
}

// Gain returns the stream's own gain multiplier.
func (s *Stream) Gain() float32 {
	return math.Float32frombits(s.gain.Load())
}

// SetGain clamps gain to [0, 2] and stores it.
func (s *Stream) SetGain(gain float32) {
	if gain < 0 {
		gain = 0
	}
	if gain > 2 {
		gain = 2
	}
	s.gain.Store(math.Float32bits(gain))
}

// Muted reports the stream's own mute flag.
func (s *Stream) Muted() bool { return s.muted.Load() }

// SetMuted sets the stream's own mute flag.
func (s *Stream) SetMuted(muted bool) { s.muted.Store(muted) }

// NextBufferSize returns how many samples to render this tick to stay in
// sync with a host frame rate, carrying the fractional remainder forward
// so long-run playback doesn't drift.
func (s *Stream) NextBufferSize(frameHz float64) int {
	exact := float64(s.SampleRate)/frameHz + s.residual
	n := int(exact)
	s.residual = exact - float64(n)
	return n
}

// Generator renders n samples of dst for voice on stream, advancing the
// voice's phase as it goes.
type Generator func(dst []float32, voice *Voice, stream *Stream, amplitude float32)

// PulseWave renders the classic CHIP-8 square tone: phase > 0.5 is +amplitude,
// otherwise -amplitude.
func PulseWave(dst []float32, voice *Voice, stream *Stream, amplitude float32) {
	for i := range dst {
		if !voice.Active() {
			dst[i] = 0
			voice.Phase = 0
			continue
		}
		if voice.Phase > 0.5 {
			dst[i] = amplitude
		} else {
			dst[i] = -amplitude
		}
		voice.Phase = float32(math.Mod(float64(voice.Phase+voice.Step), 1.0))
	}
}

// PatternWave renders the XO-CHIP 128-bit pattern buffer: voice.UserData
// must hold a *[16]byte of the loaded pattern. Each of the 128 bit
// positions maps to one sample step across the phase cycle.
func PatternWave(dst []float32, voice *Voice, stream *Stream, amplitude float32) {
	pattern, _ := voice.UserData.(*[16]byte)
	for i := range dst {
		if pattern == nil || !voice.Active() {
			dst[i] = 0
			continue
		}
		step := int32(voice.Phase * 128)
		if step < 0 {
			step = 0
		}
		if step > 127 {
			step = 127
		}
		mask := byte(1 << uint(7-(step&7)))
		if pattern[step>>3]&mask != 0 {
			dst[i] = amplitude
		} else {
			dst[i] = -amplitude
		}
		voice.Phase = float32(math.Mod(float64(voice.Phase+voice.Step), 1.0))
	}
}

// ByteStreamState is the MegaChip PCM cursor carried in Voice.UserData:
// a reader over guest memory plus loop/length bookkeeping.
type ByteStreamState struct {
	Read    func(addr uint32) byte
	Start   uint32
	Length  uint32
	Pos     float64
	Looping bool
	Enabled bool
}

// ByteStreamWave renders a MegaChip signed-8-in-128-offset PCM sample
// track, disabling itself at end-of-track unless Looping is set.
func ByteStreamWave(dst []float32, voice *Voice, stream *Stream, amplitude float32) {
	st, _ := voice.UserData.(*ByteStreamState)
	for i := range dst {
		if st == nil || !st.Enabled || st.Read == nil {
			dst[i] = 0
			continue
		}

		sample := st.Read(st.Start + uint32(st.Pos))
		next := st.Pos + float64(voice.Step)

		if next >= float64(st.Length) {
			if st.Looping {
				next -= float64(st.Length)
			} else {
				next = 0
				sample = 128
				st.Length = 0
				st.Enabled = false
			}
		}
		st.Pos = next

		dst[i] = (float32(sample) - 128) / 128 * amplitude
	}
}

// Mix renders src through gen into dst, applying the stream's own gain and
// mute, then the process-wide gain and mute.
func Mix(dst []float32, gen Generator, voice *Voice, stream *Stream, amplitude float32) {
	gen(dst, voice, stream, amplitude)

	gain := stream.Gain() * GlobalGain()
	if stream.Muted() || IsMuted() {
		gain = 0
	}

	for i := range dst {
		dst[i] *= gain
	}
}

// global gain/mute mirrors the host's single process-wide audio gate,
// independent of any per-Stream gain above.
var (
	globalGain atomic.Uint32
	globalMute atomic.Bool
)

func init() {
	SetGlobalGain(0.75)
}

// GlobalGain returns the process-wide gain multiplier.
func GlobalGain() float32 {
	return math.Float32frombits(globalGain.Load())
}

// SetGlobalGain clamps gain to [0, 1] and stores it.
func SetGlobalGain(gain float32) {
	if gain < 0 {
		gain = 0
	}
	if gain > 1 {
		gain = 1
	}
	globalGain.Store(math.Float32bits(gain))
}

// AddGlobalGain adds delta to the current global gain, clamping as SetGlobalGain does.
func AddGlobalGain(delta float32) {
	SetGlobalGain(GlobalGain() + delta)
}

// IsMuted reports the process-wide mute flag.
func IsMuted() bool { return globalMute.Load() }

// SetMuted sets the process-wide mute flag.
func SetMuted(state bool) { globalMute.Store(state) }

// ToggleMuted preserves the host's no-op toggle: it stores the current
// mute state back onto itself rather than flipping it.
func ToggleMuted() { globalMute.Store(IsMuted()) }
