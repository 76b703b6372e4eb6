// Package harness implements the host/worker split every core runs under:
// one goroutine drives the VM via MainSystemLoop while the host thread
// polls overlay text and global state, ported from the host's
// SystemsInterface worker-thread/cancellation-token design onto
// context.CancelFunc + sync.WaitGroup.
package harness

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
)

// GlobalState is the bitmask published for host consumption between
// frames: window visibility, pause, and terminal conditions.
type GlobalState uint32

const (
	Normal GlobalState = 0
	Hidden GlobalState = 1 << 0
	Paused GlobalState = 1 << 1
	Halted GlobalState = 1 << 2
	Fatal  GlobalState = 1 << 3
	Bench  GlobalState = 1 << 4

	// NotRunning is the mask the instruction loop must not advance VM state
	// under.
	NotRunning = Hidden | Paused | Halted | Fatal
)

// KeySource is the thread-safe host keyboard the worker polls once per
// frame.
type KeySource interface {
	IsPressed(scancode int) bool
	UpdateStates()
}

// DisplaySink receives one rendered video frame per tick.
type DisplaySink interface {
	Write(source any, transform func(index uint8) uint32)
	WriteBlend(source, dest any, blend func(src, dst uint32) uint32)
	SetBorderColor(rgba uint32)
	SetViewportSizes(w, h, upscaleMultiplier, padding int)
	SetViewportAlpha(alpha uint8)
}

// AudioSink receives rendered audio per tick, one stream per voice class.
type AudioSink interface {
	AddAudioStream(key string, sampleRate, channels int) bool
	Pause(key string)
	Resume(key string)
	SetGain(key string, gain float32)
	AddGain(key string, delta float32)
	PushRawAudio(key string, samples []float32)
	NextBufferSize(key string, frameHz float64) int
}

// System is the per-core hook a harness drives: the variant-specific
// canonical frame body, and the overlay text it wants published.
type System interface {
	MainSystemLoop()
	MakeOverlayData() string
}

// Harness owns the worker goroutine lifecycle, the atomic global-state
// bitmask, target FPS, elapsed-cycles counter and the overlay string
// hand-off.
type Harness struct {
	system System

	state      atomic.Uint32
	targetFPS  atomic.Uint32 // float32 bits
	elapsed    atomic.Uint64

	overlay atomic.Pointer[string]

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex // guards start/stop against concurrent calls
}

// New returns a Harness driving system. The worker is not started yet.
func New(system System) *Harness {
	h := &Harness{system: system}
	empty := ""
	h.overlay.Store(&empty)
	return h
}

// StartWorker spawns the worker goroutine if none is running.
func (h *Harness) StartWorker() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel

	h.wg.Add(1)
	go h.threadEntry(ctx)
}

// StopWorker requests cancellation and joins the worker, synchronously.
func (h *Harness) StopWorker() {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	h.wg.Wait()
}

func (h *Harness) threadEntry(ctx context.Context) {
	defer h.wg.Done()
	for ctx.Err() == nil {
		h.system.MainSystemLoop()
	}
}

// AddState ORs state into the global-state bitmask.
func (h *Harness) AddState(state GlobalState) { h.rmw(func(cur uint32) uint32 { return cur | uint32(state) }) }

// SubState ANDs out state from the global-state bitmask.
func (h *Harness) SubState(state GlobalState) { h.rmw(func(cur uint32) uint32 { return cur &^ uint32(state) }) }

// XorState XORs state into the global-state bitmask.
func (h *Harness) XorState(state GlobalState) { h.rmw(func(cur uint32) uint32 { return cur ^ uint32(state) }) }

// rmw performs a lock-free read-modify-write on the global state via CAS.
func (h *Harness) rmw(f func(uint32) uint32) {
	for {
		cur := h.state.Load()
		next := f(cur)
		if h.state.CompareAndSwap(cur, next) {
			return
		}
	}
}

// SetState replaces the global-state bitmask outright.
func (h *Harness) SetState(state GlobalState) { h.state.Store(uint32(state)) }

// GetState returns the current global-state bitmask.
func (h *Harness) GetState() GlobalState { return GlobalState(h.state.Load()) }

// IsRunning reports whether none of the NotRunning bits are set.
func (h *Harness) IsRunning() bool { return h.GetState()&NotRunning == 0 }

// SetFramerate stores the target FPS the pacer should run at.
func (h *Harness) SetFramerate(fps float32) {
	h.targetFPS.Store(math.Float32bits(fps))
}

// Framerate returns the target FPS.
func (h *Harness) Framerate() float32 {
	return math.Float32frombits(h.targetFPS.Load())
}

// AddElapsedCycles adds n to the running cycle counter.
func (h *Harness) AddElapsedCycles(n uint64) { h.elapsed.Add(n) }

// ElapsedCycles returns the running cycle counter.
func (h *Harness) ElapsedCycles() uint64 { return h.elapsed.Load() }

// PushOverlayData asks the system for fresh overlay text and publishes it.
// The host-visible convention (every other validated frame) lives in the
// caller's pacer-driven loop, not here.
func (h *Harness) PushOverlayData() {
	text := h.system.MakeOverlayData()
	h.overlay.Store(&text)
}

// CopyOverlayData returns the most recently published overlay string.
// Thread-safe, non-blocking.
func (h *Harness) CopyOverlayData() string {
	return *h.overlay.Load()
}
