// Package pacer implements the frame limiter the harness blocks on between
// ticks: given a target framerate it decides when enough wall-clock time
// has elapsed for the next frame, and exposes the elapsed-time/frame-count
// accessors the overlay text is built from.
package pacer

import "time"

// Pacer measures elapsed time between validated frames at a target rate.
type Pacer struct {
	frameSpan    time.Duration
	lastTick     time.Time
	lastElapsed  time.Duration
	validFrames  uint64
}

// New returns a Pacer targeting fps frames per second. fps <= 0 disables
// pacing: Ready always reports true. The tick marker starts one frame span
// in the past, so the first CheckTime succeeds at once.
func New(fps float32) *Pacer {
	p := &Pacer{}
	p.SetLimiter(fps)
	p.lastTick = time.Now().Add(-p.frameSpan)
	return p
}

// SetLimiter changes the target framerate. A non-positive value disables
// pacing (Ready always true).
func (p *Pacer) SetLimiter(fps float32) {
	if fps <= 0 {
		p.frameSpan = 0
		return
	}
	p.frameSpan = time.Duration(float64(time.Second) / float64(fps))
}

// Ready reports whether enough time has elapsed since the last validated
// frame to start a new one. It does not itself advance state; call
// CheckTime from the harness's main loop instead, which both checks and
// advances on success.
func (p *Pacer) Ready() bool {
	if p.frameSpan == 0 {
		return true
	}
	return time.Since(p.lastTick) >= p.frameSpan
}

// CheckTime is Ready plus the bookkeeping a successful check performs: it
// records the elapsed time since the previous validated frame, advances
// the tick marker, and increments the validated-frame counter. Returns
// false (with no side effects) when the frame isn't due yet.
func (p *Pacer) CheckTime() bool {
	if !p.Ready() {
		return false
	}

	now := time.Now()
	p.lastElapsed = now.Sub(p.lastTick)
	p.lastTick = now
	p.validFrames++
	return true
}

// ValidFrameCounter returns how many frames CheckTime has validated so far.
func (p *Pacer) ValidFrameCounter() uint64 { return p.validFrames }

// ElapsedMicrosSince returns microseconds elapsed since the last validated
// frame's tick marker (a live measurement, not the recorded delta).
func (p *Pacer) ElapsedMicrosSince() int64 {
	return time.Since(p.lastTick).Microseconds()
}

// ElapsedMillisLast returns the recorded inter-frame delta, in
// milliseconds, from the most recent successful CheckTime.
func (p *Pacer) ElapsedMillisLast() float32 {
	return float32(p.lastElapsed.Microseconds()) / 1000.0
}

// Framespan returns the configured target frame period, in milliseconds.
// Zero when pacing is disabled.
func (p *Pacer) Framespan() float32 {
	return float32(p.frameSpan.Microseconds()) / 1000.0
}
