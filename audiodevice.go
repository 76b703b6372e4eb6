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
	"encoding/binary"
	"math"
	"sync"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/coornio/cubechip-go/internal/applog"
)

// sdlAudioDevice implements harness.AudioSink over one SDL audio device
// per stream key, pushed with sdl.QueueAudio rather than pulled through a
// callback. Ported from the cgo Tone() callback in the teacher's main.go,
// replaced with the push-based OpenAudioDevice/QueueAudio idiom every
// other pack repository that touches go-sdl2 audio actually uses, which
// avoids the cgo export entirely.
type sdlAudioDevice struct {
	mu      sync.Mutex
	devices map[string]sdl.AudioDeviceID
	specs   map[string]sdl.AudioSpec
}

func newSDLAudioDevice() *sdlAudioDevice {
	return &sdlAudioDevice{
		devices: make(map[string]sdl.AudioDeviceID),
		specs:   make(map[string]sdl.AudioSpec),
	}
}

func (a *sdlAudioDevice) AddAudioStream(key string, sampleRate, channels int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.devices[key]; ok {
		return true
	}

	desired := &sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_F32SYS,
		Channels: uint8(channels),
		Samples:  1024,
	}
	obtained := &sdl.AudioSpec{}

	dev, err := sdl.OpenAudioDevice("", false, desired, obtained, sdl.AUDIO_ALLOW_FORMAT_CHANGE)
	if err != nil {
		applog.Errorf("audio: failed to open device for stream %q: %v", key, err)
		return false
	}

	sdl.PauseAudioDevice(dev, false)
	a.devices[key] = dev
	a.specs[key] = *obtained
	return true
}

func (a *sdlAudioDevice) Pause(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if dev, ok := a.devices[key]; ok {
		sdl.PauseAudioDevice(dev, true)
	}
}

func (a *sdlAudioDevice) Resume(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if dev, ok := a.devices[key]; ok {
		sdl.PauseAudioDevice(dev, false)
	}
}

// SetGain and AddGain are no-ops on the device itself: per-stream gain is
// already baked into the samples by internal/audio.Mix before they reach
// PushRawAudio. Kept to satisfy harness.AudioSink for callers that expect
// a device-level knob independent of the mixer.
func (a *sdlAudioDevice) SetGain(key string, gain float32) {}
func (a *sdlAudioDevice) AddGain(key string, delta float32) {}

// PushRawAudio queues already-mixed float32 samples onto key's device.
func (a *sdlAudioDevice) PushRawAudio(key string, samples []float32) {
	a.mu.Lock()
	dev, ok := a.devices[key]
	a.mu.Unlock()
	if !ok || len(samples) == 0 {
		return
	}

	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	if err := sdl.QueueAudio(dev, buf); err != nil {
		applog.Warnf("audio: QueueAudio(%q): %v", key, err)
	}
}

// NextBufferSize returns how many samples a tick at frameHz should
// produce for key's obtained sample rate.
func (a *sdlAudioDevice) NextBufferSize(key string, frameHz float64) int {
	a.mu.Lock()
	spec, ok := a.specs[key]
	a.mu.Unlock()
	if !ok || frameHz <= 0 {
		return 0
	}
	return int(float64(spec.Freq) / frameHz)
}

// Close stops and closes every opened device, e.g. on program exit.
func (a *sdlAudioDevice) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key, dev := range a.devices {
		sdl.CloseAudioDevice(dev)
		delete(a.devices, key)
		delete(a.specs, key)
	}
}
