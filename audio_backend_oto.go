//go:build !headless

// audio_backend_oto.go - oto/v3-backed audio output.

package main

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// FrameSource fills a buffer of unipolar-mixed mono float32 samples,
// advancing whatever drives it (a Replayer's tick loop, or a Z80 machine
// in driver-faithful mode) by exactly len(out) samples' worth of time.
type FrameSource interface {
	FillSamples(out []float32)
}

const clipHoldMillis = 400

// AudioOutput negotiates a playable oto format, pulls samples from a
// FrameSource on every device callback, and tracks a decaying peak meter
// plus a sticky clip flag for the tool's level display.
type AudioOutput struct {
	ctx    *oto.Context
	player *oto.Player

	source    atomic.Pointer[FrameSource]
	sampleBuf []float32
	channels  int
	useInt16  bool

	mu           sync.Mutex
	started      bool
	peak         float64
	clipHoldLeft int
	sampleRate   int
}

// NewAudioOutput negotiates a device format at sampleRate Hz, preferring
// mono float32 and falling back to stereo/int16 combinations the host
// platform's oto backend is more likely to support.
func NewAudioOutput(sampleRate int) (*AudioOutput, error) {
	attempts := []struct {
		channels int
		format   oto.Format
		useInt16 bool
	}{
		{1, oto.FormatFloat32LE, false},
		{2, oto.FormatFloat32LE, false},
		{1, oto.FormatSignedInt16LE, true},
		{2, oto.FormatSignedInt16LE, true},
	}

	ao := &AudioOutput{sampleRate: sampleRate}

	var lastErr error
	for _, a := range attempts {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: a.channels,
			Format:       a.format,
			BufferSize:   0,
		})
		if err != nil {
			lastErr = err
			continue
		}
		<-ready
		ao.ctx = ctx
		ao.channels = a.channels
		ao.useInt16 = a.useInt16
		ao.player = ctx.NewPlayer(ao)
		return ao, nil
	}
	return nil, lastErr
}

// SetSource swaps the active FrameSource; safe to call while playing.
func (ao *AudioOutput) SetSource(src FrameSource) {
	ao.source.Store(&src)
}

// Start begins pulling samples from the current source.
func (ao *AudioOutput) Start() {
	ao.mu.Lock()
	ao.started = true
	ao.mu.Unlock()
	ao.player.Play()
}

func (ao *AudioOutput) Stop() {
	ao.mu.Lock()
	ao.started = false
	ao.mu.Unlock()
	ao.player.Pause()
}

func (ao *AudioOutput) Close() {
	ao.Stop()
	if ao.player != nil {
		ao.player.Close()
	}
}

func (ao *AudioOutput) IsStarted() bool {
	ao.mu.Lock()
	defer ao.mu.Unlock()
	return ao.started
}

// PeakLevel returns the exponentially-decayed peak magnitude (0..1) and
// whether a clip has been observed within the last clipHoldMillis.
func (ao *AudioOutput) PeakLevel() (level float64, clipping bool) {
	ao.mu.Lock()
	defer ao.mu.Unlock()
	return ao.peak, ao.clipHoldLeft > 0
}

// Read implements io.Reader for oto's pull-based player: it IS the
// playback worker. Each call computes the mono frame count from len(p),
// asks the current FrameSource to fill that many samples, updates the
// meter, and writes the negotiated wire format into p.
func (ao *AudioOutput) Read(p []byte) (n int, err error) {
	bytesPerSample := 4
	if ao.useInt16 {
		bytesPerSample = 2
	}
	frameBytes := bytesPerSample * ao.channels
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}

	if cap(ao.sampleBuf) < frames {
		ao.sampleBuf = make([]float32, frames)
	}
	mono := ao.sampleBuf[:frames]

	srcPtr := ao.source.Load()
	if srcPtr == nil || *srcPtr == nil {
		for i := range mono {
			mono[i] = 0
		}
	} else {
		(*srcPtr).FillSamples(mono)
	}

	ao.updateMeter(mono)
	ao.encode(mono, p[:frames*frameBytes])
	return frames * frameBytes, nil
}

func (ao *AudioOutput) updateMeter(mono []float32) {
	ao.mu.Lock()
	defer ao.mu.Unlock()
	for _, s := range mono {
		a := float64(s)
		if a < 0 {
			a = -a
		}
		if a > ao.peak {
			ao.peak = a
		} else {
			ao.peak *= 0.92
		}
		if a >= 1.0 {
			ao.clipHoldLeft = ao.sampleRate * clipHoldMillis / 1000
		}
	}
	if ao.clipHoldLeft > 0 {
		ao.clipHoldLeft -= len(mono)
		if ao.clipHoldLeft < 0 {
			ao.clipHoldLeft = 0
		}
	}
}

func (ao *AudioOutput) encode(mono []float32, out []byte) {
	for i, s := range mono {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		if ao.useInt16 {
			v := int16(s * 32767)
			for ch := 0; ch < ao.channels; ch++ {
				off := (i*ao.channels + ch) * 2
				out[off] = byte(v)
				out[off+1] = byte(v >> 8)
			}
		} else {
			for ch := 0; ch < ao.channels; ch++ {
				off := (i*ao.channels + ch) * 4
				*(*float32)(unsafe.Pointer(&out[off])) = s
			}
		}
	}
}
