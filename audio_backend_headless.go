//go:build headless

// audio_backend_headless.go - no-op audio output for headless rendering
// (offline export / CI), matching AudioOutput's public surface.

package main

import "sync/atomic"

type FrameSource interface {
	FillSamples(out []float32)
}

type AudioOutput struct {
	source  atomic.Pointer[FrameSource]
	started bool
}

func NewAudioOutput(sampleRate int) (*AudioOutput, error) {
	return &AudioOutput{}, nil
}

func (ao *AudioOutput) SetSource(src FrameSource) {
	ao.source.Store(&src)
}

func (ao *AudioOutput) Start() {
	ao.started = true
}

func (ao *AudioOutput) Stop() {
	ao.started = false
}

func (ao *AudioOutput) Close() {
	ao.started = false
}

func (ao *AudioOutput) IsStarted() bool {
	return ao.started
}

func (ao *AudioOutput) PeakLevel() (level float64, clipping bool) {
	return 0, false
}
