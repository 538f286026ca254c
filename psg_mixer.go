// psg_mixer.go - two-chip T6W28-style PSG mixer.
//
// A T6W28 is two SN76489-family chips sharing one sample clock: one chip's
// three tone generators drive the left/mono tone channels, the other chip's
// noise generator drives the percussion channel. Register layout and the
// latch/data write protocol follow the classic SN76489 convention.

package main

import (
	"math"
	"sync"
)

// psgVolumeTable is the standard ~2dB-per-step attenuation curve: index 0
// is full volume, index 15 is silence.
var psgVolumeTable = buildPSGVolumeTable()

func buildPSGVolumeTable() [16]float32 {
	var t [16]float32
	for i := 0; i < 15; i++ {
		t[i] = float32(math.Pow(10, -2.0*float64(i)/20.0))
	}
	t[15] = 0
	return t
}

// psgToneChannel holds the state of one of the three tone generators.
type psgToneChannel struct {
	divider   uint16
	counter   int32
	output    int8 // +1 or -1
	attn      uint8
}

// psgNoiseChannel holds the single noise generator's state.
type psgNoiseChannel struct {
	control uint8 // {rate:2, type:1} as written via the latch
	counter int32
	shift   uint16
	attn    uint8
}

const (
	lfsrWhiteTaps   = 0x0009 // bits 0 and 3, matches the SN76489 white-noise tap pair
	lfsrPeriodicTap = 0x0001
	lfsrSeed        = 0x8000
)

// PSGMixer combines a tone chip and a noise chip into the single T6W28
// voice the rest of the engine programs through four logical channels:
// CHAN_TONE0..2 and CHAN_NOISE.
type PSGMixer struct {
	mu sync.Mutex

	tone  [3]psgToneChannel
	noise psgNoiseChannel

	toneLatched  int // last latched tone channel (0..2), or -1
	noiseLatched bool

	sampleRate     int
	clockPerSample float64
	clockAccum     float64
}

// NewPSGMixer constructs a mixer rendering at sampleRate Hz.
func NewPSGMixer(sampleRate int) *PSGMixer {
	m := &PSGMixer{
		sampleRate:     sampleRate,
		clockPerSample: float64(PSG_CLOCK_HZ) / 16 / float64(sampleRate),
		toneLatched:    -1,
	}
	m.Reset()
	return m
}

// Reset returns every channel to its power-on state: silent, divider 1,
// noise control 0 (periodic noise at the highest rate) with the LFSR
// reseeded.
func (m *PSGMixer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tone {
		m.tone[i] = psgToneChannel{divider: 1, output: 1, attn: ATTN_MAX}
	}
	m.noise = psgNoiseChannel{attn: ATTN_MAX, shift: lfsrSeed}
	m.toneLatched = -1
	m.noiseLatched = false
	m.clockAccum = 0
}

// WriteTone applies one SN76489-protocol byte to the tone chip: a latch
// byte (bit7 set) selects channel+register, a data byte updates it.
func (m *PSGMixer) WriteTone(value byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeChip(value, false)
}

// WriteNoise applies one SN76489-protocol byte to the noise chip.
func (m *PSGMixer) WriteNoise(value byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeChip(value, true)
}

func (m *PSGMixer) writeChip(value byte, noiseChip bool) {
	if value&0x80 != 0 {
		channel := int((value >> 5) & 0x03)
		isVolume := value&0x10 != 0
		data := value & 0x0F
		if noiseChip {
			m.noiseLatched = true
			if isVolume {
				m.noise.attn = data
			} else {
				m.noise.control = data & 0x07
				m.resetNoiseShift()
			}
			return
		}
		if channel > 2 {
			// Tone chip's own noise register is unused; T6W28 routes noise
			// through the dedicated noise chip instead.
			m.toneLatched = -1
			return
		}
		m.toneLatched = channel
		if isVolume {
			m.tone[channel].attn = data
		} else {
			m.tone[channel].divider = (m.tone[channel].divider & 0x3F0) | uint16(data)
		}
		return
	}

	data := value & 0x3F
	if noiseChip {
		if !m.noiseLatched {
			return
		}
		// Noise chip only has a volume/control register on T6W28; a data
		// byte following a latch refines the low 6 bits but those channels
		// carry no tone divider, so this is a no-op beyond protocol shape.
		return
	}
	if m.toneLatched < 0 {
		return
	}
	ch := &m.tone[m.toneLatched]
	ch.divider = (ch.divider & 0x000F) | (uint16(data) << 4)
}

func (m *PSGMixer) resetNoiseShift() {
	m.noise.shift = lfsrSeed
}

// tick advances every generator by one step of the chip's internal clock
// (PSG_CLOCK_HZ / 16), so a tone of divider d flips every d steps.
func (m *PSGMixer) tick() {
	for i := range m.tone {
		ch := &m.tone[i]
		ch.counter--
		if ch.counter <= 0 {
			d := int32(ch.divider)
			if d < 1 {
				d = 1
			}
			ch.counter = d
			ch.output = -ch.output
		}
	}

	rate := m.noise.control & 0x03
	var divider int32
	if rate == NOISE_RATE_TONE2 {
		// Rate level 3 slaves the noise clock to tone channel 2's divider,
		// the one piece of cross-chip coupling a T6W28 actually needs.
		divider = int32(m.tone[CHAN_TONE2].divider)
		if divider < 1 {
			divider = 1
		}
	} else {
		divider = int32(16) << rate
	}
	m.noise.counter--
	if m.noise.counter <= 0 {
		m.noise.counter = divider
		white := m.noise.control&0x04 != 0
		var feedbackBit uint16
		if white {
			feedbackBit = uint16(bits1(m.noise.shift & lfsrWhiteTaps) & 1)
		} else {
			feedbackBit = m.noise.shift & lfsrPeriodicTap
		}
		m.noise.shift = (m.noise.shift >> 1) | (feedbackBit << 14)
	}
}

func bits1(v uint16) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}

// RenderSamples fills out with n unipolar-mixed float32 frames.
func (m *PSGMixer) RenderSamples(out []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range out {
		out[i] = m.renderOneLocked()
	}
}

func (m *PSGMixer) renderOneLocked() float32 {
	m.clockAccum += m.clockPerSample
	for m.clockAccum >= 1 {
		m.tick()
		m.clockAccum--
	}

	var sum float32
	for i := range m.tone {
		ch := &m.tone[i]
		v := psgVolumeTable[ch.attn]
		if ch.output < 0 {
			v = -v
		}
		sum += v
	}
	noiseOut := float32(m.noise.shift & 1)
	if noiseOut > 0 {
		sum += psgVolumeTable[m.noise.attn]
	} else {
		sum -= psgVolumeTable[m.noise.attn]
	}
	return sum / 4
}

// PeakAttenuations reports the current 4-bit attenuation of each channel in
// CHAN_TONE0..CHAN_NOISE order.
func (m *PSGMixer) PeakAttenuations() [4]uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return [4]uint8{m.tone[0].attn, m.tone[1].attn, m.tone[2].attn, m.noise.attn}
}
