// instrument.go - instrument/voice parameter definitions.
//
// An instrument is a bundle of envelope, curve and modulation parameters
// that voice.go evaluates once per tick. Everything here is pure data;
// the per-tick math lives in voice.go.

package main

// EnvelopeCurve selects the legacy (non-ADSR) envelope's shaping.
// CurveNone adds a literal step per tick-group; the others index
// FactoryEnvelopeCurves, an ordered table of signed deltas applied
// cumulatively to the instrument's base attenuation.
type EnvelopeCurve int

const (
	CurveNone EnvelopeCurve = iota
	CurveExponential
	CurveLogarithmic
	CurveSine
	CurveEaseIn
	CurveEaseOut
)

// PitchCurve names a pitch-envelope shape: an ordered table of signed
// divider deltas (FactoryPitchCurves) stepped through over the note's
// life, independently of the amplitude envelope.
type PitchCurve int

const (
	PitchCurveNone PitchCurve = iota
	PitchCurveFallOff
	PitchCurveRiseIn
	PitchCurvePluck
	PitchCurveSiren
	PitchCurveWobble
	PitchCurveSlideUp
	PitchCurveSlideDown
	PitchCurveVibratoSweep
	PitchCurveNoise
)

// LFOWaveform selects one LFO's output shape.
type LFOWaveform int

const (
	LFOTriangle LFOWaveform = iota
	LFOSquare
	LFOSaw
	LFOSweepUp
	LFOSweepDown
)

// LFOParams configures one of the two per-voice LFOs. Both the pitch and
// attenuation contributions are derived from the same raw delta by the
// mix algorithm (mixLFO), not from separate per-destination amounts.
type LFOParams struct {
	Waveform  LFOWaveform `json:"waveform"`
	RateTicks int         `json:"rate_ticks"` // ticks between steps
	Depth     int         `json:"depth"`      // 0..255, raw delta peak
	HoldTicks int         `json:"hold_ticks"` // ticks before modulation begins
}

// MacroStep is one entry of a macro: it holds for Frames ticks, then
// advances. A step with Frames == 0 terminates the macro immediately.
type MacroStep struct {
	Frames     int `json:"frames"`      // 0..255
	AttnDelta  int `json:"attn_delta"`  // applied only when ADSR is off
	PitchDelta int `json:"pitch_delta"` // signed divider delta
}

// Macro is a named, ordered sequence of steps.
type Macro struct {
	Name  string      `json:"name"`
	Steps []MacroStep `json:"steps"`
}

// BgmInstrumentDef is the full set of parameters one named instrument
// carries; instrument_bank.go stores these keyed by name.
type BgmInstrumentDef struct {
	BaseAttn uint8 `json:"base_attn"` // 0..15: attn at note-on, and the ADSR attack target

	UseADSR            bool  `json:"use_adsr"`
	AttackTicks        int   `json:"attack_ticks"`          // ticks per attn step during Attack
	DecayTicks         int   `json:"decay_ticks"`           // ticks per attn step during Decay
	SustainLevel       uint8 `json:"sustain_level"`         // 0..15
	SustainRatePerTick int   `json:"sustain_rate_per_tick"` // 0 = flat sustain; >0 drifts toward silence
	ReleaseTicks       int   `json:"release_ticks"`         // ticks per attn step during Release

	LegacyEnvOn    bool          `json:"legacy_env_on"`
	LegacyEnvStep  int           `json:"legacy_env_step"`  // 0..4, used when LegacyEnvCurve == CurveNone
	LegacyEnvSpeed int           `json:"legacy_env_speed"` // ticks per step, 1..10; also the pitch curve's rate
	LegacyEnvCurve EnvelopeCurve `json:"legacy_env_curve"`

	PitchCurveID PitchCurve `json:"pitch_curve"`

	SweepEnabled       bool `json:"sweep_enabled"`
	SweepStepsPerTick  int  `json:"sweep_steps_per_tick"`  // signed divider delta per step
	SweepSpeed         int  `json:"sweep_speed"`           // ticks between steps, min 1
	SweepTargetDivider int  `json:"sweep_target_divider"` // 0 = unbounded; else sweep_on clears on arrival

	VibratoEnabled    bool `json:"vibrato_enabled"`
	VibratoDepth      int  `json:"vibrato_depth"` // divider units
	VibratoSpeed      int  `json:"vibrato_speed"` // ticks between direction flips
	VibratoDelayTicks int  `json:"vibrato_delay_ticks"`

	LFOEnabled bool      `json:"lfo_enabled"`
	LFO1       LFOParams `json:"lfo1"`
	LFO2       LFOParams `json:"lfo2"`
	LFOMixAlgo int       `json:"lfo_mix_algo"` // 0..7, see mixLFO

	MacroName string `json:"macro_name"` // empty = none

	NoiseConfig int `json:"noise_config"` // 0..7, default noise rate/type when not driven by note byte

	GatePercent int `json:"gate_percent"` // 0..100; 1..99 releases the note early within its duration, 0 and 100 hold it
}

// Clamp limits the ADSR timings, sustain level, base attenuation, noise
// config and gate percent to their ranges in place; the other fields are
// kept as given.
func (d *BgmInstrumentDef) Clamp() {
	d.AttackTicks = clampInt(d.AttackTicks, 0, 600)
	d.DecayTicks = clampInt(d.DecayTicks, 0, 600)
	d.ReleaseTicks = clampInt(d.ReleaseTicks, 0, 600)
	d.SustainLevel = clampU8(d.SustainLevel, ATTN_MIN, ATTN_MAX)
	d.BaseAttn = clampU8(d.BaseAttn, ATTN_MIN, ATTN_MAX)
	d.NoiseConfig = clampInt(d.NoiseConfig, 0, 7)
	if d.GatePercent < 0 {
		d.GatePercent = 0
	}
	if d.GatePercent > 100 {
		d.GatePercent = 100
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampU8(v uint8, lo, hi uint8) uint8 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Equal reports whether two defs are deeply identical, used by the bank's
// dedup-on-import logic.
func (d BgmInstrumentDef) Equal(o BgmInstrumentDef) bool {
	d.Clamp()
	o.Clamp()
	return d == o
}
