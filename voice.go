// voice.go - per-channel instrument playback state machine.
//
// Evaluation order each tick (fixed, §4.6): macro -> pitch curve -> envelope
// (ADSR or legacy decay) -> sweep -> vibrato -> dual LFO -> clamp -> write
// to the PSG channel. Everything here operates in raw integer divider and
// attenuation-unit space; there is no semitone or floating-point conversion
// anywhere in the pipeline.

package main

type adsrPhase int

const (
	adsrIdle adsrPhase = iota
	adsrAttack
	adsrDecay
	adsrSustain
	adsrRelease
)

// lfoState is one LFO's running output plus its own hold/rate counters.
type lfoState struct {
	hold  int
	rate  int
	delta int
	dir   int
}

// Voice owns one PSG channel's (tone 0..2, or noise) playback state for a
// single active note.
type Voice struct {
	channel int // CHAN_TONE0..CHAN_NOISE
	isNoise bool

	inst BgmInstrumentDef

	active       bool
	baseNote     int
	baseDivider  int
	currentDivider int
	noiseControl byte

	tick int // ticks since note-on

	phase        adsrPhase
	phaseCounter int
	currentAttn  int // 0..15

	legacyCounter int
	legacyIndex   int

	pitchCounter int
	pitchIndex   int
	pitchOffset  int

	macroActive       bool
	macroIndex        int
	macroFrameCounter int
	macroPitch        int

	sweepCounter int

	vibDelayCounter int
	vibCounter      int
	vibDir          int

	lfo1st lfoState
	lfo2st lfoState

	expression int // 0..15, additive
	pitchBend  int // signed divider offset

	lastDivider uint16
	lastAttn    uint8
	lastNoise   byte
}

// NewVoice constructs an idle voice bound to a fixed PSG channel.
func NewVoice(channel int) *Voice {
	return &Voice{channel: channel, isNoise: channel == CHAN_NOISE}
}

// NoteOn starts a new note: note is a 1-based index into the note table
// for tone channels, or a noise control byte (1-based, per §4.7) for the
// noise channel.
func (v *Voice) NoteOn(inst BgmInstrumentDef, note int, nt *NoteTable) {
	v.inst = inst
	v.active = true
	v.tick = 0
	v.baseNote = note
	v.expression = 0
	v.pitchBend = 0

	if v.isNoise {
		v.noiseControl = byte((note - 1) & 0x07)
	} else if nt != nil {
		d, err := nt.Divider(note)
		if err == nil {
			v.baseDivider = int(d)
		}
	}
	v.currentDivider = v.baseDivider

	v.pitchCounter = 0
	v.pitchIndex = 0
	v.pitchOffset = 0
	if table, ok := FactoryPitchCurves[inst.PitchCurveID]; ok && len(table) > 0 {
		v.pitchOffset = table[0]
	}

	v.sweepCounter = clampInt(inst.SweepSpeed, 1, 30)

	v.vibDelayCounter = inst.VibratoDelayTicks
	v.vibCounter = clampInt(inst.VibratoSpeed, 1, 30)
	v.vibDir = 0

	v.lfo1st = lfoState{hold: inst.LFO1.HoldTicks, dir: 1}
	v.lfo2st = lfoState{hold: inst.LFO2.HoldTicks, dir: 1}

	v.legacyCounter = 0
	v.legacyIndex = 0

	v.seedMacro()

	if inst.UseADSR {
		v.phase = adsrAttack
		v.phaseCounter = 0
		v.currentAttn = int(ATTN_MAX)
	} else {
		v.phase = adsrIdle
		v.currentAttn = int(inst.BaseAttn)
	}
}

// seedMacro sets step 0 active, or disables the macro immediately when its
// first step has frames == 0 (§8 boundary behavior).
func (v *Voice) seedMacro() {
	v.macroActive = false
	v.macroIndex = 0
	v.macroPitch = 0
	if v.inst.MacroName == "" {
		return
	}
	macro, ok := FactoryMacros[v.inst.MacroName]
	if !ok || len(macro.Steps) == 0 {
		return
	}
	if macro.Steps[0].Frames == 0 {
		return
	}
	v.macroActive = true
	v.macroFrameCounter = macro.Steps[0].Frames
}

// NoteOff begins the release phase (ADSR instruments with release > 0) or
// silences the voice immediately (legacy/plain instruments, or ADSR with
// release == 0).
func (v *Voice) NoteOff() {
	if !v.active {
		return
	}
	if v.inst.UseADSR {
		if v.inst.ReleaseTicks > 0 && v.phase != adsrRelease {
			v.phase = adsrRelease
			v.phaseCounter = 0
		} else {
			v.currentAttn = int(ATTN_MAX)
			v.phase = adsrIdle
			v.active = false
		}
		return
	}
	v.active = false
}

// SetExpression applies an additive 0..15 attenuation offset (the stream's
// SET_EXPR / HOST control-change analogue), combined at final-write time
// alongside lfo_attn_delta and the global fade.
func (v *Voice) SetExpression(e int) {
	v.expression = clampInt(e, 0, int(ATTN_MAX))
}

// SetPitchBend applies a raw signed divider offset, combined at
// final-write time with every other pitch contribution.
func (v *Voice) SetPitchBend(offset int) {
	v.pitchBend = offset
}

// ApplyInstrument swaps the voice's timbre parameters to a different bank
// entry without restarting the note (SET_INST), so an in-flight note can
// change instrument mid-flight; envelope/LFO/macro progress carries over.
func (v *Voice) ApplyInstrument(inst BgmInstrumentDef) {
	v.inst = inst
}

// SetAttn directly overrides the current attenuation (SET_ATTN), taking
// effect immediately rather than waiting for the next envelope tick.
func (v *Voice) SetAttn(attn int) {
	a := clampInt(attn, int(ATTN_MIN), int(ATTN_MAX))
	v.inst.BaseAttn = uint8(a)
	v.currentAttn = a
}

// SetLegacyEnv configures the legacy (non-ADSR) decay envelope: step is the
// attenuation distance per expiration and speed is ticks per step.
func (v *Voice) SetLegacyEnv(step, speed int) {
	v.inst.UseADSR = false
	v.inst.LegacyEnvOn = true
	v.inst.LegacyEnvStep = clampInt(step, 0, 4)
	v.inst.LegacyEnvSpeed = clampInt(speed, 1, 10)
	v.inst.LegacyEnvCurve = CurveNone
	v.legacyCounter = 0
	v.legacyIndex = 0
}

// SetVibrato configures vibrato depth (divider units), speed (ticks
// between direction flips) and onset delay in ticks.
func (v *Voice) SetVibrato(depth, speed, delay int) {
	speed = clampInt(speed, 1, 30)
	v.inst.VibratoEnabled = true
	v.inst.VibratoDepth = depth
	v.inst.VibratoSpeed = speed
	v.inst.VibratoDelayTicks = delay
	v.vibDelayCounter = delay
	v.vibCounter = speed
	v.vibDir = 0
}

// SetSweep configures a linear divider sweep toward endDivider at a signed
// per-step delta, gated by speed (ticks between steps).
func (v *Voice) SetSweep(endDivider int, step int, speed int) {
	speed = clampInt(speed, 1, 30)
	v.inst.SweepEnabled = true
	v.inst.SweepTargetDivider = clampInt(endDivider, 1, TONE_DIVIDER_MAX)
	v.inst.SweepStepsPerTick = step
	v.inst.SweepSpeed = speed
	v.sweepCounter = speed
}

// SetADSR enables a flat-sustain ADSR envelope (sustain_rate=0) and resets
// the voice into its attack phase, starting from silence per §4.6.
func (v *Voice) SetADSR(attack, decay, sustain, release int) {
	v.inst.UseADSR = true
	v.inst.LegacyEnvOn = false
	v.inst.AttackTicks = attack
	v.inst.DecayTicks = decay
	v.inst.SustainLevel = clampU8(uint8(clampInt(sustain, 0, 255)), ATTN_MIN, ATTN_MAX)
	v.inst.ReleaseTicks = release
	v.inst.SustainRatePerTick = 0
	v.phase = adsrAttack
	v.phaseCounter = 0
	v.currentAttn = int(ATTN_MAX)
}

// SetADSR5 enables ADSR with a drifting sustain (EXT ADSR5): while
// sustaining, attn rises by one unit every sustainRate+1 ticks, until the
// voice drifts to silence and goes idle on its own.
func (v *Voice) SetADSR5(attack, decay, sustainLevel, sustainRate, release int) {
	v.SetADSR(attack, decay, sustainLevel, release)
	v.inst.SustainRatePerTick = sustainRate
}

// SetLFOSingle enables LFO1 only (SET_LFO), clearing LFO2 and forcing
// mix algorithm 1.
func (v *Voice) SetLFOSingle(wave LFOWaveform, rate, depth int) {
	v.inst.LFOEnabled = true
	v.inst.LFOMixAlgo = 1
	v.inst.LFO1 = LFOParams{Waveform: wave, RateTicks: rate, Depth: depth}
	v.inst.LFO2 = LFOParams{}
	v.lfo1st = lfoState{hold: v.inst.LFO1.HoldTicks, dir: 1}
	v.lfo2st = lfoState{dir: 1}
}

// SetMOD2 configures both LFOs and the mix algorithm (EXT MOD2).
func (v *Voice) SetMOD2(algo int, lfo1, lfo2 LFOParams) {
	v.inst.LFOMixAlgo = algo
	v.inst.LFO1 = lfo1
	v.inst.LFO2 = lfo2
	v.inst.LFOEnabled = true
	v.lfo1st = lfoState{hold: lfo1.HoldTicks, dir: 1}
	v.lfo2st = lfoState{hold: lfo2.HoldTicks, dir: 1}
}

// SetEnvCurve changes the shaping curve used by the legacy envelope.
func (v *Voice) SetEnvCurve(id EnvelopeCurve) {
	v.inst.LegacyEnvCurve = id
	v.legacyIndex = 0
}

// SetPitchCurve changes the pitch-envelope shape applied on top of the
// note's base divider.
func (v *Voice) SetPitchCurve(id PitchCurve) {
	v.inst.PitchCurveID = id
	v.pitchIndex = 0
	v.pitchCounter = 0
	v.pitchOffset = 0
	if table, ok := FactoryPitchCurves[id]; ok && len(table) > 0 {
		v.pitchOffset = table[0]
	}
}

// SetMacro selects a named arpeggio/pitch macro, re-seeding it from step 0.
func (v *Voice) SetMacro(name string) {
	v.inst.MacroName = name
	v.seedMacro()
}

// IsActive reports whether the voice still has audible output pending.
func (v *Voice) IsActive() bool {
	return v.active
}

// Tick advances the voice by one tick and returns the PSG divider/noise
// control and attenuation that should be written this tick. globalFadeAttn
// is the replayer's HOST_CMD fade-out accumulator, folded into the single
// final clamp alongside the envelope, LFO and expression contributions.
func (v *Voice) Tick(globalFadeAttn int) (divider uint16, noiseControl byte, attn uint8, changed bool) {
	if !v.active {
		return 0, 0, 0, false
	}
	v.tick++

	v.tickMacro()
	v.tickPitchCurve()
	v.tickEnvelope()
	v.tickSweep()
	v.tickVibrato()
	lfoPitch, lfoAttn := v.tickLFOs()

	finalAttn := clampInt(v.currentAttn+lfoAttn+v.expression+globalFadeAttn, int(ATTN_MIN), int(ATTN_MAX))
	a := uint8(finalAttn)

	if v.isNoise {
		nc := v.noiseControl
		changed = nc != v.lastNoise || a != v.lastAttn || v.tick == 1
		v.lastNoise = nc
		v.lastAttn = a
		return 0, nc, a, changed
	}

	vibOffset := 0
	if v.inst.VibratoEnabled {
		vibOffset = v.inst.VibratoDepth * v.vibDir
	}
	rawDiv := v.currentDivider + v.macroPitch + v.pitchOffset + v.pitchBend + lfoPitch + vibOffset
	d := uint16(clampInt(rawDiv, TONE_DIVIDER_MIN, TONE_DIVIDER_MAX))

	changed = d != v.lastDivider || a != v.lastAttn || v.tick == 1
	v.lastDivider = d
	v.lastAttn = a
	return d, 0, a, changed
}

// tickMacro implements §4.6 step 1: on frame-counter expiration, advance to
// the next step (cycling) and, only when ADSR is off, shift current_attn by
// the step's attn_delta.
func (v *Voice) tickMacro() {
	if !v.macroActive {
		return
	}
	macro := FactoryMacros[v.inst.MacroName]
	v.macroFrameCounter--
	if v.macroFrameCounter > 0 {
		return
	}
	v.macroIndex = (v.macroIndex + 1) % len(macro.Steps)
	step := macro.Steps[v.macroIndex]
	v.macroPitch = step.PitchDelta
	if !v.inst.UseADSR {
		v.currentAttn = clampInt(v.currentAttn+step.AttnDelta, int(ATTN_MIN), int(ATTN_MAX))
	}
	v.macroFrameCounter = step.Frames
	if step.Frames == 0 {
		v.macroActive = false
	}
}

// tickPitchCurve implements §4.6 step 2, advancing at a rate of
// legacy_env_speed ticks per table entry, clamped at the last entry.
func (v *Voice) tickPitchCurve() {
	table, ok := FactoryPitchCurves[v.inst.PitchCurveID]
	if !ok || len(table) == 0 {
		return
	}
	rate := clampInt(v.inst.LegacyEnvSpeed, 1, 10)
	v.pitchCounter++
	if v.pitchCounter < rate {
		return
	}
	v.pitchCounter = 0
	if v.pitchIndex < len(table)-1 {
		v.pitchIndex++
	}
	v.pitchOffset = table[v.pitchIndex]
}

// tickEnvelope implements §4.6 step 3. A plain instrument (neither ADSR nor
// legacy envelope enabled) holds base_attn for the life of the note.
func (v *Voice) tickEnvelope() {
	switch {
	case v.inst.UseADSR:
		v.tickADSR()
	case v.inst.LegacyEnvOn:
		v.tickLegacyEnv()
	}
}

// tickADSR runs the ADSR sub-state-machine. Cadence is field_value+1 ticks
// per one-unit attn step; a field of exactly 0 means the phase completes
// instantly, cascading into the next phase within the same tick (so
// attack=0, decay=0 reaches Sustain in a single Tick call).
func (v *Voice) tickADSR() {
	inst := v.inst
	for i := 0; i < 4; i++ {
		switch v.phase {
		case adsrAttack:
			target := int(inst.BaseAttn)
			if v.currentAttn == target {
				v.phase = adsrDecay
				v.phaseCounter = 0
				continue
			}
			if inst.AttackTicks <= 0 {
				v.currentAttn = target
				v.phase = adsrDecay
				v.phaseCounter = 0
				continue
			}
			v.phaseCounter++
			if v.phaseCounter < inst.AttackTicks+1 {
				return
			}
			v.phaseCounter = 0
			v.currentAttn = stepToward(v.currentAttn, target)
			if v.currentAttn == target {
				v.phase = adsrDecay
				v.phaseCounter = 0
			}
			return
		case adsrDecay:
			target := int(inst.SustainLevel)
			if target < int(inst.BaseAttn) {
				target = int(inst.BaseAttn)
			}
			if v.currentAttn == target {
				v.phase = adsrSustain
				v.phaseCounter = 0
				continue
			}
			if inst.DecayTicks <= 0 {
				v.currentAttn = target
				v.phase = adsrSustain
				v.phaseCounter = 0
				continue
			}
			v.phaseCounter++
			if v.phaseCounter < inst.DecayTicks+1 {
				return
			}
			v.phaseCounter = 0
			v.currentAttn = stepToward(v.currentAttn, target)
			if v.currentAttn == target {
				v.phase = adsrSustain
				v.phaseCounter = 0
			}
			return
		case adsrSustain:
			if inst.SustainRatePerTick <= 0 {
				return
			}
			v.phaseCounter++
			if v.phaseCounter < inst.SustainRatePerTick+1 {
				return
			}
			v.phaseCounter = 0
			v.currentAttn++
			if v.currentAttn >= int(ATTN_MAX) {
				v.currentAttn = int(ATTN_MAX)
				v.phase = adsrIdle
				v.active = false
			}
			return
		case adsrRelease:
			if v.currentAttn >= int(ATTN_MAX) {
				v.currentAttn = int(ATTN_MAX)
				v.phase = adsrIdle
				v.active = false
				return
			}
			if inst.ReleaseTicks <= 0 {
				v.currentAttn = int(ATTN_MAX)
				v.phase = adsrIdle
				v.active = false
				return
			}
			v.phaseCounter++
			if v.phaseCounter < inst.ReleaseTicks+1 {
				return
			}
			v.phaseCounter = 0
			v.currentAttn++
			if v.currentAttn >= int(ATTN_MAX) {
				v.currentAttn = int(ATTN_MAX)
				v.phase = adsrIdle
				v.active = false
			}
			return
		case adsrIdle:
			return
		}
	}
}

func stepToward(current, target int) int {
	if current < target {
		return current + 1
	}
	if current > target {
		return current - 1
	}
	return current
}

// tickLegacyEnv runs the non-ADSR decay envelope: CurveNone adds a literal
// step to attn (toward silence); any other curve sets attn to base_attn plus
// the sum of the table deltas stepped through so far. Reaching full
// attenuation idles the voice.
func (v *Voice) tickLegacyEnv() {
	inst := v.inst
	speed := clampInt(inst.LegacyEnvSpeed, 1, 10)
	v.legacyCounter++
	if v.legacyCounter < speed {
		return
	}
	v.legacyCounter = 0

	if inst.LegacyEnvCurve == CurveNone {
		v.currentAttn += inst.LegacyEnvStep
	} else if table, ok := FactoryEnvelopeCurves[inst.LegacyEnvCurve]; ok && len(table) > 0 {
		sum := 0
		for _, d := range table[:v.legacyIndex+1] {
			sum += d
		}
		v.currentAttn = int(inst.BaseAttn) + sum
		if v.legacyIndex < len(table)-1 {
			v.legacyIndex++
		}
	}

	if v.currentAttn >= int(ATTN_MAX) {
		v.currentAttn = int(ATTN_MAX)
		v.active = false
	}
	if v.currentAttn < int(ATTN_MIN) {
		v.currentAttn = int(ATTN_MIN)
	}
}

// tickSweep implements §4.6 step 4: tone voices only. Reaching
// sweep_target_divider in the direction of travel disables sweep.
func (v *Voice) tickSweep() {
	if v.isNoise || !v.inst.SweepEnabled {
		return
	}
	speed := clampInt(v.inst.SweepSpeed, 1, 30)
	v.sweepCounter--
	if v.sweepCounter > 0 {
		return
	}
	v.sweepCounter = speed

	next := clampInt(v.currentDivider+v.inst.SweepStepsPerTick, TONE_DIVIDER_MIN, TONE_DIVIDER_MAX)
	target := v.inst.SweepTargetDivider
	if target > 0 {
		if v.inst.SweepStepsPerTick < 0 && next <= target {
			next = target
			v.inst.SweepEnabled = false
		} else if v.inst.SweepStepsPerTick > 0 && next >= target {
			next = target
			v.inst.SweepEnabled = false
		}
	}
	v.currentDivider = next
}

// tickVibrato implements §4.6 step 5: tone voices only. Vibrato is paused
// (no offset contributed) until vib_delay_counter expires, after which
// vib_dir alternates every vibrato_speed ticks.
func (v *Voice) tickVibrato() {
	if v.isNoise || !v.inst.VibratoEnabled {
		return
	}
	if v.vibDelayCounter > 0 {
		v.vibDelayCounter--
		return
	}
	speed := clampInt(v.inst.VibratoSpeed, 1, 30)
	v.vibCounter--
	if v.vibCounter > 0 {
		return
	}
	v.vibCounter = speed
	if v.vibDir == 0 {
		v.vibDir = 1
	} else {
		v.vibDir = -v.vibDir
	}
}

// tickLFOs implements §4.6 step 6, stepping both LFOs and combining their
// raw deltas via the instrument's mix algorithm. Noise voices always
// produce (0, 0).
func (v *Voice) tickLFOs() (pitch, attn int) {
	if v.isNoise || !v.inst.LFOEnabled {
		return 0, 0
	}
	l1 := stepLFO(&v.lfo1st, v.inst.LFO1)
	l2 := stepLFO(&v.lfo2st, v.inst.LFO2)
	return mixLFO(v.inst.LFOMixAlgo, l1, l2)
}

// stepLFO advances one LFO by one tick and returns its current raw delta,
// honoring its hold counter before any modulation begins.
func stepLFO(st *lfoState, p LFOParams) int {
	if st.hold > 0 {
		st.hold--
		return st.delta
	}
	rate := p.RateTicks
	if rate < 1 {
		rate = 1
	}
	st.rate++
	if st.rate < rate {
		return st.delta
	}
	st.rate = 0

	depth := p.Depth
	switch p.Waveform {
	case LFOSquare:
		st.dir = -st.dir
		st.delta = st.dir * depth
	case LFOTriangle:
		st.delta += st.dir
		if st.delta >= depth {
			st.delta = depth
			st.dir = -1
		} else if st.delta <= -depth {
			st.delta = -depth
			st.dir = 1
		}
	case LFOSaw:
		st.delta++
		if st.delta > depth {
			st.delta = -depth
		}
	case LFOSweepUp:
		if st.delta < depth {
			st.delta++
		}
	case LFOSweepDown:
		if st.delta > -depth {
			st.delta--
		}
	}
	return st.delta
}

// mixLFO implements the §4.6 eight-row algorithm table. AM(x) truncates
// toward zero exactly like Go's integer division, matching §8 scenario 3's
// literal 8/16 -> 0 and 32/16 -> 2 results.
func mixLFO(algo int, l1, l2 int) (pitch, attn int) {
	mix := clampInt(l1+l2, -255, 255)
	am := func(x int) int { return -clampInt(x/16, -15, 15) }
	switch algo {
	case 1:
		return l2, am(l1)
	case 2:
		return mix, am(mix)
	case 3:
		return l2, am(mix)
	case 4:
		return mix, am(l1)
	case 5:
		return 0, am(mix)
	case 6:
		return mix, 0
	case 7:
		return mix / 2, 0
	}
	return 0, 0
}
