package main

import "testing"

func TestVoicePlainInstrumentHoldsBaseAttn(t *testing.T) {
	nt := DefaultNoteTable()
	v := NewVoice(CHAN_TONE0)
	inst := BgmInstrumentDef{BaseAttn: 3}
	v.NoteOn(inst, 20, nt)

	for i := 0; i < 100; i++ {
		_, _, attn, _ := v.Tick(0)
		if attn != 3 {
			t.Fatalf("tick %d: attn = %d, want 3 (no envelope should hold base_attn)", i, attn)
		}
	}
	if !v.IsActive() {
		t.Fatal("a plain instrument with no envelope should stay active until NoteOff")
	}
}

func TestVoiceADSRAttackStepsEveryAttackPlusOneTicks(t *testing.T) {
	nt := DefaultNoteTable()
	v := NewVoice(CHAN_TONE0)
	inst := BgmInstrumentDef{
		UseADSR: true, BaseAttn: 0,
		AttackTicks: 3, DecayTicks: 0, SustainLevel: 0, ReleaseTicks: 0,
	}
	v.NoteOn(inst, 20, nt)
	if v.currentAttn != int(ATTN_MAX) {
		t.Fatalf("currentAttn at note-on = %d, want %d", v.currentAttn, ATTN_MAX)
	}

	// Cadence is attack_ticks+1 = 4 ticks per one-unit step.
	for i := 1; i <= 3; i++ {
		_, _, attn, _ := v.Tick(0)
		if attn != uint8(ATTN_MAX) {
			t.Fatalf("tick %d: attn = %d, want unchanged %d before the 4th tick", i, attn, ATTN_MAX)
		}
	}
	_, _, attn, _ := v.Tick(0)
	if attn != uint8(ATTN_MAX)-1 {
		t.Fatalf("tick 4: attn = %d, want %d (first attack step)", attn, uint8(ATTN_MAX)-1)
	}
}

func TestVoiceADSRZeroDurationPhasesCascadeInOneTick(t *testing.T) {
	nt := DefaultNoteTable()
	v := NewVoice(CHAN_TONE0)
	inst := BgmInstrumentDef{
		UseADSR: true, BaseAttn: 0,
		AttackTicks: 0, DecayTicks: 0, SustainLevel: 5, ReleaseTicks: 4,
	}
	v.NoteOn(inst, 20, nt)
	_, _, attn, _ := v.Tick(0)
	if v.phase != adsrSustain {
		t.Fatalf("phase after first tick = %v, want sustain (attack=0,decay=0 should cascade in one tick)", v.phase)
	}
	if attn != 5 {
		t.Fatalf("attn after cascade = %d, want sustain level 5", attn)
	}
}

func TestVoiceADSRReleaseReachesIdle(t *testing.T) {
	nt := DefaultNoteTable()
	v := NewVoice(CHAN_TONE0)
	inst := BgmInstrumentDef{
		UseADSR: true, BaseAttn: 0,
		AttackTicks: 0, DecayTicks: 0, SustainLevel: 0, ReleaseTicks: 2,
	}
	v.NoteOn(inst, 20, nt)
	v.Tick(0) // collapse attack/decay into sustain at attn 0
	v.NoteOff()
	if v.phase != adsrRelease {
		t.Fatalf("phase after NoteOff = %v, want release", v.phase)
	}

	var attn uint8
	for i := 0; i < 50 && v.IsActive(); i++ {
		_, _, attn, _ = v.Tick(0)
	}
	if v.IsActive() {
		t.Fatal("voice never reached idle during release")
	}
	if attn != uint8(ATTN_MAX) {
		t.Fatalf("final attn = %d, want %d (silence)", attn, ATTN_MAX)
	}
}

func TestVoiceNoteOffWithZeroReleaseSilencesImmediately(t *testing.T) {
	nt := DefaultNoteTable()
	v := NewVoice(CHAN_TONE0)
	inst := BgmInstrumentDef{UseADSR: true, AttackTicks: 0, DecayTicks: 0, SustainLevel: 0, ReleaseTicks: 0}
	v.NoteOn(inst, 20, nt)
	v.Tick(0)
	v.NoteOff()
	if v.IsActive() {
		t.Fatal("NoteOff with release_ticks=0 should silence the voice immediately")
	}
}

func TestVoiceMacroTerminatesImmediatelyWhenFirstStepHasZeroFrames(t *testing.T) {
	nt := DefaultNoteTable()
	v := NewVoice(CHAN_TONE0)
	FactoryMacros["__test_zero_frame"] = Macro{Name: "__test_zero_frame", Steps: []MacroStep{{Frames: 0}}}
	defer delete(FactoryMacros, "__test_zero_frame")

	inst := BgmInstrumentDef{BaseAttn: 0, MacroName: "__test_zero_frame"}
	v.NoteOn(inst, 20, nt)
	if v.macroActive {
		t.Fatal("macro with a zero-frame first step should be inactive immediately (boundary law)")
	}
}

func TestVoiceMacroCyclesPitchDeltaByFrameCount(t *testing.T) {
	nt := DefaultNoteTable()
	v := NewVoice(CHAN_TONE0)
	FactoryMacros["__test_cycle"] = Macro{Name: "__test_cycle", Steps: []MacroStep{
		{Frames: 2, PitchDelta: 0},
		{Frames: 2, PitchDelta: -40},
	}}
	defer delete(FactoryMacros, "__test_cycle")

	inst := BgmInstrumentDef{BaseAttn: 0, MacroName: "__test_cycle"}
	v.NoteOn(inst, 20, nt)
	if !v.macroActive {
		t.Fatal("macro should be active with a nonzero first step")
	}

	base := v.currentDivider
	d, _, _, _ := v.Tick(0) // tick 1 of step0 (frames=2): no advance yet
	if int(d) != base {
		t.Fatalf("tick 1: divider = %d, want unchanged base %d", d, base)
	}
	d, _, _, _ = v.Tick(0) // tick 2 expires step0, advances to step1 (pitch -40)
	if int(d) != base-40 {
		t.Fatalf("tick 2: divider = %d, want %d (step1 pitch delta applied)", d, base-40)
	}
}

func TestVoiceLFOMixAlgorithm2CombinesBothLFOs(t *testing.T) {
	nt := DefaultNoteTable()
	v := NewVoice(CHAN_TONE0)
	inst := BgmInstrumentDef{
		BaseAttn: 0, LFOEnabled: true, LFOMixAlgo: 2,
		LFO1: LFOParams{Waveform: LFOSquare, RateTicks: 1, Depth: 8},
		LFO2: LFOParams{Waveform: LFOSquare, RateTicks: 1, Depth: 24},
	}
	v.NoteOn(inst, 20, nt)

	// A square LFO flips to -depth on its first step (dir starts at 1, then
	// negates before use): l1 = -8, l2 = -24, mix = -32,
	// am(-32) = -clamp(-32/16, -15, 15) = -(-2) = 2.
	_, _, attn, _ := v.Tick(0)
	if attn != 2 {
		t.Fatalf("attn after first LFO tick = %d, want 2 (base_attn 0 + am(mix)=2)", attn)
	}
}

func TestVoiceLFOMixAMTruncatesTowardZero(t *testing.T) {
	pitch, attn := mixLFO(2, 4, 4) // mix = 8, am(8) = -clamp(8/16,-15,15) = -0 = 0
	if pitch != 8 {
		t.Fatalf("pitch = %d, want 8", pitch)
	}
	if attn != 0 {
		t.Fatalf("attn = %d, want 0 (8/16 truncates to 0)", attn)
	}
	pitch, attn = mixLFO(2, 16, 16) // mix = 32, am(32) = -clamp(32/16,-15,15) = -2
	if pitch != 32 {
		t.Fatalf("pitch = %d, want 32", pitch)
	}
	if attn != -2 {
		t.Fatalf("attn = %d, want -2", attn)
	}
}

func TestVoiceSweepSaturatesDividerRangeAndDisablesOnArrival(t *testing.T) {
	nt := DefaultNoteTable()
	v := NewVoice(CHAN_TONE0)
	inst := BgmInstrumentDef{
		UseADSR: true, DecayTicks: 1, SustainLevel: 0,
		SweepEnabled: true, SweepStepsPerTick: -1000, SweepSpeed: 1, SweepTargetDivider: TONE_DIVIDER_MIN,
	}
	v.NoteOn(inst, 25, nt)
	for i := 0; i < 10; i++ {
		divider, _, _, _ := v.Tick(0)
		if divider < TONE_DIVIDER_MIN || divider > TONE_DIVIDER_MAX {
			t.Fatalf("tick %d: divider %d out of range", i, divider)
		}
	}
	if v.inst.SweepEnabled {
		t.Fatal("sweep should disable itself after reaching its target divider")
	}
}

func TestVoiceVibratoPausesUntilDelayElapses(t *testing.T) {
	nt := DefaultNoteTable()
	v := NewVoice(CHAN_TONE0)
	inst := BgmInstrumentDef{
		UseADSR: true, DecayTicks: 1, SustainLevel: 0,
		VibratoEnabled: true, VibratoDepth: 20, VibratoSpeed: 1, VibratoDelayTicks: 3,
	}
	v.NoteOn(inst, 25, nt)
	base := v.currentDivider
	for i := 0; i < 3; i++ {
		d, _, _, _ := v.Tick(0)
		if int(d) != base {
			t.Fatalf("tick %d: divider = %d during vibrato delay, want unchanged %d", i, d, base)
		}
	}
	d, _, _, _ := v.Tick(0)
	if int(d) == base {
		t.Fatal("vibrato should offset the divider once the delay has elapsed")
	}
}

func TestVoiceNoiseChannelDecodesControlByteFromNoteMinusOne(t *testing.T) {
	v := NewVoice(CHAN_NOISE)
	inst := BgmInstrumentDef{BaseAttn: 0}
	v.NoteOn(inst, 8, nil) // (8-1)&0x07 = 7
	_, nc, _, _ := v.Tick(0)
	if nc != 0x07 {
		t.Fatalf("noise control = %#x, want 0x07", nc)
	}
}

func TestVoiceExpressionIsAdditiveAndClamped(t *testing.T) {
	nt := DefaultNoteTable()
	v := NewVoice(CHAN_TONE0)
	v.NoteOn(BgmInstrumentDef{BaseAttn: 10}, 20, nt)
	v.SetExpression(20) // clamps to 15
	if v.expression != 15 {
		t.Fatalf("expression = %d, want clamped to 15", v.expression)
	}
	_, _, attn, _ := v.Tick(0)
	if attn != 15 {
		t.Fatalf("attn = %d, want 15 (base 10 + expression 15 clamped to max)", attn)
	}
}

func TestVoicePitchBendAppliesRawDividerOffset(t *testing.T) {
	nt := DefaultNoteTable()
	v := NewVoice(CHAN_TONE0)
	v.NoteOn(BgmInstrumentDef{BaseAttn: 0}, 20, nt)
	base := v.currentDivider
	v.SetPitchBend(50)
	d, _, _, _ := v.Tick(0)
	if int(d) != base+50 {
		t.Fatalf("divider = %d, want base %d + raw bend 50 = %d", d, base, base+50)
	}
}
