package main

import "testing"

func TestReplayerRendersNonSilentTone(t *testing.T) {
	bank := []BgmInstrumentDef{{UseADSR: true, DecayTicks: 4, SustainLevel: 0, ReleaseTicks: 4}}
	song := &Song{Bank: bank}
	song.Channels[CHAN_TONE0] = []byte{opSetInst, 0, 20, 8, opEnd}

	r := NewReplayer(song, 8000)
	out := make([]float32, 8000/TICK_RATE_HZ*8)
	r.RenderFrames(8, out)

	var sawSound bool
	for _, s := range out {
		if s != 0 {
			sawSound = true
			break
		}
	}
	if !sawSound {
		t.Fatal("expected audible output from a note-on with full-volume sustain")
	}
}

func TestReplayerAnalyzePeakPercent(t *testing.T) {
	bank := []BgmInstrumentDef{{UseADSR: true, DecayTicks: 1, SustainLevel: 0}}
	song := &Song{Bank: bank}
	song.Channels[CHAN_TONE0] = []byte{opSetInst, 0, 20, 4, opEnd}
	r := NewReplayer(song, 8000)
	out := make([]float32, 400)
	r.RenderFrames(4, out)

	peaks := r.AnalyzePeakPercent()
	if peaks[CHAN_TONE0] <= 0 {
		t.Fatalf("expected nonzero peak percent on channel 0, got %v", peaks[CHAN_TONE0])
	}
}

func TestReplayerGatePercentReleasesEarly(t *testing.T) {
	bank := []BgmInstrumentDef{{
		UseADSR: true, AttackTicks: 0, DecayTicks: 0, SustainLevel: 0, ReleaseTicks: 4,
		GatePercent: 50,
	}}
	song := &Song{Bank: bank}
	song.Channels[CHAN_TONE0] = []byte{opSetInst, 0, 20, 10, opEnd}

	r := NewReplayer(song, 8000)
	v := r.voices[CHAN_TONE0]
	// Gate countdown is (duration*gate_percent+50)/100 = (10*50+50)/100 = 5
	// ticks, starting from the tick that decoded the note. It reaches zero
	// on the 5th Tick() call.
	for i := 0; i < 4; i++ {
		r.Tick()
		if v.phase == adsrRelease {
			t.Fatalf("tick %d: voice entered release before the gate countdown elapsed", i)
		}
	}
	r.Tick()
	if v.phase != adsrRelease {
		t.Fatalf("phase = %v after gate countdown elapsed, want release", v.phase)
	}
}

func TestReplayerSFXOwnershipRestoresBGM(t *testing.T) {
	bank := []BgmInstrumentDef{{UseADSR: true, DecayTicks: 1, SustainLevel: 0}}
	song := &Song{Bank: bank}
	song.Channels[CHAN_TONE0] = []byte{opSetInst, 0, 20, 200, opEnd}

	r := NewReplayer(song, 8000)
	for i := 0; i < 5; i++ {
		r.Tick()
	}
	bgmDivider := r.voices[CHAN_TONE0].baseDivider

	sfxInst := BgmInstrumentDef{UseADSR: true, DecayTicks: 1, SustainLevel: 5}
	sfxData := []byte{30, 3, opEnd}
	r.TriggerSFX(CHAN_TONE0, sfxData, sfxInst, 30, 3)
	if !r.sfxActive[CHAN_TONE0] {
		t.Fatal("expected channel to be SFX-owned immediately after TriggerSFX")
	}
	if r.streams[CHAN_TONE0].Owner() != ownerSFX {
		t.Fatalf("stream owner = %v, want ownerSFX", r.streams[CHAN_TONE0].Owner())
	}

	for i := 0; i < 10 && r.sfxActive[CHAN_TONE0]; i++ {
		r.Tick()
	}
	if r.sfxActive[CHAN_TONE0] {
		t.Fatal("SFX never released the channel back to BGM")
	}
	if r.streams[CHAN_TONE0].Owner() != ownerMusic {
		t.Fatalf("stream owner after release = %v, want ownerMusic", r.streams[CHAN_TONE0].Owner())
	}
	if r.voices[CHAN_TONE0].baseDivider != bgmDivider {
		t.Fatalf("restored voice base divider = %d, want %d (BGM's)", r.voices[CHAN_TONE0].baseDivider, bgmDivider)
	}
}

func TestAuthoredSongCompileProducesValidByteCode(t *testing.T) {
	a := &AuthoredSong{
		Bank: []BgmInstrumentDef{{UseADSR: true, DecayTicks: 2, SustainLevel: 4}},
	}
	a.Patterns[CHAN_TONE0] = []Pattern{{Rows: []Row{
		{Note: 10, Instrument: 0, Expression: -1},
		{Note: 0, Expression: -1},
	}}}
	a.Orders[CHAN_TONE0] = OrderList{Patterns: []int{0}, LoopIndex: 0}
	for ch := 1; ch < NUM_VOICES; ch++ {
		a.Orders[ch] = OrderList{Patterns: []int{}, LoopIndex: 0}
	}

	song, err := a.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	s := NewStreamInterpreter(song.Channels[CHAN_TONE0])
	ev := s.Step()
	if ev.Kind != EventSetInst {
		t.Fatalf("got %+v, want set-instrument first", ev)
	}
	ev = s.Step()
	if ev.Kind != EventNote || ev.Note != 10 {
		t.Fatalf("got %+v, want note 10", ev)
	}
}
