// replayer.go - tool-side song/SFX playback.
//
// Replayer owns a PSG mixer and four voices (three tone, one noise), and
// drives them directly from byte-code streams each tick. This is the
// "replayer" path: it never touches the Z80. A second, driver-faithful
// path steps the real polling driver on the Z80 instead (see
// DriverFaithfulSource in driver_faithful.go).

package main

import "math"

// Song is the minimal authored unit the replayer can play: one byte-code
// stream per channel (plus its loop offset) and the instrument bank it
// references by index.
type Song struct {
	Channels    [NUM_VOICES][]byte
	LoopOffsets [NUM_VOICES]int
	HasLoop     [NUM_VOICES]bool
	Bank        []BgmInstrumentDef
}

// Replayer ticks a Song's four channels against a PSGMixer.
type Replayer struct {
	mixer   *PSGMixer
	voices  [NUM_VOICES]*Voice
	streams [NUM_VOICES]*StreamInterpreter
	bank    []BgmInstrumentDef
	noteTbl *NoteTable

	currentInstrument [NUM_VOICES]int
	waitTicks         [NUM_VOICES]int // ticks remaining before the next decode on this channel

	gatePending   [NUM_VOICES]bool // a gate-off is scheduled for this note
	gateCountdown [NUM_VOICES]int  // ticks remaining until the scheduled gate-off

	globalSpeed int // multiplies every note/rest duration; HOST_CMD type=1

	fadeFramesPerStep int // 0 = no fade in progress; HOST_CMD type=0
	fadeCounter       int
	fadeAttn          int

	samplesPerTick float64
	sampleAccum    float64

	peakAttn [NUM_VOICES]uint8 // minimum (loudest) attenuation observed

	// SFX ownership (§4.7): a triggered SFX claims a channel's stream
	// interpreter and voice for its duration, shadowing the BGM's own
	// stream cursor and voice state until it finishes.
	sfxActive      [NUM_VOICES]bool
	bgmStreamData  [NUM_VOICES][]byte
	bgmPC          [NUM_VOICES]int
	bgmVoiceShadow [NUM_VOICES]Voice
	bgmWaitTicks   [NUM_VOICES]int

	// onRegisterWrite, when set, is called instead of writing straight to
	// the mixer; used by PreBakeSong to capture a register-write log.
	onRegisterWrite func(port byte, value byte)
}

// NewReplayer builds a replayer for song rendered at sampleRate Hz.
func NewReplayer(song *Song, sampleRate int) *Replayer {
	r := &Replayer{
		mixer:          NewPSGMixer(sampleRate),
		bank:           song.Bank,
		noteTbl:        DefaultNoteTable(),
		globalSpeed:    1,
		samplesPerTick: float64(sampleRate) / TICK_RATE_HZ,
	}
	for i := 0; i < NUM_VOICES; i++ {
		r.voices[i] = NewVoice(i)
		r.streams[i] = NewStreamInterpreter(song.Channels[i])
		if song.HasLoop[i] {
			r.streams[i].SetLoopOffset(song.LoopOffsets[i])
		}
		r.peakAttn[i] = ATTN_MAX
	}
	return r
}

// Tick advances every channel's stream interpreter (when its wait-count has
// elapsed) and every active voice by one frame, writing changed registers
// straight to the mixer.
func (r *Replayer) Tick() {
	for ch := 0; ch < NUM_VOICES; ch++ {
		if r.sfxActive[ch] {
			r.tickSFXChannel(ch)
			continue
		}
		if r.waitTicks[ch] <= 0 {
			r.processChannelEvents(ch)
		} else {
			r.waitTicks[ch]--
		}
		r.tickGate(ch)
	}
	r.advanceGlobalFade()
	r.advanceVoicesOnly()
}

// tickGate implements the gate_percent early note-off (§4.7): a note
// scheduled with gate_percent < 100 releases before its full duration
// elapses, independent of the stream's own wait-ticks countdown.
func (r *Replayer) tickGate(ch int) {
	if !r.gatePending[ch] {
		return
	}
	r.gateCountdown[ch]--
	if r.gateCountdown[ch] <= 0 {
		r.gatePending[ch] = false
		r.voices[ch].NoteOff()
	}
}

// processChannelEvents decodes commands on one channel until a note or rest
// is consumed (which occupies waitTicks[ch] ticks) or the stream ends.
func (r *Replayer) processChannelEvents(ch int) {
	for {
		ev := r.streams[ch].Step()
		switch ev.Kind {
		case EventRest:
			// A rest is an implicit note-off: if the voice is still
			// note-active, honor its release rather than cutting it dead.
			r.voices[ch].NoteOff()
			r.gatePending[ch] = false
			r.waitTicks[ch] = ev.Duration*r.globalSpeed - 1
			return
		case EventEnd:
			if r.streams[ch].Owner() == ownerSFX {
				r.restoreFromSFX(ch)
				return
			}
			r.waitTicks[ch] = 1 << 30
			r.voices[ch].NoteOff()
			r.gatePending[ch] = false
			return
		case EventNote:
			inst := r.instrumentFor(ch)
			r.voices[ch].NoteOn(inst, ev.Note, r.noteTbl)
			dur := ev.Duration * r.globalSpeed
			r.waitTicks[ch] = dur - 1
			if inst.GatePercent > 0 && inst.GatePercent < 100 {
				r.gatePending[ch] = true
				r.gateCountdown[ch] = (dur*inst.GatePercent + 50) / 100
			} else {
				r.gatePending[ch] = false
			}
			return
		case EventSetInst:
			idx := ev.Args[0]
			r.currentInstrument[ch] = idx
			if idx >= 0 && idx < len(r.bank) {
				r.voices[ch].ApplyInstrument(r.bank[idx])
			}
		case EventSetAttn:
			r.voices[ch].SetAttn(ev.Args[0])
		case EventSetEnv:
			r.voices[ch].SetLegacyEnv(ev.Args[0], ev.Args[1])
		case EventSetVib:
			r.voices[ch].SetVibrato(ev.Args[0], ev.Args[1], ev.Args[2])
		case EventSetSweep:
			r.voices[ch].SetSweep(ev.Args[0], ev.Args[1], ev.Args[2])
		case EventSetExpr:
			r.voices[ch].SetExpression(ev.Args[0])
		case EventPitchBend:
			r.voices[ch].SetPitchBend(ev.Args[0])
		case EventSetADSR:
			r.voices[ch].SetADSR(ev.Args[0], ev.Args[1], ev.Args[2], ev.Args[3])
		case EventSetADSR5:
			r.voices[ch].SetADSR5(ev.Args[0], ev.Args[1], ev.Args[2], ev.Args[3], ev.Args[4])
		case EventSetLFO:
			r.voices[ch].SetLFOSingle(LFOWaveform(ev.Args[0]), ev.Args[1], ev.Args[2])
		case EventSetMOD2:
			algo := ev.Args[0]
			lfo1 := LFOParams{Waveform: LFOWaveform(ev.Args[2]), HoldTicks: ev.Args[3], RateTicks: ev.Args[4], Depth: ev.Args[5]}
			lfo2 := LFOParams{Waveform: LFOWaveform(ev.Args[7]), HoldTicks: ev.Args[8], RateTicks: ev.Args[9], Depth: ev.Args[10]}
			if ev.Args[1] == 0 {
				lfo1 = LFOParams{}
			}
			if ev.Args[6] == 0 {
				lfo2 = LFOParams{}
			}
			r.voices[ch].SetMOD2(algo, lfo1, lfo2)
		case EventSetEnvCurve:
			r.voices[ch].SetEnvCurve(EnvelopeCurve(ev.Args[0]))
		case EventSetPitchCurve:
			r.voices[ch].SetPitchCurve(PitchCurve(ev.Args[0]))
		case EventSetMacro:
			r.voices[ch].SetMacro(MacroNameByID(ev.Args[0]))
		case EventHostCmd:
			r.handleHostCmd(ev.Args[0], ev.Args[1])
		case EventSetPan:
			// Reserved; payload consumed and ignored on a single mono
			// output bus, matching the runtime driver's own no-op.
		}
	}
}

func (r *Replayer) handleHostCmd(cmdType, arg int) {
	switch cmdType {
	case hostCmdFadeOut:
		if arg <= 0 {
			// arg=0 cancels any fade in progress and restores full level.
			r.fadeFramesPerStep = 0
			r.fadeCounter = 0
			r.fadeAttn = 0
			return
		}
		r.fadeFramesPerStep = arg
		r.fadeCounter = 0
	case hostCmdSetSpeed:
		if arg < 1 {
			arg = 1
		}
		r.globalSpeed = arg
	}
}

// advanceGlobalFade steps the HOST_CMD fade-out counter: every
// fadeFramesPerStep frames it raises fadeAttn by one step, stopping every
// voice once it reaches ATTN_MAX.
func (r *Replayer) advanceGlobalFade() {
	if r.fadeFramesPerStep <= 0 || r.fadeAttn >= int(ATTN_MAX) {
		return
	}
	r.fadeCounter++
	if r.fadeCounter < r.fadeFramesPerStep {
		return
	}
	r.fadeCounter = 0
	r.fadeAttn++
	if r.fadeAttn >= int(ATTN_MAX) {
		for ch := 0; ch < NUM_VOICES; ch++ {
			r.voices[ch].NoteOff()
		}
	}
}

// tickSFXChannel decodes an SFX-owned channel's stream exactly like BGM
// playback; restoreFromSFX (triggered by the SFX stream's own end-of-data)
// hands the channel back to the music stream.
func (r *Replayer) tickSFXChannel(ch int) {
	if r.waitTicks[ch] <= 0 {
		r.processChannelEvents(ch)
	} else {
		r.waitTicks[ch]--
	}
}

// TriggerSFX claims channel ch for a short sound effect (§4.7 "SFX
// ownership"), snapshotting the BGM stream cursor and voice state so they
// can be restored bit-for-bit once the effect ends.
func (r *Replayer) TriggerSFX(ch int, data []byte, inst BgmInstrumentDef, note, duration int) {
	if r.sfxActive[ch] {
		return
	}
	r.bgmStreamData[ch] = r.streams[ch].data
	r.bgmPC[ch] = r.streams[ch].pc
	r.bgmWaitTicks[ch] = r.waitTicks[ch]
	r.bgmVoiceShadow[ch] = *r.voices[ch]

	r.sfxActive[ch] = true
	r.streams[ch].Claim(data)
	r.voices[ch].NoteOn(inst, note, r.noteTbl)
	r.waitTicks[ch] = duration - 1
}

// restoreFromSFX hands channel ch back to its BGM stream and voice, and
// forces a dirty rewrite so the BGM's last register state is re-emitted
// for one tick even though nothing about it actually changed.
func (r *Replayer) restoreFromSFX(ch int) {
	r.streams[ch].data = r.bgmStreamData[ch]
	r.streams[ch].pc = r.bgmPC[ch]
	r.streams[ch].owner = ownerMusic
	r.waitTicks[ch] = r.bgmWaitTicks[ch]

	*r.voices[ch] = r.bgmVoiceShadow[ch]
	r.voices[ch].lastDivider = 0
	r.voices[ch].lastAttn = 0xFF
	r.voices[ch].lastNoise = 0xFF

	r.sfxActive[ch] = false
}

func (r *Replayer) instrumentFor(ch int) BgmInstrumentDef {
	idx := r.currentInstrument[ch]
	if idx < 0 || idx >= len(r.bank) {
		return BgmInstrumentDef{}
	}
	return r.bank[idx]
}

func (r *Replayer) advanceVoicesOnly() {
	for ch := 0; ch < NUM_VOICES; ch++ {
		v := r.voices[ch]
		if !v.IsActive() {
			// A voice that went idle since its last write (note-off with
			// no release) gets one silence write for its channel.
			if v.tick > 0 && v.lastAttn != ATTN_MAX {
				v.lastAttn = ATTN_MAX
				if ch == CHAN_NOISE {
					r.writeRegister(mailboxPortNoise, 0x90|ATTN_MAX)
				} else {
					r.writeRegister(mailboxPortTone, 0x90|byte(ch<<5)|ATTN_MAX)
				}
			}
			continue
		}
		divider, noiseControl, attn, changed := v.Tick(r.fadeAttn)
		if attn < r.peakAttn[ch] {
			r.peakAttn[ch] = attn
		}
		if !changed {
			continue
		}
		if ch == CHAN_NOISE {
			r.writeRegister(mailboxPortNoise, 0x80|(noiseControl&0x07))
			r.writeRegister(mailboxPortNoise, 0x90|(attn&0x0F))
		} else {
			low := byte(divider & 0x0F)
			high := byte((divider >> 4) & 0x3F)
			r.writeRegister(mailboxPortTone, 0x80|byte(ch<<5)|low)
			r.writeRegister(mailboxPortTone, high)
			r.writeRegister(mailboxPortTone, 0x90|byte(ch<<5)|(attn&0x0F))
		}
	}
}

func (r *Replayer) writeRegister(port byte, value byte) {
	if r.onRegisterWrite != nil {
		r.onRegisterWrite(port, value)
		return
	}
	if port == mailboxPortNoise {
		r.mixer.WriteNoise(value)
	} else {
		r.mixer.WriteTone(value)
	}
}

// RenderFrames ticks the song forward by tickCount ticks, writing the
// resulting audio into out (len(out) must equal tickCount*samplesPerTick,
// rounded).
func (r *Replayer) RenderFrames(tickCount int, out []float32) {
	pos := 0
	for i := 0; i < tickCount && pos < len(out); i++ {
		r.Tick()
		r.sampleAccum += r.samplesPerTick
		n := int(r.sampleAccum)
		r.sampleAccum -= float64(n)
		if pos+n > len(out) {
			n = len(out) - pos
		}
		r.mixer.RenderSamples(out[pos : pos+n])
		pos += n
	}
}

// FillSamples renders exactly len(out) samples for live playback, ticking
// the song forward as needed. Unlike RenderFrames it is driven by the
// audio device's requested buffer size rather than a fixed tick count,
// which is what AudioOutput.Read calls on every pull.
func (r *Replayer) FillSamples(out []float32) {
	pos := 0
	for pos < len(out) {
		r.sampleAccum += r.samplesPerTick
		n := int(r.sampleAccum)
		if n <= 0 {
			// Guard against a pathologically small sample rate where a
			// single tick spans less than one sample.
			n = 1
		}
		r.sampleAccum -= float64(n)
		if pos+n > len(out) {
			n = len(out) - pos
		}
		r.Tick()
		r.mixer.RenderSamples(out[pos : pos+n])
		pos += n
	}
}

// AnalyzePeakPercent returns, per channel, how close the loudest moment of
// playback came to full scale: 100 - attenuation_steps*100/15.
func (r *Replayer) AnalyzePeakPercent() [NUM_VOICES]float64 {
	var out [NUM_VOICES]float64
	for i, a := range r.peakAttn {
		out[i] = 100.0 * float64(ATTN_MAX-int(a)) / float64(ATTN_MAX)
	}
	return out
}

// SuggestAttenuationOffset recommends a uniform attenuation-step shift to
// apply across a bank so the song's loudest channel reaches (but does not
// exceed) fullScalePercent of full scale, rounded toward silence.
func (r *Replayer) SuggestAttenuationOffset(fullScalePercent float64) int {
	loudest := ATTN_MAX
	for _, a := range r.peakAttn {
		if int(a) < loudest {
			loudest = int(a)
		}
	}
	targetAttn := int(math.Ceil((100 - fullScalePercent) * float64(ATTN_MAX) / 100.0))
	return targetAttn - loudest
}
