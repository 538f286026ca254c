// export.go - dual-format song export.
//
// Pre-baked export materialises the song tick-by-tick into a flat register
// write log: larger on disk, but playback needs no runtime state machine
// beyond "play back this log." Hybrid export keeps the authored byte-code
// and instrument bank as-is, relying on the same runtime (voice.go,
// stream.go) the tool itself uses, for a much smaller artifact.

package main

import "encoding/binary"

// ExportFormat selects which of the two export shapes to produce.
type ExportFormat int

const (
	ExportPreBaked ExportFormat = iota
	ExportHybrid
)

// RegisterWrite is one pre-baked log entry: at tick Tick, write Value to
// the chip addressed by Port (mailboxPortNoise or mailboxPortTone).
type RegisterWrite struct {
	Tick  int
	Port  byte
	Value byte
}

// PreBakeSong runs song through a fresh Replayer for tickCount ticks and
// records every register write the mixer would have received, rather than
// rendered audio samples.
func PreBakeSong(song *Song, tickCount int) []RegisterWrite {
	var log []RegisterWrite
	r := NewReplayer(song, TICK_RATE_HZ) // sample rate is irrelevant to the log
	currentTick := 0
	r.onRegisterWrite = func(port byte, value byte) {
		log = append(log, RegisterWrite{Tick: currentTick, Port: port, Value: value})
	}
	for tick := 0; tick < tickCount; tick++ {
		currentTick = tick
		r.Tick()
	}
	return log
}

// EncodePreBaked serialises a register-write log as a flat binary stream:
// each entry is [tick:u32le][port:u8][value:u8].
func EncodePreBaked(log []RegisterWrite) []byte {
	out := make([]byte, 0, len(log)*6)
	var tickBuf [4]byte
	for _, e := range log {
		binary.LittleEndian.PutUint32(tickBuf[:], uint32(e.Tick))
		out = append(out, tickBuf[:]...)
		out = append(out, e.Port, e.Value)
	}
	return out
}

// DecodePreBaked is EncodePreBaked's inverse, used by tests.
func DecodePreBaked(data []byte) []RegisterWrite {
	var out []RegisterWrite
	for i := 0; i+6 <= len(data); i += 6 {
		tick := int(binary.LittleEndian.Uint32(data[i:]))
		out = append(out, RegisterWrite{Tick: tick, Port: data[i+4], Value: data[i+5]})
	}
	return out
}

// EncodeHybrid serialises a Song's raw byte-code channels with a small
// length-prefixed framing, deferring all playback logic to the runtime.
func EncodeHybrid(song *Song) []byte {
	var out []byte
	for ch := 0; ch < NUM_VOICES; ch++ {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(song.Channels[ch])))
		out = append(out, lenBuf[:]...)
		out = append(out, song.Channels[ch]...)
	}
	return out
}

// DecodeHybrid reconstructs a Song's channel byte-code from EncodeHybrid's
// output; bank must be supplied separately (it travels in the project's
// instrument bank file, not the hybrid blob).
func DecodeHybrid(data []byte, bank []BgmInstrumentDef) (*Song, error) {
	song := &Song{Bank: bank}
	pos := 0
	for ch := 0; ch < NUM_VOICES; ch++ {
		if pos+4 > len(data) {
			return nil, errTruncatedHybrid
		}
		n := int(binary.LittleEndian.Uint32(data[pos:]))
		pos += 4
		if pos+n > len(data) {
			return nil, errTruncatedHybrid
		}
		song.Channels[ch] = data[pos : pos+n]
		pos += n
	}
	return song, nil
}

var errTruncatedHybrid = &exportError{"hybrid export: truncated stream"}

type exportError struct{ msg string }

func (e *exportError) Error() string { return e.msg }
