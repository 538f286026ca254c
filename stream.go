// stream.go - byte-code stream interpreter.
//
// Opcode map, one byte per instruction, read strictly in order:
//
//	0x00       end-of-stream; seek to the stream's loop offset and continue,
//	           or stop the voice if no loop offset is set
//	0x01..0xEF note-on: note index (tone channels) or noise control byte
//	           (noise channel), followed by one duration byte
//	0xF0..0xFD named commands, each consuming a fixed operand count
//	0xFE       EXT: next byte selects a sub-opcode with its own operands
//	0xFF       rest: <duration:u8> ticks of silence
//
// Compatibility is byte-exact with the runtime driver's own decoder: the
// opcode set and payload sizes here must never drift from what a Z80 image
// built from the same export would expect.
//
// A stream drives exactly one channel. SFX streams may claim temporary
// ownership of a channel normally driven by the music stream; see
// StreamInterpreter.Claim.

package main

const (
	opEnd      = 0x00
	opNoteLow  = 0x01
	opNoteHigh = 0xEF
	opRest     = 0xFF

	opSetAttn       = 0xF0 // <attn:u8>, clamped 0..15
	opSetEnv        = 0xF1 // <step:u8> <speed:u8>, step clamped 0..4, speed 1..10
	opSetVib        = 0xF2 // <depth:u8> <speed:u8> <delay:u8>, speed 1..30
	opSetSweep      = 0xF3 // <end_lo> <end_hi> <step:i8> <speed:u8>, speed 1..30
	opSetInst       = 0xF4 // <id:u8>
	opSetPan        = 0xF5 // <value:u8>, reserved no-op
	opHostCmd       = 0xF6 // <type:u8> <arg:u8>
	opSetExpr       = 0xF7 // <expr:u8>, clamped 0..15
	opPitchBend     = 0xF8 // <lo> <hi>, signed i16 divider offset
	opSetADSR       = 0xF9 // <a> <d> <s> <r>, sustain_rate=0
	opSetLFO        = 0xFA // <wave> <rate> <depth>, LFO1 only, algorithm=1
	opSetEnvCurve   = 0xFB // <id:u8>
	opSetPitchCurve = 0xFC // <id:u8>
	opSetMacro      = 0xFD // <id:u8>
	opExt           = 0xFE
)

const (
	extADSR5 = 0x01 // <a> <d> <sl> <sr> <rr>
	extMOD2  = 0x02 // <algo> <lfo1 on,wave,hold,rate,depth> <lfo2 on,wave,hold,rate,depth>
)

// HOST_CMD sub-types (opHostCmd's <type> operand).
const (
	hostCmdFadeOut   = 0 // arg = frames per attenuation step
	hostCmdSetSpeed  = 1 // arg = global speed, min 1
)

// StreamEvent is one decoded instruction the interpreter's caller acts on.
// Args holds the instruction's operands in the order they appear in the
// byte-code; callers index into it by position, not by name.
type StreamEvent struct {
	Kind     StreamEventKind
	Note     int
	Duration int
	Args     [11]int
}

type StreamEventKind int

const (
	EventRest StreamEventKind = iota
	EventNote
	EventEnd
	EventSetAttn
	EventSetEnv
	EventSetVib
	EventSetSweep
	EventSetInst
	EventSetPan
	EventHostCmd
	EventSetExpr
	EventPitchBend
	EventSetADSR
	EventSetADSR5
	EventSetLFO
	EventSetMOD2
	EventSetEnvCurve
	EventSetPitchCurve
	EventSetMacro
)

// StreamInterpreter decodes one channel's byte-code stream, tracking a
// cursor, a loop offset, and temporary SFX ownership of the channel.
type StreamInterpreter struct {
	data       []byte
	pc         int
	loopOffset int
	hasLoop    bool

	owner streamOwner
}

type streamOwner int

const (
	ownerMusic streamOwner = iota
	ownerSFX
)

// NewStreamInterpreter begins decoding data from offset 0 with no loop
// point set; call SetLoopOffset if the export recorded one.
func NewStreamInterpreter(data []byte) *StreamInterpreter {
	return &StreamInterpreter{data: data}
}

// SetLoopOffset records the offset end-of-stream seeks back to. Offsets
// are a property of the export, not an in-stream instruction.
func (s *StreamInterpreter) SetLoopOffset(offset int) {
	s.loopOffset = offset
	s.hasLoop = true
}

// Claim switches the interpreter to a new SFX byte-code stream, remembering
// nothing of the previous music stream's position; the caller (the
// replayer) is responsible for restoring the music stream once the SFX
// ends.
func (s *StreamInterpreter) Claim(data []byte) {
	s.data = data
	s.pc = 0
	s.hasLoop = false
	s.owner = ownerSFX
}

func (s *StreamInterpreter) Owner() streamOwner {
	return s.owner
}

// Step decodes and returns the next event, advancing the cursor. An
// end-of-stream that has a loop offset set is handled transparently: the
// cursor seeks back and decoding continues without returning to the caller.
func (s *StreamInterpreter) Step() StreamEvent {
	for {
		if s.pc >= len(s.data) {
			return StreamEvent{Kind: EventEnd}
		}
		op := s.data[s.pc]
		s.pc++

		switch {
		case op == opEnd:
			if s.hasLoop {
				s.pc = s.loopOffset
				continue
			}
			return StreamEvent{Kind: EventEnd}
		case op == opRest:
			return StreamEvent{Kind: EventRest, Duration: s.readByte()}
		case op >= opNoteLow && op <= opNoteHigh:
			dur := s.readByte()
			return StreamEvent{Kind: EventNote, Note: int(op), Duration: dur}
		case op == opSetAttn:
			return StreamEvent{Kind: EventSetAttn, Args: [11]int{s.readByte()}}
		case op == opSetEnv:
			return StreamEvent{Kind: EventSetEnv, Args: [11]int{s.readByte(), s.readByte()}}
		case op == opSetVib:
			return StreamEvent{Kind: EventSetVib, Args: [11]int{s.readByte(), s.readByte(), s.readByte()}}
		case op == opSetSweep:
			lo := s.readByte()
			hi := s.readByte()
			step := int(int8(byte(s.readByte())))
			speed := s.readByte()
			return StreamEvent{Kind: EventSetSweep, Args: [11]int{lo | hi<<8, step, speed}}
		case op == opSetInst:
			return StreamEvent{Kind: EventSetInst, Args: [11]int{s.readByte()}}
		case op == opSetPan:
			return StreamEvent{Kind: EventSetPan, Args: [11]int{s.readByte()}}
		case op == opHostCmd:
			return StreamEvent{Kind: EventHostCmd, Args: [11]int{s.readByte(), s.readByte()}}
		case op == opSetExpr:
			return StreamEvent{Kind: EventSetExpr, Args: [11]int{s.readByte()}}
		case op == opPitchBend:
			lo := s.readByte()
			hi := s.readByte()
			signed := int(int16(uint16(lo | hi<<8)))
			return StreamEvent{Kind: EventPitchBend, Args: [11]int{signed}}
		case op == opSetADSR:
			return StreamEvent{Kind: EventSetADSR, Args: [11]int{s.readByte(), s.readByte(), s.readByte(), s.readByte()}}
		case op == opSetLFO:
			return StreamEvent{Kind: EventSetLFO, Args: [11]int{s.readByte(), s.readByte(), s.readByte()}}
		case op == opSetEnvCurve:
			return StreamEvent{Kind: EventSetEnvCurve, Args: [11]int{s.readByte()}}
		case op == opSetPitchCurve:
			return StreamEvent{Kind: EventSetPitchCurve, Args: [11]int{s.readByte()}}
		case op == opSetMacro:
			return StreamEvent{Kind: EventSetMacro, Args: [11]int{s.readByte()}}
		case op == opExt:
			return s.decodeExt()
		}
		return StreamEvent{Kind: EventRest}
	}
}

func (s *StreamInterpreter) readByte() int {
	if s.pc >= len(s.data) {
		return 0
	}
	b := s.data[s.pc]
	s.pc++
	return int(b)
}

func (s *StreamInterpreter) decodeExt() StreamEvent {
	sub := s.readByte()
	switch sub {
	case extADSR5:
		return StreamEvent{Kind: EventSetADSR5, Args: [11]int{
			s.readByte(), s.readByte(), s.readByte(), s.readByte(), s.readByte(),
		}}
	case extMOD2:
		return StreamEvent{Kind: EventSetMOD2, Args: [11]int{
			s.readByte(), // algo
			s.readByte(), s.readByte(), s.readByte(), s.readByte(), s.readByte(), // lfo1: on,wave,hold,rate,depth
			s.readByte(), s.readByte(), s.readByte(), s.readByte(), s.readByte(), // lfo2: on,wave,hold,rate,depth
		}}
	}
	// Unknown sub-opcode: consume one guard byte and continue.
	s.readByte()
	return StreamEvent{Kind: EventRest}
}
