package main

import "testing"

func TestStreamInterpreterNoteAndRest(t *testing.T) {
	data := []byte{0x10, 3, opRest, 5}
	s := NewStreamInterpreter(data)

	ev := s.Step()
	if ev.Kind != EventNote || ev.Note != 0x10 || ev.Duration != 3 {
		t.Fatalf("got %+v, want note 0x10 duration 3", ev)
	}
	ev = s.Step()
	if ev.Kind != EventRest || ev.Duration != 5 {
		t.Fatalf("got %+v, want rest duration 5", ev)
	}
}

func TestStreamInterpreterLoopsAtEnd(t *testing.T) {
	data := []byte{0x05, 2, opEnd}
	s := NewStreamInterpreter(data)
	s.SetLoopOffset(0)

	ev := s.Step() // consumes the note, lands pc at opEnd
	if ev.Kind != EventNote {
		t.Fatalf("got %+v, want note", ev)
	}
	ev = s.Step() // opEnd seeks back to offset 0 and decodes the same note again
	if ev.Kind != EventNote || ev.Note != 0x05 {
		t.Fatalf("expected loop to replay the note, got %+v", ev)
	}
	if s.pc != 2 {
		t.Fatalf("pc after looped note = %d, want 2", s.pc)
	}
}

func TestStreamInterpreterEndWithoutLoopStops(t *testing.T) {
	s := NewStreamInterpreter([]byte{opEnd})
	ev := s.Step()
	if ev.Kind != EventEnd {
		t.Fatalf("got %+v, want end", ev)
	}
}

func TestStreamInterpreterNamedCommands(t *testing.T) {
	data := []byte{opSetInst, 7, opSetAttn, 4, opSetExpr, 12}
	s := NewStreamInterpreter(data)

	ev := s.Step()
	if ev.Kind != EventSetInst || ev.Args[0] != 7 {
		t.Fatalf("got %+v", ev)
	}
	ev = s.Step()
	if ev.Kind != EventSetAttn || ev.Args[0] != 4 {
		t.Fatalf("got %+v", ev)
	}
	ev = s.Step()
	if ev.Kind != EventSetExpr || ev.Args[0] != 12 {
		t.Fatalf("got %+v", ev)
	}
}

func TestStreamInterpreterPitchBendSigned(t *testing.T) {
	data := []byte{opPitchBend, 0xF8, 0xFF} // -8 as i16
	s := NewStreamInterpreter(data)
	ev := s.Step()
	if ev.Kind != EventPitchBend || ev.Args[0] != -8 {
		t.Fatalf("got %+v, want -8", ev)
	}
}

func TestStreamInterpreterSweepSignedStep(t *testing.T) {
	data := []byte{opSetSweep, 0x00, 0x02, 0xFE, 10} // end=512, step=-2, speed=10
	s := NewStreamInterpreter(data)
	ev := s.Step()
	if ev.Kind != EventSetSweep || ev.Args[0] != 512 || ev.Args[1] != -2 || ev.Args[2] != 10 {
		t.Fatalf("got %+v", ev)
	}
}

func TestStreamInterpreterExtADSR5(t *testing.T) {
	data := []byte{opExt, extADSR5, 1, 2, 3, 4, 5}
	s := NewStreamInterpreter(data)
	ev := s.Step()
	if ev.Kind != EventSetADSR5 {
		t.Fatalf("got %+v", ev)
	}
	want := [5]int{1, 2, 3, 4, 5}
	for i, w := range want {
		if ev.Args[i] != w {
			t.Fatalf("arg %d = %d, want %d", i, ev.Args[i], w)
		}
	}
}

func TestStreamInterpreterExtUnknownSubConsumesGuardByte(t *testing.T) {
	data := []byte{opExt, 0x7F, 0xAA, opRest, 1}
	s := NewStreamInterpreter(data)
	ev := s.Step()
	if ev.Kind != EventRest {
		t.Fatalf("unknown EXT sub should decode as a no-op rest, got %+v", ev)
	}
	ev = s.Step()
	if ev.Kind != EventRest || ev.Duration != 1 {
		t.Fatalf("stream should resume cleanly after the guard byte, got %+v", ev)
	}
}

func TestStreamInterpreterClaimSwitchesOwnership(t *testing.T) {
	s := NewStreamInterpreter([]byte{opRest, 1})
	if s.Owner() != ownerMusic {
		t.Fatal("new interpreter should default to music ownership")
	}
	s.Claim([]byte{opSetAttn, 9})
	if s.Owner() != ownerSFX {
		t.Fatal("Claim should switch ownership to SFX")
	}
	ev := s.Step()
	if ev.Kind != EventSetAttn || ev.Args[0] != 9 {
		t.Fatalf("got %+v", ev)
	}
}
