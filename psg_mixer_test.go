package main

import "testing"

func TestPSGMixerResetIsSilent(t *testing.T) {
	m := NewPSGMixer(44100)
	buf := make([]float32, 64)
	m.RenderSamples(buf)
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("sample %d = %v, want 0 after reset", i, s)
		}
	}
}

func TestPSGMixerToneLatchAndVolume(t *testing.T) {
	m := NewPSGMixer(44100)
	// Latch channel 0 tone low bits, then high bits, then full volume.
	m.WriteTone(0x80 | 0x05) // latch ch0 tone, low nibble = 5
	m.WriteTone(0x00)        // data byte, high 6 bits = 0 -> divider = 5
	m.WriteTone(0x90 | 0x00) // latch ch0 volume, attn = 0 (loudest)

	if m.tone[0].divider != 5 {
		t.Fatalf("divider = %d, want 5", m.tone[0].divider)
	}
	if m.tone[0].attn != 0 {
		t.Fatalf("attn = %d, want 0", m.tone[0].attn)
	}

	buf := make([]float32, 256)
	m.RenderSamples(buf)
	var nonZero bool
	for _, s := range buf {
		if s != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected non-silent output with full volume on channel 0")
	}
}

func TestPSGMixerNoiseRateThreeTracksToneChannel2(t *testing.T) {
	m := NewPSGMixer(44100)
	m.WriteTone(0x80 | (2 << 5) | 0x02) // latch ch2 tone low nibble = 2
	m.WriteTone(0x01)                   // high bits -> divider = (1<<4)|2 = 18
	m.WriteNoise(0x80 | 0x07)           // latch noise control: white, rate 3
	m.WriteNoise(0x90 | 0x00)           // full volume

	if m.noise.control&0x03 != NOISE_RATE_TONE2 {
		t.Fatalf("noise rate = %d, want tone2-coupled", m.noise.control&0x03)
	}

	buf := make([]float32, 512)
	m.RenderSamples(buf)
	// Only assert it doesn't panic and produces some signal; exact LFSR
	// sequence is an implementation detail, not a contract.
	var sawNonZero bool
	for _, s := range buf {
		if s != 0 {
			sawNonZero = true
		}
	}
	if !sawNonZero {
		t.Fatal("expected some noise output")
	}
}

func TestPSGVolumeTableMonotonic(t *testing.T) {
	for i := 1; i < 16; i++ {
		if psgVolumeTable[i] > psgVolumeTable[i-1] {
			t.Fatalf("volume table not monotonic at %d: %v > %v", i, psgVolumeTable[i], psgVolumeTable[i-1])
		}
	}
	if psgVolumeTable[15] != 0 {
		t.Fatalf("volume table[15] = %v, want 0", psgVolumeTable[15])
	}
}

func TestNoteTableRoundTrip(t *testing.T) {
	nt := DefaultNoteTable()
	b := nt.Bytes()
	if len(b) != NOTE_TABLE_BYTES {
		t.Fatalf("len(bytes) = %d, want %d", len(b), NOTE_TABLE_BYTES)
	}
	nt2, err := LoadNoteTableBytes(b)
	if err != nil {
		t.Fatalf("LoadNoteTableBytes: %v", err)
	}
	for i := 1; i < NOTE_TABLE_ENTRIES; i++ {
		d1, _ := nt.Divider(i)
		d2, _ := nt2.Divider(i)
		if d1 != d2 {
			t.Fatalf("note %d divider mismatch: %d != %d", i, d1, d2)
		}
	}
}

func TestNoteTableOutOfRange(t *testing.T) {
	nt := DefaultNoteTable()
	if _, err := nt.Divider(0); err == nil {
		t.Fatal("expected error for note 0")
	}
	if _, err := nt.Divider(NOTE_TABLE_ENTRIES); err == nil {
		t.Fatal("expected error for note out of range")
	}
}
