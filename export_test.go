package main

import (
	"os"
	"path/filepath"
	"testing"
)

func sampleSong() *Song {
	bank := []BgmInstrumentDef{{UseADSR: true, DecayTicks: 2, SustainLevel: 4, ReleaseTicks: 2}}
	song := &Song{Bank: bank}
	song.Channels[CHAN_TONE0] = []byte{opSetInst, 0, 20, 1, opRest, 3, opEnd}
	for ch := 1; ch < NUM_VOICES; ch++ {
		song.Channels[ch] = []byte{opEnd}
	}
	return song
}

func TestPreBakedRoundTrip(t *testing.T) {
	song := sampleSong()
	log := PreBakeSong(song, 6)
	if len(log) == 0 {
		t.Fatal("expected at least one register write")
	}
	encoded := EncodePreBaked(log)
	decoded := DecodePreBaked(encoded)
	if len(decoded) != len(log) {
		t.Fatalf("decoded %d entries, want %d", len(decoded), len(log))
	}
	for i := range log {
		if decoded[i] != log[i] {
			t.Fatalf("entry %d: got %+v, want %+v", i, decoded[i], log[i])
		}
	}
}

func TestHybridRoundTrip(t *testing.T) {
	song := sampleSong()
	blob := EncodeHybrid(song)
	decoded, err := DecodeHybrid(blob, song.Bank)
	if err != nil {
		t.Fatalf("DecodeHybrid: %v", err)
	}
	for ch := 0; ch < NUM_VOICES; ch++ {
		if string(decoded.Channels[ch]) != string(song.Channels[ch]) {
			t.Fatalf("channel %d mismatch", ch)
		}
	}
}

func TestExportProjectCWritesExpectedFiles(t *testing.T) {
	song := sampleSong()
	bank := FactoryInstrumentBank()
	dir := t.TempDir()
	if err := ExportProjectC(dir, "demo_song", song, bank, ExportHybrid, 0); err != nil {
		t.Fatalf("ExportProjectC: %v", err)
	}
	for _, want := range []string{
		"project_instruments.c",
		"project_audio_api.h",
		"project_audio_api.c",
		"manifest.txt",
		filepath.Join("exports", "demo_song.c"),
	} {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Fatalf("expected file %s: %v", want, err)
		}
	}
}
