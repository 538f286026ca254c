package main

import (
	"path/filepath"
	"testing"
)

func TestProjectSaveLoadRoundTrip(t *testing.T) {
	p := NewProject()
	song := &AuthoredSong{Name: "track1", TempoDivider: 1}
	song.Orders[CHAN_TONE0] = OrderList{Patterns: []int{}, LoopIndex: 0}
	p.AddSong("track1", song)

	dir := t.TempDir()
	path := filepath.Join(dir, "proj.json")
	if err := SaveProjectFile(path, p); err != nil {
		t.Fatalf("SaveProjectFile: %v", err)
	}
	loaded, err := LoadProjectFile(path)
	if err != nil {
		t.Fatalf("LoadProjectFile: %v", err)
	}
	if _, ok := loaded.Songs["track1"]; !ok {
		t.Fatal("expected track1 to round-trip")
	}
	if len(loaded.Bank.Names()) != len(p.Bank.Names()) {
		t.Fatalf("bank size mismatch: %d vs %d", len(loaded.Bank.Names()), len(p.Bank.Names()))
	}
}

func TestProjectCompileBankIndexOrder(t *testing.T) {
	p := NewProject()
	p.Bank = NewInstrumentBank()
	p.Bank.Add("kick", BgmInstrumentDef{DecayTicks: 3})
	p.Bank.Add("snare", BgmInstrumentDef{DecayTicks: 5})

	idx, ok := p.BankIndexOf("snare")
	if !ok || idx != 1 {
		t.Fatalf("BankIndexOf(snare) = %d,%v want 1,true", idx, ok)
	}
	flat := p.CompileBank()
	if len(flat) != 2 || flat[1].DecayTicks != 5 {
		t.Fatalf("CompileBank mismatch: %+v", flat)
	}
}
