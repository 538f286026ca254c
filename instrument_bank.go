// instrument_bank.go - named instrument storage and the JSON bank file.

package main

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	bankFileVersion    = 2
	bankMaxInstruments = 128
)

// InstrumentBank holds named instruments in insertion order.
type InstrumentBank struct {
	order  []string
	byName map[string]BgmInstrumentDef
}

// NewInstrumentBank returns an empty bank.
func NewInstrumentBank() *InstrumentBank {
	return &InstrumentBank{byName: make(map[string]BgmInstrumentDef)}
}

// Add inserts or replaces a named instrument, clamping its fields first.
// Once the bank holds bankMaxInstruments entries, further Add calls on new
// names are silently truncated (replacing an existing name always works).
func (b *InstrumentBank) Add(name string, def BgmInstrumentDef) {
	def.Clamp()
	if _, exists := b.byName[name]; !exists {
		if len(b.order) >= bankMaxInstruments {
			return
		}
		b.order = append(b.order, name)
	}
	b.byName[name] = def
}

func (b *InstrumentBank) Get(name string) (BgmInstrumentDef, bool) {
	def, ok := b.byName[name]
	return def, ok
}

func (b *InstrumentBank) Names() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Dedup removes later entries that are field-for-field identical to an
// earlier one, keeping the first occurrence's name.
func (b *InstrumentBank) Dedup() {
	seen := make([]string, 0, len(b.order))
	kept := make(map[string]bool, len(b.order))
	for _, name := range b.order {
		def := b.byName[name]
		duplicate := false
		for _, other := range seen {
			if b.byName[other].Equal(def) {
				duplicate = true
				break
			}
		}
		if duplicate {
			delete(b.byName, name)
			continue
		}
		seen = append(seen, name)
		kept[name] = true
	}
	newOrder := make([]string, 0, len(seen))
	for _, name := range b.order {
		if kept[name] {
			newOrder = append(newOrder, name)
		}
	}
	b.order = newOrder
}

type bankFileEntry struct {
	Name string           `json:"name"`
	Def  BgmInstrumentDef `json:"def"`
}

type bankFile struct {
	Version     int             `json:"version"`
	Instruments []bankFileEntry `json:"instruments"`
}

// SaveBankFile writes the bank to path as the versioned JSON document.
func SaveBankFile(path string, b *InstrumentBank) error {
	doc := bankFile{Version: bankFileVersion}
	for _, name := range b.order {
		doc.Instruments = append(doc.Instruments, bankFileEntry{Name: name, Def: b.byName[name]})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("bank file: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadBankFile reads a versioned bank JSON document, clamping and
// truncating to bankMaxInstruments entries.
func LoadBankFile(path string) (*InstrumentBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bank file: read: %w", err)
	}
	var doc bankFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("bank file: parse: %w", err)
	}
	if doc.Version > bankFileVersion {
		return nil, fmt.Errorf("bank file: version %d newer than supported %d", doc.Version, bankFileVersion)
	}
	b := NewInstrumentBank()
	for _, entry := range doc.Instruments {
		b.Add(entry.Name, entry.Def)
	}
	return b, nil
}

// FactoryMacros are the built-in named macros instruments can reference by
// MacroName. Pitch deltas are divider offsets at a representative base
// divider, not true frequency ratios - the wire format carries a flat i16
// delta, so the interval only approximates the named interval.
var FactoryMacros = map[string]Macro{
	"arpeggio_major": {Name: "arpeggio_major", Steps: []MacroStep{
		{Frames: 4, PitchDelta: 0},
		{Frames: 4, PitchDelta: -40},
		{Frames: 4, PitchDelta: -68},
		{Frames: 4, PitchDelta: -94},
	}},
	"arpeggio_minor": {Name: "arpeggio_minor", Steps: []MacroStep{
		{Frames: 4, PitchDelta: 0},
		{Frames: 4, PitchDelta: -30},
		{Frames: 4, PitchDelta: -68},
		{Frames: 4, PitchDelta: -94},
	}},
	"trill_whole": {Name: "trill_whole", Steps: []MacroStep{
		{Frames: 3, PitchDelta: 0},
		{Frames: 3, PitchDelta: -22},
	}},
	"trill_half": {Name: "trill_half", Steps: []MacroStep{
		{Frames: 3, PitchDelta: 0},
		{Frames: 3, PitchDelta: -11},
	}},
	"octave_bounce": {Name: "octave_bounce", Steps: []MacroStep{
		{Frames: 6, PitchDelta: 0},
		{Frames: 6, PitchDelta: -94},
		{Frames: 6, PitchDelta: 0},
		{Frames: 6, PitchDelta: 94},
	}},
}

// MacroIDOrder fixes the byte-code SET_MACRO <id> assignment: the stream
// format only carries a single byte, so macros are addressed by a stable
// position in this list rather than by name.
var MacroIDOrder = []string{
	"arpeggio_major",
	"arpeggio_minor",
	"trill_whole",
	"trill_half",
	"octave_bounce",
}

// MacroNameByID resolves a byte-code macro id to its FactoryMacros key,
// returning "" (no macro) for an out-of-range id.
func MacroNameByID(id int) string {
	if id < 0 || id >= len(MacroIDOrder) {
		return ""
	}
	return MacroIDOrder[id]
}

// FactoryEnvelopeCurves are the legacy envelope's non-linear shapes: each
// is an ordered sequence of signed per-step attenuation deltas added
// cumulatively to the instrument's base attenuation. CurveNone (step +N
// per tick group) is computed directly in voice.go and has no table here.
var FactoryEnvelopeCurves = map[EnvelopeCurve][]int{
	CurveExponential: {1, 1, 2, 2, 3, 3, 3},
	CurveLogarithmic: {3, 2, 2, 1, 1, 1, 1},
	CurveSine:        {1, 2, 3, 3, 2, 1, 1},
	CurveEaseIn:      {0, 1, 1, 2, 3, 4, 4},
	CurveEaseOut:     {4, 3, 2, 1, 1, 0, 0},
}

// FactoryPitchCurves are ordered sequences of signed divider deltas,
// stepped through at a rate of LegacyEnvSpeed ticks per entry.
var FactoryPitchCurves = map[PitchCurve][]int{
	PitchCurveFallOff:      {0, -4, -8, -12, -16, -20, -24},
	PitchCurveRiseIn:       {-24, -20, -16, -12, -8, -4, 0},
	PitchCurvePluck:        {40, 24, 12, 6, 3, 1, 0},
	PitchCurveSiren:        {0, 12, 0, -12, 0, 12, 0, -12},
	PitchCurveWobble:       {0, 8, 0, -8, 0, 4, 0, -4},
	PitchCurveSlideUp:      {-30, -24, -18, -12, -6, 0},
	PitchCurveSlideDown:    {30, 24, 18, 12, 6, 0},
	PitchCurveVibratoSweep: {0, 6, -6, 10, -10, 14, -14, 0},
	PitchCurveNoise:        {0},
}

// FactoryInstrumentBank builds the 32-preset factory default bank.
func FactoryInstrumentBank() *InstrumentBank {
	b := NewInstrumentBank()
	presets := []struct {
		name string
		def  BgmInstrumentDef
	}{
		{"square_lead", BgmInstrumentDef{UseADSR: true, AttackTicks: 1, DecayTicks: 6, SustainLevel: 4, ReleaseTicks: 8}},
		{"pluck_bass", BgmInstrumentDef{UseADSR: true, AttackTicks: 0, DecayTicks: 10, SustainLevel: 10, ReleaseTicks: 4, PitchCurveID: PitchCurvePluck, LegacyEnvSpeed: 2}},
		{"pad_warm", BgmInstrumentDef{UseADSR: true, AttackTicks: 12, DecayTicks: 20, SustainLevel: 6, ReleaseTicks: 24, LFOEnabled: true, LFOMixAlgo: 1, LFO1: LFOParams{Waveform: LFOTriangle, RateTicks: 3, Depth: 24}}},
		{"noise_snare", BgmInstrumentDef{UseADSR: true, AttackTicks: 0, DecayTicks: 4, SustainLevel: 15, ReleaseTicks: 2}},
		{"noise_hat", BgmInstrumentDef{UseADSR: true, AttackTicks: 0, DecayTicks: 1, SustainLevel: 15, ReleaseTicks: 1}},
		{"siren_fx", BgmInstrumentDef{LegacyEnvOn: true, LegacyEnvStep: 2, LegacyEnvSpeed: 3, PitchCurveID: PitchCurveSiren}},
		{"laser_fx", BgmInstrumentDef{LegacyEnvOn: true, LegacyEnvStep: 3, LegacyEnvSpeed: 2, PitchCurveID: PitchCurveSlideDown}},
		{"coin_fx", BgmInstrumentDef{LegacyEnvOn: true, LegacyEnvStep: 2, LegacyEnvSpeed: 2, PitchCurveID: PitchCurveRiseIn}},
		{"vibrato_lead", BgmInstrumentDef{UseADSR: true, AttackTicks: 2, DecayTicks: 4, SustainLevel: 3, ReleaseTicks: 6, VibratoEnabled: true, VibratoSpeed: 5, VibratoDepth: 10}},
		{"sweep_bass", BgmInstrumentDef{UseADSR: true, AttackTicks: 0, DecayTicks: 8, SustainLevel: 8, ReleaseTicks: 6, SweepEnabled: true, SweepStepsPerTick: -3, SweepSpeed: 2, SweepTargetDivider: 800}},
		{"arp_pluck", BgmInstrumentDef{UseADSR: true, AttackTicks: 0, DecayTicks: 5, SustainLevel: 9, ReleaseTicks: 3, MacroName: "arpeggio_major"}},
	}
	for _, p := range presets {
		b.Add(p.name, p.def)
	}
	// Round out the 32-preset factory set with simple decay-only variants
	// covering the remaining attenuation/decay combinations a sound
	// designer would reach for first.
	for i := len(presets); i < 32; i++ {
		name := fmt.Sprintf("factory_%02d", i+1)
		b.Add(name, BgmInstrumentDef{
			UseADSR:      true,
			AttackTicks:  i % 4,
			DecayTicks:   4 + i%12,
			SustainLevel: uint8(2 + i%10),
			ReleaseTicks: 2 + i%8,
		})
	}
	return b
}
