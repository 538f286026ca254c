// instrument_export_c.go - C source export for instrument banks.

package main

import (
	"fmt"
	"strings"
)

// ExportInstrumentBankC renders the bank as a C source fragment declaring
// one PROJECT_<SONG_ID>_INSTRUMENTS[] array of struct initialisers, where
// <SONG_ID> is songID upper-cased with non-alnum replaced by '_'.
func ExportInstrumentBankC(songID string, b *InstrumentBank) string {
	ns := cNamespace(songID)
	var sb strings.Builder
	fmt.Fprintf(&sb, "/* Generated instrument bank for %s. Do not edit by hand. */\n\n", songID)
	sb.WriteString("#include \"project_audio_api.h\"\n\n")
	fmt.Fprintf(&sb, "const BgmInstrumentDef %s_INSTRUMENTS[%d] = {\n", ns, len(b.order))
	for _, name := range b.order {
		def := b.byName[name]
		fmt.Fprintf(&sb, "    /* %s */\n", name)
		fmt.Fprintf(&sb, "    { .base_attn=%d,\n", def.BaseAttn)
		fmt.Fprintf(&sb, "      .use_adsr=%s, .attack_ticks=%d, .decay_ticks=%d, .sustain_level=%d, .sustain_rate_per_tick=%d, .release_ticks=%d,\n",
			cBool(def.UseADSR), def.AttackTicks, def.DecayTicks, def.SustainLevel, def.SustainRatePerTick, def.ReleaseTicks)
		fmt.Fprintf(&sb, "      .legacy_env_on=%s, .legacy_env_step=%d, .legacy_env_speed=%d, .legacy_env_curve=%d,\n",
			cBool(def.LegacyEnvOn), def.LegacyEnvStep, def.LegacyEnvSpeed, int(def.LegacyEnvCurve))
		fmt.Fprintf(&sb, "      .pitch_curve=%d,\n", int(def.PitchCurveID))
		fmt.Fprintf(&sb, "      .sweep_enabled=%s, .sweep_steps_per_tick=%d, .sweep_speed=%d, .sweep_target_divider=%d,\n",
			cBool(def.SweepEnabled), def.SweepStepsPerTick, def.SweepSpeed, def.SweepTargetDivider)
		fmt.Fprintf(&sb, "      .vibrato_enabled=%s, .vibrato_depth=%d, .vibrato_speed=%d, .vibrato_delay_ticks=%d,\n",
			cBool(def.VibratoEnabled), def.VibratoDepth, def.VibratoSpeed, def.VibratoDelayTicks)
		fmt.Fprintf(&sb, "      .lfo_enabled=%s, .lfo_mix_algo=%d,\n",
			cBool(def.LFOEnabled), def.LFOMixAlgo)
		fmt.Fprintf(&sb, "      .lfo1={ .waveform=%d, .rate_ticks=%d, .depth=%d, .hold_ticks=%d },\n",
			int(def.LFO1.Waveform), def.LFO1.RateTicks, def.LFO1.Depth, def.LFO1.HoldTicks)
		fmt.Fprintf(&sb, "      .lfo2={ .waveform=%d, .rate_ticks=%d, .depth=%d, .hold_ticks=%d },\n",
			int(def.LFO2.Waveform), def.LFO2.RateTicks, def.LFO2.Depth, def.LFO2.HoldTicks)
		fmt.Fprintf(&sb, "      .macro_name=%q, .noise_config=%d, .gate_percent=%d },\n",
			def.MacroName, def.NoiseConfig, def.GatePercent)
	}
	sb.WriteString("};\n")
	return sb.String()
}

func cBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func cNamespace(songID string) string {
	var sb strings.Builder
	sb.WriteString("PROJECT_")
	for _, r := range strings.ToUpper(songID) {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
