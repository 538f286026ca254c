// export_c.go - C source export for songs and the shared runtime API.
//
// Writes project_instruments.c, exports/<song_id>.c, project_audio_api.h/c
// and a manifest.txt into a target directory, namespaced per song with a
// PROJECT_<SONG_ID>_ prefix so multiple songs can link into one firmware
// image without symbol collisions.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExportProjectC writes a complete set of C artifacts for song under dir.
// tickCount bounds how many ticks a pre-baked export materialises; it is
// ignored for hybrid exports, which carry the raw byte-code instead.
func ExportProjectC(dir, songID string, song *Song, bank *InstrumentBank, format ExportFormat, tickCount int) error {
	if err := os.MkdirAll(filepath.Join(dir, "exports"), 0755); err != nil {
		return fmt.Errorf("export_c: mkdir: %w", err)
	}

	ns := cNamespace(songID)

	if err := os.WriteFile(filepath.Join(dir, "project_instruments.c"), []byte(ExportInstrumentBankC(songID, bank)), 0644); err != nil {
		return fmt.Errorf("export_c: instruments: %w", err)
	}

	songSrc, err := exportSongC(ns, songID, song, format, tickCount)
	if err != nil {
		return fmt.Errorf("export_c: song: %w", err)
	}
	songPath := filepath.Join(dir, "exports", songID+".c")
	if err := os.WriteFile(songPath, []byte(songSrc), 0644); err != nil {
		return fmt.Errorf("export_c: write song: %w", err)
	}

	header := exportAudioAPIHeader(ns)
	if err := os.WriteFile(filepath.Join(dir, "project_audio_api.h"), []byte(header), 0644); err != nil {
		return fmt.Errorf("export_c: header: %w", err)
	}
	apiSrc := exportAudioAPISource(ns)
	if err := os.WriteFile(filepath.Join(dir, "project_audio_api.c"), []byte(apiSrc), 0644); err != nil {
		return fmt.Errorf("export_c: api source: %w", err)
	}

	manifest := fmt.Sprintf("song: %s\nformat: %s\nchannels: %d\ninstruments: %d\n",
		songID, exportFormatName(format), NUM_VOICES, len(bank.Names()))
	if err := os.WriteFile(filepath.Join(dir, "manifest.txt"), []byte(manifest), 0644); err != nil {
		return fmt.Errorf("export_c: manifest: %w", err)
	}
	return nil
}

func exportFormatName(f ExportFormat) string {
	if f == ExportPreBaked {
		return "pre-baked"
	}
	return "hybrid"
}

func exportSongC(ns, songID string, song *Song, format ExportFormat, tickCount int) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "/* Generated song data for %s (%s format). */\n\n", songID, exportFormatName(format))
	fmt.Fprintf(&sb, "#include \"../project_audio_api.h\"\n\n")

	switch format {
	case ExportPreBaked:
		log := PreBakeSong(song, tickCount)
		fmt.Fprintf(&sb, "const %s_RegisterWrite %s_REGISTER_LOG[%d] = {\n", ns, ns, len(log))
		for _, e := range log {
			fmt.Fprintf(&sb, "    { %d, %d, %d },\n", e.Tick, e.Port, e.Value)
		}
		sb.WriteString("};\n")
	case ExportHybrid:
		nt := DefaultNoteTable()
		ntBytes := nt.Bytes()
		fmt.Fprintf(&sb, "const unsigned char %s_NOTE_TABLE[%d] = {", ns, len(ntBytes))
		for i, b := range ntBytes {
			if i%16 == 0 {
				sb.WriteString("\n    ")
			}
			fmt.Fprintf(&sb, "0x%02X,", b)
		}
		sb.WriteString("\n};\n\n")

		for ch := 0; ch < NUM_VOICES; ch++ {
			fmt.Fprintf(&sb, "const unsigned char %s_CHANNEL_%d[%d] = {", ns, ch, len(song.Channels[ch]))
			for i, b := range song.Channels[ch] {
				if i%16 == 0 {
					sb.WriteString("\n    ")
				}
				fmt.Fprintf(&sb, "0x%02X,", b)
			}
			sb.WriteString("\n};\n")
			hasLoop := 0
			if song.HasLoop[ch] {
				hasLoop = 1
			}
			fmt.Fprintf(&sb, "const int %s_CHANNEL_%d_LOOP_OFFSET = %d;\n", ns, ch, song.LoopOffsets[ch])
			fmt.Fprintf(&sb, "const int %s_CHANNEL_%d_HAS_LOOP = %d;\n\n", ns, ch, hasLoop)
		}
	}
	return sb.String(), nil
}

func exportAudioAPIHeader(ns string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#ifndef %s_AUDIO_API_H\n#define %s_AUDIO_API_H\n\n", ns, ns)
	sb.WriteString("#include <stdint.h>\n#include <stdbool.h>\n\n")
	sb.WriteString("typedef struct {\n")
	sb.WriteString("    int waveform, rate_ticks, depth, hold_ticks;\n")
	sb.WriteString("} BgmLFOParams;\n\n")
	sb.WriteString("typedef struct {\n")
	sb.WriteString("    uint8_t base_attn;\n")
	sb.WriteString("    bool use_adsr;\n")
	sb.WriteString("    int attack_ticks, decay_ticks, sustain_rate_per_tick, release_ticks;\n")
	sb.WriteString("    uint8_t sustain_level;\n")
	sb.WriteString("    bool legacy_env_on;\n")
	sb.WriteString("    int legacy_env_step, legacy_env_speed, legacy_env_curve;\n")
	sb.WriteString("    int pitch_curve;\n")
	sb.WriteString("    bool sweep_enabled;\n")
	sb.WriteString("    int sweep_steps_per_tick, sweep_speed, sweep_target_divider;\n")
	sb.WriteString("    bool vibrato_enabled;\n")
	sb.WriteString("    int vibrato_depth, vibrato_speed, vibrato_delay_ticks;\n")
	sb.WriteString("    bool lfo_enabled;\n")
	sb.WriteString("    int lfo_mix_algo;\n")
	sb.WriteString("    BgmLFOParams lfo1, lfo2;\n")
	sb.WriteString("    const char *macro_name;\n")
	sb.WriteString("    int noise_config, gate_percent;\n")
	sb.WriteString("} BgmInstrumentDef;\n\n")
	fmt.Fprintf(&sb, "typedef struct { uint32_t tick; uint8_t port; uint8_t value; } %s_RegisterWrite;\n\n", ns)
	fmt.Fprintf(&sb, "#endif /* %s_AUDIO_API_H */\n", ns)
	return sb.String()
}

func exportAudioAPISource(ns string) string {
	var sb strings.Builder
	sb.WriteString("#include \"project_audio_api.h\"\n")
	return sb.String()
}
