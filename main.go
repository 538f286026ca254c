// main.go - command-line entry point.
//
// Usage:
//
//	chiptool render <project.json> <song-id> [sample-rate]
//	chiptool export <project.json> <song-id> <out-dir> [hybrid|prebaked]
//	chiptool analyze <project.json> <song-id>

package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "render":
		cmdRender(os.Args[2:])
	case "export":
		cmdExport(os.Args[2:])
	case "analyze":
		cmdAnalyze(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: chiptool <render|export|analyze> <project.json> <song-id> [args...]")
}

func loadSong(projectPath, songID string) (*Song, error) {
	p, err := LoadProjectFile(projectPath)
	if err != nil {
		return nil, err
	}
	authored, ok := p.Songs[songID]
	if !ok {
		return nil, fmt.Errorf("no such song %q in %s", songID, projectPath)
	}
	authored.Bank = p.CompileBank()
	return authored.Compile()
}

func cmdRender(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: chiptool render <project.json> <song-id> [sample-rate]")
		os.Exit(1)
	}
	sampleRate := 44100
	if len(args) >= 3 {
		fmt.Sscanf(args[2], "%d", &sampleRate)
	}

	song, err := loadSong(args[0], args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}

	r := NewReplayer(song, sampleRate)
	out, err := NewAudioOutput(sampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: audio device: %v\n", err)
		os.Exit(1)
	}
	out.SetSource(r)
	out.Start()
	defer out.Close()

	fmt.Println("playing, press enter to stop")
	fmt.Scanln()
}

func cmdExport(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: chiptool export <project.json> <song-id> <out-dir> [hybrid|prebaked]")
		os.Exit(1)
	}
	format := ExportHybrid
	if len(args) >= 4 && args[3] == "prebaked" {
		format = ExportPreBaked
	}

	p, err := LoadProjectFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
	authored, ok := p.Songs[args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "export: no such song %q\n", args[1])
		os.Exit(1)
	}
	authored.Bank = p.CompileBank()
	song, err := authored.Compile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: compile: %v\n", err)
		os.Exit(1)
	}

	const previewTicks = 60 * 60 // one minute ceiling for pre-baked export
	if err := ExportProjectC(args[2], args[1], song, p.Bank, format, previewTicks); err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("exported %s to %s\n", args[1], args[2])
}

func cmdAnalyze(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: chiptool analyze <project.json> <song-id>")
		os.Exit(1)
	}
	song, err := loadSong(args[0], args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}

	const sampleRate = 44100
	const analyzeSeconds = 30
	r := NewReplayer(song, sampleRate)
	buf := make([]float32, sampleRate*analyzeSeconds)
	r.RenderFrames(analyzeSeconds*TICK_RATE_HZ, buf)

	peaks := r.AnalyzePeakPercent()
	for ch, pct := range peaks {
		fmt.Printf("channel %d peak: %.1f%%\n", ch, pct)
	}
	offset := r.SuggestAttenuationOffset(95)
	fmt.Printf("suggested attenuation offset: %+d steps\n", offset)
}
