// song.go - authored pattern/order-list data model.
//
// This is the editor-facing representation a project file stores; Compile
// flattens it into the flat per-channel byte-code a Replayer or the Z80
// driver actually consumes.

package main

import "fmt"

// Row is one step of a pattern for a single channel.
type Row struct {
	Note       int // 0 = rest row (compiles to a rest)
	Instrument int
	PitchBend  int // signed raw divider offset
	Expression int // 0..15, -1 = unset
}

// Pattern is a fixed-length sequence of rows for one channel.
type Pattern struct {
	Rows []Row
}

// OrderList is the sequence of pattern indices a channel plays in order,
// looping back to LoopIndex when it runs out.
type OrderList struct {
	Patterns  []int
	LoopIndex int
}

// AuthoredSong is the editable project-level song: one set of patterns and
// one order list per channel.
type AuthoredSong struct {
	Name      string
	TempoDivider int
	Patterns  [NUM_VOICES][]Pattern
	Orders    [NUM_VOICES]OrderList
	Bank      []BgmInstrumentDef
}

// rowTicks is the duration, in ticks, a single authored row occupies.
const rowTicks = 1

// Compile flattens the authored song into the flat byte-code Song the
// replayer and exporter consume.
func (a *AuthoredSong) Compile() (*Song, error) {
	song := &Song{Bank: a.Bank}
	for ch := 0; ch < NUM_VOICES; ch++ {
		data, loopOffset, hasLoop, err := a.compileChannel(ch)
		if err != nil {
			return nil, fmt.Errorf("song: channel %d: %w", ch, err)
		}
		song.Channels[ch] = data
		song.LoopOffsets[ch] = loopOffset
		song.HasLoop[ch] = hasLoop
	}
	return song, nil
}

// compileChannel emits one channel's byte-code stream and reports the
// stream offset its order list's loop point falls at, since the loop
// offset is export metadata rather than an in-stream instruction.
func (a *AuthoredSong) compileChannel(ch int) (data []byte, loopOffset int, hasLoop bool, err error) {
	var out []byte
	order := a.Orders[ch]
	patterns := a.Patterns[ch]

	if a.TempoDivider > 1 {
		out = append(out, opHostCmd, hostCmdSetSpeed, byte(clampInt(a.TempoDivider, 1, 255)))
	}

	lastInstrument := -1

	for i, patIdx := range order.Patterns {
		if patIdx < 0 || patIdx >= len(patterns) {
			return nil, 0, false, fmt.Errorf("order index %d references missing pattern %d", i, patIdx)
		}
		if i == order.LoopIndex {
			loopOffset = len(out)
			hasLoop = true
		}
		for _, row := range patterns[patIdx].Rows {
			if row.Instrument != lastInstrument && row.Note != 0 {
				out = append(out, opSetInst, byte(row.Instrument))
				lastInstrument = row.Instrument
			}
			if row.PitchBend != 0 {
				lo := byte(row.PitchBend)
				hi := byte(row.PitchBend >> 8)
				out = append(out, opPitchBend, lo, hi)
			}
			if row.Expression >= 0 {
				out = append(out, opSetExpr, byte(clampInt(row.Expression, 0, int(ATTN_MAX))))
			}
			switch {
			case row.Note > 0:
				out = append(out, byte(row.Note), byte(rowTicks))
			default:
				out = append(out, opRest, byte(rowTicks))
			}
		}
	}

	out = append(out, opEnd)
	return out, loopOffset, hasLoop, nil
}
