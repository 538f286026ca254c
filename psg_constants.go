// psg_constants.go - PSG, mailbox and tick constants shared across the core.

package main

const (
	// PSG_CLOCK_HZ is the T6W28 master clock. Audible frequency for a
	// divider d is PSG_CLOCK_HZ / (32 * d).
	PSG_CLOCK_HZ = 3_072_000

	// TONE_DIVIDER_MIN/MAX bound the 10-bit tone/noise-rate-3 divider.
	TONE_DIVIDER_MIN = 1
	TONE_DIVIDER_MAX = 1023

	// ATTN_MIN/MAX bound the 4-bit attenuation (0 = loudest, 15 = silent).
	ATTN_MIN = 0
	ATTN_MAX = 15

	// TICK_RATE_HZ is the music scheduler's frame rate.
	TICK_RATE_HZ = 60

	// Channels per song/voice set: 0,1,2 are tone; 3 is noise.
	CHAN_TONE0 = 0
	CHAN_TONE1 = 1
	CHAN_TONE2 = 2
	CHAN_NOISE = 3
	NUM_VOICES = 4

	// Noise configuration bit layout: {rate:2, type:1}.
	NOISE_RATE_HIGH   = 0
	NOISE_RATE_MEDIUM = 1
	NOISE_RATE_LOW    = 2
	NOISE_RATE_TONE2  = 3

	NOISE_TYPE_PERIODIC = 0
	NOISE_TYPE_WHITE    = 1

	// NOTE_TABLE_ENTRIES is the number of note-to-divider slots; note bytes
	// 1..=50 index into it (entry 0 is unused/reserved), and note byte 51
	// has no slot.
	NOTE_TABLE_ENTRIES = 51
	NOTE_TABLE_BYTES   = NOTE_TABLE_ENTRIES * 2

	// Mailbox layout: one count byte followed by 5 three-byte commands.
	MAILBOX_MAX_COMMANDS = 5
	MAILBOX_COMMAND_SIZE = 3
	MAILBOX_SIZE         = 1 + MAILBOX_MAX_COMMANDS*MAILBOX_COMMAND_SIZE

	// Z80 machine memory map.
	Z80_RAM_SIZE      = 0x1000
	Z80_MAILBOX_BASE  = 3
	Z80_PORT_NOISE    = 0x4000
	Z80_PORT_TONE     = 0x4001
	Z80_MAILBOX_BYTE  = 0x8000
	Z80_DRIVER_ENTRY  = 19
)
