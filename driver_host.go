// driver_host.go - host-side mailbox transaction API.
//
// The host never blocks on a busy driver: buffer_commit drops the whole
// pending batch if the driver hasn't cleared the previous one, at once
// when dropIfBusy is set and otherwise within spinLimit polls. This mirrors a real-time audio callback that would
// rather skip a frame of register writes than stall.

package main

import "sync/atomic"

// DriverHost mediates mailbox access between the tool and a running
// Z80Machine, providing the transactional buffer_begin/push/commit API.
type DriverHost struct {
	machine *Z80Machine

	pending []mailboxCommand
	dropped atomic.Uint64
}

// NewDriverHost wraps machine; the caller is responsible for having loaded
// BuildDriverImage() and called machine.Reset() already.
func NewDriverHost(machine *Z80Machine) *DriverHost {
	return &DriverHost{machine: machine}
}

// BufferBegin starts a new batch of up to MAILBOX_MAX_COMMANDS writes.
func (h *DriverHost) BufferBegin() {
	h.pending = h.pending[:0]
}

// BufferPush queues one register write. Pushing beyond the mailbox's
// capacity silently drops the overflow command; batches are built from
// fixed-size per-tick voice output, so this should never be reached in
// practice.
func (h *DriverHost) BufferPush(port byte, value byte) {
	if len(h.pending) >= MAILBOX_MAX_COMMANDS {
		return
	}
	h.pending = append(h.pending, mailboxCommand{port: port, value: value})
}

// BufferCommit publishes the pending batch to the mailbox. If the driver
// is still busy, the whole batch is discarded and the drop counter
// increments instead of blocking the caller: at once when dropIfBusy is
// true, otherwise after spinLimit polls that still find the count nonzero.
func (h *DriverHost) BufferCommit(dropIfBusy bool, spinLimit int) bool {
	if len(h.pending) == 0 {
		return true
	}
	for spins := 0; h.machine.ReadMailboxByte(0) != 0; spins++ {
		if dropIfBusy || spins >= spinLimit {
			h.pending = h.pending[:0]
			h.dropped.Add(1)
			return false
		}
	}
	for i, cmd := range h.pending {
		b := cmd.bytes()
		h.machine.WriteMailboxByte(1+i*MAILBOX_COMMAND_SIZE+0, b[0])
		h.machine.WriteMailboxByte(1+i*MAILBOX_COMMAND_SIZE+1, b[1])
		h.machine.WriteMailboxByte(1+i*MAILBOX_COMMAND_SIZE+2, b[2])
	}
	h.machine.WriteMailboxByte(0, byte(len(h.pending)))
	return true
}

// DroppedCommits reports how many batches BufferCommit has discarded.
func (h *DriverHost) DroppedCommits() uint64 {
	return h.dropped.Load()
}

// PlayTone writes a full tone register update: latch+low nibble, then the
// high 6 bits of the divider, then the channel's attenuation.
func (h *DriverHost) PlayTone(channel int, divider uint16, attn uint8) {
	low := byte(divider & 0x0F)
	high := byte((divider >> 4) & 0x3F)
	h.BufferPush(mailboxPortTone, 0x80|byte(channel<<5)|low)
	h.BufferPush(mailboxPortTone, high)
	h.BufferPush(mailboxPortTone, 0x90|byte(channel<<5)|(attn&0x0F))
}

func (h *DriverHost) PlayNoise(control byte, attn uint8) {
	h.BufferPush(mailboxPortNoise, 0x80|(control&0x07))
	h.BufferPush(mailboxPortNoise, 0x90|(attn&0x0F))
}

func (h *DriverHost) SilenceTone(channel int) {
	h.BufferPush(mailboxPortTone, 0x90|byte(channel<<5)|ATTN_MAX)
}

func (h *DriverHost) SilenceNoise() {
	h.BufferPush(mailboxPortNoise, 0x90|ATTN_MAX)
}

func (h *DriverHost) SilenceAll() {
	for ch := 0; ch < 3; ch++ {
		h.SilenceTone(ch)
	}
	h.SilenceNoise()
}
