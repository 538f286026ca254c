// mailbox.go - shared-RAM mailbox layout.
//
// Wire format, starting at Z80_MAILBOX_BASE inside the machine's RAM:
//
//	offset 0:        count (0..MAILBOX_MAX_COMMANDS)
//	offset 1..15:    MAILBOX_MAX_COMMANDS commands, 3 bytes each
//
// A command byte triple is {port, value, reserved}: port selects which PSG
// chip the driver should write value to (0 = noise, 1 = tone). The driver
// drains all `count` commands in order, writes them out, and clears count
// to 0 to signal it has caught up. The host never writes while count != 0.

package main

const (
	mailboxPortNoise = 0
	mailboxPortTone  = 1
)

// mailboxCommand is one queued PSG register write.
type mailboxCommand struct {
	port  byte
	value byte
}

func (c mailboxCommand) bytes() [3]byte {
	return [3]byte{c.port, c.value, 0}
}
