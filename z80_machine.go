// z80_machine.go - minimal Z80 coprocessor wired to the PSG mixer.
//
// The machine owns a flat 4KiB RAM (the mailbox lives inside it, see
// mailbox.go) and exposes two write-only I/O ports: 0x4000 writes a byte to
// the noise chip, 0x4001 writes a byte to the tone chip. Everything else on
// the bus reads back zero / discards writes, matching a real polling driver
// that never touches unmapped space.

package main

import "sync"

// Z80Machine implements Z80Bus and drives a CPU_Z80 against RAM + the PSG.
type Z80Machine struct {
	mu  sync.Mutex
	ram [Z80_RAM_SIZE]byte

	cpu   *CPU_Z80
	mixer *PSGMixer
}

// NewZ80Machine constructs a machine over zeroed RAM whose CPU is already
// reset to run from address 0; Load installs a program.
func NewZ80Machine(mixer *PSGMixer) *Z80Machine {
	m := &Z80Machine{mixer: mixer}
	m.cpu = NewCPU_Z80(m)
	return m
}

// Load installs program at address 0 of RAM, zeroing the rest.
func (m *Z80Machine) Load(program []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.ram {
		m.ram[i] = 0
	}
	copy(m.ram[:], program)
}

// Reset reinitialises the CPU to run from address 0.
func (m *Z80Machine) Reset() {
	m.cpu.Reset()
}

// StepCycles advances the CPU by at least n cycles.
func (m *Z80Machine) StepCycles(n int) {
	m.cpu.StepCycles(n)
}

// RequestIRQ forwards to the CPU's SetIRQLine, which is a no-op: the CPU
// core does not service maskable interrupts.
func (m *Z80Machine) RequestIRQ() {
	m.cpu.SetIRQLine(true)
}

// RequestNMI forwards to the CPU's SetNMILine, which is a no-op: the CPU
// core does not service non-maskable interrupts.
func (m *Z80Machine) RequestNMI() {
	m.cpu.SetNMILine(true)
}

// WriteMailboxByte pokes a byte directly into RAM at the mailbox region,
// used by the host to hand commands to the driver without going through
// the CPU's own bus (the host and CPU never run concurrently on the same
// tick in the tool-side replayer).
func (m *Z80Machine) WriteMailboxByte(offset int, value byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ram[Z80_MAILBOX_BASE+offset] = value
}

func (m *Z80Machine) ReadMailboxByte(offset int) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ram[Z80_MAILBOX_BASE+offset]
}

// --- Z80Bus ---

func (m *Z80Machine) Read(addr uint16) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(addr) < len(m.ram) {
		return m.ram[addr]
	}
	return 0
}

func (m *Z80Machine) Write(addr uint16, value byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(addr) < len(m.ram) {
		m.ram[addr] = value
	}
}

func (m *Z80Machine) In(port uint16) byte {
	return 0
}

func (m *Z80Machine) Out(port uint16, value byte) {
	switch port {
	case Z80_PORT_NOISE:
		m.mixer.WriteNoise(value)
	case Z80_PORT_TONE:
		m.mixer.WriteTone(value)
	}
}

func (m *Z80Machine) Tick(cycles int) {}
