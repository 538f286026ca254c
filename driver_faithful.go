// driver_faithful.go - preview path that runs audio through the real
// polling driver image on the emulated Z80, for bit-exactness checks
// against the tool-side Replayer.

package main

// DriverFaithfulSource implements FrameSource by stepping a Z80Machine
// running BuildDriverImage() for the cycle-equivalent of the requested
// sample count, then reading back whatever the driver wrote to the shared
// PSGMixer. The driver never enables interrupts: it is a tight polling
// loop, so there is nothing to schedule beyond raw cycle stepping.
type DriverFaithfulSource struct {
	machine    *Z80Machine
	mixer      *PSGMixer
	sampleRate int
}

// NewDriverFaithfulSource builds a machine loaded with the fixed driver
// image, reset and ready to run.
func NewDriverFaithfulSource(mixer *PSGMixer, sampleRate int) *DriverFaithfulSource {
	machine := NewZ80Machine(mixer)
	machine.Load(BuildDriverImage())
	machine.Reset()
	return &DriverFaithfulSource{
		machine:    machine,
		mixer:      mixer,
		sampleRate: sampleRate,
	}
}

// Machine exposes the underlying Z80Machine so a DriverHost can be wired
// to it for pushing mailbox commands.
func (d *DriverFaithfulSource) Machine() *Z80Machine {
	return d.machine
}

// FillSamples steps the Z80 the cycle-equivalent of len(out) samples, then
// renders from the mixer the driver is writing into.
func (d *DriverFaithfulSource) FillSamples(out []float32) {
	cycles := len(out) * PSG_CLOCK_HZ / d.sampleRate
	d.machine.StepCycles(cycles)
	d.mixer.RenderSamples(out)
}
