// driver_image.go - the fixed Z80 polling driver.
//
// Hand-assembled Z80 machine code. Layout:
//
//	0        JP start                  ; 3 bytes
//	3..18    mailbox region            ; 16 bytes, see mailbox.go
//	19       start: DI
//	         LD SP,0x1000
//	23 wait: LD A,(3)                  ; mailbox count byte
//	         OR A
//	         JR Z,wait
//	         LD D,A                    ; D = remaining command count
//	         LD HL,4                   ; first command's port byte
//	33 drain:LD A,(HL)                 ; port selector: 0=noise, 1=tone
//	         LD C,A
//	         LD B,0x40                 ; port = 0x4000 + selector
//	         INC HL
//	         LD A,(HL)                 ; value byte
//	         INC HL
//	         INC HL                    ; skip reserved byte
//	         OUT (C),A
//	         DEC D
//	         JR NZ,drain
//	         XOR A
//	         LD (3),A                  ; clear count: driver has caught up
//	         JR wait
//
// BuildDriverImage regenerates these bytes from the Z80 mnemonics above
// rather than storing a magic blob, so the layout comment above stays the
// source of truth.
package main

func BuildDriverImage() []byte {
	img := make([]byte, 0, 64)

	// JP start (start = Z80_DRIVER_ENTRY)
	img = append(img, 0xC3, byte(Z80_DRIVER_ENTRY), byte(Z80_DRIVER_ENTRY>>8))

	// Mailbox region reserved as zero; populated at runtime via
	// Z80Machine.WriteMailboxByte.
	for len(img) < Z80_MAILBOX_BASE+MAILBOX_SIZE {
		img = append(img, 0)
	}

	waitAddr := len(img) + 4 // DI (1) + LD SP,nn (3) land us at "wait"
	img = append(img,
		0xF3,             // DI
		0x31, 0x00, 0x10, // LD SP,0x1000
	)

	img = append(img,
		0x3A, Z80_MAILBOX_BASE, 0x00, // LD A,(mailbox count)
		0xB7, // OR A
	)
	img = append(img, 0x28, relJR(len(img)+2, waitAddr)) // JR Z,wait

	img = append(img,
		0x57,             // LD D,A
		0x21, Z80_MAILBOX_BASE+1, 0x00, // LD HL,mailbox+1
	)

	drainAddr := len(img)
	img = append(img,
		0x7E,       // LD A,(HL)
		0x4F,       // LD C,A
		0x06, 0x40, // LD B,0x40
		0x23, // INC HL
		0x7E, // LD A,(HL)
		0x23, // INC HL
		0x23, // INC HL
		0xED, 0x79, // OUT (C),A
		0x15, // DEC D
	)
	img = append(img, 0x20, relJR(len(img)+2, drainAddr)) // JR NZ,drain

	img = append(img,
		0xAF,                          // XOR A
		0x32, Z80_MAILBOX_BASE, 0x00, // LD (mailbox count),A
	)
	img = append(img, 0x18, relJR(len(img)+2, waitAddr)) // JR wait

	return img
}

// relJR computes the signed 8-bit displacement for a JR/JR cc instruction
// whose opcode+operand occupy [pcAfter-2, pcAfter), jumping to target.
func relJR(pcAfter, target int) byte {
	d := target - pcAfter
	if d < -128 || d > 127 {
		panic("driver_image: relative jump out of range")
	}
	return byte(int8(d))
}
