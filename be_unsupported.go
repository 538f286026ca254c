//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

package main

// Mailbox and note-table decoding read little-endian byte pairs directly;
// this module does not run on big-endian hosts.
var _ = "chiptool requires a little-endian architecture" + 1
