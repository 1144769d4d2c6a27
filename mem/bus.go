// Package mem provides the memory bus contract consumed by the CPU core,
// plus a flat-RAM reference implementation suitable for tests and the CLI.
//
// The core never talks to memory directly; it talks to whatever the
// embedder plugs in behind MemoryBus (cartridge, PPU/APU registers, boot
// ROM, high RAM, ...). This package only supplies the interface and a
// trivial backing store, keeping "the wiring" (this package) separate
// from "the thing wired" (the CPU).
package mem

// ZeroPageBase is the first address of the zero-page window used by LDH
// forms and by LD (C),A / LD A,(C).
const ZeroPageBase = 0xFF00

// A MemoryBus is the 16-bit address space the CPU core reads and writes.
// All word accesses are little-endian: the low byte lives at addr, the
// high byte at addr+1.
type MemoryBus interface {
	ReadByte(addr uint16) byte
	WriteByte(addr uint16, value byte)

	ReadWord(addr uint16) uint16
	WriteWord(addr uint16, value uint16)

	// ReadZeroPage and WriteZeroPage access the 0xFF00+offset window
	// used by LDH and by LD (C),A / LD A,(C).
	ReadZeroPage(offset byte) byte
	WriteZeroPage(offset byte, value byte)
}

// Faulting is an optional capability a MemoryBus implementation can
// support to report an unmapped access. The core checks for this
// interface after every access an instruction makes and, if present and
// LastFault returns a
// non-nil error, surfaces it as a BusFault instead of continuing -- see
// cpu.BusFault.
type Faulting interface {
	LastFault() error
}

// RAM is a flat, fully-mapped 64 kB address space. It never faults (every
// address is backed by a byte of storage), which makes it suitable for
// unit tests and for running freestanding binary images from the CLI
// without any peripheral wiring.
type RAM struct {
	data [65536]byte
}

// NewRAM returns a zeroed 64 kB address space.
func NewRAM() *RAM {
	return &RAM{}
}

func (r *RAM) ReadByte(addr uint16) byte {
	return r.data[addr]
}

func (r *RAM) WriteByte(addr uint16, value byte) {
	r.data[addr] = value
}

// ReadWord reads a little-endian 16-bit value: low byte at addr, high byte
// at addr+1 (wrapping per the 16-bit address space, as on real hardware).
func (r *RAM) ReadWord(addr uint16) uint16 {
	lo := r.data[addr]
	hi := r.data[addr+1]
	return uint16(hi)<<8 | uint16(lo)
}

// WriteWord writes a little-endian 16-bit value: low byte at addr, high
// byte at addr+1.
func (r *RAM) WriteWord(addr uint16, value uint16) {
	r.data[addr] = byte(value)
	r.data[addr+1] = byte(value >> 8)
}

func (r *RAM) ReadZeroPage(offset byte) byte {
	return r.data[ZeroPageBase+uint16(offset)]
}

func (r *RAM) WriteZeroPage(offset byte, value byte) {
	r.data[ZeroPageBase+uint16(offset)] = value
}

// LoadAt copies program into the address space starting at addr, for
// tests and for the CLI's flat-binary loader.
func (r *RAM) LoadAt(addr uint16, program []byte) {
	for i, b := range program {
		r.data[addr+uint16(i)] = b
	}
}

// Bytes exposes the backing array, for debugger inspection. It returns a
// pointer, so writes through it change the RAM's contents.
func (r *RAM) Bytes() *[65536]byte {
	return &r.data
}
