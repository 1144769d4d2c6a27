package cpu

import "fmt"

// UnknownOpcode is returned by Step when the fetched byte (or, if
// Prefixed, the byte following a CB prefix) does not correspond to any
// defined instruction. It is fatal: the engine does not attempt recovery,
// the embedder is responsible for diagnosing.
type UnknownOpcode struct {
	Byte     byte
	Prefixed bool
}

func (e UnknownOpcode) Error() string {
	if e.Prefixed {
		return fmt.Sprintf("cpu: unknown prefixed opcode CB %02X", e.Byte)
	}
	return fmt.Sprintf("cpu: unknown opcode %02X", e.Byte)
}

// BusFault is returned by Step when the memory bus reports an unmapped
// access (via mem.Faulting) during the current instruction. The core does
// not attempt to recover; the underlying error is preserved in Err.
type BusFault struct {
	Addr uint16
	Err  error
}

func (e BusFault) Error() string {
	return fmt.Sprintf("cpu: bus fault at %04X: %v", e.Addr, e.Err)
}

func (e BusFault) Unwrap() error { return e.Err }
