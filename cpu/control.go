package cpu

import (
	"lr35902/mask"
	"lr35902/mem"
)

// Step executes exactly one instruction -- the control unit's
// fetch/decode/execute cycle -- and returns the number of T-cycles it
// took. A HALT with no pending interrupt costs 4 cycles and fetches
// nothing. The EI-delay latch is advanced once per Step, before fetch, so
// EI sets IME at the start of the Step that runs the instruction following
// it (a caller sees IME set only once that Step returns), while DI is
// immediate.
func (c *CPU) Step() (uint8, error) {
	if c.halted {
		if !c.pendingInterrupt() {
			c.cycleCounter += 4
			return 4, nil
		}
		c.halted = false
	}

	// Advance the latch before fetching this Step's instruction: a bit set
	// by an EI in the previous Step is what actually flips IME on here, so
	// IME becomes true in the Step of the instruction following EI, not at
	// EI's own Step.
	c.advanceEILatch()

	opcode := c.fetchByte()
	// The HALT bug only withholds the PC increment for this one fetch: clear
	// it now so any operand bytes this opcode still has to fetch, and any
	// instruction that follows, advance PC normally.
	c.haltBug = false
	cycles, err := c.execute(opcode)
	if err != nil {
		return 0, err
	}
	if c.busErr != nil {
		err := c.busErr
		c.busErr = nil
		return 0, err
	}

	c.cycleCounter += uint64(cycles)
	return cycles, nil
}

// advanceEILatch implements the EI-delayed-by-one-instruction rule: EI
// sets bit 0 of the latch; the following Step's call to advanceEILatch
// (before that Step fetches its own instruction) shifts bit 0 into bit 1
// and flips IME on. DI bypasses the latch entirely (see the DI opcode
// handler), which is how DI ends up immediate.
func (c *CPU) advanceEILatch() {
	c.eiLatch = (c.eiLatch << 1) & 0x03
	if c.eiLatch&0x02 != 0 {
		c.ime = true
		c.eiLatch = 0
	}
}

func condTrue(c *CPU, cc byte) bool {
	switch cc & 0x03 {
	case 0:
		return !c.FlagZ()
	case 1:
		return c.FlagZ()
	case 2:
		return !c.FlagC()
	default:
		return c.FlagC()
	}
}

// execute dispatches a fetched primary opcode byte to its instruction
// handler. It never increments PC itself beyond what fetchByte/fetchWord
// already advanced while reading operands; it returns the instruction's
// actual cycle cost, accounting for taken/not-taken branches.
func (c *CPU) execute(op byte) (uint8, error) {
	switch mask.First(op, 2) {
	case 0b00:
		return c.executeMisc1(op)
	case 0b01:
		return c.executeLoad(op)
	case 0b10:
		return c.executeALU(op, c.readOperand8(op))
	default:
		return c.executeMisc2(op)
	}
}

// executeLoad handles the 0x40-0x7F block: 8-bit register-to-register
// (or (HL)) loads, except 0x76 which is HALT.
func (c *CPU) executeLoad(op byte) (uint8, error) {
	if op == 0x76 {
		return c.halt()
	}
	dst := op >> 3
	src := op
	v := c.readOperand8(src)
	c.writeOperand8(dst, v)
	if reg8(dst) == regIndHL || reg8(src) == regIndHL {
		return 8, nil
	}
	return 4, nil
}

func (c *CPU) halt() (uint8, error) {
	if !c.ime && c.pendingInterrupt() {
		// The HALT bug: the CPU does not actually halt, and the byte
		// following HALT is fetched again on the next Step (PC fails
		// to advance once).
		c.haltBug = true
	} else {
		c.halted = true
	}
	return 4, nil
}

// executeALU handles the 0x80-0xBF block: arithmetic/logic against A with
// operand resolved via the register-or-(HL) field in bits 2-0.
func (c *CPU) executeALU(op byte, operand byte) (uint8, error) {
	c.applyALUOp((op>>3)&0x07, operand)
	if reg8(op) == regIndHL {
		return 8, nil
	}
	return 4, nil
}

func (c *CPU) applyALUOp(subop byte, operand byte) {
	switch subop {
	case 0:
		c.add8(operand)
	case 1:
		c.adc(operand)
	case 2:
		c.sub8(operand)
	case 3:
		c.sbc(operand)
	case 4:
		c.and8(operand)
	case 5:
		c.xor8(operand)
	case 6:
		c.or8(operand)
	case 7:
		c.cp8(operand)
	}
}

// executeMisc1 handles the 0x00-0x3F block.
func (c *CPU) executeMisc1(op byte) (uint8, error) {
	switch {
	case op == 0x00: // NOP
		return 4, nil

	case op == 0x10: // STOP; the mandatory second byte is fetched and discarded
		c.fetchByte()
		c.stopped = true
		c.halted = true
		return 4, nil

	case op&0xCF == 0x01: // LD rr,d16
		rr := reg16(op >> 4)
		c.setReg16(rr, c.fetchWord())
		return 12, nil

	case op&0xCF == 0x02: // LD (BC/DE/HL+/HL-),A
		c.writeIndPair(op, c.a)
		return 8, nil

	case op&0xCF == 0x03: // INC rr
		rr := reg16(op >> 4)
		c.setReg16(rr, c.getReg16(rr)+1)
		return 8, nil

	case op&0xC7 == 0x04: // INC r
		field := op >> 3
		c.writeOperand8(field, c.inc8(c.readOperand8(field)))
		if reg8(field) == regIndHL {
			return 12, nil
		}
		return 4, nil

	case op&0xC7 == 0x05: // DEC r
		field := op >> 3
		c.writeOperand8(field, c.dec8(c.readOperand8(field)))
		if reg8(field) == regIndHL {
			return 12, nil
		}
		return 4, nil

	case op&0xC7 == 0x06: // LD r,d8
		field := op >> 3
		c.writeOperand8(field, c.fetchByte())
		if reg8(field) == regIndHL {
			return 12, nil
		}
		return 8, nil

	case op&0xCF == 0x09: // ADD HL,rr
		rr := reg16(op >> 4)
		c.addHL(c.getReg16(rr))
		return 8, nil

	case op&0xCF == 0x0A: // LD A,(BC/DE/HL+/HL-)
		c.a = c.readIndPair(op)
		return 8, nil

	case op&0xCF == 0x0B: // DEC rr
		rr := reg16(op >> 4)
		c.setReg16(rr, c.getReg16(rr)-1)
		return 8, nil

	case op == 0x07:
		c.rlca()
		return 4, nil
	case op == 0x0F:
		c.rrca()
		return 4, nil
	case op == 0x17:
		c.rla()
		return 4, nil
	case op == 0x1F:
		c.rra()
		return 4, nil

	case op == 0x18: // JR e8
		offset := c.fetchSigned8()
		c.jumpRelative(offset)
		return 12, nil

	case op&0xE7 == 0x20: // JR cc,e8
		cc := (op >> 3) & 0x03
		offset := c.fetchSigned8()
		if condTrue(c, cc) {
			c.jumpRelative(offset)
			return 12, nil
		}
		return 8, nil

	case op == 0x27:
		c.daa()
		return 4, nil
	case op == 0x2F:
		c.cpl()
		return 4, nil
	case op == 0x37:
		c.scf()
		return 4, nil
	case op == 0x3F:
		c.ccf()
		return 4, nil

	case op == 0x08: // LD (nn),SP
		c.writeWord(c.fetchWord(), c.sp)
		return 20, nil
	}

	return 0, UnknownOpcode{Byte: op}
}

// writeIndPair writes v through the auto-pointer slot named by bits 5-4 of
// op: BC, DE, (HL+), (HL-). HL is updated exactly once, after the access.
func (c *CPU) writeIndPair(op byte, v byte) {
	switch (op >> 4) & 0x03 {
	case 0:
		c.writeByte(c.BC(), v)
	case 1:
		c.writeByte(c.DE(), v)
	case 2:
		hl := c.HL()
		c.writeByte(hl, v)
		c.SetHL(hl + 1)
	case 3:
		hl := c.HL()
		c.writeByte(hl, v)
		c.SetHL(hl - 1)
	}
}

func (c *CPU) readIndPair(op byte) byte {
	switch (op >> 4) & 0x03 {
	case 0:
		return c.readByte(c.BC())
	case 1:
		return c.readByte(c.DE())
	case 2:
		hl := c.HL()
		v := c.readByte(hl)
		c.SetHL(hl + 1)
		return v
	default:
		hl := c.HL()
		v := c.readByte(hl)
		c.SetHL(hl - 1)
		return v
	}
}

// jumpRelative applies a signed displacement to PC. The displacement is
// added after the operand byte itself has already been fetched (PC
// already points past it).
func (c *CPU) jumpRelative(offset int8) {
	c.pc = uint16(int32(c.pc) + int32(offset))
}

// executeMisc2 handles the 0xC0-0xFF block.
func (c *CPU) executeMisc2(op byte) (uint8, error) {
	switch {
	case op&0xE7 == 0xC0: // RET cc
		cc := (op >> 3) & 0x03
		if condTrue(c, cc) {
			c.pc = c.popWord()
			return 20, nil
		}
		return 8, nil

	case op&0xCF == 0xC1: // POP rr (BC,DE,HL,AF)
		rr := reg16Push(op >> 4)
		c.setReg16(rr, c.popWord())
		return 12, nil

	case op&0xCF == 0xC5: // PUSH rr (BC,DE,HL,AF)
		rr := reg16Push(op >> 4)
		c.pushWord(c.getReg16(rr))
		return 16, nil

	case op&0xE7 == 0xC2: // JP cc,nn
		cc := (op >> 3) & 0x03
		addr := c.fetchWord()
		if condTrue(c, cc) {
			c.pc = addr
			return 16, nil
		}
		return 12, nil

	case op == 0xC3: // JP nn
		c.pc = c.fetchWord()
		return 16, nil

	case op == 0xE9: // JP (HL)
		c.pc = c.HL()
		return 4, nil

	case op&0xE7 == 0xC4: // CALL cc,nn
		cc := (op >> 3) & 0x03
		addr := c.fetchWord()
		if condTrue(c, cc) {
			c.pushWord(c.pc)
			c.pc = addr
			return 24, nil
		}
		return 12, nil

	case op == 0xCD: // CALL nn
		addr := c.fetchWord()
		c.pushWord(c.pc)
		c.pc = addr
		return 24, nil

	case op&0xC7 == 0xC7: // RST n
		vector := uint16(op & 0x38)
		c.pushWord(c.pc)
		c.pc = vector
		return 16, nil

	case op == 0xC9: // RET
		c.pc = c.popWord()
		return 16, nil

	case op == 0xD9: // RETI -- IME set immediately, no EI-style delay
		c.pc = c.popWord()
		c.ime = true
		return 16, nil

	case op&0xC7 == 0xC6: // ALU A,d8 (0xC6,CE,D6,DE,E6,EE,F6,FE)
		subop := (op >> 3) & 0x07
		c.applyALUOp(subop, c.fetchByte())
		return 8, nil

	case op == 0xCB:
		return c.executeCB()

	case op == 0xE0: // LDH (n),A
		offset := c.fetchByte()
		c.Bus.WriteZeroPage(offset, c.a)
		c.checkFault(mem.ZeroPageBase + uint16(offset))
		return 12, nil

	case op == 0xF0: // LDH A,(n)
		offset := c.fetchByte()
		c.a = c.Bus.ReadZeroPage(offset)
		c.checkFault(mem.ZeroPageBase + uint16(offset))
		return 12, nil

	case op == 0xE2: // LD (C),A
		c.Bus.WriteZeroPage(c.c, c.a)
		c.checkFault(mem.ZeroPageBase + uint16(c.c))
		return 8, nil

	case op == 0xF2: // LD A,(C)
		c.a = c.Bus.ReadZeroPage(c.c)
		c.checkFault(mem.ZeroPageBase + uint16(c.c))
		return 8, nil

	case op == 0xEA: // LD (nn),A
		c.writeByte(c.fetchWord(), c.a)
		return 16, nil

	case op == 0xFA: // LD A,(nn)
		c.a = c.readByte(c.fetchWord())
		return 16, nil

	case op == 0xE8: // ADD SP,e8
		offset := c.fetchSigned8()
		c.sp = c.addSPSigned(offset)
		return 16, nil

	case op == 0xF8: // LD HL,SP+e8
		offset := c.fetchSigned8()
		c.SetHL(c.addSPSigned(offset))
		return 12, nil

	case op == 0xF9: // LD SP,HL
		c.sp = c.HL()
		return 8, nil

	case op == 0xF3: // DI -- immediate, bypasses the EI latch entirely
		c.ime = false
		c.eiLatch = 0
		return 4, nil

	case op == 0xFB: // EI
		c.eiLatch |= 0x01
		return 4, nil
	}

	return 0, UnknownOpcode{Byte: op}
}

// executeCB fetches the second opcode byte of a CB-prefixed instruction
// and dispatches it. Bits 7-6 select the instruction family, bits 5-3
// either a sub-op (rotate/shift miscellany) or a bit index, and bits 2-0
// the operand register (110 meaning (HL)).
func (c *CPU) executeCB() (uint8, error) {
	op := c.fetchByte()
	field := op
	bit := (op >> 3) & 0x07

	baseCycles := func() uint8 {
		if reg8(field) == regIndHL {
			return 16
		}
		return 8
	}

	switch mask.First(op, 2) {
	case 0b00: // rotate/shift miscellany
		v := c.readOperand8(field)
		var result byte
		var carryOut bool
		switch bit {
		case 0:
			result, carryOut = rlc(v)
		case 1:
			result, carryOut = rrc(v)
		case 2:
			result, carryOut = rl(v, c.FlagC())
		case 3:
			result, carryOut = rr(v, c.FlagC())
		case 4:
			result, carryOut = sla(v)
		case 5:
			result, carryOut = sra(v)
		case 6:
			result, carryOut = swap(v), false
		case 7:
			result, carryOut = srl(v)
		}
		c.writeOperand8(field, result)
		c.setFlag(FlagZ, result == 0)
		c.setFlag(FlagN, false)
		c.setFlag(FlagH, false)
		c.setFlag(FlagC, carryOut)
		return baseCycles(), nil

	case 0b01: // BIT n,r
		v := c.readOperand8(field)
		c.setFlag(FlagZ, !mask.Bit(v, bit))
		c.setFlag(FlagN, false)
		c.setFlag(FlagH, true)
		if reg8(field) == regIndHL {
			return 12, nil
		}
		return 8, nil

	case 0b10: // RES n,r
		v := c.readOperand8(field)
		c.writeOperand8(field, mask.ClearBit(v, bit))
		return baseCycles(), nil

	default: // SET n,r
		v := c.readOperand8(field)
		c.writeOperand8(field, mask.SetBit(v, bit))
		return baseCycles(), nil
	}
}
