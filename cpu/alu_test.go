package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lr35902/mem"
)

func newTestCPU() *CPU {
	return New(mem.NewRAM())
}

func TestAdd8Scenarios(t *testing.T) {
	// A=0x3A, B=0xC6, ADD A,B -> A=0x00, Z=1, N=0, H=1, C=1.
	c := newTestCPU()
	c.SetA(0x3A)
	c.add8(0xC6)
	assert.Equal(t, byte(0x00), c.A())
	assert.True(t, c.FlagZ())
	assert.False(t, c.FlagN())
	assert.True(t, c.FlagH())
	assert.True(t, c.FlagC())
}

func TestSub8Scenarios(t *testing.T) {
	// A=0x3E, SUB 0x3E -> A=0x00, Z=1, N=1, H=0, C=0.
	c := newTestCPU()
	c.SetA(0x3E)
	c.sub8(0x3E)
	assert.Equal(t, byte(0x00), c.A())
	assert.True(t, c.FlagZ())
	assert.True(t, c.FlagN())
	assert.False(t, c.FlagH())
	assert.False(t, c.FlagC())

	// A=0x01, SUB 0x02 -> A=0xFF, Z=0, N=1, H=1, C=1.
	c2 := newTestCPU()
	c2.SetA(0x01)
	c2.sub8(0x02)
	assert.Equal(t, byte(0xFF), c2.A())
	assert.False(t, c2.FlagZ())
	assert.True(t, c2.FlagN())
	assert.True(t, c2.FlagH())
	assert.True(t, c2.FlagC())
}

func TestDAAScenario(t *testing.T) {
	// A=0x45, B=0x38, ADD A,B; DAA -> A=0x83, Z=0, N=0, H=0, C=0.
	c := newTestCPU()
	c.SetA(0x45)
	c.add8(0x38)
	c.daa()
	assert.Equal(t, byte(0x83), c.A())
	assert.False(t, c.FlagZ())
	assert.False(t, c.FlagN())
	assert.False(t, c.FlagH())
	assert.False(t, c.FlagC())
}

// bcdToByte packs two base-10 digits (each 0-9) into a BCD byte.
func bcdToByte(tens, ones int) byte {
	return byte(tens<<4 | ones)
}

func TestDAARoundTripProperty(t *testing.T) {
	for x := 0; x < 100; x++ {
		for y := 0; y < 100; y++ {
			c := newTestCPU()
			c.SetA(bcdToByte(x/10, x%10))
			c.add8(bcdToByte(y/10, y%10))
			c.daa()

			sum := x + y
			wantCarry := sum >= 100
			wantBCD := bcdToByte((sum%100)/10, (sum%100)%10)

			assert.Equal(t, wantBCD, c.A(), "x=%d y=%d", x, y)
			assert.Equal(t, wantCarry, c.FlagC(), "x=%d y=%d", x, y)
		}
	}
}

func TestIncDecPreserveCarry(t *testing.T) {
	for _, carry := range []bool{true, false} {
		c := newTestCPU()
		c.setFlag(FlagC, carry)
		c.inc8(0xFF)
		assert.Equal(t, carry, c.FlagC())

		c2 := newTestCPU()
		c2.setFlag(FlagC, carry)
		c2.dec8(0x00)
		assert.Equal(t, carry, c2.FlagC())
	}
}

func TestIncDecFlags(t *testing.T) {
	c := newTestCPU()
	result := c.inc8(0x0F)
	assert.Equal(t, byte(0x10), result)
	assert.True(t, c.FlagH())
	assert.False(t, c.FlagZ())
	assert.False(t, c.FlagN())

	result = c.dec8(0x01)
	assert.Equal(t, byte(0x00), result)
	assert.True(t, c.FlagZ())
	assert.True(t, c.FlagN())
}

func TestAddHLFlagsPreserveZ(t *testing.T) {
	c := newTestCPU()
	c.setFlag(FlagZ, true)
	c.SetHL(0x0FFF)
	c.addHL(0x0001)
	assert.Equal(t, uint16(0x1000), c.HL())
	assert.True(t, c.FlagH())
	assert.False(t, c.FlagC())
	assert.True(t, c.FlagZ(), "addHL must not touch Z")
}

func TestAddSPSignedNegativeOffset(t *testing.T) {
	c := newTestCPU()
	c.SetSP(0x0005)
	result := c.addSPSigned(-1)
	assert.Equal(t, uint16(0x0004), result)
}

func TestRotatesAlwaysClearZ(t *testing.T) {
	// A=0x80, RLCA -> A=0x01, C=1, Z=0 even though result is nonzero here,
	// and also when the rotated result would be zero.
	c := newTestCPU()
	c.SetA(0x80)
	c.rlca()
	assert.Equal(t, byte(0x01), c.A())
	assert.True(t, c.FlagC())
	assert.False(t, c.FlagZ())

	c2 := newTestCPU()
	c2.SetA(0x00)
	c2.rlca()
	assert.Equal(t, byte(0x00), c2.A())
	assert.False(t, c2.FlagZ(), "RLCA must clear Z even when A ends up zero")
}

func TestPrefixedRLCOfZero(t *testing.T) {
	result, carryOut := rlc(0x00)
	assert.Equal(t, byte(0x00), result)
	assert.False(t, carryOut)
}

func TestSwapExchangesNibbles(t *testing.T) {
	assert.Equal(t, byte(0x21), swap(0x12))
}
