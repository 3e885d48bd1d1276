// Package plane defines the bit planes payload bits are spliced into.
//
// Every channel byte of a pixel carries two payload bits. Level0 uses bits 0-1 of the channel, Level1 the
// next pair up (bits 2-3). Both directions of the codec read their masks and shift from the same table.
package plane

import (
	"fmt"

	"github.com/zedseven/binmani"
)

// Level selects which pair of bits in a channel byte carries payload.
type Level int

const (
	Level0 Level = iota // Bits 0-1, the least-significant pair.
	Level1              // Bits 2-3.
	Levels int   = iota // The number of levels a carrier can be layered into.
)

// BitsPerChannel is the number of payload bits a channel byte holds at one level.
const BitsPerChannel uint8 = 2

type levelSpec struct {
	shift    uint8
	readMask uint8
}

var table = [Levels]levelSpec{
	Level0: {shift: 0, readMask: 0b0000_0011},
	Level1: {shift: 2, readMask: 0b0000_1100},
}

// IsValid reports whether l is one of the defined levels.
func (l Level) IsValid() bool {
	return l >= Level0 && int(l) < Levels
}

func (l Level) String() string {
	if !l.IsValid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return fmt.Sprintf("level%d", int(l))
}

// Shift is the bit offset of the level's pair inside a channel byte.
func (l Level) Shift() uint8 { return table[l].shift }

// ReadMask selects the level's bits of a channel byte.
func (l Level) ReadMask() uint8 { return table[l].readMask }

// Next returns the level above l, or false if l is the last one.
func (l Level) Next() (Level, bool) {
	n := l + 1
	return n, n.IsValid()
}

// Splice returns channel with the level's bit pair replaced by the low two bits of value.
// All other bits of the channel are left untouched.
func (l Level) Splice(channel, value uint8) uint8 {
	return uint8(binmani.WriteTo(uint16(channel), l.Shift(), BitsPerChannel, uint16(value)&0b11))
}

// Extract returns the two payload bits stored at the level in channel.
func (l Level) Extract(channel uint8) uint8 {
	return (channel & l.ReadMask()) >> l.Shift()
}
