package plane

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	for _, l := range []Level{Level0, Level1} {
		assert.Equal(t, uint8(0b11)<<l.Shift(), l.ReadMask(), l.String())
	}
	assert.Equal(t, uint8(2), Level1.Shift())
	assert.Equal(t, 2, Levels)
}

func TestValidity(t *testing.T) {
	assert.True(t, Level0.IsValid())
	assert.True(t, Level1.IsValid())
	assert.False(t, Level(2).IsValid())
	assert.False(t, Level(-1).IsValid())
	assert.Equal(t, "level1", Level1.String())
	assert.Equal(t, "level(7)", Level(7).String())

	n, ok := Level0.Next()
	assert.True(t, ok)
	assert.Equal(t, Level1, n)
	_, ok = Level1.Next()
	assert.False(t, ok)
}

func TestSpliceExtract(t *testing.T) {
	for _, l := range []Level{Level0, Level1} {
		for c := 0; c < 256; c++ {
			for v := uint8(0); v < 4; v++ {
				out := l.Splice(uint8(c), v)
				assert.Equal(t, v, l.Extract(out))
				keep := ^l.ReadMask()
				// only the level's pair may change
				assert.Equal(t, uint8(c)&keep, out&keep)
				// the binmani splice agrees with the mask formula
				assert.Equal(t, (uint8(c)&keep)|(v<<l.Shift()), out)
			}
		}
	}
}

func TestSpliceIgnoresHighValueBits(t *testing.T) {
	assert.Equal(t, uint8(0b1111_1101), Level0.Splice(0xff, 0b1111_0001))
	assert.Equal(t, uint8(0b0000_0100), Level1.Splice(0x00, 0b0000_0101))
}
