package cggtts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	assert.Equal(t, byte(0x00), Checksum(""))
	assert.Equal(t, byte(0x41), Checksum("A"))
	// 0x41+0x42+0x43 = 0xc6
	assert.Equal(t, byte(0xc6), Checksum("ABC"))
	// sums wrap at 256: four '@' (0x40) add 0x100
	assert.Equal(t, Checksum("ABC"), Checksum("ABC@@@@"))
}

func TestFormatParseCK(t *testing.T) {
	assert.Equal(t, "c6", formatCK(0xc6))
	assert.Equal(t, "05", formatCK(0x05))

	ck, err := parseCK("c6")
	assert.NoError(t, err)
	assert.Equal(t, byte(0xc6), ck)

	// uppercase is accepted on read
	ck, err = parseCK("C6")
	assert.NoError(t, err)
	assert.Equal(t, byte(0xc6), ck)

	_, err = parseCK("zz")
	assert.Error(t, err)
}
