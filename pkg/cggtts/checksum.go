package cggtts

import (
	"fmt"
	"strconv"
)

// Checksum returns the BIPM CK value for s: the sum of all ASCII bytes,
// modulo 256. Line terminators never take part in the sum, so files with
// CRLF and LF endings carry identical checksums.
func Checksum(s string) byte {
	var sum int
	for i := 0; i < len(s); i++ {
		sum += int(s[i])
	}
	return byte(sum % 256)
}

// formatCK formats a CK value as two lowercase hex digits.
func formatCK(ck byte) string {
	return fmt.Sprintf("%02x", ck)
}

// parseCK parses a two digit hex CK value, accepting both cases.
func parseCK(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("parse CK: %q: %v", s, err)
	}
	return byte(v), nil
}
