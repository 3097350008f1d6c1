package cggtts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUintField(t *testing.T) {
	v, err := parseUintField("MJD", 7, "59568")
	assert.NoError(t, err)
	assert.Equal(t, int64(59568), v)

	_, err = parseUintField("MJD", 7, "5956x")
	var fe *FieldError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, "MJD", fe.Field)
	assert.Equal(t, 7, fe.Column)

	// embedded signs and blanks are rejected
	_, err = parseUintField("DSG", 0, " 123")
	assert.Error(t, err)
	_, err = parseUintField("DSG", 0, "-123")
	assert.Error(t, err)
}

func TestParseSignedField(t *testing.T) {
	v, err := parseSignedField("REFSV", 34, "+0000123456")
	assert.NoError(t, err)
	assert.Equal(t, int64(123456), v)

	v, err = parseSignedField("SRSV", 46, "-00042")
	assert.NoError(t, err)
	assert.Equal(t, int64(-42), v)

	_, err = parseSignedField("REFSV", 34, "00001234567")
	assert.Error(t, err)
}

func TestFormatFields(t *testing.T) {
	s, err := formatUintField("MJD", 59568, 5)
	assert.NoError(t, err)
	assert.Equal(t, "59568", s)

	s, err = formatUintField("DSG", 7, 4)
	assert.NoError(t, err)
	assert.Equal(t, "0007", s)

	_, err = formatUintField("DSG", 12345, 4)
	assert.Error(t, err)

	s, err = formatSignedField("REFSV", 123456, 11)
	assert.NoError(t, err)
	assert.Equal(t, "+0000123456", s)

	s, err = formatSignedField("SMDT", -3, 4)
	assert.NoError(t, err)
	assert.Equal(t, "-003", s)

	_, err = formatSignedField("SMDT", 12345, 4)
	assert.Error(t, err)
}

func TestSTTIME(t *testing.T) {
	sec, err := parseSTTIME(13, "001400")
	assert.NoError(t, err)
	assert.Equal(t, 14*60, sec)

	s, err := formatSTTIME(14 * 60)
	assert.NoError(t, err)
	assert.Equal(t, "001400", s)

	s, err = formatSTTIME(86399)
	assert.NoError(t, err)
	assert.Equal(t, "235959", s)

	_, err = parseSTTIME(13, "246000")
	assert.Error(t, err)
	_, err = formatSTTIME(86400)
	assert.Error(t, err)
}
