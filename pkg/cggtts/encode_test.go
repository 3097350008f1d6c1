package cggtts

import (
	"strings"
	"testing"

	"github.com/de-bkg/gocggtts/pkg/gnss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for _, dualFreq := range []bool{false, true} {
		text := sampleBytes(t, dualFreq)

		doc, err := Parse(strings.NewReader(text))
		require.NoError(t, err)

		again, err := doc.Bytes()
		require.NoError(t, err)
		assert.Equal(t, text, string(again), "round-trip dualFreq=%t", dualFreq)
	}
}

func TestEncode_LineEndings(t *testing.T) {
	text := sampleBytes(t, false)
	assert.NotContains(t, text, "\r")
	assert.True(t, strings.HasSuffix(text, "\n"))
}

func TestEncode_HeaderChecksum(t *testing.T) {
	text := sampleBytes(t, false)
	lines := strings.Split(text, "\n")

	sum := 0
	var ck string
	for _, line := range lines {
		if strings.HasPrefix(line, "CKSUM = ") {
			ck = strings.TrimPrefix(line, "CKSUM = ")
			break
		}
		sum += int(Checksum(line))
	}
	require.NotEmpty(t, ck)
	assert.Equal(t, formatCK(byte(sum%256)), ck)
}

func TestEncode_TotalDelay(t *testing.T) {
	doc := sampleDoc(false)
	doc.Header.Delays = Delays{
		Kind: DelayTotal,
		Values: map[DelayKey]float64{
			{Sys: gnss.SysGPS, Code: gnss.CodeC1}: 35.0,
			{Sys: gnss.SysGPS, Code: gnss.CodeC2}: 29.5,
		},
	}

	b, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(b), "TOT DLY = 35.0 ns (GPS C1), 29.5 ns (GPS C2)\n")

	got, err := Parse(strings.NewReader(string(b)))
	require.NoError(t, err)
	assert.Equal(t, doc.Header.Delays, got.Header.Delays)
}

func TestEncode_CalibrationID(t *testing.T) {
	doc := sampleDoc(false)
	doc.Header.Delays = Delays{Kind: DelayCalibration, CalID: "1015-2021"}

	b, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(b), "CAL_ID = 1015-2021\n")

	got, err := Parse(strings.NewReader(string(b)))
	require.NoError(t, err)
	assert.Equal(t, doc.Header.Delays, got.Header.Delays)
}

func TestEncode_InvalidHeader(t *testing.T) {
	doc := sampleDoc(false)
	doc.Header.Lab = ""
	_, err := doc.Bytes()
	assert.Error(t, err)
}

func TestDocument_SortTracks(t *testing.T) {
	early := sampleTrack()
	late := sampleTrack()
	late.SecOfDay += 960
	otherSV := sampleTrack()
	otherSV.SV = gnss.PRN{Sys: gnss.SysGPS, Num: 2}

	doc := &Document{Header: sampleHeader(false)}
	doc.AppendTracks(late, early, otherSV)

	require.Len(t, doc.Tracks, 3)
	assert.Equal(t, "G02", doc.Tracks[0].SV.String())
	assert.Equal(t, "G06", doc.Tracks[1].SV.String())
	assert.Equal(t, late, doc.Tracks[2])
}
