package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func anchor() time.Time {
	return MJDStart(AnchorMJD).Add(AnchorOffset)
}

func TestMJD(t *testing.T) {
	assert.Equal(t, 40587, MJD(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 59588, MJD(time.Date(2022, 1, 9, 13, 30, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2022, 1, 9, 0, 0, 0, 0, time.UTC), MJDStart(59588))
}

func TestTrackContaining_Anchor(t *testing.T) {
	s := BIPM()

	w := s.TrackContaining(anchor())
	assert.Equal(t, 0, w.Index)
	assert.Equal(t, anchor(), w.Start)
	assert.Equal(t, anchor().Add(DefaultTrackingDuration/2), w.Mid)
	assert.Equal(t, anchor().Add(DefaultTrackingDuration), w.End)

	// one stride later we are in track 1
	w = s.TrackContaining(anchor().Add(Stride))
	assert.Equal(t, 1, w.Index)
	assert.Equal(t, anchor().Add(Stride), w.Start)
}

func TestTrackContaining_Contains(t *testing.T) {
	s := BIPM()

	for _, offset := range []time.Duration{
		0, time.Minute, time.Hour, 26*time.Hour + 13*time.Minute,
		72*time.Hour + 555*time.Second, 1000 * time.Hour,
	} {
		ti := anchor().Add(offset)
		w := s.TrackContaining(ti)
		assert.False(t, ti.Before(w.Start), "start %v after %v", w.Start, ti)
		assert.True(t, ti.Before(w.End), "end %v not after %v", w.End, ti)
	}
}

func TestTrackContaining_DailyRetreat(t *testing.T) {
	s := BIPM()

	// noon windows of consecutive days begin 4 minutes earlier each day,
	// modulo the stride
	w1 := s.TrackContaining(MJDStart(AnchorMJD).Add(12 * time.Hour))
	w2 := s.TrackContaining(MJDStart(AnchorMJD + 1).Add(12 * time.Hour))
	shift := w1.Start.Sub(MJDStart(AnchorMJD)) - w2.Start.Sub(MJDStart(AnchorMJD+1))
	shift = ((shift % Stride) + Stride) % Stride
	assert.Equal(t, DailyRetreat, shift)
}

func TestNextTrackStart(t *testing.T) {
	s := BIPM()

	// successive tracks are contiguous with the stride within a day
	next := s.NextTrackStart(anchor())
	assert.Equal(t, anchor().Add(Stride), next)
	next = s.NextTrackStart(anchor().Add(10 * time.Second))
	assert.Equal(t, anchor().Add(Stride), next)

	// the returned start really is a window start
	for _, offset := range []time.Duration{0, 3 * time.Hour, 23*time.Hour + 50*time.Minute, 400 * time.Hour} {
		after := anchor().Add(offset)
		start := s.NextTrackStart(after)
		assert.True(t, start.After(after))
		assert.Equal(t, start, s.TrackContaining(start).Start)
		assert.True(t, start.Sub(after) <= Stride)
	}
}

func TestTracks(t *testing.T) {
	s := BIPM()

	wins := s.Tracks(anchor(), anchor().Add(4*Stride))
	assert.Len(t, wins, 4)
	for i, w := range wins {
		assert.Equal(t, i, w.Index)
		assert.Equal(t, anchor().Add(time.Duration(i)*Stride), w.Start)
	}

	// half-open interval: a window starting exactly at 'to' is excluded
	wins = s.Tracks(anchor().Add(time.Second), anchor().Add(Stride))
	assert.Empty(t, wins)
}

func TestWithTrackingDuration(t *testing.T) {
	s := WithTrackingDuration(16 * time.Minute)
	assert.Equal(t, 16*time.Minute, s.TrackingDuration())

	w := s.TrackContaining(anchor())
	assert.Equal(t, anchor().Add(8*time.Minute), w.Mid)
	assert.Equal(t, anchor().Add(16*time.Minute), w.End)
}
