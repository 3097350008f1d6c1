// Package schedule computes the BIPM common-view track schedule for GNSS
// time transfer. Two laboratories that follow the same schedule observe the
// same satellites over the same wall-clock windows, so that the satellite
// clock cancels in the difference of their CGGTTS tracks.
package schedule

import "time"

const (
	// AnchorMJD is the day the canonical BIPM schedule is anchored to.
	AnchorMJD = 50722

	// AnchorOffset is the start of the first track on the anchor day,
	// 00:02:00 UTC.
	AnchorOffset = 120 * time.Second

	// Stride is the spacing of consecutive track starts: 780 s of
	// measurement preceded by 180 s of warm-up.
	Stride = 960 * time.Second

	// DailyRetreat approximates the sidereal day: the whole schedule
	// begins 4 minutes earlier on each subsequent solar day.
	DailyRetreat = 240 * time.Second

	// DefaultTrackingDuration is the default window length handed to the
	// fitting engine, warm-up included.
	DefaultTrackingDuration = 980 * time.Second

	secsPerDay = 86400
	mjdUnix    = 40587 // MJD of the Unix epoch 1970-01-01
)

// MJD returns the Modified Julian Day of t.
func MJD(t time.Time) int {
	return int(t.Unix()/secsPerDay) + mjdUnix
}

// MJDStart returns 00:00:00 UTC of the given Modified Julian Day.
func MJDStart(mjd int) time.Time {
	return time.Unix(int64(mjd-mjdUnix)*secsPerDay, 0).UTC()
}

// A Window is one scheduled common-view period.
type Window struct {
	Index int // ordinal within the daily schedule the window belongs to
	Start time.Time
	Mid   time.Time
	End   time.Time
}

// A Scheduler maps calendar instants to common-view windows. It is a pure
// function of its tracking duration and holds no mutable state.
//
// The tracking duration must be identical at both ends of a common-view
// comparison; this is a precondition the library does not enforce.
type Scheduler struct {
	duration time.Duration
}

// BIPM returns a scheduler with the canonical BIPM schedule and the default
// tracking duration.
func BIPM() *Scheduler {
	return &Scheduler{duration: DefaultTrackingDuration}
}

// WithTrackingDuration returns a scheduler with the given window length,
// warm-up included. The schedule stride itself stays BIPM-defined.
func WithTrackingDuration(d time.Duration) *Scheduler {
	if d <= 0 {
		d = DefaultTrackingDuration
	}
	return &Scheduler{duration: d}
}

// TrackingDuration returns the configured window length.
func (s *Scheduler) TrackingDuration() time.Duration {
	return s.duration
}

// dayOffset returns the grid phase of the given day's schedule: the first
// track of the day on the day's own grid, in seconds after midnight. The
// schedule retreats 4 minutes per solar day relative to UTC, so the phase
// shifts by -240 s modulo the stride from one day to the next.
func dayOffset(mjd int) int64 {
	stride := int64(Stride / time.Second)
	off := (int64(AnchorOffset/time.Second) - int64(DailyRetreat/time.Second)*int64(mjd-AnchorMJD)) % stride
	if off < 0 {
		off += stride
	}
	return off
}

// TrackContaining returns the window that contains t. Windows are placed on
// the daily 960 s grid; a day's last window may run past midnight, in which
// case instants before the next day's first track still belong to it.
func (s *Scheduler) TrackContaining(t time.Time) Window {
	t = t.UTC()
	day := MJD(t)
	sec := int64(t.Sub(MJDStart(day)) / time.Second)

	off := dayOffset(day)
	if sec < off {
		day--
		sec += secsPerDay
		off = dayOffset(day)
	}

	idx := int((sec - off) / int64(Stride/time.Second))
	return s.window(day, idx)
}

// window builds the idx-th window of the given day's schedule.
func (s *Scheduler) window(mjd, idx int) Window {
	start := MJDStart(mjd).Add(time.Duration(dayOffset(mjd))*time.Second + time.Duration(idx)*Stride)
	return Window{
		Index: idx,
		Start: start,
		Mid:   start.Add(s.duration / 2),
		End:   start.Add(s.duration),
	}
}

// NextTrackStart returns the start of the first window beginning after t.
// Candidates come from the grids of the surrounding days; a candidate only
// counts if the containing-window lookup agrees, so that a day's grid stops
// once the next day's phase-shifted grid takes over.
func (s *Scheduler) NextTrackStart(after time.Time) time.Time {
	after = after.UTC()
	m := MJD(after)

	var next time.Time
	for _, day := range []int{m - 1, m, m + 1} {
		base := MJDStart(day).Add(time.Duration(dayOffset(day)) * time.Second)
		var i int64
		if delta := after.Sub(base); delta >= 0 {
			i = int64(delta/Stride) + 1
		}
		cand := base.Add(time.Duration(i) * Stride)
		if !s.TrackContaining(cand).Start.Equal(cand) {
			continue
		}
		if next.IsZero() || cand.Before(next) {
			next = cand
		}
	}
	return next
}

// Tracks returns all windows starting within [from, to).
func (s *Scheduler) Tracks(from, to time.Time) []Window {
	var wins []Window

	w := s.TrackContaining(from)
	if w.Start.Before(from) {
		w = s.TrackContaining(s.NextTrackStart(from))
	}
	for w.Start.Before(to) {
		wins = append(wins, w)
		w = s.TrackContaining(s.NextTrackStart(w.Start))
	}
	return wins
}
