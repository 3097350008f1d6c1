package tracker

import (
	"testing"
	"time"

	"github.com/de-bkg/gocggtts/pkg/gnss"
	"github.com/de-bkg/gocggtts/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	g06 = gnss.PRN{Sys: gnss.SysGPS, Num: 6}
	g07 = gnss.PRN{Sys: gnss.SysGPS, Num: 7}
)

func anchorWindow(sched *schedule.Scheduler) schedule.Window {
	return sched.TrackContaining(schedule.MJDStart(schedule.AnchorMJD).Add(schedule.AnchorOffset))
}

// lineObs builds an observation whose refsys lies exactly on
// a + b*(epoch - mid).
func lineObs(epoch, mid time.Time, a, b float64) Observation {
	tau := epoch.Sub(mid).Seconds()
	return Observation{
		Epoch:     epoch,
		RefSV:     5e-9,
		RefSys:    a + b*tau,
		MDTR:      1.12e-8,
		MDIO:      3.5e-9,
		Azimuth:   160.5,
		Elevation: 45,
		IODE:      103,
	}
}

// feedWindow feeds n observations on the refsys line a + b*tau, starting
// after the warm-up with the given spacing.
func feedWindow(st *SkyTracker, sv gnss.PRN, win schedule.Window, n int, spacing time.Duration, a, b float64) {
	for i := 0; i < n; i++ {
		epoch := win.Start.Add(180*time.Second + time.Duration(i)*spacing)
		st.Observe(sv, lineObs(epoch, win.Mid, a, b))
	}
}

func TestSkyTracker_FitLinearity(t *testing.T) {
	sched := schedule.BIPM()
	st, err := New(sched, DefaultConfig())
	require.NoError(t, err)

	win := anchorWindow(sched)
	feedWindow(st, g06, win, 200, 4*time.Second, 1e-9, 2e-12)
	st.Flush()

	trks := st.Collect()
	require.Len(t, trks, 1)
	assert.Empty(t, st.Drops())

	trk := trks[0]
	assert.Equal(t, g06, trk.SV)
	assert.Equal(t, int64(10), trk.RefSys, "1 ns in 0.1 ns units")
	assert.Equal(t, int64(20), trk.SRSys, "2 ps/s in 0.1 ps/s units")
	assert.Equal(t, int64(0), trk.DSG)
	assert.Equal(t, int64(50), trk.RefSV)
	assert.Equal(t, int64(0), trk.SRSV)

	assert.Equal(t, schedule.AnchorMJD, trk.MJD)
	assert.Equal(t, 120, trk.SecOfDay)
	assert.Equal(t, 200*4, trk.Length)
	assert.Equal(t, 450, trk.Elv)
	assert.Equal(t, 1605, trk.Azth)
	assert.Equal(t, 103, trk.IOE)
	assert.Equal(t, int64(112), trk.MDTR)
	assert.Equal(t, int64(35), trk.MDIO)
	assert.Equal(t, "FF", trk.Class)
	assert.Equal(t, gnss.Code("L1C"), trk.FRC)
}

func TestSkyTracker_CenteringInvariance(t *testing.T) {
	sched := schedule.BIPM()

	fitOne := func(win schedule.Window) (int64, int64, int64) {
		st, err := New(sched, DefaultConfig())
		require.NoError(t, err)
		feedWindow(st, g06, win, 100, 7*time.Second, -3.4e-9, 1.7e-12)
		st.Flush()
		trks := st.Collect()
		require.Len(t, trks, 1)
		return trks[0].RefSys, trks[0].SRSys, trks[0].DSG
	}

	w0 := anchorWindow(sched)
	w1 := sched.TrackContaining(w0.Start.Add(schedule.Stride))

	a0, b0, d0 := fitOne(w0)
	a1, b1, d1 := fitOne(w1)
	assert.Equal(t, a0, a1)
	assert.Equal(t, b0, b1)
	assert.Equal(t, d0, d1)
}

func TestSkyTracker_MinSamples(t *testing.T) {
	sched := schedule.BIPM()

	run := func(n int) (int, int) {
		st, err := New(sched, DefaultConfig())
		require.NoError(t, err)
		feedWindow(st, g06, anchorWindow(sched), n, 50*time.Second, 1e-9, 0)
		st.Flush()
		return len(st.Collect()), len(st.Drops())
	}

	// one sample short of the threshold yields no track
	trks, drops := run(14)
	assert.Equal(t, 0, trks)
	assert.Equal(t, 1, drops)

	// exactly the threshold yields exactly one
	trks, drops = run(15)
	assert.Equal(t, 1, trks)
	assert.Equal(t, 0, drops)
}

func TestSkyTracker_ShortSpan(t *testing.T) {
	sched := schedule.BIPM()
	st, err := New(sched, DefaultConfig())
	require.NoError(t, err)

	// plenty of samples, but all within a quarter of the window
	feedWindow(st, g06, anchorWindow(sched), 100, 2*time.Second, 1e-9, 0)
	st.Flush()

	assert.Empty(t, st.Collect())
	drops := st.Drops()
	require.Len(t, drops, 1)
	assert.Equal(t, g06, drops[0].SV)
}

func TestSkyTracker_ElevationMask(t *testing.T) {
	sched := schedule.BIPM()
	st, err := New(sched, DefaultConfig())
	require.NoError(t, err)

	win := anchorWindow(sched)
	for i := 0; i < 40; i++ {
		obs := lineObs(win.Start.Add(180*time.Second+time.Duration(i)*20*time.Second), win.Mid, 1e-9, 0)
		if i%2 == 0 {
			obs.Elevation = 5 // below the 10 deg mask
		}
		st.Observe(g06, obs)
	}
	st.Flush()

	// 20 of 40 observations remain eligible; the track is fitted from the
	// masked-in half only
	trks := st.Collect()
	require.Len(t, trks, 1)
	assert.Equal(t, 450, trks[0].Elv)
}

func TestSkyTracker_CloseOnWindowAdvance(t *testing.T) {
	sched := schedule.BIPM()
	st, err := New(sched, DefaultConfig())
	require.NoError(t, err)

	win := anchorWindow(sched)
	feedWindow(st, g06, win, 50, 16*time.Second, 1e-9, 0)

	// nothing is complete until the observations advance past the window
	assert.Empty(t, st.Collect())

	next := sched.TrackContaining(win.Start.Add(schedule.Stride))
	st.Observe(g06, lineObs(next.Start.Add(200*time.Second), next.Mid, 1e-9, 0))

	trks := st.Collect()
	require.Len(t, trks, 1)
	assert.Equal(t, win.Start.Sub(schedule.MJDStart(trks[0].MJD)), time.Duration(trks[0].SecOfDay)*time.Second)
}

func TestSkyTracker_IndependentSVs(t *testing.T) {
	sched := schedule.BIPM()
	st, err := New(sched, DefaultConfig())
	require.NoError(t, err)

	win := anchorWindow(sched)
	feedWindow(st, g06, win, 100, 7*time.Second, 1e-9, 0)
	feedWindow(st, g07, win, 5, 7*time.Second, 1e-9, 0) // too few
	st.Flush()

	trks := st.Collect()
	require.Len(t, trks, 1)
	assert.Equal(t, g06, trks[0].SV)

	drops := st.Drops()
	require.Len(t, drops, 1)
	assert.Equal(t, g07, drops[0].SV)
	var fe *FitError
	assert.ErrorAs(t, drops[0].Err, &fe)
}

func TestSkyTracker_IOEMode(t *testing.T) {
	sched := schedule.BIPM()
	st, err := New(sched, DefaultConfig())
	require.NoError(t, err)

	win := anchorWindow(sched)
	for i := 0; i < 200; i++ {
		obs := lineObs(win.Start.Add(182*time.Second+time.Duration(i)*4*time.Second), win.Mid, 1e-9, 0)
		if i < 100 {
			obs.IODE = 10
		} else {
			obs.IODE = 11
		}
		st.Observe(g06, obs)
	}
	st.Flush()

	trks := st.Collect()
	require.Len(t, trks, 1)
	// counts are tied, the value observed closest to the midpoint wins
	assert.Equal(t, 10, trks[0].IOE)
}

func TestSkyTracker_DualFreq(t *testing.T) {
	sched := schedule.BIPM()
	cfg := DefaultConfig()
	cfg.DualFreq = true
	st, err := New(sched, cfg)
	require.NoError(t, err)

	win := anchorWindow(sched)
	for i := 0; i < 200; i++ {
		epoch := win.Start.Add(180*time.Second + time.Duration(i)*4*time.Second)
		obs := lineObs(epoch, win.Mid, 1e-9, 0)
		obs.HasMSIO = true
		obs.MSIO = 2e-9 + 1e-12*epoch.Sub(win.Mid).Seconds()
		st.Observe(g06, obs)
	}
	st.Flush()

	trks := st.Collect()
	require.Len(t, trks, 1)
	assert.Equal(t, int64(20), trks[0].MSIO)
	assert.Equal(t, int64(10), trks[0].SMSI)
	assert.Equal(t, int64(0), trks[0].ISG)
}

func TestNew_ConfigValidation(t *testing.T) {
	sched := schedule.BIPM()

	cfg := DefaultConfig()
	cfg.ElevationMask = 95
	_, err := New(sched, cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.MinSamples = 1
	_, err = New(sched, cfg)
	assert.Error(t, err)

	// zero values fall back to the defaults
	st, err := New(sched, Config{})
	require.NoError(t, err)
	assert.Equal(t, 15, st.cfg.MinSamples)
	assert.Equal(t, gnss.Code("L1C"), st.cfg.FRC)
}
