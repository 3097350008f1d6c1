// Package tracker implements the CGGTTS track-fitting engine. It windows raw
// per-epoch satellite observations into the common-view periods given by the
// schedule and condenses each window into one CGGTTS track record by
// midpoint-centered linear least-squares fits.
package tracker

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/de-bkg/gocggtts/pkg/cggtts"
	"github.com/de-bkg/gocggtts/pkg/gnss"
	"github.com/de-bkg/gocggtts/pkg/schedule"
	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/stat"
)

// An Observation is one raw per-epoch measurement of a satellite in view.
// Clock offsets and delays are given in seconds, angles in degrees.
type Observation struct {
	Epoch     time.Time
	RefSV     float64 // local clock minus SV clock [s]
	RefSys    float64 // local clock minus constellation system time [s]
	MDTR      float64 // modeled tropospheric delay [s]
	MDIO      float64 // modeled ionospheric delay [s]
	MSIO      float64 // measured ionospheric delay [s], dual-frequency only
	HasMSIO   bool
	Azimuth   float64 // [deg]
	Elevation float64 // [deg]
	IODE      int
}

// Config holds the fitting parameters and the track labeling.
type Config struct {
	// ElevationMask excludes low observations from the fits. Observations
	// below the mask stay in the buffer (they count toward the buffer cap)
	// but never take part in a fit or in the MinSamples count.
	ElevationMask float64 `validate:"gte=0,lt=90"` // [deg]

	// MinSamples is the minimum number of fit-eligible observations
	// required to emit a track.
	MinSamples int `validate:"gte=2"`

	// WarmupDuration is the leading portion of each window excluded from
	// the fits.
	WarmupDuration time.Duration `validate:"gte=0"`

	// MinSamplingInterval bounds the per-SV buffers: a buffer holds at
	// most window length / MinSamplingInterval observations.
	MinSamplingInterval time.Duration `validate:"gt=0"`

	// DualFreq enables the measured-ionosphere fit (MSIO, SMSI, ISG).
	DualFreq bool

	// Track labeling.
	Class string    // CL column, e.g. FF
	FRC   gnss.Code // frequency/code label, e.g. L1C
	FR    int       // frequency identifier
	HC    int       // hardware channel
}

// DefaultConfig returns the recommended fitting parameters.
func DefaultConfig() Config {
	return Config{
		ElevationMask:       10,
		MinSamples:          15,
		WarmupDuration:      180 * time.Second,
		MinSamplingInterval: time.Second,
		Class:               "FF",
		FRC:                 "L1C",
	}
}

// A FitError reports why a window could not be condensed into a track.
type FitError struct {
	Msg string
}

func (e *FitError) Error() string {
	return "tracker: fit: " + e.Msg
}

// A Drop records a satellite that yielded no track for a window. Drops are
// collected on a side channel and never abort other satellites.
type Drop struct {
	SV     gnss.PRN
	Window schedule.Window
	Err    error
}

type svBuffer struct {
	win schedule.Window
	obs []Observation
}

// A SkyTracker accumulates observations per satellite and closes each
// satellite's buffer when its observations advance past the current schedule
// window. A SkyTracker must not be mutated concurrently.
type SkyTracker struct {
	sched     *schedule.Scheduler
	cfg       Config
	bufs      map[gnss.PRN]*svBuffer
	completed []*cggtts.Track
	drops     []Drop
}

// use a single instance of Validate, it caches struct info
var validate = validator.New()

// New returns a SkyTracker for the given schedule. Zero MinSamples,
// MinSamplingInterval, Class and FRC fields are filled with the defaults;
// a zero ElevationMask or WarmupDuration is used as given.
func New(sched *schedule.Scheduler, cfg Config) (*SkyTracker, error) {
	def := DefaultConfig()
	if cfg.MinSamples == 0 {
		cfg.MinSamples = def.MinSamples
	}
	if cfg.MinSamplingInterval == 0 {
		cfg.MinSamplingInterval = def.MinSamplingInterval
	}
	if cfg.Class == "" {
		cfg.Class = def.Class
	}
	if cfg.FRC == "" {
		cfg.FRC = def.FRC
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}

	return &SkyTracker{
		sched: sched,
		cfg:   cfg,
		bufs:  map[gnss.PRN]*svBuffer{},
	}, nil
}

// Observe feeds one observation for the given satellite. When the
// observation's epoch lies outside the satellite's current window (at or
// past its end), that window is closed and fitted first and the observation
// opens the schedule window containing it.
func (st *SkyTracker) Observe(sv gnss.PRN, obs Observation) {
	win := st.sched.TrackContaining(obs.Epoch)

	buf, ok := st.bufs[sv]
	if !ok {
		buf = &svBuffer{win: win}
		st.bufs[sv] = buf
	} else if !win.Start.Equal(buf.win.Start) &&
		(obs.Epoch.Before(buf.win.Start) || !obs.Epoch.Before(buf.win.End)) {
		st.close(sv, buf)
		buf.win = win
		buf.obs = buf.obs[:0]
	}

	// evict observations that fell outside the active window
	kept := buf.obs[:0]
	for _, o := range buf.obs {
		if !o.Epoch.Before(buf.win.Start) {
			kept = append(kept, o)
		}
	}
	buf.obs = kept

	maxObs := int(st.sched.TrackingDuration() / st.cfg.MinSamplingInterval)
	if maxObs < 1 {
		maxObs = 1
	}
	if len(buf.obs) >= maxObs {
		buf.obs = buf.obs[1:]
	}
	buf.obs = append(buf.obs, obs)
}

// Flush closes all open satellite buffers. Call it when the observation
// stream has ended.
func (st *SkyTracker) Flush() {
	for sv, buf := range st.bufs {
		st.close(sv, buf)
		delete(st.bufs, sv)
	}
}

// Collect drains the tracks of all completed windows, ordered by start time
// and satellite.
func (st *SkyTracker) Collect() []*cggtts.Track {
	trks := st.completed
	st.completed = nil
	sort.SliceStable(trks, func(i, j int) bool {
		if trks[i].MJD != trks[j].MJD {
			return trks[i].MJD < trks[j].MJD
		}
		if trks[i].SecOfDay != trks[j].SecOfDay {
			return trks[i].SecOfDay < trks[j].SecOfDay
		}
		return trks[i].SV.String() < trks[j].SV.String()
	})
	return trks
}

// Drops drains the fit failures recorded since the last call.
func (st *SkyTracker) Drops() []Drop {
	drops := st.drops
	st.drops = nil
	return drops
}

// close fits the buffered window of one satellite.
func (st *SkyTracker) close(sv gnss.PRN, buf *svBuffer) {
	if len(buf.obs) == 0 {
		return
	}
	trk, err := st.fit(sv, buf)
	if err != nil {
		st.drops = append(st.drops, Drop{SV: sv, Window: buf.win, Err: err})
		return
	}
	st.completed = append(st.completed, trk)
}

// fit condenses one satellite's window into a track record. All regressions
// are centered at the window midpoint; unit conversions happen only when the
// track fields are filled, never inside the solver.
func (st *SkyTracker) fit(sv gnss.PRN, buf *svBuffer) (*cggtts.Track, error) {
	win := buf.win
	fitStart := win.Start.Add(st.cfg.WarmupDuration)

	obs := make([]Observation, 0, len(buf.obs))
	for _, o := range buf.obs {
		if o.Elevation < st.cfg.ElevationMask {
			continue
		}
		if o.Epoch.Before(fitStart) || !o.Epoch.Before(win.End) {
			continue
		}
		obs = append(obs, o)
	}

	if len(obs) < st.cfg.MinSamples {
		return nil, &FitError{Msg: fmt.Sprintf("%d samples, need %d", len(obs), st.cfg.MinSamples)}
	}

	sort.Slice(obs, func(i, j int) bool { return obs[i].Epoch.Before(obs[j].Epoch) })

	span := obs[len(obs)-1].Epoch.Sub(obs[0].Epoch)
	if span < st.sched.TrackingDuration()/2 {
		return nil, &FitError{Msg: fmt.Sprintf("span %v shorter than half the window", span)}
	}

	taus := make([]float64, len(obs))
	for i, o := range obs {
		taus[i] = o.Epoch.Sub(win.Mid).Seconds()
	}

	series := func(get func(Observation) float64) []float64 {
		ys := make([]float64, len(obs))
		for i, o := range obs {
			ys[i] = get(o)
		}
		return ys
	}

	refSys, srSys, dsg, err := linfit(taus, series(func(o Observation) float64 { return o.RefSys }))
	if err != nil {
		return nil, err
	}
	refSV, srSV, _, err := linfit(taus, series(func(o Observation) float64 { return o.RefSV }))
	if err != nil {
		return nil, err
	}
	mdtr, smdt, _, err := linfit(taus, series(func(o Observation) float64 { return o.MDTR }))
	if err != nil {
		return nil, err
	}
	mdio, smdi, _, err := linfit(taus, series(func(o Observation) float64 { return o.MDIO }))
	if err != nil {
		return nil, err
	}

	elv, _, _, err := linfit(taus, series(func(o Observation) float64 { return o.Elevation }))
	if err != nil {
		return nil, err
	}
	azth, _, _, err := linfit(taus, series(func(o Observation) float64 { return o.Azimuth }))
	if err != nil {
		return nil, err
	}
	elv = math.Min(math.Max(elv, 0), 90)
	azth = math.Mod(azth, 360)
	if azth < 0 {
		azth += 360
	}

	mjd := schedule.MJD(win.Start)
	secOfDay := int(win.Start.Sub(schedule.MJDStart(mjd)) / time.Second)

	length := int(math.Round(float64(len(obs)) * medianSpacing(obs)))
	if max := int(st.sched.TrackingDuration() / time.Second); length > max {
		length = max
	}
	if secOfDay+length > 86400 {
		length = 86400 - secOfDay
	}

	trk := &cggtts.Track{
		SV:       sv,
		Class:    st.cfg.Class,
		MJD:      mjd,
		SecOfDay: secOfDay,
		Length:   length,
		Elv:      int(math.Round(elv * 10)),
		Azth:     int(math.Round(azth*10)) % 3600,
		RefSV:    scaled(refSV, 1e10),
		SRSV:     scaled(srSV, 1e13),
		RefSys:   scaled(refSys, 1e10),
		SRSys:    scaled(srSys, 1e13),
		DSG:      scaled(dsg, 1e10),
		IOE:      modeIODE(obs, win.Mid),
		MDTR:     clampNonNeg(scaled(mdtr, 1e10)),
		SMDT:     scaled(smdt, 1e13),
		MDIO:     clampNonNeg(scaled(mdio, 1e10)),
		SMDI:     scaled(smdi, 1e13),
		FR:       st.cfg.FR,
		HC:       st.cfg.HC,
		FRC:      st.cfg.FRC,
	}

	if st.cfg.DualFreq {
		ionoTaus := make([]float64, 0, len(obs))
		iono := make([]float64, 0, len(obs))
		for i, o := range obs {
			if o.HasMSIO {
				ionoTaus = append(ionoTaus, taus[i])
				iono = append(iono, o.MSIO)
			}
		}
		if len(iono) < st.cfg.MinSamples {
			return nil, &FitError{Msg: fmt.Sprintf("%d dual-frequency samples, need %d", len(iono), st.cfg.MinSamples)}
		}
		msio, smsi, isg, err := linfit(ionoTaus, iono)
		if err != nil {
			return nil, err
		}
		trk.MSIO = clampNonNeg(scaled(msio, 1e10))
		trk.SMSI = scaled(smsi, 1e13)
		trk.ISG = scaled(isg, 1e10)
	}

	return trk, nil
}

// linfit performs the least-squares fit y = a + b*tau and returns the
// population RMS of the residuals.
func linfit(taus, ys []float64) (a, b, rms float64, err error) {
	a, b = stat.LinearRegression(taus, ys, nil, false)
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return 0, 0, 0, &FitError{Msg: "rank-deficient regression"}
	}

	sq := make([]float64, len(ys))
	for i := range ys {
		r := ys[i] - (a + b*taus[i])
		sq[i] = r * r
	}
	return a, b, math.Sqrt(stat.Mean(sq, nil)), nil
}

// medianSpacing returns the median inter-epoch spacing in seconds.
func medianSpacing(obs []Observation) float64 {
	if len(obs) < 2 {
		return 1
	}
	diffs := make([]float64, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		diffs[i-1] = obs[i].Epoch.Sub(obs[i-1].Epoch).Seconds()
	}
	sort.Float64s(diffs)
	n := len(diffs)
	if n%2 == 1 {
		return diffs[n/2]
	}
	return (diffs[n/2-1] + diffs[n/2]) / 2
}

// modeIODE returns the most frequent IODE; a tie is broken by the value
// observed closest to the window midpoint.
func modeIODE(obs []Observation, mid time.Time) int {
	counts := map[int]int{}
	maxCount := 0
	for _, o := range obs {
		counts[o.IODE]++
		if counts[o.IODE] > maxCount {
			maxCount = counts[o.IODE]
		}
	}

	best := 0
	bestDist := time.Duration(math.MaxInt64)
	for _, o := range obs {
		if counts[o.IODE] != maxCount {
			continue
		}
		dist := o.Epoch.Sub(mid)
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist = o.IODE, dist
		}
	}
	return best
}

// scaled converts an SI value to a scaled integer column, e.g. seconds to
// 0.1 ns with scale 1e10.
func scaled(v, scale float64) int64 {
	return int64(math.Round(v * scale))
}

func clampNonNeg(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
