package cggtts

import (
	"fmt"
	"strings"

	"github.com/de-bkg/gocggtts/pkg/gnss"
)

// A Track is one common-view measurement summary: the result of comparing the
// local clock against one satellite over a single schedule window. Scaled
// integer fields keep the unit of the file column, e.g. RefSV in 0.1 ns.
type Track struct {
	SV       gnss.PRN  `json:"sv"`
	Class    string    `json:"class"`    // CL: the 2E measurement class, e.g. FF
	MJD      int       `json:"mjd"`      // start day
	SecOfDay int       `json:"sttime"`   // STTIME: start time within the day [s]
	Length   int       `json:"trkl"`     // TRKL: tracking length [s]
	Elv      int       `json:"elv"`      // elevation at midpoint [0.1 deg]
	Azth     int       `json:"azth"`     // azimuth at midpoint [0.1 deg]
	RefSV    int64     `json:"refsv"`    // clock offset to the SV clock at midpoint [0.1 ns]
	SRSV     int64     `json:"srsv"`     // slope of RefSV [0.1 ps/s]
	RefSys   int64     `json:"refsys"`   // clock offset to the system time at midpoint [0.1 ns]
	SRSys    int64     `json:"srsys"`    // slope of RefSys [0.1 ps/s]
	DSG      int64     `json:"dsg"`      // residual RMS of the RefSys fit [0.1 ns]
	IOE      int       `json:"ioe"`      // ephemeris issue of data
	MDTR     int64     `json:"mdtr"`     // modeled tropospheric delay at midpoint [0.1 ns]
	SMDT     int64     `json:"smdt"`     // slope of MDTR [0.1 ps/s]
	MDIO     int64     `json:"mdio"`     // modeled ionospheric delay at midpoint [0.1 ns]
	SMDI     int64     `json:"smdi"`     // slope of MDIO [0.1 ps/s]
	MSIO     int64     `json:"msio"`     // measured ionospheric delay [0.1 ns], dual-frequency only
	SMSI     int64     `json:"smsi"`     // slope of MSIO [0.1 ps/s], dual-frequency only
	ISG      int64     `json:"isg"`      // residual RMS of the MSIO fit [0.1 ns], dual-frequency only
	FR       int       `json:"fr"`       // frequency identifier (GLONASS channel, 0 otherwise)
	HC       int       `json:"hc"`       // hardware channel
	FRC      gnss.Code `json:"frc"`      // frequency/code label, e.g. L1C
}

// Unit conversions of the scaled integer columns.

// RefSVNs returns REFSV in nanoseconds.
func (trk *Track) RefSVNs() float64 { return float64(trk.RefSV) / 10 }

// RefSysNs returns REFSYS in nanoseconds.
func (trk *Track) RefSysNs() float64 { return float64(trk.RefSys) / 10 }

// SRSysPs returns SRSYS in picoseconds per second.
func (trk *Track) SRSysPs() float64 { return float64(trk.SRSys) / 10 }

// DSGNs returns DSG in nanoseconds.
func (trk *Track) DSGNs() float64 { return float64(trk.DSG) / 10 }

// ElevationDeg returns the midpoint elevation in degrees.
func (trk *Track) ElevationDeg() float64 { return float64(trk.Elv) / 10 }

// AzimuthDeg returns the midpoint azimuth in degrees.
func (trk *Track) AzimuthDeg() float64 { return float64(trk.Azth) / 10 }

// Validate checks the track invariants.
func (trk *Track) Validate() error {
	if len(trk.Class) != 2 {
		return &FieldError{Field: "CL", Msg: fmt.Sprintf("invalid class %q", trk.Class)}
	}
	if trk.SecOfDay < 0 || trk.Length < 0 || trk.SecOfDay+trk.Length > secsPerDay {
		return &FieldError{Field: "TRKL", Msg: "track crosses the MJD boundary"}
	}
	if trk.Elv < 0 || trk.Elv > 900 {
		return &FieldError{Field: "ELV", Msg: fmt.Sprintf("elevation out of range: %d", trk.Elv)}
	}
	if trk.Azth < 0 || trk.Azth >= 3600 {
		return &FieldError{Field: "AZTH", Msg: fmt.Sprintf("azimuth out of range: %d", trk.Azth)}
	}
	if trk.DSG < 0 {
		return &FieldError{Field: "DSG", Msg: "negative residual RMS"}
	}
	if trk.ISG < 0 {
		return &FieldError{Field: "ISG", Msg: "negative residual RMS"}
	}
	if !trk.FRC.IsValid() {
		return &FieldError{Field: "FRC", Msg: fmt.Sprintf("invalid code %q", trk.FRC)}
	}
	return nil
}

// The track line layout. Columns are separated by one blank; the widths are
// fixed by the 2E definition.
type colSpec struct {
	label string
	unit  string
	width int
}

var trackColsHead = []colSpec{
	{"SAT", "", 3}, {"CL", "", 2}, {"MJD", "", 5}, {"STTIME", "hhmmss", 6},
	{"TRKL", "s", 4}, {"ELV", ".1dg", 3}, {"AZTH", ".1dg", 4},
	{"REFSV", ".1ns", 11}, {"SRSV", ".1ps/s", 6}, {"REFSYS", ".1ns", 11}, {"SRSYS", ".1ps/s", 6},
	{"DSG", ".1ns", 4}, {"IOE", "", 3},
	{"MDTR", ".1ns", 4}, {"SMDT", ".1ps/s", 4}, {"MDIO", ".1ns", 4}, {"SMDI", ".1ps/s", 4},
}

var trackColsIono = []colSpec{
	{"MSIO", ".1ns", 4}, {"SMSI", ".1ps/s", 4}, {"ISG", ".1ns", 3},
}

var trackColsTail = []colSpec{
	{"FR", "", 2}, {"HC", "", 2}, {"FRC", "", 3}, {"CK", "", 2},
}

func trackCols(dualFreq bool) []colSpec {
	cols := make([]colSpec, 0, len(trackColsHead)+len(trackColsIono)+len(trackColsTail))
	cols = append(cols, trackColsHead...)
	if dualFreq {
		cols = append(cols, trackColsIono...)
	}
	return append(cols, trackColsTail...)
}

// trackLineLen returns the byte length of a track line.
func trackLineLen(dualFreq bool) int {
	n := 0
	for _, col := range trackCols(dualFreq) {
		n += col.width + 1
	}
	return n - 1
}

// columnsLine returns the fixed data column header line.
func columnsLine(dualFreq bool) string {
	labels := make([]string, 0, 24)
	for _, col := range trackCols(dualFreq) {
		labels = append(labels, fmt.Sprintf("%*s", col.width, col.label))
	}
	return strings.Join(labels, " ")
}

// unitsLine returns the unit line printed below the column headers.
func unitsLine(dualFreq bool) string {
	units := make([]string, 0, 24)
	for _, col := range trackCols(dualFreq) {
		units = append(units, fmt.Sprintf("%*s", col.width, col.unit))
	}
	return strings.TrimRight(strings.Join(units, " "), " ")
}

// unmarshal decodes one track line. The number of columns depends on the
// document-wide dual-frequency property.
func (trk *Track) unmarshal(line string, dualFreq bool) error {
	if len(line) != trackLineLen(dualFreq) {
		return &FieldError{Field: "track", Msg: fmt.Sprintf("line length %d, expected %d", len(line), trackLineLen(dualFreq))}
	}

	// The row checksum covers everything before the CK column.
	ckCol := len(line) - 2
	found, err := parseCK(line[ckCol:])
	if err != nil {
		return &FieldError{Field: "CK", Column: ckCol, Msg: err.Error()}
	}
	if computed := Checksum(line[:ckCol]); computed != found {
		return &ChecksumError{Computed: computed, Found: found}
	}

	pos := 0
	next := func(width int) (string, int) {
		s, col := line[pos:pos+width], pos
		pos += width + 1
		return s, col
	}

	s, col := next(3)
	sv, err := gnss.NewPRN(s)
	if err != nil {
		return &FieldError{Field: "SAT", Column: col, Msg: err.Error()}
	}
	trk.SV = sv

	trk.Class, _ = next(2)

	var v int64
	s, col = next(5)
	if v, err = parseUintField("MJD", col, s); err != nil {
		return err
	}
	trk.MJD = int(v)

	s, col = next(6)
	if trk.SecOfDay, err = parseSTTIME(col, s); err != nil {
		return err
	}

	s, col = next(4)
	if v, err = parseUintField("TRKL", col, s); err != nil {
		return err
	}
	trk.Length = int(v)

	s, col = next(3)
	if v, err = parseUintField("ELV", col, s); err != nil {
		return err
	}
	if v > 900 {
		return &FieldError{Field: "ELV", Column: col, Msg: fmt.Sprintf("elevation out of range: %d", v)}
	}
	trk.Elv = int(v)

	s, col = next(4)
	if v, err = parseUintField("AZTH", col, s); err != nil {
		return err
	}
	if v >= 3600 {
		return &FieldError{Field: "AZTH", Column: col, Msg: fmt.Sprintf("azimuth out of range: %d", v)}
	}
	trk.Azth = int(v)

	s, col = next(11)
	if trk.RefSV, err = parseSignedField("REFSV", col, s); err != nil {
		return err
	}
	s, col = next(6)
	if trk.SRSV, err = parseSignedField("SRSV", col, s); err != nil {
		return err
	}
	s, col = next(11)
	if trk.RefSys, err = parseSignedField("REFSYS", col, s); err != nil {
		return err
	}
	s, col = next(6)
	if trk.SRSys, err = parseSignedField("SRSYS", col, s); err != nil {
		return err
	}

	s, col = next(4)
	if trk.DSG, err = parseUintField("DSG", col, s); err != nil {
		return err
	}
	s, col = next(3)
	if v, err = parseUintField("IOE", col, s); err != nil {
		return err
	}
	trk.IOE = int(v)

	s, col = next(4)
	if trk.MDTR, err = parseUintField("MDTR", col, s); err != nil {
		return err
	}
	s, col = next(4)
	if trk.SMDT, err = parseSignedField("SMDT", col, s); err != nil {
		return err
	}
	s, col = next(4)
	if trk.MDIO, err = parseUintField("MDIO", col, s); err != nil {
		return err
	}
	s, col = next(4)
	if trk.SMDI, err = parseSignedField("SMDI", col, s); err != nil {
		return err
	}

	if dualFreq {
		s, col = next(4)
		if trk.MSIO, err = parseUintField("MSIO", col, s); err != nil {
			return err
		}
		s, col = next(4)
		if trk.SMSI, err = parseSignedField("SMSI", col, s); err != nil {
			return err
		}
		s, col = next(3)
		if trk.ISG, err = parseUintField("ISG", col, s); err != nil {
			return err
		}
	}

	s, col = next(2)
	if v, err = parseUintField("FR", col, s); err != nil {
		return err
	}
	trk.FR = int(v)
	s, col = next(2)
	if v, err = parseUintField("HC", col, s); err != nil {
		return err
	}
	trk.HC = int(v)

	s, col = next(3)
	trk.FRC = gnss.Code(strings.TrimSpace(s))
	if !trk.FRC.IsValid() {
		return &FieldError{Field: "FRC", Column: col, Msg: fmt.Sprintf("invalid code %q", s)}
	}

	if trk.SecOfDay+trk.Length > secsPerDay {
		return &FieldError{Field: "TRKL", Column: 0, Msg: "track crosses the MJD boundary"}
	}

	return nil
}

// marshal encodes the track as one line, CK included.
func (trk *Track) marshal(dualFreq bool) (string, error) {
	if err := trk.Validate(); err != nil {
		return "", err
	}

	var firstErr error
	fields := make([]string, 0, 24)
	add := func(s string, err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
		fields = append(fields, s)
	}

	fields = append(fields, trk.SV.String(), trk.Class)
	add(formatUintField("MJD", int64(trk.MJD), 5))
	add(formatSTTIME(trk.SecOfDay))
	add(formatUintField("TRKL", int64(trk.Length), 4))
	add(formatUintField("ELV", int64(trk.Elv), 3))
	add(formatUintField("AZTH", int64(trk.Azth), 4))
	add(formatSignedField("REFSV", trk.RefSV, 11))
	add(formatSignedField("SRSV", trk.SRSV, 6))
	add(formatSignedField("REFSYS", trk.RefSys, 11))
	add(formatSignedField("SRSYS", trk.SRSys, 6))
	add(formatUintField("DSG", trk.DSG, 4))
	add(formatUintField("IOE", int64(trk.IOE), 3))
	add(formatUintField("MDTR", trk.MDTR, 4))
	add(formatSignedField("SMDT", trk.SMDT, 4))
	add(formatUintField("MDIO", trk.MDIO, 4))
	add(formatSignedField("SMDI", trk.SMDI, 4))
	if dualFreq {
		add(formatUintField("MSIO", trk.MSIO, 4))
		add(formatSignedField("SMSI", trk.SMSI, 4))
		add(formatUintField("ISG", trk.ISG, 3))
	}
	add(formatUintField("FR", int64(trk.FR), 2))
	add(formatUintField("HC", int64(trk.HC), 2))
	add(formatString("FRC", string(trk.FRC), 3))
	if firstErr != nil {
		return "", firstErr
	}

	line := strings.Join(fields, " ") + " "
	return line + formatCK(Checksum(line)), nil
}
