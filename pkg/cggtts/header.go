package cggtts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/de-bkg/gocggtts/pkg/gnss"
	"github.com/go-playground/validator/v10"
)

// Coord defines a XYZ coordinate.
type Coord struct {
	X, Y, Z float64
}

// Hardware describes a receiver or ionospheric measurement system as given in
// the RCVR and IMS header lines.
type Hardware struct {
	Maker   string `json:"maker"`
	Model   string `json:"model"`
	Serial  string `json:"serial"`
	Year    int    `json:"year"`
	Release string `json:"release"`
}

// newHardware parses a RCVR or IMS header value. Labs without an IMS
// conventionally write a bare "99999"; that single field is kept as the model.
func newHardware(s string) (Hardware, error) {
	f := strings.Fields(s)
	hw := Hardware{}
	switch {
	case len(f) == 0:
		return hw, fmt.Errorf("empty hardware description")
	case len(f) == 1:
		hw.Model = f[0]
	case len(f) < 5:
		hw.Maker = f[0]
		hw.Model = f[1]
		if len(f) > 2 {
			hw.Serial = f[2]
		}
	default:
		hw.Maker, hw.Model, hw.Serial = f[0], f[1], f[2]
		if _, err := fmt.Sscanf(f[3], "%d", &hw.Year); err != nil {
			return hw, fmt.Errorf("parse hardware year: %q: %v", f[3], err)
		}
		hw.Release = strings.Join(f[4:], " ")
	}
	return hw, nil
}

func (hw Hardware) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{hw.Maker, hw.Model, hw.Serial} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if hw.Year > 0 {
		parts = append(parts, fmt.Sprintf("%d", hw.Year))
	}
	if hw.Release != "" {
		parts = append(parts, hw.Release)
	}
	return strings.Join(parts, " ")
}

// DelayKind tags the shape of the delay calibration block.
type DelayKind int

// The three mutually exclusive delay block shapes of revision 2E.
const (
	DelayNone DelayKind = iota
	DelayTotal
	DelaySystem
	DelayCalibration
)

func (k DelayKind) String() string {
	return [...]string{"NONE", "TOTAL", "SYSTEM", "CAL_ID"}[k]
}

// DelayKey identifies the signal a delay value applies to.
type DelayKey struct {
	Sys  gnss.System `json:"sys"`
	Code gnss.Code   `json:"code"`
}

func (k DelayKey) String() string {
	return fmt.Sprintf("%s %s", k.Sys, k.Code)
}

// Delays is the delay calibration block of a CGGTTS header. Depending on Kind
// it stores a total delay per signal, a system delay triplet, or only a
// calibration identifier. All values are nanoseconds.
type Delays struct {
	Kind  DelayKind `json:"kind"`
	CalID string    `json:"calID,omitempty"`

	// Values holds the per-signal part: the TOT DLY for DelayTotal, the
	// internal delay (INT DLY, or the combined SYS DLY) for DelaySystem.
	Values map[DelayKey]float64 `json:"values,omitempty"`

	// SplitInternal reports that the internal delay is split into the
	// receiver internal part (Values) and the antenna cable part (Cable).
	SplitInternal bool    `json:"splitInternal,omitempty"`
	Cable         float64 `json:"cable,omitempty"`     // CAB DLY [ns]
	Reference     float64 `json:"reference,omitempty"` // REF DLY [ns]
}

// Total returns the total delay for the given signal, combining the system
// delay triplet if necessary.
func (d *Delays) Total(key DelayKey) (float64, bool) {
	v, ok := d.Values[key]
	if !ok {
		return 0, false
	}
	switch d.Kind {
	case DelayTotal:
		return v, true
	case DelaySystem:
		if d.SplitInternal {
			return v + d.Cable - d.Reference, true
		}
		return v - d.Reference, true
	}
	return 0, false
}

// Keys returns the advertised signals, ordered by system and code.
func (d *Delays) Keys() []DelayKey {
	keys := make([]DelayKey, 0, len(d.Values))
	for key := range d.Values {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Sys != keys[j].Sys {
			return keys[i].Sys < keys[j].Sys
		}
		return keys[i].Code < keys[j].Code
	})
	return keys
}

// validate checks the delay block for completeness.
func (d *Delays) validate() error {
	switch d.Kind {
	case DelayTotal, DelaySystem:
		if len(d.Values) == 0 {
			return fmt.Errorf("%w: no delay values", ErrInconsistentDelays)
		}
		for key := range d.Values {
			if key.Sys.String() == "" || !key.Code.IsValid() {
				return fmt.Errorf("%w: invalid signal %v", ErrInconsistentDelays, key)
			}
		}
	case DelayCalibration:
		if d.CalID == "" {
			return fmt.Errorf("%w: empty calibration identifier", ErrInconsistentDelays)
		}
	}
	return nil
}

// A Header stores the CGGTTS 2E header information.
type Header struct {
	Version  string    `json:"version" validate:"required,eq=2E"`
	RevDate  time.Time `json:"revDate" validate:"required"`
	Rcvr     Hardware  `json:"rcvr"`
	Channels int       `json:"ch" validate:"gte=0,lte=99"`
	IMS      *Hardware `json:"ims,omitempty"`
	Lab      string    `json:"lab" validate:"required,max=4"`
	Position Coord     `json:"position"`
	Frame    string    `json:"frame" validate:"required"`
	Comments []string  `json:"comments,omitempty"`
	Delays   Delays    `json:"delays"`
	Ref      string    `json:"ref" validate:"required"` // reference clock identifier

	// DualFreq reports whether the data columns carry the measured
	// ionosphere (MSIO, SMSI, ISG). It is a document wide property taken
	// from the data column header line.
	DualFreq bool `json:"dualFreq"`
}

// use a single instance of Validate, it caches struct info
var validate *validator.Validate

// Validate checks the header against the 2E constraints.
func (hdr *Header) Validate() error {
	if hdr.Version != "2E" {
		return ErrUnsupportedRevision
	}
	if validate == nil {
		validate = validator.New()
	}
	if err := validate.Struct(hdr); err != nil {
		return err
	}
	return hdr.Delays.validate()
}
