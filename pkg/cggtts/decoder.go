package cggtts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/de-bkg/gocggtts/pkg/gnss"
)

var delayEntryPattern = regexp.MustCompile(`^([+-]?[0-9]+(?:\.[0-9]+)?) ns \(([A-Z]+) ([A-Z0-9]+)\)$`)

// Decoder reads and decodes header and track records from a CGGTTS input
// stream. Both LF and CRLF line endings are accepted.
type Decoder struct {
	// The Header is valid after NewDecoder. The header must exist and
	// carry format revision 2E.
	Header  *Header
	sc      *bufio.Scanner
	lineNum int
	trk     *Track
	err     error
}

// NewDecoder returns a new decoder that reads from r.
// The CGGTTS header will be read implicitly.
func NewDecoder(r io.Reader) (*Decoder, error) {
	dec := &Decoder{sc: bufio.NewScanner(r)}
	dec.Header, dec.err = dec.readHeader()
	return dec, dec.err
}

// Err returns the first non-EOF error that was encountered by the decoder.
func (dec *Decoder) Err() error {
	if dec.err == io.EOF {
		return nil
	}
	return dec.err
}

// setErr adds an error.
func (dec *Decoder) setErr(err error) {
	dec.err = errors.Join(dec.err, err)
}

// readLine reads the next line into buffer. It returns false if an error
// occurs or EOF was reached.
func (dec *Decoder) readLine() bool {
	if ok := dec.sc.Scan(); !ok {
		return ok
	}
	dec.lineNum++
	return true
}

// line returns the current line.
func (dec *Decoder) line() string {
	return dec.sc.Text()
}

// mustLine reads the next line, failing with ErrMissingLine on EOF.
func (dec *Decoder) mustLine() (string, error) {
	if !dec.readLine() {
		if err := dec.sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: unexpected end of header at line %d", ErrMissingLine, dec.lineNum)
	}
	return dec.line(), nil
}

// splitKV splits a "KEY = VALUE" header line.
func splitKV(line string) (key, val string, err error) {
	i := strings.Index(line, " = ")
	if i < 0 {
		return "", "", fmt.Errorf("%w: no key in %q", ErrMissingLine, line)
	}
	return line[:i], line[i+3:], nil
}

// readHeader reads the CGGTTS header including the data column lines.
// The header checksum covers every header line before the CKSUM line,
// line terminators excluded.
func (dec *Decoder) readHeader() (*Header, error) {
	hdr := &Header{}
	sum := 0

	// version line
	line, err := dec.mustLine()
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, "CGGTTS") || !strings.Contains(line, "GENERIC DATA FORMAT VERSION = ") {
		return nil, fmt.Errorf("cggtts: line %d: not a CGGTTS header: %q", dec.lineNum, line)
	}
	var key, val string
	if _, val, err = splitKV(line); err != nil {
		return nil, err
	}
	hdr.Version = strings.TrimSpace(val)
	if hdr.Version != "2E" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRevision, hdr.Version)
	}
	sum += int(Checksum(line))

	// REV DATE
	if val, err = dec.expect("REV DATE", &sum); err != nil {
		return nil, err
	}
	if hdr.RevDate, err = time.Parse(revDateFormat, strings.TrimSpace(val)); err != nil {
		return nil, fmt.Errorf("cggtts: line %d: parse REV DATE: %v", dec.lineNum, err)
	}

	// RCVR
	if val, err = dec.expect("RCVR", &sum); err != nil {
		return nil, err
	}
	if hdr.Rcvr, err = newHardware(val); err != nil {
		return nil, fmt.Errorf("cggtts: line %d: parse RCVR: %v", dec.lineNum, err)
	}

	// CH
	if val, err = dec.expect("CH", &sum); err != nil {
		return nil, err
	}
	if hdr.Channels, err = strconv.Atoi(strings.TrimSpace(val)); err != nil {
		return nil, fmt.Errorf("cggtts: line %d: parse CH: %v", dec.lineNum, err)
	}

	// IMS, optional: labs without an ionospheric measurement system write 99999
	line, err = dec.mustLine()
	if err != nil {
		return nil, err
	}
	if key, val, err = splitKV(line); err != nil {
		return nil, fmt.Errorf("cggtts: line %d: %v", dec.lineNum, err)
	}
	if key == "IMS" {
		if v := strings.TrimSpace(val); v != "99999" {
			ims, err := newHardware(v)
			if err != nil {
				return nil, fmt.Errorf("cggtts: line %d: parse IMS: %v", dec.lineNum, err)
			}
			hdr.IMS = &ims
		}
		sum += int(Checksum(line))
		line, err = dec.mustLine()
		if err != nil {
			return nil, err
		}
		if key, val, err = splitKV(line); err != nil {
			return nil, fmt.Errorf("cggtts: line %d: %v", dec.lineNum, err)
		}
	}

	// LAB
	if key != "LAB" {
		return nil, fmt.Errorf("%w: LAB, got %q at line %d", ErrMissingLine, key, dec.lineNum)
	}
	hdr.Lab = strings.TrimSpace(val)
	sum += int(Checksum(line))

	// coordinates
	for _, coord := range []struct {
		key string
		dst *float64
	}{{"X", &hdr.Position.X}, {"Y", &hdr.Position.Y}, {"Z", &hdr.Position.Z}} {
		if val, err = dec.expect(coord.key, &sum); err != nil {
			return nil, err
		}
		v := strings.TrimSuffix(strings.TrimSpace(val), " m")
		if *coord.dst, err = parseFloat(v); err != nil {
			return nil, fmt.Errorf("cggtts: line %d: parse %s: %v", dec.lineNum, coord.key, err)
		}
	}

	// FRAME
	if val, err = dec.expect("FRAME", &sum); err != nil {
		return nil, err
	}
	hdr.Frame = strings.TrimSpace(val)

	// comments, then the delay block, terminated by the REF line
	cabSeen, refSeen := false, false
	for {
		line, err = dec.mustLine()
		if err != nil {
			return nil, err
		}
		if key, val, err = splitKV(line); err != nil {
			return nil, fmt.Errorf("cggtts: line %d: %v", dec.lineNum, err)
		}
		sum += int(Checksum(line))

		if key == "REF" {
			break
		}

		switch key {
		case "COMMENTS":
			if hdr.Delays.Kind != DelayNone || cabSeen || refSeen {
				return nil, fmt.Errorf("%w: COMMENTS after delay block at line %d", ErrMissingLine, dec.lineNum)
			}
			hdr.Comments = append(hdr.Comments, val)
		case "TOT DLY":
			if err := dec.parseDelayValues(hdr, DelayTotal, false, val); err != nil {
				return nil, err
			}
		case "SYS DLY":
			if err := dec.parseDelayValues(hdr, DelaySystem, false, val); err != nil {
				return nil, err
			}
		case "INT DLY":
			if err := dec.parseDelayValues(hdr, DelaySystem, true, val); err != nil {
				return nil, err
			}
		case "CAB DLY":
			if hdr.Delays.Cable, err = dec.parseDelayNs(key, val); err != nil {
				return nil, err
			}
			cabSeen = true
		case "REF DLY":
			if hdr.Delays.Reference, err = dec.parseDelayNs(key, val); err != nil {
				return nil, err
			}
			refSeen = true
		case "CAL_ID":
			if hdr.Delays.Kind == DelayNone {
				hdr.Delays.Kind = DelayCalibration
			}
			hdr.Delays.CalID = strings.TrimSpace(val)
		default:
			return nil, fmt.Errorf("%w: %q at line %d", ErrUnknownKey, key, dec.lineNum)
		}
	}

	if err := checkDelayShape(&hdr.Delays, cabSeen, refSeen); err != nil {
		return nil, fmt.Errorf("%w at line %d", err, dec.lineNum)
	}

	// REF
	hdr.Ref = strings.TrimSpace(val)

	// CKSUM; the line itself does not take part in the sum
	line, err = dec.mustLine()
	if err != nil {
		return nil, err
	}
	if key, val, err = splitKV(line); err != nil || key != "CKSUM" {
		return nil, fmt.Errorf("%w: CKSUM at line %d", ErrMissingLine, dec.lineNum)
	}
	found, err := parseCK(strings.TrimSpace(val))
	if err != nil {
		return nil, fmt.Errorf("cggtts: line %d: %v", dec.lineNum, err)
	}
	if computed := byte(sum % 256); computed != found {
		return nil, &ChecksumError{Line: dec.lineNum, Computed: computed, Found: found}
	}

	// blank separator line
	if line, err = dec.mustLine(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(line) != "" {
		return nil, fmt.Errorf("%w: blank line after CKSUM, got %q at line %d", ErrMissingLine, line, dec.lineNum)
	}

	// data column header and unit lines
	if line, err = dec.mustLine(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, "SAT") {
		return nil, fmt.Errorf("%w: data column header at line %d", ErrMissingLine, dec.lineNum)
	}
	hdr.DualFreq = strings.Contains(line, "MSIO")

	if line, err = dec.mustLine(); err != nil {
		return nil, err
	}
	if !strings.Contains(line, "hhmmss") {
		return nil, fmt.Errorf("%w: data unit line at line %d", ErrMissingLine, dec.lineNum)
	}

	return hdr, nil
}

// expect reads the next header line and requires the given key.
func (dec *Decoder) expect(key string, sum *int) (string, error) {
	line, err := dec.mustLine()
	if err != nil {
		return "", err
	}
	k, val, err := splitKV(line)
	if err != nil {
		return "", fmt.Errorf("cggtts: line %d: %v", dec.lineNum, err)
	}
	if k != key {
		return "", fmt.Errorf("%w: %s, got %q at line %d", ErrMissingLine, key, k, dec.lineNum)
	}
	*sum += int(Checksum(line))
	return val, nil
}

// parseDelayValues parses the value list of a TOT DLY, SYS DLY or INT DLY
// line, e.g. "34.6 ns (GPS C1), 32.9 ns (GPS C2)     CAL_ID = 1015-2021".
func (dec *Decoder) parseDelayValues(hdr *Header, kind DelayKind, split bool, val string) error {
	d := &hdr.Delays
	if d.Kind != DelayNone && (d.Kind != kind || d.SplitInternal != split) {
		return fmt.Errorf("%w: mixed delay lines at line %d", ErrInconsistentDelays, dec.lineNum)
	}
	d.Kind = kind
	d.SplitInternal = split

	if i := strings.Index(val, "CAL_ID = "); i >= 0 {
		d.CalID = strings.TrimSpace(val[i+len("CAL_ID = "):])
		val = val[:i]
	}

	if d.Values == nil {
		d.Values = map[DelayKey]float64{}
	}
	for _, entry := range strings.Split(strings.TrimSpace(val), ",") {
		m := delayEntryPattern.FindStringSubmatch(strings.TrimSpace(entry))
		if m == nil {
			return &FieldError{Field: "DLY", Line: dec.lineNum, Msg: fmt.Sprintf("malformed delay entry %q", entry)}
		}
		v, err := parseFloat(m[1])
		if err != nil {
			return &FieldError{Field: "DLY", Line: dec.lineNum, Msg: err.Error()}
		}
		sys, err := gnss.SystemFromName(m[2])
		if err != nil {
			return &FieldError{Field: "DLY", Line: dec.lineNum, Msg: err.Error()}
		}
		code := gnss.Code(m[3])
		if !code.IsValid() {
			return &FieldError{Field: "DLY", Line: dec.lineNum, Msg: fmt.Sprintf("invalid code %q", m[3])}
		}
		d.Values[DelayKey{Sys: sys, Code: code}] = v
	}
	return nil
}

// parseDelayNs parses a plain delay value like "155.2 ns".
func (dec *Decoder) parseDelayNs(key, val string) (float64, error) {
	v := strings.TrimSuffix(strings.TrimSpace(val), " ns")
	f, err := parseFloat(v)
	if err != nil {
		return 0, &FieldError{Field: key, Line: dec.lineNum, Msg: err.Error()}
	}
	return f, nil
}

// checkDelayShape verifies that the delay lines form one of the three
// permitted block shapes.
func checkDelayShape(d *Delays, cabSeen, refSeen bool) error {
	switch d.Kind {
	case DelayNone:
		return fmt.Errorf("%w: no delay block", ErrInconsistentDelays)
	case DelayTotal:
		if cabSeen || refSeen {
			return fmt.Errorf("%w: TOT DLY mixed with system delay lines", ErrInconsistentDelays)
		}
	case DelaySystem:
		if !refSeen {
			return fmt.Errorf("%w: missing REF DLY", ErrInconsistentDelays)
		}
		if d.SplitInternal != cabSeen {
			return fmt.Errorf("%w: CAB DLY must accompany INT DLY", ErrInconsistentDelays)
		}
	}
	return d.validate()
}

// NextTrack reads the next track record. It returns false at the end of the
// stream or on error, see Err.
func (dec *Decoder) NextTrack() bool {
	if dec.err != nil {
		return false
	}
	if !dec.readLine() {
		if err := dec.sc.Err(); err != nil {
			dec.setErr(err)
		}
		return false
	}

	line := dec.line()
	if strings.TrimSpace(line) == "" {
		dec.setErr(fmt.Errorf("cggtts: line %d: unexpected blank line", dec.lineNum))
		return false
	}

	trk := &Track{}
	if err := trk.unmarshal(line, dec.Header.DualFreq); err != nil {
		var fe *FieldError
		var ce *ChecksumError
		if errors.As(err, &fe) {
			fe.Line = dec.lineNum
		} else if errors.As(err, &ce) {
			ce.Line = dec.lineNum
		}
		dec.setErr(err)
		return false
	}
	dec.trk = trk
	return true
}

// Track returns the most recent track record read by NextTrack.
func (dec *Decoder) Track() *Track {
	return dec.trk
}
