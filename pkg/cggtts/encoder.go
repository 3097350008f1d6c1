package cggtts

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Encode writes the document to w in the canonical 2E layout with LF line
// endings. The header and track checksums are computed during layout.
func (doc *Document) Encode(w io.Writer) error {
	if doc.Header == nil {
		return fmt.Errorf("cggtts: encode: no header")
	}
	if err := doc.Header.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	lines, err := headerLines(doc.Header)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(bw, line)
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, columnsLine(doc.Header.DualFreq))
	fmt.Fprintln(bw, unitsLine(doc.Header.DualFreq))

	for _, trk := range doc.Tracks {
		line, err := trk.marshal(doc.Header.DualFreq)
		if err != nil {
			return err
		}
		fmt.Fprintln(bw, line)
	}

	return bw.Flush()
}

// Bytes returns the encoded document.
func (doc *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// headerLines lays out the header lines including the CKSUM line. The
// checksum is computed over the laid out lines, terminators excluded.
func headerLines(hdr *Header) ([]string, error) {
	lines := make([]string, 0, 16)

	lines = append(lines, fmt.Sprintf("CGGTTS     GENERIC DATA FORMAT VERSION = %s", hdr.Version))
	lines = append(lines, fmt.Sprintf("REV DATE = %s", hdr.RevDate.Format(revDateFormat)))
	lines = append(lines, fmt.Sprintf("RCVR = %s", hdr.Rcvr))
	lines = append(lines, fmt.Sprintf("CH = %d", hdr.Channels))
	if hdr.IMS != nil {
		lines = append(lines, fmt.Sprintf("IMS = %s", hdr.IMS))
	} else {
		lines = append(lines, "IMS = 99999")
	}
	lines = append(lines, fmt.Sprintf("LAB = %s", hdr.Lab))
	lines = append(lines, fmt.Sprintf("X = %+.2f m", hdr.Position.X))
	lines = append(lines, fmt.Sprintf("Y = %+.2f m", hdr.Position.Y))
	lines = append(lines, fmt.Sprintf("Z = %+.2f m", hdr.Position.Z))
	lines = append(lines, fmt.Sprintf("FRAME = %s", hdr.Frame))
	for _, c := range hdr.Comments {
		lines = append(lines, fmt.Sprintf("COMMENTS = %s", c))
	}

	dlyLines, err := delayLines(&hdr.Delays)
	if err != nil {
		return nil, err
	}
	lines = append(lines, dlyLines...)

	lines = append(lines, fmt.Sprintf("REF = %s", hdr.Ref))

	sum := 0
	for _, line := range lines {
		sum += int(Checksum(line))
	}
	lines = append(lines, fmt.Sprintf("CKSUM = %s", formatCK(byte(sum%256))))

	return lines, nil
}

// delayLines lays out the delay calibration block.
func delayLines(d *Delays) ([]string, error) {
	switch d.Kind {
	case DelayCalibration:
		return []string{fmt.Sprintf("CAL_ID = %s", d.CalID)}, nil

	case DelayTotal:
		return []string{delayValuesLine("TOT DLY", d)}, nil

	case DelaySystem:
		var lines []string
		if d.SplitInternal {
			lines = append(lines, delayValuesLine("INT DLY", d))
			lines = append(lines, fmt.Sprintf("CAB DLY = %.1f ns", d.Cable))
		} else {
			lines = append(lines, delayValuesLine("SYS DLY", d))
		}
		return append(lines, fmt.Sprintf("REF DLY = %.1f ns", d.Reference)), nil
	}

	return nil, fmt.Errorf("cggtts: encode: %w", ErrInconsistentDelays)
}

// delayValuesLine lays out a per-signal delay line like
// "INT DLY = 34.6 ns (GPS C1), 32.9 ns (GPS C2)     CAL_ID = 1015-2021".
func delayValuesLine(key string, d *Delays) string {
	entries := make([]string, 0, len(d.Values))
	for _, k := range d.Keys() {
		entries = append(entries, fmt.Sprintf("%.1f ns (%s %s)", d.Values[k], k.Sys, k.Code))
	}
	line := fmt.Sprintf("%s = %s", key, strings.Join(entries, ", "))
	if d.CalID != "" {
		line += fmt.Sprintf("     CAL_ID = %s", d.CalID)
	}
	return line
}
