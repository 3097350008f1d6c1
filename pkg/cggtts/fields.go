package cggtts

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// revDateFormat is the time format of the REV DATE header line.
	revDateFormat string = "2006-01-02"

	secsPerDay = 86400
)

// parseFloat parses a float with surrounding blanks.
func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// parseUintField parses an unsigned zero-padded integer field of fixed width,
// e.g. the MJD or DSG track columns.
func parseUintField(field string, col int, s string) (int64, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, &FieldError{Field: field, Column: col, Msg: fmt.Sprintf("non-numeric text %q", s)}
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &FieldError{Field: field, Column: col, Msg: err.Error()}
	}
	return v, nil
}

// parseSignedField parses a signed fixed-width integer field with a leading
// sign character, e.g. REFSV (+0000123456).
func parseSignedField(field string, col int, s string) (int64, error) {
	if len(s) < 2 || (s[0] != '+' && s[0] != '-') {
		return 0, &FieldError{Field: field, Column: col, Msg: fmt.Sprintf("missing sign in %q", s)}
	}
	v, err := parseUintField(field, col, s[1:])
	if err != nil {
		return 0, err
	}
	if s[0] == '-' {
		v = -v
	}
	return v, nil
}

// formatUintField formats v as a zero-padded unsigned integer of exactly
// width characters.
func formatUintField(field string, v int64, width int) (string, error) {
	if v < 0 {
		return "", &FieldError{Field: field, Msg: fmt.Sprintf("negative value %d", v)}
	}
	s := fmt.Sprintf("%0*d", width, v)
	if len(s) != width {
		return "", &FieldError{Field: field, Msg: fmt.Sprintf("value %d overflows %d characters", v, width)}
	}
	return s, nil
}

// formatSignedField formats v as sign plus zero-padded digits, width
// characters in total.
func formatSignedField(field string, v int64, width int) (string, error) {
	s := fmt.Sprintf("%+0*d", width, v)
	if len(s) != width {
		return "", &FieldError{Field: field, Msg: fmt.Sprintf("value %d overflows %d characters", v, width)}
	}
	return s, nil
}

// parseSTTIME parses the hhmmss track column into seconds of day.
func parseSTTIME(col int, s string) (int, error) {
	v, err := parseUintField("STTIME", col, s)
	if err != nil {
		return 0, err
	}
	hr, min, sec := int(v/10000), int(v/100%100), int(v%100)
	if hr > 23 || min > 59 || sec > 59 {
		return 0, &FieldError{Field: "STTIME", Column: col, Msg: fmt.Sprintf("invalid time of day %q", s)}
	}
	return hr*3600 + min*60 + sec, nil
}

// formatSTTIME formats seconds of day as hhmmss.
func formatSTTIME(secOfDay int) (string, error) {
	if secOfDay < 0 || secOfDay >= secsPerDay {
		return "", &FieldError{Field: "STTIME", Msg: fmt.Sprintf("seconds of day out of range: %d", secOfDay)}
	}
	return fmt.Sprintf("%02d%02d%02d", secOfDay/3600, secOfDay/60%60, secOfDay%60), nil
}

// formatString left-justifies s in a field of exactly width characters.
func formatString(field, s string, width int) (string, error) {
	if len(s) > width {
		return "", &FieldError{Field: field, Msg: fmt.Sprintf("%q exceeds %d characters", s, width)}
	}
	return fmt.Sprintf("%-*s", width, s), nil
}
