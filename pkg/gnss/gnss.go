// Package gnss contains common constants and type definitions.
package gnss

import (
	"fmt"
	"strconv"
	"strings"
)

// System is a satellite system.
type System int

// Available satellite systems.
const (
	SysGPS System = iota + 1
	SysGLO
	SysGAL
	SysQZSS
	SysBDS
	SysIRNSS
	SysSBAS
)

func (sys System) String() string {
	return [...]string{"", "GPS", "GLO", "GAL", "QZSS", "BDS", "IRNSS", "SBAS"}[sys]
}

// Abbr returns the systems' one character abbreviation used in CGGTTS satellite identifiers.
func (sys System) Abbr() string {
	return [...]string{"", "G", "R", "E", "J", "C", "I", "S"}[sys]
}

var sysPerAbbr = map[string]System{
	"G": SysGPS,
	"R": SysGLO,
	"E": SysGAL,
	"J": SysQZSS,
	"C": SysBDS,
	"I": SysIRNSS,
	"S": SysSBAS,
}

var sysPerName = map[string]System{
	"GPS":   SysGPS,
	"GLO":   SysGLO,
	"GAL":   SysGAL,
	"QZSS":  SysQZSS,
	"BDS":   SysBDS,
	"IRNSS": SysIRNSS,
	"SBAS":  SysSBAS,
}

// SystemFromAbbr returns the system for the one character abbreviation, e.g. "G" for GPS.
func SystemFromAbbr(abbr string) (System, error) {
	if sys, ok := sysPerAbbr[abbr]; ok {
		return sys, nil
	}
	return System(0), fmt.Errorf("invalid satellite system: %q", abbr)
}

// SystemFromName returns the system for names like "GPS" or "GLO", as they
// appear in CGGTTS delay tags.
func SystemFromName(name string) (System, error) {
	if sys, ok := sysPerName[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return sys, nil
	}
	return System(0), fmt.Errorf("invalid satellite system: %q", name)
}

// Systems specifies a list of satellite systems.
type Systems []System

// String returns the contained systems separated by '+', e.g. GPS+GLO.
func (syss Systems) String() string {
	str := make([]string, 0, len(syss))
	for _, sys := range syss {
		str = append(str, sys.String())
	}
	return strings.Join(str, "+")
}

// PRN specifies a GNSS satellite.
type PRN struct {
	Sys System // The satellite system.
	Num int8   // The satellite number.
}

// NewPRN returns a new PRN for the string prn that is e.g. G12.
func NewPRN(prn string) (PRN, error) {
	if len(prn) < 3 {
		return PRN{}, fmt.Errorf("invalid satellite identifier: %q", prn)
	}

	sys, ok := sysPerAbbr[prn[:1]]
	if !ok {
		return PRN{}, fmt.Errorf("invalid satellite system: %q", prn)
	}

	snum, err := strconv.Atoi(strings.TrimSpace(prn[1:3]))
	if err != nil {
		return PRN{}, fmt.Errorf("parse sat num: %q: %v", prn, err)
	}
	if snum < 1 || snum > 99 {
		return PRN{}, fmt.Errorf("check satellite number '%v%d'", sys, snum)
	}

	return PRN{Sys: sys, Num: int8(snum)}, nil
}

// String is a PRN Stringer, e.g. G06.
func (prn PRN) String() string {
	return fmt.Sprintf("%s%02d", prn.Sys.Abbr(), prn.Num)
}

// ByPRN implements sort.Interface based on the PRN.
type ByPRN []PRN

func (p ByPRN) Len() int {
	return len(p)
}
func (p ByPRN) Swap(i, j int) {
	p[i], p[j] = p[j], p[i]
}
func (p ByPRN) Less(i, j int) bool {
	return p[i].String() < p[j].String()
}

// Code is an observation code like C1, P2 or E1, as used in CGGTTS delay tags
// and the FRC track column.
type Code string

// Common observation codes.
const (
	CodeC1 Code = "C1"
	CodeC2 Code = "C2"
	CodeP1 Code = "P1"
	CodeP2 Code = "P2"
	CodeE1 Code = "E1"
	CodeE5 Code = "E5"
	CodeB1 Code = "B1"
	CodeB2 Code = "B2"
	CodeL1 Code = "L1"
	CodeL2 Code = "L2"
)

// IsValid reports whether the code looks like an observation code.
func (c Code) IsValid() bool {
	if len(c) < 2 || len(c) > 3 {
		return false
	}
	for _, r := range c {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
