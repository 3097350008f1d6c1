package cggtts

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/de-bkg/gocggtts/pkg/gnss"
	"github.com/mholt/archiver/v3"
)

// FileNamePattern is the regex for BIPM CGGTTS filenames, e.g. GZLA0160.258:
// constellation letter, frequency class, 2-char lab, 2-char receiver and the
// 5-digit MJD split around the dot.
var FileNamePattern = regexp.MustCompile(`^([A-Z])([SMZ])([A-Z0-9]{2})([A-Z0-9]{2})(\d{2})\.(\d{3})(?:\.([a-zA-Z0-9]+))?$`)

// Frequency class letters used in CGGTTS filenames.
const (
	ClassSingleChannel = "S" // single-channel, single-frequency
	ClassMultiChannel  = "M" // multi-channel, single-frequency
	ClassDualFreq      = "Z" // multi-channel, dual-frequency
)

// A File represents a CGGTTS file on disk, named following the BIPM
// convention.
type File struct {
	Path string

	Sys         gnss.System
	Class       string // S, M or Z
	Lab         string // 2-char lab acronym
	Rcvr        string // 2-char receiver identifier
	MJD         int
	Compression string // gz, ...
}

// NewFile returns a new CGGTTS file object with the fields filled from the
// filename.
func NewFile(path string) (*File, error) {
	f := &File{Path: path}
	err := f.parseFilename()
	return f, err
}

// parseFilename parses the specified filename, which must be a valid CGGTTS
// filename, and fills its fields.
func (f *File) parseFilename() error {
	if f.Path == "" {
		return fmt.Errorf("could not parse filename: Path is empty")
	}

	fn := filepath.Base(f.Path)
	res := FileNamePattern.FindStringSubmatch(fn)
	if res == nil {
		return fmt.Errorf("weird CGGTTS filename: %s", fn)
	}

	sys, err := gnss.SystemFromAbbr(res[1])
	if err != nil {
		return err
	}
	f.Sys = sys
	f.Class = res[2]
	f.Lab = res[3]
	f.Rcvr = res[4]
	mjd, _ := strconv.Atoi(res[5] + res[6])
	f.MJD = mjd
	f.Compression = res[7]
	return nil
}

// Filename returns the filename following the BIPM convention.
func (f *File) Filename() (string, error) {
	if len(f.Lab) != 2 || len(f.Rcvr) != 2 {
		return "", fmt.Errorf("lab and receiver identifiers must have 2 characters: %q %q", f.Lab, f.Rcvr)
	}
	if f.MJD < 10000 || f.MJD > 99999 {
		return "", fmt.Errorf("MJD out of range: %d", f.MJD)
	}
	mjd := strconv.Itoa(f.MJD)
	return fmt.Sprintf("%s%s%s%s%s.%s", f.Sys.Abbr(), f.Class, strings.ToUpper(f.Lab), strings.ToUpper(f.Rcvr), mjd[:2], mjd[2:]), nil
}

// IsDualFreq returns true if the filename advertises dual-frequency data.
func (f *File) IsDualFreq() bool {
	return f.Class == ClassDualFreq
}

// Parse reads and decodes the file. Compressed files are decompressed to a
// temporary file first.
func (f *File) Parse() (*Document, error) {
	path := f.Path
	if f.Compression != "" {
		tmpPath := filepath.Join(os.TempDir(), strings.TrimSuffix(filepath.Base(f.Path), "."+f.Compression))
		if err := archiver.DecompressFile(f.Path, tmpPath); err != nil {
			return nil, fmt.Errorf("decompress file: %v", err)
		}
		defer os.Remove(tmpPath)
		path = tmpPath
	}

	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Parse(r)
}

// Compress compresses the file with gzip.
func (f *File) Compress() error {
	if f.Compression != "" {
		return fmt.Errorf("file is already compressed: %s", f.Path)
	}
	err := archiver.CompressFile(f.Path, f.Path+".gz")
	if err != nil {
		return err
	}
	f.Compression = "gz"
	return nil
}
