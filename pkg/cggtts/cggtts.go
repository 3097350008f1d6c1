// Package cggtts provides functions for reading and writing CGGTTS files,
// the BIPM data format for common-view GNSS time transfer.
// Only format revision 2E is supported, see the format definition
// "CGGTTS-Version 2E: an extended standard for GNSS Time Transfer" at
// https://webtai.bipm.org/ftp/pub/tai/publication/gnss-format/
package cggtts

import (
	"io"
	"sort"
)

// Document is one CGGTTS file: a header and the ordered track records.
type Document struct {
	Header *Header
	Tracks []*Track
}

// Parse reads a complete CGGTTS file from r.
func Parse(r io.Reader) (*Document, error) {
	dec, err := NewDecoder(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{Header: dec.Header}
	for dec.NextTrack() {
		doc.Tracks = append(doc.Tracks, dec.Track())
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

// AppendTracks adds tracks to the document, keeping the track order:
// start time ascending, ties broken by satellite identifier.
func (doc *Document) AppendTracks(trks ...*Track) {
	doc.Tracks = append(doc.Tracks, trks...)
	doc.SortTracks()
}

// SortTracks restores the canonical track order.
func (doc *Document) SortTracks() {
	sort.SliceStable(doc.Tracks, func(i, j int) bool {
		ti, tj := doc.Tracks[i], doc.Tracks[j]
		if ti.MJD != tj.MJD {
			return ti.MJD < tj.MJD
		}
		if ti.SecOfDay != tj.SecOfDay {
			return ti.SecOfDay < tj.SecOfDay
		}
		return ti.SV.String() < tj.SV.String()
	})
}
