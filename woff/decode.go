package woff

import (
	"encoding/binary"
	"fmt"

	"github.com/npillmayer/fontsubset/ot"
)

// Decode reconstructs the sfnt font wrapped by a WOFF file. Tables are placed
// in the order of the WOFF directory, each starting at a 4-byte boundary.
//
// Besides the checks of ParseHeader, Decode verifies that every table
// decompresses to its original length (ot.ErrMalformedHeader otherwise) and
// matches its original checksum (ot.ErrChecksumMismatch otherwise).
// Corrupt compressed data is an error of kind ot.ErrCompressionFailed.
func Decode(woff []byte) ([]byte, error) {
	h, entries, err := ParseHeader(woff)
	if err != nil {
		return nil, err
	}
	n := len(entries)
	// totalSfntSize is declared by the file; the buffer grows with the data
	// actually inflated beyond a multiple of the file size
	capacity := min(uint64(h.TotalSfntSize), 4*uint64(len(woff)))
	sfnt := make([]byte, sfntHeaderSize+sfntRecordSize*n, max(capacity, uint64(sfntHeaderSize+sfntRecordSize*n)))
	binary.BigEndian.PutUint32(sfnt, h.Flavor)
	binary.BigEndian.PutUint16(sfnt[4:], uint16(n))
	sr, es, rs := ot.SearchParams(n)
	binary.BigEndian.PutUint16(sfnt[6:], sr)
	binary.BigEndian.PutUint16(sfnt[8:], es)
	binary.BigEndian.PutUint16(sfnt[10:], rs)
	for i, e := range entries {
		data := woff[e.Offset : e.Offset+e.CompLength]
		if e.IsCompressed() {
			if data, err = inflate(data, e.OrigLength); err != nil {
				return nil, ot.FontError{Kind: ot.ErrCompressionFailed, Table: e.Tag, Section: "Inflate", Issue: err.Error()}
			}
		}
		if len(data) != int(e.OrigLength) {
			return nil, errWOFF("Directory", fmt.Sprintf("table %s decompresses to %d bytes, expected %d",
				e.Tag, len(data), e.OrigLength))
		}
		if sum := ot.TableChecksum(e.Tag, data); sum != e.OrigChecksum {
			return nil, ot.ErrChecksumFor(e.Tag, e.OrigChecksum, sum)
		}
		entry := sfnt[sfntHeaderSize+sfntRecordSize*i:]
		binary.BigEndian.PutUint32(entry, uint32(e.Tag))
		binary.BigEndian.PutUint32(entry[4:], e.OrigChecksum)
		binary.BigEndian.PutUint32(entry[8:], uint32(len(sfnt)))
		binary.BigEndian.PutUint32(entry[12:], e.OrigLength)
		sfnt = appendPadded(sfnt, data)
	}
	tracer().Debugf("decoded WOFF to sfnt font of %d bytes", len(sfnt))
	return sfnt, nil
}
