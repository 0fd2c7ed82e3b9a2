package ot

import (
	"fmt"
	"math"
	"math/bits"
	"sort"
)

// TableData is a table to be written into a font.
type TableData struct {
	Tag  Tag
	Data []byte
}

// SearchParams returns the values of searchRange, entrySelector and rangeShift
// of an sfnt header for n tables.
func SearchParams(n int) (searchRange, entrySelector, rangeShift uint16) {
	if n <= 0 {
		return 0, 0, 0
	}
	es := bits.Len(uint(n)) - 1 // floor(log2(n))
	sr := (1 << es) * tableRecordSize
	return uint16(sr), uint16(es), uint16(n*tableRecordSize - sr)
}

// Assemble arranges tables into an sfnt font file. Tables are sorted by tag and
// every table starts at a 4-byte boundary, padded with zeros. The table directory
// records the checksum of each table.
//
// If a head table is given, its checkSumAdjustment is set such that the checksum
// of the whole font equals ChecksumAdjustmentMagic. The caller's data is not
// modified.
func Assemble(flavor uint32, tables []TableData) ([]byte, error) {
	if len(tables) > 0xffff {
		return nil, errMalformedHeader(fmt.Sprintf("too many tables: %d", len(tables)))
	}
	sorted := make([]TableData, len(tables))
	copy(sorted, tables)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Tag < sorted[j].Tag })
	size := sfntHeaderSize + tableRecordSize*len(sorted)
	for i, t := range sorted {
		if i > 0 && sorted[i-1].Tag == t.Tag {
			return nil, FontError{Kind: ErrMalformedHeader, Table: t.Tag, Section: "Directory", Issue: "duplicate table tag"}
		}
		if t.Tag == T("head") && len(t.Data) < HeadTableSize {
			return nil, errOutOfBounds(t.Tag, "Size", fmt.Sprintf("head table too small: %d bytes", len(t.Data)))
		}
		size += align4(len(t.Data))
		if uint64(size) > math.MaxUint32 {
			return nil, errOutOfBounds(t.Tag, "Size", "font exceeds 4 GB")
		}
	}
	font := make([]byte, size)
	putU32(font, flavor)
	putU16(font[4:], uint16(len(sorted)))
	sr, es, rs := SearchParams(len(sorted))
	putU16(font[6:], sr)
	putU16(font[8:], es)
	putU16(font[10:], rs)
	offset := sfntHeaderSize + tableRecordSize*len(sorted)
	headOffset := -1
	for i, t := range sorted {
		rec := font[sfntHeaderSize+tableRecordSize*i:]
		copy(font[offset:], t.Data)
		if t.Tag == T("head") {
			headOffset = offset
			putU32(font[offset+HeadCheckSumAdjustmentOffset:], 0)
		}
		putU32(rec, uint32(t.Tag))
		putU32(rec[4:], Checksum(font[offset:offset+len(t.Data)]))
		putU32(rec[8:], uint32(offset))
		putU32(rec[12:], uint32(len(t.Data)))
		tracer().Debugf("table %s at offset %d, length %d", t.Tag, offset, len(t.Data))
		offset += align4(len(t.Data))
	}
	if headOffset >= 0 {
		adjustment := ChecksumAdjustmentMagic - Checksum(font)
		putU32(font[headOffset+HeadCheckSumAdjustmentOffset:], adjustment)
	}
	return font, nil
}
