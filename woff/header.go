package woff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/npillmayer/fontsubset/ot"
)

// Signature is the magic number of WOFF files, 'wOFF'.
const Signature uint32 = 0x774F4646

// Sizes of the fixed structures of a WOFF file.
const (
	HeaderSize = 44
	EntrySize  = 20
)

const (
	sfntHeaderSize   = 12
	sfntRecordSize   = 16
	flavorCollection = 0x74746366 // 'ttcf'
	maxDeflateRatio  = 1032       // upper bound of the expansion of deflate data
)

// Header is the header of a WOFF file.
type Header struct {
	Flavor         uint32 // sfnt version of the wrapped font
	Length         uint32 // size of the WOFF file
	NumTables      uint16
	Reserved       uint16
	TotalSfntSize  uint32 // size of the decoded sfnt font
	MajorVersion   uint16 // font version, copied from table head
	MinorVersion   uint16
	MetaOffset     uint32
	MetaLength     uint32 // compressed size of the metadata block
	MetaOrigLength uint32
	PrivOffset     uint32
	PrivLength     uint32
}

// TableEntry is an entry of the table directory of a WOFF file.
type TableEntry struct {
	Tag          ot.Tag
	Offset       uint32 // offset of the table data within the WOFF file
	CompLength   uint32 // length of the stored data
	OrigLength   uint32 // length of the uncompressed table
	OrigChecksum uint32 // checksum of the uncompressed table
}

// IsCompressed reports whether the table data is stored compressed.
func (e TableEntry) IsCompressed() bool {
	return e.CompLength < e.OrigLength
}

func errWOFF(section, issue string) error {
	return ot.FontError{
		Kind:    ot.ErrMalformedHeader,
		Table:   ot.Tag(Signature),
		Section: section,
		Issue:   issue,
	}
}

// ParseHeader reads the header and the table directory of a WOFF file and
// checks them for consistency: the length has to match the size of the data,
// tables have to be sorted by tag, have to lie within the file without
// overlapping each other and must add up to the total sfnt size. The original
// size of a compressed table must be reachable by inflating its data.
// Violations are errors of kind ot.ErrMalformedHeader.
func ParseHeader(woff []byte) (Header, []TableEntry, error) {
	var h Header
	if len(woff) < HeaderSize {
		return h, nil, errWOFF("Header", fmt.Sprintf("file too short: %d bytes", len(woff)))
	}
	if sig := binary.BigEndian.Uint32(woff); sig != Signature {
		return h, nil, errWOFF("Header", fmt.Sprintf("bad signature %x", sig))
	}
	h = Header{
		Flavor:         binary.BigEndian.Uint32(woff[4:]),
		Length:         binary.BigEndian.Uint32(woff[8:]),
		NumTables:      binary.BigEndian.Uint16(woff[12:]),
		Reserved:       binary.BigEndian.Uint16(woff[14:]),
		TotalSfntSize:  binary.BigEndian.Uint32(woff[16:]),
		MajorVersion:   binary.BigEndian.Uint16(woff[20:]),
		MinorVersion:   binary.BigEndian.Uint16(woff[22:]),
		MetaOffset:     binary.BigEndian.Uint32(woff[24:]),
		MetaLength:     binary.BigEndian.Uint32(woff[28:]),
		MetaOrigLength: binary.BigEndian.Uint32(woff[32:]),
		PrivOffset:     binary.BigEndian.Uint32(woff[36:]),
		PrivLength:     binary.BigEndian.Uint32(woff[40:]),
	}
	tracer().Debugf("WOFF header = %+v", h)
	switch {
	case h.Flavor == flavorCollection:
		return h, nil, errWOFF("Header", "font collections are not supported")
	case int64(h.Length) != int64(len(woff)):
		return h, nil, errWOFF("Header", fmt.Sprintf("length %d does not match file size %d", h.Length, len(woff)))
	case h.NumTables == 0:
		return h, nil, errWOFF("Header", "no tables")
	case h.Reserved != 0:
		return h, nil, errWOFF("Header", "reserved field is not zero")
	}
	frontSize := uint64(HeaderSize + EntrySize*int(h.NumTables))
	if frontSize > uint64(h.Length) {
		return h, nil, errWOFF("Directory", fmt.Sprintf("directory of %d tables exceeds file size", h.NumTables))
	}
	blocks := []block{{0, frontSize}}
	entries := make([]TableEntry, h.NumTables)
	sfntSize := uint64(sfntHeaderSize + sfntRecordSize*int(h.NumTables))
	for i := range entries {
		b := woff[HeaderSize+EntrySize*i:]
		e := TableEntry{
			Tag:          ot.Tag(binary.BigEndian.Uint32(b)),
			Offset:       binary.BigEndian.Uint32(b[4:]),
			CompLength:   binary.BigEndian.Uint32(b[8:]),
			OrigLength:   binary.BigEndian.Uint32(b[12:]),
			OrigChecksum: binary.BigEndian.Uint32(b[16:]),
		}
		if uint64(e.Offset)+uint64(e.CompLength) > uint64(h.Length) {
			return h, nil, errWOFF("Directory", fmt.Sprintf("table %s extends beyond file size", e.Tag))
		}
		if e.CompLength > e.OrigLength {
			return h, nil, errWOFF("Directory", fmt.Sprintf("table %s: compressed size exceeds original size", e.Tag))
		}
		if e.IsCompressed() && uint64(e.OrigLength) > maxDeflateRatio*uint64(e.CompLength) {
			return h, nil, errWOFF("Directory", fmt.Sprintf("table %s: original size %d cannot be inflated from %d bytes",
				e.Tag, e.OrigLength, e.CompLength))
		}
		if i > 0 && e.Tag <= entries[i-1].Tag {
			return h, nil, errWOFF("Directory", fmt.Sprintf("table %s: tables not sorted by tag", e.Tag))
		}
		sfntSize += pad4(uint64(e.OrigLength))
		blocks = append(blocks, block{uint64(e.Offset), uint64(e.CompLength)})
		entries[i] = e
	}
	if sfntSize != uint64(h.TotalSfntSize) {
		return h, nil, errWOFF("Header", fmt.Sprintf("totalSfntSize is %d, tables add up to %d", h.TotalSfntSize, sfntSize))
	}
	if (h.MetaOffset == 0) != (h.MetaLength == 0) || (h.MetaOffset == 0) != (h.MetaOrigLength == 0) {
		return h, nil, errWOFF("Metadata", "inconsistent metadata block fields")
	}
	if h.MetaOffset != 0 {
		blocks = append(blocks, block{uint64(h.MetaOffset), uint64(h.MetaLength)})
	}
	if (h.PrivOffset == 0) != (h.PrivLength == 0) {
		return h, nil, errWOFF("Private", "inconsistent private block fields")
	}
	if h.PrivOffset != 0 {
		blocks = append(blocks, block{uint64(h.PrivOffset), uint64(h.PrivLength)})
	}
	if err := checkOverlap(blocks); err != nil {
		return h, nil, err
	}
	return h, entries, nil
}

// Metadata returns the decompressed XML metadata of a WOFF file, or nil if the
// file has no metadata block.
func (h Header) Metadata(woff []byte) ([]byte, error) {
	if h.MetaOffset == 0 {
		return nil, nil
	}
	end := uint64(h.MetaOffset) + uint64(h.MetaLength)
	if end > uint64(len(woff)) {
		return nil, errWOFF("Metadata", "metadata block extends beyond file size")
	}
	xml, err := inflate(woff[h.MetaOffset:end], h.MetaOrigLength)
	if err != nil {
		return nil, ot.FontError{
			Kind:    ot.ErrCompressionFailed,
			Table:   ot.Tag(Signature),
			Section: "Metadata",
			Issue:   err.Error(),
		}
	}
	if len(xml) != int(h.MetaOrigLength) {
		return nil, errWOFF("Metadata", fmt.Sprintf("metadata has %d bytes, expected %d", len(xml), h.MetaOrigLength))
	}
	return xml, nil
}

// --- Helpers ---------------------------------------------------------------

type block struct {
	offset, length uint64
}

func checkOverlap(blocks []block) error {
	slices.SortFunc(blocks, func(a, b block) int {
		switch {
		case a.offset < b.offset:
			return -1
		case a.offset > b.offset:
			return 1
		}
		return 0
	})
	for i := 1; i < len(blocks); i++ {
		if blocks[i].offset < blocks[i-1].offset+blocks[i-1].length {
			return errWOFF("Directory", fmt.Sprintf("data blocks overlap at offset %d", blocks[i].offset))
		}
	}
	return nil
}

// inflate decompresses zlib data, reading at most one byte more than expected.
func inflate(data []byte, expected uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err = io.Copy(&buf, io.LimitReader(zr, int64(expected)+1)); err != nil {
		return nil, err
	}
	if err = zr.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deflate(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err = zw.Write(data); err != nil {
		return nil, err
	}
	if err = zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pad4(n uint64) uint64 {
	return (n + 3) &^ 3
}
