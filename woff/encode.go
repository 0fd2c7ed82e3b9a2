package woff

import (
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/npillmayer/fontsubset/ot"
)

// Option configures Encode.
type Option func(*encoder)

type encoder struct {
	level    int
	metadata []byte
}

// WithMetadata adds an extended metadata block, an XML document, to the WOFF
// file. It is stored compressed.
func WithMetadata(xml []byte) Option {
	return func(enc *encoder) {
		enc.metadata = xml
	}
}

// WithCompressionLevel sets the zlib compression level, from
// zlib.NoCompression to zlib.BestCompression. Default is zlib.BestCompression.
// An invalid level lets Encode fail with ot.ErrCompressionFailed.
func WithCompressionLevel(level int) Option {
	return func(enc *encoder) {
		enc.level = level
	}
}

// Encode converts an sfnt font to WOFF.
//
// The checksums of all tables except head are verified; a mismatch is an
// error of kind ot.ErrChecksumMismatch. checkSumAdjustment of table head is
// recomputed for the sfnt font a WOFF decoder will reconstruct, i.e. with
// tables sorted by tag and 4-byte aligned. The flavor of the WOFF file is the
// sfnt version of the source font, the WOFF version is the fontRevision of
// table head. Fonts without a head table are encoded with version 0.0 and
// without a checksum adjustment.
func Encode(font []byte, opts ...Option) ([]byte, error) {
	enc := encoder{level: zlib.BestCompression}
	for _, opt := range opts {
		opt(&enc)
	}
	hdr, records, err := ot.ParseDirectory(font)
	if err != nil {
		return nil, err
	}
	records = slices.Clone(records)
	slices.SortFunc(records, func(a, b ot.TableRecord) int {
		switch {
		case a.Tag < b.Tag:
			return -1
		case a.Tag > b.Tag:
			return 1
		}
		return 0
	})
	n := len(records)
	headIndex := -1
	checksums := make([]uint32, n)
	for i, rec := range records {
		data := font[rec.Offset : rec.Offset+rec.Length]
		if rec.Tag == ot.T("head") {
			if len(data) < ot.HeadCheckSumAdjustmentOffset+4 {
				return nil, ot.ErrOutOfBoundsFor(rec.Tag, "Size", fmt.Sprintf("head table too small: %d bytes", len(data)))
			}
			headIndex = i
			checksums[i] = ot.HeadChecksum(data)
			continue
		}
		if sum := ot.Checksum(data); sum != rec.Checksum {
			tracer().Infof("checksum mismatch for table %s", rec.Tag)
			return nil, ot.ErrChecksumFor(rec.Tag, rec.Checksum, sum)
		}
		checksums[i] = rec.Checksum
	}
	//
	// checksum adjustment of the decoded sfnt: header, directory and tables
	sfnt := make([]byte, sfntHeaderSize+sfntRecordSize*n)
	binary.BigEndian.PutUint32(sfnt, hdr.FontType)
	binary.BigEndian.PutUint16(sfnt[4:], uint16(n))
	sr, es, rs := ot.SearchParams(n)
	binary.BigEndian.PutUint16(sfnt[6:], sr)
	binary.BigEndian.PutUint16(sfnt[8:], es)
	binary.BigEndian.PutUint16(sfnt[10:], rs)
	sfntSize := uint64(len(sfnt))
	for i, rec := range records {
		entry := sfnt[sfntHeaderSize+sfntRecordSize*i:]
		binary.BigEndian.PutUint32(entry, uint32(rec.Tag))
		binary.BigEndian.PutUint32(entry[4:], checksums[i])
		binary.BigEndian.PutUint32(entry[8:], uint32(sfntSize))
		binary.BigEndian.PutUint32(entry[12:], rec.Length)
		sfntSize += pad4(uint64(rec.Length))
	}
	if sfntSize > math.MaxUint32 {
		return nil, ot.ErrOutOfBoundsFor(ot.T("head"), "Size", "decoded font exceeds 4 GB")
	}
	sum := ot.Checksum(sfnt)
	for _, c := range checksums {
		sum += c
	}
	adjustment := ot.ChecksumAdjustmentMagic - sum
	tracer().Debugf("checksum adjustment = %x", adjustment)
	//
	// table data, compressed where it pays off
	var headData []byte
	if headIndex >= 0 {
		head := records[headIndex]
		headData = slices.Clone(font[head.Offset : head.Offset+head.Length])
		binary.BigEndian.PutUint32(headData[ot.HeadCheckSumAdjustmentOffset:], adjustment)
	} else {
		tracer().Infof("font has no head table, no checksum adjustment written")
	}
	out := make([]byte, HeaderSize+EntrySize*n)
	for i, rec := range records {
		data := font[rec.Offset : rec.Offset+rec.Length]
		if i == headIndex {
			data = headData
		}
		stored, err := deflate(data, enc.level)
		if err != nil {
			return nil, ot.FontError{Kind: ot.ErrCompressionFailed, Table: rec.Tag, Section: "Deflate", Issue: err.Error()}
		}
		if len(stored) >= len(data) {
			stored = data
		}
		entry := out[HeaderSize+EntrySize*i:]
		binary.BigEndian.PutUint32(entry, uint32(rec.Tag))
		binary.BigEndian.PutUint32(entry[4:], uint32(len(out)))
		binary.BigEndian.PutUint32(entry[8:], uint32(len(stored)))
		binary.BigEndian.PutUint32(entry[12:], rec.Length)
		binary.BigEndian.PutUint32(entry[16:], checksums[i])
		tracer().Debugf("table %s: %d → %d bytes", rec.Tag, len(data), len(stored))
		out = appendPadded(out, stored)
	}
	//
	// header
	binary.BigEndian.PutUint32(out, Signature)
	binary.BigEndian.PutUint32(out[4:], hdr.FontType)
	binary.BigEndian.PutUint16(out[12:], uint16(n))
	binary.BigEndian.PutUint32(out[16:], uint32(sfntSize))
	if headData != nil {
		copy(out[20:24], headData[4:8]) // fontRevision as major.minor
	}
	if len(enc.metadata) > 0 {
		meta, err := deflate(enc.metadata, enc.level)
		if err != nil {
			return nil, ot.FontError{Kind: ot.ErrCompressionFailed, Table: ot.Tag(Signature), Section: "Metadata", Issue: err.Error()}
		}
		binary.BigEndian.PutUint32(out[24:], uint32(len(out)))
		binary.BigEndian.PutUint32(out[28:], uint32(len(meta)))
		binary.BigEndian.PutUint32(out[32:], uint32(len(enc.metadata)))
		out = appendPadded(out, meta)
	}
	if uint64(len(out)) > math.MaxUint32 {
		return nil, errWOFF("Header", "WOFF file exceeds 4 GB")
	}
	binary.BigEndian.PutUint32(out[8:], uint32(len(out)))
	return out, nil
}

// appendPadded appends data to b, followed by zeros up to the next 4-byte boundary.
func appendPadded(b, data []byte) []byte {
	b = append(b, data...)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}
