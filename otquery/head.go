package otquery

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/npillmayer/fontsubset/ot"
)

// HeadTableInfo is a typed query view over OpenType table 'head'.
// Values are decoded directly from the raw table bytes.
type HeadTableInfo struct {
	MajorVersion       uint16
	MinorVersion       uint16
	FontRevision       uint32 // 16.16 fixed
	CheckSumAdjustment uint32
	MagicNumber        uint32
	Flags              uint16
	UnitsPerEm         uint16
	Created            int64 // seconds since 1904-01-01
	Modified           int64 // seconds since 1904-01-01
	XMin               int16
	YMin               int16
	XMax               int16
	YMax               int16
	MacStyle           uint16
	LowestRecPPEM      uint16
	FontDirectionHint  int16
	IndexToLocFormat   int16
	GlyphDataFormat    int16
}

// HeadMagicNumber is the required value of field magicNumber of table 'head'.
const HeadMagicNumber uint32 = 0x5F0F3CF5

// Bits of field macStyle.
const (
	MacStyleBold   uint16 = 1 << 0
	MacStyleItalic uint16 = 1 << 1
)

// Bold reports whether bit 0 of macStyle is set.
func (h HeadTableInfo) Bold() bool {
	return h.MacStyle&MacStyleBold != 0
}

// Italic reports whether bit 1 of macStyle is set.
func (h HeadTableInfo) Italic() bool {
	return h.MacStyle&MacStyleItalic != 0
}

// MagicOK reports whether the table carries the expected magic number.
func (h HeadTableInfo) MagicOK() bool {
	return h.MagicNumber == HeadMagicNumber
}

// Revision splits the font revision into its integer and fractional part.
func (h HeadTableInfo) Revision() (major, minor uint16) {
	return uint16(h.FontRevision >> 16), uint16(h.FontRevision)
}

// BBox returns the bounding box of all glyphs of the font.
func (h HeadTableInfo) BBox() BoundingBox {
	return makeBBox(h.XMin, h.YMin, h.XMax, h.YMax)
}

// CreatedTime returns the creation date of the font.
func (h HeadTableInfo) CreatedTime() time.Time {
	return MacTime(h.Created)
}

// ModifiedTime returns the date of the font's last modification.
func (h HeadTableInfo) ModifiedTime() time.Time {
	return MacTime(h.Modified)
}

// MacEpoch is the origin of date fields in OpenType fonts.
var MacEpoch = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// MacTime converts seconds since MacEpoch to a time value.
func MacTime(secs int64) time.Time {
	return MacEpoch.Add(time.Duration(secs) * time.Second)
}

// MacSeconds converts a time value to seconds since MacEpoch, as stored in
// the date fields of table 'head'.
func MacSeconds(t time.Time) int64 {
	return int64(t.Sub(MacEpoch) / time.Second)
}

// HeadInfo decodes table 'head' from raw bytes.
func HeadInfo(otf *ot.Font) (HeadTableInfo, error) {
	var info HeadTableInfo
	b, err := tableBytes(otf, "head")
	if err != nil {
		return info, err
	}
	if len(b) < ot.HeadTableSize {
		return info, ot.ErrOutOfBoundsFor(ot.T("head"), "Header",
			fmt.Sprintf("head table has %d bytes, need %d", len(b), ot.HeadTableSize))
	}
	info.MajorVersion = binary.BigEndian.Uint16(b[0:2])
	info.MinorVersion = binary.BigEndian.Uint16(b[2:4])
	info.FontRevision = binary.BigEndian.Uint32(b[4:8])
	info.CheckSumAdjustment = binary.BigEndian.Uint32(b[8:12])
	info.MagicNumber = binary.BigEndian.Uint32(b[12:16])
	info.Flags = binary.BigEndian.Uint16(b[16:18])
	info.UnitsPerEm = binary.BigEndian.Uint16(b[18:20])
	info.Created = int64(binary.BigEndian.Uint64(b[20:28]))
	info.Modified = int64(binary.BigEndian.Uint64(b[28:36]))
	info.XMin = int16(binary.BigEndian.Uint16(b[36:38]))
	info.YMin = int16(binary.BigEndian.Uint16(b[38:40]))
	info.XMax = int16(binary.BigEndian.Uint16(b[40:42]))
	info.YMax = int16(binary.BigEndian.Uint16(b[42:44]))
	info.MacStyle = binary.BigEndian.Uint16(b[44:46])
	info.LowestRecPPEM = binary.BigEndian.Uint16(b[46:48])
	info.FontDirectionHint = int16(binary.BigEndian.Uint16(b[48:50]))
	info.IndexToLocFormat = int16(binary.BigEndian.Uint16(b[50:52]))
	info.GlyphDataFormat = int16(binary.BigEndian.Uint16(b[52:54]))
	if !info.MagicOK() {
		tracer().Infof("head table has unexpected magic number %x", info.MagicNumber)
	}
	return info, nil
}

// tableBytes returns the bytes of a table or a MissingTable error.
func tableBytes(otf *ot.Font, tag string) ([]byte, error) {
	if otf == nil {
		return nil, ot.ErrMissingTableFor(ot.T(tag))
	}
	table, err := otf.RequireTable(ot.T(tag))
	if err != nil {
		return nil, err
	}
	return table.Binary(), nil
}
