package otquery

import (
	"encoding/binary"
	"fmt"

	"github.com/npillmayer/fontsubset/ot"
)

// HHeaTableInfo is a typed query view over OpenType table 'hhea'.
type HHeaTableInfo struct {
	MajorVersion        uint16
	MinorVersion        uint16
	Ascender            int16
	Descender           int16
	LineGap             int16
	AdvanceWidthMax     uint16
	MinLeftSideBearing  int16
	MinRightSideBearing int16
	XMaxExtent          int16
	CaretSlopeRise      int16
	CaretSlopeRun       int16
	CaretOffset         int16
	MetricDataFormat    int16
	NumberOfHMetrics    uint16
}

const hheaTableSize = 36

// HHeaInfo decodes table 'hhea' from raw bytes.
func HHeaInfo(otf *ot.Font) (HHeaTableInfo, error) {
	var info HHeaTableInfo
	b, err := tableBytes(otf, "hhea")
	if err != nil {
		return info, err
	}
	if len(b) < hheaTableSize {
		return info, ot.ErrOutOfBoundsFor(ot.T("hhea"), "Header",
			fmt.Sprintf("hhea table has %d bytes, need %d", len(b), hheaTableSize))
	}
	info.MajorVersion = binary.BigEndian.Uint16(b[0:2])
	info.MinorVersion = binary.BigEndian.Uint16(b[2:4])
	info.Ascender = i16(b[4:6])
	info.Descender = i16(b[6:8])
	info.LineGap = i16(b[8:10])
	info.AdvanceWidthMax = binary.BigEndian.Uint16(b[10:12])
	info.MinLeftSideBearing = i16(b[12:14])
	info.MinRightSideBearing = i16(b[14:16])
	info.XMaxExtent = i16(b[16:18])
	info.CaretSlopeRise = i16(b[18:20])
	info.CaretSlopeRun = i16(b[20:22])
	info.CaretOffset = i16(b[22:24])
	// 4 reserved int16 fields
	info.MetricDataFormat = i16(b[32:34])
	info.NumberOfHMetrics = binary.BigEndian.Uint16(b[34:36])
	return info, nil
}
