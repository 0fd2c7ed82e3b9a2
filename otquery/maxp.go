package otquery

import (
	"encoding/binary"
	"fmt"

	"github.com/npillmayer/fontsubset/ot"
)

// MaxPTableInfo is a typed query view over OpenType table 'maxp'.
// For version 1.0 tables, extended profile fields are decoded if present.
type MaxPTableInfo struct {
	VersionFixed uint32
	NumGlyphs    uint16

	// TrueType profile fields (version 1.0 only)
	HasExtendedProfile    bool
	MaxPoints             uint16
	MaxContours           uint16
	MaxCompositePoints    uint16
	MaxCompositeContours  uint16
	MaxZones              uint16
	MaxTwilightPoints     uint16
	MaxStorage            uint16
	MaxFunctionDefs       uint16
	MaxInstructionDefs    uint16
	MaxStackElements      uint16
	MaxSizeOfInstructions uint16
	MaxComponentElements  uint16
	MaxComponentDepth     uint16
}

// OutlineFormat is the kind of glyph outlines a font carries.
type OutlineFormat int

// Outline formats, as implied by the version of table 'maxp'.
const (
	OutlinesUnknown OutlineFormat = iota
	OutlinesTrueType
	OutlinesCFF
)

func (f OutlineFormat) String() string {
	switch f {
	case OutlinesTrueType:
		return "TrueType"
	case OutlinesCFF:
		return "CFF"
	}
	return "unknown"
}

// Outlines returns the outline format implied by the table version:
// version 0.5 is used by fonts with CFF outlines, version 1.0 by fonts with
// TrueType outlines.
func (m MaxPTableInfo) Outlines() OutlineFormat {
	switch m.VersionFixed {
	case ot.MaxPVersionCFF:
		return OutlinesCFF
	case ot.MaxPVersionTrueType:
		return OutlinesTrueType
	}
	return OutlinesUnknown
}

const maxpMinSize = 6
const maxpV10Size = 32

// MaxPInfo decodes table 'maxp' directly from raw bytes.
func MaxPInfo(otf *ot.Font) (MaxPTableInfo, error) {
	var info MaxPTableInfo
	b, err := tableBytes(otf, "maxp")
	if err != nil {
		return info, err
	}
	if len(b) < maxpMinSize {
		return info, ot.ErrOutOfBoundsFor(ot.T("maxp"), "Header",
			fmt.Sprintf("maxp table has %d bytes, need %d", len(b), maxpMinSize))
	}
	info.VersionFixed = binary.BigEndian.Uint32(b[0:4])
	info.NumGlyphs = binary.BigEndian.Uint16(b[4:6])

	if info.VersionFixed != ot.MaxPVersionTrueType {
		return info, nil
	}
	if len(b) < maxpV10Size {
		return info, ot.ErrOutOfBoundsFor(ot.T("maxp"), "Profile",
			fmt.Sprintf("maxp version 1.0 table has %d bytes, need %d", len(b), maxpV10Size))
	}
	info.HasExtendedProfile = true
	info.MaxPoints = binary.BigEndian.Uint16(b[6:8])
	info.MaxContours = binary.BigEndian.Uint16(b[8:10])
	info.MaxCompositePoints = binary.BigEndian.Uint16(b[10:12])
	info.MaxCompositeContours = binary.BigEndian.Uint16(b[12:14])
	info.MaxZones = binary.BigEndian.Uint16(b[14:16])
	info.MaxTwilightPoints = binary.BigEndian.Uint16(b[16:18])
	info.MaxStorage = binary.BigEndian.Uint16(b[18:20])
	info.MaxFunctionDefs = binary.BigEndian.Uint16(b[20:22])
	info.MaxInstructionDefs = binary.BigEndian.Uint16(b[22:24])
	info.MaxStackElements = binary.BigEndian.Uint16(b[24:26])
	info.MaxSizeOfInstructions = binary.BigEndian.Uint16(b[26:28])
	info.MaxComponentElements = binary.BigEndian.Uint16(b[28:30])
	info.MaxComponentDepth = binary.BigEndian.Uint16(b[30:32])
	return info, nil
}
