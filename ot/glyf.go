package ot

import (
	"fmt"
)

// GlyfTable contains the TrueType outlines of the glyphs in a font.
// The location of a glyph's data is stored in table 'loca'; a glyph without
// data, e.g. the space glyph, has an empty location range.
//
// Package ot does not interpret simple glyph outlines. For composite glyphs, the
// component records may be inspected, as they reference other glyphs.
type GlyfTable struct {
	tableBase
	loca      *LocaTable
	numGlyphs int
}

func parseGlyf(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	t := &GlyfTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t, nil
}

// NumGlyphs returns the number of glyphs in the table, as stated by table maxp.
func (t *GlyfTable) NumGlyphs() int {
	return t.numGlyphs
}

// Glyph returns the outline data of a glyph. The data is a view into the font's
// binary data and must be treated as read-only. Glyphs without outlines will
// return an empty slice.
func (t *GlyfTable) Glyph(gid GlyphIndex) ([]byte, error) {
	if t.loca == nil {
		return nil, errMissingTable(T("loca"))
	}
	if int(gid) >= t.numGlyphs {
		return nil, ErrGlyphOutOfRange(gid, t.numGlyphs)
	}
	start := t.loca.IndexToLocation(int(gid))
	end := t.loca.IndexToLocation(int(gid) + 1)
	if end < start || end > uint32(len(t.data)) {
		return nil, GlyphError{
			Kind:  ErrOutOfBounds,
			Glyph: gid,
			Issue: fmt.Sprintf("glyph data [%d:%d] outside of glyf table of size %d", start, end, len(t.data)),
		}
	}
	return t.data[start:end], nil
}

// IsComposite returns true if a glyph is composed of other glyphs.
func (t *GlyfTable) IsComposite(gid GlyphIndex) (bool, error) {
	data, err := t.Glyph(gid)
	if err != nil {
		return false, err
	}
	return isCompositeGlyph(data), nil
}

// Components returns the component records of a composite glyph. For simple
// glyphs and empty glyphs, no components are returned.
func (t *GlyfTable) Components(gid GlyphIndex) ([]GlyphComponent, error) {
	data, err := t.Glyph(gid)
	if err != nil {
		return nil, err
	}
	comps, err := GlyphComponents(data)
	if err != nil {
		return nil, GlyphError{Kind: ErrOutOfBounds, Glyph: gid, Issue: err.Error()}
	}
	return comps, nil
}

// GlyphComponent is a reference from a composite glyph to a component glyph.
type GlyphComponent struct {
	Glyph  GlyphIndex // the referenced glyph
	Flags  uint16     // component flags, e.g. scaling information
	Offset int        // position of the glyph index within the composite glyph's data
}

// Flags of composite glyph component records.
// See https://docs.microsoft.com/en-us/typography/opentype/spec/glyf#composite-glyph-description
const (
	componentArg1And2AreWords  uint16 = 0x0001
	componentWeHaveAScale      uint16 = 0x0008
	componentMoreComponents    uint16 = 0x0020
	componentWeHaveXAndYScale  uint16 = 0x0040
	componentWeHaveATwoByTwo   uint16 = 0x0080
	componentWeHaveInstruction uint16 = 0x0100
)

// size of a glyph header: numberOfContours, xMin, yMin, xMax, yMax
const glyphHeaderSize = 10

func isCompositeGlyph(data []byte) bool {
	if len(data) < glyphHeaderSize {
		return false
	}
	return int16(u16(data)) < 0
}

// GlyphComponents decodes the component records of a composite glyph's data.
// Simple or empty glyphs have no components.
func GlyphComponents(data []byte) ([]GlyphComponent, error) {
	if !isCompositeGlyph(data) {
		return nil, nil
	}
	var comps []GlyphComponent
	pos := glyphHeaderSize
	for {
		if pos+4 > len(data) {
			return comps, fmt.Errorf("composite glyph truncated at component %d", len(comps))
		}
		flags := u16(data[pos:])
		comps = append(comps, GlyphComponent{
			Glyph:  GlyphIndex(u16(data[pos+2:])),
			Flags:  flags,
			Offset: pos + 2,
		})
		pos += componentRecordLength(flags)
		if flags&componentMoreComponents == 0 {
			break
		}
	}
	if pos > len(data) {
		return comps, fmt.Errorf("composite glyph truncated at component %d", len(comps)-1)
	}
	return comps, nil
}

// componentRecordLength returns the size of a component record, depending on its flags.
func componentRecordLength(flags uint16) int {
	n := 4 // flags and glyphIndex
	if flags&componentArg1And2AreWords != 0 {
		n += 4
	} else {
		n += 2
	}
	switch {
	case flags&componentWeHaveAScale != 0:
		n += 2
	case flags&componentWeHaveXAndYScale != 0:
		n += 4
	case flags&componentWeHaveATwoByTwo != 0:
		n += 8
	}
	return n
}
