package testfont

import (
	"encoding/binary"
)

// Glyph indices of the Basic font. ASCII characters U+0021 to U+007E map to
// glyphs 2 to 95, i.e. glyph = code-point - 0x1F.
const (
	GlyphNotdef    = 0
	GlyphSpace     = 1
	GlyphAcute     = 96  // combining accent, not mapped by cmap
	GlyphEAcute    = 97  // U+00E9, composite of 'e' and acute
	GlyphARing     = 98  // U+00C5, composite of 'A' and ring
	GlyphRing      = 99  // ring, not mapped by cmap
	GlyphCycleA    = 100 // U+E000, composite referencing GlyphCycleB
	GlyphCycleB    = 101 // composite referencing GlyphCycleA
	GlyphEmoji     = 102 // U+1F600, requires cmap format 12
	BasicNumGlyphs = 103
)

// ASCIIGlyph returns the glyph index of an ASCII character in the Basic font.
func ASCIIGlyph(c rune) uint16 {
	if c == ' ' {
		return GlyphSpace
	}
	return uint16(c - 0x1f)
}

// BasicGlyph returns the glyph index a code-point maps to in the Basic font,
// or 0 for unmapped code-points.
func BasicGlyph(r rune) uint16 {
	switch {
	case r >= 0x20 && r <= 0x7e:
		return ASCIIGlyph(r)
	case r == 0xe9:
		return GlyphEAcute
	case r == 0xc5:
		return GlyphARing
	case r == 0xe000:
		return GlyphCycleA
	case r == 0x1f600:
		return GlyphEmoji
	}
	return 0
}

// BasicAdvance returns the advance width of a glyph of the Basic font.
func BasicAdvance(gid int) uint16 {
	if gid == GlyphSpace {
		return 250
	}
	return 400 + uint16(gid%5)*50
}

// BasicBuilder returns the builder for the Basic font, to be modified by tests.
func BasicBuilder() Builder {
	glyphs := make([]Glyph, BasicNumGlyphs)
	names := make([]GlyphName, BasicNumGlyphs)
	cmap := make(map[rune]uint16)
	for gid := range glyphs {
		glyphs[gid] = Glyph{
			Advance: BasicAdvance(gid),
			LSB:     int16(gid % 7),
			Outline: SimpleGlyph(int16(300+gid), 700),
		}
	}
	glyphs[GlyphSpace].Outline = nil
	glyphs[GlyphSpace].LSB = 0
	names[GlyphNotdef] = GlyphName{Standard: 0}
	names[GlyphSpace] = GlyphName{Standard: 3}
	cmap[' '] = GlyphSpace
	for c := rune(0x21); c <= 0x7e; c++ {
		gid := ASCIIGlyph(c)
		cmap[c] = gid
		// standard Macintosh names enumerate ASCII from index 3 (space)
		names[gid] = GlyphName{Standard: uint16(c - 0x20 + 3)}
	}
	glyphs[GlyphEAcute].Outline = CompositeGlyph(ASCIIGlyph('e'), GlyphAcute)
	glyphs[GlyphARing].Outline = CompositeGlyph(ASCIIGlyph('A'), GlyphRing)
	glyphs[GlyphCycleA].Outline = CompositeGlyph(GlyphCycleB)
	glyphs[GlyphCycleB].Outline = CompositeGlyph(GlyphCycleA)
	cmap[0xe9] = GlyphEAcute
	cmap[0xc5] = GlyphARing
	cmap[0xe000] = GlyphCycleA
	cmap[0x1f600] = GlyphEmoji
	names[GlyphAcute] = GlyphName{Custom: "acutecomb"}
	names[GlyphEAcute] = GlyphName{Custom: "eacute"}
	names[GlyphARing] = GlyphName{Custom: "Aring"}
	names[GlyphRing] = GlyphName{Custom: "ringcomb"}
	names[GlyphCycleA] = GlyphName{Custom: "cycleA"}
	names[GlyphCycleB] = GlyphName{Custom: "cycleB"}
	names[GlyphEmoji] = GlyphName{Custom: "u1F600"}
	return Builder{
		Glyphs:     glyphs,
		CMap:       cmap,
		GlyphNames: names,
		UnitsPerEm: 1000,
		Revision:   0x00020000,
		Names: map[uint16]string{
			1: "Test Sans",
			2: "Regular",
			4: "Test Sans Regular",
			6: "TestSans-Regular",
		},
		Extra: map[string][]byte{
			"cvt ": {0, 10, 0, 20},
			"fpgm": {0xb0, 0x01, 0x2c},
			"prep": {0xb0, 0x02},
			"gasp": {0, 1, 0, 1, 0xff, 0xff, 0, 0x0f},
			"GSUB": {0, 1, 0, 0, 0, 10, 0, 12, 0, 14, 0, 0, 0, 0, 0, 0},
			"kern": {0, 0, 0, 0},
		},
	}
}

// Basic returns a TrueType font with 103 glyphs, covering ASCII, two accented
// letters built from composite glyphs, a pair of cyclic composite glyphs and a
// code-point beyond the BMP.
func Basic() []byte {
	return BasicBuilder().Build()
}

// Mono returns a variant of the Basic font with all glyphs having the same advance.
func Mono() []byte {
	fb := BasicBuilder()
	for i := range fb.Glyphs {
		fb.Glyphs[i].Advance = 500
	}
	return fb.Build()
}

// CFF returns a CFF flavoured font with the glyph inventory of the Basic font.
func CFF() []byte {
	fb := BasicBuilder()
	fb.CFF = true
	return fb.Build()
}

// SimpleGlyph creates the data of a simple glyph with one triangular contour.
// The data has an odd length of 29 bytes.
func SimpleGlyph(xMax, yMax int16) []byte {
	var b []byte
	b = binary.BigEndian.AppendUint16(b, 1) // numberOfContours
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, uint16(xMax))
	b = binary.BigEndian.AppendUint16(b, uint16(yMax))
	b = binary.BigEndian.AppendUint16(b, 2) // endPtsOfContours[0]
	b = binary.BigEndian.AppendUint16(b, 0) // instructionLength
	b = append(b, 0x01, 0x01, 0x01)         // flags: on curve, x and y as int16
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, uint16(xMax))
	b = binary.BigEndian.AppendUint16(b, uint16(-xMax/2))
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, uint16(yMax))
	return b
}

// CompositeGlyph creates the data of a composite glyph. Components alternate
// between word arguments and byte arguments with a scale, to exercise both
// record layouts.
func CompositeGlyph(components ...uint16) []byte {
	var b []byte
	b = binary.BigEndian.AppendUint16(b, 0xffff) // numberOfContours = -1
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, 600)
	b = binary.BigEndian.AppendUint16(b, 900)
	for i, gid := range components {
		var flags uint16 = 0x0002 // ARGS_ARE_XY_VALUES
		if i%2 == 0 {
			flags |= 0x0001 // ARG_1_AND_2_ARE_WORDS
		} else {
			flags |= 0x0008 // WE_HAVE_A_SCALE
		}
		if i < len(components)-1 {
			flags |= 0x0020 // MORE_COMPONENTS
		}
		b = binary.BigEndian.AppendUint16(b, flags)
		b = binary.BigEndian.AppendUint16(b, gid)
		if i%2 == 0 {
			b = binary.BigEndian.AppendUint16(b, uint16(10*i))
			b = binary.BigEndian.AppendUint16(b, 0)
		} else {
			b = append(b, byte(5*i), 0)
			b = binary.BigEndian.AppendUint16(b, 0x4000) // scale 1.0 in F2Dot14
		}
	}
	return b
}
