package otquery

import (
	"fmt"

	"github.com/npillmayer/fontsubset/ot"
	"golang.org/x/image/font/sfnt"
)

// --- Font Information -------------------------------------------------

// FontType returns a human readable description of a font's flavour,
// derived from the sfnt version of the font header.
func FontType(otf *ot.Font) string {
	if otf == nil || otf.Header == nil {
		return "unknown"
	}
	switch otf.Header.FontType {
	case ot.FontTypeTrueType:
		return "TrueType"
	case ot.FontTypeCFF:
		return "OpenType (CFF)"
	case ot.FontTypeAppleTrue:
		return "TrueType (Apple)"
	}
	return fmt.Sprintf("unknown (%x)", otf.Header.FontType)
}

// NumGlyphs returns the number of glyphs in a font, as stated by table 'maxp'.
func NumGlyphs(otf *ot.Font) (int, error) {
	maxp, err := MaxPInfo(otf)
	if err != nil {
		return 0, err
	}
	return int(maxp.NumGlyphs), nil
}

// FontMetrics retrieves selected metrics of a font. Table 'head' is required.
// Vertical metrics are taken from table 'hhea'; if it is missing or carries
// neither ascender nor descender, OS/2 typographic metrics are used instead.
func FontMetrics(otf *ot.Font) (FontMetricsInfo, error) {
	metrics := FontMetricsInfo{}
	head, err := HeadInfo(otf)
	if err != nil {
		return metrics, err
	}
	metrics.UnitsPerEm = sfnt.Units(head.UnitsPerEm)
	metrics.BBox = head.BBox()
	if hhea, err := HHeaInfo(otf); err == nil {
		metrics.Ascent = sfnt.Units(hhea.Ascender)
		metrics.Descent = sfnt.Units(hhea.Descender)
		metrics.LineGap = sfnt.Units(hhea.LineGap)
		metrics.MaxAdvance = sfnt.Units(hhea.AdvanceWidthMax)
	}
	if metrics.Ascent == 0 && metrics.Descent == 0 {
		if os2 := otf.OS2Metrics(); os2 != nil {
			tracer().Debugf("OS/2")
			a := sfnt.Units(os2.TypoAscender)
			if a > metrics.Ascent {
				tracer().Debugf("override of ascent: %d -> %d", metrics.Ascent, a)
				metrics.Ascent = a
			}
			d := sfnt.Units(os2.TypoDescender)
			if d < metrics.Descent {
				tracer().Debugf("override of descent: %d -> %d", metrics.Descent, d)
				metrics.Descent = d
			}
			if metrics.LineGap == 0 {
				metrics.LineGap = sfnt.Units(os2.TypoLineGap)
			}
		}
	}
	return metrics, nil
}

// IsMonospace reports whether all glyphs with a non-zero advance share the
// same advance width. Glyphs with zero advance, e.g. combining marks, are
// not considered.
func IsMonospace(otf *ot.Font) (bool, error) {
	if otf == nil {
		return false, ot.ErrMissingTableFor(ot.T("hmtx"))
	}
	hmtx, err := otf.HorizontalMetrics()
	if err != nil {
		return false, err
	}
	var advance uint16
	for _, m := range hmtx.LongMetrics() { // trailing glyphs repeat the last advance
		if m.AdvanceWidth == 0 {
			continue
		}
		if advance != 0 && m.AdvanceWidth != advance {
			return false, nil
		}
		advance = m.AdvanceWidth
	}
	return advance != 0, nil
}

// --- Glyph Routines --------------------------------------------------------

// GlyphIndex returns the glyph index for a give code-point.
// If the code-point cannot be found, 0 is returned.
//
// From the OpenType specification: character codes that do not correspond to any glyph in
// the font should be mapped to glyph index 0. The glyph at this location must be a special
// glyph representing a missing character, commonly known as '.notdef'.
func GlyphIndex(otf *ot.Font, codepoint rune) ot.GlyphIndex {
	if otf == nil || otf.CMap == nil {
		return 0
	}
	return otf.CMap.Lookup(codepoint)
}

// CodePointForGlyph returns the code-point for a given glyph index.
//
// This is an inefficient operation: All code-points contained in the font's CMap
// are checked sequentially if they produce the given glyph.
// If the glyph index does not correspond to a code-point, 0 is returned.
func CodePointForGlyph(otf *ot.Font, gid ot.GlyphIndex) rune {
	if gid == 0 || otf == nil || otf.CMap == nil {
		return 0
	}
	return otf.CMap.ReverseLookup(gid)
}

// GlyphName returns the PostScript name of a glyph from table 'post'.
// If the font does not carry glyph names, an empty string is returned.
func GlyphName(otf *ot.Font, gid ot.GlyphIndex) string {
	if otf == nil {
		return ""
	}
	table := otf.Table(ot.T("post"))
	if table == nil {
		return ""
	}
	if post := table.Self().AsPost(); post != nil {
		return post.GlyphName(gid)
	}
	return ""
}

// GlyphMetrics retrieves metrics for a given glyph. Table 'hmtx' is required.
// For fonts with TrueType outlines, the bounding box is read from table 'glyf'.
func GlyphMetrics(otf *ot.Font, gid ot.GlyphIndex) (GlyphMetricsInfo, error) {
	metrics := GlyphMetricsInfo{}
	if otf == nil {
		return metrics, ot.ErrMissingTableFor(ot.T("hmtx"))
	}
	//
	// table HMtx: advance width and left side bearing
	hmtx, err := otf.HorizontalMetrics()
	if err != nil {
		return metrics, err
	}
	aw, lsb, ok := hmtx.HMetrics(gid)
	if !ok {
		return metrics, ot.ErrGlyphOutOfRange(gid, hmtx.GlyphCount())
	}
	metrics.Advance = sfnt.Units(aw)
	metrics.LSB = sfnt.Units(lsb)
	//
	// table glyf: bounding box
	if glyf, err := otf.Glyf(); err == nil {
		data, err := glyf.Glyph(gid)
		if err != nil {
			return metrics, err
		}
		if len(data) >= 10 {
			metrics.BBox = makeBBox(i16(data[2:]), i16(data[4:]), i16(data[6:]), i16(data[8:]))
		}
	}
	// RSB calculation: rsb = aw - (lsb + xMax - xMin)
	// From the OpenType specification:
	// If a glyph has no contours, xMax/xMin are not defined. The left side bearing indicated
	// in the 'hmtx' table for such glyphs should be zero.
	if !metrics.BBox.IsEmpty() { // leave RSB for empty bboxes
		metrics.RSB = metrics.Advance - (metrics.LSB + metrics.BBox.Dx())
	}
	return metrics, nil
}

// GlyphInfo describes the glyph a code-point is mapped to. Unmapped
// code-points describe glyph 0. HasOutline is reported for TrueType outlines
// only; for CFF fonts it is always false.
func GlyphInfo(otf *ot.Font, codepoint rune) (GlyphDescriptor, error) {
	desc := GlyphDescriptor{CodePoint: codepoint}
	if otf == nil {
		return desc, ot.ErrMissingTableFor(ot.T("cmap"))
	}
	cmap, err := otf.CharMap()
	if err != nil {
		return desc, err
	}
	desc.Glyph = cmap.Lookup(codepoint)
	metrics, err := GlyphMetrics(otf, desc.Glyph)
	if err != nil {
		return desc, err
	}
	desc.Advance, desc.LSB = metrics.Advance, metrics.LSB
	desc.Name = GlyphName(otf, desc.Glyph)
	if glyf, err := otf.Glyf(); err == nil {
		data, err := glyf.Glyph(desc.Glyph)
		if err != nil {
			return desc, err
		}
		desc.HasOutline = len(data) > 0
	}
	return desc, nil
}
