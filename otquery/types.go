package otquery

import (
	"github.com/npillmayer/fontsubset/ot"
	"golang.org/x/image/font/sfnt"
)

// FontMetricsInfo contains selected metric information for a font.
type FontMetricsInfo struct {
	UnitsPerEm      sfnt.Units  // ad-hoc units per em
	Ascent, Descent sfnt.Units  // ascender and descender
	MaxAdvance      sfnt.Units  // maximum advance width value in 'hmtx' table
	LineGap         sfnt.Units  // typographic line gap
	BBox            BoundingBox // union of all glyph bounding boxes, from 'head'
}

// GlyphMetricsInfo contains all metric information for a glyph.
type GlyphMetricsInfo struct {
	Advance  sfnt.Units  // advance width
	LSB, RSB sfnt.Units  // side bearings
	BBox     BoundingBox // bounding box
}

// GlyphDescriptor describes the glyph a code-point is mapped to.
type GlyphDescriptor struct {
	Glyph      ot.GlyphIndex // 0 if the code-point is not mapped
	CodePoint  rune
	Name       string     // PostScript name from table 'post', if available
	Advance    sfnt.Units // advance width
	LSB        sfnt.Units // left side bearing
	HasOutline bool       // false for glyphs without contours, e.g. space
}

// BoundingBox describes the bounding box of a glyph.
type BoundingBox struct {
	MinX, MinY sfnt.Units
	MaxX, MaxY sfnt.Units
}

func makeBBox(xMin, yMin, xMax, yMax int16) BoundingBox {
	return BoundingBox{
		MinX: sfnt.Units(xMin),
		MinY: sfnt.Units(yMin),
		MaxX: sfnt.Units(xMax),
		MaxY: sfnt.Units(yMax),
	}
}

// IsEmpty reports whether this box has zero area.
func (bbox BoundingBox) IsEmpty() bool {
	return bbox.MaxX-bbox.MinX == 0 || bbox.MaxY-bbox.MinY == 0
}

// Dx returns the horizontal extent of this box.
func (bbox BoundingBox) Dx() sfnt.Units {
	return bbox.MaxX - bbox.MinX
}

// Dy returns the vertical extent of this box.
func (bbox BoundingBox) Dy() sfnt.Units {
	return bbox.MaxY - bbox.MinY
}
