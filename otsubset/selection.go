package otsubset

import (
	"slices"

	"github.com/npillmayer/fontsubset/ot"
)

// Selection is a set of glyphs of a font, closed under composite glyph
// references. It always contains glyph 0.
type Selection struct {
	otf        *ot.Font
	cmap       *ot.CMapTable
	glyf       *ot.GlyfTable // nil for fonts without TrueType outlines
	numGlyphs  int
	glyphs     map[ot.GlyphIndex]struct{}
	codepoints map[rune]ot.GlyphIndex // characters added, with their glyph
	requested  bool                   // a glyph other than .notdef has been added
}

// NewSelection creates a selection for a font, containing glyph 0 only.
// The font must have tables cmap and maxp. For fonts with TrueType outlines,
// tables glyf and loca are used to follow composite glyph references.
func NewSelection(otf *ot.Font) (*Selection, error) {
	if otf == nil {
		return nil, ot.ErrMissingTableFor(ot.T("cmap"))
	}
	cmap, err := otf.CharMap()
	if err != nil {
		return nil, err
	}
	maxp, err := otf.MaxP()
	if err != nil {
		return nil, err
	}
	s := &Selection{
		otf:       otf,
		cmap:      cmap,
		numGlyphs: maxp.NumGlyphs,
	}
	if otf.IsTrueType() {
		if s.glyf, err = otf.Glyf(); err != nil {
			return nil, err
		}
	} else {
		tracer().Infof("font has no TrueType outlines, composite glyphs will not be followed")
	}
	s.Clear()
	return s, nil
}

// Font returns the font this selection refers to.
func (s *Selection) Font() *ot.Font {
	return s.otf
}

// CodepointToGlyph returns the glyph a code-point is mapped to, or 0 if the
// font does not map the code-point. It does not change the selection.
func (s *Selection) CodepointToGlyph(cp rune) ot.GlyphIndex {
	return s.cmap.Lookup(cp)
}

// AddCharacters adds the glyphs for all characters of a text, together with
// their components. Characters not mapped by the font are skipped, as this is
// a best-effort operation. Invalid UTF-8 is decoded as U+FFFD.
//
// Returns the number of glyphs newly added to the selection.
func (s *Selection) AddCharacters(text string) int {
	n := 0
	for _, r := range text {
		n += s.addCharacter(r)
	}
	return n
}

// AddCharacter adds the glyph for a code-point, together with its components.
// It returns false if the font does not map the code-point.
func (s *Selection) AddCharacter(cp rune) bool {
	s.addCharacter(cp)
	_, ok := s.codepoints[cp]
	return ok
}

func (s *Selection) addCharacter(r rune) int {
	gid := s.cmap.Lookup(r)
	if gid == 0 {
		tracer().Debugf("no glyph for %#U", r)
		return 0
	}
	s.codepoints[r] = gid
	s.requested = true
	n, err := s.add(gid)
	if err != nil {
		tracer().Infof("glyph %d for %#U: %v", gid, r, err)
	}
	return n
}

// AddGlyph adds a glyph, bypassing the character map, together with its
// components. A glyph index beyond the glyph count of the font is an error
// of kind ot.ErrOutOfBounds, as is a composite glyph with broken components.
// In the latter case all the components which could be resolved remain
// selected.
func (s *Selection) AddGlyph(gid ot.GlyphIndex) error {
	if int(gid) >= s.numGlyphs {
		return ot.ErrGlyphOutOfRange(gid, s.numGlyphs)
	}
	if gid != 0 {
		s.requested = true
	}
	_, err := s.add(gid)
	return err
}

// add inserts a glyph and computes the closure over its components. Cyclic
// references terminate, as glyphs are queued only when first inserted.
func (s *Selection) add(gid ot.GlyphIndex) (int, error) {
	if _, ok := s.glyphs[gid]; ok {
		return 0, nil
	}
	s.glyphs[gid] = struct{}{}
	n := 1
	if s.glyf == nil {
		return n, nil
	}
	var err error
	queue := []ot.GlyphIndex{gid}
	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]
		comps, e := s.glyf.Components(g)
		if e != nil {
			if err == nil {
				err = e
			}
			continue
		}
		for _, c := range comps {
			if int(c.Glyph) >= s.numGlyphs {
				if err == nil {
					err = ot.GlyphError{
						Kind:  ot.ErrOutOfBounds,
						Glyph: g,
						Issue: "component references glyph beyond glyph count",
					}
				}
				continue
			}
			if _, ok := s.glyphs[c.Glyph]; ok {
				continue
			}
			tracer().Debugf("glyph %d: adding component %d", g, c.Glyph)
			s.glyphs[c.Glyph] = struct{}{}
			n++
			queue = append(queue, c.Glyph)
		}
	}
	return n, err
}

// Clear resets the selection to glyph 0.
func (s *Selection) Clear() {
	s.glyphs = make(map[ot.GlyphIndex]struct{})
	s.codepoints = make(map[rune]ot.GlyphIndex)
	s.requested = false
	if _, err := s.add(0); err != nil {
		tracer().Infof(".notdef glyph: %v", err)
	}
}

// HasGlyph reports whether a glyph is part of the selection.
func (s *Selection) HasGlyph(gid ot.GlyphIndex) bool {
	_, ok := s.glyphs[gid]
	return ok
}

// IsEmpty reports whether no glyph other than .notdef has been added to the
// selection. Components of .notdef do not count.
func (s *Selection) IsEmpty() bool {
	return !s.requested
}

// Len returns the number of glyphs in the selection.
func (s *Selection) Len() int {
	return len(s.glyphs)
}

// Glyphs returns the selected glyphs in ascending order. This is the order
// of the glyphs in a font rebuilt from the selection.
func (s *Selection) Glyphs() []ot.GlyphIndex {
	glyphs := make([]ot.GlyphIndex, 0, len(s.glyphs))
	for gid := range s.glyphs {
		glyphs = append(glyphs, gid)
	}
	slices.Sort(glyphs)
	return glyphs
}

// Codepoints returns the characters added to the selection which are mapped
// by the font, in ascending order.
func (s *Selection) Codepoints() []rune {
	cps := make([]rune, 0, len(s.codepoints))
	for r := range s.codepoints {
		cps = append(cps, r)
	}
	slices.Sort(cps)
	return cps
}
