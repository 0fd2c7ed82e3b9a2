package otsubset

import (
	"fmt"
	"time"

	"github.com/npillmayer/fontsubset/ot"
)

// Subset is a font rebuilt from a selection.
type Subset struct {
	Font     []byte                          // the binary font
	GlyphMap map[ot.GlyphIndex]ot.GlyphIndex // original glyph index → new glyph index
	Glyphs   []ot.GlyphIndex                 // original glyph indices, in new order
}

// NewGlyph returns the index of an original glyph within the subset.
func (sub *Subset) NewGlyph(gid ot.GlyphIndex) (ot.GlyphIndex, bool) {
	g, ok := sub.GlyphMap[gid]
	return g, ok
}

// RebuildOption configures Rebuild.
type RebuildOption func(*rebuildConfig)

type rebuildConfig struct {
	clock      func() time.Time
	noNames    bool
	allowEmpty bool
}

// WithClock sets the clock for field modified of table head.
// The default is time.Now.
func WithClock(clock func() time.Time) RebuildOption {
	return func(conf *rebuildConfig) {
		conf.clock = clock
	}
}

// WithoutGlyphNames replaces a post table carrying glyph names by a post
// table version 3.0.
func WithoutGlyphNames() RebuildOption {
	return func(conf *rebuildConfig) {
		conf.noNames = true
	}
}

// AllowEmpty lets Rebuild create a font from an empty selection, i.e. .notdef
// and its components only.
func AllowEmpty() RebuildOption {
	return func(conf *rebuildConfig) {
		conf.allowEmpty = true
	}
}

// Tables copied unchanged into a subset font. Other tables not rebuilt are dropped.
var verbatimTables = map[ot.Tag]bool{
	ot.T("name"): true,
	ot.T("OS/2"): true,
	ot.T("cvt "): true,
	ot.T("fpgm"): true,
	ot.T("prep"): true,
	ot.T("gasp"): true,
}

// Generate rebuilds the font from the selection and returns the font's bytes.
func (s *Selection) Generate(opts ...RebuildOption) ([]byte, error) {
	sub, err := s.Rebuild(opts...)
	if err != nil {
		return nil, err
	}
	return sub.Font, nil
}

// Rebuild creates a font containing the selected glyphs only.
//
// The selection must not be empty (see IsEmpty), unless option
// AllowEmpty is given; otherwise an error of kind ot.ErrEmptySelection is
// returned. The font has to have TrueType outlines and tables head, maxp,
// hhea and hmtx.
func (s *Selection) Rebuild(opts ...RebuildOption) (*Subset, error) {
	conf := rebuildConfig{clock: time.Now}
	for _, opt := range opts {
		opt(&conf)
	}
	if s.IsEmpty() && !conf.allowEmpty {
		return nil, ot.FontError{
			Kind:    ot.ErrEmptySelection,
			Section: "Selection",
			Issue:   "no glyph selected besides .notdef",
		}
	}
	otf := s.otf
	glyf, err := otf.Glyf()
	if err != nil {
		return nil, err
	}
	head, err := otf.RequireTable(ot.T("head"))
	if err != nil {
		return nil, err
	}
	hmtx, err := otf.HorizontalMetrics()
	if err != nil {
		return nil, err
	}
	sub := &Subset{
		Glyphs:   s.Glyphs(),
		GlyphMap: make(map[ot.GlyphIndex]ot.GlyphIndex, s.Len()),
	}
	for i, gid := range sub.Glyphs {
		sub.GlyphMap[gid] = ot.GlyphIndex(i)
	}
	tracer().Debugf("rebuilding font with %d of %d glyphs", len(sub.Glyphs), s.numGlyphs)
	//
	glyfData, locaData, longLoca, err := buildGlyfLoca(glyf, sub)
	if err != nil {
		return nil, err
	}
	advances, lsbs := subsetMetrics(hmtx, sub.Glyphs)
	var tables []ot.TableData
	for _, tag := range otf.TableTags() {
		var data []byte
		src := otf.Table(tag).Binary()
		switch tag {
		case ot.T("glyf"):
			data = glyfData
		case ot.T("loca"):
			data = locaData
		case ot.T("head"):
			data = buildHead(head.Binary(), longLoca, conf.clock())
		case ot.T("maxp"):
			data = buildMaxP(src, len(sub.Glyphs))
		case ot.T("hhea"):
			data = buildHHea(src, advances)
		case ot.T("hmtx"):
			data = buildHMtx(advances, lsbs)
		case ot.T("cmap"):
			if data, err = buildCMap(s.cmap, sub.GlyphMap); err != nil {
				return nil, err
			}
		case ot.T("post"):
			data = buildPost(otf.Table(tag).Self().AsPost(), sub.Glyphs, conf.noNames)
		default:
			if !verbatimTables[tag] {
				tracer().Infof("dropping table %s from subset", tag)
				continue
			}
			data = src
		}
		tables = append(tables, ot.TableData{Tag: tag, Data: data})
	}
	if sub.Font, err = ot.Assemble(otf.Header.FontType, tables); err != nil {
		return nil, fmt.Errorf("assembling subset font: %w", err)
	}
	return sub, nil
}
