package ot

import (
	"errors"
	"testing"

	"github.com/npillmayer/fontsubset/internal/testfont"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestGlyfGlyphData(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := parseBasicFont(t)
	glyf, err := otf.Glyf()
	if err != nil {
		t.Fatal(err)
	}
	space, err := glyf.Glyph(testfont.GlyphSpace)
	if err != nil {
		t.Fatal(err)
	}
	if len(space) != 0 {
		t.Errorf("expected space glyph to be empty, has %d bytes", len(space))
	}
	a, err := glyf.Glyph(34)
	if err != nil {
		t.Fatal(err)
	}
	// simple glyphs have 29 bytes, padded to 30 within glyf
	if len(a) != 30 || int16(u16(a)) != 1 {
		t.Errorf("expected glyph 'A' to be a simple glyph of 30 bytes, has %d bytes", len(a))
	}
	if _, err := glyf.Glyph(testfont.BasicNumGlyphs); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected OutOfBounds for glyph beyond glyph count, have %v", err)
	}
}

func TestGlyfComponents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := parseBasicFont(t)
	glyf, _ := otf.Glyf()
	comps, err := glyf.Components(testfont.GlyphEAcute)
	if err != nil {
		t.Fatal(err)
	}
	if len(comps) != 2 {
		t.Fatalf("expected é to have 2 components, has %d", len(comps))
	}
	if comps[0].Glyph != GlyphIndex(testfont.ASCIIGlyph('e')) || comps[1].Glyph != testfont.GlyphAcute {
		t.Errorf("expected components e+acute, have %d+%d", comps[0].Glyph, comps[1].Glyph)
	}
	// second record starts after 10 bytes header + 8 bytes first record
	if comps[0].Offset != 12 || comps[1].Offset != 20 {
		t.Errorf("unexpected component offsets %d, %d", comps[0].Offset, comps[1].Offset)
	}
	isComp, _ := glyf.IsComposite(testfont.GlyphEAcute)
	if !isComp {
		t.Errorf("expected é to be a composite glyph")
	}
	comps, err = glyf.Components(34)
	if err != nil || len(comps) != 0 {
		t.Errorf("expected simple glyph to have no components, have %v (%v)", comps, err)
	}
}

func TestComponentRecordLength(t *testing.T) {
	tests := []struct {
		flags  uint16
		length int
	}{
		{0x0000, 6},
		{componentArg1And2AreWords, 8},
		{componentWeHaveAScale, 8},
		{componentArg1And2AreWords | componentWeHaveXAndYScale, 12},
		{componentWeHaveATwoByTwo, 14},
		{componentArg1And2AreWords | componentWeHaveATwoByTwo | componentMoreComponents, 16},
	}
	for _, tt := range tests {
		if l := componentRecordLength(tt.flags); l != tt.length {
			t.Errorf("flags %04x: expected record length %d, have %d", tt.flags, tt.length, l)
		}
	}
}

func TestGlyphComponentsTruncated(t *testing.T) {
	data := testfont.CompositeGlyph(3, 4)
	if _, err := GlyphComponents(data[:len(data)-3]); err == nil {
		t.Errorf("expected truncated composite glyph to fail")
	}
	if _, err := GlyphComponents(data[:12]); err == nil {
		t.Errorf("expected composite glyph without complete record to fail")
	}
}

func TestLongLoca(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	fb := testfont.BasicBuilder()
	fb.LongLoca = true
	otf, err := Parse(fb.Build())
	if err != nil {
		t.Fatal(err)
	}
	loca, _ := otf.Loca()
	if !loca.IsLong() {
		t.Errorf("expected long loca format")
	}
	glyf, _ := otf.Glyf()
	comps, err := glyf.Components(testfont.GlyphARing)
	if err != nil || len(comps) != 2 || comps[1].Glyph != testfont.GlyphRing {
		t.Errorf("expected Å to reference ring glyph, have %v (%v)", comps, err)
	}
}

func TestLocaTooShort(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	fb := testfont.BasicBuilder()
	fb.Omit = []string{"loca"}
	tables := append(fb.Tables(), testfont.Table{Tag: "loca", Data: make([]byte, 20)})
	_, err := Parse(testfont.Assemble(testfont.FlavorTrueType, tables))
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected OutOfBounds for short loca, have %v", err)
	}
}
