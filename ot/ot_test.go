package ot

import (
	"testing"

	"github.com/npillmayer/fontsubset/internal/testfont"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestTags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	tag := Tag(0x636d6170)
	if tag.String() != "cmap" {
		t.Errorf("expected tag 0x636d6170 to be 'cmap', is %s", tag.String())
	}
	tag = MakeTag([]byte("cmap"))
	if tag.String() != "cmap" {
		t.Errorf("expected tag MakeTag(cmap) to be 'cmap', is %s", tag.String())
	}
	tag = T("cmap")
	if tag.String() != "cmap" {
		t.Errorf("expected tag T(cmap) to be 'cmap', is %s", tag.String())
	}
	if T("cvt").String() != "cvt " {
		t.Errorf("expected short tag to be padded with spaces, is %q", T("cvt").String())
	}
	if string(T("OS/2").Bytes()) != "OS/2" {
		t.Errorf("expected tag bytes to be 'OS/2', are %q", T("OS/2").Bytes())
	}
}

func TestTableName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	tb := tableBase{}
	tb.name = 0x636d6170
	s := tb.Self().NameTag().String()
	if s != "cmap" {
		t.Errorf("expected table name to be cmap, is %v", s)
	}
}

func TestTypedAccessors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := parseBasicFont(t)
	head, err := otf.Head()
	if err != nil {
		t.Fatal(err)
	}
	if head.UnitsPerEm != 1000 {
		t.Errorf("expected units per em to be 1000, is %d", head.UnitsPerEm)
	}
	maxp, err := otf.MaxP()
	if err != nil {
		t.Fatal(err)
	}
	if maxp.NumGlyphs != testfont.BasicNumGlyphs || otf.NumGlyphs() != testfont.BasicNumGlyphs {
		t.Errorf("expected font to have %d glyphs, has %d", testfont.BasicNumGlyphs, maxp.NumGlyphs)
	}
	if maxp.Version != MaxPVersionTrueType {
		t.Errorf("expected maxp version 1.0, is %x", maxp.Version)
	}
	hhea, err := otf.HorizontalHeader()
	if err != nil {
		t.Fatal(err)
	}
	if hhea.Ascender != 800 || hhea.Descender != -200 || hhea.LineGap != 90 {
		t.Errorf("unexpected vertical metrics %d/%d/%d", hhea.Ascender, hhea.Descender, hhea.LineGap)
	}
	if _, err := otf.HorizontalMetrics(); err != nil {
		t.Error(err)
	}
	if _, err := otf.CharMap(); err != nil {
		t.Error(err)
	}
	loca, err := otf.Loca()
	if err != nil {
		t.Fatal(err)
	}
	if loca.Len() != testfont.BasicNumGlyphs+1 || loca.IsLong() {
		t.Errorf("expected short loca with %d entries, have %d (long=%v)",
			testfont.BasicNumGlyphs+1, loca.Len(), loca.IsLong())
	}
	if _, err := otf.Glyf(); err != nil {
		t.Error(err)
	}
	if otf.OS2Metrics() == nil || otf.OS2Metrics().TypoAscender != 800 {
		t.Errorf("expected OS/2 metrics with typo ascender 800")
	}
	if !otf.IsTrueType() || otf.IsCFF() {
		t.Errorf("expected font to be TrueType flavoured")
	}
}

func TestHMetrics(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := parseBasicFont(t)
	hmtx, err := otf.HorizontalMetrics()
	if err != nil {
		t.Fatal(err)
	}
	for _, gid := range []int{0, 1, 34, 102} {
		adv, lsb, ok := hmtx.HMetrics(GlyphIndex(gid))
		if !ok {
			t.Errorf("no metrics for glyph %d", gid)
			continue
		}
		if adv != testfont.BasicAdvance(gid) {
			t.Errorf("expected advance of glyph %d to be %d, is %d", gid, testfont.BasicAdvance(gid), adv)
		}
		if gid != testfont.GlyphSpace && lsb != int16(gid%7) {
			t.Errorf("expected lsb of glyph %d to be %d, is %d", gid, gid%7, lsb)
		}
	}
	if _, _, ok := hmtx.HMetrics(testfont.BasicNumGlyphs); ok {
		t.Errorf("expected no metrics for glyph beyond glyph count")
	}
}

func TestHMetricsMonospace(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf, err := Parse(testfont.Mono())
	if err != nil {
		t.Fatal(err)
	}
	hmtx, _ := otf.HorizontalMetrics()
	if hmtx.NumberOfHMetrics != 1 {
		t.Errorf("expected 1 long metric for monospace font, have %d", hmtx.NumberOfHMetrics)
	}
	if len(hmtx.LeftSideBearings()) != testfont.BasicNumGlyphs-1 {
		t.Errorf("expected %d trailing lsbs, have %d", testfont.BasicNumGlyphs-1, len(hmtx.LeftSideBearings()))
	}
	adv, lsb, _ := hmtx.HMetrics(50)
	if adv != 500 || lsb != 50%7 {
		t.Errorf("expected glyph 50 to have metrics 500/%d, has %d/%d", 50%7, adv, lsb)
	}
}

// ---------------------------------------------------------------------------

func parseBasicFont(t *testing.T) *Font {
	otf, err := Parse(testfont.Basic())
	if err != nil {
		t.Fatalf("cannot parse test font: %v", err)
	}
	return otf
}
