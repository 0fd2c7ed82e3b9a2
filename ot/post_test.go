package ot

import (
	"testing"

	"github.com/npillmayer/fontsubset/internal/testfont"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestPostGlyphNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	otf := parseBasicFont(t)
	post := otf.Table(T("post")).Self().AsPost()
	if post == nil {
		t.Fatal("cannot convert post table")
	}
	if post.Version != PostVersion2 || !post.HasGlyphNames() {
		t.Fatalf("expected post table version 2 with glyph names, have version %x", post.Version)
	}
	tests := []struct {
		gid  GlyphIndex
		name string
	}{
		{0, ".notdef"},
		{testfont.GlyphSpace, "space"},
		{34, "A"},
		{95, "asciitilde"},
		{testfont.GlyphEAcute, "eacute"},
		{testfont.GlyphEmoji, "u1F600"},
		{testfont.BasicNumGlyphs, ""},
	}
	for _, tt := range tests {
		if name := post.GlyphName(tt.gid); name != tt.name {
			t.Errorf("expected name of glyph %d to be %q, is %q", tt.gid, tt.name, name)
		}
	}
	if len(post.CustomNames()) != 7 {
		t.Errorf("expected 7 custom names, have %d", len(post.CustomNames()))
	}
}

func TestPostVersion3(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	fb := testfont.BasicBuilder()
	fb.GlyphNames = nil
	otf, err := Parse(fb.Build())
	if err != nil {
		t.Fatal(err)
	}
	post := otf.Table(T("post")).Self().AsPost()
	if post.Version != PostVersion3 || post.HasGlyphNames() {
		t.Errorf("expected post table version 3 without names")
	}
	if post.GlyphName(34) != "" {
		t.Errorf("expected no glyph name, have %q", post.GlyphName(34))
	}
}

func TestPostGlyphCountMismatch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	fb := testfont.BasicBuilder()
	fb.GlyphNames = fb.GlyphNames[:10]
	otf, err := Parse(fb.Build())
	if err != nil {
		t.Fatalf("expected broken post table to be tolerated, have %v", err)
	}
	if len(otf.Errors()) != 1 || otf.Errors()[0].Table != T("post") {
		t.Errorf("expected one error for table post, have %v", otf.Errors())
	}
	if otf.Table(T("post")).Self().AsPost().HasGlyphNames() {
		t.Errorf("expected no glyph names from broken post table")
	}
}
