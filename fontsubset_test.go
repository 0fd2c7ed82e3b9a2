package fontsubset

import (
	"errors"
	"testing"

	"github.com/npillmayer/fontsubset/internal/testfont"
	"github.com/npillmayer/fontsubset/ot"
	"github.com/npillmayer/fontsubset/otsubset"
	"github.com/npillmayer/fontsubset/woff"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

func TestParseOpenTypeFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	sf, err := ParseOpenTypeFont(goregular.TTF)
	require.NoError(t, err)
	assert.NotEmpty(t, sf.Fontname)
	otf, err := sf.OpenType()
	require.NoError(t, err)
	assert.Equal(t, sf.SFNT.NumGlyphs(), otf.NumGlyphs())
	family, subfamily := FamilyName(otf)
	expected, err := sf.SFNT.Name(nil, sfnt.NameIDFamily)
	require.NoError(t, err)
	assert.Equal(t, expected, family)
	assert.NotEmpty(t, subfamily)
}

func TestFamilyName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	otf, err := FromBinary(testfont.Basic())
	require.NoError(t, err)
	family, subfamily := FamilyName(otf)
	assert.Equal(t, "Test Sans", family)
	assert.Equal(t, "Regular", subfamily)
	//
	fb := testfont.BasicBuilder()
	fb.Omit = append(fb.Omit, "name")
	otf, err = FromBinary(fb.Build())
	require.NoError(t, err)
	family, subfamily = FamilyName(otf)
	assert.Empty(t, family)
	assert.Empty(t, subfamily)
}

// Glyphs of a subset of a real font have to keep their metrics, as seen by
// an independent parser.
func TestSubsetFromText(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	otf, err := FromBinary(goregular.TTF)
	require.NoError(t, err)
	text := "Hello World"
	subset, err := SubsetFromText(otf, text)
	require.NoError(t, err)
	assert.Less(t, len(subset), len(goregular.TTF))
	//
	before, err := sfnt.Parse(goregular.TTF)
	require.NoError(t, err)
	after, err := sfnt.Parse(subset)
	require.NoError(t, err)
	assert.Equal(t, 9, after.NumGlyphs(), "expected .notdef plus 8 distinct characters")
	ppem := fixed.I(int(before.UnitsPerEm()))
	var b1, b2 sfnt.Buffer
	for _, r := range text {
		g1, err := before.GlyphIndex(&b1, r)
		require.NoError(t, err)
		g2, err := after.GlyphIndex(&b2, r)
		require.NoError(t, err)
		require.NotZero(t, g2, "expected %q to be mapped in subset", r)
		a1, err := before.GlyphAdvance(&b1, g1, ppem, font.HintingNone)
		require.NoError(t, err)
		a2, err := after.GlyphAdvance(&b2, g2, ppem, font.HintingNone)
		require.NoError(t, err)
		assert.Equal(t, a1, a2, "advance of %q", r)
	}
	g, err := after.GlyphIndex(&b2, 'x')
	require.NoError(t, err)
	assert.Zero(t, g, "expected 'x' not to be part of the subset")
}

func TestSubsetFromTextErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	otf, err := FromBinary(testfont.Basic())
	require.NoError(t, err)
	_, err = SubsetFromText(otf, "一")
	assert.True(t, errors.Is(err, ot.ErrEmptySelection), "expected empty selection, got %v", err)
	subset, err := SubsetFromText(otf, "一", otsubset.AllowEmpty())
	require.NoError(t, err)
	sub, err := FromBinary(subset)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.NumGlyphs())
	//
	otf, err = FromBinary(testfont.CFF())
	require.NoError(t, err)
	_, err = SubsetFromText(otf, "abc")
	assert.True(t, errors.Is(err, ot.ErrMissingTable), "expected missing glyf table, got %v", err)
}

func TestSubsetToWOFF(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	otf, err := FromBinary(testfont.Basic())
	require.NoError(t, err)
	webfont, err := SubsetToWOFF(otf, "Hello")
	require.NoError(t, err)
	h, _, err := woff.ParseHeader(webfont)
	require.NoError(t, err)
	assert.Equal(t, otf.Header.FontType, h.Flavor)
	sfntData, err := woff.Decode(webfont)
	require.NoError(t, err)
	sub, err := FromBinary(sfntData)
	require.NoError(t, err)
	assert.Equal(t, 5, sub.NumGlyphs(), "expected .notdef plus H, e, l, o")
	assert.NoError(t, sub.VerifyChecksums())
}

func TestConvertToWOFF(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	webfont, err := ConvertToWOFF(goregular.TTF)
	require.NoError(t, err)
	sfntData, err := woff.Decode(webfont)
	require.NoError(t, err)
	sf, err := ParseOpenTypeFont(sfntData)
	require.NoError(t, err)
	assert.NotEmpty(t, sf.Fontname)
	before, err := sfnt.Parse(goregular.TTF)
	require.NoError(t, err)
	assert.Equal(t, before.NumGlyphs(), sf.SFNT.NumGlyphs())
}
