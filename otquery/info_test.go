package otquery

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/fontsubset/internal/testfont"
	"github.com/npillmayer/fontsubset/ot"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/language"
)

// --- Test Suite Preparation ------------------------------------------------

type InfoTestEnviron struct {
	suite.Suite
	otf *ot.Font
}

// listen for 'go test' command --> run test methods
func TestInfoFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otquery")
	defer teardown()
	suite.Run(t, new(InfoTestEnviron))
}

// run once, before test suite methods
func (env *InfoTestEnviron) SetupSuite() {
	env.T().Log("Setting up test suite")
	tracing.Select("font.opentype").SetTraceLevel(tracing.LevelError)
	env.otf = parseFont(env.T(), testfont.Basic())
	tracing.Select("font.opentype").SetTraceLevel(tracing.LevelInfo)
}

// run once, after test suite methods
func (env *InfoTestEnviron) TearDownSuite() {
	env.T().Log("Tearing down test suite")
}

// --- Tests -----------------------------------------------------------------

func (env *InfoTestEnviron) TestFontTypeInfo() {
	fti := FontType(env.otf)
	env.Equal("TrueType", fti, "expected font type of test font to be TrueType")
}

func (env *InfoTestEnviron) TestGeneralInfo() {
	info := NameInfo(env.otf, language.Und)
	env.T().Logf("info = %v", info)
	fam, ok := info["family"]
	env.Require().True(ok, "font familiy identifier not found in font info")
	env.Equal("Test Sans", fam, "expected font family name 'Test Sans'")
	env.Equal("TestSans-Regular", info["psname"])
	env.Equal("Regular", info["subfamily"])
	_, ok = info["copyright"]
	env.False(ok, "expected no copyright entry for test font")
	//
	info = NameInfo(env.otf, language.German) // no German names, fall back
	env.Equal("Test Sans", info["family"])
}

func (env *InfoTestEnviron) TestHeadInfo() {
	h, err := HeadInfo(env.otf)
	env.Require().NoError(err, "expected to decode table 'head'")

	headTable := env.otf.Table(ot.T("head")).Self().AsHead()
	env.Require().NotNil(headTable, "expected parsed HeadTable")

	env.Equal(headTable.Flags, h.Flags, "expected matching Flags")
	env.Equal(headTable.UnitsPerEm, h.UnitsPerEm, "expected matching UnitsPerEm")
	env.Equal(int16(headTable.IndexToLocFormat), h.IndexToLocFormat, "expected matching IndexToLocFormat")
	env.Equal(HeadMagicNumber, h.MagicNumber, "expected OpenType head magic number")
	env.True(h.MagicOK())
	env.False(h.Bold() || h.Italic(), "expected regular style")
	major, minor := h.Revision()
	env.Equal(uint16(2), major)
	env.Equal(uint16(0), minor)
	env.Equal(BoundingBox{MinX: 0, MinY: -200, MaxX: 1000, MaxY: 800}, h.BBox())
	env.Equal(int64(3700000000), h.Modified)
	env.Equal(2021, h.ModifiedTime().Year())
}

func (env *InfoTestEnviron) TestMaxPInfo() {
	m, err := MaxPInfo(env.otf)
	env.Require().NoError(err, "expected to decode table 'maxp'")

	maxpTable := env.otf.Table(ot.T("maxp")).Self().AsMaxP()
	env.Require().NotNil(maxpTable, "expected parsed MaxPTable")

	env.Equal(uint16(maxpTable.NumGlyphs), m.NumGlyphs, "expected matching numGlyphs")
	env.Equal(OutlinesTrueType, m.Outlines())
	env.True(m.HasExtendedProfile)
	env.Equal(uint16(2), m.MaxComponentDepth)
	n, err := NumGlyphs(env.otf)
	env.NoError(err)
	env.Equal(testfont.BasicNumGlyphs, n)
}

func (env *InfoTestEnviron) TestHHeaInfo() {
	h, err := HHeaInfo(env.otf)
	env.Require().NoError(err, "expected to decode table 'hhea'")
	env.Equal(int16(800), h.Ascender)
	env.Equal(int16(-200), h.Descender)
	env.Equal(int16(90), h.LineGap)
	env.Equal(uint16(600), h.AdvanceWidthMax)
	env.Equal(uint16(env.otf.HHea.NumberOfHMetrics), h.NumberOfHMetrics)
}

func (env *InfoTestEnviron) TestFontMetrics() {
	m, err := FontMetrics(env.otf)
	env.Require().NoError(err)
	env.Equal(sfnt.Units(1000), m.UnitsPerEm)
	env.Equal(sfnt.Units(800), m.Ascent)
	env.Equal(sfnt.Units(-200), m.Descent)
	env.Equal(sfnt.Units(90), m.LineGap)
	env.Equal(sfnt.Units(600), m.MaxAdvance)
	env.Equal(sfnt.Units(1000), m.BBox.Dx())
}

func (env *InfoTestEnviron) TestNames() {
	name, err := Name(env.otf, sfnt.NameIDFull)
	env.Require().NoError(err)
	env.Equal("Test Sans Regular", name)
	name, err = Name(env.otf, sfnt.NameIDDesigner)
	env.NoError(err)
	env.Equal("", name, "expected no designer name")
	count := 0
	for id, s := range NamesRange(env.otf) {
		env.NotEmpty(s, "name %d", id)
		count++
	}
	env.Equal(8, count, "expected 4 names, each for Macintosh and Windows")
}

func (env *InfoTestEnviron) TestAllNames() {
	recs, err := AllNames(env.otf)
	env.Require().NoError(err)
	env.Require().Len(recs, 8)
	want := NameRecord{
		Platform: PlatformIDMacintosh,
		Encoding: EncodingIDMacRoman,
		Language: 0,
		NameID:   sfnt.NameIDFamily,
		Value:    "Test Sans",
	}
	if diff := cmp.Diff(want, recs[0]); diff != "" {
		env.Failf("unexpected first name record", "(-want +got):\n%s", diff)
	}
	env.Equal(language.English, recs[0].LanguageTag())
	env.Equal(language.AmericanEnglish, recs[4].LanguageTag())
}

func (env *InfoTestEnviron) TestReverseLookup() {
	r := CodePointForGlyph(env.otf, 34)
	env.Equal('A', r, "expected code-point to be %#U, is %#U", 'A', r)
	env.Equal(rune(0), CodePointForGlyph(env.otf, 0))
	env.Equal(ot.GlyphIndex(34), GlyphIndex(env.otf, 'A'))
}

func (env *InfoTestEnviron) TestGlyphMetrics() {
	m, err := GlyphMetrics(env.otf, 34)
	env.Require().NoError(err)
	env.Equal(sfnt.Units(600), m.Advance)
	env.Equal(sfnt.Units(6), m.LSB)
	env.Equal(sfnt.Units(334), m.BBox.MaxX)
	env.Equal(sfnt.Units(260), m.RSB)
	//
	m, err = GlyphMetrics(env.otf, testfont.GlyphSpace)
	env.Require().NoError(err)
	env.True(m.BBox.IsEmpty())
	env.Equal(sfnt.Units(0), m.RSB)
	//
	_, err = GlyphMetrics(env.otf, testfont.BasicNumGlyphs)
	env.True(errors.Is(err, ot.ErrOutOfBounds), "expected OutOfBounds, have %v", err)
}

func (env *InfoTestEnviron) TestGlyphInfo() {
	g, err := GlyphInfo(env.otf, 'é')
	env.Require().NoError(err)
	want := GlyphDescriptor{
		Glyph:      testfont.GlyphEAcute,
		CodePoint:  'é',
		Name:       "eacute",
		Advance:    sfnt.Units(testfont.BasicAdvance(testfont.GlyphEAcute)),
		LSB:        sfnt.Units(testfont.GlyphEAcute % 7),
		HasOutline: true,
	}
	if diff := cmp.Diff(want, g); diff != "" {
		env.Failf("unexpected glyph info", "(-want +got):\n%s", diff)
	}
	g, err = GlyphInfo(env.otf, ' ')
	env.Require().NoError(err)
	env.False(g.HasOutline, "expected space to have no outline")
	env.Equal("space", g.Name)
	g, err = GlyphInfo(env.otf, 0x10FFFF)
	env.Require().NoError(err)
	env.Equal(ot.GlyphIndex(0), g.Glyph)
	env.Equal(".notdef", g.Name)
}

func (env *InfoTestEnviron) TestMonospace() {
	mono, err := IsMonospace(env.otf)
	env.NoError(err)
	env.False(mono, "expected test font to be proportional")
	mono, err = IsMonospace(parseFont(env.T(), testfont.Mono()))
	env.NoError(err)
	env.True(mono, "expected mono font to be monospaced")
}

// --- Tests without suite ---------------------------------------------------

func TestMissingTables(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otquery")
	defer teardown()
	//
	fb := testfont.BasicBuilder()
	fb.Omit = []string{"head", "hhea", "name", "maxp"}
	otf := parseFont(t, fb.Build())
	if _, err := HeadInfo(otf); !errors.Is(err, ot.ErrMissingTable) {
		t.Errorf("expected MissingTable for head, have %v", err)
	}
	if _, err := MaxPInfo(otf); !errors.Is(err, ot.ErrMissingTable) {
		t.Errorf("expected MissingTable for maxp, have %v", err)
	}
	if _, err := HHeaInfo(otf); !errors.Is(err, ot.ErrMissingTable) {
		t.Errorf("expected MissingTable for hhea, have %v", err)
	}
	_, err := Name(otf, sfnt.NameIDFamily)
	var fe ot.FontError
	if !errors.As(err, &fe) || fe.Table != ot.T("name") {
		t.Errorf("expected error naming table 'name', have %v", err)
	}
	if _, err := FontMetrics(otf); !errors.Is(err, ot.ErrMissingTable) {
		t.Errorf("expected MissingTable for font metrics, have %v", err)
	}
	if len(NameInfo(otf, language.Und)) != 0 {
		t.Errorf("expected empty name info")
	}
	for range NamesRange(otf) {
		t.Errorf("expected no names")
	}
	if _, err := HeadInfo(nil); !errors.Is(err, ot.ErrMissingTable) {
		t.Errorf("expected MissingTable for nil font, have %v", err)
	}
}

func TestCFFOutlines(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otquery")
	defer teardown()
	//
	otf := parseFont(t, testfont.CFF())
	m, err := MaxPInfo(otf)
	if err != nil {
		t.Fatal(err)
	}
	if m.Outlines() != OutlinesCFF || m.HasExtendedProfile {
		t.Errorf("expected CFF outlines without profile, have %s", m.Outlines())
	}
	if FontType(otf) != "OpenType (CFF)" {
		t.Errorf("unexpected font type %q", FontType(otf))
	}
	g, err := GlyphInfo(otf, 'A')
	if err != nil {
		t.Fatal(err)
	}
	if g.Glyph != 34 || g.HasOutline {
		t.Errorf("expected glyph 34 without outline information, have %+v", g)
	}
}

func TestMacStyle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otquery")
	defer teardown()
	//
	fb := testfont.BasicBuilder()
	fb.MacStyle = MacStyleBold | MacStyleItalic
	h, err := HeadInfo(parseFont(t, fb.Build()))
	if err != nil {
		t.Fatal(err)
	}
	if !h.Bold() || !h.Italic() {
		t.Errorf("expected bold italic style, have macStyle %x", h.MacStyle)
	}
}

func TestMacTime(t *testing.T) {
	date := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	secs := MacSeconds(date)
	if !MacTime(secs).Equal(date) {
		t.Errorf("expected %v, have %v", date, MacTime(secs))
	}
	if MacSeconds(MacEpoch) != 0 {
		t.Errorf("expected epoch to be 0")
	}
}

func TestNameOutOfBounds(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.otquery")
	defer teardown()
	//
	fb := testfont.BasicBuilder()
	fb.Omit = []string{"name"}
	// one Windows record, string length 200 exceeds the table
	name := []byte{
		0, 0, 0, 1, 0, 18,
		0, 3, 0, 1, 0x04, 0x09, 0, 1, 0, 200, 0, 0,
		0, 'A',
	}
	tables := append(fb.Tables(), testfont.Table{Tag: "name", Data: name})
	otf := parseFont(t, testfont.Assemble(testfont.FlavorTrueType, tables))
	if _, err := AllNames(otf); !errors.Is(err, ot.ErrOutOfBounds) {
		t.Errorf("expected OutOfBounds from AllNames, have %v", err)
	}
	for id := range NamesRange(otf) {
		t.Errorf("expected broken record %d to be skipped", id)
	}
}

func TestDecodeName(t *testing.T) {
	tests := []struct {
		platform PlatformID
		encoding EncodingID
		data     []byte
		value    string
		ok       bool
	}{
		{PlatformIDWindows, EncodingIDWindowsBMP, []byte{0, 'H', 0, 'i'}, "Hi", true},
		{PlatformIDWindows, EncodingIDWindowsFull, []byte{0xd8, 0x3d, 0xde, 0x00}, "\U0001F600", true},
		{PlatformIDUnicode, EncodingIDUnicodeBMP, []byte{0, 0xe9}, "é", true},
		{PlatformIDMacintosh, EncodingIDMacRoman, []byte{'C', 'a', 'f', 0x8e}, "Café", true},
		{PlatformIDMacintosh, 1, []byte{'a', 'b'}, "ab", true},
		{PlatformIDWindows, 2, []byte{0x82, 0xa0}, "", false}, // ShiftJIS
		{2, 0, []byte{'x'}, "", false},                        // ISO, deprecated
	}
	for _, tt := range tests {
		value, ok := decodeName(tt.platform, tt.encoding, tt.data)
		if ok != tt.ok || value != tt.value {
			t.Errorf("(%d,%d) %v: expected %q/%v, have %q/%v", tt.platform, tt.encoding, tt.data,
				tt.value, tt.ok, value, ok)
		}
	}
}

// --- Helpers ----------------------------------------------------------

func parseFont(t *testing.T, font []byte) *ot.Font {
	t.Helper()
	otf, err := ot.Parse(font)
	if err != nil {
		t.Fatal(err)
	}
	return otf
}
