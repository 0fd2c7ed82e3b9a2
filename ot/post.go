package ot

import (
	"fmt"
)

// PostTable contains additional information needed to use TrueType or OpenType
// fonts on PostScript printers, most notably the PostScript names of glyphs.
//
// Version 1.0 fonts use the standard Macintosh ordering of 258 glyph names.
// Version 2.0 fonts map each glyph to either a standard name or a custom name,
// the latter stored as Pascal strings at the end of the table. Version 3.0
// fonts carry no glyph names.
type PostTable struct {
	tableBase
	Version   uint32
	nameIndex []uint16 // version 2.0: name index per glyph
	names     []string // version 2.0: custom names
}

// Versions of table post.
const (
	PostVersion1 uint32 = 0x00010000
	PostVersion2 uint32 = 0x00020000
	PostVersion3 uint32 = 0x00030000
)

// PostHeaderSize is the size of the fixed part of a post table. Version 3.0
// tables consist of the header only.
const PostHeaderSize = 32

// NumMacintoshGlyphNames is the count of standard Macintosh glyph names. Name
// indices below this value refer to standard names, others to custom names.
const NumMacintoshGlyphNames = 258

func parsePost(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if size < PostHeaderSize {
		return nil, errOutOfBounds(tag, "Header", fmt.Sprintf("post table too small: %d bytes", size))
	}
	t := &PostTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	t.Version = u32(b)
	return t, nil
}

// link decodes the glyph names of a version 2.0 table, which requires the
// glyph count of the font.
func (t *PostTable) link(numGlyphs int) error {
	if t.Version != PostVersion2 {
		return nil
	}
	b := t.data
	n, err := b.u16(PostHeaderSize)
	if err != nil {
		return fmt.Errorf("post table version 2 has no glyph count")
	}
	if int(n) != numGlyphs {
		return fmt.Errorf("post.numGlyphs %d does not match maxp.numGlyphs %d", n, numGlyphs)
	}
	pos := PostHeaderSize + 2
	if pos+2*int(n) > len(b) {
		return fmt.Errorf("post table too small for %d glyph name indices", n)
	}
	index := make([]uint16, n)
	for i := range index {
		index[i] = u16(b[pos+2*i:])
	}
	pos += 2 * int(n)
	var names []string
	for pos < len(b) {
		l := int(b[pos])
		if pos+1+l > len(b) {
			return fmt.Errorf("post table glyph name %d truncated", len(names))
		}
		names = append(names, string(b[pos+1:pos+1+l]))
		pos += 1 + l
	}
	for i, inx := range index {
		if inx >= NumMacintoshGlyphNames && int(inx)-NumMacintoshGlyphNames >= len(names) {
			return fmt.Errorf("glyph %d refers to non-existent name %d", i, inx)
		}
	}
	t.nameIndex = index
	t.names = names
	return nil
}

// HasGlyphNames returns true if glyph names are available from this table.
func (t *PostTable) HasGlyphNames() bool {
	return t.Version == PostVersion1 || len(t.nameIndex) > 0
}

// NameIndex returns the name index of a glyph for version 2.0 tables.
func (t *PostTable) NameIndex(gid GlyphIndex) (uint16, bool) {
	if int(gid) >= len(t.nameIndex) {
		return 0, false
	}
	return t.nameIndex[gid], true
}

// CustomNames returns the custom glyph names of a version 2.0 table, in the
// order of their name index.
func (t *PostTable) CustomNames() []string {
	return t.names
}

// GlyphName returns the PostScript name of a glyph, or an empty string if the
// table does not provide one.
func (t *PostTable) GlyphName(gid GlyphIndex) string {
	switch t.Version {
	case PostVersion1:
		return MacintoshGlyphName(int(gid))
	case PostVersion2:
		inx, ok := t.NameIndex(gid)
		if !ok {
			return ""
		}
		if inx < NumMacintoshGlyphNames {
			return MacintoshGlyphName(int(inx))
		}
		return t.names[int(inx)-NumMacintoshGlyphNames]
	}
	return ""
}

// MacintoshGlyphName returns the standard Macintosh glyph name for an index,
// or an empty string if the index is out of range.
func MacintoshGlyphName(i int) string {
	if i < 0 || i >= len(macintoshGlyphNames) {
		return ""
	}
	return macintoshGlyphNames[i]
}

var macintoshGlyphNames = [NumMacintoshGlyphNames]string{
	".notdef", ".null", "nonmarkingreturn", "space", "exclam", "quotedbl", "numbersign",
	"dollar", "percent", "ampersand", "quotesingle", "parenleft", "parenright", "asterisk",
	"plus", "comma", "hyphen", "period", "slash", "zero", "one", "two", "three", "four",
	"five", "six", "seven", "eight", "nine", "colon", "semicolon", "less", "equal",
	"greater", "question", "at", "A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L",
	"M", "N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z", "bracketleft",
	"backslash", "bracketright", "asciicircum", "underscore", "grave", "a", "b", "c", "d",
	"e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o", "p", "q", "r", "s", "t", "u",
	"v", "w", "x", "y", "z", "braceleft", "bar", "braceright", "asciitilde", "Adieresis",
	"Aring", "Ccedilla", "Eacute", "Ntilde", "Odieresis", "Udieresis", "aacute", "agrave",
	"acircumflex", "adieresis", "atilde", "aring", "ccedilla", "eacute", "egrave",
	"ecircumflex", "edieresis", "iacute", "igrave", "icircumflex", "idieresis", "ntilde",
	"oacute", "ograve", "ocircumflex", "odieresis", "otilde", "uacute", "ugrave",
	"ucircumflex", "udieresis", "dagger", "degree", "cent", "sterling", "section", "bullet",
	"paragraph", "germandbls", "registered", "copyright", "trademark", "acute", "dieresis",
	"notequal", "AE", "Oslash", "infinity", "plusminus", "lessequal", "greaterequal", "yen",
	"mu", "partialdiff", "summation", "product", "pi", "integral", "ordfeminine",
	"ordmasculine", "Omega", "ae", "oslash", "questiondown", "exclamdown", "logicalnot",
	"radical", "florin", "approxequal", "Delta", "guillemotleft", "guillemotright",
	"ellipsis", "nonbreakingspace", "Agrave", "Atilde", "Otilde", "OE", "oe", "endash",
	"emdash", "quotedblleft", "quotedblright", "quoteleft", "quoteright", "divide",
	"lozenge", "ydieresis", "Ydieresis", "fraction", "currency", "guilsinglleft",
	"guilsinglright", "fi", "fl", "daggerdbl", "periodcentered", "quotesinglbase",
	"quotedblbase", "perthousand", "Acircumflex", "Ecircumflex", "Aacute", "Edieresis",
	"Egrave", "Iacute", "Icircumflex", "Idieresis", "Igrave", "Oacute", "Ocircumflex",
	"apple", "Ograve", "Uacute", "Ucircumflex", "Ugrave", "dotlessi", "circumflex", "tilde",
	"macron", "breve", "dotaccent", "ring", "cedilla", "hungarumlaut", "ogonek", "caron",
	"Lslash", "lslash", "Scaron", "scaron", "Zcaron", "zcaron", "brokenbar", "Eth", "eth",
	"Yacute", "yacute", "Thorn", "thorn", "minus", "multiply", "onesuperior", "twosuperior",
	"threesuperior", "onehalf", "onequarter", "threequarters", "franc", "Gbreve", "gbreve",
	"Idotaccent", "Scedilla", "scedilla", "Cacute", "cacute", "Ccaron", "ccaron", "dcroat",
}
