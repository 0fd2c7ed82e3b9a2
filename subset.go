package fontsubset

import (
	"github.com/npillmayer/fontsubset/ot"
	"github.com/npillmayer/fontsubset/otquery"
	"github.com/npillmayer/fontsubset/otsubset"
	"github.com/npillmayer/fontsubset/woff"
	"golang.org/x/image/font/sfnt"
)

// FromBinary parses raw OpenType bytes and returns a decoded font.
//
// The input is expected to contain a complete single-font SFNT stream.
// It must not change after parsing for the font to be usable.
func FromBinary(data []byte) (*ot.Font, error) {
	return ot.Parse(data)
}

// FamilyName extracts family and subfamily names from a font's `name` table.
//
// Returned values are empty if no matching records exist or if records cannot be
// decoded by the current name-table reader.
func FamilyName(f *ot.Font) (family, subfamily string) {
	var err error
	if family, err = otquery.Name(f, sfnt.NameIDFamily); err != nil {
		tracer().Infof("font has no usable name table: %v", err)
		return "", ""
	}
	subfamily, _ = otquery.Name(f, sfnt.NameIDSubfamily)
	return
}

// SubsetFromText creates a font containing just the glyphs needed to render
// text, plus glyph 0.
//
// Characters the font does not map are ignored. If no character of text
// is mapped, an error of kind ot.ErrEmptySelection is returned, unless option
// otsubset.AllowEmpty is given. See package otsubset for the details of
// subsetting.
func SubsetFromText(otf *ot.Font, text string, opts ...otsubset.RebuildOption) ([]byte, error) {
	sel, err := otsubset.NewSelection(otf)
	if err != nil {
		return nil, err
	}
	n := sel.AddCharacters(text)
	tracer().Debugf("text selects %d glyphs", n)
	return sel.Generate(opts...)
}

// ConvertToWOFF wraps an sfnt font into a WOFF 1.0 file.
func ConvertToWOFF(font []byte, opts ...woff.Option) ([]byte, error) {
	return woff.Encode(font, opts...)
}

// SubsetToWOFF creates a subset of otf for text and wraps it into a WOFF
// file, ready to be served as a web font.
func SubsetToWOFF(otf *ot.Font, text string, opts ...otsubset.RebuildOption) ([]byte, error) {
	subset, err := SubsetFromText(otf, text, opts...)
	if err != nil {
		return nil, err
	}
	return woff.Encode(subset)
}
