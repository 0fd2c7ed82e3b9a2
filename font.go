/*
Package fontsubset extracts minimal font subsets and converts fonts to WOFF.

Given a TrueType font and a piece of text, the package creates a new,
self-contained font holding just the glyphs needed to render the text. Fonts
of this kind are typically embedded into documents or served as web fonts,
wrapped into the Web Open Font Format (WOFF).

The functionality is spread over several packages:

▪︎ Package ot parses the table directory of a font and the tables needed for
subsetting.

▪︎ Package otquery decodes font metadata, e.g. names and metrics.

▪︎ Package otsubset selects glyphs and rebuilds a font from a selection.

▪︎ Package woff wraps fonts into WOFF 1.0 files and unwraps them.

This package offers convenience functions for the common case:

	otf, err := fontsubset.FromBinary(fontData)
	...
	subset, err := fontsubset.SubsetFromText(otf, "Hello World")
	...
	webfont, err := fontsubset.ConvertToWOFF(subset)

There is a certain confusion with the nomenclature of typesetting. We will
stick to the following definitions:

▪︎ A "typeface" is a family of fonts. An example is "Helvetica".
This corresponds to a TrueType "collection" (*.ttc).

▪︎ A "scalable font" is a font, i.e. a variant of a typeface with a
certain weight, slant, etc.  An example is "Helvetica regular".

Please note that Go (Golang) does use the terms "font" and "face"
differently–actually more or less in an opposite manner.

# Status

Does not contain methods for font collections (*.ttc), e.g.,
/System/Library/Fonts/Helvetica.ttc on Mac OS.

# Links

OpenType explained:
https://docs.microsoft.com/en-us/typography/opentype/

WOFF 1.0:
https://www.w3.org/TR/WOFF/

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontsubset

import (
	"os"

	"github.com/npillmayer/fontsubset/ot"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'fontsubset'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset")
}

// ScalableFont is an internal representation of an outline-font of type
// TTF of OTF.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // the font's container, as seen by golang.org/x/image
}

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := ParseOpenTypeFont(bytez)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	return f, nil
}

// ParseOpenTypeFont loads an OpenType font (TTF or OTF) from memory.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, err
	}
	if f.Fontname, err = f.SFNT.Name(nil, sfnt.NameIDFull); err == nil {
		tracer().Debugf("loaded and parsed SFNT %s", f.Fontname)
	}
	return f, nil
}

// OpenType parses the font's binary data with package ot, which is the
// representation subsetting works on.
func (sf *ScalableFont) OpenType() (*ot.Font, error) {
	return ot.Parse(sf.Binary)
}
