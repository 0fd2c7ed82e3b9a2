/*
Package otsubset extracts a self-contained subset of a TrueType font.

A Selection collects the glyphs needed to render a set of characters. It maps
code-points to glyphs through the font's cmap table and keeps the selection
closed under composite glyph references: whenever a composite glyph is
selected, its components are selected as well. Glyph 0 (".notdef") is part of
every selection.

Rebuild creates a new font from a selection. Glyphs are renumbered densely
in ascending order of their original index, and the tables glyf, loca, hmtx,
hhea, cmap, maxp, head and post are rewritten for the new glyph set. Tables
which do not depend on glyph indices (e.g., name, OS/2, hinting programs) are
copied verbatim; tables which index glyphs in ways this package does not
rewrite (e.g., GSUB, GPOS, kern) are dropped.

	sel, err := otsubset.NewSelection(otf)
	...
	sel.AddCharacters("Hello World")
	subset, err := sel.Rebuild()

Subsetting requires TrueType outlines. Fonts with CFF outlines are rejected
with an error of kind ot.ErrMissingTable for table glyf.

A Selection is not safe for concurrent mutation. Rebuild does not change the
selection and may be called repeatedly.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otsubset

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.subset'
func tracer() tracing.Trace {
	return tracing.Select("font.subset")
}
