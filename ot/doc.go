/*
Package ot provides access to the container structure of sfnt fonts (TrueType
and CFF-flavoured OpenType) and to the tables needed for subsetting them.
Intended audience for this package are:

▪︎ font subsetters, which select a set of glyphs and re-assemble a smaller font

▪︎ font packagers, such as WOFF encoders, which need the table directory and checksums

▪︎ any application needing to have the internal structure of an OpenType font file available,
and possibly extending the methods of package `ot` by handling additional font tables

Package `ot` will not interpret a font in terms of typography. For example, it is not
possible to ask package `ot` for the ascender of a font in a platform-independent
manner; sister package `otquery` does this. Package `ot` exposes tables, the
table directory, and a few typed views on tables that other tables depend upon:
'head', 'maxp', 'hhea', 'hmtx', 'loca', 'glyf', 'cmap' and 'post'.

A font is parsed from a byte slice which must not change while the font is in use.
Tables are views into this byte slice, they are never copied:

	otf, err := ot.Parse(fontbytes)
	if err != nil {
		…
	}
	glyf, err := otf.Glyf() // fails with ot.ErrMissingTable for CFF fonts

Besides reading, package `ot` knows how to write the container format. Function
`Assemble` arranges a set of tables into a valid sfnt file, including the
table directory, padding, and checksums.

# Errors

Errors returned by this package wrap one of a small set of error kinds, e.g.
ErrMissingTable or ErrTruncatedTable. Each kind belongs to an ErrorCategory.
Clients test for a kind with `errors.Is` and get at the details (table, offset)
with `errors.As(err, &fontError)`.

Fonts in the wild often contain minor infringements of the OpenType specification,
e.g. unaligned table offsets. These are recorded as warnings (see `Font.Warnings`)
and parsing continues.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>

Some code has originally been copied over from golang.org/x/image/font/sfnt/cmap.go,
as the cmap-routines are not accessible through the sfnt package's API.
I understand this to be legally okay as long as the Go license information
stays intact.

	Copyright 2017 The Go Authors. All rights reserved.
	Use of this source code is governed by a BSD-style
	license that can be found in the LICENSE file.
*/
package ot

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.opentype'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype")
}
