/*
Package woff converts sfnt fonts to the Web Open Font Format 1.0 and back.

A WOFF file wraps the tables of a TrueType or OpenType font, compressing each
table separately with zlib. Encode verifies the checksums of the source
tables, re-sorts the table directory by tag and recomputes the
checkSumAdjustment of table head for the sfnt the WOFF file decodes to.
Tables which do not shrink under compression are stored as they are.

	woffData, err := woff.Encode(fontData, woff.WithMetadata(xml))
	...
	fontData, err = woff.Decode(woffData)

Errors are of the error kinds of package ot, e.g. ot.ErrChecksumMismatch for a
table with an invalid checksum or ot.ErrCompressionFailed for a failure of the
zlib backend.

See https://www.w3.org/TR/WOFF/ for the file format.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package woff

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.woff'
func tracer() tracing.Trace {
	return tracing.Select("font.woff")
}
