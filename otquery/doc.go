/*
Package otquery extracts typed information from OpenType fonts.

Functions of this package decode fixed-layout tables (head, maxp, hhea, name)
directly from the tables' bytes and answer queries about glyphs and metrics.
They fail with an error of kind ot.ErrMissingTable if a backing table is absent
from the font, and with ot.ErrOutOfBounds if a table's declared structure
overruns the table's length.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otquery

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.otquery'
func tracer() tracing.Trace {
	return tracing.Select("font.otquery")
}
