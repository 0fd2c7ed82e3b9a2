package ot

// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// For further information about licensing please refer to file doc.go in
// this package.

import (
	"fmt"
	"iter"
	"sort"

	"golang.org/x/text/encoding/charmap"
)

// CMapTable represents an OpenType cmap table, i.e. the table to receive glyphs
// from code-points.
//
// Of the sub-tables of a cmap, only the one with the widest Unicode encoding is
// interpreted. Supported formats are 0, 4, 6 and 12.
type CMapTable struct {
	tableBase
	GlyphIndexMap GlyphIndexMap
	NumGlyphs     int    // glyph count from maxp, used to clip mappings
	PlatformID    uint16 // platform of the selected sub-table
	EncodingID    uint16 // platform specific encoding of the selected sub-table
}

// GlyphIndexMap maps code-points to glyph indices, as read from a cmap sub-table.
//
// Lookup returns 0 (i.e., the 'missing glyph') for unmapped code-points.
// ReverseLookup returns 0 for glyphs without a code-point.
// Mappings iterates over all code-points with a non-zero glyph in ascending order
// of code-points.
type GlyphIndexMap interface {
	Lookup(rune) GlyphIndex
	ReverseLookup(GlyphIndex) rune
	Mappings() iter.Seq2[rune, GlyphIndex]
	Format() uint16
}

func newCMapTable(tag Tag, b binarySegm, offset, size uint32) *CMapTable {
	t := &CMapTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.GlyphIndexMap = emptyGlyphIndex{}
	t.self = t
	return t
}

// Lookup returns the glyph index for a code-point, or 0 if the code-point is
// not mapped by the font.
func (t *CMapTable) Lookup(r rune) GlyphIndex {
	return t.GlyphIndexMap.Lookup(r)
}

// ReverseLookup returns a code-point for a glyph, or 0 if the glyph is not
// reachable by a code-point. If more than one code-point maps to the glyph, the
// smallest one is returned.
func (t *CMapTable) ReverseLookup(gid GlyphIndex) rune {
	return t.GlyphIndexMap.ReverseLookup(gid)
}

// Mappings iterates over all mapped code-points and their glyphs.
func (t *CMapTable) Mappings() iter.Seq2[rune, GlyphIndex] {
	return t.GlyphIndexMap.Mappings()
}

func (t *CMapTable) setGlyphCount(n int) {
	t.NumGlyphs = n
	if gc, ok := t.GlyphIndexMap.(interface{ setGlyphCount(int) }); ok {
		gc.setGlyphCount(n)
	}
}

// Platform IDs and Platform Specific IDs as per
// https://www.microsoft.com/typography/otspec/name.htm
const (
	pidUnicode   = 0
	pidMacintosh = 1
	pidWindows   = 3

	// Note that FontForge may generate a bogus Platform Specific ID (value 10)
	// for the Unicode Platform ID (value 0). See
	// https://github.com/fontforge/fontforge/issues/2728
	psidUnicode2BMPOnly        = 3
	psidUnicode2FullRepertoire = 4
	psidMacintoshRoman         = 0
	psidWindowsSymbol          = 0
	psidWindowsUCS2            = 1
	psidWindowsUCS4            = 10
)

// This value is arbitrary, but defends against parsing malicious font
// files causing excessive memory allocations. For reference, Adobe's
// SourceHanSansSC-Regular.otf has 65535 glyphs and:
//   - its format-4  cmap table has  1581 segments.
//   - its format-12 cmap table has 16498 segments.
const maxCMapSegments = 20000

// platformEncodingWidth returns the number of bytes per character assumed by
// the given Platform ID and Platform Specific ID.
//
// Very old fonts, from before Unicode was widely adopted, assume only 1 byte
// per character: a character map.
//
// Old fonts, from when Unicode meant the Basic Multilingual Plane (BMP),
// assume that 2 bytes per character is sufficient.
//
// Recent fonts naturally support the full range of Unicode code points, which
// can take up to 4 bytes per character. Such fonts might still choose one of
// the legacy encodings if e.g. their repertoire is limited to the BMP, for
// greater compatibility with older software, or because the resultant file
// size can be smaller.
func platformEncodingWidth(pid, psid uint16) int {
	switch pid {
	case pidUnicode:
		switch psid {
		case 0, 1, 2, psidUnicode2BMPOnly:
			return 2
		case psidUnicode2FullRepertoire:
			return 4
		}
	case pidMacintosh:
		switch psid {
		case psidMacintoshRoman:
			return 1
		}
	case pidWindows:
		switch psid {
		case psidWindowsSymbol:
			return 2
		case psidWindowsUCS2:
			return 2
		case psidWindowsUCS4:
			return 4
		}
	}
	return 0
}

// The various cmap formats are described at
// https://www.microsoft.com/typography/otspec/cmap.htm
func supportedCmapFormat(format, pid, psid uint16) bool {
	switch format {
	case 0:
		return pid == pidMacintosh && psid == psidMacintoshRoman
	case 4, 6, 12:
		return true
	}
	return false
}

type encodingRecord struct {
	platformID uint16
	encodingID uint16
	offset     uint32
	format     uint16
	width      int // encoding width in bytes
}

func parseCMap(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	const headerSize, entrySize = 4, 8
	if size < headerSize {
		return nil, errOutOfBounds(tag, "Header", fmt.Sprintf("cmap table too small: %d bytes", size))
	}
	n, _ := b.u16(2) // number of sub-tables
	tracer().Debugf("font cmap has %d sub-tables in %d|%d bytes", n, len(b), size)
	t := newCMapTable(tag, b, offset, size)
	if headerSize+entrySize*int(n) > len(b) {
		return nil, errOutOfBounds(tag, "Header",
			fmt.Sprintf("table size %d too small for %d encoding records", size, n))
	}
	var enc encodingRecord
	for i := 0; i < int(n); i++ {
		rec := b[headerSize+entrySize*i:]
		pid, psid := u16(rec), u16(rec[2:])
		width := platformEncodingWidth(pid, psid)
		if width <= enc.width {
			continue
		}
		suboffset := u32(rec[4:])
		format, err := b.u16(int(suboffset))
		if err != nil || suboffset > size {
			tracer().Infof("cmap sub-table cannot be parsed")
			ec.addWarning(tag, fmt.Sprintf("sub-table %d (platform=%d, encoding=%d) out of bounds", i, pid, psid), offset)
			continue
		}
		tracer().Debugf("cmap table contains subtable with format %d", format)
		if supportedCmapFormat(format, pid, psid) {
			enc = encodingRecord{
				platformID: pid,
				encodingID: psid,
				offset:     suboffset,
				format:     format,
				width:      width,
			}
		}
	}
	if enc.width == 0 {
		ec.addError(tag, "Format", "no supported cmap format found", SeverityMajor, offset)
		return t, nil
	}
	t.PlatformID, t.EncodingID = enc.platformID, enc.encodingID
	sub := b[enc.offset:]
	var err error
	switch enc.format {
	case 0:
		t.GlyphIndexMap, err = makeGlyphIndexFormat0(sub)
	case 4:
		t.GlyphIndexMap, err = makeGlyphIndexFormat4(sub)
	case 6:
		t.GlyphIndexMap, err = makeGlyphIndexFormat6(sub)
	case 12:
		t.GlyphIndexMap, err = makeGlyphIndexFormat12(sub)
	}
	if err != nil {
		return nil, FontError{
			Kind:    ErrOutOfBounds,
			Table:   tag,
			Section: fmt.Sprintf("Subtable format %d", enc.format),
			Issue:   err.Error(),
			Offset:  offset + enc.offset,
		}
	}
	return t, nil
}

// --- Format helpers --------------------------------------------------------

// glyphClip holds the glyph count of the font and filters out glyph indices
// which are not present in the font.
type glyphClip struct {
	numGlyphs int
}

func (gc *glyphClip) setGlyphCount(n int) {
	gc.numGlyphs = n
}

func (gc *glyphClip) clip(gid GlyphIndex) GlyphIndex {
	if gc.numGlyphs > 0 && int(gid) >= gc.numGlyphs {
		return 0
	}
	return gid
}

func reverseLookup(m GlyphIndexMap, gid GlyphIndex) rune {
	if gid == 0 {
		return 0
	}
	for r, g := range m.Mappings() {
		if g == gid {
			return r
		}
	}
	return 0
}

type emptyGlyphIndex struct{}

func (emptyGlyphIndex) Lookup(rune) GlyphIndex        { return 0 }
func (emptyGlyphIndex) ReverseLookup(GlyphIndex) rune { return 0 }
func (emptyGlyphIndex) Format() uint16                { return 0 }
func (emptyGlyphIndex) Mappings() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {}
}

// --- Format 0 --------------------------------------------------------------

type format0GlyphIndex struct {
	glyphClip
	table [256]byte
}

func makeGlyphIndexFormat0(b binarySegm) (*format0GlyphIndex, error) {
	buf, err := b.view(0, 6+256)
	if err != nil {
		return nil, errFontFormat("invalid cmap size")
	}
	gim := &format0GlyphIndex{}
	copy(gim.table[:], buf[6:])
	return gim, nil
}

func (gim *format0GlyphIndex) Format() uint16 { return 0 }

func (gim *format0GlyphIndex) Lookup(r rune) GlyphIndex {
	x, ok := charmap.Macintosh.EncodeRune(r)
	if !ok {
		// The source rune r is not representable in the Macintosh-Roman encoding.
		return 0
	}
	return gim.clip(GlyphIndex(gim.table[x]))
}

func (gim *format0GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	return reverseLookup(gim, gid)
}

func (gim *format0GlyphIndex) Mappings() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		pairs := make([]cmapPair, 0, 256)
		for x, g := range gim.table {
			if gid := gim.clip(GlyphIndex(g)); gid != 0 {
				pairs = append(pairs, cmapPair{charmap.Macintosh.DecodeByte(byte(x)), gid})
			}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].r < pairs[j].r })
		for _, p := range pairs {
			if !yield(p.r, p.gid) {
				return
			}
		}
	}
}

type cmapPair struct {
	r   rune
	gid GlyphIndex
}

// --- Format 4 --------------------------------------------------------------

type cmapEntry16 struct {
	end, start, delta, offset uint16
}

type format4GlyphIndex struct {
	glyphClip
	entries    []cmapEntry16
	rangeBase  int        // offset of idRangeOffset[0] within data
	data       binarySegm // the sub-table, extending to the end of the cmap table
	segCount   int
}

func makeGlyphIndexFormat4(b binarySegm) (*format4GlyphIndex, error) {
	const headerSize = 14
	headerdata, err := b.view(0, headerSize)
	if err != nil {
		return nil, errFontFormat("cmap bounds overflow")
	}
	segCount := u16(headerdata[6:])
	if segCount&1 != 0 {
		return nil, errFontFormat("cmap table format: odd segCountX2")
	}
	segCount /= 2
	if segCount > maxCMapSegments {
		return nil, errFontFormat(fmt.Sprintf("more than %d cmap segments not supported", maxCMapSegments))
	}
	n := int(segCount)
	eLength := 8*n + 2
	segmentsData, err := b.view(headerSize, eLength)
	if err != nil {
		return nil, errFontFormat("cmap internal structure")
	}
	entries := make([]cmapEntry16, n)
	for i := range entries {
		entries[i] = cmapEntry16{
			end:    u16(segmentsData[0*n+0+2*i:]),
			start:  u16(segmentsData[2*n+2+2*i:]),
			delta:  u16(segmentsData[4*n+2+2*i:]),
			offset: u16(segmentsData[6*n+2+2*i:]),
		}
	}
	return &format4GlyphIndex{
		entries:   entries,
		rangeBase: headerSize + 6*n + 2,
		data:      b,
		segCount:  n,
	}, nil
}

func (gim *format4GlyphIndex) Format() uint16 { return 4 }

func (gim *format4GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 || uint32(r) > 0xffff {
		return 0
	}
	c := uint16(r)
	for i, j := 0, len(gim.entries); i < j; {
		h := i + (j-i)/2
		entry := &gim.entries[h]
		if c < entry.start {
			j = h
		} else if entry.end < c {
			i = h + 1
		} else {
			return gim.clip(gim.glyph(h, c))
		}
	}
	return 0
}

// glyph computes the glyph for code-point c within segment h.
func (gim *format4GlyphIndex) glyph(h int, c uint16) GlyphIndex {
	entry := &gim.entries[h]
	if entry.offset == 0 {
		return GlyphIndex(c + entry.delta)
	}
	// idRangeOffset is relative to the location of the idRangeOffset entry itself
	at := gim.rangeBase + 2*h + int(entry.offset) + 2*int(c-entry.start)
	g, err := gim.data.u16(at)
	if err != nil || g == 0 {
		return 0
	}
	return GlyphIndex(g + entry.delta)
}

func (gim *format4GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	return reverseLookup(gim, gid)
}

func (gim *format4GlyphIndex) Mappings() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		var next uint32 // code-points below next are covered by a previous segment
		for h, entry := range gim.entries {
			from := max(uint32(entry.start), next)
			end := min(uint32(entry.end), 0xfffe)
			if from > end {
				continue
			}
			next = end + 1
			for c := from; c <= end; c++ {
				if gid := gim.clip(gim.glyph(h, uint16(c))); gid != 0 {
					if !yield(rune(c), gid) {
						return
					}
				}
			}
		}
	}
}

// --- Format 6 --------------------------------------------------------------

type format6GlyphIndex struct {
	glyphClip
	firstCode uint16
	entries   []uint16
}

func makeGlyphIndexFormat6(b binarySegm) (*format6GlyphIndex, error) {
	const headerSize = 10
	buf, err := b.view(0, headerSize)
	if err != nil {
		return nil, errFontFormat("cmap bounds overflow")
	}
	gim := &format6GlyphIndex{firstCode: u16(buf[6:])}
	entryCount := int(u16(buf[8:]))
	if entryCount == 0 {
		return gim, nil
	}
	buf, err = b.view(headerSize, 2*entryCount)
	if err != nil {
		return nil, errFontFormat("cmap bounds overflow")
	}
	gim.entries = make([]uint16, entryCount)
	for i := range gim.entries {
		gim.entries[i] = u16(buf[2*i:])
	}
	return gim, nil
}

func (gim *format6GlyphIndex) Format() uint16 { return 6 }

func (gim *format6GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < rune(gim.firstCode) || r > 0xffff {
		return 0
	}
	c := int(r) - int(gim.firstCode)
	if c >= len(gim.entries) {
		return 0
	}
	return gim.clip(GlyphIndex(gim.entries[c]))
}

func (gim *format6GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	return reverseLookup(gim, gid)
}

func (gim *format6GlyphIndex) Mappings() iter.Seq2[rune, GlyphIndex] {
	return func(yield func(rune, GlyphIndex) bool) {
		for i, g := range gim.entries {
			if gid := gim.clip(GlyphIndex(g)); gid != 0 {
				if !yield(rune(int(gim.firstCode)+i), gid) {
					return
				}
			}
		}
	}
}

// --- Format 12 -------------------------------------------------------------

type cmapEntry32 struct {
	start, end, delta uint32
}

type format12GlyphIndex struct {
	glyphClip
	entries []cmapEntry32
}

func makeGlyphIndexFormat12(b binarySegm) (*format12GlyphIndex, error) {
	const headerSize = 16
	buf, err := b.view(0, headerSize)
	if err != nil {
		return nil, errFontFormat("cmap bounds overflow")
	}
	numGroups := u32(buf[12:])
	if numGroups > maxCMapSegments {
		return nil, errFontFormat(fmt.Sprintf("more than %d cmap segments not supported", maxCMapSegments))
	}
	if numGroups == 0 {
		return &format12GlyphIndex{}, nil
	}
	buf, err = b.view(headerSize, 12*int(numGroups))
	if err != nil {
		return nil, errFontFormat("cmap bounds overflow")
	}
	entries := make([]cmapEntry32, numGroups)
	for i := range entries {
		entries[i] = cmapEntry32{
			start: u32(buf[0+12*i:]),
			end:   u32(buf[4+12*i:]),
			delta: u32(buf[8+12*i:]),
		}
	}
	return &format12GlyphIndex{entries: entries}, nil
}

func (gim *format12GlyphIndex) Format() uint16 { return 12 }

func (gim *format12GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 {
		return 0
	}
	c := uint32(r)
	for i, j := 0, len(gim.entries); i < j; {
		h := i + (j-i)/2
		entry := &gim.entries[h]
		if c < entry.start {
			j = h
		} else if entry.end < c {
			i = h + 1
		} else {
			return gim.glyph(c, entry)
		}
	}
	return 0
}

func (gim *format12GlyphIndex) glyph(c uint32, entry *cmapEntry32) GlyphIndex {
	g := c - entry.start + entry.delta
	if g > 0xffff {
		return 0
	}
	return gim.clip(GlyphIndex(g))
}

func (gim *format12GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	return reverseLookup(gim, gid)
}

// Mappings walks the groups in order. Code-points covered by a previous group
// are skipped, and every group is clipped to the code-points mapping to glyphs
// of the font, so the walk visits every code-point at most once.
func (gim *format12GlyphIndex) Mappings() iter.Seq2[rune, GlyphIndex] {
	const maxCodePoint = 0x10ffff
	maxGlyph := uint64(0xffff)
	if gim.numGlyphs > 0 {
		maxGlyph = uint64(min(gim.numGlyphs-1, 0xffff))
	}
	return func(yield func(rune, GlyphIndex) bool) {
		var next uint32
		for i := range gim.entries {
			entry := &gim.entries[i]
			from := max(entry.start, next)
			end := min(entry.end, maxCodePoint)
			if from > end {
				continue
			}
			next = end + 1
			if uint64(entry.delta) > maxGlyph {
				continue
			}
			end = uint32(min(uint64(end), uint64(entry.start)+maxGlyph-uint64(entry.delta)))
			if end < from {
				continue
			}
			for c := from; c <= end; c++ {
				if gid := gim.glyph(c, entry); gid != 0 {
					if !yield(rune(c), gid) {
						return
					}
				}
			}
		}
	}
}

// errFormat produces errors for broken table structures. It will be wrapped
// into an error of kind ErrOutOfBounds by the caller.
func errFontFormat(message string) error {
	return fmt.Errorf("OpenType font format: %s", message)
}
