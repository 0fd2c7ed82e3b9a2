/*
Package testfont builds small synthetic TrueType fonts for tests.

Fonts are assembled from scratch, without using any of the font packages of this
module, so they may serve as independent input for parsers and subsetters.
*/
package testfont

import (
	"encoding/binary"
	"math/bits"
	"sort"

	"golang.org/x/text/encoding/charmap"
)

// Glyph describes a glyph of a synthetic font.
type Glyph struct {
	Advance uint16
	LSB     int16
	Outline []byte // raw glyf data, nil for glyphs without outline
}

// GlyphName is an entry of a post table version 2.0. If Custom is empty, the
// glyph uses the standard Macintosh name with index Standard.
type GlyphName struct {
	Standard uint16
	Custom   string
}

// Builder assembles an sfnt font from its parts.
type Builder struct {
	Glyphs      []Glyph
	CMap        map[rune]uint16   // code-point to glyph index
	Names       map[uint16]string // name ID to string
	GlyphNames  []GlyphName       // post table version 2.0 if set, version 3.0 otherwise
	UnitsPerEm  uint16
	MacStyle    uint16
	Revision    uint32            // fontRevision, 16.16 fixed
	LongLoca    bool              // force long loca format
	RangeOffset bool              // encode cmap format 4 segments with idRangeOffset
	CFF         bool              // emit CFF flavoured font without glyf and loca
	Extra       map[string][]byte // additional tables, copied verbatim
	Omit        []string          // tables to leave out
}

// Flavors of sfnt fonts.
const (
	FlavorTrueType uint32 = 0x00010000
	FlavorCFF      uint32 = 0x4f54544f
)

// Table is a table of a synthetic font.
type Table struct {
	Tag  string
	Data []byte
}

// Build assembles the font.
func (fb Builder) Build() []byte {
	flavor := FlavorTrueType
	if fb.CFF {
		flavor = FlavorCFF
	}
	return Assemble(flavor, fb.Tables())
}

// Tables creates the tables of the font, unsorted.
func (fb Builder) Tables() []Table {
	upem := fb.UnitsPerEm
	if upem == 0 {
		upem = 1000
	}
	var tables []Table
	add := func(tag string, data []byte) {
		for _, o := range fb.Omit {
			if o == tag {
				return
			}
		}
		tables = append(tables, Table{Tag: tag, Data: data})
	}
	glyf, loca, long := fb.glyfLoca()
	add("head", fb.head(upem, long))
	add("hhea", fb.hhea())
	add("hmtx", fb.hmtx())
	add("maxp", fb.maxp())
	add("cmap", fb.cmap())
	add("name", fb.name())
	add("OS/2", fb.os2())
	add("post", fb.post())
	if fb.CFF {
		add("CFF ", []byte{1, 0, 4, 1, 0, 1, 1, 1, 0})
	} else {
		add("glyf", glyf)
		add("loca", loca)
	}
	var extra []string
	for tag := range fb.Extra {
		extra = append(extra, tag)
	}
	sort.Strings(extra)
	for _, tag := range extra {
		add(tag, fb.Extra[tag])
	}
	return tables
}

// Assemble writes an sfnt font from a set of tables, including checksums.
func Assemble(flavor uint32, tables []Table) []byte {
	sorted := make([]Table, len(tables))
	copy(sorted, tables)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Tag < sorted[j].Tag })
	n := len(sorted)
	es := 0
	if n > 0 {
		es = bits.Len(uint(n)) - 1
	}
	sr := (1 << es) * 16
	var font []byte
	font = binary.BigEndian.AppendUint32(font, flavor)
	font = binary.BigEndian.AppendUint16(font, uint16(n))
	font = binary.BigEndian.AppendUint16(font, uint16(sr))
	font = binary.BigEndian.AppendUint16(font, uint16(es))
	font = binary.BigEndian.AppendUint16(font, uint16(n*16-sr))
	offset := 12 + 16*n
	for _, t := range sorted {
		font = append(font, []byte(t.Tag)...)
		font = binary.BigEndian.AppendUint32(font, Checksum(t.Data))
		font = binary.BigEndian.AppendUint32(font, uint32(offset))
		font = binary.BigEndian.AppendUint32(font, uint32(len(t.Data)))
		offset += pad4(len(t.Data))
	}
	headAt := -1
	for _, t := range sorted {
		if t.Tag == "head" {
			headAt = len(font)
		}
		font = append(font, t.Data...)
		font = append(font, make([]byte, pad4(len(t.Data))-len(t.Data))...)
	}
	if headAt >= 0 {
		binary.BigEndian.PutUint32(font[headAt+8:], 0xB1B0AFBA-Checksum(font))
	}
	return font
}

// Checksum computes an sfnt table checksum.
func Checksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i < len(b); i += 4 {
		var w [4]byte
		copy(w[:], b[i:])
		sum += binary.BigEndian.Uint32(w[:])
	}
	return sum
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

// --- Tables ----------------------------------------------------------------

func (fb Builder) head(upem uint16, long bool) []byte {
	rev := fb.Revision
	if rev == 0 {
		rev = 0x00010000
	}
	b := make([]byte, 54)
	binary.BigEndian.PutUint32(b[0:], 0x00010000)
	binary.BigEndian.PutUint32(b[4:], rev)
	binary.BigEndian.PutUint32(b[12:], 0x5F0F3CF5)
	binary.BigEndian.PutUint16(b[16:], 0x000B)
	binary.BigEndian.PutUint16(b[18:], upem)
	binary.BigEndian.PutUint64(b[20:], 3600000000) // created
	binary.BigEndian.PutUint64(b[28:], 3700000000) // modified
	binary.BigEndian.PutUint16(b[36:], 0)
	binary.BigEndian.PutUint16(b[38:], uint16(0xffff-199)) // yMin = -200
	binary.BigEndian.PutUint16(b[40:], 1000)
	binary.BigEndian.PutUint16(b[42:], 800)
	binary.BigEndian.PutUint16(b[44:], fb.MacStyle)
	binary.BigEndian.PutUint16(b[46:], 8)
	binary.BigEndian.PutUint16(b[48:], 2)
	if long {
		binary.BigEndian.PutUint16(b[50:], 1)
	}
	return b
}

// NumberOfHMetrics returns the count of long metrics, leaving out trailing
// glyphs with the same advance as their predecessor.
func (fb Builder) NumberOfHMetrics() int {
	n := len(fb.Glyphs)
	for n > 1 && fb.Glyphs[n-1].Advance == fb.Glyphs[n-2].Advance {
		n--
	}
	return n
}

func (fb Builder) hhea() []byte {
	var maxAdvance uint16
	for _, g := range fb.Glyphs {
		maxAdvance = max(maxAdvance, g.Advance)
	}
	b := make([]byte, 36)
	binary.BigEndian.PutUint32(b[0:], 0x00010000)
	binary.BigEndian.PutUint16(b[4:], 800)
	binary.BigEndian.PutUint16(b[6:], uint16(0xffff-199)) // -200
	binary.BigEndian.PutUint16(b[8:], 90)
	binary.BigEndian.PutUint16(b[10:], maxAdvance)
	binary.BigEndian.PutUint16(b[16:], 1000)
	binary.BigEndian.PutUint16(b[18:], 1)
	binary.BigEndian.PutUint16(b[34:], uint16(fb.NumberOfHMetrics()))
	return b
}

func (fb Builder) hmtx() []byte {
	n := fb.NumberOfHMetrics()
	var b []byte
	for i, g := range fb.Glyphs {
		if i < n {
			b = binary.BigEndian.AppendUint16(b, g.Advance)
		}
		b = binary.BigEndian.AppendUint16(b, uint16(g.LSB))
	}
	return b
}

func (fb Builder) maxp() []byte {
	if fb.CFF {
		b := make([]byte, 6)
		binary.BigEndian.PutUint32(b, 0x00005000)
		binary.BigEndian.PutUint16(b[4:], uint16(len(fb.Glyphs)))
		return b
	}
	b := make([]byte, 32)
	binary.BigEndian.PutUint32(b, 0x00010000)
	binary.BigEndian.PutUint16(b[4:], uint16(len(fb.Glyphs)))
	binary.BigEndian.PutUint16(b[6:], 64) // maxPoints
	binary.BigEndian.PutUint16(b[8:], 4)  // maxContours
	binary.BigEndian.PutUint16(b[14:], 2) // maxZones
	binary.BigEndian.PutUint16(b[28:], 2) // maxComponentElements
	binary.BigEndian.PutUint16(b[30:], 2) // maxComponentDepth
	return b
}

func (fb Builder) glyfLoca() (glyf, loca []byte, long bool) {
	offsets := make([]int, 0, len(fb.Glyphs)+1)
	for _, g := range fb.Glyphs {
		offsets = append(offsets, len(glyf))
		glyf = append(glyf, g.Outline...)
		if len(glyf)%2 == 1 {
			glyf = append(glyf, 0)
		}
	}
	offsets = append(offsets, len(glyf))
	long = fb.LongLoca || len(glyf) > 0x1FFFE
	for _, off := range offsets {
		if long {
			loca = binary.BigEndian.AppendUint32(loca, uint32(off))
		} else {
			loca = binary.BigEndian.AppendUint16(loca, uint16(off/2))
		}
	}
	return glyf, loca, long
}

func (fb Builder) cmap() []byte {
	type mapping struct {
		r   rune
		gid uint16
	}
	var bmp, all []mapping
	for r, gid := range fb.CMap {
		all = append(all, mapping{r, gid})
		if r < 0xffff {
			bmp = append(bmp, mapping{r, gid})
		}
	}
	sort.Slice(bmp, func(i, j int) bool { return bmp[i].r < bmp[j].r })
	sort.Slice(all, func(i, j int) bool { return all[i].r < all[j].r })
	// format 4
	type segment struct {
		start, end   rune
		delta        uint16
		rangeOffset  uint16
		glyphIDStart int
	}
	var segs []segment
	var glyphIDs []uint16
	for i, m := range bmp {
		if i > 0 {
			prev, last := bmp[i-1], &segs[len(segs)-1]
			if m.r == prev.r+1 && (fb.RangeOffset || m.gid == prev.gid+1) {
				last.end = m.r
				if fb.RangeOffset {
					glyphIDs = append(glyphIDs, m.gid)
				}
				continue
			}
		}
		seg := segment{start: m.r, end: m.r, delta: m.gid - uint16(m.r), glyphIDStart: len(glyphIDs)}
		if fb.RangeOffset {
			seg.delta = 0
			glyphIDs = append(glyphIDs, m.gid)
		}
		segs = append(segs, seg)
	}
	segs = append(segs, segment{start: 0xffff, end: 0xffff, delta: 1, glyphIDStart: -1})
	segCount := len(segs)
	es := bits.Len(uint(segCount)) - 1
	sr := 2 * (1 << es)
	var f4 []byte
	f4 = binary.BigEndian.AppendUint16(f4, 4)
	f4 = binary.BigEndian.AppendUint16(f4, uint16(16+8*segCount+2*len(glyphIDs)))
	f4 = binary.BigEndian.AppendUint16(f4, 0)
	f4 = binary.BigEndian.AppendUint16(f4, uint16(2*segCount))
	f4 = binary.BigEndian.AppendUint16(f4, uint16(sr))
	f4 = binary.BigEndian.AppendUint16(f4, uint16(es))
	f4 = binary.BigEndian.AppendUint16(f4, uint16(2*segCount-sr))
	for _, s := range segs {
		f4 = binary.BigEndian.AppendUint16(f4, uint16(s.end))
	}
	f4 = binary.BigEndian.AppendUint16(f4, 0)
	for _, s := range segs {
		f4 = binary.BigEndian.AppendUint16(f4, uint16(s.start))
	}
	for _, s := range segs {
		f4 = binary.BigEndian.AppendUint16(f4, s.delta)
	}
	for i, s := range segs {
		var ro uint16
		if fb.RangeOffset && s.glyphIDStart >= 0 {
			ro = uint16(2*(segCount-i) + 2*s.glyphIDStart)
		}
		f4 = binary.BigEndian.AppendUint16(f4, ro)
	}
	for _, gid := range glyphIDs {
		f4 = binary.BigEndian.AppendUint16(f4, gid)
	}
	// format 12, if needed
	var f12 []byte
	if len(all) > len(bmp) {
		type group struct {
			start, end rune
			gid        uint16
		}
		var groups []group
		for i, m := range all {
			if i > 0 {
				prev, last := all[i-1], &groups[len(groups)-1]
				if m.r == prev.r+1 && m.gid == prev.gid+1 {
					last.end = m.r
					continue
				}
			}
			groups = append(groups, group{m.r, m.r, m.gid})
		}
		f12 = binary.BigEndian.AppendUint16(f12, 12)
		f12 = binary.BigEndian.AppendUint16(f12, 0)
		f12 = binary.BigEndian.AppendUint32(f12, uint32(16+12*len(groups)))
		f12 = binary.BigEndian.AppendUint32(f12, 0)
		f12 = binary.BigEndian.AppendUint32(f12, uint32(len(groups)))
		for _, g := range groups {
			f12 = binary.BigEndian.AppendUint32(f12, uint32(g.start))
			f12 = binary.BigEndian.AppendUint32(f12, uint32(g.end))
			f12 = binary.BigEndian.AppendUint32(f12, uint32(g.gid))
		}
	}
	numTables := 1
	if f12 != nil {
		numTables = 2
	}
	var b []byte
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, uint16(numTables))
	off := 4 + 8*numTables
	b = binary.BigEndian.AppendUint16(b, 3)
	b = binary.BigEndian.AppendUint16(b, 1)
	b = binary.BigEndian.AppendUint32(b, uint32(off))
	if f12 != nil {
		b = binary.BigEndian.AppendUint16(b, 3)
		b = binary.BigEndian.AppendUint16(b, 10)
		b = binary.BigEndian.AppendUint32(b, uint32(off+len(f4)))
	}
	b = append(b, f4...)
	b = append(b, f12...)
	return b
}

func (fb Builder) name() []byte {
	type record struct {
		platform, encoding, language, nameID uint16
		data                                 []byte
	}
	var ids []int
	for id := range fb.Names {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	var recs []record
	for _, id := range ids {
		s := fb.Names[uint16(id)]
		mac, err := charmap.Macintosh.NewEncoder().String(s)
		if err != nil {
			mac = "?"
		}
		recs = append(recs, record{1, 0, 0, uint16(id), []byte(mac)})
	}
	for _, id := range ids {
		var u []byte
		for _, r := range fb.Names[uint16(id)] {
			if r > 0xffff {
				r1, r2 := surrogates(r)
				u = binary.BigEndian.AppendUint16(u, r1)
				u = binary.BigEndian.AppendUint16(u, r2)
				continue
			}
			u = binary.BigEndian.AppendUint16(u, uint16(r))
		}
		recs = append(recs, record{3, 1, 0x0409, uint16(id), u})
	}
	var b, strs []byte
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, uint16(len(recs)))
	b = binary.BigEndian.AppendUint16(b, uint16(6+12*len(recs)))
	for _, r := range recs {
		b = binary.BigEndian.AppendUint16(b, r.platform)
		b = binary.BigEndian.AppendUint16(b, r.encoding)
		b = binary.BigEndian.AppendUint16(b, r.language)
		b = binary.BigEndian.AppendUint16(b, r.nameID)
		b = binary.BigEndian.AppendUint16(b, uint16(len(r.data)))
		b = binary.BigEndian.AppendUint16(b, uint16(len(strs)))
		strs = append(strs, r.data...)
	}
	return append(b, strs...)
}

func surrogates(r rune) (uint16, uint16) {
	r -= 0x10000
	return uint16(0xd800 + (r>>10)&0x3ff), uint16(0xdc00 + r&0x3ff)
}

func (fb Builder) os2() []byte {
	b := make([]byte, 96)
	binary.BigEndian.PutUint16(b[0:], 4)
	binary.BigEndian.PutUint16(b[2:], 500) // xAvgCharWidth
	binary.BigEndian.PutUint16(b[4:], 400) // usWeightClass
	binary.BigEndian.PutUint16(b[6:], 5)   // usWidthClass
	copy(b[58:62], "TEST")
	binary.BigEndian.PutUint16(b[68:], 800)
	binary.BigEndian.PutUint16(b[70:], uint16(0xffff-199)) // -200
	binary.BigEndian.PutUint16(b[72:], 90)
	binary.BigEndian.PutUint16(b[74:], 1000)
	binary.BigEndian.PutUint16(b[76:], 250)
	return b
}

func (fb Builder) post() []byte {
	b := make([]byte, 32)
	binary.BigEndian.PutUint16(b[8:], uint16(0xffff-99)) // underlinePosition
	binary.BigEndian.PutUint16(b[10:], 50)
	if fb.GlyphNames == nil {
		binary.BigEndian.PutUint32(b, 0x00030000)
		return b
	}
	binary.BigEndian.PutUint32(b, 0x00020000)
	b = binary.BigEndian.AppendUint16(b, uint16(len(fb.GlyphNames)))
	var custom []byte
	next := uint16(258)
	for _, gn := range fb.GlyphNames {
		if gn.Custom == "" {
			b = binary.BigEndian.AppendUint16(b, gn.Standard)
			continue
		}
		b = binary.BigEndian.AppendUint16(b, next)
		next++
		custom = append(custom, byte(len(gn.Custom)))
		custom = append(custom, gn.Custom...)
	}
	return append(b, custom...)
}
