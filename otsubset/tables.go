package otsubset

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"slices"
	"time"

	"github.com/npillmayer/fontsubset/ot"
	"github.com/npillmayer/fontsubset/otquery"
)

// maxShortLocaOffset is the largest glyf size addressable by a short loca table,
// which stores offsets divided by 2 as uint16.
const maxShortLocaOffset = 0x1FFFE

// --- glyf and loca ---------------------------------------------------------

// buildGlyfLoca concatenates the outlines of the subset's glyphs and patches
// component references of composite glyphs to the new glyph indices. Every
// glyph starts at an even offset.
func buildGlyfLoca(glyf *ot.GlyfTable, sub *Subset) (glyfData, loca []byte, long bool, err error) {
	offsets := make([]int, 0, len(sub.Glyphs)+1)
	for _, gid := range sub.Glyphs {
		data, err := glyf.Glyph(gid)
		if err != nil {
			return nil, nil, false, err
		}
		start := len(glyfData)
		offsets = append(offsets, start)
		glyfData = append(glyfData, data...)
		comps, err := ot.GlyphComponents(data)
		if err != nil {
			tracer().Infof("glyph %d: %v", gid, err)
		}
		for _, c := range comps {
			newID, ok := sub.GlyphMap[c.Glyph]
			if !ok {
				tracer().Infof("glyph %d: component %d not in subset, replaced by .notdef", gid, c.Glyph)
			}
			binary.BigEndian.PutUint16(glyfData[start+c.Offset:], uint16(newID))
		}
		if len(glyfData)%2 == 1 {
			glyfData = append(glyfData, 0)
		}
	}
	offsets = append(offsets, len(glyfData))
	long = len(glyfData) > maxShortLocaOffset
	for _, off := range offsets {
		if long {
			loca = binary.BigEndian.AppendUint32(loca, uint32(off))
		} else {
			loca = binary.BigEndian.AppendUint16(loca, uint16(off/2))
		}
	}
	return glyfData, loca, long, nil
}

// --- head and maxp ---------------------------------------------------------

func buildHead(src []byte, longLoca bool, now time.Time) []byte {
	head := slices.Clone(src)
	binary.BigEndian.PutUint32(head[ot.HeadCheckSumAdjustmentOffset:], 0)
	binary.BigEndian.PutUint64(head[ot.HeadModifiedOffset:], uint64(otquery.MacSeconds(now)))
	var format uint16
	if longLoca {
		format = 1
	}
	binary.BigEndian.PutUint16(head[ot.HeadIndexToLocFormatOffset:], format)
	return head
}

func buildMaxP(src []byte, numGlyphs int) []byte {
	maxp := slices.Clone(src)
	binary.BigEndian.PutUint16(maxp[4:], uint16(numGlyphs))
	return maxp
}

// --- hhea and hmtx ---------------------------------------------------------

func subsetMetrics(hmtx *ot.HMtxTable, glyphs []ot.GlyphIndex) (advances []uint16, lsbs []int16) {
	advances = make([]uint16, len(glyphs))
	lsbs = make([]int16, len(glyphs))
	for i, gid := range glyphs {
		advances[i], lsbs[i], _ = hmtx.HMetrics(gid)
	}
	return
}

// numberOfHMetrics returns the count of long metrics needed. Glyphs at the end
// sharing the advance of the last long metric are stored as side bearings only.
func numberOfHMetrics(advances []uint16) int {
	n := len(advances)
	for n > 1 && advances[n-1] == advances[n-2] {
		n--
	}
	return n
}

func buildHHea(src []byte, advances []uint16) []byte {
	hhea := slices.Clone(src)
	var maxAdvance uint16
	for _, a := range advances {
		maxAdvance = max(maxAdvance, a)
	}
	binary.BigEndian.PutUint16(hhea[10:], maxAdvance)
	binary.BigEndian.PutUint16(hhea[ot.HHeaNumberOfHMetricsOffset:], uint16(numberOfHMetrics(advances)))
	return hhea
}

func buildHMtx(advances []uint16, lsbs []int16) []byte {
	n := numberOfHMetrics(advances)
	hmtx := make([]byte, 0, 4*n+2*(len(advances)-n))
	for i := range advances {
		if i < n {
			hmtx = binary.BigEndian.AppendUint16(hmtx, advances[i])
		}
		hmtx = binary.BigEndian.AppendUint16(hmtx, uint16(lsbs[i]))
	}
	return hmtx
}

// --- cmap ------------------------------------------------------------------

type cmapMapping struct {
	r   rune
	gid ot.GlyphIndex
}

// buildCMap creates a cmap table with the mappings of the source font whose
// glyphs are part of the subset. A format 4 sub-table (Windows, Unicode BMP)
// is always present; a format 12 sub-table (Windows, Unicode full) is added
// if code-points beyond the BMP remain.
func buildCMap(cmap *ot.CMapTable, glyphMap map[ot.GlyphIndex]ot.GlyphIndex) ([]byte, error) {
	var all []cmapMapping
	for r, gid := range cmap.Mappings() {
		if gid == 0 {
			continue
		}
		if newID, ok := glyphMap[gid]; ok {
			all = append(all, cmapMapping{r, newID})
		}
	}
	// a source cmap with overlapping segments may map a code-point twice
	slices.SortStableFunc(all, func(a, b cmapMapping) int { return int(a.r - b.r) })
	all = slices.CompactFunc(all, func(a, b cmapMapping) bool { return a.r == b.r })
	var bmp []cmapMapping
	for _, m := range all {
		if m.r < 0xFFFF { // 0xFFFF is reserved for the final segment
			bmp = append(bmp, m)
		}
	}
	f4, err := cmapFormat4(bmp)
	if err != nil {
		return nil, err
	}
	var f12 []byte
	if len(all) > len(bmp) {
		f12 = cmapFormat12(all)
	}
	numTables := 1
	if f12 != nil {
		numTables = 2
	}
	var b []byte
	b = binary.BigEndian.AppendUint16(b, 0) // version
	b = binary.BigEndian.AppendUint16(b, uint16(numTables))
	offset := 4 + 8*numTables
	b = binary.BigEndian.AppendUint16(b, 3) // platform Windows
	b = binary.BigEndian.AppendUint16(b, 1) // Unicode BMP
	b = binary.BigEndian.AppendUint32(b, uint32(offset))
	if f12 != nil {
		b = binary.BigEndian.AppendUint16(b, 3)  // platform Windows
		b = binary.BigEndian.AppendUint16(b, 10) // Unicode full repertoire
		b = binary.BigEndian.AppendUint32(b, uint32(offset+len(f4)))
	}
	b = append(b, f4...)
	return append(b, f12...), nil
}

// cmapFormat4 creates a segment mapping sub-table. A run of consecutive
// code-points mapped to consecutive glyphs becomes a segment expressed by
// idDelta. Runs of consecutive code-points with scattered glyphs are stored
// as a single segment referencing the glyphIdArray, if this is smaller than a
// segment per glyph sequence.
func cmapFormat4(mappings []cmapMapping) ([]byte, error) {
	type segment struct {
		start, end uint16
		delta      uint16
		glyphs     []uint16 // glyphIdArray entries, nil for idDelta segments
	}
	var segs []segment
	var glyphCount int
	for len(mappings) > 0 {
		run := 1
		for run < len(mappings) && mappings[run].r == mappings[run-1].r+1 {
			run++
		}
		ranges := splitDeltaRanges(mappings[:run])
		if len(ranges) > 1 && 8+2*run < 8*len(ranges) {
			seg := segment{start: uint16(mappings[0].r), end: uint16(mappings[run-1].r)}
			seg.glyphs = make([]uint16, run)
			for i, m := range mappings[:run] {
				seg.glyphs[i] = uint16(m.gid)
			}
			glyphCount += run
			segs = append(segs, seg)
		} else {
			for _, rng := range ranges {
				first, last := rng[0], rng[len(rng)-1]
				segs = append(segs, segment{
					start: uint16(first.r),
					end:   uint16(last.r),
					delta: uint16(first.gid) - uint16(first.r),
				})
			}
		}
		mappings = mappings[run:]
	}
	segs = append(segs, segment{start: 0xFFFF, end: 0xFFFF, delta: 1})
	segCount := len(segs)
	length := 16 + 8*segCount + 2*glyphCount
	if length > 0xFFFF {
		return nil, ot.ErrOutOfBoundsFor(ot.T("cmap"), "Format4",
			fmt.Sprintf("%d segments with %d glyph ids exceed the size of a format 4 sub-table",
				segCount, glyphCount))
	}
	tracer().Debugf("cmap format 4: %d segments, %d entries in glyphIdArray", segCount, glyphCount)
	entrySelector := bits.Len(uint(segCount)) - 1
	searchRange := 2 << entrySelector
	var b []byte
	b = binary.BigEndian.AppendUint16(b, 4)
	b = binary.BigEndian.AppendUint16(b, uint16(length))
	b = binary.BigEndian.AppendUint16(b, 0) // language
	b = binary.BigEndian.AppendUint16(b, uint16(2*segCount))
	b = binary.BigEndian.AppendUint16(b, uint16(searchRange))
	b = binary.BigEndian.AppendUint16(b, uint16(entrySelector))
	b = binary.BigEndian.AppendUint16(b, uint16(2*segCount-searchRange))
	for _, s := range segs {
		b = binary.BigEndian.AppendUint16(b, s.end)
	}
	b = binary.BigEndian.AppendUint16(b, 0) // reservedPad
	for _, s := range segs {
		b = binary.BigEndian.AppendUint16(b, s.start)
	}
	for _, s := range segs {
		b = binary.BigEndian.AppendUint16(b, s.delta)
	}
	// idRangeOffset is relative to the position of the idRangeOffset entry
	arrayPos := 0
	for i, s := range segs {
		if s.glyphs == nil {
			b = binary.BigEndian.AppendUint16(b, 0)
			continue
		}
		b = binary.BigEndian.AppendUint16(b, uint16(2*(segCount-i)+2*arrayPos))
		arrayPos += len(s.glyphs)
	}
	for _, s := range segs {
		for _, gid := range s.glyphs {
			b = binary.BigEndian.AppendUint16(b, gid)
		}
	}
	return b, nil
}

// splitDeltaRanges splits a run of consecutive code-points into ranges
// mapped to consecutive glyphs.
func splitDeltaRanges(run []cmapMapping) [][]cmapMapping {
	var ranges [][]cmapMapping
	start := 0
	for i := 1; i <= len(run); i++ {
		if i == len(run) || run[i].gid != run[i-1].gid+1 {
			ranges = append(ranges, run[start:i])
			start = i
		}
	}
	return ranges
}

// cmapFormat12 creates a segmented coverage sub-table.
func cmapFormat12(mappings []cmapMapping) []byte {
	type group struct {
		start, end rune
		gid        ot.GlyphIndex
	}
	var groups []group
	for i, m := range mappings {
		if i > 0 {
			prev, last := mappings[i-1], &groups[len(groups)-1]
			if m.r == prev.r+1 && m.gid == prev.gid+1 {
				last.end = m.r
				continue
			}
		}
		groups = append(groups, group{m.r, m.r, m.gid})
	}
	var b []byte
	b = binary.BigEndian.AppendUint16(b, 12)
	b = binary.BigEndian.AppendUint16(b, 0) // reserved
	b = binary.BigEndian.AppendUint32(b, uint32(16+12*len(groups)))
	b = binary.BigEndian.AppendUint32(b, 0) // language
	b = binary.BigEndian.AppendUint32(b, uint32(len(groups)))
	for _, g := range groups {
		b = binary.BigEndian.AppendUint32(b, uint32(g.start))
		b = binary.BigEndian.AppendUint32(b, uint32(g.end))
		b = binary.BigEndian.AppendUint32(b, uint32(g.gid))
	}
	return b
}

// --- post ------------------------------------------------------------------

// buildPost re-indexes the glyph names of a post table in lockstep with the
// renumbering of glyphs. Version 1.0 tables, whose names are implied by the
// glyph order, are converted to version 2.0. Tables without usable glyph
// names are reduced to version 3.0.
func buildPost(post *ot.PostTable, glyphs []ot.GlyphIndex, noNames bool) []byte {
	b := slices.Clone(post.Binary()[:ot.PostHeaderSize])
	if noNames || !post.HasGlyphNames() {
		binary.BigEndian.PutUint32(b, ot.PostVersion3)
		return b
	}
	binary.BigEndian.PutUint32(b, ot.PostVersion2)
	b = binary.BigEndian.AppendUint16(b, uint16(len(glyphs)))
	var custom []byte
	next := uint16(ot.NumMacintoshGlyphNames)
	for _, gid := range glyphs {
		var inx uint16
		if post.Version == ot.PostVersion1 {
			if int(gid) < ot.NumMacintoshGlyphNames {
				inx = uint16(gid)
			}
		} else {
			inx, _ = post.NameIndex(gid)
		}
		if inx < ot.NumMacintoshGlyphNames {
			b = binary.BigEndian.AppendUint16(b, inx)
			continue
		}
		name := post.GlyphName(gid)
		b = binary.BigEndian.AppendUint16(b, next)
		next++
		custom = append(custom, byte(len(name)))
		custom = append(custom, name...)
	}
	return append(b, custom...)
}
