package ot

import (
	"fmt"
)

// Code comment often will cite passage from the
// OpenType specification version 1.8.4;
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// ---------------------------------------------------------------------------

// Sizes of fixed structures of the sfnt container.
const (
	sfntHeaderSize  = 12
	tableRecordSize = 16
)

// MaxGlyphCount is the maximum number of glyphs a font may contain (glyph
// indices are 16 bit values).
const MaxGlyphCount = 65536

// ParseDirectory parses the offset table and table directory of an sfnt font,
// without interpreting any table. Table records are returned in the order
// of the source.
//
// Errors are of kind ErrMalformedHeader, if the buffer is too short for the
// header or the directory, if the sfnt version is unsupported, or if a tag
// occurs twice. A table record pointing outside of the buffer results in an
// error of kind ErrTruncatedTable.
func ParseDirectory(font []byte) (*FontHeader, []TableRecord, error) {
	ec := &errorCollector{}
	return parseDirectory(font, ec)
}

func parseDirectory(font []byte, ec *errorCollector) (*FontHeader, []TableRecord, error) {
	// https://www.microsoft.com/typography/otspec/otff.htm: Offset Table is 12 bytes.
	src := binarySegm(font)
	if len(src) < sfntHeaderSize {
		return nil, nil, ec.fail(errMalformedHeader(fmt.Sprintf("font data too short: %d bytes", len(src))))
	}
	h := &FontHeader{
		FontType:      u32(src),
		TableCount:    u16(src[4:]),
		SearchRange:   u16(src[6:]),
		EntrySelector: u16(src[8:]),
		RangeShift:    u16(src[10:]),
	}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())
	if !(h.FontType == FontTypeCFF ||
		h.FontType == FontTypeTrueType ||
		h.FontType == FontTypeAppleTrue) {
		return nil, nil, ec.fail(errMalformedHeader(fmt.Sprintf("font type not supported: %x", h.FontType)))
	}
	// "The Offset Table is followed immediately by the Table Record entries …
	// sorted in ascending order by tag", 16 bytes each.
	recordsSize, err := checkedMulInt(tableRecordSize, int(h.TableCount))
	if err != nil {
		return nil, nil, ec.fail(errMalformedHeader(fmt.Sprintf("table count too large: %v", err)))
	}
	buf, err := src.view(sfntHeaderSize, recordsSize)
	if err != nil && recordsSize > 0 {
		return nil, nil, ec.fail(errMalformedHeader(
			fmt.Sprintf("table directory with %d entries exceeds font size %d", h.TableCount, len(src))))
	}
	dir := make([]TableRecord, 0, h.TableCount)
	seen := make(map[Tag]bool, h.TableCount)
	for b, prevTag := buf, Tag(0); len(b) > 0; b = b[tableRecordSize:] {
		rec := TableRecord{
			Tag:      MakeTag(b),
			Checksum: u32(b[4:8]),
			Offset:   u32(b[8:12]),
			Length:   u32(b[12:16]),
		}
		if seen[rec.Tag] {
			return nil, nil, ec.fail(FontError{
				Kind:    ErrMalformedHeader,
				Table:   rec.Tag,
				Section: "Directory",
				Issue:   "duplicate table tag",
			})
		}
		seen[rec.Tag] = true
		if rec.Tag < prevTag {
			ec.addWarning(rec.Tag, "table directory not sorted by tag", sfntHeaderSize)
		}
		prevTag = rec.Tag
		end, err := checkedAddUint32(rec.Offset, rec.Length)
		if err != nil || uint64(end) > uint64(len(src)) {
			return nil, nil, ec.fail(errTruncatedTable(rec.Tag, rec.Offset, rec.Length, len(src)))
		}
		dir = append(dir, rec)
	}
	return h, dir, nil
}

// Parse parses an OpenType font from a byte slice.
// An ot.Font needs ongoing access to the fonts byte-data after the Parse function returns.
// Its elements are assumed immutable while the ot.Font remains in use.
//
// No table is mandatory at parse time; clients requiring a certain table
// use the typed accessors (e.g., `Font.Head`), which will fail with an error of
// kind ErrMissingTable. A known table which is present but structurally broken
// results in an error of kind ErrOutOfBounds.
func Parse(font []byte, opts ...ParseOption) (*Font, error) {
	ec := &errorCollector{}
	h, dir, err := parseDirectory(font, ec)
	if err != nil {
		return nil, err
	}
	otf := &Font{
		Header:       h,
		binary:       binarySegm(font),
		directory:    dir,
		tables:       make(map[Tag]Table, len(dir)),
		parseOptions: opts,
	}
	for _, rec := range dir {
		if rec.Offset&3 != 0 { // "all tables must begin on four byte boundries"
			if hasOption(opts, StrictAlignment) {
				return nil, ec.fail(FontError{
					Kind:    ErrMalformedHeader,
					Table:   rec.Tag,
					Section: "Offset",
					Issue:   "table offset not aligned to 4 bytes",
					Offset:  rec.Offset,
				})
			}
			ec.addWarning(rec.Tag, "table offset not aligned to 4 bytes", rec.Offset)
		}
		b := otf.binary[rec.Offset : rec.Offset+rec.Length]
		t, err := parseTable(rec.Tag, b, rec.Offset, rec.Length, ec)
		if err != nil {
			return nil, ec.fail(err)
		}
		otf.tables[rec.Tag] = t
	}
	if err := linkTables(otf, ec); err != nil {
		return nil, ec.fail(err)
	}
	if hasOption(opts, StrictChecksums) {
		if err := otf.VerifyChecksums(); err != nil {
			return nil, ec.fail(err)
		}
	}
	// Transfer accumulated errors and warnings to the Font
	otf.parseErrors = ec.errors
	otf.parseWarnings = ec.warnings
	return otf, nil
}

// linkTables collects and centralizes font information, which is spread out over
// several tables: the number of glyphs is stated in table maxp; tables loca,
// hmtx, glyf and cmap can only be interpreted with knowledge of it.
func linkTables(otf *Font, ec *errorCollector) error {
	if t := otf.Table(T("hhea")); t != nil {
		otf.HHea = t.Self().AsHHea()
	}
	if t := otf.Table(T("OS/2")); t != nil {
		otf.OS2 = t.Self().AsOS2()
	}
	if t := otf.Table(T("cmap")); t != nil {
		otf.CMap = t.Self().AsCMap()
	}
	maxp, err := otf.MaxP()
	if err != nil {
		tracer().Infof("font has no maxp table, glyph-indexed tables will not be interpreted")
		if otf.Table(T("hmtx")) != nil {
			otf.HMtx = otf.Table(T("hmtx")).Self().AsHMtx()
		}
		return nil
	}
	numGlyphs := maxp.NumGlyphs
	tracer().Debugf("maxp.NumGlyphs = %d", numGlyphs)
	if t := otf.Table(T("hmtx")); t != nil {
		otf.HMtx = t.Self().AsHMtx()
		if otf.HHea != nil {
			if err := otf.HMtx.parseAll(numGlyphs, otf.HHea.NumberOfHMetrics); err != nil {
				return errOutOfBounds(T("hmtx"), "Metrics", err.Error())
			}
		}
	}
	var loca *LocaTable
	if t := otf.Table(T("loca")); t != nil {
		loca = t.Self().AsLoca()
		if err := linkLoca(otf, loca, numGlyphs); err != nil {
			return err
		}
	}
	if t := otf.Table(T("glyf")); t != nil && loca != nil {
		glyf := t.Self().AsGlyf()
		glyf.loca = loca
		glyf.numGlyphs = numGlyphs
	}
	if otf.CMap != nil {
		otf.CMap.setGlyphCount(numGlyphs)
	}
	if t := otf.Table(T("post")); t != nil {
		post := t.Self().AsPost()
		if err := post.link(numGlyphs); err != nil {
			// post is not needed to interpret other tables
			ec.addError(T("post"), "GlyphNames", err.Error(), SeverityMinor, post.offset)
		}
	}
	return nil
}

// linkLoca validates head.IndexToLocFormat consistency with the loca table.
func linkLoca(otf *Font, loca *LocaTable, numGlyphs int) error {
	head, err := otf.Head()
	if err != nil {
		return nil // loca cannot be interpreted; glyph lookups will fail lazily
	}
	entrySize := 2
	switch head.IndexToLocFormat {
	case 0:
		loca.inx2loc = shortLocaVersion
	case 1:
		loca.inx2loc = longLocaVersion
		loca.long = true
		entrySize = 4
	default:
		return errOutOfBounds(T("head"), "IndexToLocFormat",
			fmt.Sprintf("invalid value: %d (must be 0 or 1)", head.IndexToLocFormat))
	}
	required, err := checkedMulInt(numGlyphs+1, entrySize)
	if err != nil || int(loca.length) < required {
		return errOutOfBounds(T("loca"), "Size",
			fmt.Sprintf("table size (%d) insufficient for %d glyphs (need %d)", loca.length, numGlyphs, required))
	}
	loca.locCnt = numGlyphs + 1
	return nil
}

func parseTable(t Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	switch t {
	case T("cmap"):
		return parseCMap(t, b, offset, size, ec)
	case T("head"):
		return parseHead(t, b, offset, size, ec)
	case T("glyf"):
		return parseGlyf(t, b, offset, size, ec)
	case T("hhea"):
		return parseHHea(t, b, offset, size, ec)
	case T("hmtx"):
		return parseHMtx(t, b, offset, size, ec)
	case T("loca"):
		return parseLoca(t, b, offset, size, ec)
	case T("maxp"):
		return parseMaxP(t, b, offset, size, ec)
	case T("OS/2"):
		return parseOS2(t, b, offset, size, ec)
	case T("post"):
		return parsePost(t, b, offset, size, ec)
	}
	tracer().Debugf("font contains table (%s), will not be interpreted", t)
	return newTable(t, b, offset, size), nil
}

// --- Head table ------------------------------------------------------------

// magic number of table head
const headMagic = 0x5F0F3CF5

func parseHead(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if size < HeadTableSize {
		return nil, FontError{
			Kind:    ErrOutOfBounds,
			Table:   tag,
			Section: "Size",
			Issue:   fmt.Sprintf("head table too small: %d bytes (need %d)", size, HeadTableSize),
			Offset:  offset,
		}
	}
	t := newHeadTable(tag, b, offset, size)
	if magic, _ := b.u32(12); magic != headMagic {
		ec.addWarning(tag, fmt.Sprintf("invalid magic number %x", magic), offset+12)
	}
	t.Flags, _ = b.u16(16)      // flags
	t.UnitsPerEm, _ = b.u16(18) // units per em
	t.MacStyle, _ = b.u16(44)
	// IndexToLocFormat is needed to interpret the loca table:
	// 0 for short offsets, 1 for long
	t.IndexToLocFormat, _ = b.u16(50)
	return t, nil
}

// --- Loca table ------------------------------------------------------------

func parseLoca(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	return newLocaTable(tag, b, offset, size), nil
}

// --- MaxP table ------------------------------------------------------------

// This table establishes the memory requirements for this font. Fonts with CFF data
// must use Version 0.5 of this table, specifying only the numGlyphs field. Fonts
// with TrueType outlines must use Version 1.0 of this table, where all data is required.
func parseMaxP(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if size < 6 {
		return nil, errOutOfBounds(tag, "Size", fmt.Sprintf("maxp table too small: %d bytes", size))
	}
	t := newMaxPTable(tag, b, offset, size)
	t.Version, _ = b.u32(0)
	n, _ := b.u16(4)
	t.NumGlyphs = int(n)
	if t.Version != MaxPVersionCFF && t.Version != MaxPVersionTrueType {
		ec.addWarning(tag, fmt.Sprintf("unknown maxp version %x", t.Version), offset)
	}
	return t, nil
}

// --- HHea table ------------------------------------------------------------

// This table contains information for horizontal layout. Field numberOfHMetrics
// is needed to interpret table hmtx.
func parseHHea(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	tracer().Debugf("HHea table has size %d", size)
	if size < 36 {
		return nil, errOutOfBounds(tag, "Size", fmt.Sprintf("hhea table too small: %d bytes (need 36)", size))
	}
	t := newHHeaTable(tag, b, offset, size)
	t.Ascender, _ = b.i16(4)
	t.Descender, _ = b.i16(6)
	t.LineGap, _ = b.i16(8)
	t.AdvanceWidthMax, _ = b.u16(10)
	t.MinLeftSideBearing, _ = b.i16(12)
	t.MinRightSideBearing, _ = b.i16(14)
	t.XMaxExtent, _ = b.i16(16)
	t.CaretSlopeRise, _ = b.i16(18)
	t.CaretSlopeRun, _ = b.i16(20)
	t.CaretOffset, _ = b.i16(22)
	n, _ := b.u16(HHeaNumberOfHMetricsOffset)
	t.NumberOfHMetrics = int(n)
	return t, nil
}

// --- HMtx table ------------------------------------------------------------

// Dependencies (taken from Apple Developer page about TrueType):
// The value of the numOfLongHorMetrics field is found in the 'hhea' (Horizontal Header)
// table. Fonts that lack an 'hhea' table must not have an 'hmtx' table.
// Decoding of the metrics is deferred until all tables have been read.
func parseHMtx(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	return newHMtxTable(tag, b, offset, size), nil
}

// --- OS/2 table ------------------------------------------------------------

func parseOS2(tag Tag, b binarySegm, offset, size uint32, ec *errorCollector) (Table, error) {
	if size < 78 {
		ec.addWarning(tag, fmt.Sprintf("OS/2 table too small for metrics: %d bytes", size), offset)
		return newTable(tag, b, offset, size), nil
	}
	t := newOS2Table(tag, b, offset, size)
	t.Version, _ = b.u16(0)
	t.XAvgCharWidth, _ = b.i16(2)
	t.TypoAscender, _ = b.i16(68)
	t.TypoDescender, _ = b.i16(70)
	t.TypoLineGap, _ = b.i16(72)
	t.WinAscent, _ = b.u16(74)
	t.WinDescent, _ = b.u16(76)
	return t, nil
}
