package ot

import (
	"fmt"
)

// Font represents the internal structure of an sfnt font (TrueType or
// CFF-flavoured OpenType).
// It owns the font's binary data, which must not change while the Font is in use.
// Tables are views into this binary data and are never copied.
//
// A Font is read-only after parsing and may be shared between goroutines.
type Font struct {
	Header        *FontHeader
	binary        binarySegm
	directory     []TableRecord
	tables        map[Tag]Table
	CMap          *CMapTable    // typed access to cmap, if present
	HHea          *HHeaTable    // typed access to hhea, if present
	HMtx          *HMtxTable    // typed access to hmtx, if present
	OS2           *OS2Table     // typed access to OS/2, if present
	parseErrors   []FontError   // Errors accumulated during parsing
	parseWarnings []FontWarning // Warnings accumulated during parsing
	parseOptions  []ParseOption // Options to guide the parsing process
}

// FontHeader is the offset table at the start of an sfnt font file.
// If the font file contains only one font, the table directory will begin at byte 0 of the file.
//
// OpenType fonts that contain TrueType outlines should use the value of 0x00010000
// for the FontType. OpenType fonts containing CFF data (version 1 or 2) should
// use 0x4F54544F ('OTTO', when re-interpreted as a Tag).
// The Apple specification for TrueType fonts allows for 'true' and 'typ1',
// but these version tags should not be used for OpenType fonts.
type FontHeader struct {
	FontType      uint32
	TableCount    uint16
	SearchRange   uint16
	EntrySelector uint16
	RangeShift    uint16
}

// Font types (sfnt versions) accepted by the parser.
const (
	FontTypeTrueType  uint32 = 0x00010000
	FontTypeCFF       uint32 = 0x4f54544f // 'OTTO'
	FontTypeAppleTrue uint32 = 0x74727565 // 'true'
)

// TableRecord is an entry of the font's table directory.
type TableRecord struct {
	Tag      Tag
	Checksum uint32
	Offset   uint32
	Length   uint32
}

// Binary returns the font's binary data. Clients must treat it as read-only.
func (otf *Font) Binary() []byte {
	return otf.binary
}

// Directory returns the font's table records in the order of the source file.
func (otf *Font) Directory() []TableRecord {
	dir := make([]TableRecord, len(otf.directory))
	copy(dir, otf.directory)
	return dir
}

// Record returns the directory entry for a table.
func (otf *Font) Record(tag Tag) (TableRecord, bool) {
	for _, rec := range otf.directory {
		if rec.Tag == tag {
			return rec, true
		}
	}
	return TableRecord{}, false
}

// IsTrueType returns true if the font carries TrueType outlines, i.e. has a 'glyf' table.
func (otf *Font) IsTrueType() bool {
	return otf.Table(T("glyf")) != nil
}

// IsCFF returns true if the font carries CFF outlines.
func (otf *Font) IsCFF() bool {
	return otf.Table(T("CFF ")) != nil || otf.Table(T("CFF2")) != nil
}

// Table returns the font table for a given tag. If a table for a tag cannot
// be found in the font, nil is returned.
//
// Please note that the current implementation will not interpret every kind of
// font table. However, `Table` will return at least a generic table type for each table
// contained in the font, i.e. no table information will be dropped.
//
// For example to receive the `OS/2` and the `loca` table, clients may call
//
//	os2  := otf.Table(ot.T("OS/2"))
//	loca := otf.Table(ot.T("loca")).Self().AsLoca()
//
// Table tag names are case-sensitive, following the names in the OpenType specification.
func (otf *Font) Table(tag Tag) Table {
	if t, ok := otf.tables[tag]; ok {
		return t
	}
	return nil
}

// RequireTable returns the font table for a given tag, or an error of kind
// ErrMissingTable naming the absent tag.
func (otf *Font) RequireTable(tag Tag) (Table, error) {
	if t := otf.Table(tag); t != nil {
		return t, nil
	}
	return nil, errMissingTable(tag)
}

// TableTags returns a list of tags, one for each table contained in the font,
// in directory order.
func (otf *Font) TableTags() []Tag {
	var tags = make([]Tag, 0, len(otf.directory))
	for _, rec := range otf.directory {
		tags = append(tags, rec.Tag)
	}
	return tags
}

// Head returns the font's head table or a MissingTable error.
func (otf *Font) Head() (*HeadTable, error) {
	t, err := otf.RequireTable(T("head"))
	if err != nil {
		return nil, err
	}
	return t.Self().AsHead(), nil
}

// MaxP returns the font's maxp table or a MissingTable error.
func (otf *Font) MaxP() (*MaxPTable, error) {
	t, err := otf.RequireTable(T("maxp"))
	if err != nil {
		return nil, err
	}
	return t.Self().AsMaxP(), nil
}

// HorizontalHeader returns the font's hhea table or a MissingTable error.
func (otf *Font) HorizontalHeader() (*HHeaTable, error) {
	if otf.HHea == nil {
		return nil, errMissingTable(T("hhea"))
	}
	return otf.HHea, nil
}

// HorizontalMetrics returns the font's hmtx table or a MissingTable error.
// If the font has an hmtx table but lacks hhea or maxp, the hmtx table cannot be
// interpreted and the missing table is reported.
func (otf *Font) HorizontalMetrics() (*HMtxTable, error) {
	if otf.HMtx == nil {
		return nil, errMissingTable(T("hmtx"))
	}
	if otf.HHea == nil {
		return nil, errMissingTable(T("hhea"))
	}
	if _, err := otf.MaxP(); err != nil {
		return nil, err
	}
	return otf.HMtx, nil
}

// CharMap returns the font's cmap table or a MissingTable error.
func (otf *Font) CharMap() (*CMapTable, error) {
	if otf.CMap == nil {
		return nil, errMissingTable(T("cmap"))
	}
	return otf.CMap, nil
}

// Loca returns the font's loca table or a MissingTable error.
func (otf *Font) Loca() (*LocaTable, error) {
	t, err := otf.RequireTable(T("loca"))
	if err != nil {
		return nil, err
	}
	return t.Self().AsLoca(), nil
}

// Glyf returns the font's glyf table or a MissingTable error.
// The glyf table is usable only together with tables loca, head and maxp;
// if one of them is missing, it is reported instead.
func (otf *Font) Glyf() (*GlyfTable, error) {
	t, err := otf.RequireTable(T("glyf"))
	if err != nil {
		return nil, err
	}
	for _, tag := range []string{"loca", "head", "maxp"} {
		if _, err := otf.RequireTable(T(tag)); err != nil {
			return nil, err
		}
	}
	return t.Self().AsGlyf(), nil
}

// OS2Metrics returns the parsed OS/2 table, if present.
func (otf *Font) OS2Metrics() *OS2Table {
	if otf == nil {
		return nil
	}
	return otf.OS2
}

// NumGlyphs returns the number of glyphs as stated in table maxp, or 0 if the
// font has no maxp table.
func (otf *Font) NumGlyphs() int {
	if maxp, err := otf.MaxP(); err == nil {
		return maxp.NumGlyphs
	}
	return 0
}

// Errors returns all errors encountered during font parsing.
// These errors represent issues that were found but did not prevent parsing from completing.
// Clients can inspect these errors to determine if the font is suitable for their use case.
func (otf *Font) Errors() []FontError {
	if otf.parseErrors == nil {
		return []FontError{}
	}
	return otf.parseErrors
}

// Warnings returns all warnings encountered during font parsing.
// Warnings indicate potential issues that are generally safe to ignore.
func (otf *Font) Warnings() []FontWarning {
	if otf.parseWarnings == nil {
		return []FontWarning{}
	}
	return otf.parseWarnings
}

// CriticalErrors returns all errors with critical severity.
// Critical errors indicate severe problems that may make the font unreliable.
func (otf *Font) CriticalErrors() []FontError {
	critical := make([]FontError, 0)
	for _, err := range otf.parseErrors {
		if err.Severity == SeverityCritical {
			critical = append(critical, err)
		}
	}
	return critical
}

// HasCriticalErrors returns true if any critical errors were encountered during parsing.
func (otf *Font) HasCriticalErrors() bool {
	for _, err := range otf.parseErrors {
		if err.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is defined by the spec as:
// Array of four uint8s (length = 32 bits) used to identify a table, design-variation axis,
// script, language system, feature, or baseline
type Tag uint32

// MakeTag creates a Tag from 4 bytes, e.g.,
// If b is shorter or longer, it will be silently extended or cut as appropriate
//
//	MakeTag([]byte("cmap"))
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// Bytes returns the 4 bytes of the tag.
func (t Tag) Bytes() []byte {
	b := make([]byte, 4)
	putU32(b, uint32(t))
	return b
}

// --- Table -----------------------------------------------------------------

// Table represents one of the various sfnt font tables
//
// Required Tables, according to the OpenType specification:
// 'cmap' (Character to glyph mapping), 'head' (Font header), 'hhea' (Horizontal header),
// 'hmtx' (Horizontal metrics), 'maxp' (Maximum profile), 'name' (Naming table),
// 'OS/2' (OS/2 and Windows specific metrics), 'post' (PostScript information).
//
// For TrueType outline fonts: 'cvt ' (Control Value Table, optional),
// 'fpgm' (Font program, optional), 'glyf' (Glyph data), 'loca' (Index to location),
// 'prep' (CVT Program, optional), 'gasp' (Grid-fitting/Scan-conversion, optional).
//
// For OpenType fonts based on CFF outlines: 'CFF ' (Compact Font Format 1.0),
// 'CFF2' (Compact Font Format 2.0), 'VORG' (Vertical Origin, optional).
type Table interface {
	Extent() (uint32, uint32) // offset and byte size within the font's binary data
	Binary() []byte           // the bytes of this table; should be treatet as read-only by clients
	Self() TableSelf          // reference to itself
}

func newTable(tag Tag, b binarySegm, offset, size uint32) *genericTable {
	t := &genericTable{tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	},
	}
	t.self = t
	return t
}

type genericTable struct {
	tableBase
}

// tableBase is a common parent for all kinds of sfnt tables.
type tableBase struct {
	data   binarySegm // a table is a slice of font data
	name   Tag        // 4-byte name as an integer
	offset uint32     // from offset
	length uint32     // to offset + length
	self   any
}

func makeTableBase(tag Tag, b binarySegm, offset, size uint32) tableBase {
	return tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
}

// Extent returns offset and byte size of this table within the font.
func (tb *tableBase) Extent() (uint32, uint32) {
	return tb.offset, tb.length
}

// Binary returns the bytes of this table. Should be treatet as read-only by
// clients, as it is a view into the original data.
func (tb *tableBase) Binary() []byte {
	return tb.data
}

func (tb *tableBase) Self() TableSelf {
	return TableSelf{tableBase: tb}
}

// TableSelf is a reference to a table. Its primary use is for converting
// a generic table to a concrete table flavour, and for reproducing the
// name tag of a table.
type TableSelf struct {
	tableBase *tableBase
}

// NameTag returns the 4-letter name of a table.
func (tself TableSelf) NameTag() Tag {
	return tself.tableBase.name
}

func safeSelf(tself TableSelf) any {
	if tself.tableBase == nil || tself.tableBase.self == nil {
		return TableSelf{}
	}
	return tself.tableBase.self
}

// AsCMap returns this table as a cmap table, or nil.
func (tself TableSelf) AsCMap() *CMapTable {
	if k, ok := safeSelf(tself).(*CMapTable); ok {
		return k
	}
	return nil
}

// AsLoca returns this table as a loca table, or nil.
func (tself TableSelf) AsLoca() *LocaTable {
	if k, ok := safeSelf(tself).(*LocaTable); ok {
		return k
	}
	return nil
}

// AsGlyf returns this table as a glyf table, or nil.
func (tself TableSelf) AsGlyf() *GlyfTable {
	if k, ok := safeSelf(tself).(*GlyfTable); ok {
		return k
	}
	return nil
}

// AsMaxP returns this table as a maxp table, or nil.
func (tself TableSelf) AsMaxP() *MaxPTable {
	if k, ok := safeSelf(tself).(*MaxPTable); ok {
		return k
	}
	return nil
}

// AsHead returns this table as a head table, or nil.
func (tself TableSelf) AsHead() *HeadTable {
	if k, ok := safeSelf(tself).(*HeadTable); ok {
		return k
	}
	return nil
}

// AsHHea returns this table as a hhea table, or nil.
func (tself TableSelf) AsHHea() *HHeaTable {
	if k, ok := safeSelf(tself).(*HHeaTable); ok {
		return k
	}
	return nil
}

// AsOS2 returns this table as an OS/2 table, or nil.
func (tself TableSelf) AsOS2() *OS2Table {
	if k, ok := safeSelf(tself).(*OS2Table); ok {
		return k
	}
	return nil
}

// AsHMtx returns this table as a hmtx table, or nil.
func (tself TableSelf) AsHMtx() *HMtxTable {
	if k, ok := safeSelf(tself).(*HMtxTable); ok {
		return k
	}
	return nil
}

// AsPost returns this table as a post table, or nil.
func (tself TableSelf) AsPost() *PostTable {
	if k, ok := safeSelf(tself).(*PostTable); ok {
		return k
	}
	return nil
}

// --- Concrete table implementations ----------------------------------------

// HeadTable gives global information about the font.
// Only a small subset of fields are made public by HeadTable, as they are
// needed for consistency-checks and for rebuilding fonts.
// Package otquery decodes all of the fields.
type HeadTable struct {
	tableBase
	Flags            uint16 // see https://docs.microsoft.com/en-us/typography/opentype/spec/head
	UnitsPerEm       uint16 // values 16 … 16384 are valid
	MacStyle         uint16 // bit 0: bold, bit 1: italic
	IndexToLocFormat uint16 // needed to interpret loca table
}

// Offsets of fields in table head which get patched when fonts are rebuilt.
const (
	HeadCheckSumAdjustmentOffset = 8
	HeadModifiedOffset           = 28
	HeadIndexToLocFormatOffset   = 50
	HeadTableSize                = 54
)

func newHeadTable(tag Tag, b binarySegm, offset, size uint32) *HeadTable {
	t := &HeadTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

// LocaTable stores the offsets to the locations of the glyphs in the font,
// relative to the beginning of the glyph data table.
// By definition, index zero points to the “missing character”, which is the character
// that appears if a character is not found in the font. The missing character is
// commonly represented by a blank box or a space.
type LocaTable struct {
	tableBase
	inx2loc func(t *LocaTable, gid int) uint32 // returns glyph location for glyph gid
	locCnt  int                                // number of locations
	long    bool
}

// IndexToLocation offsets, indexed by glyph IDs, which provide the location of each
// glyph data block within the 'glyf' table. Location numGlyphs is the end of the
// glyph data of the last glyph.
func (t *LocaTable) IndexToLocation(gid int) uint32 {
	return t.inx2loc(t, gid)
}

// IsLong returns true if locations are stored as 32-bit values.
func (t *LocaTable) IsLong() bool {
	return t.long
}

// Len returns the number of locations, i.e. numGlyphs+1.
func (t *LocaTable) Len() int {
	return t.locCnt
}

func newLocaTable(tag Tag, b binarySegm, offset, size uint32) *LocaTable {
	t := &LocaTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.inx2loc = shortLocaVersion // may get changed by font consistency check
	t.locCnt = 0                 // has to be set during consistency check
	t.self = t
	return t
}

func shortLocaVersion(t *LocaTable, gid int) uint32 {
	// in case of error link to 'missing character' at location 0
	if gid < 0 || gid >= t.locCnt {
		return 0
	}
	loc, err := t.data.u16(gid * 2)
	if err != nil {
		return 0
	}
	return uint32(loc) * 2
}

func longLocaVersion(t *LocaTable, gid int) uint32 {
	// in case of error link to 'missing character' at location 0
	if gid < 0 || gid >= t.locCnt {
		return 0
	}
	loc, err := t.data.u32(gid * 4)
	if err != nil {
		return 0
	}
	return loc
}

// MaxPTable establishes the memory requirements for this font.
// The 'maxp' table contains a count for the number of glyphs in the font.
// Whenever this value changes, other tables which depend on it should also be updated.
type MaxPTable struct {
	tableBase
	Version   uint32 // 0x00005000 for CFF outlines, 0x00010000 for TrueType outlines
	NumGlyphs int
}

// Versions of table maxp.
const (
	MaxPVersionCFF      uint32 = 0x00005000
	MaxPVersionTrueType uint32 = 0x00010000
)

func newMaxPTable(tag Tag, b binarySegm, offset, size uint32) *MaxPTable {
	t := &MaxPTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

// HHeaTable contains information for horizontal layout.
type HHeaTable struct {
	tableBase
	Ascender            int16
	Descender           int16
	LineGap             int16
	AdvanceWidthMax     uint16
	MinLeftSideBearing  int16
	MinRightSideBearing int16
	XMaxExtent          int16
	CaretSlopeRise      int16
	CaretSlopeRun       int16
	CaretOffset         int16
	NumberOfHMetrics    int
}

// HHeaNumberOfHMetricsOffset is the offset of field numberOfHMetrics in table hhea.
const HHeaNumberOfHMetricsOffset = 34

func newHHeaTable(tag Tag, b binarySegm, offset, size uint32) *HHeaTable {
	t := &HHeaTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

// OS2Table contains a small, concrete subset of metrics from table 'OS/2'
// required for metric fallback decisions.
type OS2Table struct {
	tableBase
	Version       uint16
	XAvgCharWidth int16
	TypoAscender  int16
	TypoDescender int16
	TypoLineGap   int16
	WinAscent     uint16
	WinDescent    uint16
}

func newOS2Table(tag Tag, b binarySegm, offset, size uint32) *OS2Table {
	t := &OS2Table{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

// HMtxTable contains metric information for the horizontal layout each of the glyphs in
// the font. Each element in the contained hMetrics-array has two parts: the advance width
// and left side bearing. The value NumberOfHMetrics is taken from the `hhea` table. In
// a monospaced font, only one entry is required but that entry may not be omitted.
// Optionally, an array of left side bearings follows.
// The corresponding glyphs are assumed to have the same
// advance width as that found in the last entry in the hMetrics array. Since there
// must be a left side bearing and an advance width associated with each glyph in the font,
// the number of entries in this array is derived from the total number of glyphs in the
// font minus the value `HHea.NumberOfHMetrics`, which is copied into the
// HMtxTable for easier access.
type HMtxTable struct {
	tableBase
	NumberOfHMetrics int
	numGlyphs        int
	longMetrics      []HMetricRecord
	leftSideBearings []int16
}

// HMetricRecord is one long horizontal metric record from table hmtx.
type HMetricRecord struct {
	AdvanceWidth    uint16
	LeftSideBearing int16
}

func newHMtxTable(tag Tag, b binarySegm, offset, size uint32) *HMtxTable {
	t := &HMtxTable{}
	t.tableBase = makeTableBase(tag, b, offset, size)
	t.self = t
	return t
}

func (t *HMtxTable) parseAll(numGlyphs, numberOfHMetrics int) error {
	if t == nil {
		return nil
	}
	if numGlyphs < 0 {
		return fmt.Errorf("invalid glyph count %d", numGlyphs)
	}
	if numberOfHMetrics < 1 || numberOfHMetrics > numGlyphs {
		return fmt.Errorf("invalid numberOfHMetrics %d (numGlyphs=%d)", numberOfHMetrics, numGlyphs)
	}
	required := numberOfHMetrics*4 + (numGlyphs-numberOfHMetrics)*2
	if required > len(t.data) {
		return fmt.Errorf("hmtx table too small: need %d bytes, have %d", required, len(t.data))
	}
	longMetrics := make([]HMetricRecord, numberOfHMetrics)
	for i := 0; i < numberOfHMetrics; i++ {
		longMetrics[i] = HMetricRecord{
			AdvanceWidth:    u16(t.data[i*4:]),
			LeftSideBearing: int16(u16(t.data[i*4+2:])),
		}
	}
	lsbCount := numGlyphs - numberOfHMetrics
	leftSideBearings := make([]int16, lsbCount)
	base := numberOfHMetrics * 4
	for i := 0; i < lsbCount; i++ {
		leftSideBearings[i] = int16(u16(t.data[base+i*2:]))
	}
	t.NumberOfHMetrics = numberOfHMetrics
	t.numGlyphs = numGlyphs
	t.longMetrics = longMetrics
	t.leftSideBearings = leftSideBearings
	return nil
}

// LongMetrics returns a copy of all long horizontal metrics records.
func (t *HMtxTable) LongMetrics() []HMetricRecord {
	if t == nil || len(t.longMetrics) == 0 {
		return nil
	}
	metrics := make([]HMetricRecord, len(t.longMetrics))
	copy(metrics, t.longMetrics)
	return metrics
}

// LeftSideBearings returns a copy of trailing LSB records.
func (t *HMtxTable) LeftSideBearings() []int16 {
	if t == nil || len(t.leftSideBearings) == 0 {
		return nil
	}
	lsbs := make([]int16, len(t.leftSideBearings))
	copy(lsbs, t.leftSideBearings)
	return lsbs
}

// GlyphCount returns the glyph count used when decoding this hmtx table.
func (t *HMtxTable) GlyphCount() int {
	if t == nil {
		return 0
	}
	return t.numGlyphs
}

// HMetrics returns the advance width and left side bearing for a glyph.
func (t *HMtxTable) HMetrics(g GlyphIndex) (uint16, int16, bool) {
	if t == nil || t.numGlyphs == 0 || int(g) >= t.numGlyphs {
		return 0, 0, false
	}
	if int(g) < len(t.longMetrics) {
		m := t.longMetrics[int(g)]
		return m.AdvanceWidth, m.LeftSideBearing, true
	}
	if len(t.longMetrics) == 0 {
		return 0, 0, false
	}
	i := int(g) - len(t.longMetrics)
	if i < 0 || i >= len(t.leftSideBearings) {
		return 0, 0, false
	}
	return t.longMetrics[len(t.longMetrics)-1].AdvanceWidth, t.leftSideBearings[i], true
}
