package woff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"runtime"
	"testing"

	"github.com/go-text/typesetting/font/opentype"
	"github.com/golang/freetype/truetype"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/npillmayer/fontsubset/internal/testfont"
	"github.com/npillmayer/fontsubset/ot"
	"github.com/npillmayer/fontsubset/otquery"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

func TestEncodeHeader(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.woff")
	defer teardown()
	//
	src := testfont.Basic()
	woff, err := Encode(src)
	require.NoError(t, err)
	h, entries, err := ParseHeader(woff)
	require.NoError(t, err)
	srcHeader, srcRecords, err := ot.ParseDirectory(src)
	require.NoError(t, err)
	assert.Equal(t, srcHeader.FontType, h.Flavor, "flavor has to be the sfnt version")
	assert.Equal(t, int(srcHeader.TableCount), int(h.NumTables))
	assert.Equal(t, uint16(2), h.MajorVersion, "version has to be head.fontRevision")
	assert.Equal(t, uint16(0), h.MinorVersion)
	assert.Equal(t, uint32(len(woff)), h.Length)
	assert.Zero(t, len(woff)%4, "expected WOFF size to be a multiple of 4")
	assert.Zero(t, h.MetaOffset)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Tag, entries[i].Tag, "expected entries sorted by tag")
	}
	var expectedSize uint32 = 12 + 16*uint32(len(srcRecords))
	for _, rec := range srcRecords {
		expectedSize += (rec.Length + 3) &^ 3
	}
	assert.Equal(t, expectedSize, h.TotalSfntSize)
}

// Decoding has to restore the tables, with the checksum adjustment matching
// the layout of the decoded font.
func TestRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.woff")
	defer teardown()
	//
	for name, src := range map[string][]byte{
		"TrueType": testfont.Basic(),
		"CFF":      testfont.CFF(),
	} {
		woff, err := Encode(src)
		require.NoError(t, err, name)
		sfnt, err := Decode(woff)
		require.NoError(t, err, name)
		if ot.Checksum(sfnt) != ot.ChecksumAdjustmentMagic {
			t.Errorf("%s: expected checksum of decoded font to be %x, is %x",
				name, ot.ChecksumAdjustmentMagic, ot.Checksum(sfnt))
		}
		before, err := ot.Parse(src)
		require.NoError(t, err, name)
		after, err := ot.Parse(sfnt, ot.StrictChecksums, ot.StrictAlignment)
		require.NoError(t, err, name)
		assert.Equal(t, before.Header.FontType, after.Header.FontType)
		//
		h1, err := otquery.HeadInfo(before)
		require.NoError(t, err)
		h2, err := otquery.HeadInfo(after)
		require.NoError(t, err)
		ignoreAdjustment := cmpopts.IgnoreFields(otquery.HeadTableInfo{}, "CheckSumAdjustment")
		if diff := cmp.Diff(h1, h2, ignoreAdjustment); diff != "" {
			t.Errorf("%s: head mismatch after round trip (-before +after):\n%s", name, diff)
		}
		m1, err := otquery.MaxPInfo(before)
		require.NoError(t, err)
		m2, err := otquery.MaxPInfo(after)
		require.NoError(t, err)
		if diff := cmp.Diff(m1, m2); diff != "" {
			t.Errorf("%s: maxp mismatch after round trip (-before +after):\n%s", name, diff)
		}
		for _, tag := range before.TableTags() {
			if tag == ot.T("head") {
				continue
			}
			if !bytes.Equal(before.Table(tag).Binary(), after.Table(tag).Binary()) {
				t.Errorf("%s: table %s changed by round trip", name, tag)
			}
		}
	}
}

// A table which does not shrink under compression is stored as is.
func TestIncompressibleTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.woff")
	defer teardown()
	//
	data := make([]byte, 1001)
	rand.New(rand.NewSource(1)).Read(data)
	src, err := ot.Assemble(ot.FontTypeTrueType, []ot.TableData{{Tag: ot.T("DATA"), Data: data}})
	require.NoError(t, err)
	woff, err := Encode(src)
	require.NoError(t, err)
	assert.Equal(t, HeaderSize+EntrySize+1004, len(woff), "expected header, one entry and padded table")
	_, entries, err := ParseHeader(woff)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, e.OrigLength, e.CompLength)
	assert.False(t, e.IsCompressed())
	assert.Equal(t, data, woff[e.Offset:e.Offset+e.CompLength])
	//
	again, err := Encode(src)
	require.NoError(t, err)
	assert.Equal(t, woff, again, "expected encoding to be deterministic")
	sfnt, err := Decode(woff)
	require.NoError(t, err)
	assert.Equal(t, src, sfnt)
}

func TestMetadata(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.woff")
	defer teardown()
	//
	xml := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<metadata version="1.0">
	<uniqueid id="com.example.testsans.regular"/>
	<vendor name="Example Foundry"/>
</metadata>`)
	woff, err := Encode(testfont.Basic(), WithMetadata(xml))
	require.NoError(t, err)
	h, _, err := ParseHeader(woff)
	require.NoError(t, err)
	assert.NotZero(t, h.MetaOffset)
	assert.Zero(t, h.MetaOffset%4, "expected metadata block to be 4-byte aligned")
	assert.Equal(t, uint32(len(xml)), h.MetaOrigLength)
	assert.Zero(t, len(woff)%4, "expected metadata block to be padded")
	assert.LessOrEqual(t, int(h.MetaOffset+h.MetaLength), len(woff))
	meta, err := h.Metadata(woff)
	require.NoError(t, err)
	assert.Equal(t, xml, meta)
	_, err = Decode(woff)
	assert.NoError(t, err)
	//
	plain, err := Encode(testfont.Basic())
	require.NoError(t, err)
	h, _, _ = ParseHeader(plain)
	meta, err = h.Metadata(plain)
	assert.NoError(t, err)
	assert.Nil(t, meta)
}

func TestEncodeErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.woff")
	defer teardown()
	//
	src := testfont.Basic()
	_, records, err := ot.ParseDirectory(src)
	require.NoError(t, err)
	corrupt := bytes.Clone(src)
	for _, rec := range records {
		if rec.Tag == ot.T("name") {
			corrupt[rec.Offset+8] ^= 0xff
		}
	}
	_, err = Encode(corrupt)
	assert.True(t, errors.Is(err, ot.ErrChecksumMismatch), "expected checksum mismatch, have %v", err)
	var fontErr ot.FontError
	if assert.True(t, errors.As(err, &fontErr)) {
		assert.Equal(t, ot.T("name"), fontErr.Table)
	}
	//
	_, err = Encode(src, WithCompressionLevel(42))
	assert.True(t, errors.Is(err, ot.ErrCompressionFailed), "expected compression failure, have %v", err)
	//
	_, err = Encode(src[:10])
	assert.True(t, errors.Is(err, ot.ErrMalformedHeader), "expected malformed header, have %v", err)
}

func TestDecodeErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.woff")
	defer teardown()
	//
	woff, err := Encode(testfont.Basic())
	require.NoError(t, err)
	_, entries, err := ParseHeader(woff)
	require.NoError(t, err)
	entry := func(b []byte, i int) []byte {
		return b[HeaderSize+EntrySize*i:]
	}
	for name, mutate := range map[string]func([]byte) []byte{
		"short":     func(b []byte) []byte { return b[:40] },
		"signature": func(b []byte) []byte { b[0] = 'x'; return b },
		"length":    func(b []byte) []byte { return append(b, 0, 0, 0, 0) },
		"reserved":  func(b []byte) []byte { b[15] = 1; return b },
		"sfntSize":  func(b []byte) []byte { binary.BigEndian.PutUint32(b[16:], 4); return b },
		"unsorted": func(b []byte) []byte {
			first := bytes.Clone(entry(b, 0)[:EntrySize])
			copy(entry(b, 0), entry(b, 1)[:EntrySize])
			copy(entry(b, 1), first)
			return b
		},
		"overlap": func(b []byte) []byte {
			binary.BigEndian.PutUint32(entry(b, 1)[4:], entries[0].Offset)
			return b
		},
		"beyond": func(b []byte) []byte {
			binary.BigEndian.PutUint32(entry(b, 0)[4:], uint32(len(b)-2))
			return b
		},
	} {
		_, err := Decode(mutate(bytes.Clone(woff)))
		assert.True(t, errors.Is(err, ot.ErrMalformedHeader), "%s: expected malformed header, have %v", name, err)
	}
	//
	for i, e := range entries {
		if !e.IsCompressed() {
			continue
		}
		b := bytes.Clone(woff)
		b[e.Offset] = 0 // invalid zlib header
		_, err := Decode(b)
		assert.True(t, errors.Is(err, ot.ErrCompressionFailed), "table %s: expected compression failure, have %v", e.Tag, err)
		b = bytes.Clone(woff)
		binary.BigEndian.PutUint32(entry(b, i)[16:], e.OrigChecksum+1)
		_, err = Decode(b)
		assert.True(t, errors.Is(err, ot.ErrChecksumMismatch), "table %s: expected checksum mismatch, have %v", e.Tag, err)
		break
	}
}

// singleTableWOFF creates a WOFF file with one table of 16 bytes of data,
// declaring the given original length.
func singleTableWOFF(origLength uint32) []byte {
	const dataOffset = HeaderSize + EntrySize
	b := make([]byte, dataOffset+16)
	binary.BigEndian.PutUint32(b, Signature)
	binary.BigEndian.PutUint32(b[4:], 0x00010000)
	binary.BigEndian.PutUint32(b[8:], uint32(len(b)))
	binary.BigEndian.PutUint16(b[12:], 1)
	binary.BigEndian.PutUint32(b[16:], uint32(sfntHeaderSize+sfntRecordSize+pad4(uint64(origLength))))
	e := b[HeaderSize:]
	copy(e, "glyf")
	binary.BigEndian.PutUint32(e[4:], dataOffset)
	binary.BigEndian.PutUint32(e[8:], 16)
	binary.BigEndian.PutUint32(e[12:], origLength)
	b[dataOffset], b[dataOffset+1] = 0x78, 0x9c // zlib header
	return b
}

func TestDecodeDeclaredSize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.woff")
	defer teardown()
	//
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := Decode(singleTableWOFF(0xf0000000))
	runtime.ReadMemStats(&after)
	assert.True(t, errors.Is(err, ot.ErrMalformedHeader), "expected malformed header, have %v", err)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20),
		"expected decoding to allocate memory according to the file size")
	//
	// within the deflate ratio, but the data does not inflate to the declared size
	runtime.ReadMemStats(&before)
	_, err = Decode(singleTableWOFF(16 * maxDeflateRatio))
	runtime.ReadMemStats(&after)
	assert.Error(t, err)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

// A real font, decoded by freetype after the round trip.
func TestFreetypeCrossCheck(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.woff")
	defer teardown()
	//
	woff, err := Encode(goregular.TTF)
	require.NoError(t, err)
	assert.Less(t, len(woff), len(goregular.TTF), "expected WOFF to be smaller than the TrueType font")
	sfnt, err := Decode(woff)
	require.NoError(t, err)
	assert.Equal(t, ot.ChecksumAdjustmentMagic, ot.Checksum(sfnt))
	before, err := truetype.Parse(goregular.TTF)
	require.NoError(t, err)
	after, err := truetype.Parse(sfnt)
	require.NoError(t, err)
	assert.Equal(t, before.FUnitsPerEm(), after.FUnitsPerEm())
	assert.Equal(t, before.Name(truetype.NameIDFontFamily), after.Name(truetype.NameIDFontFamily))
	scale := before.FUnitsPerEm()
	for _, r := range "Hamburgefonstiv ÄÖÜß 0123456789" {
		i := before.Index(r)
		assert.NotZero(t, i, "expected Go Regular to map %#U", r)
		assert.Equal(t, i, after.Index(r))
		assert.Equal(t, before.HMetric(fixed.Int26_6(scale), i), after.HMetric(fixed.Int26_6(scale), i))
	}
}

// go-text reads WOFF files directly, decompressing tables on demand.
func TestGoTextLoader(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.woff")
	defer teardown()
	//
	src := testfont.Basic()
	woff, err := Encode(src)
	require.NoError(t, err)
	ld, err := opentype.NewLoader(bytes.NewReader(woff))
	require.NoError(t, err)
	otf, err := ot.Parse(src)
	require.NoError(t, err)
	assert.Len(t, ld.Tables(), len(otf.TableTags()))
	for _, tag := range []string{"glyf", "cmap", "name", "post"} {
		raw, err := ld.RawTable(opentype.MustNewTag(tag))
		require.NoError(t, err, tag)
		assert.Equal(t, otf.Table(ot.T(tag)).Binary(), raw, "table %s", tag)
	}
}
