package ot

import (
	"bytes"
	"errors"
	"testing"

	"github.com/npillmayer/fontsubset/internal/testfont"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		data []byte
		sum  uint32
	}{
		{[]byte{}, 0},
		{[]byte{0, 0, 0, 1}, 1},
		{[]byte{0, 0, 0, 1, 0, 0, 0, 2}, 3},
		{[]byte{1}, 0x01000000}, // zero padded
		{[]byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 2}, 1},
	}
	for _, tt := range tests {
		if sum := Checksum(tt.data); sum != tt.sum {
			t.Errorf("checksum of %v: expected %x, have %x", tt.data, tt.sum, sum)
		}
	}
}

func TestHeadChecksumIgnoresAdjustment(t *testing.T) {
	head := make([]byte, HeadTableSize)
	head[3] = 1
	sum := HeadChecksum(head)
	head[HeadCheckSumAdjustmentOffset] = 0x12
	head[HeadCheckSumAdjustmentOffset+3] = 0x34
	if HeadChecksum(head) != sum {
		t.Errorf("expected checksum of head to ignore checkSumAdjustment")
	}
}

func TestSearchParams(t *testing.T) {
	tests := []struct {
		n          int
		sr, es, rs uint16
	}{
		{1, 16, 0, 0},
		{2, 32, 1, 0},
		{3, 32, 1, 16},
		{9, 128, 3, 16},
		{16, 256, 4, 0},
		{17, 256, 4, 16},
	}
	for _, tt := range tests {
		sr, es, rs := SearchParams(tt.n)
		if sr != tt.sr || es != tt.es || rs != tt.rs {
			t.Errorf("n=%d: expected %d/%d/%d, have %d/%d/%d", tt.n, tt.sr, tt.es, tt.rs, sr, es, rs)
		}
	}
}

func TestAssembleRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	src := parseBasicFont(t)
	var tables []TableData
	for i := len(src.directory) - 1; i >= 0; i-- { // reverse order, Assemble has to sort
		rec := src.directory[i]
		tables = append(tables, TableData{Tag: rec.Tag, Data: src.Table(rec.Tag).Binary()})
	}
	font, err := Assemble(FontTypeTrueType, tables)
	if err != nil {
		t.Fatal(err)
	}
	// our writer and the fixture builder follow the same layout
	if !bytes.Equal(font, testfont.Basic()) {
		t.Errorf("expected re-assembled font to be identical to source")
	}
	otf, err := Parse(font, StrictChecksums, StrictAlignment)
	if err != nil {
		t.Fatal(err)
	}
	if Checksum(otf.Binary()) != ChecksumAdjustmentMagic {
		t.Errorf("expected checksum of whole font to be %x, is %x", ChecksumAdjustmentMagic, Checksum(otf.Binary()))
	}
	for _, rec := range otf.Directory() {
		if rec.Offset%4 != 0 {
			t.Errorf("table %s not aligned", rec.Tag)
		}
	}
}

func TestAssembleDoesNotModifyInput(t *testing.T) {
	head := make([]byte, HeadTableSize)
	head[HeadCheckSumAdjustmentOffset] = 0x55
	tables := []TableData{{Tag: T("head"), Data: head}, {Tag: T("abc"), Data: []byte{1, 2, 3}}}
	font, err := Assemble(FontTypeTrueType, tables)
	if err != nil {
		t.Fatal(err)
	}
	if head[HeadCheckSumAdjustmentOffset] != 0x55 {
		t.Errorf("expected head table of caller to be untouched")
	}
	if len(font) != 12+2*16+56+4 {
		t.Errorf("expected font of %d bytes, have %d", 12+2*16+56+4, len(font))
	}
}

func TestAssembleErrors(t *testing.T) {
	_, err := Assemble(FontTypeTrueType, []TableData{{Tag: T("name")}, {Tag: T("name")}})
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("expected duplicate tags to fail, have %v", err)
	}
	_, err = Assemble(FontTypeTrueType, []TableData{{Tag: T("head"), Data: make([]byte, 20)}})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected short head table to fail, have %v", err)
	}
}
