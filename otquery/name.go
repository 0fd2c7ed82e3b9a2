package otquery

import (
	"fmt"
	"iter"

	"github.com/npillmayer/fontsubset/ot"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
)

const (
	nameHeaderSize = 6
	nameRecordSize = 12
)

type PlatformID uint16

const (
	PlatformIDUnicode   PlatformID = 0
	PlatformIDMacintosh PlatformID = 1
	PlatformIDWindows   PlatformID = 3
)

type EncodingID uint16

const (
	EncodingIDMacRoman      EncodingID = 0 // platform Macintosh
	EncodingIDWindowsSymbol EncodingID = 0 // platform Windows
	EncodingIDWindowsBMP    EncodingID = 1
	EncodingIDUnicodeBMP    EncodingID = 3 // platform Unicode
	EncodingIDWindowsFull   EncodingID = 10
)

// NameRecord is a decoded entry of OpenType table 'name'.
type NameRecord struct {
	Platform PlatformID
	Encoding EncodingID
	Language uint16      // platform specific language ID
	NameID   sfnt.NameID // see https://pkg.go.dev/golang.org/x/image/font/sfnt#NameID
	Value    string      // UTF-8
}

// LanguageTag returns the BCP 47 language of a record. For languages
// without a known mapping and for platform Unicode, language.Und is returned.
func (rec NameRecord) LanguageTag() language.Tag {
	switch rec.Platform {
	case PlatformIDWindows:
		if tag, ok := windowsLanguages[rec.Language]; ok {
			return tag
		}
		if rec.Language&0xff == 0x09 { // any English sub-language
			return language.English
		}
	case PlatformIDMacintosh:
		if tag, ok := macLanguages[rec.Language]; ok {
			return tag
		}
	}
	return language.Und
}

var windowsLanguages = map[uint16]language.Tag{
	0x0409: language.AmericanEnglish,
	0x0809: language.BritishEnglish,
	0x0407: language.German,
	0x040c: language.French,
	0x0410: language.Italian,
	0x040a: language.Spanish,
	0x0c0a: language.Spanish,
	0x0413: language.Dutch,
	0x0416: language.BrazilianPortuguese,
	0x0816: language.EuropeanPortuguese,
	0x0419: language.Russian,
	0x0411: language.Japanese,
	0x0412: language.Korean,
	0x0804: language.SimplifiedChinese,
	0x0404: language.TraditionalChinese,
}

var macLanguages = map[uint16]language.Tag{
	0:  language.English,
	1:  language.French,
	2:  language.German,
	3:  language.Italian,
	4:  language.Dutch,
	6:  language.Spanish,
	11: language.Japanese,
	19: language.TraditionalChinese,
	23: language.Korean,
	32: language.Russian,
	33: language.SimplifiedChinese,
}

// nameTable holds the validated header of table 'name'.
type nameTable struct {
	b       []byte
	count   int
	storage int
}

func checkNameTable(otf *ot.Font) (nameTable, error) {
	b, err := tableBytes(otf, "name")
	if err != nil {
		return nameTable{}, err
	}
	if len(b) < nameHeaderSize {
		return nameTable{}, ot.ErrOutOfBoundsFor(ot.T("name"), "Header",
			fmt.Sprintf("name table too short: %d bytes", len(b)))
	}
	nt := nameTable{b: b, count: int(u16(b[2:4])), storage: int(u16(b[4:6]))}
	if nt.storage > len(b) {
		return nameTable{}, ot.ErrOutOfBoundsFor(ot.T("name"), "Header",
			fmt.Sprintf("string storage offset %d beyond table size %d", nt.storage, len(b)))
	}
	if end := nameHeaderSize + nt.count*nameRecordSize; end > len(b) {
		return nameTable{}, ot.ErrOutOfBoundsFor(ot.T("name"), "Records",
			fmt.Sprintf("%d name records exceed table size %d", nt.count, len(b)))
	}
	return nt, nil
}

// record decodes name record i. If the record's encoding is not supported,
// ok is false. A string exceeding the table is reported as an error.
func (nt nameTable) record(i int) (rec NameRecord, ok bool, err error) {
	r := nt.b[nameHeaderSize+i*nameRecordSize:]
	rec = NameRecord{
		Platform: PlatformID(u16(r[0:2])),
		Encoding: EncodingID(u16(r[2:4])),
		Language: u16(r[4:6]),
		NameID:   sfnt.NameID(u16(r[6:8])),
	}
	start := nt.storage + int(u16(r[10:12]))
	end := start + int(u16(r[8:10]))
	if end > len(nt.b) {
		return rec, false, ot.ErrOutOfBoundsFor(ot.T("name"), "Strings",
			fmt.Sprintf("string of record %d at [%d:%d] exceeds table size %d", i, start, end, len(nt.b)))
	}
	rec.Value, ok = decodeName(rec.Platform, rec.Encoding, nt.b[start:end])
	return rec, ok, nil
}

// AllNames decodes all name records of supported encodings, in table order.
// Records with other encodings are left out. If any record's string overruns
// the table, an OutOfBounds error is returned.
func AllNames(otf *ot.Font) ([]NameRecord, error) {
	nt, err := checkNameTable(otf)
	if err != nil {
		return nil, err
	}
	recs := make([]NameRecord, 0, nt.count)
	for i := range nt.count {
		rec, ok, err := nt.record(i)
		if err != nil {
			return nil, err
		}
		if ok {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

// NamesRange yields decoded `(nameID, value)` pairs from a font's OpenType
// `name` table, in table order. A name ID will be yielded once for every
// platform and language the font provides it for.
//
// Records with unsupported encodings and malformed or out-of-bounds records
// are skipped, as are empty strings.
func NamesRange(otf *ot.Font) iter.Seq2[sfnt.NameID, string] {
	nt, err := checkNameTable(otf)
	if err != nil {
		tracer().Debugf("no usable name table: %v", err)
	}
	return func(yield func(sfnt.NameID, string) bool) {
		if err != nil {
			return
		}
		for i := range nt.count {
			rec, ok, err := nt.record(i)
			if err != nil {
				tracer().Debugf("skipping name record: %v", err)
				continue
			}
			if !ok || rec.Value == "" {
				continue
			}
			if !yield(rec.NameID, rec.Value) {
				return
			}
		}
	}
}

// Name returns the string for a name ID. If the font has more than one record
// for the name ID, Windows English is preferred over platform Unicode, which in
// turn is preferred over Macintosh. If the font does not define the name ID, an
// empty string is returned.
func Name(otf *ot.Font, id sfnt.NameID) (string, error) {
	nt, err := checkNameTable(otf)
	if err != nil {
		return "", err
	}
	var best NameRecord
	bestRank := -1
	for i := range nt.count {
		rec, ok, err := nt.record(i)
		if err != nil {
			return "", err
		}
		if !ok || rec.NameID != id || rec.Value == "" {
			continue
		}
		if r := rank(rec); bestRank < 0 || r < bestRank {
			best, bestRank = rec, r
		}
	}
	return best.Value, nil
}

// rank orders records by preference, lower is better.
func rank(rec NameRecord) int {
	english := rec.LanguageTag() != language.Und && isEnglish(rec.LanguageTag())
	switch {
	case rec.Platform == PlatformIDWindows && rec.Language == 0x0409:
		return 0
	case rec.Platform == PlatformIDWindows && english:
		return 1
	case rec.Platform == PlatformIDUnicode:
		return 2
	case rec.Platform == PlatformIDMacintosh && english:
		return 3
	case rec.Platform == PlatformIDWindows:
		return 4
	}
	return 5
}

func isEnglish(tag language.Tag) bool {
	base, _ := tag.Base()
	en, _ := language.English.Base()
	return base == en
}

var nameKeys = map[sfnt.NameID]string{
	sfnt.NameIDCopyright:            "copyright",
	sfnt.NameIDFamily:               "family",
	sfnt.NameIDSubfamily:            "subfamily",
	sfnt.NameIDUniqueIdentifier:     "identifier",
	sfnt.NameIDFull:                 "fullname",
	sfnt.NameIDVersion:              "version",
	sfnt.NameIDPostScript:           "psname",
	sfnt.NameIDTrademark:            "trademark",
	sfnt.NameIDManufacturer:         "manufacturer",
	sfnt.NameIDDesigner:             "designer",
	sfnt.NameIDDescription:          "description",
	sfnt.NameIDLicense:              "license",
	sfnt.NameIDTypographicFamily:    "typographic-family",
	sfnt.NameIDTypographicSubfamily: "typographic-subfamily",
}

// NameInfo returns a map with the most common name strings of a font, keyed by
// "family", "subfamily", "fullname", "version", "psname" etc.
// If lang is not language.Und, records in the best matching language are
// preferred. Otherwise preference follows Name.
//
// NameInfo is forgiving: malformed records are skipped, and a font without a
// usable name table results in an empty map.
func NameInfo(otf *ot.Font, lang language.Tag) map[string]string {
	info := make(map[string]string)
	byID := make(map[sfnt.NameID][]NameRecord)
	if nt, err := checkNameTable(otf); err == nil {
		for i := range nt.count {
			if rec, ok, err := nt.record(i); err == nil && ok && rec.Value != "" {
				byID[rec.NameID] = append(byID[rec.NameID], rec)
			}
		}
	}
	for id, recs := range byID {
		key, ok := nameKeys[id]
		if !ok {
			continue
		}
		info[key] = pickName(recs, lang).Value
	}
	return info
}

func pickName(recs []NameRecord, lang language.Tag) NameRecord {
	best := recs[0]
	for _, rec := range recs[1:] {
		if rank(rec) < rank(best) {
			best = rec
		}
	}
	if lang == language.Und {
		return best
	}
	var tags []language.Tag
	var candidates []NameRecord
	for _, rec := range recs {
		if t := rec.LanguageTag(); t != language.Und {
			tags = append(tags, t)
			candidates = append(candidates, rec)
		}
	}
	if len(tags) == 0 {
		return best
	}
	_, i, conf := language.NewMatcher(tags).Match(lang)
	if conf == language.No {
		return best
	}
	return candidates[i]
}

// decodeName decodes a name string according to its platform and encoding.
// It returns false for encodings which are not supported.
func decodeName(platform PlatformID, encoding EncodingID, b []byte) (string, bool) {
	switch platform {
	case PlatformIDUnicode:
		return decodeNameUTF16(b)
	case PlatformIDWindows:
		switch encoding {
		case EncodingIDWindowsSymbol, EncodingIDWindowsBMP, EncodingIDWindowsFull:
			return decodeNameUTF16(b)
		}
	case PlatformIDMacintosh:
		if encoding == EncodingIDMacRoman {
			return decodeSingleByte(charmap.Macintosh, b)
		}
		// other Macintosh scripts: best effort for Latin text
		return decodeSingleByte(charmap.ISO8859_1, b)
	}
	return "", false
}

func decodeNameUTF16(str []byte) (string, bool) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	s, err := enc.NewDecoder().Bytes(str)
	if err != nil {
		tracer().Debugf("decoding UTF-16 error: %v", err)
		return "", false
	}
	return string(s), true
}

func decodeSingleByte(cm *charmap.Charmap, str []byte) (string, bool) {
	s, err := cm.NewDecoder().Bytes(str)
	if err != nil {
		tracer().Debugf("decoding %s error: %v", cm, err)
		return "", false
	}
	return string(s), true
}
