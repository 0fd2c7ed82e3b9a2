package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/fontsubset"
	"github.com/npillmayer/fontsubset/otquery"
	"github.com/npillmayer/fontsubset/woff"
	"github.com/pterm/pterm"
	"golang.org/x/text/language"
)

func infoOp(intp *Intp, op Op) (bool, error) {
	otf := intp.font
	family, subfamily := fontsubset.FamilyName(otf)
	data := pterm.TableData{
		{"Property", "Value"},
		{"Family", family},
		{"Subfamily", subfamily},
		{"Type", otquery.FontType(otf)},
		{"Glyphs", strconv.Itoa(otf.NumGlyphs())},
	}
	if version := otquery.NameInfo(otf, language.English)["version"]; version != "" {
		data = append(data, []string{"Version", version})
	}
	if m, err := otquery.FontMetrics(otf); err == nil {
		data = append(data,
			[]string{"Units per em", fmt.Sprintf("%d", m.UnitsPerEm)},
			[]string{"Ascent / Descent", fmt.Sprintf("%d / %d", m.Ascent, m.Descent)},
			[]string{"Line gap", fmt.Sprintf("%d", m.LineGap)},
			[]string{"Max advance", fmt.Sprintf("%d", m.MaxAdvance)},
		)
	}
	if mono, err := otquery.IsMonospace(otf); err == nil {
		data = append(data, []string{"Monospace", strconv.FormatBool(mono)})
	}
	if head, err := otquery.HeadInfo(otf); err == nil {
		data = append(data,
			[]string{"Bold / Italic", fmt.Sprintf("%v / %v", head.Bold(), head.Italic())},
			[]string{"Modified", head.ModifiedTime().Format("2006-01-02 15:04:05")},
		)
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return false, nil
}

func tablesOp(intp *Intp, op Op) (bool, error) {
	data := pterm.TableData{
		{"Tag", "Offset", "Length", "Checksum"},
	}
	recs := intp.font.Directory()
	sort.Slice(recs, func(i, j int) bool { return recs[i].Tag < recs[j].Tag })
	for _, rec := range recs {
		data = append(data, []string{
			rec.Tag.String(),
			strconv.FormatUint(uint64(rec.Offset), 10),
			strconv.FormatUint(uint64(rec.Length), 10),
			fmt.Sprintf("%08x", rec.Checksum),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return false, nil
}

// glyphOp prints information about the glyph for a character. The argument
// is either a single character or a code-point in notation U+XXXX.
func glyphOp(intp *Intp, op Op) (bool, error) {
	r, err := parseCharacter(op.arg)
	if err != nil {
		return false, err
	}
	g, err := otquery.GlyphInfo(intp.font, r)
	if err != nil {
		return false, err
	}
	if g.Glyph == 0 {
		pterm.Printf("U+%04X is not mapped by the font\n", r)
		return false, nil
	}
	pterm.Printf("U+%04X %q → glyph %d %s\n", r, r, g.Glyph, g.Name)
	pterm.Printf("  advance=%d lsb=%d outline=%v selected=%v\n",
		g.Advance, g.LSB, g.HasOutline, intp.selection.HasGlyph(g.Glyph))
	return false, nil
}

func addOp(intp *Intp, op Op) (bool, error) {
	if op.arg == "" {
		return false, errors.New("usage: add <text>")
	}
	n := intp.selection.AddCharacters(op.arg)
	pterm.Printf("added %d glyphs, selection has %d glyphs\n", n, intp.selection.Len())
	return false, nil
}

func glyphsOp(intp *Intp, op Op) (bool, error) {
	cps := intp.selection.Codepoints()
	pterm.Printf("%d glyphs selected: %v\n", intp.selection.Len(), intp.selection.Glyphs())
	if len(cps) > 0 {
		pterm.Printf("characters: %s\n", string(cps))
	}
	return false, nil
}

func clearOp(intp *Intp, op Op) (bool, error) {
	intp.selection.Clear()
	pterm.Println("selection cleared")
	return false, nil
}

func writeOp(intp *Intp, op Op) (bool, error) {
	if op.arg == "" {
		return false, errors.New("usage: write <file>")
	}
	font, err := intp.selection.Generate()
	if err != nil {
		return false, err
	}
	return false, writeFile(op.arg, font)
}

func woffOp(intp *Intp, op Op) (bool, error) {
	if op.arg == "" {
		return false, errors.New("usage: woff <file>")
	}
	font, err := intp.selection.Generate()
	if err != nil {
		return false, err
	}
	if font, err = woff.Encode(font); err != nil {
		return false, err
	}
	return false, writeFile(op.arg, font)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	pterm.Printf("wrote %s (%d bytes)\n", path, len(data))
	tracer().Infof("wrote %d bytes to %s", len(data), path)
	return nil
}

func parseCharacter(arg string) (rune, error) {
	if arg == "" {
		return 0, errors.New("usage: glyph <character>")
	}
	if up := strings.ToUpper(arg); strings.HasPrefix(up, "U+") && len(arg) > 2 {
		n, err := strconv.ParseUint(arg[2:], 16, 32)
		if err != nil || n > utf8.MaxRune {
			return 0, fmt.Errorf("invalid code-point: %s", arg)
		}
		return rune(n), nil
	}
	r, size := utf8.DecodeRuneInString(arg)
	if r == utf8.RuneError || size != len(arg) {
		return 0, fmt.Errorf("expected a single character: %s", arg)
	}
	return r, nil
}
