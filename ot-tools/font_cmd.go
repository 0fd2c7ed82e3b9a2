package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/npillmayer/fontsubset/ot"
	"github.com/npillmayer/fontsubset/otquery"
	"github.com/npillmayer/fontsubset/woff"
	"github.com/thatisuday/commando"
	"golang.org/x/text/language"
)

func runFontCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	fontPath := mustArg(args, "font")
	data, otf := mustLoadFont(fontPath)

	fmt.Printf("Path: %s\n", fontPath)
	fmt.Printf("Type: %s\n", otquery.FontType(otf))
	names := otquery.NameInfo(otf, language.English)
	for _, key := range []string{"family", "subfamily", "version"} {
		if value := names[key]; value != "" {
			fmt.Printf("%s: %s\n", strings.ToUpper(key[:1])+key[1:], value)
		}
	}
	fmt.Printf("Glyphs: %d\n", otf.NumGlyphs())
	if m, err := otquery.FontMetrics(otf); err == nil {
		fmt.Printf("Metrics: upem=%d ascent=%d descent=%d linegap=%d\n",
			m.UnitsPerEm, m.Ascent, m.Descent, m.LineGap)
	}
	if mono, err := otquery.IsMonospace(otf); err == nil && mono {
		fmt.Println("Monospace: yes")
	}

	tags := otf.TableTags()
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	fmt.Printf("Tables (%d):", len(tags))
	for _, tag := range tags {
		fmt.Printf(" %s", tag.String())
	}
	fmt.Println()
	if err := otf.VerifyChecksums(); err != nil {
		fmt.Printf("Checksums: %v\n", err)
	} else {
		fmt.Printf("Checksums: ok (%d bytes)\n", len(data))
	}

	errs := otf.Errors()
	warns := otf.Warnings()
	crit := otf.CriticalErrors()
	fmt.Printf("Issues: errors=%d warnings=%d critical=%d\n", len(errs), len(warns), len(crit))

	if len(args["tables"].Value) > 0 {
		printSelectedTables(otf, args["tables"].Value)
	}
	if mustFlagBool(flags["errors"], "errors") {
		for _, e := range errs {
			fmt.Printf("error: %s\n", e.Error())
		}
		for _, w := range warns {
			fmt.Printf("warning: %s\n", w.String())
		}
	}
}

func printSelectedTables(otf *ot.Font, raw string) {
	for _, tagName := range splitList(raw) {
		tag := ot.T(tagName)
		table := otf.Table(tag)
		if table == nil {
			fmt.Printf("table %s: missing\n", tagName)
			continue
		}
		off, size := table.Extent()
		fmt.Printf("table %s: offset=%d size=%d\n", tagName, off, size)
	}
}

// readFont reads a font file. WOFF files are decoded to sfnt.
func readFont(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read font %s: %w", path, err)
	}
	if len(data) >= 4 && binary.BigEndian.Uint32(data) == woff.Signature {
		tracer().Infof("decoding WOFF file %s", path)
		if data, err = woff.Decode(data); err != nil {
			return nil, fmt.Errorf("cannot decode WOFF file %s: %w", path, err)
		}
	}
	return data, nil
}
