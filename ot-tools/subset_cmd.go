package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/npillmayer/fontsubset/ot"
	"github.com/npillmayer/fontsubset/otsubset"
	"github.com/npillmayer/fontsubset/woff"
	"github.com/pterm/pterm"
	"github.com/thatisuday/commando"
)

// subsetJob holds everything needed to create a subset font.
type subsetJob struct {
	fontPath string
	patterns []string // glob patterns of content files
	text     string   // additional text
	scanner  *contentScanner
	wrapWOFF bool
	noNames  bool
}

// subsetResult is the outcome of a subsetJob.
type subsetResult struct {
	font       []byte // subset font, WOFF-wrapped if requested
	files      int    // number of content files scanned
	chars      string // characters collected
	glyphs     int    // number of glyphs in the subset
	fontGlyphs int    // number of glyphs in the source font
	sourceSize int
}

func runSubsetCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	verbose := setVerbose(flags)
	job := subsetJob{
		fontPath: mustArg(args, "font"),
		patterns: splitList(optionalString(flags["content"], "content")),
		text:     optionalString(flags["text"], "text"),
		wrapWOFF: mustFlagBool(flags["woff"], "woff"),
		noNames:  mustFlagBool(flags["no-names"], "no-names"),
	}
	job.scanner = newContentScanner(
		splitList(optionalString(flags["ext"], "ext")),
		mustFlagBool(flags["nfc"], "nfc"),
		mustFlagInt(flags["jobs"], "jobs"),
	)
	if len(job.patterns) == 0 && job.text == "" {
		fatalf("either --content or --text is required")
	}
	output := optionalString(flags["output"], "output")
	if output == "" {
		fatalf("output path is empty")
	}
	pterm.Info.Printf("creating subset of %s\n", job.fontPath)
	res, err := job.run(context.Background())
	if err != nil {
		fatalf("%v", err)
	}
	if verbose {
		preview := []rune(res.chars)
		if len(preview) > 50 {
			preview = append(preview[:50], '…')
		}
		pterm.Printf("characters: %s\n", string(preview))
	}
	if err := writeOutput(output, res.font); err != nil {
		fatalf("%v", err)
	}
	pterm.Success.Printf("wrote %s\n", output)
	printSubsetReport(res)
}

func (job subsetJob) run(ctx context.Context) (*subsetResult, error) {
	data, otf, err := loadFontFile(job.fontPath)
	if err != nil {
		return nil, err
	}
	res := &subsetResult{sourceSize: len(data), fontGlyphs: otf.NumGlyphs()}
	chars := newCharSet()
	chars.addText(job.text)
	if len(job.patterns) > 0 {
		files, err := job.scanner.files(job.patterns)
		if err != nil {
			return nil, err
		}
		if err = job.scanner.scan(ctx, files, chars); err != nil {
			return nil, err
		}
		res.files = len(files)
	}
	res.chars = chars.String()
	tracer().Infof("collected %d unique characters from %d files", chars.Len(), res.files)
	if res.chars == "" {
		return nil, ot.FontError{
			Kind:    ot.ErrEmptySelection,
			Section: "Content",
			Issue:   "no text content found",
		}
	}
	sel, err := otsubset.NewSelection(otf)
	if err != nil {
		return nil, err
	}
	sel.AddCharacters(res.chars)
	var opts []otsubset.RebuildOption
	if job.noNames {
		opts = append(opts, otsubset.WithoutGlyphNames())
	}
	if res.font, err = sel.Generate(opts...); err != nil {
		return nil, err
	}
	res.glyphs = sel.Len()
	if job.wrapWOFF {
		if res.font, err = woff.Encode(res.font); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func printSubsetReport(res *subsetResult) {
	reduction := 100 * (1 - float64(len(res.font))/float64(res.sourceSize))
	data := pterm.TableData{
		{"", "Source", "Subset"},
		{"Size", formatFileSize(res.sourceSize), formatFileSize(len(res.font))},
		{"Glyphs", fmt.Sprintf("%d", res.fontGlyphs), fmt.Sprintf("%d", res.glyphs)},
		{"Characters", "", fmt.Sprintf("%d", len([]rune(res.chars)))},
		{"Content files", "", fmt.Sprintf("%d", res.files)},
		{"Reduction", "", fmt.Sprintf("%.1f%%", reduction)},
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func formatFileSize(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write output file: %w", err)
	}
	return nil
}
