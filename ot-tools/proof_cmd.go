package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/thatisuday/commando"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

func runProofCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	fontPath := mustArg(args, "font")
	text := mustArg(args, "text")
	outPath := optionalString(flags["output"], "output")
	if outPath == "" {
		fatalf("output path is empty")
	}
	ppem := mustFlagInt(flags["ppem"], "ppem")
	width := mustFlagInt(flags["width"], "width")
	height := mustFlagInt(flags["height"], "height")
	if ppem <= 0 {
		fatalf("--ppem must be > 0")
	}
	if width <= 0 || height <= 0 {
		fatalf("--width and --height must be > 0")
	}
	data, err := readFont(fontPath)
	if err != nil {
		fatalf("%v", err)
	}
	sf, err := sfnt.Parse(data)
	if err != nil {
		fatalf("cannot parse sfnt font for rasterization: %v", err)
	}
	img, missing, err := renderText(sf, text, width, height, ppem)
	if err != nil {
		fatalf("render failed: %v", err)
	}
	if err := writePNG(outPath, img); err != nil {
		fatalf("%v", err)
	}
	pterm.Success.Printf("wrote %s\n", outPath)
	if len(missing) > 0 {
		pterm.Warning.Printf("characters not in font: %s\n", string(missing))
	}
}

// renderText draws a line of text in black onto a white image, starting at
// the left margin, with the baseline placed by the font's ascent. Characters
// the font does not map are drawn as glyph 0 and returned as missing.
func renderText(sf *sfnt.Font, text string, width, height, ppem int) (*image.RGBA, []rune, error) {
	if text == "" {
		return nil, nil, errors.New("empty text")
	}
	var buf sfnt.Buffer
	metrics, err := sf.Metrics(&buf, fixed.I(ppem), font.HintingNone)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read font metrics: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{255, 255, 255, 255}), image.Point{}, draw.Src)
	rast := vector.NewRasterizer(width, height)
	rast.DrawOp = draw.Over
	var missing []rune
	penX := float32(ppem) / 4
	baseline := float32(height-metrics.Height.Ceil())/2 + float32(metrics.Ascent)/64
	for _, r := range text {
		gid, err := sf.GlyphIndex(&buf, r)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot map %q: %w", r, err)
		}
		if gid == 0 {
			missing = append(missing, r)
		}
		segs, err := sf.LoadGlyph(&buf, gid, fixed.I(ppem), nil)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot load glyph %d: %w", gid, err)
		}
		for _, seg := range segs {
			switch seg.Op {
			case sfnt.SegmentOpMoveTo:
				rast.MoveTo(penX+float32(seg.Args[0].X)/64, baseline+float32(seg.Args[0].Y)/64)
			case sfnt.SegmentOpLineTo:
				rast.LineTo(penX+float32(seg.Args[0].X)/64, baseline+float32(seg.Args[0].Y)/64)
			case sfnt.SegmentOpQuadTo:
				rast.QuadTo(
					penX+float32(seg.Args[0].X)/64, baseline+float32(seg.Args[0].Y)/64,
					penX+float32(seg.Args[1].X)/64, baseline+float32(seg.Args[1].Y)/64,
				)
			case sfnt.SegmentOpCubeTo:
				rast.CubeTo(
					penX+float32(seg.Args[0].X)/64, baseline+float32(seg.Args[0].Y)/64,
					penX+float32(seg.Args[1].X)/64, baseline+float32(seg.Args[1].Y)/64,
					penX+float32(seg.Args[2].X)/64, baseline+float32(seg.Args[2].Y)/64,
				)
			}
		}
		// sfnt.LoadGlyph results become invalid once the buffer is re-used
		advance, err := sf.GlyphAdvance(&buf, gid, fixed.I(ppem), font.HintingNone)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot read advance of glyph %d: %w", gid, err)
		}
		penX += float32(advance) / 64
	}
	rast.Draw(img, img.Bounds(), image.Black, image.Point{})
	return img, missing, nil
}

func writePNG(outPath string, img image.Image) error {
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("cannot encode png: %w", err)
	}
	return nil
}
