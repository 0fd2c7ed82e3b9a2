package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/fontsubset/internal/testfont"
	"github.com/npillmayer/fontsubset/ot"
	"github.com/npillmayer/fontsubset/woff"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestCharSet(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.tools")
	defer teardown()
	//
	cs := newCharSet()
	assert.Equal(t, 8, cs.addText("Hello World\n\t\x7f"))
	assert.Equal(t, " HWdelor", cs.String())
	assert.Equal(t, 0, cs.addText("World"))
	assert.Equal(t, 1, cs.addText("!"))
	assert.Equal(t, 9, cs.Len())
}

func TestExpandGlob(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.tools")
	defer teardown()
	//
	dir := writeFiles(t, map[string]string{
		"a.md":            "a",
		"sub/b.md":        "b",
		"sub/deep/c.txt":  "c",
		"sub/deep/e.md":   "e",
		"sub/d.go":        "d",
		"other/sub/x.txt": "x",
	})
	rel := func(paths []string) []string {
		var r []string
		for _, p := range paths {
			q, err := filepath.Rel(dir, p)
			require.NoError(t, err)
			r = append(r, filepath.ToSlash(q))
		}
		return r
	}
	for pattern, expected := range map[string][]string{
		"**/*.md":      {"a.md", "sub/b.md", "sub/deep/e.md"},
		"sub/**/*.txt": {"sub/deep/c.txt"},
		"*/deep/*":     {"sub/deep/c.txt", "sub/deep/e.md"},
		"**/sub/*":     {"other/sub/x.txt", "sub/b.md", "sub/d.go"},
		"*.md":         {"a.md"},
		"**/*.{md,go}": {"a.md", "sub/b.md", "sub/d.go", "sub/deep/e.md"},
		"**/**/**/*.x": nil,
	} {
		matches, err := expandGlob(filepath.Join(dir, pattern))
		require.NoError(t, err, pattern)
		assert.Equal(t, expected, rel(matches), pattern)
	}
	_, err := expandGlob(filepath.Join(dir, "**", "[.md"))
	assert.Error(t, err, "expected malformed pattern to be rejected")
}

func TestContentScanner(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.tools")
	defer teardown()
	//
	dir := writeFiles(t, map[string]string{
		"index.html": "<p>Cafe\u0301</p>",
		"notes.md":   "xyz",
		"main.go":    "package main",
		"style.PHP":  "QQ",
	})
	sc := newContentScanner([]string{"php"}, false, 2)
	files, err := sc.files([]string{filepath.Join(dir, "*"), filepath.Join(dir, "*.md")})
	require.NoError(t, err)
	assert.Len(t, files, 3, "expected main.go to be skipped and notes.md to be counted once")
	//
	cs := newCharSet()
	require.NoError(t, sc.scan(context.Background(), files, cs))
	assert.Equal(t, "/<>CQaefpxyz\u0301", cs.String())
	//
	sc = newContentScanner(nil, true, 1)
	files, err = sc.files([]string{filepath.Join(dir, "index.html")})
	require.NoError(t, err)
	cs = newCharSet()
	require.NoError(t, sc.scan(context.Background(), files, cs))
	assert.Equal(t, "/<>Cafp\u00e9", cs.String(), "expected NFC to compose e and acute accent")
	//
	err = sc.scan(context.Background(), []string{filepath.Join(dir, "missing.txt")}, cs)
	assert.Error(t, err)
}

func TestSubsetJob(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.tools")
	defer teardown()
	//
	dir := writeFiles(t, map[string]string{
		"content/page.txt": "World\n",
	})
	fontPath := filepath.Join(dir, "basic.ttf")
	require.NoError(t, os.WriteFile(fontPath, testfont.Basic(), 0o644))
	job := subsetJob{
		fontPath: fontPath,
		patterns: []string{filepath.Join(dir, "content", "**", "*")},
		text:     "Hello",
		scanner:  newContentScanner(nil, false, 4),
	}
	res, err := job.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.files)
	assert.Equal(t, "HWdelor", res.chars)
	assert.Equal(t, 8, res.glyphs, "expected .notdef plus 7 characters")
	assert.Equal(t, testfont.BasicNumGlyphs, res.fontGlyphs)
	otf, err := ot.Parse(res.font)
	require.NoError(t, err)
	assert.Equal(t, 8, otf.NumGlyphs())
	//
	job.wrapWOFF = true
	res, err = job.run(context.Background())
	require.NoError(t, err)
	_, _, err = woff.ParseHeader(res.font)
	assert.NoError(t, err)
	//
	job.patterns, job.text = nil, "\n\t"
	_, err = job.run(context.Background())
	assert.True(t, errors.Is(err, ot.ErrEmptySelection), "expected empty selection, got %v", err)
}

func TestReadFontWOFF(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.tools")
	defer teardown()
	//
	w, err := woff.Encode(testfont.Basic())
	require.NoError(t, err)
	dir := writeFiles(t, map[string]string{"basic.woff": string(w)})
	_, otf, err := loadFontFile(filepath.Join(dir, "basic.woff"))
	require.NoError(t, err)
	assert.Equal(t, testfont.BasicNumGlyphs, otf.NumGlyphs())
	_, _, err = loadFontFile(filepath.Join(dir, "missing.ttf"))
	assert.Error(t, err)
}

func TestRenderText(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.tools")
	defer teardown()
	//
	sf, err := sfnt.Parse(goregular.TTF)
	require.NoError(t, err)
	img, missing, err := renderText(sf, "Hi 一", 240, 80, 40)
	require.NoError(t, err)
	assert.Equal(t, []rune{'一'}, missing)
	dark := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y).R < 128 {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 50, "expected text to be drawn")
	//
	out := filepath.Join(t.TempDir(), "proof", "hi.png")
	require.NoError(t, writePNG(out, img))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	//
	_, _, err = renderText(sf, "", 240, 80, 40)
	assert.Error(t, err)
}
