package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
)

// Extensions of content files scanned by default.
var defaultExtensions = []string{".txt", ".html", ".css", ".js", ".ts", ".jsx", ".tsx", ".vue", ".svelte", ".md"}

// charSet is a set of code points, safe for concurrent use.
type charSet struct {
	mu    sync.Mutex
	runes map[rune]struct{}
}

func newCharSet() *charSet {
	return &charSet{runes: make(map[rune]struct{})}
}

// addText adds the characters of text, dropping control characters below
// U+0020 and DEL. It returns the number of characters new to the set.
func (cs *charSet) addText(text string) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	n := 0
	for _, r := range text {
		if r < 0x20 || r == 0x7f {
			continue
		}
		if _, ok := cs.runes[r]; !ok {
			cs.runes[r] = struct{}{}
			n++
		}
	}
	return n
}

func (cs *charSet) Len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.runes)
}

// String returns the characters of the set in ascending order.
func (cs *charSet) String() string {
	cs.mu.Lock()
	runes := make([]rune, 0, len(cs.runes))
	for r := range cs.runes {
		runes = append(runes, r)
	}
	cs.mu.Unlock()
	slices.Sort(runes)
	return string(runes)
}

// contentScanner collects the characters used in a set of content files.
type contentScanner struct {
	extensions map[string]bool
	nfc        bool // normalize content to NFC
	jobs       int  // maximum number of files read concurrently
}

func newContentScanner(extra []string, nfc bool, jobs int) *contentScanner {
	sc := &contentScanner{
		extensions: make(map[string]bool),
		nfc:        nfc,
		jobs:       max(jobs, 1),
	}
	for _, ext := range slices.Concat(defaultExtensions, extra) {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		sc.extensions[ext] = true
	}
	return sc
}

// files expands glob patterns to the list of content files, without
// duplicates. Files with extensions not to be scanned are skipped.
func (sc *contentScanner) files(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := expandGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid content pattern %q: %w", pattern, err)
		}
		tracer().Infof("found %d files for pattern %s", len(matches), pattern)
		for _, path := range matches {
			if !sc.extensions[strings.ToLower(filepath.Ext(path))] {
				tracer().Debugf("skipping file (unsupported extension): %s", path)
				continue
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return nil, err
			}
			if seen[abs] {
				continue
			}
			if info, err := os.Stat(abs); err != nil || !info.Mode().IsRegular() {
				continue
			}
			seen[abs] = true
			files = append(files, abs)
		}
	}
	return files, nil
}

// scan reads files concurrently and collects their characters into cs.
func (sc *contentScanner) scan(ctx context.Context, files []string, cs *charSet) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sc.jobs)
	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("cannot read content file: %w", err)
			}
			if sc.nfc {
				content = norm.NFC.Bytes(content)
			}
			n := cs.addText(string(content))
			tracer().Debugf("read %s (%d bytes, %d new characters)", path, len(content), n)
			return nil
		})
	}
	return g.Wait()
}

// expandGlob returns the regular files matching a glob pattern, in lexical
// order. Besides the syntax of filepath.Match, "**" matches any number of
// directories and {a,b} matches alternatives.
func expandGlob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	slices.Sort(matches)
	return matches, nil
}
