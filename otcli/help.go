package main

import (
	"strings"

	"github.com/pterm/pterm"
)

func helpOp(intp *Intp, op Op) (bool, error) {
	help(op.arg)
	return false, nil
}

func help(topic string) {
	tracer().Infof("help %v", topic)
	switch strings.ToLower(topic) {
	case "add", "glyphs", "clear", "selection":
		pterm.Info.Println("Selection")
		pterm.Println(`
	The selection holds the glyphs of the subset font to create.
	It always contains glyph 0 (.notdef). Composite glyphs pull in
	their components.

	add <text>    add the glyphs for the characters of text
	glyphs        list the selected glyphs and the characters mapped to them
	clear         reset the selection to glyph 0
	`)
	case "write", "woff", "output":
		pterm.Info.Println("Output")
		pterm.Println(`
	write <file>  create a TrueType font from the selection
	woff <file>   create a WOFF font from the selection

	Both fail if nothing besides glyph 0 is selected.
	`)
	default:
		pterm.Info.Println("Commands")
		pterm.Println(`
	info          font names and metrics
	tables        table directory of the font
	glyph <c>     glyph for a character, given as 'c' or 'U+0063'
	add <text>    add characters to the selection
	glyphs        list the selection
	clear         clear the selection
	write <file>  write the subset font
	woff <file>   write the subset font as WOFF
	help [topic]  help on 'selection' or 'output'
	quit          leave the CLI
	`)
	}
}
