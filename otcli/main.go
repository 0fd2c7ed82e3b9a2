/*
Command otcli is an interactive shell to inspect a font and to assemble a
subset of it.

	otcli -font myfont.ttf
	ot > info
	ot > add Hello World
	ot > glyphs
	ot > write hello.ttf

Enter help for a list of commands.
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/fontsubset"
	"github.com/npillmayer/fontsubset/ot"
	"github.com/npillmayer/fontsubset/otsubset"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'fontsubset.cli'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset.cli")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":     "go",
		"trace.fontsubset.cli": "Info",
		"trace.font.subset":    "Error",
		"trace.font.woff":      "Error",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to load")
	flag.Parse()
	tracer().SetTraceLevel(tracing.LevelError) // will set the correct level later
	pterm.Info.Println("Welcome to the font subsetting CLI")
	//
	// set up REPL
	repl, err := readline.New("ot > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl}
	//
	// load font to use
	if err := intp.loadFont(*fontname); err != nil { // font name provided by flag
		tracer().Errorf(err.Error())
		os.Exit(4)
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
	switch *tlevel {
	case "Debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "Info":
		tracer().SetTraceLevel(tracing.LevelInfo)
	case "Error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		tracer().Errorf("Invalid trace level: %s", *tlevel)
		os.Exit(5)
	}
	tracer().Infof("Trace level is %s", *tlevel)
	intp.REPL() // go into interactive mode
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	font      *ot.Font
	fontname  string
	repl      *readline.Instance
	selection *otsubset.Selection
}

func (intp *Intp) String() string {
	if intp == nil || intp.font == nil {
		return "()"
	}
	return fmt.Sprintf("( font=%s glyphs=%d )", intp.fontname, intp.selection.Len())
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		stop, err := intp.execute(cmd)
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		if stop {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

// Op is a parsed command line.
type Op struct {
	code int
	arg  string // rest of the command line, verbatim
}

const (
	QUIT int = iota
	HELP
	INFO
	TABLES
	GLYPH
	ADD
	GLYPHS
	CLEAR
	WRITE
	WOFF
)

var opMap = map[string]int{
	"quit":   QUIT,
	"exit":   QUIT,
	"help":   HELP,
	"info":   INFO,
	"tables": TABLES,
	"glyph":  GLYPH,
	"add":    ADD,
	"glyphs": GLYPHS,
	"clear":  CLEAR,
	"write":  WRITE,
	"woff":   WOFF,
}

var errUnknownCommand = errors.New("unknown command, enter 'help' for a list of commands")

// parseCommand splits a command line into the command word and its argument.
// The argument keeps inner spaces, as text for command 'add' may contain them.
func parseCommand(line string) (Op, error) {
	word, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	code, ok := opMap[strings.ToLower(word)]
	if !ok {
		return Op{code: HELP}, errUnknownCommand
	}
	op := Op{code: code, arg: strings.TrimLeft(arg, " ")}
	tracer().Debugf("parsed command: %s %q", word, op.arg)
	return op, nil
}

var commandFn = map[int]func(*Intp, Op) (bool, error){
	QUIT:   quitOp,
	HELP:   helpOp,
	INFO:   infoOp,
	TABLES: tablesOp,
	GLYPH:  glyphOp,
	ADD:    addOp,
	GLYPHS: glyphsOp,
	CLEAR:  clearOp,
	WRITE:  writeOp,
	WOFF:   woffOp,
}

func (intp *Intp) execute(op Op) (stop bool, err error) {
	f, ok := commandFn[op.code]
	if !ok {
		return false, fmt.Errorf("unknown command code: %d", op.code)
	}
	if op.code > HELP && intp.font == nil {
		return false, errNoFont
	}
	return f(intp, op)
}

func quitOp(intp *Intp, op Op) (bool, error) {
	return true, nil
}

// --- Font Loading -----------------------------------------------------

var errNoFont = errors.New("no font loaded")

func (intp *Intp) loadFont(fontname string) error {
	if fontname == "" {
		return errors.New("no font given, use flag -font")
	}
	f, err := fontsubset.LoadOpenTypeFont(fontname)
	if err != nil {
		tracer().Errorf("cannot load font %s: %s", fontname, err)
		return err
	}
	tracer().Infof("loaded SFNT font = %s", f.Fontname)
	otf, err := f.OpenType()
	if err != nil {
		tracer().Errorf("cannot decode font %s: %s", fontname, err)
		return err
	}
	return intp.setFont(otf, f.Fontname)
}

func (intp *Intp) setFont(otf *ot.Font, name string) error {
	sel, err := otsubset.NewSelection(otf)
	if err != nil {
		return err
	}
	intp.font, intp.fontname, intp.selection = otf, name, sel
	pterm.Printf("font tables: %v\n", otf.TableTags())
	return nil
}
