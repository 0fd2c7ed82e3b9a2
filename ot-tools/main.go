// Command ot-tools subsets fonts, converts them to WOFF and prints font diagnostics.
//
//	ot-tools subset font.ttf -c "site/**/*" -o font-subset.ttf
//	ot-tools subset font.ttf -t "Hello World" -o hello.woff --woff
//	ot-tools woff font.ttf -o font.woff
//	ot-tools font font.ttf head,cmap --errors
//	ot-tools proof font-subset.ttf "Hello World" -o proof.png
//
// Use ot-tools <command> --help for the flags of a command.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/npillmayer/fontsubset/ot"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/thatisuday/commando"
)

// tracer traces with key 'fontsubset.tools'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset.tools")
}

// Trace keys of the packages used by the commands.
var traceKeys = []string{"fontsubset.tools", "fontsubset", "font.opentype", "font.subset", "font.woff"}

func main() {
	initTracing()

	commando.
		SetExecutableName("ot-tools").
		SetVersion("v0.1.0").
		SetDescription("CLI for font subsetting, WOFF conversion and font diagnostics.")

	commando.
		Register(nil).
		AddFlag("verbose,V", "display additional output", commando.Bool, nil)

	commando.
		Register("subset").
		SetDescription("Create a font subset containing the characters found in content files and/or text.").
		SetShortDescription("subset a font").
		AddArgument("font", "TrueType font file path", "").
		AddFlag("content,c", "glob patterns of content files, comma separated (e.g. src/**/*,pages/*.md)", commando.String, "-").
		AddFlag("text,t", "additional text to include", commando.String, "-").
		AddFlag("output,o", "output font file", commando.String, "subset.ttf").
		AddFlag("ext", "additional file extensions to scan, comma separated (e.g. .php,.py)", commando.String, "-").
		AddFlag("woff,w", "wrap the subset into a WOFF file", commando.Bool, nil).
		AddFlag("nfc", "normalize content to Unicode NFC before collecting characters", commando.Bool, nil).
		AddFlag("no-names", "drop glyph names from the subset", commando.Bool, nil).
		AddFlag("jobs,j", "number of content files scanned concurrently", commando.Int, 8).
		AddFlag("verbose,V", "display additional output", commando.Bool, nil).
		SetAction(runSubsetCommand)

	commando.
		Register("woff").
		SetDescription("Convert a TrueType or OpenType font to WOFF 1.0.").
		SetShortDescription("convert to WOFF").
		AddArgument("font", "OpenType font file path", "").
		AddFlag("output,o", "output WOFF file", commando.String, "-").
		AddFlag("metadata,m", "XML file to embed as WOFF metadata", commando.String, "-").
		AddFlag("verbose,V", "display additional output", commando.Bool, nil).
		SetAction(runWoffCommand)

	commando.
		Register("font").
		SetDescription("Print diagnostics and table information for an OpenType or WOFF font.").
		SetShortDescription("font diagnostics").
		AddArgument("font", "font file path", "").
		AddArgument("tables...", "optional list of table tags (e.g. head,cmap,glyf)", "").
		AddFlag("errors,e", "print parse errors and warnings", commando.Bool, nil).
		SetAction(runFontCommand)

	commando.
		Register("proof").
		SetDescription("Render text with a font to a PNG image, e.g. to proof a subset.").
		SetShortDescription("render text to image").
		AddArgument("font", "TrueType or OpenType font file path", "").
		AddArgument("text...", "text to render", "").
		AddFlag("output,o", "output PNG file", commando.String, "ot-tools-proof.png").
		AddFlag("ppem,p", "render scale in pixels-per-em", commando.Int, 48).
		AddFlag("width,W", "image width in pixels", commando.Int, 640).
		AddFlag("height,H", "image height in pixels", commando.Int, 120).
		SetAction(runProofCommand)

	commando.Parse(nil)
}

func initTracing() {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
	}
	for _, key := range traceKeys {
		conf["trace."+key] = "Error"
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Fprintln(os.Stderr, "error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())
}

// setVerbose switches tracing of all packages to level Info.
func setVerbose(flags map[string]commando.FlagValue) bool {
	v, ok := flags["verbose"]
	if !ok || !mustFlagBool(v, "verbose") {
		return false
	}
	for _, key := range traceKeys {
		tracing.Select(key).SetTraceLevel(tracing.LevelInfo)
	}
	return true
}

// --- Helpers ---------------------------------------------------------------

// loadFontFile reads a font file, unwrapping WOFF files to sfnt.
func loadFontFile(path string) ([]byte, *ot.Font, error) {
	data, err := readFont(path)
	if err != nil {
		return nil, nil, err
	}
	otf, err := ot.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot parse font %s: %w", path, err)
	}
	return data, otf, nil
}

func mustLoadFont(path string) ([]byte, *ot.Font) {
	data, otf, err := loadFontFile(path)
	if err != nil {
		fatalf("%v", err)
	}
	return data, otf
}

func mustArg(args map[string]commando.ArgValue, name string) string {
	value := strings.TrimSpace(args[name].Value)
	if value == "" {
		fatalf("%s is required", name)
	}
	return value
}

// optionalString returns the value of a string flag, with "-" denoting an
// unset flag.
func optionalString(flag commando.FlagValue, name string) string {
	s, err := flag.GetString()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	if s = strings.TrimSpace(s); s == "-" {
		return ""
	}
	return s
}

func mustFlagInt(flag commando.FlagValue, name string) int {
	n, err := flag.GetInt()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return n
}

func mustFlagBool(flag commando.FlagValue, name string) bool {
	b, err := flag.GetBool()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return b
}

func splitList(spec string) []string {
	return strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func fatalf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, "ot-tools: "+format+"\n", args...)
	os.Exit(1)
}
