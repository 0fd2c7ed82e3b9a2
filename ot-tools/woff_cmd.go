package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/fontsubset/woff"
	"github.com/pterm/pterm"
	"github.com/thatisuday/commando"
)

func runWoffCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	setVerbose(flags)
	fontPath := mustArg(args, "font")
	output := optionalString(flags["output"], "output")
	if output == "" {
		output = strings.TrimSuffix(fontPath, filepath.Ext(fontPath)) + ".woff"
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		fatalf("cannot read font: %v", err)
	}
	var opts []woff.Option
	if meta := optionalString(flags["metadata"], "metadata"); meta != "" {
		xml, err := os.ReadFile(meta)
		if err != nil {
			fatalf("cannot read metadata: %v", err)
		}
		opts = append(opts, woff.WithMetadata(xml))
	}
	out, err := woff.Encode(data, opts...)
	if err != nil {
		fatalf("cannot convert %s: %v", fontPath, err)
	}
	if err := writeOutput(output, out); err != nil {
		fatalf("%v", err)
	}
	pterm.Success.Printf("wrote %s (%s → %s)\n", output, formatFileSize(len(data)), formatFileSize(len(out)))
}
