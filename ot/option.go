package ot

// ParseOption is a flag to steer the parsing of a font.
type ParseOption int

const (
	// StrictAlignment makes table offsets which are not 4-byte aligned a fatal
	// error. Without it, misaligned offsets produce a warning.
	StrictAlignment ParseOption = iota + 1
	// StrictChecksums makes Parse verify the checksums of all tables, except 'head'
	// whose checksum depends on the whole font.
	StrictChecksums
)

func hasOption(opts []ParseOption, opt ParseOption) bool {
	for _, o := range opts {
		if o == opt {
			return true
		}
	}
	return false
}
