package ot

import (
	"errors"
	"fmt"
)

// ErrorSeverity represents the severity level of a font parsing error.
type ErrorSeverity int

const (
	// SeverityCritical indicates a severe error that makes the font unusable or unreliable.
	SeverityCritical ErrorSeverity = iota
	// SeverityMajor indicates a significant error that may affect functionality but doesn't prevent usage.
	SeverityMajor
	// SeverityMinor indicates a minor issue that can be safely ignored in most cases.
	SeverityMinor
)

// String returns a human-readable representation of the error severity.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityMajor:
		return "MAJOR"
	case SeverityMinor:
		return "MINOR"
	default:
		return "UNKNOWN"
	}
}

// --- Error kinds -----------------------------------------------------------

// ErrorCategory groups error kinds by the way clients usually react to them.
type ErrorCategory int

const (
	// Structural errors: the input is not a valid font container.
	Structural ErrorCategory = iota
	// Semantic errors: the input is well-formed, but a precondition is unmet.
	Semantic
	// Integrity errors: detected corruption or a non-conformant source font.
	Integrity
	// Resource errors: a backend (e.g., compression) failed.
	Resource
)

func (c ErrorCategory) String() string {
	switch c {
	case Structural:
		return "structural"
	case Semantic:
		return "semantic"
	case Integrity:
		return "integrity"
	case Resource:
		return "resource"
	}
	return "unknown"
}

// ErrorKind is a sentinel error value identifying a class of font errors.
// Clients test for a kind with errors.Is, e.g.
//
//	if errors.Is(err, ot.ErrMissingTable) { … }
type ErrorKind struct {
	name     string
	category ErrorCategory
}

func (k *ErrorKind) Error() string {
	return k.name
}

// Category returns the category of this kind of error.
func (k *ErrorKind) Category() ErrorCategory {
	return k.category
}

// Error kinds used throughout this module.
var (
	ErrMalformedHeader   = &ErrorKind{"malformed header", Structural}
	ErrTruncatedTable    = &ErrorKind{"truncated table", Structural}
	ErrOutOfBounds       = &ErrorKind{"out of bounds", Structural}
	ErrMissingTable      = &ErrorKind{"missing table", Semantic}
	ErrEmptySelection    = &ErrorKind{"empty selection", Semantic}
	ErrChecksumMismatch  = &ErrorKind{"checksum mismatch", Integrity}
	ErrCompressionFailed = &ErrorKind{"compression failed", Resource}
)

// Category returns the error category of err, and false if err does not wrap
// one of the error kinds of this package.
func Category(err error) (ErrorCategory, bool) {
	var kind *ErrorKind
	if errors.As(err, &kind) {
		return kind.category, true
	}
	return 0, false
}

// --- Structured errors -----------------------------------------------------

// FontError represents an error encountered during font parsing.
// Errors are accumulated during initial parsing and can be inspected after parsing completes.
// Fatal errors are returned to the caller as well; they wrap their kind, which
// makes them usable with errors.Is.
type FontError struct {
	Kind     *ErrorKind    // Class of the error, e.g. ErrMissingTable (may be nil)
	Table    Tag           // The OpenType table where the error occurred (e.g., "glyf", "cmap")
	Section  string        // Specific section within the table (e.g., "Header", "Subtable")
	Issue    string        // Human-readable description of the issue
	Severity ErrorSeverity // Severity level of the error
	Offset   uint32        // Byte offset in the font file where the error occurred (0 if unknown)
}

// Error implements the error interface.
func (e FontError) Error() string {
	kind := "font error"
	if e.Kind != nil {
		kind = e.Kind.name
	}
	if e.Offset > 0 {
		return fmt.Sprintf("[%s] %s: %s/%s at offset %d: %s", e.Severity, kind, e.Table, e.Section, e.Offset, e.Issue)
	}
	return fmt.Sprintf("[%s] %s: %s/%s: %s", e.Severity, kind, e.Table, e.Section, e.Issue)
}

// Unwrap returns the kind of e.
func (e FontError) Unwrap() error {
	if e.Kind == nil {
		return nil
	}
	return e.Kind
}

// GlyphError reports an error concerning a single glyph.
type GlyphError struct {
	Kind  *ErrorKind
	Glyph GlyphIndex
	Issue string
}

func (e GlyphError) Error() string {
	return fmt.Sprintf("%s: glyph %d: %s", e.Kind.name, e.Glyph, e.Issue)
}

// Unwrap returns the kind of e.
func (e GlyphError) Unwrap() error {
	return e.Kind
}

// FontWarning represents a non-critical issue encountered during font parsing.
// Warnings indicate potential problems but do not prevent font usage.
type FontWarning struct {
	Table  Tag    // The OpenType table where the warning occurred
	Issue  string // Human-readable description of the warning
	Offset uint32 // Byte offset in the font file where the warning occurred (0 if unknown)
}

// String returns a human-readable representation of the warning.
func (w FontWarning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("[WARNING] %s at offset %d: %s", w.Table, w.Offset, w.Issue)
	}
	return fmt.Sprintf("[WARNING] %s: %s", w.Table, w.Issue)
}

// --- Error constructors ----------------------------------------------------

func errMalformedHeader(issue string) error {
	return FontError{Kind: ErrMalformedHeader, Section: "Header", Issue: issue}
}

func errTruncatedTable(tag Tag, off, size uint32, fontSize int) error {
	return FontError{
		Kind:    ErrTruncatedTable,
		Table:   tag,
		Section: "Bounds",
		Issue:   fmt.Sprintf("bounds [%d:%d] exceed font size %d", off, uint64(off)+uint64(size), fontSize),
		Offset:  off,
	}
}

func errOutOfBounds(tag Tag, section, issue string) error {
	return FontError{Kind: ErrOutOfBounds, Table: tag, Section: section, Issue: issue}
}

func errMissingTable(tag Tag) error {
	return FontError{Kind: ErrMissingTable, Table: tag, Section: "Directory", Issue: "font has no table " + tag.String()}
}

// ErrMissingTableFor creates a MissingTable error for a given table tag.
func ErrMissingTableFor(tag Tag) error {
	return errMissingTable(tag)
}

// ErrOutOfBoundsFor creates an OutOfBounds error for a given table and section.
func ErrOutOfBoundsFor(tag Tag, section, issue string) error {
	return errOutOfBounds(tag, section, issue)
}

// ErrChecksumFor creates a ChecksumMismatch error for a table.
func ErrChecksumFor(tag Tag, stored, computed uint32) error {
	return FontError{
		Kind:    ErrChecksumMismatch,
		Table:   tag,
		Section: "Checksum",
		Issue:   fmt.Sprintf("stored checksum 0x%08x, computed 0x%08x", stored, computed),
	}
}

// ErrGlyphOutOfRange creates an OutOfBounds error for a glyph index not present in a font.
func ErrGlyphOutOfRange(gid GlyphIndex, numGlyphs int) error {
	return GlyphError{
		Kind:  ErrOutOfBounds,
		Glyph: gid,
		Issue: fmt.Sprintf("glyph index exceeds glyph count %d", numGlyphs),
	}
}

// --- Error collection ------------------------------------------------------

// errorCollector accumulates errors and warnings during font parsing.
// This is an internal helper used by the parser to collect issues as they are discovered.
type errorCollector struct {
	errors   []FontError
	warnings []FontWarning
}

// addError records a parsing error.
func (ec *errorCollector) addError(table Tag, section string, issue string, severity ErrorSeverity, offset uint32) {
	ec.errors = append(ec.errors, FontError{
		Table:    table,
		Section:  section,
		Issue:    issue,
		Severity: severity,
		Offset:   offset,
	})
}

// fail records a fatal error and returns it.
func (ec *errorCollector) fail(err error) error {
	var ferr FontError
	if errors.As(err, &ferr) {
		ferr.Severity = SeverityCritical
		ec.errors = append(ec.errors, ferr)
	}
	return err
}

// addWarning records a parsing warning.
func (ec *errorCollector) addWarning(table Tag, issue string, offset uint32) {
	ec.warnings = append(ec.warnings, FontWarning{
		Table:  table,
		Issue:  issue,
		Offset: offset,
	})
}

// hasErrors returns true if any errors have been recorded.
func (ec *errorCollector) hasErrors() bool {
	return len(ec.errors) > 0
}

// hasWarnings returns true if any warnings have been recorded.
func (ec *errorCollector) hasWarnings() bool {
	return len(ec.warnings) > 0
}
