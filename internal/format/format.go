// Package format is the boundary to the component pretty-printer. Callers hand it a
// fragment tree plus Options and get printed text back.
package format

import (
	"fmt"

	"github.com/livefir/iteria/internal/fragment"
)

// Ordering selects the order of top-level script, style and markup blocks
type Ordering string

const (
	ScriptsStylesMarkup Ordering = "scripts-styles-markup"
	ScriptsMarkupStyles Ordering = "scripts-markup-styles"
	MarkupScriptsStyles Ordering = "markup-scripts-styles"
	MarkupStylesScripts Ordering = "markup-styles-scripts"
	StylesScriptsMarkup Ordering = "styles-scripts-markup"
	StylesMarkupScripts Ordering = "styles-markup-scripts"
)

// Orderings lists every supported ordering
var Orderings = []Ordering{
	ScriptsStylesMarkup,
	ScriptsMarkupStyles,
	MarkupScriptsStyles,
	MarkupStylesScripts,
	StylesScriptsMarkup,
	StylesMarkupScripts,
}

// Valid reports whether o is one of Orderings
func (o Ordering) Valid() bool {
	for _, known := range Orderings {
		if o == known {
			return true
		}
	}
	return false
}

// Locate maps a node to a byte offset in Options.SourceText
type Locate func(n *fragment.Node) int

// Options configures a Printer
type Options struct {
	Ordering       Ordering
	StrictMode     bool
	BracketNewline bool
	AllowShorthand bool
	SourceText     string
	LocateStart    Locate
	LocateEnd      Locate
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{Ordering: ScriptsStylesMarkup}
}

// Printer prints a fragment tree
type Printer interface {
	Print(ast *fragment.Tree, opts Options) (string, error)
}

// PrinterFunc adapts a function to Printer
type PrinterFunc func(ast *fragment.Tree, opts Options) (string, error)

func (f PrinterFunc) Print(ast *fragment.Tree, opts Options) (string, error) {
	return f(ast, opts)
}

// FormatError wraps any failure reported by a Printer
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format failed: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Print runs p and wraps its failure as *FormatError. No recovery is attempted.
func Print(p Printer, ast *fragment.Tree, opts Options) (string, error) {
	if p == nil {
		return "", &FormatError{Err: fmt.Errorf("no printer configured")}
	}
	if ast == nil {
		return "", &FormatError{Err: fmt.Errorf("nil tree")}
	}

	out, err := p.Print(ast, opts)
	if err != nil {
		return "", &FormatError{Err: err}
	}
	return out, nil
}
