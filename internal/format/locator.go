package format

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/livefir/iteria/internal/fragment"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

type span struct {
	start, end int
}

// Locator maps top-level script and style nodes of a tree to their byte ranges in the
// source text they were parsed from.
type Locator struct {
	spans map[*fragment.Node]span
}

// NewLocator tokenizes source and pairs the top-level script/style regions it finds, in
// order, with the top-level script/style nodes of tree. If the counts disagree nothing
// is located and printers fall back to rendering.
func NewLocator(source string, tree *fragment.Tree) *Locator {
	loc := &Locator{spans: make(map[*fragment.Node]span)}
	if tree == nil {
		return loc
	}

	var nodes []*fragment.Node
	for _, n := range tree.ChildNodes {
		if n.Is("script") || n.Is("style") {
			nodes = append(nodes, n)
		}
	}

	regions := rawRegions(source)
	if len(regions) != len(nodes) {
		return loc
	}
	for i, n := range nodes {
		loc.spans[n] = regions[i]
	}
	return loc
}

// Start returns the offset of n's start tag, or -1
func (l *Locator) Start(n *fragment.Node) int {
	if s, ok := l.spans[n]; ok {
		return s.start
	}
	return -1
}

// End returns the offset just past n's end tag, or -1
func (l *Locator) End(n *fragment.Node) int {
	if s, ok := l.spans[n]; ok {
		return s.end
	}
	return -1
}

// Apply sets the source text and locators on opts
func (l *Locator) Apply(source string, opts Options) Options {
	opts.SourceText = source
	opts.LocateStart = l.Start
	opts.LocateEnd = l.End
	return opts
}

// rawRegions returns the ranges of top-level <script> and <style> elements
func rawRegions(source string) []span {
	z := html.NewTokenizer(strings.NewReader(source))

	var regions []span
	offset, depth := 0, 0
	open := -1
	openTag := ""

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				return nil
			}
			break
		}

		start := offset
		offset += len(z.Raw())
		name, _ := z.TagName()
		tag := string(name)

		switch tt {
		case html.StartTagToken:
			if depth == 0 && (tag == "script" || tag == "style") {
				open, openTag = start, tag
			}
			if !voidElements[tag] {
				depth++
			}
		case html.EndTagToken:
			if depth > 0 {
				depth--
			}
			if depth == 0 && open >= 0 && tag == openTag {
				regions = append(regions, span{start: open, end: offset})
				open, openTag = -1, ""
			}
		}
	}
	return regions
}
