package fragment

import (
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

var (
	minifier     *minify.M
	minifierOnce sync.Once
)

// getMinifier returns a configured HTML minifier (singleton)
func getMinifier() *minify.M {
	minifierOnce.Do(func() {
		minifier = minify.New()
		minifier.Add("text/html", &html.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
			KeepComments:     true,
		})
	})
	return minifier
}

// Normalize collapses insignificant whitespace so two renderings of the same tree
// compare equal. Script and style bodies are left untouched.
func Normalize(markup string) string {
	if strings.Contains(markup, "<") {
		minified, err := getMinifier().String("text/html", markup)
		if err != nil {
			// If minification fails, fall back to plain whitespace folding
			return normalizeWhitespace(markup)
		}
		return minified
	}
	return normalizeWhitespace(markup)
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
