// Package vault keeps script bodies removed from a fragment tree so they can be put
// back into markup regenerated from tree editor edits.
package vault

import (
	"regexp"
	"strings"

	"github.com/livefir/iteria/internal/fragment"
)

// scriptRegion matches one <script ...>body</script> region, non-greedy
var scriptRegion = regexp.MustCompile(`(?is)(<script\b[^>]*>)(.*?)(</script\s*>)`)

// Vault is an append-only list of captured script bodies
type Vault struct {
	entries []string
}

// New creates an empty vault
func New() *Vault {
	return &Vault{}
}

// Capture appends the text of every captured script, in capture order
func (v *Vault) Capture(sc fragment.ScriptCapture) {
	for _, s := range sc {
		v.entries = append(v.entries, s.Text)
	}
}

// Len returns the number of recorded bodies
func (v *Vault) Len() int {
	return len(v.entries)
}

// Entries returns a copy of the recorded bodies
func (v *Vault) Entries() []string {
	return append([]string(nil), v.entries...)
}

// Reset drops every recorded body
func (v *Vault) Reset() {
	v.entries = nil
}

// Splice replaces the body of the first script region in markup with the first recorded
// entry. Only one region is ever rewritten; later scripts keep whatever body markup has.
//
// TODO: index-matched splicing for documents with several scripts once the tree
// editor can round-trip more than the instance script.
func (v *Vault) Splice(markup string) string {
	if len(v.entries) == 0 {
		return markup
	}

	loc := scriptRegion.FindStringSubmatchIndex(markup)
	if loc == nil {
		return markup
	}

	// loc[4]:loc[5] is the body group
	var sb strings.Builder
	sb.Grow(len(markup) + len(v.entries[0]))
	sb.WriteString(markup[:loc[4]])
	sb.WriteString(v.entries[0])
	sb.WriteString(markup[loc[5]:])
	return sb.String()
}
