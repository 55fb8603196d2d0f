package format

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/livefir/iteria/internal/fragment"
	"github.com/livefir/iteria/internal/walker"
)

var (
	// ErrUnknownOrdering is returned for an Ordering outside Orderings
	ErrUnknownOrdering = errors.New("unknown block ordering")

	blockPattern     = regexp.MustCompile(`(?s)^(<(?:script|style)\b[^>]*>)(.*)(</(?:script|style)\s*>)$`)
	emptyShorthand   = regexp.MustCompile(`\{([A-Za-z_$][\w$]*)\}=""`)
	shorthandNameRef = regexp.MustCompile(`^\{([A-Za-z_$][\w$]*)\}$`)
)

type blockKind int

const (
	scriptBlock blockKind = iota
	styleBlock
	markupBlock
)

// BlockPrinter prints a component as separate script, style and markup blocks in the
// configured order. Script and style bodies are copied verbatim from SourceText when
// locators are supplied; markup is re-rendered.
type BlockPrinter struct{}

// NewBlockPrinter creates the default printer
func NewBlockPrinter() *BlockPrinter {
	return &BlockPrinter{}
}

func (p *BlockPrinter) Print(ast *fragment.Tree, opts Options) (string, error) {
	ordering := opts.Ordering
	if ordering == "" {
		ordering = ScriptsStylesMarkup
	}
	if !ordering.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownOrdering, ordering)
	}

	groups := map[blockKind][]*fragment.Node{}
	w := walker.New(ast)
	err := w.Each(func(w *walker.Walker, _ int) error {
		n, ok := w.Value().(*fragment.Node)
		if !ok {
			return nil
		}
		switch {
		case n.Is("script"):
			groups[scriptBlock] = append(groups[scriptBlock], n)
		case n.Is("style"):
			groups[styleBlock] = append(groups[styleBlock], n)
		case n.IsText() && strings.TrimSpace(n.Value) == "":
			// whitespace between blocks is regenerated
		default:
			groups[markupBlock] = append(groups[markupBlock], n)
		}
		return nil
	}, "childNodes")
	if err != nil {
		return "", err
	}

	if opts.StrictMode {
		if err := checkStrict(ast, w, groups[scriptBlock]); err != nil {
			return "", err
		}
	}

	var blocks []string
	for _, kind := range order(ordering) {
		nodes := groups[kind]
		if len(nodes) == 0 {
			continue
		}

		var text string
		var err error
		if kind == markupBlock {
			text, err = p.printMarkup(nodes, opts)
		} else {
			text, err = p.printRawBlocks(nodes, opts)
		}
		if err != nil {
			return "", err
		}
		if text != "" {
			blocks = append(blocks, text)
		}
	}

	if len(blocks) == 0 {
		return "", nil
	}
	return strings.Join(blocks, "\n\n") + "\n", nil
}

func order(o Ordering) []blockKind {
	parts := strings.Split(string(o), "-")
	kinds := make([]blockKind, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "scripts":
			kinds = append(kinds, scriptBlock)
		case "styles":
			kinds = append(kinds, styleBlock)
		case "markup":
			kinds = append(kinds, markupBlock)
		}
	}
	return kinds
}

// checkStrict rejects scripts nested inside markup and more than one instance or
// module script at the top level.
func checkStrict(ast *fragment.Tree, w *walker.Walker, topScripts []*fragment.Node) error {
	var instance, module int
	for _, s := range topScripts {
		if ctx, _ := s.Attr("context"); ctx == "module" {
			module++
		} else {
			instance++
		}
	}
	if instance > 1 {
		return fmt.Errorf("strict mode: %d instance scripts, at most one allowed", instance)
	}
	if module > 1 {
		return fmt.Errorf("strict mode: %d module scripts, at most one allowed", module)
	}

	return findNestedScript(w, fragment.NewIndex(ast))
}

func isTag(tag string) walker.Predicate {
	return func(n any, _ string, _ int) bool {
		node, ok := n.(*fragment.Node)
		return ok && node.Is(tag)
	}
}

func isElement(n any, _ string, _ int) bool {
	node, ok := n.(*fragment.Node)
	return ok && node.IsElement()
}

func findNestedScript(w *walker.Walker, idx *fragment.Index) error {
	return w.Each(func(w *walker.Walker, _ int) error {
		if w.Matches(isTag("script"), isElement) {
			script, _ := w.Value().(*fragment.Node)
			return nestedScriptError(idx, script)
		}
		return findNestedScript(w, idx)
	}, "childNodes")
}

// nestedScriptError names the enclosing elements of script, nearest first
func nestedScriptError(idx *fragment.Index, script *fragment.Node) error {
	var path []string
	for p := idx.Parent(script); p != nil; p = idx.Parent(p) {
		path = append(path, "<"+p.TagName+">")
	}
	return fmt.Errorf("strict mode: <script> nested inside %s", strings.Join(path, " in "))
}

func (p *BlockPrinter) printRawBlocks(nodes []*fragment.Node, opts Options) (string, error) {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		text, ok := sourceSlice(n, opts)
		if !ok {
			var err error
			text, err = fragment.RenderNode(n)
			if err != nil {
				return "", fmt.Errorf("failed to render <%s>: %w", n.TagName, err)
			}
		}
		if opts.BracketNewline {
			text = padBody(text)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n"), nil
}

func sourceSlice(n *fragment.Node, opts Options) (string, bool) {
	if opts.SourceText == "" || opts.LocateStart == nil || opts.LocateEnd == nil {
		return "", false
	}
	start, end := opts.LocateStart(n), opts.LocateEnd(n)
	if start < 0 || end < start || end > len(opts.SourceText) {
		return "", false
	}
	return opts.SourceText[start:end], true
}

// padBody puts the body of a script/style block on its own lines
func padBody(block string) string {
	m := blockPattern.FindStringSubmatch(block)
	if m == nil {
		return block
	}
	body := strings.Trim(m[2], "\r\n")
	if strings.TrimSpace(body) == "" {
		return m[1] + m[3]
	}
	return m[1] + "\n" + body + "\n" + m[3]
}

func (p *BlockPrinter) printMarkup(nodes []*fragment.Node, opts Options) (string, error) {
	var sb strings.Builder
	for _, n := range nodes {
		text, err := fragment.RenderNode(shorthandCopy(n, opts.AllowShorthand))
		if err != nil {
			return "", fmt.Errorf("failed to render markup: %w", err)
		}
		sb.WriteString(text)
	}

	out := sb.String()
	if opts.AllowShorthand {
		out = emptyShorthand.ReplaceAllString(out, "{$1}")
	}
	return strings.TrimSpace(out), nil
}

// shorthandCopy returns a copy of n whose attributes use {name} shorthand when allow is
// set, and the expanded name="{name}" form otherwise.
func shorthandCopy(n *fragment.Node, allow bool) *fragment.Node {
	if n == nil {
		return nil
	}

	cp := *n
	cp.ParentNode = nil
	if len(n.Attrs) > 0 {
		cp.Attrs = make([]fragment.Attr, len(n.Attrs))
		for i, a := range n.Attrs {
			switch {
			case allow && a.Value == "{"+a.Name+"}":
				a = fragment.Attr{Name: "{" + a.Name + "}"}
			case !allow && a.Value == "":
				if m := shorthandNameRef.FindStringSubmatch(a.Name); m != nil {
					a = fragment.Attr{Name: m[1], Value: a.Name}
				}
			}
			cp.Attrs[i] = a
		}
	}
	if len(n.ChildNodes) > 0 {
		cp.ChildNodes = make([]*fragment.Node, len(n.ChildNodes))
		for i, c := range n.ChildNodes {
			cp.ChildNodes[i] = shorthandCopy(c, allow)
		}
	}
	return &cp
}
