package fragment

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Reconstruct renders a plain tree back into markup. Script bodies blanked by Sanitize
// stay blank; splicing them back is the vault's job.
func Reconstruct(t *Tree) (string, error) {
	if t == nil {
		return "", nil
	}

	var sb strings.Builder
	for i, n := range t.ChildNodes {
		if n == nil {
			continue
		}
		hn, err := toHTML(n, 1)
		if err != nil {
			return "", fmt.Errorf("failed to rebuild node %d: %w", i, err)
		}
		if err := html.Render(&sb, hn); err != nil {
			return "", fmt.Errorf("failed to render node %d: %w", i, err)
		}
	}
	return sb.String(), nil
}

// RenderNode renders a single node and its descendants
func RenderNode(n *Node) (string, error) {
	hn, err := toHTML(n, 1)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := html.Render(&sb, hn); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func toHTML(n *Node, depth int) (*html.Node, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("nesting deeper than %d levels", MaxDepth)
	}

	var hn *html.Node
	switch {
	case n.NodeName == TextNodeName:
		hn = &html.Node{Type: html.TextNode, Data: n.Value}
	case n.NodeName == CommentNodeName:
		hn = &html.Node{Type: html.CommentNode, Data: n.Data}
	case n.TagName != "" || (n.NodeName != "" && !strings.HasPrefix(n.NodeName, "#")):
		tag := n.TagName
		if tag == "" {
			tag = n.NodeName
		}
		hn = &html.Node{
			Type:      html.ElementNode,
			Data:      tag,
			DataAtom:  atom.Lookup([]byte(tag)),
			Namespace: n.NamespaceURI,
		}
		for _, a := range n.Attrs {
			hn.Attr = append(hn.Attr, html.Attribute{Namespace: a.Namespace, Key: a.Name, Val: a.Value})
		}
	default:
		return nil, fmt.Errorf("unknown node name %q", n.NodeName)
	}

	for _, c := range n.ChildNodes {
		if c == nil {
			continue
		}
		child, err := toHTML(c, depth+1)
		if err != nil {
			return nil, err
		}
		hn.AppendChild(child)
	}
	return hn, nil
}
