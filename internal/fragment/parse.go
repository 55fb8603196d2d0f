package fragment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MaxDepth bounds element nesting accepted by Parse
const MaxDepth = 512

// Parse parses markup as the content of a <body> element and returns the fragment tree.
// Every non-root node has ParentNode set; call Sanitize before encoding.
func Parse(markup string) (*Tree, error) {
	if !utf8.ValidString(markup) {
		return nil, &ParseError{Text: markup, Reason: "input is not valid UTF-8"}
	}

	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, &ParseError{Text: markup, Reason: "parser failed", Err: err}
	}

	tree := &Tree{
		SchemaVersion: SchemaVersion,
		NodeName:      FragmentNodeName,
		ChildNodes:    make([]*Node, 0, len(nodes)),
	}

	for _, n := range nodes {
		child, err := convertNode(n, nil, 1)
		if err != nil {
			return nil, &ParseError{Text: markup, Reason: err.Error()}
		}
		tree.ChildNodes = append(tree.ChildNodes, child)
	}

	return tree, nil
}

// convertNode copies the known fields of an html.Node, linking parent back-references
func convertNode(n *html.Node, parent *Node, depth int) (*Node, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("nesting deeper than %d levels", MaxDepth)
	}

	node := &Node{ParentNode: parent}

	switch n.Type {
	case html.ElementNode:
		node.NodeName = n.Data
		node.TagName = n.Data
		node.NamespaceURI = n.Namespace
		if len(n.Attr) > 0 {
			node.Attrs = make([]Attr, 0, len(n.Attr))
			for _, a := range n.Attr {
				node.Attrs = append(node.Attrs, Attr{Name: a.Key, Value: a.Val, Namespace: a.Namespace})
			}
		}
	case html.TextNode:
		node.NodeName = TextNodeName
		node.Value = n.Data
	case html.CommentNode:
		node.NodeName = CommentNodeName
		node.Data = n.Data
	default:
		return nil, fmt.Errorf("unsupported node type %d", n.Type)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		child, err := convertNode(c, node, depth+1)
		if err != nil {
			return nil, err
		}
		node.ChildNodes = append(node.ChildNodes, child)
	}

	return node, nil
}
