// Package fragment converts editor markup into a parse5-style node tree that can be
// sent to the tree editor as JSON, and back into markup.
package fragment

// SchemaVersion is the version of the JSON node schema exchanged with the tree editor
const SchemaVersion = 1

// Node names used for non-element nodes
const (
	TextNodeName     = "#text"
	CommentNodeName  = "#comment"
	FragmentNodeName = "#document-fragment"
)

// Attr is a single attribute, kept in source order
type Attr struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Namespace string `json:"namespace,omitempty"`
}

// Node is one element, text or comment node.
//
// ParentNode is only populated between Parse and Sanitize. While it is set the tree
// is cyclic and cannot be encoded.
type Node struct {
	NodeName     string  `json:"nodeName"`
	TagName      string  `json:"tagName,omitempty"`
	Attrs        []Attr  `json:"attrs,omitempty"`
	NamespaceURI string  `json:"namespaceURI,omitempty"`
	Value        string  `json:"value,omitempty"`
	Data         string  `json:"data,omitempty"`
	ChildNodes   []*Node `json:"childNodes,omitempty"`
	ParentNode   *Node   `json:"parentNode,omitempty"`
}

// Tree is the fragment root. NodeName is "#document-fragment" right after Parse
// and empty once sanitized.
type Tree struct {
	SchemaVersion int     `json:"schemaVersion"`
	NodeName      string  `json:"nodeName,omitempty"`
	ChildNodes    []*Node `json:"childNodes"`
}

// IsElement reports whether n is an element node
func (n *Node) IsElement() bool {
	return n != nil && n.TagName != ""
}

// IsText reports whether n is a text node
func (n *Node) IsText() bool {
	return n != nil && n.NodeName == TextNodeName
}

// Is reports whether n is an element with the given tag
func (n *Node) Is(tag string) bool {
	return n.IsElement() && n.TagName == tag
}

// Attr returns the value of the named attribute
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// FirstText returns the first direct text child of n, or nil
func (n *Node) FirstText() *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.ChildNodes {
		if c.IsText() {
			return c
		}
	}
	return nil
}

// Field lets the tree walker resolve node properties by their JSON names
// without reflection.
func (n *Node) Field(name string) (any, bool) {
	if n == nil {
		return nil, false
	}
	switch name {
	case "nodeName":
		return n.NodeName, true
	case "tagName":
		return n.TagName, true
	case "attrs":
		return n.Attrs, true
	case "namespaceURI":
		return n.NamespaceURI, true
	case "value":
		return n.Value, true
	case "data":
		return n.Data, true
	case "childNodes":
		return n.ChildNodes, true
	case "parentNode":
		if n.ParentNode == nil {
			return nil, false
		}
		return n.ParentNode, true
	}
	return nil, false
}

// Field resolves the fragment root's properties for the tree walker
func (t *Tree) Field(name string) (any, bool) {
	if t == nil {
		return nil, false
	}
	switch name {
	case "schemaVersion":
		return t.SchemaVersion, true
	case "nodeName":
		return t.NodeName, true
	case "childNodes":
		return t.ChildNodes, true
	}
	return nil, false
}
