package fragment

// CapturedScript is the body of one <script> element removed by Sanitize
type CapturedScript struct {
	Node *Node
	Text string
}

// ScriptCapture lists removed script bodies in document order
type ScriptCapture []CapturedScript

// Texts returns the captured bodies in order
func (sc ScriptCapture) Texts() []string {
	texts := make([]string, len(sc))
	for i, s := range sc {
		texts[i] = s.Text
	}
	return texts
}

// Strip removes every parentNode back-reference and the fragment-level node name. Script
// bodies are left in place, so a stripped tree still renders to the markup it was
// parsed from.
func Strip(t *Tree) {
	if t == nil {
		return
	}
	t.NodeName = ""
	for _, n := range t.ChildNodes {
		stripNode(n)
	}
}

func stripNode(n *Node) {
	if n == nil {
		return
	}
	n.ParentNode = nil
	for _, c := range n.ChildNodes {
		stripNode(c)
	}
}

// Sanitize makes t safe to encode. It strips t, then blanks the first text child of each
// <script> element, returning the removed bodies. Sanitizing an already sanitized tree
// leaves it unchanged.
func Sanitize(t *Tree) ScriptCapture {
	if t == nil {
		return nil
	}
	Strip(t)

	var capture ScriptCapture
	for _, n := range t.ChildNodes {
		capture = captureScripts(n, capture)
	}
	return capture
}

func captureScripts(n *Node, capture ScriptCapture) ScriptCapture {
	if n == nil {
		return capture
	}

	if n.Is("script") {
		if text := n.FirstText(); text != nil {
			capture = append(capture, CapturedScript{Node: n, Text: text.Value})
			text.Value = ""
		} else {
			capture = append(capture, CapturedScript{Node: n})
		}
	}

	for _, c := range n.ChildNodes {
		capture = captureScripts(c, capture)
	}
	return capture
}

// Acyclic reports whether t has no parentNode back-references and no node reachable
// twice. It is the check applied before a tree crosses to the tree editor.
func Acyclic(t *Tree) bool {
	if t == nil {
		return true
	}

	seen := make(map[*Node]bool)
	var visit func(n *Node) bool
	visit = func(n *Node) bool {
		if n == nil {
			return true
		}
		if n.ParentNode != nil || seen[n] {
			return false
		}
		seen[n] = true
		for _, c := range n.ChildNodes {
			if !visit(c) {
				return false
			}
		}
		return true
	}

	for _, n := range t.ChildNodes {
		if !visit(n) {
			return false
		}
	}
	return true
}
