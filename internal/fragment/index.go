package fragment

// Index is a flat, document-order view of a tree. Parent links are kept as positions
// in the arena rather than pointers, so the tree itself stays acyclic.
type Index struct {
	nodes    []*Node
	parents  []int
	position map[*Node]int
}

// NewIndex builds an index over t in document (pre-order) order
func NewIndex(t *Tree) *Index {
	idx := &Index{position: make(map[*Node]int)}
	if t == nil {
		return idx
	}
	for _, n := range t.ChildNodes {
		idx.add(n, -1)
	}
	return idx
}

func (idx *Index) add(n *Node, parent int) {
	if n == nil {
		return
	}
	pos := len(idx.nodes)
	idx.nodes = append(idx.nodes, n)
	idx.parents = append(idx.parents, parent)
	idx.position[n] = pos
	for _, c := range n.ChildNodes {
		idx.add(c, pos)
	}
}

// Len returns the number of indexed nodes
func (idx *Index) Len() int {
	return len(idx.nodes)
}

// At returns the node at position i, or nil when out of range
func (idx *Index) At(i int) *Node {
	if i < 0 || i >= len(idx.nodes) {
		return nil
	}
	return idx.nodes[i]
}

// Position returns n's position in document order
func (idx *Index) Position(n *Node) (int, bool) {
	pos, ok := idx.position[n]
	return pos, ok
}

// Parent returns n's parent, or nil for top-level and unknown nodes
func (idx *Index) Parent(n *Node) *Node {
	pos, ok := idx.position[n]
	if !ok {
		return nil
	}
	return idx.At(idx.parents[pos])
}

// Ancestors returns n's ancestors from the nearest outwards
func (idx *Index) Ancestors(n *Node) []*Node {
	var result []*Node
	for p := idx.Parent(n); p != nil; p = idx.Parent(p) {
		result = append(result, p)
	}
	return result
}

// Find returns every indexed element with the given tag, in document order
func (idx *Index) Find(tag string) []*Node {
	var result []*Node
	for _, n := range idx.nodes {
		if n.Is(tag) {
			result = append(result, n)
		}
	}
	return result
}
