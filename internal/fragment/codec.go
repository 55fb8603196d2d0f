package fragment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Encode serializes a sanitized tree. A tree that still carries back-references
// is rejected instead of being handed to encoding/json.
func Encode(t *Tree) ([]byte, error) {
	if t == nil {
		return nil, errors.New("cannot encode nil tree")
	}
	if !Acyclic(t) {
		return nil, errors.New("tree still has parent back-references; sanitize it first")
	}

	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tree: %w", err)
	}
	return data, nil
}

// Decode parses a tree editor message. Unknown fields and foreign schema versions are
// rejected; inbound parentNode values are dropped.
func Decode(data []byte) (*Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var t Tree
	if err := dec.Decode(&t); err != nil {
		return nil, &DecodeError{Reason: "malformed JSON", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &DecodeError{Reason: "trailing data after tree"}
	}

	if t.SchemaVersion != SchemaVersion {
		return nil, &DecodeError{Reason: fmt.Sprintf("schema version %d, want %d", t.SchemaVersion, SchemaVersion)}
	}

	for i, n := range t.ChildNodes {
		if err := checkNode(n, 1); err != nil {
			return nil, &DecodeError{Reason: fmt.Sprintf("childNodes[%d]", i), Err: err}
		}
	}

	for _, n := range t.ChildNodes {
		dropParents(n)
	}
	return &t, nil
}

func dropParents(n *Node) {
	n.ParentNode = nil
	for _, c := range n.ChildNodes {
		dropParents(c)
	}
}

func checkNode(n *Node, depth int) error {
	if n == nil {
		return errors.New("null node")
	}
	if depth > MaxDepth {
		return fmt.Errorf("nesting deeper than %d levels", MaxDepth)
	}
	if n.NodeName == "" {
		return errors.New("missing nodeName")
	}
	for i, c := range n.ChildNodes {
		if err := checkNode(c, depth+1); err != nil {
			return fmt.Errorf("%s.childNodes[%d]: %w", n.NodeName, i, err)
		}
	}
	return nil
}
