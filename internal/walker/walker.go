// Package walker provides a depth-tracked traversal stack over arbitrary
// nested values: maps, structs, slices and anything implementing Fielder.
//
// The stack alternates names and values: [root, name1, value1, name2, value2, ...].
// Names are strings for fields/keys and ints for slice elements.
package walker

import (
	"errors"
	"reflect"
	"strings"
)

// ErrNoAncestor is returned by CallParent when the requested ancestor does not exist
var ErrNoAncestor = errors.New("walker: no such ancestor")

// Fielder lets a value resolve its own named children instead of going through reflection
type Fielder interface {
	Field(name string) (any, bool)
}

// Predicate is applied by Matches to one ancestor generation. name is the property of
// node that leads towards the previously tested generation ("" at the first generation),
// index is the element index when that property is a slice, otherwise -1.
type Predicate func(node any, name string, index int) bool

// Walker is a traversal stack rooted at a single value
type Walker struct {
	stack []any
}

// New creates a walker whose stack holds only root
func New(root any) *Walker {
	return &Walker{stack: []any{root}}
}

// Value returns the value at the top of the stack
func (w *Walker) Value() any {
	return w.stack[len(w.stack)-1]
}

// Name returns the name under which the current value was reached, or nil at the root
func (w *Walker) Name() any {
	if len(w.stack) < 2 {
		return nil
	}
	return w.stack[len(w.stack)-2]
}

// Depth returns the number of names pushed since the root
func (w *Walker) Depth() int {
	return (len(w.stack) - 1) / 2
}

// Call pushes each name in turn, resolving it against the current value, runs body,
// then truncates the stack back to where it was.
func (w *Walker) Call(body func(*Walker) error, names ...any) error {
	n := len(w.stack)
	defer w.truncate(n)

	for _, name := range names {
		w.stack = append(w.stack, name, lookup(w.Value(), name))
	}
	return body(w)
}

// CallParent temporarily pops the stack up to the skip-th strict ancestor of the current
// value, runs body, then restores the popped suffix.
func (w *Walker) CallParent(body func(*Walker) error, skip int) error {
	idx := w.nodeIndex(skip + 1)
	if idx < 0 {
		return ErrNoAncestor
	}

	suffix := append([]any(nil), w.stack[idx+1:]...)
	w.stack = w.stack[:idx+1]
	defer func() {
		w.stack = append(w.stack, suffix...)
	}()

	return body(w)
}

// Each resolves names to a slice and runs body once per non-nil element with
// (index, element) pushed on the stack.
func (w *Walker) Each(body func(w *Walker, index int) error, names ...any) error {
	n := len(w.stack)
	defer w.truncate(n)

	for _, name := range names {
		w.stack = append(w.stack, name, lookup(w.Value(), name))
	}

	list := sliceValue(w.Value())
	if !list.IsValid() {
		return nil
	}

	for i := 0; i < list.Len(); i++ {
		elem, ok := element(list, i)
		if !ok {
			continue
		}
		w.stack = append(w.stack, i, elem)
		err := body(w, i)
		w.stack = w.stack[:len(w.stack)-2]
		if err != nil {
			return err
		}
	}
	return nil
}

// Map is Each that collects body's results. The result has the slice's length;
// slots for nil elements stay nil.
func (w *Walker) Map(body func(w *Walker, index int) (any, error), names ...any) ([]any, error) {
	n := len(w.stack)
	defer w.truncate(n)

	for _, name := range names {
		w.stack = append(w.stack, name, lookup(w.Value(), name))
	}

	list := sliceValue(w.Value())
	if !list.IsValid() {
		return nil, nil
	}

	result := make([]any, list.Len())
	for i := range result {
		elem, ok := element(list, i)
		if !ok {
			continue
		}
		w.stack = append(w.stack, i, elem)
		v, err := body(w, i)
		w.stack = w.stack[:len(w.stack)-2]
		if err != nil {
			return result, err
		}
		result[i] = v
	}
	return result, nil
}

// Node returns the skip-th nearest value on the stack that is not a slice.
// Node(0) is the current node.
func (w *Walker) Node(skip int) any {
	idx := w.nodeIndex(skip)
	if idx < 0 {
		return nil
	}
	return w.stack[idx]
}

// Parent returns the skip-th ancestor of the current node; Parent(0) is the direct parent
func (w *Walker) Parent(skip int) any {
	return w.Node(skip + 1)
}

// Matches reports whether successive ancestor generations, starting at the current
// value, satisfy preds in order. Nil predicates accept anything.
func (w *Walker) Matches(preds ...Predicate) bool {
	sp := len(w.stack) - 1
	var name any
	node, ok := w.at(sp)
	sp--

	for _, pred := range preds {
		if !ok || node == nil {
			return false
		}

		index := -1
		if i, isIndex := name.(int); isIndex {
			// skip the slice holding the element
			index = i
			name, _ = w.at(sp)
			sp--
			node, ok = w.at(sp)
			sp--
			if !ok || node == nil {
				return false
			}
		}

		if pred != nil && !pred(node, nameString(name), index) {
			return false
		}

		name, _ = w.at(sp)
		sp--
		node, ok = w.at(sp)
		sp--
	}
	return true
}

func (w *Walker) at(i int) (any, bool) {
	if i < 0 || i >= len(w.stack) {
		return nil, false
	}
	return w.stack[i], true
}

func (w *Walker) truncate(n int) {
	if len(w.stack) > n {
		clear(w.stack[n:])
		w.stack = w.stack[:n]
	}
}

// nodeIndex scans values (every other entry, from the top) and returns the stack
// index of the count-th one that is not a slice, or -1.
func (w *Walker) nodeIndex(count int) int {
	for i := len(w.stack) - 1; i >= 0; i -= 2 {
		if !isSlice(w.stack[i]) {
			count--
			if count < 0 {
				return i
			}
		}
	}
	return -1
}

func nameString(name any) string {
	if s, ok := name.(string); ok {
		return s
	}
	return ""
}

// lookup resolves name against v. Missing fields, keys and out-of-range indices yield nil.
func lookup(v any, name any) any {
	if v == nil {
		return nil
	}

	switch key := name.(type) {
	case string:
		if f, ok := v.(Fielder); ok {
			if child, found := f.Field(key); found {
				return child
			}
			return nil
		}
		return lookupField(reflect.ValueOf(v), key)
	case int:
		list := sliceValue(v)
		if !list.IsValid() || key < 0 || key >= list.Len() {
			return nil
		}
		elem, _ := element(list, key)
		return elem
	default:
		return nil
	}
}

func lookupField(rv reflect.Value, key string) any {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		mv := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil
		}
		return mv.Interface()
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			if tag := f.Tag.Get("json"); tag != "" {
				if tagName, _, _ := strings.Cut(tag, ","); tagName == key {
					return rv.Field(i).Interface()
				}
			}
		}
		if f, ok := t.FieldByName(key); ok && f.IsExported() && len(f.Index) == 1 {
			return rv.FieldByIndex(f.Index).Interface()
		}
	}
	return nil
}

func isSlice(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func sliceValue(v any) reflect.Value {
	if !isSlice(v) {
		return reflect.Value{}
	}
	return reflect.ValueOf(v)
}

// element returns list[i], reporting false for holes (nil pointers, maps, interfaces...)
func element(list reflect.Value, i int) (any, bool) {
	ev := list.Index(i)
	switch ev.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if ev.IsNil() {
			return nil, false
		}
	}
	return ev.Interface(), true
}
