package walker

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func node(kind string, children ...any) map[string]any {
	n := map[string]any{"type": kind}
	if len(children) > 0 {
		n["children"] = children
	}
	return n
}

func isType(kind string) Predicate {
	return func(n any, _ string, _ int) bool {
		m, ok := n.(map[string]any)
		return ok && m["type"] == kind
	}
}

// sampleTree is root -> div -> span -> text
func sampleTree() map[string]any {
	return node("root", node("div", node("span", node("text"))))
}

// atText positions w on the text node and runs body there
func atText(t *testing.T, w *Walker, body func(*Walker) error) {
	t.Helper()
	err := w.Call(body, "children", 0, "children", 0, "children", 0)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
}

func TestNewWalker(t *testing.T) {
	root := sampleTree()
	w := New(root)

	if got := w.Value(); !cmp.Equal(got, any(root)) {
		t.Errorf("Value() = %v, want root", got)
	}
	if w.Name() != nil {
		t.Errorf("Name() at root = %v, want nil", w.Name())
	}
	if w.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", w.Depth())
	}
}

func TestCallRestoresStack(t *testing.T) {
	w := New(sampleTree())

	var seenName any
	var seenType any
	err := w.Call(func(w *Walker) error {
		seenName = w.Name()
		seenType = w.Value().(map[string]any)["type"]
		return nil
	}, "children", 0)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if seenName != 0 {
		t.Errorf("Name() inside Call = %v, want 0", seenName)
	}
	if seenType != "div" {
		t.Errorf("type inside Call = %v, want div", seenType)
	}
	if len(w.stack) != 1 {
		t.Errorf("stack length after Call = %d, want 1", len(w.stack))
	}
}

func TestCallRestoresStackOnErrorAndPanic(t *testing.T) {
	w := New(sampleTree())
	boom := errors.New("boom")

	err := w.Call(func(*Walker) error { return boom }, "children", 0)
	if !errors.Is(err, boom) {
		t.Fatalf("Call error = %v, want boom", err)
	}
	if len(w.stack) != 1 {
		t.Errorf("stack length after failing Call = %d, want 1", len(w.stack))
	}

	func() {
		defer func() { _ = recover() }()
		_ = w.Call(func(*Walker) error { panic("bad") }, "children", 0, "children")
	}()
	if len(w.stack) != 1 {
		t.Errorf("stack length after panicking Call = %d, want 1", len(w.stack))
	}
}

func TestCallMissingFieldYieldsNil(t *testing.T) {
	w := New(sampleTree())

	err := w.Call(func(w *Walker) error {
		if w.Value() != nil {
			t.Errorf("Value() for missing field = %v, want nil", w.Value())
		}
		return nil
	}, "nope", "deeper", 7)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
}

func TestStructAndFielderLookup(t *testing.T) {
	type leaf struct {
		Label string `json:"label"`
	}
	type branch struct {
		Leaves []*leaf `json:"leaves,omitempty"`
		Other  string
	}

	root := &branch{Leaves: []*leaf{{Label: "a"}, nil, {Label: "c"}}, Other: "x"}
	w := New(root)

	got, err := w.Map(func(w *Walker, i int) (any, error) {
		return w.Value().(*leaf).Label, nil
	}, "leaves")
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if diff := cmp.Diff([]any{"a", nil, "c"}, got); diff != "" {
		t.Errorf("Map result mismatch (-want +got):\n%s", diff)
	}

	_ = w.Call(func(w *Walker) error {
		if w.Value() != "x" {
			t.Errorf("Go field name lookup = %v, want x", w.Value())
		}
		return nil
	}, "Other")
}

type custom struct{ kids []any }

func (c custom) Field(name string) (any, bool) {
	if name == "kids" {
		return c.kids, true
	}
	return nil, false
}

func TestFielder(t *testing.T) {
	w := New(custom{kids: []any{"one", "two"}})

	var got []string
	err := w.Each(func(w *Walker, i int) error {
		got = append(got, w.Value().(string))
		return nil
	}, "kids")
	if err != nil {
		t.Fatalf("Each failed: %v", err)
	}
	if diff := cmp.Diff([]string{"one", "two"}, got); diff != "" {
		t.Errorf("Each mismatch (-want +got):\n%s", diff)
	}
}

func TestEachSkipsHolesAndRestores(t *testing.T) {
	root := map[string]any{"items": []any{"a", nil, "c"}}
	w := New(root)

	var indices []int
	err := w.Each(func(w *Walker, i int) error {
		if w.Name() != i {
			t.Errorf("Name() = %v, want %d", w.Name(), i)
		}
		indices = append(indices, i)
		return nil
	}, "items")
	if err != nil {
		t.Fatalf("Each failed: %v", err)
	}
	if diff := cmp.Diff([]int{0, 2}, indices); diff != "" {
		t.Errorf("visited indices mismatch (-want +got):\n%s", diff)
	}
	if len(w.stack) != 1 {
		t.Errorf("stack length after Each = %d, want 1", len(w.stack))
	}
}

func TestEachStopsOnError(t *testing.T) {
	w := New(map[string]any{"items": []any{1, 2, 3}})
	stop := errors.New("stop")

	calls := 0
	err := w.Each(func(w *Walker, i int) error {
		calls++
		if i == 1 {
			return stop
		}
		return nil
	}, "items")
	if !errors.Is(err, stop) {
		t.Fatalf("Each error = %v, want stop", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(w.stack) != 1 {
		t.Errorf("stack length after Each = %d, want 1", len(w.stack))
	}
}

func TestMapNonSlice(t *testing.T) {
	w := New(map[string]any{"items": "scalar"})
	got, err := w.Map(func(*Walker, int) (any, error) { return 1, nil }, "items")
	if err != nil || got != nil {
		t.Errorf("Map over scalar = %v, %v; want nil, nil", got, err)
	}
}

func TestNodeAndParentSkipSlices(t *testing.T) {
	w := New(sampleTree())

	atText(t, w, func(w *Walker) error {
		tests := []struct {
			name string
			got  any
			want string
		}{
			{"Node(0)", w.Node(0), "text"},
			{"Node(1)", w.Node(1), "span"},
			{"Parent(0)", w.Parent(0), "span"},
			{"Parent(1)", w.Parent(1), "div"},
			{"Parent(2)", w.Parent(2), "root"},
		}
		for _, tt := range tests {
			m, ok := tt.got.(map[string]any)
			if !ok || m["type"] != tt.want {
				t.Errorf("%s = %v, want %s", tt.name, tt.got, tt.want)
			}
		}
		if w.Parent(3) != nil {
			t.Errorf("Parent(3) = %v, want nil", w.Parent(3))
		}
		return nil
	})
}

func TestCallParent(t *testing.T) {
	w := New(sampleTree())

	atText(t, w, func(w *Walker) error {
		depth := len(w.stack)

		err := w.CallParent(func(w *Walker) error {
			if m := w.Value().(map[string]any); m["type"] != "div" {
				t.Errorf("Value() in CallParent(1) = %v, want div", m["type"])
			}
			return nil
		}, 1)
		if err != nil {
			t.Fatalf("CallParent failed: %v", err)
		}
		if len(w.stack) != depth {
			t.Errorf("stack not restored: %d, want %d", len(w.stack), depth)
		}
		if m := w.Value().(map[string]any); m["type"] != "text" {
			t.Errorf("Value() after CallParent = %v, want text", m["type"])
		}

		if err := w.CallParent(func(*Walker) error { return nil }, 5); !errors.Is(err, ErrNoAncestor) {
			t.Errorf("CallParent(5) error = %v, want ErrNoAncestor", err)
		}
		return nil
	})
}

func TestMatches(t *testing.T) {
	w := New(sampleTree())

	err := w.Call(func(w *Walker) error {
		tests := []struct {
			name  string
			preds []Predicate
			want  bool
		}{
			{"span inside div", []Predicate{isType("span"), isType("div")}, true},
			{"span inside section", []Predicate{isType("span"), isType("section")}, false},
			{"no predicates", nil, true},
			{"nil accepts anything", []Predicate{nil, isType("div"), isType("root")}, true},
			{"runs out of ancestors", []Predicate{nil, nil, nil, nil}, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := w.Matches(tt.preds...); got != tt.want {
					t.Errorf("Matches() = %v, want %v", got, tt.want)
				}
			})
		}
		return nil
	}, "children", 0, "children", 0)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
}

func TestMatchesFromTextNode(t *testing.T) {
	w := New(sampleTree())

	atText(t, w, func(w *Walker) error {
		if !w.Matches(isType("text"), isType("span"), isType("div")) {
			t.Error("expected text inside span inside div")
		}
		if !w.Matches(nil, isType("span"), isType("div")) {
			t.Error("expected nil predicate to accept the text node")
		}
		if w.Matches(isType("span"), isType("div")) {
			t.Error("text node should not match span")
		}
		return nil
	})
}

func TestMatchesPassesNameAndIndex(t *testing.T) {
	w := New(node("root", node("a"), node("b")))

	err := w.Call(func(w *Walker) error {
		var gotName string
		gotIndex := -2
		ok := w.Matches(nil, func(n any, name string, index int) bool {
			gotName, gotIndex = name, index
			return true
		})
		if !ok {
			t.Fatal("Matches() = false, want true")
		}
		if gotName != "children" || gotIndex != 1 {
			t.Errorf("predicate saw (%q, %d), want (children, 1)", gotName, gotIndex)
		}
		return nil
	}, "children", 1)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
}
