package parser

import "testing"

func TestIsStatement(t *testing.T) {
	stmts := []NodeType{NodeAssign, NodeIf, NodeFor, NodeReturn, NodePass, NodeFunctionDef, NodeMatch}
	for _, typ := range stmts {
		if !NewNode(typ).IsStatement() {
			t.Errorf("%s should be a statement", typ)
		}
	}
	exprs := []NodeType{NodeModule, NodeName, NodeConstant, NodeCall, NodeBinOp, NodeExceptHandler}
	for _, typ := range exprs {
		if NewNode(typ).IsStatement() {
			t.Errorf("%s should not be a statement", typ)
		}
	}
}

func TestWalk(t *testing.T) {
	module := parseModule(t, `def f():
    if a:
        g(b)
    return c
`)

	t.Run("VisitsAllNodes", func(t *testing.T) {
		var names []string
		module.Walk(func(n *Node) bool {
			if n.Type == NodeName {
				names = append(names, n.Name)
			}
			return true
		})
		want := map[string]bool{"a": false, "g": false, "b": false, "c": false}
		for _, name := range names {
			if _, ok := want[name]; ok {
				want[name] = true
			}
		}
		for name, seen := range want {
			if !seen {
				t.Errorf("walk did not visit name %s", name)
			}
		}
	})

	t.Run("PrunesSubtree", func(t *testing.T) {
		var sawInner bool
		module.Walk(func(n *Node) bool {
			if n.Type == NodeIf {
				return false
			}
			if n.Type == NodeCall {
				sawInner = true
			}
			return true
		})
		if sawInner {
			t.Error("pruned subtree was still visited")
		}
	})

	t.Run("NilReceiver", func(t *testing.T) {
		var n *Node
		n.Walk(func(*Node) bool {
			t.Error("visitor called on nil node")
			return true
		})
	})
}

func TestCopy(t *testing.T) {
	module := parseModule(t, `def f(x=1):
    y = x + 2
    return y
`)
	clone := module.Copy()

	countNodes := func(n *Node) int {
		total := 0
		n.Walk(func(*Node) bool {
			total++
			return true
		})
		return total
	}
	if countNodes(clone) != countNodes(module) {
		t.Fatalf("copy has %d nodes, original has %d", countNodes(clone), countNodes(module))
	}

	// Mutating the copy must not leak into the original.
	clone.Body[0].Name = "renamed"
	clone.Body[0].Body[0].Targets[0].Name = "z"
	if module.Body[0].Name != "f" {
		t.Error("copy shares the function node with the original")
	}
	if module.Body[0].Body[0].Targets[0].Name != "y" {
		t.Error("copy shares nested nodes with the original")
	}

	if (*Node)(nil).Copy() != nil {
		t.Error("copying nil should yield nil")
	}
}

func TestChildren(t *testing.T) {
	t.Run("OrderIsStable", func(t *testing.T) {
		module := parseModule(t, "if a > 0:\n    b = 1\nelse:\n    b = 2\n")
		n := module.Body[0]
		kids := n.Children()
		if len(kids) != 3 {
			t.Fatalf("expected test, body and else children, got %d", len(kids))
		}
		if kids[0] != n.Test {
			t.Error("test should come before the body")
		}
		if kids[1] != n.Body[0] || kids[2] != n.Orelse[0] {
			t.Error("body should come before the else arm")
		}
	})

	t.Run("SkipsNilFields", func(t *testing.T) {
		n := NewNode(NodeReturn)
		if len(n.Children()) != 0 {
			t.Errorf("bare return has no children, got %d", len(n.Children()))
		}
	})
}

func TestNodeString(t *testing.T) {
	fn := NewNode(NodeFunctionDef)
	fn.Name = "f"
	if got := fn.String(); got != "FunctionDef(f)" {
		t.Errorf("expected FunctionDef(f), got %s", got)
	}

	c := NewNode(NodeConstant)
	c.Constant = int64(42)
	if got := c.String(); got != "Constant(42)" {
		t.Errorf("expected Constant(42), got %s", got)
	}

	if got := NewNode(NodePass).String(); got != "Pass" {
		t.Errorf("expected Pass, got %s", got)
	}
}

func TestConstKindString(t *testing.T) {
	tests := []struct {
		kind ConstKind
		want string
	}{
		{ConstNone, "none"},
		{ConstBool, "bool"},
		{ConstInt, "int"},
		{ConstFloat, "float"},
		{ConstComplex, "complex"},
		{ConstStr, "str"},
		{ConstBytes, "bytes"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("expected %s, got %s", tt.want, got)
		}
	}
}
