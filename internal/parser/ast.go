package parser

import "fmt"

// NodeType identifies the kind of an AST node.
type NodeType string

// Python AST node types
const (
	NodeModule NodeType = "Module"

	// Statements
	NodeFunctionDef      NodeType = "FunctionDef"
	NodeAsyncFunctionDef NodeType = "AsyncFunctionDef"
	NodeClassDef         NodeType = "ClassDef"
	NodeReturn           NodeType = "Return"
	NodeDelete           NodeType = "Delete"
	NodeAssign           NodeType = "Assign"
	NodeAugAssign        NodeType = "AugAssign"
	NodeAnnAssign        NodeType = "AnnAssign"
	NodeFor              NodeType = "For"
	NodeAsyncFor         NodeType = "AsyncFor"
	NodeWhile            NodeType = "While"
	NodeIf               NodeType = "If"
	NodeWith             NodeType = "With"
	NodeAsyncWith        NodeType = "AsyncWith"
	NodeMatch            NodeType = "Match"
	NodeRaise            NodeType = "Raise"
	NodeTry              NodeType = "Try"
	NodeAssert           NodeType = "Assert"
	NodeImport           NodeType = "Import"
	NodeImportFrom       NodeType = "ImportFrom"
	NodeGlobal           NodeType = "Global"
	NodeNonlocal         NodeType = "Nonlocal"
	NodeExpr             NodeType = "Expr"
	NodePass             NodeType = "Pass"
	NodeBreak            NodeType = "Break"
	NodeContinue         NodeType = "Continue"

	// Expressions
	NodeBoolOp         NodeType = "BoolOp"
	NodeNamedExpr      NodeType = "NamedExpr"
	NodeBinOp          NodeType = "BinOp"
	NodeUnaryOp        NodeType = "UnaryOp"
	NodeLambda         NodeType = "Lambda"
	NodeIfExp          NodeType = "IfExp"
	NodeDict           NodeType = "Dict"
	NodeSet            NodeType = "Set"
	NodeListComp       NodeType = "ListComp"
	NodeSetComp        NodeType = "SetComp"
	NodeDictComp       NodeType = "DictComp"
	NodeGeneratorExp   NodeType = "GeneratorExp"
	NodeAwait          NodeType = "Await"
	NodeYield          NodeType = "Yield"
	NodeYieldFrom      NodeType = "YieldFrom"
	NodeCompare        NodeType = "Compare"
	NodeCall           NodeType = "Call"
	NodeFormattedValue NodeType = "FormattedValue"
	NodeJoinedStr      NodeType = "JoinedStr"
	NodeConstant       NodeType = "Constant"
	NodeAttribute      NodeType = "Attribute"
	NodeSubscript      NodeType = "Subscript"
	NodeStarred        NodeType = "Starred"
	NodeName           NodeType = "Name"
	NodeList           NodeType = "List"
	NodeTuple          NodeType = "Tuple"
	NodeSlice          NodeType = "Slice"

	// Match patterns
	NodeMatchValue     NodeType = "MatchValue"
	NodeMatchSingleton NodeType = "MatchSingleton"
	NodeMatchSequence  NodeType = "MatchSequence"
	NodeMatchMapping   NodeType = "MatchMapping"
	NodeMatchClass     NodeType = "MatchClass"
	NodeMatchStar      NodeType = "MatchStar"
	NodeMatchAs        NodeType = "MatchAs"
	NodeMatchOr        NodeType = "MatchOr"

	// Structure
	NodeAlias         NodeType = "Alias"
	NodeExceptHandler NodeType = "ExceptHandler"
	NodeArg           NodeType = "Arg"
	NodeKeyword       NodeType = "Keyword"
	NodeComprehension NodeType = "Comprehension"
	NodeDecorator     NodeType = "Decorator"
	NodeWithItem      NodeType = "WithItem"
	NodeMatchCase     NodeType = "MatchCase"
	NodeBlock         NodeType = "block"
)

// Location is the position of a node in source code. Lines are 1-based.
type Location struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// ConstKind classifies the literal stored in a Constant node. The
// normalizer needs the kind even after the value itself is erased.
type ConstKind int

const (
	ConstNone ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstComplex
	ConstStr
	ConstBytes
)

// String returns a short tag for the constant kind.
func (k ConstKind) String() string {
	switch k {
	case ConstBool:
		return "bool"
	case ConstInt:
		return "int"
	case ConstFloat:
		return "float"
	case ConstComplex:
		return "complex"
	case ConstStr:
		return "str"
	case ConstBytes:
		return "bytes"
	default:
		return "none"
	}
}

// Node is a Python AST node. One struct covers every node kind; the
// meaning of each field depends on Type. Nodes hold no parent pointers:
// the analyzer rewrites subtrees in place and back-references would
// alias stale structure.
type Node struct {
	Type     NodeType
	Location Location

	// Name holds identifiers: function/class names, Name nodes,
	// attribute names, parameter names, except-handler aliases.
	Name string

	// Value is the node-specific payload: the callee for Call, the RHS
	// for Assign, the operand for UnaryOp/Await/Yield, the receiver for
	// Subscript and Attribute, the guard for MatchCase.
	Value *Node

	// Constant holds the literal value of a Constant node (int64,
	// float64, bool, string, nil, ...). Kind survives normalization.
	Constant interface{}
	Kind     ConstKind

	Op  string   // binary/unary/boolean/augmented operator
	Ops []string // comparison operator chain, parallel to Comparators

	Targets     []*Node  // assignment/for/delete targets
	Body        []*Node  // compound statement bodies
	Orelse      []*Node  // else arms of if/for/while/try
	Finalbody   []*Node  // finally arm of try
	Handlers    []*Node  // except arms of try
	Test        *Node    // if/while condition, match subject, case pattern
	Iter        *Node    // for-loop iterable
	Left        *Node    // binop/compare left operand
	Right       *Node    // binop right operand
	Comparators []*Node  // compare right-hand operands
	Args        []*Node  // parameters or call arguments
	Keywords    []*Node  // keyword call arguments
	Decorators  []*Node  // decorators on defs
	Bases       []*Node  // class bases
	Annotation  *Node    // parameter/AnnAssign type annotation
	Returns     *Node    // function return-type annotation
	Elts        []*Node  // list/tuple/set/dict elements, slice parts, bool operands
	Names       []string // import/global/nonlocal name lists

	// GroupExcept marks an except* handler (exception groups).
	GroupExcept bool
}

// NewNode creates a node of the given type.
func NewNode(t NodeType) *Node {
	return &Node{Type: t}
}

// IsStatement reports whether the node is a statement.
func (n *Node) IsStatement() bool {
	switch n.Type {
	case NodeFunctionDef, NodeAsyncFunctionDef, NodeClassDef,
		NodeReturn, NodeDelete, NodeAssign, NodeAugAssign, NodeAnnAssign,
		NodeFor, NodeAsyncFor, NodeWhile, NodeIf, NodeWith, NodeAsyncWith,
		NodeMatch, NodeRaise, NodeTry, NodeAssert, NodeImport, NodeImportFrom,
		NodeGlobal, NodeNonlocal, NodeExpr, NodePass, NodeBreak, NodeContinue:
		return true
	}
	return false
}

// IsFunctionDef reports whether the node defines a function or method.
func (n *Node) IsFunctionDef() bool {
	return n.Type == NodeFunctionDef || n.Type == NodeAsyncFunctionDef
}

// Children returns every child node in a fixed field order. The order
// matters: structural dumps and traversals must be deterministic.
func (n *Node) Children() []*Node {
	var out []*Node
	add := func(c *Node) {
		if c != nil {
			out = append(out, c)
		}
	}
	addAll := func(cs []*Node) {
		for _, c := range cs {
			add(c)
		}
	}
	addAll(n.Decorators)
	addAll(n.Args)
	add(n.Annotation)
	add(n.Returns)
	addAll(n.Targets)
	add(n.Test)
	add(n.Iter)
	add(n.Left)
	add(n.Right)
	addAll(n.Comparators)
	add(n.Value)
	addAll(n.Elts)
	addAll(n.Keywords)
	addAll(n.Bases)
	addAll(n.Body)
	addAll(n.Orelse)
	addAll(n.Handlers)
	addAll(n.Finalbody)
	return out
}

// Walk visits n and its descendants depth-first. Returning false from
// the visitor prunes the subtree.
func (n *Node) Walk(visit func(*Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(visit)
	}
}

// Copy returns a deep copy of the node.
func (n *Node) Copy() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Type:        n.Type,
		Location:    n.Location,
		Name:        n.Name,
		Constant:    n.Constant,
		Kind:        n.Kind,
		Op:          n.Op,
		GroupExcept: n.GroupExcept,
	}
	if n.Ops != nil {
		c.Ops = append([]string{}, n.Ops...)
	}
	if n.Names != nil {
		c.Names = append([]string{}, n.Names...)
	}
	c.Value = n.Value.Copy()
	c.Test = n.Test.Copy()
	c.Iter = n.Iter.Copy()
	c.Left = n.Left.Copy()
	c.Right = n.Right.Copy()
	c.Annotation = n.Annotation.Copy()
	c.Returns = n.Returns.Copy()
	c.Targets = copyNodes(n.Targets)
	c.Body = copyNodes(n.Body)
	c.Orelse = copyNodes(n.Orelse)
	c.Finalbody = copyNodes(n.Finalbody)
	c.Handlers = copyNodes(n.Handlers)
	c.Comparators = copyNodes(n.Comparators)
	c.Args = copyNodes(n.Args)
	c.Keywords = copyNodes(n.Keywords)
	c.Decorators = copyNodes(n.Decorators)
	c.Bases = copyNodes(n.Bases)
	c.Elts = copyNodes(n.Elts)
	return c
}

func copyNodes(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Copy())
	}
	return out
}

// String returns a short human-readable representation.
func (n *Node) String() string {
	if n.Name != "" {
		return fmt.Sprintf("%s(%s)", n.Type, n.Name)
	}
	if n.Type == NodeConstant {
		return fmt.Sprintf("Constant(%v)", n.Constant)
	}
	return string(n.Type)
}
