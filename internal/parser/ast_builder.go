package parser

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// astBuilder converts a tree-sitter parse tree into the internal AST.
type astBuilder struct {
	source []byte
}

func newASTBuilder(source []byte) *astBuilder {
	return &astBuilder{source: source}
}

func (b *astBuilder) build(root *sitter.Node) *Node {
	mod := NewNode(NodeModule)
	mod.Location = b.location(root)
	mod.Body = b.buildStatements(root)
	return mod
}

// buildStatements builds every non-trivia child of a module or block
// node as a statement.
func (b *astBuilder) buildStatements(ts *sitter.Node) []*Node {
	var body []*Node
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || b.isTrivia(child) {
			continue
		}
		if stmt := b.buildNode(child); stmt != nil {
			body = append(body, stmt)
		}
	}
	return body
}

// blockBody builds the statement list of a block node; a single bare
// statement is wrapped into a one-element body.
func (b *astBuilder) blockBody(ts *sitter.Node) []*Node {
	if ts == nil {
		return nil
	}
	if ts.Type() == "block" {
		return b.buildStatements(ts)
	}
	if stmt := b.buildNode(ts); stmt != nil {
		return []*Node{stmt}
	}
	return nil
}

func (b *astBuilder) buildNode(ts *sitter.Node) *Node {
	if ts == nil {
		return nil
	}

	switch ts.Type() {
	// Statements
	case "function_definition":
		return b.buildFunctionDef(ts)
	case "class_definition":
		return b.buildClassDef(ts)
	case "decorated_definition":
		return b.buildDecoratedDef(ts)
	case "if_statement":
		return b.buildIf(ts)
	case "elif_clause":
		return b.buildElif(ts)
	case "for_statement":
		return b.buildFor(ts)
	case "while_statement":
		return b.buildWhile(ts)
	case "with_statement":
		return b.buildWith(ts)
	case "try_statement":
		return b.buildTry(ts)
	case "match_statement":
		return b.buildMatch(ts)
	case "return_statement":
		return b.buildValueStatement(ts, NodeReturn, "return")
	case "delete_statement":
		return b.buildDelete(ts)
	case "raise_statement":
		return b.buildValueStatement(ts, NodeRaise, "raise", "from")
	case "assert_statement":
		return b.buildAssert(ts)
	case "import_statement":
		return b.buildImport(ts)
	case "import_from_statement":
		return b.buildImportFrom(ts)
	case "global_statement":
		return b.buildNameListStatement(ts, NodeGlobal)
	case "nonlocal_statement":
		return b.buildNameListStatement(ts, NodeNonlocal)
	case "expression_statement":
		return b.buildExprStatement(ts)
	case "assignment":
		return b.buildAssignment(ts)
	case "augmented_assignment":
		return b.buildAugAssignment(ts)
	case "pass_statement":
		return b.buildLeaf(ts, NodePass)
	case "break_statement":
		return b.buildLeaf(ts, NodeBreak)
	case "continue_statement":
		return b.buildLeaf(ts, NodeContinue)

	// Expressions
	case "binary_operator":
		return b.buildBinOp(ts)
	case "unary_operator", "not_operator":
		return b.buildUnaryOp(ts)
	case "boolean_operator":
		return b.buildBoolOp(ts)
	case "comparison_operator":
		return b.buildCompare(ts)
	case "named_expression":
		return b.buildNamedExpr(ts)
	case "conditional_expression":
		return b.buildIfExp(ts)
	case "lambda":
		return b.buildLambda(ts)
	case "call":
		return b.buildCall(ts)
	case "attribute":
		return b.buildAttribute(ts)
	case "subscript":
		return b.buildSubscript(ts)
	case "slice":
		return b.buildSlice(ts)
	case "list":
		return b.buildSequence(ts, NodeList)
	case "tuple", "expression_list", "pattern_list":
		return b.buildSequence(ts, NodeTuple)
	case "set":
		return b.buildSequence(ts, NodeSet)
	case "dictionary":
		return b.buildDict(ts)
	case "list_comprehension":
		return b.buildComprehension(ts, NodeListComp)
	case "set_comprehension":
		return b.buildComprehension(ts, NodeSetComp)
	case "dictionary_comprehension":
		return b.buildComprehension(ts, NodeDictComp)
	case "generator_expression":
		return b.buildComprehension(ts, NodeGeneratorExp)
	case "await":
		return b.buildWrapped(ts, NodeAwait, "await")
	case "yield":
		return b.buildYield(ts)
	case "list_splat", "dictionary_splat", "list_splat_pattern":
		return b.buildWrapped(ts, NodeStarred, "*", "**")
	case "identifier":
		return b.buildName(ts)
	case "string":
		// f-strings arrive as plain string nodes carrying interpolation
		// children
		if b.hasChildOfType(ts, "interpolation") {
			return b.buildFString(ts)
		}
		return b.buildConstant(ts)
	case "integer", "float", "concatenated_string", "true", "false", "none", "ellipsis":
		return b.buildConstant(ts)
	case "interpolation":
		return b.buildInterpolation(ts)
	case "parenthesized_expression":
		return b.buildParenthesized(ts)

	default:
		return b.buildGeneric(ts)
	}
}

// buildGeneric handles node kinds without a dedicated builder by
// collecting their children into Elts, so no source structure is lost.
func (b *astBuilder) buildGeneric(ts *sitter.Node) *Node {
	n := NewNode(NodeType(ts.Type()))
	n.Location = b.location(ts)
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || b.isTrivia(child) || !child.IsNamed() {
			continue
		}
		if c := b.buildNode(child); c != nil {
			n.Elts = append(n.Elts, c)
		}
	}
	return n
}

func (b *astBuilder) buildFunctionDef(ts *sitter.Node) *Node {
	n := NewNode(NodeFunctionDef)
	n.Location = b.location(ts)
	if b.hasChildOfType(ts, "async") {
		n.Type = NodeAsyncFunctionDef
	}
	if name := ts.ChildByFieldName("name"); name != nil {
		n.Name = b.text(name)
	}
	if params := ts.ChildByFieldName("parameters"); params != nil {
		n.Args = b.buildParameters(params)
	}
	if ret := ts.ChildByFieldName("return_type"); ret != nil {
		n.Returns = b.buildAnnotation(ret)
	}
	if body := ts.ChildByFieldName("body"); body != nil {
		n.Body = b.blockBody(body)
	}
	return n
}

func (b *astBuilder) buildClassDef(ts *sitter.Node) *Node {
	n := NewNode(NodeClassDef)
	n.Location = b.location(ts)
	if name := ts.ChildByFieldName("name"); name != nil {
		n.Name = b.text(name)
	}
	if supers := ts.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.ChildCount()); i++ {
			child := supers.Child(i)
			if child != nil && child.IsNamed() && !b.isTrivia(child) {
				if base := b.buildNode(child); base != nil {
					n.Bases = append(n.Bases, base)
				}
			}
		}
	}
	if body := ts.ChildByFieldName("body"); body != nil {
		n.Body = b.blockBody(body)
	}
	return n
}

func (b *astBuilder) buildDecoratedDef(ts *sitter.Node) *Node {
	var def *Node
	var decorators []*Node
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "decorator":
			dec := NewNode(NodeDecorator)
			dec.Location = b.location(child)
			for j := 0; j < int(child.ChildCount()); j++ {
				if sub := child.Child(j); sub != nil && sub.IsNamed() {
					dec.Value = b.buildNode(sub)
					break
				}
			}
			decorators = append(decorators, dec)
		case "function_definition", "class_definition":
			def = b.buildNode(child)
		}
	}
	if def != nil {
		def.Decorators = decorators
	}
	return def
}

// buildIf normalizes elif chains into nested If nodes, matching the
// shape Python's own ast module produces.
func (b *astBuilder) buildIf(ts *sitter.Node) *Node {
	n := NewNode(NodeIf)
	n.Location = b.location(ts)
	if cond := ts.ChildByFieldName("condition"); cond != nil {
		n.Test = b.buildNode(cond)
	}
	if cons := ts.ChildByFieldName("consequence"); cons != nil {
		n.Body = b.blockBody(cons)
	}

	// Alternatives arrive as a flat run of elif_clause/else_clause
	// children. Fold them right to left into nested Orelse lists.
	var elifs []*Node
	var elseBody []*Node
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || ts.FieldNameForChild(i) != "alternative" {
			continue
		}
		switch child.Type() {
		case "elif_clause":
			elifs = append(elifs, b.buildElif(child))
		case "else_clause":
			if body := child.ChildByFieldName("body"); body != nil {
				elseBody = b.blockBody(body)
			}
		}
	}
	orelse := elseBody
	for i := len(elifs) - 1; i >= 0; i-- {
		elifs[i].Orelse = orelse
		orelse = []*Node{elifs[i]}
	}
	n.Orelse = orelse
	return n
}

func (b *astBuilder) buildElif(ts *sitter.Node) *Node {
	n := NewNode(NodeIf)
	n.Location = b.location(ts)
	if cond := ts.ChildByFieldName("condition"); cond != nil {
		n.Test = b.buildNode(cond)
	}
	if cons := ts.ChildByFieldName("consequence"); cons != nil {
		n.Body = b.blockBody(cons)
	}
	return n
}

func (b *astBuilder) buildFor(ts *sitter.Node) *Node {
	n := NewNode(NodeFor)
	n.Location = b.location(ts)
	if b.hasChildOfType(ts, "async") {
		n.Type = NodeAsyncFor
	}
	if left := ts.ChildByFieldName("left"); left != nil {
		if target := b.buildNode(left); target != nil {
			n.Targets = []*Node{target}
		}
	}
	if right := ts.ChildByFieldName("right"); right != nil {
		n.Iter = b.buildNode(right)
	}
	if body := ts.ChildByFieldName("body"); body != nil {
		n.Body = b.blockBody(body)
	}
	if alt := ts.ChildByFieldName("alternative"); alt != nil {
		if bodyNode := alt.ChildByFieldName("body"); bodyNode != nil {
			n.Orelse = b.blockBody(bodyNode)
		}
	}
	return n
}

func (b *astBuilder) buildWhile(ts *sitter.Node) *Node {
	n := NewNode(NodeWhile)
	n.Location = b.location(ts)
	if cond := ts.ChildByFieldName("condition"); cond != nil {
		n.Test = b.buildNode(cond)
	}
	if body := ts.ChildByFieldName("body"); body != nil {
		n.Body = b.blockBody(body)
	}
	if alt := ts.ChildByFieldName("alternative"); alt != nil {
		if bodyNode := alt.ChildByFieldName("body"); bodyNode != nil {
			n.Orelse = b.blockBody(bodyNode)
		}
	}
	return n
}

func (b *astBuilder) buildWith(ts *sitter.Node) *Node {
	n := NewNode(NodeWith)
	n.Location = b.location(ts)
	if b.hasChildOfType(ts, "async") {
		n.Type = NodeAsyncWith
	}
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || child.Type() != "with_clause" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			itemNode := child.Child(j)
			if itemNode == nil || itemNode.Type() != "with_item" {
				continue
			}
			item := NewNode(NodeWithItem)
			item.Location = b.location(itemNode)
			if v := itemNode.ChildByFieldName("value"); v != nil {
				if v.Type() == "as_pattern" {
					if ctx := v.Child(0); ctx != nil {
						item.Value = b.buildNode(ctx)
					}
					if alias := v.ChildByFieldName("alias"); alias != nil {
						item.Name = b.text(alias)
					}
				} else {
					item.Value = b.buildNode(v)
				}
			}
			n.Elts = append(n.Elts, item)
		}
	}
	if body := ts.ChildByFieldName("body"); body != nil {
		n.Body = b.blockBody(body)
	}
	return n
}

func (b *astBuilder) buildTry(ts *sitter.Node) *Node {
	n := NewNode(NodeTry)
	n.Location = b.location(ts)
	if body := ts.ChildByFieldName("body"); body != nil {
		n.Body = b.blockBody(body)
	}
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "except_clause":
			n.Handlers = append(n.Handlers, b.buildExceptHandler(child, false))
		case "except_group_clause":
			n.Handlers = append(n.Handlers, b.buildExceptHandler(child, true))
		case "else_clause":
			if body := child.ChildByFieldName("body"); body != nil {
				n.Orelse = b.blockBody(body)
			}
		case "finally_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				if sub := child.Child(j); sub != nil && sub.Type() == "block" {
					n.Finalbody = b.buildStatements(sub)
				}
			}
		}
	}
	return n
}

func (b *astBuilder) buildExceptHandler(ts *sitter.Node, group bool) *Node {
	n := NewNode(NodeExceptHandler)
	n.Location = b.location(ts)
	n.GroupExcept = group
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "as_pattern":
			if exType := child.ChildByFieldName("type"); exType != nil {
				n.Value = b.buildNode(exType)
			} else if first := child.Child(0); first != nil {
				n.Value = b.buildNode(first)
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				n.Name = b.text(alias)
			}
		case "block":
			n.Body = b.buildStatements(child)
		default:
			if child.IsNamed() && !b.isTrivia(child) && n.Value == nil {
				n.Value = b.buildNode(child)
			}
		}
	}
	return n
}

func (b *astBuilder) buildMatch(ts *sitter.Node) *Node {
	n := NewNode(NodeMatch)
	n.Location = b.location(ts)
	if subject := ts.ChildByFieldName("subject"); subject != nil {
		n.Test = b.buildNode(subject)
	}
	if body := ts.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(i)
			if child != nil && child.Type() == "case_clause" {
				n.Body = append(n.Body, b.buildMatchCase(child))
			}
		}
	}
	return n
}

func (b *astBuilder) buildMatchCase(ts *sitter.Node) *Node {
	n := NewNode(NodeMatchCase)
	n.Location = b.location(ts)
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil {
			continue
		}
		switch {
		case child.Type() == "case_pattern":
			if n.Test == nil {
				n.Test = b.buildPattern(child)
			}
		case child.Type() == "if_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				if sub := child.Child(j); sub != nil && sub.IsNamed() {
					n.Value = b.buildNode(sub)
					break
				}
			}
		case ts.FieldNameForChild(i) == "consequence":
			n.Body = b.blockBody(child)
		}
	}
	return n
}

// buildPattern maps a tree-sitter case pattern onto the Match* node
// kinds. The mapping is shape-level: it records what kind of pattern
// appears and its sub-structure, which is what downstream fingerprints
// need to tell case arms apart.
func (b *astBuilder) buildPattern(ts *sitter.Node) *Node {
	// case_pattern wraps the concrete pattern.
	if ts.Type() == "case_pattern" {
		for i := 0; i < int(ts.ChildCount()); i++ {
			if child := ts.Child(i); child != nil && child.IsNamed() {
				return b.buildPattern(child)
			}
		}
		return b.leafPattern(ts, NodeMatchValue)
	}

	switch ts.Type() {
	case "union_pattern":
		n := b.leafPattern(ts, NodeMatchOr)
		for i := 0; i < int(ts.ChildCount()); i++ {
			if child := ts.Child(i); child != nil && child.IsNamed() {
				n.Elts = append(n.Elts, b.buildPattern(child))
			}
		}
		return n
	case "list_pattern", "tuple_pattern":
		n := b.leafPattern(ts, NodeMatchSequence)
		for i := 0; i < int(ts.ChildCount()); i++ {
			if child := ts.Child(i); child != nil && child.IsNamed() {
				n.Elts = append(n.Elts, b.buildPattern(child))
			}
		}
		return n
	case "dict_pattern":
		return b.leafPattern(ts, NodeMatchMapping)
	case "class_pattern":
		n := b.leafPattern(ts, NodeMatchClass)
		for i := 0; i < int(ts.ChildCount()); i++ {
			child := ts.Child(i)
			if child == nil || !child.IsNamed() {
				continue
			}
			if child.Type() == "dotted_name" {
				n.Name = b.text(child)
			} else {
				n.Elts = append(n.Elts, b.buildPattern(child))
			}
		}
		return n
	case "splat_pattern":
		return b.leafPattern(ts, NodeMatchStar)
	case "as_pattern":
		n := b.leafPattern(ts, NodeMatchAs)
		if first := ts.Child(0); first != nil && first.IsNamed() {
			n.Value = b.buildPattern(first)
		}
		if alias := ts.ChildByFieldName("alias"); alias != nil {
			n.Name = b.text(alias)
		}
		return n
	case "true", "false", "none":
		return b.leafPattern(ts, NodeMatchSingleton)
	case "identifier":
		// A bare name is a capture pattern.
		n := b.leafPattern(ts, NodeMatchAs)
		n.Name = b.text(ts)
		return n
	case "dotted_name":
		// The grammar wraps bare capture names in dotted_name too; only
		// a dotted value pattern (Color.RED) matches by value.
		if text := b.text(ts); !strings.Contains(text, ".") {
			n := b.leafPattern(ts, NodeMatchAs)
			n.Name = text
			return n
		}
		n := b.leafPattern(ts, NodeMatchValue)
		n.Value = b.buildNode(ts)
		return n
	default:
		n := b.leafPattern(ts, NodeMatchValue)
		n.Value = b.buildNode(ts)
		return n
	}
}

func (b *astBuilder) leafPattern(ts *sitter.Node, t NodeType) *Node {
	n := NewNode(t)
	n.Location = b.location(ts)
	return n
}

// buildValueStatement covers statements of the form KEYWORD [expr]:
// return and raise. Extra keyword tokens (e.g. "from") delimit a
// secondary expression which lands in Elts.
func (b *astBuilder) buildValueStatement(ts *sitter.Node, t NodeType, keywords ...string) *Node {
	n := NewNode(t)
	n.Location = b.location(ts)
	skip := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		skip[k] = true
	}
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || skip[child.Type()] || b.isTrivia(child) {
			continue
		}
		built := b.buildNode(child)
		if built == nil {
			continue
		}
		if n.Value == nil {
			n.Value = built
		} else {
			n.Elts = append(n.Elts, built)
		}
	}
	return n
}

func (b *astBuilder) buildDelete(ts *sitter.Node) *Node {
	n := NewNode(NodeDelete)
	n.Location = b.location(ts)
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || child.Type() == "del" || b.isTrivia(child) {
			continue
		}
		if target := b.buildNode(child); target != nil {
			n.Targets = append(n.Targets, target)
		}
	}
	return n
}

func (b *astBuilder) buildAssert(ts *sitter.Node) *Node {
	n := NewNode(NodeAssert)
	n.Location = b.location(ts)
	seen := 0
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || !child.IsNamed() || b.isTrivia(child) {
			continue
		}
		if seen == 0 {
			n.Test = b.buildNode(child)
		} else {
			n.Value = b.buildNode(child)
		}
		seen++
	}
	return n
}

func (b *astBuilder) buildImport(ts *sitter.Node) *Node {
	n := NewNode(NodeImport)
	n.Location = b.location(ts)
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || ts.FieldNameForChild(i) != "name" {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			n.Names = append(n.Names, b.text(child))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				n.Names = append(n.Names, b.text(name))
			}
		}
	}
	return n
}

func (b *astBuilder) buildImportFrom(ts *sitter.Node) *Node {
	n := NewNode(NodeImportFrom)
	n.Location = b.location(ts)
	if module := ts.ChildByFieldName("module_name"); module != nil {
		n.Name = b.text(module)
	}
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil {
			continue
		}
		if ts.FieldNameForChild(i) == "name" {
			switch child.Type() {
			case "dotted_name", "identifier":
				n.Names = append(n.Names, b.text(child))
			case "aliased_import":
				if name := child.ChildByFieldName("name"); name != nil {
					n.Names = append(n.Names, b.text(name))
				}
			}
		} else if child.Type() == "wildcard_import" {
			n.Names = append(n.Names, "*")
		}
	}
	return n
}

func (b *astBuilder) buildNameListStatement(ts *sitter.Node, t NodeType) *Node {
	n := NewNode(t)
	n.Location = b.location(ts)
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child != nil && child.Type() == "identifier" {
			n.Names = append(n.Names, b.text(child))
		}
	}
	return n
}

func (b *astBuilder) buildExprStatement(ts *sitter.Node) *Node {
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || b.isTrivia(child) {
			continue
		}
		inner := b.buildNode(child)
		if inner == nil {
			continue
		}
		// Assignments appear inside expression_statement in the
		// tree-sitter grammar; hoist them to statement position.
		if inner.Type == NodeAssign || inner.Type == NodeAugAssign || inner.Type == NodeAnnAssign {
			inner.Location = b.location(ts)
			return inner
		}
		n := NewNode(NodeExpr)
		n.Location = b.location(ts)
		n.Value = inner
		return n
	}
	n := NewNode(NodeExpr)
	n.Location = b.location(ts)
	return n
}

func (b *astBuilder) buildAssignment(ts *sitter.Node) *Node {
	n := NewNode(NodeAssign)
	n.Location = b.location(ts)
	if left := ts.ChildByFieldName("left"); left != nil {
		if target := b.buildNode(left); target != nil {
			n.Targets = []*Node{target}
		}
	}
	if right := ts.ChildByFieldName("right"); right != nil {
		n.Value = b.buildNode(right)
	}
	if typ := ts.ChildByFieldName("type"); typ != nil {
		n.Type = NodeAnnAssign
		n.Annotation = b.buildAnnotation(typ)
	}
	return n
}

// buildAnnotation unwraps the grammar's type wrapper node around an
// annotation expression.
func (b *astBuilder) buildAnnotation(ts *sitter.Node) *Node {
	if ts.Type() == "type" {
		for i := 0; i < int(ts.ChildCount()); i++ {
			if child := ts.Child(i); child != nil && child.IsNamed() && !b.isTrivia(child) {
				return b.buildNode(child)
			}
		}
	}
	return b.buildNode(ts)
}

func (b *astBuilder) buildAugAssignment(ts *sitter.Node) *Node {
	n := NewNode(NodeAugAssign)
	n.Location = b.location(ts)
	if left := ts.ChildByFieldName("left"); left != nil {
		if target := b.buildNode(left); target != nil {
			n.Targets = []*Node{target}
		}
	}
	if op := ts.ChildByFieldName("operator"); op != nil {
		n.Op = strings.TrimSuffix(b.text(op), "=")
	}
	if right := ts.ChildByFieldName("right"); right != nil {
		n.Value = b.buildNode(right)
	}
	return n
}

func (b *astBuilder) buildLeaf(ts *sitter.Node, t NodeType) *Node {
	n := NewNode(t)
	n.Location = b.location(ts)
	return n
}

func (b *astBuilder) buildBinOp(ts *sitter.Node) *Node {
	n := NewNode(NodeBinOp)
	n.Location = b.location(ts)
	if left := ts.ChildByFieldName("left"); left != nil {
		n.Left = b.buildNode(left)
	}
	if op := ts.ChildByFieldName("operator"); op != nil {
		n.Op = b.text(op)
	}
	if right := ts.ChildByFieldName("right"); right != nil {
		n.Right = b.buildNode(right)
	}
	return n
}

func (b *astBuilder) buildUnaryOp(ts *sitter.Node) *Node {
	n := NewNode(NodeUnaryOp)
	n.Location = b.location(ts)
	if ts.Type() == "not_operator" {
		n.Op = "not"
		if arg := ts.ChildByFieldName("argument"); arg != nil {
			n.Value = b.buildNode(arg)
		}
		return n
	}
	if op := ts.ChildByFieldName("operator"); op != nil {
		n.Op = b.text(op)
	}
	if operand := ts.ChildByFieldName("argument"); operand != nil {
		n.Value = b.buildNode(operand)
	}
	return n
}

func (b *astBuilder) buildBoolOp(ts *sitter.Node) *Node {
	n := NewNode(NodeBoolOp)
	n.Location = b.location(ts)
	if op := ts.ChildByFieldName("operator"); op != nil {
		n.Op = b.text(op)
	}
	if left := ts.ChildByFieldName("left"); left != nil {
		if c := b.buildNode(left); c != nil {
			n.Elts = append(n.Elts, c)
		}
	}
	if right := ts.ChildByFieldName("right"); right != nil {
		if c := b.buildNode(right); c != nil {
			n.Elts = append(n.Elts, c)
		}
	}
	return n
}

func (b *astBuilder) buildCompare(ts *sitter.Node) *Node {
	n := NewNode(NodeCompare)
	n.Location = b.location(ts)
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || b.isTrivia(child) {
			continue
		}
		if ts.FieldNameForChild(i) == "operators" {
			n.Ops = append(n.Ops, b.text(child))
			continue
		}
		if !child.IsNamed() {
			// Operator tokens without the field name (older grammars).
			if op := b.comparisonOp(child); op != "" {
				n.Ops = append(n.Ops, op)
			}
			continue
		}
		if n.Left == nil {
			n.Left = b.buildNode(child)
		} else {
			n.Comparators = append(n.Comparators, b.buildNode(child))
		}
	}
	return n
}

func (b *astBuilder) buildNamedExpr(ts *sitter.Node) *Node {
	n := NewNode(NodeNamedExpr)
	n.Location = b.location(ts)
	if name := ts.ChildByFieldName("name"); name != nil {
		if target := b.buildNode(name); target != nil {
			n.Targets = []*Node{target}
		}
	}
	if value := ts.ChildByFieldName("value"); value != nil {
		n.Value = b.buildNode(value)
	}
	return n
}

func (b *astBuilder) buildIfExp(ts *sitter.Node) *Node {
	n := NewNode(NodeIfExp)
	n.Location = b.location(ts)
	stage := 0
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "if":
			stage = 1
		case "else":
			stage = 2
		default:
			if b.isTrivia(child) {
				continue
			}
			built := b.buildNode(child)
			switch stage {
			case 0:
				n.Body = []*Node{built}
			case 1:
				n.Test = built
			case 2:
				n.Orelse = []*Node{built}
			}
		}
	}
	return n
}

func (b *astBuilder) buildLambda(ts *sitter.Node) *Node {
	n := NewNode(NodeLambda)
	n.Location = b.location(ts)
	if params := ts.ChildByFieldName("parameters"); params != nil {
		n.Args = b.buildParameters(params)
	}
	if body := ts.ChildByFieldName("body"); body != nil {
		n.Value = b.buildNode(body)
	}
	return n
}

func (b *astBuilder) buildCall(ts *sitter.Node) *Node {
	n := NewNode(NodeCall)
	n.Location = b.location(ts)
	if fn := ts.ChildByFieldName("function"); fn != nil {
		n.Value = b.buildNode(fn)
	}
	if args := ts.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.ChildCount()); i++ {
			child := args.Child(i)
			if child == nil || !child.IsNamed() || b.isTrivia(child) {
				continue
			}
			if child.Type() == "keyword_argument" {
				kw := NewNode(NodeKeyword)
				kw.Location = b.location(child)
				if name := child.ChildByFieldName("name"); name != nil {
					kw.Name = b.text(name)
				}
				if value := child.ChildByFieldName("value"); value != nil {
					kw.Value = b.buildNode(value)
				}
				n.Keywords = append(n.Keywords, kw)
			} else if arg := b.buildNode(child); arg != nil {
				n.Args = append(n.Args, arg)
			}
		}
	}
	return n
}

func (b *astBuilder) buildAttribute(ts *sitter.Node) *Node {
	n := NewNode(NodeAttribute)
	n.Location = b.location(ts)
	if obj := ts.ChildByFieldName("object"); obj != nil {
		n.Value = b.buildNode(obj)
	}
	if attr := ts.ChildByFieldName("attribute"); attr != nil {
		n.Name = b.text(attr)
	}
	return n
}

func (b *astBuilder) buildSubscript(ts *sitter.Node) *Node {
	n := NewNode(NodeSubscript)
	n.Location = b.location(ts)
	if value := ts.ChildByFieldName("value"); value != nil {
		n.Value = b.buildNode(value)
	}
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || ts.FieldNameForChild(i) != "subscript" {
			continue
		}
		if idx := b.buildNode(child); idx != nil {
			n.Elts = append(n.Elts, idx)
		}
	}
	return n
}

func (b *astBuilder) buildSlice(ts *sitter.Node) *Node {
	n := NewNode(NodeSlice)
	n.Location = b.location(ts)
	part := 0
	parts := make([]*Node, 3)
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == ":" {
			part++
		} else if child.IsNamed() && !b.isTrivia(child) && part < 3 {
			parts[part] = b.buildNode(child)
		}
	}
	for _, p := range parts {
		if p != nil {
			n.Elts = append(n.Elts, p)
		}
	}
	return n
}

func (b *astBuilder) buildSequence(ts *sitter.Node, t NodeType) *Node {
	n := NewNode(t)
	n.Location = b.location(ts)
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || !child.IsNamed() || b.isTrivia(child) {
			continue
		}
		if elt := b.buildNode(child); elt != nil {
			n.Elts = append(n.Elts, elt)
		}
	}
	return n
}

func (b *astBuilder) buildDict(ts *sitter.Node) *Node {
	n := NewNode(NodeDict)
	n.Location = b.location(ts)
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "pair":
			if key := child.ChildByFieldName("key"); key != nil {
				n.Elts = append(n.Elts, b.buildNode(key))
			}
			if value := child.ChildByFieldName("value"); value != nil {
				n.Elts = append(n.Elts, b.buildNode(value))
			}
		case "dictionary_splat":
			if splat := b.buildNode(child); splat != nil {
				n.Elts = append(n.Elts, splat)
			}
		}
	}
	return n
}

func (b *astBuilder) buildComprehension(ts *sitter.Node, t NodeType) *Node {
	n := NewNode(t)
	n.Location = b.location(ts)
	if body := ts.ChildByFieldName("body"); body != nil {
		n.Value = b.buildNode(body)
	}
	var current *Node
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "pair":
			if n.Value == nil {
				n.Value = b.buildNode(child)
			}
		case "for_in_clause":
			comp := NewNode(NodeComprehension)
			comp.Location = b.location(child)
			if left := child.ChildByFieldName("left"); left != nil {
				if target := b.buildNode(left); target != nil {
					comp.Targets = []*Node{target}
				}
			}
			if right := child.ChildByFieldName("right"); right != nil {
				comp.Iter = b.buildNode(right)
			}
			n.Elts = append(n.Elts, comp)
			current = comp
		case "if_clause":
			if current == nil {
				continue
			}
			for j := 0; j < int(child.ChildCount()); j++ {
				if sub := child.Child(j); sub != nil && sub.IsNamed() {
					current.Test = b.buildNode(sub)
					break
				}
			}
		}
	}
	return n
}

// buildWrapped covers single-operand wrappers (await, starred).
func (b *astBuilder) buildWrapped(ts *sitter.Node, t NodeType, keywords ...string) *Node {
	n := NewNode(t)
	n.Location = b.location(ts)
	skip := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		skip[k] = true
	}
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || skip[child.Type()] || b.isTrivia(child) {
			continue
		}
		n.Value = b.buildNode(child)
		break
	}
	return n
}

func (b *astBuilder) buildYield(ts *sitter.Node) *Node {
	t := NodeYield
	if b.hasChildOfType(ts, "from") {
		t = NodeYieldFrom
	}
	return b.buildWrapped(ts, t, "yield", "from")
}

func (b *astBuilder) buildName(ts *sitter.Node) *Node {
	n := NewNode(NodeName)
	n.Location = b.location(ts)
	n.Name = b.text(ts)
	return n
}

func (b *astBuilder) buildConstant(ts *sitter.Node) *Node {
	n := NewNode(NodeConstant)
	n.Location = b.location(ts)
	text := b.text(ts)

	switch ts.Type() {
	case "integer":
		if strings.HasSuffix(text, "j") || strings.HasSuffix(text, "J") {
			n.Kind = ConstComplex
			n.Constant = text
		} else if v, err := strconv.ParseInt(text, 0, 64); err == nil {
			n.Kind = ConstInt
			n.Constant = v
		} else {
			n.Kind = ConstInt
			n.Constant = text
		}
	case "float":
		if strings.HasSuffix(text, "j") || strings.HasSuffix(text, "J") {
			n.Kind = ConstComplex
			n.Constant = text
		} else if v, err := strconv.ParseFloat(text, 64); err == nil {
			n.Kind = ConstFloat
			n.Constant = v
		} else {
			n.Kind = ConstFloat
			n.Constant = text
		}
	case "string", "concatenated_string":
		if strings.HasPrefix(text, "b") || strings.HasPrefix(text, "B") {
			n.Kind = ConstBytes
		} else {
			n.Kind = ConstStr
		}
		n.Constant = trimQuotes(text)
	case "true":
		n.Kind = ConstBool
		n.Constant = true
	case "false":
		n.Kind = ConstBool
		n.Constant = false
	case "none":
		n.Kind = ConstNone
		n.Constant = nil
	default:
		n.Kind = ConstStr
		n.Constant = text
	}
	return n
}

func (b *astBuilder) buildFString(ts *sitter.Node) *Node {
	n := NewNode(NodeJoinedStr)
	n.Location = b.location(ts)
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "interpolation":
			n.Elts = append(n.Elts, b.buildInterpolation(child))
		case "string_content":
			c := NewNode(NodeConstant)
			c.Location = b.location(child)
			c.Kind = ConstStr
			c.Constant = b.text(child)
			n.Elts = append(n.Elts, c)
		}
	}
	return n
}

// buildInterpolation wraps the expression of one {...} hole.
func (b *astBuilder) buildInterpolation(ts *sitter.Node) *Node {
	fv := NewNode(NodeFormattedValue)
	fv.Location = b.location(ts)
	if expr := ts.ChildByFieldName("expression"); expr != nil {
		fv.Value = b.buildNode(expr)
		return fv
	}
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil || !child.IsNamed() || b.isTrivia(child) {
			continue
		}
		fv.Value = b.buildNode(child)
		break
	}
	return fv
}

// buildParenthesized unwraps grouping parentheses; they carry no
// structure of their own.
func (b *astBuilder) buildParenthesized(ts *sitter.Node) *Node {
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child != nil && child.IsNamed() && !b.isTrivia(child) {
			return b.buildNode(child)
		}
	}
	return nil
}

func (b *astBuilder) buildParameters(ts *sitter.Node) []*Node {
	var params []*Node
	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier":
			arg := NewNode(NodeArg)
			arg.Location = b.location(child)
			arg.Name = b.text(child)
			params = append(params, arg)
		case "default_parameter", "typed_default_parameter":
			arg := NewNode(NodeArg)
			arg.Location = b.location(child)
			if name := child.ChildByFieldName("name"); name != nil {
				arg.Name = b.text(name)
			}
			if typ := child.ChildByFieldName("type"); typ != nil {
				arg.Annotation = b.buildAnnotation(typ)
			}
			if value := child.ChildByFieldName("value"); value != nil {
				arg.Value = b.buildNode(value)
			}
			params = append(params, arg)
		case "typed_parameter":
			arg := NewNode(NodeArg)
			arg.Location = b.location(child)
			for j := 0; j < int(child.ChildCount()); j++ {
				if sub := child.Child(j); sub != nil && sub.Type() == "identifier" {
					arg.Name = b.text(sub)
					break
				}
			}
			if arg.Name == "" {
				// *args / **kwargs with annotation
				arg.Name = strings.TrimLeft(b.text(child), "*")
				if idx := strings.IndexByte(arg.Name, ':'); idx >= 0 {
					arg.Name = strings.TrimSpace(arg.Name[:idx])
				}
			}
			if typ := child.ChildByFieldName("type"); typ != nil {
				arg.Annotation = b.buildAnnotation(typ)
			}
			params = append(params, arg)
		case "list_splat_pattern":
			arg := NewNode(NodeArg)
			arg.Location = b.location(child)
			arg.Name = "*" + strings.TrimPrefix(b.text(child), "*")
			params = append(params, arg)
		case "dictionary_splat_pattern":
			arg := NewNode(NodeArg)
			arg.Location = b.location(child)
			arg.Name = "**" + strings.TrimPrefix(b.text(child), "**")
			params = append(params, arg)
		case "positional_separator", "keyword_separator":
			// / and * marker tokens carry no name
		}
	}
	return params
}

func (b *astBuilder) location(ts *sitter.Node) Location {
	start := ts.StartPoint()
	end := ts.EndPoint()
	return Location{
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column),
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column),
	}
}

func (b *astBuilder) text(ts *sitter.Node) string {
	return ts.Content(b.source)
}

func (b *astBuilder) hasChildOfType(ts *sitter.Node, t string) bool {
	for i := 0; i < int(ts.ChildCount()); i++ {
		if child := ts.Child(i); child != nil && child.Type() == t {
			return true
		}
	}
	return false
}

func (b *astBuilder) isTrivia(ts *sitter.Node) bool {
	t := ts.Type()
	return t == "comment" || t == "line_continuation"
}

func (b *astBuilder) comparisonOp(ts *sitter.Node) string {
	switch text := b.text(ts); text {
	case "<", ">", "==", ">=", "<=", "!=", "<>", "in", "is":
		return text
	case "not":
		return "not in"
	default:
		return ""
	}
}

func trimQuotes(s string) string {
	s = strings.TrimLeft(s, "rbuRBUf")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
