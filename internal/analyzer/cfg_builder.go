package analyzer

import (
	"strings"

	"github.com/ludo-technologies/pydup/internal/parser"
)

// CFGBuilder builds a control flow graph for one function body. A
// builder is single-use and not safe for concurrent use; construction
// is a pure function of the input tree.
type CFGBuilder struct {
	cfg     *CFG
	current *Block
	// innermost-last loop contexts for break/continue targets
	loops []loopFrame
	// innermost-last handler sets for potentially raising statements
	handlers [][]*Block
}

type loopFrame struct {
	header *Block
	after  *Block
}

// NewCFGBuilder creates a builder for a fresh graph.
func NewCFGBuilder() *CFGBuilder {
	return &CFGBuilder{}
}

// Build constructs the CFG for a function body. The statements are
// referenced, not copied, so normalizing the tree afterwards is
// visible through the graph's blocks.
func (b *CFGBuilder) Build(name string, body []*parser.Node) *CFG {
	b.cfg = NewCFG(name)
	b.current = b.cfg.NewBlock("body")
	b.cfg.Connect(b.cfg.Entry, b.current)

	b.buildStatements(body)

	b.cfg.Connect(b.current, b.cfg.Exit)
	return b.cfg
}

func (b *CFGBuilder) buildStatements(stmts []*parser.Node) {
	for _, stmt := range stmts {
		b.buildStatement(stmt)
	}
}

func (b *CFGBuilder) buildStatement(stmt *parser.Node) {
	if stmt == nil {
		return
	}
	switch stmt.Type {
	case parser.NodeIf:
		b.buildIf(stmt)
	case parser.NodeWhile:
		b.buildLoop(stmt)
	case parser.NodeFor, parser.NodeAsyncFor:
		b.buildLoop(stmt)
	case parser.NodeBreak:
		b.buildBreak(stmt)
	case parser.NodeContinue:
		b.buildContinue(stmt)
	case parser.NodeReturn:
		b.buildReturn(stmt)
	case parser.NodeRaise:
		b.buildRaise(stmt)
	case parser.NodeTry:
		b.buildTry(stmt)
	case parser.NodeMatch:
		b.buildMatch(stmt)
	case parser.NodeWith, parser.NodeAsyncWith:
		b.buildWith(stmt)
	default:
		// Plain statement, including nested function/class definitions
		// which are extracted as units of their own.
		b.current.AddStatement(stmt)
		b.connectRaising(stmt)
	}
}

// buildCond flattens a condition into test blocks with short-circuit
// edges: each operand of and/or lands in its own block so that the
// fingerprint separates `if a and b` from `if a` + nested `if b` only
// by merge structure, and condition order stays significant.
func (b *CFGBuilder) buildCond(test *parser.Node, onTrue, onFalse *Block) {
	if test != nil && test.Type == parser.NodeBoolOp && len(test.Elts) == 2 {
		left, right := test.Elts[0], test.Elts[1]
		rest := b.cfg.NewBlock("cond")
		switch test.Op {
		case "and":
			b.buildCond(left, rest, onFalse)
			b.current = rest
			b.buildCond(right, onTrue, onFalse)
			return
		case "or":
			b.buildCond(left, onTrue, rest)
			b.current = rest
			b.buildCond(right, onTrue, onFalse)
			return
		}
	}
	b.current.AddStatement(test)
	b.connectRaising(test)
	b.cfg.Connect(b.current, onTrue)
	b.cfg.Connect(b.current, onFalse)
}

func (b *CFGBuilder) buildIf(stmt *parser.Node) {
	thenBlock := b.cfg.NewBlock("if.then")
	var elseBlock *Block
	if len(stmt.Orelse) > 0 {
		elseBlock = b.cfg.NewBlock("if.else")
	}
	after := b.cfg.NewBlock("if.after")

	falseTarget := after
	if elseBlock != nil {
		falseTarget = elseBlock
	}
	b.buildCond(stmt.Test, thenBlock, falseTarget)

	b.current = thenBlock
	b.buildStatements(stmt.Body)
	b.cfg.Connect(b.current, after)

	if elseBlock != nil {
		b.current = elseBlock
		b.buildStatements(stmt.Orelse)
		b.cfg.Connect(b.current, after)
	}
	b.current = after
}

// buildLoop handles while and for alike. The loop-else block is only
// on the normal-exhaustion path; break wires straight to the after
// block and bypasses it.
func (b *CFGBuilder) buildLoop(stmt *parser.Node) {
	header := b.cfg.NewBlock("loop.header")
	body := b.cfg.NewBlock("loop.body")
	var elseBlock *Block
	if len(stmt.Orelse) > 0 {
		elseBlock = b.cfg.NewBlock("loop.else")
	}
	after := b.cfg.NewBlock("loop.after")

	exitTarget := after
	if elseBlock != nil {
		exitTarget = elseBlock
	}

	b.cfg.Connect(b.current, header)
	b.current = header
	if stmt.Type == parser.NodeWhile {
		b.buildCond(stmt.Test, body, exitTarget)
	} else {
		for _, t := range stmt.Targets {
			header.AddStatement(t)
		}
		if stmt.Iter != nil {
			header.AddStatement(stmt.Iter)
			b.connectRaising(stmt.Iter)
		}
		b.cfg.Connect(b.current, body)
		b.cfg.Connect(b.current, exitTarget)
	}

	b.loops = append(b.loops, loopFrame{header: header, after: after})
	b.current = body
	b.buildStatements(stmt.Body)
	b.cfg.Connect(b.current, header)
	b.loops = b.loops[:len(b.loops)-1]

	if elseBlock != nil {
		b.current = elseBlock
		b.buildStatements(stmt.Orelse)
		b.cfg.Connect(b.current, after)
	}
	b.current = after
}

func (b *CFGBuilder) buildBreak(stmt *parser.Node) {
	b.current.AddStatement(stmt)
	if n := len(b.loops); n > 0 {
		b.cfg.Connect(b.current, b.loops[n-1].after)
	} else {
		// break outside any loop; degrade instead of failing
		b.cfg.Connect(b.current, b.cfg.Exit)
	}
	b.terminate()
}

func (b *CFGBuilder) buildContinue(stmt *parser.Node) {
	b.current.AddStatement(stmt)
	if n := len(b.loops); n > 0 {
		b.cfg.Connect(b.current, b.loops[n-1].header)
	} else {
		b.cfg.Connect(b.current, b.cfg.Exit)
	}
	b.terminate()
}

func (b *CFGBuilder) buildReturn(stmt *parser.Node) {
	b.current.AddStatement(stmt)
	b.cfg.Connect(b.current, b.cfg.Exit)
	b.terminate()
}

func (b *CFGBuilder) buildRaise(stmt *parser.Node) {
	b.current.AddStatement(stmt)
	// An empty innermost frame (try/finally without handlers, or the
	// finally body itself) leaves no handler to catch the raise.
	if n := len(b.handlers); n > 0 && len(b.handlers[n-1]) > 0 {
		for _, h := range b.handlers[n-1] {
			b.cfg.Connect(b.current, h)
		}
	} else {
		b.cfg.Connect(b.current, b.cfg.Exit)
	}
	b.terminate()
}

// terminate seals the current block and parks subsequent statements in
// an unreachable block so building can continue without edges.
func (b *CFGBuilder) terminate() {
	b.current.Terminated = true
	b.current = b.cfg.NewBlock("unreachable")
}

func (b *CFGBuilder) buildTry(stmt *parser.Node) {
	handlerBlocks := make([]*Block, 0, len(stmt.Handlers))
	for _, h := range stmt.Handlers {
		blk := b.cfg.NewBlock("except")
		blk.AddStatement(exceptMarker(h))
		handlerBlocks = append(handlerBlocks, blk)
	}

	body := b.cfg.NewBlock("try.body")
	b.cfg.Connect(b.current, body)
	b.current = body

	b.handlers = append(b.handlers, handlerBlocks)
	b.buildStatements(stmt.Body)
	b.handlers = b.handlers[:len(b.handlers)-1]

	if len(stmt.Orelse) > 0 {
		elseBlock := b.cfg.NewBlock("try.else")
		b.cfg.Connect(b.current, elseBlock)
		b.current = elseBlock
		b.buildStatements(stmt.Orelse)
	}
	normalEnd := b.current

	ends := []*Block{normalEnd}
	for i, blk := range handlerBlocks {
		b.current = blk
		b.buildStatements(stmt.Handlers[i].Body)
		ends = append(ends, b.current)
	}

	after := b.cfg.NewBlock("try.after")
	if len(stmt.Finalbody) > 0 {
		finalBlock := b.cfg.NewBlock("finally")
		for _, e := range ends {
			b.cfg.Connect(e, finalBlock)
		}
		b.current = finalBlock
		b.handlers = appendFrame(b.handlers) // finally body raises escape outward
		b.buildStatements(stmt.Finalbody)
		b.handlers = b.handlers[:len(b.handlers)-1]
		b.cfg.Connect(b.current, after)
	} else {
		for _, e := range ends {
			b.cfg.Connect(e, after)
		}
	}
	b.current = after
}

// appendFrame pushes an empty handler frame so raises inside finally
// route to exit rather than back into the enclosing handlers.
func appendFrame(frames [][]*Block) [][]*Block {
	return append(frames, nil)
}

func (b *CFGBuilder) buildMatch(stmt *parser.Node) {
	if stmt.Test != nil {
		b.current.AddStatement(stmt.Test)
		b.connectRaising(stmt.Test)
	}
	subject := b.current
	after := b.cfg.NewBlock("match.after")

	for _, c := range stmt.Body {
		if c == nil || c.Type != parser.NodeMatchCase {
			continue
		}
		blk := b.cfg.NewBlock("case")
		blk.AddStatement(caseMarker(c.Test))
		if c.Value != nil {
			blk.AddStatement(guardMarkerNode(c.Value))
			blk.AddStatement(c.Value)
		}
		b.cfg.Connect(subject, blk)
		b.current = blk
		b.buildStatements(c.Body)
		b.cfg.Connect(b.current, after)
	}

	// no case may match
	b.cfg.Connect(subject, after)
	b.current = after
}

func (b *CFGBuilder) buildWith(stmt *parser.Node) {
	for _, item := range stmt.Elts {
		if item != nil && item.Value != nil {
			b.current.AddStatement(item.Value)
			b.connectRaising(item.Value)
		}
	}
	b.buildStatements(stmt.Body)
}

// connectRaising wires a statement's block to the innermost handler
// set when the statement can plausibly raise. Calls, attribute access
// and subscripts are treated as raising; literal assignments are not.
// An approximation, but it keeps exception edges meaningful without
// claiming real raise analysis.
func (b *CFGBuilder) connectRaising(stmt *parser.Node) {
	n := len(b.handlers)
	if n == 0 || len(b.handlers[n-1]) == 0 {
		return
	}
	if !canRaise(stmt) {
		return
	}
	for _, h := range b.handlers[n-1] {
		b.cfg.Connect(b.current, h)
	}
}

func canRaise(n *parser.Node) bool {
	risky := false
	n.Walk(func(c *parser.Node) bool {
		switch c.Type {
		case parser.NodeCall, parser.NodeAttribute, parser.NodeSubscript,
			parser.NodeAwait, parser.NodeRaise, parser.NodeAssert, parser.NodeDelete:
			risky = true
			return false
		}
		return true
	})
	return risky
}

// exceptMarker builds the synthetic hash-visible statement recording a
// handler's exception type. The marker prefix cannot occur in a real
// identifier, so a source name can never collide with it and the
// normalizer knows to leave it alone.
func exceptMarker(h *parser.Node) *parser.Node {
	kw := "except"
	if h.GroupExcept {
		kw = "except*"
	}
	name := markerPrefix + kw + ":" + exceptionKey(h.Value)
	m := parser.NewNode(parser.NodeName)
	m.Location = h.Location
	m.Name = name
	return m
}

func exceptionKey(typ *parser.Node) string {
	if typ == nil {
		return "bare"
	}
	switch typ.Type {
	case parser.NodeName:
		return typ.Name
	case parser.NodeAttribute:
		return exceptionKey(typ.Value) + "." + typ.Name
	case parser.NodeTuple:
		parts := make([]string, 0, len(typ.Elts))
		for _, e := range typ.Elts {
			parts = append(parts, exceptionKey(e))
		}
		return "(" + strings.Join(parts, ",") + ")"
	default:
		return Dump(typ)
	}
}

// caseMarker records the shape of a match-case pattern so that case
// order and pattern structure stay visible in the fingerprint.
func caseMarker(pattern *parser.Node) *parser.Node {
	m := parser.NewNode(parser.NodeName)
	m.Name = markerPrefix + "case:" + patternShape(pattern)
	if pattern != nil {
		m.Location = pattern.Location
	}
	return m
}

func patternShape(p *parser.Node) string {
	if p == nil {
		return "any"
	}
	switch p.Type {
	case parser.NodeMatchValue:
		return "value"
	case parser.NodeMatchSingleton:
		return "singleton"
	case parser.NodeMatchSequence:
		parts := make([]string, 0, len(p.Elts))
		for _, e := range p.Elts {
			parts = append(parts, patternShape(e))
		}
		return "seq(" + strings.Join(parts, ",") + ")"
	case parser.NodeMatchMapping:
		return "map"
	case parser.NodeMatchClass:
		return "class:" + p.Name
	case parser.NodeMatchStar:
		return "star"
	case parser.NodeMatchAs:
		if p.Value != nil {
			return "as(" + patternShape(p.Value) + ")"
		}
		return "any"
	case parser.NodeMatchOr:
		parts := make([]string, 0, len(p.Elts))
		for _, e := range p.Elts {
			parts = append(parts, patternShape(e))
		}
		return "or(" + strings.Join(parts, ",") + ")"
	default:
		return "value"
	}
}

// guardMarkerNode flags the presence of a case guard; the guard
// expression itself is appended right after it.
func guardMarkerNode(guard *parser.Node) *parser.Node {
	m := parser.NewNode(parser.NodeName)
	m.Name = markerPrefix + "guard"
	m.Location = guard.Location
	return m
}
