package analyzer

import (
	"strings"

	"github.com/ludo-technologies/pydup/internal/parser"
)

// markerPrefix prefixes synthetic names injected by the CFG builder
// (exception types, match patterns). Name erasure must leave them
// alone or structurally different handlers would hash identically.
const markerPrefix = "$"

// placeholder replaces erased identifiers, attributes and constants.
const placeholder = "_"

// NormalizationConfig selects which superficial variations get erased
// before hashing. All toggles default to on.
type NormalizationConfig struct {
	IgnoreDocstrings      bool `mapstructure:"ignore_docstrings" yaml:"ignore_docstrings" toml:"ignore_docstrings"`
	IgnoreTypeAnnotations bool `mapstructure:"ignore_type_annotations" yaml:"ignore_type_annotations" toml:"ignore_type_annotations"`
	NormalizeNames        bool `mapstructure:"normalize_names" yaml:"normalize_names" toml:"normalize_names"`
	NormalizeAttributes   bool `mapstructure:"normalize_attributes" yaml:"normalize_attributes" toml:"normalize_attributes"`
	NormalizeConstants    bool `mapstructure:"normalize_constants" yaml:"normalize_constants" toml:"normalize_constants"`
}

// DefaultNormalizationConfig returns the configuration used by scan
// unless overridden.
func DefaultNormalizationConfig() NormalizationConfig {
	return NormalizationConfig{
		IgnoreDocstrings:      true,
		IgnoreTypeAnnotations: true,
		NormalizeNames:        true,
		NormalizeAttributes:   true,
		NormalizeConstants:    true,
	}
}

// Normalizer rewrites an AST in place so that semantically equivalent
// code converges to an identical structural dump. The rewrite is
// destructive; callers that need the raw tree must copy first.
type Normalizer struct {
	config NormalizationConfig
}

// NewNormalizer creates a normalizer with the given configuration.
func NewNormalizer(config NormalizationConfig) *Normalizer {
	return &Normalizer{config: config}
}

// PrepareBody removes a leading docstring when configured and returns
// the effective body. Callers building a CFG should do so on the
// prepared body, or a docstring would survive into the graph's blocks.
func (nz *Normalizer) PrepareBody(fn *parser.Node) []*parser.Node {
	nz.stripDocstring(fn)
	return fn.Body
}

// NormalizeFunctionBody normalizes a function definition in place and
// returns its (possibly docstring-trimmed) body.
func (nz *Normalizer) NormalizeFunctionBody(fn *parser.Node) []*parser.Node {
	nz.stripDocstring(fn)
	nz.stripSignatureAnnotations(fn)
	for _, stmt := range fn.Body {
		nz.visit(stmt)
	}
	return fn.Body
}

// StripAnnotations retypes annotated assignments to plain assignments
// when annotations are ignored. Extraction runs this before building
// the CFG so an annotation expression cannot add raise edges that the
// unannotated spelling lacks.
func (nz *Normalizer) StripAnnotations(stmts []*parser.Node) {
	if !nz.config.IgnoreTypeAnnotations {
		return
	}
	for _, stmt := range stmts {
		stmt.Walk(func(n *parser.Node) bool {
			if n.Type == parser.NodeAnnAssign {
				n.Annotation = nil
				n.Type = parser.NodeAssign
			}
			return true
		})
	}
}

// NormalizeStatements normalizes an arbitrary statement list in place.
func (nz *Normalizer) NormalizeStatements(stmts []*parser.Node) {
	for _, stmt := range stmts {
		nz.visit(stmt)
	}
}

func (nz *Normalizer) visit(n *parser.Node) {
	if n == nil {
		return
	}

	switch n.Type {
	case parser.NodeFunctionDef, parser.NodeAsyncFunctionDef:
		// Nested definitions are normalized but keep their own name;
		// they are also extracted as units in their own right.
		nz.stripDocstring(n)
		nz.stripSignatureAnnotations(n)

	case parser.NodeAugAssign:
		nz.desugarAugAssign(n)

	case parser.NodeUnaryOp:
		nz.foldNegation(n)
		if n.Type != parser.NodeUnaryOp {
			// folded into a Compare; re-dispatch
			nz.visit(n)
			return
		}

	case parser.NodeBinOp:
		nz.canonicalizeCommutative(n)

	case parser.NodeAnnAssign:
		if nz.config.IgnoreTypeAnnotations {
			// "x: int = 1" becomes "x = 1" so the annotated spelling
			// hashes like the plain one
			n.Annotation = nil
			n.Type = parser.NodeAssign
		}

	case parser.NodeCall:
		nz.visitCallTarget(n.Value)
		for _, a := range n.Args {
			nz.visit(a)
		}
		for _, k := range n.Keywords {
			nz.visit(k)
		}
		return

	case parser.NodeName:
		if nz.config.NormalizeNames && !strings.HasPrefix(n.Name, markerPrefix) {
			n.Name = placeholder
		}
		return

	case parser.NodeAttribute:
		if nz.config.NormalizeAttributes {
			n.Name = placeholder
		}
		nz.visit(n.Value)
		return

	case parser.NodeConstant:
		if nz.config.NormalizeConstants {
			n.Constant = placeholder
			n.Kind = parser.ConstStr
		}
		return

	case parser.NodeArg:
		if nz.config.NormalizeNames {
			stars := len(n.Name) - len(strings.TrimLeft(n.Name, "*"))
			n.Name = n.Name[:stars] + placeholder
		}

	case parser.NodeExceptHandler:
		if nz.config.NormalizeNames && n.Name != "" {
			n.Name = placeholder
		}

	case parser.NodeGlobal, parser.NodeNonlocal:
		if nz.config.NormalizeNames {
			for i := range n.Names {
				n.Names[i] = placeholder
			}
		}
	}

	for _, c := range n.Children() {
		nz.visit(c)
	}
}

// visitCallTarget keeps call-target names intact through chained
// attribute access: for a.b.c() the root name and every attribute name
// survive erasure, so a.b.c() and x.b.c() stay distinct. Anything
// other than a bare name or attribute chain falls back to full
// normalization.
func (nz *Normalizer) visitCallTarget(fn *parser.Node) {
	if fn == nil {
		return
	}
	switch fn.Type {
	case parser.NodeName:
		// preserved
	case parser.NodeAttribute:
		nz.visitCallTarget(fn.Value)
	default:
		nz.visit(fn)
	}
}

func (nz *Normalizer) stripDocstring(fn *parser.Node) {
	if !nz.config.IgnoreDocstrings || len(fn.Body) == 0 {
		return
	}
	first := fn.Body[0]
	if first.Type == parser.NodeExpr && first.Value != nil &&
		first.Value.Type == parser.NodeConstant && first.Value.Kind == parser.ConstStr {
		fn.Body = fn.Body[1:]
	}
}

func (nz *Normalizer) stripSignatureAnnotations(fn *parser.Node) {
	if !nz.config.IgnoreTypeAnnotations {
		return
	}
	for _, arg := range fn.Args {
		arg.Annotation = nil
	}
	fn.Returns = nil
}

// desugarAugAssign rewrites "x op= v" into "x = x op v" so both
// spellings hash identically.
func (nz *Normalizer) desugarAugAssign(n *parser.Node) {
	if len(n.Targets) == 0 || n.Value == nil {
		return
	}
	binop := parser.NewNode(parser.NodeBinOp)
	binop.Location = n.Location
	binop.Op = n.Op
	binop.Left = n.Targets[0].Copy()
	binop.Right = n.Value
	n.Type = parser.NodeAssign
	n.Op = ""
	n.Value = binop
}

// foldNegation rewrites "not (a in b)" into "a not in b" and
// "not (a is b)" into "a is not b". Only membership and identity
// tests fold; "not (a == b)" is not equivalent to "a != b" for types
// with custom comparison methods.
func (nz *Normalizer) foldNegation(n *parser.Node) {
	if n.Op != "not" || n.Value == nil || n.Value.Type != parser.NodeCompare {
		return
	}
	cmp := n.Value
	if len(cmp.Ops) != 1 || len(cmp.Comparators) != 1 {
		return
	}
	switch cmp.Ops[0] {
	case "in":
		cmp.Ops[0] = "not in"
	case "is":
		cmp.Ops[0] = "is not"
	default:
		return
	}
	*n = *cmp
}

var commutativeOps = map[string]bool{
	"+": true, "*": true, "&": true, "|": true, "^": true,
}

var bitwiseOps = map[string]bool{
	"&": true, "|": true, "^": true,
}

// canonicalizeCommutative orders the operands of a commutative binary
// operation. Operands must be proven commutative: Python's + and *
// dispatch to __add__/__mul__, so reordering arbitrary expressions
// (or even bool literals under &) could change meaning or observable
// side-effect order. Operands are compared by a key that is itself
// order-invariant, so nested trees like (2+1)+(1+3) and (1+2)+(1+3)
// converge to the same spelling.
func (nz *Normalizer) canonicalizeCommutative(n *parser.Node) {
	if !commutativeOps[n.Op] || n.Left == nil || n.Right == nil {
		return
	}
	if !provenCommutative(n.Left, n.Op) || !provenCommutative(n.Right, n.Op) {
		return
	}
	if commutativeKey(n.Left) > commutativeKey(n.Right) {
		n.Left, n.Right = n.Right, n.Left
	}
}

// commutativeKey folds the operand order out of nested binary
// operations before comparing, so the sort decision at each level does
// not depend on whether the children were already reordered.
func commutativeKey(n *parser.Node) string {
	if n.Type == parser.NodeBinOp && n.Left != nil && n.Right != nil {
		left, right := commutativeKey(n.Left), commutativeKey(n.Right)
		if commutativeOps[n.Op] && left > right {
			left, right = right, left
		}
		return "(" + n.Op + " " + left + " " + right + ")"
	}
	return Dump(n)
}

func provenCommutative(n *parser.Node, op string) bool {
	switch n.Type {
	case parser.NodeConstant:
		if bitwiseOps[op] {
			return n.Kind == parser.ConstInt
		}
		switch n.Kind {
		case parser.ConstInt, parser.ConstFloat, parser.ConstComplex:
			return true
		}
		return false
	case parser.NodeBinOp:
		return n.Op == op && provenCommutative(n.Left, op) && provenCommutative(n.Right, op)
	}
	return false
}
