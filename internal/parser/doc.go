// Package parser parses Python source into a simplified AST using
// tree-sitter.
//
// The tree-sitter concrete syntax tree is rebuilt into a compact Node
// tree that keeps only what duplication analysis needs: statement and
// expression structure, identifiers, operators, literals with their
// kinds, and source positions. Comments and formatting are dropped.
//
// Basic usage:
//
//	p := parser.New()
//	module, err := p.Parse(ctx, source)
//	if err != nil {
//	    // handle parse failure
//	}
//	for _, stmt := range module.Body {
//	    // walk statements
//	}
//
// Parsers are not safe for concurrent use; create one per goroutine.
package parser
