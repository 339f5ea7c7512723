package parser

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrParseTimeout is returned when parsing exceeds the caller's context
// deadline.
var ErrParseTimeout = errors.New("parse timed out")

// ErrSyntax is returned when the source cannot be parsed into a valid
// tree.
var ErrSyntax = errors.New("syntax error")

// Parser parses Python source using tree-sitter. A Parser is not safe
// for concurrent use; create one per goroutine.
type Parser struct {
	ts *sitter.Parser
}

// New creates a Parser with the Python grammar loaded.
func New() *Parser {
	ts := sitter.NewParser()
	ts.SetLanguage(python.GetLanguage())
	return &Parser{ts: ts}
}

// Parse parses source and converts it into the internal AST. The
// context bounds parse time: on deadline expiry the error wraps
// ErrParseTimeout rather than hanging.
func (p *Parser) Parse(ctx context.Context, source []byte) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseTimeout, err)
	}
	tree, err := p.ts.ParseCtx(ctx, nil, source)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	// small inputs can finish before the cancellation poll fires
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseTimeout, err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("%w: no root node", ErrSyntax)
	}
	if root.HasError() {
		return nil, fmt.Errorf("%w: source contains syntax errors", ErrSyntax)
	}
	return newASTBuilder(source).build(root), nil
}
