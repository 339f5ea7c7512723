package analyzer

import (
	"sort"

	"github.com/ludo-technologies/pydup/internal/parser"
)

// Block is a basic block in a function's control flow graph. Blocks
// live in the owning CFG's arena and refer to each other by ID.
type Block struct {
	ID         int
	Label      string
	Statements []*parser.Node
	succs      map[int]struct{}
	// Terminated marks a block ending in return/raise/break/continue;
	// it accepts no further statements or fall-through edges.
	Terminated bool
}

// AddStatement appends a statement to the block. Statements after a
// terminator are unreachable and dropped.
func (b *Block) AddStatement(stmt *parser.Node) {
	if b.Terminated {
		return
	}
	b.Statements = append(b.Statements, stmt)
}

// SuccIDs returns the successor block IDs in ascending order.
func (b *Block) SuccIDs() []int {
	ids := make([]int, 0, len(b.succs))
	for id := range b.succs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// HasSucc reports whether b has an edge to the block with the given ID.
func (b *Block) HasSucc(id int) bool {
	_, ok := b.succs[id]
	return ok
}

// CFG is the control flow graph of a single function. Entry is always
// block 0 and Exit block 1.
type CFG struct {
	Name   string
	Blocks []*Block
	Entry  *Block
	Exit   *Block
}

// NewCFG creates a graph with its entry and exit blocks allocated.
func NewCFG(name string) *CFG {
	cfg := &CFG{Name: name}
	cfg.Entry = cfg.NewBlock("entry")
	cfg.Exit = cfg.NewBlock("exit")
	return cfg
}

// NewBlock allocates a block in the arena and returns it.
func (c *CFG) NewBlock(label string) *Block {
	b := &Block{
		ID:    len(c.Blocks),
		Label: label,
		succs: make(map[int]struct{}),
	}
	c.Blocks = append(c.Blocks, b)
	return b
}

// Connect adds an edge from one block to another. Duplicate edges
// collapse; edges out of terminated blocks are ignored.
func (c *CFG) Connect(from, to *Block) {
	if from == nil || to == nil || from.Terminated {
		return
	}
	from.succs[to.ID] = struct{}{}
}

// connectAlways adds an edge even out of a terminated block; return
// and raise still flow to exit or a handler.
func (c *CFG) connectAlways(from, to *Block) {
	from.succs[to.ID] = struct{}{}
}

// Block returns the block with the given ID, or nil.
func (c *CFG) Block(id int) *Block {
	if id < 0 || id >= len(c.Blocks) {
		return nil
	}
	return c.Blocks[id]
}
