package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/ludo-technologies/pydup/internal/parser"
)

func parseSource(t *testing.T, source string) *parser.Node {
	t.Helper()
	p := parser.New()
	mod, err := p.Parse(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("Failed to parse source: %v", err)
	}
	if mod == nil {
		t.Fatal("Parsed module is nil")
	}
	return mod
}

// firstFunction returns the first function definition in the module.
func firstFunction(t *testing.T, source string) *parser.Node {
	t.Helper()
	mod := parseSource(t, source)
	for _, s := range mod.Body {
		if s.Type == parser.NodeFunctionDef || s.Type == parser.NodeAsyncFunctionDef {
			return s
		}
	}
	t.Fatal("No function definition in source")
	return nil
}

// buildFunctionCFG parses source, takes the first function and builds
// its graph the same way extraction does: docstring trimmed, body not
// yet normalized.
func buildFunctionCFG(t *testing.T, source string) *CFG {
	t.Helper()
	fn := firstFunction(t, source)
	nz := NewNormalizer(DefaultNormalizationConfig())
	body := nz.PrepareBody(fn)
	return NewCFGBuilder().Build(fn.Name, body)
}

func blockLabels(cfg *CFG) []string {
	labels := make([]string, 0, len(cfg.Blocks))
	for _, b := range cfg.Blocks {
		labels = append(labels, b.Label)
	}
	return labels
}

func hasLabel(cfg *CFG, label string) bool {
	for _, b := range cfg.Blocks {
		if b.Label == label {
			return true
		}
	}
	return false
}

// findBlock returns the first block with the given label.
func findBlock(t *testing.T, cfg *CFG, label string) *Block {
	t.Helper()
	for _, b := range cfg.Blocks {
		if b.Label == label {
			return b
		}
	}
	t.Fatalf("No block labeled %q in %v", label, blockLabels(cfg))
	return nil
}

func TestCFGBuilder(t *testing.T) {
	t.Run("StraightLineBody", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f():
    a = 1
    b = 2
    c = a + b
`)
		if len(cfg.Blocks) != 3 {
			t.Fatalf("Expected entry, exit and one body block, got %d blocks", len(cfg.Blocks))
		}
		body := findBlock(t, cfg, "body")
		if len(body.Statements) != 3 {
			t.Errorf("Expected 3 statements in body block, got %d", len(body.Statements))
		}
		if !cfg.Entry.HasSucc(body.ID) {
			t.Error("Entry is not connected to the body block")
		}
		if !body.HasSucc(cfg.Exit.ID) {
			t.Error("Body block is not connected to exit")
		}
	})

	t.Run("IfWithoutElse", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f(a):
    if a:
        x = 1
    y = 2
`)
		body := findBlock(t, cfg, "body")
		then := findBlock(t, cfg, "if.then")
		after := findBlock(t, cfg, "if.after")
		if !body.HasSucc(then.ID) || !body.HasSucc(after.ID) {
			t.Error("Condition block should branch to both then and after")
		}
		if !then.HasSucc(after.ID) {
			t.Error("Then branch should rejoin at after")
		}
		if hasLabel(cfg, "if.else") {
			t.Error("No else block expected without an else clause")
		}
	})

	t.Run("IfWithElse", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f(a):
    if a:
        x = 1
    else:
        x = 2
    return x
`)
		body := findBlock(t, cfg, "body")
		elseBlk := findBlock(t, cfg, "if.else")
		after := findBlock(t, cfg, "if.after")
		if body.HasSucc(after.ID) {
			t.Error("With an else clause the condition must not fall through to after")
		}
		if !body.HasSucc(elseBlk.ID) {
			t.Error("Condition block should branch to else")
		}
		if !after.HasSucc(cfg.Exit.ID) {
			t.Error("Return after the branch should reach exit")
		}
	})

	t.Run("ShortCircuitConditions", func(t *testing.T) {
		plain := buildFunctionCFG(t, `
def f(a):
    if a:
        x = 1
`)
		combined := buildFunctionCFG(t, `
def f(a, b):
    if a and b:
        x = 1
`)
		if len(combined.Blocks) <= len(plain.Blocks) {
			t.Errorf("and-condition should add a cond block: %d vs %d blocks",
				len(combined.Blocks), len(plain.Blocks))
		}
		if !hasLabel(combined, "cond") {
			t.Error("Expected a cond block for the right operand")
		}
	})

	t.Run("WhileLoop", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f(n):
    while n:
        n = n - 1
    return n
`)
		header := findBlock(t, cfg, "loop.header")
		loopBody := findBlock(t, cfg, "loop.body")
		after := findBlock(t, cfg, "loop.after")
		if !header.HasSucc(loopBody.ID) || !header.HasSucc(after.ID) {
			t.Error("Loop header should branch to body and after")
		}
		if !loopBody.HasSucc(header.ID) {
			t.Error("Loop body should loop back to header")
		}
	})

	t.Run("ForLoopWithElse", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f(items):
    for x in items:
        use(x)
    else:
        done()
`)
		header := findBlock(t, cfg, "loop.header")
		elseBlk := findBlock(t, cfg, "loop.else")
		after := findBlock(t, cfg, "loop.after")
		if !header.HasSucc(elseBlk.ID) {
			t.Error("Exhausted loop should enter the else block")
		}
		if header.HasSucc(after.ID) {
			t.Error("With a loop else, the header must not skip straight to after")
		}
		if !elseBlk.HasSucc(after.ID) {
			t.Error("Loop else should fall through to after")
		}
	})

	t.Run("BreakBypassesLoopElse", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f(items):
    for x in items:
        if x:
            break
    else:
        done()
`)
		after := findBlock(t, cfg, "loop.after")
		elseBlk := findBlock(t, cfg, "loop.else")

		breakReachesAfter := false
		for _, b := range cfg.Blocks {
			for _, s := range b.Statements {
				if s.Type == parser.NodeBreak && b.HasSucc(after.ID) {
					breakReachesAfter = true
				}
				if s.Type == parser.NodeBreak && b.HasSucc(elseBlk.ID) {
					t.Error("Break must not enter the loop else block")
				}
			}
		}
		if !breakReachesAfter {
			t.Error("Break should connect directly to loop.after")
		}
	})

	t.Run("ReturnTerminatesBlock", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f(a):
    if a:
        return 1
    return 2
`)
		for _, b := range cfg.Blocks {
			for _, s := range b.Statements {
				if s.Type == parser.NodeReturn {
					if !b.HasSucc(cfg.Exit.ID) {
						t.Error("Return block should connect to exit")
					}
					if !b.Terminated {
						t.Error("Return block should be terminated")
					}
				}
			}
		}
	})

	t.Run("TryExceptMarkers", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f():
    try:
        risky()
    except ValueError:
        handle()
    except (KeyError, IndexError):
        other()
`)
		markers := collectMarkers(cfg)
		if !containsMarker(markers, "$except:ValueError") {
			t.Errorf("Missing ValueError handler marker in %v", markers)
		}
		if !containsMarker(markers, "$except:(KeyError,IndexError)") {
			t.Errorf("Missing tuple handler marker in %v", markers)
		}
	})

	t.Run("RiskyStatementConnectsToHandler", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f():
    try:
        risky()
    except Exception:
        pass
`)
		tryBody := findBlock(t, cfg, "try.body")
		handler := findBlock(t, cfg, "except")
		if !tryBody.HasSucc(handler.ID) {
			t.Error("Calling statement in try body should have an edge to the handler")
		}
	})

	t.Run("LiteralAssignmentDoesNotConnectToHandler", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f():
    try:
        x = 1
    except Exception:
        pass
`)
		tryBody := findBlock(t, cfg, "try.body")
		handler := findBlock(t, cfg, "except")
		if tryBody.HasSucc(handler.ID) {
			t.Error("A literal assignment cannot raise and should not reach the handler")
		}
	})

	t.Run("FinallyJoinsAllPaths", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f():
    try:
        risky()
    except Exception:
        handle()
    finally:
        cleanup()
`)
		finalBlock := findBlock(t, cfg, "finally")
		tryBody := findBlock(t, cfg, "try.body")
		handler := findBlock(t, cfg, "except")
		if !tryBody.HasSucc(finalBlock.ID) {
			t.Error("Normal path should enter finally")
		}
		if !handler.HasSucc(finalBlock.ID) {
			t.Error("Handler path should enter finally")
		}
		after := findBlock(t, cfg, "try.after")
		if !finalBlock.HasSucc(after.ID) {
			t.Error("Finally should fall through to after")
		}
	})

	t.Run("RaiseTargetsInnermostHandlers", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f():
    try:
        raise ValueError("boom")
    except ValueError:
        pass
`)
		handler := findBlock(t, cfg, "except")
		raiseReachesHandler := false
		raiseReachesExit := false
		for _, b := range cfg.Blocks {
			for _, s := range b.Statements {
				if s.Type == parser.NodeRaise {
					raiseReachesHandler = b.HasSucc(handler.ID)
					raiseReachesExit = b.HasSucc(cfg.Exit.ID)
				}
			}
		}
		if !raiseReachesHandler {
			t.Error("Raise inside try should connect to the handler")
		}
		if raiseReachesExit {
			t.Error("Raise with an enclosing handler should not connect to exit")
		}
	})

	t.Run("RaiseWithoutHandlerReachesExit", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f():
    raise RuntimeError("boom")
`)
		body := findBlock(t, cfg, "body")
		if !body.HasSucc(cfg.Exit.ID) {
			t.Error("Unhandled raise should connect to exit")
		}
		if !body.Terminated {
			t.Error("Raise should terminate its block")
		}
	})

	t.Run("RaiseInTryFinallyReachesExit", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f():
    try:
        raise ValueError("boom")
    finally:
        cleanup()
`)
		for _, b := range cfg.Blocks {
			for _, s := range b.Statements {
				if s.Type == parser.NodeRaise {
					if len(b.SuccIDs()) == 0 {
						t.Fatal("Raise block has no successors")
					}
					if !b.HasSucc(cfg.Exit.ID) {
						t.Error("Raise without a handler should connect to exit")
					}
				}
			}
		}
	})

	t.Run("RaiseInsideFinallyReachesExit", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f():
    try:
        risky()
    except Exception:
        pass
    finally:
        raise RuntimeError("boom")
`)
		handler := findBlock(t, cfg, "except")
		for _, b := range cfg.Blocks {
			for _, s := range b.Statements {
				if s.Type == parser.NodeRaise {
					if !b.HasSucc(cfg.Exit.ID) {
						t.Error("Raise inside finally should connect to exit")
					}
					if b.HasSucc(handler.ID) {
						t.Error("Raise inside finally must not re-enter the handlers")
					}
				}
			}
		}
	})

	t.Run("MatchCaseMarkers", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f(cmd):
    match cmd:
        case "start":
            run()
        case [x, y]:
            pair(x, y)
        case _ if ready():
            fallback()
`)
		markers := collectMarkers(cfg)
		if !containsMarker(markers, "$case:value") {
			t.Errorf("Missing value-pattern marker in %v", markers)
		}
		if !containsMarker(markers, "$guard") {
			t.Errorf("Missing guard marker in %v", markers)
		}
		seqFound := false
		for _, m := range markers {
			if strings.HasPrefix(m, "$case:seq(") {
				seqFound = true
			}
		}
		if !seqFound {
			t.Errorf("Missing sequence-pattern marker in %v", markers)
		}
	})

	t.Run("WithBodyStaysInline", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f(path):
    with open(path) as fh:
        data = fh.read()
`)
		// with introduces no branching, so the body count matches the
		// straight-line shape: entry, exit, body.
		if len(cfg.Blocks) != 3 {
			t.Errorf("Expected 3 blocks for a with statement, got %d (%v)",
				len(cfg.Blocks), blockLabels(cfg))
		}
	})

	t.Run("NestedFunctionIsOpaque", func(t *testing.T) {
		cfg := buildFunctionCFG(t, `
def f():
    def g():
        if x:
            return 1
    return g
`)
		// the inner def is one statement of the outer body; its own
		// branches must not leak into the outer graph
		if hasLabel(cfg, "if.then") {
			t.Error("Inner function control flow leaked into the outer graph")
		}
	})
}

func collectMarkers(cfg *CFG) []string {
	var markers []string
	for _, b := range cfg.Blocks {
		for _, s := range b.Statements {
			if s.Type == parser.NodeName && strings.HasPrefix(s.Name, markerPrefix) {
				markers = append(markers, s.Name)
			}
		}
	}
	return markers
}

func containsMarker(markers []string, want string) bool {
	for _, m := range markers {
		if m == want {
			return true
		}
	}
	return false
}
