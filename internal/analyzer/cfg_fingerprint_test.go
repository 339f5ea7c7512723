package analyzer

import (
	"testing"
)

// fingerprintOf builds and fingerprints the first function of source
// the same way extraction does, normalization included.
func fingerprintOf(t *testing.T, source string) string {
	t.Helper()
	fn := firstFunction(t, source)
	nz := NewNormalizer(DefaultNormalizationConfig())
	body := nz.PrepareBody(fn)
	cfg := NewCFGBuilder().Build(fn.Name, body)
	nz.NormalizeFunctionBody(fn)
	return FingerprintCFG(cfg)
}

func TestFingerprintCFG(t *testing.T) {
	t.Run("StableAcrossRenames", func(t *testing.T) {
		a := fingerprintOf(t, `
def first(a):
    if a:
        x = 1
    else:
        x = 2
    return x
`)
		b := fingerprintOf(t, `
def second(value):
    if value:
        result = 10
    else:
        result = 20
    return result
`)
		if a != b {
			t.Error("Renamed identifiers and changed constants should not change the fingerprint")
		}
	})

	t.Run("BranchShapeMatters", func(t *testing.T) {
		withElse := fingerprintOf(t, `
def f(a):
    if a:
        x = 1
    else:
        x = 2
`)
		withoutElse := fingerprintOf(t, `
def f(a):
    if a:
        x = 1
    x = 2
`)
		if withElse == withoutElse {
			t.Error("An else branch should change the fingerprint")
		}
	})

	t.Run("ExceptArmOrderMatters", func(t *testing.T) {
		a := fingerprintOf(t, `
def f():
    try:
        risky()
    except ValueError:
        handle()
    except KeyError:
        handle()
`)
		b := fingerprintOf(t, `
def f():
    try:
        risky()
    except KeyError:
        handle()
    except ValueError:
        handle()
`)
		if a == b {
			t.Error("Reordering except arms should change the fingerprint")
		}
	})

	t.Run("ExceptTypeMatters", func(t *testing.T) {
		a := fingerprintOf(t, `
def f():
    try:
        risky()
    except ValueError:
        pass
`)
		b := fingerprintOf(t, `
def f():
    try:
        risky()
    except TypeError:
        pass
`)
		if a == b {
			t.Error("Handled exception types should be part of the fingerprint")
		}
	})

	t.Run("MatchCaseOrderMatters", func(t *testing.T) {
		a := fingerprintOf(t, `
def f(cmd):
    match cmd:
        case [x]:
            one(x)
        case {"k": v}:
            two(v)
`)
		b := fingerprintOf(t, `
def f(cmd):
    match cmd:
        case {"k": v}:
            two(v)
        case [x]:
            one(x)
`)
		if a == b {
			t.Error("Reordering match cases should change the fingerprint")
		}
	})

	t.Run("GuardPresenceMatters", func(t *testing.T) {
		a := fingerprintOf(t, `
def f(cmd):
    match cmd:
        case [x]:
            one(x)
`)
		b := fingerprintOf(t, `
def f(cmd):
    match cmd:
        case [x] if x:
            one(x)
`)
		if a == b {
			t.Error("A case guard should change the fingerprint")
		}
	})

	t.Run("LoopElseMatters", func(t *testing.T) {
		a := fingerprintOf(t, `
def f(items):
    for x in items:
        use(x)
`)
		b := fingerprintOf(t, `
def f(items):
    for x in items:
        use(x)
    else:
        done()
`)
		if a == b {
			t.Error("A loop else clause should change the fingerprint")
		}
	})

	t.Run("ShortCircuitVsNestedIf", func(t *testing.T) {
		combined := fingerprintOf(t, `
def f(a, b):
    if a and b:
        x = 1
`)
		nested := fingerprintOf(t, `
def f(a, b):
    if a:
        if b:
            x = 1
`)
		if combined == nested {
			t.Error("Combined condition and nested ifs have different merge structure")
		}
	})

	t.Run("DocstringDoesNotLeak", func(t *testing.T) {
		a := fingerprintOf(t, `
def f(a):
    """First docstring."""
    return a
`)
		b := fingerprintOf(t, `
def f(a):
    """A completely different docstring."""
    return a
`)
		if a != b {
			t.Error("Docstrings must be trimmed before graph construction")
		}
	})
}
