package analyzer

import (
	"strings"
	"testing"
)

func TestDump(t *testing.T) {
	t.Run("NilNode", func(t *testing.T) {
		if got := Dump(nil); got != "~" {
			t.Errorf("Dump(nil) = %q, want ~", got)
		}
	})

	t.Run("PositionsExcluded", func(t *testing.T) {
		a := parseSource(t, "x = compute(1)\n")
		b := parseSource(t, "\n\n\nx = compute(1)\n")
		if DumpList(a.Body) != DumpList(b.Body) {
			t.Error("Source positions must not affect the dump")
		}
	})

	t.Run("ConstantKindsDistinct", func(t *testing.T) {
		intDump := DumpList(parseSource(t, "x = 1\n").Body)
		floatDump := DumpList(parseSource(t, "x = 1.0\n").Body)
		strDump := DumpList(parseSource(t, "x = \"1\"\n").Body)
		if intDump == floatDump || intDump == strDump || floatDump == strDump {
			t.Errorf("1, 1.0 and \"1\" must dump distinctly:\n%s\n%s\n%s",
				intDump, floatDump, strDump)
		}
	})

	t.Run("StatementsOnePerLine", func(t *testing.T) {
		mod := parseSource(t, "a = 1\nb = 2\n")
		dump := DumpList(mod.Body)
		if strings.Count(dump, "\n") != 1 {
			t.Errorf("Expected two statements joined by one newline:\n%s", dump)
		}
	})
}
