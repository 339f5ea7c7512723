package analyzer

import (
	"strconv"
	"strings"
)

// FingerprintCFG produces a deterministic digest of a graph's shape
// and block contents. Blocks serialize in creation order with their
// sorted successor IDs and normalized statement dumps, so reordered
// except arms, reordered match cases, guards, and loop-else clauses
// all change the result even when the flat statement sequence hashes
// the same.
func FingerprintCFG(cfg *CFG) string {
	return HashString(serializeCFG(cfg))
}

func serializeCFG(cfg *CFG) string {
	var sb strings.Builder
	for _, blk := range cfg.Blocks {
		sb.WriteString(strconv.Itoa(blk.ID))
		sb.WriteByte(':')
		for _, id := range blk.SuccIDs() {
			sb.WriteByte('>')
			sb.WriteString(strconv.Itoa(id))
		}
		sb.WriteByte('|')
		for _, stmt := range blk.Statements {
			sb.WriteString(Dump(stmt))
			sb.WriteByte(';')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
