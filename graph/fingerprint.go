package graph

import (
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/sha3"
)

// Fingerprint returns a stable SHA3-256 digest of the graph's nodes and
// edges. Two graphs with the same content produce the same fingerprint
// regardless of insertion order, so a snapshot can be recognised across
// runs (the report store keys finding history by it).
func (g *Graph) Fingerprint() string {
	lines := make([]string, 0, len(g.order)+g.edgeCount)
	for n := range g.All() {
		lines = append(lines, fmt.Sprintf("n|%s|%s|%s|%s|%d|%s|%s",
			n.ID, n.Kind, n.Loc, n.Call, n.Index, n.Name, n.Literal))
	}
	for _, e := range g.Edges() {
		lines = append(lines, fmt.Sprintf("e|%s|%s|%s|%s", e.From, e.To, e.Kind, e.Rule))
	}
	sort.Strings(lines)

	h := sha3.New256()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
