package classify

import (
	"regexp"

	zxcvbn "github.com/ccojocar/zxcvbn-go"

	"github.com/Cristalinsg/taintgraph/graph"
)

// DefaultCredentialEntropy is the minimum zxcvbn entropy for a literal to be
// treated as a hardcoded credential when its name gives nothing away.
const DefaultCredentialEntropy = 80.0

var credentialNamePattern = regexp.MustCompile(`(?i)passwd|pass|password|pwd|secret|token|api[_-]?key|cred|bearer`)

// HardcodedCredentials returns a source classifier flagging literal-valued
// nodes that look like embedded secrets: either the node's name matches a
// credential naming pattern, or the literal itself is long and high-entropy.
// Pair it with logging or serialization sinks to track secret leakage.
func HardcodedCredentials(minEntropy float64) Classifier {
	if minEntropy <= 0 {
		minEntropy = DefaultCredentialEntropy
	}
	return Funcs{
		Source: func(_ *graph.Graph, n *graph.Node) bool {
			if n.Literal == "" {
				return false
			}
			if credentialNamePattern.MatchString(n.Name) {
				return true
			}
			if len(n.Literal) < 16 {
				return false
			}
			return zxcvbn.PasswordStrength(n.Literal, nil).Entropy >= minEntropy
		},
	}
}
