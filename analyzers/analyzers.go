// Package analyzers bundles the built-in vulnerability configurations. Each
// configuration is one complete query: classifier matchers for sources,
// sinks and sanitizers, plus the additional-step rules that model the
// library behaviours the flow depends on.
package analyzers

import (
	"fmt"
	"sort"

	"github.com/Cristalinsg/taintgraph/taint"
)

// Factory builds a fresh config; configs hold compiled classifiers, so each
// run gets its own.
type Factory func() taint.Config

var registry = map[string]Factory{
	"code-injection": CodeInjection,
	"path-traversal": PathTraversal,
	"log-forging":    LogForging,
	"secret-leak":    SecretLeak,
}

// Names lists the registered configuration names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the factory for a configuration name.
func Get(name string) (Factory, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("analyzers: unknown configuration %q", name)
	}
	return f, nil
}

// All returns one fresh config per registered configuration, in name order.
func All() []taint.Config {
	configs := make([]taint.Config, 0, len(registry))
	for _, name := range Names() {
		configs = append(configs, registry[name]())
	}
	return configs
}
