// Package metric defines the metric recipes the pipeline can run: which
// configuration keys each reads and how it turns its extracts into the
// published table.
package metric

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BartekS5/metrics-etl/internal/etl"
)

var registry = map[string]etl.Recipe{}

func register(r etl.Recipe) {
	if _, dup := registry[r.Name()]; dup {
		panic(fmt.Sprintf("metric %q registered twice", r.Name()))
	}
	registry[r.Name()] = r
}

func init() {
	register(GPITStandards{})
	register(NDCRepeatPrescriptions{})
}

// Lookup returns the recipe registered under name.
func Lookup(name string) (etl.Recipe, error) {
	r, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return r, nil
}

// Names lists the registered metrics in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
