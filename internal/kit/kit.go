// Package kit combines, extends, and phases whole DNA kits.
package kit

import (
	"go.uber.org/zap"

	"github.com/gentools/dnakit/internal/genotype"
	"github.com/gentools/dnakit/internal/rawdata"
)

// Kit holds at most one call per (chromosome, position).
type Kit struct {
	calls map[genotype.Key]genotype.Call
}

// New creates an empty kit.
func New() *Kit {
	return &Kit{calls: make(map[genotype.Key]genotype.Call)}
}

// FromCalls builds a kit from calls that have distinct keys. A later call at
// the same key replaces an earlier one; use Load for raw files.
func FromCalls(calls []genotype.Call) *Kit {
	k := New()
	for _, c := range calls {
		k.Set(c)
	}
	return k
}

// Load reads a raw data file into a kit. Results are normalized. A position
// the file reports more than once (23andMe lists some under both an rs and
// an i id) is unified with genotype.ReduceCalls; if the reads disagree the
// position is left out.
func Load(path string, logger *zap.Logger) (*Kit, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	calls, err := readCalls(path, logger)
	if err != nil {
		return nil, err
	}
	k, conflicts := reduce(calls)
	if conflicts > 0 {
		logger.Warn("dropped positions with conflicting calls",
			zap.String("file", path), zap.Int("positions", conflicts))
	}
	return k, nil
}

func readCalls(path string, logger *zap.Logger) ([]genotype.Call, error) {
	calls, err := rawdata.ReadCalls(path, logger)
	if err != nil {
		return nil, err
	}
	for i := range calls {
		calls[i].Result = genotype.NormalizeResult(calls[i].Result)
	}
	return calls, nil
}

// reduce builds a kit with one call per key and returns the number of keys
// whose calls disagree.
func reduce(calls []genotype.Call) (*Kit, int) {
	byKey := make(map[genotype.Key][]genotype.Call, len(calls))
	for _, c := range calls {
		byKey[c.Key()] = append(byKey[c.Key()], c)
	}

	k := New()
	var conflicts int
	for _, cs := range byKey {
		if len(cs) == 1 {
			k.Set(cs[0])
			continue
		}
		switch c, r := genotype.ReduceCalls(cs); r {
		case genotype.Inconsistent:
			conflicts++
		case genotype.AllNoCalls:
			k.Set(cs[0])
		default:
			k.Set(c)
		}
	}
	return k, conflicts
}

// Set stores a call, replacing any call at the same key.
func (k *Kit) Set(c genotype.Call) {
	k.calls[c.Key()] = c
}

// Get returns the call at key.
func (k *Kit) Get(key genotype.Key) (genotype.Call, bool) {
	c, ok := k.calls[key]
	return c, ok
}

// Result returns the result at key, or "" when there is none.
func (k *Kit) Result(key genotype.Key) string {
	return k.calls[key].Result
}

// Len returns the number of stored calls, no-calls included.
func (k *Kit) Len() int {
	return len(k.calls)
}

// Keys returns every key in output order.
func (k *Kit) Keys() []genotype.Key {
	keys := make([]genotype.Key, 0, len(k.calls))
	for key := range k.calls {
		keys = append(keys, key)
	}
	genotype.SortKeys(keys)
	return keys
}

// Calls returns every call in output order.
func (k *Kit) Calls() []genotype.Call {
	keys := k.Keys()
	out := make([]genotype.Call, len(keys))
	for i, key := range keys {
		out[i] = k.calls[key]
	}
	return out
}

// Sex guesses the tester's sex from chromosome 23.
func (k *Kit) Sex() genotype.Sex {
	return genotype.GuessSex(k.Calls())
}
