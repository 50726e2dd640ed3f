package kit

import (
	"go.uber.org/zap"

	"github.com/gentools/dnakit/internal/genotype"
)

// CombineStats summarizes a combine run.
type CombineStats struct {
	Positions    int // distinct positions seen in the inputs
	Combined     int // positions written to the combined kit
	Inconsistent int // positions where the kits disagree
	NoCalls      int // positions with no usable call in any kit
	SexConflicts int // sex-chromosome calls impossible for the guessed sex
	Sex          genotype.Sex
}

// Combiner merges raw data from several testing companies into one kit.
// The combined kit may cover more positions than any single input.
type Combiner struct {
	calls  map[genotype.Key][]genotype.Call
	logger *zap.Logger
}

// NewCombiner creates an empty combiner.
func NewCombiner() *Combiner {
	return &Combiner{
		calls:  make(map[genotype.Key][]genotype.Call),
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for per-file progress messages.
func (c *Combiner) SetLogger(l *zap.Logger) {
	c.logger = l
}

// AddFile reads a raw data file into the combiner. Every call is kept, so a
// position the file repeats is unified together with the other kits' calls.
func (c *Combiner) AddFile(path string) error {
	calls, err := readCalls(path, c.logger)
	if err != nil {
		return err
	}
	for _, call := range calls {
		key := call.Key()
		c.calls[key] = append(c.calls[key], call)
	}
	c.logger.Info("read kit",
		zap.String("file", path),
		zap.Int("calls", len(calls)),
		zap.Int("positions", len(c.calls)))
	return nil
}

// Add merges the calls of a kit.
func (c *Combiner) Add(k *Kit) {
	for _, call := range k.Calls() {
		call.Result = genotype.NormalizeResult(call.Result)
		key := call.Key()
		c.calls[key] = append(c.calls[key], call)
	}
}

// Result unifies the calls at each position and returns the combined kit.
// Positions where the kits disagree are left out. Calls on X (male), Y, and
// MT are reduced to a single letter. Heterozygous male X and MT calls, and Y
// calls in a female kit, are genotype errors and are left out.
func (c *Combiner) Result() (*Kit, CombineStats) {
	stats := CombineStats{Positions: len(c.calls)}

	unified := make([]genotype.Call, 0, len(c.calls))
	for _, calls := range c.calls {
		call, r := genotype.ReduceCalls(calls)
		switch r {
		case genotype.Inconsistent:
			stats.Inconsistent++
			c.logger.Debug("inconsistent calls", zap.String("chrom", calls[0].Chrom), zap.Int64("pos", calls[0].Pos))
		case genotype.AllNoCalls:
			stats.NoCalls++
		default:
			unified = append(unified, call)
		}
	}

	stats.Sex = genotype.GuessSex(unified)

	out := New()
	for _, call := range unified {
		result, ok := haploid(call, stats.Sex)
		if !ok {
			stats.SexConflicts++
			continue
		}
		call.Result = result
		out.Set(call)
	}
	stats.Combined = out.Len()
	return out, stats
}

// haploid applies the sex-chromosome output rules to a unified call.
func haploid(call genotype.Call, sex genotype.Sex) (string, bool) {
	r := call.Result
	switch {
	case call.Chrom == genotype.ChromX && sex == genotype.SexMale,
		call.Chrom == genotype.ChromMT:
		// Males do not inherit two X's; MT has a single value.
		if !genotype.IsHomozygous(r) {
			return "", false
		}
		return r[:1], true
	case call.Chrom == genotype.ChromY:
		// Part of Y is indistinguishable from X in a female kit.
		if sex == genotype.SexFemale {
			return "", false
		}
		return r[:1], true
	}
	return r, true
}
