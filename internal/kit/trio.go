package kit

import (
	"github.com/gentools/dnakit/internal/genotype"
)

// Trio is a child's kit together with both parents' kits. Either parent may
// be empty.
type Trio struct {
	Child  *Kit
	Mother *Kit
	Father *Kit
	// Sex of the child. SexUnknown means guess it from the child's kit.
	Sex genotype.Sex
}

func (t *Trio) childSex() genotype.Sex {
	if t.Sex != genotype.SexUnknown {
		return t.Sex
	}
	return t.Child.Sex()
}

func (t *Trio) rsid(key genotype.Key) string {
	for _, k := range []*Kit{t.Child, t.Mother, t.Father} {
		if c, ok := k.Get(key); ok && c.RSID != "" {
			return c.RSID
		}
	}
	return ""
}

// ExtendStats summarizes an extension.
type ExtendStats struct {
	Added     int
	Undecided int
	Rejected  int
	Sex       genotype.Sex
}

// Extend returns a copy of the child's kit with positions filled in from
// the parents wherever the parents' calls determine the child's genotype,
// for example when both parents are homozygous. Positions where the child
// already has a usable call are never changed.
func (t *Trio) Extend() (*Kit, ExtendStats) {
	sex := t.childSex()
	stats := ExtendStats{Sex: sex}

	out := New()
	for _, c := range t.Child.Calls() {
		out.Set(c)
	}

	seen := make(map[genotype.Key]bool)
	var keys []genotype.Key
	for _, parent := range []*Kit{t.Mother, t.Father} {
		for _, key := range parent.Keys() {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	genotype.SortKeys(keys)

	for _, key := range keys {
		if !genotype.IsNoCall(t.Child.Result(key)) {
			continue
		}
		o := genotype.Infer("", t.Mother.Result(key), t.Father.Result(key), key.Chrom, sex)
		switch o.Verdict {
		case genotype.Resolved:
			out.Set(genotype.Call{
				RSID:   t.rsid(key),
				Chrom:  key.Chrom,
				Pos:    key.Pos,
				Result: o.Genotype(),
			})
			stats.Added++
		case genotype.Undecided:
			stats.Undecided++
		default:
			stats.Rejected++
		}
	}
	return out, stats
}

// TrioCall is the child's and parents' calls at one position.
type TrioCall struct {
	Key    genotype.Key
	RSID   string
	Child  string
	Mother string
	Father string
}

// PhasedCall is a child call split by parent of origin.
type PhasedCall struct {
	TrioCall
	genotype.Outcome
}

// PhaseResult sorts every child position into exactly one bucket.
type PhaseResult struct {
	Phased    []PhasedCall
	Undecided []TrioCall
	Rejected  []TrioCall
	NoCalls   int
	Sex       genotype.Sex
}

// Fraction returns the share of usable child calls that were phased.
func (r PhaseResult) Fraction() float64 {
	total := len(r.Phased) + len(r.Undecided) + len(r.Rejected)
	if total == 0 {
		return 0
	}
	return float64(len(r.Phased)) / float64(total)
}

// Phase separates the child's alleles into the half that came from each
// parent. Positions where the child has no call are counted but not
// bucketed.
func (t *Trio) Phase() PhaseResult {
	sex := t.childSex()
	res := PhaseResult{Sex: sex}

	for _, c := range t.Child.Calls() {
		if genotype.IsNoCall(c.Result) {
			res.NoCalls++
			continue
		}
		key := c.Key()
		tc := TrioCall{
			Key:    key,
			RSID:   t.rsid(key),
			Child:  c.Result,
			Mother: t.Mother.Result(key),
			Father: t.Father.Result(key),
		}
		o := genotype.Infer(tc.Child, tc.Mother, tc.Father, key.Chrom, sex)
		switch o.Verdict {
		case genotype.Resolved:
			res.Phased = append(res.Phased, PhasedCall{TrioCall: tc, Outcome: o})
		case genotype.Undecided:
			res.Undecided = append(res.Undecided, tc)
		default:
			res.Rejected = append(res.Rejected, tc)
		}
	}
	return res
}
