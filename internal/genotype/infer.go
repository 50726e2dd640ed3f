package genotype

import "strings"

// Verdict classifies the outcome of inferring a child's alleles.
type Verdict int

const (
	// Resolved means each child allele has a known parent of origin.
	Resolved Verdict = iota
	// Undecided means more than one assignment fits the data.
	Undecided
	// Rejected means the calls are inconsistent with inheritance.
	Rejected
)

func (v Verdict) String() string {
	switch v {
	case Resolved:
		return "resolved"
	case Undecided:
		return "undecided"
	}
	return "rejected"
}

// Outcome is the result of Infer. The allele fields are only set when
// Verdict is Resolved; an empty allele means that parent contributed nothing
// at this position (for example the father on a male X).
type Outcome struct {
	Verdict             Verdict
	Maternal            string
	Paternal            string
	UninheritedMaternal string
	UninheritedPaternal string
}

// Genotype returns the child's genotype implied by a resolved outcome, in
// normalized (sorted) order.
func (o Outcome) Genotype() string {
	return NormalizeResult(o.Maternal + o.Paternal)
}

var (
	undecided = Outcome{Verdict: Undecided}
	rejected  = Outcome{Verdict: Rejected}
)

// Infer determines which of the child's alleles came from which parent at
// one position, or what the child's genotype must be when the child has no
// call there. Missing parental calls are passed as empty strings.
//
// Rules apply in this order: sex chromosomes (a male X and MT come only from
// the mother, Y only from the father); two homozygous parents force the
// child; otherwise an assignment is made only when exactly one fits.
func Infer(child, mother, father, chrom string, sex Sex) Outcome {
	switch {
	case chrom == ChromY:
		if sex == SexFemale {
			return rejected
		}
		return fromOneParent(child, father, false)
	case chrom == ChromMT:
		return fromOneParent(child, mother, true)
	case chrom == ChromX && sex == SexMale:
		return fromOneParent(child, mother, true)
	}

	haveMother, haveFather := usable(mother), usable(father)
	haveChild := usable(child)

	if haveMother && haveFather && IsHomozygous(mother) && IsHomozygous(father) {
		m, f := mother[:1], father[:1]
		if haveChild && NormalizeResult(diploid(child)) != NormalizeResult(m+f) {
			return rejected
		}
		return resolve(m, f, mother, father)
	}

	if !haveChild {
		return undecided
	}

	c := diploid(child)
	x, y := c[:1], c[1:]

	switch {
	case haveMother && haveFather:
		mf := carries(mother, x) && carries(father, y)
		fm := carries(mother, y) && carries(father, x)
		switch {
		case x == y && mf:
			return resolve(x, y, mother, father)
		case x == y:
			return rejected
		case mf && fm:
			return undecided
		case mf:
			return resolve(x, y, mother, father)
		case fm:
			return resolve(y, x, mother, father)
		}
		return rejected

	case haveMother:
		if x == y {
			if carries(mother, x) {
				return resolve(x, y, mother, "")
			}
			return rejected
		}
		cx, cy := carries(mother, x), carries(mother, y)
		switch {
		case cx && cy:
			return undecided
		case cx:
			return resolve(x, y, mother, "")
		case cy:
			return resolve(y, x, mother, "")
		}
		return rejected

	case haveFather:
		if x == y {
			if carries(father, x) {
				return resolve(x, y, "", father)
			}
			return rejected
		}
		cx, cy := carries(father, x), carries(father, y)
		switch {
		case cx && cy:
			return undecided
		case cx:
			return resolve(y, x, "", father)
		case cy:
			return resolve(x, y, "", father)
		}
		return rejected
	}

	return undecided
}

// fromOneParent handles chromosomes inherited from a single parent. The
// child's call must be hemizygous (one letter, or the same letter twice).
func fromOneParent(child, parent string, maternal bool) Outcome {
	var allele string
	switch {
	case !usable(child):
		if !usable(parent) || !IsHomozygous(parent) {
			return undecided
		}
		allele = parent[:1]
	case !IsHomozygous(child) || !usable(parent):
		return rejected
	default:
		allele = child[:1]
		if !carries(parent, allele) {
			return rejected
		}
	}

	if maternal {
		return resolve(allele, "", parent, "")
	}
	return resolve("", allele, "", parent)
}

// resolve builds a Resolved outcome; the uninherited allele of each parent
// is its call with the transmitted allele removed once.
func resolve(maternal, paternal, mother, father string) Outcome {
	o := Outcome{Verdict: Resolved, Maternal: maternal, Paternal: paternal}
	if maternal != "" && usable(mother) {
		o.UninheritedMaternal = strings.Replace(mother, maternal, "", 1)
	}
	if paternal != "" && usable(father) {
		o.UninheritedPaternal = strings.Replace(father, paternal, "", 1)
	}
	return o
}

func usable(result string) bool {
	return (len(result) == 1 || len(result) == 2) && !IsNoCall(result)
}

func carries(parent, allele string) bool {
	return usable(parent) && strings.Contains(parent, allele)
}

// diploid expands a one-letter call to two letters.
func diploid(result string) string {
	if len(result) == 1 {
		return result + result
	}
	return result
}
