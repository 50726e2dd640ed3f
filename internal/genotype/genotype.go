// Package genotype provides genotype calls and the rules for normalizing,
// combining, and inferring them across related kits.
package genotype

import (
	"sort"
	"strconv"
	"strings"
)

// Canonical labels for the sex and mitochondrial chromosomes.
const (
	ChromX  = "23"
	ChromY  = "Y"
	ChromMT = "MT"
)

// Key identifies a position on a chromosome.
type Key struct {
	Chrom string
	Pos   int64
}

// Call is a single genotype reading from a raw data file.
type Call struct {
	RSID   string
	Chrom  string
	Pos    int64
	Result string
}

// Key returns the (chromosome, position) key of the call.
func (c Call) Key() Key {
	return Key{Chrom: c.Chrom, Pos: c.Pos}
}

// chromAliases maps vendor-specific chromosome labels to canonical ones.
// X data shows up as X, XY (pseudoautosomal), 23, or 25; MT as 26 or M; Y as 24.
var chromAliases = map[string]string{
	"X":  ChromX,
	"XY": ChromX,
	"25": ChromX,
	"24": ChromY,
	"26": ChromMT,
	"M":  ChromMT,
}

// NormalizeChrom returns the canonical label for a chromosome.
func NormalizeChrom(chrom string) string {
	chrom = strings.TrimSpace(chrom)
	if len(chrom) > 3 && strings.EqualFold(chrom[:3], "chr") {
		chrom = chrom[3:]
	}
	upper := strings.ToUpper(chrom)
	if c, ok := chromAliases[upper]; ok {
		return c
	}
	if upper == ChromY || upper == ChromMT {
		return upper
	}
	return chrom
}

// noCalls lists the results vendors use for "no allele called here".
var noCalls = map[string]bool{
	"":   true,
	"-":  true,
	"--": true,
	"00": true,
	"DD": true,
	"II": true,
	"I":  true,
	"D":  true,
	"DI": true,
}

// IsNoCall reports whether result carries no usable information.
func IsNoCall(result string) bool {
	return noCalls[result]
}

// NormalizeResult puts a two-letter result in sorted order, so "TG" and
// "GT" compare equal. Other results are returned unchanged.
func NormalizeResult(result string) string {
	if len(result) == 2 && result[0] > result[1] {
		return string([]byte{result[1], result[0]})
	}
	return result
}

// IsHomozygous reports whether a result is a single allele or two identical ones.
func IsHomozygous(result string) bool {
	switch len(result) {
	case 1:
		return true
	case 2:
		return result[0] == result[1]
	}
	return false
}

// chromRank orders canonical chromosomes for output.
var chromRank = func() map[string]int {
	m := make(map[string]int, 25)
	for i := 1; i <= 22; i++ {
		m[strconv.Itoa(i)] = i
	}
	m[ChromX] = 23
	m[ChromMT] = 24
	m[ChromY] = 25
	return m
}()

// Less orders keys by chromosome (1..22, 23, MT, Y, then anything else
// lexicographically) and then by position.
func Less(a, b Key) bool {
	ra, oka := chromRank[a.Chrom]
	rb, okb := chromRank[b.Chrom]
	switch {
	case oka && okb && ra != rb:
		return ra < rb
	case oka != okb:
		return oka
	case !oka && a.Chrom != b.Chrom:
		return a.Chrom < b.Chrom
	}
	return a.Pos < b.Pos
}

// SortKeys sorts keys in output order.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return Less(keys[i], keys[j]) })
}

// Sex of a tester, as far as it can be told from the data.
type Sex int

const (
	SexUnknown Sex = iota
	SexFemale
	SexMale
)

func (s Sex) String() string {
	switch s {
	case SexFemale:
		return "F"
	case SexMale:
		return "M"
	}
	return "unknown"
}

// maleHomozygousRatio is the share of homozygous X calls above which a kit
// is taken to be male.
const maleHomozygousRatio = 0.95

// GuessSex guesses the sex of a tester from chromosome 23 calls. A female
// kit has many heterozygous X calls.
func GuessSex(calls []Call) Sex {
	var total, homo int
	for _, c := range calls {
		if c.Chrom != ChromX || IsNoCall(c.Result) {
			continue
		}
		total++
		if IsHomozygous(c.Result) {
			homo++
		}
	}
	if total == 0 {
		return SexUnknown
	}
	if float64(homo)/float64(total) > maleHomozygousRatio {
		return SexMale
	}
	return SexFemale
}

// Reduction is the result of unifying the calls seen at one key.
type Reduction int

const (
	// Unified means the calls agree on a single result.
	Unified Reduction = iota
	// AllNoCalls means no call carried a usable result.
	AllNoCalls
	// Inconsistent means the calls disagree.
	Inconsistent
)

// ReduceCalls unifies the calls several kits made at the same position.
// For example, if one company reports "--" and another "GT", the result is
// "GT". Results must already be normalized.
func ReduceCalls(calls []Call) (Call, Reduction) {
	type rr struct{ rsid, result string }
	seen := make(map[rr]bool, len(calls))
	var kept []Call
	for _, c := range calls {
		k := rr{c.RSID, c.Result}
		if seen[k] || IsNoCall(c.Result) {
			continue
		}
		seen[k] = true
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return Call{}, AllNoCalls
	}

	results := make([]string, len(kept))
	for i, c := range kept {
		results[i] = c.Result
	}
	sort.Strings(results)
	// "A" sorts before "AA"; a hemizygous and a homozygous read agree.
	if len(results) > 1 && results[0]+results[0] == results[1] {
		results = results[1:]
	}
	for _, r := range results[1:] {
		if r != results[0] {
			return Call{}, Inconsistent
		}
	}

	out := kept[0]
	out.Result = results[0]
	return out, Unified
}
