package segments

import (
	"encoding/csv"
	"io"
	"strconv"
)

// DefaultBins is the number of bins per chromosome.
const DefaultBins = 40

// Histogram counts segments per equal-width bin of each selected chromosome.
type Histogram struct {
	bins   int
	chroms []string
	maxes  map[string]int64
	counts map[string][]int
}

// NewHistogram creates a histogram over chroms. The range of each chromosome
// is 0..maxes[chrom]; chromosomes missing from maxes get no counts.
func NewHistogram(bins int, chroms []string, maxes map[string]int64) *Histogram {
	if bins <= 0 {
		bins = DefaultBins
	}
	h := &Histogram{
		bins:   bins,
		chroms: chroms,
		maxes:  maxes,
		counts: make(map[string][]int, len(chroms)),
	}
	for _, c := range chroms {
		h.counts[c] = make([]int, bins)
	}
	return h
}

// ActualMax returns the largest segment end seen on each chromosome.
func ActualMax(segs []Segment) map[string]int64 {
	maxes := make(map[string]int64)
	for _, s := range segs {
		if s.End > maxes[s.Chrom] {
			maxes[s.Chrom] = s.End
		}
	}
	return maxes
}

func (h *Histogram) binSize(chrom string) float64 {
	return float64(h.maxes[chrom]) / float64(h.bins)
}

// Add counts a segment in every bin it overlaps. It reports false when the
// chromosome is not selected or has no range.
func (h *Histogram) Add(s Segment) bool {
	counts, ok := h.counts[s.Chrom]
	if !ok || h.maxes[s.Chrom] <= 0 {
		return false
	}
	size := h.binSize(s.Chrom)
	start, end := float64(s.Start), float64(s.End)
	for i := range counts {
		lo := float64(i) * size
		hi := float64(i+1) * size
		if start < hi && end >= lo {
			counts[i]++
		}
	}
	return true
}

// Counts returns the bin counts of a chromosome.
func (h *Histogram) Counts(chrom string) []int {
	return h.counts[chrom]
}

// Bins returns the number of bins per chromosome.
func (h *Histogram) Bins() int {
	return h.bins
}

// Chroms returns the selected chromosomes in output order.
func (h *Histogram) Chroms() []string {
	return h.chroms
}

// BinStart returns where bin i of chrom starts.
func (h *Histogram) BinStart(chrom string, i int) int64 {
	return int64(float64(i) * h.binSize(chrom))
}

// WriteCSV writes one row per chromosome bin.
func (h *Histogram) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"chromosome", "bin", "bin_start", "bin_end", "count"}); err != nil {
		return err
	}
	for _, c := range h.chroms {
		for i, n := range h.counts[c] {
			if err := cw.Write([]string{
				Label(c),
				strconv.Itoa(i),
				strconv.FormatInt(h.BinStart(c, i), 10),
				strconv.FormatInt(h.BinStart(c, i+1), 10),
				strconv.Itoa(n),
			}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
