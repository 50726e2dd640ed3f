package segments

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ftdnaSegments = `Match Name,Chromosome,Start Location,End Location,Centimorgans,Matching SNPs
Alice,1,1000,50000000,40.1,5000
Alice,X,2000000,3000000,8.0,700
Bob,,,,,
Bob,2,abc,100,1,1
`

func TestRead_FTDNA(t *testing.T) {
	segs, err := Read(strings.NewReader(ftdnaSegments), nil)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		{Chrom: "1", Start: 1000, End: 50000000},
		{Chrom: "23", Start: 2000000, End: 3000000},
	}, segs)
}

func TestRead_LeadingSpaceColumns(t *testing.T) {
	data := "kit, chr, start, end, cM\nA1,  3 , 100 , 200 ,1.5\n"
	segs, err := Read(strings.NewReader(data), nil)
	require.NoError(t, err)
	assert.Equal(t, []Segment{{Chrom: "3", Start: 100, End: 200}}, segs)
}

func TestRead_UnknownFormat(t *testing.T) {
	_, err := Read(strings.NewReader("a,b,c\n1,2,3\n"), nil)
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	_, err = Read(strings.NewReader(""), nil)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestHistogram_FullSpanCountsEveryBinOnce(t *testing.T) {
	h := NewHistogram(DefaultBins, []string{"1"}, GRCh37)
	require.True(t, h.Add(Segment{Chrom: "1", Start: 0, End: GRCh37["1"]}))
	for i, n := range h.Counts("1") {
		assert.Equal(t, 1, n, "bin %d", i)
	}
}

func TestHistogram_Overlap(t *testing.T) {
	h := NewHistogram(4, []string{"1", "2"}, map[string]int64{"1": 400, "2": 400})

	h.Add(Segment{Chrom: "1", Start: 150, End: 160}) // bin 1
	h.Add(Segment{Chrom: "1", Start: 50, End: 200})  // bins 0-2: end touches bin 2 start
	h.Add(Segment{Chrom: "1", Start: 399, End: 500}) // bin 3
	assert.Equal(t, []int{1, 2, 1, 1}, h.Counts("1"))

	assert.False(t, h.Add(Segment{Chrom: "5", Start: 1, End: 2}))
	assert.Equal(t, []int{0, 0, 0, 0}, h.Counts("2"))
}

func TestHistogram_ActualMax(t *testing.T) {
	segs := []Segment{
		{Chrom: "1", Start: 10, End: 80},
		{Chrom: "1", Start: 0, End: 100},
		{Chrom: "2", Start: 5, End: 40},
	}
	maxes := ActualMax(segs)
	assert.Equal(t, map[string]int64{"1": 100, "2": 40}, maxes)

	h := NewHistogram(2, []string{"1", "3"}, maxes)
	for _, s := range segs {
		h.Add(s)
	}
	assert.Equal(t, []int{2, 2}, h.Counts("1"))
	// Selected, but nothing seen: no range, no counts.
	assert.False(t, h.Add(Segment{Chrom: "3", Start: 1, End: 2}))
}

func TestHistogram_WriteCSV(t *testing.T) {
	h := NewHistogram(2, []string{"23"}, map[string]int64{"23": 100})
	h.Add(Segment{Chrom: "23", Start: 60, End: 70})

	var buf bytes.Buffer
	require.NoError(t, h.WriteCSV(&buf))
	assert.Equal(t, "chromosome,bin,bin_start,bin_end,count\nX,0,0,50,0\nX,1,50,100,1\n", buf.String())
}

func TestHistogram_WritePNG(t *testing.T) {
	h := NewHistogram(10, DefaultChroms(), GRCh37)
	h.Add(Segment{Chrom: "7", Start: 1, End: 20000000})

	path := filepath.Join(t.TempDir(), "hist.png")
	require.NoError(t, h.WritePNG(path, "segments.csv"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestDefaultChroms(t *testing.T) {
	chroms := DefaultChroms()
	assert.Len(t, chroms, 23)
	assert.Equal(t, "1", chroms[0])
	assert.Equal(t, "X", Label(chroms[22]))
}
