// Package segments counts where matching DNA segments fall along each
// chromosome, to find clusters ("hot spots") shared by related testers.
package segments

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gentools/dnakit/internal/genotype"
	"github.com/gentools/dnakit/internal/rawdata"
	"github.com/gentools/dnakit/internal/signature"
)

// ErrUnknownFormat is returned when a file's header matches no segment
// signature.
var ErrUnknownFormat = errors.New("segment file does not match a known format")

// Segment is a matching stretch of one chromosome.
type Segment struct {
	Chrom string // canonical label, see genotype.NormalizeChrom
	Start int64
	End   int64
}

// GRCh37 lists chromosome lengths. They only set the histogram range, so
// small differences from the current assembly do not matter.
var GRCh37 = map[string]int64{
	"1":  249250621,
	"2":  243199373,
	"3":  199501827,
	"4":  191273063,
	"5":  180915260,
	"6":  171115067,
	"7":  159138663,
	"8":  146364022,
	"9":  141213431,
	"10": 135374737,
	"11": 135006516,
	"12": 133851895,
	"13": 115169878,
	"14": 107349540,
	"15": 102531392,
	"16": 90354753,
	"17": 81195210,
	"18": 78077248,
	"19": 63811651,
	"20": 63025520,
	"21": 48129895,
	"22": 51304566,
	"23": 155270560,
	"Y":  59373566,
}

// DefaultChroms returns the autosomes and X.
func DefaultChroms() []string {
	chroms := make([]string, 0, 23)
	for i := 1; i <= 22; i++ {
		chroms = append(chroms, strconv.Itoa(i))
	}
	return append(chroms, genotype.ChromX)
}

// Label returns the display name of a canonical chromosome.
func Label(chrom string) string {
	if chrom == genotype.ChromX {
		return "X"
	}
	return chrom
}

// ReadFile reads the segments of one match export.
func ReadFile(path string, logger *zap.Logger) ([]Segment, error) {
	rc, err := rawdata.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	segs, err := Read(rc, logger)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return segs, nil
}

// Read reads segments from CSV. Rows without a chromosome are skipped, and
// so are rows whose positions are not numbers.
func Read(r io.Reader, logger *zap.Logger) ([]Segment, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	sig, ok := signature.Segments.Match(header)
	if !ok {
		return nil, ErrUnknownFormat
	}
	idx := sig.Indices(header)
	logger.Debug("segment file format", zap.String("signature", sig.Name))

	var segs []Segment
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read segment: %w", err)
		}
		if len(rec) <= idx[0] || len(rec) <= idx[1] || len(rec) <= idx[2] {
			continue
		}
		chrom := strings.TrimSpace(rec[idx[0]])
		if chrom == "" {
			continue
		}
		start, err1 := strconv.ParseInt(strings.TrimSpace(rec[idx[1]]), 10, 64)
		end, err2 := strconv.ParseInt(strings.TrimSpace(rec[idx[2]]), 10, 64)
		if err1 != nil || err2 != nil {
			line, _ := cr.FieldPos(idx[0])
			logger.Warn("skipping segment with bad position", zap.Int("line", line))
			continue
		}
		segs = append(segs, Segment{Chrom: genotype.NormalizeChrom(chrom), Start: start, End: end})
	}
	return segs, nil
}
