package rawdata

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gentools/dnakit/internal/genotype"
	"github.com/gentools/dnakit/internal/signature"
)

// columns holds the indices of the fields read from each row. allele2 is -1
// for layouts that report both alleles in one field.
type columns struct {
	rsid, chrom, pos, allele1, allele2 int
}

var (
	positional4 = columns{0, 1, 2, 3, -1}
	positional5 = columns{0, 1, 2, 3, 4}
)

// Parser reads genotype calls from a raw data file.
type Parser struct {
	rc         io.ReadCloser
	csv        *csv.Reader
	cols       columns
	ncols      int
	layout     string
	pending    []string
	skipped    int
	lineNumber int
	logger     *zap.Logger
}

// NewParser opens path and reads its header. Lines starting with '#' are
// skipped. The delimiter (tab or comma) is taken from the first data line.
func NewParser(path string) (*Parser, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	p, err := NewParserFromReader(rc)
	if err != nil {
		rc.Close()
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	p.rc = rc
	return p, nil
}

// NewParserFromReader creates a parser over already-decompressed text.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{logger: zap.NewNop()}

	br := bufio.NewReader(r)
	first, err := p.firstDataLine(br)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(first), br))
	if strings.Contains(first, "\t") {
		cr.Comma = '\t'
	}
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	p.csv = cr

	if err := p.parseHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// SetLogger sets the logger for skipped-row messages.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Layout returns the name of the recognized vendor layout, or "positional"
// when the columns were taken by position.
func (p *Parser) Layout() string {
	return p.layout
}

func (p *Parser) firstDataLine(br *bufio.Reader) (string, error) {
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			p.lineNumber++
		}
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			p.skipped = p.lineNumber - 1
			// Strip a UTF-8 byte order mark.
			return strings.TrimPrefix(line, "\ufeff"), nil
		}
		if err == io.EOF {
			return "", &FormatError{Line: p.lineNumber, Message: "no data found"}
		}
		if err != nil {
			return "", fmt.Errorf("read raw data: %w", err)
		}
	}
}

// parseHeader works out which fields hold rsid, chromosome, position, and
// result. A recognized header is consumed; an unrecognized header starting
// with "rsid" is skipped; otherwise the first row is data.
func (p *Parser) parseHeader() error {
	rec, err := p.csv.Read()
	if err != nil {
		return &FormatError{Line: p.lineNumber, Message: fmt.Sprintf("read header: %v", err)}
	}

	p.ncols = len(rec)
	var table signature.Table
	switch p.ncols {
	case 4:
		table, p.cols = signature.Kits4, positional4
	case 5:
		table, p.cols = signature.Kits5, positional5
	default:
		return &FormatError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("unhandled layout with %d columns: %v", p.ncols, rec),
		}
	}

	trimmed := make([]string, len(rec))
	for i, f := range rec {
		trimmed[i] = strings.TrimSpace(f)
	}

	if sig, ok := table.Match(trimmed); ok {
		idx := sig.Indices(trimmed)
		p.cols = columns{idx[0], idx[1], idx[2], idx[3], -1}
		if len(idx) == 5 {
			p.cols.allele2 = idx[4]
		}
		p.layout = sig.Name
		return nil
	}

	p.layout = "positional"
	if strings.EqualFold(trimmed[0], "rsid") {
		return nil
	}
	p.pending = rec
	return nil
}

// Next reads the next call. Returns nil, nil when there are no more calls.
// Rows on chromosome 0, rows with an empty result or an unreadable
// position, and repeated header rows are skipped.
func (p *Parser) Next() (*genotype.Call, error) {
	for {
		rec := p.pending
		p.pending = nil
		if rec == nil {
			var err error
			rec, err = p.csv.Read()
			if err == io.EOF {
				return nil, nil
			}
			if err != nil {
				return nil, fmt.Errorf("read raw data: %w", err)
			}
		}
		line, _ := p.csv.FieldPos(0)
		p.lineNumber = p.skipped + line

		if len(rec) < p.ncols {
			p.logger.Debug("skipping short row", zap.Int("line", p.lineNumber), zap.Strings("row", rec))
			continue
		}

		result := strings.TrimSpace(rec[p.cols.allele1])
		if p.cols.allele2 >= 0 {
			result += strings.TrimSpace(rec[p.cols.allele2])
		}
		// FamilyFinder files embed a second header before the X data.
		if result == "RESULT" {
			continue
		}
		if result == "" {
			p.logger.Debug("skipping row without result", zap.Int("line", p.lineNumber))
			continue
		}

		chrom := genotype.NormalizeChrom(rec[p.cols.chrom])
		if chrom == "0" {
			p.logger.Debug("skipping chromosome 0", zap.Int("line", p.lineNumber))
			continue
		}

		pos, err := strconv.ParseInt(strings.TrimSpace(rec[p.cols.pos]), 10, 64)
		if err != nil {
			p.logger.Warn("skipping row with bad position",
				zap.Int("line", p.lineNumber),
				zap.String("position", rec[p.cols.pos]))
			continue
		}

		return &genotype.Call{
			RSID:   strings.TrimSpace(rec[p.cols.rsid]),
			Chrom:  chrom,
			Pos:    pos,
			Result: result,
		}, nil
	}
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.rc != nil {
		return p.rc.Close()
	}
	return nil
}

// ReadCalls reads every call in a raw data file.
func ReadCalls(path string, logger *zap.Logger) ([]genotype.Call, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	p.SetLogger(logger)

	var calls []genotype.Call
	for {
		c, err := p.Next()
		if err != nil {
			return calls, fmt.Errorf("%s: %w", path, err)
		}
		if c == nil {
			break
		}
		calls = append(calls, *c)
	}
	logger.Debug("read raw data", zap.String("file", path), zap.String("layout", p.Layout()), zap.Int("calls", len(calls)))
	return calls, nil
}

// FormatError reports a file that does not look like a raw data export.
type FormatError struct {
	Path    string
	Line    int
	Message string
}

func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: raw data format error at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("raw data format error at line %d: %s", e.Line, e.Message)
}
