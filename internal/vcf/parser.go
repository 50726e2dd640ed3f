// Package vcf reads the fixed columns of VCF files such as the ISOGG and
// YBrowse SNP dumps.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
)

// maxLineSize bounds a single VCF line. YBrowse INFO columns stay well
// below this.
const maxLineSize = 1 << 20

// Parser reads records from a VCF file.
type Parser struct {
	scanner *bufio.Scanner
	closers []io.Closer
	line    int
	header  []string
}

// NewParser opens a plain or gzipped VCF file. Compression is detected from
// the gzip magic bytes, not the file name. A path of "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}
	closers := []io.Closer{f}

	br := bufio.NewReader(f)
	var r io.Reader = br
	if isGzip(br) {
		zr, err := pgzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r = zr
		closers = append([]io.Closer{zr}, closers...)
	}

	p, err := NewParserFromReader(r)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	p.closers = closers
	return p, nil
}

func isGzip(br *bufio.Reader) bool {
	magic, err := br.Peek(2)
	return err == nil && magic[0] == 0x1f && magic[1] == 0x8b
}

// NewParserFromReader creates a parser from an uncompressed reader and
// reads the header.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	p := &Parser{scanner: sc}
	if err := p.readHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// scan advances to the next line, trimming a trailing carriage return.
func (p *Parser) scan() (string, bool, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", false, fmt.Errorf("read line %d: %w", p.line+1, err)
		}
		return "", false, nil
	}
	p.line++
	return strings.TrimSuffix(p.scanner.Text(), "\r"), true, nil
}

// readHeader consumes "##" meta lines and the "#CHROM" column line.
func (p *Parser) readHeader() error {
	for {
		line, ok, err := p.scan()
		if err != nil {
			return err
		}
		if !ok {
			return &ParseError{Line: p.line, Message: "no #CHROM header line found"}
		}
		switch {
		case strings.HasPrefix(line, "##"):
			p.header = append(p.header, line)
		case strings.HasPrefix(line, "#CHROM"):
			p.header = append(p.header, line)
			return nil
		default:
			return &ParseError{Line: p.line, Message: "expected #CHROM header line"}
		}
	}
}

// Next reads the next record, skipping blank lines.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Variant, error) {
	for {
		line, ok, err := p.scan()
		if err != nil || !ok {
			return nil, err
		}
		if line != "" {
			return p.parseLine(line)
		}
	}
}

// parseLine splits off CHROM, POS, ID, REF, and ALT. Later columns are
// ignored.
func (p *Parser) parseLine(line string) (*Variant, error) {
	cols := strings.SplitN(line, "\t", 6)
	if len(cols) < 5 {
		return nil, &ParseError{Line: p.line, Message: fmt.Sprintf("expected at least 5 columns, found %d", len(cols))}
	}
	pos, err := strconv.ParseInt(cols[1], 10, 64)
	if err != nil {
		return nil, &ParseError{Line: p.line, Message: fmt.Sprintf("invalid position: %s", cols[1])}
	}
	return &Variant{Chrom: cols[0], Pos: pos, ID: cols[2], Ref: cols[3], Alt: cols[4]}, nil
}

// Header returns the meta lines and the #CHROM line.
func (p *Parser) Header() []string {
	return p.header
}

// LineNumber returns the number of the line read last.
func (p *Parser) LineNumber() int {
	return p.line
}

// Close releases the gzip reader and the file, if any.
func (p *Parser) Close() error {
	return closeAll(p.closers)
}

func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ParseError is a malformed line in a VCF file.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf line %d: %s", e.Line, e.Message)
}
