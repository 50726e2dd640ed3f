package vcf

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
)

const ybrowseVCF = `##fileformat=VCFv4.1
##source=ybrowse
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
chrY	2781927	M269,PF6517	C	T	.	.	ID=M269
chrY	2781930	.	A	G	.	.

chrY	2781931	L21,S145	G	A,C	.	.	.
`

func TestParser_Records(t *testing.T) {
	parser, err := NewParserFromReader(strings.NewReader(ybrowseVCF))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	var got []*Variant
	for {
		v, err := parser.Next()
		if err != nil {
			t.Fatalf("Error reading variant: %v", err)
		}
		if v == nil {
			break
		}
		got = append(got, v)
	}

	if len(got) != 3 {
		t.Fatalf("Expected 3 variants, got %d", len(got))
	}
	first := got[0]
	if first.NormalizeChrom() != "Y" || first.Pos != 2781927 || first.Ref != "C" || first.Alt != "T" {
		t.Errorf("Unexpected first variant: %+v", first)
	}
	if names := first.Names(); len(names) != 2 || names[0] != "M269" || names[1] != "PF6517" {
		t.Errorf("Unexpected names: %v", names)
	}
	if names := got[1].Names(); len(names) != 0 {
		t.Errorf("Expected no names for '.', got %v", names)
	}
	if got[2].IsBiallelic() {
		t.Error("A,C should not be biallelic")
	}
	if parser.LineNumber() != 7 {
		t.Errorf("Expected line 7, got %d", parser.LineNumber())
	}
}

func TestParser_Header(t *testing.T) {
	parser, err := NewParserFromReader(strings.NewReader(ybrowseVCF))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	header := parser.Header()
	if len(header) != 3 {
		t.Fatalf("Expected 3 header lines, got %d", len(header))
	}
	if header[0] != "##fileformat=VCFv4.1" {
		t.Errorf("Missing ##fileformat header, got %q", header[0])
	}
	if !strings.HasPrefix(header[2], "#CHROM") {
		t.Errorf("Missing #CHROM header line, got %q", header[2])
	}
}

func TestParser_MissingChromLine(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("##fileformat=VCFv4.1\nY\t1\t.\tA\tG\n"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
	if pe.Line != 2 {
		t.Errorf("Expected line 2, got %d", pe.Line)
	}

	_, err = NewParserFromReader(strings.NewReader("##fileformat=VCFv4.1\n"))
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ParseError for empty body, got %v", err)
	}
}

func TestParser_BadRecord(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few columns", "Y\t100\trs1\tA"},
		{"bad position", "Y\tabc\trs1\tA\tG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser, err := NewParserFromReader(strings.NewReader("#CHROM\tPOS\tID\tREF\tALT\n" + tt.line + "\n"))
			if err != nil {
				t.Fatalf("Failed to create parser: %v", err)
			}
			_, err = parser.Next()
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Expected ParseError, got %v", err)
			}
			if pe.Line != 2 {
				t.Errorf("Expected line 2, got %d", pe.Line)
			}
		})
	}
}

func TestParser_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snps.vcf.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := pgzip.NewWriter(f)
	if _, err := zw.Write([]byte(ybrowseVCF)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	parser, err := NewParser(path)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	v, err := parser.Next()
	if err != nil || v == nil {
		t.Fatalf("Expected a variant, got %v, %v", v, err)
	}
	if v.ID != "M269,PF6517" {
		t.Errorf("Expected ID M269,PF6517, got %s", v.ID)
	}
}

func TestParser_MissingFile(t *testing.T) {
	_, err := NewParser(filepath.Join(t.TempDir(), "nope.vcf"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Message: "invalid position: x",
	}

	expected := "vcf line 42: invalid position: x"
	if err.Error() != expected {
		t.Errorf("Error message mismatch: got %q, want %q", err.Error(), expected)
	}
}
