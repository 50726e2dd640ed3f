package rawdata

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gentools/dnakit/internal/genotype"
)

const ftdnaKit = `RSID,CHROMOSOME,POSITION,RESULT
"rs4477212","1","82154","AA"
"rs3094315","1","752566","AG"
"rs1234","0","1","--"
RSID,CHROMOSOME,POSITION,RESULT
"rs311165","X","2700157","CT"
`

const twentyThreeKit = `# This data file generated by 23andMe
# rsid	chromosome	position	genotype
rs548049170	1	69869	TT
rs9283150	1	565508	AA
i4000690	MT	152	C
`

const ancestryKit = `#AncestryDNA raw data download
rsid	chromosome	position	allele1	allele2
rs3131972	1	752721	A	G
rs114525117	1	759036	G	G
rs1000	25	100	0	0
rs2000	26	200	T	T
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCalls_FTDNA(t *testing.T) {
	path := writeFile(t, "ftdna.csv", ftdnaKit)
	calls, err := ReadCalls(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []genotype.Call{
		{RSID: "rs4477212", Chrom: "1", Pos: 82154, Result: "AA"},
		{RSID: "rs3094315", Chrom: "1", Pos: 752566, Result: "AG"},
		{RSID: "rs311165", Chrom: "23", Pos: 2700157, Result: "CT"},
	}, calls)
}

func TestParser_Layouts(t *testing.T) {
	tests := []struct {
		name, content, layout string
		want                  int
	}{
		{"ftdna", ftdnaKit, "FTDNA", 3},
		{"23andme", twentyThreeKit, "positional", 3},
		{"ancestry", ancestryKit, "AncestryDNA", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParserFromReader(strings.NewReader(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.layout, p.Layout())

			var n int
			for {
				c, err := p.Next()
				require.NoError(t, err)
				if c == nil {
					break
				}
				n++
			}
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestParser_AncestryAllelesJoined(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(ancestryKit))
	require.NoError(t, err)

	c, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "AG", c.Result)
	assert.Equal(t, "1", c.Chrom)

	_, _ = p.Next()
	c, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, "23", c.Chrom)
	assert.Equal(t, "00", c.Result)

	c, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, "MT", c.Chrom)
}

func TestParser_BadColumnCount(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("a,b,c\n1,2,3\n"))
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Message, "3 columns")
}

func TestParser_Empty(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("# only comments\n\n"))
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestParser_BadPositionSkipped(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader("rs1\t1\tabc\tAA\nrs2\t1\t5\tCC\n"))
	require.NoError(t, err)
	c, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "rs2", c.RSID)
}

func TestParser_EmptyResultSkipped(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader("RSID,CHROMOSOME,POSITION,RESULT\nrs1,1,5,\nrs2,1,6,GG\n"))
	require.NoError(t, err)
	c, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "rs2", c.RSID)
	c, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestReadCalls_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kit.csv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := pgzip.NewWriter(f)
	_, err = zw.Write([]byte(ftdnaKit))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	calls, err := ReadCalls(path, nil)
	require.NoError(t, err)
	assert.Len(t, calls, 3)
}

func TestReadCalls_Zip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genome.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("README.pdf")
	require.NoError(t, err)
	w, err := zw.Create("genome_v5_Full.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte(twentyThreeKit))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	calls, err := ReadCalls(path, nil)
	require.NoError(t, err)
	require.Len(t, calls, 3)
	assert.Equal(t, "rs548049170", calls[0].RSID)
}

func TestOpen_Unsupported(t *testing.T) {
	path := writeFile(t, "kit.xlsx", "x")
	_, err := Open(path)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
