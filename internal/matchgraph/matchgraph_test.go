package matchgraph

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gentools/dnakit/internal/duckdb"
)

const owners = `kit,name,y-haplo,mt-haplo
B100,Jef Treece,R-U106,H1
B200,Ann Smith,,K
`

const b100Matches = `Full Name,Match Date,Shared DNA,Longest Block,Y-DNA Haplogroup,mtDNA Haplogroup
Ann Smith,1/1/2020,45,10,,K
Bob  Jones,1/1/2020,20.5,8,I-M253,U5
Carol White,1/1/2020,n/a,8,,
`

const b200Matches = "\ufeff" + `Full Name,Shared DNA,Y-DNA Haplogroup,mtDNA Haplogroup
Jef Treece,99,R-U106,H1
Bob Jones,12,I-M253,U5
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setup(t *testing.T) (*duckdb.Store, *Builder, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "owners.csv", owners)
	matches := filepath.Join(dir, "matches")
	require.NoError(t, os.Mkdir(matches, 0o755))
	writeFile(t, matches, "B100_Family_Finder_Matches_20220101.csv", b100Matches)
	writeFile(t, matches, "B200_Family_Finder_Matches_20220101.csv", b200Matches)
	writeFile(t, matches, "Z999_Family_Finder_Matches_20220101.csv", b200Matches)
	writeFile(t, matches, "notes.txt", "hello")

	store, err := duckdb.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	b := NewBuilder(store)
	require.NoError(t, b.LoadOwners(context.Background(), filepath.Join(dir, "owners.csv")))
	return store, b, matches
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Jef Treece", NormalizeName("Jef  Treece"))
	assert.Equal(t, " Jef Treece ", NormalizeName("   Jef   Treece  "))
}

func TestKitFromFilename(t *testing.T) {
	kit, ok := KitFromFilename("/data/B12345_Family_Finder_Matches_20220101.csv")
	assert.True(t, ok)
	assert.Equal(t, "B12345", kit)

	_, ok = KitFromFilename("AB_matches.csv")
	assert.False(t, ok)
	_, ok = KitFromFilename("matches.csv")
	assert.False(t, ok)
}

func TestLoadDir(t *testing.T) {
	store, b, dir := setup(t)
	ctx := context.Background()
	require.NoError(t, b.LoadDir(ctx, dir))

	st := b.Stats()
	assert.Equal(t, 2, st.Owners)
	assert.Equal(t, 2, st.Files)
	assert.Equal(t, 2, st.Skipped) // Z999 and notes.txt
	assert.Equal(t, 5, st.Matches)
	// B100-B200 (first wins at 45), B100-Bob, B200-Bob.
	assert.Equal(t, 3, st.Edges)

	n, err := store.PeopleCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	jef, _, err := store.FindKit(ctx, "B100")
	require.NoError(t, err)
	ann, _, err := store.FindKit(ctx, "B200")
	require.NoError(t, err)
	cm, ok, err := store.SharedCM(ctx, ann, jef)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 45.0, cm)

	// Unchanged files are not read again.
	b2 := NewBuilder(store)
	require.NoError(t, b2.LoadOwners(ctx, filepath.Join(filepath.Dir(dir), "owners.csv")))
	require.NoError(t, b2.LoadDir(ctx, dir))
	assert.Equal(t, 0, b2.Stats().Files)
	assert.Equal(t, 0, b2.Stats().Edges)
}

func TestLoadOwners_UnknownFormat(t *testing.T) {
	store, err := duckdb.Open("")
	require.NoError(t, err)
	defer store.Close()

	path := writeFile(t, t.TempDir(), "owners.csv", "kit,who\nB1,x\n")
	err = NewBuilder(store).LoadOwners(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriters(t *testing.T) {
	store, b, dir := setup(t)
	ctx := context.Background()
	require.NoError(t, b.LoadDir(ctx, dir))

	var buf bytes.Buffer
	n, err := WriteEdges(ctx, &buf, store, duckdb.Range{Min: 12, Max: 40})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Source,Target,weight\n1,3,20.5\n2,3,12\n", buf.String())

	buf.Reset()
	n, err = WriteNodes(ctx, &buf, store, duckdb.Range{Min: 12, Max: 40})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "Id,label,kit\n1,Jef Treece,B100\n2,Ann Smith,B200\n3,Bob Jones,\n", buf.String())

	buf.Reset()
	n, err = WriteNodes(ctx, &buf, store, duckdb.Range{Min: 40})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWriteArray(t *testing.T) {
	store, b, dir := setup(t)
	ctx := context.Background()
	require.NoError(t, b.LoadDir(ctx, dir))

	kitsFile := writeFile(t, t.TempDir(), "kits.csv", "Id\nB200\nB100\nB999\n")
	kits, err := ReadKitList(kitsFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"B200", "B100", "B999"}, kits)

	var buf bytes.Buffer
	require.NoError(t, WriteArray(ctx, &buf, store, kits, b.logger))
	assert.Equal(t, "X,B200,B100\nB200,X,45\nB100,45,X\n", buf.String())
}

func TestLoadOwners_MatchBecomesOwner(t *testing.T) {
	store, b, dir := setup(t)
	ctx := context.Background()
	require.NoError(t, b.LoadDir(ctx, dir))

	// Bob was stored as a match; he is now listed as the owner of B300.
	path := writeFile(t, t.TempDir(), "owners.csv", owners+"B300,Bob Jones,I-M253,U5\n")
	b2 := NewBuilder(store)
	require.NoError(t, b2.LoadOwners(ctx, path))

	id, ok, err := store.FindKit(ctx, "B300")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), id)

	n, err := store.PeopleCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var buf bytes.Buffer
	require.NoError(t, WriteArray(ctx, &buf, store, []string{"B100", "B300"}, b2.logger))
	assert.Equal(t, "X,B100,B300\nB100,X,20.5\nB300,20.5,X\n", buf.String())
}
