package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestAddPerson(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	owner, created, err := s.AddPerson(ctx, Person{Name: "Jef Treece", Kit: "B1234", YHap: "R-U106", MTHap: "H1"})
	require.NoError(t, err)
	assert.True(t, created)

	// Same kit.
	id, created, err := s.AddPerson(ctx, Person{Name: "J. Treece", Kit: "B1234"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, owner, id)

	// A match with the owner's name and haplogroups is the owner.
	id, created, err = s.AddPerson(ctx, Person{Name: "Jef Treece", YHap: "R-U106", MTHap: "H1"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, owner, id)

	// Different haplogroup, different person.
	other, created, err := s.AddPerson(ctx, Person{Name: "Jef Treece", YHap: "R-M269", MTHap: "H1"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, owner, other)

	n, err := s.PeopleCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	id, ok, err := s.FindKit(ctx, "B1234")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, owner, id)

	_, ok, err = s.FindKit(ctx, "Z9")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddPerson_MatchClaimsKit(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	match, _, err := s.AddPerson(ctx, Person{Name: "Bob Jones", YHap: "I-M253", MTHap: "U5"})
	require.NoError(t, err)

	id, created, err := s.AddPerson(ctx, Person{Name: "Bob Jones", Kit: "B300", YHap: "I-M253", MTHap: "U5"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, match, id)

	id, ok, err := s.FindKit(ctx, "B300")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, match, id)

	// A kit already set is kept.
	_, _, err = s.AddPerson(ctx, Person{Name: "Bob Jones", Kit: "B400", YHap: "I-M253", MTHap: "U5"})
	require.NoError(t, err)
	_, ok, err = s.FindKit(ctx, "B400")
	require.NoError(t, err)
	assert.False(t, ok)
}

func addPeople(t *testing.T, s *Store, names ...string) []int64 {
	t.Helper()
	ids := make([]int64, len(names))
	for i, n := range names {
		id, _, err := s.AddPerson(context.Background(), Person{Name: n})
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}

func TestAddEdges_FirstWins(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()
	ids := addPeople(t, s, "A", "B", "C")

	n, err := s.AddEdges(ctx, []Edge{
		NewEdge(ids[1], ids[0], 30),
		NewEdge(ids[0], ids[1], 99), // same pair, dropped
		NewEdge(ids[2], ids[2], 5),  // self, dropped
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.AddEdges(ctx, []Edge{NewEdge(ids[0], ids[1], 45), NewEdge(ids[2], ids[0], 12)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	edges, err := s.Edges(ctx, Range{})
	require.NoError(t, err)
	assert.Equal(t, []Edge{
		{Source: ids[0], Target: ids[1], CM: 30},
		{Source: ids[0], Target: ids[2], CM: 12},
	}, edges)

	cm, ok, err := s.SharedCM(ctx, ids[1], ids[0])
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30.0, cm)

	_, ok, err = s.SharedCM(ctx, ids[1], ids[2])
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEdgesAndNodes_Range(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()
	ids := addPeople(t, s, "A", "B", "C", "D")

	_, err := s.AddEdges(ctx, []Edge{
		NewEdge(ids[0], ids[1], 12),
		NewEdge(ids[0], ids[2], 40),
		NewEdge(ids[2], ids[3], 100),
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		r     Range
		edges int
		nodes []string
	}{
		{"no limit", Range{}, 3, []string{"A", "B", "C", "D"}},
		{"inclusive", Range{Min: 12, Max: 40}, 2, []string{"A", "B", "C"}},
		{"min only", Range{Min: 12}, 2, []string{"A", "C", "D"}},
		{"max only", Range{Max: 40}, 1, []string{"A", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges, err := s.Edges(ctx, tt.r)
			require.NoError(t, err)
			assert.Len(t, edges, tt.edges)

			nodes, err := s.Nodes(ctx, tt.r)
			require.NoError(t, err)
			var names []string
			for _, p := range nodes {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.nodes, names)
		})
	}
}

func TestReopenKeepsEdges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph", "matches.duckdb")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	ids := addPeople(t, s, "A", "B")
	_, err = s.AddEdges(ctx, []Edge{NewEdge(ids[0], ids[1], 20)})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.AddEdges(ctx, []Edge{NewEdge(ids[0], ids[1], 50)})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, s.Reset())
	count, err := s.PeopleCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFileFingerprint(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "B1234_Family_Finder_Matches.csv")
	require.NoError(t, os.WriteFile(path, []byte("Full Name\n"), 0o644))
	fp, err := StatFile(path)
	require.NoError(t, err)

	loaded, err := s.FileLoaded(ctx, fp)
	require.NoError(t, err)
	assert.False(t, loaded)

	require.NoError(t, s.MarkLoaded(ctx, fp, "B1234"))
	loaded, err = s.FileLoaded(ctx, fp)
	require.NoError(t, err)
	assert.True(t, loaded)

	later := fp.ModTime.Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	fp2, err := StatFile(path)
	require.NoError(t, err)
	loaded, err = s.FileLoaded(ctx, fp2)
	require.NoError(t, err)
	assert.False(t, loaded)
}
