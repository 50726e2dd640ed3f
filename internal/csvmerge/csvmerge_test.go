package csvmerge

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	older = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	newer = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
)

const (
	march = "Name,cM,Notes\nAnn,50,\nBob,20,cousin\n"
	june  = "Name,cM,Notes\n# saved in June\nBob,20,2nd cousin\nAnn,50,aunt line\nCy,9,\n"
)

func merged(t *testing.T, m *Merger) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, m.Write(&buf))
	return buf.String()
}

func TestMerge_KeepAll(t *testing.T) {
	m := New(KeepAll, []string{"Notes"})
	require.NoError(t, m.Add(strings.NewReader(march), older))
	require.NoError(t, m.Add(strings.NewReader(june), newer))
	require.NoError(t, m.Add(strings.NewReader(march), newer))

	assert.Equal(t,
		"Name,cM,Notes\nAnn,50,\nBob,20,cousin\nBob,20,2nd cousin\nAnn,50,aunt line\nCy,9,\n",
		merged(t, m))
	assert.Equal(t, Stats{Files: 3, Read: 7, Written: 5}, m.Stats())
}

func TestMerge_Policies(t *testing.T) {
	tests := []struct {
		policy Policy
		want   string
	}{
		{KeepNewestRow, "Name,cM,Notes\nBob,20,2nd cousin\nAnn,50,aunt line\nCy,9,\n"},
		{KeepOldestRow, "Name,cM,Notes\nBob,20,cousin\nAnn,50,\nCy,9,\n"},
		{KeepNewestNonblank, "Name,cM,Notes\nBob,20,2nd cousin\nAnn,50,aunt line\nCy,9,\n"},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			m := New(tt.policy, DefaultDifferingColumns)
			// Newer file first; row order follows it, age decides the values.
			require.NoError(t, m.Add(strings.NewReader(june), newer))
			require.NoError(t, m.Add(strings.NewReader(march), older))
			assert.Equal(t, tt.want, merged(t, m))
		})
	}
}

func TestMerge_NewestNonblankKeepsOlderValue(t *testing.T) {
	m := New(KeepNewestNonblank, []string{"Notes", "Tree"})
	require.NoError(t, m.Add(strings.NewReader("Name,Notes,Tree\nAnn,aunt,\n"), older))
	require.NoError(t, m.Add(strings.NewReader("Name,Notes,Tree\nAnn,,yes\n"), newer))
	assert.Equal(t, "Name,Notes,Tree\nAnn,aunt,yes\n", merged(t, m))
}

func TestMerge_HeaderMismatch(t *testing.T) {
	m := New(KeepAll, nil)
	require.NoError(t, m.Add(strings.NewReader(march), older))
	err := m.Add(strings.NewReader("Name,Notes\nAnn,x\n"), newer)
	assert.True(t, errors.Is(err, ErrHeaderMismatch))
	assert.Equal(t, "Name,cM,Notes\nAnn,50,\nBob,20,cousin\n", merged(t, m))
}

func TestMerge_ShortRowsArePadded(t *testing.T) {
	m := New(KeepAll, nil)
	require.NoError(t, m.Add(strings.NewReader("\ufeffA,B,C\n1,2\n1,2,\n"), older))
	assert.Equal(t, []string{"A", "B", "C"}, m.Header())
	assert.Equal(t, "A,B,C\n1,2,\n", merged(t, m))
}

func TestMerge_Files(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "march.csv")
	second := filepath.Join(dir, "june.csv")
	require.NoError(t, os.WriteFile(first, []byte(march), 0o644))
	require.NoError(t, os.WriteFile(second, []byte(june), 0o644))
	require.NoError(t, os.Chtimes(first, older, older))
	require.NoError(t, os.Chtimes(second, newer, newer))

	m := New(KeepNewestRow, DefaultDifferingColumns)
	m.AddFiles([]string{first, filepath.Join(dir, "missing.csv"), filepath.Join(dir, "list.pdf"), second})
	assert.Equal(t, Stats{Files: 2, Skipped: 2, Read: 5, Written: 3}, m.Stats())

	out := filepath.Join(dir, "out.csv")
	require.NoError(t, m.WriteFile(out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Name,cM,Notes\nAnn,50,aunt line\nBob,20,2nd cousin\nCy,9,\n", string(data))

	// The output is never overwritten.
	err = m.WriteFile(out)
	assert.True(t, errors.Is(err, os.ErrExist))
}

func TestParsePolicy(t *testing.T) {
	for p, name := range policyNames {
		got, err := ParsePolicy(name)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePolicy("keep-some")
	assert.Error(t, err)
}
