// Package csvmerge merges several downloads of the same CSV export, such as
// match lists saved on different days, into one file without duplicate rows.
package csvmerge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gentools/dnakit/internal/rawdata"
)

// Policy decides which row survives when rows differ only in columns that
// are allowed to change.
type Policy int

const (
	// KeepAll keeps every distinct row; the differing columns are ignored.
	KeepAll Policy = iota
	// KeepNewestNonblank takes each changeable value from the newest file
	// that has it non-blank.
	KeepNewestNonblank
	// KeepNewestRow keeps the row from the newest file.
	KeepNewestRow
	// KeepOldestRow keeps the row from the oldest file.
	KeepOldestRow
)

var policyNames = map[Policy]string{
	KeepAll:            "keep-all",
	KeepNewestNonblank: "keep-newest-nonblank",
	KeepNewestRow:      "keep-newest-row",
	KeepOldestRow:      "keep-oldest-row",
}

func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses a policy name such as "keep-newest-row".
func ParsePolicy(s string) (Policy, error) {
	for p, name := range policyNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown merge action %q", s)
}

// DefaultDifferingColumns are AncestryDNA and 23andMe match-list columns
// that change between downloads without making the row a different match.
var DefaultDifferingColumns = []string{
	"Paternal Grandfather Birth Country",
	"Maternal Grandfather Birth Country",
	"Paternal Grandmother Birth Country",
	"Maternal Grandmother Birth Country",
	"Display Name",
	"Birth Year",
	"Set Relationship",
	"Maternal Side",
	"Paternal Side",
	"Maternal Haplogroup",
	"Paternal Haplogroup",
	"Family Surnames",
	"Family Locations",
	"Notes",
	"Sharing Status",
	"Showing Ancestry Results",
	"Family Tree URL",
}

// ErrHeaderMismatch is returned by Add for input whose header differs from
// the first input's.
var ErrHeaderMismatch = errors.New("header differs from the first file")

type row struct {
	mtime  time.Time
	values []string
}

// Stats summarizes a merge.
type Stats struct {
	Files   int // inputs merged
	Skipped int // inputs skipped
	Read    int // rows read
	Written int // distinct rows
}

// Merger accumulates rows from several CSV inputs.
type Merger struct {
	policy    Policy
	differing map[string]bool

	header  []string
	changed []bool // per header column
	rows    map[string]*row
	order   []string
	stats   Stats
	logger  *zap.Logger
}

// New creates a merger. With KeepAll the differing columns are ignored.
func New(policy Policy, differing []string) *Merger {
	m := &Merger{
		policy:    policy,
		differing: make(map[string]bool),
		rows:      make(map[string]*row),
		logger:    zap.NewNop(),
	}
	if policy != KeepAll {
		for _, c := range differing {
			m.differing[c] = true
		}
	}
	return m
}

// SetLogger sets the logger for per-file messages.
func (m *Merger) SetLogger(l *zap.Logger) {
	m.logger = l
}

// Header returns the output header, or nil before the first input.
func (m *Merger) Header() []string {
	return m.header
}

// Stats returns the merge counters so far.
func (m *Merger) Stats() Stats {
	s := m.stats
	s.Written = len(m.order)
	return s
}

// AddFiles merges each file in turn, judging age by modification time.
// Files that cannot be read, or whose header differs, are logged and skipped.
func (m *Merger) AddFiles(paths []string) {
	for _, path := range paths {
		if err := m.AddFile(path); err != nil {
			m.stats.Skipped++
			m.logger.Warn("skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		m.logger.Info("merged file", zap.String("file", path), zap.Int("rows", len(m.order)))
	}
}

// AddFile merges one file, using its modification time as the row age.
func (m *Merger) AddFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	rc, err := rawdata.Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()
	return m.Add(rc, info.ModTime())
}

// Add merges the rows of one CSV input with the given age. Lines starting
// with '#' are skipped.
func (m *Merger) Add(r io.Reader, mtime time.Time) error {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return errors.New("no csv data")
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	if m.header == nil {
		m.setHeader(header)
	} else if !slices.Equal(header, m.header) {
		return ErrHeaderMismatch
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		m.stats.Read++
		m.merge(m.fit(rec), mtime)
	}
	m.stats.Files++
	return nil
}

func (m *Merger) setHeader(header []string) {
	m.header = slices.Clone(header)
	m.changed = make([]bool, len(header))
	var key, changed []string
	for i, h := range header {
		m.changed[i] = m.differing[h]
		if m.changed[i] {
			changed = append(changed, h)
		} else {
			key = append(key, h)
		}
	}
	m.logger.Debug("merge columns", zap.Strings("key", key), zap.Strings("changed", changed))
}

// fit pads or truncates a record to the header width.
func (m *Merger) fit(rec []string) []string {
	out := make([]string, len(m.header))
	copy(out, rec)
	return out
}

func (m *Merger) key(values []string) string {
	var b strings.Builder
	for i, v := range values {
		if m.changed[i] {
			continue
		}
		b.WriteString(v)
		b.WriteByte(0)
	}
	return b.String()
}

func (m *Merger) merge(values []string, mtime time.Time) {
	k := m.key(values)
	old, ok := m.rows[k]
	if !ok {
		m.rows[k] = &row{mtime: mtime, values: values}
		m.order = append(m.order, k)
		return
	}
	m.rows[k] = m.choose(old, &row{mtime: mtime, values: values})
}

// choose picks between a stored row and a new row with the same key. Ties
// in age favor the new row for KeepOldestRow and the stored row otherwise.
func (m *Merger) choose(old, cur *row) *row {
	switch m.policy {
	case KeepNewestRow:
		if old.mtime.Before(cur.mtime) {
			return cur
		}
		return old
	case KeepOldestRow:
		if old.mtime.Before(cur.mtime) {
			return old
		}
		return cur
	case KeepNewestNonblank:
		newer, older := old, cur
		if old.mtime.Before(cur.mtime) {
			newer, older = cur, old
		}
		out := &row{mtime: newer.mtime, values: slices.Clone(newer.values)}
		for i, v := range out.values {
			if v == "" {
				out.values[i] = older.values[i]
			}
		}
		return out
	}
	return old
}

// Write writes the header and the merged rows in first-seen order.
func (m *Merger) Write(w io.Writer) error {
	if m.header == nil {
		return errors.New("nothing to write: no input was readable")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(m.header); err != nil {
		return err
	}
	for _, k := range m.order {
		if err := cw.Write(m.rows[k].values); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the merged rows to a new file. It refuses to replace an
// existing file.
func (m *Merger) WriteFile(path string) error {
	if m.header == nil {
		return errors.New("nothing to write: no input was readable")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := m.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
