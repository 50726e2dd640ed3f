// Package signature recognizes vendor CSV exports by their column names.
//
// A signature is an ordered list of column names. A header matches when it
// contains every column of the signature, in any order and alongside any
// other columns. The order within a signature is the order callers read the
// fields in, for example chromosome, start, end.
package signature

import (
	"fmt"
)

// Signature names the columns a known CSV layout must have.
type Signature struct {
	Name    string
	Columns []string
}

// Table is an ordered list of signatures. The first match wins.
type Table []Signature

// Match returns the first signature whose columns are all present in header.
func (t Table) Match(header []string) (Signature, bool) {
	avail := make(map[string]bool, len(header))
	for _, h := range header {
		avail[h] = true
	}
	for _, sig := range t {
		if sig.matches(avail) {
			return sig, true
		}
	}
	return Signature{}, false
}

func (s Signature) matches(avail map[string]bool) bool {
	for _, c := range s.Columns {
		if !avail[c] {
			return false
		}
	}
	return true
}

// Indices returns the position of each signature column within header, in
// signature order. Columns missing from header are reported as -1.
func (s Signature) Indices(header []string) []int {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	idx := make([]int, len(s.Columns))
	for i, c := range s.Columns {
		if p, ok := pos[c]; ok {
			idx[i] = p
		} else {
			idx[i] = -1
		}
	}
	return idx
}

// Validate checks that a table is well formed. Every signature needs a
// unique name and at least want columns (want <= 0 means any number), and
// no signature may list a column twice.
func (t Table) Validate(want int) error {
	names := make(map[string]bool, len(t))
	for i, sig := range t {
		if sig.Name == "" {
			return fmt.Errorf("signature %d: empty name", i)
		}
		if names[sig.Name] {
			return fmt.Errorf("signature %q: duplicate name", sig.Name)
		}
		names[sig.Name] = true
		if len(sig.Columns) == 0 {
			return fmt.Errorf("signature %q: no columns", sig.Name)
		}
		if want > 0 && len(sig.Columns) != want {
			return fmt.Errorf("signature %q: expected %d columns, got %d", sig.Name, want, len(sig.Columns))
		}
		cols := make(map[string]bool, len(sig.Columns))
		for _, c := range sig.Columns {
			if cols[c] {
				return fmt.Errorf("signature %q: column %q listed twice", sig.Name, c)
			}
			cols[c] = true
		}
	}
	return nil
}
