package matchlist

import (
	"encoding/csv"
	"io"
	"sort"
	"strings"
)

// Options control the CSV layout.
type Options struct {
	GroupSep        string // joins group names in the Groups column
	GroupsInColumns bool   // one "X" column per group instead of Groups
	SideView        bool   // add the Side column
	TreeInfo        bool   // add the Tree?, People, and Thruline columns
	CrossMatches    bool   // on comparison pages, also emit user2-to-match rows
}

// DefaultOptions returns the default CSV layout.
func DefaultOptions() Options {
	return Options{GroupSep: "|", TreeInfo: true}
}

// Header returns the CSV header for a page.
func (p *Page) Header(opts Options) []string {
	return header(opts, p.Groups())
}

func header(opts Options, groups []string) []string {
	h := []string{"Kit1", "Name1", "Kit2", "Name2", "Manager", "Shared cM"}
	if opts.SideView {
		h = append(h, "Side")
	}
	if opts.TreeInfo {
		h = append(h, "Tree?", "People", "Thruline")
	}
	h = append(h, "Note")
	if opts.GroupsInColumns {
		h = append(h, groups...)
	} else {
		h = append(h, "Groups")
	}
	return append(h, "URL")
}

// Rows returns the CSV rows for a page. A cross-match row pairs the second
// kit of a comparison with the match; its shared cM is unknown, and the
// side and tree columns, which describe the first kit's view, are left blank.
func (p *Page) Rows(opts Options) [][]string {
	return p.rows(opts, p.Groups())
}

func (p *Page) rows(opts Options, groups []string) [][]string {
	var rows [][]string
	for _, m := range p.Matches {
		if opts.CrossMatches && p.GUID2 != "" {
			cross := Match{
				Kit1:    p.GUID2,
				Name1:   p.User2,
				Kit2:    m.Kit2,
				Name2:   m.Name2,
				Manager: m.Manager,
				Note:    m.Note,
				Groups:  m.Groups,
				URL:     m.URL,
			}
			rows = append(rows, cross.row(opts, groups))
		}
		rows = append(rows, m.row(opts, groups))
	}
	return rows
}

func (m Match) row(opts Options, groups []string) []string {
	r := []string{m.Kit1, m.Name1, m.Kit2, m.Name2, m.Manager, m.SharedCM}
	if opts.SideView {
		r = append(r, m.Side)
	}
	if opts.TreeInfo {
		r = append(r, m.TreeStatus, m.TreePeople, m.Thruline)
	}
	r = append(r, m.Note)
	if opts.GroupsInColumns {
		has := make(map[string]bool, len(m.Groups))
		for _, g := range m.Groups {
			has[g] = true
		}
		for _, g := range groups {
			if has[g] {
				r = append(r, "X")
			} else {
				r = append(r, "")
			}
		}
	} else {
		r = append(r, strings.Join(m.Groups, opts.GroupSep))
	}
	return append(r, m.URL)
}

// WriteCSVPages writes several pages under one header. With
// GroupsInColumns there is one column for every group of any page.
func WriteCSVPages(w io.Writer, pages []*Page, opts Options) error {
	seen := make(map[string]bool)
	var groups []string
	for _, p := range pages {
		for _, g := range p.Groups() {
			if !seen[g] {
				seen[g] = true
				groups = append(groups, g)
			}
		}
	}
	sort.Strings(groups)

	cw := csv.NewWriter(w)
	if err := cw.Write(header(opts, groups)); err != nil {
		return err
	}
	for _, p := range pages {
		if err := cw.WriteAll(p.rows(opts, groups)); err != nil {
			return err
		}
	}
	return cw.Error()
}

// WriteCSV writes the page as CSV.
func (p *Page) WriteCSV(w io.Writer, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(p.Header(opts)); err != nil {
		return err
	}
	if err := cw.WriteAll(p.Rows(opts)); err != nil {
		return err
	}
	return cw.Error()
}
