// Package matchlist extracts match lists from AncestryDNA web pages saved
// from a browser, either the plain match list or the "shared matches"
// comparison of two kits.
//
// The page layout is not a published format. Selectors follow the class
// names Ancestry used when this was written and will need updating when
// the site changes.
package matchlist

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrNotMatchList is returned for pages with neither a match-list title nor
// a comparison header.
var ErrNotMatchList = errors.New("page is not an AncestryDNA match list")

// Match is one match-entry of the page.
type Match struct {
	Kit1       string // kit owner id, from the match URL
	Name1      string
	Kit2       string // match id, from the match URL
	Name2      string
	Manager    string
	SharedCM   string
	Side       string
	TreeStatus string
	TreePeople string
	Thruline   string
	Note       string
	Groups     []string
	URL        string
}

// Page is a parsed match-list page.
type Page struct {
	Description string
	User1       string
	Matches     []Match

	// Set on comparison pages only.
	User2 string
	GUID1 string
	GUID2 string
}

var (
	titleRe = regexp.MustCompile(`(.*)'s DNA Matches`)
	guidRe  = regexp.MustCompile(`http.*guid1=([0-9A-Z-]+).*guid2=([0-9A-Z-]+)`)
)

// ParseFile parses a saved HTML page.
func ParseFile(path string) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open match page: %w", err)
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse parses a match-list page.
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &Page{Description: strings.Join(textParts(doc.Find("h1").First()), " ")}
	if m := titleRe.FindStringSubmatch(p.Description); m != nil {
		p.User1 = m[1]
	} else {
		card := doc.Find("compare-header").First()
		if card.Length() == 0 {
			return nil, ErrNotMatchList
		}
		p.User1 = card.Find(`div[class*="compareUserLeft "]`).AttrOr("title", "")
		p.User2 = card.Find(`div[class*="compareUserRight "]`).AttrOr("title", "")
		href := card.Find(`div[class*="addEditBtn"] a`).AttrOr("href", "")
		if m := guidRe.FindStringSubmatch(href); m != nil {
			p.GUID1, p.GUID2 = m[1], m[2]
		}
	}

	doc.Find("match-entry").Each(func(_ int, s *goquery.Selection) {
		p.Matches = append(p.Matches, parseEntry(s, p.User1))
	})
	return p, nil
}

func parseEntry(s *goquery.Selection, user1 string) Match {
	m := Match{Name1: user1}

	m.Note = strings.TrimSpace(s.Find(`p[class*="notesText "]`).First().Text())

	cms := strings.Fields(s.Find(`div[class*="sharedDnaText"] button`).First().Text())
	if len(cms) > 1 && cms[1] == "cM" {
		m.SharedCM = strings.ReplaceAll(cms[0], ",", "")
	}

	usr := s.Find(`a[class*="userCardTitle "]`).First()
	m.Name2 = strings.TrimSpace(usr.Text())
	m.URL = usr.AttrOr("href", "")
	ids := strings.Split(m.URL, "/")
	if n := len(ids); n >= 3 {
		m.Kit2 = ids[n-1]
		m.Kit1 = ids[n-3]
	}

	addl := s.Find(`div[class*="additionalInfoCol groupAreaDesktopStuff"]`)
	addl.Find(`span[class*="indicatorGroup "]`).Each(func(_ int, g *goquery.Selection) {
		m.Groups = append(m.Groups, g.AttrOr("title", ""))
	})
	if star := addl.Find(`span[class*="iconStar "]`).First(); star.Length() > 0 {
		m.Groups = append(m.Groups, star.AttrOr("title", ""))
	}

	m.Side = sideLabel(strings.TrimSpace(s.Find(`span[class*="parentLineText "]`).First().Text()))

	tree := textParts(s.Find(`div[class*="areaTreeGroup "]`).First())
	if len(tree) > 0 {
		m.TreeStatus = tree[0]
	}
	if len(tree) > 1 {
		if n, err := strconv.Atoi(strings.ReplaceAll(strings.Fields(tree[1])[0], ",", "")); err == nil {
			m.TreePeople = strconv.Itoa(n)
		}
	}
	m.Thruline = strings.TrimSpace(s.Find(`div[class*="iconFamily "]`).First().Text())
	m.Manager = strings.TrimSpace(s.Find(`div[class*="userCardSubTitle "]`).First().Text())
	return m
}

// sideLabel shortens the parent-line text.
func sideLabel(side string) string {
	switch {
	case side == "":
		return "not present"
	case strings.HasPrefix(side, "Parent 1"):
		return "1"
	case strings.HasPrefix(side, "Parent 2"):
		return "2"
	case strings.HasPrefix(side, "Maternal"):
		return "Maternal"
	case strings.HasPrefix(side, "Paternal"):
		return "Paternal"
	case strings.HasPrefix(side, "Both"):
		return "Both"
	}
	return side
}

// textParts returns the non-blank text nodes under a selection, trimmed.
func textParts(s *goquery.Selection) []string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return parts
}

// Groups returns every group name used on the page, sorted.
func (p *Page) Groups() []string {
	seen := make(map[string]bool)
	var groups []string
	for _, m := range p.Matches {
		for _, g := range m.Groups {
			if g != "" && !seen[g] {
				seen[g] = true
				groups = append(groups, g)
			}
		}
	}
	sort.Strings(groups)
	return groups
}
