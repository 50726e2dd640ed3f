// Package matchgraph builds a graph of who shares DNA with whom from a
// folder of FamilyTreeDNA Family Finder match lists, for tools such as Gephi.
//
// FamilyTreeDNA gives no unique id for a match, so a match is identified by
// full name plus Y and mtDNA haplogroups. The kit-owners file must list each
// owner exactly as they appear in other owners' match lists.
package matchgraph

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gentools/dnakit/internal/duckdb"
	"github.com/gentools/dnakit/internal/rawdata"
	"github.com/gentools/dnakit/internal/signature"
)

// ErrUnknownFormat is returned for a CSV file whose header does not match
// the expected signature.
var ErrUnknownFormat = errors.New("unexpected csv columns")

var (
	kitFileRe = regexp.MustCompile(`^(\w{3,10})_`)
	spacesRe  = regexp.MustCompile(` {2,}`)
)

// NormalizeName collapses runs of spaces, which match lists keep when a
// tester typed extra spaces around their names.
func NormalizeName(name string) string {
	return spacesRe.ReplaceAllString(name, " ")
}

// KitFromFilename returns the kit number a match-list file belongs to, for
// example "B12345" for "B12345_Family_Finder_Matches_20220101.csv".
func KitFromFilename(name string) (string, bool) {
	m := kitFileRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", false
	}
	return m[1], true
}

type owner struct {
	id   int64
	name string
}

// Stats summarizes a build.
type Stats struct {
	Owners  int
	Files   int // match files loaded
	Skipped int // files skipped: unknown owner, unreadable, or unchanged
	Matches int // match rows read
	Edges   int // edges added
}

// Builder loads kit owners and match lists into a store.
type Builder struct {
	store  *duckdb.Store
	owners map[string]owner
	stats  Stats
	logger *zap.Logger
}

// NewBuilder creates a builder writing to store.
func NewBuilder(store *duckdb.Store) *Builder {
	return &Builder{
		store:  store,
		owners: make(map[string]owner),
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for per-file messages.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Stats returns the counters so far.
func (b *Builder) Stats() Stats {
	return b.stats
}

// readCSV opens a CSV file, checks its header against table, and returns a
// reader positioned at the first row with the column index of each
// signature column.
func readCSV(path string, table signature.Table) (io.Closer, *csv.Reader, []int, error) {
	rc, err := rawdata.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	cr := csv.NewReader(rc)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		rc.Close()
		if err == io.EOF {
			return nil, nil, nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
		}
		return nil, nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	sig, ok := table.Match(header)
	if !ok {
		rc.Close()
		return nil, nil, nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	return rc, cr, sig.Indices(header), nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// LoadOwners reads the kit-owners CSV (kit, name, y-haplo, mt-haplo). A
// match-list file is only loaded when its kit is listed here.
func (b *Builder) LoadOwners(ctx context.Context, path string) error {
	rc, cr, idx, err := readCSV(path, signature.KitOwners)
	if err != nil {
		return err
	}
	defer rc.Close()

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		p := duckdb.Person{
			Kit:   strings.TrimSpace(field(rec, idx[0])),
			Name:  field(rec, idx[1]),
			YHap:  field(rec, idx[2]),
			MTHap: field(rec, idx[3]),
		}
		if p.Kit == "" {
			continue
		}
		if _, dup := b.owners[p.Kit]; dup {
			b.logger.Warn("kit listed twice", zap.String("kit", p.Kit), zap.String("file", path))
			continue
		}
		id, created, err := b.store.AddPerson(ctx, p)
		if err != nil {
			return err
		}
		if !created {
			b.logger.Debug("kit owner already stored", zap.String("kit", p.Kit), zap.Int64("id", id))
		}
		b.owners[p.Kit] = owner{id: id, name: p.Name}
	}
	b.stats.Owners = len(b.owners)
	b.logger.Info("read kit owners", zap.String("file", path), zap.Int("owners", len(b.owners)))
	return nil
}

// LoadDir loads every match-list file under dir. Files whose kit is not a
// known owner, files that cannot be read, and files already loaded
// unchanged are skipped.
func (b *Builder) LoadDir(ctx context.Context, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.LoadFile(ctx, path); err != nil {
			b.stats.Skipped++
			b.logger.Warn("not processing match file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
}

// LoadFile loads one match-list file.
func (b *Builder) LoadFile(ctx context.Context, path string) error {
	kit, ok := KitFromFilename(path)
	if !ok {
		return errors.New("no kit number in file name")
	}
	own, ok := b.owners[kit]
	if !ok {
		return fmt.Errorf("owner %s is not in the kit-owners file", kit)
	}

	fp, err := duckdb.StatFile(path)
	if err != nil {
		return err
	}
	loaded, err := b.store.FileLoaded(ctx, fp)
	if err != nil {
		return err
	}
	if loaded {
		b.stats.Skipped++
		b.logger.Debug("match file unchanged", zap.String("file", path))
		return nil
	}

	rc, cr, idx, err := readCSV(path, signature.FTDNAMatches)
	if err != nil {
		return err
	}
	defer rc.Close()

	var edges []duckdb.Edge
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		b.stats.Matches++

		name := NormalizeName(field(rec, idx[0]))
		cm, err := strconv.ParseFloat(strings.TrimSpace(field(rec, idx[1])), 64)
		if err != nil {
			b.logger.Warn("bad shared DNA value", zap.String("match", name), zap.String("file", path))
			continue
		}
		id, _, err := b.store.AddPerson(ctx, duckdb.Person{
			Name:  name,
			YHap:  field(rec, idx[2]),
			MTHap: field(rec, idx[3]),
		})
		if err != nil {
			return err
		}
		edges = append(edges, duckdb.NewEdge(own.id, id, cm))
	}

	n, err := b.store.AddEdges(ctx, edges)
	if err != nil {
		return err
	}
	b.stats.Edges += n
	b.stats.Files++
	if err := b.store.MarkLoaded(ctx, fp, kit); err != nil {
		return err
	}
	b.logger.Info("read matches",
		zap.String("file", path),
		zap.String("owner", own.name),
		zap.Int("matches", len(edges)),
		zap.Int("new_edges", n))
	return nil
}
