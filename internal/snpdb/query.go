package snpdb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Hit is one variant found by Query.
type Hit struct {
	ID    int64  `db:"id"`
	Build string `db:"buildnm"`
	Pos   int64  `db:"pos"`
	Anc   string `db:"anc"`
	Der   string `db:"der"`
	Names []string
}

// String formats a hit the way snp query prints it, for example
// "hg38  2781927.C.T - M269/PF6517 (id=12)".
func (h Hit) String() string {
	return fmt.Sprintf("%s %8d.%s.%s - %s (id=%d)", h.Build, h.Pos, h.Anc, h.Der, strings.Join(h.Names, "/"), h.ID)
}

// Query finds variants matching snp, which is a pos.ref.alt triple, a
// position, a variant id, or a SNP name. With a non-empty build only that
// build's variants are returned. Hits are ordered by variant id.
func (d *DB) Query(ctx context.Context, snp, build string) ([]Hit, error) {
	ids := make(map[int64]bool)
	add := func(query string, args ...any) error {
		var found []int64
		if err := d.db.SelectContext(ctx, &found, query, args...); err != nil {
			return fmt.Errorf("query %s: %w", snp, err)
		}
		for _, id := range found {
			ids[id] = true
		}
		return nil
	}

	if parts := strings.Split(snp, "."); len(parts) == 3 {
		if err := add(`select v.ID from variants v
			inner join alleles a on a.ID=v.anc
			inner join alleles b on b.ID=v.der
			where v.pos=? and a.allele=? and b.allele=?`, parts[0], parts[1], parts[2]); err != nil {
			return nil, err
		}
	} else if n, err := strconv.ParseInt(snp, 10, 64); err == nil {
		if err := add("select ID from variants where pos=? union select ID from variants where ID=?", n, n); err != nil {
			return nil, err
		}
	}
	if err := add("select vID from snpnames where snpname=?", strings.ToUpper(snp)); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, nil
	}
	idList := make([]int64, 0, len(ids))
	for id := range ids {
		idList = append(idList, id)
	}

	q := `select v.ID as id, bld.buildNm as buildnm, v.pos as pos,
			a.allele as anc, b.allele as der
		from variants v
		inner join alleles a on a.ID=v.anc
		inner join alleles b on b.ID=v.der
		inner join build bld on bld.ID=v.buildID
		where v.ID in (?)`
	args := []any{idList}
	if build != "" {
		bid, err := d.BuildID(ctx, build)
		if err != nil {
			return nil, err
		}
		q += " and v.buildID=?"
		args = append(args, bid)
	}
	q += " order by v.ID"

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, fmt.Errorf("expand query: %w", err)
	}
	var hits []Hit
	if err := d.db.SelectContext(ctx, &hits, d.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	if err := d.attachNames(ctx, hits); err != nil {
		return nil, err
	}
	return hits, nil
}

func (d *DB) attachNames(ctx context.Context, hits []Hit) error {
	if len(hits) == 0 {
		return nil
	}
	byID := make(map[int64]*Hit, len(hits))
	idList := make([]int64, len(hits))
	for i := range hits {
		byID[hits[i].ID] = &hits[i]
		idList[i] = hits[i].ID
	}

	q, args, err := sqlx.In("select distinct vID, snpname from snpnames where vID in (?)", idList)
	if err != nil {
		return fmt.Errorf("expand query: %w", err)
	}
	var rows []struct {
		VID  int64  `db:"vID"`
		Name string `db:"snpname"`
	}
	if err := d.db.SelectContext(ctx, &rows, d.db.Rebind(q), args...); err != nil {
		return fmt.Errorf("query names: %w", err)
	}
	for _, r := range rows {
		h := byID[r.VID]
		h.Names = append(h.Names, r.Name)
	}
	for i := range hits {
		sort.Strings(hits[i].Names)
	}
	return nil
}
