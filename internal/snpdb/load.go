package snpdb

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/gentools/dnakit/internal/vcf"
)

// LoadStats summarizes a VCF load.
type LoadStats struct {
	Records  int // records read
	Skipped  int // multi-allelic or allele-less records
	Variants int // new variant rows
	Names    int // new name rows
}

// LoadFile adds the records of a VCF file to a build.
func (d *DB) LoadFile(ctx context.Context, buildID int64, path string) (LoadStats, error) {
	p, err := vcf.NewParser(path)
	if err != nil {
		return LoadStats{}, err
	}
	defer p.Close()

	stats, err := d.Load(ctx, buildID, p)
	if err != nil {
		return stats, fmt.Errorf("load %s: %w", path, err)
	}
	d.logger.Info("loaded snp definitions",
		zap.String("file", path),
		zap.Int64("build", buildID),
		zap.Int("records", stats.Records),
		zap.Int("variants", stats.Variants),
		zap.Int("names", stats.Names),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

// Load adds every biallelic record from r to a build in one transaction.
// Re-loading the same records adds nothing.
func (d *DB) Load(ctx context.Context, buildID int64, r vcf.VariantReader) (LoadStats, error) {
	var stats LoadStats

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	alleles := make(map[string]int64)
	for {
		v, err := r.Next()
		if err != nil {
			return stats, err
		}
		if v == nil {
			break
		}
		stats.Records++

		if !v.IsBiallelic() || v.Ref == "" || v.Ref == "." {
			stats.Skipped++
			continue
		}

		anc, err := alleleID(ctx, tx, alleles, v.Ref)
		if err != nil {
			return stats, err
		}
		der, err := alleleID(ctx, tx, alleles, v.Alts()[0])
		if err != nil {
			return stats, err
		}

		res, err := tx.ExecContext(ctx,
			"insert or ignore into variants(buildID, pos, anc, der) values(?, ?, ?, ?)",
			buildID, v.Pos, anc, der)
		if err != nil {
			return stats, fmt.Errorf("insert variant at line %d: %w", r.LineNumber(), err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stats.Variants++
		}

		var vid int64
		if err := tx.GetContext(ctx, &vid,
			"select ID from variants where buildID=? and pos=? and anc=? and der=?",
			buildID, v.Pos, anc, der); err != nil {
			return stats, fmt.Errorf("find variant at line %d: %w", r.LineNumber(), err)
		}

		for _, name := range v.Names() {
			res, err := tx.ExecContext(ctx,
				"insert or ignore into snpnames(snpname, vID) values(?, ?)", name, vid)
			if err != nil {
				return stats, fmt.Errorf("insert name %s: %w", name, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				stats.Names++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit: %w", err)
	}
	return stats, nil
}

func alleleID(ctx context.Context, tx *sqlx.Tx, cache map[string]int64, allele string) (int64, error) {
	if id, ok := cache[allele]; ok {
		return id, nil
	}
	if _, err := tx.ExecContext(ctx, "insert or ignore into alleles(allele) values(?)", allele); err != nil {
		return 0, fmt.Errorf("insert allele %s: %w", allele, err)
	}
	var id int64
	if err := tx.GetContext(ctx, &id, "select ID from alleles where allele=?", allele); err != nil {
		return 0, fmt.Errorf("find allele %s: %w", allele, err)
	}
	cache[allele] = id
	return id, nil
}
