// Package snpdb stores Y-SNP definitions from YBrowse-style VCF dumps in a
// SQLite database and looks them up by name, position, or allele change.
package snpdb

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const schema = `
drop table if exists variants;
create table variants(
    ID INTEGER PRIMARY KEY,
    buildID INTEGER references build(ID),
    pos INTEGER,
    anc INTEGER references alleles(ID),
    der INTEGER references alleles(ID),
    UNIQUE(buildID, pos, anc, der)
    );
drop table if exists alleles;
create table alleles(
    ID INTEGER PRIMARY KEY,
    allele TEXT,
    UNIQUE(allele)
    );
drop table if exists snpnames;
create table snpnames(
    vID INTEGER REFERENCES variants(ID),
    snpname TEXT,
    unique(snpname,vID)
    );
create index snpidx1 on snpnames(snpname);
create index snpidx2 on snpnames(vID);
drop table if exists build;
create table build(
    ID INTEGER PRIMARY KEY,
    buildNm TEXT,
    unique(buildNm)
    );
`

// Build is a reference genome assembly.
type Build struct {
	ID   int64  `db:"ID"`
	Name string `db:"buildNm"`
}

// Builds are the assemblies Create registers.
var Builds = []Build{
	{ID: 1, Name: "hg38"},
	{ID: 2, Name: "hg19"},
}

// DB is a SNP database.
type DB struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Open opens or creates the SQLite database at path.
func Open(path string) (*DB, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open snp database: %w", err)
	}
	return &DB{db: db, logger: zap.NewNop()}, nil
}

// SetLogger sets the logger for load progress.
func (d *DB) SetLogger(l *zap.Logger) {
	d.logger = l
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Create drops and recreates every table and registers the known builds.
func (d *DB) Create(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	for _, b := range Builds {
		if _, err := d.db.NamedExecContext(ctx,
			"insert into build(ID, buildNm) values(:ID, :buildNm)", b); err != nil {
			return fmt.Errorf("insert build %s: %w", b.Name, err)
		}
	}
	return nil
}

// BuildID returns the id of the named build.
func (d *DB) BuildID(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := d.db.GetContext(ctx, &id, "select ID from build where buildNm=?", name); err != nil {
		return 0, fmt.Errorf("unknown build %q: %w", name, err)
	}
	return id, nil
}
