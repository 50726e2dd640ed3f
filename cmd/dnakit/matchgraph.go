package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gentools/dnakit/internal/duckdb"
	"github.com/gentools/dnakit/internal/matchgraph"
)

func newMatchGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matchgraph [flags]",
		Short: "Build a shared-DNA graph from FamilyTreeDNA match lists",
		Long: `Load FamilyTreeDNA Family Finder match lists into a DuckDB database and
write Gephi node and edge tables of who shares DNA with whom.

Match-list files must be named after the kit they belong to, for example
B12345_Family_Finder_Matches_20220101.csv, and every such kit must be listed
in the owners file (kit,name,y-haplo,mt-haplo) under the name and
haplogroups it appears with in other kits' match lists. Files already
loaded are skipped unless they changed; --rebuild starts over.

A single --min-cm or --max-cm bound is exclusive; with both, the range is
inclusive.`,
		Example: `  dnakit matchgraph --owners owners.csv --dir matches/ --min-cm 12 --max-cm 40
  dnakit matchgraph --owners owners.csv --dir matches/ --array y_matches.csv --array-output y_array.csv`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatchGraph(cmd.Context(), matchGraphOptions{
				db:          viper.GetString("matchgraph.db"),
				owners:      viper.GetString("matchgraph.owners"),
				dir:         viper.GetString("matchgraph.dir"),
				rebuild:     viper.GetBool("matchgraph.rebuild"),
				rng:         duckdb.Range{Min: viper.GetFloat64("matchgraph.min-cm"), Max: viper.GetFloat64("matchgraph.max-cm")},
				edges:       viper.GetString("matchgraph.edges"),
				nodes:       viper.GetString("matchgraph.nodes"),
				array:       viper.GetString("matchgraph.array"),
				arrayOutput: viper.GetString("matchgraph.array-output"),
			})
		},
	}
	f := cmd.Flags()
	f.String("db", "matches.duckdb", "DuckDB database file")
	f.String("owners", "", "CSV of kit owners (kit,name,y-haplo,mt-haplo)")
	f.String("dir", "", "Folder of FamilyTreeDNA match-list CSV files")
	f.Bool("rebuild", false, "Empty the database before loading")
	f.Float64("min-cm", 0, "Leave out edges below this many cM (0: no limit)")
	f.Float64("max-cm", 0, "Leave out edges above this many cM (0: no limit)")
	f.String("edges", "edges.csv", "Output edge table")
	f.String("nodes", "nodes.csv", "Output node table")
	f.String("array", "", "Single-column CSV of kits for a kit by kit shared cM table")
	f.String("array-output", "array.csv", "Output file of the shared cM table")
	for _, name := range []string{"db", "owners", "dir", "rebuild", "min-cm", "max-cm", "edges", "nodes", "array", "array-output"} {
		viper.BindPFlag("matchgraph."+name, f.Lookup(name))
	}
	return cmd
}

type matchGraphOptions struct {
	db          string
	owners      string
	dir         string
	rebuild     bool
	rng         duckdb.Range
	edges       string
	nodes       string
	array       string
	arrayOutput string
}

func runMatchGraph(ctx context.Context, opts matchGraphOptions) error {
	if opts.dir != "" && opts.owners == "" {
		return &usageError{errors.New("--dir requires --owners")}
	}
	if opts.rng.Min < 0 || opts.rng.Max < 0 {
		return &usageError{errors.New("cM limits must not be negative")}
	}

	store, err := duckdb.Open(opts.db)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.rebuild {
		if err := store.Reset(); err != nil {
			return err
		}
		logger.Info("emptied match database", zap.String("db", opts.db))
	}

	if opts.owners != "" {
		b := matchgraph.NewBuilder(store)
		b.SetLogger(logger)
		if err := b.LoadOwners(ctx, opts.owners); err != nil {
			return err
		}
		if opts.dir != "" {
			if err := b.LoadDir(ctx, opts.dir); err != nil {
				return err
			}
		}
		st := b.Stats()
		logger.Info("loaded match lists",
			zap.Int("owners", st.Owners),
			zap.Int("files", st.Files),
			zap.Int("skipped", st.Skipped),
			zap.Int("matches", st.Matches),
			zap.Int("new_edges", st.Edges))
	}

	if err := writeGraphTable(opts.edges, func(out io.Writer) (int, error) {
		return matchgraph.WriteEdges(ctx, out, store, opts.rng)
	}); err != nil {
		return err
	}
	if err := writeGraphTable(opts.nodes, func(out io.Writer) (int, error) {
		return matchgraph.WriteNodes(ctx, out, store, opts.rng)
	}); err != nil {
		return err
	}

	if opts.array != "" {
		kits, err := matchgraph.ReadKitList(opts.array)
		if err != nil {
			return err
		}
		if err := writeGraphTable(opts.arrayOutput, func(out io.Writer) (int, error) {
			return len(kits), matchgraph.WriteArray(ctx, out, store, kits, logger)
		}); err != nil {
			return err
		}
	}
	return nil
}

// writeGraphTable creates path and fills it with write.
func writeGraphTable(path string, write func(out io.Writer) (int, error)) error {
	out, closeOut, err := createOutput(path)
	if err != nil {
		return err
	}
	n, err := write(out)
	if err != nil {
		closeOut()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := closeOut(); err != nil {
		return err
	}
	logger.Info("wrote table", zap.String("file", path), zap.Int("rows", n))
	return nil
}
