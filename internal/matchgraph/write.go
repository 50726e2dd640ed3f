package matchgraph

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gentools/dnakit/internal/duckdb"
	"github.com/gentools/dnakit/internal/rawdata"
)

func formatCM(cm float64) string {
	return strconv.FormatFloat(cm, 'f', -1, 64)
}

// WriteEdges writes the edges within r as a Gephi edge table.
func WriteEdges(ctx context.Context, w io.Writer, store *duckdb.Store, r duckdb.Range) (int, error) {
	edges, err := store.Edges(ctx, r)
	if err != nil {
		return 0, err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Source", "Target", "weight"}); err != nil {
		return 0, err
	}
	for _, e := range edges {
		rec := []string{strconv.FormatInt(e.Source, 10), strconv.FormatInt(e.Target, 10), formatCM(e.CM)}
		if err := cw.Write(rec); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(edges), cw.Error()
}

// WriteNodes writes the people on at least one edge within r as a Gephi
// node table.
func WriteNodes(ctx context.Context, w io.Writer, store *duckdb.Store, r duckdb.Range) (int, error) {
	nodes, err := store.Nodes(ctx, r)
	if err != nil {
		return 0, err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Id", "label", "kit"}); err != nil {
		return 0, err
	}
	for _, p := range nodes {
		if err := cw.Write([]string{strconv.FormatInt(p.ID, 10), p.Name, p.Kit}); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(nodes), cw.Error()
}

// ReadKitList reads a single-column CSV of kit numbers. The first line is a
// label and is ignored.
func ReadKitList(path string) ([]string, error) {
	rc, err := rawdata.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	cr := csv.NewReader(rc)
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var kits []string
	for i, rec := range recs {
		if i == 0 || len(rec) == 0 {
			continue
		}
		if k := strings.TrimSpace(rec[0]); k != "" {
			kits = append(kits, k)
		}
	}
	return kits, nil
}

// WriteArray writes a kit by kit table of shared cM. The diagonal is "X"
// and pairs without an edge are blank. Kits that are not stored are logged
// and left out.
func WriteArray(ctx context.Context, w io.Writer, store *duckdb.Store, kits []string, logger *zap.Logger) error {
	var found []string
	var ids []int64
	for _, k := range kits {
		id, ok, err := store.FindKit(ctx, k)
		if err != nil {
			return err
		}
		if !ok {
			logger.Warn("kit not found", zap.String("kit", k))
			continue
		}
		found = append(found, k)
		ids = append(ids, id)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"X"}, found...)); err != nil {
		return err
	}
	for i, a := range ids {
		row := make([]string, 0, len(ids)+1)
		row = append(row, found[i])
		for _, b := range ids {
			if a == b {
				row = append(row, "X")
				continue
			}
			cm, ok, err := store.SharedCM(ctx, a, b)
			if err != nil {
				return err
			}
			if ok {
				row = append(row, formatCM(cm))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
