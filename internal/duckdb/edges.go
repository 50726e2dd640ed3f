package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"
)

// Edge is shared DNA between two people. Source is always less than Target,
// so the graph is undirected.
type Edge struct {
	Source int64
	Target int64
	CM     float64
}

// NewEdge orders the endpoints of an edge.
func NewEdge(a, b int64, cm float64) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{Source: a, Target: b, CM: cm}
}

type edgeKey struct {
	source, target int64
}

func (s *Store) loadSeen(ctx context.Context) error {
	s.seen = make(map[edgeKey]bool)
	rows, err := s.db.QueryContext(ctx, "SELECT source, target FROM edges")
	if err != nil {
		return fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k edgeKey
		if err := rows.Scan(&k.source, &k.target); err != nil {
			return fmt.Errorf("scan edge: %w", err)
		}
		s.seen[k] = true
	}
	return rows.Err()
}

// AddEdges batch-inserts edges using the Appender API. An edge between two
// people who already have one is dropped, so the first shared cM stored
// wins. It returns the number of edges added.
func (s *Store) AddEdges(ctx context.Context, edges []Edge) (int, error) {
	fresh := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		k := edgeKey{e.Source, e.Target}
		if !s.seen[k] {
			s.seen[k] = true
			fresh = append(fresh, e)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "edges")
		return err
	}); err != nil {
		return 0, fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, e := range fresh {
		if err := appender.AppendRow(e.Source, e.Target, e.CM); err != nil {
			return 0, fmt.Errorf("append edge: %w", err)
		}
	}
	if err := appender.Flush(); err != nil {
		return 0, fmt.Errorf("flush edges: %w", err)
	}
	return len(fresh), nil
}

// Range limits shared cM. A zero bound is no limit. With both bounds the
// range is inclusive; a single bound is exclusive.
type Range struct {
	Min float64
	Max float64
}

func (r Range) where() (string, []any) {
	switch {
	case r.Min > 0 && r.Max > 0:
		return " WHERE cm BETWEEN ? AND ?", []any{r.Min, r.Max}
	case r.Min > 0:
		return " WHERE cm > ?", []any{r.Min}
	case r.Max > 0:
		return " WHERE cm < ?", []any{r.Max}
	}
	return "", nil
}

// Edges returns the edges within r, ordered by source and target.
func (s *Store) Edges(ctx context.Context, r Range) ([]Edge, error) {
	where, args := r.where()
	rows, err := s.db.QueryContext(ctx,
		"SELECT source, target, cm FROM edges"+where+" ORDER BY source, target", args...)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.Source, &e.Target, &e.CM); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Nodes returns the people on at least one edge within r, ordered by id.
func (s *Store) Nodes(ctx context.Context, r Range) ([]Person, error) {
	where, args := r.where()
	q := `SELECT id, name, COALESCE(kit, ''), yhap, mthap FROM people
		WHERE id IN (SELECT source FROM edges` + where + ` UNION SELECT target FROM edges` + where + `)
		ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q, append(args, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var people []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Kit, &p.YHap, &p.MTHap); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

// SharedCM returns the shared cM between two people.
func (s *Store) SharedCM(ctx context.Context, a, b int64) (float64, bool, error) {
	e := NewEdge(a, b, 0)
	var cm float64
	err := s.db.QueryRowContext(ctx,
		"SELECT cm FROM edges WHERE source = ? AND target = ?", e.Source, e.Target).Scan(&cm)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query shared cM: %w", err)
	}
	return cm, true, nil
}
