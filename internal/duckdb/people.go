package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Person is a kit owner or a match. Kit is empty for matches who are not
// kit owners.
type Person struct {
	ID    int64
	Name  string
	Kit   string
	YHap  string
	MTHap string
}

// FindKit returns the id of the person owning kit.
func (s *Store) FindKit(ctx context.Context, kit string) (int64, bool, error) {
	return s.findID(ctx, "SELECT id FROM people WHERE kit = ?", kit)
}

// FindPerson returns the id of the person with exactly this name and
// haplogroups.
func (s *Store) FindPerson(ctx context.Context, name, yhap, mthap string) (int64, bool, error) {
	return s.findID(ctx,
		"SELECT id FROM people WHERE name = ? AND yhap = ? AND mthap = ? ORDER BY id LIMIT 1",
		name, yhap, mthap)
}

func (s *Store) findID(ctx context.Context, query string, args ...any) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find person: %w", err)
	}
	return id, true, nil
}

// AddPerson returns the id of p, storing it first if it is new. A person
// with a kit is identified by the kit; otherwise, or when the kit is not
// stored yet, by name and both haplogroups. A match stored without a kit
// takes p's kit when it turns out to be a kit owner. created is false when an
// existing row was returned.
func (s *Store) AddPerson(ctx context.Context, p Person) (id int64, created bool, err error) {
	if p.Kit != "" {
		if id, ok, err := s.FindKit(ctx, p.Kit); err != nil || ok {
			return id, false, err
		}
	}
	if id, ok, err := s.FindPerson(ctx, p.Name, p.YHap, p.MTHap); err != nil || ok {
		if err == nil && p.Kit != "" {
			err = s.claimKit(ctx, id, p.Kit)
		}
		return id, false, err
	}

	var kit any
	if p.Kit != "" {
		kit = p.Kit
	}
	err = s.db.QueryRowContext(ctx,
		"INSERT INTO people (name, kit, yhap, mthap) VALUES (?, ?, ?, ?) RETURNING id",
		p.Name, kit, p.YHap, p.MTHap).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("insert person %s: %w", p.Name, err)
	}
	return id, true, nil
}

// claimKit sets the kit of person id if it has none.
func (s *Store) claimKit(ctx context.Context, id int64, kit string) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE people SET kit = ? WHERE id = ? AND kit IS NULL", kit, id); err != nil {
		return fmt.Errorf("set kit %s: %w", kit, err)
	}
	return nil
}

// PeopleCount returns the number of stored people.
func (s *Store) PeopleCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM people").Scan(&n); err != nil {
		return 0, fmt.Errorf("count people: %w", err)
	}
	return n, nil
}
