package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// FileLoaded reports whether a match file with this fingerprint was
// already loaded. A file that changed since is reported as not loaded.
func (s *Store) FileLoaded(ctx context.Context, fp FileFingerprint) (bool, error) {
	var size int64
	var mod time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT size, mod_time FROM match_files WHERE path = ?", fp.Path).Scan(&size, &mod)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query match file: %w", err)
	}
	return size == fp.Size && mod.Equal(fp.ModTime.UTC().Truncate(time.Microsecond)), nil
}

// MarkLoaded records that the match file of kit was loaded.
func (s *Store) MarkLoaded(ctx context.Context, fp FileFingerprint, kit string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO match_files (path, size, mod_time, kit) VALUES (?, ?, ?, ?)",
		fp.Path, fp.Size, fp.ModTime.UTC().Truncate(time.Microsecond), kit)
	if err != nil {
		return fmt.Errorf("record match file: %w", err)
	}
	return nil
}
