// Package rawdata reads raw autosomal DNA exports from testing companies.
package rawdata

import (
	"archive/zip"
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/pgzip"
)

// ErrUnsupported is returned for files whose type cannot be read.
var ErrUnsupported = errors.New("unsupported file type; use .csv, .txt, .csv.gz, or .zip")

// Open opens a delimited text file that may be gzipped or inside a zip
// archive. Zip archives are searched for the first .csv or .txt member.
func Open(path string) (io.ReadCloser, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return openZip(path)
	case strings.HasSuffix(lower, ".gz"), strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".txt"), strings.HasSuffix(lower, ".tsv"):
		return openMaybeGzip(path)
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
}

// gzipFile closes both the decompressor and the file under it.
type gzipFile struct {
	*pgzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	g.Reader.Close()
	return g.file.Close()
}

type bufferedFile struct {
	*bufio.Reader
	file *os.File
}

func (b *bufferedFile) Close() error {
	return b.file.Close()
}

func openMaybeGzip(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	br := bufio.NewReader(file)
	// Check for gzip magic number (0x1f, 0x8b)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := pgzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &gzipFile{Reader: gz, file: file}, nil
	}
	return &bufferedFile{Reader: br, file: file}, nil
}

type zipMember struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipMember) Close() error {
	z.ReadCloser.Close()
	return z.archive.Close()
}

func openZip(path string) (io.ReadCloser, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", path, err)
	}
	for _, f := range archive.File {
		name := strings.ToLower(f.Name)
		if !strings.HasSuffix(name, ".txt") && !strings.HasSuffix(name, ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			archive.Close()
			return nil, fmt.Errorf("open %s in %s: %w", f.Name, path, err)
		}
		return &zipMember{ReadCloser: rc, archive: archive}, nil
	}
	archive.Close()
	return nil, fmt.Errorf("%s: no .csv or .txt file in archive: %w", filepath.Base(path), ErrUnsupported)
}
