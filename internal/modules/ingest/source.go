// Package ingest reads the regulator's extracted filing tables from a
// local directory or an S3-compatible bucket and builds a statement
// generation from them.
package ingest

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aristath/fundamentals/internal/modules/catalog"
)

// ErrNotFound is returned by a Source when a table file does not exist.
var ErrNotFound = errors.New("table not found")

// DocType is the filing family: quarterly (ITR) or annual (DFP).
type DocType string

const (
	// Quarterly filings (Informações Trimestrais).
	Quarterly DocType = "itr"
	// Annual filings (Demonstrações Financeiras Padronizadas).
	Annual DocType = "dfp"
)

// SourceKinds are the statement tables read for every filing year.
var SourceKinds = []catalog.Kind{
	catalog.Assets,
	catalog.Liabilities,
	catalog.Income,
	catalog.CashFlowIndirect,
	catalog.CashFlowDirect,
}

// FileNames returns the candidate names of a table, consolidated first.
func FileNames(doc DocType, kind catalog.Kind, year int) []string {
	return []string{
		fmt.Sprintf("%s_cia_aberta_%s_con_%d.csv", doc, kind, year),
		fmt.Sprintf("%s_cia_aberta_%s_%d.csv", doc, kind, year),
	}
}

// ArchiveName is the name of the yearly archive published by the regulator.
func ArchiveName(doc DocType, year int) string {
	return fmt.Sprintf("%s_cia_aberta_%d.zip", doc, year)
}

// Source opens table files by name.
type Source interface {
	// Open returns the file content, or an error wrapping ErrNotFound.
	Open(ctx context.Context, doc DocType, year int, name string) (io.ReadCloser, error)
	// String describes the source for logging.
	String() string
}

// DirSource reads tables from a directory. A table missing on disk is
// looked up inside the year's archive when that archive is present.
type DirSource struct {
	Dir string
}

// NewDirSource creates a directory source.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

func (s *DirSource) String() string {
	return "dir:" + s.Dir
}

// Open implements Source.
func (s *DirSource) Open(ctx context.Context, doc DocType, year int, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.Dir, name))
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return s.openFromArchive(doc, year, name)
}

func (s *DirSource) openFromArchive(doc DocType, year int, name string) (io.ReadCloser, error) {
	archive := filepath.Join(s.Dir, ArchiveName(doc, year))
	zr, err := zip.OpenReader(archive)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", archive, err)
	}

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			_ = zr.Close()
			return nil, fmt.Errorf("open %s in %s: %w", name, archive, err)
		}
		return &archiveEntry{ReadCloser: rc, archive: zr}, nil
	}
	_ = zr.Close()
	return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
}

// archiveEntry closes the archive together with the entry.
type archiveEntry struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (e *archiveEntry) Close() error {
	err := e.ReadCloser.Close()
	if cerr := e.archive.Close(); err == nil {
		err = cerr
	}
	return err
}
