package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/fundamentals/internal/modules/catalog"
	"github.com/aristath/fundamentals/internal/modules/statements"
)

// maxParallelReads bounds concurrent table reads.
const maxParallelReads = 4

// Loader reads every configured filing year and builds a generation.
type Loader struct {
	source   Source
	itrYears []int
	dfpYears []int
	now      func() time.Time
	log      zerolog.Logger
}

// NewLoader creates a loader over source for the given filing years.
func NewLoader(source Source, itrYears, dfpYears []int, log zerolog.Logger) *Loader {
	return &Loader{
		source:   source,
		itrYears: itrYears,
		dfpYears: dfpYears,
		now:      time.Now,
		log:      log.With().Str("component", "loader").Logger(),
	}
}

type tableJob struct {
	doc  DocType
	year int
	kind catalog.Kind
}

// Load reads quarterly then annual tables, concatenated per kind in year
// order, and builds a new generation. Missing tables are skipped; any
// other read failure aborts the load.
func (l *Loader) Load(ctx context.Context) (*statements.Generation, error) {
	var jobs []tableJob
	for _, set := range []struct {
		doc   DocType
		years []int
	}{{Quarterly, l.itrYears}, {Annual, l.dfpYears}} {
		for _, year := range set.years {
			for _, kind := range SourceKinds {
				jobs = append(jobs, tableJob{doc: set.doc, year: year, kind: kind})
			}
		}
	}

	l.log.Info().
		Str("source", l.source.String()).
		Ints("itr_years", l.itrYears).
		Ints("dfp_years", l.dfpYears).
		Msg("Loading filings")

	results := make([]*statements.RawTable, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			table, err := l.readTable(gctx, job)
			if err != nil {
				return err
			}
			results[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byKind := make(map[catalog.Kind][]statements.RawTable)
	found := 0
	for i, table := range results {
		if table == nil {
			continue
		}
		found++
		kind := jobs[i].kind
		byKind[kind] = append(byKind[kind], *table)
	}
	if found == 0 {
		return nil, fmt.Errorf("no filing tables found in %s", l.source)
	}

	tables := make(map[catalog.Kind]statements.RawTable, len(byKind))
	for kind, parts := range byKind {
		tables[kind] = statements.Concat(parts...)
		l.log.Debug().Str("kind", string(kind)).Int("rows", len(tables[kind].Records)).Msg("Concatenated raw table")
	}

	gen := statements.NewGeneration(tables, l.now())
	counts := gen.RowCounts()
	for _, kind := range statements.StatementKinds {
		l.log.Info().
			Str("kind", string(kind)).
			Int("rows", counts[string(kind)]).
			Int("raw_rows", counts[string(kind)+"_raw"]).
			Msg("Statement table ready")
	}
	return gen, nil
}

// readTable returns nil, nil when no candidate file exists.
func (l *Loader) readTable(ctx context.Context, job tableJob) (*statements.RawTable, error) {
	for _, name := range FileNames(job.doc, job.kind, job.year) {
		rc, err := l.source.Open(ctx, job.doc, job.year, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		table, err := ReadTable(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		l.log.Debug().Str("file", name).Int("rows", len(table.Records)).Msg("Read table")
		return &table, nil
	}

	l.log.Warn().
		Str("doc", string(job.doc)).
		Int("year", job.year).
		Str("kind", string(job.kind)).
		Msg("Table not found, skipping")
	return nil, nil
}
