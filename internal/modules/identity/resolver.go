// Package identity maps exchange tickers to regulator identities. The
// regulator's filings carry no ticker, so the mapping comes from a static
// table maintained alongside the data.
package identity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/fundamentals/internal/modules/statements"
)

// maxNameMatches bounds the name-search fallback.
const maxNameMatches = 20

// Entry is one row of the ticker table.
type Entry struct {
	Ticker        string
	TaxID         string // digits only
	RegulatorCode string // without leading zeros
	Name          string
	Sector        string
}

// Match is a search result.
type Match struct {
	Ticker        *string  `json:"ticker"`
	Tickers       []string `json:"tickers_all"`
	RegulatorCode string   `json:"cd_cvm"`
	TaxID         string   `json:"cnpj"`
	Name          string   `json:"nome"`
}

// Resolver answers ticker and identity lookups.
type Resolver struct {
	byTicker map[string]Entry
	byTaxID  map[string][]string // tax id -> tickers, table order
	byCode   map[string]string   // regulator code -> tax id
	entries  []Entry
}

// NewResolver indexes entries. Later duplicates of a ticker are ignored.
func NewResolver(entries []Entry) *Resolver {
	r := &Resolver{
		byTicker: make(map[string]Entry, len(entries)),
		byTaxID:  make(map[string][]string),
		byCode:   make(map[string]string),
	}
	for _, e := range entries {
		e.Ticker = normalizeTicker(e.Ticker)
		e.TaxID = statements.NormalizeTaxID(e.TaxID)
		if e.RegulatorCode != "" {
			e.RegulatorCode = statements.NormalizeRegulatorCode(e.RegulatorCode)
		}
		e.Name = strings.TrimSpace(e.Name)
		e.Sector = strings.TrimSpace(e.Sector)
		if e.Ticker == "" {
			continue
		}
		if _, dup := r.byTicker[e.Ticker]; dup {
			continue
		}

		r.byTicker[e.Ticker] = e
		r.entries = append(r.entries, e)
		if e.TaxID != "" {
			r.byTaxID[e.TaxID] = append(r.byTaxID[e.TaxID], e.Ticker)
		}
		if e.RegulatorCode != "" && e.TaxID != "" {
			if _, ok := r.byCode[e.RegulatorCode]; !ok {
				r.byCode[e.RegulatorCode] = e.TaxID
			}
		}
	}
	return r
}

// LoadFile reads a semicolon-separated `ticker;cnpj;cd_cvm;name;sector`
// table. A header row and `#` comments are skipped. A missing file yields
// an empty resolver.
func LoadFile(path string, log zerolog.Logger) (*Resolver, error) {
	log = log.With().Str("component", "identity").Logger()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", path).Msg("Ticker table not found, ticker lookups disabled")
		return NewResolver(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ticker table: %w", err)
	}
	defer f.Close()

	entries, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("read ticker table %s: %w", path, err)
	}
	r := NewResolver(entries)
	log.Info().Int("tickers", len(r.entries)).Int("companies", len(r.byTaxID)).Msg("Loaded ticker table")
	return r, nil
}

// ReadEntries parses the ticker table format.
func ReadEntries(rd io.Reader) ([]Entry, error) {
	cr := csv.NewReader(rd)
	cr.Comma = ';'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var entries []Entry
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "ticker") {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: expected at least ticker and cnpj", line)
		}

		e := Entry{Ticker: rec[0], TaxID: rec[1]}
		if len(rec) > 2 {
			e.RegulatorCode = strings.TrimSpace(rec[2])
		}
		if len(rec) > 3 {
			e.Name = rec[3]
		}
		if len(rec) > 4 {
			e.Sector = rec[4]
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Resolve looks up a ticker.
func (r *Resolver) Resolve(ticker string) (Entry, bool) {
	e, ok := r.byTicker[normalizeTicker(ticker)]
	return e, ok
}

// Filter turns a ticker into an identity filter on the regulator code,
// falling back to the tax id.
func (r *Resolver) Filter(ticker string) (statements.IdentityFilter, bool) {
	e, ok := r.Resolve(ticker)
	if !ok {
		return statements.IdentityFilter{}, false
	}
	if e.RegulatorCode != "" {
		return statements.IdentityFilter{RegulatorCode: e.RegulatorCode}, true
	}
	return statements.IdentityFilter{TaxID: e.TaxID}, e.TaxID != ""
}

// Tickers returns the tickers of a company by tax id, in table order.
func (r *Resolver) Tickers(taxID string) []string {
	return r.byTaxID[statements.NormalizeTaxID(taxID)]
}

// TickerFor returns the primary ticker of a company given either
// identifier.
func (r *Resolver) TickerFor(f statements.IdentityFilter) (string, bool) {
	taxID := statements.NormalizeTaxID(f.TaxID)
	if taxID == "" && f.RegulatorCode != "" {
		taxID = r.byCode[statements.NormalizeRegulatorCode(f.RegulatorCode)]
	}
	tickers := r.byTaxID[taxID]
	if len(tickers) == 0 {
		return "", false
	}
	return tickers[0], true
}

// Sector returns the sector label of a company by tax id.
func (r *Resolver) Sector(taxID string) string {
	tickers := r.byTaxID[statements.NormalizeTaxID(taxID)]
	if len(tickers) == 0 {
		return ""
	}
	return r.byTicker[tickers[0]].Sector
}

// Companies returns one entry per mapped company, keyed by its primary
// ticker, in table order.
func (r *Resolver) Companies() []Entry {
	seen := make(map[string]bool)
	out := make([]Entry, 0, len(r.byTaxID))
	for _, e := range r.entries {
		if e.TaxID == "" || seen[e.TaxID] {
			continue
		}
		seen[e.TaxID] = true
		out = append(out, e)
	}
	return out
}

// Search finds companies by exact ticker, then ticker prefix, then a
// case-insensitive name substring over the ticker table and the known
// companies.
func (r *Resolver) Search(query string, companies []statements.CompanyIdentity) []Match {
	q := normalizeTicker(query)
	if q == "" {
		return []Match{}
	}

	if e, ok := r.byTicker[q]; ok {
		return []Match{r.match(e.Ticker, e.TaxID, e.RegulatorCode, e.Name, companies)}
	}

	var prefixed []string
	for t := range r.byTicker {
		if strings.HasPrefix(t, q) {
			prefixed = append(prefixed, t)
		}
	}
	sort.Strings(prefixed)

	results := []Match{}
	seen := make(map[string]bool)
	for _, t := range prefixed {
		e := r.byTicker[t]
		if seen[e.TaxID] {
			continue
		}
		seen[e.TaxID] = true
		results = append(results, r.match(t, e.TaxID, e.RegulatorCode, e.Name, companies))
	}
	if len(results) > 0 {
		return results
	}

	for _, c := range companies {
		if len(results) >= maxNameMatches {
			break
		}
		if !strings.Contains(strings.ToUpper(c.Name), q) {
			continue
		}
		taxID := statements.NormalizeTaxID(c.TaxID)
		if seen[taxID] {
			continue
		}
		seen[taxID] = true
		ticker := ""
		if tickers := r.byTaxID[taxID]; len(tickers) > 0 {
			ticker = tickers[0]
		}
		results = append(results, r.match(ticker, taxID, c.RegulatorCode, c.Name, nil))
	}
	return results
}

// match fills the regulator code and name from the known companies when
// the ticker table leaves them empty.
func (r *Resolver) match(ticker, taxID, code, name string, companies []statements.CompanyIdentity) Match {
	if code == "" || name == "" {
		for _, c := range companies {
			if statements.NormalizeTaxID(c.TaxID) != taxID {
				continue
			}
			if code == "" {
				code = statements.NormalizeRegulatorCode(c.RegulatorCode)
			}
			if name == "" {
				name = c.Name
			}
			break
		}
	}

	m := Match{Tickers: r.byTaxID[taxID], RegulatorCode: code, TaxID: taxID, Name: name}
	if m.Tickers == nil {
		m.Tickers = []string{}
	}
	if ticker != "" {
		m.Ticker = &ticker
	}
	return m
}

func normalizeTicker(t string) string {
	t = strings.ToUpper(strings.TrimSpace(t))
	return strings.TrimSuffix(t, ".SA")
}
