// Package statements normalizes long-format regulatory filings into
// per-period statements and holds the in-memory load generation.
package statements

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/aristath/fundamentals/internal/modules/catalog"
)

// DateLayout is the ISO date format used for reference dates on the wire.
const DateLayout = "2006-01-02"

// CompanyIdentity is carried through from the filings and never recomputed.
type CompanyIdentity struct {
	TaxID         string `json:"CNPJ_CIA"`
	Name          string `json:"DENOM_CIA"`
	RegulatorCode string `json:"CD_CVM"`
}

// RawRecord is one line of a filing exactly as read from the source table.
type RawRecord struct {
	TaxID         string
	ReferenceDate string
	Version       string
	CompanyName   string
	RegulatorCode string
	Group         string
	Currency      string
	Scale         string
	ExerciseOrder string
	ExerciseStart string
	ExerciseEnd   string
	AccountCode   string
	AccountDesc   string
	Value         string
	FixedAccount  string
}

// RawTable is a long-format table for one statement kind. Columns holds the
// trimmed header names, so the cleaner can tell a missing column from an
// empty cell.
type RawTable struct {
	Columns []string
	Records []RawRecord
}

// HasColumn reports whether the source header contained name.
func (t RawTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AccountRecord is a cleaned filing line. Zero dates and a nil Value mean
// the source field was absent or unparsable.
type AccountRecord struct {
	Company       CompanyIdentity
	ReferenceText string
	ReferenceDate time.Time
	ExerciseStart time.Time
	ExerciseEnd   time.Time
	Version       string
	Group         string
	Currency      string
	Scale         string
	ExerciseOrder string
	AccountCode   string
	AccountDesc   string
	Value         *float64
	FixedAccount  string
}

// Identity implements Row.
func (r AccountRecord) Identity() CompanyIdentity { return r.Company }

// RefDate implements Row.
func (r AccountRecord) RefDate() time.Time { return r.ReferenceDate }

// RefText implements Row.
func (r AccountRecord) RefText() string { return r.ReferenceText }

// MarshalJSON emits the record with the regulator's column names.
func (r AccountRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"CNPJ_CIA":      r.Company.TaxID,
		"DENOM_CIA":     r.Company.Name,
		"CD_CVM":        r.Company.RegulatorCode,
		"DT_REFER":      formatDate(r.ReferenceDate),
		"DT_INI_EXERC":  formatDate(r.ExerciseStart),
		"DT_FIM_EXERC":  formatDate(r.ExerciseEnd),
		"VERSAO":        r.Version,
		"GRUPO_DFP":     r.Group,
		"MOEDA":         r.Currency,
		"ESCALA_MOEDA":  r.Scale,
		"ORDEM_EXERC":   r.ExerciseOrder,
		"CD_CONTA":      r.AccountCode,
		"DS_CONTA":      r.AccountDesc,
		"VL_CONTA":      r.Value,
		"ST_CONTA_FIXA": r.FixedAccount,
	})
}

// PeriodStatement is one pivoted row: a company's canonical accounts at one
// reference date. Accounts only holds labels that had a value.
type PeriodStatement struct {
	Kind          catalog.Kind
	Company       CompanyIdentity
	ReferenceDate time.Time
	Accounts      map[string]float64
}

// Identity implements Row.
func (s PeriodStatement) Identity() CompanyIdentity { return s.Company }

// RefDate implements Row.
func (s PeriodStatement) RefDate() time.Time { return s.ReferenceDate }

// RefText implements Row.
func (s PeriodStatement) RefText() string { return formatDateText(s.ReferenceDate) }

// Value returns the account under label, or nil when it was not reported.
func (s PeriodStatement) Value(label string) *float64 {
	v, ok := s.Accounts[label]
	if !ok {
		return nil
	}
	return &v
}

// Labels returns the labels present in the row, sorted.
func (s PeriodStatement) Labels() []string {
	out := make([]string, 0, len(s.Accounts))
	for l := range s.Accounts {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON flattens identity, date and accounts into a single object.
func (s PeriodStatement) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(s.Accounts)+4)
	m["CNPJ_CIA"] = s.Company.TaxID
	m["DENOM_CIA"] = s.Company.Name
	m["CD_CVM"] = s.Company.RegulatorCode
	m["DT_REFER"] = formatDate(s.ReferenceDate)
	for label, v := range s.Accounts {
		m[label] = v
	}
	return json.Marshal(m)
}

func formatDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

func formatDateText(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
