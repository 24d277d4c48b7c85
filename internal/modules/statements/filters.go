package statements

import (
	"strings"
	"time"
)

// Row is anything the repository filters can narrow: pivoted statements and
// cleaned account records alike.
type Row interface {
	Identity() CompanyIdentity
	RefDate() time.Time
	RefText() string
}

// PeriodClass selects quarterly or annual reference dates.
type PeriodClass string

const (
	// AllPeriods disables period filtering.
	AllPeriods PeriodClass = ""
	// Annual keeps December reference dates.
	Annual PeriodClass = "anual"
	// Quarterly keeps March, June and September reference dates.
	Quarterly PeriodClass = "trimestral"
)

// ParsePeriodClass accepts the Portuguese names and their English aliases.
func ParsePeriodClass(s string) (PeriodClass, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return AllPeriods, true
	case "anual", "annual":
		return Annual, true
	case "trimestral", "quarterly":
		return Quarterly, true
	}
	return AllPeriods, false
}

// ClassOf classifies a reference date. The second result is false for
// zero dates and for months that are neither quarter- nor year-end.
func ClassOf(t time.Time) (PeriodClass, bool) {
	if t.IsZero() {
		return AllPeriods, false
	}
	switch t.Month() {
	case time.December:
		return Annual, true
	case time.March, time.June, time.September:
		return Quarterly, true
	}
	return AllPeriods, false
}

// IdentityFilter narrows rows to one company. Empty fields match anything.
type IdentityFilter struct {
	TaxID         string
	RegulatorCode string
}

// IsZero reports whether the filter matches every row.
func (f IdentityFilter) IsZero() bool {
	return f.TaxID == "" && f.RegulatorCode == ""
}

// NormalizeTaxID strips the punctuation of a formatted CNPJ.
func NormalizeTaxID(s string) string {
	return strings.NewReplacer(".", "", "/", "", "-", "").Replace(strings.TrimSpace(s))
}

// NormalizeRegulatorCode strips leading zeros; "000" becomes "0".
func NormalizeRegulatorCode(s string) string {
	s = strings.TrimLeft(strings.TrimSpace(s), "0")
	if s == "" {
		return "0"
	}
	return s
}

// ByIdentity keeps rows matching every non-empty field of f.
func ByIdentity[T Row](rows []T, f IdentityFilter) []T {
	if f.IsZero() {
		return rows
	}
	taxID := NormalizeTaxID(f.TaxID)
	code := ""
	if f.RegulatorCode != "" {
		code = NormalizeRegulatorCode(f.RegulatorCode)
	}
	return filter(rows, func(r T) bool {
		id := r.Identity()
		if taxID != "" && NormalizeTaxID(id.TaxID) != taxID {
			return false
		}
		if code != "" && NormalizeRegulatorCode(id.RegulatorCode) != code {
			return false
		}
		return true
	})
}

// ByReferenceDate keeps rows whose reference date starts with the first ten
// characters of date. An empty date matches everything.
func ByReferenceDate[T Row](rows []T, date string) []T {
	date = strings.TrimSpace(date)
	if date == "" {
		return rows
	}
	return filter(rows, func(r T) bool {
		return dateText(r.RefText()) == date
	})
}

// ByPeriodClass keeps rows of class. AllPeriods returns rows unchanged.
func ByPeriodClass[T Row](rows []T, class PeriodClass) []T {
	if class == AllPeriods {
		return rows
	}
	return filter(rows, func(r T) bool {
		c, ok := ClassOf(r.RefDate())
		return ok && c == class
	})
}

// Latest returns the row with the greatest reference date, or false when
// rows is empty.
func Latest[T Row](rows []T) (T, bool) {
	var best T
	found := false
	for _, r := range rows {
		if !found || r.RefDate().After(best.RefDate()) {
			best = r
			found = true
		}
	}
	return best, found
}

func filter[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
