package statements

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/fundamentals/pkg/formulas"
)

// Source column names.
const (
	ColTaxID         = "CNPJ_CIA"
	ColReferenceDate = "DT_REFER"
	ColVersion       = "VERSAO"
	ColCompanyName   = "DENOM_CIA"
	ColRegulatorCode = "CD_CVM"
	ColGroup         = "GRUPO_DFP"
	ColCurrency      = "MOEDA"
	ColScale         = "ESCALA_MOEDA"
	ColExerciseOrder = "ORDEM_EXERC"
	ColExerciseStart = "DT_INI_EXERC"
	ColExerciseEnd   = "DT_FIM_EXERC"
	ColAccountCode   = "CD_CONTA"
	ColAccountDesc   = "DS_CONTA"
	ColValue         = "VL_CONTA"
	ColFixedAccount  = "ST_CONTA_FIXA"
)

const (
	scaleThousand = "MIL"
	orderLatest   = "ÚLTIMO"
)

var thousand = decimal.NewFromInt(1000)

// NewRawTable maps a header and its rows onto raw records. Header names are
// trimmed; unknown columns are ignored and short rows leave fields empty.
func NewRawTable(header []string, rows [][]string) RawTable {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(trimBOM(h))
	}

	records := make([]RawRecord, 0, len(rows))
	for _, row := range rows {
		var r RawRecord
		for i, col := range cols {
			if i >= len(row) {
				break
			}
			assignField(&r, col, row[i])
		}
		records = append(records, r)
	}
	return RawTable{Columns: cols, Records: records}
}

// trimBOM strips a byte order mark, whether it was decoded as UTF-8 or
// read as latin-1 bytes.
func trimBOM(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.TrimPrefix(s, "\u00ef\u00bb\u00bf")
}

func assignField(r *RawRecord, col, v string) {
	switch col {
	case ColTaxID:
		r.TaxID = v
	case ColReferenceDate:
		r.ReferenceDate = v
	case ColVersion:
		r.Version = v
	case ColCompanyName:
		r.CompanyName = v
	case ColRegulatorCode:
		r.RegulatorCode = v
	case ColGroup:
		r.Group = v
	case ColCurrency:
		r.Currency = v
	case ColScale:
		r.Scale = v
	case ColExerciseOrder:
		r.ExerciseOrder = v
	case ColExerciseStart:
		r.ExerciseStart = v
	case ColExerciseEnd:
		r.ExerciseEnd = v
	case ColAccountCode:
		r.AccountCode = v
	case ColAccountDesc:
		r.AccountDesc = v
	case ColValue:
		r.Value = v
	case ColFixedAccount:
		r.FixedAccount = v
	}
}

// Concat appends tables in order. The result carries the union of columns.
func Concat(tables ...RawTable) RawTable {
	var out RawTable
	seen := map[string]bool{}
	for _, t := range tables {
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				out.Columns = append(out.Columns, c)
			}
		}
		out.Records = append(out.Records, t.Records...)
	}
	return out
}

// Clean normalizes a raw table: values are parsed and scaled, dates parsed,
// restated prior-period figures dropped and duplicates on (tax id,
// reference date, account code) collapsed to the last occurrence.
// Malformed fields become absent values; Clean never fails.
func Clean(table RawTable) []AccountRecord {
	if len(table.Records) == 0 {
		return []AccountRecord{}
	}

	filterOrder := table.HasColumn(ColExerciseOrder)
	cleaned := make([]AccountRecord, 0, len(table.Records))
	for _, raw := range table.Records {
		if filterOrder && !isLatest(raw.ExerciseOrder) {
			continue
		}
		cleaned = append(cleaned, cleanRecord(raw))
	}
	return dedupLast(cleaned)
}

func cleanRecord(raw RawRecord) AccountRecord {
	refDate := parseDate(raw.ReferenceDate)
	return AccountRecord{
		Company: CompanyIdentity{
			TaxID:         strings.TrimSpace(raw.TaxID),
			Name:          strings.TrimSpace(raw.CompanyName),
			RegulatorCode: strings.TrimSpace(raw.RegulatorCode),
		},
		ReferenceText: dateText(raw.ReferenceDate),
		ReferenceDate: refDate,
		ExerciseStart: parseDate(raw.ExerciseStart),
		ExerciseEnd:   parseDate(raw.ExerciseEnd),
		Version:       strings.TrimSpace(raw.Version),
		Group:         strings.TrimSpace(raw.Group),
		Currency:      strings.TrimSpace(raw.Currency),
		Scale:         strings.TrimSpace(raw.Scale),
		ExerciseOrder: strings.TrimSpace(raw.ExerciseOrder),
		AccountCode:   strings.TrimSpace(raw.AccountCode),
		AccountDesc:   strings.TrimSpace(raw.AccountDesc),
		Value:         ParseValue(raw.Value, raw.Scale),
		FixedAccount:  strings.TrimSpace(raw.FixedAccount),
	}
}

// ParseValue reads a decimal-comma number and applies the currency scale.
// It returns nil when the text is not a number or does not fit a float64.
func ParseValue(text, scale string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(text, ",", "."))
	if err != nil {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(scale), scaleThousand) {
		d = d.Mul(thousand)
	}
	f, _ := d.Float64()
	return formulas.Finite(f)
}

func parseDate(text string) time.Time {
	text = dateText(text)
	if text == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, text)
	if err != nil {
		return time.Time{}
	}
	return t
}

// dateText is the first ten characters of a date field, trimmed.
func dateText(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > len(DateLayout) {
		text = text[:len(DateLayout)]
	}
	return text
}

func isLatest(order string) bool {
	order = strings.ToUpper(strings.TrimSpace(order))
	return order == orderLatest || order == "ULTIMO"
}

type recordKey struct {
	taxID   string
	refDate string
	code    string
}

func dedupLast(records []AccountRecord) []AccountRecord {
	last := make(map[recordKey]int, len(records))
	for i, r := range records {
		last[recordKey{r.Company.TaxID, r.ReferenceText, r.AccountCode}] = i
	}
	out := make([]AccountRecord, 0, len(last))
	for i, r := range records {
		if last[recordKey{r.Company.TaxID, r.ReferenceText, r.AccountCode}] == i {
			out = append(out, r)
		}
	}
	return out
}
