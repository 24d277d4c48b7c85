package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/aristath/fundamentals/internal/modules/catalog"
)

const loaderHeader = "CNPJ_CIA;DT_REFER;VERSAO;DENOM_CIA;CD_CVM;GRUPO_DFP;MOEDA;ESCALA_MOEDA;ORDEM_EXERC;DT_INI_EXERC;DT_FIM_EXERC;CD_CONTA;DS_CONTA;VL_CONTA;ST_CONTA_FIXA"

func writeTable(t *testing.T, dir, name string, rows ...string) {
	t.Helper()
	content, err := charmap.ISO8859_1.NewEncoder().String(loaderHeader + "\n" + strings.Join(rows, "\n") + "\n")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func newTestLoader(dir string, itr, dfp []int) *Loader {
	l := NewLoader(NewDirSource(dir), itr, dfp, zerolog.New(nil).Level(zerolog.Disabled))
	l.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return l
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "itr_cia_aberta_DRE_con_2023.csv",
		"33.000.167/0001-01;2023-06-30;1;ACME SA;9512;DF Consolidado;REAL;MIL;ÚLTIMO;2023-01-01;2023-06-30;3.01;Receita;500;S")
	writeTable(t, dir, "dfp_cia_aberta_DRE_con_2023.csv",
		"33.000.167/0001-01;2023-12-31;1;ACME SA;9512;DF Consolidado;REAL;MIL;ÚLTIMO;2023-01-01;2023-12-31;3.01;Receita;1000;S",
		"33.000.167/0001-01;2023-12-31;1;ACME SA;9512;DF Consolidado;REAL;MIL;PENÚLTIMO;2022-01-01;2022-12-31;3.01;Receita;900;S")
	writeTable(t, dir, "dfp_cia_aberta_BPA_2023.csv",
		"33.000.167/0001-01;2023-12-31;1;ACME SA;9512;DF Consolidado;REAL;UNIDADE;ÚLTIMO;;2023-12-31;1;Ativo Total;2000;S")

	gen, err := newTestLoader(dir, []int{2023}, []int{2023}).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, gen)

	income := gen.Statements(catalog.Income)
	require.Len(t, income, 2)
	assert.Equal(t, "2023-06-30", income[0].RefText())
	assert.Equal(t, 500000.0, *income[0].Value(catalog.Revenue))
	assert.Equal(t, 1000000.0, *income[1].Value(catalog.Revenue))

	assets := gen.Statements(catalog.Assets)
	require.Len(t, assets, 1)
	assert.Equal(t, 2000.0, *assets[0].Value(catalog.TotalAssets))

	assert.Empty(t, gen.Statements(catalog.Liabilities))
	assert.Len(t, gen.Companies(), 1)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), gen.LoadedAt)
}

func TestLoader_NoTables(t *testing.T) {
	_, err := newTestLoader(t.TempDir(), []int{2023}, []int{2023}).Load(context.Background())
	assert.Error(t, err)
}

func TestLoader_Canceled(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "dfp_cia_aberta_DRE_con_2023.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestLoader(dir, nil, []int{2023}).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
