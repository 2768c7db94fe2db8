package universe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "universe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := write(t, `
benchmark: ^OMX
stocks:
  - {ticker: VOLV-B.ST, name: Volvo B, sector: Industrials, cap: large}
  - {ticker: EVO.ST, name: Evolution, sector: Consumer Discretionary, cap: large}
  - {ticker: TROAX.ST, name: Troax, sector: Industrials, cap: small}
`)
	u, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "^OMX", u.Benchmark)
	assert.Equal(t, []string{"EVO.ST", "TROAX.ST", "VOLV-B.ST"}, u.Tickers())

	stock, ok := u.Lookup("TROAX.ST")
	require.True(t, ok)
	assert.Equal(t, SmallCap, stock.Cap)

	_, ok = u.Lookup("MISSING.ST")
	assert.False(t, ok)
}

func TestLoadRejectsDuplicates(t *testing.T) {
	path := write(t, `
stocks:
  - {ticker: VOLV-B.ST}
  - {ticker: VOLV-B.ST}
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "duplicate ticker")
}

func TestLoadRejectsEmpty(t *testing.T) {
	path := write(t, "stocks: []\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "no stocks")
}

func TestLoadRejectsMissingTicker(t *testing.T) {
	path := write(t, `
stocks:
  - {name: Nameless}
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestBySector(t *testing.T) {
	path := write(t, `
stocks:
  - {ticker: B.ST, sector: Industrials}
  - {ticker: A.ST, sector: Industrials}
  - {ticker: C.ST, sector: Financials}
`)
	u, err := Load(path)
	require.NoError(t, err)

	groups := u.BySector()
	assert.Equal(t, []string{"A.ST", "B.ST"}, groups["Industrials"])
	assert.Equal(t, []string{"C.ST"}, groups["Financials"])
}
