package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ";", cfg.Delimiter)
	assert.Equal(t, "2006.01.02", cfg.DateLayout)
	assert.Equal(t, []string{"WS01", "WS02"}, cfg.ValidShopIDs)
	assert.Equal(t, 2, cfg.TopCount())
	assert.Equal(t, "report01.csv", cfg.CustomerReport)
	assert.Equal(t, "top.csv", cfg.TopReport)
	assert.Equal(t, "report02.csv", cfg.ShopReport)
	assert.False(t, cfg.LenientSources)
	require.NoError(t, cfg.Validate())
}

func TestDefaultShopIDsAreNotShared(t *testing.T) {
	cfg := Default()
	cfg.ValidShopIDs[0] = "XX"
	assert.Equal(t, "WS01", DefaultValidShopIDs[0])
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
customers_file: c.csv
payments_file: p.csv
output_dir: out
top_n: 5
valid_shop_ids: [WS01, WS02, WS03]
lenient_sources: true
xlsx_report: true
log_level: debug
log_format: json
`))
	require.NoError(t, err)

	assert.Equal(t, "c.csv", cfg.CustomersFile)
	assert.Equal(t, "p.csv", cfg.PaymentsFile)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 5, cfg.TopCount())
	assert.Equal(t, []string{"WS01", "WS02", "WS03"}, cfg.ValidShopIDs)
	assert.True(t, cfg.LenientSources)
	assert.True(t, cfg.XLSXReport)
	assert.Equal(t, "reports.xlsx", cfg.XLSXFile)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestParseKeepsExplicitZeroTopN(t *testing.T) {
	cfg, err := Parse([]byte("top_n: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.TopCount())
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "blank shop id", yaml: "valid_shop_ids: [WS01, ' ']\n"},
		{name: "shop id with delimiter", yaml: "valid_shop_ids: ['WS;01']\n"},
		{name: "bad layout", yaml: "date_layout: yyyy.MM.dd\n"},
		{name: "duplicate report names", yaml: "top_report: report01.csv\n"},
		{name: "bad log level", yaml: "log_level: loud\n"},
		{name: "bad log format", yaml: "log_format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("top_n: [\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_n: 3\n"), 0o644))

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.TopCount())
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := Load(missing, true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(missing, false)
	assert.Error(t, err)
}
