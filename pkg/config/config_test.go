package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/user/equipment-scraper/internal/entity"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, DriverSQLite, cfg.StoreDriver)
	require.Equal(t, "equipment_data.db", cfg.SQLitePath)
	require.Equal(t, 5, cfg.HTTPRetries)
	require.Equal(t, 5*time.Second, cfg.HTTPRetryWait())
	require.Equal(t, 30*time.Second, cfg.LockTTL())
	require.Zero(t, cfg.DedupTTL())
	require.Equal(t, "datasets.yaml", cfg.DatasetsFile)
	require.Empty(t, cfg.ProxyList())
}

func TestLoadFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SERVER_PORT=9090\nDEDUP_TTL_HOURS=24\nPROXIES=http://a:1, ,http://b:2\n"), 0o600))
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("POSTGRES_URL", "postgres://u:p@localhost/db")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := load(envFile)
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.ServerPort)
	require.Equal(t, DriverPostgres, cfg.StoreDriver)
	require.Equal(t, 24*time.Hour, cfg.DedupTTL())
	require.Equal(t, []string{"http://a:1", "http://b:2"}, cfg.ProxyList())
}

func TestLoadRejectsBadDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")
	_, err := load(filepath.Join(t.TempDir(), ".env"))
	require.Error(t, err)

	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("POSTGRES_URL", "")
	_, err = load(filepath.Join(t.TempDir(), ".env"))
	require.ErrorContains(t, err, "POSTGRES_URL")
}

const datasetsYAML = `
datasets:
  - name: doosan_excavators
    table: Excavators
    source:
      kind: form
      urls: ["https://example.com/product/list.do"]
      form:
        searchCategory: "EX"
      page_param: nowPage
      start_page: 1
      item_selector: li.product
      fields:
        - name: model
          selector: .name
        - name: category
          value: excavator
  - name: loaders
    identity: [model]
    source:
      kind: json
      urls: ["https://example.com/api/loaders"]
      items_path: data.items
      specs:
        path: specs
        name: label
        value: value
        unit: unit
`

func TestLoadDatasets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datasets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(datasetsYAML), 0o600))

	got, err := LoadDatasets(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	ex := got[0]
	require.Equal(t, "Excavators", ex.Table)
	require.Equal(t, entity.SourceForm, ex.Source.Kind)
	require.Equal(t, map[string]string{"searchCategory": "EX"}, ex.Source.Form)
	require.Equal(t, "nowPage", ex.Source.PageParam)
	require.Equal(t, []string{"model", "category"}, ex.IdentityFields())
	require.Equal(t, "excavator", ex.Source.Fields[1].Value)

	loaders := got[1]
	require.Equal(t, "loaders", loaders.Table)
	require.Equal(t, []string{"model"}, loaders.IdentityFields())
	require.Equal(t, "data.items", loaders.Source.ItemsPath)
	require.Equal(t, "unit", loaders.Source.Specs.Unit)
}

func TestLoadDatasetsErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadDatasets(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("datasets:\n  - {name: a, source: {kind: json}}\n  - {name: a, source: {kind: json}}\n"), 0o600))
	_, err = LoadDatasets(dup)
	require.ErrorContains(t, err, "defined twice")

	noKind := filepath.Join(dir, "nokind.yaml")
	require.NoError(t, os.WriteFile(noKind, []byte("datasets:\n  - {name: a}\n"), 0o600))
	_, err = LoadDatasets(noKind)
	require.ErrorContains(t, err, "source kind")
}
