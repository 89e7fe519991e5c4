package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/equipment-scraper/internal/adapter/sqlite"
	"github.com/user/equipment-scraper/internal/adapter/sqlite/sqlitetest"
	"github.com/user/equipment-scraper/internal/delivery/http/handler"
	"github.com/user/equipment-scraper/internal/delivery/http/response"
	"github.com/user/equipment-scraper/internal/delivery/http/router"
	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/repository"
	"github.com/user/equipment-scraper/internal/usecase"
	"github.com/user/equipment-scraper/pkg/metrics"
)

type staticExtractor []*entity.Record

func (e staticExtractor) Extract(ctx context.Context, emit repository.EmitFunc) error {
	for _, rec := range e {
		if err := emit(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := sqlitetest.Open(t)
	logger := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	schemaRepo := sqlite.NewSchemaRepo(db)
	rowRepo := sqlite.NewRowRepo(db)
	reconciler := usecase.NewSchemaReconciler(schemaRepo, usecase.NewLocalLocker(), logger)
	persister := usecase.NewPersister(reconciler, usecase.NewRowWriter(rowRepo), usecase.DedupConfig{}, m, logger)
	maintenance := usecase.NewMaintenance(schemaRepo, rowRepo, sqlite.NewCatalogRepo(db), logger)

	datasets := []entity.Dataset{{
		Name:   "loaders",
		Table:  "Wheel Loaders",
		Source: entity.SourceConfig{Kind: entity.SourceJSON, URLs: []string{"https://example.com"}},
	}}
	factory := func(entity.SourceConfig) (repository.Extractor, error) {
		return staticExtractor{
			entity.NewRecord().Set("model", "DL250").Set("category", "loader").Set("Bucket", "2.5 m3"),
			entity.NewRecord().Set("category", "loader"),
		}, nil
	}
	runner := usecase.NewRunner(datasets, persister, factory, m, logger)

	h := handler.NewHandler(maintenance, persister, runner, logger)
	srv := httptest.NewServer(router.New(h, m, reg, logger))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/api/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", decode[response.HealthResponse](t, resp).Status)
}

func TestPersistAndReadBack(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/tables/Excavators/records", `{"model":"X100","category":"excavator","Max Reach":"9.9 m"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decode[response.PersistResponse](t, resp)
	require.Equal(t, int64(1), first.ID)
	require.Equal(t, "excavators", first.Table)
	require.True(t, first.Created)

	resp = do(t, http.MethodPost, srv.URL+"/api/tables/excavators/records", `{"model":"X200","category":"excavator","Rated Power":315}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decode[response.PersistResponse](t, resp)
	require.Equal(t, []string{"rated_power"}, second.AddedColumns)
	require.False(t, second.Created)

	resp = do(t, http.MethodGet, srv.URL+"/api/tables/excavators", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	table := decode[response.TableResponse](t, resp)
	require.Len(t, table.Columns, 5)
	require.Equal(t, "rated_power", table.Columns[4].Name)

	resp = do(t, http.MethodGet, srv.URL+"/api/tables/excavators/rows?limit=10", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows := decode[response.RowsResponse](t, resp)
	require.Len(t, rows.Rows, 2)
	require.Nil(t, rows.Rows[0][4])
	require.Equal(t, "315", *rows.Rows[1][4])

	resp = do(t, http.MethodGet, srv.URL+"/api/tables", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tables := decode[response.TablesResponse](t, resp)
	require.Equal(t, []entity.TableSummary{{Name: "excavators", ColumnCount: 5, RowCount: 2}}, tables.Tables)
}

func TestPersistErrors(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/tables/excavators/records", `{"category":"excavator"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/tables/excavators/records", `{"model":{"nested":1}}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/tables/sqlite_master/records", `{"model":"a","category":"b"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/tables/parts/records?identity=sku", `{"sku":"P-1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestMissingTableAndBadParams(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/tables/nothing", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotEmpty(t, decode[response.ErrorResponse](t, resp).Error)

	resp = do(t, http.MethodGet, srv.URL+"/api/tables/nothing/rows?limit=0", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/tables/nothing/export?format=pdf", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/tables/nothing/export", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExportAndDrop(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/api/tables/cranes/records", `{"model":"C1","category":"crane"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/tables/cranes/export?format=csv", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "cranes.csv")
	var body bytes.Buffer
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "id,model,category\n1,C1,crane\n", body.String())

	resp = do(t, http.MethodDelete, srv.URL+"/api/tables/cranes", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/tables/cranes", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunDataset(t *testing.T) {
	srv := newServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/datasets", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decode[response.DatasetsResponse](t, resp).Datasets, 1)

	resp = do(t, http.MethodPost, srv.URL+"/api/datasets/loaders/run", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	run := decode[response.RunResponse](t, resp)
	require.Equal(t, "wheel_loaders", run.Stats.Table)
	require.Equal(t, 1, run.Stats.Written)
	require.Equal(t, 1, run.Stats.Skipped)

	resp = do(t, http.MethodPost, srv.URL+"/api/datasets/unknown/run", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t)
	do(t, http.MethodGet, srv.URL+"/api/tables", "")

	resp := do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body bytes.Buffer
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)
	require.Contains(t, body.String(), `http_requests_total{method="GET",path="/api/tables`)
}
