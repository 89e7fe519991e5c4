package response

import "github.com/user/equipment-scraper/internal/entity"

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

type TablesResponse struct {
	Tables []entity.TableSummary `json:"tables"`
}

type TableResponse struct {
	Table   string          `json:"table"`
	Columns []entity.Column `json:"columns"`
}

// RowsResponse is a page of rows; a null cell is a NULL value.
type RowsResponse struct {
	Table   string      `json:"table"`
	Columns []string    `json:"columns"`
	Rows    [][]*string `json:"rows"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}

type PersistResponse struct {
	ID           int64    `json:"id"`
	Table        string   `json:"table"`
	AddedColumns []string `json:"added_columns"`
	Created      bool     `json:"created"`
}

type DatasetsResponse struct {
	Datasets []entity.Dataset `json:"datasets"`
}

// RunResponse carries the run statistics, including for an aborted run.
type RunResponse struct {
	Stats *entity.RunStats `json:"stats"`
	Error string           `json:"error,omitempty"`
}
