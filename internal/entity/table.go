package entity

import "strings"

// ColumnType is the declared storage type of a column.
type ColumnType string

const (
	// ColumnText is used for identity and every dynamically discovered column.
	ColumnText ColumnType = "text"
	// ColumnSurrogateKey is the auto-incrementing integer row identity.
	ColumnSurrogateKey ColumnType = "surrogate_key"
)

// SurrogateKeyName is the name of the surrogate identity column every table carries.
const SurrogateKeyName = "id"

// Column describes one column of a dataset table.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// IsSurrogateKey reports whether the column is the auto-generated row id.
func (c Column) IsSurrogateKey() bool {
	return c.Type == ColumnSurrogateKey
}

// SurrogateKey returns the descriptor of the surrogate identity column.
func SurrogateKey() Column {
	return Column{Name: SurrogateKeyName, Type: ColumnSurrogateKey}
}

// TextColumn returns a nullable text column descriptor.
func TextColumn(name string) Column {
	return Column{Name: name, Type: ColumnText}
}

// FieldColumn binds a raw record field to the column it is stored in.
type FieldColumn struct {
	Field  string
	Column string
	Value  *string
}

// TableSchema is the reconciled column list of a table, in table order.
type TableSchema struct {
	Table   string
	Columns []Column
}

// ColumnNames returns the column names in table order.
func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the table has a column with exactly the given name.
func (s *TableSchema) Has(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Index returns the position of the column that name resolves to, or -1.
// An exact match wins; otherwise the first column equal under case folding
// is used, which is how SQLite resolves column names.
func (s *TableSchema) Index(name string) int {
	folded := -1
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
		if folded < 0 && strings.EqualFold(c.Name, name) {
			folded = i
		}
	}
	return folded
}

// TableData is a page of rows read back from a table. A nil cell is NULL.
type TableData struct {
	Table   string      `json:"table"`
	Columns []string    `json:"columns"`
	Rows    [][]*string `json:"rows"`
}

// TableSummary describes a table for listings. Foreign marks a table whose
// name is not a normalized identifier. It is counted but cannot be addressed
// by name.
type TableSummary struct {
	Name        string `json:"name"`
	ColumnCount int    `json:"column_count"`
	RowCount    int64  `json:"row_count"`
	Foreign     bool   `json:"foreign,omitempty"`
}
