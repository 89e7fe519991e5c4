package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/repository"
)

func ptr(s string) *string { return &s }

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createLoaders(t *testing.T, repo *SchemaRepoImpl) {
	t.Helper()
	err := repo.CreateTable(context.Background(), "loaders", []entity.Column{
		entity.SurrogateKey(),
		entity.TextColumn("model"),
		entity.TextColumn("category"),
	})
	require.NoError(t, err)
}

func TestSchemaRepoCreateAndColumns(t *testing.T) {
	ctx := context.Background()
	repo := NewSchemaRepo(openMemory(t))

	_, err := repo.Columns(ctx, "loaders")
	require.ErrorIs(t, err, repository.ErrTableNotFound)

	createLoaders(t, repo)
	// second create is a no-op
	createLoaders(t, repo)

	cols, err := repo.Columns(ctx, "loaders")
	require.NoError(t, err)
	require.Equal(t, []entity.Column{
		entity.SurrogateKey(),
		entity.TextColumn("model"),
		entity.TextColumn("category"),
	}, cols)
}

func TestSchemaRepoAddColumnIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewSchemaRepo(openMemory(t))
	createLoaders(t, repo)

	require.NoError(t, repo.AddColumn(ctx, "loaders", entity.TextColumn("operating_weight")))
	require.NoError(t, repo.AddColumn(ctx, "loaders", entity.TextColumn("operating_weight")))

	cols, err := repo.Columns(ctx, "loaders")
	require.NoError(t, err)
	require.Len(t, cols, 4)
	require.Equal(t, "operating_weight", cols[3].Name)

	err = repo.AddColumn(ctx, "missing", entity.TextColumn("x"))
	require.ErrorIs(t, err, repository.ErrTableNotFound)
}

func TestSchemaRepoRejectsInvalidIdentifiers(t *testing.T) {
	ctx := context.Background()
	repo := NewSchemaRepo(openMemory(t))

	err := repo.CreateTable(ctx, `x"; DROP TABLE y; --`, []entity.Column{entity.SurrogateKey()})
	require.ErrorIs(t, err, repository.ErrInvalidIdentifier)

	createLoaders(t, repo)
	err = repo.AddColumn(ctx, "loaders", entity.TextColumn("Bad Name"))
	require.ErrorIs(t, err, repository.ErrInvalidIdentifier)
}

func TestRowRepoInsertCountSelect(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	createLoaders(t, NewSchemaRepo(db))
	rows := NewRowRepo(db)

	id1, err := rows.Insert(ctx, "loaders", []string{"model", "category"}, []*string{ptr("X100"), ptr("loader")})
	require.NoError(t, err)
	id2, err := rows.Insert(ctx, "loaders", []string{"model", "category"}, []*string{ptr("X200"), nil})
	require.NoError(t, err)
	require.Greater(t, id2, id1)

	n, err := rows.Count(ctx, "loaders")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	data, err := rows.Select(ctx, "loaders", 0, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"id", "model", "category"}, data.Columns)
	require.Len(t, data.Rows, 2)
	require.Equal(t, "X100", *data.Rows[0][1])
	require.Equal(t, "X200", *data.Rows[1][1])
	require.Nil(t, data.Rows[1][2])

	page, err := rows.Select(ctx, "loaders", 1, 1)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	require.Equal(t, "X200", *page.Rows[0][1])

	_, err = rows.Count(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrTableNotFound)
	_, err = rows.Select(ctx, "missing", 10, 0)
	require.ErrorIs(t, err, repository.ErrTableNotFound)
}

func TestRowRepoInsertRejected(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	createLoaders(t, NewSchemaRepo(db))
	rows := NewRowRepo(db)

	_, err := rows.Insert(ctx, "loaders", []string{"no_such_column"}, []*string{ptr("v")})
	require.ErrorIs(t, err, repository.ErrWriteRejected)
	require.NotErrorIs(t, err, repository.ErrStoreUnavailable)

	_, err = rows.Insert(ctx, "loaders", []string{"model"}, nil)
	require.ErrorIs(t, err, repository.ErrWriteRejected)

	n, err := rows.Count(ctx, "loaders")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRowRepoInsertOnClosedStore(t *testing.T) {
	ctx := context.Background()
	db, err := Open(":memory:")
	require.NoError(t, err)
	createLoaders(t, NewSchemaRepo(db))
	require.NoError(t, db.Close())

	_, err = NewRowRepo(db).Insert(ctx, "loaders", []string{"model"}, []*string{ptr("X1")})
	require.ErrorIs(t, err, repository.ErrStoreUnavailable)
	require.ErrorIs(t, NewCatalogRepo(db).Ping(ctx), repository.ErrStoreUnavailable)
}

func TestCatalogRepo(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "data", "equipment.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schemaRepo := NewSchemaRepo(db)
	createLoaders(t, schemaRepo)
	require.NoError(t, schemaRepo.CreateTable(ctx, "excavators", []entity.Column{entity.SurrogateKey(), entity.TextColumn("model")}))

	catalog := NewCatalogRepo(db)
	require.NoError(t, catalog.Ping(ctx))

	tables, err := catalog.Tables(ctx)
	require.NoError(t, err)
	// sqlite_sequence exists because of AUTOINCREMENT but is not listed
	require.Equal(t, []string{"excavators", "loaders"}, tables)

	ts, err := catalog.Stats(ctx, "excavators")
	require.NoError(t, err)
	require.Equal(t, entity.TableSummary{Name: "excavators", ColumnCount: 2}, ts)

	_, err = db.ExecContext(ctx, `CREATE TABLE "Equipment ""List""" ("Model" TEXT)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO "Equipment ""List""" VALUES ('ZR220')`)
	require.NoError(t, err)
	ts, err = catalog.Stats(ctx, `Equipment "List"`)
	require.NoError(t, err)
	require.Equal(t, entity.TableSummary{Name: `Equipment "List"`, ColumnCount: 1, RowCount: 1, Foreign: true}, ts)
	require.ErrorIs(t, catalog.DropTable(ctx, `Equipment "List"`), repository.ErrInvalidIdentifier)

	_, err = catalog.Stats(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrTableNotFound)

	require.NoError(t, catalog.DropTable(ctx, "loaders"))
	require.NoError(t, catalog.DropTable(ctx, "loaders"))

	tables, err = catalog.Tables(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{`Equipment "List"`, "excavators"}, tables)
}
