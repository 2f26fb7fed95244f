package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"sweetshop/internal/domain/model"
	repo "sweetshop/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sweetColumns = []string{"id", "name", "category", "price", "quantity", "created_at"}

func TestSweetGorm_List_EmptyIsNotNil(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewSweetGormRepository(gdb)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sweets" ORDER BY id asc`)).
		WillReturnRows(sqlmock.NewRows(sweetColumns))

	got, err := r.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSweetGorm_Search_BuildsFilters(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewSweetGormRepository(gdb)

	min := 1.5
	max := 3.0
	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "sweets" WHERE name ILIKE \$1 .* AND category = \$2 AND price >= \$3 AND price <= \$4 ORDER BY id asc`).
		WithArgs(`%50\%\_off%`, "Indian", min, max).
		WillReturnRows(sqlmock.NewRows(sweetColumns).AddRow(4, "50%_off Ladoo", "Indian", 2.5, 10, now))

	got, err := r.Search(context.Background(), repo.SweetSearchQuery{
		Name:     "50%_off",
		Category: "Indian",
		MinPrice: &min,
		MaxPrice: &max,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(4), got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
	assert.Equal(t, "ladoo", escapeLike("ladoo"))
}

func TestSweetGorm_Create(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewSweetGormRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "sweets" ("name","category","price","quantity","created_at")`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectCommit()

	got, err := r.Create(context.Background(), model.Sweet{Name: "Ladoo", Category: "Indian", Price: 2.5, Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	// 返す時刻はDBに保存される精度と同じ
	assert.Equal(t, got.CreatedAt, got.CreatedAt.Truncate(time.Microsecond))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweetGorm_FindByIDForUpdate_LocksRow(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewSweetGormRepository(gdb)

	mock.ExpectQuery(`SELECT \* FROM "sweets" WHERE "sweets"."id" = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(sweetColumns).AddRow(1, "Ladoo", "Indian", 2.5, 10, time.Now()))

	got, err := r.FindByIDForUpdate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweetGorm_FindByID_NotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewSweetGormRepository(gdb)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "sweets"`)).
		WillReturnRows(sqlmock.NewRows(sweetColumns))

	_, err := r.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestSweetGorm_SetQuantity(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewSweetGormRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "sweets" SET "quantity"=$1 WHERE id = $2`)).
		WithArgs(int64(7), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, r.SetQuantity(context.Background(), 1, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweetGorm_ApplyPatch_OnlySetColumns(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewSweetGormRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "sweets" SET "category"=$1,"price"=$2 WHERE id = $3`)).
		WithArgs("Festive", 0.0, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := r.ApplyPatch(context.Background(), 1, model.SweetPatch{
		Category: model.Some("Festive"),
		Price:    model.Some(0.0),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweetGorm_ApplyPatch_EmptyDoesNothing(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewSweetGormRepository(gdb)

	require.NoError(t, r.ApplyPatch(context.Background(), 1, model.SweetPatch{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweetGorm_Delete(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewSweetGormRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "sweets" WHERE "sweets"."id" = $1`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, r.Delete(context.Background(), 5))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "sweets"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	assert.ErrorIs(t, r.Delete(context.Background(), 5), repo.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
