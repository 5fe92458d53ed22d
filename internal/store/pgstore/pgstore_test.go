package pgstore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mynature/internal/models"
	"mynature/internal/store"
)

const (
	sidrID    = "3f1b2c4d-5e6f-4a7b-8c9d-0e1f2a3b4c01"
	thymeID   = "3f1b2c4d-5e6f-4a7b-8c9d-0e1f2a3b4c02"
	orderID   = "9a4c1d1e-2b7f-4c55-8d7a-6a0c8c7f0001"
	missingID = "9a4c1d1e-2b7f-4c55-8d7a-6a0c8c7f00ff"
	honeyCat  = "c0ffee00-0000-4000-8000-000000000001"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func newOrder() (*models.Order, []models.OrderItem) {
	now := time.Now()
	order := &models.Order{
		ID:              orderID,
		CustomerName:    "فاطمة",
		CustomerEmail:   "fatima@example.ma",
		CustomerCountry: models.DefaultCountry,
		TotalAmount:     models.MoneyFromInt(350),
		Status:          models.OrderStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	items := []models.OrderItem{
		{ID: "item-1", OrderID: order.ID, ProductID: sidrID, Quantity: 3, Price: models.MoneyFromInt(50), CreatedAt: now},
		{ID: "item-2", OrderID: order.ID, ProductID: thymeID, Quantity: 1, Price: models.MoneyFromInt(200), CreatedAt: now},
	}
	return order, items
}

func TestSearchFiltersAndPages(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := New(db).Products()

	q := models.ProductQuery{Search: "100%", InStockOnly: true, SortBy: models.SortPriceLow, Page: 2, Limit: 12}
	pattern := `%100\%%`

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "products" WHERE is_active = $1 AND (name ILIKE $2 OR name_ar ILIKE $3 OR description ILIKE $4 OR description_ar ILIKE $5) AND in_stock = $6`)).
		WithArgs(true, pattern, pattern, pattern, pattern, true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(13))

	rows := sqlmock.NewRows([]string{"id", "name", "name_ar", "price", "stock_quantity", "images", "is_active", "in_stock", "created_at"}).
		AddRow("p-13", "Sidr honey 100%", "عسل السدر", "120.50", 4, []byte(`["sidr.jpg"]`), true, true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE`) + ".*" + regexp.QuoteMeta(`ORDER BY price ASC LIMIT`) + ".*OFFSET").
		WillReturnRows(rows)

	products, total, err := repo.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, int64(13), total)
	require.Len(t, products, 1)
	assert.Equal(t, "p-13", products[0].ID)
	assert.Equal(t, "120.5", products[0].Price.String())
	assert.Equal(t, models.StringList{"sidr.jpg"}, products[0].Images)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderCommitsAllWrites(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := New(db).Orders()
	order, items := newOrder()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "orders"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "order_items"`)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WithArgs(3, 3, sidrID, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WithArgs(1, 1, thymeID, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), order, items)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRollsBackOnInsufficientStock(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := New(db).Orders()
	order, items := newOrder()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "orders"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "order_items"`)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WithArgs(3, 3, sidrID, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "stock_quantity" FROM "products" WHERE id = $1`)).
		WithArgs(sidrID).
		WillReturnRows(sqlmock.NewRows([]string{"stock_quantity"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), order, items)
	require.Error(t, err)

	var stockErr *store.StockError
	require.True(t, errors.As(err, &stockErr))
	assert.True(t, errors.Is(err, store.ErrInsufficientStock))
	assert.Equal(t, sidrID, stockErr.ProductID)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRollsBackOnUnknownProduct(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := New(db).Orders()
	order, items := newOrder()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "orders"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "order_items"`)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "stock_quantity" FROM "products"`)).
		WithArgs(thymeID).
		WillReturnRows(sqlmock.NewRows([]string{"stock_quantity"}))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), order, items)
	assert.True(t, errors.Is(err, store.ErrProductNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRollsBackWhenItemsFail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := New(db).Orders()
	order, items := newOrder()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "orders"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "order_items"`)).WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), order, items)
	assert.EqualError(t, err, "fk violation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrderRestoresStockThenDeletes(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := New(db).Orders()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "orders" WHERE id = $1`)).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_items" WHERE order_id = $1`)).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "price"}).
			AddRow("i-1", orderID, "p-1", 3, "50").
			AddRow("i-2", orderID, "p-gone", 1, "200"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WithArgs(3, 3, "p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WithArgs(1, 1, "p-gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "order_items" WHERE order_id = $1`)).
		WithArgs(orderID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "orders" WHERE id = $1`)).
		WithArgs(orderID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), orderID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOrderNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := New(db).Orders()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "orders" WHERE id = $1`)).
		WithArgs(missingID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), missingID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := New(db).Orders()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	order, err := repo.UpdateStatus(context.Background(), missingID, models.OrderStatusShipped, nil, time.Now())
	assert.Nil(t, order)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveAdminByEmailNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := New(db).Admins()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "admin_users" WHERE email = $1 AND is_active = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	admin, err := repo.FindActiveByEmail(context.Background(), "nobody@mynature.ma")
	assert.Nil(t, admin)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, likeEscaper.Replace(`50% off_now\`))
}

func TestSearchAttachesCategories(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := New(db).Products()

	q := models.ProductQuery{CategoryIDs: []string{honeyCat, "not-a-uuid"}, SortBy: models.SortNewest, Page: 1, Limit: 12}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "products" WHERE is_active = $1 AND category_id IN ($2)`)).
		WithArgs(true, honeyCat).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE is_active = $1 AND category_id IN ($2) ORDER BY created_at DESC LIMIT`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name_ar", "price", "category_id", "is_active", "in_stock"}).
			AddRow(sidrID, "عسل السدر", "120", honeyCat, true, true))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "categories" WHERE id IN ($1)`)).
		WithArgs(honeyCat).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "name_ar"}).AddRow(honeyCat, "Honey", "عسل"))

	products, total, err := repo.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, int64(1), total)
	require.Len(t, products, 1)
	require.NotNil(t, products[0].Category)
	assert.Equal(t, "عسل", products[0].Category.NameAr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchWithOnlyMalformedCategoriesMatchesNothing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := New(db).Products()

	products, total, err := repo.Search(context.Background(), models.ProductQuery{CategoryIDs: []string{"honey"}, Page: 1, Limit: 12})
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NotNil(t, products)
	assert.Equal(t, int64(0), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMalformedIDsMapToNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db)
	ctx := context.Background()

	_, err := s.Orders().FindByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Orders().UpdateStatus(ctx, "not-a-uuid", models.OrderStatusShipped, nil, time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.Orders().Delete(ctx, "not-a-uuid"), store.ErrNotFound)

	_, err = s.Admins().FindActiveByID(ctx, "admin-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Sessions().Get(ctx, "session-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, s.Sessions().Delete(ctx, "session-1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRejectsMalformedProductID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := New(db).Orders()
	order, items := newOrder()
	items[1].ProductID = "thyme"

	err := repo.Create(context.Background(), order, items)

	var stockErr *store.StockError
	require.True(t, errors.As(err, &stockErr))
	assert.ErrorIs(t, err, store.ErrProductNotFound)
	assert.Equal(t, "thyme", stockErr.ProductID)
	assert.Equal(t, 1, stockErr.Requested)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUUID(t *testing.T) {
	assert.True(t, isUUID(sidrID))
	assert.True(t, isUUID("3F1B2C4D-5E6F-4A7B-8C9D-0E1F2A3B4C01"))
	for _, id := range []string{"", "p-1", "not-a-uuid", "3f1b2c4d5e6f4a7b8c9d0e1f2a3b4c01", "{" + sidrID + "}", "urn:uuid:" + sidrID} {
		assert.False(t, isUUID(id), id)
	}
	assert.Equal(t, []string{honeyCat}, uuidsOnly([]string{"honey", honeyCat, ""}))
}
