package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cotador/backend/internal/domain/quotation"
	"github.com/cotador/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func decimalOne() decimal.Decimal {
	return decimal.NewFromInt(1)
}

// newMockDB creates a gorm DB backed by a mocked SQL connection
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormProductRepository_FindByID(t *testing.T) {
	t.Run("finds existing product", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		productID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "code", "name", "part_number", "status"}).
			AddRow(productID, "BOMB-100", "Bomba centrifuga 3cv", "XK-9912", "active")

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1.*LIMIT \$2`).
			WithArgs(productID, 1).
			WillReturnRows(rows)

		product, err := repo.FindByID(context.Background(), productID)

		require.NoError(t, err)
		assert.Equal(t, "BOMB-100", product.Code)
		assert.Equal(t, "XK-9912", product.PartNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing product to ErrNotFound", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		productID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1.*LIMIT \$2`).
			WithArgs(productID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByID(context.Background(), productID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_Search(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormProductRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "status"}).
		AddRow(uuid.New(), "BOMB-100", "Bomba centrifuga 3cv", "active")

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE status = \$1 AND \(name ILIKE \$2 OR code ILIKE \$3 OR part_number ILIKE \$4\).*LIMIT \$5`).
		WithArgs("active", "%bomba%", "%bomba%", "%bomba%", 10).
		WillReturnRows(rows)

	products, err := repo.Search(context.Background(), "bomba", 10)

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "BOMB-100", products[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormProductRepository_FindByIDs_Empty(t *testing.T) {
	db, _, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormProductRepository(db)

	// no query is issued for an empty ID set
	products, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestGormQuotationRepository_AppendItems_Locking(t *testing.T) {
	newItem := func(t *testing.T) quotation.Item {
		t.Helper()
		productID := uuid.New()
		item, err := quotation.NewReconciledItem(quotation.ItemInput{
			ProductID:         &productID,
			Description:       "Selo mecanico",
			Quantity:          decimalOne(),
			UnitPrice:         decimalOne(),
			Currency:          "BRL",
			OriginalValue:     decimalOne(),
			ConvertedValueBRL: decimalOne(),
			DollarCost:        decimalOne(),
			Status:            quotation.ItemStatusAprovado,
		})
		require.NoError(t, err)
		return *item
	}

	t.Run("rejects empty batch", func(t *testing.T) {
		db, _, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormQuotationRepository(db)

		_, _, err := repo.AppendItems(context.Background(), uuid.New(), nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("missing quotation maps to ErrNotFound", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormQuotationRepository(db)

		quotationID := uuid.New()
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "quotations" WHERE id = \$1.*FOR UPDATE`).
			WithArgs(quotationID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		_, _, err := repo.AppendItems(context.Background(), quotationID, []quotation.Item{newItem(t)})
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("closed quotation maps to ErrInvalidState", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormQuotationRepository(db)

		quotationID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "number", "supplier_id", "supplier_name", "status", "currency", "quotation_date"}).
			AddRow(quotationID, "COT-2026-00001", uuid.New(), "Hidraulica Sul Ltda", "closed", "BRL", time.Now())

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "quotations" WHERE id = \$1.*FOR UPDATE`).
			WithArgs(quotationID, 1).
			WillReturnRows(rows)
		mock.ExpectRollback()

		_, _, err := repo.AppendItems(context.Background(), quotationID, []quotation.Item{newItem(t)})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
