package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cotador/backend/internal/domain/quotation"
	"github.com/cotador/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activeSupplierIndex is the partial unique index enforcing at most one
// active quotation per supplier. Created by migration 000001.
const activeSupplierIndex = "uq_quotations_supplier_active"

// GormQuotationRepository implements quotation.Repository using GORM
type GormQuotationRepository struct {
	db *gorm.DB
}

// NewGormQuotationRepository creates a new GormQuotationRepository
func NewGormQuotationRepository(db *gorm.DB) *GormQuotationRepository {
	return &GormQuotationRepository{db: db}
}

// FindByID finds a quotation with its items
func (r *GormQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*quotation.Quotation, error) {
	var q quotation.Quotation
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// FindByNumber finds a quotation by its human-readable number
func (r *GormQuotationRepository) FindByNumber(ctx context.Context, number string) (*quotation.Quotation, error) {
	var q quotation.Quotation
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&q, "number = ?", strings.TrimSpace(number)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// FindActiveBySupplier returns the supplier's active quotation, or
// shared.ErrNotFound when the supplier has none
func (r *GormQuotationRepository) FindActiveBySupplier(ctx context.Context, supplierID uuid.UUID) (*quotation.Quotation, error) {
	var q quotation.Quotation
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("supplier_id = ? AND status = ?", supplierID, quotation.StatusActive).
		First(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// FindAll returns all quotations without items, newest first
func (r *GormQuotationRepository) FindAll(ctx context.Context) ([]quotation.Quotation, error) {
	var quotations []quotation.Quotation
	if err := r.db.WithContext(ctx).
		Order("quotation_date DESC, number DESC").
		Find(&quotations).Error; err != nil {
		return nil, err
	}
	return quotations, nil
}

// CreateWithItems inserts the header and all items in one transaction. A
// violation of the one-active-per-supplier index surfaces as
// shared.ErrConcurrencyConflict.
func (r *GormQuotationRepository) CreateWithItems(ctx context.Context, q *quotation.Quotation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(q).Error
	})
	if err != nil {
		if isUniqueViolation(err, activeSupplierIndex) {
			return shared.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

// AppendItems appends items to an active quotation under a row lock and
// recomputes the stored total and item count in the same transaction. It
// returns the number of items written and the recomputed total
func (r *GormQuotationRepository) AppendItems(ctx context.Context, quotationID uuid.UUID, items []quotation.Item) (int, decimal.Decimal, error) {
	if len(items) == 0 {
		return 0, decimal.Zero, shared.ErrInvalidInput
	}

	var total decimal.Decimal
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q quotation.Quotation
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&q, "id = ?", quotationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if !q.IsActive() {
			return shared.ErrInvalidState
		}

		for i := range items {
			items[i].QuotationID = quotationID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		// recompute aggregate columns from the full item set
		var count int64
		row := tx.Model(&quotation.Item{}).
			Select("COALESCE(SUM(total_price), 0), COUNT(*)").
			Where("quotation_id = ?", quotationID).
			Row()
		if err := row.Scan(&total, &count); err != nil {
			return err
		}

		return tx.Model(&quotation.Quotation{}).
			Where("id = ?", quotationID).
			Updates(map[string]any{
				"total_value": total,
				"item_count":  count,
				"version":     gorm.Expr("version + 1"),
				"updated_at":  time.Now(),
			}).Error
	})
	if err != nil {
		return 0, decimal.Zero, err
	}
	return len(items), total, nil
}

// Save persists header mutations (close, terms)
func (r *GormQuotationRepository) Save(ctx context.Context, q *quotation.Quotation) error {
	return r.db.WithContext(ctx).
		Omit("Items").
		Save(q).Error
}

// GenerateNumber generates the next quotation number for the current year.
// Format: COT-YYYY-NNNNN (e.g. COT-2026-00041)
func (r *GormQuotationRepository) GenerateNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("COT-%d-", year)

	var last quotation.Quotation
	err := r.db.WithContext(ctx).
		Model(&quotation.Quotation{}).
		Where("number LIKE ?", prefix+"%").
		Order("number DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var next int64 = 1
	if err == nil && last.Number != "" {
		parts := strings.Split(last.Number, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				next = num + 1
			}
		}
	}
	return fmt.Sprintf("%s%05d", prefix, next), nil
}

// isUniqueViolation reports whether err is a postgres unique violation on the
// named constraint. The gorm connection runs on pgx, so the driver error is
// *pgconn.PgError; database/sql callers on lib/pq surface *pq.Error instead.
// gorm.ErrDuplicatedKey covers dialects opened with TranslateError.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == constraint
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
