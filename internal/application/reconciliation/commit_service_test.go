package reconciliation

import (
	"context"
	"testing"

	"github.com/cotador/backend/internal/domain/catalog"
	"github.com/cotador/backend/internal/domain/partner"
	"github.com/cotador/backend/internal/domain/quotation"
	"github.com/cotador/backend/internal/domain/reconciliation"
	"github.com/cotador/backend/internal/domain/shared"
	"github.com/cotador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type commitFixture struct {
	sessions      *SessionService
	service       *CommitService
	productRepo   *MockProductRepository
	supplierRepo  *MockSupplierRepository
	quotationRepo *MockQuotationRepository
	supplier      *partner.Supplier
	products      []catalog.Product
}

func newCommitFixture(t *testing.T) *commitFixture {
	t.Helper()
	productRepo := new(MockProductRepository)
	supplierRepo := new(MockSupplierRepository)
	quotationRepo := new(MockQuotationRepository)
	sessions := NewSessionService(productRepo, supplierRepo, reconciliation.NewMatcher(), zap.NewNop())

	return &commitFixture{
		sessions:      sessions,
		service:       NewCommitService(sessions, quotationRepo, productRepo, supplierRepo, zap.NewNop()),
		productRepo:   productRepo,
		supplierRepo:  supplierRepo,
		quotationRepo: quotationRepo,
		supplier:      newTestSupplier(t),
		products:      newTestCatalog(t),
	}
}

// newLinkedSession ingests one part-number-matched item so the session is
// committable straight away
func (f *commitFixture) newLinkedSession(t *testing.T, ctx context.Context) *SessionResponse {
	t.Helper()
	f.supplierRepo.On("FindByID", ctx, f.supplier.ID).Return(f.supplier, nil)
	f.productRepo.On("FindActive", ctx).Return(f.products, nil)

	resp, err := f.sessions.Create(ctx, CreateSessionRequest{
		SupplierID: f.supplier.ID,
		Currency:   valueobject.BRL,
		Items: []RawItemInput{
			{Description: "Bomba 3cv", PartNumber: "XK-9912", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromFloat(1250.555), Currency: valueobject.BRL},
		},
	})
	require.NoError(t, err)
	require.True(t, resp.CanCommit)
	return resp
}

func TestCommitService_Plan_NoActiveQuotation(t *testing.T) {
	f := newCommitFixture(t)
	ctx := context.Background()
	sess := f.newLinkedSession(t, ctx)

	f.quotationRepo.On("FindActiveBySupplier", ctx, f.supplier.ID).Return(nil, shared.ErrNotFound)

	plan, err := f.service.Plan(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, plan.CanCommit)
	assert.Empty(t, plan.PendingItemIDs)
	assert.False(t, plan.HasActiveQuotation)
	assert.Nil(t, plan.ActiveQuotation)
}

func TestCommitService_Plan_ReportsActiveQuotation(t *testing.T) {
	f := newCommitFixture(t)
	ctx := context.Background()
	sess := f.newLinkedSession(t, ctx)

	active, err := quotation.NewQuotation("COT-2026-00007", f.supplier.ID, f.supplier.Name, valueobject.BRL, nil)
	require.NoError(t, err)
	f.quotationRepo.On("FindActiveBySupplier", ctx, f.supplier.ID).Return(active, nil)

	plan, err := f.service.Plan(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, plan.HasActiveQuotation)
	require.NotNil(t, plan.ActiveQuotation)
	assert.Equal(t, "COT-2026-00007", plan.ActiveQuotation.Number)
}

func TestCommitService_Plan_SessionNotFound(t *testing.T) {
	f := newCommitFixture(t)

	_, err := f.service.Plan(context.Background(), uuid.New())
	assert.ErrorIs(t, err, reconciliation.ErrSessionNotFound)
}

func TestCommitService_Commit_CreatePath(t *testing.T) {
	f := newCommitFixture(t)
	ctx := context.Background()
	sess := f.newLinkedSession(t, ctx)

	f.productRepo.On("FindByIDs", ctx, []uuid.UUID{f.products[0].ID}).Return(f.products[:1], nil)
	f.quotationRepo.On("GenerateNumber", ctx).Return("COT-2026-00001", nil)
	f.quotationRepo.On("CreateWithItems", ctx, mock.AnythingOfType("*quotation.Quotation")).Return(nil)

	result, err := f.service.Commit(ctx, CommitRequest{
		SessionID:    sess.ID,
		Mode:         CommitModeCreate,
		PaymentTerms: "28 dias",
	})

	require.NoError(t, err)
	assert.Equal(t, "COT-2026-00001", result.Number)
	assert.Equal(t, CommitModeCreate, result.Mode)
	assert.Equal(t, 1, result.ItemsWritten)
	// total derives from the unrounded unit value: 1250.555 * 2 = 2501.11
	assert.True(t, result.TotalValue.Equal(decimal.NewFromFloat(2501.11)), "got %s", result.TotalValue)

	persisted := f.quotationRepo.Calls[1].Arguments.Get(1).(*quotation.Quotation)
	require.Len(t, persisted.Items, 1)
	assert.Equal(t, quotation.ItemStatusAprovado, persisted.Items[0].Status)
	assert.Equal(t, "28 dias", persisted.PaymentTerms)

	// session is spent after a successful commit
	_, err = f.sessions.Get(sess.ID)
	assert.ErrorIs(t, err, reconciliation.ErrSessionNotFound)
	f.quotationRepo.AssertExpectations(t)
}

func TestCommitService_Commit_AppendPath(t *testing.T) {
	f := newCommitFixture(t)
	ctx := context.Background()
	sess := f.newLinkedSession(t, ctx)

	active, err := quotation.NewQuotation("COT-2026-00003", f.supplier.ID, f.supplier.Name, valueobject.BRL, nil)
	require.NoError(t, err)

	f.productRepo.On("FindByIDs", ctx, []uuid.UUID{f.products[0].ID}).Return(f.products[:1], nil)
	f.quotationRepo.On("FindActiveBySupplier", ctx, f.supplier.ID).Return(active, nil)
	f.quotationRepo.On("AppendItems", ctx, active.ID, mock.AnythingOfType("[]quotation.Item")).
		Return(1, decimal.NewFromFloat(3700.45), nil)

	result, err := f.service.Commit(ctx, CommitRequest{SessionID: sess.ID, Mode: CommitModeAppend})

	require.NoError(t, err)
	assert.Equal(t, CommitModeAppend, result.Mode)
	assert.Equal(t, active.ID, result.QuotationID)
	assert.Equal(t, 1, result.ItemsWritten)
	// the total reflects the post-append state, not the stale header
	assert.True(t, result.TotalValue.Equal(decimal.NewFromFloat(3700.45)), "got %s", result.TotalValue)
	f.quotationRepo.AssertExpectations(t)
}

func TestCommitService_Commit_RejectsUnlinkedItems(t *testing.T) {
	f := newCommitFixture(t)
	ctx := context.Background()

	f.supplierRepo.On("FindByID", ctx, f.supplier.ID).Return(f.supplier, nil)
	f.productRepo.On("FindActive", ctx).Return(f.products, nil)

	sess, err := f.sessions.Create(ctx, CreateSessionRequest{
		SupplierID: f.supplier.ID,
		Currency:   valueobject.BRL,
		Items: []RawItemInput{
			{Description: "Mangueira trancada", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromFloat(35.90), Currency: valueobject.BRL},
		},
	})
	require.NoError(t, err)
	require.False(t, sess.CanCommit)

	_, err = f.service.Commit(ctx, CommitRequest{SessionID: sess.ID, Mode: CommitModeCreate})

	require.Error(t, err)
	assert.True(t, reconciliation.IsValidationError(err))
	// the offending item is reported, and the session survives
	assert.Contains(t, err.Error(), sess.Items[0].ID.String())
	_, err = f.sessions.Get(sess.ID)
	assert.NoError(t, err)
}

func TestCommitService_Commit_RejectsUSDItemWithoutRate(t *testing.T) {
	f := newCommitFixture(t)
	ctx := context.Background()
	sess := f.newLinkedSession(t, ctx)

	// session was opened in BRL with no exchange rate; flip the item to USD
	usd := valueobject.USD
	_, err := f.sessions.EditItem(sess.ID, sess.Items[0].ID, EditItemRequest{Currency: &usd})
	require.NoError(t, err)

	f.productRepo.On("FindByIDs", ctx, []uuid.UUID{f.products[0].ID}).Return(f.products[:1], nil)

	_, err = f.service.Commit(ctx, CommitRequest{SessionID: sess.ID, Mode: CommitModeCreate})

	require.Error(t, err)
	assert.True(t, reconciliation.IsValidationError(err))
	// the offending item is reported, and the session stays live so the
	// operator can set a rate and retry
	assert.Contains(t, err.Error(), sess.Items[0].ID.String())
	_, err = f.sessions.Get(sess.ID)
	assert.NoError(t, err)
	f.quotationRepo.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything)
}

func TestCommitService_Commit_UnknownMode(t *testing.T) {
	f := newCommitFixture(t)

	_, err := f.service.Commit(context.Background(), CommitRequest{SessionID: uuid.New(), Mode: "merge"})
	assert.True(t, reconciliation.IsValidationError(err))
}

func TestCommitService_Commit_CreateConflict(t *testing.T) {
	f := newCommitFixture(t)
	ctx := context.Background()
	sess := f.newLinkedSession(t, ctx)

	f.productRepo.On("FindByIDs", ctx, []uuid.UUID{f.products[0].ID}).Return(f.products[:1], nil)
	f.quotationRepo.On("GenerateNumber", ctx).Return("COT-2026-00002", nil)
	f.quotationRepo.On("CreateWithItems", ctx, mock.AnythingOfType("*quotation.Quotation")).Return(shared.ErrConcurrencyConflict)

	_, err := f.service.Commit(ctx, CommitRequest{SessionID: sess.ID, Mode: CommitModeCreate})

	assert.True(t, reconciliation.IsConflictError(err))
	// conflict leaves the session live for a re-plan
	_, err = f.sessions.Get(sess.ID)
	assert.NoError(t, err)
}

func TestCommitService_Commit_AppendWithoutActive(t *testing.T) {
	f := newCommitFixture(t)
	ctx := context.Background()
	sess := f.newLinkedSession(t, ctx)

	f.productRepo.On("FindByIDs", ctx, []uuid.UUID{f.products[0].ID}).Return(f.products[:1], nil)
	f.quotationRepo.On("FindActiveBySupplier", ctx, f.supplier.ID).Return(nil, shared.ErrNotFound)

	_, err := f.service.Commit(ctx, CommitRequest{SessionID: sess.ID, Mode: CommitModeAppend})
	assert.True(t, reconciliation.IsConflictError(err))
}

func TestCommitService_Commit_VanishedProduct(t *testing.T) {
	f := newCommitFixture(t)
	ctx := context.Background()
	sess := f.newLinkedSession(t, ctx)

	f.productRepo.On("FindByIDs", ctx, []uuid.UUID{f.products[0].ID}).Return([]catalog.Product{}, nil)

	_, err := f.service.Commit(ctx, CommitRequest{SessionID: sess.ID, Mode: CommitModeCreate})
	assert.True(t, reconciliation.IsLookupError(err))
}

func TestCommitService_Commit_VanishedSupplier(t *testing.T) {
	f := newCommitFixture(t)
	ctx := context.Background()

	supplierRepo := f.supplierRepo
	supplierRepo.On("FindByID", ctx, f.supplier.ID).Return(f.supplier, nil).Once()
	f.productRepo.On("FindActive", ctx).Return(f.products, nil)

	sess, err := f.sessions.Create(ctx, CreateSessionRequest{
		SupplierID: f.supplier.ID,
		Currency:   valueobject.BRL,
		Items: []RawItemInput{
			{Description: "Bomba 3cv", PartNumber: "XK-9912", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromFloat(100.00), Currency: valueobject.BRL},
		},
	})
	require.NoError(t, err)

	supplierRepo.On("FindByID", ctx, f.supplier.ID).Return(nil, shared.ErrNotFound)

	_, err = f.service.Commit(ctx, CommitRequest{SessionID: sess.ID, Mode: CommitModeCreate})
	assert.True(t, reconciliation.IsLookupError(err))
}

func TestCommitService_Commit_PersistenceFailure(t *testing.T) {
	f := newCommitFixture(t)
	ctx := context.Background()
	sess := f.newLinkedSession(t, ctx)

	f.productRepo.On("FindByIDs", ctx, []uuid.UUID{f.products[0].ID}).Return(f.products[:1], nil)
	f.quotationRepo.On("GenerateNumber", ctx).Return("COT-2026-00004", nil)
	f.quotationRepo.On("CreateWithItems", ctx, mock.AnythingOfType("*quotation.Quotation")).Return(assert.AnError)

	_, err := f.service.Commit(ctx, CommitRequest{SessionID: sess.ID, Mode: CommitModeCreate})

	assert.True(t, reconciliation.IsPersistenceError(err))
	// retriable: the session stays live
	_, err = f.sessions.Get(sess.ID)
	assert.NoError(t, err)
}
