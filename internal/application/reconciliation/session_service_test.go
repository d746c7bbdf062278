package reconciliation

import (
	"context"
	"testing"

	"github.com/cotador/backend/internal/domain/catalog"
	"github.com/cotador/backend/internal/domain/partner"
	"github.com/cotador/backend/internal/domain/reconciliation"
	"github.com/cotador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSupplier(t *testing.T) *partner.Supplier {
	t.Helper()
	supplier, err := partner.NewSupplier("FORN-001", "Hidraulica Sul Ltda")
	require.NoError(t, err)
	return supplier
}

func newTestCatalog(t *testing.T) []catalog.Product {
	t.Helper()
	pump, err := catalog.NewProduct("BOMB-100", "Bomba centrifuga 3cv")
	require.NoError(t, err)
	pump.SetPartNumber("XK-9912")

	valve, err := catalog.NewProduct("VALV-200", "Valvula esfera 1/2")
	require.NoError(t, err)

	return []catalog.Product{*pump, *valve}
}

func newSessionFixture(t *testing.T) (*SessionService, *MockProductRepository, *MockSupplierRepository) {
	t.Helper()
	productRepo := new(MockProductRepository)
	supplierRepo := new(MockSupplierRepository)
	service := NewSessionService(productRepo, supplierRepo, reconciliation.NewMatcher(), zap.NewNop())
	return service, productRepo, supplierRepo
}

func TestSessionService_Create_ScoresAndRegisters(t *testing.T) {
	service, productRepo, supplierRepo := newSessionFixture(t)
	ctx := context.Background()
	supplier := newTestSupplier(t)
	products := newTestCatalog(t)

	supplierRepo.On("FindByID", ctx, supplier.ID).Return(supplier, nil)
	productRepo.On("FindActive", ctx).Return(products, nil)

	resp, err := service.Create(ctx, CreateSessionRequest{
		SupplierID: supplier.ID,
		Currency:   valueobject.BRL,
		Items: []RawItemInput{
			{Description: "Bomba 3cv", PartNumber: "XK-9912", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromFloat(1250.00), Currency: valueobject.BRL},
			{Description: "Mangueira trancada", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromFloat(35.90), Currency: valueobject.BRL},
		},
	})

	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	// part number match links automatically
	assert.Equal(t, reconciliation.StatusLinked, resp.Items[0].Status)
	require.NotNil(t, resp.Items[0].ProductID)
	assert.Equal(t, products[0].ID, *resp.Items[0].ProductID)
	// nothing in the catalog resembles the hose
	assert.Equal(t, reconciliation.StatusUnresolved, resp.Items[1].Status)
	assert.False(t, resp.CanCommit)

	// the session is addressable afterwards
	got, err := service.Get(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, got.ID)
	supplierRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
}

func TestSessionService_Create_UnknownSupplier(t *testing.T) {
	service, _, supplierRepo := newSessionFixture(t)
	ctx := context.Background()
	supplierID := uuid.New()

	supplierRepo.On("FindByID", ctx, supplierID).Return(nil, assert.AnError)

	_, err := service.Create(ctx, CreateSessionRequest{SupplierID: supplierID, Currency: valueobject.BRL})
	assert.Error(t, err)
}

func TestSessionService_Get_NotFound(t *testing.T) {
	service, _, _ := newSessionFixture(t)

	_, err := service.Get(uuid.New())
	assert.ErrorIs(t, err, reconciliation.ErrSessionNotFound)
}

func TestSessionService_LinkItem_VerifiesProduct(t *testing.T) {
	service, productRepo, supplierRepo := newSessionFixture(t)
	ctx := context.Background()
	supplier := newTestSupplier(t)
	products := newTestCatalog(t)

	supplierRepo.On("FindByID", ctx, supplier.ID).Return(supplier, nil)
	productRepo.On("FindActive", ctx).Return(products, nil)

	resp, err := service.Create(ctx, CreateSessionRequest{
		SupplierID: supplier.ID,
		Currency:   valueobject.BRL,
		Items: []RawItemInput{
			{Description: "Mangueira trancada", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromFloat(35.90), Currency: valueobject.BRL},
		},
	})
	require.NoError(t, err)
	itemID := resp.Items[0].ID

	productRepo.On("FindByID", ctx, products[1].ID).Return(&products[1], nil)

	item, err := service.LinkItem(ctx, resp.ID, itemID, products[1].ID)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.StatusLinked, item.Status)
	assert.False(t, item.NeedsReview)

	unknownID := uuid.New()
	productRepo.On("FindByID", ctx, unknownID).Return(nil, assert.AnError)
	_, err = service.LinkItem(ctx, resp.ID, itemID, unknownID)
	assert.Error(t, err)
}

func TestSessionService_SetExchangeRate_RecomputesItems(t *testing.T) {
	service, productRepo, supplierRepo := newSessionFixture(t)
	ctx := context.Background()
	supplier := newTestSupplier(t)

	supplierRepo.On("FindByID", ctx, supplier.ID).Return(supplier, nil)
	productRepo.On("FindActive", ctx).Return([]catalog.Product{}, nil)

	resp, err := service.Create(ctx, CreateSessionRequest{
		SupplierID:   supplier.ID,
		Currency:     valueobject.USD,
		ExchangeRate: decimal.NewFromFloat(5.00),
		Items: []RawItemInput{
			{Description: "Selo mecanico", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromFloat(10.00), Currency: valueobject.USD},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Items[0].ConvertedValueBRL.Equal(decimal.NewFromFloat(50.00)))

	updated, err := service.SetExchangeRate(resp.ID, decimal.NewFromFloat(6.00))
	require.NoError(t, err)
	assert.True(t, updated.Items[0].ConvertedValueBRL.Equal(decimal.NewFromFloat(60.00)))

	_, err = service.SetExchangeRate(resp.ID, decimal.Zero)
	assert.Error(t, err)
}

func TestSessionService_Discard(t *testing.T) {
	service, productRepo, supplierRepo := newSessionFixture(t)
	ctx := context.Background()
	supplier := newTestSupplier(t)

	supplierRepo.On("FindByID", ctx, supplier.ID).Return(supplier, nil)
	productRepo.On("FindActive", ctx).Return([]catalog.Product{}, nil)

	resp, err := service.Create(ctx, CreateSessionRequest{
		SupplierID: supplier.ID,
		Currency:   valueobject.BRL,
		Items: []RawItemInput{
			{Description: "Item avulso", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromFloat(1.00), Currency: valueobject.BRL},
		},
	})
	require.NoError(t, err)

	require.NoError(t, service.Discard(resp.ID))
	_, err = service.Get(resp.ID)
	assert.ErrorIs(t, err, reconciliation.ErrSessionNotFound)
	assert.ErrorIs(t, service.Discard(resp.ID), reconciliation.ErrSessionNotFound)
}

func TestSessionService_Review_SplitsPendingAndFlagged(t *testing.T) {
	service, productRepo, supplierRepo := newSessionFixture(t)
	ctx := context.Background()
	supplier := newTestSupplier(t)
	products := newTestCatalog(t)

	supplierRepo.On("FindByID", ctx, supplier.ID).Return(supplier, nil)
	productRepo.On("FindActive", ctx).Return(products, nil)

	resp, err := service.Create(ctx, CreateSessionRequest{
		SupplierID: supplier.ID,
		Currency:   valueobject.BRL,
		Items: []RawItemInput{
			{Description: "Valvula esfera 1/2 bronze", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromFloat(18.50), Currency: valueobject.BRL},
			{Description: "Mangueira trancada", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromFloat(35.90), Currency: valueobject.BRL},
		},
	})
	require.NoError(t, err)
	require.Equal(t, reconciliation.StatusSuggested, resp.Items[0].Status)

	// accepting a below-cutoff suggestion flags the item for review
	item, err := service.AcceptSuggestion(resp.ID, resp.Items[0].ID)
	require.NoError(t, err)
	assert.True(t, item.NeedsReview)

	review, err := service.Review(resp.ID)
	require.NoError(t, err)
	require.Len(t, review.Pending, 1)
	assert.Equal(t, resp.Items[1].ID, review.Pending[0].ID)
	require.Len(t, review.Flagged, 1)
	assert.Equal(t, resp.Items[0].ID, review.Flagged[0].ID)
}

func TestSessionService_DuplicateAndRemove(t *testing.T) {
	service, productRepo, supplierRepo := newSessionFixture(t)
	ctx := context.Background()
	supplier := newTestSupplier(t)
	products := newTestCatalog(t)

	supplierRepo.On("FindByID", ctx, supplier.ID).Return(supplier, nil)
	productRepo.On("FindActive", ctx).Return(products, nil)

	resp, err := service.Create(ctx, CreateSessionRequest{
		SupplierID: supplier.ID,
		Currency:   valueobject.BRL,
		Items: []RawItemInput{
			{Description: "Bomba 3cv", PartNumber: "XK-9912", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromFloat(1250.00), Currency: valueobject.BRL},
		},
	})
	require.NoError(t, err)

	dup, err := service.DuplicateItem(resp.ID, resp.Items[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, resp.Items[0].ID, dup.ID)
	assert.Equal(t, reconciliation.StatusLinked, dup.Status)

	require.NoError(t, service.RemoveItem(resp.ID, dup.ID))
	got, err := service.Get(resp.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestSessionService_EditItem_DoesNotRescore(t *testing.T) {
	service, productRepo, supplierRepo := newSessionFixture(t)
	ctx := context.Background()
	supplier := newTestSupplier(t)
	products := newTestCatalog(t)

	supplierRepo.On("FindByID", ctx, supplier.ID).Return(supplier, nil)
	productRepo.On("FindActive", ctx).Return(products, nil)

	resp, err := service.Create(ctx, CreateSessionRequest{
		SupplierID: supplier.ID,
		Currency:   valueobject.BRL,
		Items: []RawItemInput{
			{Description: "Mangueira trancada", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromFloat(35.90), Currency: valueobject.BRL},
		},
	})
	require.NoError(t, err)

	newDesc := "Bomba centrifuga 3cv"
	newPrice := decimal.NewFromFloat(40.00)
	item, err := service.EditItem(resp.ID, resp.Items[0].ID, EditItemRequest{
		Description: &newDesc,
		UnitPrice:   &newPrice,
	})
	require.NoError(t, err)
	assert.Equal(t, newDesc, item.Description)
	assert.True(t, item.UnitPrice.Equal(newPrice))
	// still unresolved: editing never re-runs the matcher
	assert.Equal(t, reconciliation.StatusUnresolved, item.Status)

	// an explicit rematch picks up the new description
	rematched, err := service.RematchItem(ctx, resp.ID, resp.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, reconciliation.StatusLinked, rematched.Status)
}
