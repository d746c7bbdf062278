package catalog

import (
	"context"
	"testing"

	"github.com/cotador/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindActive(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Search(ctx context.Context, term string, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, term, limit)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func TestProductService_Search(t *testing.T) {
	repo := new(MockProductRepository)
	service := NewProductService(repo)
	ctx := context.Background()

	product, err := catalog.NewProduct("BOMB-100", "Bomba centrifuga 3cv")
	require.NoError(t, err)
	repo.On("Search", ctx, "bomba", 20).Return([]catalog.Product{*product}, nil)

	results, err := service.Search(ctx, "  bomba  ", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "BOMB-100", results[0].Code)
	repo.AssertExpectations(t)
}

func TestProductService_Search_EmptyTerm(t *testing.T) {
	repo := new(MockProductRepository)
	service := NewProductService(repo)

	_, err := service.Search(context.Background(), "   ", 10)
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductService_Search_CapsLimit(t *testing.T) {
	repo := new(MockProductRepository)
	service := NewProductService(repo)
	ctx := context.Background()

	repo.On("Search", ctx, "valvula", 20).Return([]catalog.Product{}, nil)

	results, err := service.Search(ctx, "valvula", 500)
	require.NoError(t, err)
	assert.Empty(t, results)
	repo.AssertExpectations(t)
}
