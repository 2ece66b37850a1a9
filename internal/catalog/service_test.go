package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/production-orders/internal/apperr"
	"github.com/vasiliy-maslov/production-orders/internal/catalog"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) ListActive(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, in catalog.Input) (*catalog.Product, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, id int64, in catalog.Input) (*catalog.Product, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProductService_CreateProduct_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := catalog.NewService(mockRepo)

	in := catalog.Input{Name: "P1", SalePrice: dec("20.00"), UnitCost: dec("8.00"), Active: true}
	expected := &catalog.Product{ID: 3, Name: "P1", SalePrice: dec("20.00"), UnitCost: dec("8.00"), Active: true}

	mockRepo.On("Create", mock.Anything, in).Return(expected, nil).Once()

	got, err := svc.CreateProduct(context.Background(), in)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(expected, got))
	require.True(t, got.Margin().Equal(dec("12")))
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name      string
		in        catalog.Input
		wantField string
	}{
		{name: "empty_name", in: catalog.Input{Name: "  ", SalePrice: dec("1"), UnitCost: dec("1")}, wantField: "name"},
		{name: "negative_price", in: catalog.Input{Name: "P", SalePrice: dec("-1"), UnitCost: dec("1")}, wantField: "salePrice"},
		{name: "negative_cost", in: catalog.Input{Name: "P", SalePrice: dec("1"), UnitCost: dec("-0.01")}, wantField: "unitCost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			svc := catalog.NewService(mockRepo)

			got, err := svc.CreateProduct(context.Background(), tt.in)
			require.Nil(t, got)
			require.ErrorIs(t, err, apperr.ErrValidation)

			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			require.Contains(t, ve.Fields, tt.wantField)
			mockRepo.AssertNotCalled(t, "Create")
		})
	}
}

func TestProductService_UpdateProduct_NotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := catalog.NewService(mockRepo)

	in := catalog.Input{Name: "P", SalePrice: dec("1"), UnitCost: dec("1")}
	mockRepo.On("Update", mock.Anything, int64(42), in).Return(nil, catalog.ErrProductNotFound).Once()

	got, err := svc.UpdateProduct(context.Background(), 42, in)
	require.Nil(t, got)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProduct_StoreFailure(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := catalog.NewService(mockRepo)

	mockRepo.On("GetByID", mock.Anything, int64(1)).Return(nil, errors.New("connection reset")).Once()

	got, err := svc.GetProduct(context.Background(), 1)
	require.Nil(t, got)
	require.Error(t, err)
	require.NotErrorIs(t, err, apperr.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_SeedDefaults(t *testing.T) {
	t.Run("empty_catalog", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		svc := catalog.NewService(mockRepo)

		mockRepo.On("Count", mock.Anything).Return(int64(0), nil).Once()
		for i, in := range catalog.DefaultProducts {
			mockRepo.On("Create", mock.Anything, in).Return(&catalog.Product{ID: int64(i + 1), Name: in.Name}, nil).Once()
		}

		require.NoError(t, svc.SeedDefaults(context.Background()))
		mockRepo.AssertExpectations(t)
	})

	t.Run("already_populated", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		svc := catalog.NewService(mockRepo)

		mockRepo.On("Count", mock.Anything).Return(int64(5), nil).Once()

		require.NoError(t, svc.SeedDefaults(context.Background()))
		mockRepo.AssertNotCalled(t, "Create")
		mockRepo.AssertExpectations(t)
	})
}
