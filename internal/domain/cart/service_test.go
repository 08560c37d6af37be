// internal/domain/cart/service_test.go
package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeCatalog serves products from memory so cart tests need no catalog tables
type fakeCatalog struct {
	products map[uint]*catalog.Product
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id uint) (*catalog.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "product %d not found", id)
	}
	return product, nil
}

func setupCartTest(t *testing.T) (*Service, *fakeCatalog, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&CartItem{}))

	fake := &fakeCatalog{products: map[uint]*catalog.Product{
		1: {ID: 1, Slug: "classic-round-frame", Name: "Classic Round Frame", Price: 1000, InStock: true, IsActive: true},
		2: {ID: 2, Slug: "aviator-sunglasses", Name: "Aviator Sunglasses", Price: 700, DiscountedPrice: 450, InStock: true, IsActive: true},
		3: {ID: 3, Slug: "sold-out-frame", Name: "Sold Out Frame", Price: 2000, InStock: false, IsActive: true},
	}}

	return NewService(db, fake), fake, db
}

func addRequest(productID uint, quantity int) *AddToCartRequest {
	return &AddToCartRequest{ProductID: productID, Quantity: &quantity}
}

func TestGetCart_EmptyForNewUser(t *testing.T) {
	svc, _, db := setupCartTest(t)
	ctx := context.Background()

	resp, err := svc.GetCart(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, uint(42), resp.UserID)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 0, resp.TotalQuantity)
	assert.Equal(t, int64(0), resp.TotalAmount)

	// Reading an empty cart must not persist anything
	var count int64
	require.NoError(t, db.Model(&CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAddItem_CreatesLine(t *testing.T) {
	svc, _, _ := setupCartTest(t)
	ctx := context.Background()

	resp, err := svc.AddItem(ctx, 1, addRequest(1, 2))
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, uint(1), resp.Items[0].ProductID)
	assert.Equal(t, 2, resp.Items[0].Quantity)
	assert.Equal(t, int64(1000), resp.Items[0].UnitPrice)
	assert.Equal(t, int64(2000), resp.Items[0].LineTotal)
}

func TestAddItem_OmittedQuantityMeansOneUnit(t *testing.T) {
	svc, _, _ := setupCartTest(t)
	ctx := context.Background()

	resp, err := svc.AddItem(ctx, 1, &AddToCartRequest{ProductID: 1})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 1, resp.Items[0].Quantity)

	// Omitting it again merges one more unit into the line
	resp, err = svc.AddItem(ctx, 1, &AddToCartRequest{ProductID: 1})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
}

func TestAddItem_MergesExistingLine(t *testing.T) {
	svc, _, db := setupCartTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, addRequest(1, 2))
	require.NoError(t, err)
	resp, err := svc.AddItem(ctx, 1, addRequest(1, 3))
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 5, resp.Items[0].Quantity)

	// Still a single row in storage
	var count int64
	require.NoError(t, db.Model(&CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAddItem_UsesDiscountedPrice(t *testing.T) {
	svc, _, _ := setupCartTest(t)
	ctx := context.Background()

	resp, err := svc.AddItem(ctx, 1, addRequest(2, 1))
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(450), resp.Items[0].UnitPrice)
	assert.Equal(t, int64(450), resp.TotalAmount)
}

func TestAddItem_RejectsExplicitNonPositiveQuantity(t *testing.T) {
	svc, _, _ := setupCartTest(t)
	ctx := context.Background()

	// Only an absent quantity defaults; explicit zero and below are rejected
	for _, qty := range []int{0, -1} {
		_, err := svc.AddItem(ctx, 1, addRequest(1, qty))
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.InvalidArgument))
	}
}

func TestAddItem_UnknownProduct(t *testing.T) {
	svc, _, _ := setupCartTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, addRequest(999, 1))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestAddItem_OutOfStockProduct(t *testing.T) {
	svc, _, _ := setupCartTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, addRequest(3, 1))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.OutOfStock))
}

func TestSetItemQuantity_SetsAbsoluteValue(t *testing.T) {
	svc, _, _ := setupCartTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, addRequest(1, 5))
	require.NoError(t, err)

	resp, err := svc.SetItemQuantity(ctx, 1, 1, 2)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
}

func TestSetItemQuantity_NeverCreatesLine(t *testing.T) {
	svc, _, _ := setupCartTest(t)
	ctx := context.Background()

	_, err := svc.SetItemQuantity(ctx, 1, 1, 3)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestSetItemQuantity_ZeroRemovesLine(t *testing.T) {
	svc, _, _ := setupCartTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, addRequest(1, 2))
	require.NoError(t, err)

	resp, err := svc.SetItemQuantity(ctx, 1, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	// Removing an absent line is a no-op, not an error
	resp, err = svc.SetItemQuantity(ctx, 1, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestClearCart_Idempotent(t *testing.T) {
	svc, _, _ := setupCartTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, addRequest(1, 2))
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 1, addRequest(2, 1))
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(ctx, 1))

	resp, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	// Clearing an already empty cart succeeds
	require.NoError(t, svc.ClearCart(ctx, 1))
}

func TestGetCart_DerivedTotals(t *testing.T) {
	svc, _, _ := setupCartTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, addRequest(1, 2))
	require.NoError(t, err)
	resp, err := svc.AddItem(ctx, 1, addRequest(2, 1))
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalQuantity)
	assert.Equal(t, int64(2*1000+450), resp.TotalAmount)
}

func TestGetCart_IsolatedPerUser(t *testing.T) {
	svc, _, _ := setupCartTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, addRequest(1, 2))
	require.NoError(t, err)

	resp, err := svc.GetCart(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestGetCart_MissingProductLineStaysVisible(t *testing.T) {
	svc, fake, _ := setupCartTest(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, addRequest(1, 2))
	require.NoError(t, err)

	// Product disappears from the catalog after it was added
	delete(fake.products, 1)

	resp, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, uint(1), resp.Items[0].ProductID)
	assert.False(t, resp.Items[0].InStock)
	assert.Equal(t, int64(0), resp.Items[0].LineTotal)
}
