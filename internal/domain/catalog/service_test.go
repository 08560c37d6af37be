// internal/domain/catalog/service_test.go
package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCatalogTest(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&Category{}, &Product{}))

	return NewService(db, &config.Config{}), db
}

func seedCategory(t *testing.T, db *gorm.DB, slug string) Category {
	t.Helper()
	category := Category{Slug: slug, Name: slug, IsActive: true}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func TestCreateProduct_DerivesSlug(t *testing.T) {
	svc, db := setupCatalogTest(t)
	ctx := context.Background()
	category := seedCategory(t, db, "sunglasses")

	product, err := svc.CreateProduct(ctx, &CreateProductRequest{
		Name:       "Aviator Sunglasses",
		Price:      7999,
		CategoryID: category.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "aviator-sunglasses", product.Slug)
	assert.True(t, product.IsActive)
	assert.True(t, product.InStock)

	// A second product with the same name gets a suffixed slug
	second, err := svc.CreateProduct(ctx, &CreateProductRequest{
		Name:       "Aviator Sunglasses",
		Price:      8999,
		CategoryID: category.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "aviator-sunglasses-2", second.Slug)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, db := setupCatalogTest(t)
	ctx := context.Background()
	category := seedCategory(t, db, "sunglasses")

	// Discounted price must undercut the list price
	_, err := svc.CreateProduct(ctx, &CreateProductRequest{
		Name:            "Bad Discount",
		Price:           1000,
		DiscountedPrice: 1000,
		CategoryID:      category.ID,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidArgument))

	// Unknown category
	_, err = svc.CreateProduct(ctx, &CreateProductRequest{
		Name:       "Orphan",
		Price:      1000,
		CategoryID: 999,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestCreateProduct_SlugCheckFailureSurfaces(t *testing.T) {
	svc, db := setupCatalogTest(t)
	ctx := context.Background()
	category := seedCategory(t, db, "sunglasses")

	// Break the slug uniqueness query; the failure must surface instead of
	// silently handing out a possibly duplicate slug
	require.NoError(t, db.Migrator().DropTable(&Product{}))

	_, err := svc.CreateProduct(ctx, &CreateProductRequest{
		Name:       "Aviator Sunglasses",
		Price:      7999,
		CategoryID: category.ID,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Internal))
}

func TestGetProductBySlug_HidesInactive(t *testing.T) {
	svc, db := setupCatalogTest(t)
	ctx := context.Background()
	category := seedCategory(t, db, "sunglasses")

	product, err := svc.CreateProduct(ctx, &CreateProductRequest{
		Name:       "Aviator Sunglasses",
		Price:      7999,
		CategoryID: category.ID,
	})
	require.NoError(t, err)

	got, err := svc.GetProductBySlug(ctx, product.Slug)
	require.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)

	inactive := false
	_, err = svc.UpdateProduct(ctx, product.ID, &UpdateProductRequest{IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.GetProductBySlug(ctx, product.Slug)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestListProducts_Filters(t *testing.T) {
	svc, db := setupCatalogTest(t)
	ctx := context.Background()
	sunglasses := seedCategory(t, db, "sunglasses")
	eyeglasses := seedCategory(t, db, "eyeglasses")

	_, err := svc.CreateProduct(ctx, &CreateProductRequest{
		Name: "Aviator Sunglasses", Price: 7999, CategoryID: sunglasses.ID, BestSeller: true,
	})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, &CreateProductRequest{
		Name: "Classic Round Frame", Price: 4999, CategoryID: eyeglasses.ID,
	})
	require.NoError(t, err)

	products, total, err := svc.ListProducts(ctx, &ProductListRequest{})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, int64(2), total)

	products, total, err = svc.ListProducts(ctx, &ProductListRequest{Category: "sunglasses"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "aviator-sunglasses", products[0].Slug)

	bestSeller := true
	products, _, err = svc.ListProducts(ctx, &ProductListRequest{BestSeller: &bestSeller})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "aviator-sunglasses", products[0].Slug)
}

func TestUpdateProduct_PartialUpdate(t *testing.T) {
	svc, db := setupCatalogTest(t)
	ctx := context.Background()
	category := seedCategory(t, db, "sunglasses")

	product, err := svc.CreateProduct(ctx, &CreateProductRequest{
		Name:        "Aviator Sunglasses",
		Description: "Original",
		Price:       7999,
		CategoryID:  category.ID,
	})
	require.NoError(t, err)

	newPrice := int64(8999)
	updated, err := svc.UpdateProduct(ctx, product.ID, &UpdateProductRequest{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, int64(8999), updated.Price)
	assert.Equal(t, "Original", updated.Description)

	badPrice := int64(0)
	_, err = svc.UpdateProduct(ctx, product.ID, &UpdateProductRequest{Price: &badPrice})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidArgument))
}

func TestDeleteProduct_SoftDelete(t *testing.T) {
	svc, db := setupCatalogTest(t)
	ctx := context.Background()
	category := seedCategory(t, db, "sunglasses")

	product, err := svc.CreateProduct(ctx, &CreateProductRequest{
		Name: "Aviator Sunglasses", Price: 7999, CategoryID: category.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, product.ID))

	_, err = svc.GetProduct(ctx, product.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	// The row survives as a soft-deleted record
	var count int64
	require.NoError(t, db.Unscoped().Model(&Product{}).Where("id = ?", product.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	err = svc.DeleteProduct(ctx, 999)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestCreateCategory_SlugConflict(t *testing.T) {
	svc, _ := setupCatalogTest(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, &CreateCategoryRequest{Name: "Sunglasses"})
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, &CreateCategoryRequest{Name: "Sunglasses"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestProduct_EffectivePrice(t *testing.T) {
	full := Product{Price: 1000}
	assert.Equal(t, int64(1000), full.EffectivePrice())

	discounted := Product{Price: 1000, DiscountedPrice: 450}
	assert.Equal(t, int64(450), discounted.EffectivePrice())
	assert.Equal(t, 4.5, discounted.GetFormattedPrice())
}
