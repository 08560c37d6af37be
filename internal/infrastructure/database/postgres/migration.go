// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		// Catalog domain - base tables
		&catalog.Category{},
		&catalog.Product{},

		// Cart domain
		&cart.CartItem{},

		// Order domain - dependent tables
		&order.Order{},
		&order.OrderItem{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("Creating additional database indexes...")

	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_best_seller ON products(best_seller, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user ON cart_items(user_id)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
	}

	for _, index := range indexes {
		if err := m.db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Println("Database indexes created successfully")
	return nil
}

// SeedInitialData seeds development data: a few categories and products
// so the cart and order flows can be exercised against a fresh database.
func (m *Migration) SeedInitialData() error {
	var count int64
	if err := m.db.Model(&catalog.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing categories: %w", err)
	}
	if count > 0 {
		return nil // Already seeded
	}

	log.Println("Seeding initial catalog data...")

	categories := []catalog.Category{
		{Slug: "eyeglasses", Name: "Eyeglasses", Description: "Prescription frames", IsActive: true},
		{Slug: "sunglasses", Name: "Sunglasses", Description: "UV-protective shades", IsActive: true},
		{Slug: "accessories", Name: "Accessories", Description: "Cases, cloths and chains", IsActive: true},
	}
	for i := range categories {
		if err := m.db.Create(&categories[i]).Error; err != nil {
			return fmt.Errorf("failed to seed category %q: %w", categories[i].Slug, err)
		}
	}

	products := []catalog.Product{
		{
			Slug:       "classic-round-frame",
			Name:       "Classic Round Frame",
			Price:      4999,
			CategoryID: categories[0].ID,
			BestSeller: true,
			InStock:    true,
			IsActive:   true,
		},
		{
			Slug:            "aviator-sunglasses",
			Name:            "Aviator Sunglasses",
			Price:           7999,
			DiscountedPrice: 5999,
			CategoryID:      categories[1].ID,
			InStock:         true,
			IsActive:        true,
		},
		{
			Slug:       "microfiber-cleaning-cloth",
			Name:       "Microfiber Cleaning Cloth",
			Price:      499,
			CategoryID: categories[2].ID,
			InStock:    true,
			IsActive:   true,
		},
	}
	for i := range products {
		if err := m.db.Create(&products[i]).Error; err != nil {
			return fmt.Errorf("failed to seed product %q: %w", products[i].Slug, err)
		}
	}

	log.Println("Initial catalog data seeded successfully")
	return nil
}
