// internal/app/bootstrap/seed.go
package bootstrap

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	categorystore "github.com/bsankara/koasa/internal/app/store/categories"
	productstore "github.com/bsankara/koasa/internal/app/store/products"
	"github.com/bsankara/koasa/internal/domain/models"
)

// seedCategories are the butcher-shop sections created on first run.
var seedCategories = []models.Category{
	{Name: "Bœuf", Description: "Viandes de bœuf", Icon: "fas fa-drumstick-bite", IsActive: true},
	{Name: "Mouton", Description: "Viandes de mouton", Icon: "fas fa-paw", IsActive: true},
	{Name: "Volaille", Description: "Poulet et autres volailles", Icon: "fas fa-kiwi-bird", IsActive: true},
	{Name: "Porc", Description: "Viandes de porc", Icon: "fas fa-piggy-bank", IsActive: true},
	{Name: "Poisson", Description: "Poissons et fruits de mer", Icon: "fas fa-fish", IsActive: true},
	{Name: "Charcuterie", Description: "Saucisses et charcuteries", Icon: "fas fa-bacon", IsActive: true},
	{Name: "Autres", Description: "Autres produits", Icon: "fas fa-cube", IsActive: true},
}

type seedProduct struct {
	name        string
	description string
	price       float64
	unit        string
	category    string
	stock       int
}

var seedProducts = []seedProduct{
	{"Bœuf - Entrecôte", "Viande de qualité premium, tendre et savoureuse", 4500, "kg", "Bœuf", 50},
	{"Mouton - Gigot", "Gigot de mouton frais, idéal pour les grillades", 3800, "kg", "Mouton", 30},
	{"Poulet entier", "Poulet fermier de qualité supérieure", 2500, "pièce", "Volaille", 100},
	{"Côtelettes de porc", "Côtelettes tendres, parfaites pour les grillades", 3200, "kg", "Porc", 40},
	{"Saucisses de bœuf", "Saucisses maison, savoureuses et épicées", 1800, "kg", "Charcuterie", 60},
}

// seedCatalog populates the default categories and demo products. Each
// collection is only touched when it is empty, so existing shop data is
// never overwritten.
func seedCatalog(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	categories := categorystore.New(db)
	products := productstore.New(db)

	catCount, err := categories.Count(ctx)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if catCount == 0 {
		for _, cat := range seedCategories {
			if _, err := categories.Create(ctx, cat); err != nil {
				return fmt.Errorf("seed category %q: %w", cat.Name, err)
			}
		}
		logger.Info("default categories created", zap.Int("count", len(seedCategories)))
	}

	prodCount, err := products.Count(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if prodCount == 0 {
		for _, sp := range seedProducts {
			cat, err := categories.GetByName(ctx, sp.category)
			if err != nil {
				return fmt.Errorf("seed product %q: category %q: %w", sp.name, sp.category, err)
			}
			p := models.Product{
				Name:        sp.name,
				Description: sp.description,
				Price:       sp.price,
				Unit:        sp.unit,
				CategoryID:  cat.ID,
				Stock:       sp.stock,
				IsAvailable: true,
			}
			if _, err := products.Create(ctx, p); err != nil {
				return fmt.Errorf("seed product %q: %w", sp.name, err)
			}
		}
		logger.Info("demo products created", zap.Int("count", len(seedProducts)))
	}

	return nil
}
