package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/puzzlerush/platform/internal/domain"
	"github.com/puzzlerush/platform/internal/ledger"
	"github.com/puzzlerush/platform/internal/repository"
)

// CatalogItem is one purchasable entry in the store.
type CatalogItem struct {
	Type     domain.ItemType    `json:"type"`
	Variant  domain.ItemVariant `json:"variant"`
	UnitCost int64              `json:"unit_cost"`
}

// defaultCatalog is the fixed store catalog. Prices are points.
var defaultCatalog = []CatalogItem{
	{Type: domain.ItemPowerUp, Variant: domain.VariantShield, UnitCost: 50},
	{Type: domain.ItemPowerUp, Variant: domain.VariantMagnet, UnitCost: 40},
	{Type: domain.ItemPowerUp, Variant: domain.VariantMultiplier, UnitCost: 75},
	{Type: domain.ItemSkin, Variant: domain.VariantSkinNeon, UnitCost: 500},
	{Type: domain.ItemSkin, Variant: domain.VariantSkinRetro, UnitCost: 350},
	{Type: domain.ItemSkin, Variant: domain.VariantSkinGold, UnitCost: 1200},
}

// StoreService handles the item catalog and purchases.
type StoreService struct {
	pool      *pgxpool.Pool
	engine    *ledger.Engine
	inventory repository.InventoryRepository
	catalog   []CatalogItem
	logger    *slog.Logger
}

// NewStoreService creates a store service over the default catalog.
func NewStoreService(pool *pgxpool.Pool, engine *ledger.Engine, inventory repository.InventoryRepository, logger *slog.Logger) *StoreService {
	return &StoreService{
		pool:      pool,
		engine:    engine,
		inventory: inventory,
		catalog:   defaultCatalog,
		logger:    logger,
	}
}

// Catalog returns the purchasable items.
func (s *StoreService) Catalog() []CatalogItem {
	return s.catalog
}

// UnitCost resolves the catalog price for a variant.
func (s *StoreService) UnitCost(itemType domain.ItemType, variant domain.ItemVariant) (int64, error) {
	for _, item := range s.catalog {
		if item.Type == itemType && item.Variant == variant {
			return item.UnitCost, nil
		}
	}
	return 0, domain.ErrNotFound("catalog item", fmt.Sprintf("%s/%s", itemType, variant))
}

// PurchaseResult is returned on a successful purchase.
type PurchaseResult struct {
	Player  *domain.Player       `json:"player"`
	Applied domain.ResourceDelta `json:"applied"`
}

// Purchase buys quantity units of a catalog item, debiting points and
// crediting inventory atomically.
func (s *StoreService) Purchase(ctx context.Context, playerID uuid.UUID, itemType domain.ItemType, variant domain.ItemVariant, quantity int64) (*PurchaseResult, error) {
	unitCost, err := s.UnitCost(itemType, variant)
	if err != nil {
		return nil, err
	}

	var result PurchaseResult
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		player, delta, err := s.engine.ExecutePurchase(ctx, tx, domain.PurchaseParams{
			PlayerID: playerID,
			Type:     itemType,
			Variant:  variant,
			Quantity: quantity,
			UnitCost: unitCost,
		})
		if err != nil {
			return err
		}
		result = PurchaseResult{Player: player, Applied: delta}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase completed",
		"player_id", playerID,
		"variant", variant,
		"quantity", quantity,
		"cost", unitCost*quantity,
	)
	return &result, nil
}

// Inventory returns the player's current item quantities.
func (s *StoreService) Inventory(ctx context.Context, playerID uuid.UUID) ([]domain.InventoryItem, error) {
	items, err := s.inventory.Quantities(ctx, s.pool, playerID)
	if err != nil {
		return nil, domain.ErrInternal("read inventory", err)
	}
	return items, nil
}
