package services

import (
	"context"

	"neurocart/internal/domain"
	"neurocart/internal/repos"
)

type InventoryService struct {
	Inv     *repos.InventoryRepo
	Catalog *CatalogService
}

func NewInventoryService(inv *repos.InventoryRepo, catalog *CatalogService) *InventoryService {
	return &InventoryService{Inv: inv, Catalog: catalog}
}

// Availability converts qty to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func Availability(qty int) string {
	switch {
	case qty >= 5:
		return "IN_STOCK"
	case qty > 0:
		return "LOW_STOCK"
	}
	return "OUT_OF_STOCK"
}

func (s *InventoryService) Low(ctx context.Context, threshold int) ([]repos.InventoryRow, error) {
	if threshold < 0 {
		threshold = 0
	}
	return s.Inv.Low(ctx, threshold)
}

// SetQty overwrites stock for a product; the listing cache carries quantities so it is dropped.
func (s *InventoryService) SetQty(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return domain.ErrInvalid
	}
	if err := s.Inv.SetQty(ctx, productID, qty); err != nil {
		return err
	}
	s.Catalog.Invalidate(ctx)
	return nil
}
