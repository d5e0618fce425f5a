package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/franquicias-pos/internal/domain/entity"
)

// Identificadores de la franquicia de demostración.
const (
	DemoFranchiseID = "00000000-0000-0000-0000-0000000000f1"
	DemoCoffeeID    = "00000000-0000-0000-0000-0000000000a1"
	DemoMilkID      = "00000000-0000-0000-0000-0000000000a2"
	DemoBreadID     = "00000000-0000-0000-0000-0000000000a3"
)

// SeedDemo carga una franquicia con tres productos para probar el API sin PostgreSQL.
func SeedDemo(ctx context.Context, s *Store) error {
	now := time.Now()
	demo := []entity.Product{
		{ID: DemoCoffeeID, Name: "Café molido 500g", SKU: "CAF-500", Price: decimal.RequireFromString("18500"), Stock: 40},
		{ID: DemoMilkID, Name: "Leche entera 1L", SKU: "LEC-1000", Price: decimal.RequireFromString("4200"), Stock: 60},
		{ID: DemoBreadID, Name: "Pan tajado", SKU: "PAN-001", Price: decimal.RequireFromString("6900"), Stock: 25},
	}
	repo := s.Products()
	for i := range demo {
		p := demo[i]
		p.FranchiseID = DemoFranchiseID
		p.IsActive = true
		p.CreatedAt = now
		p.UpdatedAt = now
		if err := repo.Create(ctx, &p); err != nil {
			return err
		}
	}
	return nil
}
