package repository

import (
	"context"

	"github.com/ErlanBelekov/stockbetting/internal/domain"
)

// StockRepository is what the stock usecase needs from storage.
// Update and Delete return domain.ErrStockNotFound for unknown ids.
type StockRepository interface {
	FindBySymbol(ctx context.Context, symbol string) ([]*domain.StockData, error)
	Save(ctx context.Context, s *domain.StockData) (*domain.StockData, error)
	Update(ctx context.Context, s *domain.StockData) (*domain.StockData, error)
	Delete(ctx context.Context, id int64) error
}
