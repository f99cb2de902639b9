package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ErlanBelekov/stockbetting/internal/domain"
	"github.com/ErlanBelekov/stockbetting/internal/metrics"
	"github.com/ErlanBelekov/stockbetting/internal/predict"
	"github.com/ErlanBelekov/stockbetting/internal/repository"
)

type StockUsecase struct {
	repo      repository.StockRepository
	predictor predict.Predictor
	cache     *predict.Cache
}

// NewStockUsecase wires storage and scoring. cache may be nil to disable
// prediction caching.
func NewStockUsecase(repo repository.StockRepository, predictor predict.Predictor, cache *predict.Cache) *StockUsecase {
	return &StockUsecase{repo: repo, predictor: predictor, cache: cache}
}

// GetBySymbol returns every stored row for symbol, oldest first. No rows is
// a NotFoundError.
func (u *StockUsecase) GetBySymbol(ctx context.Context, symbol string) ([]*domain.StockData, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	rows, err := u.repo.FindBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("find stock data: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.NewNotFound("Stock", "symbol: "+symbol)
	}
	return rows, nil
}

func (u *StockUsecase) Save(ctx context.Context, s *domain.StockData) (*domain.StockData, error) {
	if err := validateStock(s); err != nil {
		return nil, err
	}
	saved, err := u.repo.Save(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("save stock data: %w", err)
	}
	return saved, nil
}

// Update replaces the row identified by s.ID.
func (u *StockUsecase) Update(ctx context.Context, s *domain.StockData) (*domain.StockData, error) {
	if err := validateStock(s); err != nil {
		return nil, err
	}
	updated, err := u.repo.Update(ctx, s)
	if err != nil {
		if errors.Is(err, domain.ErrStockNotFound) {
			return nil, domain.NewNotFound("Stock", "id: "+strconv.FormatInt(s.ID, 10))
		}
		return nil, fmt.Errorf("update stock data: %w", err)
	}
	return updated, nil
}

func (u *StockUsecase) Delete(ctx context.Context, id int64) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrStockNotFound) {
			return domain.NewNotFound("Stock", "id: "+strconv.FormatInt(id, 10))
		}
		return fmt.Errorf("delete stock data: %w", err)
	}
	return nil
}

// Predict scores f, serving a cached result for an identical row while it
// is fresh.
func (u *StockUsecase) Predict(ctx context.Context, f domain.Features) (domain.Prediction, error) {
	if u.cache != nil {
		if p, ok := u.cache.Get(f); ok {
			metrics.PredictionCacheLookups.WithLabelValues("hit").Inc()
			return p, nil
		}
		metrics.PredictionCacheLookups.WithLabelValues("miss").Inc()
	}

	p, err := u.predictor.Predict(ctx, f)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return domain.Prediction{}, err
		}
		return domain.Prediction{}, fmt.Errorf("predict: %w", err)
	}

	if u.cache != nil {
		u.cache.Put(f, p)
	}
	metrics.PredictionsTotal.WithLabelValues(string(p.Direction)).Inc()
	return p, nil
}

func validateStock(s *domain.StockData) error {
	s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
	err := predict.Validate(domain.Features{
		Symbol: s.Symbol,
		Open:   s.Open,
		High:   s.High,
		Low:    s.Low,
		Close:  s.Close,
		Volume: s.Volume,
	})
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return domain.NewValidation("invalid stock data", ve.Details...)
		}
		return err
	}
	return nil
}
