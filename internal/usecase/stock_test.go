package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ErlanBelekov/stockbetting/internal/domain"
	"github.com/ErlanBelekov/stockbetting/internal/predict"
	"github.com/ErlanBelekov/stockbetting/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStockRepo struct {
	findBySymbol func(ctx context.Context, symbol string) ([]*domain.StockData, error)
	save         func(ctx context.Context, s *domain.StockData) (*domain.StockData, error)
	update       func(ctx context.Context, s *domain.StockData) (*domain.StockData, error)
	delete       func(ctx context.Context, id int64) error
}

func (r *fakeStockRepo) FindBySymbol(ctx context.Context, symbol string) ([]*domain.StockData, error) {
	return r.findBySymbol(ctx, symbol)
}

func (r *fakeStockRepo) Save(ctx context.Context, s *domain.StockData) (*domain.StockData, error) {
	return r.save(ctx, s)
}

func (r *fakeStockRepo) Update(ctx context.Context, s *domain.StockData) (*domain.StockData, error) {
	return r.update(ctx, s)
}

func (r *fakeStockRepo) Delete(ctx context.Context, id int64) error {
	return r.delete(ctx, id)
}

type fakePredictor struct {
	calls   int
	predict func(ctx context.Context, f domain.Features) (domain.Prediction, error)
}

func (p *fakePredictor) Predict(ctx context.Context, f domain.Features) (domain.Prediction, error) {
	p.calls++
	return p.predict(ctx, f)
}

func validRow() *domain.StockData {
	return &domain.StockData{Symbol: "aapl", Open: 100, High: 106, Low: 99, Close: 105, Volume: 1000, Date: "2025-01-23"}
}

func TestGetBySymbol_NoRows_NotFound(t *testing.T) {
	repo := &fakeStockRepo{
		findBySymbol: func(_ context.Context, _ string) ([]*domain.StockData, error) {
			return []*domain.StockData{}, nil
		},
	}
	uc := usecase.NewStockUsecase(repo, nil, nil)

	_, err := uc.GetBySymbol(context.Background(), "zzzz")

	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "Stock not found with symbol: ZZZZ", nf.Error())
}

func TestGetBySymbol_ReturnsRows(t *testing.T) {
	var gotSymbol string
	repo := &fakeStockRepo{
		findBySymbol: func(_ context.Context, symbol string) ([]*domain.StockData, error) {
			gotSymbol = symbol
			return []*domain.StockData{validRow()}, nil
		},
	}
	uc := usecase.NewStockUsecase(repo, nil, nil)

	rows, err := uc.GetBySymbol(context.Background(), " aapl ")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "AAPL", gotSymbol)
}

func TestGetBySymbol_RepoError_Wrapped(t *testing.T) {
	repoErr := errors.New("db down")
	repo := &fakeStockRepo{
		findBySymbol: func(_ context.Context, _ string) ([]*domain.StockData, error) { return nil, repoErr },
	}

	_, err := usecase.NewStockUsecase(repo, nil, nil).GetBySymbol(context.Background(), "AAPL")
	assert.ErrorIs(t, err, repoErr)
}

func TestSave_InvalidRow_ValidationError(t *testing.T) {
	repo := &fakeStockRepo{
		save: func(_ context.Context, _ *domain.StockData) (*domain.StockData, error) {
			t.Fatal("repo must not be called for invalid input")
			return nil, nil
		},
	}
	row := validRow()
	row.High = 1

	_, err := usecase.NewStockUsecase(repo, nil, nil).Save(context.Background(), row)

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Details, "high must not be below low")
}

func TestSave_NormalisesSymbol(t *testing.T) {
	repo := &fakeStockRepo{
		save: func(_ context.Context, s *domain.StockData) (*domain.StockData, error) {
			out := *s
			out.ID = 42
			return &out, nil
		},
	}

	saved, err := usecase.NewStockUsecase(repo, nil, nil).Save(context.Background(), validRow())
	require.NoError(t, err)
	assert.Equal(t, int64(42), saved.ID)
	assert.Equal(t, "AAPL", saved.Symbol)
}

func TestUpdate_UnknownID_NotFound(t *testing.T) {
	repo := &fakeStockRepo{
		update: func(_ context.Context, _ *domain.StockData) (*domain.StockData, error) {
			return nil, domain.ErrStockNotFound
		},
	}
	row := validRow()
	row.ID = 7

	_, err := usecase.NewStockUsecase(repo, nil, nil).Update(context.Background(), row)

	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Stock not found with id: 7", nf.Error())
}

func TestDelete_UnknownID_NotFound(t *testing.T) {
	repo := &fakeStockRepo{
		delete: func(_ context.Context, _ int64) error { return domain.ErrStockNotFound },
	}

	err := usecase.NewStockUsecase(repo, nil, nil).Delete(context.Background(), 9)

	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestPredict_CachesIdenticalRows(t *testing.T) {
	p := &fakePredictor{
		predict: func(_ context.Context, f domain.Features) (domain.Prediction, error) {
			return domain.Prediction{Symbol: f.Symbol, Direction: domain.DirectionUp}, nil
		},
	}
	uc := usecase.NewStockUsecase(&fakeStockRepo{}, p, predict.NewCache(time.Minute))
	f := domain.Features{Symbol: "AAPL", Open: 1, High: 2, Low: 1, Close: 2, Volume: 5}

	first, err := uc.Predict(context.Background(), f)
	require.NoError(t, err)
	second, err := uc.Predict(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.calls)
}

func TestPredict_ValidationErrorPassesThrough(t *testing.T) {
	uc := usecase.NewStockUsecase(&fakeStockRepo{}, predict.NewLogistic(predict.DefaultWeights), nil)

	_, err := uc.Predict(context.Background(), domain.Features{Symbol: "AAPL", Volume: -1})

	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestPredict_FailureIsNotCached(t *testing.T) {
	boom := errors.New("model unavailable")
	p := &fakePredictor{
		predict: func(_ context.Context, _ domain.Features) (domain.Prediction, error) {
			return domain.Prediction{}, boom
		},
	}
	uc := usecase.NewStockUsecase(&fakeStockRepo{}, p, predict.NewCache(time.Minute))
	f := domain.Features{Symbol: "AAPL", Open: 1, High: 1, Low: 1, Close: 1}

	_, err := uc.Predict(context.Background(), f)
	assert.ErrorIs(t, err, boom)
	_, err = uc.Predict(context.Background(), f)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, p.calls)
}
