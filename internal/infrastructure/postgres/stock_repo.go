package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/stockbetting/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const stockColumns = `id, symbol, open, high, low, close, volume, date, created_at`

type StockRepository struct {
	pool *pgxpool.Pool
}

func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

// FindBySymbol returns all rows for symbol ordered by date. An unknown symbol
// yields an empty slice, not an error.
func (r *StockRepository) FindBySymbol(ctx context.Context, symbol string) ([]*domain.StockData, error) {
	query := `SELECT ` + stockColumns + `
		FROM stock_data
		WHERE symbol = $1
		ORDER BY date ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, strings.ToUpper(symbol))
	if err != nil {
		return nil, fmt.Errorf("find by symbol: %w", err)
	}
	defer rows.Close()

	var out []*domain.StockData
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock rows: %w", err)
	}
	return out, nil
}

func (r *StockRepository) Save(ctx context.Context, s *domain.StockData) (*domain.StockData, error) {
	query := `
		INSERT INTO stock_data (symbol, open, high, low, close, volume, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + stockColumns

	row := r.pool.QueryRow(ctx, query,
		strings.ToUpper(s.Symbol), s.Open, s.High, s.Low, s.Close, s.Volume, s.Date,
	)
	return scanStock(row)
}

func (r *StockRepository) Update(ctx context.Context, s *domain.StockData) (*domain.StockData, error) {
	query := `
		UPDATE stock_data
		SET    symbol = $2, open = $3, high = $4, low = $5,
		       close  = $6, volume = $7, date = $8
		WHERE  id = $1
		RETURNING ` + stockColumns

	row := r.pool.QueryRow(ctx, query,
		s.ID, strings.ToUpper(s.Symbol), s.Open, s.High, s.Low, s.Close, s.Volume, s.Date,
	)
	return scanStock(row)
}

func (r *StockRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stock_data WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete stock row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStockNotFound
	}
	return nil
}

// pgx.Row and pgx.Rows both implement this.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStock(row rowScanner) (*domain.StockData, error) {
	var s domain.StockData
	err := row.Scan(
		&s.ID, &s.Symbol, &s.Open, &s.High, &s.Low, &s.Close, &s.Volume, &s.Date, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStockNotFound
		}
		return nil, fmt.Errorf("scan stock row: %w", err)
	}
	return &s, nil
}
