package domain

import (
	"errors"
	"time"
)

var ErrStockNotFound = errors.New("stock row not found")

// StockData is one daily OHLCV row for a ticker symbol.
type StockData struct {
	ID        int64
	Symbol    string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	Date      string // YYYY-MM-DD
	CreatedAt time.Time
}

type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

type Recommendation string

const (
	RecommendationBuy  Recommendation = "BUY"
	RecommendationHold Recommendation = "HOLD"
	RecommendationSell Recommendation = "SELL"
)

// Features is the model input: one price bar.
type Features struct {
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

type Prediction struct {
	Symbol         string
	Direction      Direction
	Recommendation Recommendation
	Confidence     float64 // probability of an upward move, 0..1
	Explanation    string
	GeneratedAt    time.Time
}
