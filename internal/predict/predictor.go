// Package predict scores a single price bar into a directional call.
package predict

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/ErlanBelekov/stockbetting/internal/domain"
)

// Predictor turns one feature row into a prediction.
type Predictor interface {
	Predict(ctx context.Context, f domain.Features) (domain.Prediction, error)
}

// Weights are the coefficients of the logistic model. Inputs are scaled
// before weighting: intraday return in percent, position of the close in the
// day's range centred on zero, and log10 of volume.
type Weights struct {
	Bias          float64
	Return        float64
	RangePosition float64
	LogVolume     float64
}

// DefaultWeights favour momentum: a strong close near the high reads as up.
var DefaultWeights = Weights{
	Bias:          -0.05,
	Return:        0.8,
	RangePosition: 1.6,
	LogVolume:     0.01,
}

const (
	buyThreshold  = 0.6
	sellThreshold = 0.4
)

// Logistic is a fixed-weight logistic regression scorer.
type Logistic struct {
	w   Weights
	now func() time.Time
}

func NewLogistic(w Weights) *Logistic {
	return &Logistic{w: w, now: time.Now}
}

func (m *Logistic) Predict(ctx context.Context, f domain.Features) (domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Prediction{}, err
	}
	if err := Validate(f); err != nil {
		return domain.Prediction{}, err
	}

	p := sigmoid(m.score(f))
	pred := domain.Prediction{
		Symbol:      strings.ToUpper(f.Symbol),
		Confidence:  p,
		GeneratedAt: m.now().UTC(),
	}
	if p > 0.5 {
		pred.Direction = domain.DirectionUp
		pred.Explanation = "Price likely to go up"
	} else {
		pred.Direction = domain.DirectionDown
		pred.Explanation = "Price likely to go down"
	}
	switch {
	case p >= buyThreshold:
		pred.Recommendation = domain.RecommendationBuy
	case p <= sellThreshold:
		pred.Recommendation = domain.RecommendationSell
	default:
		pred.Recommendation = domain.RecommendationHold
	}
	return pred, nil
}

func (m *Logistic) score(f domain.Features) float64 {
	ret := (f.Close - f.Open) / f.Open * 100

	pos := 0.0
	if spread := f.High - f.Low; spread > 0 {
		pos = (f.Close-f.Low)/spread - 0.5
	}

	return m.w.Bias +
		m.w.Return*ret +
		m.w.RangePosition*pos +
		m.w.LogVolume*math.Log10(float64(f.Volume)+1)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Validate rejects rows the model cannot score.
func Validate(f domain.Features) error {
	var details []string
	if strings.TrimSpace(f.Symbol) == "" {
		details = append(details, "symbol is required")
	}
	if f.Open <= 0 || f.High <= 0 || f.Low <= 0 || f.Close <= 0 {
		details = append(details, "prices must be positive")
	}
	if f.High < f.Low {
		details = append(details, "high must not be below low")
	}
	if f.Volume < 0 {
		details = append(details, "volume cannot be negative")
	}
	if len(details) > 0 {
		return domain.NewValidation("invalid features", details...)
	}
	return nil
}
