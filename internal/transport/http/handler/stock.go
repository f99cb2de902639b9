package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ErlanBelekov/stockbetting/internal/domain"
	"github.com/ErlanBelekov/stockbetting/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

type stockUsecaser interface {
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.StockData, error)
	Save(ctx context.Context, s *domain.StockData) (*domain.StockData, error)
	Update(ctx context.Context, s *domain.StockData) (*domain.StockData, error)
	Delete(ctx context.Context, id int64) error
	Predict(ctx context.Context, f domain.Features) (domain.Prediction, error)
}

type StockHandler struct {
	stockUsecase stockUsecaser
	logger       *slog.Logger
}

func NewStockHandler(stockUsecase stockUsecaser, logger *slog.Logger) *StockHandler {
	return &StockHandler{
		stockUsecase: stockUsecase,
		logger:       logger.With("component", "stock_handler"),
	}
}

type stockRequest struct {
	Symbol string  `json:"symbol" binding:"required,max=10"`
	Open   float64 `json:"open"   binding:"required,gt=0"`
	High   float64 `json:"high"   binding:"required,gt=0"`
	Low    float64 `json:"low"    binding:"required,gt=0"`
	Close  float64 `json:"close"  binding:"required,gt=0"`
	Volume int64   `json:"volume" binding:"gte=0"`
	Date   string  `json:"date"   binding:"required,datetime=2006-01-02"`
}

type predictRequest struct {
	Symbol string  `json:"symbol" binding:"required,max=10"`
	Open   float64 `json:"open"   binding:"required,gt=0"`
	High   float64 `json:"high"   binding:"required,gt=0"`
	Low    float64 `json:"low"    binding:"required,gt=0"`
	Close  float64 `json:"close"  binding:"required,gt=0"`
	Volume int64   `json:"volume" binding:"gte=0"`
}

type stockResponse struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

type predictionResponse struct {
	Symbol         string    `json:"symbol"`
	Direction      string    `json:"direction"`
	Recommendation string    `json:"recommendation"`
	Confidence     float64   `json:"confidence"`
	Explanation    string    `json:"explanation"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

func toStockResponse(s *domain.StockData) stockResponse {
	return stockResponse{
		ID:        s.ID,
		Symbol:    s.Symbol,
		Open:      s.Open,
		High:      s.High,
		Low:       s.Low,
		Close:     s.Close,
		Volume:    s.Volume,
		Date:      s.Date,
		CreatedAt: s.CreatedAt,
	}
}

func (r stockRequest) toDomain() *domain.StockData {
	return &domain.StockData{
		Symbol: r.Symbol,
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
		Date:   r.Date,
	}
}

// GET /api/stocks/:symbol
func (h *StockHandler) GetBySymbol(c *gin.Context) {
	rows, err := h.stockUsecase.GetBySymbol(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]stockResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, toStockResponse(s))
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/stocks
func (h *StockHandler) Save(c *gin.Context) {
	var req stockRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}

	saved, err := h.stockUsecase.Save(c.Request.Context(), req.toDomain())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toStockResponse(saved))
}

// PUT /api/stocks/:id
func (h *StockHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}

	var req stockRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}

	s := req.toDomain()
	s.ID = id
	updated, err := h.stockUsecase.Update(c.Request.Context(), s)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toStockResponse(updated))
}

// DELETE /api/stocks/:id
func (h *StockHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.stockUsecase.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/stocks/predict
func (h *StockHandler) Predict(c *gin.Context) {
	var req predictRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}

	p, err := h.stockUsecase.Predict(c.Request.Context(), domain.Features{
		Symbol: req.Symbol,
		Open:   req.Open,
		High:   req.High,
		Low:    req.Low,
		Close:  req.Close,
		Volume: req.Volume,
	})
	if err != nil {
		fail(c, err)
		return
	}

	if userID, ok := c.Get(middleware.UserIDKey); ok {
		h.logger.DebugContext(c.Request.Context(), "prediction served", "user_id", userID, "symbol", p.Symbol)
	}

	c.JSON(http.StatusOK, predictionResponse{
		Symbol:         p.Symbol,
		Direction:      string(p.Direction),
		Recommendation: string(p.Recommendation),
		Confidence:     p.Confidence,
		Explanation:    p.Explanation,
		GeneratedAt:    p.GeneratedAt,
	})
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidation("Invalid id", "id must be a positive integer")
	}
	return id, nil
}
