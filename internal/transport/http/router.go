package httptransport

import (
	"github.com/ErlanBelekov/stockbetting/internal/pipeline"
	"github.com/ErlanBelekov/stockbetting/internal/transport/http/handler"
	"github.com/ErlanBelekov/stockbetting/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

// NewRouter wires every API route behind the request pipeline. Unmatched
// paths also pass through the pipeline so they get the same headers and a
// 404 envelope.
func NewRouter(p *pipeline.Pipeline, authHandler *handler.AuthHandler, stockHandler *handler.StockHandler, verifier middleware.TokenVerifier) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())
	r.Use(p.Gin())

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/register", authHandler.Register)

	// Protected stock routes
	stocks := api.Group("/stocks", middleware.Auth(verifier))
	stocks.GET("/:symbol", stockHandler.GetBySymbol)
	stocks.POST("", stockHandler.Save)
	stocks.POST("/predict", stockHandler.Predict)
	stocks.PUT("/:id", stockHandler.Update)
	stocks.DELETE("/:id", stockHandler.Delete)

	return r
}
