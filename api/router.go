package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"pos_api/internal/stock"
	"pos_api/internal/transactions"
)

// InitRoutes registers all stock and transaction endpoints on the given Gin
// engine. It initializes the storages, services, and handlers, then binds
// each HTTP method and path to the appropriate handler function.
func InitRoutes(e *gin.Engine, db *sqlx.DB, logger *zap.Logger, txListLimit int) {
	e.Use(RequestID(), RequestLogger(logger))

	stockStorage := stock.NewSQLStorage(db)
	stockService := stock.NewService(stockStorage, logger)
	stockHandler := NewStockHandler(stockService, logger)

	txStorage := transactions.NewSQLStorage(db)
	txService := transactions.NewService(txStorage, logger, txListLimit)
	txHandler := NewTransactionHandler(txService, logger)

	apiGroup := e.Group("/api")

	apiGroup.GET("/stock", stockHandler.handleGetStock)
	apiGroup.POST("/stock", stockHandler.handleAddStock)
	apiGroup.POST("/stock/update", stockHandler.handleUpdateStock)
	apiGroup.GET("/stock/search", stockHandler.handleSearchStock)
	apiGroup.DELETE("/stock/:id", stockHandler.handleDeleteStock)

	apiGroup.GET("/transactions", txHandler.handleGetTransactions)
	apiGroup.POST("/transactions", txHandler.handleCreateTransaction)
	apiGroup.DELETE("/transactions/:id", txHandler.handleDeleteTransaction)

	apiGroup.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "POS System",
		})
	})
}
