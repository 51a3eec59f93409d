package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos_api/internal/stock"
	"pos_api/internal/transactions"
)

// stockHandler holds the stock service and implements HTTP handlers for
// inventory operations.
type stockHandler struct {
	stockService *stock.Service
	logger       *zap.Logger
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(stockService *stock.Service, logger *zap.Logger) *stockHandler {
	return &stockHandler{
		stockService: stockService,
		logger:       logger,
	}
}

// handleGetStock handles the GET /api/stock endpoint.
func (h *stockHandler) handleGetStock(ctx *gin.Context) {
	items, err := h.stockService.GetAll()
	if err != nil {
		h.logger.Error("failed to list stock", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list stock"})
		return
	}
	ctx.JSON(http.StatusOK, items)
}

// handleAddStock handles the POST /api/stock endpoint. Adding a name that
// already exists merges quantities into the existing item.
func (h *stockHandler) handleAddStock(ctx *gin.Context) {
	var req struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
		Stock int     `json:"stock"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	item, err := h.stockService.Add(req.Name, req.Price, req.Stock)
	if err != nil {
		switch {
		case errors.Is(err, stock.ErrInvalidInput), errors.Is(err, stock.ErrDuplicateName):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		default:
			h.logger.Error("failed to add stock item", zap.String("name", req.Name), zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add stock item"})
		}
		return
	}

	ctx.JSON(http.StatusCreated, item)
}

// handleDeleteStock handles the DELETE /api/stock/:id endpoint.
func (h *stockHandler) handleDeleteStock(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	if err := h.stockService.Delete(id); err != nil {
		if errors.Is(err, stock.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.logger.Error("failed to delete stock item", zap.Int64("id", id), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete stock item"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Product deleted", "id": id})
}

// handleUpdateStock handles the POST /api/stock/update endpoint. The posted
// quantity is the amount sold; negative values restock.
func (h *stockHandler) handleUpdateStock(ctx *gin.Context) {
	var req struct {
		ProductID *int64 `json:"product_id"`
		Quantity  *int   `json:"quantity"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil || req.ProductID == nil || req.Quantity == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing product_id or quantity"})
		return
	}

	item, err := h.stockService.UpdateQuantity(*req.ProductID, *req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, stock.ErrNotFound), errors.Is(err, stock.ErrInsufficientStock):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Product not found or insufficient stock"})
		default:
			h.logger.Error("failed to update stock quantity", zap.Int64("id", *req.ProductID), zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update stock"})
		}
		return
	}

	ctx.JSON(http.StatusOK, item)
}

// handleSearchStock handles the GET /api/stock/search endpoint.
func (h *stockHandler) handleSearchStock(ctx *gin.Context) {
	results, err := h.stockService.Search(ctx.Query("q"))
	if err != nil {
		h.logger.Error("failed to search stock", zap.String("term", ctx.Query("q")), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search stock"})
		return
	}
	ctx.JSON(http.StatusOK, results)
}

// transactionHandler holds the transaction service and implements HTTP
// handlers for sale operations.
type transactionHandler struct {
	txService *transactions.Service
	logger    *zap.Logger
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(txService *transactions.Service, logger *zap.Logger) *transactionHandler {
	return &transactionHandler{
		txService: txService,
		logger:    logger,
	}
}

// handleGetTransactions handles the GET /api/transactions endpoint. An
// optional limit query parameter is clamped by the service.
func (h *transactionHandler) handleGetTransactions(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	txs, err := h.txService.GetRecent(limit)
	if err != nil {
		h.logger.Error("failed to list transactions", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list transactions"})
		return
	}
	ctx.JSON(http.StatusOK, txs)
}

// handleCreateTransaction handles the POST /api/transactions endpoint. Only
// the product id and quantity of each cart line are used; prices are read
// from the stock store at sale time.
func (h *transactionHandler) handleCreateTransaction(ctx *gin.Context) {
	var req struct {
		CustomerName string `json:"customerName"`
		Products     []struct {
			Product struct {
				ID int64 `json:"id"`
			} `json:"product"`
			Quantity int `json:"quantity"`
		} `json:"products"`
		Status string `json:"status"`
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if len(req.Products) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No products in transaction"})
		return
	}

	cart := make([]transactions.CartLine, 0, len(req.Products))
	for _, line := range req.Products {
		cart = append(cart, transactions.CartLine{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
		})
	}

	tx, err := h.txService.Create(req.CustomerName, cart, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, transactions.ErrEmptyCart),
			errors.Is(err, transactions.ErrInvalidQuantity),
			errors.Is(err, transactions.ErrUnknownProduct),
			errors.Is(err, transactions.ErrInsufficientStock):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, transactions.ErrDuplicateReceipt):
			ctx.JSON(http.StatusConflict, gin.H{"error": "receipt number collision, retry the sale"})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create transaction"})
		}
		return
	}

	ctx.JSON(http.StatusCreated, tx)
}

// handleDeleteTransaction handles the DELETE /api/transactions/:id endpoint.
// Stock decremented by the sale is not restored.
func (h *transactionHandler) handleDeleteTransaction(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}

	if err := h.txService.Delete(id); err != nil {
		if errors.Is(err, transactions.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		h.logger.Error("failed to delete transaction", zap.Int64("id", id), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete transaction"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Transaction deleted successfully",
		"note":    "stock quantities are not restored",
	})
}
