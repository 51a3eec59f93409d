package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pos_api/api"
	"pos_api/internal/database"
	"pos_api/internal/stock"
	"pos_api/internal/transactions"
)

func initRouterTests(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err, "Expected in-memory database to open")
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.InitSchema(db), "Expected schema to initialize")

	api.InitRoutes(router, db, zaptest.NewLogger(t), 50)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestPOSHappyPath_FullFlow covers the whole flow: add stock, sell it,
// observe the decrement, and clean up.
func TestPOSHappyPath_FullFlow(t *testing.T) {
	router := initRouterTests(t)

	var appleID int64
	var transactionID int64

	t.Run("POST_AddStock", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/stock", map[string]any{
			"name":  "Apple",
			"price": 1.5,
			"stock": 10,
		})

		assert.Equal(t, http.StatusCreated, w.Code, "Expected HTTP 201 Created for a new stock item")

		var item stock.Item
		err := json.Unmarshal(w.Body.Bytes(), &item)
		assert.NoError(t, err, "Expected no error unmarshalling created item response")
		assert.NotZero(t, item.ID, "Expected item ID to be generated")
		assert.Equal(t, "Apple", item.Name)
		assert.Equal(t, 10, item.Quantity)
		assert.Equal(t, 1.5, item.Price)

		appleID = item.ID
	})

	if appleID == 0 {
		t.Fatal("Stock item ID was not generated in POST_AddStock step.")
	}

	t.Run("POST_AddStock_MergesDuplicateName", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/stock", map[string]any{
			"name":  "Apple",
			"price": 1.5,
			"stock": 5,
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var item stock.Item
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
		assert.Equal(t, appleID, item.ID, "Expected the existing item to be merged, not a new row")
		assert.Equal(t, 15, item.Quantity, "Expected quantities to be summed")
	})

	t.Run("GET_Stock", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/stock", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var items []stock.Item
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
		assert.Len(t, items, 1, "Expected a single stock item after the merge")
	})

	t.Run("POST_CreateTransaction", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/transactions", map[string]any{
			"customerName": "Alice",
			"products": []map[string]any{
				{"product": map[string]any{"id": appleID}, "quantity": 3},
			},
		})

		assert.Equal(t, http.StatusCreated, w.Code, "Expected HTTP 201 Created for a successful sale")

		var tx transactions.Transaction
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))
		assert.Equal(t, "T-00001", tx.ReceiptNumber, "Expected the first receipt number")
		assert.InDelta(t, 4.5, tx.Total, 1e-9, "Expected total = 1.5 * 3")
		assert.Equal(t, "Alice", tx.CustomerName)
		assert.Equal(t, "completed", tx.Status, "Expected the default status")
		require.Len(t, tx.Products, 1)
		assert.Equal(t, "Apple", tx.Products[0].Product.Name)

		transactionID = tx.ID
	})

	t.Run("GET_Stock_AfterSale", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/stock", nil)

		var items []stock.Item
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
		require.Len(t, items, 1)
		assert.Equal(t, 12, items[0].Quantity, "Expected 15 - 3 = 12 after the sale")
	})

	t.Run("POST_CreateTransaction_InsufficientStock", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/transactions", map[string]any{
			"products": []map[string]any{
				{"product": map[string]any{"id": appleID}, "quantity": 100},
			},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code, "Expected an over-sell to be rejected")

		w = doJSON(router, http.MethodGet, "/api/stock", nil)
		var items []stock.Item
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
		require.Len(t, items, 1)
		assert.Equal(t, 12, items[0].Quantity, "Expected quantity unchanged after the rejected sale")
	})

	t.Run("POST_CreateTransaction_EmptyCart", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/transactions", map[string]any{
			"products": []map[string]any{},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code, "Expected HTTP 400 for an empty cart")
	})

	t.Run("POST_UpdateStock", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/stock/update", map[string]any{
			"product_id": appleID,
			"quantity":   2,
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var item stock.Item
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
		assert.Equal(t, 10, item.Quantity, "Expected 12 - 2 = 10 after the manual update")
	})

	t.Run("POST_UpdateStock_MissingFields", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/stock/update", map[string]any{
			"product_id": appleID,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code, "Expected HTTP 400 for a missing quantity")
	})

	t.Run("POST_UpdateStock_Insufficient", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/stock/update", map[string]any{
			"product_id": appleID,
			"quantity":   1000,
		})

		assert.Equal(t, http.StatusNotFound, w.Code, "Expected HTTP 404 for an insufficient decrement")
	})

	t.Run("GET_SearchStock", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/stock/search?q=app", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var items []stock.Item
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
		require.Len(t, items, 1, "Expected the case-insensitive search to match Apple")
		assert.Equal(t, "Apple", items[0].Name)
	})

	t.Run("GET_Transactions", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/transactions", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var txs []transactions.Transaction
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txs))
		require.Len(t, txs, 1, "Expected only the successful sale to be recorded")
		assert.Equal(t, "T-00001", txs[0].ReceiptNumber)
	})

	t.Run("DELETE_Transaction", func(t *testing.T) {
		w := doJSON(router, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", transactionID), nil)

		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(router, http.MethodGet, "/api/stock", nil)
		var items []stock.Item
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
		require.Len(t, items, 1)
		assert.Equal(t, 10, items[0].Quantity, "Expected transaction deletion to leave stock untouched")
	})

	t.Run("DELETE_Stock", func(t *testing.T) {
		w := doJSON(router, http.MethodDelete, fmt.Sprintf("/api/stock/%d", appleID), nil)

		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(router, http.MethodGet, "/api/stock", nil)
		var items []stock.Item
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
		assert.Empty(t, items, "Expected the stock list to be empty after deletion")
	})
}

func TestNotFoundResponses(t *testing.T) {
	router := initRouterTests(t)

	w := doJSON(router, http.MethodDelete, "/api/stock/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "Expected HTTP 404 deleting a missing stock item")

	w = doJSON(router, http.MethodDelete, "/api/transactions/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "Expected HTTP 404 deleting a missing transaction")
}

func TestHealthEndpoint(t *testing.T) {
	router := initRouterTests(t)

	w := doJSON(router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"), "Expected the request id middleware to echo an id")
}
