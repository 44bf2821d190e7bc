package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invapp "github.com/retailcore/backend/internal/application/inventory"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/interfaces/http/dto"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
)

// fakeBranchInventoryRepository is a map-backed ledger for driving the HTTP
// layer through a real adjustment service.
type fakeBranchInventoryRepository struct {
	rows map[string]*inventory.BranchInventory
}

func newFakeBranchInventoryRepository() *fakeBranchInventoryRepository {
	return &fakeBranchInventoryRepository{rows: make(map[string]*inventory.BranchInventory)}
}

func rowKey(branchID, productID uuid.UUID) string {
	return branchID.String() + "|" + productID.String()
}

func (f *fakeBranchInventoryRepository) seed(branchID, productID uuid.UUID, stock, minStock int) *inventory.BranchInventory {
	row, err := inventory.NewBranchInventory(branchID, productID)
	if err != nil {
		panic(err)
	}
	row.Stock = stock
	row.MinStock = minStock
	f.rows[rowKey(branchID, productID)] = row
	return row
}

func (f *fakeBranchInventoryRepository) FindByID(_ context.Context, id uuid.UUID) (*inventory.BranchInventory, error) {
	for _, row := range f.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeBranchInventoryRepository) FindByBranchAndProduct(_ context.Context, branchID, productID uuid.UUID) (*inventory.BranchInventory, error) {
	if row, ok := f.rows[rowKey(branchID, productID)]; ok {
		return row, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeBranchInventoryRepository) FindByBranchAndProducts(_ context.Context, branchID uuid.UUID, productIDs []uuid.UUID) ([]inventory.BranchInventory, error) {
	var result []inventory.BranchInventory
	for _, productID := range productIDs {
		if row, ok := f.rows[rowKey(branchID, productID)]; ok {
			result = append(result, *row)
		}
	}
	return result, nil
}

func (f *fakeBranchInventoryRepository) FindByBranch(_ context.Context, branchID uuid.UUID, _ shared.Filter) ([]inventory.BranchInventory, error) {
	var result []inventory.BranchInventory
	for _, row := range f.rows {
		if row.BranchID == branchID {
			result = append(result, *row)
		}
	}
	return result, nil
}

func (f *fakeBranchInventoryRepository) FindLowStock(_ context.Context, branchID *uuid.UUID) ([]inventory.BranchInventory, error) {
	var result []inventory.BranchInventory
	for _, row := range f.rows {
		if branchID != nil && row.BranchID != *branchID {
			continue
		}
		if row.IsLowStock() {
			result = append(result, *row)
		}
	}
	return result, nil
}

func (f *fakeBranchInventoryRepository) Save(_ context.Context, item *inventory.BranchInventory) error {
	f.rows[rowKey(item.BranchID, item.ProductID)] = item
	return nil
}

func (f *fakeBranchInventoryRepository) SaveWithLock(_ context.Context, item *inventory.BranchInventory) error {
	f.rows[rowKey(item.BranchID, item.ProductID)] = item
	return nil
}

func (f *fakeBranchInventoryRepository) SaveAllWithLock(_ context.Context, items []*inventory.BranchInventory) error {
	for _, item := range items {
		f.rows[rowKey(item.BranchID, item.ProductID)] = item
	}
	return nil
}

func (f *fakeBranchInventoryRepository) GetOrCreate(_ context.Context, branchID, productID uuid.UUID) (*inventory.BranchInventory, error) {
	if row, ok := f.rows[rowKey(branchID, productID)]; ok {
		return row, nil
	}
	row, err := inventory.NewBranchInventory(branchID, productID)
	if err != nil {
		return nil, err
	}
	f.rows[rowKey(branchID, productID)] = row
	return row, nil
}

func (f *fakeBranchInventoryRepository) CountByBranch(_ context.Context, branchID uuid.UUID) (int64, error) {
	var count int64
	for _, row := range f.rows {
		if row.BranchID == branchID {
			count++
		}
	}
	return count, nil
}

var _ inventory.BranchInventoryRepository = (*fakeBranchInventoryRepository)(nil)

func newInventoryTestServer(repo *fakeBranchInventoryRepository) *gin.Engine {
	middleware.SetupValidator()

	service := invapp.NewAdjustmentService(repo, invapp.NewNoOpTransactionScope(repo, nil))
	h := NewInventoryHandler(service)

	router := gin.New()
	router.GET("/branches/:branch_id/inventory", h.ListByBranch)
	router.GET("/branches/:branch_id/inventory/:product_id", h.GetStock)
	router.POST("/branches/:branch_id/inventory/reduce", h.ReduceStock)
	router.POST("/branches/:branch_id/inventory/restore", h.RestoreStock)
	router.POST("/branches/:branch_id/inventory/:product_id/increase", h.IncreaseStock)
	router.PUT("/branches/:branch_id/inventory/:product_id/min-stock", h.SetMinStock)
	router.GET("/inventory/low-stock", h.ListLowStock)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInventoryHandlerGetStock(t *testing.T) {
	repo := newFakeBranchInventoryRepository()
	branchID, productID := uuid.New(), uuid.New()
	repo.seed(branchID, productID, 42, 5)
	router := newInventoryTestServer(repo)

	t.Run("returns the stored stock level", func(t *testing.T) {
		w := doJSON(router, "GET", fmt.Sprintf("/branches/%s/inventory/%s", branchID, productID), nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(42), data["stock"])
	})

	t.Run("missing row reads as zero", func(t *testing.T) {
		w := doJSON(router, "GET", fmt.Sprintf("/branches/%s/inventory/%s", branchID, uuid.New()), nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(0), data["stock"])
	})

	t.Run("rejects malformed branch ID", func(t *testing.T) {
		w := doJSON(router, "GET", "/branches/nope/inventory/"+productID.String(), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInventoryHandlerReduceStock(t *testing.T) {
	branchID := uuid.New()
	productA, productB := uuid.New(), uuid.New()

	setup := func() (*fakeBranchInventoryRepository, *gin.Engine) {
		repo := newFakeBranchInventoryRepository()
		repo.seed(branchID, productA, 10, 0)
		repo.seed(branchID, productB, 4, 0)
		return repo, newInventoryTestServer(repo)
	}

	t.Run("debits each line and returns 204", func(t *testing.T) {
		repo, router := setup()
		body := gin.H{"items": []gin.H{
			{"product_id": productA.String(), "quantity": 3},
			{"product_id": productB.String(), "quantity": 4},
		}}

		w := doJSON(router, "POST", fmt.Sprintf("/branches/%s/inventory/reduce", branchID), body)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, 7, repo.rows[rowKey(branchID, productA)].Stock)
		assert.Equal(t, 0, repo.rows[rowKey(branchID, productB)].Stock)
	})

	t.Run("insufficient stock rejects the whole batch", func(t *testing.T) {
		repo, router := setup()
		body := gin.H{"items": []gin.H{
			{"product_id": productA.String(), "quantity": 3},
			{"product_id": productB.String(), "quantity": 5},
		}}

		w := doJSON(router, "POST", fmt.Sprintf("/branches/%s/inventory/reduce", branchID), body)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeInsufficientStock, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, productB.String())

		// nothing was debited
		assert.Equal(t, 10, repo.rows[rowKey(branchID, productA)].Stock)
		assert.Equal(t, 4, repo.rows[rowKey(branchID, productB)].Stock)
	})

	t.Run("unknown product maps to 404", func(t *testing.T) {
		_, router := setup()
		missing := uuid.New()
		body := gin.H{"items": []gin.H{
			{"product_id": missing.String(), "quantity": 1},
		}}

		w := doJSON(router, "POST", fmt.Sprintf("/branches/%s/inventory/reduce", branchID), body)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp.Error.Message, missing.String())
	})

	t.Run("non-positive quantity fails validation", func(t *testing.T) {
		_, router := setup()
		body := gin.H{"items": []gin.H{
			{"product_id": productA.String(), "quantity": -2},
		}}

		w := doJSON(router, "POST", fmt.Sprintf("/branches/%s/inventory/reduce", branchID), body)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})
}

func TestInventoryHandlerRestoreStock(t *testing.T) {
	branchID, productID := uuid.New(), uuid.New()
	repo := newFakeBranchInventoryRepository()
	repo.seed(branchID, productID, 2, 0)
	router := newInventoryTestServer(repo)

	body := gin.H{"items": []gin.H{
		{"product_id": productID.String(), "quantity": 5},
	}}

	w := doJSON(router, "POST", fmt.Sprintf("/branches/%s/inventory/restore", branchID), body)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 7, repo.rows[rowKey(branchID, productID)].Stock)
}

func TestInventoryHandlerIncreaseStock(t *testing.T) {
	branchID, productID := uuid.New(), uuid.New()

	t.Run("creates the ledger row on first delivery", func(t *testing.T) {
		repo := newFakeBranchInventoryRepository()
		router := newInventoryTestServer(repo)

		w := doJSON(router, "POST",
			fmt.Sprintf("/branches/%s/inventory/%s/increase", branchID, productID),
			gin.H{"quantity": 25})

		assert.Equal(t, http.StatusNoContent, w.Code)
		require.Contains(t, repo.rows, rowKey(branchID, productID))
		row := repo.rows[rowKey(branchID, productID)]
		assert.Equal(t, 25, row.Stock)
		assert.NotNil(t, row.LastRestockDate)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		repo := newFakeBranchInventoryRepository()
		router := newInventoryTestServer(repo)

		w := doJSON(router, "POST",
			fmt.Sprintf("/branches/%s/inventory/%s/increase", branchID, productID),
			gin.H{"quantity": 0})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInventoryHandlerSetMinStock(t *testing.T) {
	branchID, productID := uuid.New(), uuid.New()
	repo := newFakeBranchInventoryRepository()
	repo.seed(branchID, productID, 10, 0)
	router := newInventoryTestServer(repo)

	w := doJSON(router, "PUT",
		fmt.Sprintf("/branches/%s/inventory/%s/min-stock", branchID, productID),
		gin.H{"min_stock": 8})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 8, repo.rows[rowKey(branchID, productID)].MinStock)
}

func TestInventoryHandlerListLowStock(t *testing.T) {
	branchA, branchB := uuid.New(), uuid.New()
	repo := newFakeBranchInventoryRepository()
	repo.seed(branchA, uuid.New(), 2, 5)  // low
	repo.seed(branchA, uuid.New(), 50, 5) // healthy
	repo.seed(branchB, uuid.New(), 0, 3)  // low, other branch
	router := newInventoryTestServer(repo)

	t.Run("reports all branches by default", func(t *testing.T) {
		w := doJSON(router, "GET", "/inventory/low-stock", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 2)
	})

	t.Run("scopes to one branch", func(t *testing.T) {
		w := doJSON(router, "GET", "/inventory/low-stock?branch_id="+branchA.String(), nil)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 1)
	})

	t.Run("rejects malformed branch filter", func(t *testing.T) {
		w := doJSON(router, "GET", "/inventory/low-stock?branch_id=bogus", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
