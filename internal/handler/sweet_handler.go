package handler

import (
	"context"
	"net/http"
	"strconv"

	"sweetshop/internal/domain/model"
	"sweetshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SweetCreateRequest は POST /api/sweets の入力です。
type SweetCreateRequest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// 購入・入荷の入力
type StockRequest struct {
	Quantity int64 `json:"quantity"`
}

// /api/sweets 以下をまとめる
type SweetHandler struct {
	uc *usecase.SweetUsecase
}

// DI
func NewSweetHandler(uc *usecase.SweetUsecase) *SweetHandler {
	return &SweetHandler{uc: uc}
}

// g には認証済みのミドルウェアが付いている前提。admin は管理者専用ルートに付ける
func (h *SweetHandler) RegisterRoutes(g *echo.Group, admin echo.MiddlewareFunc) {
	g.GET("/sweets", h.list)
	g.POST("/sweets", h.create)
	g.GET("/sweets/search", h.search)
	g.PUT("/sweets/:id", h.update)
	g.DELETE("/sweets/:id", h.delete, admin)
	g.POST("/sweets/:id/purchase", h.purchase)
	g.POST("/sweets/:id/restock", h.restock, admin)
}

func (h *SweetHandler) list(c echo.Context) error {
	sweets, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sweets)
}

func (h *SweetHandler) create(c echo.Context) error {
	var req SweetCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	s, err := h.uc.Create(c.Request().Context(), usecase.CreateSweetInput{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *SweetHandler) search(c echo.Context) error {
	sweets, err := h.uc.Search(c.Request().Context(), usecase.SearchSweetsInput{
		Name:     c.QueryParam("name"),
		Category: c.QueryParam("category"),
		MinPrice: c.QueryParam("min_price"),
		MaxPrice: c.QueryParam("max_price"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sweets)
}

func (h *SweetHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	// 送られなかった項目・nullは変更しない
	var patch model.SweetPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	s, err := h.uc.Update(c.Request().Context(), id, patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SweetHandler) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SweetHandler) purchase(c echo.Context) error {
	return h.adjust(c, h.uc.Purchase)
}

func (h *SweetHandler) restock(c echo.Context) error {
	return h.adjust(c, h.uc.Restock)
}

func (h *SweetHandler) adjust(c echo.Context, op func(ctx context.Context, id int64, qty int64) (model.Sweet, error)) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req StockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	s, err := op(c.Request().Context(), id, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
