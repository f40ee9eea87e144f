package cart

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shopfront/models"
	"shopfront/products"
	"shopfront/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Handler exposes the session cart over HTTP.
type Handler struct {
	sessions *Sessions
	catalog  products.Catalog
	logger   *zap.Logger
}

func NewHandler(sessions *Sessions, catalog products.Catalog, logger *zap.Logger) *Handler {
	return &Handler{sessions: sessions, catalog: catalog, logger: logger}
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	sid := utils.GetSessionIDFromRequest(r)
	if sid == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing session")
		return nil, false
	}
	return h.sessions.Get(sid), true
}

// GetCart returns the session's line items with derived totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	st, ok := h.store(w, r)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, st.View())
}

// AddToCart increments quantity if the item exists, or inserts a new line
// enriched from the catalog.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req models.AddItemRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.logger.Debug("AddToCart decode error", zap.Error(err))
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.ID == "" || req.Quantity < 1 {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing or invalid fields")
		return
	}

	st, ok := h.store(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.GetProductByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, products.ErrProductNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("AddToCart catalog lookup failed", zap.String("product_id", req.ID), zap.Error(err))
		utils.RespondWithError(w, http.StatusBadGateway, "catalog unavailable, please retry")
		return
	}

	st.AddOrIncrease(product.LineItem(req.Quantity), req.Quantity)
	utils.RespondWithJSON(w, http.StatusCreated, st.View())
}

// DecreaseItem takes units off a line, removing it when it reaches zero.
func (h *Handler) DecreaseItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req models.DecreaseItemRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		utils.RespondWithError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	st, ok := h.store(w, r)
	if !ok {
		return
	}
	st.DecreaseOrRemove(ps.ByName("id"), req.Quantity)
	utils.RespondWithJSON(w, http.StatusOK, st.View())
}

// RemoveItem drops a line regardless of its quantity.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	st, ok := h.store(w, r)
	if !ok {
		return
	}
	st.Remove(ps.ByName("id"))
	utils.RespondWithJSON(w, http.StatusOK, st.View())
}

// ClearCart is the explicit "Clear Cart" action.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	st, ok := h.store(w, r)
	if !ok {
		return
	}
	st.Clear()
	utils.RespondWithJSON(w, http.StatusOK, st.View())
}
