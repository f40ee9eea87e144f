package orders

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shopfront/models"
	"shopfront/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// ReceiptRenderer turns an order into a printable document and checks the
// signed QR payload printed on it.
type ReceiptRenderer interface {
	Render(o models.Order) ([]byte, error)
	Verify(payload string) (orderID string, err error)
}

// Handler serves order history to the signed-in owner.
type Handler struct {
	recorder *Recorder
	receipts ReceiptRenderer
	currency string
	logger   *zap.Logger
}

func NewHandler(recorder *Recorder, receipts ReceiptRenderer, currency string, logger *zap.Logger) *Handler {
	return &Handler{recorder: recorder, receipts: receipts, currency: currency, logger: logger}
}

// ListOrders returns one page of the caller's orders, most recent first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	owner := utils.GetUserIDFromRequest(r)
	list, err := h.recorder.List(ctx, owner)
	if err != nil {
		h.logger.Error("ListOrders failed", zap.String("owner", owner), zap.Error(err))
		utils.RespondWithError(w, http.StatusServiceUnavailable, "orders are temporarily unavailable")
		return
	}
	start, end := utils.ParseQueryOptions(r, 20).Window(len(list))
	utils.RespondWithJSON(w, http.StatusOK, list[start:end])
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (models.Order, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	owner := utils.GetUserIDFromRequest(r)
	order, err := h.recorder.Get(ctx, owner, ps.ByName("id"))
	if errors.Is(err, ErrOrderNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, ErrOrderNotFound.Error())
		return order, false
	}
	if err != nil {
		h.logger.Error("order lookup failed", zap.String("owner", owner), zap.Error(err))
		utils.RespondWithError(w, http.StatusServiceUnavailable, "orders are temporarily unavailable")
		return order, false
	}
	return order, true
}

// GetOrder returns one order with its line items.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if order, ok := h.lookup(w, r, ps); ok {
		utils.RespondWithJSON(w, http.StatusOK, order)
	}
}

// GetConfirmation returns the order-confirmation view state.
func (h *Handler) GetConfirmation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if order, ok := h.lookup(w, r, ps); ok {
		utils.RespondWithJSON(w, http.StatusOK, Confirmation(order, h.currency))
	}
}

// GetReceipt streams the PDF receipt.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	order, ok := h.lookup(w, r, ps)
	if !ok {
		return
	}
	pdf, err := h.receipts.Render(order)
	if err != nil {
		h.logger.Error("receipt render failed", zap.String("order_id", order.OrderID), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+order.OrderID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// VerifyReceipt checks the QR payload scanned off a printed receipt. It needs
// no login; the payload only names the order it was signed for.
func (h *Handler) VerifyReceipt(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	payload := r.URL.Query().Get("payload")
	if payload == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "payload is required")
		return
	}
	orderID, err := h.receipts.Verify(payload)
	if err != nil {
		h.logger.Info("receipt payload rejected", zap.Error(err))
		utils.RespondWithError(w, http.StatusBadRequest, "invalid receipt payload")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{"valid": true, "orderId": orderID})
}
