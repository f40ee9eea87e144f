package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"shopfront/cart"
	"shopfront/models"
	"shopfront/pay"
	"shopfront/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Handler exposes the orchestrator over HTTP. Every route behind it requires
// a signed-in user and a cart session.
type Handler struct {
	orch     *Orchestrator
	sessions *cart.Sessions
	hub      *Hub
	logger   *zap.Logger
}

func NewHandler(orch *Orchestrator, sessions *cart.Sessions, hub *Hub, logger *zap.Logger) *Handler {
	return &Handler{orch: orch, sessions: sessions, hub: hub, logger: logger}
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var missing *MissingFieldError
	var transition *TransitionError

	switch {
	case errors.As(err, &missing):
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": missing.Error(),
			"field": missing.Field,
		})
	case errors.As(err, &transition):
		utils.RespondWithError(w, http.StatusConflict, transition.Error())
	case errors.Is(err, ErrEmptyCart):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCheckoutNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCheckoutInProgress):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, pay.ErrGatewayUnavailable):
		utils.RespondWithError(w, http.StatusBadGateway, "payment could not be started, please try again")
	case errors.Is(err, context.DeadlineExceeded):
		utils.RespondWithError(w, http.StatusGatewayTimeout, "timed out, please try again")
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		utils.RespondWithError(w, http.StatusServiceUnavailable, "checkout is temporarily unavailable")
	}
}

// BeginCheckout freezes the caller's cart into a new checkout.
func (h *Handler) BeginCheckout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sid := utils.GetSessionIDFromRequest(r)
	if sid == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing session")
		return
	}
	store, ok := h.sessions.Lookup(sid)
	if !ok {
		h.respondError(w, "BeginCheckout", ErrEmptyCart)
		return
	}

	view, err := h.orch.Begin(r.Context(), utils.GetUserIDFromRequest(r), sid, store)
	if err != nil {
		h.respondError(w, "BeginCheckout", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, view)
}

// SubmitBilling takes the billing form and the chosen payment method.
func (h *Handler) SubmitBilling(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var req models.BillingRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	view, err := h.orch.SubmitBilling(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), req.Billing, req.PaymentMethod)
	if err != nil {
		h.respondError(w, "SubmitBilling", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view)
}

// ConfirmCashOnDelivery answers the cash-on-delivery prompt.
func (h *Handler) ConfirmCashOnDelivery(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req models.CashOnDeliveryRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Confirm == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "confirm is required")
		return
	}

	view, err := h.orch.ConfirmCashOnDelivery(r.Context(), utils.GetUserIDFromRequest(r), ps.ByName("id"), *req.Confirm)
	if err != nil {
		h.respondError(w, "ConfirmCashOnDelivery", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view)
}

// PaymentCallback receives the gateway widget's outcome from the storefront.
// Declined and dismissed payments are a normal outcome and answer 200.
func (h *Handler) PaymentCallback(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var cb models.PaymentCallback
	if err := utils.DecodeJSON(r, &cb); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	res, err := pay.ResultFromCallback(cb)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.orch.ResolvePayment(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"), res)
	if err != nil {
		h.respondError(w, "PaymentCallback", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view)
}

// GetCheckout returns the current state of one checkout.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	view, err := h.orch.Get(utils.GetUserIDFromRequest(r), ps.ByName("id"))
	if err != nil {
		h.respondError(w, "GetCheckout", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, view)
}

// WatchCheckout streams every state change of one checkout over a websocket,
// starting with its current state.
func (h *Handler) WatchCheckout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	view, err := h.orch.Get(utils.GetUserIDFromRequest(r), id)
	if err != nil {
		h.respondError(w, "WatchCheckout", err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{Send: make(chan []byte, 16), CheckoutID: id}
	if data, err := json.Marshal(view); err == nil {
		client.Send <- data
	}
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go writePump(conn, client)
	go readPump(conn, client, h.hub)
}

func writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the peer going away; clients send nothing.
func readPump(conn *websocket.Conn, c *Client, hub *Hub) {
	defer func() {
		hub.Unregister(c)
		conn.Close()
	}()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
