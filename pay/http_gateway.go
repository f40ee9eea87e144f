package pay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shopfront/utils"

	"go.uber.org/zap"
)

// HTTPGateway opens payment orders on a hosted processor's REST API.
type HTTPGateway struct {
	baseURL string
	key     string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPGateway(baseURL, key string, logger *zap.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type gatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func (g *HTTPGateway) Open(ctx context.Context, req Request) (Intent, error) {
	if req.AmountMinorUnits <= 0 {
		return Intent{}, fmt.Errorf("amount must be positive, got %d", req.AmountMinorUnits)
	}
	if g.baseURL == "" {
		return Intent{}, fmt.Errorf("%w: no gateway configured", ErrGatewayUnavailable)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Intent{}, fmt.Errorf("marshal gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.key)
	httpReq.Header.Set("Idempotency-Key", req.CheckoutID)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.logger.Warn("gateway request failed", zap.String("checkout_id", req.CheckoutID), zap.Error(err))
		return Intent{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		g.logger.Warn("gateway rejected order",
			zap.String("checkout_id", req.CheckoutID),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return Intent{}, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var order gatewayOrder
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&order); err != nil || order.ID == "" {
		return Intent{}, fmt.Errorf("%w: malformed order response", ErrGatewayUnavailable)
	}

	return Intent{
		ID:               order.ID,
		Key:              publicKey(g.key),
		AmountMinorUnits: order.Amount,
		Currency:         order.Currency,
	}, nil
}

// publicKey is the id half of an "id:secret" key pair; the widget only ever sees that.
func publicKey(key string) string {
	id, _, _ := strings.Cut(key, ":")
	return id
}

// LocalGateway issues intents without contacting anyone. It is used when no
// gateway URL is configured so the checkout flow can be driven end to end
// through the callback endpoint.
type LocalGateway struct{}

func (LocalGateway) Open(_ context.Context, req Request) (Intent, error) {
	if req.AmountMinorUnits <= 0 {
		return Intent{}, fmt.Errorf("amount must be positive, got %d", req.AmountMinorUnits)
	}
	return Intent{
		ID:               "local_" + utils.GetUUID(),
		AmountMinorUnits: req.AmountMinorUnits,
		Currency:         req.Currency,
	}, nil
}
