package pay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPGateway_Open(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, "Bearer rzp_test:secret", r.Header.Get("Authorization"))
		assert.Equal(t, "chk_1", r.Header.Get("Idempotency-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":50000,"currency":"INR","status":"created"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL+"/", "rzp_test:secret", zap.NewNop())
	intent, err := g.Open(context.Background(), Request{
		CheckoutID:       "chk_1",
		AmountMinorUnits: 50000,
		Currency:         "INR",
		Receipt:          "chk_1",
		Contact:          Contact{Name: "Asha", Email: "asha@example.com", Phone: "99999"},
	})
	require.NoError(t, err)

	assert.Equal(t, "order_abc", intent.ID)
	assert.Equal(t, "rzp_test", intent.Key)
	assert.Equal(t, int64(50000), intent.AmountMinorUnits)
	assert.Equal(t, float64(50000), got["amount"])
	assert.Equal(t, "Asha", got["prefill"].(map[string]interface{})["name"])
	assert.NotContains(t, got, "CheckoutID")
}

func TestHTTPGateway_ErrorsAreUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	req := Request{CheckoutID: "chk_1", AmountMinorUnits: 100, Currency: "INR"}

	_, err := NewHTTPGateway(srv.URL, "k", zap.NewNop()).Open(context.Background(), req)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	_, err = NewHTTPGateway("", "k", zap.NewNop()).Open(context.Background(), req)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()
	_, err = NewHTTPGateway(url, "k", zap.NewNop()).Open(context.Background(), req)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestHTTPGateway_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"amount":1}`))
	}))
	defer srv.Close()

	_, err := NewHTTPGateway(srv.URL, "k", zap.NewNop()).Open(context.Background(), Request{AmountMinorUnits: 1})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestGateways_RejectNonPositiveAmount(t *testing.T) {
	_, err := NewHTTPGateway("http://unused", "k", zap.NewNop()).Open(context.Background(), Request{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGatewayUnavailable)

	_, err = LocalGateway{}.Open(context.Background(), Request{})
	assert.Error(t, err)
}

func TestLocalGateway_Open(t *testing.T) {
	intent, err := LocalGateway{}.Open(context.Background(), Request{AmountMinorUnits: 1001, Currency: "INR"})
	require.NoError(t, err)
	assert.Contains(t, intent.ID, "local_")
	assert.Equal(t, int64(1001), intent.AmountMinorUnits)
}
