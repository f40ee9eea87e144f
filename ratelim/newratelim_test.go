package ratelim

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func ok(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
}

func hit(h httprouter.Handle, addr string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.RemoteAddr = addr
	rr := httptest.NewRecorder()
	h(rr, req, nil)
	return rr.Code
}

func TestLimit_PerIP(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Limit(ok)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1002"))

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1000"))
}

func TestCleanup(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	hit(rl.Limit(ok), "10.0.0.1:1")
	now = now.Add(5 * time.Minute)
	hit(rl.Limit(ok), "10.0.0.2:1")
	now = now.Add(6 * time.Minute)

	assert.Equal(t, 1, rl.Cleanup(10*time.Minute))
	assert.Len(t, rl.visitors, 1)
}
