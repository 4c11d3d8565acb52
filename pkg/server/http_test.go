package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abgdnv/online-orders/pkg/config"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func Test_NewHTTPServer(t *testing.T) {
	// given
	var cfg config.HTTPConfig
	cfg.Port = 8080
	cfg.MaxHeaderBytes = 1 << 20
	cfg.Timeout.Read = time.Second
	cfg.Timeout.Write = 2 * time.Second
	cfg.Timeout.Idle = 3 * time.Second
	cfg.Timeout.ReadHeader = 4 * time.Second
	// when
	srv := NewHTTPServer(cfg, http.NotFoundHandler())
	// then
	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 1<<20, srv.MaxHeaderBytes)
	assert.Equal(t, time.Second, srv.ReadTimeout)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
	assert.Equal(t, 3*time.Second, srv.IdleTimeout)
	assert.Equal(t, 4*time.Second, srv.ReadHeaderTimeout)
}

func Test_NewChiRouter_SetsRequestID(t *testing.T) {
	// given
	mux := NewChiRouter(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	mux.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(middleware.GetReqID(r.Context())))
	})
	rr := httptest.NewRecorder()
	// when
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	// then
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Body.String())
	assert.Equal(t, rr.Body.String(), rr.Header().Get(middleware.RequestIDHeader))
}
