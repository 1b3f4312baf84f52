package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error {
	return f.err
}

func TestServer_Handler(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name       string
		store      Pinger
		path       string
		wantStatus int
	}{
		{name: "liveness", path: "/healthz", wantStatus: http.StatusOK},
		{name: "ready without store", path: "/readyz", wantStatus: http.StatusOK},
		{name: "ready store ok", store: fakePinger{}, path: "/readyz", wantStatus: http.StatusOK},
		{name: "ready store down", store: fakePinger{err: errors.New("unreachable")}, path: "/readyz", wantStatus: http.StatusServiceUnavailable},
		{name: "metrics", path: "/metrics", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(tt.store, 0, &logger)

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
