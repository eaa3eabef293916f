package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad input")
	assert.Equal(t, "bad input", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)

	detailed := TickerNotFoundError("ZZZZ")
	assert.Equal(t, "TICKER_NOT_FOUND", detailed.ErrorCode)
	assert.Equal(t, "ZZZZ", detailed.Details)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NoSnapshotsError("/data"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "NO_SNAPSHOTS_FOUND", body.Error.ErrorCode)
}

func TestProblemDetailsMarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeTickerNotFound, "Not Found", "no trades", "/api/ticker/ZZZZ").
		WithExtension("error_code", "TICKER_NOT_FOUND")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeTickerNotFound, decoded["type"])
	assert.Equal(t, float64(http.StatusNotFound), decoded["status"])
	assert.Equal(t, "TICKER_NOT_FOUND", decoded["error_code"])
}

func TestErrorToProblem(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)
	req := httptest.NewRequest(http.MethodGet, "/api/data/tickers", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"api error maps by code", ErrNoSnapshots, http.StatusNotFound, TypeNoSnapshots},
		{"validation error", ErrValidation("ticker", "required"), http.StatusBadRequest, TypeValidation},
		{"context cancellation becomes timeout", context.Canceled, http.StatusGatewayTimeout, TypeTimeout},
		{"not-found text heuristic", fmt.Errorf("snapshot not found"), http.StatusNotFound, TypeNotFound},
		{"unknown errors stay internal", fmt.Errorf("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
		})
	}
}

func TestHandlerMiddlewareRecoversPanic(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/data/info", nil)
	h.Middleware(panicky).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
