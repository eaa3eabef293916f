package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "flowpulse/internal/errors"
)

func newValidationMiddleware() *ValidationMiddleware {
	logger := testLogger()
	return NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))
}

func TestValidateStruct(t *testing.T) {
	m := newValidationMiddleware()

	type request struct {
		Ticker string `json:"ticker" validate:"required,ticker"`
		Date   string `json:"date" validate:"omitempty,iso8601"`
	}

	tests := []struct {
		name    string
		input   request
		wantErr bool
	}{
		{"valid", request{Ticker: "AAPL", Date: "2025-10-21"}, false},
		{"missing ticker", request{Date: "2025-10-21"}, true},
		{"reserved word ticker", request{Ticker: "SWEEP"}, true},
		{"numeric ticker", request{Ticker: "123"}, true},
		{"bad date", request{Ticker: "AAPL", Date: "21/10/2025"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ValidateStruct(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRequestRejectsInvalidJSON(t *testing.T) {
	m := newValidationMiddleware()
	handler := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/data/reload", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateRequestPassesGet(t *testing.T) {
	m := newValidationMiddleware()
	handler := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/info", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueryParamValidator(t *testing.T) {
	logger := testLogger()
	v := NewQueryParamValidator(logger, apierrors.NewErrorHandler(logger, false))

	t.Run("default when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		got, ok := v.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/levels", nil), "limit", 1, 50, 5)
		require.True(t, ok)
		assert.Equal(t, 5, got)
	})

	t.Run("out of range", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, ok := v.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/levels?limit=900", nil), "limit", 1, 50, 5)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("enum", func(t *testing.T) {
		rec := httptest.NewRecorder()
		got, ok := v.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/export?format=json", nil), "format", []string{"csv", "json", "xlsx"}, "csv")
		require.True(t, ok)
		assert.Equal(t, "json", got)
	})
}

func TestContentTypeValidator(t *testing.T) {
	handler := ContentTypeValidator("application/json")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("bodyless post passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/data/reload", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("json body passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/data/reload", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong type rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/data/reload", strings.NewReader("a,b,c"))
		req.Header.Set("Content-Type", "text/csv")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}
