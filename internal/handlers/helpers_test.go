package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	t.Parallel()

	t.Run("writes JSON error with cause", func(t *testing.T) {
		t.Parallel()

		rr := httptest.NewRecorder()
		writeError(rr, http.StatusBadGateway, "dialog host failed", errors.New("connection refused"))

		resp := rr.Result()
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var body errorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "dialog host failed", body.Error)
		assert.Equal(t, "connection refused", body.Message)
	})

	t.Run("omits empty message", func(t *testing.T) {
		t.Parallel()

		rr := httptest.NewRecorder()
		writeError(rr, http.StatusInternalServerError, "boom", nil)

		assert.JSONEq(t, `{"error":"boom"}`, rr.Body.String())
	})
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes body", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"comment":"hi"}`))
		var got changedRequest
		require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &got))
		assert.Equal(t, "hi", got.Comment)
	})

	t.Run("empty body is allowed", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		var got changedRequest
		require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &got))
		assert.Empty(t, got.Comment)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		var got changedRequest
		assert.Error(t, decodeJSON(httptest.NewRecorder(), req, &got))
	})

	t.Run("oversized body", func(t *testing.T) {
		t.Parallel()

		big := `{"comment":"` + strings.Repeat("a", maxBodyBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		var got changedRequest
		assert.Error(t, decodeJSON(httptest.NewRecorder(), req, &got))
	})
}
