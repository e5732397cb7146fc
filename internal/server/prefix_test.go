package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithPrefix(t *testing.T) {
	t.Parallel()

	inner := http.NewServeMux()
	inner.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok") // nolint:errcheck
	})

	t.Run("empty prefix serves at root", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		withPrefix(inner, "").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("prefixed path is stripped", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		withPrefix(inner, "/jira").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jira/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("bare prefix redirects", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		withPrefix(inner, "/jira").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jira", nil))
		require.Equal(t, http.StatusMovedPermanently, rec.Code)
		assert.Equal(t, "/jira/", rec.Header().Get("Location"))
	})

	t.Run("unprefixed path is not found", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		withPrefix(inner, "/jira").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
