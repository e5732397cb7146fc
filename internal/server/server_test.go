package server_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gi8lino/jiraactions/internal/server"
	"github.com/gi8lino/jiraactions/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHTTPServer(t *testing.T) {
	t.Parallel()

	t.Run("stops on context cancel", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- server.RunHTTPServer(ctx, http.NotFoundHandler(), "127.0.0.1:0", testutils.DiscardLogger())
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
	})

	t.Run("invalid address fails", func(t *testing.T) {
		t.Parallel()

		err := server.RunHTTPServer(context.Background(), http.NotFoundHandler(), "127.0.0.1:-1", testutils.DiscardLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listen on 127.0.0.1:-1")
	})
}
