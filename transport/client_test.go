package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{Timeout: time.Second, Retries: 2, Backoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestFetchDecodesObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "x", r.URL.Query().Get("firebase"))
		_, _ = w.Write([]byte(`{"token":"t","user":{"id":"1"}}`))
	}))
	defer srv.Close()

	payload, err := NewHTTPClient(srv.Client(), fastConfig()).Fetch(context.Background(), srv.URL+"/auth/anonymous?firebase=x")
	require.NoError(t, err)
	assert.Equal(t, "t", payload["token"])
}

func TestFetchNoData(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status 404": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"INVALID_USER"}}`))
		},
		"redirect status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusMultipleChoices)
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		},
		"json array": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("[1]"))
		},
		"json null": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("null"))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewHTTPClient(srv.Client(), fastConfig()).Fetch(context.Background(), srv.URL)
			assert.ErrorIs(t, err, ErrNoData)
		})
	}
}

func TestFetchRetriesGatewayErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	payload, err := NewHTTPClient(srv.Client(), fastConfig()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.Client(), fastConfig()).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchReturnsContextError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewHTTPClient(srv.Client(), fastConfig()).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchOnceDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.Client(), fastConfig())
	_, err := client.FetchOnce(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, int32(1), calls.Load())

	payload, err := client.FetchOnce(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", payload["status"])
}

func TestFetchKeepsLargeNumbers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"t","user":{"id":1234567890123456789,"ratio":0.5}}`))
	}))
	defer srv.Close()

	payload, err := NewHTTPClient(srv.Client(), fastConfig()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	user := payload["user"].(map[string]any)
	assert.Equal(t, json.Number("1234567890123456789"), user["id"])
	assert.Equal(t, json.Number("0.5"), user["ratio"])
}

func TestFetchRejectsTrailingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"t"} {"token":"u"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.Client(), fastConfig()).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrNoData)
}
