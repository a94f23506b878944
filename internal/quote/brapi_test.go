package quote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrindade/carteira/internal/quote"
)

func TestBrapiClient_GetPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/quote/PETR4", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"symbol":"PETR4","regularMarketPrice":38.42}]}`))
	}))
	defer srv.Close()

	client := quote.NewBrapiClient(srv.URL, "test-token", time.Second)

	price, err := client.GetPrice(context.Background(), "PETR4.SA")
	require.NoError(t, err)
	assert.InDelta(t, 38.42, price, 1e-9)
}

func TestBrapiClient_GetPrice_Unavailable(t *testing.T) {
	type testCase struct {
		name         string
		handler      http.HandlerFunc
		wantContains string
	}

	tests := []testCase{
		{
			name: "NotFound",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantContains: "status 404",
		},
		{
			name: "EmptyResults",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"results":[]}`))
			},
			wantContains: "no price",
		},
		{
			name: "ZeroPrice",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"results":[{"symbol":"PETR4","regularMarketPrice":0}]}`))
			},
			wantContains: "no price",
		},
		{
			name: "MalformedBody",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{`))
			},
			// The decoder's own message must survive the wrap.
			wantContains: "unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := quote.NewBrapiClient(srv.URL, "", time.Second)

			_, err := client.GetPrice(context.Background(), "PETR4.SA")
			assert.ErrorIs(t, err, quote.ErrUnavailable)
			assert.ErrorContains(t, err, tt.wantContains)
		})
	}
}

func TestBrapiClient_GetPrice_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := quote.NewBrapiClient(srv.URL, "", time.Second)

	_, err := client.GetPrice(context.Background(), "PETR4.SA")
	assert.ErrorIs(t, err, quote.ErrUnavailable)
}
