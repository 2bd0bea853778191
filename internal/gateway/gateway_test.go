package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_CreateOrder_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key-id", user)
		require.Equal(t, "key-secret", pass)

		var body struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
			Receipt  string `json:"receipt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, int64(118000), body.Amount)
		require.Equal(t, "INR", body.Currency)

		json.NewEncoder(w).Encode(Order{
			ID:       "order_abc",
			Amount:   body.Amount,
			Currency: body.Currency,
			Receipt:  body.Receipt,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-id", "key-secret")
	ord, err := c.CreateOrder(context.Background(), 118000, "INR", "order_1_u")
	require.NoError(t, err)
	require.Equal(t, "order_abc", ord.ID)
	require.Equal(t, int64(118000), ord.Amount)
	require.Equal(t, "order_1_u", ord.Receipt)
}

func TestClient_CreateOrder_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-id", "wrong")
	_, err := c.CreateOrder(context.Background(), 118000, "INR", "r")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 401")
}

func TestClient_CreateOrder_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "s")
	_, err := c.CreateOrder(context.Background(), 1000, "INR", "r")
	require.Error(t, err)
}
