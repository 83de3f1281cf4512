package qp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendReturnsAssignedID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/advertiser", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("API_TOKEN"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "Acme", payload["display_name"])

		fmt.Fprint(w, `{"data":{"id":42}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", zap.NewNop())
	id, err := client.Send(context.Background(), http.MethodPost, "/advertiser", map[string]any{"display_name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestSendToleratesEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", zap.NewNop())
	id, err := client.Send(context.Background(), http.MethodPost, "/scripts/list", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), id)
}

func TestSendWrapsRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"display name already taken"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", zap.NewNop())
	_, err := client.Send(context.Background(), http.MethodPost, "/campaign", map[string]any{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "display name already taken", apiErr.Message)
}

func TestSendUnreachableService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "secret", zap.NewNop())
	_, err := client.Send(context.Background(), http.MethodPost, "/campaign", map[string]any{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Service is unavailable. Please try again later.", apiErr.Message)
}

func TestFetchReturnsDataObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		fmt.Fprint(w, `{"data":{"id":7,"platform_specific_info":{"DV360":{}}}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", zap.NewNop())
	data, err := client.Fetch(context.Background(), "/campaigns/7")
	require.NoError(t, err)
	assert.Equal(t, float64(7), data["id"])
	assert.Contains(t, data, "platform_specific_info")
}
