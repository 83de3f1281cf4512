package qp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is an in-memory IdentifierStore for resolver tests.
type memStore struct {
	bags map[string]IdentifierBag
	gets int
	puts int
}

func newMemStore() *memStore {
	return &memStore{bags: make(map[string]IdentifierBag)}
}

func storeKey(entity Entity, qpID int64) string {
	return fmt.Sprintf("%s/%d", entity, qpID)
}

func (s *memStore) Get(_ context.Context, entity Entity, qpID int64) (IdentifierBag, bool, error) {
	s.gets++
	bag, ok := s.bags[storeKey(entity, qpID)]
	return bag, ok, nil
}

func (s *memStore) Put(_ context.Context, entity Entity, qpID int64, bag IdentifierBag) error {
	s.puts++
	key := storeKey(entity, qpID)
	if _, ok := s.bags[key]; ok {
		return nil
	}
	s.bags[key] = bag
	return nil
}

func newTestResolver(t *testing.T, handler http.Handler, store IdentifierStore) *Resolver {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, "test-token", zap.NewNop())
	return NewResolver(client, store, zap.NewNop()).
		WithTiming(time.Millisecond, 250*time.Millisecond)
}

func TestResolveZeroIDYieldsEmptyBag(t *testing.T) {
	store := newMemStore()
	resolver := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected API call")
	}), store)

	bag, err := resolver.Resolve(context.Background(), EntityAdvertiser, []string{PlatformDV360}, 0, false)
	require.NoError(t, err)
	assert.Empty(t, bag)
	assert.Equal(t, 0, store.gets)
}

func TestResolveStoreHitSkipsAPI(t *testing.T) {
	var calls atomic.Int32
	store := newMemStore()
	store.bags[storeKey(EntityAdvertiser, 7)] = IdentifierBag{PlatformDV360: "adv-1"}

	resolver := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}), store)

	bag, err := resolver.Resolve(context.Background(), EntityAdvertiser, []string{PlatformDV360}, 7, false)
	require.NoError(t, err)
	assert.Equal(t, IdentifierBag{PlatformDV360: "adv-1"}, bag)
	assert.Equal(t, int32(0), calls.Load())
}

func TestResolveSkipIfAbsent(t *testing.T) {
	var calls atomic.Int32
	resolver := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}), newMemStore())

	bag, err := resolver.Resolve(context.Background(), EntityCampaign, []string{PlatformDV360}, 9, true)
	require.NoError(t, err)
	assert.Empty(t, bag)
	assert.Equal(t, int32(0), calls.Load())
}

func TestResolvePollsUntilAvailable(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/advertisers/7", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("API_TOKEN"))
		if calls.Add(1) < 3 {
			fmt.Fprint(w, `{"data":{"platform_specific_info":{}}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"platform_specific_info":{"DV360":{"advertiser":{"advertiserId":"adv-42"}},"XANDR":{"advertiser":{"id":1234}}}}}`)
	})

	store := newMemStore()
	resolver := newTestResolver(t, handler, store)

	bag, err := resolver.Resolve(context.Background(), EntityAdvertiser, []string{PlatformDV360, PlatformXANDR}, 7, false)
	require.NoError(t, err)
	assert.Equal(t, IdentifierBag{PlatformDV360: "adv-42", PlatformXANDR: "1234"}, bag)
	assert.Equal(t, int32(3), calls.Load())

	// Resolved bags are cached for later stages.
	cached, found, err := store.Get(context.Background(), EntityAdvertiser, 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, bag, cached)
}

func TestResolveTimesOut(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"platform_specific_info":{}}}`)
	})
	resolver := newTestResolver(t, handler, newMemStore())
	resolver.WithTiming(time.Millisecond, 20*time.Millisecond)

	_, err := resolver.Resolve(context.Background(), EntityLineItem, []string{PlatformDV360}, 3, false)
	assert.ErrorIs(t, err, ErrResolutionTimeout)
}

func TestResolveAbortsOnAPIError(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message":"boom"}`)
	})
	resolver := newTestResolver(t, handler, newMemStore())

	_, err := resolver.Resolve(context.Background(), EntityInsertionOrder, []string{PlatformTTD}, 5, false)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNestedString(t *testing.T) {
	obj := map[string]any{
		"a": map[string]any{
			"b": map[string]any{
				"str": "x",
				"num": float64(123),
			},
		},
	}
	assert.Equal(t, "x", nestedString(obj, "a.b.str"))
	assert.Equal(t, "123", nestedString(obj, "a.b.num"))
	assert.Equal(t, "", nestedString(obj, "a.missing.str"))
	assert.Equal(t, "", nestedString(obj, ""))
}
