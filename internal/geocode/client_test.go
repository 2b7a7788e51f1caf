package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/authenx/evidence-hub/cache/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverseGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reverse", r.URL.Path)
		require.Equal(t, "json", r.URL.Query().Get("format"))
		json.NewEncoder(w).Encode(map[string]string{
			"display_name": "People's Square, Huangpu District, Shanghai, China",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, nil, 0)
	address := client.ReverseGeocode(context.Background(), 31.2304, 121.4737)

	assert.Equal(t, "People's Square, Huangpu District, Shanghai, China", address)
}

func TestReverseGeocodeFallback(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}},
		{"empty display name", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"display_name": ""})
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second, nil, 0)
			assert.Equal(t, UnknownLocation, client.ReverseGeocode(context.Background(), 1, 2))
		})
	}
}

func TestReverseGeocodeNetworkFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second, nil, 0)
	assert.Equal(t, UnknownLocation, client.ReverseGeocode(context.Background(), 1, 2))
}

func TestReverseGeocodeUsesCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(map[string]string{"display_name": "Somewhere"})
	}))
	defer server.Close()

	cacheProvider, err := memory.NewMemory(memory.Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	require.NoError(t, err)
	defer cacheProvider.Close()

	client := NewClient(server.URL, 5*time.Second, cacheProvider, time.Hour)

	assert.Equal(t, "Somewhere", client.ReverseGeocode(context.Background(), 10, 20))
	assert.Equal(t, "Somewhere", client.ReverseGeocode(context.Background(), 10, 20))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
