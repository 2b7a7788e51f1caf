package verify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyBytesAccepted(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/verify-image", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":            true,
			"is_real":            true,
			"authenticity_score": 0.87,
			"message":            "Real image",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result := client.VerifyBytes(context.Background(), "asset-1", []byte("jpeg-bytes"))

	assert.True(t, result.IsReal)
	assert.InDelta(t, 0.87, result.Score, 0.0001)
	assert.Equal(t, "Real image", result.Reason)

	// 请求体形态检查
	assert.Equal(t, "asset-1", received["asset_id"])
	decoded, err := base64.StdEncoding.DecodeString(received["image_base64"].(string))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), decoded)
}

func TestVerifyLegacyFieldNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 旧版验证服务的响应形态
		json.NewEncoder(w).Encode(map[string]interface{}{
			"valid": true,
			"score": 0.74,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result := client.VerifyURL(context.Background(), "asset-1", "http://example.com/img.jpg")

	assert.True(t, result.IsReal)
	assert.InDelta(t, 0.74, result.Score, 0.0001)
}

func TestVerifyRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"is_real":            false,
			"authenticity_score": 0.2,
			"message":            "Possibly AI / manipulated",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result := client.VerifyBytes(context.Background(), "asset-1", []byte("x"))

	assert.False(t, result.IsReal)
	assert.InDelta(t, 0.2, result.Score, 0.0001)
}

func TestVerifyNon200IsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result := client.VerifyBytes(context.Background(), "asset-1", []byte("x"))

	assert.False(t, result.IsReal)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, ReasonVerifyFailed, result.Reason)
}

func TestVerifyTransportFaultFailsClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 连接会被拒绝

	client := NewClient(server.URL, time.Second)
	result := client.VerifyBytes(context.Background(), "asset-1", []byte("x"))

	assert.False(t, result.IsReal)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, ReasonNetworkError, result.Reason)
}

func TestVerifyTimeoutFailsClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, 50*time.Millisecond)
	result := client.VerifyBytes(context.Background(), "asset-1", []byte("x"))

	assert.False(t, result.IsReal)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, ReasonNetworkError, result.Reason)
}

func TestVerifyMalformedResponseIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result := client.VerifyBytes(context.Background(), "asset-1", []byte("x"))

	assert.False(t, result.IsReal)
	assert.Equal(t, ReasonVerifyFailed, result.Reason)
}
