// Package geocode 提供尽力而为的逆地理编码。
//
// 任何网络或解析故障都返回统一的兜底地址字符串，调用方永远拿到
// 可用的值。只在验证通过后才调用，拒绝的证据不浪费查询。
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/authenx/evidence-hub/cache/types"
)

// UnknownLocation 兜底地址
const UnknownLocation = "Unknown Location"

// Client 逆地理编码客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      types.Cache
	cacheTTL   time.Duration
}

// NewClient 创建逆地理编码客户端，cache 可为 nil
func NewClient(baseURL string, timeout time.Duration, cache types.Cache, cacheTTL time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// reverseResponse Nominatim 风格的响应
type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

// cacheKey 坐标按 5 位小数归一，约 1 米精度
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("geocode:%.5f:%.5f", lat, lon)
}

// ReverseGeocode 坐标转地址，永不失败
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	key := cacheKey(lat, lon)

	if c.cache != nil {
		var cached string
		if err := c.cache.Get(ctx, key, &cached); err == nil && cached != "" {
			return cached
		}
	}

	address := c.lookup(ctx, lat, lon)

	// 兜底值不缓存，下次还有机会拿到真实地址
	if c.cache != nil && address != UnknownLocation {
		if err := c.cache.Set(ctx, key, address, c.cacheTTL); err != nil {
			log.Printf("[Geocode] Failed to cache address: %v", err)
		}
	}

	return address
}

// lookup 执行实际的 HTTP 查询
func (c *Client) lookup(ctx context.Context, lat, lon float64) string {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("lat", fmt.Sprintf("%f", lat))
	query.Set("lon", fmt.Sprintf("%f", lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return UnknownLocation
	}
	req.Header.Set("User-Agent", "evidence-hub")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Geocode] Transport failure for (%f, %f): %v", lat, lon, err)
		return UnknownLocation
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Geocode] Geocoder returned %d for (%f, %f)", resp.StatusCode, lat, lon)
		return UnknownLocation
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return UnknownLocation
	}

	var decoded reverseResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		log.Printf("[Geocode] Failed to decode geocoder response: %v", err)
		return UnknownLocation
	}

	if decoded.DisplayName == "" {
		return UnknownLocation
	}
	return decoded.DisplayName
}
