// Package verify 封装外部真伪验证服务的调用。
//
// 验证失败一律按拒绝处理（fail-closed）：传输层故障、非 2xx 响应、
// 响应解析失败都不会放行证据。
package verify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// 拒绝原因
const (
	ReasonVerifyFailed = "verify-failed"
	ReasonNetworkError = "network-error"
)

// Result 验证结果，不落库
type Result struct {
	IsReal bool    `json:"is_real"`
	Score  float64 `json:"authenticity_score"`
	Reason string  `json:"reason"`
}

// Client 验证服务客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建验证服务客户端
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// verifyRequest 两种请求形态：URL 或 base64 内联
type verifyRequest struct {
	ImageURL    string `json:"image_url,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	AssetID     string `json:"asset_id"`
}

// verifyResponse 宽容解码：兼容旧版验证服务的字段名
type verifyResponse struct {
	IsReal            *bool    `json:"is_real"`
	Valid             *bool    `json:"valid"`
	AuthenticityScore *float64 `json:"authenticity_score"`
	Score             *float64 `json:"score"`
	Reason            string   `json:"reason"`
	Message           string   `json:"message"`
}

// toResult 归一化为内部 Result
func (r *verifyResponse) toResult() Result {
	out := Result{}

	switch {
	case r.IsReal != nil:
		out.IsReal = *r.IsReal
	case r.Valid != nil:
		out.IsReal = *r.Valid
	}

	switch {
	case r.AuthenticityScore != nil:
		out.Score = *r.AuthenticityScore
	case r.Score != nil:
		out.Score = *r.Score
	}

	switch {
	case r.Reason != "":
		out.Reason = r.Reason
	default:
		out.Reason = r.Message
	}

	return out
}

// VerifyBytes 以 base64 内联方式提交图片字节
func (c *Client) VerifyBytes(ctx context.Context, assetID string, imageData []byte) Result {
	req := verifyRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(imageData),
		AssetID:     assetID,
	}
	return c.post(ctx, req)
}

// VerifyURL 以可取回 URL 方式提交图片
func (c *Client) VerifyURL(ctx context.Context, assetID string, imageURL string) Result {
	req := verifyRequest{
		ImageURL: imageURL,
		AssetID:  assetID,
	}
	return c.post(ctx, req)
}

// post 调用 /verify-image 并归一化结果
func (c *Client) post(ctx context.Context, payload verifyRequest) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[Verify] Failed to marshal request for asset %s: %v", payload.AssetID, err)
		return rejected(ReasonVerifyFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify-image", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Verify] Failed to build request for asset %s: %v", payload.AssetID, err)
		return rejected(ReasonVerifyFailed)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// 超时 / DNS / 连接中断一律拒绝
		log.Printf("[Verify] Transport failure for asset %s: %v", payload.AssetID, err)
		return rejected(ReasonNetworkError)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[Verify] Verifier returned %d for asset %s", resp.StatusCode, payload.AssetID)
		return rejected(ReasonVerifyFailed)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		log.Printf("[Verify] Failed to read verifier response for asset %s: %v", payload.AssetID, err)
		return rejected(ReasonNetworkError)
	}

	var decoded verifyResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		log.Printf("[Verify] Failed to decode verifier response for asset %s: %v", payload.AssetID, err)
		return rejected(ReasonVerifyFailed)
	}

	result := decoded.toResult()
	log.Printf("[Verify] Asset %s: is_real=%v score=%.2f", payload.AssetID, result.IsReal, result.Score)
	return result
}

func rejected(reason string) Result {
	return Result{IsReal: false, Score: 0, Reason: reason}
}

// String 便于日志输出
func (r Result) String() string {
	return fmt.Sprintf("is_real=%v score=%.2f reason=%q", r.IsReal, r.Score, r.Reason)
}
