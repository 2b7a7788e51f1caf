// Package middleware 包含证据接口的 gin 中间件。
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/authenx/evidence-hub/api/common"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitor 单个客户端的令牌桶和最近活跃时间
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按客户端 IP 限流
//
// 证据上传会触发外部验证调用，逐 IP 限流挡住对验证闸的放大打击。
// 每个 IP 一个令牌桶，后台定期清掉不再活跃的条目。
type RateLimiter struct {
	limit      rate.Limit
	burst      int
	staleAfter time.Duration

	visitors sync.Map
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter 创建限流器并启动后台清理
//
// rps/burst/staleAfter 对应配置项 rate_limit_api_rps、
// rate_limit_api_burst、rate_limit_expire_time。
func NewRateLimiter(rps float64, burst int, staleAfter time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:      rate.Limit(rps),
		burst:      burst,
		staleAfter: staleAfter,
		stop:       make(chan struct{}),
	}

	go rl.sweep()

	return rl
}

// Middleware 返回 gin 中间件
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		v := rl.visitorFor(clientKey(c))
		v.lastSeen = time.Now()

		if !v.limiter.Allow() {
			common.RespondError(c, http.StatusTooManyRequests, "Too many requests")
			c.Abort()
			return
		}

		c.Next()
	}
}

// Stop 停止后台清理，可重复调用
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}

// visitorFor 取出或创建该客户端的令牌桶
func (rl *RateLimiter) visitorFor(key string) *visitor {
	if val, ok := rl.visitors.Load(key); ok {
		return val.(*visitor)
	}

	val, _ := rl.visitors.LoadOrStore(key, &visitor{
		limiter:  rate.NewLimiter(rl.limit, rl.burst),
		lastSeen: time.Now(),
	})
	return val.(*visitor)
}

// sweep 定期删除超过 staleAfter 未活跃的客户端
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-rl.staleAfter)
			rl.visitors.Range(func(key, value interface{}) bool {
				if value.(*visitor).lastSeen.Before(cutoff) {
					rl.visitors.Delete(key)
				}
				return true
			})
		case <-rl.stop:
			return
		}
	}
}

// clientKey 取限流用的客户端标识
//
// 反向代理后面取 X-Forwarded-For 的第一跳，否则用连接对端地址。
func clientKey(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	return c.ClientIP()
}
