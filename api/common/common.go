// Package common 定义证据接口统一的响应包络。
package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应包络
//
// status 取 success / rejected / error 三值。验证闸拒绝证据不是
// 错误，用独立的 rejected 状态承载拒绝原因，客户端据此区分
// "重新拍摄" 和 "稍后重试" 两种提示。
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(c *gin.Context, httpStatus int, status string, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// RespondSuccess 返回成功响应
func RespondSuccess(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, "success", "", data)
}

// RespondRejected 返回验证闸拒绝响应，reason 为拒绝原因
func RespondRejected(c *gin.Context, reason string, data interface{}) {
	respond(c, http.StatusUnprocessableEntity, "rejected", reason, data)
}

// RespondError 返回错误响应
func RespondError(c *gin.Context, httpStatus int, message string) {
	respond(c, httpStatus, "error", message, nil)
}
