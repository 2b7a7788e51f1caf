package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("storage: object not found")

// ErrAlreadyExists 对象已存在且未允许覆盖
var ErrAlreadyExists = errors.New("storage: object already exists")

// Object 存储对象元信息
type Object struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// Provider 证据存储接口
//
// 路径命名空间按资产隔离（assets/<asset-id>/...），同一资产的并发上传
// 依赖时间戳文件名互不覆盖。
type Provider interface {
	// Save 写入对象，upsert 为 false 时已存在即失败
	Save(ctx context.Context, path string, reader io.Reader, size int64, contentType string, upsert bool) error

	// Get 读取对象
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// List 列出指定前缀下的全部对象
	List(ctx context.Context, prefix string) ([]Object, error)

	// Delete 删除对象
	Delete(ctx context.Context, path string) error

	// PublicURL 返回对象的稳定访问地址
	PublicURL(path string) string

	// Name 返回存储提供者名称
	Name() string
}
