package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/authenx/evidence-hub/config"
	"github.com/studio-b12/gowebdav"
)

// WebDAVStorage WebDAV 存储实现
type WebDAVStorage struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(cfg *config.Config) (*WebDAVStorage, error) {
	if cfg.WebDAVURL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	rootPath := strings.Trim(cfg.WebDAVRootPath, "/")
	if rootPath != "" {
		rootPath = "/" + rootPath
	}

	client := gowebdav.NewClient(cfg.WebDAVURL, cfg.WebDAVUsername, cfg.WebDAVPassword)

	// 验证连接
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := testWebDAVConnection(ctx, client, rootPath); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}

	return &WebDAVStorage{
		client:   client,
		baseURL:  strings.TrimRight(cfg.WebDAVURL, "/"),
		rootPath: rootPath,
	}, nil
}

// testWebDAVConnection 测试 WebDAV 连接
func testWebDAVConnection(ctx context.Context, client *gowebdav.Client, rootPath string) error {
	done := make(chan error, 1)
	go func() {
		_, err := client.ReadDir(rootPath)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(objectPath string) string {
	objectPath = strings.TrimLeft(objectPath, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + objectPath
	}
	return "/" + objectPath
}

// ensureParentDir 递归创建父目录
func (s *WebDAVStorage) ensureParentDir(ctx context.Context, fullPath string) error {
	parentDir := path.Dir(fullPath)
	if parentDir == "/" || parentDir == "." {
		return nil
	}

	parts := strings.Split(strings.Trim(parentDir, "/"), "/")
	currentPath := ""

	for _, part := range parts {
		if part == "" {
			continue
		}
		currentPath = currentPath + "/" + part

		done := make(chan error, 1)
		go func(p string) {
			done <- s.client.Mkdir(p, os.FileMode(0755))
		}(currentPath)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			if err != nil && !isCollectionExistsError(err) {
				return fmt.Errorf("failed to create directory %s: %w", currentPath, err)
			}
		}
	}

	return nil
}

// isCollectionExistsError 判断是否为目录已存在的错误
func isCollectionExistsError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// 常见 WebDAV 服务器的 "目录已存在" 错误信息
	for _, s := range []string{"already exists", "conflict", "Conflict", "409", "Method Not Allowed", "405"} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// Save 保存文件到 WebDAV
func (s *WebDAVStorage) Save(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string, upsert bool) error {
	fullPath := s.fullPath(objectPath)

	if !upsert {
		if _, err := s.client.Stat(fullPath); err == nil {
			return ErrAlreadyExists
		}
	}

	if err := s.ensureParentDir(ctx, fullPath); err != nil {
		return fmt.Errorf("failed to ensure parent directory for %s: %w", objectPath, err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read file content: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.client.Write(fullPath, data, 0644)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to write file %s: %w", objectPath, err)
		}
		return nil
	}
}

// Get 从 WebDAV 获取文件
func (s *WebDAVStorage) Get(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	fullPath := s.fullPath(objectPath)

	type result struct {
		data []byte
		err  error
	}

	done := make(chan result, 1)
	go func() {
		data, err := s.client.Read(fullPath)
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			if gowebdav.IsErrNotFound(res.err) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to read file %s: %w", objectPath, res.err)
		}
		return io.NopCloser(bytes.NewReader(res.data)), nil
	}
}

// List 列出指定前缀下的全部对象
func (s *WebDAVStorage) List(ctx context.Context, prefix string) ([]Object, error) {
	fullPath := s.fullPath(prefix)

	type result struct {
		infos []os.FileInfo
		err   error
	}

	done := make(chan result, 1)
	go func() {
		infos, err := s.client.ReadDir(fullPath)
		done <- result{infos: infos, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			if gowebdav.IsErrNotFound(res.err) {
				return []Object{}, nil
			}
			return nil, fmt.Errorf("failed to list objects under '%s': %w", prefix, res.err)
		}

		objects := make([]Object, 0, len(res.infos))
		for _, info := range res.infos {
			if info.IsDir() {
				continue
			}
			objects = append(objects, Object{
				Path:         strings.TrimLeft(path.Join(prefix, info.Name()), "/"),
				Size:         info.Size(),
				LastModified: info.ModTime(),
			})
		}
		return objects, nil
	}
}

// Delete 从 WebDAV 删除文件
func (s *WebDAVStorage) Delete(ctx context.Context, objectPath string) error {
	fullPath := s.fullPath(objectPath)

	done := make(chan error, 1)
	go func() {
		done <- s.client.Remove(fullPath)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			if gowebdav.IsErrNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to delete file %s: %w", objectPath, err)
		}
		return nil
	}
}

// PublicURL 返回对象的稳定访问地址
func (s *WebDAVStorage) PublicURL(objectPath string) string {
	return s.baseURL + s.fullPath(objectPath)
}

// Name 返回存储提供者名称
func (s *WebDAVStorage) Name() string {
	return "webdav"
}
