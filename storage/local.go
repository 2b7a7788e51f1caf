package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStorage 本地文件存储实现
type LocalStorage struct {
	absBasePath string
	baseURL     string
}

// NewLocalStorage 创建本地存储提供者
//
// baseURL 用于拼公开访问地址，为空时返回相对路径。
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory '%s': %w", absPath, err)
	}

	return &LocalStorage{
		absBasePath: absPath + string(os.PathSeparator),
		baseURL:     strings.TrimRight(baseURL, "/"),
	}, nil
}

// resolve 拼接并校验对象路径，防止目录穿越
func (s *LocalStorage) resolve(objectPath string) (string, error) {
	fullPath := filepath.Join(s.absBasePath, filepath.FromSlash(objectPath))
	if !strings.HasPrefix(fullPath, s.absBasePath) {
		return "", fmt.Errorf("invalid object path, potential directory traversal: %s", objectPath)
	}
	return fullPath, nil
}

// Save 保存文件到本地存储
func (s *LocalStorage) Save(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string, upsert bool) error {
	dstPath, err := s.resolve(objectPath)
	if err != nil {
		return err
	}

	if !upsert {
		if _, err := os.Stat(dstPath); err == nil {
			return ErrAlreadyExists
		}
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory for '%s': %w", objectPath, err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file '%s': %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, reader); err != nil {
		_ = os.Remove(dstPath)
		return fmt.Errorf("failed to copy file content to '%s': %w", dstPath, err)
	}

	return nil
}

// Get 从本地存储获取文件
func (s *LocalStorage) Get(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(objectPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file '%s': %w", objectPath, err)
	}

	return file, nil
}

// List 列出指定前缀下的全部对象
func (s *LocalStorage) List(ctx context.Context, prefix string) ([]Object, error) {
	root, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return []Object{}, nil
	}

	var objects []Object
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.absBasePath, path)
		if err != nil {
			return err
		}
		objects = append(objects, Object{
			Path:         filepath.ToSlash(rel),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under '%s': %w", prefix, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Path < objects[j].Path })
	return objects, nil
}

// Delete 从本地存储删除文件
func (s *LocalStorage) Delete(ctx context.Context, objectPath string) error {
	fullPath, err := s.resolve(objectPath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete local file '%s': %w", fullPath, err)
	}

	return nil
}

// PublicURL 返回对象的稳定访问地址
func (s *LocalStorage) PublicURL(objectPath string) string {
	return s.baseURL + "/files/" + strings.TrimLeft(objectPath, "/")
}

// Name 返回存储提供者名称
func (s *LocalStorage) Name() string {
	return "local"
}
