package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/authenx/evidence-hub/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage MinIO 对象存储实现
type MinioStorage struct {
	client     *minio.Client
	bucketName string
	endpoint   string
	useSSL     bool
}

// NewMinioStorage 创建 MinIO 存储提供者
func NewMinioStorage(cfg *config.Config) (*MinioStorage, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       time.Minute,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 10 * time.Second,
		DisableCompression:    true,
	}

	if cfg.MinioUseSSL {
		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.MinioAccessKeyID, cfg.MinioSecretAccessKey, ""),
		Secure:    cfg.MinioUseSSL,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket '%s' exists: %w", cfg.MinioBucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket '%s': %w", cfg.MinioBucketName, err)
		}
	}

	return &MinioStorage{
		client:     client,
		bucketName: cfg.MinioBucketName,
		endpoint:   cfg.MinioEndpoint,
		useSSL:     cfg.MinioUseSSL,
	}, nil
}

// Save 将文件上传到 MinIO
func (s *MinioStorage) Save(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string, upsert bool) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if !upsert {
		_, err := s.client.StatObject(ctx, s.bucketName, objectPath, minio.StatObjectOptions{})
		if err == nil {
			return ErrAlreadyExists
		}
	}

	_, err := s.client.PutObject(ctx, s.bucketName, objectPath, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object '%s' to minio: %w", objectPath, err)
	}

	return nil
}

// Get 读取对象
func (s *MinioStorage) Get(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, objectPath, minio.GetObjectOptions{})
	if err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object stream from minio for '%s': %w", objectPath, err)
	}

	return obj, nil
}

// List 列出指定前缀下的全部对象
func (s *MinioStorage) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object

	for info := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects under '%s': %w", prefix, info.Err)
		}
		objects = append(objects, Object{
			Path:         info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
		})
	}

	if objects == nil {
		objects = []Object{}
	}
	return objects, nil
}

// Delete 删除对象
//
// S3 的 RemoveObject 对不存在的 key 也返回成功，先 Stat 一次保证
// 各提供者的 ErrNotFound 语义一致。
func (s *MinioStorage) Delete(ctx context.Context, objectPath string) error {
	if _, err := s.client.StatObject(ctx, s.bucketName, objectPath, minio.StatObjectOptions{}); err != nil {
		errResponse := minio.ToErrorResponse(err)
		if errResponse.Code == "NoSuchKey" {
			return ErrNotFound
		}
		return fmt.Errorf("failed to stat object '%s' on minio: %w", objectPath, err)
	}

	err := s.client.RemoveObject(ctx, s.bucketName, objectPath, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object '%s' from minio: %w", objectPath, err)
	}

	return nil
}

// PublicURL 返回对象的稳定访问地址
func (s *MinioStorage) PublicURL(objectPath string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucketName, objectPath)
}

// Name 返回存储提供者名称
func (s *MinioStorage) Name() string {
	return "minio"
}
