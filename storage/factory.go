package storage

import (
	"fmt"
	"log"

	"github.com/authenx/evidence-hub/config"
)

// NewProvider 根据配置创建存储提供者
func NewProvider(cfg *config.Config) (Provider, error) {
	log.Printf("Initializing storage, type: %s", cfg.StorageType)

	switch cfg.StorageType {
	case "", "local":
		return NewLocalStorage(cfg.StorageLocalPath, cfg.ServerDomain)
	case "minio":
		if cfg.MinioEndpoint == "" {
			return nil, fmt.Errorf("minio endpoint is required for minio storage")
		}
		return NewMinioStorage(cfg)
	case "webdav":
		return NewWebDAVStorage(cfg)
	default:
		return nil, fmt.Errorf("invalid storage type specified in config: %s", cfg.StorageType)
	}
}
