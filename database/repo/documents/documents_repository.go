package documents

import (
	"context"
	"time"

	"github.com/authenx/evidence-hub/database/models"
	"gorm.io/gorm"
)

// Repository 文档清单仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建文档清单仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID 通过 ID 获取清单项
func (r *Repository) GetByID(ctx context.Context, id string) (*models.RequiredDocument, error) {
	var doc models.RequiredDocument
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByAsset 获取资产的全部清单项
//
// 状态评估必须走这里重新读库，不允许用内存里的旧副本。
func (r *Repository) ListByAsset(ctx context.Context, assetID string) ([]models.RequiredDocument, error) {
	var docs []models.RequiredDocument
	err := r.db.WithContext(ctx).Where("asset_id = ?", assetID).Order("created_at ASC").Find(&docs).Error
	return docs, err
}

// SetUploaded 原子更新 is_uploaded 与 uploaded_at
func (r *Repository) SetUploaded(ctx context.Context, id string, uploaded bool, at *time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.RequiredDocument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_uploaded": uploaded,
			"uploaded_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
