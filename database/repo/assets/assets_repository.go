package assets

import (
	"context"
	"time"

	"github.com/authenx/evidence-hub/database/models"
	"gorm.io/gorm"
)

// Repository 资产仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建资产仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithDocuments 创建资产及其文档清单（单事务）
func (r *Repository) CreateWithDocuments(ctx context.Context, asset *models.Asset, documentNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(asset).Error; err != nil {
			return err
		}
		for _, name := range documentNames {
			doc := &models.RequiredDocument{
				AssetID:      asset.ID,
				DocumentName: name,
			}
			if err := tx.Create(doc).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID 通过 ID 获取资产
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	var asset models.Asset
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// GetWithDocuments 获取资产并预加载文档
func (r *Repository) GetWithDocuments(ctx context.Context, id string) (*models.Asset, error) {
	var asset models.Asset
	err := r.db.WithContext(ctx).Preload("Documents").Where("id = ?", id).First(&asset).Error
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// UpdateStatusIf 条件状态更新，返回是否实际写入
//
// WHERE status = from 保证非法转换不会落库。
func (r *Repository) UpdateStatusIf(ctx context.Context, id string, from, to models.AssetStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected > 0, result.Error
}

// MarkAuthenticated pending -> authenticated，同时打验证时间戳
func (r *Repository) MarkAuthenticated(ctx context.Context, id string, verifiedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":      models.StatusAuthenticated,
			"verified_at": verifiedAt,
		})
	return result.RowsAffected > 0, result.Error
}

// SetAcceptedEvidence 验证通过后整体写入预览地址与地理信息
func (r *Repository) SetAcceptedEvidence(ctx context.Context, id string, imageURL string, lat, lon float64, address string) error {
	return r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"image_url":        imageURL,
			"latitude":         lat,
			"longitude":        lon,
			"location_address": address,
		}).Error
}

// SetAcceptedEvidenceNoLocation 无坐标采集时只更新预览地址
func (r *Repository) SetAcceptedEvidenceNoLocation(ctx context.Context, id string, imageURL string) error {
	return r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ?", id).
		Update("image_url", imageURL).Error
}

// ListByOwner 获取用户资产列表
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Asset, error) {
	var list []*models.Asset
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&list).Error
	return list, err
}
