package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequiredDocument 资产的清单项
//
// 同一资产下允许重名文档，不做去重。UploadedAt 与 IsUploaded 同步写入：
// 置为已上传时打时间戳，取消时清空。
type RequiredDocument struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	AssetID      string     `gorm:"type:varchar(36);index;not null" json:"asset_id"`
	DocumentName string     `gorm:"type:varchar(255);not null" json:"document_name"`
	IsUploaded   bool       `gorm:"default:false;not null" json:"is_uploaded"`
	UploadedAt   *time.Time `json:"uploaded_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (d *RequiredDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
