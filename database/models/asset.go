package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssetStatus 资产生命周期状态
type AssetStatus string

const (
	StatusNonVerified   AssetStatus = "non-verified"
	StatusPending       AssetStatus = "pending"
	StatusAuthenticated AssetStatus = "authenticated"
)

// IsValid 检查状态值是否合法
func (s AssetStatus) IsValid() bool {
	switch s {
	case StatusNonVerified, StatusPending, StatusAuthenticated:
		return true
	}
	return false
}

// IsTerminal authenticated 状态没有自动转出路径
func (s AssetStatus) IsTerminal() bool {
	return s == StatusAuthenticated
}

// Asset 待验证的实物资产
//
// ImageURL/Latitude/Longitude/LocationAddress 四个字段只在验证通过时
// 作为一次更新整体写入，要么全有要么全无。
type Asset struct {
	ID      string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name    string      `gorm:"type:varchar(255);not null" json:"name"`
	OwnerID string      `gorm:"type:varchar(36);index;not null" json:"owner_id"`
	Status  AssetStatus `gorm:"type:varchar(20);default:'non-verified';not null" json:"status"`

	ImageURL        *string  `gorm:"type:varchar(1024)" json:"image_url"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	LocationAddress *string  `gorm:"type:varchar(512)" json:"location_address"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"-"`
	VerifiedAt *time.Time `json:"verified_at"`

	Documents []RequiredDocument `gorm:"foreignKey:AssetID" json:"documents,omitempty"`
}

// BeforeCreate 生成主键
func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = StatusNonVerified
	}
	return nil
}
